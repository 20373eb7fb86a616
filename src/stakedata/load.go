package stakedata

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// LoadOptions tunes how the input file is read.
type LoadOptions struct {
	// Sheet selects the XLSX worksheet; empty means the first sheet.
	Sheet string
}

// Load reads a stake table from a .csv, .tsv or .xlsx file.
func Load(path string, opts LoadOptions) (*Table, error) {
	if path == "" {
		return nil, fmt.Errorf("file path is empty")
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm":
		return ReadXLSX(path, opts.Sheet)
	case ".csv", ".tsv", ".txt":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		comma := ','
		if ext == ".tsv" {
			comma = '\t'
		}
		return ReadCSV(f, comma)
	default:
		return nil, fmt.Errorf("unsupported stake table format %q (want .csv, .tsv or .xlsx)", ext)
	}
}

// ReadCSV parses a delimited stake table with a header row.
func ReadCSV(r io.Reader, comma rune) (*Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTable, err)
	}
	return fromRecords(records)
}

// ReadXLSX parses the given worksheet (or the first one) of an Excel workbook.
func ReadXLSX(path, sheet string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%w: no sheets found in XLSX file", ErrMalformedTable)
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	return fromRecords(rows)
}

// fromRecords maps the header row onto the required columns and converts each record.
func fromRecords(records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no header row", ErrMalformedTable)
	}
	idx, err := headerIndex(records[0])
	if err != nil {
		return nil, err
	}
	rows := make([]BucketRow, 0, len(records)-1)
	for n, rec := range records[1:] {
		line := n + 2
		if blankRecord(rec) {
			continue
		}
		cell := func(col string) string {
			i := idx[col]
			if i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		row := BucketRow{StakeRange: cell(ColStakeRange)}
		if row.ValidatorCount, err = parseCount(cell(ColValidators)); err != nil {
			return nil, fmt.Errorf("line %d: %s: %w", line, ColValidators, err)
		}
		for _, f := range []struct {
			col string
			dst *float64
		}{{ColTotalStaked, &row.TotalStaked}, {ColMedianStake, &row.MedianStake}, {ColProbability, &row.Probability}} {
			if *f.dst, err = parseNumber(cell(f.col)); err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", line, f.col, err)
			}
		}
		rows = append(rows, row)
	}
	return NewTable(rows)
}

func headerIndex(header []string) (map[string]int, error) {
	want := []string{ColStakeRange, ColValidators, ColTotalStaked, ColMedianStake, ColProbability}
	idx := make(map[string]int, len(want))
	for i, h := range header {
		h = normalizeHeader(h)
		for _, w := range want {
			if _, ok := idx[w]; !ok && h == normalizeHeader(w) {
				idx[w] = i
			}
		}
	}
	var missing []string
	for _, w := range want {
		if _, ok := idx[w]; !ok {
			missing = append(missing, w)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing column(s) %s", ErrMalformedTable, strings.Join(missing, ", "))
	}
	return idx, nil
}

// normalizeHeader lowercases, strips a UTF-8 BOM and collapses inner whitespace.
func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.ToLower(strings.Join(strings.Fields(h), " "))
}

func blankRecord(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// thousandsGrouped matches numbers whose commas only separate groups of three digits.
var thousandsGrouped = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d+)?$`)

// parseNumber accepts plain numbers and comma thousands separators ("1,800").
// Any other comma, such as a decimal comma, is rejected.
func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") {
		if !thousandsGrouped.MatchString(s) {
			return 0, fmt.Errorf("%w: %q has misplaced thousands separators", ErrMalformedTable, s)
		}
		s = strings.ReplaceAll(s, ",", "")
	}
	if s == "" {
		return 0, fmt.Errorf("%w: empty value", ErrMalformedTable)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrMalformedTable, s)
	}
	return v, nil
}

// parseCount accepts integral values, including spreadsheet renderings such as "12.0".
func parseCount(s string) (int, error) {
	v, err := parseNumber(s)
	if err != nil {
		return 0, err
	}
	if v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %q is not an integer count", ErrMalformedTable, s)
	}
	return int(v), nil
}
