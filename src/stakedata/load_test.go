package stakedata

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestLoadSampleCSV(t *testing.T) {
	tbl, err := Load(filepath.Join("testdata", "validator_stats.csv"), LoadOptions{})
	require.NoError(t, err)
	require.Equal(t, 7, tbl.Len())
	first := tbl.Row(0)
	assert.Equal(t, BucketRow{StakeRange: "0-100", ValidatorCount: 212, TotalStaked: 4820.5, MedianStake: 18.4, Probability: 0.212}, first)
	assert.Equal(t, "10M+", tbl.Row(6).StakeRange)
	assert.Equal(t, 1000, tbl.TotalValidators())
	assert.Empty(t, tbl.Warnings())
}

func TestLoadTSVWithExtraColumnAndQuotedThousands(t *testing.T) {
	tbl, err := Load(filepath.Join("testdata", "validator_stats.tsv"), LoadOptions{})
	require.NoError(t, err)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, 1800.0, tbl.Row(1).TotalStaked)
	assert.Equal(t, 2000.0, tbl.TotalStaked())
}

func TestLoadMissingColumn(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "missing_column.csv"), LoadOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedTable))
	assert.Contains(t, err.Error(), ColMedianStake)
}

func TestLoadUnsupportedExtension(t *testing.T) {
	_, err := Load("stats.parquet", LoadOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")
}

func TestReadCSVHeaderMatchingAndBlankLines(t *testing.T) {
	in := "\ufeff stake range ,NUMBER OF VALIDATORS,Total  Staked,Median Stake,probability\n" +
		"A,10,1000,100,1.0\n" +
		",,,,\n"
	tbl, err := ReadCSV(strings.NewReader(in), ',')
	require.NoError(t, err)
	require.Equal(t, 1, tbl.Len())
	assert.Equal(t, BucketRow{StakeRange: "A", ValidatorCount: 10, TotalStaked: 1000, MedianStake: 100, Probability: 1}, tbl.Row(0))
}

func TestReadCSVBadValues(t *testing.T) {
	header := "Stake Range,Number of Validators,Total Staked,Median Stake,Probability\n"
	for name, line := range map[string]string{
		"fractional count": "A,10.5,1000,100,1.0",
		"text total":       "A,10,lots,100,1.0",
		"empty median":     "A,10,1000,,1.0",
		"negative stake":   "A,10,-1,100,1.0",
		"decimal comma":    "A,10,1000,\"1,5\",1.0",
		"misgrouped comma": "A,10,\"10,00\",100,1.0",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(header+line+"\n"), ',')
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedTable), "got %v", err)
		})
	}
}

func TestReadCSVAcceptsSpreadsheetCounts(t *testing.T) {
	in := "Stake Range,Number of Validators,Total Staked,Median Stake,Probability\nA,12.0,\"1,000\",100,1\n"
	tbl, err := ReadCSV(strings.NewReader(in), ',')
	require.NoError(t, err)
	assert.Equal(t, 12, tbl.Row(0).ValidatorCount)
	assert.Equal(t, 1000.0, tbl.Row(0).TotalStaked)
}

func TestParseNumberThousandsSeparators(t *testing.T) {
	for in, want := range map[string]float64{
		"1,800":        1800,
		"1,234,567.25": 1234567.25,
		" 42 ":         42,
		"0.5":          0.5,
		"-1,000":       -1000,
	} {
		got, err := parseNumber(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"1,5", "12,34", "1,0000", ",100", "1,000,00"} {
		_, err := parseNumber(in)
		assert.True(t, errors.Is(err, ErrMalformedTable), "%q: got %v", in, err)
	}
}

func writeXLSX(t *testing.T, sheet string, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if sheet != "Sheet1" {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		row := r
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	path := filepath.Join(t.TempDir(), "stats.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestLoadXLSX(t *testing.T) {
	rows := [][]interface{}{
		{ColStakeRange, ColValidators, ColTotalStaked, ColMedianStake, ColProbability},
		{"0-100", 3, 150.5, 40, 0.3},
		{"100+", 7, 7000, 900, 0.7},
	}
	path := writeXLSX(t, "Sheet1", rows)
	tbl, err := Load(path, LoadOptions{})
	require.NoError(t, err)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, BucketRow{StakeRange: "100+", ValidatorCount: 7, TotalStaked: 7000, MedianStake: 900, Probability: 0.7}, tbl.Row(1))
	assert.Equal(t, 7150.5, tbl.TotalStaked())
}

func TestLoadXLSXNamedSheet(t *testing.T) {
	rows := [][]interface{}{
		{ColStakeRange, ColValidators, ColTotalStaked, ColMedianStake, ColProbability},
		{"all", 5, 500, 100, 1},
	}
	path := writeXLSX(t, "stats", rows)
	tbl, err := Load(path, LoadOptions{Sheet: "stats"})
	require.NoError(t, err)
	assert.Equal(t, "all", tbl.Row(0).StakeRange)

	_, err = Load(path, LoadOptions{Sheet: "nope"})
	require.Error(t, err)
}
