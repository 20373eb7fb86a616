// Package stakedata holds the validator stake statistics table: one row per stake
// bucket, validated once at load time and read-only afterwards.
package stakedata

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrMalformedTable is returned for rows or files violating the table invariants.
var ErrMalformedTable = errors.New("malformed stake table")

// Column headers of the input table.
const (
	ColStakeRange  = "Stake Range"
	ColValidators  = "Number of Validators"
	ColTotalStaked = "Total Staked"
	ColMedianStake = "Median Stake"
	ColProbability = "Probability"
)

const probabilityTol = 1e-3

// BucketRow is one stake bucket.
type BucketRow struct {
	StakeRange     string  `json:"stake_range" yaml:"stake_range"`
	ValidatorCount int     `json:"validator_count" yaml:"validator_count"`
	TotalStaked    float64 `json:"total_staked" yaml:"total_staked"`
	MedianStake    float64 `json:"median_stake" yaml:"median_stake"`
	Probability    float64 `json:"probability" yaml:"probability"`
}

// Table is an immutable, validated list of buckets in display order.
type Table struct {
	rows     []BucketRow
	total    float64
	warnings []string
}

// NewTable validates rows and copies them. A table without rows is valid; consumers
// that divide by the table-wide stake report that case themselves.
func NewTable(rows []BucketRow) (*Table, error) {
	t := &Table{rows: make([]BucketRow, len(rows))}
	seen := make(map[string]int, len(rows))
	var errs []error
	for i, r := range rows {
		r.StakeRange = strings.TrimSpace(r.StakeRange)
		if err := validateRow(r); err != nil {
			errs = append(errs, fmt.Errorf("row %d (%q): %w", i+1, r.StakeRange, err))
		}
		if prev, dup := seen[r.StakeRange]; dup && r.StakeRange != "" {
			errs = append(errs, fmt.Errorf("%w: row %d duplicates stake range %q of row %d", ErrMalformedTable, i+1, r.StakeRange, prev))
		}
		seen[r.StakeRange] = i + 1
		if r.MedianStake == 0 && r.ValidatorCount > 0 {
			t.warnings = append(t.warnings, fmt.Sprintf("bucket %q has %d validators but a zero median stake", r.StakeRange, r.ValidatorCount))
		}
		t.rows[i] = r
		t.total += r.TotalStaked
	}
	if math.IsInf(t.total, 0) {
		errs = append(errs, fmt.Errorf("%w: %s overflows over all buckets", ErrMalformedTable, ColTotalStaked))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if len(rows) > 0 {
		if sum := t.ProbabilitySum(); math.Abs(sum-1) > probabilityTol {
			t.warnings = append(t.warnings, fmt.Sprintf("probabilities sum to %.4f, expected 1", sum))
		}
	}
	return t, nil
}

func validateRow(r BucketRow) error {
	if r.StakeRange == "" {
		return fmt.Errorf("%w: empty %s", ErrMalformedTable, ColStakeRange)
	}
	if r.ValidatorCount < 0 {
		return fmt.Errorf("%w: negative %s %d", ErrMalformedTable, ColValidators, r.ValidatorCount)
	}
	for _, c := range []struct {
		col string
		v   float64
	}{{ColTotalStaked, r.TotalStaked}, {ColMedianStake, r.MedianStake}, {ColProbability, r.Probability}} {
		if math.IsNaN(c.v) || math.IsInf(c.v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrMalformedTable, c.col)
		}
		if c.v < 0 {
			return fmt.Errorf("%w: negative %s %v", ErrMalformedTable, c.col, c.v)
		}
	}
	if r.Probability > 1 {
		return fmt.Errorf("%w: %s %v outside [0,1]", ErrMalformedTable, ColProbability, r.Probability)
	}
	if r.ValidatorCount == 0 && r.TotalStaked != 0 {
		return fmt.Errorf("%w: empty bucket with %s %v", ErrMalformedTable, ColTotalStaked, r.TotalStaked)
	}
	return nil
}

func (t *Table) Len() int { return len(t.rows) }

// Rows returns a copy of the buckets.
func (t *Table) Rows() []BucketRow {
	out := make([]BucketRow, len(t.rows))
	copy(out, t.rows)
	return out
}

func (t *Table) Row(i int) BucketRow { return t.rows[i] }

func (t *Table) Labels() []string {
	out := make([]string, len(t.rows))
	for i, r := range t.rows {
		out[i] = r.StakeRange
	}
	return out
}

// TotalStaked is the table-wide stake sum.
func (t *Table) TotalStaked() float64 { return t.total }

func (t *Table) TotalValidators() int {
	n := 0
	for _, r := range t.rows {
		n += r.ValidatorCount
	}
	return n
}

func (t *Table) ProbabilitySum() float64 {
	s := 0.0
	for _, r := range t.rows {
		s += r.Probability
	}
	return s
}

// Warnings lists soft inconsistencies found at construction (not errors).
func (t *Table) Warnings() []string {
	return append([]string(nil), t.warnings...)
}
