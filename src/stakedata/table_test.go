package stakedata

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRows() []BucketRow {
	return []BucketRow{
		{StakeRange: "0-100", ValidatorCount: 10, TotalStaked: 500, MedianStake: 50, Probability: 0.25},
		{StakeRange: "100-1K", ValidatorCount: 20, TotalStaked: 9000, MedianStake: 400, Probability: 0.5},
		{StakeRange: "1K+", ValidatorCount: 10, TotalStaked: 20000, MedianStake: 1900, Probability: 0.25},
	}
}

func TestNewTableAggregates(t *testing.T) {
	tbl, err := NewTable(sampleRows())
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, []string{"0-100", "100-1K", "1K+"}, tbl.Labels())
	assert.Equal(t, 29500.0, tbl.TotalStaked())
	assert.Equal(t, 40, tbl.TotalValidators())
	assert.InDelta(t, 1.0, tbl.ProbabilitySum(), 1e-12)
	assert.Empty(t, tbl.Warnings())
}

func TestTableRowsAreCopied(t *testing.T) {
	rows := sampleRows()
	tbl, err := NewTable(rows)
	require.NoError(t, err)
	rows[0].TotalStaked = 1
	got := tbl.Rows()
	got[1].StakeRange = "mutated"
	assert.Equal(t, 500.0, tbl.Row(0).TotalStaked)
	assert.Equal(t, "100-1K", tbl.Row(1).StakeRange)
}

func TestNewTableRejectsInvariantViolations(t *testing.T) {
	cases := map[string]func(r []BucketRow){
		"negative total":        func(r []BucketRow) { r[0].TotalStaked = -1 },
		"negative count":        func(r []BucketRow) { r[0].ValidatorCount = -3 },
		"probability above 1":   func(r []BucketRow) { r[1].Probability = 1.2 },
		"empty label":           func(r []BucketRow) { r[2].StakeRange = "  " },
		"duplicate label":       func(r []BucketRow) { r[2].StakeRange = "0-100" },
		"stake in empty bucket": func(r []BucketRow) { r[0].ValidatorCount = 0 },
		"total overflows":       func(r []BucketRow) { r[1].TotalStaked, r[2].TotalStaked = 1e308, 1e308 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			rows := sampleRows()
			mutate(rows)
			tbl, err := NewTable(rows)
			require.Nil(t, tbl)
			require.True(t, errors.Is(err, ErrMalformedTable), "got %v", err)
		})
	}
}

func TestNewTableWarnings(t *testing.T) {
	rows := sampleRows()
	rows[0].MedianStake = 0
	rows[1].Probability = 0.4
	tbl, err := NewTable(rows)
	require.NoError(t, err)
	w := tbl.Warnings()
	require.Len(t, w, 2)
	assert.Contains(t, w[0], "zero median stake")
	assert.Contains(t, w[1], "probabilities sum to 0.9000")
}

func TestEmptyTableIsValid(t *testing.T) {
	tbl, err := NewTable(nil)
	require.NoError(t, err)
	assert.Zero(t, tbl.Len())
	assert.Zero(t, tbl.TotalStaked())
	assert.Empty(t, tbl.Warnings())
}
