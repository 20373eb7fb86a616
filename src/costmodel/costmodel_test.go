package costmodel

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBaselineAndReducedFeeFigures(t *testing.T) {
	base, err := New(420, 5.4, 4653.6, 1230)
	require.NoError(t, err)
	require.InDelta(t, 5079.0, base.TotalCostPerValidator(), 1e-9)
	require.InDelta(t, 4.1293, base.CostPerStakeUnit(), 1e-4)

	reduced, err := New(420, 5.4, 0, 1230)
	require.NoError(t, err)
	require.InDelta(t, 425.4, reduced.TotalCostPerValidator(), 1e-9)
	require.InDelta(t, 0.3458, reduced.CostPerStakeUnit(), 1e-4)

	require.Equal(t, reduced, base.WithoutVotingFee())
}

func TestCostPerStakeUnitIsTotalOverReference(t *testing.T) {
	cases := [][4]float64{
		{420, 5.4, 4653.6, 1230},
		{0, 0, 0, 1},
		{1000, 12.5, 0, 0.5},
		{99.99, 0.01, 3000, 1e6},
	}
	for _, c := range cases {
		a, err := New(c[0], c[1], c[2], c[3])
		require.NoError(t, err)
		want := a.TotalCostPerValidator() / a.MedianStakePerValidator()
		require.Equal(t, want, a.CostPerStakeUnit())
	}
}

func TestReducedFeeStrictlyCheaperWhenFeeIsPositive(t *testing.T) {
	for _, fee := range []float64{0.01, 1, 4653.6} {
		base, err := New(420, 5.4, fee, 1230)
		require.NoError(t, err)
		require.Less(t, base.WithoutVotingFee().CostPerStakeUnit(), base.CostPerStakeUnit())
	}
}

func TestNewRejectsInvalidInputs(t *testing.T) {
	cases := []struct {
		name string
		args [4]float64
	}{
		{"negative hardware", [4]float64{-1, 0, 0, 1}},
		{"negative bandwidth", [4]float64{1, -0.5, 0, 1}},
		{"negative voting fee", [4]float64{1, 0, -2, 1}},
		{"negative reference", [4]float64{1, 0, 0, -1}},
		{"zero reference", [4]float64{1, 0, 0, 0}},
		{"nan cost", [4]float64{math.NaN(), 0, 0, 1}},
		{"inf reference", [4]float64{1, 0, 0, math.Inf(1)}},
		{"total overflows", [4]float64{math.MaxFloat64, math.MaxFloat64, 0, 1}},
		{"per unit overflows", [4]float64{1e300, 0, 0, 1e-300}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a, err := New(tc.args[0], tc.args[1], tc.args[2], tc.args[3])
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrInvalidAssumptions))
			require.False(t, a.Valid(), "no partial assumptions on error")
		})
	}
}

func TestZeroValueIsNotValid(t *testing.T) {
	var a Assumptions
	require.False(t, a.Valid())
	b, err := New(1, 1, 1, 1)
	require.NoError(t, err)
	require.True(t, b.Valid())
	require.True(t, b.WithoutVotingFee().Valid())
}
