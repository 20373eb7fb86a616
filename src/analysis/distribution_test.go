package analysis

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iafilius/StakeCostModel/src/costmodel"
	"github.com/iafilius/StakeCostModel/src/stakedata"
)

func mustTable(t *testing.T, rows ...stakedata.BucketRow) *stakedata.Table {
	t.Helper()
	tbl, err := stakedata.NewTable(rows)
	require.NoError(t, err)
	return tbl
}

func baseline(t *testing.T) costmodel.Assumptions {
	t.Helper()
	a, err := costmodel.New(420, 5.4, 4653.6, 1230)
	require.NoError(t, err)
	return a
}

func sampleTable(t *testing.T) *stakedata.Table {
	return mustTable(t,
		stakedata.BucketRow{StakeRange: "0-100", ValidatorCount: 50, TotalStaked: 2500, MedianStake: 40, Probability: 0.5},
		stakedata.BucketRow{StakeRange: "100-1K", ValidatorCount: 30, TotalStaked: 15000, MedianStake: 480, Probability: 0.3},
		stakedata.BucketRow{StakeRange: "1K-10K", ValidatorCount: 0, TotalStaked: 0, MedianStake: 0, Probability: 0},
		stakedata.BucketRow{StakeRange: "10K+", ValidatorCount: 20, TotalStaked: 900000, MedianStake: 41000, Probability: 0.2},
	)
}

func TestSingleBucketScenario(t *testing.T) {
	cost := baseline(t)
	a, err := NewAnalyzer(mustTable(t, stakedata.BucketRow{StakeRange: "A", ValidatorCount: 10, TotalStaked: 1000, MedianStake: 100, Probability: 1.0}), cost)
	require.NoError(t, err)

	fr, err := a.StakeFractions()
	require.NoError(t, err)
	require.Equal(t, []BucketValue{{Label: "A", Value: 1.0}}, fr)

	tc := a.TotalCostPerBucket()
	require.Len(t, tc, 1)
	assert.Equal(t, 1000*cost.CostPerStakeUnit(), tc[0].Value)

	eff := a.CostPerStakeUnitByBucket()
	require.Len(t, eff, 1)
	v, ok := eff[0].Get()
	require.True(t, ok)
	assert.Equal(t, cost.TotalCostPerValidator()/100, v)
	assert.InDelta(t, 50.79, v, 1e-9)
}

func TestValidatorFractionsCopyProbabilityInOrder(t *testing.T) {
	a, err := NewAnalyzer(sampleTable(t), baseline(t))
	require.NoError(t, err)
	got := a.ValidatorFractions()
	want := []BucketValue{{"0-100", 0.5}, {"100-1K", 0.3}, {"1K-10K", 0}, {"10K+", 0.2}}
	assert.Equal(t, want, got)
}

func TestStakeFractionsSumToOne(t *testing.T) {
	a, err := NewAnalyzer(sampleTable(t), baseline(t))
	require.NoError(t, err)
	fr, err := a.StakeFractions()
	require.NoError(t, err)
	sum := 0.0
	for _, f := range fr {
		sum += f.Value
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
	assert.Equal(t, 0.0, fr[2].Value)
	assert.InDelta(t, 900000.0/917500.0, fr[3].Value, 1e-15)
}

func TestStakeFractionsEmptyTable(t *testing.T) {
	cost := baseline(t)
	cases := map[string]*stakedata.Table{
		"no rows": mustTable(t),
		"no stake": mustTable(t,
			stakedata.BucketRow{StakeRange: "A", Probability: 0.5},
			stakedata.BucketRow{StakeRange: "B", Probability: 0.5},
		),
	}
	for name, tbl := range cases {
		t.Run(name, func(t *testing.T) {
			a, err := NewAnalyzer(tbl, cost)
			require.NoError(t, err)
			_, err = a.StakeFractions()
			require.True(t, errors.Is(err, ErrEmptyTable))
			_, err = a.Imbalance()
			require.True(t, errors.Is(err, ErrEmptyTable))
			// series that do not divide by the total are unaffected
			assert.Len(t, a.ValidatorFractions(), tbl.Len())
			assert.Len(t, a.TotalCostPerBucket(), tbl.Len())
			assert.Zero(t, a.FleetMonthlyCost())
		})
	}
}

func TestCostPerStakeUnitByBucketUndefinedForZeroMedian(t *testing.T) {
	cost := baseline(t)
	a, err := NewAnalyzer(sampleTable(t), cost)
	require.NoError(t, err)
	vals := a.CostPerStakeUnitByBucket()
	require.Len(t, vals, 4)
	for i, v := range vals {
		assert.False(t, math.IsNaN(v.Value) || math.IsInf(v.Value, 0), "bucket %d leaked %v", i, v.Value)
	}
	assert.False(t, vals[2].Defined)
	assert.Zero(t, vals[2].Value)
	assert.True(t, vals[0].Defined)
	assert.Equal(t, cost.TotalCostPerValidator()/40, vals[0].Value)
	assert.Equal(t, cost.TotalCostPerValidator()/41000, vals[3].Value)

	tiny, err := NewAnalyzer(mustTable(t,
		stakedata.BucketRow{StakeRange: "dust", ValidatorCount: 1, TotalStaked: 1, MedianStake: 1e-320, Probability: 1},
	), cost)
	require.NoError(t, err)
	v := tiny.CostPerStakeUnitByBucket()[0]
	assert.False(t, v.Defined)
	assert.Zero(t, v.Value)
}

func TestTotalCostUsesFleetWideRateNotBucketRate(t *testing.T) {
	cost := baseline(t)
	a, err := NewAnalyzer(sampleTable(t), cost)
	require.NoError(t, err)
	tc := a.TotalCostPerBucket()
	eff := a.CostPerStakeUnitByBucket()
	for i, r := range sampleTable(t).Rows() {
		assert.Equal(t, r.TotalStaked*cost.CostPerStakeUnit(), tc[i].Value)
	}
	// the bucket-local rate of the smallest bucket differs from the fleet-wide rate
	assert.NotEqual(t, eff[0].Value*2500, tc[0].Value)
	assert.InDelta(t, 917500*cost.CostPerStakeUnit(), a.FleetMonthlyCost(), 1e-6)
}

func TestValidatorsVsStakeIsRaw(t *testing.T) {
	a, err := NewAnalyzer(sampleTable(t), baseline(t))
	require.NoError(t, err)
	got := a.ValidatorsVsStake()
	assert.Equal(t, BucketPair{Label: "10K+", Validators: 20, TotalStaked: 900000}, got[3])
}

func TestImbalancePairsBothFractions(t *testing.T) {
	a, err := NewAnalyzer(sampleTable(t), baseline(t))
	require.NoError(t, err)
	rows, err := a.Imbalance()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, 0.5, rows[0].ValidatorFraction)
	assert.InDelta(t, 2500.0/917500.0, rows[0].StakeFraction, 1e-15)
}

func TestNewAnalyzerRejectsMissingInputs(t *testing.T) {
	_, err := NewAnalyzer(nil, baseline(t))
	require.True(t, errors.Is(err, ErrEmptyTable))
	_, err = NewAnalyzer(sampleTable(t), costmodel.Assumptions{})
	require.True(t, errors.Is(err, costmodel.ErrInvalidAssumptions))
}

func TestRegimesAreIndependent(t *testing.T) {
	tbl := sampleTable(t)
	base := baseline(t)
	ab, err := NewAnalyzer(tbl, base)
	require.NoError(t, err)
	ar, err := NewAnalyzer(tbl, base.WithoutVotingFee())
	require.NoError(t, err)
	b := ab.TotalCostPerBucket()
	r := ar.TotalCostPerBucket()
	for i := range b {
		if b[i].Value > 0 {
			assert.Less(t, r[i].Value, b[i].Value)
		}
	}
	// computing the reduced regime must not disturb the baseline series
	assert.Equal(t, b, ab.TotalCostPerBucket())
}
