// Package analysis derives the per-bucket and continuous cost series from a stake table
// and one set of cost assumptions.
//
// Every series is computed independently from already-validated inputs; a failure in one
// (for example a table whose stake sums to zero) never affects the others.
package analysis

import (
	"errors"
	"fmt"
	"math"

	"github.com/iafilius/StakeCostModel/src/costmodel"
	"github.com/iafilius/StakeCostModel/src/stakedata"
)

// ErrEmptyTable is returned by series that divide by the table-wide stake when the table
// has no rows or its stake sums to zero.
var ErrEmptyTable = errors.New("stake table is empty or holds no stake")

// BucketValue pairs a bucket label with one derived number.
type BucketValue struct {
	Label string  `json:"label" yaml:"label"`
	Value float64 `json:"value" yaml:"value"`
}

// OptionalValue is a per-bucket value that may be undefined (Defined == false), e.g. a
// cost per stake unit for a bucket whose median stake is zero. Value is 0 when undefined.
type OptionalValue struct {
	Label   string  `json:"label" yaml:"label"`
	Value   float64 `json:"value" yaml:"value"`
	Defined bool    `json:"defined" yaml:"defined"`
}

// Get returns the value and whether it is defined.
func (o OptionalValue) Get() (float64, bool) { return o.Value, o.Defined }

// BucketPair is the raw validator count and stake of one bucket.
type BucketPair struct {
	Label       string  `json:"label" yaml:"label"`
	Validators  int     `json:"validators" yaml:"validators"`
	TotalStaked float64 `json:"total_staked" yaml:"total_staked"`
}

// ImbalanceRow compares the share of validators with the share of stake in a bucket.
type ImbalanceRow struct {
	Label             string  `json:"label" yaml:"label"`
	ValidatorFraction float64 `json:"validator_fraction" yaml:"validator_fraction"`
	StakeFraction     float64 `json:"stake_fraction" yaml:"stake_fraction"`
}

// Analyzer references (does not own) a table and a cost regime.
type Analyzer struct {
	table *stakedata.Table
	cost  costmodel.Assumptions
}

func NewAnalyzer(table *stakedata.Table, cost costmodel.Assumptions) (*Analyzer, error) {
	if table == nil {
		return nil, fmt.Errorf("%w: no table", ErrEmptyTable)
	}
	if !cost.Valid() {
		return nil, fmt.Errorf("%w: assumptions were not constructed", costmodel.ErrInvalidAssumptions)
	}
	return &Analyzer{table: table, cost: cost}, nil
}

func (a *Analyzer) Table() *stakedata.Table            { return a.table }
func (a *Analyzer) Assumptions() costmodel.Assumptions { return a.cost }

// ValidatorFractions is the Probability column per bucket, in table order.
func (a *Analyzer) ValidatorFractions() []BucketValue {
	out := make([]BucketValue, a.table.Len())
	for i := range out {
		r := a.table.Row(i)
		out[i] = BucketValue{Label: r.StakeRange, Value: r.Probability}
	}
	return out
}

// StakeFractions is each bucket's share of the table-wide stake. The fractions sum to 1.
func (a *Analyzer) StakeFractions() ([]BucketValue, error) {
	total := a.table.TotalStaked()
	if a.table.Len() == 0 || total == 0 {
		return nil, ErrEmptyTable
	}
	out := make([]BucketValue, a.table.Len())
	for i := range out {
		r := a.table.Row(i)
		out[i] = BucketValue{Label: r.StakeRange, Value: r.TotalStaked / total}
	}
	return out, nil
}

// Imbalance pairs the validator fraction and the stake fraction of every bucket.
func (a *Analyzer) Imbalance() ([]ImbalanceRow, error) {
	stake, err := a.StakeFractions()
	if err != nil {
		return nil, err
	}
	out := make([]ImbalanceRow, len(stake))
	for i, v := range a.ValidatorFractions() {
		out[i] = ImbalanceRow{Label: v.Label, ValidatorFraction: v.Value, StakeFraction: stake[i].Value}
	}
	return out, nil
}

// ValidatorsVsStake returns the unnormalized (count, stake) pair per bucket.
func (a *Analyzer) ValidatorsVsStake() []BucketPair {
	out := make([]BucketPair, a.table.Len())
	for i := range out {
		r := a.table.Row(i)
		out[i] = BucketPair{Label: r.StakeRange, Validators: r.ValidatorCount, TotalStaked: r.TotalStaked}
	}
	return out
}

// CostPerStakeUnitByBucket is the cost efficiency of a typical validator in each bucket:
// the per-validator cost over that bucket's own median stake. Buckets with a zero median
// stake, or one so small that the quotient overflows, are left undefined.
func (a *Analyzer) CostPerStakeUnitByBucket() []OptionalValue {
	perValidator := a.cost.TotalCostPerValidator()
	out := make([]OptionalValue, a.table.Len())
	for i := range out {
		r := a.table.Row(i)
		out[i] = OptionalValue{Label: r.StakeRange}
		if r.MedianStake <= 0 {
			continue
		}
		if v := perValidator / r.MedianStake; !math.IsInf(v, 0) && !math.IsNaN(v) {
			out[i].Value = v
			out[i].Defined = true
		}
	}
	return out
}

// TotalCostPerBucket prices each bucket's stake at the fleet-wide cost per stake unit.
func (a *Analyzer) TotalCostPerBucket() []BucketValue {
	rate := a.cost.CostPerStakeUnit()
	out := make([]BucketValue, a.table.Len())
	for i := range out {
		r := a.table.Row(i)
		out[i] = BucketValue{Label: r.StakeRange, Value: r.TotalStaked * rate}
	}
	return out
}

// FleetMonthlyCost is the sum of TotalCostPerBucket.
func (a *Analyzer) FleetMonthlyCost() float64 {
	sum := 0.0
	for _, v := range a.TotalCostPerBucket() {
		sum += v.Value
	}
	return sum
}

// CostCurve samples cost(stake) = stake * CostPerStakeUnit over [0, maxStake].
func (a *Analyzer) CostCurve(maxStake float64, samples int) (Curve, error) {
	return CostCurve(a.cost.CostPerStakeUnit(), maxStake, samples)
}
