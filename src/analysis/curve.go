package analysis

import (
	"errors"
	"fmt"
	"math"

	"github.com/iafilius/StakeCostModel/src/costmodel"
)

const (
	DefaultMaxStake = 1_000_000
	DefaultSamples  = 500
)

// ErrInvalidCurve is returned for a non-positive range or fewer than two samples.
var ErrInvalidCurve = errors.New("invalid cost curve parameters")

// Curve is a sampled cost-vs-stake line.
type Curve struct {
	CostPerStakeUnit float64   `json:"cost_per_stake_unit" yaml:"cost_per_stake_unit"`
	Stake            []float64 `json:"stake" yaml:"stake"`
	Cost             []float64 `json:"cost" yaml:"cost"`
}

func (c Curve) Len() int { return len(c.Stake) }

// CostCurve samples stake * costPerStakeUnit at `samples` evenly spaced points of
// [0, maxStake]. The first point is exactly 0 and the last exactly maxStake.
func CostCurve(costPerStakeUnit, maxStake float64, samples int) (Curve, error) {
	if samples < 2 {
		return Curve{}, fmt.Errorf("%w: need at least 2 samples, got %d", ErrInvalidCurve, samples)
	}
	if !(maxStake > 0) || math.IsInf(maxStake, 0) {
		return Curve{}, fmt.Errorf("%w: max stake must be a positive finite number, got %v", ErrInvalidCurve, maxStake)
	}
	if math.IsNaN(costPerStakeUnit) || math.IsInf(costPerStakeUnit, 0) || costPerStakeUnit < 0 {
		return Curve{}, fmt.Errorf("%w: cost per stake unit %v", ErrInvalidCurve, costPerStakeUnit)
	}
	if top := maxStake * costPerStakeUnit; math.IsInf(top, 0) {
		return Curve{}, fmt.Errorf("%w: cost at %v overflows", ErrInvalidCurve, maxStake)
	}
	xs := Linspace(0, maxStake, samples)
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = x * costPerStakeUnit
	}
	return Curve{CostPerStakeUnit: costPerStakeUnit, Stake: xs, Cost: ys}, nil
}

// CompareCurves samples both regimes over the same axis so they can share one chart.
func CompareCurves(baseline, alternative costmodel.Assumptions, maxStake float64, samples int) (Curve, Curve, error) {
	if !baseline.Valid() || !alternative.Valid() {
		return Curve{}, Curve{}, fmt.Errorf("%w: assumptions were not constructed", costmodel.ErrInvalidAssumptions)
	}
	b, err := CostCurve(baseline.CostPerStakeUnit(), maxStake, samples)
	if err != nil {
		return Curve{}, Curve{}, err
	}
	alt, err := CostCurve(alternative.CostPerStakeUnit(), maxStake, samples)
	if err != nil {
		return Curve{}, Curve{}, err
	}
	return b, alt, nil
}

// Linspace returns n evenly spaced values from start to stop inclusive. Endpoints are exact.
func Linspace(start, stop float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	if n == 1 {
		out[0] = start
		return out
	}
	step := (stop - start) / float64(n-1)
	for i := 0; i < n-1; i++ {
		out[i] = start + float64(i)*step
	}
	out[n-1] = stop
	return out
}
