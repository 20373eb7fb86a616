// Package costmodel holds the fixed monthly operating cost assumptions of a validator
// and derives the per-validator and per-stake-unit figures every chart is built on.
package costmodel

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidAssumptions is returned when a cost component or the reference stake is
// negative, not finite, or when the reference stake is zero.
var ErrInvalidAssumptions = errors.New("invalid cost assumptions")

// Assumptions is one cost regime. It is only obtainable through New (or derived from a
// value returned by New), so a non-zero value is always valid.
type Assumptions struct {
	hardware       float64
	bandwidth      float64
	votingFee      float64
	referenceStake float64
}

// New validates the monthly cost components and the reference stake used to normalize
// the per-validator cost into a per-unit-stake cost.
func New(hardware, bandwidth, votingFee, referenceStake float64) (Assumptions, error) {
	for _, c := range []struct {
		name string
		v    float64
	}{
		{"hardware cost", hardware},
		{"bandwidth cost", bandwidth},
		{"voting fee cost", votingFee},
		{"reference stake", referenceStake},
	} {
		if err := checkAmount(c.name, c.v); err != nil {
			return Assumptions{}, err
		}
	}
	if referenceStake == 0 {
		return Assumptions{}, fmt.Errorf("%w: reference stake must be > 0", ErrInvalidAssumptions)
	}
	a := Assumptions{hardware: hardware, bandwidth: bandwidth, votingFee: votingFee, referenceStake: referenceStake}
	if err := checkAmount("cost per stake unit", a.CostPerStakeUnit()); err != nil {
		return Assumptions{}, err
	}
	return a, nil
}

func checkAmount(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be finite, got %v", ErrInvalidAssumptions, name, v)
	}
	if v < 0 {
		return fmt.Errorf("%w: %s must be non-negative, got %v", ErrInvalidAssumptions, name, v)
	}
	return nil
}

func (a Assumptions) HardwareCostPerMonth() float64    { return a.hardware }
func (a Assumptions) BandwidthCostPerMonth() float64   { return a.bandwidth }
func (a Assumptions) VotingFeeCostPerMonth() float64   { return a.votingFee }
func (a Assumptions) MedianStakePerValidator() float64 { return a.referenceStake }

// Valid reports whether a was built by New. The zero value is not.
func (a Assumptions) Valid() bool { return a.referenceStake > 0 }

// TotalCostPerValidator is the monthly operating cost of one validator.
func (a Assumptions) TotalCostPerValidator() float64 {
	return a.hardware + a.bandwidth + a.votingFee
}

// CostPerStakeUnit allocates the per-validator cost over the reference stake.
func (a Assumptions) CostPerStakeUnit() float64 {
	return a.TotalCostPerValidator() / a.referenceStake
}

// WithoutVotingFee returns the reduced-fee variant of a: identical except that the
// on-chain voting fee is zero.
func (a Assumptions) WithoutVotingFee() Assumptions {
	a.votingFee = 0
	return a
}

func (a Assumptions) String() string {
	return fmt.Sprintf("hardware=%.2f bandwidth=%.2f voting=%.2f total=%.2f ref_stake=%.2f per_unit=%.4f",
		a.hardware, a.bandwidth, a.votingFee, a.TotalCostPerValidator(), a.referenceStake, a.CostPerStakeUnit())
}
