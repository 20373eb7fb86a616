package costmodel

import "fmt"

// GBPerTB converts the daily bandwidth volume (GB) into billed terabytes.
const GBPerTB = 1024

const (
	RegimeBaseline   = "baseline"
	RegimeReducedFee = "reduced_fee"
)

// Params is the raw configuration surface from which both regimes are derived.
// Units: USD, SOL, GB, days.
type Params struct {
	HardwareUSDPerMonth float64 `json:"hardware_usd_per_month" yaml:"hardware_usd_per_month"`
	BandwidthUSDPerTB   float64 `json:"bandwidth_usd_per_tb" yaml:"bandwidth_usd_per_tb"`
	BandwidthGBPerDay   float64 `json:"bandwidth_gb_per_day" yaml:"bandwidth_gb_per_day"`
	VotingFeeSOLPerDay  float64 `json:"voting_fee_sol_per_day" yaml:"voting_fee_sol_per_day"`
	SOLPriceUSD         float64 `json:"sol_price_usd" yaml:"sol_price_usd"`
	DaysPerMonth        float64 `json:"days_per_month" yaml:"days_per_month"`
	MedianStakeSOL      float64 `json:"median_stake_sol" yaml:"median_stake_sol"`
}

// DefaultParams: bare metal at $420, 259 GB/day at $0.70/TB, 1 SOL/day of vote
// transactions at a $155.12 SOL SMA, 30-day months, 1230 SOL median stake.
func DefaultParams() Params {
	return Params{
		HardwareUSDPerMonth: 420,
		BandwidthUSDPerTB:   0.70,
		BandwidthGBPerDay:   259,
		VotingFeeSOLPerDay:  1,
		SOLPriceUSD:         155.12,
		DaysPerMonth:        30,
		MedianStakeSOL:      1230,
	}
}

func (p Params) Validate() error {
	for _, c := range []struct {
		name string
		v    float64
	}{
		{"hardware_usd_per_month", p.HardwareUSDPerMonth},
		{"bandwidth_usd_per_tb", p.BandwidthUSDPerTB},
		{"bandwidth_gb_per_day", p.BandwidthGBPerDay},
		{"voting_fee_sol_per_day", p.VotingFeeSOLPerDay},
		{"sol_price_usd", p.SOLPriceUSD},
		{"days_per_month", p.DaysPerMonth},
		{"median_stake_sol", p.MedianStakeSOL},
	} {
		if err := checkAmount(c.name, c.v); err != nil {
			return err
		}
	}
	if p.DaysPerMonth == 0 {
		return fmt.Errorf("%w: days_per_month must be > 0", ErrInvalidAssumptions)
	}
	if p.MedianStakeSOL == 0 {
		return fmt.Errorf("%w: median_stake_sol must be > 0", ErrInvalidAssumptions)
	}
	return nil
}

// BandwidthCostPerMonth converts GB/day into TB/month and prices it.
func (p Params) BandwidthCostPerMonth() float64 {
	return p.BandwidthUSDPerTB * (p.BandwidthGBPerDay * p.DaysPerMonth / GBPerTB)
}

// VotingFeeCostPerMonth prices a month of vote transaction fees at the SOL rate.
func (p Params) VotingFeeCostPerMonth() float64 {
	return p.VotingFeeSOLPerDay * p.DaysPerMonth * p.SOLPriceUSD
}

// Baseline includes hardware, bandwidth and the on-chain voting fee.
func (p Params) Baseline() (Assumptions, error) {
	if err := p.Validate(); err != nil {
		return Assumptions{}, err
	}
	return New(p.HardwareUSDPerMonth, p.BandwidthCostPerMonth(), p.VotingFeeCostPerMonth(), p.MedianStakeSOL)
}

// ReducedFee is the baseline with the voting fee eliminated.
func (p Params) ReducedFee() (Assumptions, error) {
	a, err := p.Baseline()
	if err != nil {
		return Assumptions{}, err
	}
	return a.WithoutVotingFee(), nil
}

// Regime names one set of cost assumptions.
type Regime struct {
	Name        string
	Title       string
	Assumptions Assumptions
}

// Regimes returns the baseline regime, followed by the reduced-fee regime when requested.
func (p Params) Regimes(includeReducedFee bool) ([]Regime, error) {
	base, err := p.Baseline()
	if err != nil {
		return nil, err
	}
	out := []Regime{{Name: RegimeBaseline, Title: "Baseline (with voting fees)", Assumptions: base}}
	if includeReducedFee {
		out = append(out, Regime{Name: RegimeReducedFee, Title: "Reduced fee (no voting fees)", Assumptions: base.WithoutVotingFee()})
	}
	return out, nil
}
