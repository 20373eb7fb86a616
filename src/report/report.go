// Package report summarizes one run (the input table, every cost regime and the savings
// between them) and writes it as JSON or YAML.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/iafilius/StakeCostModel/src/analysis"
	"github.com/iafilius/StakeCostModel/src/costmodel"
	"github.com/iafilius/StakeCostModel/src/stakedata"
)

const SchemaVersion = 1

// RunTagLayout formats the run tag from the build time.
const RunTagLayout = "20060102_150405"

var now = time.Now

type Report struct {
	GeneratedAt   string         `json:"generated_at" yaml:"generated_at"`
	SchemaVersion int            `json:"schema_version" yaml:"schema_version"`
	RunTag        string         `json:"run_tag" yaml:"run_tag"`
	Source        string         `json:"source" yaml:"source"`
	Table         TableSummary   `json:"table" yaml:"table"`
	Regimes       []RegimeReport `json:"regimes" yaml:"regimes"`
	Comparison    *Comparison    `json:"comparison,omitempty" yaml:"comparison,omitempty"`
	Charts        []string       `json:"charts,omitempty" yaml:"charts,omitempty"`
}

type TableSummary struct {
	Buckets        int             `json:"buckets" yaml:"buckets"`
	Validators     int             `json:"validators" yaml:"validators"`
	TotalStaked    decimal.Decimal `json:"total_staked" yaml:"total_staked"`
	ProbabilitySum decimal.Decimal `json:"probability_sum" yaml:"probability_sum"`
	Warnings       []string        `json:"warnings" yaml:"warnings"`
}

// RegimeReport holds monthly figures in USD. Error is set when a per-bucket series could
// not be computed; the remaining fields are still filled.
type RegimeReport struct {
	Name                 string          `json:"name" yaml:"name"`
	Title                string          `json:"title" yaml:"title"`
	HardwareUSD          decimal.Decimal `json:"hardware_usd" yaml:"hardware_usd"`
	BandwidthUSD         decimal.Decimal `json:"bandwidth_usd" yaml:"bandwidth_usd"`
	VotingFeeUSD         decimal.Decimal `json:"voting_fee_usd" yaml:"voting_fee_usd"`
	TotalPerValidatorUSD decimal.Decimal `json:"total_per_validator_usd" yaml:"total_per_validator_usd"`
	MedianStake          decimal.Decimal `json:"median_stake" yaml:"median_stake"`
	CostPerStakeUnit     decimal.Decimal `json:"cost_per_stake_unit" yaml:"cost_per_stake_unit"`
	FleetMonthlyCostUSD  decimal.Decimal `json:"fleet_monthly_cost_usd" yaml:"fleet_monthly_cost_usd"`
	Buckets              []BucketReport  `json:"buckets" yaml:"buckets"`
	Error                string          `json:"error,omitempty" yaml:"error,omitempty"`
}

// BucketReport is one row of a regime. Nil pointers mark undefined values.
type BucketReport struct {
	Label            string           `json:"label" yaml:"label"`
	Validators       int              `json:"validators" yaml:"validators"`
	TotalStaked      decimal.Decimal  `json:"total_staked" yaml:"total_staked"`
	StakeFraction    *decimal.Decimal `json:"stake_fraction" yaml:"stake_fraction"`
	CostPerStakeUnit *decimal.Decimal `json:"cost_per_stake_unit" yaml:"cost_per_stake_unit"`
	TotalCostUSD     decimal.Decimal  `json:"total_cost_usd" yaml:"total_cost_usd"`
}

// Comparison is the saving of Alternative over Baseline.
type Comparison struct {
	Baseline               string          `json:"baseline" yaml:"baseline"`
	Alternative            string          `json:"alternative" yaml:"alternative"`
	SavingsPerValidatorUSD decimal.Decimal `json:"savings_per_validator_usd" yaml:"savings_per_validator_usd"`
	SavingsPerStakeUnit    decimal.Decimal `json:"savings_per_stake_unit" yaml:"savings_per_stake_unit"`
	SavingsFleetMonthlyUSD decimal.Decimal `json:"savings_fleet_monthly_usd" yaml:"savings_fleet_monthly_usd"`
	RelativeSavingPct      decimal.Decimal `json:"relative_saving_pct" yaml:"relative_saving_pct"`
	Error                  string          `json:"error,omitempty" yaml:"error,omitempty"`
}

// ErrNotFinite is recorded for a figure that overflowed float64.
var ErrNotFinite = errors.New("value is not finite")

// figures rounds results into decimals. A non-finite value becomes zero and is recorded.
type figures struct{ problems []string }

func (f *figures) round(name string, v float64, places int32) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		f.problems = append(f.problems, fmt.Errorf("%s: %w (%v)", name, ErrNotFinite, v).Error())
		return decimal.Zero
	}
	return decimal.NewFromFloat(v).Round(places)
}

func (f *figures) money(name string, v float64) decimal.Decimal    { return f.round(name, v, 2) }
func (f *figures) rate(name string, v float64) decimal.Decimal     { return f.round(name, v, 4) }
func (f *figures) fraction(name string, v float64) decimal.Decimal { return f.round(name, v, 6) }

func (f *figures) summary() string { return strings.Join(f.problems, "; ") }

// Build assembles the report. Only missing inputs are errors; a regime whose series fail
// carries the failure in its Error field.
func Build(source string, table *stakedata.Table, regimes []costmodel.Regime) (*Report, error) {
	if table == nil {
		return nil, fmt.Errorf("report: %w", analysis.ErrEmptyTable)
	}
	if len(regimes) == 0 {
		return nil, fmt.Errorf("report: %w: no cost regime given", costmodel.ErrInvalidAssumptions)
	}
	t := now().UTC()
	var f figures
	rep := &Report{
		GeneratedAt:   t.Format(time.RFC3339Nano),
		SchemaVersion: SchemaVersion,
		RunTag:        t.Format(RunTagLayout),
		Source:        source,
		Table: TableSummary{
			Buckets:        table.Len(),
			Validators:     table.TotalValidators(),
			TotalStaked:    f.money("total staked", table.TotalStaked()),
			ProbabilitySum: f.fraction("probability sum", table.ProbabilitySum()),
			Warnings:       table.Warnings(),
		},
	}
	if len(f.problems) > 0 {
		return nil, fmt.Errorf("report: table: %s", f.summary())
	}
	if rep.Table.Warnings == nil {
		rep.Table.Warnings = []string{}
	}
	analyzers := make([]*analysis.Analyzer, len(regimes))
	for i, r := range regimes {
		a, err := analysis.NewAnalyzer(table, r.Assumptions)
		if err != nil {
			return nil, fmt.Errorf("report: regime %s: %w", r.Name, err)
		}
		analyzers[i] = a
		rep.Regimes = append(rep.Regimes, regimeReport(a, r))
	}
	if len(regimes) > 1 {
		rep.Comparison = compare(analyzers[0], analyzers[1], regimes[0], regimes[1])
	}
	return rep, nil
}

func regimeReport(a *analysis.Analyzer, r costmodel.Regime) RegimeReport {
	c := a.Assumptions()
	var f figures
	rr := RegimeReport{
		Name:                 r.Name,
		Title:                r.Title,
		HardwareUSD:          f.money("hardware", c.HardwareCostPerMonth()),
		BandwidthUSD:         f.money("bandwidth", c.BandwidthCostPerMonth()),
		VotingFeeUSD:         f.money("voting fee", c.VotingFeeCostPerMonth()),
		TotalPerValidatorUSD: f.money("total per validator", c.TotalCostPerValidator()),
		MedianStake:          f.money("median stake", c.MedianStakePerValidator()),
		CostPerStakeUnit:     f.rate("cost per stake unit", c.CostPerStakeUnit()),
		FleetMonthlyCostUSD:  f.money("fleet monthly cost", a.FleetMonthlyCost()),
	}
	fractions, err := a.StakeFractions()
	if err != nil {
		f.problems = append(f.problems, err.Error())
	}
	perUnit := a.CostPerStakeUnitByBucket()
	totals := a.TotalCostPerBucket()
	for i, p := range a.ValidatorsVsStake() {
		b := BucketReport{
			Label:        p.Label,
			Validators:   p.Validators,
			TotalStaked:  f.money(p.Label+" total staked", p.TotalStaked),
			TotalCostUSD: f.money(p.Label+" total cost", totals[i].Value),
		}
		if fractions != nil {
			d := f.fraction(p.Label+" stake fraction", fractions[i].Value)
			b.StakeFraction = &d
		}
		if v, ok := perUnit[i].Get(); ok {
			d := f.rate(p.Label+" cost per stake unit", v)
			b.CostPerStakeUnit = &d
		}
		rr.Buckets = append(rr.Buckets, b)
	}
	rr.Error = f.summary()
	return rr
}

func compare(base, alt *analysis.Analyzer, rb, ra costmodel.Regime) *Comparison {
	b, a := base.Assumptions(), alt.Assumptions()
	saving := b.TotalCostPerValidator() - a.TotalCostPerValidator()
	pct := 0.0
	if total := b.TotalCostPerValidator(); total > 0 {
		pct = saving / total * 100
	}
	var f figures
	c := &Comparison{
		Baseline:               rb.Name,
		Alternative:            ra.Name,
		SavingsPerValidatorUSD: f.money("savings per validator", saving),
		SavingsPerStakeUnit:    f.rate("savings per stake unit", b.CostPerStakeUnit()-a.CostPerStakeUnit()),
		SavingsFleetMonthlyUSD: f.money("fleet savings", base.FleetMonthlyCost()-alt.FleetMonthlyCost()),
		RelativeSavingPct:      f.money("relative saving", pct),
	}
	c.Error = f.summary()
	return c
}

// SummaryLine is the one-line console summary of a regime.
func (r RegimeReport) SummaryLine(stakeUnit, currency string) string {
	line := fmt.Sprintf("%s: %s%s per validator/month, %s%s per %s/month, fleet %s%s/month",
		r.Name, currency, r.TotalPerValidatorUSD.StringFixed(2), currency, r.CostPerStakeUnit.StringFixed(4),
		stakeUnit, currency, r.FleetMonthlyCostUSD.StringFixed(2))
	if r.Error != "" {
		line += " (" + r.Error + ")"
	}
	return line
}

// WriteFile writes JSON for .json and YAML for .yaml/.yml, creating parent directories.
func (r *Report) WriteFile(path string) error {
	if r == nil {
		return errors.New("report: nothing to write")
	}
	var (
		b   []byte
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		b, err = json.MarshalIndent(r, "", "  ")
	case ".yaml", ".yml":
		b, err = yaml.Marshal(r)
	default:
		return fmt.Errorf("report: unsupported extension %q (want .json, .yaml or .yml)", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("report: encode: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("report: create dir: %w", err)
		}
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	return nil
}

// DefaultPath is the report location used when none is configured.
func DefaultPath(outDir, runTag string) string {
	return filepath.Join(outDir, fmt.Sprintf("stake_cost_report_%s.json", runTag))
}
