package analysis

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/iafilius/StakeCostModel/src/costmodel"
	"github.com/iafilius/StakeCostModel/src/stakedata"
)

// ChartKind selects how a Chart is drawn.
type ChartKind int

const (
	KindBar ChartKind = iota
	KindLine
)

// Chart names, also used as artifact file stems.
const (
	ChartProbability       = "stake_probability_distribution"
	ChartImbalance         = "stake_vs_validators_imbalance"
	ChartValidatorsVsStake = "validators_vs_stake"
	ChartCostPerStakeUnit  = "cost_per_sol_staked"
	ChartTotalCostBucket   = "total_cost_per_bucket"
	ChartCostCurve         = "continuous_cost_vs_stake"
	ChartCurveComparison   = "continuous_cost_vs_stake_comparison"
)

// BarGroup is one metric across all categories. Missing marks undefined entries.
type BarGroup struct {
	Name    string
	Color   string // hex, without '#'
	Values  []float64
	Missing []bool
}

// Line is one y-series over the chart's shared X samples.
type Line struct {
	Name  string
	Color string
	Y     []float64
}

// Chart is everything a renderer needs for one artifact: labels and values (bar charts)
// or x samples and y values (line charts) plus titles.
type Chart struct {
	Name       string
	Title      string
	XLabel     string
	YLabel     string
	Hint       string
	Kind       ChartKind
	Categories []string
	Bars       []BarGroup
	X          []float64
	Lines      []Line
}

// ChartOptions configures the continuous curves and the unit labels.
type ChartOptions struct {
	MaxStake  float64
	Samples   int
	StakeUnit string
	Currency  string
}

func DefaultChartOptions() ChartOptions {
	return ChartOptions{MaxStake: DefaultMaxStake, Samples: DefaultSamples, StakeUnit: "SOL", Currency: "$"}
}

func (o ChartOptions) withDefaults() ChartOptions {
	d := DefaultChartOptions()
	if o.MaxStake == 0 {
		o.MaxStake = d.MaxStake
	}
	if o.Samples == 0 {
		o.Samples = d.Samples
	}
	if o.StakeUnit == "" {
		o.StakeUnit = d.StakeUnit
	}
	if o.Currency == "" {
		o.Currency = d.Currency
	}
	return o
}

// money renders an amount with two decimals, e.g. "$4.13". Amounts that overflowed
// render as "$n/a".
func (o ChartOptions) money(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return o.Currency + "n/a"
	}
	return o.Currency + decimal.NewFromFloat(v).StringFixed(2)
}

// BuildCharts derives every chart for the table: the regime-independent distributions
// once, the cost charts for each regime, and a comparison of the continuous curves when
// more than one regime is given. The first regime's artifacts carry no suffix.
//
// A chart that cannot be computed is left out and its error joined into the result.
func BuildCharts(table *stakedata.Table, regimes []costmodel.Regime, opts ChartOptions) ([]Chart, error) {
	if len(regimes) == 0 {
		return nil, fmt.Errorf("%w: no cost regime given", costmodel.ErrInvalidAssumptions)
	}
	opts = opts.withDefaults()
	analyzers := make([]*Analyzer, len(regimes))
	for i, r := range regimes {
		a, err := NewAnalyzer(table, r.Assumptions)
		if err != nil {
			return nil, fmt.Errorf("regime %s: %w", r.Name, err)
		}
		analyzers[i] = a
	}

	var charts []Chart
	var errs []error
	add := func(c Chart, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.Name, err))
			return
		}
		charts = append(charts, c)
	}

	first := analyzers[0]
	add(probabilityChart(first, opts), nil)
	add(imbalanceChart(first, opts))
	add(validatorsVsStakeChart(first, opts), nil)

	curves := make([]Curve, len(regimes))
	for i, r := range regimes {
		suffix := ""
		if i > 0 {
			suffix = "_" + r.Name
		}
		a := analyzers[i]
		add(costPerStakeUnitChart(a, r, suffix, opts), nil)
		add(totalCostChart(a, r, suffix, opts), nil)
		curve, err := a.CostCurve(opts.MaxStake, opts.Samples)
		curves[i] = curve
		add(curveChart(r, suffix, curve, opts), err)
	}
	if len(regimes) > 1 {
		add(comparisonChart(regimes, curves, opts))
	}
	return charts, errors.Join(errs...)
}

func probabilityChart(a *Analyzer, o ChartOptions) Chart {
	vals := a.ValidatorFractions()
	c := Chart{
		Name:       ChartProbability,
		Title:      "Stake Probability Distribution (Validators by Stake Range)",
		XLabel:     fmt.Sprintf("Stake Range (%s)", o.StakeUnit),
		YLabel:     "Probability",
		Hint:       "Hint: share of validators whose stake falls in each range.",
		Kind:       KindBar,
		Categories: labelsOf(vals),
	}
	c.Bars = []BarGroup{{Name: "Probability", Color: "87ceeb", Values: valuesOf(vals)}}
	return c
}

func imbalanceChart(a *Analyzer, o ChartOptions) (Chart, error) {
	c := Chart{
		Name:   ChartImbalance,
		Title:  fmt.Sprintf("Imbalance: Fraction of Validators vs Fraction of Total Staked %s", o.StakeUnit),
		XLabel: fmt.Sprintf("Stake Range (%s)", o.StakeUnit),
		YLabel: "Fraction of Total",
		Hint:   "Hint: buckets where stake share exceeds validator share hold concentrated stake.",
		Kind:   KindBar,
	}
	rows, err := a.Imbalance()
	if err != nil {
		return c, err
	}
	vf := make([]float64, len(rows))
	sf := make([]float64, len(rows))
	for i, r := range rows {
		c.Categories = append(c.Categories, r.Label)
		vf[i], sf[i] = r.ValidatorFraction, r.StakeFraction
	}
	c.Bars = []BarGroup{
		{Name: "Fraction of Validators", Color: "4c72b0", Values: vf},
		{Name: "Fraction of Total Staked", Color: "dd8452", Values: sf},
	}
	return c, nil
}

func validatorsVsStakeChart(a *Analyzer, o ChartOptions) Chart {
	pairs := a.ValidatorsVsStake()
	c := Chart{
		Name:   ChartValidatorsVsStake,
		Title:  fmt.Sprintf("Unique Validators vs Total Staked %s per Stake Range", o.StakeUnit),
		XLabel: fmt.Sprintf("Stake Range (%s)", o.StakeUnit),
		YLabel: fmt.Sprintf("Count / %s", o.StakeUnit),
		Hint:   "Hint: raw counts and stake share one axis; small buckets may not be visible.",
		Kind:   KindBar,
	}
	counts := make([]float64, len(pairs))
	staked := make([]float64, len(pairs))
	for i, p := range pairs {
		c.Categories = append(c.Categories, p.Label)
		counts[i], staked[i] = float64(p.Validators), p.TotalStaked
	}
	c.Bars = []BarGroup{
		{Name: "Unique Validators", Color: "4c72b0", Values: counts},
		{Name: fmt.Sprintf("Total Staked %s", o.StakeUnit), Color: "dd8452", Values: staked},
	}
	return c
}

func costPerStakeUnitChart(a *Analyzer, r costmodel.Regime, suffix string, o ChartOptions) Chart {
	vals := a.CostPerStakeUnitByBucket()
	g := BarGroup{Name: "Cost per " + o.StakeUnit, Color: "fa8072", Values: make([]float64, len(vals)), Missing: make([]bool, len(vals))}
	c := Chart{
		Name:   ChartCostPerStakeUnit + suffix,
		Title:  fmt.Sprintf("Cost per %s Staked by Stake Range%s", o.StakeUnit, regimeSuffix(r, suffix)),
		XLabel: fmt.Sprintf("Stake Range (%s)", o.StakeUnit),
		YLabel: fmt.Sprintf("Cost per %s Staked (%s/%s/month)", o.StakeUnit, o.Currency, o.StakeUnit),
		Hint:   fmt.Sprintf("Hint: %s per validator per month over each bucket's median stake.", o.money(a.cost.TotalCostPerValidator())),
		Kind:   KindBar,
	}
	for i, v := range vals {
		c.Categories = append(c.Categories, v.Label)
		if val, ok := v.Get(); ok {
			g.Values[i] = val
		} else {
			g.Missing[i] = true
		}
	}
	c.Bars = []BarGroup{g}
	return c
}

func totalCostChart(a *Analyzer, r costmodel.Regime, suffix string, o ChartOptions) Chart {
	vals := a.TotalCostPerBucket()
	rate := a.cost.CostPerStakeUnit()
	return Chart{
		Name:       ChartTotalCostBucket + suffix,
		Title:      fmt.Sprintf("Total Cost per Bucket (at %s per %s per month)%s", o.money(rate), o.StakeUnit, regimeSuffix(r, suffix)),
		XLabel:     fmt.Sprintf("Stake Range (%s)", o.StakeUnit),
		YLabel:     fmt.Sprintf("Total Cost per Bucket (%s/month)", o.Currency),
		Hint:       fmt.Sprintf("Hint: bucket stake priced at the fleet-wide rate; fleet total %s/month.", o.money(a.FleetMonthlyCost())),
		Kind:       KindBar,
		Categories: labelsOf(vals),
		Bars:       []BarGroup{{Name: "Total Cost", Color: "3cb371", Values: valuesOf(vals)}},
	}
}

func curveChart(r costmodel.Regime, suffix string, curve Curve, o ChartOptions) Chart {
	color := "0000ff"
	if suffix != "" {
		color = "008000"
	}
	return Chart{
		Name:   ChartCostCurve + suffix,
		Title:  fmt.Sprintf("Continuous Total Cost vs %s Staked (%sat %s per %s per month)", o.StakeUnit, regimePrefix(r, suffix), o.money(curve.CostPerStakeUnit), o.StakeUnit),
		XLabel: fmt.Sprintf("%s Staked", o.StakeUnit),
		YLabel: fmt.Sprintf("Total Cost (%s/month)", o.Currency),
		Hint:   "Hint: monthly cost grows linearly with stake at the fleet-wide rate.",
		Kind:   KindLine,
		X:      curve.Stake,
		Lines:  []Line{{Name: r.Title, Color: color, Y: curve.Cost}},
	}
}

func comparisonChart(regimes []costmodel.Regime, curves []Curve, o ChartOptions) (Chart, error) {
	c := Chart{
		Name:   ChartCurveComparison,
		Title:  fmt.Sprintf("Continuous Total Cost vs %s Staked by Cost Regime", o.StakeUnit),
		XLabel: fmt.Sprintf("%s Staked", o.StakeUnit),
		YLabel: fmt.Sprintf("Total Cost (%s/month)", o.Currency),
		Hint:   "Hint: the gap between the lines is the monthly cost of on-chain voting.",
		Kind:   KindLine,
	}
	palette := []string{"0000ff", "008000", "ff8c00", "8b008b"}
	for i, r := range regimes {
		if curves[i].Len() == 0 {
			return c, fmt.Errorf("%w: regime %s has no curve", ErrInvalidCurve, r.Name)
		}
		if c.X == nil {
			c.X = curves[i].Stake
		}
		name := fmt.Sprintf("%s (%s/%s)", r.Title, o.money(curves[i].CostPerStakeUnit), o.StakeUnit)
		c.Lines = append(c.Lines, Line{Name: name, Color: palette[i%len(palette)], Y: curves[i].Cost})
	}
	return c, nil
}

func regimeSuffix(r costmodel.Regime, suffix string) string {
	if suffix == "" {
		return ""
	}
	return " – " + r.Title
}

func regimePrefix(r costmodel.Regime, suffix string) string {
	if suffix == "" {
		return ""
	}
	return r.Title + ", "
}

func labelsOf(vals []BucketValue) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = v.Label
	}
	return out
}

func valuesOf(vals []BucketValue) []float64 {
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = v.Value
	}
	return out
}
