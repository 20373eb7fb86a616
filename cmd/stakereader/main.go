// stakereader prints a stake distribution table and the per-bucket series derived from it
// for every cost regime. It takes the same flags and config file as stakecost.
package main

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"

	"github.com/iafilius/StakeCostModel/src/analysis"
	"github.com/iafilius/StakeCostModel/src/config"
	"github.com/iafilius/StakeCostModel/src/logx"
	"github.com/iafilius/StakeCostModel/src/stakedata"
)

func main() {
	fs := pflag.NewFlagSet("stakereader", pflag.ExitOnError)
	config.RegisterFlags(fs)
	_ = fs.Parse(os.Args[1:])
	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	logx.SetLogLevel(cfg.LogLevel)
	if err := run(os.Stdout, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(w io.Writer, cfg config.Config) error {
	table, err := stakedata.Load(cfg.Input, stakedata.LoadOptions{Sheet: cfg.Sheet})
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Buckets: %d  Validators: %d  Total staked: %s %s  Probability sum: %s\n",
		table.Len(), table.TotalValidators(), num(table.TotalStaked(), 0), cfg.Chart.StakeUnit, num(table.ProbabilitySum(), 4))
	for _, warn := range table.Warnings() {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
	printTable(w, table, cfg.Chart.StakeUnit)

	regimes, err := cfg.Cost.Regimes(cfg.ReducedFee)
	if err != nil {
		return err
	}
	for _, r := range regimes {
		a, err := analysis.NewAnalyzer(table, r.Assumptions)
		if err != nil {
			return err
		}
		c := r.Assumptions
		fmt.Fprintf(w, "\n%s: %s%s per validator/month, %s%s per %s/month\n", r.Title,
			cfg.Chart.Currency, num(c.TotalCostPerValidator(), 2), cfg.Chart.Currency, num(c.CostPerStakeUnit(), 4), cfg.Chart.StakeUnit)
		printSeries(w, a, cfg.Chart.StakeUnit, cfg.Chart.Currency)
	}
	return nil
}

func num(v float64, places int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return decimal.NewFromFloat(v).StringFixed(places)
}

func printTable(w io.Writer, t *stakedata.Table, unit string) {
	tw := tablewriter.NewWriter(w)
	tw.Header(stakedata.ColStakeRange, stakedata.ColValidators, "Total Staked ("+unit+")", "Median Stake ("+unit+")", stakedata.ColProbability)
	for _, r := range t.Rows() {
		_ = tw.Append([]string{r.StakeRange, fmt.Sprint(r.ValidatorCount), num(r.TotalStaked, 1), num(r.MedianStake, 1), num(r.Probability, 4)})
	}
	_ = tw.Render()
}

func printSeries(w io.Writer, a *analysis.Analyzer, unit, currency string) {
	stake, err := a.StakeFractions()
	if err != nil {
		fmt.Fprintf(w, "stake fractions unavailable: %v\n", err)
	}
	perUnit := a.CostPerStakeUnitByBucket()
	totals := a.TotalCostPerBucket()
	tw := tablewriter.NewWriter(w)
	tw.Header("Stake Range", "Validator Share", "Stake Share", "Cost per "+unit, "Total Cost ("+currency+"/month)")
	for i, v := range a.ValidatorFractions() {
		share := "n/a"
		if stake != nil {
			share = num(stake[i].Value, 4)
		}
		cost := "n/a"
		if c, ok := perUnit[i].Get(); ok {
			cost = num(c, 4)
		}
		_ = tw.Append([]string{v.Label, num(v.Value, 4), share, cost, num(totals[i].Value, 2)})
	}
	_ = tw.Render()
	fmt.Fprintf(w, "Fleet monthly cost: %s%s\n", currency, num(a.FleetMonthlyCost(), 2))
}
