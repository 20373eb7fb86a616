// Stake cost model main entrypoint.
//
// Loads a validator stake distribution table, prices it under the baseline cost regime
// (hardware, bandwidth and on-chain voting fees) and, unless disabled, under the reduced-fee
// regime without voting fees. Writes one PNG per chart into --out-dir plus a JSON or YAML
// report, and prints a one-line summary per regime.
//
// Design notes:
//   - Configuration precedence: flags > --config YAML file > built-in defaults.
//   - A chart or series that cannot be computed (e.g. a table holding no stake) is logged and
//     skipped; everything else is still produced and the process exits with status 1.
//   - Dependency direction: main -> config -> {costmodel, analysis, render}; report and
//     render only consume analysis output.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/iafilius/StakeCostModel/src/analysis"
	"github.com/iafilius/StakeCostModel/src/config"
	"github.com/iafilius/StakeCostModel/src/logx"
	"github.com/iafilius/StakeCostModel/src/render"
	"github.com/iafilius/StakeCostModel/src/report"
	"github.com/iafilius/StakeCostModel/src/stakedata"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stakecost",
		Short: "Model validator operating cost against the stake distribution",
		Long: `stakecost prices a validator stake distribution table.

It derives the monthly cost of running one validator (hardware, bandwidth and voting
fees), normalizes it by the median stake into a cost per staked unit and charts how that
cost falls on each stake bucket, with and without on-chain voting fees.

EXAMPLES:

  # default table and cost assumptions, charts into ./charts
  stakecost

  # Excel input, custom SOL price, YAML report, no charts
  stakecost -i stats.xlsx --sheet Validators --sol-price-usd 180 --report out/report.yaml --no-charts`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			logx.SetLogLevel(cfg.LogLevel)
			_, err = run(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
			return err
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logx.Errorf("%v", err)
		logx.Sync()
		os.Exit(1)
	}
	logx.Sync()
}

type runResult struct {
	Report     *report.Report
	ReportPath string
	Charts     []string
}

// run executes the pipeline for cfg. Load and configuration errors abort; chart and series
// failures are collected and returned together once every artifact has been written.
func run(cfg config.Config, out, progress io.Writer) (runResult, error) {
	defer logx.TimeTrack(time.Now(), "run")
	var res runResult

	table, err := stakedata.Load(cfg.Input, stakedata.LoadOptions{Sheet: cfg.Sheet})
	if err != nil {
		return res, fmt.Errorf("load %s: %w", cfg.Input, err)
	}
	logx.Infof("loaded %d buckets (%d validators, %.0f %s staked) from %s",
		table.Len(), table.TotalValidators(), table.TotalStaked(), cfg.Chart.StakeUnit, cfg.Input)
	for _, w := range table.Warnings() {
		logx.Warnf("%s", w)
	}

	regimes, err := cfg.Cost.Regimes(cfg.ReducedFee)
	if err != nil {
		return res, err
	}
	for _, r := range regimes {
		logx.Debugf("regime %s: %s", r.Name, r.Assumptions)
	}

	rep, err := report.Build(cfg.Input, table, regimes)
	if err != nil {
		return res, err
	}
	res.Report = rep

	var failures []error
	if cfg.NoCharts {
		logx.Infof("chart rendering disabled")
	} else {
		charts, err := analysis.BuildCharts(table, regimes, cfg.ChartOptions())
		if err != nil {
			logx.Warnf("some charts could not be built: %v", err)
			failures = append(failures, err)
		}
		paths, err := render.RenderAll(charts, cfg.OutDir, cfg.RenderOptions(), progress)
		if err != nil {
			failures = append(failures, err)
		}
		logx.Infof("wrote %d charts to %s", len(paths), cfg.OutDir)
		res.Charts = paths
		rep.Charts = paths
	}

	path := cfg.Report
	if path == "" {
		path = report.DefaultPath(cfg.OutDir, rep.RunTag)
	}
	if err := rep.WriteFile(path); err != nil {
		return res, err
	}
	res.ReportPath = path
	logx.Infof("report written to %s", path)

	for _, r := range rep.Regimes {
		fmt.Fprintln(out, r.SummaryLine(cfg.Chart.StakeUnit, cfg.Chart.Currency))
	}
	if c := rep.Comparison; c != nil {
		fmt.Fprintf(out, "%s vs %s: saves %s%s per validator/month (%s%%), %s%s per %s/month\n",
			c.Alternative, c.Baseline,
			cfg.Chart.Currency, c.SavingsPerValidatorUSD.StringFixed(2), c.RelativeSavingPct.StringFixed(2),
			cfg.Chart.Currency, c.SavingsPerStakeUnit.StringFixed(4), cfg.Chart.StakeUnit)
	}
	return res, errors.Join(failures...)
}
