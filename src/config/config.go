// Package config resolves the run configuration from flags, an optional YAML file and
// built-in defaults, in that order of precedence. Environment variables are not read.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/iafilius/StakeCostModel/src/analysis"
	"github.com/iafilius/StakeCostModel/src/costmodel"
	"github.com/iafilius/StakeCostModel/src/logx"
	"github.com/iafilius/StakeCostModel/src/render"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Configuration keys.
const (
	KeyInput      = "input"
	KeySheet      = "sheet"
	KeyOutDir     = "out_dir"
	KeyReport     = "report"
	KeyLogLevel   = "log_level"
	KeyNoCharts   = "no_charts"
	KeyReducedFee = "reduced_fee"

	KeyHardware      = "cost.hardware_usd_per_month"
	KeyBandwidthTB   = "cost.bandwidth_usd_per_tb"
	KeyBandwidthGB   = "cost.bandwidth_gb_per_day"
	KeyVotingFee     = "cost.voting_fee_sol_per_day"
	KeySOLPrice      = "cost.sol_price_usd"
	KeyDaysPerMonth  = "cost.days_per_month"
	KeyMedianStake   = "cost.median_stake_sol"
	KeyCurveMaxStake = "curve.max_stake"
	KeyCurveSamples  = "curve.samples"
	KeyChartWidth    = "chart.width"
	KeyChartHeight   = "chart.height"
	KeyChartHints    = "chart.hints"
	KeyStakeUnit     = "chart.stake_unit"
	KeyCurrency      = "chart.currency"
)

// FlagConfig names the YAML file to read.
const FlagConfig = "config"

const (
	DefaultInput  = "data/validator_stats.csv"
	DefaultOutDir = "charts"
)

type CurveConfig struct {
	MaxStake float64
	Samples  int
}

type ChartConfig struct {
	Width     int
	Height    int
	Hints     bool
	StakeUnit string
	Currency  string
}

// Config is the resolved configuration of one run.
type Config struct {
	Input      string
	Sheet      string
	OutDir     string
	Report     string // empty: derived from OutDir and the run tag
	LogLevel   string
	NoCharts   bool
	ReducedFee bool
	Cost       costmodel.Params
	Curve      CurveConfig
	Chart      ChartConfig
	// File is the config file that was read, if any.
	File string
}

// flag name -> key
var flagKeys = map[string]string{
	"input":                  KeyInput,
	"sheet":                  KeySheet,
	"out-dir":                KeyOutDir,
	"report":                 KeyReport,
	"log-level":              KeyLogLevel,
	"no-charts":              KeyNoCharts,
	"reduced-fee":            KeyReducedFee,
	"hardware-usd-per-month": KeyHardware,
	"bandwidth-usd-per-tb":   KeyBandwidthTB,
	"bandwidth-gb-per-day":   KeyBandwidthGB,
	"voting-fee-sol-per-day": KeyVotingFee,
	"sol-price-usd":          KeySOLPrice,
	"days-per-month":         KeyDaysPerMonth,
	"median-stake-sol":       KeyMedianStake,
	"max-stake":              KeyCurveMaxStake,
	"samples":                KeyCurveSamples,
	"width":                  KeyChartWidth,
	"height":                 KeyChartHeight,
	"hints":                  KeyChartHints,
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	ro := render.DefaultOptions()
	return Config{
		Input:      DefaultInput,
		OutDir:     DefaultOutDir,
		LogLevel:   "info",
		ReducedFee: true,
		Cost:       costmodel.DefaultParams(),
		Curve:      CurveConfig{MaxStake: analysis.DefaultMaxStake, Samples: analysis.DefaultSamples},
		Chart:      ChartConfig{Width: ro.Width, Height: ro.Height, Hints: ro.Hints, StakeUnit: "SOL", Currency: "$"},
	}
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault(KeyInput, d.Input)
	v.SetDefault(KeySheet, d.Sheet)
	v.SetDefault(KeyOutDir, d.OutDir)
	v.SetDefault(KeyReport, d.Report)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyNoCharts, d.NoCharts)
	v.SetDefault(KeyReducedFee, d.ReducedFee)
	v.SetDefault(KeyHardware, d.Cost.HardwareUSDPerMonth)
	v.SetDefault(KeyBandwidthTB, d.Cost.BandwidthUSDPerTB)
	v.SetDefault(KeyBandwidthGB, d.Cost.BandwidthGBPerDay)
	v.SetDefault(KeyVotingFee, d.Cost.VotingFeeSOLPerDay)
	v.SetDefault(KeySOLPrice, d.Cost.SOLPriceUSD)
	v.SetDefault(KeyDaysPerMonth, d.Cost.DaysPerMonth)
	v.SetDefault(KeyMedianStake, d.Cost.MedianStakeSOL)
	v.SetDefault(KeyCurveMaxStake, d.Curve.MaxStake)
	v.SetDefault(KeyCurveSamples, d.Curve.Samples)
	v.SetDefault(KeyChartWidth, d.Chart.Width)
	v.SetDefault(KeyChartHeight, d.Chart.Height)
	v.SetDefault(KeyChartHints, d.Chart.Hints)
	v.SetDefault(KeyStakeUnit, d.Chart.StakeUnit)
	v.SetDefault(KeyCurrency, d.Chart.Currency)
}

// RegisterFlags adds every configuration flag to fs. Flag defaults mirror Defaults.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Defaults()
	fs.StringP(FlagConfig, "c", "", "YAML config file")
	fs.StringP("input", "i", d.Input, "stake distribution table (.csv, .tsv or .xlsx)")
	fs.String("sheet", d.Sheet, "worksheet to read from an .xlsx input (default: first sheet)")
	fs.StringP("out-dir", "o", d.OutDir, "directory for chart PNGs")
	fs.String("report", d.Report, "report path (.json, .yaml or .yml); default is derived from --out-dir")
	fs.String("log-level", d.LogLevel, "log level: debug|info|warn|error")
	fs.Bool("no-charts", d.NoCharts, "skip chart rendering")
	fs.Bool("reduced-fee", d.ReducedFee, "also model the regime without voting fees")
	fs.Float64("hardware-usd-per-month", d.Cost.HardwareUSDPerMonth, "hardware cost per validator (USD/month)")
	fs.Float64("bandwidth-usd-per-tb", d.Cost.BandwidthUSDPerTB, "bandwidth price (USD/TB)")
	fs.Float64("bandwidth-gb-per-day", d.Cost.BandwidthGBPerDay, "bandwidth used per validator (GB/day)")
	fs.Float64("voting-fee-sol-per-day", d.Cost.VotingFeeSOLPerDay, "vote transaction fees (SOL/day)")
	fs.Float64("sol-price-usd", d.Cost.SOLPriceUSD, "SOL price (USD)")
	fs.Float64("days-per-month", d.Cost.DaysPerMonth, "days per billing month")
	fs.Float64("median-stake-sol", d.Cost.MedianStakeSOL, "median stake per validator (SOL)")
	fs.Float64("max-stake", d.Curve.MaxStake, "upper bound of the continuous cost curve")
	fs.Int("samples", d.Curve.Samples, "number of points on the continuous cost curve")
	fs.Int("width", d.Chart.Width, "chart width in pixels")
	fs.Int("height", d.Chart.Height, "chart height in pixels")
	fs.Bool("hints", d.Chart.Hints, "draw a hint line under each chart")
}

// Load resolves the configuration. fs may be nil, in which case only defaults apply. The
// returned Config is validated.
func Load(fs *pflag.FlagSet) (Config, error) {
	v := viper.New()
	setDefaults(v)
	var file string
	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
		if f := fs.Lookup(FlagConfig); f != nil {
			file = f.Value.String()
		}
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
		logx.Debugf("using config file %s", v.ConfigFileUsed())
	}
	cfg := fromViper(v)
	cfg.File = file
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) Config {
	return Config{
		Input:      strings.TrimSpace(v.GetString(KeyInput)),
		Sheet:      strings.TrimSpace(v.GetString(KeySheet)),
		OutDir:     strings.TrimSpace(v.GetString(KeyOutDir)),
		Report:     strings.TrimSpace(v.GetString(KeyReport)),
		LogLevel:   strings.ToLower(strings.TrimSpace(v.GetString(KeyLogLevel))),
		NoCharts:   v.GetBool(KeyNoCharts),
		ReducedFee: v.GetBool(KeyReducedFee),
		Cost: costmodel.Params{
			HardwareUSDPerMonth: v.GetFloat64(KeyHardware),
			BandwidthUSDPerTB:   v.GetFloat64(KeyBandwidthTB),
			BandwidthGBPerDay:   v.GetFloat64(KeyBandwidthGB),
			VotingFeeSOLPerDay:  v.GetFloat64(KeyVotingFee),
			SOLPriceUSD:         v.GetFloat64(KeySOLPrice),
			DaysPerMonth:        v.GetFloat64(KeyDaysPerMonth),
			MedianStakeSOL:      v.GetFloat64(KeyMedianStake),
		},
		Curve: CurveConfig{
			MaxStake: v.GetFloat64(KeyCurveMaxStake),
			Samples:  v.GetInt(KeyCurveSamples),
		},
		Chart: ChartConfig{
			Width:     v.GetInt(KeyChartWidth),
			Height:    v.GetInt(KeyChartHeight),
			Hints:     v.GetBool(KeyChartHints),
			StakeUnit: strings.TrimSpace(v.GetString(KeyStakeUnit)),
			Currency:  v.GetString(KeyCurrency),
		},
	}
}

// Validate reports every problem at once, each wrapped in ErrInvalidConfig.
func (c Config) Validate() error {
	var errs []error
	bad := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...)))
	}
	if c.Input == "" {
		bad("%s is required", KeyInput)
	}
	if c.OutDir == "" {
		bad("%s is required", KeyOutDir)
	}
	if !logx.ValidLevel(c.LogLevel) {
		bad("%s %q is not one of debug|info|warn|error", KeyLogLevel, c.LogLevel)
	}
	if c.Report != "" {
		switch strings.ToLower(filepath.Ext(c.Report)) {
		case ".json", ".yaml", ".yml":
		default:
			bad("%s %q must end in .json, .yaml or .yml", KeyReport, c.Report)
		}
	}
	if err := c.Cost.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("%w: cost: %w", ErrInvalidConfig, err))
	}
	if !(c.Curve.MaxStake > 0) {
		bad("%s must be > 0, got %v", KeyCurveMaxStake, c.Curve.MaxStake)
	}
	if c.Curve.Samples < 2 {
		bad("%s must be >= 2, got %d", KeyCurveSamples, c.Curve.Samples)
	}
	if c.Chart.Width < 0 || c.Chart.Height < 0 {
		bad("chart size %dx%d must not be negative", c.Chart.Width, c.Chart.Height)
	}
	if c.Chart.StakeUnit == "" {
		bad("%s is required", KeyStakeUnit)
	}
	return errors.Join(errs...)
}

// ChartOptions converts the curve and label settings for analysis.BuildCharts.
func (c Config) ChartOptions() analysis.ChartOptions {
	return analysis.ChartOptions{
		MaxStake:  c.Curve.MaxStake,
		Samples:   c.Curve.Samples,
		StakeUnit: c.Chart.StakeUnit,
		Currency:  c.Chart.Currency,
	}
}

// RenderOptions converts the chart size settings for the renderer.
func (c Config) RenderOptions() render.Options {
	return render.Options{Width: c.Chart.Width, Height: c.Chart.Height, Hints: c.Chart.Hints}
}
