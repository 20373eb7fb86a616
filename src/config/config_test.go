package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/iafilius/StakeCostModel/src/costmodel"
)

func writeYAML(t *testing.T, doc map[string]interface{}) string {
	t.Helper()
	b, err := yaml.Marshal(doc)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "stakecost.yaml")
	require.NoError(t, os.WriteFile(path, b, 0o644))
	return path
}

func flags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)

	cfg, err = Load(flags(t))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoadSampleConfigMatchesDefaults(t *testing.T) {
	path := filepath.Join("..", "..", "configs", "stakecost.yaml")
	cfg, err := Load(flags(t, "--config", path))
	require.NoError(t, err)
	want := Defaults()
	want.File = path
	assert.Equal(t, want, cfg)
}

func TestFlagsOverrideFileOverridesDefaults(t *testing.T) {
	path := writeYAML(t, map[string]interface{}{
		"out_dir":   "out",
		"log_level": "debug",
		"cost": map[string]interface{}{
			"hardware_usd_per_month": 500,
			"sol_price_usd":          100,
		},
		"curve": map[string]interface{}{"samples": 100},
		"chart": map[string]interface{}{"stake_unit": "LUX", "currency": "€"},
	})
	cfg, err := Load(flags(t, "-c", path, "--sol-price-usd", "200", "--samples=50", "--no-charts"))
	require.NoError(t, err)

	assert.Equal(t, "out", cfg.OutDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 500.0, cfg.Cost.HardwareUSDPerMonth)
	assert.Equal(t, 200.0, cfg.Cost.SOLPriceUSD)
	assert.Equal(t, 50, cfg.Curve.Samples)
	assert.True(t, cfg.NoCharts)
	assert.Equal(t, "LUX", cfg.Chart.StakeUnit)
	assert.Equal(t, "€", cfg.Chart.Currency)
	// untouched keys keep their defaults
	assert.Equal(t, costmodel.DefaultParams().MedianStakeSOL, cfg.Cost.MedianStakeSOL)
	assert.Equal(t, DefaultInput, cfg.Input)

	opts := cfg.ChartOptions()
	assert.Equal(t, 50, opts.Samples)
	assert.Equal(t, "LUX", opts.StakeUnit)
	assert.Equal(t, cfg.Chart.Width, cfg.RenderOptions().Width)
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := Load(flags(t, "--config", filepath.Join(t.TempDir(), "nope.yaml")))
	require.Error(t, err)
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Defaults()
	cfg.Input = ""
	cfg.LogLevel = "loud"
	cfg.Report = "report.txt"
	cfg.Cost.MedianStakeSOL = 0
	cfg.Curve.Samples = 1
	cfg.Chart.StakeUnit = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	assert.True(t, errors.Is(err, costmodel.ErrInvalidAssumptions))
	for _, want := range []string{KeyInput, KeyLogLevel, KeyReport, "median_stake_sol", KeyCurveSamples, KeyStakeUnit} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoadRejectsInvalidFlag(t *testing.T) {
	_, err := Load(flags(t, "--days-per-month", "0"))
	require.True(t, errors.Is(err, ErrInvalidConfig))
}
