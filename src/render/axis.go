package render

import (
	"fmt"
	"math"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
)

// valueAxis returns a zero-anchored range and its ticks covering [0, max] with a small
// headroom. Non-positive or non-finite maxima fall back to [0, 1].
func valueAxis(max float64) (*chart.ContinuousRange, []chart.Tick) {
	if !(max > 0) || math.IsInf(max, 0) {
		max = 1
	}
	ticks := niceTicks(0, max*1.05, 6)
	return &chart.ContinuousRange{Min: 0, Max: ticks[len(ticks)-1].Value}, ticks
}

// niceTicks generates up to n desired tick marks between [min, max] using nice increments.
func niceTicks(min, max float64, n int) []chart.Tick {
	if n < 2 || math.IsNaN(min) || math.IsNaN(max) {
		return nil
	}
	if max <= min {
		max = min + 1
	}
	span := max - min
	// Preferred tick steps: 1, 2, 2.5, 5, 10 ... scaled by power of 10
	mag := math.Pow(10, math.Floor(math.Log10(span/float64(n-1))))
	bestStep := mag
	bestScore := math.MaxFloat64
	for _, c := range []float64{1, 2, 2.5, 5, 10} {
		step := c * mag
		count := math.Ceil(span / step)
		if count < 2 {
			count = 2
		}
		if score := math.Abs(count - float64(n)); score < bestScore {
			bestScore = score
			bestStep = step
		}
	}
	start := math.Floor(min/bestStep) * bestStep
	end := math.Ceil(max/bestStep) * bestStep
	ticks := []chart.Tick{}
	for i := 0; ; i++ {
		v := round6(start + float64(i)*bestStep)
		if v > end+bestStep/2 || len(ticks) > n+2 {
			break
		}
		ticks = append(ticks, chart.Tick{Value: v, Label: formatTick(v)})
	}
	return ticks
}

// formatTick gives a compact label: 0.25, 12.5, 450, 20k, 1.5M.
func formatTick(v float64) string {
	if v == 0 {
		return "0"
	}
	av := math.Abs(v)
	switch {
	case av >= 1_000_000:
		return trimZeros(fmt.Sprintf("%.2f", v/1_000_000)) + "M"
	case av >= 10_000:
		return trimZeros(fmt.Sprintf("%.1f", v/1000)) + "k"
	case av >= 100:
		return fmt.Sprintf("%.0f", v)
	case av >= 10:
		return trimZeros(fmt.Sprintf("%.1f", v))
	default:
		return trimZeros(fmt.Sprintf("%.2f", v))
	}
}

func trimZeros(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	return strings.TrimRight(strings.TrimRight(s, "0"), ".")
}

// round6 rounds to 6 decimal places so accumulated steps print cleanly.
func round6(v float64) float64 { return math.Round(v*1e6) / 1e6 }
