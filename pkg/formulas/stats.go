// Package formulas implements the statistical building blocks of fund
// scoring: return series construction, volatility, drawdown, risk-adjusted
// ratios, value-at-risk and benchmark capture. Functions return nil (not
// NaN, not an error) when the input series is too short for the metric.
package formulas

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear is the annualization convention for daily series.
const TradingDaysPerYear = 252

// DaysPerYear is the calendar-day convention used for period returns.
const DaysPerYear = 365.25

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Correlation calculates the Pearson correlation coefficient between two datasets
func Correlation(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return 0
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return 0
	}
	return r
}

// Percentile returns the p-th percentile (0..100) of the data using the
// empirical distribution of the sorted values. Returns nil on empty input.
func Percentile(data []float64, p float64) *float64 {
	if len(data) == 0 {
		return nil
	}
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	idx := int(math.Floor(p / 100 * float64(len(sorted))))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	if idx < 0 {
		idx = 0
	}
	v := sorted[idx]
	return &v
}

// AnnualizedVolatility calculates annualized volatility from daily returns.
// Formula: StdDev(daily returns) × sqrt(252)
func AnnualizedVolatility(dailyReturns []float64) *float64 {
	if len(dailyReturns) < 2 {
		return nil
	}
	v := StdDev(dailyReturns) * math.Sqrt(TradingDaysPerYear)
	return &v
}

// AnnualizedReturn derives an annualized return from mean daily return.
func AnnualizedReturn(dailyReturns []float64) *float64 {
	if len(dailyReturns) == 0 {
		return nil
	}
	r := Mean(dailyReturns) * TradingDaysPerYear
	return &r
}
