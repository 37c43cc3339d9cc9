package testing

import (
	"math"
	"time"

	"github.com/aristath/fundscore/internal/domain"
)

// NewFundFixtures returns a small fund universe spanning two peer groups:
// five large-cap equity funds (rankable) and two gilt funds (below the
// minimum peer-group size of four).
func NewFundFixtures() []domain.Fund {
	return []domain.Fund{
		{
			ID:            "LC001",
			Name:          "Alpha Large Cap Fund",
			Category:      "Equity",
			Subcategory:   "Large Cap",
			BenchmarkName: "NIFTY 100",
			ExpenseRatio:  0.0085,
			AUMCrore:      12500,
		},
		{
			ID:            "LC002",
			Name:          "Bluechip Growth Fund",
			Category:      "Equity",
			Subcategory:   "Large Cap",
			BenchmarkName: "NIFTY 100",
			ExpenseRatio:  0.0145,
			AUMCrore:      32000,
		},
		{
			ID:            "LC003",
			Name:          "Core Equity Fund",
			Category:      "Equity",
			Subcategory:   "Large Cap",
			BenchmarkName: "NIFTY 100",
			ExpenseRatio:  0.0110,
			AUMCrore:      4100,
		},
		{
			ID:            "LC004",
			Name:          "Dividend Leaders Fund",
			Category:      "Equity",
			Subcategory:   "Large Cap",
			BenchmarkName: "NIFTY 100",
			ExpenseRatio:  0.0190,
			AUMCrore:      850,
		},
		{
			ID:            "LC005",
			Name:          "Everest Index Plus Fund",
			Category:      "Equity",
			Subcategory:   "Large Cap",
			BenchmarkName: "NIFTY 100",
			ExpenseRatio:  0.0052,
			AUMCrore:      21000,
		},
		{
			ID:            "GL001",
			Name:          "Sovereign Gilt Fund",
			Category:      "Debt",
			Subcategory:   "Gilt",
			BenchmarkName: "CRISIL Gilt",
			ExpenseRatio:  0.0060,
			AUMCrore:      900,
		},
		{
			ID:            "GL002",
			Name:          "Treasury Advantage Fund",
			Category:      "Debt",
			Subcategory:   "Gilt",
			BenchmarkName: "CRISIL Gilt",
			ExpenseRatio:  0.0075,
			AUMCrore:      1500,
		},
	}
}

// NavSeries generates a deterministic synthetic NAV series of n daily
// observations ending at end, with the given annual growth rate and a
// bounded sinusoidal wobble standing in for volatility. Deterministic so
// scores are reproducible across test runs.
func NavSeries(fundID string, end time.Time, n int, annualGrowth, wobble float64) []domain.NAVObservation {
	series := make([]domain.NAVObservation, 0, n)
	dailyGrowth := math.Pow(1+annualGrowth, 1.0/365.25) - 1

	nav := 100.0
	start := end.AddDate(0, 0, -(n - 1))
	for i := 0; i < n; i++ {
		jitter := 1 + wobble*math.Sin(float64(i)/7.3)
		series = append(series, domain.NAVObservation{
			FundID: fundID,
			Date:   start.AddDate(0, 0, i),
			Value:  nav * jitter,
		})
		nav *= 1 + dailyGrowth
	}
	return series
}

// BenchmarkSeries generates a deterministic benchmark series with the
// same shape as NavSeries.
func BenchmarkSeries(name string, end time.Time, n int, annualGrowth, wobble float64) []domain.BenchmarkObservation {
	navs := NavSeries("_", end, n, annualGrowth, wobble)
	out := make([]domain.BenchmarkObservation, len(navs))
	for i, p := range navs {
		out[i] = domain.BenchmarkObservation{Benchmark: name, Date: p.Date, Value: p.Value}
	}
	return out
}
