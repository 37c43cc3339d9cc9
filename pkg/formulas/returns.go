package formulas

import (
	"math"
	"time"
)

// NavPoint is a dated NAV observation, ascending by date within a series.
type NavPoint struct {
	Date  time.Time
	Value float64
}

// DailyReturns converts a NAV series to simple daily returns.
// Returns[i] = NAV[i]/NAV[i-1] - 1 for consecutive observations.
// Pairs with a non-positive previous NAV are skipped rather than
// producing an error; the series is just shorter.
func DailyReturns(navs []float64) []float64 {
	if len(navs) < 2 {
		return []float64{}
	}

	returns := make([]float64, 0, len(navs)-1)
	for i := 1; i < len(navs); i++ {
		if navs[i-1] <= 0 {
			continue
		}
		returns = append(returns, navs[i]/navs[i-1]-1)
	}
	return returns
}

// PeriodReturn calculates the return over a lookback window of calendar
// days ending at the last observation of the series.
//
// The window start NAV is the observation at or nearest before
// (latest date - windowDays). Windows of one year or less yield a simple
// return; longer windows are annualized:
//
//	simple:     end/start - 1
//	annualized: (end/start)^(365.25/days) - 1
//
// Returns nil when the series does not reach back far enough, or when the
// start or end NAV is non-positive.
func PeriodReturn(series []NavPoint, windowDays int) *float64 {
	if len(series) < 2 || windowDays <= 0 {
		return nil
	}

	end := series[len(series)-1]
	target := end.Date.AddDate(0, 0, -windowDays)

	start := navAtOrBefore(series, target)
	if start == nil {
		return nil
	}
	if start.Value <= 0 || end.Value <= 0 {
		return nil
	}

	growth := end.Value / start.Value
	years := float64(windowDays) / DaysPerYear

	var r float64
	if years <= 1 {
		r = growth - 1
	} else {
		r = math.Pow(growth, 1/years) - 1
	}
	return &r
}

// CAGR calculates the compound annual growth rate over the whole series.
// Returns nil for series shorter than a year of calendar time.
func CAGR(series []NavPoint) *float64 {
	if len(series) < 2 {
		return nil
	}
	first, last := series[0], series[len(series)-1]
	if first.Value <= 0 || last.Value <= 0 {
		return nil
	}
	years := last.Date.Sub(first.Date).Hours() / 24 / DaysPerYear
	if years < 1 {
		return nil
	}
	r := math.Pow(last.Value/first.Value, 1/years) - 1
	return &r
}

// navAtOrBefore finds the latest point dated at or before target.
// The series is ascending by date.
func navAtOrBefore(series []NavPoint, target time.Time) *NavPoint {
	var found *NavPoint
	for i := range series {
		if series[i].Date.After(target) {
			break
		}
		found = &series[i]
	}
	return found
}

// Values extracts the NAV values of a dated series in order.
func Values(series []NavPoint) []float64 {
	out := make([]float64, len(series))
	for i, p := range series {
		out[i] = p.Value
	}
	return out
}

// TailWindow returns the points dated within the last windowDays calendar
// days of the series. Used to compute windowed volatility.
func TailWindow(series []NavPoint, windowDays int) []NavPoint {
	if len(series) == 0 {
		return nil
	}
	cutoff := series[len(series)-1].Date.AddDate(0, 0, -windowDays)
	for i := range series {
		if !series[i].Date.Before(cutoff) {
			return series[i:]
		}
	}
	return nil
}
