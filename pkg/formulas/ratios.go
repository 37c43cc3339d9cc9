package formulas

import "math"

// SharpeRatio calculates the annualized Sharpe ratio from daily returns.
//
//	Sharpe = (mean daily - daily risk-free) / stddev, × sqrt(252)
//
// riskFreeRate is annual (0.065 = 6.5%). Returns nil when there are fewer
// than two returns or volatility is zero (never divides by zero).
func SharpeRatio(dailyReturns []float64, riskFreeRate float64) *float64 {
	if len(dailyReturns) < 2 {
		return nil
	}

	mean := Mean(dailyReturns)
	sd := StdDev(dailyReturns)
	if sd == 0 {
		return nil
	}

	dailyRF := riskFreeRate / TradingDaysPerYear
	sharpe := (mean - dailyRF) / sd * math.Sqrt(TradingDaysPerYear)
	return &sharpe
}

// SortinoRatio calculates the annualized Sortino ratio: the Sharpe
// numerator over the downside deviation, the stddev of negative daily
// returns only. Returns nil when there are no negative returns (rather
// than an unbounded ratio) or insufficient data.
func SortinoRatio(dailyReturns []float64, riskFreeRate float64) *float64 {
	if len(dailyReturns) < 2 {
		return nil
	}

	var downside []float64
	for _, r := range dailyReturns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	if len(downside) == 0 {
		return nil
	}

	var sumSq float64
	for _, r := range downside {
		sumSq += r * r
	}
	downsideDev := math.Sqrt(sumSq / float64(len(downside)))
	if downsideDev == 0 {
		return nil
	}

	dailyRF := riskFreeRate / TradingDaysPerYear
	sortino := (Mean(dailyReturns) - dailyRF) / downsideDev * math.Sqrt(TradingDaysPerYear)
	return &sortino
}

// CalmarRatio calculates annualized return over maximum drawdown.
// Returns nil when the drawdown is zero.
func CalmarRatio(dailyReturns []float64, navs []float64) *float64 {
	annRet := AnnualizedReturn(dailyReturns)
	maxDD := MaxDrawdown(navs)
	if annRet == nil || maxDD == nil || *maxDD == 0 {
		return nil
	}
	calmar := *annRet / *maxDD
	return &calmar
}

// ValueAtRisk95 returns the historical (non-parametric) one-day 95% VaR:
// the 5th percentile of the daily-return distribution. The result is
// typically negative; callers report its magnitude as the loss bound.
func ValueAtRisk95(dailyReturns []float64) *float64 {
	if len(dailyReturns) < 2 {
		return nil
	}
	return Percentile(dailyReturns, 5)
}
