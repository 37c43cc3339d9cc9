package scoring

import (
	"github.com/aristath/fundscore/internal/domain"
	"github.com/aristath/fundscore/pkg/formulas"
)

// ComputeRiskMetrics derives the full risk-metric set from a fund's NAV
// series and its benchmark series (both already cutoff-filtered by the
// store). Metrics that cannot be computed from the available history stay
// nil. The benchmark series may be empty; capture ratios are then nil.
func ComputeRiskMetrics(series, bench []formulas.NavPoint) domain.RiskMetrics {
	var m domain.RiskMetrics

	if len(series) < 2 {
		return m
	}

	navs := formulas.Values(series)
	daily := formulas.DailyReturns(navs)

	m.MaxDrawdown = formulas.MaxDrawdown(navs)
	m.VaR95 = formulas.ValueAtRisk95(daily)

	if len(series) >= MinObsAnnualized {
		window1y := formulas.TailWindow(series, Window1Y)
		daily1y := formulas.DailyReturns(formulas.Values(window1y))
		m.Volatility1Y = formulas.AnnualizedVolatility(daily1y)
		m.Sharpe = formulas.SharpeRatio(daily1y, RiskFreeRate)
		m.Sortino = formulas.SortinoRatio(daily1y, RiskFreeRate)
		m.Calmar = formulas.CalmarRatio(daily, navs)
	}

	if len(series) >= 3*MinObsAnnualized {
		window3y := formulas.TailWindow(series, Window3Y)
		daily3y := formulas.DailyReturns(formulas.Values(window3y))
		m.Volatility3Y = formulas.AnnualizedVolatility(daily3y)
	}

	if len(bench) >= 2 {
		fundR, benchR := alignedDailyReturns(series, bench)
		if len(fundR) > 0 {
			capture := formulas.UpDownCapture(fundR, benchR)
			up, down := capture.Up, capture.Down
			m.UpCapture = &up
			m.DownCapture = &down
		}
	}

	return m
}

// alignedDailyReturns pairs fund and benchmark daily returns on shared
// observation dates. Capture ratios are only meaningful on paired days;
// dates present in one series but not the other are dropped.
func alignedDailyReturns(series, bench []formulas.NavPoint) (fund, benchmark []float64) {
	benchByDate := make(map[string]float64, len(bench))
	for _, p := range bench {
		benchByDate[p.Date.Format("2006-01-02")] = p.Value
	}

	var prevFund, prevBench float64
	havePrev := false
	for _, p := range series {
		bv, ok := benchByDate[p.Date.Format("2006-01-02")]
		if !ok {
			continue
		}
		if havePrev && prevFund > 0 && prevBench > 0 {
			fund = append(fund, p.Value/prevFund-1)
			benchmark = append(benchmark, bv/prevBench-1)
		}
		prevFund, prevBench = p.Value, bv
		havePrev = true
	}
	return fund, benchmark
}
