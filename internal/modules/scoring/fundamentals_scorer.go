package scoring

import (
	"github.com/markcheno/go-talib"

	"github.com/aristath/fundscore/internal/domain"
	"github.com/aristath/fundscore/pkg/formulas"
)

// Rolling windows for the NAV-derived fundamentals metrics.
const (
	consistencySmoothing = 21 // SMA window over daily returns
	momentumWindow       = 63 // rate-of-change lookback
)

// FundamentalsBreakdown carries the per-metric contributions to the
// fundamentals component.
type FundamentalsBreakdown struct {
	PointsExpense     float64 `json:"points_expense"`
	PointsAUM         float64 `json:"points_aum"`
	PointsConsistency float64 `json:"points_consistency"`
	PointsMomentum    float64 `json:"points_momentum"`
	Total             float64 `json:"total"`
	// Estimated is set when expense ratio or AUM were unknown and took
	// their neutral defaults.
	Estimated bool `json:"estimated"`
	// ShortHistory is set when the series was too short for the
	// consistency/momentum metrics.
	ShortHistory bool `json:"short_history"`
}

// ScoreFundamentals grades a fund's expense ratio, AUM adequacy, return
// consistency, and price momentum. Expense ratio and AUM come directly
// from the fund record; consistency and momentum are derived from the NAV
// series, so they respect the same point-in-time cutoff as everything
// else.
func ScoreFundamentals(fund domain.Fund, series []formulas.NavPoint) FundamentalsBreakdown {
	var b FundamentalsBreakdown

	if fund.ExpenseRatio > 0 {
		b.PointsExpense = pointsAtMost(fund.ExpenseRatio, expenseRatioTable)
	} else {
		b.PointsExpense = neutralExpense
		b.Estimated = true
	}

	if fund.AUMCrore > 0 {
		b.PointsAUM = pointsAtLeast(fund.AUMCrore, aumTable)
	} else {
		b.PointsAUM = neutralAUM
		b.Estimated = true
	}

	if len(series) >= 2*momentumWindow {
		navs := formulas.Values(series)
		b.PointsConsistency = pointsAtLeast(consistency(navs), consistencyTable)
		b.PointsMomentum = pointsAtLeast(momentum(navs), momentumTable)
	} else {
		b.PointsConsistency = neutralConsistency
		b.PointsMomentum = neutralMomentum
		b.ShortHistory = true
	}

	b.Total = b.PointsExpense + b.PointsAUM + b.PointsConsistency + b.PointsMomentum
	if b.Total > FundamentalsCap {
		b.Total = FundamentalsCap
	}
	return b
}

// consistency is the fraction of days on which the smoothed daily return
// was positive. Smoothing with a short SMA filters out single-day noise
// so the metric reads trend persistence, not volatility.
func consistency(navs []float64) float64 {
	daily := formulas.DailyReturns(navs)
	if len(daily) < consistencySmoothing {
		return 0
	}

	smoothed := talib.Sma(daily, consistencySmoothing)

	// talib leaves the warmup prefix zeroed; grade only the valid tail.
	positive, valid := 0, 0
	for i := consistencySmoothing - 1; i < len(smoothed); i++ {
		valid++
		if smoothed[i] > 0 {
			positive++
		}
	}
	if valid == 0 {
		return 0
	}
	return float64(positive) / float64(valid)
}

// momentum is the latest 63-day rate of change of NAV, in percent.
func momentum(navs []float64) float64 {
	roc := talib.Roc(navs, momentumWindow)
	if len(roc) == 0 {
		return 0
	}
	return roc[len(roc)-1]
}
