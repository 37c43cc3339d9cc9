// Package scoring implements the composite fund scorer: weighted return,
// risk, and fundamentals components on a 0-100 scale, quartile ranking
// within peer groups, and the recommendation mapping derived from the
// composite score.
package scoring

// Component caps. The three components sum to the 100-point total.
const (
	ReturnsCap      = 40.0
	RiskCap         = 30.0
	FundamentalsCap = 30.0
)

// Returns component sub-weights, one per lookback window.
const (
	WeightReturn3M = 5.0
	WeightReturn6M = 5.0
	WeightReturn1Y = 10.0
	WeightReturn3Y = 10.0
	WeightReturn5Y = 10.0
)

// Risk component sub-weights.
const (
	WeightVolatility1Y = 6.0
	WeightVolatility3Y = 6.0
	WeightDrawdown     = 8.0
	WeightCapture      = 10.0
)

// Fundamentals component sub-weights.
const (
	WeightExpenseRatio = 10.0
	WeightAUM          = 8.0
	WeightConsistency  = 6.0
	WeightMomentum     = 6.0
)

// Lookback windows in calendar days (365.25-day years).
const (
	Window3M = 91
	Window6M = 182
	Window1Y = 365
	Window3Y = 1096
	Window5Y = 1826
)

// RiskFreeRate is the annual risk-free rate used in Sharpe and Sortino
// ratios. Indian 10-year G-Sec yield, reviewed annually.
const RiskFreeRate = 0.065

// Minimum observation counts before a metric family is computed.
// Funds below MinObsShort are excluded from point-in-time baselines
// entirely; funds below MinObsAnnualized score without annualized risk.
const (
	MinObsShort      = 63
	MinObsAnnualized = 252
)

// MinPeerGroupSize is the smallest peer group that gets quartile ranks.
const MinPeerGroupSize = 4

// threshold maps a metric value to points. Tables are evaluated top-down
// and must be sorted by At: descending for higher-is-better metrics,
// ascending for lower-is-better ones.
type threshold struct {
	At     float64
	Points float64
}

// pointsAtLeast awards the first row whose At the value meets or exceeds.
// Used for higher-is-better metrics (returns, capture, AUM).
func pointsAtLeast(value float64, table []threshold) float64 {
	for _, t := range table {
		if value >= t.At {
			return t.Points
		}
	}
	return 0
}

// pointsAtMost awards the first row whose At the value stays at or below.
// Used for lower-is-better metrics (volatility, drawdown, expense ratio).
func pointsAtMost(value float64, table []threshold) float64 {
	for _, t := range table {
		if value <= t.At {
			return t.Points
		}
	}
	return 0
}

// Return threshold tables. Short windows grade simple period returns,
// the 1y+ windows grade annualized returns.
var (
	return3MTable = []threshold{
		{0.10, 5}, {0.06, 4}, {0.04, 3}, {0.02, 2}, {0.00, 1},
	}
	return6MTable = []threshold{
		{0.15, 5}, {0.10, 4}, {0.06, 3}, {0.03, 2}, {0.00, 1},
	}
	return1YTable = []threshold{
		{0.25, 10}, {0.18, 8}, {0.12, 6}, {0.08, 4}, {0.04, 2},
	}
	return3YTable = []threshold{
		{0.20, 10}, {0.15, 8}, {0.12, 6}, {0.08, 4}, {0.05, 2},
	}
	return5YTable = []threshold{
		{0.18, 10}, {0.14, 8}, {0.11, 6}, {0.08, 4}, {0.05, 2},
	}
)

// Risk threshold tables. Volatility and drawdown are graded lower-is-
// better; capture grades the overall up/|down| ratio.
var (
	volatility1YTable = []threshold{
		{0.10, 6}, {0.14, 5}, {0.18, 4}, {0.22, 2.5}, {0.28, 1},
	}
	volatility3YTable = []threshold{
		{0.11, 6}, {0.15, 5}, {0.19, 4}, {0.23, 2.5}, {0.29, 1},
	}
	drawdownTable = []threshold{
		{0.08, 8}, {0.12, 6.5}, {0.18, 5}, {0.25, 3}, {0.35, 1.5},
	}
	captureTable = []threshold{
		{1.20, 10}, {1.05, 8.5}, {0.95, 7}, {0.80, 5}, {0.60, 3},
	}
)

// Fundamentals threshold tables. Expense ratio is an annual decimal
// (0.0125 = 1.25%); AUM is INR crore.
var (
	expenseRatioTable = []threshold{
		{0.0050, 10}, {0.0075, 8}, {0.0100, 6}, {0.0150, 4}, {0.0200, 2},
	}
	aumTable = []threshold{
		{10000, 8}, {5000, 7}, {1000, 6}, {500, 4}, {100, 2},
	}
	// Fraction of rolling windows with a positive smoothed return.
	consistencyTable = []threshold{
		{0.80, 6}, {0.65, 4.5}, {0.50, 3}, {0.35, 1.5},
	}
	// 63-day rate of change, in percent (talib convention).
	momentumTable = []threshold{
		{8.0, 6}, {4.0, 4.5}, {0.0, 3}, {-4.0, 1.5},
	}
)

// Neutral defaults applied when a sub-metric cannot be computed. Each is
// half the sub-weight, so a fund with no data for a metric lands mid-table
// on it instead of being punished as if it had the worst value.
const (
	neutralCapture      = WeightCapture / 2
	neutralExpense      = WeightExpenseRatio / 2
	neutralAUM          = WeightAUM / 2
	neutralConsistency  = WeightConsistency / 2
	neutralMomentum     = WeightMomentum / 2
	neutralVolatility1Y = WeightVolatility1Y / 2
	neutralVolatility3Y = WeightVolatility3Y / 2
	neutralDrawdown     = WeightDrawdown / 2
)
