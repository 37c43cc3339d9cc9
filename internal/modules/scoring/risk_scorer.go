package scoring

import "github.com/aristath/fundscore/internal/domain"

// RiskBreakdown carries the per-metric contributions to the risk
// component.
type RiskBreakdown struct {
	PointsVol1Y    float64 `json:"points_vol_1y"`
	PointsVol3Y    float64 `json:"points_vol_3y"`
	PointsDrawdown float64 `json:"points_drawdown"`
	PointsCapture  float64 `json:"points_capture"`
	Total          float64 `json:"total"`
	// Flags raised when a metric fell back to its neutral default.
	MissingBenchmark  bool `json:"missing_benchmark"`
	MissingAnnualized bool `json:"missing_annualized"`
	MissingDrawdown   bool `json:"missing_drawdown"`
}

// ScoreRisk grades computed risk metrics against the risk threshold
// tables. Metrics that could not be computed take their neutral default
// and raise a breakdown flag, so data quality is visible on the record.
func ScoreRisk(m domain.RiskMetrics) RiskBreakdown {
	var b RiskBreakdown

	if m.Volatility1Y != nil {
		b.PointsVol1Y = pointsAtMost(*m.Volatility1Y, volatility1YTable)
	} else {
		b.PointsVol1Y = neutralVolatility1Y
		b.MissingAnnualized = true
	}

	if m.Volatility3Y != nil {
		b.PointsVol3Y = pointsAtMost(*m.Volatility3Y, volatility3YTable)
	} else {
		b.PointsVol3Y = neutralVolatility3Y
		b.MissingAnnualized = true
	}

	if m.MaxDrawdown != nil {
		b.PointsDrawdown = pointsAtMost(*m.MaxDrawdown, drawdownTable)
	} else {
		b.PointsDrawdown = neutralDrawdown
		b.MissingDrawdown = true
	}

	if m.UpCapture != nil && m.DownCapture != nil {
		overall := captureOverall(*m.UpCapture, *m.DownCapture)
		b.PointsCapture = pointsAtLeast(overall, captureTable)
	} else {
		b.PointsCapture = neutralCapture
		b.MissingBenchmark = true
	}

	b.Total = b.PointsVol1Y + b.PointsVol3Y + b.PointsDrawdown + b.PointsCapture
	if b.Total > RiskCap {
		b.Total = RiskCap
	}
	return b
}

// captureOverall is up capture over the magnitude of down capture. A fund
// that captures more upside than downside scores above 1.
func captureOverall(up, down float64) float64 {
	if down == 0 {
		return 1.0
	}
	if down < 0 {
		down = -down
	}
	return up / down
}
