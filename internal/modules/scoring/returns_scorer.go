package scoring

import "github.com/aristath/fundscore/pkg/formulas"

// ReturnsBreakdown carries the per-window contributions to the returns
// component.
type ReturnsBreakdown struct {
	Return3M *float64 `json:"return_3m"`
	Return6M *float64 `json:"return_6m"`
	Return1Y *float64 `json:"return_1y"`
	Return3Y *float64 `json:"return_3y"`
	Return5Y *float64 `json:"return_5y"`
	Points3M float64  `json:"points_3m"`
	Points6M float64  `json:"points_6m"`
	Points1Y float64  `json:"points_1y"`
	Points3Y float64  `json:"points_3y"`
	Points5Y float64  `json:"points_5y"`
	Total    float64  `json:"total"`
	// Windows the history could not cover. These contribute zero points.
	Unavailable int `json:"unavailable"`
}

// ScoreReturns grades a NAV series across the five lookback windows.
// A window the history cannot cover contributes zero, so young funds
// compete on the windows they have rather than failing outright.
func ScoreReturns(series []formulas.NavPoint) ReturnsBreakdown {
	b := ReturnsBreakdown{
		Return3M: formulas.PeriodReturn(series, Window3M),
		Return6M: formulas.PeriodReturn(series, Window6M),
		Return1Y: formulas.PeriodReturn(series, Window1Y),
		Return3Y: formulas.PeriodReturn(series, Window3Y),
		Return5Y: formulas.PeriodReturn(series, Window5Y),
	}

	windows := []struct {
		value  *float64
		table  []threshold
		points *float64
	}{
		{b.Return3M, return3MTable, &b.Points3M},
		{b.Return6M, return6MTable, &b.Points6M},
		{b.Return1Y, return1YTable, &b.Points1Y},
		{b.Return3Y, return3YTable, &b.Points3Y},
		{b.Return5Y, return5YTable, &b.Points5Y},
	}

	for _, w := range windows {
		if w.value == nil {
			b.Unavailable++
			continue
		}
		*w.points = pointsAtLeast(*w.value, w.table)
		b.Total += *w.points
	}

	if b.Total > ReturnsCap {
		b.Total = ReturnsCap
	}
	return b
}
