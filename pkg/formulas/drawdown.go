package formulas

import "time"

// DrawdownMetrics represents drawdown analysis results
type DrawdownMetrics struct {
	MaxDrawdown float64   `json:"max_drawdown"` // positive fraction, 0.25 = 25% loss from peak
	PeakDate    time.Time `json:"peak_date"`
	TroughDate  time.Time `json:"trough_date"`
	PeakValue   float64   `json:"peak_value"`
	TroughValue float64   `json:"trough_value"`
}

// MaxDrawdown calculates the maximum peak-to-trough decline of a NAV series.
//
// Single forward pass tracking the running peak:
//
//	drawdown = (peak - nav) / peak
//
// Returns nil for series with fewer than two observations.
func MaxDrawdown(navs []float64) *float64 {
	if len(navs) < 2 {
		return nil
	}

	maxDD := 0.0
	peak := navs[0]
	for _, nav := range navs {
		if nav > peak {
			peak = nav
		}
		if peak > 0 {
			dd := (peak - nav) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return &maxDD
}

// DrawdownAnalysis calculates the maximum drawdown of a dated series along
// with the peak and trough dates it occurred between.
func DrawdownAnalysis(series []NavPoint) *DrawdownMetrics {
	if len(series) < 2 {
		return nil
	}

	m := DrawdownMetrics{
		PeakDate:    series[0].Date,
		PeakValue:   series[0].Value,
		TroughDate:  series[0].Date,
		TroughValue: series[0].Value,
	}

	peak := series[0]
	for _, p := range series {
		if p.Value > peak.Value {
			peak = p
		}
		if peak.Value <= 0 {
			continue
		}
		dd := (peak.Value - p.Value) / peak.Value
		if dd > m.MaxDrawdown {
			m.MaxDrawdown = dd
			m.PeakDate = peak.Date
			m.PeakValue = peak.Value
			m.TroughDate = p.Date
			m.TroughValue = p.Value
		}
	}
	return &m
}
