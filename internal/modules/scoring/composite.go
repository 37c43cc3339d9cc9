package scoring

import (
	"math"
	"time"

	"github.com/aristath/fundscore/internal/domain"
	"github.com/aristath/fundscore/pkg/formulas"
)

// Compute scores one fund from its cutoff-filtered NAV and benchmark
// series. The result is deterministic: identical inputs always produce an
// identical record. Quartile, rank, and percentile are left zero here;
// the ranking pass fills them in once the whole peer group is scored.
func Compute(fund domain.Fund, series, bench []formulas.NavPoint, asOf time.Time) *domain.ScoreRecord {
	metrics := ComputeRiskMetrics(series, bench)

	returns := ScoreReturns(series)
	risk := ScoreRisk(metrics)
	fundamentals := ScoreFundamentals(fund, series)

	total := returns.Total + risk.Total + fundamentals.Total
	if total > 100 {
		total = 100
	}

	rec := &domain.ScoreRecord{
		FundID:            fund.ID,
		AsOfDate:          asOf,
		ReturnsScore:      round1(returns.Total),
		RiskScore:         round1(risk.Total),
		FundamentalsScore: round1(fundamentals.Total),
		TotalScore:        round1(total),
		Metrics:           metrics,
		DataQuality:       qualityFlags(returns, risk, fundamentals),
	}

	// Provisional mapping before ranking; the ranking pass re-derives it
	// with the real quartile. Both calls go through Recommend, so the
	// thresholds cannot diverge.
	rec.Recommendation = Recommend(rec.TotalScore, rec.Quartile, rec.RiskScore, rec.FundamentalsScore)
	return rec
}

func qualityFlags(r ReturnsBreakdown, k RiskBreakdown, f FundamentalsBreakdown) []string {
	var flags []string
	if r.Unavailable > 0 || f.ShortHistory {
		flags = append(flags, domain.QualityInsufficientHistory)
	}
	if k.MissingAnnualized {
		flags = append(flags, domain.QualityNoAnnualizedRisk)
	}
	if k.MissingBenchmark {
		flags = append(flags, domain.QualityMissingBenchmark)
	}
	if f.Estimated {
		flags = append(flags, domain.QualityEstimatedFundament)
	}
	return flags
}

// round1 rounds to 1 decimal place, the precision scores are stored and
// reported at.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
