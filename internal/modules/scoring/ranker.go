package scoring

import (
	"sort"

	"github.com/aristath/fundscore/internal/domain"
)

// RankPeerGroup assigns rank, percentile, quartile, and the final
// recommendation to every record in one peer group. Records are mutated
// in place. Returns false when the group is too small to rank; records
// then keep quartile 0 and their score-only recommendation.
func RankPeerGroup(records []*domain.ScoreRecord) bool {
	if len(records) < MinPeerGroupSize {
		return false
	}

	// Descending by score; FundID breaks ties so ranking is stable
	// across runs.
	sort.Slice(records, func(i, j int) bool {
		if records[i].TotalScore != records[j].TotalScore {
			return records[i].TotalScore > records[j].TotalScore
		}
		return records[i].FundID < records[j].FundID
	})

	n := len(records)
	for i, rec := range records {
		rank := i + 1
		rec.SubcatRank = rank
		rec.SubcatTotal = n
		rec.Percentile = round1(float64(n-rank+1) / float64(n) * 100)
		rec.Quartile = QuartileOf(rank, n)
		rec.Recommendation = Recommend(rec.TotalScore, rec.Quartile, rec.RiskScore, rec.FundamentalsScore)
	}
	return true
}

// QuartileOf returns the quartile for a 1-based rank within a group of
// the given size. The validator uses it to bucket realized forward
// returns with the same boundaries as predicted scores.
func QuartileOf(rank, total int) int {
	return quartileFor(float64(total-rank+1) / float64(total) * 100)
}

// quartileFor buckets a percentile into quartiles. Boundaries are
// exclusive so a group of 4k funds splits into exactly k per quartile:
// rank 3 of 8 sits at percentile 75.0 and belongs in Q2, not Q1.
func quartileFor(percentile float64) int {
	switch {
	case percentile > 75:
		return 1
	case percentile > 50:
		return 2
	case percentile > 25:
		return 3
	default:
		return 4
	}
}
