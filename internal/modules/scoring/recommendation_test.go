package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/fundscore/internal/domain"
)

func TestRecommend_PrimaryBands(t *testing.T) {
	tests := []struct {
		name  string
		total float64
		want  domain.Recommendation
	}{
		{"strong buy at 70", 70, domain.StrongBuy},
		{"strong buy above 70", 85.5, domain.StrongBuy},
		{"buy at 60", 60, domain.Buy},
		{"buy just below strong buy", 69.9, domain.Buy},
		{"hold at 50", 50, domain.Hold},
		{"hold just below buy", 59.9, domain.Hold},
		{"sell at 35", 35, domain.Sell},
		{"sell just below hold", 49.9, domain.Sell},
		{"strong sell below 35", 34.9, domain.StrongSell},
		{"strong sell at zero", 0, domain.StrongSell},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Quartile 0 and low component scores: only the primary
			// bands can fire.
			assert.Equal(t, tt.want, Recommend(tt.total, 0, 0, 0))
		})
	}
}

func TestRecommend_StrongBuyException(t *testing.T) {
	// Score 65-70 with a Q1 rank and a strong risk component qualifies.
	assert.Equal(t, domain.StrongBuy, Recommend(65, 1, 22.5, 10))
	assert.Equal(t, domain.StrongBuy, Recommend(68, 1, 28, 10))

	// Any leg missing drops it back to BUY.
	assert.Equal(t, domain.Buy, Recommend(68, 2, 28, 10))   // not Q1
	assert.Equal(t, domain.Buy, Recommend(68, 1, 20, 10))   // risk floor
	assert.Equal(t, domain.Buy, Recommend(64.9, 1, 28, 10)) // below 65
}

func TestRecommend_BuyException(t *testing.T) {
	// Score 55-60 in the top half with solid fundamentals qualifies.
	assert.Equal(t, domain.Buy, Recommend(55, 2, 10, 21))
	assert.Equal(t, domain.Buy, Recommend(58, 1, 10, 25))

	assert.Equal(t, domain.Hold, Recommend(58, 3, 10, 25))   // bottom half
	assert.Equal(t, domain.Hold, Recommend(58, 2, 10, 20))   // fundamentals floor
	assert.Equal(t, domain.Hold, Recommend(54.9, 1, 10, 25)) // below 55
	assert.Equal(t, domain.Hold, Recommend(58, 0, 10, 25))   // unranked
}

func TestMeetsExpectation(t *testing.T) {
	tests := []struct {
		name    string
		rec     domain.Recommendation
		forward float64
		want    bool
	}{
		{"strong buy beats 15%", domain.StrongBuy, 0.18, true},
		{"strong buy misses 15%", domain.StrongBuy, 0.10, false},
		{"buy beats 8%", domain.Buy, 0.09, true},
		{"buy misses 8%", domain.Buy, 0.08, false},
		{"hold inside band", domain.Hold, 0.0, true},
		{"hold above band", domain.Hold, 0.12, false},
		{"hold below band", domain.Hold, -0.06, false},
		{"sell under 5%", domain.Sell, 0.02, true},
		{"sell over 5%", domain.Sell, 0.06, false},
		{"strong sell negative", domain.StrongSell, -0.01, true},
		{"strong sell positive", domain.StrongSell, 0.01, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MeetsExpectation(tt.rec, tt.forward))
		})
	}
}

// A STRONG_BUY prediction with an 18% realized 6-month return grades as
// accurate.
func TestMeetsExpectation_StrongBuyScenario(t *testing.T) {
	rec := Recommend(72, 1, 25, 22)
	assert.Equal(t, domain.StrongBuy, rec)
	assert.True(t, MeetsExpectation(rec, 0.18))
}
