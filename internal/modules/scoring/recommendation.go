package scoring

import "github.com/aristath/fundscore/internal/domain"

// Recommendation thresholds. Recommend below is the single place these
// are applied; nothing else in the codebase maps scores to labels.
const (
	strongBuyScore = 70.0
	buyScore       = 60.0
	holdScore      = 50.0
	sellScore      = 35.0

	// Near-threshold exceptions: a fund just short of a band can still
	// qualify when its peer rank and component floors compensate.
	strongBuyNearScore = 65.0
	strongBuyRiskFloor = RiskCap * 0.75 // 22.5
	buyNearScore       = 55.0
	buyFundFloor       = FundamentalsCap * 0.70 // 21
)

// Recommend maps a composite score to its recommendation label. Quartile
// is 0 for funds whose peer group was too small to rank; the exception
// rules then never fire and only the primary score bands apply.
func Recommend(total float64, quartile int, riskScore, fundamentalsScore float64) domain.Recommendation {
	switch {
	case total >= strongBuyScore:
		return domain.StrongBuy
	case total >= strongBuyNearScore && quartile == 1 && riskScore >= strongBuyRiskFloor:
		return domain.StrongBuy
	case total >= buyScore:
		return domain.Buy
	case total >= buyNearScore && quartile >= 1 && quartile <= 2 && fundamentalsScore >= buyFundFloor:
		return domain.Buy
	case total >= holdScore:
		return domain.Hold
	case total >= sellScore:
		return domain.Sell
	default:
		return domain.StrongSell
	}
}

// Forward 6-month return expectations implied by each recommendation.
// The validator grades predictions against these bands.
const (
	expectStrongBuy6M = 0.15  // > 15%
	expectBuy6M       = 0.08  // > 8%
	expectHoldLow6M   = -0.05 // -5% .. +10%
	expectHoldHigh6M  = 0.10
	expectSell6M      = 0.05 // < 5%
	expectStrongSell  = 0.00 // < 0%
)

// MeetsExpectation reports whether a realized 6-month forward return
// satisfies the band implied by the recommendation.
func MeetsExpectation(rec domain.Recommendation, forward6M float64) bool {
	return MeetsExpectationAt(rec, 6, forward6M)
}

// MeetsExpectationAt grades a realized forward return at an arbitrary
// horizon. The 6-month bands are canonical; other horizons scale them
// linearly, so a STRONG_BUY expects >7.5% at 3 months and >30% at a year.
func MeetsExpectationAt(rec domain.Recommendation, horizonMonths int, forward float64) bool {
	scale := float64(horizonMonths) / 6.0
	switch rec {
	case domain.StrongBuy:
		return forward > expectStrongBuy6M*scale
	case domain.Buy:
		return forward > expectBuy6M*scale
	case domain.Hold:
		return forward >= expectHoldLow6M*scale && forward <= expectHoldHigh6M*scale
	case domain.Sell:
		return forward < expectSell6M*scale
	case domain.StrongSell:
		return forward < expectStrongSell
	default:
		return false
	}
}
