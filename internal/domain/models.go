// Package domain contains the core entities of the fund scoring engine.
// The domain layer is pure: no database, HTTP, or logging dependencies.
package domain

import "time"

// Recommendation is the label derived from a fund's composite score.
type Recommendation string

const (
	StrongBuy  Recommendation = "STRONG_BUY"
	Buy        Recommendation = "BUY"
	Hold       Recommendation = "HOLD"
	Sell       Recommendation = "SELL"
	StrongSell Recommendation = "STRONG_SELL"
)

// Significance labels for validation cohort sample sizes.
const (
	SignificanceInsufficient = "INSUFFICIENT_SAMPLE"
	SignificanceModerate     = "MODERATELY_SIGNIFICANT"
	SignificanceStatistical  = "STATISTICALLY_SIGNIFICANT"
)

// Data quality flags recorded on score records when a metric falls back
// to a neutral contribution instead of failing the whole fund.
const (
	QualityInsufficientHistory = "insufficient_history"
	QualityNoAnnualizedRisk    = "no_annualized_risk"
	QualityMissingBenchmark    = "missing_benchmark"
	QualityEstimatedFundament  = "estimated_fundamentals"
)

// NAVObservation is a single (date, value) point of a fund's NAV series.
// Value is strictly positive; observations are unique per (FundID, Date).
type NAVObservation struct {
	FundID string
	Date   time.Time
	Value  float64
}

// BenchmarkObservation is a single point of a benchmark index series.
type BenchmarkObservation struct {
	Benchmark string
	Date      time.Time
	Value     float64
}

// Fund is an immutable description of a scored fund. Category and
// Subcategory define the peer group used for quartile ranking.
type Fund struct {
	ID            string
	Name          string
	Category      string
	Subcategory   string
	BenchmarkName string
	ExpenseRatio  float64 // annual, as decimal (0.0125 = 1.25%)
	AUMCrore      float64 // assets under management, INR crore; 0 = unknown
}

// RiskMetrics carries the raw risk statistics computed for a fund.
// Nil pointers mean the metric could not be computed from the available
// history (the insufficient-data sentinel, never NaN).
type RiskMetrics struct {
	Volatility1Y *float64
	Volatility3Y *float64
	MaxDrawdown  *float64
	Sharpe       *float64
	Sortino      *float64
	Calmar       *float64
	VaR95        *float64
	UpCapture    *float64
	DownCapture  *float64
}

// ScoreRecord is the result of scoring one fund as of one date.
// One record exists per (FundID, AsOfDate); re-scoring upserts the whole
// record, never patches individual fields.
type ScoreRecord struct {
	FundID            string
	AsOfDate          time.Time
	ReturnsScore      float64 // 0..40
	RiskScore         float64 // 0..30
	FundamentalsScore float64 // 0..30
	TotalScore        float64 // 0..100
	Quartile          int     // 1..4, 0 when the peer group was too small to rank
	SubcatRank        int
	SubcatTotal       int
	Percentile        float64
	Recommendation    Recommendation
	Metrics           RiskMetrics
	DataQuality       []string
}

// PredictionRecord is a ScoreRecord computed with a historical cutoff,
// plus the forward-return fields filled in once the validation horizon
// has elapsed. Forward fields are the only mutable part of the record.
type PredictionRecord struct {
	ScoreRecord
	PredictionDate time.Time
	HorizonMonths  int
	Validated      bool
	ValidationDate *time.Time
	Forward3M      *float64
	Forward6M      *float64
	Forward1Y      *float64
	Accurate       *bool
}

// RecommendationAccuracy aggregates prediction accuracy for one
// recommendation class within a validation cohort.
type RecommendationAccuracy struct {
	Total    int     `json:"total"`
	Accurate int     `json:"accurate"`
	Percent  float64 `json:"percent"`
}

// ValidationSummary aggregates a validated cohort of PredictionRecords
// for one (PredictionDate, ValidationDate) pair.
type ValidationSummary struct {
	PredictionDate    time.Time
	ValidationDate    time.Time
	TotalFunds        int
	Accuracy3M        float64
	Accuracy6M        float64
	Accuracy1Y        float64
	Correlation       float64 // Pearson, total score vs 1y forward return
	QuartileStability float64 // % of funds whose realized quartile matched
	PerRecommendation map[Recommendation]RecommendationAccuracy
	ConfidenceMargin  float64 // 1.96 * sqrt(p(1-p)/n) on 6m accuracy
	Significance      string
}

// RunResult reports the outcome of a batch scoring or baseline run.
// A completed run always reports counts; funds are never dropped silently.
type RunResult struct {
	RunID     string
	AsOfDate  time.Time
	Processed int
	Skipped   int
	Failed    int
	Ranked    int // peer groups ranked
	TooSmall  int // peer groups skipped (< 4 funds)
}
