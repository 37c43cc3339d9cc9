package domain

import (
	"context"
	"time"
)

// FundRepository provides access to the fund universe.
type FundRepository interface {
	GetAll(ctx context.Context) ([]Fund, error)
	GetByID(ctx context.Context, id string) (*Fund, error)
	GetBySubcategory(ctx context.Context, subcategory string) ([]Fund, error)
	Subcategories(ctx context.Context) ([]string, error)
}

// NavRepository provides access to fund NAV and benchmark series.
// Series are returned in ascending date order. The cutoff variants are
// the only way scoring code reads history: observations after the cutoff
// are filtered in the store, so point-in-time runs cannot see them.
type NavRepository interface {
	GetSeries(ctx context.Context, fundID string, cutoff time.Time) ([]NAVObservation, error)
	GetBenchmarkSeries(ctx context.Context, benchmark string, cutoff time.Time) ([]BenchmarkObservation, error)
	// NavAtOrBefore returns the latest observation dated at or before target,
	// or nil when the fund has no observation that early.
	NavAtOrBefore(ctx context.Context, fundID string, target time.Time) (*NAVObservation, error)
	// LatestDate returns the most recent observation date for a fund.
	LatestDate(ctx context.Context, fundID string) (*time.Time, error)
}

// ScoreRepository persists score records, keyed by (fund, as-of date).
type ScoreRepository interface {
	Upsert(ctx context.Context, rec *ScoreRecord) error
	Get(ctx context.Context, fundID string, asOf time.Time) (*ScoreRecord, error)
	GetForDate(ctx context.Context, asOf time.Time) ([]ScoreRecord, error)
}

// PredictionRepository persists point-in-time prediction records and
// validation summaries.
type PredictionRepository interface {
	UpsertPrediction(ctx context.Context, rec *PredictionRecord) error
	GetPrediction(ctx context.Context, fundID string, predictionDate time.Time) (*PredictionRecord, error)
	GetCohort(ctx context.Context, predictionDate time.Time) ([]PredictionRecord, error)
	MarkValidated(ctx context.Context, rec *PredictionRecord) error
	// PendingCohorts lists (predictionDate, horizonMonths) pairs with
	// unvalidated predictions whose horizon elapses at or before now.
	PendingCohorts(ctx context.Context, now time.Time) ([]CohortKey, error)
	SaveSummary(ctx context.Context, s *ValidationSummary) error
	GetSummary(ctx context.Context, predictionDate, validationDate time.Time) (*ValidationSummary, error)
	ListSummaries(ctx context.Context) ([]ValidationSummary, error)
}

// CohortKey identifies a baseline cohort awaiting validation.
type CohortKey struct {
	PredictionDate time.Time
	HorizonMonths  int
}
