package validation

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fundscore/internal/domain"
	"github.com/aristath/fundscore/internal/modules/scoring"
	apptesting "github.com/aristath/fundscore/internal/testing"
	"github.com/aristath/fundscore/internal/work"
)

var baselineDate = time.Date(2023, 6, 30, 0, 0, 0, 0, time.UTC)

type baselineFixture struct {
	navs        *apptesting.InMemoryNavRepository
	predictions *Repository
	baseline    *Baseline
}

func newBaselineFixture(t *testing.T) *baselineFixture {
	t.Helper()

	funds := apptesting.NewInMemoryFundRepository(apptesting.NewFundFixtures()...)
	navs := apptesting.NewInMemoryNavRepository()
	scores := apptesting.NewInMemoryScoreRepository()

	growth := map[string]float64{
		"LC001": 0.22, "LC002": 0.18, "LC003": 0.14, "LC004": 0.09, "LC005": 0.16,
		"GL001": 0.07,
	}
	for fundID, g := range growth {
		navs.AddNavs(apptesting.NavSeries(fundID, baselineDate, 730, g, 0.004)...)
	}
	// GL002 has too little history as of the baseline date.
	navs.AddNavs(apptesting.NavSeries("GL002", baselineDate, 30, 0.07, 0.001)...)
	navs.AddBenchmarks(apptesting.BenchmarkSeries("NIFTY 100", baselineDate, 730, 0.13, 0.004)...)
	navs.AddBenchmarks(apptesting.BenchmarkSeries("CRISIL Gilt", baselineDate, 730, 0.06, 0.001)...)

	db, cleanup := apptesting.NewTestDB(t, "scores")
	t.Cleanup(cleanup)
	predictions := NewRepository(db.Conn(), zerolog.Nop())

	pool := work.NewPool(4, zerolog.Nop())
	scorer := scoring.NewService(funds, navs, scores, pool, nil, nil, zerolog.Nop())
	baseline := NewBaseline(funds, scorer, predictions, pool, nil, zerolog.Nop())

	return &baselineFixture{navs: navs, predictions: predictions, baseline: baseline}
}

func TestBaselineCreate(t *testing.T) {
	f := newBaselineFixture(t)
	ctx := context.Background()

	result, err := f.baseline.Create(ctx, baselineDate, 6)
	require.NoError(t, err)

	assert.Equal(t, 6, result.Processed)
	assert.Equal(t, 1, result.Skipped) // GL002 fails the observation gate
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 1, result.Ranked)
	assert.Equal(t, 1, result.TooSmall)

	cohort, err := f.predictions.GetCohort(ctx, baselineDate)
	require.NoError(t, err)
	require.Len(t, cohort, 6)

	for _, rec := range cohort {
		assert.Equal(t, 6, rec.HorizonMonths)
		assert.False(t, rec.Validated, "fresh predictions start unvalidated")
		assert.Nil(t, rec.Forward6M)
		if rec.FundID != "GL001" {
			assert.NotZero(t, rec.Quartile, "large caps are ranked")
			assert.Equal(t, 5, rec.SubcatTotal)
		}
	}
}

func TestBaselineCreate_NoLookahead(t *testing.T) {
	f := newBaselineFixture(t)
	ctx := context.Background()

	_, err := f.baseline.Create(ctx, baselineDate, 6)
	require.NoError(t, err)
	before, err := f.predictions.GetCohort(ctx, baselineDate)
	require.NoError(t, err)

	// A huge rally after the baseline date must not change any stored
	// prediction when the baseline is regenerated.
	futureEnd := baselineDate.AddDate(1, 0, 0)
	for _, id := range []string{"LC001", "LC002", "LC003", "LC004", "LC005", "GL001"} {
		f.navs.AddNavs(apptesting.NavSeries(id, futureEnd, 200, 0.90, 0.002)...)
	}
	f.navs.AddBenchmarks(apptesting.BenchmarkSeries("NIFTY 100", futureEnd, 200, 0.70, 0.002)...)

	_, err = f.baseline.Create(ctx, baselineDate, 6)
	require.NoError(t, err)
	after, err := f.predictions.GetCohort(ctx, baselineDate)
	require.NoError(t, err)

	assert.Equal(t, before, after, "observations after the cutoff must not influence predictions")
}

func TestBaselineCreate_Idempotent(t *testing.T) {
	f := newBaselineFixture(t)
	ctx := context.Background()

	first, err := f.baseline.Create(ctx, baselineDate, 6)
	require.NoError(t, err)
	second, err := f.baseline.Create(ctx, baselineDate, 6)
	require.NoError(t, err)

	assert.Equal(t, first.Processed, second.Processed)

	cohort, err := f.predictions.GetCohort(ctx, baselineDate)
	require.NoError(t, err)
	assert.Len(t, cohort, 6, "re-running overwrites, never duplicates")
}

func TestBaselineCreate_InvalidHorizon(t *testing.T) {
	f := newBaselineFixture(t)

	_, err := f.baseline.Create(context.Background(), baselineDate, 0)
	assert.Error(t, err)
}

var _ domain.PredictionRepository = (*Repository)(nil)
