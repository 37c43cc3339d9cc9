package scoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fundscore/internal/domain"
	apptesting "github.com/aristath/fundscore/internal/testing"
	"github.com/aristath/fundscore/internal/work"
)

var testAsOf = time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

type serviceFixture struct {
	funds  *apptesting.InMemoryFundRepository
	navs   *apptesting.InMemoryNavRepository
	scores *apptesting.InMemoryScoreRepository
	svc    *Service
}

// newServiceFixture wires a service over in-memory stores: five large-cap
// funds with two years of history, two gilt funds where only one has
// enough history to score.
func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	funds := apptesting.NewInMemoryFundRepository(apptesting.NewFundFixtures()...)
	navs := apptesting.NewInMemoryNavRepository()
	scores := apptesting.NewInMemoryScoreRepository()

	growth := map[string]float64{
		"LC001": 0.22, "LC002": 0.18, "LC003": 0.14, "LC004": 0.09, "LC005": 0.16,
		"GL001": 0.07,
	}
	for fundID, g := range growth {
		navs.AddNavs(apptesting.NavSeries(fundID, testAsOf, 730, g, 0.004)...)
	}
	// GL002 has a month of history: below the scoring gate.
	navs.AddNavs(apptesting.NavSeries("GL002", testAsOf, 30, 0.07, 0.001)...)

	navs.AddBenchmarks(apptesting.BenchmarkSeries("NIFTY 100", testAsOf, 730, 0.13, 0.004)...)
	navs.AddBenchmarks(apptesting.BenchmarkSeries("CRISIL Gilt", testAsOf, 730, 0.06, 0.001)...)

	svc := NewService(funds, navs, scores, work.NewPool(4, zerolog.Nop()), nil, nil, zerolog.Nop())
	return &serviceFixture{funds: funds, navs: navs, scores: scores, svc: svc}
}

func TestScoreAll_CountsAndRanking(t *testing.T) {
	f := newServiceFixture(t)

	result, err := f.svc.ScoreAll(context.Background(), testAsOf)
	require.NoError(t, err)

	assert.Equal(t, 6, result.Processed)
	assert.Equal(t, 1, result.Skipped) // GL002, one month of history
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 1, result.Ranked)   // Large Cap
	assert.Equal(t, 1, result.TooSmall) // Gilt has a single scored fund
	assert.NotEmpty(t, result.RunID)

	// Every large-cap record carries its peer-group rank.
	records, err := f.scores.GetForDate(context.Background(), testAsOf)
	require.NoError(t, err)

	quartiles := map[int]int{}
	for _, rec := range records {
		if rec.FundID == "GL001" {
			assert.Equal(t, 0, rec.Quartile, "unrankable group stays unranked")
			continue
		}
		assert.Equal(t, 5, rec.SubcatTotal)
		assert.NotZero(t, rec.SubcatRank)
		quartiles[rec.Quartile]++
	}
	assert.Len(t, quartiles, 4, "five funds span all four quartiles")
}

func TestScoreAll_HigherGrowthRanksHigher(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.ScoreAll(context.Background(), testAsOf)
	require.NoError(t, err)

	best, err := f.scores.Get(context.Background(), "LC001", testAsOf)
	require.NoError(t, err)
	worst, err := f.scores.Get(context.Background(), "LC004", testAsOf)
	require.NoError(t, err)

	assert.Greater(t, best.TotalScore, worst.TotalScore)
	assert.LessOrEqual(t, best.Quartile, worst.Quartile)
}

func TestScoreAll_PersistenceFailureIsolated(t *testing.T) {
	f := newServiceFixture(t)
	f.scores.FailFundIDs["LC003"] = errors.New("disk full")

	result, err := f.svc.ScoreAll(context.Background(), testAsOf)
	require.NoError(t, err, "per-fund persistence failures must not abort the run")

	assert.Equal(t, 5, result.Processed)
	assert.GreaterOrEqual(t, result.Failed, 1)

	rec, err := f.scores.Get(context.Background(), "LC001", testAsOf)
	require.NoError(t, err)
	assert.NotNil(t, rec, "other funds still stored")
}

func TestScoreAll_Idempotent(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.ScoreAll(ctx, testAsOf)
	require.NoError(t, err)
	first, err := f.scores.GetForDate(ctx, testAsOf)
	require.NoError(t, err)

	_, err = f.svc.ScoreAll(ctx, testAsOf)
	require.NoError(t, err)
	second, err := f.scores.GetForDate(ctx, testAsOf)
	require.NoError(t, err)

	assert.Equal(t, first, second, "re-running the same date overwrites, never duplicates or drifts")
	assert.Equal(t, f.scores.Count(), len(first))
}

func TestScoreFund_NoLookahead(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	cutoff := testAsOf.AddDate(0, -6, 0)

	before, err := f.svc.ScoreFund(ctx, "LC001", cutoff)
	require.NoError(t, err)

	// A later rally must not change the record computed as of the cutoff.
	f.navs.AddNavs(apptesting.NavSeries("LC001", testAsOf.AddDate(1, 0, 0), 200, 0.80, 0.002)...)

	after, err := f.svc.ScoreFund(ctx, "LC001", cutoff)
	require.NoError(t, err)

	assert.Equal(t, before, after)
}

func TestScoreFund_UnknownFund(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.ScoreFund(context.Background(), "NOPE", testAsOf)
	assert.ErrorIs(t, err, ErrUnknownFund)
}

func TestScoreFund_InsufficientHistory(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.ScoreFund(context.Background(), "GL002", testAsOf)
	assert.ErrorIs(t, err, ErrInsufficientHistory)
}

func TestRankSubcategory(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	for _, id := range []string{"LC001", "LC002", "LC003", "LC004", "LC005"} {
		_, err := f.svc.ScoreFund(ctx, id, testAsOf)
		require.NoError(t, err)
	}

	size, err := f.svc.RankSubcategory(ctx, "Large Cap", testAsOf)
	require.NoError(t, err)
	assert.Equal(t, 5, size)

	rec, err := f.scores.Get(ctx, "LC001", testAsOf)
	require.NoError(t, err)
	assert.NotZero(t, rec.Quartile)
}

func TestRankSubcategory_TooSmall(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.ScoreFund(ctx, "GL001", testAsOf)
	require.NoError(t, err)

	_, err = f.svc.RankSubcategory(ctx, "Gilt", testAsOf)
	assert.Error(t, err)
}

func TestGetScore_ReadsStoredRecord(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	scored, err := f.svc.ScoreFund(ctx, "LC001", testAsOf)
	require.NoError(t, err)

	got, err := f.svc.GetScore(ctx, "LC001", testAsOf)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, scored.TotalScore, got.TotalScore)

	missing, err := f.svc.GetScore(ctx, "LC001", testAsOf.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestScoreAll_Cancellation(t *testing.T) {
	f := newServiceFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := f.svc.ScoreAll(ctx, testAsOf)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Processed, "cancelled run processes nothing")
	assert.Equal(t, 0, f.scores.Count(), "no partial state written")
}

var _ domain.ScoreRepository = (*apptesting.InMemoryScoreRepository)(nil)
