package scoring

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fundscore/internal/domain"
	apptesting "github.com/aristath/fundscore/internal/testing"
)

func newRepo(t *testing.T) *Repository {
	t.Helper()
	db, cleanup := apptesting.NewTestDB(t, "scores")
	t.Cleanup(cleanup)
	return NewRepository(db.Conn(), zerolog.Nop())
}

func sampleRecord(fundID string, asOf time.Time) *domain.ScoreRecord {
	vol := 0.142
	sharpe := 1.21
	return &domain.ScoreRecord{
		FundID:            fundID,
		AsOfDate:          asOf,
		ReturnsScore:      31.0,
		RiskScore:         24.5,
		FundamentalsScore: 22.0,
		TotalScore:        77.5,
		Quartile:          1,
		SubcatRank:        2,
		SubcatTotal:       14,
		Percentile:        92.9,
		Recommendation:    domain.StrongBuy,
		Metrics: domain.RiskMetrics{
			Volatility1Y: &vol,
			Sharpe:       &sharpe,
		},
		DataQuality: []string{domain.QualityMissingBenchmark},
	}
}

func TestScoreRepository_UpsertAndGet(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	asOf := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Upsert(ctx, sampleRecord("LC001", asOf)))

	got, err := repo.Get(ctx, "LC001", asOf)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, 77.5, got.TotalScore)
	assert.Equal(t, 1, got.Quartile)
	assert.Equal(t, domain.StrongBuy, got.Recommendation)
	assert.Equal(t, asOf, got.AsOfDate)
	require.NotNil(t, got.Metrics.Volatility1Y)
	assert.Equal(t, 0.142, *got.Metrics.Volatility1Y)
	assert.Nil(t, got.Metrics.Volatility3Y)
	assert.Equal(t, []string{domain.QualityMissingBenchmark}, got.DataQuality)
}

func TestScoreRepository_GetMissing(t *testing.T) {
	repo := newRepo(t)

	got, err := repo.Get(context.Background(), "NOPE", time.Now())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestScoreRepository_UpsertOverwrites(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	asOf := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Upsert(ctx, sampleRecord("LC001", asOf)))

	updated := sampleRecord("LC001", asOf)
	updated.TotalScore = 61.0
	updated.Recommendation = domain.Buy
	require.NoError(t, repo.Upsert(ctx, updated))

	got, err := repo.Get(ctx, "LC001", asOf)
	require.NoError(t, err)
	assert.Equal(t, 61.0, got.TotalScore)
	assert.Equal(t, domain.Buy, got.Recommendation)

	all, err := repo.GetForDate(ctx, asOf)
	require.NoError(t, err)
	assert.Len(t, all, 1, "upsert replaces, never duplicates")
}

func TestScoreRepository_GetForDate(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	asOf := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Upsert(ctx, sampleRecord("LC002", asOf)))
	require.NoError(t, repo.Upsert(ctx, sampleRecord("LC001", asOf)))
	require.NoError(t, repo.Upsert(ctx, sampleRecord("LC001", asOf.AddDate(0, 1, 0))))

	records, err := repo.GetForDate(ctx, asOf)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "LC001", records[0].FundID, "ordered by fund ID")
	assert.Equal(t, "LC002", records[1].FundID)
}

func TestScoreRepository_NilQualityStoredAsEmpty(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	asOf := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	rec := sampleRecord("LC001", asOf)
	rec.DataQuality = nil
	require.NoError(t, repo.Upsert(ctx, rec))

	got, err := repo.Get(ctx, "LC001", asOf)
	require.NoError(t, err)
	assert.Empty(t, got.DataQuality)
}
