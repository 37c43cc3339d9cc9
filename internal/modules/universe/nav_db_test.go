package universe

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fundscore/internal/domain"
	apptesting "github.com/aristath/fundscore/internal/testing"
	"github.com/aristath/fundscore/internal/utils"
)

func date(s string) time.Time {
	d, err := utils.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestNavDB_SyncAndGetSeries(t *testing.T) {
	db, cleanup := apptesting.NewTestDB(t, "universe")
	defer cleanup()

	navDB := NewNavDB(db.Conn(), zerolog.Nop())
	ctx := context.Background()

	obs := []domain.NAVObservation{
		{FundID: "LC001", Date: date("2024-01-03"), Value: 101.5},
		{FundID: "LC001", Date: date("2024-01-01"), Value: 100.0},
		{FundID: "LC001", Date: date("2024-01-02"), Value: 100.8},
		{FundID: "LC002", Date: date("2024-01-01"), Value: 55.0},
	}
	require.NoError(t, navDB.SyncNavHistory(ctx, obs))

	series, err := navDB.GetSeries(ctx, "LC001", date("2024-12-31"))
	require.NoError(t, err)
	require.Len(t, series, 3)

	// Ascending date order regardless of insert order
	assert.Equal(t, 100.0, series[0].Value)
	assert.Equal(t, 100.8, series[1].Value)
	assert.Equal(t, 101.5, series[2].Value)
}

func TestNavDB_CutoffExcludesLaterObservations(t *testing.T) {
	db, cleanup := apptesting.NewTestDB(t, "universe")
	defer cleanup()

	navDB := NewNavDB(db.Conn(), zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, navDB.SyncNavHistory(ctx, []domain.NAVObservation{
		{FundID: "LC001", Date: date("2024-01-01"), Value: 100},
		{FundID: "LC001", Date: date("2024-06-01"), Value: 110},
		{FundID: "LC001", Date: date("2024-12-01"), Value: 120},
	}))

	series, err := navDB.GetSeries(ctx, "LC001", date("2024-06-01"))
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, 110.0, series[len(series)-1].Value)
}

func TestNavDB_SkipsNonPositiveValues(t *testing.T) {
	db, cleanup := apptesting.NewTestDB(t, "universe")
	defer cleanup()

	navDB := NewNavDB(db.Conn(), zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, navDB.SyncNavHistory(ctx, []domain.NAVObservation{
		{FundID: "LC001", Date: date("2024-01-01"), Value: 100},
		{FundID: "LC001", Date: date("2024-01-02"), Value: 0},
		{FundID: "LC001", Date: date("2024-01-03"), Value: -5},
		{FundID: "LC001", Date: date("2024-01-04"), Value: 103},
	}))

	series, err := navDB.GetSeries(ctx, "LC001", date("2024-12-31"))
	require.NoError(t, err)
	assert.Len(t, series, 2)
}

func TestNavDB_DuplicateDateLastWriteWins(t *testing.T) {
	db, cleanup := apptesting.NewTestDB(t, "universe")
	defer cleanup()

	navDB := NewNavDB(db.Conn(), zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, navDB.SyncNavHistory(ctx, []domain.NAVObservation{
		{FundID: "LC001", Date: date("2024-01-01"), Value: 100},
	}))
	require.NoError(t, navDB.SyncNavHistory(ctx, []domain.NAVObservation{
		{FundID: "LC001", Date: date("2024-01-01"), Value: 101},
	}))

	series, err := navDB.GetSeries(ctx, "LC001", date("2024-12-31"))
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, 101.0, series[0].Value)
}

func TestNavDB_NavAtOrBefore(t *testing.T) {
	db, cleanup := apptesting.NewTestDB(t, "universe")
	defer cleanup()

	navDB := NewNavDB(db.Conn(), zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, navDB.SyncNavHistory(ctx, []domain.NAVObservation{
		{FundID: "LC001", Date: date("2024-01-01"), Value: 100},
		{FundID: "LC001", Date: date("2024-01-10"), Value: 105},
	}))

	// Exact match
	obs, err := navDB.NavAtOrBefore(ctx, "LC001", date("2024-01-10"))
	require.NoError(t, err)
	require.NotNil(t, obs)
	assert.Equal(t, 105.0, obs.Value)

	// Between observations: nearest earlier wins
	obs, err = navDB.NavAtOrBefore(ctx, "LC001", date("2024-01-05"))
	require.NoError(t, err)
	require.NotNil(t, obs)
	assert.Equal(t, 100.0, obs.Value)

	// Before all observations: nil, not an error
	obs, err = navDB.NavAtOrBefore(ctx, "LC001", date("2023-12-31"))
	require.NoError(t, err)
	assert.Nil(t, obs)
}

func TestNavDB_BenchmarkSeries(t *testing.T) {
	db, cleanup := apptesting.NewTestDB(t, "universe")
	defer cleanup()

	navDB := NewNavDB(db.Conn(), zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, navDB.SyncBenchmarkHistory(ctx, []domain.BenchmarkObservation{
		{Benchmark: "NIFTY 100", Date: date("2024-01-01"), Value: 21000},
		{Benchmark: "NIFTY 100", Date: date("2024-01-02"), Value: 21150},
	}))

	series, err := navDB.GetBenchmarkSeries(ctx, "NIFTY 100", date("2024-12-31"))
	require.NoError(t, err)
	assert.Len(t, series, 2)

	// Unknown benchmark is an empty series, not an error
	series, err = navDB.GetBenchmarkSeries(ctx, "SENSEX", date("2024-12-31"))
	require.NoError(t, err)
	assert.Empty(t, series)
}

func TestFundRepository_CRUD(t *testing.T) {
	db, cleanup := apptesting.NewTestDB(t, "universe")
	defer cleanup()

	repo := NewFundRepository(db.Conn(), zerolog.Nop())
	ctx := context.Background()

	for _, f := range apptesting.NewFundFixtures() {
		fund := f
		require.NoError(t, repo.Upsert(ctx, &fund))
	}

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 7)

	largeCap, err := repo.GetBySubcategory(ctx, "Large Cap")
	require.NoError(t, err)
	assert.Len(t, largeCap, 5)

	subcats, err := repo.Subcategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Gilt", "Large Cap"}, subcats)

	fund, err := repo.GetByID(ctx, "LC001")
	require.NoError(t, err)
	require.NotNil(t, fund)
	assert.Equal(t, "Alpha Large Cap Fund", fund.Name)

	missing, err := repo.GetByID(ctx, "NOPE")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
