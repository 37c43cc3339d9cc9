package validation

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

var (
	predictionDate = time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC)
	validationDate = time.Date(2023, 7, 31, 0, 0, 0, 0, time.UTC) // +6 months
)

type validatorFixture struct {
	navs        *apptesting.InMemoryNavRepository
	predictions *Repository
	validator   *Validator
}

func newValidatorFixture(t *testing.T) *validatorFixture {
	t.Helper()

	db, cleanup := apptesting.NewTestDB(t, "scores")
	t.Cleanup(cleanup)

	navs := apptesting.NewInMemoryNavRepository()
	predictions := NewRepository(db.Conn(), zerolog.Nop())
	return &validatorFixture{
		navs:        navs,
		predictions: predictions,
		validator:   NewValidator(predictions, navs, nil, zerolog.Nop()),
	}
}

// addPath stores a NAV of 100 on the prediction date and the given values
// at the 3/6/12-month marks, so forward returns are exact.
func (f *validatorFixture) addPath(fundID string, at3m, at6m, at1y float64) {
	f.navs.AddNavs(
		domain.NAVObservation{FundID: fundID, Date: predictionDate, Value: 100},
		domain.NAVObservation{FundID: fundID, Date: predictionDate.AddDate(0, 3, 0), Value: at3m},
		domain.NAVObservation{FundID: fundID, Date: predictionDate.AddDate(0, 6, 0), Value: at6m},
		domain.NAVObservation{FundID: fundID, Date: predictionDate.AddDate(1, 0, 0), Value: at1y},
	)
}

func (f *validatorFixture) addPrediction(t *testing.T, fundID string, score float64, quartile int, rec domain.Recommendation) {
	t.Helper()
	err := f.predictions.UpsertPrediction(context.Background(), &domain.PredictionRecord{
		ScoreRecord: domain.ScoreRecord{
			FundID:         fundID,
			AsOfDate:       predictionDate,
			TotalScore:     score,
			Quartile:       quartile,
			SubcatRank:     quartile,
			SubcatTotal:    4,
			Recommendation: rec,
		},
		PredictionDate: predictionDate,
		HorizonMonths:  6,
	})
	require.NoError(t, err)
}

// seedCohort builds a four-fund cohort where every prediction except the
// SELL one turns out accurate at 6 months.
func seedCohort(t *testing.T, f *validatorFixture) {
	f.addPrediction(t, "F001", 75, 1, domain.StrongBuy)
	f.addPath("F001", 108, 118, 140) // +8%, +18%, +40%

	f.addPrediction(t, "F002", 62, 2, domain.Buy)
	f.addPath("F002", 105, 110, 120) // +5%, +10%, +20%

	f.addPrediction(t, "F003", 52, 3, domain.Hold)
	f.addPath("F003", 100, 102, 104) // 0%, +2%, +4%

	f.addPrediction(t, "F004", 40, 4, domain.Sell)
	f.addPath("F004", 101, 108, 102) // +1%, +8% (misses the <5% band), +2%
}

func TestValidate_Cohort(t *testing.T) {
	f := newValidatorFixture(t)
	seedCohort(t, f)
	ctx := context.Background()

	summary, err := f.validator.Validate(ctx, predictionDate, validationDate, false)
	require.NoError(t, err)

	assert.Equal(t, 4, summary.TotalFunds)
	assert.Equal(t, 100.0, summary.Accuracy3M)
	assert.Equal(t, 75.0, summary.Accuracy6M) // F004 missed its band
	assert.Equal(t, 100.0, summary.Accuracy1Y)
	assert.Equal(t, domain.SignificanceInsufficient, summary.Significance)

	// Higher-scored funds realized higher forward returns.
	assert.Greater(t, summary.Correlation, 0.8)

	// Realized 1y ordering matches predicted quartiles exactly.
	assert.Equal(t, 100.0, summary.QuartileStability)

	// 1.96 * sqrt(0.75 * 0.25 / 4)
	assert.InDelta(t, 0.4244, summary.ConfidenceMargin, 0.001)

	perRec := summary.PerRecommendation
	assert.Equal(t, domain.RecommendationAccuracy{Total: 1, Accurate: 1, Percent: 100}, perRec[domain.StrongBuy])
	assert.Equal(t, domain.RecommendationAccuracy{Total: 1, Accurate: 0, Percent: 0}, perRec[domain.Sell])
}

func TestValidate_MarksRecords(t *testing.T) {
	f := newValidatorFixture(t)
	seedCohort(t, f)
	ctx := context.Background()

	_, err := f.validator.Validate(ctx, predictionDate, validationDate, false)
	require.NoError(t, err)

	rec, err := f.predictions.GetPrediction(ctx, "F001", predictionDate)
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.True(t, rec.Validated)
	require.NotNil(t, rec.ValidationDate)
	assert.Equal(t, validationDate, *rec.ValidationDate)
	require.NotNil(t, rec.Forward6M)
	assert.InDelta(t, 0.18, *rec.Forward6M, 1e-9)
	require.NotNil(t, rec.Accurate)
	assert.True(t, *rec.Accurate)

	sell, err := f.predictions.GetPrediction(ctx, "F004", predictionDate)
	require.NoError(t, err)
	require.NotNil(t, sell.Accurate)
	assert.False(t, *sell.Accurate)
}

func TestValidate_WriteOnceUnlessForced(t *testing.T) {
	f := newValidatorFixture(t)
	seedCohort(t, f)
	ctx := context.Background()

	first, err := f.validator.Validate(ctx, predictionDate, validationDate, false)
	require.NoError(t, err)

	// Rewrite F004 as a HOLD, whose band its +8% does satisfy. An
	// unforced re-run must still return the stored summary untouched.
	f.addPrediction(t, "F004", 52, 4, domain.Hold)

	second, err := f.validator.Validate(ctx, predictionDate, validationDate, false)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// A forced re-run recomputes from current records and overwrites.
	forced, err := f.validator.Validate(ctx, predictionDate, validationDate, true)
	require.NoError(t, err)
	assert.Equal(t, 100.0, forced.Accuracy6M)
	assert.NotEqual(t, first.Accuracy6M, forced.Accuracy6M)
}

func TestValidate_FundWithoutForwardDataExcluded(t *testing.T) {
	f := newValidatorFixture(t)
	seedCohort(t, f)
	ctx := context.Background()

	// F005's NAV history stops before the validation date.
	f.addPrediction(t, "F005", 55, 0, domain.Hold)
	f.navs.AddNavs(
		domain.NAVObservation{FundID: "F005", Date: predictionDate, Value: 100},
		domain.NAVObservation{FundID: "F005", Date: predictionDate.AddDate(0, 2, 0), Value: 104},
	)

	summary, err := f.validator.Validate(ctx, predictionDate, validationDate, false)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.TotalFunds)

	rec, err := f.predictions.GetPrediction(ctx, "F005", predictionDate)
	require.NoError(t, err)
	assert.False(t, rec.Validated, "stays pending until data reaches the validation date")
}

func TestValidate_NoCohort(t *testing.T) {
	f := newValidatorFixture(t)

	_, err := f.validator.Validate(context.Background(), predictionDate, validationDate, false)
	assert.ErrorIs(t, err, ErrNoCohort)
}

func TestSweepDue(t *testing.T) {
	f := newValidatorFixture(t)
	seedCohort(t, f)
	ctx := context.Background()

	// Horizon elapsed: the sweep picks the cohort up.
	count, err := f.validator.SweepDue(ctx, validationDate.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	summary, err := f.predictions.GetSummary(ctx, predictionDate, validationDate)
	require.NoError(t, err)
	assert.NotNil(t, summary)
}

func TestSweepDue_HorizonNotElapsed(t *testing.T) {
	f := newValidatorFixture(t)
	seedCohort(t, f)

	count, err := f.validator.SweepDue(context.Background(), predictionDate.AddDate(0, 3, 0))
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestPendingCohorts(t *testing.T) {
	f := newValidatorFixture(t)
	seedCohort(t, f)
	ctx := context.Background()

	keys, err := f.predictions.PendingCohorts(ctx, validationDate)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, predictionDate, keys[0].PredictionDate)
	assert.Equal(t, 6, keys[0].HorizonMonths)

	// Once validated, the cohort leaves the pending set.
	_, err = f.validator.Validate(ctx, predictionDate, validationDate, false)
	require.NoError(t, err)

	keys, err = f.predictions.PendingCohorts(ctx, validationDate)
	require.NoError(t, err)
	assert.Empty(t, keys)
}
