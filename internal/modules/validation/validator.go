package validation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/fundscore/internal/domain"
	"github.com/aristath/fundscore/internal/events"
	"github.com/aristath/fundscore/internal/modules/scoring"
	"github.com/aristath/fundscore/internal/utils"
	"github.com/aristath/fundscore/pkg/formulas"
)

// ErrNoCohort is returned when a prediction date has no stored cohort.
var ErrNoCohort = errors.New("no prediction cohort for date")

// Forward-return horizons graded by the validator, in months.
var horizons = []int{3, 6, 12}

// Validator grades prediction cohorts against realized forward returns
// once the validation horizon has elapsed.
type Validator struct {
	predictions domain.PredictionRepository
	navs        domain.NavRepository
	bus         *events.Bus
	log         zerolog.Logger
}

// NewValidator creates a validator. The bus may be nil.
func NewValidator(
	predictions domain.PredictionRepository,
	navs domain.NavRepository,
	bus *events.Bus,
	log zerolog.Logger,
) *Validator {
	return &Validator{
		predictions: predictions,
		navs:        navs,
		bus:         bus,
		log:         log.With().Str("component", "validator").Logger(),
	}
}

// Validate grades the cohort predicted on predictionDate against NAV data
// up to validationDate and persists a ValidationSummary. A cohort whose
// (prediction date, validation date) pair already has a summary is not
// re-validated unless force is set; a forced re-run overwrites.
func (v *Validator) Validate(ctx context.Context, predictionDate, validationDate time.Time, force bool) (*domain.ValidationSummary, error) {
	if !force {
		existing, err := v.predictions.GetSummary(ctx, predictionDate, validationDate)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			v.log.Debug().
				Str("prediction_date", utils.FormatDate(predictionDate)).
				Msg("Cohort already validated")
			return existing, nil
		}
	}

	cohort, err := v.predictions.GetCohort(ctx, predictionDate)
	if err != nil {
		return nil, err
	}
	if len(cohort) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoCohort, utils.FormatDate(predictionDate))
	}

	var validated []domain.PredictionRecord
	for i := range cohort {
		rec := &cohort[i]
		ok, err := v.validateRecord(ctx, rec, validationDate)
		if err != nil {
			v.log.Error().Err(err).Str("fund_id", rec.FundID).Msg("Failed to validate prediction")
			continue
		}
		if ok {
			validated = append(validated, *rec)
		}
	}

	summary := v.summarize(predictionDate, validationDate, validated)
	if err := v.predictions.SaveSummary(ctx, summary); err != nil {
		return nil, err
	}

	v.bus.Publish(events.Event{
		Type:      events.ValidationCompleted,
		AsOfDate:  utils.FormatDate(predictionDate),
		Processed: summary.TotalFunds,
		Skipped:   len(cohort) - summary.TotalFunds,
	})

	v.log.Info().
		Str("prediction_date", utils.FormatDate(predictionDate)).
		Str("validation_date", utils.FormatDate(validationDate)).
		Int("funds", summary.TotalFunds).
		Float64("accuracy_6m", summary.Accuracy6M).
		Float64("correlation", summary.Correlation).
		Str("significance", summary.Significance).
		Msg("Validation completed")
	return summary, nil
}

// SweepDue validates every pending cohort whose horizon has elapsed.
// Returns the number of cohorts validated.
func (v *Validator) SweepDue(ctx context.Context, now time.Time) (int, error) {
	keys, err := v.predictions.PendingCohorts(ctx, now)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, key := range keys {
		validationDate := utils.AddMonths(key.PredictionDate, key.HorizonMonths)
		if _, err := v.Validate(ctx, key.PredictionDate, validationDate, false); err != nil {
			v.log.Error().Err(err).
				Str("prediction_date", utils.FormatDate(key.PredictionDate)).
				Msg("Failed to validate due cohort")
			continue
		}
		count++
	}
	return count, nil
}

// validateRecord fills in realized forward returns for one prediction.
// Returns false when the fund has no NAV data reaching the validation
// date yet; the record then stays unvalidated for a later sweep.
func (v *Validator) validateRecord(ctx context.Context, rec *domain.PredictionRecord, validationDate time.Time) (bool, error) {
	latest, err := v.navs.LatestDate(ctx, rec.FundID)
	if err != nil {
		return false, err
	}
	if latest == nil || latest.Before(validationDate) {
		return false, nil
	}

	base, err := v.navs.NavAtOrBefore(ctx, rec.FundID, rec.PredictionDate)
	if err != nil {
		return false, err
	}
	if base == nil || base.Value <= 0 {
		return false, nil
	}

	forwards := make(map[int]*float64, len(horizons))
	for _, months := range horizons {
		target := utils.AddMonths(rec.PredictionDate, months)
		nav, err := v.navs.NavAtOrBefore(ctx, rec.FundID, target)
		if err != nil {
			return false, err
		}
		// The nearest NAV at or before the target must postdate the
		// prediction, otherwise it is just the base observation again.
		if nav == nil || !nav.Date.After(rec.PredictionDate) {
			continue
		}
		r := (nav.Value - base.Value) / base.Value
		forwards[months] = &r
	}

	rec.Forward3M = forwards[3]
	rec.Forward6M = forwards[6]
	rec.Forward1Y = forwards[12]
	rec.Validated = true
	rec.ValidationDate = &validationDate

	if rec.Forward6M != nil {
		accurate := scoring.MeetsExpectation(rec.Recommendation, *rec.Forward6M)
		rec.Accurate = &accurate
	}

	return true, v.predictions.MarkValidated(ctx, rec)
}

// summarize aggregates a validated cohort into a ValidationSummary.
// Recomputable idempotently from the stored prediction records.
func (v *Validator) summarize(predictionDate, validationDate time.Time, validated []domain.PredictionRecord) *domain.ValidationSummary {
	s := &domain.ValidationSummary{
		PredictionDate:    predictionDate,
		ValidationDate:    validationDate,
		TotalFunds:        len(validated),
		PerRecommendation: make(map[domain.Recommendation]domain.RecommendationAccuracy),
		Significance:      significanceFor(len(validated)),
	}
	if len(validated) == 0 {
		return s
	}

	s.Accuracy3M = horizonAccuracy(validated, 3, func(r domain.PredictionRecord) *float64 { return r.Forward3M })
	s.Accuracy6M = horizonAccuracy(validated, 6, func(r domain.PredictionRecord) *float64 { return r.Forward6M })
	s.Accuracy1Y = horizonAccuracy(validated, 12, func(r domain.PredictionRecord) *float64 { return r.Forward1Y })

	// Per-recommendation accuracy at the canonical 6-month horizon.
	for _, rec := range validated {
		if rec.Forward6M == nil {
			continue
		}
		acc := s.PerRecommendation[rec.Recommendation]
		acc.Total++
		if scoring.MeetsExpectation(rec.Recommendation, *rec.Forward6M) {
			acc.Accurate++
		}
		s.PerRecommendation[rec.Recommendation] = acc
	}
	graded := 0
	for label, acc := range s.PerRecommendation {
		acc.Percent = round1(float64(acc.Accurate) / float64(acc.Total) * 100)
		s.PerRecommendation[label] = acc
		graded += acc.Total
	}

	// Pearson correlation between predicted score and 1-year forward
	// return, over funds with a full year of realized data.
	var scores, forwards []float64
	for _, rec := range validated {
		if rec.Forward1Y == nil {
			continue
		}
		scores = append(scores, rec.TotalScore)
		forwards = append(forwards, *rec.Forward1Y)
	}
	if len(scores) >= 2 {
		s.Correlation = formulas.Correlation(scores, forwards)
	}

	s.QuartileStability = quartileStability(validated)

	if graded > 0 {
		p := s.Accuracy6M / 100
		s.ConfidenceMargin = 1.96 * math.Sqrt(p*(1-p)/float64(graded))
	}
	return s
}

// horizonAccuracy is the percentage of predictions whose realized return
// at the horizon met the recommendation's expectation band.
func horizonAccuracy(validated []domain.PredictionRecord, months int, forward func(domain.PredictionRecord) *float64) float64 {
	accurate, graded := 0, 0
	for _, rec := range validated {
		f := forward(rec)
		if f == nil {
			continue
		}
		graded++
		if scoring.MeetsExpectationAt(rec.Recommendation, months, *f) {
			accurate++
		}
	}
	if graded == 0 {
		return 0
	}
	return round1(float64(accurate) / float64(graded) * 100)
}

// quartileStability is the percentage of funds whose realized 1-year
// forward-return quartile within the cohort matched their predicted
// quartile.
func quartileStability(validated []domain.PredictionRecord) float64 {
	type entry struct {
		fundID    string
		predicted int
		forward   float64
	}

	var entries []entry
	for _, rec := range validated {
		if rec.Forward1Y == nil || rec.Quartile == 0 {
			continue
		}
		entries = append(entries, entry{rec.FundID, rec.Quartile, *rec.Forward1Y})
	}
	if len(entries) < scoring.MinPeerGroupSize {
		return 0
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].forward != entries[j].forward {
			return entries[i].forward > entries[j].forward
		}
		return entries[i].fundID < entries[j].fundID
	})

	stable := 0
	for i, e := range entries {
		if scoring.QuartileOf(i+1, len(entries)) == e.predicted {
			stable++
		}
	}
	return round1(float64(stable) / float64(len(entries)) * 100)
}

func significanceFor(n int) string {
	switch {
	case n < 100:
		return domain.SignificanceInsufficient
	case n < 1000:
		return domain.SignificanceModerate
	default:
		return domain.SignificanceStatistical
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
