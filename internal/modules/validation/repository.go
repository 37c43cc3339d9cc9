// Package validation implements point-in-time baseline generation and
// forward performance validation: historical scores computed with a
// cutoff, later graded against realized forward returns.
package validation

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/fundscore/internal/domain"
	"github.com/aristath/fundscore/internal/utils"
)

// Repository persists prediction records and validation summaries in
// scores.db
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new prediction repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("component", "prediction_repository").Logger(),
	}
}

const predictionColumns = `fund_id, prediction_date, horizon_months,
	returns_score, risk_score, fundamentals_score, total_score,
	quartile, subcat_rank, subcat_total, percentile, recommendation,
	data_quality, validated, validation_date, forward_3m, forward_6m,
	forward_1y, accurate`

// UpsertPrediction writes a complete prediction record, replacing any
// previous record for the same (fund, prediction date). Re-running a
// baseline for a date is idempotent.
func (r *Repository) UpsertPrediction(ctx context.Context, rec *domain.PredictionRecord) error {
	quality, err := json.Marshal(rec.DataQuality)
	if err != nil {
		return fmt.Errorf("failed to encode data quality flags: %w", err)
	}
	if rec.DataQuality == nil {
		quality = []byte("[]")
	}

	var validationDate *string
	if rec.ValidationDate != nil {
		d := utils.FormatDate(*rec.ValidationDate)
		validationDate = &d
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO predictions (`+predictionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.FundID, utils.FormatDate(rec.PredictionDate), rec.HorizonMonths,
		rec.ReturnsScore, rec.RiskScore, rec.FundamentalsScore, rec.TotalScore,
		rec.Quartile, rec.SubcatRank, rec.SubcatTotal, rec.Percentile,
		string(rec.Recommendation), string(quality),
		rec.Validated, validationDate,
		rec.Forward3M, rec.Forward6M, rec.Forward1Y, rec.Accurate,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert prediction for %s: %w", rec.FundID, err)
	}
	return nil
}

// GetPrediction returns one prediction record, or nil when none exists
func (r *Repository) GetPrediction(ctx context.Context, fundID string, predictionDate time.Time) (*domain.PredictionRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+predictionColumns+" FROM predictions WHERE fund_id = ? AND prediction_date = ?",
		fundID, utils.FormatDate(predictionDate),
	)

	rec, err := scanPrediction(row)
	if err == sql.ErrNoRows {
		return nil, nil // Not found (not an error)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prediction for %s: %w", fundID, err)
	}
	return rec, nil
}

// GetCohort returns every prediction record for one prediction date
func (r *Repository) GetCohort(ctx context.Context, predictionDate time.Time) ([]domain.PredictionRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+predictionColumns+" FROM predictions WHERE prediction_date = ? ORDER BY fund_id",
		utils.FormatDate(predictionDate),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query cohort %s: %w", utils.FormatDate(predictionDate), err)
	}
	defer rows.Close()

	var cohort []domain.PredictionRecord
	for rows.Next() {
		rec, err := scanPrediction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prediction row: %w", err)
		}
		cohort = append(cohort, *rec)
	}
	return cohort, rows.Err()
}

// MarkValidated writes the forward-return and accuracy fields of one
// prediction. These are the only fields mutated after creation.
func (r *Repository) MarkValidated(ctx context.Context, rec *domain.PredictionRecord) error {
	if rec.ValidationDate == nil {
		return fmt.Errorf("prediction for %s has no validation date", rec.FundID)
	}

	_, err := r.db.ExecContext(ctx, `
		UPDATE predictions
		SET validated = 1, validation_date = ?, forward_3m = ?, forward_6m = ?,
		    forward_1y = ?, accurate = ?
		WHERE fund_id = ? AND prediction_date = ?`,
		utils.FormatDate(*rec.ValidationDate),
		rec.Forward3M, rec.Forward6M, rec.Forward1Y, rec.Accurate,
		rec.FundID, utils.FormatDate(rec.PredictionDate),
	)
	if err != nil {
		return fmt.Errorf("failed to mark prediction validated for %s: %w", rec.FundID, err)
	}
	return nil
}

// PendingCohorts lists (prediction date, horizon) pairs that still hold
// unvalidated predictions whose horizon elapses at or before now.
func (r *Repository) PendingCohorts(ctx context.Context, now time.Time) ([]domain.CohortKey, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT prediction_date, horizon_months
		FROM predictions
		WHERE validated = 0
		ORDER BY prediction_date`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending cohorts: %w", err)
	}
	defer rows.Close()

	var keys []domain.CohortKey
	for rows.Next() {
		var date string
		var horizon int
		if err := rows.Scan(&date, &horizon); err != nil {
			return nil, fmt.Errorf("failed to scan cohort row: %w", err)
		}

		predictionDate, err := utils.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("invalid prediction_date %q: %w", date, err)
		}
		if utils.AddMonths(predictionDate, horizon).After(now) {
			continue
		}
		keys = append(keys, domain.CohortKey{PredictionDate: predictionDate, HorizonMonths: horizon})
	}
	return keys, rows.Err()
}

// SaveSummary persists a validation summary, overwriting any previous
// summary for the same (prediction date, validation date) pair.
func (r *Repository) SaveSummary(ctx context.Context, s *domain.ValidationSummary) error {
	perRec, err := json.Marshal(s.PerRecommendation)
	if err != nil {
		return fmt.Errorf("failed to encode per-recommendation accuracy: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO validation_summaries
			(prediction_date, validation_date, total_funds, accuracy_3m,
			 accuracy_6m, accuracy_1y, correlation, quartile_stability,
			 per_recommendation, confidence_margin, significance)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		utils.FormatDate(s.PredictionDate), utils.FormatDate(s.ValidationDate),
		s.TotalFunds, s.Accuracy3M, s.Accuracy6M, s.Accuracy1Y,
		s.Correlation, s.QuartileStability, string(perRec),
		s.ConfidenceMargin, s.Significance,
	)
	if err != nil {
		return fmt.Errorf("failed to save validation summary: %w", err)
	}
	return nil
}

// GetSummary returns one validation summary, or nil when none exists
func (r *Repository) GetSummary(ctx context.Context, predictionDate, validationDate time.Time) (*domain.ValidationSummary, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT prediction_date, validation_date, total_funds, accuracy_3m,
		       accuracy_6m, accuracy_1y, correlation, quartile_stability,
		       per_recommendation, confidence_margin, significance
		FROM validation_summaries
		WHERE prediction_date = ? AND validation_date = ?`,
		utils.FormatDate(predictionDate), utils.FormatDate(validationDate),
	)

	s, err := scanSummary(row)
	if err == sql.ErrNoRows {
		return nil, nil // Not found (not an error)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get validation summary: %w", err)
	}
	return s, nil
}

// ListSummaries returns all validation summaries, newest first
func (r *Repository) ListSummaries(ctx context.Context) ([]domain.ValidationSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT prediction_date, validation_date, total_funds, accuracy_3m,
		       accuracy_6m, accuracy_1y, correlation, quartile_stability,
		       per_recommendation, confidence_margin, significance
		FROM validation_summaries
		ORDER BY prediction_date DESC, validation_date DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list validation summaries: %w", err)
	}
	defer rows.Close()

	var summaries []domain.ValidationSummary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan summary row: %w", err)
		}
		summaries = append(summaries, *s)
	}
	return summaries, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPrediction(row rowScanner) (*domain.PredictionRecord, error) {
	var rec domain.PredictionRecord
	var predictionDate, recommendation, quality string
	var validationDate *string

	err := row.Scan(
		&rec.FundID, &predictionDate, &rec.HorizonMonths,
		&rec.ReturnsScore, &rec.RiskScore, &rec.FundamentalsScore, &rec.TotalScore,
		&rec.Quartile, &rec.SubcatRank, &rec.SubcatTotal, &rec.Percentile,
		&recommendation, &quality,
		&rec.Validated, &validationDate,
		&rec.Forward3M, &rec.Forward6M, &rec.Forward1Y, &rec.Accurate,
	)
	if err != nil {
		return nil, err
	}

	rec.PredictionDate, err = utils.ParseDate(predictionDate)
	if err != nil {
		return nil, fmt.Errorf("invalid prediction_date %q: %w", predictionDate, err)
	}
	rec.AsOfDate = rec.PredictionDate
	rec.Recommendation = domain.Recommendation(recommendation)

	if validationDate != nil {
		d, err := utils.ParseDate(*validationDate)
		if err != nil {
			return nil, fmt.Errorf("invalid validation_date %q: %w", *validationDate, err)
		}
		rec.ValidationDate = &d
	}

	if err := json.Unmarshal([]byte(quality), &rec.DataQuality); err != nil {
		return nil, fmt.Errorf("invalid data_quality %q: %w", quality, err)
	}
	return &rec, nil
}

func scanSummary(row rowScanner) (*domain.ValidationSummary, error) {
	var s domain.ValidationSummary
	var predictionDate, validationDate, perRec string

	err := row.Scan(
		&predictionDate, &validationDate, &s.TotalFunds,
		&s.Accuracy3M, &s.Accuracy6M, &s.Accuracy1Y,
		&s.Correlation, &s.QuartileStability, &perRec,
		&s.ConfidenceMargin, &s.Significance,
	)
	if err != nil {
		return nil, err
	}

	s.PredictionDate, err = utils.ParseDate(predictionDate)
	if err != nil {
		return nil, fmt.Errorf("invalid prediction_date %q: %w", predictionDate, err)
	}
	s.ValidationDate, err = utils.ParseDate(validationDate)
	if err != nil {
		return nil, fmt.Errorf("invalid validation_date %q: %w", validationDate, err)
	}

	if err := json.Unmarshal([]byte(perRec), &s.PerRecommendation); err != nil {
		return nil, fmt.Errorf("invalid per_recommendation %q: %w", perRec, err)
	}
	return &s, nil
}
