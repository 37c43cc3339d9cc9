package scoring

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

// Repository persists score records in scores.db
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new score repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("component", "score_repository").Logger(),
	}
}

const scoreColumns = `fund_id, as_of_date, returns_score, risk_score, fundamentals_score,
	total_score, quartile, subcat_rank, subcat_total, percentile, recommendation,
	volatility_1y, volatility_3y, max_drawdown, sharpe, sortino, calmar, var_95,
	up_capture, down_capture, data_quality`

// Upsert writes a complete score record, replacing any previous record
// for the same (fund, as-of date). Records are never patched field-wise.
func (r *Repository) Upsert(ctx context.Context, rec *domain.ScoreRecord) error {
	quality, err := json.Marshal(rec.DataQuality)
	if err != nil {
		return fmt.Errorf("failed to encode data quality flags: %w", err)
	}
	if rec.DataQuality == nil {
		quality = []byte("[]")
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO fund_scores (`+scoreColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.FundID, utils.FormatDate(rec.AsOfDate),
		rec.ReturnsScore, rec.RiskScore, rec.FundamentalsScore, rec.TotalScore,
		rec.Quartile, rec.SubcatRank, rec.SubcatTotal, rec.Percentile,
		string(rec.Recommendation),
		rec.Metrics.Volatility1Y, rec.Metrics.Volatility3Y, rec.Metrics.MaxDrawdown,
		rec.Metrics.Sharpe, rec.Metrics.Sortino, rec.Metrics.Calmar, rec.Metrics.VaR95,
		rec.Metrics.UpCapture, rec.Metrics.DownCapture,
		string(quality),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert score for %s: %w", rec.FundID, err)
	}
	return nil
}

// Get returns one fund's score record, or nil when none exists
func (r *Repository) Get(ctx context.Context, fundID string, asOf time.Time) (*domain.ScoreRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+scoreColumns+" FROM fund_scores WHERE fund_id = ? AND as_of_date = ?",
		fundID, utils.FormatDate(asOf),
	)

	rec, err := scanScore(row)
	if err == sql.ErrNoRows {
		return nil, nil // Not found (not an error)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get score for %s: %w", fundID, err)
	}
	return rec, nil
}

// GetForDate returns every score record for one as-of date
func (r *Repository) GetForDate(ctx context.Context, asOf time.Time) ([]domain.ScoreRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+scoreColumns+" FROM fund_scores WHERE as_of_date = ? ORDER BY fund_id",
		utils.FormatDate(asOf),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query scores for %s: %w", utils.FormatDate(asOf), err)
	}
	defer rows.Close()

	var records []domain.ScoreRecord
	for rows.Next() {
		rec, err := scanScore(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan score row: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanScore(row rowScanner) (*domain.ScoreRecord, error) {
	var rec domain.ScoreRecord
	var asOf, recommendation, quality string

	err := row.Scan(
		&rec.FundID, &asOf,
		&rec.ReturnsScore, &rec.RiskScore, &rec.FundamentalsScore, &rec.TotalScore,
		&rec.Quartile, &rec.SubcatRank, &rec.SubcatTotal, &rec.Percentile,
		&recommendation,
		&rec.Metrics.Volatility1Y, &rec.Metrics.Volatility3Y, &rec.Metrics.MaxDrawdown,
		&rec.Metrics.Sharpe, &rec.Metrics.Sortino, &rec.Metrics.Calmar, &rec.Metrics.VaR95,
		&rec.Metrics.UpCapture, &rec.Metrics.DownCapture,
		&quality,
	)
	if err != nil {
		return nil, err
	}

	rec.AsOfDate, err = utils.ParseDate(asOf)
	if err != nil {
		return nil, fmt.Errorf("invalid as_of_date %q: %w", asOf, err)
	}
	rec.Recommendation = domain.Recommendation(recommendation)

	if err := json.Unmarshal([]byte(quality), &rec.DataQuality); err != nil {
		return nil, fmt.Errorf("invalid data_quality %q: %w", quality, err)
	}
	return &rec, nil
}
