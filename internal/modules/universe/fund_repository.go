// Package universe provides access to the fund universe and its NAV and
// benchmark history. It is the NAV Series Provider and Fund Provider that
// the scoring and validation pipelines consume.
package universe

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/fundscore/internal/domain"
)

// FundRepository provides access to the fund universe
type FundRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewFundRepository creates a new fund repository
func NewFundRepository(db *sql.DB, log zerolog.Logger) *FundRepository {
	return &FundRepository{
		db:  db,
		log: log.With().Str("component", "fund_repository").Logger(),
	}
}

const fundColumns = "id, name, category, subcategory, benchmark_name, expense_ratio, aum_crore"

// GetAll returns every fund in the universe
func (r *FundRepository) GetAll(ctx context.Context) ([]domain.Fund, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+fundColumns+" FROM funds ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query funds: %w", err)
	}
	defer rows.Close()

	return scanFunds(rows)
}

// GetByID returns a single fund, or nil when it does not exist
func (r *FundRepository) GetByID(ctx context.Context, id string) (*domain.Fund, error) {
	var f domain.Fund
	err := r.db.QueryRowContext(ctx,
		"SELECT "+fundColumns+" FROM funds WHERE id = ?", id,
	).Scan(&f.ID, &f.Name, &f.Category, &f.Subcategory, &f.BenchmarkName, &f.ExpenseRatio, &f.AUMCrore)

	if err == sql.ErrNoRows {
		return nil, nil // Not found (not an error)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fund %s: %w", id, err)
	}
	return &f, nil
}

// GetBySubcategory returns all funds in one peer group
func (r *FundRepository) GetBySubcategory(ctx context.Context, subcategory string) ([]domain.Fund, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+fundColumns+" FROM funds WHERE subcategory = ? ORDER BY id", subcategory)
	if err != nil {
		return nil, fmt.Errorf("failed to query funds for subcategory %s: %w", subcategory, err)
	}
	defer rows.Close()

	return scanFunds(rows)
}

// Subcategories returns the distinct peer groups in the universe
func (r *FundRepository) Subcategories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT DISTINCT subcategory FROM funds ORDER BY subcategory")
	if err != nil {
		return nil, fmt.Errorf("failed to query subcategories: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan subcategory: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subcategories: %w", err)
	}
	return out, nil
}

// Upsert inserts or replaces a fund
func (r *FundRepository) Upsert(ctx context.Context, f *domain.Fund) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO funds
		(id, name, category, subcategory, benchmark_name, expense_ratio, aum_crore)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, f.ID, f.Name, f.Category, f.Subcategory, f.BenchmarkName, f.ExpenseRatio, f.AUMCrore)
	if err != nil {
		return fmt.Errorf("failed to upsert fund %s: %w", f.ID, err)
	}
	return nil
}

func scanFunds(rows *sql.Rows) ([]domain.Fund, error) {
	var funds []domain.Fund
	for rows.Next() {
		var f domain.Fund
		err := rows.Scan(&f.ID, &f.Name, &f.Category, &f.Subcategory, &f.BenchmarkName, &f.ExpenseRatio, &f.AUMCrore)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fund: %w", err)
		}
		funds = append(funds, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating funds: %w", err)
	}
	return funds, nil
}
