package universe

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/fundscore/internal/database"
	"github.com/aristath/fundscore/internal/domain"
	"github.com/aristath/fundscore/internal/utils"
)

// NavDB provides access to fund NAV and benchmark index history.
//
// All series reads take an explicit cutoff date and filter in SQL; this is
// what makes point-in-time scoring structurally incapable of lookahead.
type NavDB struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewNavDB creates a new NAV history accessor
func NewNavDB(db *sql.DB, log zerolog.Logger) *NavDB {
	return &NavDB{
		db:  db,
		log: log.With().Str("component", "nav_db").Logger(),
	}
}

// GetSeries fetches a fund's NAV series up to and including the cutoff
// date, ascending by date. Non-positive values are filtered by the schema
// CHECK constraint on write; the read path trusts the store.
func (n *NavDB) GetSeries(ctx context.Context, fundID string, cutoff time.Time) ([]domain.NAVObservation, error) {
	rows, err := n.db.QueryContext(ctx, `
		SELECT date, nav
		FROM nav_history
		WHERE fund_id = ? AND date <= ?
		ORDER BY date ASC
	`, fundID, utils.FormatDate(cutoff))
	if err != nil {
		return nil, fmt.Errorf("failed to query NAV series for %s: %w", fundID, err)
	}
	defer rows.Close()

	var series []domain.NAVObservation
	for rows.Next() {
		var dateStr string
		var nav float64
		if err := rows.Scan(&dateStr, &nav); err != nil {
			return nil, fmt.Errorf("failed to scan NAV observation: %w", err)
		}

		date, err := utils.ParseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("corrupt date in nav_history for %s: %w", fundID, err)
		}
		series = append(series, domain.NAVObservation{FundID: fundID, Date: date, Value: nav})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating NAV series: %w", err)
	}
	return series, nil
}

// GetBenchmarkSeries fetches a benchmark index series up to the cutoff date
func (n *NavDB) GetBenchmarkSeries(ctx context.Context, benchmark string, cutoff time.Time) ([]domain.BenchmarkObservation, error) {
	rows, err := n.db.QueryContext(ctx, `
		SELECT date, value
		FROM benchmark_history
		WHERE benchmark = ? AND date <= ?
		ORDER BY date ASC
	`, benchmark, utils.FormatDate(cutoff))
	if err != nil {
		return nil, fmt.Errorf("failed to query benchmark series for %s: %w", benchmark, err)
	}
	defer rows.Close()

	var series []domain.BenchmarkObservation
	for rows.Next() {
		var dateStr string
		var value float64
		if err := rows.Scan(&dateStr, &value); err != nil {
			return nil, fmt.Errorf("failed to scan benchmark observation: %w", err)
		}

		date, err := utils.ParseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("corrupt date in benchmark_history for %s: %w", benchmark, err)
		}
		series = append(series, domain.BenchmarkObservation{Benchmark: benchmark, Date: date, Value: value})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating benchmark series: %w", err)
	}
	return series, nil
}

// NavAtOrBefore returns the latest observation dated at or before target,
// or nil when none exists. Used for forward-return lookups where the exact
// target date may fall on a holiday.
func (n *NavDB) NavAtOrBefore(ctx context.Context, fundID string, target time.Time) (*domain.NAVObservation, error) {
	var dateStr string
	var nav float64
	err := n.db.QueryRowContext(ctx, `
		SELECT date, nav
		FROM nav_history
		WHERE fund_id = ? AND date <= ?
		ORDER BY date DESC
		LIMIT 1
	`, fundID, utils.FormatDate(target)).Scan(&dateStr, &nav)

	if err == sql.ErrNoRows {
		return nil, nil // Not found (not an error)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get NAV at or before %s for %s: %w", utils.FormatDate(target), fundID, err)
	}

	date, err := utils.ParseDate(dateStr)
	if err != nil {
		return nil, fmt.Errorf("corrupt date in nav_history for %s: %w", fundID, err)
	}
	return &domain.NAVObservation{FundID: fundID, Date: date, Value: nav}, nil
}

// LatestDate returns the most recent observation date for a fund,
// or nil when the fund has no history.
func (n *NavDB) LatestDate(ctx context.Context, fundID string) (*time.Time, error) {
	var dateStr string
	err := n.db.QueryRowContext(ctx,
		"SELECT MAX(date) FROM nav_history WHERE fund_id = ?", fundID,
	).Scan(&dateStr)

	if err == sql.ErrNoRows || dateStr == "" {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest NAV date for %s: %w", fundID, err)
	}

	date, err := utils.ParseDate(dateStr)
	if err != nil {
		return nil, err
	}
	return &date, nil
}

// SyncNavHistory writes a batch of NAV observations in a single
// transaction. Duplicate (fund, date) pairs are last-write-wins; values
// that are not strictly positive are skipped and logged, never fatal.
func (n *NavDB) SyncNavHistory(ctx context.Context, observations []domain.NAVObservation) error {
	skipped := 0
	err := database.WithTransaction(n.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT OR REPLACE INTO nav_history (fund_id, date, nav)
			VALUES (?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, obs := range observations {
			if obs.Value <= 0 {
				skipped++
				n.log.Debug().
					Str("fund_id", obs.FundID).
					Str("date", utils.FormatDate(obs.Date)).
					Float64("nav", obs.Value).
					Msg("Skipped non-positive NAV observation")
				continue
			}
			if _, err := stmt.ExecContext(ctx, obs.FundID, utils.FormatDate(obs.Date), obs.Value); err != nil {
				return fmt.Errorf("failed to insert NAV for %s on %s: %w", obs.FundID, utils.FormatDate(obs.Date), err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	n.log.Info().
		Int("count", len(observations)-skipped).
		Int("skipped", skipped).
		Msg("Synced NAV history")
	return nil
}

// SyncBenchmarkHistory writes a batch of benchmark observations in a
// single transaction, with the same invalid-value handling as NAV sync.
func (n *NavDB) SyncBenchmarkHistory(ctx context.Context, observations []domain.BenchmarkObservation) error {
	skipped := 0
	err := database.WithTransaction(n.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT OR REPLACE INTO benchmark_history (benchmark, date, value)
			VALUES (?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, obs := range observations {
			if obs.Value <= 0 {
				skipped++
				continue
			}
			if _, err := stmt.ExecContext(ctx, obs.Benchmark, utils.FormatDate(obs.Date), obs.Value); err != nil {
				return fmt.Errorf("failed to insert benchmark value for %s on %s: %w", obs.Benchmark, utils.FormatDate(obs.Date), err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	n.log.Info().
		Int("count", len(observations)-skipped).
		Int("skipped", skipped).
		Msg("Synced benchmark history")
	return nil
}
