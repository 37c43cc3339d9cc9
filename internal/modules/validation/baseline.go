package validation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/fundscore/internal/domain"
	"github.com/aristath/fundscore/internal/events"
	"github.com/aristath/fundscore/internal/modules/scoring"
	"github.com/aristath/fundscore/internal/utils"
	"github.com/aristath/fundscore/internal/work"
)

// Baseline generates point-in-time prediction cohorts: the scoring
// pipeline run as of a historical date, over only the observations that
// existed then, persisted for later forward validation.
type Baseline struct {
	funds       domain.FundRepository
	scorer      *scoring.Service
	predictions domain.PredictionRepository
	pool        *work.Pool
	bus         *events.Bus
	log         zerolog.Logger
}

// NewBaseline creates a baseline generator. The bus may be nil.
func NewBaseline(
	funds domain.FundRepository,
	scorer *scoring.Service,
	predictions domain.PredictionRepository,
	pool *work.Pool,
	bus *events.Bus,
	log zerolog.Logger,
) *Baseline {
	return &Baseline{
		funds:       funds,
		scorer:      scorer,
		predictions: predictions,
		pool:        pool,
		bus:         bus,
		log:         log.With().Str("component", "baseline").Logger(),
	}
}

// Create scores every fund as of asOf using only observations dated at or
// before it, ranks peer groups, and stores one unvalidated prediction per
// fund. Funds without enough history as of the date are excluded, not
// scored with defaults. Re-running the same date overwrites in place.
func (b *Baseline) Create(ctx context.Context, asOf time.Time, horizonMonths int) (*domain.RunResult, error) {
	if horizonMonths <= 0 {
		return nil, fmt.Errorf("invalid validation horizon: %d months", horizonMonths)
	}
	defer utils.OperationTimer("baseline_create", b.log)()

	funds, err := b.funds.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load fund universe: %w", err)
	}

	fundsByID := make(map[string]domain.Fund, len(funds))
	fundIDs := make([]string, 0, len(funds))
	for _, f := range funds {
		fundsByID[f.ID] = f
		fundIDs = append(fundIDs, f.ID)
	}

	var mu sync.Mutex
	groups := make(map[string][]*domain.ScoreRecord)
	records := make(map[string]*domain.PredictionRecord)

	outcome := b.pool.Run(ctx, fundIDs, func(ctx context.Context, fundID string) error {
		fund := fundsByID[fundID]

		score, err := b.scorer.ComputeRecord(ctx, fund, asOf)
		if errors.Is(err, scoring.ErrInsufficientHistory) {
			return work.ErrSkipped
		}
		if err != nil {
			return err
		}

		rec := &domain.PredictionRecord{
			ScoreRecord:    *score,
			PredictionDate: asOf,
			HorizonMonths:  horizonMonths,
		}

		mu.Lock()
		groups[fund.Subcategory] = append(groups[fund.Subcategory], &rec.ScoreRecord)
		records[fundID] = rec
		mu.Unlock()
		return nil
	})

	result := &domain.RunResult{
		RunID:     outcome.RunID,
		AsOfDate:  asOf,
		Processed: outcome.Processed,
		Skipped:   outcome.Skipped,
		Failed:    outcome.Failed,
	}

	// Rank each peer group before persisting, so stored predictions
	// carry the quartile their recommendation was derived from.
	for subcat, group := range groups {
		if !scoring.RankPeerGroup(group) {
			result.TooSmall++
			b.log.Info().Str("subcategory", subcat).Int("funds", len(group)).
				Msg("Peer group too small to rank in baseline")
			continue
		}
		result.Ranked++
	}

	for fundID, rec := range records {
		if err := b.predictions.UpsertPrediction(ctx, rec); err != nil {
			b.log.Error().Err(err).Str("fund_id", fundID).Msg("Failed to persist prediction")
			result.Failed++
			result.Processed--
		}
	}

	b.bus.Publish(events.Event{
		Type:      events.BaselineCreated,
		RunID:     outcome.RunID,
		AsOfDate:  utils.FormatDate(asOf),
		Processed: result.Processed,
		Skipped:   result.Skipped,
		Failed:    result.Failed,
	})

	b.log.Info().
		Str("run_id", outcome.RunID).
		Str("as_of", utils.FormatDate(asOf)).
		Int("horizon_months", horizonMonths).
		Int("predictions", result.Processed).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("Baseline created")
	return result, nil
}
