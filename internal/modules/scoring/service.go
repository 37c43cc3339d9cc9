package scoring

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/fundscore/internal/cache"
	"github.com/aristath/fundscore/internal/domain"
	"github.com/aristath/fundscore/internal/events"
	"github.com/aristath/fundscore/internal/utils"
	"github.com/aristath/fundscore/internal/work"
	"github.com/aristath/fundscore/pkg/formulas"
)

// ErrUnknownFund is returned when a fund ID is not in the universe.
var ErrUnknownFund = errors.New("unknown fund")

// ErrInsufficientHistory is returned when a fund's NAV history is too
// short to score at all.
var ErrInsufficientHistory = errors.New("insufficient NAV history")

// Service orchestrates scoring runs: per-fund computation through the
// worker pool, then per-peer-group ranking once every fund in the group
// is scored.
type Service struct {
	funds  domain.FundRepository
	navs   domain.NavRepository
	scores domain.ScoreRepository
	pool   *work.Pool
	bus    *events.Bus
	cache  *cache.Cache
	log    zerolog.Logger
}

// NewService creates a scoring service. The bus and cache may be nil.
func NewService(
	funds domain.FundRepository,
	navs domain.NavRepository,
	scores domain.ScoreRepository,
	pool *work.Pool,
	bus *events.Bus,
	c *cache.Cache,
	log zerolog.Logger,
) *Service {
	return &Service{
		funds:  funds,
		navs:   navs,
		scores: scores,
		pool:   pool,
		bus:    bus,
		cache:  c,
		log:    log.With().Str("component", "scoring_service").Logger(),
	}
}

// ComputeRecord scores one fund as of a date without persisting the
// result. The NAV store only returns observations dated at or before
// asOf, so the same path serves live scoring and point-in-time baselines.
func (s *Service) ComputeRecord(ctx context.Context, fund domain.Fund, asOf time.Time) (*domain.ScoreRecord, error) {
	series, err := s.navSeries(ctx, fund.ID, asOf)
	if err != nil {
		return nil, err
	}
	if len(series) < MinObsShort {
		return nil, ErrInsufficientHistory
	}

	bench := s.benchmarkSeries(ctx, fund.BenchmarkName, asOf)
	return Compute(fund, series, bench, asOf), nil
}

// ScoreFund scores and persists one fund. The record is stored unranked;
// run RankSubcategory afterwards to restore quartile and percentile for
// the fund's peer group.
func (s *Service) ScoreFund(ctx context.Context, fundID string, asOf time.Time) (*domain.ScoreRecord, error) {
	fund, err := s.funds.GetByID(ctx, fundID)
	if err != nil {
		return nil, fmt.Errorf("failed to load fund %s: %w", fundID, err)
	}
	if fund == nil {
		return nil, ErrUnknownFund
	}

	rec, err := s.ComputeRecord(ctx, *fund, asOf)
	if err != nil {
		return nil, err
	}

	if err := s.scores.Upsert(ctx, rec); err != nil {
		return nil, err
	}
	s.cache.Set(cache.ClassScore, cache.Key(fundID, asOf), rec)

	s.bus.Publish(events.Event{
		Type:     events.FundScored,
		FundID:   fundID,
		AsOfDate: utils.FormatDate(asOf),
	})
	return rec, nil
}

// GetScore returns a stored score record, read through the cache.
func (s *Service) GetScore(ctx context.Context, fundID string, asOf time.Time) (*domain.ScoreRecord, error) {
	key := cache.Key(fundID, asOf)

	var cached domain.ScoreRecord
	if s.cache.Get(cache.ClassScore, key, &cached) {
		return &cached, nil
	}

	rec, err := s.scores.Get(ctx, fundID, asOf)
	if err != nil || rec == nil {
		return rec, err
	}
	s.cache.Set(cache.ClassScore, key, rec)
	return rec, nil
}

// ScoreAll runs the full pipeline for one as-of date: every fund is
// scored through the worker pool, then each peer group is ranked and the
// ranked records re-persisted. Only a failure to read the fund universe
// aborts the run; per-fund failures are isolated and counted.
func (s *Service) ScoreAll(ctx context.Context, asOf time.Time) (*domain.RunResult, error) {
	defer utils.OperationTimer("score_all", s.log)()

	funds, err := s.funds.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load fund universe: %w", err)
	}

	fundsByID := make(map[string]domain.Fund, len(funds))
	fundIDs := make([]string, 0, len(funds))
	for _, f := range funds {
		fundsByID[f.ID] = f
		fundIDs = append(fundIDs, f.ID)
	}

	s.bus.Publish(events.Event{
		Type:     events.RunStarted,
		AsOfDate: utils.FormatDate(asOf),
		Message:  fmt.Sprintf("scoring %d funds", len(funds)),
	})

	// Per-fund stage. Scored records are collected per peer group so the
	// ranking pass can run once every member is in.
	var mu sync.Mutex
	groups := make(map[string][]*domain.ScoreRecord)

	outcome := s.pool.Run(ctx, fundIDs, func(ctx context.Context, fundID string) error {
		fund := fundsByID[fundID]

		rec, err := s.ComputeRecord(ctx, fund, asOf)
		if errors.Is(err, ErrInsufficientHistory) {
			s.bus.Publish(events.Event{Type: events.FundSkipped, FundID: fundID})
			return work.ErrSkipped
		}
		if err != nil {
			return err
		}

		if err := s.scores.Upsert(ctx, rec); err != nil {
			return err
		}

		mu.Lock()
		groups[fund.Subcategory] = append(groups[fund.Subcategory], rec)
		mu.Unlock()

		s.bus.Publish(events.Event{Type: events.FundScored, FundID: fundID})
		return nil
	})

	result := &domain.RunResult{
		RunID:     outcome.RunID,
		AsOfDate:  asOf,
		Processed: outcome.Processed,
		Skipped:   outcome.Skipped,
		Failed:    outcome.Failed,
	}

	// Ranking barrier: all per-fund scores for a group are in before
	// quartiles are assigned.
	for subcat, records := range groups {
		if !RankPeerGroup(records) {
			result.TooSmall++
			s.log.Info().Str("subcategory", subcat).Int("funds", len(records)).
				Msg("Peer group too small to rank")
			continue
		}
		result.Ranked++

		for _, rec := range records {
			if err := s.scores.Upsert(ctx, rec); err != nil {
				s.log.Error().Err(err).Str("fund_id", rec.FundID).
					Msg("Failed to persist ranked score")
				result.Failed++
				continue
			}
			s.cache.Set(cache.ClassScore, cache.Key(rec.FundID, asOf), rec)
		}
	}

	s.bus.Publish(events.Event{
		Type:      events.RunCompleted,
		RunID:     outcome.RunID,
		AsOfDate:  utils.FormatDate(asOf),
		Processed: result.Processed,
		Skipped:   result.Skipped,
		Failed:    result.Failed,
	})

	s.log.Info().
		Str("run_id", outcome.RunID).
		Str("as_of", utils.FormatDate(asOf)).
		Int("processed", result.Processed).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Int("ranked_groups", result.Ranked).
		Int("small_groups", result.TooSmall).
		Msg("Scoring run completed")
	return result, nil
}

// RankSubcategory re-ranks one subcategory from its stored records for a
// date and persists the result. Returns the group size; too-small groups
// return an error naming the size they needed.
func (s *Service) RankSubcategory(ctx context.Context, subcategory string, asOf time.Time) (int, error) {
	funds, err := s.funds.GetBySubcategory(ctx, subcategory)
	if err != nil {
		return 0, fmt.Errorf("failed to load peer group %s: %w", subcategory, err)
	}

	var records []*domain.ScoreRecord
	for _, f := range funds {
		rec, err := s.scores.Get(ctx, f.ID, asOf)
		if err != nil {
			return 0, err
		}
		if rec != nil {
			records = append(records, rec)
		}
	}

	if !RankPeerGroup(records) {
		return len(records), fmt.Errorf("peer group %s has %d scored funds, need %d",
			subcategory, len(records), MinPeerGroupSize)
	}

	for _, rec := range records {
		if err := s.scores.Upsert(ctx, rec); err != nil {
			return len(records), err
		}
		s.cache.Set(cache.ClassScore, cache.Key(rec.FundID, asOf), rec)
	}
	return len(records), nil
}

func (s *Service) navSeries(ctx context.Context, fundID string, cutoff time.Time) ([]formulas.NavPoint, error) {
	obs, err := s.navs.GetSeries(ctx, fundID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to load NAV series for %s: %w", fundID, err)
	}
	series := make([]formulas.NavPoint, len(obs))
	for i, o := range obs {
		series[i] = formulas.NavPoint{Date: o.Date, Value: o.Value}
	}
	return series, nil
}

// benchmarkSeries tolerates a missing or unreadable benchmark: capture
// ratios then fall back to their neutral default instead of failing the
// fund.
func (s *Service) benchmarkSeries(ctx context.Context, benchmark string, cutoff time.Time) []formulas.NavPoint {
	if benchmark == "" {
		return nil
	}
	obs, err := s.navs.GetBenchmarkSeries(ctx, benchmark, cutoff)
	if err != nil {
		s.log.Warn().Err(err).Str("benchmark", benchmark).Msg("Failed to load benchmark series")
		return nil
	}
	series := make([]formulas.NavPoint, len(obs))
	for i, o := range obs {
		series[i] = formulas.NavPoint{Date: o.Date, Value: o.Value}
	}
	return series
}
