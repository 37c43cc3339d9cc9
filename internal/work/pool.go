// Package work provides the bounded-concurrency worker pool used by batch
// scoring and baseline generation. Funds are embarrassingly parallel up to
// the ranking barrier, so the pool simply fans fund IDs out to N workers
// and aggregates per-fund outcomes.
package work

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrSkipped marks a fund that was deliberately not processed (e.g. too
// little history to pass the observation gate). Skips are counted
// separately from failures.
var ErrSkipped = errors.New("skipped")

// Task processes a single fund. Returning ErrSkipped (possibly wrapped)
// counts as a skip; any other error counts as a failure for that fund
// only and never aborts the batch.
type Task func(ctx context.Context, fundID string) error

// Outcome aggregates per-fund results of a pool run.
type Outcome struct {
	RunID     string
	Processed int
	Skipped   int
	Failed    int
	// Errors holds the failure per fund ID, for the run report.
	Errors map[string]error
}

// Pool is a bounded worker pool over fund IDs.
type Pool struct {
	workers int
	log     zerolog.Logger
}

// NewPool creates a pool with the given number of workers (minimum 1).
func NewPool(workers int, log zerolog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		workers: workers,
		log:     log.With().Str("component", "work_pool").Logger(),
	}
}

// Run executes task for every fund ID with bounded concurrency.
//
// Cancellation is honored between funds: when ctx is cancelled, queued
// fund IDs are abandoned but in-flight tasks finish, so partially-written
// state is always a complete per-fund upsert.
func (p *Pool) Run(ctx context.Context, fundIDs []string, task Task) Outcome {
	out := Outcome{
		RunID:  uuid.NewString(),
		Errors: make(map[string]error),
	}

	queue := make(chan string)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for fundID := range queue {
				err := task(ctx, fundID)

				mu.Lock()
				switch {
				case err == nil:
					out.Processed++
				case errors.Is(err, ErrSkipped):
					out.Skipped++
				default:
					out.Failed++
					out.Errors[fundID] = err
					p.log.Error().Err(err).Str("fund_id", fundID).Msg("Fund processing failed")
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for _, fundID := range fundIDs {
		select {
		case <-ctx.Done():
			break feed
		case queue <- fundID:
		}
	}
	close(queue)
	wg.Wait()

	p.log.Info().
		Str("run_id", out.RunID).
		Int("processed", out.Processed).
		Int("skipped", out.Skipped).
		Int("failed", out.Failed).
		Msg("Pool run finished")
	return out
}
