package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/fundscore/internal/cache"
	"github.com/aristath/fundscore/internal/modules/scoring"
	"github.com/aristath/fundscore/internal/modules/validation"
	"github.com/aristath/fundscore/internal/utils"
)

// ScoringJob runs the full scoring pipeline for the current date.
type ScoringJob struct {
	service *scoring.Service
	log     zerolog.Logger
}

// NewScoringJob creates the nightly scoring job
func NewScoringJob(service *scoring.Service, log zerolog.Logger) *ScoringJob {
	return &ScoringJob{
		service: service,
		log:     log.With().Str("job", "scoring").Logger(),
	}
}

// Name implements Job
func (j *ScoringJob) Name() string { return "scoring_run" }

// Run scores the whole universe as of today
func (j *ScoringJob) Run() error {
	asOf := utils.Midnight(time.Now().UTC())

	result, err := j.service.ScoreAll(context.Background(), asOf)
	if err != nil {
		return err
	}

	j.log.Info().
		Int("processed", result.Processed).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("Nightly scoring finished")
	return nil
}

// ValidationSweepJob validates every baseline cohort whose horizon has
// elapsed.
type ValidationSweepJob struct {
	validator *validation.Validator
	log       zerolog.Logger
}

// NewValidationSweepJob creates the daily validation sweep job
func NewValidationSweepJob(validator *validation.Validator, log zerolog.Logger) *ValidationSweepJob {
	return &ValidationSweepJob{
		validator: validator,
		log:       log.With().Str("job", "validation_sweep").Logger(),
	}
}

// Name implements Job
func (j *ValidationSweepJob) Name() string { return "validation_sweep" }

// Run validates all due cohorts
func (j *ValidationSweepJob) Run() error {
	count, err := j.validator.SweepDue(context.Background(), time.Now().UTC())
	if err != nil {
		return err
	}
	if count > 0 {
		j.log.Info().Int("cohorts", count).Msg("Validated due cohorts")
	}
	return nil
}

// CachePurgeJob evicts expired cache entries.
type CachePurgeJob struct {
	cache *cache.Cache
	log   zerolog.Logger
}

// NewCachePurgeJob creates the hourly cache purge job
func NewCachePurgeJob(c *cache.Cache, log zerolog.Logger) *CachePurgeJob {
	return &CachePurgeJob{
		cache: c,
		log:   log.With().Str("job", "cache_purge").Logger(),
	}
}

// Name implements Job
func (j *CachePurgeJob) Name() string { return "cache_purge" }

// Run purges expired entries
func (j *CachePurgeJob) Run() error {
	if removed := j.cache.Purge(); removed > 0 {
		j.log.Debug().Int("removed", removed).Msg("Purged expired cache entries")
	}
	return nil
}
