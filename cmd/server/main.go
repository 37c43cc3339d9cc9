// Package main is the entry point for the fund scoring engine. The
// service scores a mutual fund universe against its peer groups, serves
// the results over HTTP, and runs point-in-time baseline and validation
// jobs on a cron schedule.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/fundscore/internal/cache"
	"github.com/aristath/fundscore/internal/config"
	"github.com/aristath/fundscore/internal/database"
	"github.com/aristath/fundscore/internal/events"
	"github.com/aristath/fundscore/internal/modules/scoring"
	"github.com/aristath/fundscore/internal/modules/universe"
	"github.com/aristath/fundscore/internal/modules/validation"
	"github.com/aristath/fundscore/internal/scheduler"
	"github.com/aristath/fundscore/internal/server"
	"github.com/aristath/fundscore/internal/work"
	"github.com/aristath/fundscore/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Str("data_dir", cfg.DataDir).Msg("Starting fundscore")

	// Two-database layout: the fund universe and its NAV history live in
	// universe.db, score records and validation artifacts in scores.db.
	universeDB, err := database.New(database.Config{
		Path:    cfg.DatabasePath("universe"),
		Profile: database.ProfileStandard,
		Name:    "universe",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open universe database")
	}
	defer universeDB.Close()

	scoresDB, err := database.New(database.Config{
		Path:    cfg.DatabasePath("scores"),
		Profile: database.ProfileStandard,
		Name:    "scores",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open scores database")
	}
	defer scoresDB.Close()

	for _, db := range []*database.DB{universeDB, scoresDB} {
		if err := db.Migrate(); err != nil {
			log.Fatal().Err(err).Str("database", db.Name()).Msg("Failed to migrate database")
		}
	}

	// Repositories
	funds := universe.NewFundRepository(universeDB.Conn(), log)
	navs := universe.NewNavDB(universeDB.Conn(), log)
	scores := scoring.NewRepository(scoresDB.Conn(), log)
	predictions := validation.NewRepository(scoresDB.Conn(), log)

	// Shared infrastructure
	bus := events.NewBus(log)
	pool := work.NewPool(cfg.Workers, log)

	var scoreCache *cache.Cache
	if cfg.CacheEnabled {
		scoreCache = cache.New(cfg.ScoreCacheTTL, cfg.NavCacheTTL, log)
	}

	// Services
	scoringService := scoring.NewService(funds, navs, scores, pool, bus, scoreCache, log)
	baseline := validation.NewBaseline(funds, scoringService, predictions, pool, bus, log)
	validator := validation.NewValidator(predictions, navs, bus, log)

	// Scheduler: nightly scoring run, daily validation sweep, hourly cache purge
	sched := scheduler.New(log)
	if err := sched.AddJob(cfg.ScoreCron, scheduler.NewScoringJob(scoringService, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule scoring job")
	}
	if err := sched.AddJob(cfg.ValidateCron, scheduler.NewValidationSweepJob(validator, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule validation sweep")
	}
	if scoreCache != nil {
		if err := sched.AddJob("0 0 * * * *", scheduler.NewCachePurgeJob(scoreCache, log)); err != nil {
			log.Fatal().Err(err).Msg("Failed to schedule cache purge")
		}
	}
	sched.Start()
	log.Info().Msg("Scheduler started")

	srv := server.New(server.Config{
		Log:        log,
		UniverseDB: universeDB,
		ScoresDB:   scoresDB,
		Config:     cfg,
		Port:       cfg.Port,
		DevMode:    cfg.DevMode,
		Funds:      funds,
		Navs:       navs,
		Scoring:    scoringService,
		Baseline:   baseline,
		Validator:  validator,
		Bus:        bus,
		Cache:      scoreCache,
		Scheduler:  sched,
	})

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	sched.Stop()
	log.Info().Msg("Scheduler stopped")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
