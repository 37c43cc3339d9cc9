// Package server provides the HTTP server and routing for the fund
// scoring engine.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/fundscore/internal/cache"
	"github.com/aristath/fundscore/internal/config"
	"github.com/aristath/fundscore/internal/database"
	"github.com/aristath/fundscore/internal/events"
	"github.com/aristath/fundscore/internal/modules/scoring"
	"github.com/aristath/fundscore/internal/modules/universe"
	"github.com/aristath/fundscore/internal/modules/validation"
	"github.com/aristath/fundscore/internal/scheduler"
)

// Config holds server configuration
type Config struct {
	Log        zerolog.Logger
	UniverseDB *database.DB
	ScoresDB   *database.DB
	Config     *config.Config
	Port       int
	DevMode    bool

	Funds     *universe.FundRepository
	Navs      *universe.NavDB
	Scoring   *scoring.Service
	Baseline  *validation.Baseline
	Validator *validation.Validator
	Bus       *events.Bus
	Cache     *cache.Cache
	Scheduler *scheduler.Scheduler
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            Config
	systemHandlers *SystemHandlers
	startedAt      time.Time
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		cfg:       cfg,
		startedAt: time.Now(),
	}

	s.systemHandlers = NewSystemHandlers(cfg.Log, cfg.Config, cfg.UniverseDB, cfg.ScoresDB, cfg.Cache, cfg.Scheduler)

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Router returns the underlying chi router, used by tests to drive
// requests without binding a port.
func (s *Server) Router() http.Handler {
	return s.router
}

// setupMiddleware configures the middleware stack
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Run-progress stream (websocket)
		streamHandler := NewEventsStreamHandler(s.cfg.Bus, s.log)
		r.Get("/events/ws", streamHandler.ServeHTTP)

		// System monitoring
		r.Get("/system/status", s.systemHandlers.HandleSystemStatus)
		r.Get("/system/databases", s.systemHandlers.HandleDatabaseStats)
		r.Get("/system/jobs", s.systemHandlers.HandleJobsStatus)

		// Module routes
		universeHandlers := universe.NewHandlers(s.cfg.Funds, s.cfg.Navs, s.log)
		universeHandlers.RegisterRoutes(r)

		scoringHandlers := scoring.NewHandlers(s.cfg.Scoring, s.log)
		scoringHandlers.RegisterRoutes(r)

		validationHandlers := validation.NewHandlers(s.cfg.Baseline, s.cfg.Validator, s.log)
		validationHandlers.RegisterRoutes(r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status":"ok","uptime_seconds":%d}`, int(time.Since(s.startedAt).Seconds()))
}

// Start begins listening for HTTP requests. It blocks until the server
// is shut down.
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs all HTTP requests with structured logging
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
