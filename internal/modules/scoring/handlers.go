package scoring

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/fundscore/internal/utils"
)

// Handlers provides HTTP handlers for the scoring module
type Handlers struct {
	service *Service
	log     zerolog.Logger
}

// NewHandlers creates a new scoring handlers instance
func NewHandlers(service *Service, log zerolog.Logger) *Handlers {
	return &Handlers{
		service: service,
		log:     log.With().Str("module", "scoring_handlers").Logger(),
	}
}

// RegisterRoutes registers all scoring routes
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/scoring", func(r chi.Router) {
		r.Post("/run", h.HandleScoreAll)
		r.Post("/funds/{id}/score", h.HandleScoreFund)
		r.Get("/funds/{id}/score", h.HandleGetScore)
		r.Post("/rank", h.HandleRankSubcategory)
		r.Get("/scores", h.HandleGetScoresForDate)
	})
}

// HandleScoreAll handles POST /api/scoring/run
// Scores the whole universe and ranks every peer group
func (h *Handlers) HandleScoreAll(w http.ResponseWriter, r *http.Request) {
	asOf, ok := h.asOfParam(w, r)
	if !ok {
		return
	}

	result, err := h.service.ScoreAll(r.Context(), asOf)
	if err != nil {
		h.log.Error().Err(err).Msg("Scoring run failed")
		h.writeError(w, "Scoring run failed", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, result)
}

// HandleScoreFund handles POST /api/scoring/funds/{id}/score
func (h *Handlers) HandleScoreFund(w http.ResponseWriter, r *http.Request) {
	fundID := chi.URLParam(r, "id")
	asOf, ok := h.asOfParam(w, r)
	if !ok {
		return
	}

	rec, err := h.service.ScoreFund(r.Context(), fundID, asOf)
	switch {
	case errors.Is(err, ErrUnknownFund):
		h.writeError(w, "Unknown fund", http.StatusNotFound)
	case errors.Is(err, ErrInsufficientHistory):
		h.writeError(w, "Insufficient NAV history", http.StatusUnprocessableEntity)
	case err != nil:
		h.log.Error().Err(err).Str("fund_id", fundID).Msg("Failed to score fund")
		h.writeError(w, "Failed to score fund", http.StatusInternalServerError)
	default:
		h.writeJSON(w, rec)
	}
}

// HandleGetScore handles GET /api/scoring/funds/{id}/score
func (h *Handlers) HandleGetScore(w http.ResponseWriter, r *http.Request) {
	fundID := chi.URLParam(r, "id")
	asOf, ok := h.asOfParam(w, r)
	if !ok {
		return
	}

	rec, err := h.service.GetScore(r.Context(), fundID, asOf)
	if err != nil {
		h.log.Error().Err(err).Str("fund_id", fundID).Msg("Failed to load score")
		h.writeError(w, "Failed to load score", http.StatusInternalServerError)
		return
	}
	if rec == nil {
		h.writeError(w, "No score for this fund and date", http.StatusNotFound)
		return
	}
	h.writeJSON(w, rec)
}

// HandleRankSubcategory handles POST /api/scoring/rank?subcategory=&as_of=
func (h *Handlers) HandleRankSubcategory(w http.ResponseWriter, r *http.Request) {
	subcategory := r.URL.Query().Get("subcategory")
	if subcategory == "" {
		h.writeError(w, "subcategory is required", http.StatusBadRequest)
		return
	}
	asOf, ok := h.asOfParam(w, r)
	if !ok {
		return
	}

	size, err := h.service.RankSubcategory(r.Context(), subcategory, asOf)
	if err != nil {
		h.log.Warn().Err(err).Str("subcategory", subcategory).Msg("Ranking failed")
		h.writeError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	h.writeJSON(w, map[string]interface{}{"subcategory": subcategory, "funds": size})
}

// HandleGetScoresForDate handles GET /api/scoring/scores?as_of=
func (h *Handlers) HandleGetScoresForDate(w http.ResponseWriter, r *http.Request) {
	asOf, ok := h.asOfParam(w, r)
	if !ok {
		return
	}

	records, err := h.service.scores.GetForDate(r.Context(), asOf)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load scores")
		h.writeError(w, "Failed to load scores", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, records)
}

// asOfParam parses the as_of query parameter, defaulting to today.
func (h *Handlers) asOfParam(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("as_of")
	if raw == "" {
		return utils.Midnight(time.Now().UTC()), true
	}
	asOf, err := utils.ParseDate(raw)
	if err != nil {
		h.writeError(w, "Invalid as_of date, want YYYY-MM-DD", http.StatusBadRequest)
		return time.Time{}, false
	}
	return asOf, true
}

func (h *Handlers) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
