package validation

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/fundscore/internal/utils"
)

// Handlers provides HTTP handlers for the validation module
type Handlers struct {
	baseline  *Baseline
	validator *Validator
	log       zerolog.Logger
}

// NewHandlers creates a new validation handlers instance
func NewHandlers(baseline *Baseline, validator *Validator, log zerolog.Logger) *Handlers {
	return &Handlers{
		baseline:  baseline,
		validator: validator,
		log:       log.With().Str("module", "validation_handlers").Logger(),
	}
}

// RegisterRoutes registers all validation routes
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/validation", func(r chi.Router) {
		r.Post("/baseline", h.HandleCreateBaseline)
		r.Post("/validate", h.HandleValidate)
		r.Post("/sweep", h.HandleSweep)
		r.Get("/summaries", h.HandleListSummaries)
	})
}

// BaselineRequest is the body of POST /api/validation/baseline
type BaselineRequest struct {
	AsOf          string `json:"as_of"`
	HorizonMonths int    `json:"horizon_months"`
}

// HandleCreateBaseline handles POST /api/validation/baseline
func (h *Handlers) HandleCreateBaseline(w http.ResponseWriter, r *http.Request) {
	var req BaselineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	asOf, err := utils.ParseDate(req.AsOf)
	if err != nil {
		h.writeError(w, "Invalid as_of date, want YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	if req.HorizonMonths <= 0 {
		h.writeError(w, "horizon_months must be positive", http.StatusBadRequest)
		return
	}

	result, err := h.baseline.Create(r.Context(), asOf, req.HorizonMonths)
	if err != nil {
		h.log.Error().Err(err).Msg("Baseline creation failed")
		h.writeError(w, "Baseline creation failed", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, result)
}

// ValidateRequest is the body of POST /api/validation/validate
type ValidateRequest struct {
	PredictionDate string `json:"prediction_date"`
	ValidationDate string `json:"validation_date"`
	Force          bool   `json:"force"`
}

// HandleValidate handles POST /api/validation/validate
func (h *Handlers) HandleValidate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	predictionDate, err := utils.ParseDate(req.PredictionDate)
	if err != nil {
		h.writeError(w, "Invalid prediction_date, want YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	validationDate, err := utils.ParseDate(req.ValidationDate)
	if err != nil {
		h.writeError(w, "Invalid validation_date, want YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	summary, err := h.validator.Validate(r.Context(), predictionDate, validationDate, req.Force)
	switch {
	case errors.Is(err, ErrNoCohort):
		h.writeError(w, "No prediction cohort for this date", http.StatusNotFound)
	case err != nil:
		h.log.Error().Err(err).Msg("Validation failed")
		h.writeError(w, "Validation failed", http.StatusInternalServerError)
	default:
		h.writeJSON(w, summary)
	}
}

// HandleSweep handles POST /api/validation/sweep
// Validates every cohort whose horizon has elapsed
func (h *Handlers) HandleSweep(w http.ResponseWriter, r *http.Request) {
	count, err := h.validator.SweepDue(r.Context(), time.Now().UTC())
	if err != nil {
		h.log.Error().Err(err).Msg("Validation sweep failed")
		h.writeError(w, "Validation sweep failed", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, map[string]int{"validated_cohorts": count})
}

// HandleListSummaries handles GET /api/validation/summaries
func (h *Handlers) HandleListSummaries(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.validator.predictions.ListSummaries(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list summaries")
		h.writeError(w, "Failed to list summaries", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, summaries)
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
