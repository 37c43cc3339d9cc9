package universe

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/fundscore/internal/domain"
	"github.com/aristath/fundscore/internal/utils"
)

// Handlers provides HTTP handlers for universe management
type Handlers struct {
	funds *FundRepository
	navs  *NavDB
	log   zerolog.Logger
}

// NewHandlers creates a new universe handlers instance
func NewHandlers(funds *FundRepository, navs *NavDB, log zerolog.Logger) *Handlers {
	return &Handlers{
		funds: funds,
		navs:  navs,
		log:   log.With().Str("module", "universe_handlers").Logger(),
	}
}

// RegisterRoutes registers all universe routes
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/universe", func(r chi.Router) {
		r.Get("/funds", h.HandleListFunds)
		r.Post("/funds", h.HandleUpsertFund)
		r.Get("/funds/{id}", h.HandleGetFund)
		r.Get("/subcategories", h.HandleListSubcategories)
		r.Post("/funds/{id}/navs", h.HandleSyncNavs)
		r.Post("/benchmarks/{name}/navs", h.HandleSyncBenchmarkNavs)
	})
}

// FundPayload is the wire representation of a fund.
type FundPayload struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Category      string  `json:"category"`
	Subcategory   string  `json:"subcategory"`
	BenchmarkName string  `json:"benchmark_name"`
	ExpenseRatio  float64 `json:"expense_ratio"`
	AUMCrore      float64 `json:"aum_crore"`
}

// NavPointPayload is one (date, value) observation in a sync request.
type NavPointPayload struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// HandleListFunds handles GET /api/universe/funds
func (h *Handlers) HandleListFunds(w http.ResponseWriter, r *http.Request) {
	subcategory := r.URL.Query().Get("subcategory")

	var (
		funds []domain.Fund
		err   error
	)
	if subcategory != "" {
		funds, err = h.funds.GetBySubcategory(r.Context(), subcategory)
	} else {
		funds, err = h.funds.GetAll(r.Context())
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list funds")
		h.writeError(w, "Failed to list funds", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, map[string]interface{}{"funds": funds, "count": len(funds)})
}

// HandleGetFund handles GET /api/universe/funds/{id}
func (h *Handlers) HandleGetFund(w http.ResponseWriter, r *http.Request) {
	fund, err := h.funds.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get fund")
		h.writeError(w, "Failed to get fund", http.StatusInternalServerError)
		return
	}
	if fund == nil {
		h.writeError(w, "Unknown fund", http.StatusNotFound)
		return
	}
	h.writeJSON(w, fund)
}

// HandleUpsertFund handles POST /api/universe/funds
func (h *Handlers) HandleUpsertFund(w http.ResponseWriter, r *http.Request) {
	var payload FundPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if payload.ID == "" || payload.Subcategory == "" {
		h.writeError(w, "id and subcategory are required", http.StatusBadRequest)
		return
	}

	fund := &domain.Fund{
		ID:            payload.ID,
		Name:          payload.Name,
		Category:      payload.Category,
		Subcategory:   payload.Subcategory,
		BenchmarkName: payload.BenchmarkName,
		ExpenseRatio:  payload.ExpenseRatio,
		AUMCrore:      payload.AUMCrore,
	}
	if err := h.funds.Upsert(r.Context(), fund); err != nil {
		h.log.Error().Err(err).Str("fund_id", fund.ID).Msg("Failed to upsert fund")
		h.writeError(w, "Failed to upsert fund", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, fund)
}

// HandleListSubcategories handles GET /api/universe/subcategories
func (h *Handlers) HandleListSubcategories(w http.ResponseWriter, r *http.Request) {
	subcategories, err := h.funds.Subcategories(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list subcategories")
		h.writeError(w, "Failed to list subcategories", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, map[string]interface{}{"subcategories": subcategories})
}

// HandleSyncNavs handles POST /api/universe/funds/{id}/navs
func (h *Handlers) HandleSyncNavs(w http.ResponseWriter, r *http.Request) {
	fundID := chi.URLParam(r, "id")

	fund, err := h.funds.GetByID(r.Context(), fundID)
	if err != nil {
		h.writeError(w, "Failed to get fund", http.StatusInternalServerError)
		return
	}
	if fund == nil {
		h.writeError(w, "Unknown fund", http.StatusNotFound)
		return
	}

	var payload []NavPointPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	observations := make([]domain.NAVObservation, 0, len(payload))
	for _, p := range payload {
		date, err := utils.ParseDate(p.Date)
		if err != nil {
			h.writeError(w, "Invalid date: "+p.Date, http.StatusBadRequest)
			return
		}
		if p.Value <= 0 {
			h.writeError(w, "NAV values must be positive", http.StatusBadRequest)
			return
		}
		observations = append(observations, domain.NAVObservation{
			FundID: fundID,
			Date:   date,
			Value:  p.Value,
		})
	}

	if err := h.navs.SyncNavHistory(r.Context(), observations); err != nil {
		h.log.Error().Err(err).Str("fund_id", fundID).Msg("Failed to sync NAV history")
		h.writeError(w, "Failed to sync NAV history", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, map[string]interface{}{"fund_id": fundID, "synced": len(observations)})
}

// HandleSyncBenchmarkNavs handles POST /api/universe/benchmarks/{name}/navs
func (h *Handlers) HandleSyncBenchmarkNavs(w http.ResponseWriter, r *http.Request) {
	benchmark := chi.URLParam(r, "name")

	var payload []NavPointPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	observations := make([]domain.BenchmarkObservation, 0, len(payload))
	for _, p := range payload {
		date, err := utils.ParseDate(p.Date)
		if err != nil {
			h.writeError(w, "Invalid date: "+p.Date, http.StatusBadRequest)
			return
		}
		if p.Value <= 0 {
			h.writeError(w, "Benchmark values must be positive", http.StatusBadRequest)
			return
		}
		observations = append(observations, domain.BenchmarkObservation{
			Benchmark: benchmark,
			Date:      date,
			Value:     p.Value,
		})
	}

	if err := h.navs.SyncBenchmarkHistory(r.Context(), observations); err != nil {
		h.log.Error().Err(err).Str("benchmark", benchmark).Msg("Failed to sync benchmark history")
		h.writeError(w, "Failed to sync benchmark history", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, map[string]interface{}{"benchmark": benchmark, "synced": len(observations)})
}

func (h *Handlers) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
