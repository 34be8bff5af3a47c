package budget

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/finvella/finvella/internal/auth"
	"github.com/finvella/finvella/internal/finance"
	"github.com/finvella/finvella/internal/session"
)

type Handler struct {
	registry *session.Registry
}

func NewHandler(registry *session.Registry) *Handler {
	return &Handler{registry: registry}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.get)
	r.Put("/", h.update)
}

func (h *Handler) manager(w http.ResponseWriter, r *http.Request) (*session.Manager, bool) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, "no active session", http.StatusUnauthorized)
		return nil, false
	}

	return h.registry.For(r.Context(), identity), true
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	mgr, ok := h.manager(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, mgr.Budget())
}

type updateBudgetRequest struct {
	MonthlyIncome float64                      `json:"monthlyIncome"`
	Limits        map[finance.Category]float64 `json:"limits"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	mgr, ok := h.manager(w, r)
	if !ok {
		return
	}

	var req updateBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.MonthlyIncome < 0 {
		http.Error(w, "monthly income must be non-negative", http.StatusBadRequest)
		return
	}

	for category, limit := range req.Limits {
		if !category.Valid() {
			http.Error(w, "unknown category: "+string(category), http.StatusBadRequest)
			return
		}

		if limit < 0 {
			http.Error(w, "limits must be non-negative", http.StatusBadRequest)
			return
		}
	}

	// Budget saves replace the whole document, they never merge per field.
	mgr.SetBudget(finance.Budget{
		MonthlyIncome: req.MonthlyIncome,
		Limits:        req.Limits,
	})

	writeJSON(w, http.StatusOK, mgr.Budget())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
