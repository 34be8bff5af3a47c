package goal

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

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
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Patch("/{id}/contribute", h.contribute)
	r.Delete("/{id}", h.delete)
}

func (h *Handler) manager(w http.ResponseWriter, r *http.Request) (*session.Manager, bool) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, "no active session", http.StatusUnauthorized)
		return nil, false
	}

	return h.registry.For(r.Context(), identity), true
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	mgr, ok := h.manager(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, mgr.Goals())
}

type createGoalRequest struct {
	ID           string  `json:"id,omitempty"`
	Name         string  `json:"name"`
	TargetAmount float64 `json:"targetAmount"`
	SavedAmount  float64 `json:"savedAmount"`
	Deadline     string  `json:"deadline,omitempty"`
	Icon         string  `json:"icon,omitempty"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	mgr, ok := h.manager(w, r)
	if !ok {
		return
	}

	var req createGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	if req.TargetAmount <= 0 {
		http.Error(w, "target amount must be positive", http.StatusBadRequest)
		return
	}

	if req.SavedAmount < 0 {
		http.Error(w, "saved amount must be non-negative", http.StatusBadRequest)
		return
	}

	goal := finance.Goal{
		ID:           req.ID,
		Name:         req.Name,
		TargetAmount: req.TargetAmount,
		SavedAmount:  req.SavedAmount,
		Deadline:     req.Deadline,
		Icon:         req.Icon,
	}

	if goal.ID == "" {
		goal.ID = uuid.NewString()
	}

	mgr.AddGoal(goal)

	writeJSON(w, http.StatusCreated, goal)
}

type contributeRequest struct {
	Amount float64 `json:"amount"`
}

func (h *Handler) contribute(w http.ResponseWriter, r *http.Request) {
	mgr, ok := h.manager(w, r)
	if !ok {
		return
	}

	var req contributeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Amount <= 0 {
		http.Error(w, "amount must be positive", http.StatusBadRequest)
		return
	}

	mgr.ContributeGoal(chi.URLParam(r, "id"), req.Amount)

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	mgr, ok := h.manager(w, r)
	if !ok {
		return
	}

	mgr.DeleteGoal(chi.URLParam(r, "id"))

	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
