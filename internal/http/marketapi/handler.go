package marketapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/finvella/finvella/internal/market"
)

type Handler struct {
	svc *market.Service
}

func NewHandler(svc *market.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.snapshot)
}

func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(h.svc.Snapshot()); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
