package account

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/finvella/finvella/internal/auth"
	"github.com/finvella/finvella/internal/currency"
	"github.com/finvella/finvella/internal/finance"
	"github.com/finvella/finvella/internal/session"
)

// Handler exposes the session lifecycle and per-session preferences.
type Handler struct {
	registry *session.Registry
	authn    *auth.Provider
}

func NewHandler(registry *session.Registry, authn *auth.Provider) *Handler {
	return &Handler{registry: registry, authn: authn}
}

// Routes registers the unauthenticated session entry points.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/guest", h.loginAsGuest)
}

// AuthedRoutes registers the endpoints that need an identity.
func (h *Handler) AuthedRoutes(r chi.Router) {
	r.Get("/me", h.me)
	r.Post("/logout", h.logout)
	r.Put("/settings/currency", h.setCurrency)
	r.Post("/settings/theme", h.toggleTheme)
}

func (h *Handler) manager(w http.ResponseWriter, r *http.Request) (*session.Manager, auth.Identity, bool) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, "no active session", http.StatusUnauthorized)
		return nil, auth.Identity{}, false
	}

	return h.registry.For(r.Context(), identity), identity, true
}

type guestLoginResponse struct {
	Token       string `json:"token"`
	UID         string `json:"uid"`
	DisplayName string `json:"displayName"`
}

func (h *Handler) loginAsGuest(w http.ResponseWriter, r *http.Request) {
	token, identity, err := h.authn.IssueGuest()
	if err != nil {
		slog.Error("issuing guest token", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	mgr := h.registry.For(r.Context(), identity)
	mgr.LoginAsGuest(r.Context())

	writeJSON(w, http.StatusCreated, guestLoginResponse{
		Token:       token,
		UID:         identity.UID,
		DisplayName: identity.DisplayName,
	})
}

type profileResponse struct {
	UID            string        `json:"uid"`
	Email          string        `json:"email,omitempty"`
	DisplayName    string        `json:"displayName,omitempty"`
	Guest          bool          `json:"guest"`
	Mode           session.Mode  `json:"mode"`
	CurrencyCode   currency.Code `json:"currencyCode"`
	CurrencySymbol string        `json:"currencySymbol"`
	Theme          finance.Theme `json:"theme"`
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	mgr, identity, ok := h.manager(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{
		UID:            identity.UID,
		Email:          identity.Email,
		DisplayName:    identity.DisplayName,
		Guest:          identity.Guest,
		Mode:           mgr.Mode(),
		CurrencyCode:   mgr.Currency(),
		CurrencySymbol: mgr.CurrencySymbol(),
		Theme:          mgr.Theme(),
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	mgr, identity, ok := h.manager(w, r)
	if !ok {
		return
	}

	mgr.Logout(r.Context())
	h.registry.Drop(identity.UID)

	w.WriteHeader(http.StatusNoContent)
}

type setCurrencyRequest struct {
	Code currency.Code `json:"code"`
}

func (h *Handler) setCurrency(w http.ResponseWriter, r *http.Request) {
	mgr, _, ok := h.manager(w, r)
	if !ok {
		return
	}

	var req setCurrencyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if !currency.Valid(req.Code) {
		http.Error(w, "unknown currency code", http.StatusBadRequest)
		return
	}

	mgr.SetCurrency(req.Code)

	w.WriteHeader(http.StatusNoContent)
}

type themeResponse struct {
	Theme finance.Theme `json:"theme"`
}

func (h *Handler) toggleTheme(w http.ResponseWriter, r *http.Request) {
	mgr, _, ok := h.manager(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, themeResponse{Theme: mgr.ToggleTheme()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
