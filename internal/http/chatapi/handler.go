package chatapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/finvella/finvella/internal/auth"
	"github.com/finvella/finvella/internal/chat"
	"github.com/finvella/finvella/internal/finance"
	"github.com/finvella/finvella/internal/session"
)

type Handler struct {
	registry *session.Registry
	client   *chat.Client
}

func NewHandler(registry *session.Registry, client *chat.Client) *Handler {
	return &Handler{registry: registry, client: client}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/history", h.history)
	r.Delete("/history", h.clear)
	r.Post("/stream", h.stream)
}

func (h *Handler) manager(w http.ResponseWriter, r *http.Request) (*session.Manager, bool) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, "no active session", http.StatusUnauthorized)
		return nil, false
	}

	return h.registry.For(r.Context(), identity), true
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	mgr, ok := h.manager(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, mgr.ChatHistory())
}

func (h *Handler) clear(w http.ResponseWriter, r *http.Request) {
	mgr, ok := h.manager(w, r)
	if !ok {
		return
	}

	mgr.ClearChatHistory()

	w.WriteHeader(http.StatusNoContent)
}

type sendRequest struct {
	Content string `json:"content"`
}

type streamEvent struct {
	Delta string `json:"delta,omitempty"`
	Error string `json:"error,omitempty"`
	Done  bool   `json:"done,omitempty"`
}

// stream appends the user's message, proxies the assistant's reply to the
// browser as server-sent events, and persists the accumulated reply once
// the stream completes. A transport failure discards the partial reply and
// surfaces the fixed fallback message instead.
func (h *Handler) stream(w http.ResponseWriter, r *http.Request) {
	mgr, ok := h.manager(w, r)
	if !ok {
		return
	}

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Content == "" {
		http.Error(w, "content is required", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	mgr.AddChatMessage(finance.ChatMessage{
		ID:        uuid.NewString(),
		Role:      finance.RoleUser,
		Content:   req.Content,
		Timestamp: time.Now().UnixMilli(),
	})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	emit := func(event streamEvent) {
		data, err := json.Marshal(event)
		if err != nil {
			slog.Error("encoding stream event", "error", err)
			return
		}

		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}

	var (
		accumulated string
		failed      bool
	)

	h.client.Send(r.Context(), mgr.ChatHistory(),
		func(delta string) {
			accumulated += delta

			emit(streamEvent{Delta: delta})
		},
		func(message string) {
			failed = true

			slog.Error("chat stream failed", "error", message)
			emit(streamEvent{Error: chat.FallbackErrorMessage})
		},
	)

	if !failed && accumulated != "" {
		mgr.AddChatMessage(chat.NewAssistantMessage(uuid.NewString(), accumulated))
	}

	emit(streamEvent{Done: true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
