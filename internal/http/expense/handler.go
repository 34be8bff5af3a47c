package expense

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/finvella/finvella/internal/auth"
	"github.com/finvella/finvella/internal/finance"
	"github.com/finvella/finvella/internal/importer"
	"github.com/finvella/finvella/internal/session"
)

type Handler struct {
	registry  *session.Registry
	importSvc *importer.Service
}

func NewHandler(registry *session.Registry, importSvc *importer.Service) *Handler {
	return &Handler{registry: registry, importSvc: importSvc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Delete("/{id}", h.delete)
	r.Post("/import", h.importStatement)
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

	writeJSON(w, http.StatusOK, mgr.Expenses())
}

type createExpenseRequest struct {
	ID          string           `json:"id,omitempty"`
	Description string           `json:"description"`
	Amount      float64          `json:"amount"`
	Category    finance.Category `json:"category"`
	Date        string           `json:"date,omitempty"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	mgr, ok := h.manager(w, r)
	if !ok {
		return
	}

	var req createExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// The session manager does not re-validate; the form boundary does.
	if req.Description == "" {
		http.Error(w, "description is required", http.StatusBadRequest)
		return
	}

	if req.Amount < 0 {
		http.Error(w, "amount must be non-negative", http.StatusBadRequest)
		return
	}

	if !req.Category.Valid() {
		http.Error(w, "unknown category", http.StatusBadRequest)
		return
	}

	expense := finance.Expense{
		ID:          req.ID,
		Description: req.Description,
		Amount:      req.Amount,
		Category:    req.Category,
		Date:        req.Date,
	}

	if expense.ID == "" {
		expense.ID = uuid.NewString()
	}

	if expense.Date == "" {
		expense.Date = time.Now().Format(time.DateOnly)
	}

	mgr.AddExpense(expense)

	writeJSON(w, http.StatusCreated, expense)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	mgr, ok := h.manager(w, r)
	if !ok {
		return
	}

	// Deleting an unknown id is a no-op by design, so this always succeeds.
	mgr.DeleteExpense(chi.URLParam(r, "id"))

	w.WriteHeader(http.StatusNoContent)
}

type importResponse struct {
	Imported int               `json:"imported"`
	Expenses []finance.Expense `json:"expenses"`
}

func (h *Handler) importStatement(w http.ResponseWriter, r *http.Request) {
	mgr, ok := h.manager(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	rows, err := h.importSvc.Parse(file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	expenses := make([]finance.Expense, 0, len(rows))

	for _, row := range rows {
		expense := finance.Expense{
			ID:          uuid.NewString(),
			Description: row.Description,
			Amount:      row.Amount,
			Category:    row.Category,
			Date:        row.Date,
		}

		mgr.AddExpense(expense)
		expenses = append(expenses, expense)
	}

	writeJSON(w, http.StatusCreated, importResponse{
		Imported: len(expenses),
		Expenses: expenses,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
