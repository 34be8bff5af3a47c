package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/finvella/finvella/internal/auth"
	"github.com/finvella/finvella/internal/currency"
	"github.com/finvella/finvella/internal/finance"
	"github.com/finvella/finvella/internal/store"
)

// Mode describes who, if anyone, owns the current session.
type Mode string

const (
	ModeNone          Mode = "none"
	ModeAuthenticated Mode = "authenticated"
	ModeGuest         Mode = "guest"
)

// Authenticator is the external auth collaborator: it knows the current
// identity, if any, and how to sign it out.
type Authenticator interface {
	Current(ctx context.Context) (*auth.Identity, error)
	SignOut(ctx context.Context) error
}

// GuestFlag marks whether a guest session is active on this device.
type GuestFlag interface {
	GuestActive() (bool, error)
	SetGuestActive(on bool) error
}

// RemoteFactory returns the remote adapter scoped to one user.
type RemoteFactory func(uid string) store.Adapter

// Config wires a Manager to its collaborators. Auth and Logger default to
// sensible values; Remote may be nil for deployments that only ever run
// guest sessions.
type Config struct {
	Auth   Authenticator
	Remote RemoteFactory
	Local  store.Adapter
	Flags  GuestFlag
	Logger *slog.Logger
}

// dispatchTimeout bounds a single fire-and-forget persistence write.
const dispatchTimeout = 10 * time.Second

// Manager is the single source of truth for one session's financial data.
// Every mutation updates memory first, then dispatches a best-effort write
// to whichever adapter matches the session mode. Dispatch failures are
// logged, never rolled back, never surfaced.
//
// All exported methods are safe for concurrent use; the in-memory state is
// owned exclusively by the Manager and handed out as copies.
type Manager struct {
	authn  Authenticator
	remote RemoteFactory
	local  store.Adapter
	flags  GuestFlag
	logger *slog.Logger

	mu      sync.Mutex
	mode    Mode
	profile auth.Identity
	loading bool

	// adapter is the active persistence variant. It is nil exactly when
	// mode is ModeNone; mutations then update memory only. This is the
	// single place session mode selects a backend.
	adapter store.Adapter

	expenses []finance.Expense
	goals    []finance.Goal
	budget   finance.Budget
	currency currency.Code
	theme    finance.Theme
	chat     []finance.ChatMessage

	dispatches sync.WaitGroup
}

func New(cfg Config) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	flags := cfg.Flags
	if flags == nil {
		flags = noFlags{}
	}

	return &Manager{
		authn:    cfg.Auth,
		remote:   cfg.Remote,
		local:    cfg.Local,
		flags:    flags,
		logger:   logger,
		mode:     ModeNone,
		budget:   finance.NewBudget(),
		currency: currency.Default,
		theme:    finance.ThemeDark,
	}
}

type noFlags struct{}

func (noFlags) GuestActive() (bool, error)  { return false, nil }
func (noFlags) SetGuestActive(_ bool) error { return nil }

// Initialize determines the session mode and loads persisted state. It
// never fails: load errors leave the affected collections empty. Callers
// must not render data-dependent views until it returns; Loading reports
// true only while it runs.
func (m *Manager) Initialize(ctx context.Context) {
	m.mu.Lock()
	m.loading = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.loading = false
		m.mu.Unlock()
	}()

	var identity *auth.Identity

	if m.authn != nil {
		var err error

		identity, err = m.authn.Current(ctx)
		if err != nil {
			m.logger.Error("resolving session identity", "error", err)

			identity = nil
		}
	}

	switch {
	case identity != nil && !identity.Guest:
		m.activate(ModeAuthenticated, *identity, m.remote(identity.UID))
		m.load(ctx)

	case identity != nil && identity.Guest:
		m.activate(ModeGuest, *identity, m.local)
		m.load(ctx)

	default:
		guest, err := m.flags.GuestActive()
		if err != nil {
			m.logger.Error("reading guest flag", "error", err)
		}

		if guest {
			m.activate(ModeGuest, guestIdentity(), m.local)
			m.load(ctx)

			return
		}

		m.reset()
	}
}

func guestIdentity() auth.Identity {
	return auth.Identity{UID: "guest", DisplayName: "Guest", Guest: true}
}

// activate swaps the session over to the given mode, identity and adapter.
func (m *Manager) activate(mode Mode, identity auth.Identity, adapter store.Adapter) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.mode = mode
	m.profile = identity
	m.adapter = adapter
}

// reset clears the session back to the signed-out empty state.
func (m *Manager) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.mode = ModeNone
	m.profile = auth.Identity{}
	m.adapter = nil
	m.expenses = nil
	m.goals = nil
	m.budget = finance.NewBudget()
	m.currency = currency.Default
	m.theme = finance.ThemeDark
	m.chat = nil
}

// load pulls every collection and the settings document from the active
// adapter. Partial failures are logged per collection and leave that
// collection empty; load never aborts the session.
func (m *Manager) load(ctx context.Context) {
	m.mu.Lock()
	adapter := m.adapter
	m.mu.Unlock()

	if adapter == nil {
		return
	}

	settings := m.loadSettings(ctx, adapter)
	expenses := loadCollection[finance.Expense](ctx, m.logger, adapter, store.CollectionExpenses, store.ListOptions{})
	goals := loadCollection[finance.Goal](ctx, m.logger, adapter, store.CollectionGoals, store.ListOptions{})
	chat := loadCollection[finance.ChatMessage](ctx, m.logger, adapter, store.CollectionChat, store.ListOptions{OrderBy: "timestamp"})

	m.mu.Lock()
	defer m.mu.Unlock()

	m.expenses = expenses
	m.goals = goals
	m.chat = chat
	m.applySettingsLocked(settings)
}

func (m *Manager) loadSettings(ctx context.Context, adapter store.Adapter) store.Settings {
	raw, err := adapter.Get(ctx, store.CollectionSettings, store.SettingsDocID)
	if err != nil {
		if err != store.ErrNotFound {
			m.logger.Error("loading settings", "error", err)
		}

		return store.Settings{}
	}

	var settings store.Settings
	if err := json.Unmarshal(raw, &settings); err != nil {
		m.logger.Error("decoding settings", "error", err)
		return store.Settings{}
	}

	return settings
}

func (m *Manager) applySettingsLocked(settings store.Settings) {
	m.budget = finance.NewBudget()
	m.currency = currency.Default
	m.theme = finance.ThemeDark

	if len(settings.Budget) > 0 {
		var budget finance.Budget
		if err := json.Unmarshal(settings.Budget, &budget); err != nil {
			m.logger.Error("decoding budget", "error", err)
		} else {
			if budget.Limits == nil {
				budget.Limits = map[finance.Category]float64{}
			}

			m.budget = budget
		}
	}

	if code := currency.Code(settings.CurrencyCode); currency.Valid(code) {
		m.currency = code
	}

	if theme := finance.Theme(settings.Theme); theme == finance.ThemeLight || theme == finance.ThemeDark {
		m.theme = theme
	}
}

func loadCollection[T any](ctx context.Context, logger *slog.Logger, adapter store.Adapter, collection string, opts store.ListOptions) []T {
	docs, err := adapter.List(ctx, collection, opts)
	if err != nil {
		logger.Error("loading collection", "collection", collection, "error", err)
		return nil
	}

	items := make([]T, 0, len(docs))

	for _, doc := range docs {
		var item T
		if err := json.Unmarshal(doc, &item); err != nil {
			logger.Error("decoding document", "collection", collection, "error", err)
			continue
		}

		items = append(items, item)
	}

	return items
}

// dispatch runs a persistence write detached from the caller. Failures are
// a local concern: logged and dropped, leaving the optimistic in-memory
// state in place.
func (m *Manager) dispatch(op string, adapter store.Adapter, fn func(ctx context.Context, adapter store.Adapter) error) {
	if adapter == nil {
		return
	}

	m.dispatches.Add(1)

	go func() {
		defer m.dispatches.Done()

		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()

		if err := fn(ctx, adapter); err != nil {
			m.logger.Error("persistence dispatch failed", "op", op, "error", err)
		}
	}()
}

// Wait blocks until every dispatched persistence write has finished. Used
// at shutdown and by tests; callers of mutation methods never wait.
func (m *Manager) Wait() {
	m.dispatches.Wait()
}

// Loading reports whether Initialize is in flight.
func (m *Manager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.loading
}

// Mode returns the active session mode.
func (m *Manager) Mode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.mode
}

// Profile returns the session owner. ok is false when no session is active.
func (m *Manager) Profile() (auth.Identity, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.profile, m.mode != ModeNone
}

// Expenses returns a copy of the expense list, newest first.
func (m *Manager) Expenses() []finance.Expense {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]finance.Expense(nil), m.expenses...)
}

// Goals returns a copy of the goal list.
func (m *Manager) Goals() []finance.Goal {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]finance.Goal(nil), m.goals...)
}

// Budget returns the current budget.
func (m *Manager) Budget() finance.Budget {
	m.mu.Lock()
	defer m.mu.Unlock()

	budget := m.budget
	budget.Limits = make(map[finance.Category]float64, len(m.budget.Limits))

	for k, v := range m.budget.Limits {
		budget.Limits[k] = v
	}

	return budget
}

// Currency returns the active currency code.
func (m *Manager) Currency() currency.Code {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.currency
}

// CurrencySymbol returns the display symbol for the active currency.
func (m *Manager) CurrencySymbol() string {
	return currency.Symbol(m.Currency())
}

// Theme returns the active theme.
func (m *Manager) Theme() finance.Theme {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.theme
}

// ChatHistory returns a copy of the chat transcript in insertion order.
func (m *Manager) ChatHistory() []finance.ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]finance.ChatMessage(nil), m.chat...)
}

// AddExpense prepends the expense and dispatches a single-document write.
// The caller validates description and amount before calling; the Manager
// does not re-validate.
func (m *Manager) AddExpense(expense finance.Expense) {
	m.mu.Lock()
	m.expenses = append([]finance.Expense{expense}, m.expenses...)
	adapter := m.adapter
	m.mu.Unlock()

	m.dispatch("add expense", adapter, func(ctx context.Context, a store.Adapter) error {
		return a.Set(ctx, store.CollectionExpenses, expense.ID, expense, false)
	})
}

// DeleteExpense removes the expense and dispatches a delete. An unknown id
// is a silent no-op: memory unchanged, nothing dispatched.
func (m *Manager) DeleteExpense(id string) {
	m.mu.Lock()

	found := false
	kept := m.expenses[:0]

	for _, e := range m.expenses {
		if e.ID == id {
			found = true
			continue
		}

		kept = append(kept, e)
	}

	m.expenses = kept
	adapter := m.adapter
	m.mu.Unlock()

	if !found {
		return
	}

	m.dispatch("delete expense", adapter, func(ctx context.Context, a store.Adapter) error {
		return a.Delete(ctx, store.CollectionExpenses, id)
	})
}

// AddGoal appends the goal and dispatches a single-document write.
func (m *Manager) AddGoal(goal finance.Goal) {
	m.mu.Lock()
	m.goals = append(m.goals, goal)
	adapter := m.adapter
	m.mu.Unlock()

	m.dispatch("add goal", adapter, func(ctx context.Context, a store.Adapter) error {
		return a.Set(ctx, store.CollectionGoals, goal.ID, goal, false)
	})
}

// ContributeGoal adds amount to the goal's saved total and dispatches an
// update of just that field. An unknown id is a no-op.
func (m *Manager) ContributeGoal(id string, amount float64) {
	m.mu.Lock()

	var (
		found    bool
		newSaved float64
	)

	for i := range m.goals {
		if m.goals[i].ID == id {
			m.goals[i].SavedAmount += amount
			newSaved = m.goals[i].SavedAmount
			found = true

			break
		}
	}

	adapter := m.adapter
	m.mu.Unlock()

	if !found {
		return
	}

	m.dispatch("update goal", adapter, func(ctx context.Context, a store.Adapter) error {
		return a.Set(ctx, store.CollectionGoals, id, map[string]float64{"savedAmount": newSaved}, true)
	})
}

// DeleteGoal removes the goal and dispatches a delete. An unknown id is a
// silent no-op.
func (m *Manager) DeleteGoal(id string) {
	m.mu.Lock()

	found := false
	kept := m.goals[:0]

	for _, g := range m.goals {
		if g.ID == id {
			found = true
			continue
		}

		kept = append(kept, g)
	}

	m.goals = kept
	adapter := m.adapter
	m.mu.Unlock()

	if !found {
		return
	}

	m.dispatch("delete goal", adapter, func(ctx context.Context, a store.Adapter) error {
		return a.Delete(ctx, store.CollectionGoals, id)
	})
}

// SetBudget replaces the budget wholesale and dispatches a merge-write of
// the budget field into the settings document.
func (m *Manager) SetBudget(budget finance.Budget) {
	if budget.Limits == nil {
		budget.Limits = map[finance.Category]float64{}
	}

	m.mu.Lock()
	m.budget = budget
	adapter := m.adapter
	m.mu.Unlock()

	m.dispatch("update budget", adapter, func(ctx context.Context, a store.Adapter) error {
		return a.Set(ctx, store.CollectionSettings, store.SettingsDocID, map[string]any{"budget": budget}, true)
	})
}

// SetCurrency changes the active currency and dispatches a merge-write of
// that one settings field.
func (m *Manager) SetCurrency(code currency.Code) {
	m.mu.Lock()
	m.currency = code
	adapter := m.adapter
	m.mu.Unlock()

	m.dispatch("update currency", adapter, func(ctx context.Context, a store.Adapter) error {
		return a.Set(ctx, store.CollectionSettings, store.SettingsDocID, map[string]any{"currencyCode": code}, true)
	})
}

// ToggleTheme flips between the two themes and dispatches a merge-write of
// the theme field. The new theme is returned.
func (m *Manager) ToggleTheme() finance.Theme {
	m.mu.Lock()
	m.theme = m.theme.Flip()
	theme := m.theme
	adapter := m.adapter
	m.mu.Unlock()

	m.dispatch("update theme", adapter, func(ctx context.Context, a store.Adapter) error {
		return a.Set(ctx, store.CollectionSettings, store.SettingsDocID, map[string]any{"theme": theme}, true)
	})

	return theme
}

// AddChatMessage appends a message to the transcript and dispatches a write
// of the single new message document. The append reads the latest history
// under the state lock, so two rapid successive appends (a user message
// chased by the assistant's reply) can never lose the first one.
func (m *Manager) AddChatMessage(message finance.ChatMessage) {
	m.mu.Lock()
	m.chat = append(m.chat, message)
	adapter := m.adapter
	m.mu.Unlock()

	m.dispatch("add chat message", adapter, func(ctx context.Context, a store.Adapter) error {
		return a.Set(ctx, store.CollectionChat, message.ID, message, false)
	})
}

// ClearChatHistory empties the in-memory transcript. Guest sessions also
// clear the persisted copy; for authenticated sessions the remote copy is
// retained. That asymmetry is an intentional scope limitation.
func (m *Manager) ClearChatHistory() {
	m.mu.Lock()
	m.chat = nil
	mode := m.mode
	adapter := m.adapter
	m.mu.Unlock()

	if mode != ModeGuest {
		return
	}

	m.dispatch("clear chat", adapter, func(ctx context.Context, a store.Adapter) error {
		return a.Clear(ctx, store.CollectionChat)
	})
}

// LoginAsGuest activates a guest session, marks the persistent guest flag
// and loads any data a previous guest session left on this device.
func (m *Manager) LoginAsGuest(ctx context.Context) {
	if err := m.flags.SetGuestActive(true); err != nil {
		m.logger.Error("setting guest flag", "error", err)
	}

	m.activate(ModeGuest, guestIdentity(), m.local)
	m.load(ctx)
}

// Logout ends the session. Guest sessions clear the guest flag and the
// in-memory state but keep the local persisted data on disk. Authenticated
// sessions delegate to the auth collaborator's sign-out and re-resolve,
// which resets state to signed-out.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	mode := m.mode
	m.mu.Unlock()

	switch mode {
	case ModeGuest:
		if err := m.flags.SetGuestActive(false); err != nil {
			m.logger.Error("clearing guest flag", "error", err)
		}

		m.reset()

	case ModeAuthenticated:
		if err := m.authn.SignOut(ctx); err != nil {
			m.logger.Error("signing out", "error", err)
		}

		m.Initialize(ctx)
	}
}
