package session_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/finvella/finvella/internal/auth"
	"github.com/finvella/finvella/internal/currency"
	"github.com/finvella/finvella/internal/finance"
	"github.com/finvella/finvella/internal/session"
	"github.com/finvella/finvella/internal/store"
)

type fakeAuth struct {
	identity *auth.Identity
	signedOut bool
}

func (f *fakeAuth) Current(_ context.Context) (*auth.Identity, error) {
	return f.identity, nil
}

func (f *fakeAuth) SignOut(_ context.Context) error {
	f.signedOut = true
	f.identity = nil

	return nil
}

type fakeFlags struct {
	active bool
}

func (f *fakeFlags) GuestActive() (bool, error)  { return f.active, nil }
func (f *fakeFlags) SetGuestActive(on bool) error {
	f.active = on
	return nil
}

// expectEmptyLoad wires the adapter expectations Initialize makes when the
// store holds nothing yet.
func expectEmptyLoad(adapter *store.MockAdapter) {
	adapter.EXPECT().
		Get(gomock.Any(), store.CollectionSettings, store.SettingsDocID).
		Return(nil, store.ErrNotFound)
	adapter.EXPECT().
		List(gomock.Any(), store.CollectionExpenses, gomock.Any()).
		Return(nil, nil)
	adapter.EXPECT().
		List(gomock.Any(), store.CollectionGoals, gomock.Any()).
		Return(nil, nil)
	adapter.EXPECT().
		List(gomock.Any(), store.CollectionChat, store.ListOptions{OrderBy: "timestamp"}).
		Return(nil, nil)
}

func newAuthedManager(t *testing.T, adapter *store.MockAdapter) *session.Manager {
	t.Helper()

	mgr := session.New(session.Config{
		Auth: &fakeAuth{identity: &auth.Identity{UID: "u1", DisplayName: "Ada"}},
		Remote: func(uid string) store.Adapter {
			assert.Equal(t, "u1", uid)
			return adapter
		},
		Flags: &fakeFlags{},
	})

	expectEmptyLoad(adapter)
	mgr.Initialize(context.Background())

	return mgr
}

func TestManager_Initialize_NoSession(t *testing.T) {
	mgr := session.New(session.Config{
		Auth:  &fakeAuth{},
		Flags: &fakeFlags{},
	})

	mgr.Initialize(context.Background())

	assert.Equal(t, session.ModeNone, mgr.Mode())
	assert.False(t, mgr.Loading())
	assert.Empty(t, mgr.Expenses())
	assert.Empty(t, mgr.Goals())
	assert.Empty(t, mgr.ChatHistory())
	assert.Equal(t, currency.Default, mgr.Currency())

	_, active := mgr.Profile()
	assert.False(t, active)
}

func TestManager_Initialize_LoadsPersistedState(t *testing.T) {
	ctrl := gomock.NewController(t)
	adapter := store.NewMockAdapter(ctrl)

	settings, err := json.Marshal(map[string]any{
		"budget":       finance.Budget{MonthlyIncome: 1500, Limits: map[finance.Category]float64{finance.CategoryFood: 300}},
		"currencyCode": "EUR",
		"theme":        "light",
	})
	require.NoError(t, err)

	expense, _ := json.Marshal(finance.Expense{ID: "e1", Description: "Coffee", Amount: 3.5, Category: finance.CategoryFood, Date: "2024-01-15"})
	goal, _ := json.Marshal(finance.Goal{ID: "g1", Name: "Laptop", TargetAmount: 1200, SavedAmount: 200})
	msg, _ := json.Marshal(finance.ChatMessage{ID: "m1", Role: finance.RoleUser, Content: "hi", Timestamp: 1700000000000})

	adapter.EXPECT().
		Get(gomock.Any(), store.CollectionSettings, store.SettingsDocID).
		Return(json.RawMessage(settings), nil)
	adapter.EXPECT().
		List(gomock.Any(), store.CollectionExpenses, gomock.Any()).
		Return([]json.RawMessage{expense}, nil)
	adapter.EXPECT().
		List(gomock.Any(), store.CollectionGoals, gomock.Any()).
		Return([]json.RawMessage{goal}, nil)
	adapter.EXPECT().
		List(gomock.Any(), store.CollectionChat, store.ListOptions{OrderBy: "timestamp"}).
		Return([]json.RawMessage{msg}, nil)

	mgr := session.New(session.Config{
		Auth:   &fakeAuth{identity: &auth.Identity{UID: "u1"}},
		Remote: func(string) store.Adapter { return adapter },
		Flags:  &fakeFlags{},
	})

	mgr.Initialize(context.Background())

	assert.Equal(t, session.ModeAuthenticated, mgr.Mode())
	assert.Equal(t, currency.EUR, mgr.Currency())
	assert.Equal(t, finance.ThemeLight, mgr.Theme())
	assert.Equal(t, 1500.0, mgr.Budget().MonthlyIncome)
	assert.Equal(t, 300.0, mgr.Budget().Limits[finance.CategoryFood])

	require.Len(t, mgr.Expenses(), 1)
	assert.Equal(t, "Coffee", mgr.Expenses()[0].Description)
	require.Len(t, mgr.Goals(), 1)
	require.Len(t, mgr.ChatHistory(), 1)
}

func TestManager_Initialize_LoadFailureLeavesEmptyState(t *testing.T) {
	ctrl := gomock.NewController(t)
	adapter := store.NewMockAdapter(ctrl)

	adapter.EXPECT().
		Get(gomock.Any(), store.CollectionSettings, store.SettingsDocID).
		Return(nil, errors.New("store unreachable"))
	adapter.EXPECT().
		List(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("store unreachable")).
		Times(3)

	mgr := session.New(session.Config{
		Auth:   &fakeAuth{identity: &auth.Identity{UID: "u1"}},
		Remote: func(string) store.Adapter { return adapter },
		Flags:  &fakeFlags{},
	})

	// Never fatal: the session comes up with empty collections.
	mgr.Initialize(context.Background())

	assert.Equal(t, session.ModeAuthenticated, mgr.Mode())
	assert.Empty(t, mgr.Expenses())
	assert.Empty(t, mgr.Goals())
	assert.Empty(t, mgr.ChatHistory())
	assert.False(t, mgr.Loading())
}

func TestManager_AddExpense_VisibleBeforeDispatchCompletes(t *testing.T) {
	ctrl := gomock.NewController(t)
	adapter := store.NewMockAdapter(ctrl)
	mgr := newAuthedManager(t, adapter)

	// Hold the dispatch hostage to prove the in-memory update is not
	// waiting on it.
	release := make(chan struct{})
	adapter.EXPECT().
		Set(gomock.Any(), store.CollectionExpenses, "e1", gomock.Any(), false).
		DoAndReturn(func(context.Context, string, string, any, bool) error {
			<-release
			return nil
		})

	mgr.AddExpense(finance.Expense{ID: "e1", Description: "Lunch", Amount: 12, Category: finance.CategoryFood, Date: "2024-02-01"})

	expenses := mgr.Expenses()
	require.Len(t, expenses, 1)
	assert.Equal(t, "e1", expenses[0].ID)

	close(release)
	mgr.Wait()
}

func TestManager_AddExpense_PrependsNewest(t *testing.T) {
	ctrl := gomock.NewController(t)
	adapter := store.NewMockAdapter(ctrl)
	mgr := newAuthedManager(t, adapter)

	adapter.EXPECT().
		Set(gomock.Any(), store.CollectionExpenses, gomock.Any(), gomock.Any(), false).
		Return(nil).
		Times(2)

	mgr.AddExpense(finance.Expense{ID: "first"})
	mgr.AddExpense(finance.Expense{ID: "second"})
	mgr.Wait()

	expenses := mgr.Expenses()
	require.Len(t, expenses, 2)
	assert.Equal(t, "second", expenses[0].ID)
	assert.Equal(t, "first", expenses[1].ID)
}

func TestManager_DeleteExpense_UnknownIDIsNoOp(t *testing.T) {
	ctrl := gomock.NewController(t)
	adapter := store.NewMockAdapter(ctrl)
	mgr := newAuthedManager(t, adapter)

	adapter.EXPECT().
		Set(gomock.Any(), store.CollectionExpenses, "e1", gomock.Any(), false).
		Return(nil)

	mgr.AddExpense(finance.Expense{ID: "e1", Description: "Lunch"})
	mgr.Wait()

	before := mgr.Expenses()

	// No Delete expectation: an unknown id must not dispatch anything.
	mgr.DeleteExpense("nope")
	mgr.Wait()

	assert.Equal(t, before, mgr.Expenses())
}

func TestManager_DeleteExpense_RemovesAndDispatches(t *testing.T) {
	ctrl := gomock.NewController(t)
	adapter := store.NewMockAdapter(ctrl)
	mgr := newAuthedManager(t, adapter)

	adapter.EXPECT().
		Set(gomock.Any(), store.CollectionExpenses, "e1", gomock.Any(), false).
		Return(nil)
	adapter.EXPECT().
		Delete(gomock.Any(), store.CollectionExpenses, "e1").
		Return(nil)

	mgr.AddExpense(finance.Expense{ID: "e1"})
	mgr.DeleteExpense("e1")
	mgr.Wait()

	assert.Empty(t, mgr.Expenses())
}

func TestManager_ContributeGoal_Accumulates(t *testing.T) {
	ctrl := gomock.NewController(t)
	adapter := store.NewMockAdapter(ctrl)
	mgr := newAuthedManager(t, adapter)

	adapter.EXPECT().
		Set(gomock.Any(), store.CollectionGoals, "g1", gomock.Any(), false).
		Return(nil)
	adapter.EXPECT().
		Set(gomock.Any(), store.CollectionGoals, "g1", map[string]float64{"savedAmount": 10}, true).
		Return(nil)
	adapter.EXPECT().
		Set(gomock.Any(), store.CollectionGoals, "g1", map[string]float64{"savedAmount": 60}, true).
		Return(nil)

	mgr.AddGoal(finance.Goal{ID: "g1", Name: "Trip", TargetAmount: 500})
	mgr.ContributeGoal("g1", 10)
	mgr.ContributeGoal("g1", 50)
	mgr.Wait()

	require.Len(t, mgr.Goals(), 1)
	assert.Equal(t, 60.0, mgr.Goals()[0].SavedAmount)
}

func TestManager_ContributeGoal_UnknownIDIsNoOp(t *testing.T) {
	ctrl := gomock.NewController(t)
	adapter := store.NewMockAdapter(ctrl)
	mgr := newAuthedManager(t, adapter)

	mgr.ContributeGoal("missing", 25)
	mgr.Wait()

	assert.Empty(t, mgr.Goals())
}

func TestManager_SetBudget_RoundTrips(t *testing.T) {
	ctrl := gomock.NewController(t)
	adapter := store.NewMockAdapter(ctrl)
	mgr := newAuthedManager(t, adapter)

	adapter.EXPECT().
		Set(gomock.Any(), store.CollectionSettings, store.SettingsDocID, gomock.Any(), true).
		Return(nil)

	submitted := finance.Budget{
		MonthlyIncome: 1000,
		Limits:        map[finance.Category]float64{finance.CategoryFood: 200},
	}

	mgr.SetBudget(submitted)
	mgr.Wait()

	got := mgr.Budget()
	assert.Equal(t, 1000.0, got.MonthlyIncome)
	assert.Equal(t, 200.0, got.Limits[finance.CategoryFood])
}

func TestManager_ToggleTheme_FlipsBetweenTwoValues(t *testing.T) {
	ctrl := gomock.NewController(t)
	adapter := store.NewMockAdapter(ctrl)
	mgr := newAuthedManager(t, adapter)

	adapter.EXPECT().
		Set(gomock.Any(), store.CollectionSettings, store.SettingsDocID, map[string]any{"theme": finance.ThemeLight}, true).
		Return(nil)
	adapter.EXPECT().
		Set(gomock.Any(), store.CollectionSettings, store.SettingsDocID, map[string]any{"theme": finance.ThemeDark}, true).
		Return(nil)

	assert.Equal(t, finance.ThemeLight, mgr.ToggleTheme())
	assert.Equal(t, finance.ThemeDark, mgr.ToggleTheme())
	mgr.Wait()
}

func TestManager_AddChatMessage_RapidAppendsKeepBoth(t *testing.T) {
	ctrl := gomock.NewController(t)
	adapter := store.NewMockAdapter(ctrl)
	mgr := newAuthedManager(t, adapter)

	adapter.EXPECT().
		Set(gomock.Any(), store.CollectionChat, gomock.Any(), gomock.Any(), false).
		Return(nil).
		Times(2)

	// Fired back to back without waiting on persistence, the way a user
	// message is chased by the assistant's reply.
	mgr.AddChatMessage(finance.ChatMessage{ID: "m1", Role: finance.RoleUser, Content: "hello"})
	mgr.AddChatMessage(finance.ChatMessage{ID: "m2", Role: finance.RoleAssistant, Content: "hi"})
	mgr.Wait()

	history := mgr.ChatHistory()
	require.Len(t, history, 2)
	assert.Equal(t, "m1", history[0].ID)
	assert.Equal(t, "m2", history[1].ID)
}

func TestManager_ClearChatHistory_AuthenticatedKeepsRemoteCopy(t *testing.T) {
	ctrl := gomock.NewController(t)
	adapter := store.NewMockAdapter(ctrl)
	mgr := newAuthedManager(t, adapter)

	adapter.EXPECT().
		Set(gomock.Any(), store.CollectionChat, "m1", gomock.Any(), false).
		Return(nil)

	mgr.AddChatMessage(finance.ChatMessage{ID: "m1", Role: finance.RoleUser, Content: "hello"})

	// No Clear expectation: authenticated sessions only clear memory.
	mgr.ClearChatHistory()
	mgr.Wait()

	assert.Empty(t, mgr.ChatHistory())
}

func TestManager_ClearChatHistory_GuestClearsPersistedCopy(t *testing.T) {
	ctrl := gomock.NewController(t)
	adapter := store.NewMockAdapter(ctrl)

	flags := &fakeFlags{}
	mgr := session.New(session.Config{
		Auth:  &fakeAuth{},
		Local: adapter,
		Flags: flags,
	})

	expectEmptyLoad(adapter)
	mgr.LoginAsGuest(context.Background())
	require.Equal(t, session.ModeGuest, mgr.Mode())
	assert.True(t, flags.active)

	adapter.EXPECT().
		Set(gomock.Any(), store.CollectionChat, "m1", gomock.Any(), false).
		Return(nil)
	adapter.EXPECT().
		Clear(gomock.Any(), store.CollectionChat).
		Return(nil)

	mgr.AddChatMessage(finance.ChatMessage{ID: "m1", Role: finance.RoleUser, Content: "hello", Timestamp: time.Now().UnixMilli()})
	mgr.ClearChatHistory()
	mgr.Wait()

	assert.Empty(t, mgr.ChatHistory())
}

func TestManager_DispatchFailureKeepsOptimisticState(t *testing.T) {
	ctrl := gomock.NewController(t)
	adapter := store.NewMockAdapter(ctrl)
	mgr := newAuthedManager(t, adapter)

	adapter.EXPECT().
		Set(gomock.Any(), store.CollectionExpenses, "e1", gomock.Any(), false).
		Return(errors.New("write rejected"))

	mgr.AddExpense(finance.Expense{ID: "e1", Description: "Lunch"})
	mgr.Wait()

	// The failure is logged and dropped; the user keeps their change.
	require.Len(t, mgr.Expenses(), 1)
}

func TestManager_Logout_GuestClearsFlagAndMemory(t *testing.T) {
	ctrl := gomock.NewController(t)
	adapter := store.NewMockAdapter(ctrl)

	flags := &fakeFlags{}
	mgr := session.New(session.Config{
		Auth:  &fakeAuth{},
		Local: adapter,
		Flags: flags,
	})

	expectEmptyLoad(adapter)
	mgr.LoginAsGuest(context.Background())

	adapter.EXPECT().
		Set(gomock.Any(), store.CollectionExpenses, "e1", gomock.Any(), false).
		Return(nil)

	mgr.AddExpense(finance.Expense{ID: "e1"})
	mgr.Wait()

	// No Clear/Delete expectations: local persisted data stays on disk.
	mgr.Logout(context.Background())

	assert.False(t, flags.active)
	assert.Equal(t, session.ModeNone, mgr.Mode())
	assert.Empty(t, mgr.Expenses())
}

func TestManager_Logout_AuthenticatedSignsOutAndResets(t *testing.T) {
	ctrl := gomock.NewController(t)
	adapter := store.NewMockAdapter(ctrl)

	authn := &fakeAuth{identity: &auth.Identity{UID: "u1"}}
	mgr := session.New(session.Config{
		Auth:   authn,
		Remote: func(string) store.Adapter { return adapter },
		Flags:  &fakeFlags{},
	})

	expectEmptyLoad(adapter)
	mgr.Initialize(context.Background())
	require.Equal(t, session.ModeAuthenticated, mgr.Mode())

	mgr.Logout(context.Background())

	assert.True(t, authn.signedOut)
	assert.Equal(t, session.ModeNone, mgr.Mode())
	assert.Empty(t, mgr.Expenses())
}
