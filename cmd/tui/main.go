package main

import (
	"context"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/finvella/finvella/cmd/tui/internal/view"
	"github.com/finvella/finvella/internal/config"
	"github.com/finvella/finvella/internal/market"
	"github.com/finvella/finvella/internal/session"
	"github.com/finvella/finvella/internal/store/local"
)

type model struct {
	manager   *session.Manager
	marketSvc *market.Service
	kv        *local.KV

	currentView View

	expensesView view.ExpensesModel
	goalsView    view.GoalsModel
	marketView   view.MarketModel
}

type View int

const (
	ViewMenu     View = 0
	ViewExpenses View = 1
	ViewGoals    View = 2
	ViewMarket   View = 3
)

func initialModel() model {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	kv, err := local.OpenKV(cfg.Local.Path)
	if err != nil {
		slog.Error("failed to open local store", "error", err)
		os.Exit(1)
	}

	// The TUI always runs against the device-local guest session; the
	// remote backend stays out of the picture.
	manager := session.New(session.Config{
		Local:  local.NewAdapter(kv),
		Flags:  kv,
		Logger: slog.Default(),
	})

	ctx := context.Background()

	manager.Initialize(ctx)
	if manager.Mode() == session.ModeNone {
		manager.LoginAsGuest(ctx)
	}

	marketSvc := market.NewService()

	return model{
		manager:      manager,
		marketSvc:    marketSvc,
		kv:           kv,
		currentView:  ViewMenu,
		expensesView: view.NewExpensesModel(manager),
		goalsView:    view.NewGoalsModel(manager),
		marketView:   view.NewMarketModel(marketSvc),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.currentView == ViewMenu {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewExpenses
				m.expensesView = view.NewExpensesModel(m.manager)

				return m, m.expensesView.Init()
			case "2":
				m.currentView = ViewGoals
				m.goalsView = view.NewGoalsModel(m.manager)

				return m, m.goalsView.Init()
			case "3":
				m.currentView = ViewMarket
				m.marketView = view.NewMarketModel(m.marketSvc)

				return m, m.marketView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewExpenses:
		var newModel tea.Model
		newModel, cmd = m.expensesView.Update(msg)
		m.expensesView = newModel.(view.ExpensesModel)
	case ViewGoals:
		var newModel tea.Model
		newModel, cmd = m.goalsView.Update(msg)
		m.goalsView = newModel.(view.GoalsModel)
	case ViewMarket:
		var newModel tea.Model
		newModel, cmd = m.marketView.Update(msg)
		m.marketView = newModel.(view.MarketModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"Finvella TUI\n\n" +
				"1. Expenses\n" +
				"2. Savings Goals\n" +
				"3. Market Overview\n\n" +
				"q. Quit",
		)
	case ViewExpenses:
		return m.expensesView.View()
	case ViewGoals:
		return m.goalsView.View()
	case ViewMarket:
		return m.marketView.View()
	}

	return "Unknown View"
}

func main() {
	m := initialModel()

	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}

	// Let any in-flight persistence writes settle before closing the store.
	m.manager.Wait()
	m.kv.Close()
}
