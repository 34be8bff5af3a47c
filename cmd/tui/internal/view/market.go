package view

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/finvella/finvella/internal/market"
)

const marketTickInterval = 5 * time.Second

type MarketModel struct {
	CommonModel
	svc *market.Service

	table  table.Model
	quotes []market.Quote
}

func NewMarketModel(svc *market.Service) MarketModel {
	columns := []table.Column{
		{Title: "Symbol", Width: 8},
		{Title: "Name", Width: 20},
		{Title: "Type", Width: 8},
		{Title: "Price", Width: 14},
		{Title: "Change", Width: 10},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	m := MarketModel{
		svc:   svc,
		table: t,
	}
	m.refreshTable()

	return m
}

func (m MarketModel) Title() string     { return "Market Overview" }
func (m MarketModel) ShortHelp() string { return "Esc: back | r: refresh" }

type marketTickMsg time.Time

func marketTick() tea.Cmd {
	return tea.Tick(marketTickInterval, func(t time.Time) tea.Msg {
		return marketTickMsg(t)
	})
}

func (m MarketModel) Init() tea.Cmd {
	return marketTick()
}

func (m MarketModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case marketTickMsg:
		m.svc.Refresh()
		m.refreshTable()

		return m, marketTick()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.svc.Refresh()
			m.refreshTable()

			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m MarketModel) View() string {
	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	return lipgloss.NewStyle().Padding(1).Render(tableView)
}

func (m *MarketModel) refreshTable() {
	m.quotes = m.svc.Snapshot()

	rows := make([]table.Row, 0, len(m.quotes))
	for _, q := range m.quotes {
		change := fmt.Sprintf("%+.2f", q.Change)
		if q.Change >= 0 {
			change = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render(change)
		} else {
			change = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(change)
		}

		rows = append(rows, table.Row{
			q.Symbol,
			q.Name,
			string(q.Kind),
			fmt.Sprintf("$%.2f", q.Price),
			change,
		})
	}
	m.table.SetRows(rows)
}
