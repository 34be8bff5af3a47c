package view

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/finvella/finvella/internal/finance"
	"github.com/finvella/finvella/internal/session"
)

type goalsState int

const (
	goalsStateBrowse goalsState = iota
	goalsStateAdd
	goalsStateContribute
)

type GoalsModel struct {
	CommonModel
	manager *session.Manager

	state goalsState
	table table.Model
	goals []finance.Goal
	form  *huh.Form

	status string

	// Form bindings
	formName     string
	formTarget   string
	formDeadline string
	formAmount   string
}

func NewGoalsModel(manager *session.Manager) GoalsModel {
	columns := []table.Column{
		{Title: "Name", Width: 24},
		{Title: "Saved", Width: 12},
		{Title: "Target", Width: 12},
		{Title: "Progress", Width: 10},
		{Title: "Deadline", Width: 12},
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

	m := GoalsModel{
		manager: manager,
		table:   t,
	}
	m.refreshTable()

	return m
}

func (m GoalsModel) Title() string { return "Savings Goals" }
func (m GoalsModel) ShortHelp() string {
	if m.state != goalsStateBrowse {
		return "Navigate form | Esc: cancel"
	}
	return "Esc: back | a: add | c: contribute | d: delete | r: refresh"
}

func (m GoalsModel) Init() tea.Cmd {
	return nil
}

func (m GoalsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if sizeMsg, ok := msg.(tea.WindowSizeMsg); ok {
		m.table.SetHeight(sizeMsg.Height - 10)
		return m, nil
	}

	switch m.state {
	case goalsStateBrowse:
		return m.updateBrowse(msg)
	default:
		return m.updateForm(msg)
	}
}

func (m GoalsModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.status = ""
			m.refreshTable()

			return m, nil
		case "a":
			return m.enterAddMode()
		case "c":
			return m.enterContributeMode()
		case "d":
			idx := m.table.Cursor()
			if idx >= 0 && idx < len(m.goals) {
				m.manager.DeleteGoal(m.goals[idx].ID)
				m.status = fmt.Sprintf("Deleted %q", m.goals[idx].Name)
				m.refreshTable()
			}

			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func positiveNumber(s string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v <= 0 {
		return fmt.Errorf("must be a positive number")
	}
	return nil
}

func (m GoalsModel) enterAddMode() (tea.Model, tea.Cmd) {
	m.formName = ""
	m.formTarget = ""
	m.formDeadline = ""

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("name").
				Title("Name").
				Value(&m.formName).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name cannot be empty")
					}
					return nil
				}),

			huh.NewInput().
				Key("target").
				Title("Target Amount").
				Placeholder("5000").
				Value(&m.formTarget).
				Validate(positiveNumber),

			huh.NewInput().
				Key("deadline").
				Title("Deadline").
				Placeholder("YYYY-MM-DD (optional)").
				Value(&m.formDeadline),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = goalsStateAdd
	m.table.Blur()
	return m, m.form.Init()
}

func (m GoalsModel) enterContributeMode() (tea.Model, tea.Cmd) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.goals) {
		return m, nil
	}

	m.formAmount = ""

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("amount").
				Title(fmt.Sprintf("Contribute to %q", m.goals[idx].Name)).
				Placeholder("100").
				Value(&m.formAmount).
				Validate(positiveNumber),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = goalsStateContribute
	m.table.Blur()
	return m, m.form.Init()
}

func (m GoalsModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = goalsStateBrowse
			m.form = nil
			m.table.Focus()
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	switch m.state {
	case goalsStateAdd:
		target, _ := strconv.ParseFloat(strings.TrimSpace(m.formTarget), 64)

		m.manager.AddGoal(finance.Goal{
			ID:           uuid.NewString(),
			Name:         strings.TrimSpace(m.formName),
			TargetAmount: target,
			Deadline:     strings.TrimSpace(m.formDeadline),
		})

		m.status = fmt.Sprintf("Added %q", strings.TrimSpace(m.formName))

	case goalsStateContribute:
		idx := m.table.Cursor()
		if idx >= 0 && idx < len(m.goals) {
			amount, _ := strconv.ParseFloat(strings.TrimSpace(m.formAmount), 64)
			m.manager.ContributeGoal(m.goals[idx].ID, amount)
			m.status = fmt.Sprintf("Contributed to %q", m.goals[idx].Name)
		}
	}

	m.state = goalsStateBrowse
	m.form = nil
	m.table.Focus()
	m.refreshTable()

	return m, nil
}

func (m GoalsModel) View() string {
	header := fmt.Sprintf("%d goals", len(m.goals))

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	if m.state != goalsStateBrowse && m.form != nil {
		title := "Add Goal"
		if m.state == goalsStateContribute {
			title = "Contribute"
		}

		panel := panelStyle().Render(title + "\n\n" + m.form.View())
		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m *GoalsModel) refreshTable() {
	m.goals = m.manager.Goals()
	symbol := m.manager.CurrencySymbol()

	rows := make([]table.Row, 0, len(m.goals))
	for _, g := range m.goals {
		progress := "0%"
		if g.TargetAmount > 0 {
			progress = fmt.Sprintf("%.0f%%", g.SavedAmount/g.TargetAmount*100)
		}

		rows = append(rows, table.Row{
			g.Name,
			FormatMoney(symbol, g.SavedAmount),
			FormatMoney(symbol, g.TargetAmount),
			progress,
			g.Deadline,
		})
	}
	m.table.SetRows(rows)
}
