package view

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/finvella/finvella/internal/finance"
	"github.com/finvella/finvella/internal/session"
)

type expensesState int

const (
	expensesStateBrowse expensesState = iota
	expensesStateAdd
)

type ExpensesModel struct {
	CommonModel
	manager *session.Manager

	state    expensesState
	table    table.Model
	expenses []finance.Expense
	form     *huh.Form

	status string

	// Form bindings
	formDesc     string
	formAmount   string
	formCategory finance.Category
	formDate     string
}

func NewExpensesModel(manager *session.Manager) ExpensesModel {
	columns := []table.Column{
		{Title: "Date", Width: 12},
		{Title: "Category", Width: 16},
		{Title: "Amount", Width: 12},
		{Title: "Description", Width: 40},
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

	m := ExpensesModel{
		manager: manager,
		table:   t,
	}
	m.refreshTable()

	return m
}

func (m ExpensesModel) Title() string { return "Expenses" }
func (m ExpensesModel) ShortHelp() string {
	if m.state == expensesStateAdd {
		return "Navigate form | Esc: cancel"
	}
	return "Esc: back | a: add | d: delete | r: refresh"
}

func (m ExpensesModel) Init() tea.Cmd {
	return nil
}

func (m ExpensesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if sizeMsg, ok := msg.(tea.WindowSizeMsg); ok {
		m.table.SetHeight(sizeMsg.Height - 10)
		return m, nil
	}

	switch m.state {
	case expensesStateBrowse:
		return m.updateBrowse(msg)
	case expensesStateAdd:
		return m.updateAdd(msg)
	}

	return m, nil
}

func (m ExpensesModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
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
		case "d":
			idx := m.table.Cursor()
			if idx >= 0 && idx < len(m.expenses) {
				m.manager.DeleteExpense(m.expenses[idx].ID)
				m.status = fmt.Sprintf("Deleted %q", m.expenses[idx].Description)
				m.refreshTable()
			}

			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m ExpensesModel) enterAddMode() (tea.Model, tea.Cmd) {
	m.formDesc = ""
	m.formAmount = ""
	m.formCategory = finance.CategoryOther
	m.formDate = time.Now().Format("2006-01-02")

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("description").
				Title("Description").
				Value(&m.formDesc).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("description cannot be empty")
					}
					return nil
				}),

			huh.NewInput().
				Key("amount").
				Title("Amount").
				Placeholder("12.50").
				Value(&m.formAmount).
				Validate(func(s string) error {
					v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
					if err != nil || v <= 0 {
						return fmt.Errorf("amount must be a positive number")
					}
					return nil
				}),

			huh.NewSelect[finance.Category]().
				Key("category").
				Title("Category").
				Options(huh.NewOptions(finance.Categories...)...).
				Value(&m.formCategory),

			huh.NewInput().
				Key("date").
				Title("Date").
				Placeholder("YYYY-MM-DD").
				Value(&m.formDate).
				Validate(func(s string) error {
					if _, err := time.Parse("2006-01-02", strings.TrimSpace(s)); err != nil {
						return fmt.Errorf("date must be YYYY-MM-DD")
					}
					return nil
				}),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = expensesStateAdd
	m.table.Blur()
	return m, m.form.Init()
}

func (m ExpensesModel) updateAdd(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = expensesStateBrowse
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

	amount, _ := strconv.ParseFloat(strings.TrimSpace(m.formAmount), 64)

	m.manager.AddExpense(finance.Expense{
		ID:          uuid.NewString(),
		Description: strings.TrimSpace(m.formDesc),
		Amount:      amount,
		Category:    m.formCategory,
		Date:        strings.TrimSpace(m.formDate),
	})

	m.status = fmt.Sprintf("Added %q", strings.TrimSpace(m.formDesc))
	m.state = expensesStateBrowse
	m.form = nil
	m.table.Focus()
	m.refreshTable()

	return m, nil
}

func (m ExpensesModel) View() string {
	symbol := m.manager.CurrencySymbol()

	header := fmt.Sprintf("%d expenses | Total: %s",
		len(m.expenses),
		activeStyle(FormatMoney(symbol, m.total())),
	)

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	if m.state == expensesStateAdd && m.form != nil {
		panel := panelStyle().Render("Add Expense\n\n" + m.form.View())
		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m ExpensesModel) total() float64 {
	var total float64
	for _, e := range m.expenses {
		total += e.Amount
	}

	return total
}

func (m *ExpensesModel) refreshTable() {
	m.expenses = m.manager.Expenses()
	symbol := m.manager.CurrencySymbol()

	rows := make([]table.Row, 0, len(m.expenses))
	for _, e := range m.expenses {
		rows = append(rows, table.Row{
			e.Date,
			string(e.Category),
			FormatMoney(symbol, e.Amount),
			e.Description,
		})
	}
	m.table.SetRows(rows)
}
