package finance

// Category classifies an expense.
type Category string

const (
	CategoryFood          Category = "Food"
	CategoryRent          Category = "Rent"
	CategoryTransport     Category = "Transport"
	CategoryEntertainment Category = "Entertainment"
	CategorySubscriptions Category = "Subscriptions"
	CategoryShopping      Category = "Shopping"
	CategorySavings       Category = "Savings"
	CategoryEducation     Category = "Education"
	CategoryOther         Category = "Other"
)

// Categories lists every known category in display order.
var Categories = []Category{
	CategoryFood,
	CategoryRent,
	CategoryTransport,
	CategoryEntertainment,
	CategorySubscriptions,
	CategoryShopping,
	CategorySavings,
	CategoryEducation,
	CategoryOther,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}

	return false
}

// Expense is a single logged expense. Expenses are immutable once created;
// the only lifecycle operation besides creation is deletion.
type Expense struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Amount      float64  `json:"amount"`
	Category    Category `json:"category"`
	Date        string   `json:"date"` // calendar date, YYYY-MM-DD
}

// Goal is a savings goal. SavedAmount only ever moves through the
// contribute operation; it may exceed TargetAmount.
type Goal struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	TargetAmount float64 `json:"targetAmount"`
	SavedAmount  float64 `json:"savedAmount"`
	Deadline     string  `json:"deadline,omitempty"`
	Icon         string  `json:"icon,omitempty"`
}

// Budget holds the monthly income and per-category spending limits.
// There is at most one Budget per session; saves replace it wholesale.
type Budget struct {
	MonthlyIncome float64              `json:"monthlyIncome"`
	Limits        map[Category]float64 `json:"limits"`
}

// NewBudget returns the zero-value budget used before anything is persisted.
func NewBudget() Budget {
	return Budget{Limits: map[Category]float64{}}
}

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one turn of the assistant conversation. Messages are
// append-only and ordered by insertion.
type ChatMessage struct {
	ID        string `json:"id"`
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds
}

// Theme is the UI color scheme preference. Exactly two values exist.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Flip returns the other theme.
func (t Theme) Flip() Theme {
	if t == ThemeLight {
		return ThemeDark
	}

	return ThemeLight
}
