package core

import (
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

const (
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
	Yearly  Period = "yearly"
	Custom  Period = "custom"
)

type (
	Priority string

	Period string

	Money struct {
		Cents int64 `json:"cents" yaml:"cents"`
	}

	Task struct {
		ID          string     `json:"id" yaml:"id"`
		Title       string     `json:"title" yaml:"title"`
		Description string     `json:"description,omitempty" yaml:"description"`
		Completed   bool       `json:"completed" yaml:"completed"`
		CompletedAt *time.Time `json:"completed_at,omitempty" yaml:"completed_at"`
		Priority    Priority   `json:"priority,omitempty" yaml:"priority"`
		DueDate     *time.Time `json:"due_date,omitempty" yaml:"due_date"`
		Project     string     `json:"project,omitempty" yaml:"project"`
		Labels      []string   `json:"labels,omitempty" yaml:"labels"`
		CreatedAt   time.Time  `json:"created_at" yaml:"created_at"`
	}

	Budget struct {
		ID        string     `json:"id" yaml:"id"`
		Name      string     `json:"name" yaml:"name"`
		Category  string     `json:"category" yaml:"category"`
		Amount    Money      `json:"amount" yaml:"amount"` // limit
		Spent     Money      `json:"spent" yaml:"spent"`   // maintained by the ledger
		Period    Period     `json:"period" yaml:"period"`
		StartDate time.Time  `json:"start_date" yaml:"start_date"`
		EndDate   *time.Time `json:"end_date,omitempty" yaml:"end_date"`
		CreatedAt time.Time  `json:"created_at" yaml:"created_at"`
	}

	// Transaction is a budget transaction. A nil BudgetID marks a quick expense.
	Transaction struct {
		ID              string    `json:"id" yaml:"id"`
		Amount          Money     `json:"amount" yaml:"amount"`
		Category        string    `json:"category" yaml:"category"`
		Description     string    `json:"description,omitempty" yaml:"description"`
		BudgetID        *string   `json:"budget_id" yaml:"budget_id"`
		TransactionDate time.Time `json:"transaction_date" yaml:"transaction_date"`
		CreatedAt       time.Time `json:"created_at" yaml:"created_at"`
	}

	JournalEntry struct {
		ID          string    `json:"id" yaml:"id"`
		Title       string    `json:"title" yaml:"title"`
		Content     string    `json:"content" yaml:"content"`
		EntryDate   time.Time `json:"entry_date" yaml:"entry_date"`
		ProjectID   string    `json:"project_id,omitempty" yaml:"project_id"`
		Mood        *int      `json:"mood,omitempty" yaml:"mood"`
		EnergyLevel *int      `json:"energy_level,omitempty" yaml:"energy_level"`
		Tags        []string  `json:"tags,omitempty" yaml:"tags"`
		CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrNegativeAmount   = errors.New("amount cannot be negative")
	ErrEmptyEntry       = errors.New("title or content is required")
	ErrEndBeforeStart   = errors.New("end date must not be before start date")
	ErrMissingStartDate = errors.New("start date is required")
	ErrOffScale         = errors.New("must be between 1 and 5")
)

// Rank maps a priority to its ordinal: high=3, medium=2, low=1, anything else 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// IsQuick reports whether the transaction is not tied to any budget.
func (t Transaction) IsQuick() bool {
	return t.BudgetID == nil || strings.TrimSpace(*t.BudgetID) == ""
}

// HasBudget reports whether the transaction belongs to budget id.
func (t Transaction) HasBudget(id string) bool {
	return !t.IsQuick() && *t.BudgetID == id
}

// Positive fails with ErrInvalidAmount unless the amount is above zero.
// Money must not implement validation.Validatable: budgets allow a zero limit.
func (m Money) Positive() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Task) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Title, validation.Required, validation.By(trimmedRequired), validation.RuneLength(1, 200)),
		validation.Field(&t.Description, validation.RuneLength(0, 5000)),
		validation.Field(&t.Priority, validation.In(PriorityLow, PriorityMedium, PriorityHigh)),
	)
}

func (b Budget) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.Name, validation.Required, validation.By(trimmedRequired), validation.RuneLength(1, 200)),
		validation.Field(&b.Category, validation.Required, validation.By(trimmedRequired)),
		validation.Field(&b.Amount, validation.By(nonNegativeMoney)),
		validation.Field(&b.Period, validation.Required, validation.In(Weekly, Monthly, Yearly, Custom)),
		validation.Field(&b.StartDate, validation.By(func(value interface{}) error {
			if start, _ := value.(time.Time); start.IsZero() {
				return ErrMissingStartDate
			}
			return nil
		})),
		validation.Field(&b.EndDate, validation.By(func(value interface{}) error {
			end, _ := value.(*time.Time)
			if end != nil && end.Before(b.StartDate) {
				return ErrEndBeforeStart
			}
			return nil
		})),
	)
}

func (t Transaction) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Amount, validation.By(func(value interface{}) error {
			m, _ := value.(Money)
			return m.Positive()
		})),
		validation.Field(&t.Category, validation.Required, validation.By(trimmedRequired)),
		validation.Field(&t.Description, validation.RuneLength(0, 200)),
	)
}

func (e JournalEntry) Validate() error {
	if strings.TrimSpace(e.Title) == "" && strings.TrimSpace(e.Content) == "" {
		return ErrEmptyEntry
	}
	return validation.ValidateStruct(&e,
		validation.Field(&e.Title, validation.RuneLength(0, 200)),
		validation.Field(&e.Mood, validation.By(onScale)),
		validation.Field(&e.EnergyLevel, validation.By(onScale)),
	)
}

func trimmedRequired(value interface{}) error {
	if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
		return validation.ErrRequired
	}
	return nil
}

// onScale accepts a nil score or one in 1..5.
func onScale(value interface{}) error {
	if v, ok := value.(*int); ok && v != nil && (*v < 1 || *v > 5) {
		return ErrOffScale
	}
	return nil
}

func nonNegativeMoney(value interface{}) error {
	if m, ok := value.(Money); ok && m.Cents < 0 {
		return ErrNegativeAmount
	}
	return nil
}

// IsValidationError reports whether err came from validating a record.
func IsValidationError(err error) bool {
	var errs validation.Errors
	if errors.As(err, &errs) {
		return true
	}
	var verr validation.Error
	if errors.As(err, &verr) {
		return true
	}
	for _, target := range []error{ErrEmptyEntry, ErrInvalidAmount, ErrNegativeAmount, ErrEndBeforeStart, ErrMissingStartDate, ErrOffScale} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
