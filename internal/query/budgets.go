package query

import (
	"cmp"
	"slices"
	"time"

	"lifeboard/internal/core"
)

// BudgetFilter selects budgets by state.
type BudgetFilter string

const (
	BudgetsAll        BudgetFilter = "all"
	BudgetsActive     BudgetFilter = "active"
	BudgetsOverBudget BudgetFilter = "over-budget"
	BudgetsNearLimit  BudgetFilter = "near-limit"
	BudgetsCategory   BudgetFilter = "category"
)

// ParseBudgetFilter maps a name onto a BudgetFilter; blank input means BudgetsAll.
func ParseBudgetFilter(s string) (BudgetFilter, error) {
	return parseEnum("budget filter", s, BudgetsAll,
		BudgetsAll, BudgetsActive, BudgetsOverBudget, BudgetsNearLimit, BudgetsCategory)
}

// BudgetSort names a budget ordering.
type BudgetSort string

const (
	BudgetsNewest     BudgetSort = "newest"
	BudgetsOldest     BudgetSort = "oldest"
	BudgetsByName     BudgetSort = "name"
	BudgetsAmountHigh BudgetSort = "amount-high"
	BudgetsAmountLow  BudgetSort = "amount-low"
	BudgetsSpentHigh  BudgetSort = "spent-high"
	BudgetsSpentLow   BudgetSort = "spent-low"
)

// ParseBudgetSort maps a name onto a BudgetSort; blank input means BudgetsNewest.
func ParseBudgetSort(s string) (BudgetSort, error) {
	return parseEnum("budget sort", s, BudgetsNewest,
		BudgetsNewest, BudgetsOldest, BudgetsByName, BudgetsAmountHigh, BudgetsAmountLow, BudgetsSpentHigh, BudgetsSpentLow)
}

// BudgetQuery holds every active budget predicate. Category only applies in
// the BudgetsCategory mode, and an empty Category selects every budget.
type BudgetQuery struct {
	Filter   BudgetFilter
	Search   string
	Category string
}

// IsActive reports whether now falls on or before the budget's end date,
// counting the whole of that calendar day in now's location.
// Budgets without an end date are not active.
func IsActive(b core.Budget, now time.Time) bool {
	return b.EndDate != nil && !now.After(EndOfDay(b.EndDate.In(now.Location())))
}

// IsOverBudget reports whether spent exceeds the limit.
func IsOverBudget(b core.Budget) bool {
	return b.Spent.Cents > b.Amount.Cents
}

// IsNearLimit reports whether spent/amount is above 80% and at most 100%.
func IsNearLimit(b core.Budget) bool {
	amount, spent := b.Amount.Cents, b.Spent.Cents
	if amount <= 0 {
		return false
	}
	// spent/amount > 4/5 without floating point
	return spent*5 > amount*4 && spent <= amount
}

// UsagePercent returns spent/amount*100, or 0 for a non-positive limit.
func UsagePercent(b core.Budget) float64 {
	return percent(b.Spent.Cents, b.Amount.Cents)
}

// FilterBudgets returns the budgets matching every predicate of q, in input order.
func FilterBudgets(budgets []core.Budget, q BudgetQuery, now time.Time) []core.Budget {
	out := make([]core.Budget, 0, len(budgets))
	for _, b := range budgets {
		if matchBudgetFilter(b, q, now) && matchesSearch(q.Search, b.Name, b.Category) {
			out = append(out, b)
		}
	}
	return out
}

func matchBudgetFilter(b core.Budget, q BudgetQuery, now time.Time) bool {
	switch q.Filter {
	case BudgetsAll, "":
		return true
	case BudgetsActive:
		return IsActive(b, now)
	case BudgetsOverBudget:
		return IsOverBudget(b)
	case BudgetsNearLimit:
		return IsNearLimit(b)
	case BudgetsCategory:
		return q.Category == "" || b.Category == q.Category
	default:
		return false
	}
}

// SortBudgets returns a stably sorted copy of budgets. Unknown keys keep input order.
func SortBudgets(budgets []core.Budget, key BudgetSort) []core.Budget {
	out := slices.Clone(budgets)
	var order func(a, b core.Budget) int
	switch key {
	case BudgetsNewest:
		order = func(a, b core.Budget) int { return b.CreatedAt.Compare(a.CreatedAt) }
	case BudgetsOldest:
		order = func(a, b core.Budget) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case BudgetsByName:
		compare := newTextComparer()
		order = func(a, b core.Budget) int { return compare(a.Name, b.Name) }
	case BudgetsAmountHigh:
		order = func(a, b core.Budget) int { return compareCents(b.Amount, a.Amount) }
	case BudgetsAmountLow:
		order = func(a, b core.Budget) int { return compareCents(a.Amount, b.Amount) }
	case BudgetsSpentHigh:
		order = func(a, b core.Budget) int { return compareCents(b.Spent, a.Spent) }
	case BudgetsSpentLow:
		order = func(a, b core.Budget) int { return compareCents(a.Spent, b.Spent) }
	default:
		return out
	}
	slices.SortStableFunc(out, order)
	return out
}

func compareCents(a, b core.Money) int {
	return cmp.Compare(a.Cents, b.Cents)
}

// BudgetStats summarizes all budgets together with unbudgeted spending.
type BudgetStats struct {
	TotalBudget     core.Money `json:"total_budget"`
	TotalSpent      core.Money `json:"total_spent"`
	QuickExpenses   core.Money `json:"quick_expenses"`
	Remaining       core.Money `json:"remaining"`
	PercentageUsed  float64    `json:"percentage_used"`
	OverBudget      bool       `json:"over_budget"`
	ActiveCount     int        `json:"active_count"`
	OverBudgetCount int        `json:"over_budget_count"`
	NearLimitCount  int        `json:"near_limit_count"`
}

// SummarizeBudgets totals every budget. Quick expenses (transactions without a
// budget) count towards total spent since no budget's Spent includes them.
func SummarizeBudgets(budgets []core.Budget, txs []core.Transaction, now time.Time) BudgetStats {
	var s BudgetStats
	for _, b := range budgets {
		s.TotalBudget = s.TotalBudget.Add(b.Amount)
		s.TotalSpent = s.TotalSpent.Add(b.Spent)
		if IsActive(b, now) {
			s.ActiveCount++
		}
		if IsOverBudget(b) {
			s.OverBudgetCount++
		}
		if IsNearLimit(b) {
			s.NearLimitCount++
		}
	}
	for _, tx := range txs {
		if tx.IsQuick() {
			s.QuickExpenses = s.QuickExpenses.Add(tx.Amount)
		}
	}
	s.TotalSpent = s.TotalSpent.Add(s.QuickExpenses)
	s.Remaining = s.TotalBudget.Sub(s.TotalSpent)
	s.PercentageUsed = percent(s.TotalSpent.Cents, s.TotalBudget.Cents)
	s.OverBudget = s.TotalSpent.Cents > s.TotalBudget.Cents
	return s
}
