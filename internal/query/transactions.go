package query

import (
	"cmp"
	"slices"
	"time"

	"lifeboard/internal/core"
)

// TransactionType selects transactions by budget membership.
type TransactionType string

const (
	TransactionsAll      TransactionType = "all"
	TransactionsBudgeted TransactionType = "budgeted"
	TransactionsQuick    TransactionType = "quick"
)

// ParseTransactionType maps a name onto a TransactionType; blank input means TransactionsAll.
func ParseTransactionType(s string) (TransactionType, error) {
	return parseEnum("transaction type", s, TransactionsAll, TransactionsAll, TransactionsBudgeted, TransactionsQuick)
}

// TransactionSort names a transaction ordering.
type TransactionSort string

const (
	TransactionsNewest     TransactionSort = "newest"
	TransactionsOldest     TransactionSort = "oldest"
	TransactionsAmountHigh TransactionSort = "amount-high"
	TransactionsAmountLow  TransactionSort = "amount-low"
)

// ParseTransactionSort maps a name onto a TransactionSort; blank input means TransactionsNewest.
func ParseTransactionSort(s string) (TransactionSort, error) {
	return parseEnum("transaction sort", s, TransactionsNewest,
		TransactionsNewest, TransactionsOldest, TransactionsAmountHigh, TransactionsAmountLow)
}

// TransactionQuery holds every active transaction predicate. BudgetIDs and
// Categories are multi-selects: empty selects all, otherwise any listed value
// matches. Quick expenses never match a non-empty BudgetIDs selection.
type TransactionQuery struct {
	Type       TransactionType
	BudgetIDs  []string
	Categories []string
	Range      DateRange
	Search     string
}

// FilterTransactions returns the transactions matching every predicate of q,
// in input order.
func FilterTransactions(txs []core.Transaction, q TransactionQuery, now time.Time) []core.Transaction {
	window := WindowFor(q.Range)
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if !matchTransactionType(tx, q.Type) {
			continue
		}
		if len(q.BudgetIDs) > 0 && (tx.IsQuick() || !inSet(*tx.BudgetID, q.BudgetIDs)) {
			continue
		}
		if !inSet(tx.Category, q.Categories) {
			continue
		}
		if !window.Contains(tx.TransactionDate, now) {
			continue
		}
		if !matchesSearch(q.Search, tx.Description, tx.Category) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

func matchTransactionType(tx core.Transaction, t TransactionType) bool {
	switch t {
	case TransactionsAll, "":
		return true
	case TransactionsBudgeted:
		return !tx.IsQuick()
	case TransactionsQuick:
		return tx.IsQuick()
	default:
		return false
	}
}

// SortTransactions returns a stably sorted copy of txs. Unknown keys keep input order.
func SortTransactions(txs []core.Transaction, key TransactionSort) []core.Transaction {
	out := slices.Clone(txs)
	var order func(a, b core.Transaction) int
	switch key {
	case TransactionsNewest:
		order = func(a, b core.Transaction) int { return b.CreatedAt.Compare(a.CreatedAt) }
	case TransactionsOldest:
		order = func(a, b core.Transaction) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case TransactionsAmountHigh:
		order = func(a, b core.Transaction) int { return compareCents(b.Amount, a.Amount) }
	case TransactionsAmountLow:
		order = func(a, b core.Transaction) int { return compareCents(a.Amount, b.Amount) }
	default:
		return out
	}
	slices.SortStableFunc(out, order)
	return out
}

// TransactionStats summarizes a set of transactions.
type TransactionStats struct {
	Count      int                   `json:"count"`
	Total      core.Money            `json:"total"`
	Budgeted   core.Money            `json:"budgeted"`
	Quick      core.Money            `json:"quick"`
	ByCategory []core.CategoryAmount `json:"by_category"`
}

// SummarizeTransactions totals txs overall, by budget membership and by
// category. Categories are ordered by amount, highest first, then by name.
func SummarizeTransactions(txs []core.Transaction) TransactionStats {
	s := TransactionStats{Count: len(txs), ByCategory: []core.CategoryAmount{}}
	index := make(map[string]int)
	for _, tx := range txs {
		s.Total = s.Total.Add(tx.Amount)
		if tx.IsQuick() {
			s.Quick = s.Quick.Add(tx.Amount)
		} else {
			s.Budgeted = s.Budgeted.Add(tx.Amount)
		}
		i, ok := index[tx.Category]
		if !ok {
			i = len(s.ByCategory)
			index[tx.Category] = i
			s.ByCategory = append(s.ByCategory, core.CategoryAmount{Name: tx.Category})
		}
		s.ByCategory[i].Amount = s.ByCategory[i].Amount.Add(tx.Amount)
		s.ByCategory[i].Count++
	}
	slices.SortStableFunc(s.ByCategory, func(a, b core.CategoryAmount) int {
		if c := cmp.Compare(b.Amount.Cents, a.Amount.Cents); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return s
}
