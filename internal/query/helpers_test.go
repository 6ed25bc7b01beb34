package query

import (
	"time"

	"lifeboard/internal/core"
)

// Wednesday afternoon; the surrounding Sunday is 2025-03-09.
var testNow = time.Date(2025, time.March, 12, 15, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time {
	return testNow.AddDate(0, 0, -n)
}

func timePtr(t time.Time) *time.Time { return &t }

func intPtr(v int) *int { return &v }

func strPtr(s string) *string { return &s }

func cents(v int64) core.Money { return core.Money{Cents: v} }

func ids[T any](items []T, id func(T) string) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = id(item)
	}
	return out
}

func taskIDs(tasks []core.Task) []string {
	return ids(tasks, func(t core.Task) string { return t.ID })
}

func budgetIDs(budgets []core.Budget) []string {
	return ids(budgets, func(b core.Budget) string { return b.ID })
}

func transactionIDs(txs []core.Transaction) []string {
	return ids(txs, func(tx core.Transaction) string { return tx.ID })
}

func journalIDs(entries []core.JournalEntry) []string {
	return ids(entries, func(e core.JournalEntry) string { return e.ID })
}
