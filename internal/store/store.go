// Package store defines the persistence ports the HTTP API and the CLI read
// collections through. Backends live in subpackages (memory) or are adapted
// from the SQLite repository.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"lifeboard/internal/core"
)

var (
	// ErrNotFound is returned when a record with the requested ID does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrUnknownBudget is returned when a transaction references a missing budget.
	ErrUnknownBudget = errors.New("unknown budget")
)

// Ports for the persistence collaborator. Save creates a record when its ID
// is empty and replaces the stored record otherwise.
type (
	TaskStore interface {
		ListTasks(ctx context.Context) ([]core.Task, error)
		GetTask(ctx context.Context, id string) (core.Task, error)
		SaveTask(ctx context.Context, t core.Task) (core.Task, error)
		DeleteTask(ctx context.Context, id string) error
	}

	BudgetStore interface {
		ListBudgets(ctx context.Context) ([]core.Budget, error)
		GetBudget(ctx context.Context, id string) (core.Budget, error)
		SaveBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		DeleteBudget(ctx context.Context, id string) error
	}

	// TransactionStore records transactions through the ledger: recording a
	// budgeted transaction eventually raises that budget's Spent, deleting it
	// lowers Spent again.
	TransactionStore interface {
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
		RecordTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, id string) error
	}

	JournalStore interface {
		ListJournal(ctx context.Context) ([]core.JournalEntry, error)
		GetJournalEntry(ctx context.Context, id string) (core.JournalEntry, error)
		SaveJournalEntry(ctx context.Context, e core.JournalEntry) (core.JournalEntry, error)
		DeleteJournalEntry(ctx context.Context, id string) error
	}

	// Backend bundles every store a running application needs.
	Backend interface {
		TaskStore
		BudgetStore
		TransactionStore
		JournalStore
		// Ping reports whether the backend can serve requests.
		Ping(ctx context.Context) error
	}
)

// NewID returns a fresh record ID.
func NewID() string {
	return uuid.NewString()
}

// PrepareTask stamps a task for storage. prev is the stored version, nil on
// create. CompletedAt follows the Completed flag.
func PrepareTask(prev *core.Task, t core.Task, now time.Time) core.Task {
	if prev == nil {
		t.ID = NewID()
		t.CreatedAt = now
	} else {
		t.ID = prev.ID
		t.CreatedAt = prev.CreatedAt
		if t.Completed && t.CompletedAt == nil {
			t.CompletedAt = prev.CompletedAt
		}
	}
	switch {
	case !t.Completed:
		t.CompletedAt = nil
	case t.CompletedAt == nil:
		t.CompletedAt = &now
	}
	return t
}

// PrepareBudget stamps a budget for storage. Spent is owned by the ledger and
// is never taken from the caller.
func PrepareBudget(prev *core.Budget, b core.Budget, now time.Time) core.Budget {
	if prev == nil {
		b.ID = NewID()
		b.CreatedAt = now
		b.Spent = core.Money{}
		return b
	}
	b.ID = prev.ID
	b.CreatedAt = prev.CreatedAt
	b.Spent = prev.Spent
	return b
}

// PrepareTransaction stamps a new transaction. A blank budget ID becomes nil
// and a missing transaction date defaults to now.
func PrepareTransaction(tx core.Transaction, now time.Time) core.Transaction {
	tx.ID = NewID()
	tx.CreatedAt = now
	if tx.TransactionDate.IsZero() {
		tx.TransactionDate = now
	}
	if tx.BudgetID != nil {
		id := strings.TrimSpace(*tx.BudgetID)
		if id == "" {
			tx.BudgetID = nil
		} else {
			tx.BudgetID = &id
		}
	}
	return tx
}

// PrepareJournalEntry stamps a journal entry for storage. A missing entry
// date defaults to now on create.
func PrepareJournalEntry(prev *core.JournalEntry, e core.JournalEntry, now time.Time) core.JournalEntry {
	if prev == nil {
		e.ID = NewID()
		e.CreatedAt = now
		if e.EntryDate.IsZero() {
			e.EntryDate = now
		}
		return e
	}
	e.ID = prev.ID
	e.CreatedAt = prev.CreatedAt
	if e.EntryDate.IsZero() {
		e.EntryDate = prev.EntryDate
	}
	return e
}
