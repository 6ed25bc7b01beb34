// Package memory is an in-process backend. Ledger effects are applied inline
// under the store lock, so Spent is always consistent with the transactions.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"lifeboard/internal/core"
	"lifeboard/internal/store"
)

var _ store.Backend = (*Store)(nil)

type Store struct {
	mu           sync.Mutex
	now          func() time.Time
	tasks        []core.Task
	budgets      []core.Budget
	transactions []core.Transaction
	journal      []core.JournalEntry
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used to stamp records.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(opts ...Option) *Store {
	s := &Store{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFromDataset seeds a store with ds. Records are taken as they are, Spent
// included; seeded transactions are not applied again.
func NewFromDataset(ds store.Dataset, opts ...Option) *Store {
	s := New(opts...)
	s.tasks = slices.Clone(ds.Tasks)
	s.budgets = slices.Clone(ds.Budgets)
	s.transactions = slices.Clone(ds.Transactions)
	s.journal = slices.Clone(ds.Journal)
	return s
}

// NewFromFile seeds a store from a YAML dataset. An empty path yields an empty store.
func NewFromFile(path string, opts ...Option) (*Store, error) {
	if path == "" {
		return New(opts...), nil
	}
	ds, err := store.LoadDataset(path)
	if err != nil {
		return nil, err
	}
	return NewFromDataset(ds, opts...), nil
}

func (s *Store) Ping(context.Context) error { return nil }

// Snapshot returns a copy of every collection.
func (s *Store) Snapshot() store.Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return store.Dataset{
		Tasks:        slices.Clone(s.tasks),
		Budgets:      slices.Clone(s.budgets),
		Transactions: slices.Clone(s.transactions),
		Journal:      slices.Clone(s.journal),
	}
}

func indexOf[T any](items []T, id string, idOf func(T) string) int {
	return slices.IndexFunc(items, func(item T) bool { return idOf(item) == id })
}

func taskID(t core.Task) string                { return t.ID }
func budgetID(b core.Budget) string            { return b.ID }
func transactionID(tx core.Transaction) string { return tx.ID }
func journalID(e core.JournalEntry) string     { return e.ID }

// Tasks

func (s *Store) ListTasks(context.Context) ([]core.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.tasks), nil
}

func (s *Store) GetTask(_ context.Context, id string) (core.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.tasks, id, taskID)
	if i < 0 {
		return core.Task{}, store.ErrNotFound
	}
	return s.tasks[i], nil
}

func (s *Store) SaveTask(_ context.Context, t core.Task) (core.Task, error) {
	if err := t.Validate(); err != nil {
		return core.Task{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t = store.PrepareTask(nil, t, s.now())
		s.tasks = append(s.tasks, t)
		return t, nil
	}
	i := indexOf(s.tasks, t.ID, taskID)
	if i < 0 {
		return core.Task{}, store.ErrNotFound
	}
	t = store.PrepareTask(&s.tasks[i], t, s.now())
	s.tasks[i] = t
	return t, nil
}

func (s *Store) DeleteTask(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.tasks, id, taskID)
	if i < 0 {
		return store.ErrNotFound
	}
	s.tasks = slices.Delete(s.tasks, i, i+1)
	return nil
}

// Budgets

func (s *Store) ListBudgets(context.Context) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.budgets), nil
}

func (s *Store) GetBudget(_ context.Context, id string) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.budgets, id, budgetID)
	if i < 0 {
		return core.Budget{}, store.ErrNotFound
	}
	return s.budgets[i], nil
}

func (s *Store) SaveBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == "" {
		b = store.PrepareBudget(nil, b, s.now())
		s.budgets = append(s.budgets, b)
		return b, nil
	}
	i := indexOf(s.budgets, b.ID, budgetID)
	if i < 0 {
		return core.Budget{}, store.ErrNotFound
	}
	b = store.PrepareBudget(&s.budgets[i], b, s.now())
	s.budgets[i] = b
	return b, nil
}

// DeleteBudget removes the budget. Its transactions become quick expenses.
func (s *Store) DeleteBudget(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.budgets, id, budgetID)
	if i < 0 {
		return store.ErrNotFound
	}
	s.budgets = slices.Delete(s.budgets, i, i+1)
	for j := range s.transactions {
		if s.transactions[j].HasBudget(id) {
			s.transactions[j].BudgetID = nil
		}
	}
	return nil
}

// Transactions

func (s *Store) ListTransactions(context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.transactions), nil
}

// RecordTransaction stores tx and raises its budget's Spent in one step.
func (s *Store) RecordTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx = store.PrepareTransaction(tx, s.now())
	if tx.BudgetID != nil {
		i := indexOf(s.budgets, *tx.BudgetID, budgetID)
		if i < 0 {
			return core.Transaction{}, fmt.Errorf("%w: %s", store.ErrUnknownBudget, *tx.BudgetID)
		}
		s.budgets[i].Spent = s.budgets[i].Spent.Add(tx.Amount)
	}
	s.transactions = append(s.transactions, tx)
	return tx, nil
}

// DeleteTransaction removes tx and lowers its budget's Spent.
func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.transactions, id, transactionID)
	if i < 0 {
		return store.ErrNotFound
	}
	tx := s.transactions[i]
	if tx.BudgetID != nil {
		if j := indexOf(s.budgets, *tx.BudgetID, budgetID); j >= 0 {
			s.budgets[j].Spent = s.budgets[j].Spent.Sub(tx.Amount)
		}
	}
	s.transactions = slices.Delete(s.transactions, i, i+1)
	return nil
}

// Journal

func (s *Store) ListJournal(context.Context) ([]core.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.journal), nil
}

func (s *Store) GetJournalEntry(_ context.Context, id string) (core.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.journal, id, journalID)
	if i < 0 {
		return core.JournalEntry{}, store.ErrNotFound
	}
	return s.journal[i], nil
}

func (s *Store) SaveJournalEntry(_ context.Context, e core.JournalEntry) (core.JournalEntry, error) {
	if err := e.Validate(); err != nil {
		return core.JournalEntry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e = store.PrepareJournalEntry(nil, e, s.now())
		s.journal = append(s.journal, e)
		return e, nil
	}
	i := indexOf(s.journal, e.ID, journalID)
	if i < 0 {
		return core.JournalEntry{}, store.ErrNotFound
	}
	e = store.PrepareJournalEntry(&s.journal[i], e, s.now())
	s.journal[i] = e
	return e, nil
}

func (s *Store) DeleteJournalEntry(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.journal, id, journalID)
	if i < 0 {
		return store.ErrNotFound
	}
	s.journal = slices.Delete(s.journal, i, i+1)
	return nil
}
