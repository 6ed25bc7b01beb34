package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"lifeboard/internal/core"
	"lifeboard/internal/store"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; ledger transactions rely on it.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

// SetClock overrides the time source used to stamp records.
func (r *SQLiteRepository) SetClock(now func() time.Time) {
	r.now = now
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// inTx runs fn inside a database transaction, rolling back on error.
func (r *SQLiteRepository) inTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func requireOne(n int64, err error) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Tasks

func (r *SQLiteRepository) ListTasks(ctx context.Context) ([]core.Task, error) {
	rows, err := r.queries.ListTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return convertAll(rows, taskFromRow)
}

func (r *SQLiteRepository) GetTask(ctx context.Context, id string) (core.Task, error) {
	row, err := r.queries.GetTask(ctx, id)
	if err != nil {
		return core.Task{}, fmt.Errorf("get task %s: %w", id, notFound(err))
	}
	return taskFromRow(row)
}

func (r *SQLiteRepository) SaveTask(ctx context.Context, t core.Task) (core.Task, error) {
	if err := t.Validate(); err != nil {
		return core.Task{}, err
	}
	err := r.inTx(ctx, func(q *Queries) error {
		if t.ID == "" {
			t = store.PrepareTask(nil, t, r.now())
			row, err := taskToRow(t)
			if err != nil {
				return err
			}
			return q.InsertTask(ctx, row)
		}
		prevRow, err := q.GetTask(ctx, t.ID)
		if err != nil {
			return notFound(err)
		}
		prev, err := taskFromRow(prevRow)
		if err != nil {
			return err
		}
		t = store.PrepareTask(&prev, t, r.now())
		row, err := taskToRow(t)
		if err != nil {
			return err
		}
		return requireOne(q.UpdateTask(ctx, row))
	})
	if err != nil {
		return core.Task{}, fmt.Errorf("save task: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) DeleteTask(ctx context.Context, id string) error {
	if err := requireOne(r.queries.DeleteTask(ctx, id)); err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	return nil
}

// Budgets

func (r *SQLiteRepository) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	rows, err := r.queries.ListBudgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return convertAll(rows, budgetFromRow)
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, id string) (core.Budget, error) {
	row, err := r.queries.GetBudget(ctx, id)
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget %s: %w", id, notFound(err))
	}
	return budgetFromRow(row)
}

func (r *SQLiteRepository) SaveBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	err := r.inTx(ctx, func(q *Queries) error {
		if b.ID == "" {
			b = store.PrepareBudget(nil, b, r.now())
			return q.InsertBudget(ctx, budgetToRow(b))
		}
		prevRow, err := q.GetBudget(ctx, b.ID)
		if err != nil {
			return notFound(err)
		}
		prev, err := budgetFromRow(prevRow)
		if err != nil {
			return err
		}
		b = store.PrepareBudget(&prev, b, r.now())
		return requireOne(q.UpdateBudget(ctx, budgetToRow(b)))
	})
	if err != nil {
		return core.Budget{}, fmt.Errorf("save budget: %w", err)
	}
	return b, nil
}

// DeleteBudget removes the budget. Its transactions become quick expenses.
func (r *SQLiteRepository) DeleteBudget(ctx context.Context, id string) error {
	err := r.inTx(ctx, func(q *Queries) error {
		if err := q.DetachTransactions(ctx, id); err != nil {
			return err
		}
		return requireOne(q.DeleteBudget(ctx, id))
	})
	if err != nil {
		return fmt.Errorf("delete budget %s: %w", id, err)
	}
	return nil
}

// Transactions

func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return convertAll(rows, transactionFromRow)
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, notFound(err))
	}
	return transactionFromRow(row)
}

// InsertTransaction stores a new, unapplied transaction. Its budget's Spent
// is untouched until ApplyTransaction runs.
func (r *SQLiteRepository) InsertTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	tx = store.PrepareTransaction(tx, r.now())
	err := r.inTx(ctx, func(q *Queries) error {
		if tx.BudgetID != nil {
			if _, err := q.GetBudget(ctx, *tx.BudgetID); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return fmt.Errorf("%w: %s", store.ErrUnknownBudget, *tx.BudgetID)
				}
				return err
			}
		}
		return q.InsertTransaction(ctx, transactionToRow(tx))
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", tx.ID,
		"amount_cents", tx.Amount.Cents,
		"category", tx.Category,
		"quick", tx.IsQuick())
	return tx, nil
}

// ApplyTransaction adds the transaction's amount to its budget's Spent and
// marks it applied, atomically. It reports false when the transaction was
// already applied, so repeated calls change Spent once.
func (r *SQLiteRepository) ApplyTransaction(ctx context.Context, id string) (bool, error) {
	applied := false
	err := r.inTx(ctx, func(q *Queries) error {
		row, err := q.GetTransaction(ctx, id)
		if err != nil {
			return notFound(err)
		}
		if row.Applied {
			return nil
		}
		n, err := q.MarkTransactionApplied(ctx, id, formatTime(r.now()))
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		if row.BudgetID.Valid {
			if _, err := q.AddBudgetSpent(ctx, row.BudgetID.String, row.AmountCents); err != nil {
				return err
			}
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("apply transaction %s: %w", id, err)
	}
	return applied, nil
}

// DeleteTransaction removes the transaction, reversing its effect on Spent
// when it had been applied.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	err := r.inTx(ctx, func(q *Queries) error {
		row, err := q.GetTransaction(ctx, id)
		if err != nil {
			return notFound(err)
		}
		if row.Applied && row.BudgetID.Valid {
			if _, err := q.AddBudgetSpent(ctx, row.BudgetID.String, -row.AmountCents); err != nil {
				return err
			}
		}
		return requireOne(q.DeleteTransaction(ctx, id))
	})
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	return nil
}

// PendingTransactions returns up to limit unapplied transactions, oldest first.
func (r *SQLiteRepository) PendingTransactions(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.queries.ListPendingTransactions(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list pending transactions: %w", err)
	}
	return convertAll(rows, transactionFromRow)
}

// CountPending returns how many transactions wait for the ledger.
func (r *SQLiteRepository) CountPending(ctx context.Context) (int64, error) {
	n, err := r.queries.CountPendingTransactions(ctx)
	if err != nil {
		return 0, fmt.Errorf("count pending transactions: %w", err)
	}
	return n, nil
}

// Journal

func (r *SQLiteRepository) ListJournal(ctx context.Context) ([]core.JournalEntry, error) {
	rows, err := r.queries.ListJournalEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}
	return convertAll(rows, journalEntryFromRow)
}

func (r *SQLiteRepository) GetJournalEntry(ctx context.Context, id string) (core.JournalEntry, error) {
	row, err := r.queries.GetJournalEntry(ctx, id)
	if err != nil {
		return core.JournalEntry{}, fmt.Errorf("get journal entry %s: %w", id, notFound(err))
	}
	return journalEntryFromRow(row)
}

func (r *SQLiteRepository) SaveJournalEntry(ctx context.Context, e core.JournalEntry) (core.JournalEntry, error) {
	if err := e.Validate(); err != nil {
		return core.JournalEntry{}, err
	}
	err := r.inTx(ctx, func(q *Queries) error {
		if e.ID == "" {
			e = store.PrepareJournalEntry(nil, e, r.now())
			row, err := journalEntryToRow(e)
			if err != nil {
				return err
			}
			return q.InsertJournalEntry(ctx, row)
		}
		prevRow, err := q.GetJournalEntry(ctx, e.ID)
		if err != nil {
			return notFound(err)
		}
		prev, err := journalEntryFromRow(prevRow)
		if err != nil {
			return err
		}
		e = store.PrepareJournalEntry(&prev, e, r.now())
		row, err := journalEntryToRow(e)
		if err != nil {
			return err
		}
		return requireOne(q.UpdateJournalEntry(ctx, row))
	})
	if err != nil {
		return core.JournalEntry{}, fmt.Errorf("save journal entry: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) DeleteJournalEntry(ctx context.Context, id string) error {
	if err := requireOne(r.queries.DeleteJournalEntry(ctx, id)); err != nil {
		return fmt.Errorf("delete journal entry %s: %w", id, err)
	}
	return nil
}

// Import writes every record of ds as is, Spent and applied state included.
// Seeded transactions count as applied.
func (r *SQLiteRepository) Import(ctx context.Context, ds store.Dataset) error {
	return r.inTx(ctx, func(q *Queries) error {
		for _, t := range ds.Tasks {
			row, err := taskToRow(t)
			if err != nil {
				return err
			}
			if err := q.InsertTask(ctx, row); err != nil {
				return fmt.Errorf("import task %s: %w", t.ID, err)
			}
		}
		for _, b := range ds.Budgets {
			if err := q.InsertBudget(ctx, budgetToRow(b)); err != nil {
				return fmt.Errorf("import budget %s: %w", b.ID, err)
			}
		}
		for _, tx := range ds.Transactions {
			row := transactionToRow(tx)
			row.Applied = true
			row.AppliedAt = sql.NullString{String: formatTime(r.now()), Valid: true}
			if err := q.InsertTransaction(ctx, row); err != nil {
				return fmt.Errorf("import transaction %s: %w", tx.ID, err)
			}
		}
		for _, e := range ds.Journal {
			row, err := journalEntryToRow(e)
			if err != nil {
				return err
			}
			if err := q.InsertJournalEntry(ctx, row); err != nil {
				return fmt.Errorf("import journal entry %s: %w", e.ID, err)
			}
		}
		return nil
	})
}
