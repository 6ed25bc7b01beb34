package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Queries holds the hand-written statements of the repository.
type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type scanner interface {
	Scan(dest ...any) error
}

func rowsAffected(res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Tasks

const taskColumns = `id, title, description, completed, completed_at, priority, due_date, project, labels, created_at`

func scanTask(s scanner) (TaskRow, error) {
	var r TaskRow
	err := s.Scan(&r.ID, &r.Title, &r.Description, &r.Completed, &r.CompletedAt, &r.Priority, &r.DueDate, &r.Project, &r.Labels, &r.CreatedAt)
	return r, err
}

const listTasks = `SELECT ` + taskColumns + ` FROM tasks ORDER BY rowid`

func (q *Queries) ListTasks(ctx context.Context) ([]TaskRow, error) {
	return queryAll(ctx, q.db, listTasks, scanTask)
}

const getTask = `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`

func (q *Queries) GetTask(ctx context.Context, id string) (TaskRow, error) {
	return scanTask(q.db.QueryRowContext(ctx, getTask, id))
}

const insertTask = `INSERT INTO tasks (` + taskColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertTask(ctx context.Context, r TaskRow) error {
	_, err := q.db.ExecContext(ctx, insertTask,
		r.ID, r.Title, r.Description, r.Completed, r.CompletedAt, r.Priority, r.DueDate, r.Project, r.Labels, r.CreatedAt)
	return err
}

const updateTask = `UPDATE tasks
SET title = ?, description = ?, completed = ?, completed_at = ?, priority = ?, due_date = ?, project = ?, labels = ?
WHERE id = ?`

func (q *Queries) UpdateTask(ctx context.Context, r TaskRow) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, updateTask,
		r.Title, r.Description, r.Completed, r.CompletedAt, r.Priority, r.DueDate, r.Project, r.Labels, r.ID))
}

const deleteTask = `DELETE FROM tasks WHERE id = ?`

func (q *Queries) DeleteTask(ctx context.Context, id string) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, deleteTask, id))
}

// Budgets

const budgetColumns = `id, name, category, amount_cents, spent_cents, period, start_date, end_date, created_at`

func scanBudget(s scanner) (BudgetRow, error) {
	var r BudgetRow
	err := s.Scan(&r.ID, &r.Name, &r.Category, &r.AmountCents, &r.SpentCents, &r.Period, &r.StartDate, &r.EndDate, &r.CreatedAt)
	return r, err
}

const listBudgets = `SELECT ` + budgetColumns + ` FROM budgets ORDER BY rowid`

func (q *Queries) ListBudgets(ctx context.Context) ([]BudgetRow, error) {
	return queryAll(ctx, q.db, listBudgets, scanBudget)
}

const getBudget = `SELECT ` + budgetColumns + ` FROM budgets WHERE id = ?`

func (q *Queries) GetBudget(ctx context.Context, id string) (BudgetRow, error) {
	return scanBudget(q.db.QueryRowContext(ctx, getBudget, id))
}

const insertBudget = `INSERT INTO budgets (` + budgetColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertBudget(ctx context.Context, r BudgetRow) error {
	_, err := q.db.ExecContext(ctx, insertBudget,
		r.ID, r.Name, r.Category, r.AmountCents, r.SpentCents, r.Period, r.StartDate, r.EndDate, r.CreatedAt)
	return err
}

// updateBudget leaves spent_cents alone: only the ledger writes it.
const updateBudget = `UPDATE budgets
SET name = ?, category = ?, amount_cents = ?, period = ?, start_date = ?, end_date = ?
WHERE id = ?`

func (q *Queries) UpdateBudget(ctx context.Context, r BudgetRow) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, updateBudget,
		r.Name, r.Category, r.AmountCents, r.Period, r.StartDate, r.EndDate, r.ID))
}

const addBudgetSpent = `UPDATE budgets SET spent_cents = spent_cents + ? WHERE id = ?`

func (q *Queries) AddBudgetSpent(ctx context.Context, id string, deltaCents int64) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, addBudgetSpent, deltaCents, id))
}

const deleteBudget = `DELETE FROM budgets WHERE id = ?`

func (q *Queries) DeleteBudget(ctx context.Context, id string) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, deleteBudget, id))
}

const detachTransactions = `UPDATE transactions SET budget_id = NULL WHERE budget_id = ?`

func (q *Queries) DetachTransactions(ctx context.Context, budgetID string) error {
	_, err := q.db.ExecContext(ctx, detachTransactions, budgetID)
	return err
}

// Transactions

const transactionColumns = `id, amount_cents, category, description, budget_id, transaction_date, created_at, applied, applied_at`

func scanTransaction(s scanner) (TransactionRow, error) {
	var r TransactionRow
	err := s.Scan(&r.ID, &r.AmountCents, &r.Category, &r.Description, &r.BudgetID, &r.TransactionDate, &r.CreatedAt, &r.Applied, &r.AppliedAt)
	return r, err
}

const listTransactions = `SELECT ` + transactionColumns + ` FROM transactions ORDER BY rowid`

func (q *Queries) ListTransactions(ctx context.Context) ([]TransactionRow, error) {
	return queryAll(ctx, q.db, listTransactions, scanTransaction)
}

const getTransaction = `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`

func (q *Queries) GetTransaction(ctx context.Context, id string) (TransactionRow, error) {
	return scanTransaction(q.db.QueryRowContext(ctx, getTransaction, id))
}

const listPendingTransactions = `SELECT ` + transactionColumns + ` FROM transactions
WHERE applied = 0
ORDER BY created_at, rowid
LIMIT ?`

func (q *Queries) ListPendingTransactions(ctx context.Context, limit int64) ([]TransactionRow, error) {
	return queryAll(ctx, q.db, listPendingTransactions, scanTransaction, limit)
}

const insertTransaction = `INSERT INTO transactions (` + transactionColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertTransaction(ctx context.Context, r TransactionRow) error {
	_, err := q.db.ExecContext(ctx, insertTransaction,
		r.ID, r.AmountCents, r.Category, r.Description, r.BudgetID, r.TransactionDate, r.CreatedAt, r.Applied, r.AppliedAt)
	return err
}

const markTransactionApplied = `UPDATE transactions SET applied = 1, applied_at = ? WHERE id = ? AND applied = 0`

func (q *Queries) MarkTransactionApplied(ctx context.Context, id, appliedAt string) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, markTransactionApplied, appliedAt, id))
}

const deleteTransaction = `DELETE FROM transactions WHERE id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, id string) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, deleteTransaction, id))
}

const countPendingTransactions = `SELECT COUNT(*) FROM transactions WHERE applied = 0`

func (q *Queries) CountPendingTransactions(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countPendingTransactions).Scan(&n)
	return n, err
}

// Journal

const journalColumns = `id, title, content, entry_date, project_id, mood, energy_level, tags, created_at`

func scanJournalEntry(s scanner) (JournalEntryRow, error) {
	var r JournalEntryRow
	err := s.Scan(&r.ID, &r.Title, &r.Content, &r.EntryDate, &r.ProjectID, &r.Mood, &r.EnergyLevel, &r.Tags, &r.CreatedAt)
	return r, err
}

const listJournalEntries = `SELECT ` + journalColumns + ` FROM journal_entries ORDER BY rowid`

func (q *Queries) ListJournalEntries(ctx context.Context) ([]JournalEntryRow, error) {
	return queryAll(ctx, q.db, listJournalEntries, scanJournalEntry)
}

const getJournalEntry = `SELECT ` + journalColumns + ` FROM journal_entries WHERE id = ?`

func (q *Queries) GetJournalEntry(ctx context.Context, id string) (JournalEntryRow, error) {
	return scanJournalEntry(q.db.QueryRowContext(ctx, getJournalEntry, id))
}

const insertJournalEntry = `INSERT INTO journal_entries (` + journalColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertJournalEntry(ctx context.Context, r JournalEntryRow) error {
	_, err := q.db.ExecContext(ctx, insertJournalEntry,
		r.ID, r.Title, r.Content, r.EntryDate, r.ProjectID, r.Mood, r.EnergyLevel, r.Tags, r.CreatedAt)
	return err
}

const updateJournalEntry = `UPDATE journal_entries
SET title = ?, content = ?, entry_date = ?, project_id = ?, mood = ?, energy_level = ?, tags = ?
WHERE id = ?`

func (q *Queries) UpdateJournalEntry(ctx context.Context, r JournalEntryRow) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, updateJournalEntry,
		r.Title, r.Content, r.EntryDate, r.ProjectID, r.Mood, r.EnergyLevel, r.Tags, r.ID))
}

const deleteJournalEntry = `DELETE FROM journal_entries WHERE id = ?`

func (q *Queries) DeleteJournalEntry(ctx context.Context, id string) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, deleteJournalEntry, id))
}

func queryAll[T any](ctx context.Context, db DBTX, query string, scan func(scanner) (T, error), args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
