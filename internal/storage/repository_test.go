package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"lifeboard/internal/core"
	"lifeboard/internal/store"
)

var testNow = time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	repo.SetClock(func() time.Time { return testNow })
	t.Cleanup(func() { repo.Close() })
	return repo
}

func intPtr(v int) *int { return &v }

func newBudget(t *testing.T, repo *SQLiteRepository, amountCents int64) core.Budget {
	t.Helper()
	b, err := repo.SaveBudget(context.Background(), core.Budget{
		Name:      "Groceries",
		Category:  "food",
		Amount:    core.Money{Cents: amountCents},
		Period:    core.Monthly,
		StartDate: testNow.AddDate(0, 0, -11),
	})
	if err != nil {
		t.Fatalf("SaveBudget() error = %v", err)
	}
	return b
}

func TestMigrate_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	v1, err := Migrate(path)
	if err != nil {
		t.Fatalf("first Migrate() error = %v", err)
	}
	v2, err := Migrate(path)
	if err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
	if v1 != 1 || v2 != 1 {
		t.Errorf("versions = %d, %d; want 1, 1", v1, v2)
	}
}

func TestRepository_TaskRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	due := testNow.AddDate(0, 0, 2)
	created, err := repo.SaveTask(ctx, core.Task{
		Title:    "Write report",
		Priority: core.PriorityHigh,
		DueDate:  &due,
		Project:  "work",
		Labels:   []string{"q1", "finance"},
	})
	if err != nil {
		t.Fatalf("SaveTask() error = %v", err)
	}

	got, err := repo.GetTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if got.Title != "Write report" || got.Priority != core.PriorityHigh || got.Project != "work" {
		t.Errorf("GetTask() = %+v", got)
	}
	if got.DueDate == nil || !got.DueDate.Equal(due) {
		t.Errorf("DueDate = %v, want %v", got.DueDate, due)
	}
	if len(got.Labels) != 2 || got.Labels[1] != "finance" {
		t.Errorf("Labels = %v", got.Labels)
	}
	if !got.CreatedAt.Equal(testNow) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, testNow)
	}

	got.Completed = true
	if _, err := repo.SaveTask(ctx, got); err != nil {
		t.Fatalf("SaveTask(update) error = %v", err)
	}
	tasks, err := repo.ListTasks(ctx)
	if err != nil || len(tasks) != 1 {
		t.Fatalf("ListTasks() = %v, %v", tasks, err)
	}
	if tasks[0].CompletedAt == nil {
		t.Error("CompletedAt should be set after completing")
	}

	if err := repo.DeleteTask(ctx, created.ID); err != nil {
		t.Fatalf("DeleteTask() error = %v", err)
	}
	if err := repo.DeleteTask(ctx, created.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second DeleteTask() error = %v, want ErrNotFound", err)
	}
	if _, err := repo.SaveTask(ctx, core.Task{ID: "missing", Title: "x"}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("SaveTask(missing) error = %v, want ErrNotFound", err)
	}
}

func TestRepository_JournalRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	e, err := repo.SaveJournalEntry(ctx, core.JournalEntry{Title: "Monday", Mood: intPtr(4), Tags: []string{"work"}})
	if err != nil {
		t.Fatalf("SaveJournalEntry() error = %v", err)
	}
	got, err := repo.GetJournalEntry(ctx, e.ID)
	if err != nil {
		t.Fatalf("GetJournalEntry() error = %v", err)
	}
	if got.Mood == nil || *got.Mood != 4 || got.EnergyLevel != nil {
		t.Errorf("ratings = %v / %v", got.Mood, got.EnergyLevel)
	}
	if !got.EntryDate.Equal(testNow) || len(got.Tags) != 1 {
		t.Errorf("GetJournalEntry() = %+v", got)
	}
	if _, err := repo.GetJournalEntry(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetJournalEntry(missing) error = %v", err)
	}
}

func TestRepository_ApplyTransactionIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	b := newBudget(t, repo, 10000)

	tx, err := repo.InsertTransaction(ctx, core.Transaction{Amount: core.Money{Cents: 2500}, Category: "food", BudgetID: &b.ID})
	if err != nil {
		t.Fatalf("InsertTransaction() error = %v", err)
	}

	if got, _ := repo.GetBudget(ctx, b.ID); got.Spent.Cents != 0 {
		t.Fatalf("Spent before apply = %d, want 0", got.Spent.Cents)
	}
	pending, _ := repo.PendingTransactions(ctx, 10)
	if len(pending) != 1 || pending[0].ID != tx.ID {
		t.Fatalf("PendingTransactions() = %+v", pending)
	}

	applied, err := repo.ApplyTransaction(ctx, tx.ID)
	if err != nil || !applied {
		t.Fatalf("first ApplyTransaction() = %v, %v", applied, err)
	}
	applied, err = repo.ApplyTransaction(ctx, tx.ID)
	if err != nil || applied {
		t.Fatalf("second ApplyTransaction() = %v, %v; want false, nil", applied, err)
	}

	got, _ := repo.GetBudget(ctx, b.ID)
	if got.Spent.Cents != 2500 {
		t.Errorf("Spent = %d, want 2500", got.Spent.Cents)
	}
	if n, _ := repo.CountPending(ctx); n != 0 {
		t.Errorf("CountPending() = %d, want 0", n)
	}

	if _, err := repo.ApplyTransaction(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("ApplyTransaction(missing) error = %v", err)
	}
}

func TestRepository_DeleteTransactionReversesOnlyApplied(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	b := newBudget(t, repo, 10000)

	applied, _ := repo.InsertTransaction(ctx, core.Transaction{Amount: core.Money{Cents: 4000}, Category: "food", BudgetID: &b.ID})
	pending, _ := repo.InsertTransaction(ctx, core.Transaction{Amount: core.Money{Cents: 1000}, Category: "food", BudgetID: &b.ID})
	if _, err := repo.ApplyTransaction(ctx, applied.ID); err != nil {
		t.Fatal(err)
	}

	if err := repo.DeleteTransaction(ctx, pending.ID); err != nil {
		t.Fatalf("DeleteTransaction(pending) error = %v", err)
	}
	if got, _ := repo.GetBudget(ctx, b.ID); got.Spent.Cents != 4000 {
		t.Errorf("Spent after deleting pending = %d, want 4000", got.Spent.Cents)
	}

	if err := repo.DeleteTransaction(ctx, applied.ID); err != nil {
		t.Fatalf("DeleteTransaction(applied) error = %v", err)
	}
	if got, _ := repo.GetBudget(ctx, b.ID); got.Spent.Cents != 0 {
		t.Errorf("Spent after deleting applied = %d, want 0", got.Spent.Cents)
	}
}

func TestRepository_BudgetUpdateKeepsSpent(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	b := newBudget(t, repo, 10000)

	tx, _ := repo.InsertTransaction(ctx, core.Transaction{Amount: core.Money{Cents: 900}, Category: "food", BudgetID: &b.ID})
	if _, err := repo.ApplyTransaction(ctx, tx.ID); err != nil {
		t.Fatal(err)
	}

	b.Name = "Food"
	b.Amount = core.Money{Cents: 20000}
	b.Spent = core.Money{}
	updated, err := repo.SaveBudget(ctx, b)
	if err != nil {
		t.Fatalf("SaveBudget(update) error = %v", err)
	}
	if updated.Spent.Cents != 900 {
		t.Errorf("returned Spent = %d, want 900", updated.Spent.Cents)
	}
	got, _ := repo.GetBudget(ctx, b.ID)
	if got.Spent.Cents != 900 || got.Amount.Cents != 20000 || got.Name != "Food" {
		t.Errorf("GetBudget() = %+v", got)
	}
}

func TestRepository_InsertTransactionValidation(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	missing := "nope"
	if _, err := repo.InsertTransaction(ctx, core.Transaction{Amount: core.Money{Cents: 100}, Category: "food", BudgetID: &missing}); !errors.Is(err, store.ErrUnknownBudget) {
		t.Errorf("unknown budget error = %v", err)
	}
	if _, err := repo.InsertTransaction(ctx, core.Transaction{Category: "food"}); !core.IsValidationError(err) {
		t.Errorf("zero amount error = %v, want validation error", err)
	}
}

func TestRepository_DeleteBudgetDetachesTransactions(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	b := newBudget(t, repo, 5000)
	if _, err := repo.InsertTransaction(ctx, core.Transaction{Amount: core.Money{Cents: 100}, Category: "food", BudgetID: &b.ID}); err != nil {
		t.Fatal(err)
	}

	if err := repo.DeleteBudget(ctx, b.ID); err != nil {
		t.Fatalf("DeleteBudget() error = %v", err)
	}
	txs, _ := repo.ListTransactions(ctx)
	if len(txs) != 1 || !txs[0].IsQuick() {
		t.Errorf("transactions = %+v", txs)
	}
	if err := repo.DeleteBudget(ctx, b.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second DeleteBudget() error = %v", err)
	}
}

func TestRepository_Import(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	budgetID := "b1"
	ds := store.Dataset{
		Tasks:        []core.Task{{ID: "t1", Title: "Seeded", CreatedAt: testNow}},
		Budgets:      []core.Budget{{ID: budgetID, Name: "Fuel", Category: "transport", Amount: core.Money{Cents: 100}, Spent: core.Money{Cents: 40}, Period: core.Weekly, StartDate: testNow, CreatedAt: testNow}},
		Transactions: []core.Transaction{{ID: "x1", Amount: core.Money{Cents: 40}, Category: "transport", BudgetID: &budgetID, TransactionDate: testNow, CreatedAt: testNow}},
	}
	if err := repo.Import(ctx, ds); err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if n, _ := repo.CountPending(ctx); n != 0 {
		t.Errorf("imported transactions should count as applied, %d pending", n)
	}
	if b, _ := repo.GetBudget(ctx, budgetID); b.Spent.Cents != 40 {
		t.Errorf("Spent = %d, want 40", b.Spent.Cents)
	}
}
