package report

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"lifeboard/internal/core"
	"lifeboard/internal/query"
	"lifeboard/internal/store"
	"lifeboard/internal/store/memory"
)

var now = time.Date(2024, time.March, 13, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func fixture() *memory.Store {
	budgetID := "b-groceries"
	return memory.NewFromDataset(store.Dataset{
		Tasks: []core.Task{
			{ID: "t1", Title: "Write report", Priority: core.PriorityHigh, CreatedAt: now.AddDate(0, 0, -1)},
			{ID: "t2", Title: "Fix bike", CreatedAt: now.AddDate(0, 0, -20)},
			{ID: "t3", Title: "Buy milk", Completed: true, CompletedAt: ptr(now), CreatedAt: now.AddDate(0, 0, -2)},
		},
		Budgets: []core.Budget{
			{ID: budgetID, Name: "Groceries", Category: "Food", Amount: core.Money{Cents: 10000}, Spent: core.Money{Cents: 12000},
				Period: core.Monthly, StartDate: now.AddDate(0, 0, -12), EndDate: ptr(now.AddDate(0, 0, 18)), CreatedAt: now.AddDate(0, 0, -12)},
		},
		Transactions: []core.Transaction{
			{ID: "x1", Amount: core.Money{Cents: 12000}, Category: "Food", BudgetID: &budgetID, TransactionDate: now.AddDate(0, 0, -1), CreatedAt: now},
			{ID: "x2", Amount: core.Money{Cents: 350}, Category: "Coffee", TransactionDate: now, CreatedAt: now},
			{ID: "x3", Amount: core.Money{Cents: 999}, Category: "Books", TransactionDate: now.AddDate(-1, -1, 0), CreatedAt: now},
		},
		Journal: []core.JournalEntry{
			{ID: "j1", Title: "Good day", Content: "shipped", EntryDate: now, Mood: ptr(5), Tags: []string{"work"}, CreatedAt: now},
		},
	})
}

func TestRenderAllSections(t *testing.T) {
	var buf bytes.Buffer
	err := Render(context.Background(), &buf, fixture(), Options{
		Now:                 now,
		Range:               query.RangeMonth,
		ZombieThresholdDays: 7,
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Tasks", "3 total, 1 done, 2 pending", "zombie 20d",
		"Budgets", "Groceries", "120.00 / 100.00", "1 over budget",
		"Transactions (month)", "2 transactions, total 123.50", "Coffee",
		"Journal", "Good day", "top tags: work (1)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Books") {
		t.Error("transactions outside the range should not be listed")
	}
}

func TestRenderSelectedSectionsAndLimit(t *testing.T) {
	var buf bytes.Buffer
	err := Render(context.Background(), &buf, fixture(), Options{
		Now:      now,
		Sections: []Section{SectionTasks},
		TaskSort: query.TasksByTitle,
		Limit:    1,
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Buy milk") {
		t.Errorf("first task by title missing:\n%s", out)
	}
	if strings.Contains(out, "Write report") || strings.Contains(out, "Budgets") {
		t.Errorf("limit or section selection ignored:\n%s", out)
	}
}

func TestRenderEmptyStore(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(context.Background(), &buf, memory.New(), Options{Now: now}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := strings.Count(buf.String(), "(nothing to show)"); got != 4 {
		t.Errorf("empty placeholders = %d, want 4", got)
	}
}

type failingSource struct{ *memory.Store }

func (failingSource) ListBudgets(context.Context) ([]core.Budget, error) {
	return nil, errors.New("disk on fire")
}

func TestRenderPropagatesErrors(t *testing.T) {
	err := Render(context.Background(), &bytes.Buffer{}, failingSource{memory.New()}, Options{Now: now})
	if err == nil || !strings.Contains(err.Error(), "render budgets") {
		t.Fatalf("err = %v", err)
	}
}

func TestParseSections(t *testing.T) {
	got, err := ParseSections(" budgets , Journal")
	if err != nil {
		t.Fatalf("ParseSections: %v", err)
	}
	if len(got) != 2 || got[0] != SectionBudgets || got[1] != SectionJournal {
		t.Errorf("got %v", got)
	}

	all, _ := ParseSections("")
	if len(all) != 4 {
		t.Errorf("blank should select every section, got %v", all)
	}

	if _, err := ParseSections("tasks,weather"); err == nil {
		t.Error("expected an error for an unknown section")
	}
}

func TestBar(t *testing.T) {
	tests := []struct {
		pct  float64
		want string
	}{
		{0, "░░░░"},
		{50, "██░░"},
		{100, "████"},
		{250, "████"},
		{-10, "░░░░"},
	}
	for _, tt := range tests {
		if got := bar(tt.pct, 4); got != tt.want {
			t.Errorf("bar(%v) = %q, want %q", tt.pct, got, tt.want)
		}
	}
}
