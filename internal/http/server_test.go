package http

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lifeboard/internal/core"
	applog "lifeboard/internal/log"
	"lifeboard/internal/store/memory"
)

var testNow = time.Date(2024, time.March, 13, 12, 0, 0, 0, time.UTC)

type testServer struct {
	*Server
	store *memory.Store
	clock time.Time
}

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()
	ts := &testServer{clock: testNow}
	ts.store = memory.New(memory.WithClock(func() time.Time { return ts.clock }))
	opts.Logger = applog.Discard()
	opts.Now = func() time.Time { return ts.clock }
	ts.Server = NewServer(":0", ts.store, opts)
	t.Cleanup(func() { _ = ts.Shutdown(context.Background()) })
	return ts
}

func (ts *testServer) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, want, rec.Body.String())
	}
}

func TestHealthAndReady(t *testing.T) {
	ts := newTestServer(t, Options{})

	rec := ts.do(t, http.MethodGet, "/healthz", "")
	expectStatus(t, rec, http.StatusOK)

	rec = ts.do(t, http.MethodGet, "/readyz", "")
	expectStatus(t, rec, http.StatusOK)
	if got := decode[map[string]string](t, rec)["status"]; got != "ready" {
		t.Errorf("status = %q, want ready", got)
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	ts := newTestServer(t, Options{})
	rec := ts.do(t, http.MethodGet, "/api/tasks", "")
	expectStatus(t, rec, http.StatusOK)

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
	if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, "application/json") {
		t.Errorf("Content-Type = %q", got)
	}
}

func TestSuspiciousRequestRejected(t *testing.T) {
	ts := newTestServer(t, Options{})
	rec := ts.do(t, http.MethodGet, "/api/tasks?search=../../etc/passwd", "")
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestTaskLifecycle(t *testing.T) {
	ts := newTestServer(t, Options{})

	for _, body := range []string{
		`{"title":"Write report","priority":"high","project":"work"}`,
		`{"title":"Buy milk","completed":true,"priority":"low"}`,
		`{"title":"Call plumber","due_date":"2024-03-01"}`,
	} {
		expectStatus(t, ts.do(t, http.MethodPost, "/api/tasks", body), http.StatusCreated)
	}

	t.Run("pending sorted by title", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/api/tasks?filter=pending&sort=title", "")
		expectStatus(t, rec, http.StatusOK)
		resp := decode[taskListResponse](t, rec)

		if len(resp.Tasks) != 2 {
			t.Fatalf("got %d tasks, want 2", len(resp.Tasks))
		}
		if resp.Tasks[0].Title != "Call plumber" || resp.Tasks[1].Title != "Write report" {
			t.Errorf("order = %q, %q", resp.Tasks[0].Title, resp.Tasks[1].Title)
		}
		// stats cover the whole collection, not the filtered view
		if resp.Stats.Total != 3 || resp.Stats.Completed != 1 || resp.Stats.Overdue != 1 || resp.Stats.HighPriority != 1 {
			t.Errorf("stats = %+v", resp.Stats)
		}
	})

	t.Run("project filter", func(t *testing.T) {
		resp := decode[taskListResponse](t, ts.do(t, http.MethodGet, "/api/tasks?project=work", ""))
		if len(resp.Tasks) != 1 || resp.Tasks[0].Project != "work" {
			t.Errorf("tasks = %+v", resp.Tasks)
		}
	})

	t.Run("update and delete", func(t *testing.T) {
		list := decode[taskListResponse](t, ts.do(t, http.MethodGet, "/api/tasks?search=plumber", ""))
		if len(list.Tasks) != 1 {
			t.Fatalf("search returned %d tasks", len(list.Tasks))
		}
		id := list.Tasks[0].ID

		rec := ts.do(t, http.MethodPut, "/api/tasks/"+id, `{"title":"Call plumber","completed":true}`)
		expectStatus(t, rec, http.StatusOK)
		updated := decode[core.Task](t, rec)
		if !updated.Completed || updated.CompletedAt == nil {
			t.Errorf("task not completed: %+v", updated)
		}

		expectStatus(t, ts.do(t, http.MethodDelete, "/api/tasks/"+id, ""), http.StatusNoContent)
		expectStatus(t, ts.do(t, http.MethodDelete, "/api/tasks/"+id, ""), http.StatusNotFound)
	})
}

func TestTaskErrors(t *testing.T) {
	ts := newTestServer(t, Options{})

	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{"unknown filter", http.MethodGet, "/api/tasks?filter=someday", "", http.StatusBadRequest},
		{"unknown sort", http.MethodGet, "/api/tasks?sort=random", "", http.StatusBadRequest},
		{"blank title", http.MethodPost, "/api/tasks", `{"title":"   "}`, http.StatusUnprocessableEntity},
		{"bad priority", http.MethodPost, "/api/tasks", `{"title":"x","priority":"urgent"}`, http.StatusUnprocessableEntity},
		{"unknown field", http.MethodPost, "/api/tasks", `{"title":"x","colour":"red"}`, http.StatusBadRequest},
		{"malformed json", http.MethodPost, "/api/tasks", `{"title":`, http.StatusBadRequest},
		{"bad date", http.MethodPost, "/api/tasks", `{"title":"x","due_date":"next week"}`, http.StatusBadRequest},
		{"update missing", http.MethodPut, "/api/tasks/missing", `{"title":"x"}`, http.StatusNotFound},
		{"negative threshold", http.MethodGet, "/api/tasks/zombies?threshold_days=-1", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, tt.method, tt.target, tt.body)
			expectStatus(t, rec, tt.want)
			if msg := decode[errorResponse](t, rec).Error; msg == "" {
				t.Error("expected an error message")
			}
		})
	}
}

func TestZombieTasks(t *testing.T) {
	ts := newTestServer(t, Options{ZombieThresholdDays: 7})

	expectStatus(t, ts.do(t, http.MethodPost, "/api/tasks", `{"title":"Old and forgotten"}`), http.StatusCreated)
	ts.clock = testNow.AddDate(0, 0, 5)
	expectStatus(t, ts.do(t, http.MethodPost, "/api/tasks", `{"title":"Recent"}`), http.StatusCreated)
	ts.clock = testNow.AddDate(0, 0, 10)

	rec := ts.do(t, http.MethodGet, "/api/tasks/zombies", "")
	expectStatus(t, rec, http.StatusOK)
	resp := decode[zombieListResponse](t, rec)
	if resp.ThresholdDays != 7 {
		t.Errorf("threshold = %d, want 7", resp.ThresholdDays)
	}
	if len(resp.Tasks) != 1 || resp.Tasks[0].Title != "Old and forgotten" {
		t.Fatalf("zombies = %+v", resp.Tasks)
	}
	if resp.Tasks[0].Age != "10d" {
		t.Errorf("age = %q, want 10d", resp.Tasks[0].Age)
	}

	resp = decode[zombieListResponse](t, ts.do(t, http.MethodGet, "/api/tasks/zombies?threshold_days=3", ""))
	if len(resp.Tasks) != 2 {
		t.Errorf("got %d zombies with a 3 day threshold, want 2", len(resp.Tasks))
	}
}

func TestBudgetsAndTransactions(t *testing.T) {
	ts := newTestServer(t, Options{})

	rec := ts.do(t, http.MethodPost, "/api/budgets",
		`{"name":"Groceries","category":"Food","amount":"100.00","period":"monthly","start_date":"2024-03-01","end_date":"2024-03-31"}`)
	expectStatus(t, rec, http.StatusCreated)
	groceries := decode[budgetView](t, rec)
	if !groceries.Active || groceries.Amount.Cents != 10000 {
		t.Fatalf("created budget = %+v", groceries)
	}

	rec = ts.do(t, http.MethodPost, "/api/budgets",
		`{"name":"Fun","category":"Leisure","amount":"50","period":"monthly","start_date":"2024-01-01","end_date":"2024-01-31"}`)
	expectStatus(t, rec, http.StatusCreated)

	// warm the cache so the writes below must invalidate it
	expectStatus(t, ts.do(t, http.MethodGet, "/api/budgets", ""), http.StatusOK)

	for _, body := range []string{
		`{"amount":"85,50","category":"Food","budget_id":"` + groceries.ID + `","transaction_date":"2024-03-12"}`,
		`{"amount":"4.20","category":"Coffee","description":"espresso","transaction_date":"2024-03-13"}`,
		`{"amount":12,"category":"Food","transaction_date":"2024-02-01"}`,
	} {
		expectStatus(t, ts.do(t, http.MethodPost, "/api/transactions", body), http.StatusCreated)
	}

	t.Run("budget usage", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/api/budgets?filter=near-limit", "")
		expectStatus(t, rec, http.StatusOK)
		resp := decode[budgetListResponse](t, rec)
		if len(resp.Budgets) != 1 {
			t.Fatalf("near-limit budgets = %d, want 1", len(resp.Budgets))
		}
		b := resp.Budgets[0]
		if b.Spent.Cents != 8550 || b.Remaining.Cents != 1450 || !b.NearLimit || b.OverBudget {
			t.Errorf("budget view = %+v", b)
		}
		if math.Abs(b.PercentageUsed-85.5) > 1e-9 {
			t.Errorf("percentage used = %v, want 85.5", b.PercentageUsed)
		}
		if resp.Stats.QuickExpenses.Cents != 1620 || resp.Stats.ActiveCount != 1 {
			t.Errorf("stats = %+v", resp.Stats)
		}
	})

	t.Run("category mode", func(t *testing.T) {
		resp := decode[budgetListResponse](t, ts.do(t, http.MethodGet, "/api/budgets?filter=category&category=Leisure", ""))
		if len(resp.Budgets) != 1 || resp.Budgets[0].Name != "Fun" {
			t.Errorf("budgets = %+v", resp.Budgets)
		}
	})

	t.Run("quick expenses this month", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/api/transactions?type=quick&range=month", "")
		expectStatus(t, rec, http.StatusOK)
		resp := decode[transactionListResponse](t, rec)
		if len(resp.Transactions) != 1 || resp.Transactions[0].Category != "Coffee" {
			t.Fatalf("transactions = %+v", resp.Transactions)
		}
		if resp.Stats.Total.Cents != 420 || resp.Stats.Quick.Cents != 420 {
			t.Errorf("stats = %+v", resp.Stats)
		}
	})

	t.Run("multi-select categories", func(t *testing.T) {
		resp := decode[transactionListResponse](t, ts.do(t, http.MethodGet, "/api/transactions?category=Food,Coffee&sort=amount-low", ""))
		if len(resp.Transactions) != 3 {
			t.Fatalf("got %d transactions, want 3", len(resp.Transactions))
		}
		if resp.Transactions[0].Amount.Cents != 420 {
			t.Errorf("first amount = %d, want 420", resp.Transactions[0].Amount.Cents)
		}
	})

	t.Run("budget selection excludes quick expenses", func(t *testing.T) {
		resp := decode[transactionListResponse](t, ts.do(t, http.MethodGet, "/api/transactions?budget="+groceries.ID, ""))
		if len(resp.Transactions) != 1 || resp.Stats.Budgeted.Cents != 8550 {
			t.Errorf("resp = %+v", resp)
		}
	})

	t.Run("unknown budget", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/transactions", `{"amount":"1","category":"Food","budget_id":"nope"}`)
		expectStatus(t, rec, http.StatusUnprocessableEntity)
	})

	t.Run("non-positive amount", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/transactions", `{"amount":"0","category":"Food"}`)
		expectStatus(t, rec, http.StatusUnprocessableEntity)
	})

	t.Run("delete reverses spending", func(t *testing.T) {
		list := decode[transactionListResponse](t, ts.do(t, http.MethodGet, "/api/transactions?type=budgeted", ""))
		if len(list.Transactions) != 1 {
			t.Fatalf("budgeted = %d", len(list.Transactions))
		}
		expectStatus(t, ts.do(t, http.MethodDelete, "/api/transactions/"+list.Transactions[0].ID, ""), http.StatusNoContent)

		resp := decode[budgetListResponse](t, ts.do(t, http.MethodGet, "/api/budgets?filter=active", ""))
		if len(resp.Budgets) != 1 || resp.Budgets[0].Spent.Cents != 0 {
			t.Errorf("budgets = %+v", resp.Budgets)
		}
	})

	t.Run("delete budget", func(t *testing.T) {
		expectStatus(t, ts.do(t, http.MethodDelete, "/api/budgets/"+groceries.ID, ""), http.StatusNoContent)
		expectStatus(t, ts.do(t, http.MethodPut, "/api/budgets/"+groceries.ID,
			`{"name":"Groceries","category":"Food","amount":"100","period":"monthly","start_date":"2024-03-01"}`), http.StatusNotFound)
	})
}

func TestJournal(t *testing.T) {
	ts := newTestServer(t, Options{WeekStart: time.Monday})

	for _, body := range []string{
		`{"title":"Monday","content":"ok","entry_date":"2024-03-11","mood":4,"energy_level":3,"tags":["work","gym"]}`,
		`{"title":"Last week","content":"tired","entry_date":"2024-03-08","mood":2,"tags":["work"]}`,
		`{"content":"side project","entry_date":"2024-03-13","project_id":"p1","energy_level":5}`,
	} {
		expectStatus(t, ts.do(t, http.MethodPost, "/api/journal", body), http.StatusCreated)
	}

	rec := ts.do(t, http.MethodGet, "/api/journal?filter=this_week&sort=oldest", "")
	expectStatus(t, rec, http.StatusOK)
	resp := decode[journalListResponse](t, rec)
	if len(resp.Entries) != 2 {
		t.Fatalf("this week = %d entries, want 2", len(resp.Entries))
	}
	if resp.Stats.AverageMood != 4 || resp.Stats.AverageEnergy != 4 {
		t.Errorf("stats = %+v", resp.Stats)
	}

	resp = decode[journalListResponse](t, ts.do(t, http.MethodGet, "/api/journal?filter=project&project=p1", ""))
	if len(resp.Entries) != 1 || resp.Entries[0].ProjectID != "p1" {
		t.Errorf("project entries = %+v", resp.Entries)
	}

	expectStatus(t, ts.do(t, http.MethodPost, "/api/journal", `{"title":" ","content":""}`), http.StatusUnprocessableEntity)
	expectStatus(t, ts.do(t, http.MethodPost, "/api/journal", `{"title":"x","mood":9}`), http.StatusUnprocessableEntity)
}

func TestCalendarDatesFollowServerZone(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	ts := newTestServer(t, Options{})
	ts.clock = time.Date(2024, time.March, 13, 21, 0, 0, 0, est)

	expectStatus(t, ts.do(t, http.MethodPost, "/api/journal", `{"title":"Late","content":"wrote after dinner","entry_date":"2024-03-13"}`), http.StatusCreated)
	journal := decode[journalListResponse](t, ts.do(t, http.MethodGet, "/api/journal?filter=today", ""))
	if len(journal.Entries) != 1 {
		t.Errorf("today = %d entries, want 1", len(journal.Entries))
	}

	expectStatus(t, ts.do(t, http.MethodPost, "/api/tasks", `{"title":"Due tonight","due_date":"2024-03-13"}`), http.StatusCreated)
	zombies := decode[zombieListResponse](t, ts.do(t, http.MethodGet, "/api/tasks/zombies", ""))
	if len(zombies.Tasks) != 0 {
		t.Errorf("zombies = %+v, want none", zombies.Tasks)
	}

	rec := ts.do(t, http.MethodPost, "/api/budgets",
		`{"name":"Week","category":"Food","amount":"20","period":"weekly","start_date":"2024-03-07","end_date":"2024-03-13"}`)
	expectStatus(t, rec, http.StatusCreated)
	if b := decode[budgetView](t, rec); !b.Active {
		t.Errorf("budget ending today should still be active: %+v", b)
	}
}

func TestRateLimitOnWrites(t *testing.T) {
	ts := newTestServer(t, Options{RateLimitRequests: 2, RateLimitWindow: time.Minute})

	for i := 0; i < 2; i++ {
		expectStatus(t, ts.do(t, http.MethodPost, "/api/tasks", `{"title":"t"}`), http.StatusCreated)
	}
	rec := ts.do(t, http.MethodPost, "/api/tasks", `{"title":"t"}`)
	expectStatus(t, rec, http.StatusTooManyRequests)
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}

	// reads are not limited
	expectStatus(t, ts.do(t, http.MethodGet, "/api/tasks", ""), http.StatusOK)
}

func TestListCacheInvalidatedOnWrite(t *testing.T) {
	ts := newTestServer(t, Options{CacheTTL: time.Hour})

	resp := decode[taskListResponse](t, ts.do(t, http.MethodGet, "/api/tasks", ""))
	if len(resp.Tasks) != 0 {
		t.Fatalf("expected empty list")
	}
	if ts.taskCache.Size() != 1 {
		t.Errorf("cache size = %d, want 1", ts.taskCache.Size())
	}

	expectStatus(t, ts.do(t, http.MethodPost, "/api/tasks", `{"title":"fresh"}`), http.StatusCreated)
	resp = decode[taskListResponse](t, ts.do(t, http.MethodGet, "/api/tasks", ""))
	if len(resp.Tasks) != 1 {
		t.Errorf("stale list served: %+v", resp.Tasks)
	}
}

func TestBudgetListsUncachedWithAsyncSpending(t *testing.T) {
	tests := []struct {
		name      string
		async     bool
		wantCount int
	}{
		{"cached", false, 0},
		{"async spending", true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, Options{CacheTTL: time.Hour, AsyncSpending: tt.async})
			expectStatus(t, ts.do(t, http.MethodGet, "/api/budgets", ""), http.StatusOK)

			// written behind the server's back, as the ledger worker does
			_, err := ts.store.SaveBudget(context.Background(), core.Budget{
				Name: "Travel", Category: "Leisure", Amount: core.Money{Cents: 5000},
				Period: core.Monthly, StartDate: testNow,
			})
			if err != nil {
				t.Fatal(err)
			}

			resp := decode[budgetListResponse](t, ts.do(t, http.MethodGet, "/api/budgets", ""))
			if len(resp.Budgets) != tt.wantCount {
				t.Errorf("got %d budgets, want %d", len(resp.Budgets), tt.wantCount)
			}
		})
	}
}

func TestMultiParam(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?c=a,b&c=b&c=%20c%20&c=", nil)
	got := multiParam(req.URL.Query(), "c")
	want := []string{"a", "b", "c"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("multiParam = %v, want %v", got, want)
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct{ in, want string }{
		{"  hello ", "hello"},
		{"a\x00b\x07c", "abc"},
		{"line\nbreak", "line\nbreak"},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
