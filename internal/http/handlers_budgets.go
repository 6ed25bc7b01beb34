package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"lifeboard/internal/core"
	applog "lifeboard/internal/log"
	"lifeboard/internal/query"
)

// budgetView is a budget with its derived usage figures.
type budgetView struct {
	core.Budget
	PercentageUsed float64    `json:"percentage_used"`
	Remaining      core.Money `json:"remaining"`
	OverBudget     bool       `json:"over_budget"`
	NearLimit      bool       `json:"near_limit"`
	Active         bool       `json:"active"`
}

type budgetListResponse struct {
	Budgets []budgetView      `json:"budgets"`
	Stats   query.BudgetStats `json:"stats"`
}

func newBudgetView(b core.Budget, now time.Time) budgetView {
	return budgetView{
		Budget:         b,
		PercentageUsed: query.UsagePercent(b),
		Remaining:      b.Amount.Sub(b.Spent),
		OverBudget:     query.IsOverBudget(b),
		NearLimit:      query.IsNearLimit(b),
		Active:         query.IsActive(b, now),
	}
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	key := cacheKey(r, now)
	if cached, ok := s.budgetCache.Get(key); ok && s.cacheBudgets {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	q := r.URL.Query()
	filter, err := query.ParseBudgetFilter(q.Get("filter"))
	if err != nil {
		s.respondError(w, r, applog.OpList, "budget", err)
		return
	}
	sortKey, err := query.ParseBudgetSort(q.Get("sort"))
	if err != nil {
		s.respondError(w, r, applog.OpList, "budget", err)
		return
	}

	budgets, err := s.backend.ListBudgets(r.Context())
	if err != nil {
		s.respondError(w, r, applog.OpList, "budget", err)
		return
	}
	txs, err := s.backend.ListTransactions(r.Context())
	if err != nil {
		s.respondError(w, r, applog.OpList, "transaction", err)
		return
	}

	view := query.SortBudgets(query.FilterBudgets(budgets, query.BudgetQuery{
		Filter:   filter,
		Search:   queryParam(q, "search"),
		Category: queryParam(q, "category"),
	}, now), sortKey)

	resp := budgetListResponse{
		Budgets: make([]budgetView, 0, len(view)),
		Stats:   query.SummarizeBudgets(budgets, txs, now),
	}
	for _, b := range view {
		resp.Budgets = append(resp.Budgets, newBudgetView(b, now))
	}
	if s.cacheBudgets {
		s.budgetCache.Set(key, resp)
	}

	applog.FromContext(r.Context()).DebugContext(r.Context(), "Listed budgets",
		applog.NewFields().WithQuery(string(filter), string(sortKey), len(resp.Budgets)).ToSlice()...)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, applog.OpCreate, "budget", err)
		return
	}
	saved, err := s.backend.SaveBudget(r.Context(), req.budget("", s.now().Location()))
	if err != nil {
		s.respondError(w, r, applog.OpCreate, "budget", err)
		return
	}
	s.budgetCache.Purge()
	writeJSON(w, http.StatusCreated, newBudgetView(saved, s.now()))
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, applog.OpUpdate, "budget", err)
		return
	}
	saved, err := s.backend.SaveBudget(r.Context(), req.budget(chi.URLParam(r, "id"), s.now().Location()))
	if err != nil {
		s.respondError(w, r, applog.OpUpdate, "budget", err)
		return
	}
	s.budgetCache.Purge()
	writeJSON(w, http.StatusOK, newBudgetView(saved, s.now()))
}

// handleDeleteBudget removes a budget. Its transactions turn into quick
// expenses, so the transaction views are invalidated as well.
func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	if err := s.backend.DeleteBudget(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, applog.OpDelete, "budget", err)
		return
	}
	s.budgetCache.Purge()
	s.transactionCache.Purge()
	w.WriteHeader(http.StatusNoContent)
}
