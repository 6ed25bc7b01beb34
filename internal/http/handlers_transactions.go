package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"lifeboard/internal/core"
	applog "lifeboard/internal/log"
	"lifeboard/internal/query"
)

type transactionListResponse struct {
	Transactions []core.Transaction     `json:"transactions"`
	Stats        query.TransactionStats `json:"stats"`
}

// handleListTransactions serves the transaction list. Unlike tasks, the
// stats describe the filtered view.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	key := cacheKey(r, now)
	if cached, ok := s.transactionCache.Get(key); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	q := r.URL.Query()
	txType, err := query.ParseTransactionType(q.Get("type"))
	if err != nil {
		s.respondError(w, r, applog.OpList, "transaction", err)
		return
	}
	dateRange, err := query.ParseDateRange(q.Get("range"))
	if err != nil {
		s.respondError(w, r, applog.OpList, "transaction", err)
		return
	}
	sortKey, err := query.ParseTransactionSort(q.Get("sort"))
	if err != nil {
		s.respondError(w, r, applog.OpList, "transaction", err)
		return
	}

	txs, err := s.backend.ListTransactions(r.Context())
	if err != nil {
		s.respondError(w, r, applog.OpList, "transaction", err)
		return
	}

	view := query.FilterTransactions(txs, query.TransactionQuery{
		Type:       txType,
		BudgetIDs:  multiParam(q, "budget"),
		Categories: multiParam(q, "category"),
		Range:      dateRange,
		Search:     queryParam(q, "search"),
	}, now)
	resp := transactionListResponse{
		Transactions: query.SortTransactions(view, sortKey),
		Stats:        query.SummarizeTransactions(view),
	}
	s.transactionCache.Set(key, resp)

	applog.FromContext(r.Context()).DebugContext(r.Context(), "Listed transactions",
		applog.NewFields().WithQuery(string(txType), string(sortKey), len(resp.Transactions)).ToSlice()...)
	writeJSON(w, http.StatusOK, resp)
}

// handleCreateTransaction records a transaction through the ledger. Budget
// spending may change, so budget views are invalidated too.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, applog.OpCreate, "transaction", err)
		return
	}
	saved, err := s.backend.RecordTransaction(r.Context(), req.transaction(s.now().Location()))
	if err != nil {
		s.respondError(w, r, applog.OpCreate, "transaction", err)
		return
	}
	s.transactionCache.Purge()
	s.budgetCache.Purge()

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Transaction recorded",
		applog.NewFields().WithTransaction(saved.ID, saved.Amount.Cents, saved.Category, saved.BudgetID).ToSlice()...)
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.backend.DeleteTransaction(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, applog.OpDelete, "transaction", err)
		return
	}
	s.transactionCache.Purge()
	s.budgetCache.Purge()
	w.WriteHeader(http.StatusNoContent)
}
