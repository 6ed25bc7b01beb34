package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"lifeboard/internal/core"
	applog "lifeboard/internal/log"
	"lifeboard/internal/query"
)

type journalListResponse struct {
	Entries []core.JournalEntry `json:"entries"`
	Stats   query.JournalStats  `json:"stats"`
}

func (s *Server) handleListJournal(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	key := cacheKey(r, now)
	if cached, ok := s.journalCache.Get(key); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	q := r.URL.Query()
	filter, err := query.ParseJournalFilter(q.Get("filter"))
	if err != nil {
		s.respondError(w, r, applog.OpList, "journal", err)
		return
	}
	sortKey, err := query.ParseJournalSort(q.Get("sort"))
	if err != nil {
		s.respondError(w, r, applog.OpList, "journal", err)
		return
	}

	entries, err := s.backend.ListJournal(r.Context())
	if err != nil {
		s.respondError(w, r, applog.OpList, "journal", err)
		return
	}

	view := query.FilterJournal(entries, query.JournalQuery{
		Filter:    filter,
		Project:   queryParam(q, "project"),
		Search:    queryParam(q, "search"),
		WeekStart: s.weekStart,
	}, now)
	resp := journalListResponse{
		Entries: query.SortJournal(view, sortKey),
		Stats:   query.SummarizeJournal(view),
	}
	s.journalCache.Set(key, resp)

	applog.FromContext(r.Context()).DebugContext(r.Context(), "Listed journal entries",
		applog.NewFields().WithQuery(string(filter), string(sortKey), len(resp.Entries)).ToSlice()...)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateJournalEntry(w http.ResponseWriter, r *http.Request) {
	var req journalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, applog.OpCreate, "journal", err)
		return
	}
	saved, err := s.backend.SaveJournalEntry(r.Context(), req.entry("", s.now().Location()))
	if err != nil {
		s.respondError(w, r, applog.OpCreate, "journal", err)
		return
	}
	s.journalCache.Purge()
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleUpdateJournalEntry(w http.ResponseWriter, r *http.Request) {
	var req journalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, applog.OpUpdate, "journal", err)
		return
	}
	saved, err := s.backend.SaveJournalEntry(r.Context(), req.entry(chi.URLParam(r, "id"), s.now().Location()))
	if err != nil {
		s.respondError(w, r, applog.OpUpdate, "journal", err)
		return
	}
	s.journalCache.Purge()
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteJournalEntry(w http.ResponseWriter, r *http.Request) {
	if err := s.backend.DeleteJournalEntry(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, applog.OpDelete, "journal", err)
		return
	}
	s.journalCache.Purge()
	w.WriteHeader(http.StatusNoContent)
}
