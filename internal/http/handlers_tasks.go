package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"lifeboard/internal/core"
	applog "lifeboard/internal/log"
	"lifeboard/internal/query"
)

type taskListResponse struct {
	Tasks []core.Task     `json:"tasks"`
	Stats query.TaskStats `json:"stats"`
}

type zombieTask struct {
	core.Task
	Age string `json:"age"`
}

type zombieListResponse struct {
	ThresholdDays int          `json:"threshold_days"`
	Tasks         []zombieTask `json:"tasks"`
}

// handleListTasks serves the filtered, sorted task list. Stats cover every
// task, not just the filtered view.
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	key := cacheKey(r, now)
	if cached, ok := s.taskCache.Get(key); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	q := r.URL.Query()
	filter, err := query.ParseTaskFilter(q.Get("filter"))
	if err != nil {
		s.respondError(w, r, applog.OpList, "task", err)
		return
	}
	sortKey, err := query.ParseTaskSort(q.Get("sort"))
	if err != nil {
		s.respondError(w, r, applog.OpList, "task", err)
		return
	}

	tasks, err := s.backend.ListTasks(r.Context())
	if err != nil {
		s.respondError(w, r, applog.OpList, "task", err)
		return
	}

	view := query.FilterTasks(tasks, query.TaskQuery{
		Filter:  filter,
		Search:  queryParam(q, "search"),
		Project: queryParam(q, "project"),
	})
	resp := taskListResponse{
		Tasks: query.SortTasks(view, sortKey),
		Stats: query.SummarizeTasks(tasks, now),
	}
	s.taskCache.Set(key, resp)

	applog.FromContext(r.Context()).DebugContext(r.Context(), "Listed tasks",
		applog.NewFields().WithQuery(string(filter), string(sortKey), len(resp.Tasks)).ToSlice()...)
	writeJSON(w, http.StatusOK, resp)
}

// handleZombieTasks lists open tasks that have gone stale, oldest first.
func (s *Server) handleZombieTasks(w http.ResponseWriter, r *http.Request) {
	threshold := s.zombieDays
	if raw := queryParam(r.URL.Query(), "threshold_days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days < 0 {
			writeError(w, http.StatusBadRequest, "threshold_days must be a non-negative integer")
			return
		}
		threshold = days
	}

	tasks, err := s.backend.ListTasks(r.Context())
	if err != nil {
		s.respondError(w, r, applog.OpList, "task", err)
		return
	}

	now := s.now()
	zombies := query.SortTasks(query.ZombieTasks(tasks, now, threshold), query.TasksOldest)
	resp := zombieListResponse{ThresholdDays: threshold, Tasks: make([]zombieTask, 0, len(zombies))}
	for _, t := range zombies {
		resp.Tasks = append(resp.Tasks, zombieTask{Task: t, Age: s.ages.Since(t.CreatedAt, now)})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, applog.OpCreate, "task", err)
		return
	}
	saved, err := s.backend.SaveTask(r.Context(), req.task("", s.now().Location()))
	if err != nil {
		s.respondError(w, r, applog.OpCreate, "task", err)
		return
	}
	s.taskCache.Purge()
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, applog.OpUpdate, "task", err)
		return
	}
	saved, err := s.backend.SaveTask(r.Context(), req.task(chi.URLParam(r, "id"), s.now().Location()))
	if err != nil {
		s.respondError(w, r, applog.OpUpdate, "task", err)
		return
	}
	s.taskCache.Purge()
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.backend.DeleteTask(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, applog.OpDelete, "task", err)
		return
	}
	s.taskCache.Purge()
	w.WriteHeader(http.StatusNoContent)
}
