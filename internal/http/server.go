package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"lifeboard/internal/cache"
	applog "lifeboard/internal/log"
	"lifeboard/internal/middleware/ratelimit"
	"lifeboard/internal/middleware/security"
	"lifeboard/internal/query"
	"lifeboard/internal/store"
)

// Options tune the server. Zero values fall back to defaults.
type Options struct {
	CacheSize           int
	CacheTTL            time.Duration
	RateLimitRequests   int
	RateLimitWindow     time.Duration
	ZombieThresholdDays int
	WeekStart           time.Weekday
	Logger              *applog.Logger
	// AsyncSpending means another process updates budget spending, so budget
	// lists are never served from cache.
	AsyncSpending bool
	// Now is the clock handed to the query layer.
	Now func() time.Time
}

type Server struct {
	http.Server
	backend store.Backend
	logger  *applog.Logger
	now     func() time.Time

	zombieDays   int
	weekStart    time.Weekday
	cacheBudgets bool

	limiter  *ratelimit.Limiter
	detector *security.Detector

	// list responses per normalized query string, purged on writes
	taskCache        *cache.LRUCache[taskListResponse]
	budgetCache      *cache.LRUCache[budgetListResponse]
	transactionCache *cache.LRUCache[transactionListResponse]
	journalCache     *cache.LRUCache[journalListResponse]
	cacheManager     *cache.Manager
	ages             *query.AgeFormatter

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, backend store.Backend, opts Options) *Server {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 100
	}
	if opts.ZombieThresholdDays <= 0 {
		opts.ZombieThresholdDays = query.DefaultZombieThresholdDays
	}
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{
		backend:      backend,
		logger:       opts.Logger.WithComponent(applog.ComponentHTTP),
		now:          opts.Now,
		zombieDays:   opts.ZombieThresholdDays,
		weekStart:    opts.WeekStart,
		cacheBudgets: !opts.AsyncSpending,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			Requests: opts.RateLimitRequests,
			Window:   opts.RateLimitWindow,
		}),
		detector:         security.NewDetector(),
		taskCache:        cache.NewLRUCache[taskListResponse](opts.CacheSize, opts.CacheTTL),
		budgetCache:      cache.NewLRUCache[budgetListResponse](opts.CacheSize, opts.CacheTTL),
		transactionCache: cache.NewLRUCache[transactionListResponse](opts.CacheSize, opts.CacheTTL),
		journalCache:     cache.NewLRUCache[journalListResponse](opts.CacheSize, opts.CacheTTL),
		cacheManager:     cache.NewManager(opts.Logger.Logger),
		ages:             query.NewAgeFormatter(query.DefaultAgeCacheSize),
	}

	s.cacheManager.Register(s.taskCache)
	s.cacheManager.Register(s.budgetCache)
	s.cacheManager.Register(s.transactionCache)
	s.cacheManager.Register(s.journalCache)
	if opts.CacheTTL > 0 {
		s.cacheManager.StartCleanup(opts.CacheTTL)
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(applog.Middleware(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(s.detector.Middleware)
	r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimited,
		http.MethodPost, http.MethodPut, http.MethodDelete))

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", s.handleListTasks)
			r.Post("/", s.handleCreateTask)
			r.Get("/zombies", s.handleZombieTasks)
			r.Put("/{id}", s.handleUpdateTask)
			r.Delete("/{id}", s.handleDeleteTask)
		})
		r.Route("/budgets", func(r chi.Router) {
			r.Get("/", s.handleListBudgets)
			r.Post("/", s.handleCreateBudget)
			r.Put("/{id}", s.handleUpdateBudget)
			r.Delete("/{id}", s.handleDeleteBudget)
		})
		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", s.handleListTransactions)
			r.Post("/", s.handleCreateTransaction)
			r.Delete("/{id}", s.handleDeleteTransaction)
		})
		r.Route("/journal", func(r chi.Router) {
			r.Get("/", s.handleListJournal)
			r.Post("/", s.handleCreateJournalEntry)
			r.Put("/{id}", s.handleUpdateJournalEntry)
			r.Delete("/{id}", s.handleDeleteJournalEntry)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}

// Shutdown gracefully shuts down the server and its background cleanup
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	writeError(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.backend.Ping(ctx); err != nil {
		s.logger.ErrorContext(r.Context(), "Readiness check failed", applog.FieldError, err)
		writeError(w, http.StatusServiceUnavailable, "backend unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
