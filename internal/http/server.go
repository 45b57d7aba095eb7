// Package http exposes the reconciliation engines as a JSON API.
package http

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cashrecon/internal/cache"
	"cashrecon/internal/core"
	applog "cashrecon/internal/log"
	"cashrecon/internal/middleware/ratelimit"
	"cashrecon/internal/services"
)

type Server struct {
	http.Server
	recon   *services.ReconService
	archive *services.ArchiveService
	logger  *applog.Logger
	limiter *ratelimit.Limiter

	// Read caches, purged wholesale on every mutation. A purge is cheap and
	// never wrong; fine-grained invalidation across carry-forward months is
	// not worth the bookkeeping.
	entriesCache  *cache.LRUCache[[]core.DailyEntry]
	timelineCache *cache.LRUCache[[]core.BackSafeTransaction]
	monthCache    *cache.LRUCache[core.MonthlyArchive]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

type Options struct {
	RateLimitPerMinute int
	CacheTTL           time.Duration
}

// NewServer wires routes, middleware and caches, returning a ready-to-run
// server.
func NewServer(addr string, recon *services.ReconService, archive *services.ArchiveService, logger *applog.Logger, opts Options) *Server {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}

	s := &Server{
		recon:   recon,
		archive: archive,
		logger:  logger.WithComponent(applog.ComponentHTTP),
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMinute,
		}),
		entriesCache:     cache.NewLRUCache[[]core.DailyEntry](100, opts.CacheTTL),
		timelineCache:    cache.NewLRUCache[[]core.BackSafeTransaction](100, opts.CacheTTL),
		monthCache:       cache.NewLRUCache[core.MonthlyArchive](100, opts.CacheTTL),
		stopCacheCleanup: make(chan struct{}),
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(applog.Middleware(s.logger))
	r.Use(s.requestLogger)

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", handleReady)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(s.mutationLimit)

		r.Route("/entries", func(r chi.Router) {
			r.Get("/", s.handleListEntries)
			r.Post("/", s.handleSaveEntry)
			r.Delete("/{id}", s.handleDeleteEntry)
			r.Post("/{id}/approve", s.handleApproveEntry)
			r.Delete("/{id}/approve", s.handleRemoveApproval)
		})

		r.Route("/withdrawals", func(r chi.Router) {
			r.Get("/", s.handleListWithdrawals)
			r.Post("/", s.handleCreateWithdrawal)
			r.Put("/{id}", s.handleUpdateWithdrawal)
			r.Delete("/{id}", s.handleDeleteWithdrawal)
		})

		r.Get("/transactions", s.handleTimeline)

		r.Route("/balances", func(r chi.Router) {
			r.Get("/", s.handleBalances)
			r.Post("/rebuild", s.handleRebuildBalances)
		})

		r.Route("/months", func(r chi.Router) {
			r.Get("/", s.handleAvailableMonths)
			r.Get("/{month}", s.handleMonthView)
			r.Get("/{month}/starting-balances", s.handleStartingBalances)
			r.Post("/{month}/close", s.handleCloseMonth)
		})

		r.Route("/archives", func(r chi.Router) {
			r.Get("/", s.handleListArchives)
			r.Get("/{month}", s.handleGetArchive)
		})
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.startCacheCleanup()
	return s
}

// Router exposes the configured handler for tests.
func (s *Server) Router() http.Handler {
	return s.Server.Handler
}

// requestLogger logs every request and records the Prometheus series.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		duration := time.Since(start)
		requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).Inc()
		requestDuration.WithLabelValues(r.Method, route).Observe(duration.Seconds())

		s.logger.InfoContext(r.Context(), "Request completed",
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, ww.Status(),
			applog.FieldDuration, duration.Milliseconds(),
			applog.FieldClientIP, clientIP(r))
	})
}

// mutationLimit rate-limits writes per client; reads pass through.
func (s *Server) mutationLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete:
			if !s.limiter.Allow(clientIP(r)) {
				s.logger.WarnContext(r.Context(), "Rate limit exceeded",
					applog.FieldClientIP, clientIP(r),
					applog.FieldMethod, r.Method,
					applog.FieldPath, r.URL.Path)
				w.Header().Set("Retry-After", "60")
				respondJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// invalidateReads purges every read cache after a mutation.
func (s *Server) invalidateReads() {
	s.entriesCache.Purge()
	s.timelineCache.Purge()
	s.monthCache.Purge()
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cleaned := s.entriesCache.CleanExpired() +
				s.timelineCache.CleanExpired() +
				s.monthCache.CleanExpired()
			if cleaned > 0 {
				s.logger.Debug("Cache cleanup completed", "entries_removed", cleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown stops the cleanup goroutines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		close(s.stopCacheCleanup)
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
