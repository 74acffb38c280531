package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/cache"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
)

type Server struct {
	http.Server
	finance     *services.FinanceService
	rateLimiter *rateLimiter
	metrics     *securityMetrics
	reqLog      *applog.StructuredLogger

	// Report responses are cached by name and service revision; any
	// mutation bumps the revision, so stale entries simply stop being
	// addressed and age out.
	reportCache  *cache.LRUCache[[]byte]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

// Options tunes the server's rate limiter and report cache. Zero
// values fall back to the same defaults the configuration layer uses.
type Options struct {
	RateLimitPerMinute int
	ReportCacheSize    int
	ReportCacheTTL     time.Duration
}

func (o Options) withDefaults() Options {
	if o.RateLimitPerMinute <= 0 {
		o.RateLimitPerMinute = 60
	}
	if o.ReportCacheSize <= 0 {
		o.ReportCacheSize = 100
	}
	if o.ReportCacheTTL <= 0 {
		o.ReportCacheTTL = 5 * time.Minute
	}
	return o
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, finance *services.FinanceService, opts Options) *Server {
	opts = opts.withDefaults()
	mux := http.NewServeMux()

	logCfg := applog.DefaultConfig()
	logCfg.Component = applog.ComponentHTTP

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		finance:      finance,
		rateLimiter:  newRateLimiter(opts.RateLimitPerMinute, time.Minute),
		metrics:      &securityMetrics{},
		reqLog:       applog.NewStructuredLogger(applog.New(logCfg)),
		reportCache:  cache.NewLRUCache[[]byte](opts.ReportCacheSize, opts.ReportCacheTTL),
		cacheManager: cache.NewManager(),
	}

	s.cacheManager.Register(s.reportCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/transactions", s.withSecurityHeaders(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.withSecurityHeaders(s.handleCreateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withSecurityHeaders(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/budgets", s.withSecurityHeaders(s.handleBudgetTable))
	mux.HandleFunc("PUT /api/budgets", s.withSecurityHeaders(s.handleSetBudget))
	mux.HandleFunc("GET /api/alerts", s.withSecurityHeaders(s.handleAlerts))
	mux.HandleFunc("PUT /api/goal", s.withSecurityHeaders(s.handleSetGoal))

	mux.HandleFunc("GET /api/reports/{name}", s.withSecurityHeaders(s.handleReport))

	mux.HandleFunc("GET /api/export", s.withSecurityHeaders(s.handleExport))
	mux.HandleFunc("POST /api/import", s.withSecurityHeaders(s.handleImport))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()

		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}

		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting, and request logging to responses
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		s.reqLog.LogHTTPStart(ctx, r, clientIP)

		if detectSuspiciousRequest(r, s.metrics) {
			slog.WarnContext(ctx, "Suspicious request pattern",
				"request_id", requestID,
				"client_ip", clientIP,
				"url", r.URL.String())
		}

		// Rate limit mutating requests only; report reads are cached anyway.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP, s.metrics) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		s.reqLog.LogHTTPEnd(ctx, r, rw.statusCode, duration.Milliseconds(), clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
