// Package http serves the trip JSON API and a small HTML front end.
package http

import (
	"context"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tripsplit/internal/log"
	"tripsplit/internal/middleware/ratelimit"
	"tripsplit/internal/middleware/security"
	"tripsplit/internal/trips"
	appweb "tripsplit/web"
)

const requestTimeout = 30 * time.Second

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

type Server struct {
	http.Server
	trips       *trips.Service
	templates   *template.Template
	logger      *log.Logger
	gatherer    prometheus.Gatherer
	checks      map[string]ReadinessCheck
	rateLimiter *ratelimit.Limiter

	shutdownOnce sync.Once
}

type Option func(*Server)

func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l.WithComponent(log.ComponentHTTP) }
}

// WithMetrics exposes g on /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithReadinessCheck adds a named dependency to /readyz.
func WithReadinessCheck(name string, check ReadinessCheck) Option {
	return func(s *Server) { s.checks[name] = check }
}

// WithRateLimit overrides the per-client write budget.
func WithRateLimit(cfg ratelimit.Config) Option {
	return func(s *Server) {
		s.rateLimiter.Stop()
		s.rateLimiter = ratelimit.NewLimiter(cfg)
	}
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, svc *trips.Service, opts ...Option) *Server {
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		trips:       svc,
		logger:      log.Discard().WithComponent(log.ComponentHTTP),
		checks:      make(map[string]ReadinessCheck),
		rateLimiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
	}
	for _, opt := range opts {
		opt(s)
	}

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	s.Handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(log.Middleware(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(security.Headers(security.DefaultHeadersConfig()))

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		r.Use(s.rateLimiter.Middleware(security.ClientIP, s.handleRateLimited))

		r.Route("/trips", func(r chi.Router) {
			r.Post("/", s.handleCreateTrip)
			r.Route("/{tripID}", func(r chi.Router) {
				r.Get("/", s.handleGetTrip)
				r.Post("/expenses", s.handleRecordExpense)
				r.Post("/reset", s.handleReset)
				r.Get("/settlement", s.handleSettlement)
				r.Get("/report.{format}", s.handleReport)
				r.Post("/export", s.handleExport)
			})
		})

		r.Get("/", s.handleIndex)
		r.Route("/ui/trips", func(r chi.Router) {
			r.Post("/", s.handleUICreateTrip)
			r.Get("/{tripID}", s.handleUITrip)
			r.Post("/{tripID}/expenses", s.handleUIRecordExpense)
			r.Post("/{tripID}/reset", s.handleUIReset)
		})
	})

	return r
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	failed := map[string]string{}
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		s.logger.WarnContext(ctx, "Readiness check failed", "failed", failed)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "failed": failed})
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, security.ClientIP(r), log.FieldPath, r.URL.Path)
	writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded, try again later"})
}
