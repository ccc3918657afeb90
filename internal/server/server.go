package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/me/pbadmin/internal/auth"
	"github.com/me/pbadmin/internal/config"
	"github.com/me/pbadmin/internal/dataprovider"
	"github.com/me/pbadmin/internal/metrics"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the pbadmin HTTP gateway.
type Server struct {
	router    chi.Router
	logger    *slog.Logger
	config    config.ServerConfig
	startTime time.Time
	provider  *dataprovider.Provider
	auth      *auth.Adapter
	store     Pinger              // optional; reported by /health
	metrics   *metrics.Metrics    // optional
	gatherer  prometheus.Gatherer // optional; serves /metrics when set
}

// Option configures optional Server dependencies.
type Option func(*Server)

// WithStore reports the side-store's reachability on /health.
func WithStore(p Pinger) Option {
	return func(s *Server) {
		s.store = p
	}
}

// WithMetrics counts requests in m and serves g on /metrics.
func WithMetrics(m *metrics.Metrics, g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = g
	}
}

// New creates a new Server with all routes registered.
func New(cfg config.ServerConfig, provider *dataprovider.Provider, authAdapter *auth.Adapter, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger.With("component", "server"),
		config:    cfg,
		startTime: time.Now(),
		provider:  provider,
		auth:      authAdapter,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware(s.config.AllowedOrigins))
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger, s.metrics))

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Discovery
		r.Get("/", s.handleDiscovery)

		// Health
		r.Get("/health", s.handleHealth)

		// Auth
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", s.handleLogin)
			r.Post("/logout", s.handleLogout)
			r.Post("/check-error", s.handleCheckError)
			r.Get("/check", s.handleCheckSession)
			r.Get("/permissions", s.handlePermissions)
			r.Get("/identity", s.handleIdentity)
		})

		// Resources
		r.Route("/resources/{resource}", func(r chi.Router) {
			r.Use(requireSession(s.auth))

			r.Get("/", s.handleListRecords)
			r.Post("/", s.handleCreateRecord)
			r.Patch("/", s.handleUpdateManyRecords)
			r.Delete("/", s.handleDeleteManyRecords)
			r.Get("/reference/{target}/{id}", s.handleListReferences)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetRecord)
				r.Patch("/", s.handleUpdateRecord)
				r.Put("/", s.handleUpdateRecord)
				r.Delete("/", s.handleDeleteRecord)
			})
		})
	})
}
