// Package web provides the HTTP server for browsing and exporting the game corpus.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/JonMunkholm/gamebook/internal/config"
	"github.com/JonMunkholm/gamebook/internal/core"
	"github.com/JonMunkholm/gamebook/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

const (
	visitorIdleTimeout = 10 * time.Minute
	visitorSweepEvery  = time.Minute
)

// Deps are the components a Server serves from.
type Deps struct {
	Loader   *core.Loader
	Exporter *core.Exporter
	Limiter  *core.ExportLimiter
	Options  core.LoadOptions
	Logger   *slog.Logger
}

// Server is the HTTP server for the game corpus.
type Server struct {
	deps    Deps
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
	metrics *metrics
	visits  *rateLimiter
	stop    chan struct{}
}

// NewServer creates a new Server instance.
func NewServer(deps Deps, cfg *config.Config) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Limiter == nil {
		deps.Limiter = core.NewExportLimiter(cfg.Export.MaxConcurrent, cfg.Export.MaxWaitTime)
	}
	s := &Server{
		deps:    deps,
		cfg:     cfg,
		router:  chi.NewRouter(),
		metrics: newMetrics(deps.Limiter),
		stop:    make(chan struct{}),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(withClientIP)
	s.router.Use(middleware.Logger)
	if s.cfg.Metrics.Enabled {
		s.router.Use(s.metrics.middleware)
	}
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(render.SetContentType(render.ContentTypeJSON))

	// Security hardening
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		s.visits = newRateLimiter(s.cfg.Rate.RequestsPerMinute, s.cfg.Rate.Burst, visitorIdleTimeout)
		go s.visits.run(visitorSweepEvery, s.stop)
		s.router.Use(s.visits.middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	if s.cfg.Metrics.Enabled {
		s.router.Handle("/metrics", s.metrics.handler())
	}

	s.router.Route("/api", func(r chi.Router) {
		// CSV downloads
		r.Get("/export", s.handleExport)

		// Corpus browsing
		r.Get("/games", s.handleListGames)
		r.Get("/games/{slug}", s.handleGetGame)
		r.Get("/seasons", s.handleListSeasons)
	})

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, &core.NotFoundError{Resource: "route", Key: r.URL.Path})
	})
}

// Start begins listening for HTTP requests. It returns nil after Shutdown.
func (s *Server) Start() error {
	addr := s.cfg.Server.Addr()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	s.deps.Logger.Info("starting server", "addr", addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, then waits for in-flight exports to
// finish before returning.
func (s *Server) Shutdown(ctx context.Context) error {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	if s.server == nil {
		return nil
	}
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	return s.deps.Limiter.WaitForDrain(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

const contentSecurityPolicy = "default-src 'none'; frame-ancestors 'none'"

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Prevent MIME type sniffing
			w.Header().Set("X-Content-Type-Options", "nosniff")

			// Prevent clickjacking
			w.Header().Set("X-Frame-Options", "DENY")

			// The API serves JSON and CSV only
			if enableCSP {
				w.Header().Set("Content-Security-Policy", contentSecurityPolicy)
			}

			// Control referrer information
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			next.ServeHTTP(w, r)
		})
	}
}
