// Package api serves manifest tooling over HTTP: lint and convert
// endpoints for Pipfile content, plus package metadata lookups against
// the configured index. It exists so editors and CI can reuse the same
// validation the CLI performs without shelling out.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/umarmnaq/pipenv/pkg/cache"
	"github.com/umarmnaq/pipenv/pkg/pipfile"
	"github.com/umarmnaq/pipenv/pkg/registry"
)

// Config configures the API server.
type Config struct {
	Addr     string // listen address, defaults to :8080
	Source   pipfile.Source
	Cache    cache.Cache
	CacheTTL time.Duration
	Logger   *log.Logger
	MaxBody  int64 // request body limit in bytes, defaults to 1 MiB
}

// Server wraps the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	registry   *registry.Client
	logger     *log.Logger
	maxBody    int64
}

// New assembles the router and returns a server ready to start.
func New(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.MaxBody <= 0 {
		cfg.MaxBody = 1 << 20
	}
	if cfg.Source.URL == "" {
		cfg.Source = pipfile.DefaultSource()
	}

	s := &Server{
		registry: registry.New(cfg.Source, cfg.Cache, cfg.CacheTTL),
		logger:   cfg.Logger,
		maxBody:  cfg.MaxBody,
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogger(cfg.Logger))

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/lint", s.handleLint)
		r.Post("/convert", s.handleConvert)
		r.Get("/packages/{name}", s.handlePackage)
	})

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Start runs the server until it is shut down.
func (s *Server) Start() error {
	s.logger.Info("starting API server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
