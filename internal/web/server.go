// Package web provides the HTTP server and handlers for the classdata API.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/classdata/internal/catalog"
	"github.com/JonMunkholm/classdata/internal/config"
	"github.com/JonMunkholm/classdata/internal/ingest"
	"github.com/JonMunkholm/classdata/internal/tabular"
	"github.com/JonMunkholm/classdata/internal/web/middleware"
)

// Catalog is the relational store as seen by handlers.
type Catalog interface {
	Courses(ctx context.Context, f catalog.CourseFilter) ([]catalog.Course, error)
	Resources(ctx context.Context, f catalog.ResourceFilter) ([]catalog.Resource, error)
}

// Server is the HTTP server for the classdata API.
type Server struct {
	cfg      *config.Config
	students *tabular.Table
	coffee   *tabular.Table
	catalog  Catalog
	router   *chi.Mux
	routes   []Route
	limiter  *middleware.RateLimiter
	uploads  *ingest.Limiter
	server   *http.Server
}

// NewServer wires handlers over the loaded datasets and the catalog. The
// tables must contain the students and coffee datasets.
func NewServer(cfg *config.Config, tables *tabular.Store, cat Catalog) (*Server, error) {
	students, ok := tables.Table(tabular.Students)
	if !ok {
		return nil, errors.New("web: students dataset not loaded")
	}
	coffee, ok := tables.Table(tabular.Coffee)
	if !ok {
		return nil, errors.New("web: coffee dataset not loaded")
	}

	s := &Server{
		cfg:      cfg,
		students: students,
		coffee:   coffee,
		catalog:  cat,
		router:   chi.NewRouter(),
		uploads:  ingest.NewLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWait),
	}
	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s, nil
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	}
	s.router.Use(middleware.SecurityHeaders)

	if s.cfg.Rate.Enabled {
		s.limiter = middleware.NewRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute)
		s.router.Use(s.limiter.Middleware)
	}

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusNotFound, map[string]string{"error": "Not Found"})
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusMethodNotAllowed, map[string]string{"error": "Method Not Allowed"})
	})
}

// setupRoutes registers the route table, wrapping protected routes in the
// shared-secret gate.
func (s *Server) setupRoutes() {
	gate := middleware.APIKeyAuth(s.cfg.Security.APIKey, s.cfg.Security.APIKeyParam)

	s.routes = s.routeTable()
	for _, rt := range s.routes {
		var h http.Handler = rt.handler
		if rt.Protected {
			h = gate(h)
		}
		s.router.Method(rt.Method, rt.Pattern, h)
	}
}

// Routes returns the registered routes and their protection.
func (s *Server) Routes() []Route {
	out := make([]Route, len(s.routes))
	copy(out, s.routes)
	return out
}

// LogRoutes writes the route table at startup so the protection of every
// route is visible in the logs.
func (s *Server) LogRoutes(logger *slog.Logger) {
	for _, rt := range s.routes {
		logger.Info("route", "method", rt.Method, "pattern", rt.Pattern, "protected", rt.Protected)
	}
}

// Start listens on the configured address until Shutdown is called. ctx
// bounds background maintenance only; in-flight requests are drained by
// Shutdown.
func (s *Server) Start(ctx context.Context) error {
	if s.limiter != nil {
		go s.limiter.Run(ctx)
	}

	slog.Info("starting server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections, then waits for in-flight uploads
// to finish parsing.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	if err := s.uploads.WaitForDrain(ctx); err != nil {
		return fmt.Errorf("waiting for uploads: %w", err)
	}
	return nil
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
