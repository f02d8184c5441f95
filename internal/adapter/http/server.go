// Package http serves the sighting views, the filter controls and the
// operational endpoints over HTTP.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/cat-sightings-service/internal/view"
)

// maxBodyBytes caps filter update bodies.
const maxBodyBytes = 64 << 10

// Server exposes the view API plus health, readiness, and metrics routes.
type Server struct {
	httpServer *http.Server
	views      *view.Service
	logger     *slog.Logger
}

// NewServer creates an HTTP server. corsOrigins may be empty to disable CORS
// headers entirely.
func NewServer(addr string, views *view.Service, ready sharedobs.ReadinessChecker, corsOrigins []string, logger *slog.Logger) *Server {
	r := chi.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		views:  views,
		logger: logger,
	}

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	if len(corsOrigins) > 0 {
		r.Use(corsHandler(corsOrigins))
	}

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(ready))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/view", s.handleView)
		r.Get("/export.csv", s.handleExport)
		r.Get("/report", s.handleReport)

		r.Route("/filters", func(r chi.Router) {
			r.Use(chimiddleware.RequestSize(maxBodyBytes))
			r.Get("/", s.handleGetFilters)
			r.Put("/time", s.handleSetTime)
			r.Put("/region", s.handleSetRegion)
			r.Post("/region/toggle", s.handleToggleRegion)
		})
	})

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
