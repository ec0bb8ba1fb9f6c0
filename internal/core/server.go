// Package core provides the API chassis for the AgriDash service. It creates
// a chi router and enforces cross-cutting concerns -- panic recovery, request
// timeouts, logging, compression, CORS, and metrics -- before requests reach
// domain-specific handlers.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"agridash/internal/config"
)

// MetricsCollector defines the interface for recording API telemetry.
type MetricsCollector interface {
	// RecordRequest records one API request with its latency.
	RecordRequest(method, endpoint, status string, duration time.Duration)
}

// Server encapsulates the dependencies of the AgriDash API, allowing
// injection during testing and distinct wiring per environment.
type Server struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics MetricsCollector

	// HealthProbes are checked concurrently by GET /health.
	HealthProbes []HealthProbe

	// MetricsHandler serves GET /metrics when set (Prometheus exposition).
	MetricsHandler http.Handler

	// V1RouteRegistrars are populated by the entry point to mount domain
	// handlers under /v1. The indirection avoids import cycles between core
	// and the handler packages.
	V1RouteRegistrars []func(chi.Router)

	router *chi.Mux
}

// NewServer initializes the server chassis. The caller mounts routes after
// construction via MountRoutes; this separation lets tests customize route
// registration.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	return &Server{
		Config: cfg,
		Logger: logger,
		router: chi.NewRouter(),
	}, nil
}

// Handler returns the http.Handler for the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the underlying chi.Mux for route registration in tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Shutdown performs graceful termination of server-held resources.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.Info("server shutdown initiated")
	_ = ctx
	s.Logger.Info("server shutdown complete")
	return nil
}
