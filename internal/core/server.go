// Package core provides the HTTP chassis for the Skycast API. It builds a chi
// router that serves both a local net/http listener and AWS Lambda (through
// LambdaAdapter), and enforces the cross-cutting concerns (recovery, request
// ids, logging, metrics, compression) before requests reach the handlers.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"skycast/internal/config"
)

// MetricsCollector records API request telemetry.
type MetricsCollector interface {
	RecordRequest(method, endpoint, status string, duration time.Duration)
}

// RouteRegistrar mounts a group of handlers under /v1.
type RouteRegistrar func(r chi.Router)

// Server holds the dependencies of the API so tests and the two entry points
// (local listener, Lambda) can assemble it differently.
type Server struct {
	Config       *config.Config
	Logger       *slog.Logger
	Validator    *Validator
	Metrics      MetricsCollector
	HealthProbes []HealthProbe

	// Features reports optional capabilities (e.g. "summary") in /health.
	Features map[string]bool

	// V1RouteRegistrars are populated by main to avoid an import cycle
	// between core and the handler packages.
	V1RouteRegistrars []RouteRegistrar

	router *chi.Mux
}

// NewServer prepares a server with an empty router. Call MountRoutes after
// registering probes and route registrars.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	return &Server{
		Config:    cfg,
		Logger:    logger,
		Validator: NewValidator(logger),
		router:    chi.NewRouter(),
	}, nil
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the underlying chi.Mux.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// ListenAndServe serves on the configured port until ctx is cancelled, then
// drains in-flight requests for at most ShutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.Config.Server.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", srv.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.Config.Server.ShutdownTimeout)
	defer cancel()
	s.Logger.Info("server shutdown initiated")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	s.Logger.Info("server shutdown complete")
	return nil
}
