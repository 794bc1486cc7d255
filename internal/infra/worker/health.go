package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// OpsServer is the worker's HTTP side door. It always serves the two
// Kubernetes probes:
//   - /health: liveness probe (always 200 OK)
//   - /health/ready: readiness probe (200 if ready, 503 if not)
//
// Additional routes (Prometheus metrics, manual gallery checks) are mounted
// with Handle before Start. The server supports graceful shutdown via
// context cancellation.
//
// Example usage:
//
//	ops := NewOpsServer(":9091", logger)
//	ops.Handle("/metrics", promhttp.Handler())
//	go func() {
//	    if err := ops.Start(ctx); err != nil && err != http.ErrServerClosed {
//	        logger.Error("ops server failed", slog.Any("error", err))
//	    }
//	}()
//	ops.SetReady(true) // after initialization
type OpsServer struct {
	addr    string
	logger  *slog.Logger
	isReady *atomic.Bool
	mux     *http.ServeMux
	server  *http.Server
}

// healthResponse is the JSON response format for health check endpoints.
type healthResponse struct {
	Status string `json:"status"`
}

// NewOpsServer creates an ops server listening on addr. The server starts
// as not ready; call SetReady(true) once the worker is wired up.
func NewOpsServer(addr string, logger *slog.Logger) *OpsServer {
	isReady := &atomic.Bool{}
	isReady.Store(false)

	s := &OpsServer{
		addr:    addr,
		logger:  logger,
		isReady: isReady,
		mux:     http.NewServeMux(),
	}
	s.mux.HandleFunc("/health", s.handleLiveness)
	s.mux.HandleFunc("/health/ready", s.handleReadiness)
	return s
}

// Handle mounts an additional route. Must be called before Start.
func (s *OpsServer) Handle(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
}

// Start runs the ops HTTP server. This is a blocking call that serves until
// the context is cancelled or the listener fails, then shuts down gracefully
// with a 5-second timeout. Returns http.ErrServerClosed on clean shutdown.
func (s *OpsServer) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("ops server starting", slog.String("addr", s.addr))
		if err := s.server.ListenAndServe(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("ops server shutting down")
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("ops server shutdown failed", slog.Any("error", err))
			return err
		}
		s.logger.Info("ops server stopped")
		return http.ErrServerClosed

	case err := <-errChan:
		if err == http.ErrServerClosed {
			return err
		}
		s.logger.Error("ops server failed", slog.Any("error", err))
		return err
	}
}

// SetReady sets the readiness state reported by /health/ready.
func (s *OpsServer) SetReady(ready bool) {
	s.isReady.Store(ready)
	s.logger.Info("ops server readiness changed", slog.Bool("ready", ready))
}

// handleLiveness always returns 200 OK. The liveness probe only cares that
// the process is responsive at all.
func (s *OpsServer) handleLiveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(healthResponse{Status: "ok"}); err != nil {
		s.logger.Error("failed to encode liveness response", slog.Any("error", err))
	}
}

// handleReadiness returns 200 once the worker is fully wired, 503 before
// that and during shutdown.
func (s *OpsServer) handleReadiness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if s.isReady.Load() {
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(healthResponse{Status: "ok"}); err != nil {
			s.logger.Error("failed to encode readiness response", slog.Any("error", err))
		}
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
		if err := json.NewEncoder(w).Encode(healthResponse{Status: "not ready"}); err != nil {
			s.logger.Error("failed to encode not ready response", slog.Any("error", err))
		}
	}
}
