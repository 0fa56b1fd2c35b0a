// Package server provides the HTTP API of fractree: tree generation
// summaries, health and Prometheus metrics, served through a chi router.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/agbru/fractree/internal/config"
	apperrors "github.com/agbru/fractree/internal/errors"
	"github.com/agbru/fractree/internal/fractal"
	"github.com/agbru/fractree/internal/logging"
	"github.com/agbru/fractree/internal/service"
)

// Server is the fractree HTTP server.
type Server struct {
	service    service.Service
	cfg        config.AppConfig
	router     chi.Router
	httpServer *http.Server
	logger     logging.Logger
	metrics    *Metrics
	timeouts   Timeouts
}

// NewServer creates a Server for cfg. Query parameters omitted by a request
// fall back to the generation settings of cfg.
//
// Parameters:
//   - cfg: The application configuration (port, defaults, size limit).
//   - opts: Optional functional options (WithLogger, WithService, ...).
//
// Returns:
//   - *Server: The initialized server, not yet listening.
func NewServer(cfg config.AppConfig, opts ...Option) *Server {
	s := &Server{
		cfg:      cfg,
		logger:   logging.NewDefaultLogger(),
		metrics:  NewMetrics(),
		timeouts: DefaultServerTimeouts(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.service == nil {
		gen := fractal.NewGenerator(fractal.WithLogger(s.logger))
		s.service = service.NewTreeService(gen, cfg.MaxBranches)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.loggingMiddleware)
	r.Use(s.metricsMiddleware)
	r.Get("/generate", s.handleGenerate)
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	s.router = r

	s.httpServer = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  s.timeouts.ReadTimeout,
		WriteTimeout: s.timeouts.WriteTimeout,
		IdleTimeout:  s.timeouts.IdleTimeout,
	}
	return s
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured port and serves until ctx is done.
//
// Returns:
//   - error: A ServerError if the listener cannot be opened or shutdown fails.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return apperrors.NewServerError("server failed to start", err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully within the shutdown timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server",
			logging.String("addr", ln.Addr().String()),
			logging.Int("max_branches", s.cfg.MaxBranches))
		s.logger.Info("endpoints: GET /generate?trunk_length&ratio&angle&min_length&workers, GET /health, GET /metrics")
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, initiating graceful shutdown")
	case err, ok := <-errCh:
		if ok {
			return apperrors.NewServerError("server stopped unexpectedly", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.timeouts.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return apperrors.NewServerError("failed to gracefully shutdown server", err)
	}
	s.logger.Info("server stopped gracefully")
	return nil
}
