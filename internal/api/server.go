// Package api exposes backtest runs over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/karanvs/vega/internal/api/job"
	"github.com/karanvs/vega/internal/api/response"
	"github.com/karanvs/vega/internal/backtest"
	"github.com/karanvs/vega/internal/metrics"
	"github.com/karanvs/vega/internal/notifier"
	"github.com/karanvs/vega/internal/strategy"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server is the HTTP server for VEGA.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
}

// Config holds server configuration.
type Config struct {
	Host        string
	Port        int
	MetricsPath string
}

// Deps are the collaborators the server routes requests to.
type Deps struct {
	Backtester *backtest.Backtester
	Strategies *strategy.Registry
	Jobs       *job.Store
	Writer     *backtest.Writer
	Notifiers  *notifier.Registry
	Metrics    *metrics.Registry
}

// NewServer creates a new HTTP server.
func NewServer(cfg Config, deps Deps, logger *zap.Logger) *Server {
	mux := http.NewServeMux()

	var handler http.Handler = mux
	if deps.Metrics != nil {
		handler = metrics.HTTPMiddleware(deps.Metrics)(mux)
	}

	s := &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      handler,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
		mux:    mux,
	}

	s.setupRoutes(cfg, deps)
	return s
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes(cfg Config, deps Deps) {
	bt := newBacktestHandler(deps, s.logger)

	s.mux.HandleFunc("POST /api/backtest", bt.Create)
	s.mux.HandleFunc("GET /api/backtest", bt.List)
	s.mux.HandleFunc("GET /api/backtest/{id}", bt.GetStatus)
	s.mux.HandleFunc("GET /api/strategies", bt.ListStrategies)
	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	if deps.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		s.mux.Handle("GET "+path, promhttp.HandlerFor(deps.Metrics.Registry, promhttp.HandlerOpts{}))
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
