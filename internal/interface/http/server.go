// Package http implements the ops HTTP server of the mentoring worker:
// health probes, Prometheus metrics, debug views and admin actions.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/alem-hub/mentoring-hub/internal/interface/http/handlers"
	"github.com/alem-hub/mentoring-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SERVER CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config contains HTTP server configuration.
type Config struct {
	// Addr to listen on (default ":9090").
	Addr string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// MaxHeaderBytes - maximum size of request headers.
	MaxHeaderBytes int

	// APIKey guards /admin routes. Empty leaves them unregistered.
	APIKey string
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		Addr:           ":9090",
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// Dependencies contains everything the routes need.
type Dependencies struct {
	Logger *logger.Logger

	// Health is required.
	Health *handlers.HealthChecker

	// Metrics serves /metrics when set.
	Metrics http.Handler

	// Ops serves the debug and admin routes when set.
	Ops *handlers.OpsHandler
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER
// ══════════════════════════════════════════════════════════════════════════════

// Server represents the ops HTTP server.
type Server struct {
	config     Config
	deps       Dependencies
	httpServer *http.Server
	router     *http.ServeMux
	logger     *logger.Logger

	mu        sync.RWMutex
	running   bool
	startedAt time.Time
}

// NewServer creates a Server.
func NewServer(config Config, deps Dependencies) (*Server, error) {
	if deps.Health == nil {
		return nil, errors.New("http: health checker is required")
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if config.Addr == "" {
		config.Addr = DefaultConfig().Addr
	}

	s := &Server{
		config: config,
		deps:   deps,
		router: http.NewServeMux(),
		logger: deps.Logger.With(logger.Component("ops_http")),
	}
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr: config.Addr,
		Handler: handlers.Chain(s.router,
			handlers.RequestIDMiddleware,
			handlers.RecoveryMiddleware(s.logger),
			handlers.LoggingMiddleware(s.logger),
		),
		ReadTimeout:    config.ReadTimeout,
		WriteTimeout:   config.WriteTimeout,
		IdleTimeout:    config.IdleTimeout,
		MaxHeaderBytes: config.MaxHeaderBytes,
	}
	return s, nil
}

// Handler returns the routed handler with middleware, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ══════════════════════════════════════════════════════════════════════════════
// ROUTING
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) setupRoutes() {
	// ─────────────────────────────────────────────────────────────────────────
	// Health
	// ─────────────────────────────────────────────────────────────────────────
	s.router.HandleFunc("GET /live", s.deps.Health.Live)
	s.router.HandleFunc("GET /health", s.deps.Health.Ready)
	s.router.HandleFunc("GET /healthz", s.deps.Health.Ready)
	s.router.HandleFunc("GET /ready", s.deps.Health.Ready)

	// ─────────────────────────────────────────────────────────────────────────
	// Metrics
	// ─────────────────────────────────────────────────────────────────────────
	if s.deps.Metrics != nil {
		s.router.Handle("GET /metrics", s.deps.Metrics)
	}

	ops := s.deps.Ops
	if ops == nil {
		return
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Debug (read-only)
	// ─────────────────────────────────────────────────────────────────────────
	s.router.HandleFunc("GET /debug/auto-cancel", ops.PendingAutoCancel)
	s.router.HandleFunc("GET /debug/jobs", ops.ListJobs)
	s.router.HandleFunc("GET /debug/mail/dead-letters", ops.ListDeadLetters)
	s.router.HandleFunc("GET /debug/assets/orphaned", ops.ListOrphanedAssets)

	// ─────────────────────────────────────────────────────────────────────────
	// Admin
	// ─────────────────────────────────────────────────────────────────────────
	if s.config.APIKey == "" {
		s.logger.Warn("ops API key is not set, admin routes disabled")
		return
	}
	auth := handlers.NewAPIKeyAuth("X-API-Key", s.config.APIKey)
	s.router.Handle("POST /admin/jobs/{name}/run", auth.Middleware(http.HandlerFunc(ops.RunJob)))
	s.router.Handle("GET /admin/settlements/{month}", auth.Middleware(http.HandlerFunc(ops.ExportSettlement)))
	s.router.Handle("POST /admin/assets/orphaned/forget", auth.Middleware(http.HandlerFunc(ops.ForgetOrphanedAssets)))
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Start serves until Shutdown.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.running = true
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("starting ops HTTP server", logger.String("address", s.config.Addr))

	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// StartAsync starts the server in a goroutine. The channel yields a
// listen error, or is closed after Shutdown.
func (s *Server) StartAsync() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info("shutting down ops HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Uptime returns the server uptime.
func (s *Server) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return 0
	}
	return time.Since(s.startedAt)
}
