// Package api implements the fwapi HTTP surface: the VM-triggered rule GC
// endpoints, the rule read/write surface, and the operational endpoints.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/perimetra/fwapi/internal/clock"
	"github.com/perimetra/fwapi/internal/gc"
	"github.com/perimetra/fwapi/internal/inventory"
	"github.com/perimetra/fwapi/internal/logging"
	"github.com/perimetra/fwapi/internal/metrics"
	"github.com/perimetra/fwapi/internal/rulestore"
)

// ServerConfig holds HTTP server hardening configuration.
type ServerConfig struct {
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
}

// DefaultServerConfig returns secure default server configuration.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}
}

// Server handles API requests.
type Server struct {
	inv       inventory.Client
	store     rulestore.Store
	engine    *gc.Engine
	logger    *logging.Logger
	startTime time.Time

	mux *http.ServeMux
	srv *http.Server
}

// ServerOptions holds dependencies for the API server.
type ServerOptions struct {
	Inventory inventory.Client
	Store     rulestore.Store
	Logger    *logging.Logger
	Config    *ServerConfig
}

// NewServer creates a new API server with the provided options.
func NewServer(opts ServerOptions) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logging.New(logging.DefaultConfig())
	}
	if opts.Config == nil {
		opts.Config = DefaultServerConfig()
	}

	s := &Server{
		inv:       opts.Inventory,
		store:     opts.Store,
		engine:    gc.NewEngine(opts.Inventory, opts.Store, logger),
		logger:    logger.WithComponent("api"),
		startTime: clock.Now(),
		mux:       http.NewServeMux(),
	}
	s.routes()

	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: opts.Config.ReadHeaderTimeout,
		ReadTimeout:       opts.Config.ReadTimeout,
		WriteTimeout:      opts.Config.WriteTimeout,
		IdleTimeout:       opts.Config.IdleTimeout,
		MaxHeaderBytes:    opts.Config.MaxHeaderBytes,
	}
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /firewalls/vms/{uuid}", s.handleListVMRules)
	s.mux.HandleFunc("DELETE /firewalls/vms/{uuid}", s.handleVMRuleGC)

	s.mux.HandleFunc("GET /firewalls/rules", s.handleListRules)
	s.mux.HandleFunc("POST /firewalls/rules", s.handleCreateRule)
	s.mux.HandleFunc("GET /firewalls/rules/{uuid}", s.handleGetRule)
	s.mux.HandleFunc("DELETE /firewalls/rules/{uuid}", s.handleDeleteRule)

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /metrics", metrics.Handler())
}

// Handler returns the full middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.accessLog(s.mux)
}

// ListenAndServe serves the API on addr until the listener fails or the
// server is shut down.
func (s *Server) ListenAndServe(addr string) error {
	s.srv.Addr = addr
	s.logger.Info("api listening", "addr", addr)
	return s.srv.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
