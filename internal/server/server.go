package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/stepmath/mathsteps/internal/api"
	"github.com/stepmath/mathsteps/internal/config"
	"github.com/stepmath/mathsteps/internal/explain"
	"github.com/stepmath/mathsteps/internal/history"
	"github.com/stepmath/mathsteps/internal/home"
	"github.com/stepmath/mathsteps/internal/server/endpoints"
	"github.com/stepmath/mathsteps/internal/solver"
	"github.com/stepmath/mathsteps/internal/svcctx"
)

// Server is the main MathSteps HTTP server. When history recording is
// enabled without an external DSN it also manages the Postgres
// container lifecycle - starting it on server start and stopping it on
// shutdown.
type Server struct {
	httpServer     *http.Server
	historyManager *history.DockerManager
	historyStore   *history.Store
	configMgr      *config.Manager
	home           *home.Dir
	logger         *slog.Logger

	// services holds all core services for context enrichment
	services *svcctx.Services

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: from config, then 127.0.0.1)
	Host string
	// Port is the port to listen on (default: from config, then 8080)
	Port string
	// ConfigManager provides configuration with hot-reload support
	ConfigManager *config.Manager
	// Home is the mathsteps home directory (Postgres data lives there)
	Home *home.Dir
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.ConfigManager == nil {
		return nil, errors.New("config manager is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	appCfg := cfg.ConfigManager.Get()
	if cfg.Host == "" {
		cfg.Host = appCfg.Server.Host
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == "" {
		cfg.Port = appCfg.Server.Port
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	s := &Server{
		configMgr: cfg.ConfigManager,
		home:      cfg.Home,
		logger:    cfg.Logger,
	}

	// A managed container is only needed when history is on and no
	// external DSN points elsewhere.
	if appCfg.History.Enabled && appCfg.History.DSN == "" {
		mgr, err := history.NewDockerManager(dockerConfig(appCfg, cfg.Home))
		if err != nil {
			return nil, fmt.Errorf("failed to create history manager: %w", err)
		}
		s.historyManager = mgr
	}

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All(endpoints.Config{HistoryManager: s.historyManager}) {
		s.endpointRegistry.Register(ep)
	}

	// Set up HTTP server
	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:      s.withServices(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

func dockerConfig(cfg *config.Config, h *home.Dir) history.DockerConfig {
	dc := history.DockerConfig{
		ContainerName: cfg.History.Postgres.ContainerName,
		Image:         cfg.History.Postgres.Image,
		HostPort:      cfg.History.Postgres.Port,
		User:          cfg.History.Postgres.User,
		Password:      cfg.History.Postgres.Password,
		Database:      cfg.History.Postgres.Database,
	}
	if h != nil {
		dc.DataPath = h.PostgresDataPath()
	}
	return dc
}

// Start starts the server and, when managed, the history Postgres.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	recorder, err := s.startHistory(ctx)
	if err != nil {
		s.setNotRunning()
		return err
	}

	appCfg := s.configMgr.Get()
	s.setServices(s.buildServices(appCfg, recorder))

	// Rebuild the pipeline when config changes so explanation settings
	// apply without a restart. The history backend is fixed at start.
	s.configMgr.OnChange(func(c *config.Config) {
		s.setServices(s.buildServices(c, recorder))
		s.logger.Info("solve pipeline reloaded from config")
	})

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			_ = s.shutdown()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// startHistory brings up the configured history backend and returns
// the recorder the pipeline should use.
func (s *Server) startHistory(ctx context.Context) (history.Recorder, error) {
	appCfg := s.configMgr.Get()
	if !appCfg.History.Enabled {
		return history.Nop{}, nil
	}

	dsn := appCfg.History.DSN
	if s.historyManager != nil {
		// Validate any existing container matches our config
		if err := s.historyManager.ValidateExisting(ctx); err != nil {
			return nil, fmt.Errorf("existing history container incompatible: %w", err)
		}

		s.logger.Info("starting history Postgres")
		if err := s.historyManager.Start(ctx); err != nil {
			return nil, fmt.Errorf("failed to start history Postgres: %w", err)
		}
		if err := s.historyManager.WaitReady(ctx, 60*time.Second); err != nil {
			return nil, fmt.Errorf("history Postgres not ready: %w", err)
		}
		dsn = s.historyManager.DSN()
	}

	store, err := history.Open(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to ensure history schema: %w", err)
	}
	s.historyStore = store
	s.logger.Info("history recording enabled")
	return store, nil
}

// buildServices wires the solve pipeline from the current config.
func (s *Server) buildServices(appCfg *config.Config, recorder history.Recorder) *svcctx.Services {
	var gate *explain.Gate
	if appCfg.Explain.Enabled {
		client, err := explain.NewCerebrasClient(explain.Config{
			APIKey:  appCfg.ExplainAPIKey(),
			Model:   appCfg.Explain.Model,
			BaseURL: appCfg.ExplainBaseURL(),
		})
		if err != nil {
			s.logger.Warn("explanation disabled", "error", err)
		} else {
			gate = explain.NewGate(explain.NewService(client), appCfg.ExplainTimeout())
			s.logger.Info("explanation gate enabled",
				"provider", appCfg.Explain.Provider,
				"model", appCfg.Explain.Model)
		}
	}

	return &svcctx.Services{
		Solver: solver.New(solver.Config{
			Gate:     gate,
			Recorder: recorder,
			Logger:   s.logger,
		}),
		History:    recorder,
		ConfigMgr:  s.configMgr,
		Logger:     s.logger,
		Home:       s.home,
		BatchLimit: appCfg.Server.BatchLimit,
	}
}

func (s *Server) setServices(services *svcctx.Services) {
	s.mu.Lock()
	s.services = services
	s.mu.Unlock()
}

func (s *Server) getServices() *svcctx.Services {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.services
}

// shutdown performs graceful shutdown of the HTTP server and, when
// managed, the history Postgres.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	if s.historyStore != nil {
		if err := s.historyStore.Close(); err != nil {
			s.logger.Error("history store close error", "error", err)
		}
	}

	if s.historyManager != nil {
		s.logger.Info("stopping history Postgres")
		if err := s.historyManager.Stop(shutdownCtx); err != nil {
			s.logger.Error("history Postgres stop error", "error", err)
		}
		if err := s.historyManager.Close(); err != nil {
			s.logger.Error("history manager close error", "error", err)
		}
	}

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if services := s.getServices(); services != nil {
			ctx = svcctx.WithServices(ctx, services)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireInit is middleware that ensures the server is fully initialized.
// Returns 503 Service Unavailable until the solve pipeline is wired.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.getServices() == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"server not fully initialized"}`))
			return
		}
		next(w, r)
	}
}
