package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/stepmath/mathsteps/internal/api"
	"github.com/stepmath/mathsteps/internal/history"
	"github.com/stepmath/mathsteps/internal/svcctx"
)

// HealthResponse is the response for health check endpoints.
type HealthResponse struct {
	Status string `json:"status"`
	Solver string `json:"solver,omitempty"`
}

// HealthEndpoint handles GET /health.
type HealthEndpoint struct{}

func (e *HealthEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/health", e.handler
}

func (e *HealthEndpoint) RequiresInit() bool { return false }

func (e *HealthEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (e *HealthEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp HealthResponse
			if err := client.Get(cmd.Context(), "/health", &resp); err != nil {
				return err
			}
			fmt.Printf("Status: %s\n", resp.Status)
			return nil
		},
	}
}

// ReadyEndpoint handles GET /ready.
type ReadyEndpoint struct{}

func (e *ReadyEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/ready", e.handler
}

func (e *ReadyEndpoint) RequiresInit() bool { return false }

func (e *ReadyEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Solver: "ok"}

	if svcctx.SolverFrom(r.Context()) == nil {
		resp.Status = "degraded"
		resp.Solver = "not_initialized"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *ReadyEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "ready",
		Short: "Check server readiness (includes solve pipeline)",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp HealthResponse
			if err := client.Get(cmd.Context(), "/ready", &resp); err != nil {
				return err
			}
			fmt.Printf("Status: %s\n", resp.Status)
			if resp.Solver != "" {
				fmt.Printf("Solver: %s\n", resp.Solver)
			}
			return nil
		},
	}
}

// StatusResponse is the detailed status response.
type StatusResponse struct {
	Server  string        `json:"server"`
	Explain ExplainStatus `json:"explain"`
	History HistoryStatus `json:"history"`
}

// ExplainStatus shows whether the AI explanation gate is active.
type ExplainStatus struct {
	Enabled  bool   `json:"enabled"`
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

// HistoryStatus shows the solve-event recording backend.
type HistoryStatus struct {
	Backend   string `json:"backend"`
	Container string `json:"container,omitempty"`
}

// StatusEndpoint handles GET /status.
type StatusEndpoint struct {
	// HistoryManager is set by the server when it manages the
	// Postgres container itself.
	HistoryManager *history.DockerManager
}

func (e *StatusEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/status", e.handler
}

func (e *StatusEndpoint) RequiresInit() bool { return false }

func (e *StatusEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Server: "running",
		History: HistoryStatus{
			Backend: "off",
		},
	}

	if mgr := svcctx.ConfigManagerFrom(r.Context()); mgr != nil {
		cfg := mgr.Get()
		resp.Explain.Enabled = cfg.Explain.Enabled
		if cfg.Explain.Enabled {
			resp.Explain.Provider = cfg.Explain.Provider
			resp.Explain.Model = cfg.Explain.Model
		}
	}

	switch svcctx.HistoryFrom(r.Context()).(type) {
	case *history.Store:
		resp.History.Backend = "postgres"
	case *history.Memory:
		resp.History.Backend = "memory"
	}

	if e.HistoryManager != nil {
		status, err := e.HistoryManager.Status(r.Context())
		if err != nil {
			resp.History.Container = "error"
		} else {
			resp.History.Container = string(status)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *StatusEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Get detailed server status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp StatusResponse
			if err := client.Get(cmd.Context(), "/status", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ErrorResponse is a standard error response. FallbackSuggested tells
// the client to offer the free-text solving pathway instead of showing
// a raw failure.
type ErrorResponse struct {
	Error             string `json:"error"`
	FallbackSuggested bool   `json:"fallback_suggested,omitempty"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
