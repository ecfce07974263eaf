// Package svcctx provides service context for dependency injection via context.
// This package is separate from server to avoid import cycles with endpoints.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/stepmath/mathsteps/internal/config"
	"github.com/stepmath/mathsteps/internal/history"
	"github.com/stepmath/mathsteps/internal/home"
	"github.com/stepmath/mathsteps/internal/solver"
)

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	Solver     *solver.Solver
	History    history.Recorder
	ConfigMgr  *config.Manager
	Logger     *slog.Logger
	Home       *home.Dir
	BatchLimit int
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// SolverFrom extracts the solve pipeline from context.
func SolverFrom(ctx context.Context) *solver.Solver {
	if s := ServicesFrom(ctx); s != nil {
		return s.Solver
	}
	return nil
}

// HistoryFrom extracts the solve-event recorder from context.
func HistoryFrom(ctx context.Context) history.Recorder {
	if s := ServicesFrom(ctx); s != nil {
		return s.History
	}
	return nil
}

// ConfigManagerFrom extracts the config manager from context.
func ConfigManagerFrom(ctx context.Context) *config.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.ConfigMgr
	}
	return nil
}

// LoggerFrom extracts the logger from context.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil {
		return s.Logger
	}
	return nil
}

// HomeFrom extracts the home directory from context.
func HomeFrom(ctx context.Context) *home.Dir {
	if s := ServicesFrom(ctx); s != nil {
		return s.Home
	}
	return nil
}

// BatchLimitFrom extracts the batch parallelism bound from context.
// Returns 0 when unset; callers apply their own default.
func BatchLimitFrom(ctx context.Context) int {
	if s := ServicesFrom(ctx); s != nil {
		return s.BatchLimit
	}
	return 0
}
