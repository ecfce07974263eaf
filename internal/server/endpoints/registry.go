package endpoints

import (
	"github.com/stepmath/mathsteps/internal/api"
	"github.com/stepmath/mathsteps/internal/history"
)

// Config holds dependencies needed by some endpoints.
type Config struct {
	HistoryManager *history.DockerManager
}

// All returns all endpoint instances.
func All(cfg Config) []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&ReadyEndpoint{},
		&StatusEndpoint{HistoryManager: cfg.HistoryManager},

		// Pipeline endpoints
		&SolveEndpoint{},
		&SolveBatchEndpoint{},
		&ClassifyEndpoint{},
		&CanonicalizeEndpoint{},
		&StepsEndpoint{},

		// History endpoint
		&HistoryEndpoint{},
	}
}
