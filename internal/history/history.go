// Package history records solve events. Every pipeline invocation
// produces one SolveEvent whether it succeeded or fell back, so the
// recent-activity view and the CLI history command see failures too.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Explanation status values stored on a SolveEvent.
const (
	ExplanationOff      = "off"
	ExplanationAccepted = "accepted"
	ExplanationRejected = "rejected"
	ExplanationError    = "error"
)

// SolveEvent is one record of a pipeline invocation.
type SolveEvent struct {
	ID            string    `json:"id"`
	RequestID     string    `json:"request_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	OriginalInput string    `json:"original_input"`
	Expression    string    `json:"expression,omitempty"`
	Operation     string    `json:"operation"`
	ProblemType   string    `json:"problem_type,omitempty"`
	Confidence    float64   `json:"confidence,omitempty"`
	Result        string    `json:"result,omitempty"`
	LaTeX         string    `json:"latex,omitempty"`
	StepCount     int       `json:"step_count"`
	Explanation   string    `json:"explanation"`
	OK            bool      `json:"ok"`
	ErrorKind     string    `json:"error_kind,omitempty"`
	DurationMS    int64     `json:"duration_ms"`
}

// Recorder persists solve events and serves the most recent ones.
type Recorder interface {
	// Record stores one event. Implementations fill ID and CreatedAt
	// when the caller left them empty.
	Record(ctx context.Context, ev SolveEvent) error

	// Recent returns up to limit events, newest first.
	Recent(ctx context.Context, limit int) ([]SolveEvent, error)
}

// Nop discards every event. Used when history is not configured.
type Nop struct{}

func (Nop) Record(ctx context.Context, ev SolveEvent) error { return nil }

func (Nop) Recent(ctx context.Context, limit int) ([]SolveEvent, error) { return nil, nil }

// stamp fills in the identity fields a caller normally leaves empty.
func stamp(ev SolveEvent) SolveEvent {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	if ev.Explanation == "" {
		ev.Explanation = ExplanationOff
	}
	return ev
}
