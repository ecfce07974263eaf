package history

import (
	"context"
	"sync"
)

// DefaultMemoryCapacity bounds the in-memory recorder when the caller
// does not pick a size.
const DefaultMemoryCapacity = 200

// Memory keeps the newest events in a fixed-size ring. It backs the
// server when Postgres is not configured and makes tests hermetic.
// Safe for concurrent use.
type Memory struct {
	mu       sync.Mutex
	capacity int
	events   []SolveEvent
}

// NewMemory creates a ring recorder holding up to capacity events.
// Non-positive capacity falls back to DefaultMemoryCapacity.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &Memory{capacity: capacity}
}

// Record appends the event, evicting the oldest when full.
func (m *Memory) Record(ctx context.Context, ev SolveEvent) error {
	ev = stamp(ev)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.events = append(m.events, ev)
	if len(m.events) > m.capacity {
		m.events = m.events[len(m.events)-m.capacity:]
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (m *Memory) Recent(ctx context.Context, limit int) ([]SolveEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.events)
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]SolveEvent, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, m.events[i])
	}
	return out, nil
}

// Len reports how many events are currently held.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

var _ Recorder = (*Memory)(nil)
var _ Recorder = Nop{}
