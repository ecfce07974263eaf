package explain

import (
	"context"
	"sync"
	"time"
)

// MockClient is a scripted Client for tests. Responses are returned in
// order; the last one repeats once the script runs out.
type MockClient struct {
	Responses []string
	Err       error
	Latency   time.Duration

	mu      sync.Mutex
	prompts []string
}

// Chat records the prompt and returns the next scripted response.
func (m *MockClient) Chat(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	idx := len(m.prompts) - 1
	m.mu.Unlock()

	if m.Latency > 0 {
		select {
		case <-time.After(m.Latency):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return "", nil
	}
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	}
	return m.Responses[idx], nil
}

// Calls reports how many chat calls were made.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// Prompt returns the i-th recorded prompt, or "" when out of range.
func (m *MockClient) Prompt(i int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i < 0 || i >= len(m.prompts) {
		return ""
	}
	return m.prompts[i]
}

var _ Client = (*MockClient)(nil)
