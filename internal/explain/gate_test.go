package explain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func reply(finalLatex string) string {
	return fmt.Sprintf(`{"steps":[{"step_number":1,"explanation":"Differentiate each term.","latex":"2x + 3"}],"final_answer":{"latex":%q}}`, finalLatex)
}

func TestEquivalent(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want bool
	}{
		{"identical", "2 x", "2 x", true},
		{"explicit multiplication", "2 x", "2*x", true},
		{"latex fraction vs decimal", `\frac{1}{2}`, "0.5", true},
		{"factored vs expanded", "x^2 - 4", "(x - 2)(x + 2)", true},
		{"equations side by side", "x = 5", "x = 5", true},
		{"different values", "2x", "3x", false},
		{"empty side", "x", "", false},
		{"equation vs expression", "x = 5", "5", false},
		{"unparsable latex", `\begin{bmatrix}1\end{bmatrix}`, "1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equivalent(tt.a, tt.b); got != tt.want {
				t.Errorf("Equivalent(%q, %q) = %v, expected %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestGateAcceptsVerifiedAnswer(t *testing.T) {
	mock := &MockClient{Responses: []string{reply("2x + 3")}}
	gate := NewGate(NewService(mock), 0)

	got, status := gate.Explain(context.Background(), Request{
		ProblemText:    "derivative of x^2 + 3x",
		Operation:      "derivative",
		CanonicalLaTeX: "2 x + 3",
	})
	if status != StatusAccepted {
		t.Fatalf("expected accepted, got %s", status)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 step, got %d", len(got))
	}
	if got[0].Title != "Step 1" || got[0].LaTeX != "2x + 3" {
		t.Errorf("unexpected step %+v", got[0])
	}
	if mock.Calls() != 1 {
		t.Errorf("expected 1 call, got %d", mock.Calls())
	}
}

func TestGateRetriesOnMismatch(t *testing.T) {
	mock := &MockClient{Responses: []string{reply("2x + 5"), reply("2x + 3")}}
	gate := NewGate(NewService(mock), 0)

	got, status := gate.Explain(context.Background(), Request{
		ProblemText:    "derivative of x^2 + 3x",
		Operation:      "derivative",
		CanonicalLaTeX: "2 x + 3",
	})
	if status != StatusAccepted {
		t.Fatalf("expected accepted after retry, got %s", status)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 step, got %d", len(got))
	}
	if mock.Calls() != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.Calls())
	}

	second := mock.Prompt(1)
	if !strings.Contains(second, "IMPORTANT: Your previous explanation produced an incorrect final result") {
		t.Error("expected correction block in retry prompt")
	}
	if !strings.Contains(second, "Your incorrect final result: 2x + 5") {
		t.Error("expected rejected answer in retry prompt")
	}
}

func TestGateRejectsAfterRetry(t *testing.T) {
	mock := &MockClient{Responses: []string{reply("5x"), reply("7x")}}
	gate := NewGate(NewService(mock), 0)

	got, status := gate.Explain(context.Background(), Request{
		Operation:      "derivative",
		CanonicalLaTeX: "2 x + 3",
	})
	if status != StatusRejected {
		t.Fatalf("expected rejected, got %s", status)
	}
	if got != nil {
		t.Errorf("expected no steps, got %v", got)
	}
	if mock.Calls() != 2 {
		t.Errorf("expected 2 calls, got %d", mock.Calls())
	}
}

func TestGateAPIErrorDoesNotRetry(t *testing.T) {
	mock := &MockClient{Err: errors.New("connection refused")}
	gate := NewGate(NewService(mock), 0)

	got, status := gate.Explain(context.Background(), Request{
		Operation:      "solve",
		CanonicalLaTeX: "x = 5",
	})
	if status != StatusError {
		t.Fatalf("expected error status, got %s", status)
	}
	if got != nil {
		t.Errorf("expected no steps, got %v", got)
	}
	if mock.Calls() != 1 {
		t.Errorf("expected 1 call, got %d", mock.Calls())
	}
}

func TestGateMalformedReplyDoesNotRetry(t *testing.T) {
	mock := &MockClient{Responses: []string{"I refuse to answer in JSON."}}
	gate := NewGate(NewService(mock), 0)

	_, status := gate.Explain(context.Background(), Request{
		Operation:      "solve",
		CanonicalLaTeX: "x = 5",
	})
	if status != StatusError {
		t.Fatalf("expected error status, got %s", status)
	}
	if mock.Calls() != 1 {
		t.Errorf("expected 1 call, got %d", mock.Calls())
	}
}

func TestGateOff(t *testing.T) {
	t.Run("nil gate", func(t *testing.T) {
		var gate *Gate
		if _, status := gate.Explain(context.Background(), Request{CanonicalLaTeX: "x"}); status != StatusOff {
			t.Errorf("expected off, got %s", status)
		}
	})

	t.Run("unconfigured service", func(t *testing.T) {
		gate := NewGate(NewService(nil), 0)
		if _, status := gate.Explain(context.Background(), Request{CanonicalLaTeX: "x"}); status != StatusOff {
			t.Errorf("expected off, got %s", status)
		}
	})

	t.Run("no canonical result", func(t *testing.T) {
		mock := &MockClient{Responses: []string{reply("x")}}
		gate := NewGate(NewService(mock), 0)
		if _, status := gate.Explain(context.Background(), Request{}); status != StatusOff {
			t.Errorf("expected off, got %s", status)
		}
		if mock.Calls() != 0 {
			t.Errorf("expected no calls, got %d", mock.Calls())
		}
	})
}

func TestGateTimeout(t *testing.T) {
	mock := &MockClient{
		Responses: []string{reply("2x + 3")},
		Latency:   500 * time.Millisecond,
	}
	gate := NewGate(NewService(mock), 50*time.Millisecond)

	start := time.Now()
	_, status := gate.Explain(context.Background(), Request{
		Operation:      "derivative",
		CanonicalLaTeX: "2 x + 3",
	})
	if status != StatusError {
		t.Fatalf("expected error status on timeout, got %s", status)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("gate did not honor its timeout, took %s", elapsed)
	}
}
