package solver

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stepmath/mathsteps/internal/classify"
	"github.com/stepmath/mathsteps/internal/explain"
	"github.com/stepmath/mathsteps/internal/history"
)

func newTestSolver() *Solver {
	return New(Config{})
}

func mustSolve(t *testing.T, s *Solver, req Request) *Solution {
	t.Helper()
	sol, err := s.Solve(context.Background(), req)
	if err != nil {
		t.Fatalf("Solve(%+v) error = %v", req, err)
	}
	return sol
}

func TestSolve_Operations(t *testing.T) {
	s := newTestSolver()

	cases := []struct {
		name       string
		req        Request
		wantResult string
	}{
		{
			name:       "linear_equation",
			req:        Request{Operation: OpSolve, Expression: "2*x + 5 = 15"},
			wantResult: "5",
		},
		{
			name:       "bare_expression_reads_as_zero",
			req:        Request{Operation: OpSolve, Expression: "2*x - 10"},
			wantResult: "5",
		},
		{
			name:       "quadratic_two_roots",
			req:        Request{Operation: OpSolve, Expression: "x**2 - 5*x + 6 = 0"},
			wantResult: "2, 3",
		},
		{
			name:       "latex_equation",
			req:        Request{Operation: OpSolve, Expression: `\frac{x}{2} = 4`},
			wantResult: "8",
		},
		{
			name:       "derivative",
			req:        Request{Operation: OpDerivative, Expression: "x**2 + 4*x"},
			wantResult: "2*x + 4",
		},
		{
			name:       "second_derivative",
			req:        Request{Operation: OpDerivative, Expression: "x**3", Order: 2},
			wantResult: "6*x",
		},
		{
			name:       "indefinite_integral",
			req:        Request{Operation: OpIntegral, Expression: "x**2"},
			wantResult: "1/3*x**3",
		},
		{
			name:       "definite_integral",
			req:        Request{Operation: OpIntegral, Expression: "x**2", Definite: true, Lower: "0", Upper: "1"},
			wantResult: "1/3",
		},
		{
			name:       "limit_classic_sinc",
			req:        Request{Operation: OpLimit, Expression: "sin(x)/x", Point: "0"},
			wantResult: "1",
		},
		{
			name:       "simplify",
			req:        Request{Operation: OpSimplify, Expression: "x + x"},
			wantResult: "2*x",
		},
		{
			name:       "factor",
			req:        Request{Operation: OpFactor, Expression: "x**2 - 5*x + 6"},
			wantResult: "(x - 2)*(x - 3)",
		},
		{
			name:       "expand",
			req:        Request{Operation: OpExpand, Expression: "(x + 1)*(x + 2)"},
			wantResult: "x**2 + 3*x + 2",
		},
		{
			name:       "matrix_determinant",
			req:        Request{Operation: OpMatrix, Expression: "[[1,2],[3,4]]", MatrixOp: "determinant"},
			wantResult: "-2",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sol := mustSolve(t, s, tc.req)
			if sol.Result != tc.wantResult {
				t.Errorf("Result = %q, want %q", sol.Result, tc.wantResult)
			}
			if sol.LaTeX == "" {
				t.Error("LaTeX is empty")
			}
			if len(sol.Steps) == 0 {
				t.Error("no steps synthesized")
			}
			if sol.Operation != tc.req.Operation {
				t.Errorf("Operation = %q, want %q", sol.Operation, tc.req.Operation)
			}
			if sol.Explanation != explain.StatusOff {
				t.Errorf("Explanation = %q, want %q", sol.Explanation, explain.StatusOff)
			}
		})
	}
}

func TestSolve_EquationSteps(t *testing.T) {
	s := newTestSolver()

	sol := mustSolve(t, s, Request{Operation: OpSolve, Expression: "2*x + 5 = 15"})
	last := sol.Steps[len(sol.Steps)-1]
	if !strings.Contains(last.LaTeX, "x = 5") {
		t.Errorf("final step %q does not state x = 5", last.LaTeX)
	}
}

func TestSolve_IndefiniteIntegralConstant(t *testing.T) {
	s := newTestSolver()

	sol := mustSolve(t, s, Request{Operation: OpIntegral, Expression: "x**2"})
	if !strings.Contains(sol.LaTeX, "+ C") {
		t.Errorf("LaTeX = %q, want integration constant", sol.LaTeX)
	}
}

func TestSolve_FreeText(t *testing.T) {
	s := newTestSolver()

	t.Run("derivative", func(t *testing.T) {
		sol := mustSolve(t, s, Request{
			Operation:     OpText,
			OriginalInput: "Find the derivative of x^2 + 4x",
		})
		if sol.Result != "2*x + 4" {
			t.Errorf("Result = %q, want %q", sol.Result, "2*x + 4")
		}
		if sol.Operation != OpDerivative {
			t.Errorf("Operation = %q, want %q", sol.Operation, OpDerivative)
		}
		if sol.ProblemType != classify.TypeDerivative {
			t.Errorf("ProblemType = %q, want %q", sol.ProblemType, classify.TypeDerivative)
		}
		if sol.Confidence <= 0 {
			t.Errorf("Confidence = %v, want > 0", sol.Confidence)
		}
	})

	t.Run("linear_equation", func(t *testing.T) {
		sol := mustSolve(t, s, Request{
			Operation:     OpText,
			OriginalInput: "Solve 2x + 5 = 15",
		})
		if sol.Result != "5" {
			t.Errorf("Result = %q, want %q", sol.Result, "5")
		}
		if sol.ProblemType != classify.TypeLinearEquation {
			t.Errorf("ProblemType = %q, want %q", sol.ProblemType, classify.TypeLinearEquation)
		}
	})

	t.Run("system_of_equations", func(t *testing.T) {
		sol := mustSolve(t, s, Request{
			Operation:     OpText,
			OriginalInput: "Solve the system: x + y = 3, x - y = 1",
		})
		if sol.Result != "x = 2, y = 1" {
			t.Errorf("Result = %q, want %q", sol.Result, "x = 2, y = 1")
		}
		if sol.ProblemType != classify.TypeSystem {
			t.Errorf("ProblemType = %q, want %q", sol.ProblemType, classify.TypeSystem)
		}
	})

	t.Run("expression_passed_through", func(t *testing.T) {
		// Expression doubles as the text input when OriginalInput is
		// empty, matching the CLI flag surface.
		sol := mustSolve(t, s, Request{
			Operation:  OpText,
			Expression: "Simplify x + x",
		})
		if sol.Result != "2*x" {
			t.Errorf("Result = %q, want %q", sol.Result, "2*x")
		}
	})
}

func TestSolve_Fallback(t *testing.T) {
	s := newTestSolver()

	cases := []struct {
		name     string
		req      Request
		wantKind string
	}{
		{
			name:     "missing_expression",
			req:      Request{Operation: OpSolve},
			wantKind: "ValidationError",
		},
		{
			name:     "unknown_operation",
			req:      Request{Operation: "conjugate", Expression: "x"},
			wantKind: "ValidationError",
		},
		{
			name:     "oversized_input",
			req:      Request{Operation: OpSolve, Expression: "x + " + strings.Repeat("1", MaxInputLen)},
			wantKind: "ValidationError",
		},
		{
			name:     "derivative_order_out_of_range",
			req:      Request{Operation: OpDerivative, Expression: "x**2", Order: 11},
			wantKind: "ValidationError",
		},
		{
			name:     "unknown_latex_command",
			req:      Request{Operation: OpSolve, Expression: `\unknowncmd{x}{y} {`},
			wantKind: "NotationError",
		},
		{
			name:     "no_integration_rule",
			req:      Request{Operation: OpIntegral, Expression: "x**x"},
			wantKind: "ComputationError",
		},
		{
			name:     "uninterpretable_text",
			req:      Request{Operation: OpText, OriginalInput: "please assist"},
			wantKind: "ValidationError",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sol, err := s.Solve(context.Background(), tc.req)
			if sol != nil {
				t.Fatalf("Solve = %+v, want nil solution", sol)
			}
			var fe *FallbackError
			if !errors.As(err, &fe) {
				t.Fatalf("error = %v, want *FallbackError", err)
			}
			if got := fe.Kind(); got != tc.wantKind {
				t.Errorf("Kind() = %q, want %q", got, tc.wantKind)
			}
		})
	}
}

func TestSolve_RecordsHistory(t *testing.T) {
	ctx := context.Background()

	t.Run("success_and_failure", func(t *testing.T) {
		mem := history.NewMemory(10)
		s := New(Config{Recorder: mem})

		mustSolve(t, s, Request{Operation: OpSolve, Expression: "2*x + 5 = 15", RequestID: "req-1"})
		if _, err := s.Solve(ctx, Request{Operation: OpSolve}); err == nil {
			t.Fatal("expected a fallback error")
		}

		events, err := mem.Recent(ctx, 10)
		if err != nil {
			t.Fatalf("Recent() error = %v", err)
		}
		if len(events) != 2 {
			t.Fatalf("recorded %d events, want 2", len(events))
		}

		// Newest first: the failure, then the success.
		if events[0].OK {
			t.Error("failure event recorded as OK")
		}
		if events[0].ErrorKind != "ValidationError" {
			t.Errorf("ErrorKind = %q, want %q", events[0].ErrorKind, "ValidationError")
		}

		ev := events[1]
		if !ev.OK {
			t.Error("success event recorded as failure")
		}
		if ev.RequestID != "req-1" {
			t.Errorf("RequestID = %q, want %q", ev.RequestID, "req-1")
		}
		if ev.Result != "5" {
			t.Errorf("Result = %q, want %q", ev.Result, "5")
		}
		if ev.StepCount == 0 {
			t.Error("StepCount = 0, want > 0")
		}
	})

	t.Run("skip_history", func(t *testing.T) {
		mem := history.NewMemory(10)
		s := New(Config{Recorder: mem})

		mustSolve(t, s, Request{Operation: OpSolve, Expression: "2*x - 10", SkipHistory: true})
		if mem.Len() != 0 {
			t.Errorf("recorded %d events, want 0", mem.Len())
		}
	})
}

func gateWith(responses ...string) *explain.Gate {
	svc := explain.NewService(&explain.MockClient{Responses: responses})
	return explain.NewGate(svc, 5*time.Second)
}

func TestSolve_ExplanationGate(t *testing.T) {
	t.Run("accepted_replaces_steps", func(t *testing.T) {
		s := New(Config{Gate: gateWith(
			`{"steps":[{"step_number":1,"explanation":"Subtract 5, then divide by 2.","latex":"x = 5"}],"final_answer":{"latex":"5"}}`,
		)})

		sol := mustSolve(t, s, Request{Operation: OpSolve, Expression: "2*x + 5 = 15"})
		if sol.Explanation != explain.StatusAccepted {
			t.Fatalf("Explanation = %q, want %q", sol.Explanation, explain.StatusAccepted)
		}
		if len(sol.Steps) != 1 {
			t.Fatalf("got %d steps, want the single narrated step", len(sol.Steps))
		}
		if sol.Steps[0].Explanation != "Subtract 5, then divide by 2." {
			t.Errorf("narration = %q", sol.Steps[0].Explanation)
		}
	})

	t.Run("rejected_keeps_engine_steps", func(t *testing.T) {
		wrong := `{"steps":[{"step_number":1,"explanation":"Guess.","latex":"x = 7"}],"final_answer":{"latex":"7"}}`
		s := New(Config{Gate: gateWith(wrong, wrong)})

		sol := mustSolve(t, s, Request{Operation: OpSolve, Expression: "2*x + 5 = 15"})
		if sol.Explanation != explain.StatusRejected {
			t.Fatalf("Explanation = %q, want %q", sol.Explanation, explain.StatusRejected)
		}
		last := sol.Steps[len(sol.Steps)-1]
		if !strings.Contains(last.LaTeX, "x = 5") {
			t.Errorf("engine steps were not kept: final step %q", last.LaTeX)
		}
	})

	t.Run("matrix_is_not_explainable", func(t *testing.T) {
		s := New(Config{Gate: gateWith(
			`{"steps":[],"final_answer":{"latex":"-2"}}`,
		)})

		sol := mustSolve(t, s, Request{Operation: OpMatrix, Expression: "[[1,2],[3,4]]", MatrixOp: "determinant"})
		if sol.Explanation != explain.StatusOff {
			t.Errorf("Explanation = %q, want %q", sol.Explanation, explain.StatusOff)
		}
	})
}
