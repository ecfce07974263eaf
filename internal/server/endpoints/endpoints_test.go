package endpoints

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stepmath/mathsteps/internal/api"
	"github.com/stepmath/mathsteps/internal/classify"
	"github.com/stepmath/mathsteps/internal/history"
	"github.com/stepmath/mathsteps/internal/solver"
	"github.com/stepmath/mathsteps/internal/svcctx"
)

// newTestHandler builds the full endpoint mux with the given services
// attached to every request context.
func newTestHandler(t *testing.T, services *svcctx.Services) http.Handler {
	t.Helper()

	registry := api.NewRegistry()
	for _, ep := range All(Config{}) {
		registry.Register(ep)
	}

	mux := http.NewServeMux()
	registry.RegisterRoutes(mux, func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if services == nil {
				writeError(w, http.StatusServiceUnavailable, "server not fully initialized")
				return
			}
			next(w, r)
		}
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if services != nil {
			ctx = svcctx.WithServices(ctx, services)
		}
		mux.ServeHTTP(w, r.WithContext(ctx))
	})
}

func newTestServices(recorder history.Recorder) *svcctx.Services {
	if recorder == nil {
		recorder = history.Nop{}
	}
	return &svcctx.Services{
		Solver:  solver.New(solver.Config{Recorder: recorder}),
		History: recorder,
	}
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(string(data)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func TestHealthEndpoint(t *testing.T) {
	handler := newTestHandler(t, newTestServices(nil))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("GET /health status = %d, want 200", w.Code)
	}
	resp := decodeBody[HealthResponse](t, w)
	if resp.Status != "ok" {
		t.Errorf("status = %q, want ok", resp.Status)
	}
}

func TestReadyEndpoint(t *testing.T) {
	t.Run("ready_with_solver", func(t *testing.T) {
		handler := newTestHandler(t, newTestServices(nil))

		req := httptest.NewRequest(http.MethodGet, "/ready", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("GET /ready status = %d, want 200", w.Code)
		}
	})

	t.Run("degraded_without_solver", func(t *testing.T) {
		handler := newTestHandler(t, nil)

		req := httptest.NewRequest(http.MethodGet, "/ready", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusServiceUnavailable {
			t.Fatalf("GET /ready status = %d, want 503", w.Code)
		}
		resp := decodeBody[HealthResponse](t, w)
		if resp.Solver != "not_initialized" {
			t.Errorf("solver = %q, want not_initialized", resp.Solver)
		}
	})
}

func TestSolveEndpoint(t *testing.T) {
	handler := newTestHandler(t, newTestServices(nil))

	t.Run("linear_equation", func(t *testing.T) {
		w := postJSON(t, handler, "/api/v1/solve", solver.Request{
			Operation:  "solve",
			Expression: "2*x + 5 = 15",
		})
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
		}
		sol := decodeBody[solver.Solution](t, w)
		if sol.Result != "5" {
			t.Errorf("result = %q, want 5", sol.Result)
		}
		if len(sol.Steps) == 0 {
			t.Error("expected steps in solution")
		}
	})

	t.Run("free_text", func(t *testing.T) {
		w := postJSON(t, handler, "/api/v1/solve", solver.Request{
			Operation:  "text",
			Expression: "Solve 2x + 5 = 15",
		})
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
		}
		sol := decodeBody[solver.Solution](t, w)
		if sol.ProblemType != classify.TypeLinearEquation {
			t.Errorf("problem type = %q, want linear_equation", sol.ProblemType)
		}
	})

	t.Run("html_format", func(t *testing.T) {
		w := postJSON(t, handler, "/api/v1/solve?format=html", solver.Request{
			Operation:  "solve",
			Expression: "2*x + 5 = 15",
		})
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
		}
		if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
			t.Errorf("Content-Type = %q, want text/html", ct)
		}
		if !strings.Contains(w.Body.String(), "<h1") {
			t.Error("expected an HTML document")
		}
	})

	t.Run("invalid_json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/solve", strings.NewReader("{not json"))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("uninterpretable_input_suggests_fallback", func(t *testing.T) {
		w := postJSON(t, handler, "/api/v1/solve", solver.Request{
			Operation:  "solve",
			Expression: "@@@@",
		})
		if w.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want 422", w.Code)
		}
		resp := decodeBody[ErrorResponse](t, w)
		if !resp.FallbackSuggested {
			t.Error("expected fallback_suggested = true")
		}
	})

	t.Run("not_initialized", func(t *testing.T) {
		handler := newTestHandler(t, nil)
		w := postJSON(t, handler, "/api/v1/solve", solver.Request{
			Operation:  "solve",
			Expression: "x = 1",
		})
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", w.Code)
		}
	})
}

func TestClassifyEndpoint(t *testing.T) {
	handler := newTestHandler(t, newTestServices(nil))

	t.Run("derivative_text", func(t *testing.T) {
		w := postJSON(t, handler, "/api/v1/classify", ClassifyRequest{
			Text: "Find the derivative of x^2 + 4x",
		})
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
		}
		problem := decodeBody[classify.ParsedProblem](t, w)
		if problem.Type != classify.TypeDerivative {
			t.Errorf("type = %q, want derivative", problem.Type)
		}
	})

	t.Run("empty_text", func(t *testing.T) {
		w := postJSON(t, handler, "/api/v1/classify", ClassifyRequest{Text: "  "})
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}

func TestCanonicalizeEndpoint(t *testing.T) {
	handler := newTestHandler(t, newTestServices(nil))

	t.Run("nested_fraction", func(t *testing.T) {
		w := postJSON(t, handler, "/api/v1/canonicalize", CanonicalizeRequest{
			Expression: `\frac{1}{\frac{2}{3}}`,
		})
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
		}
		resp := decodeBody[CanonicalizeResponse](t, w)
		if resp.Canonical != "(1)/((2)/(3))" {
			t.Errorf("canonical = %q, want (1)/((2)/(3))", resp.Canonical)
		}
	})

	t.Run("unresolvable_fragment", func(t *testing.T) {
		w := postJSON(t, handler, "/api/v1/canonicalize", CanonicalizeRequest{
			Expression: `\unknowncmd{x}{y} {`,
		})
		if w.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want 422", w.Code)
		}
		resp := decodeBody[ErrorResponse](t, w)
		if !resp.FallbackSuggested {
			t.Error("expected fallback_suggested = true")
		}
	})
}

func TestStepsEndpoint(t *testing.T) {
	handler := newTestHandler(t, newTestServices(nil))

	t.Run("equation_steps", func(t *testing.T) {
		w := postJSON(t, handler, "/api/v1/steps", StepsRequest{
			Expression: "2*x + 5 = 15",
			Operation:  "solve",
		})
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
		}
		resp := decodeBody[StepsResponse](t, w)
		if len(resp.Steps) < 2 {
			t.Fatalf("expected several steps, got %d", len(resp.Steps))
		}
		last := resp.Steps[len(resp.Steps)-1]
		if !strings.Contains(last.LaTeX, "x = 5") {
			t.Errorf("final step latex = %q, want it to contain x = 5", last.LaTeX)
		}
	})

	t.Run("matrix_steps", func(t *testing.T) {
		w := postJSON(t, handler, "/api/v1/steps", StepsRequest{
			Expression: "[[1,2],[3,4]]",
			Operation:  "matrix",
			MatrixOp:   "determinant",
		})
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
		}
		resp := decodeBody[StepsResponse](t, w)
		if len(resp.Steps) == 0 {
			t.Error("expected determinant steps")
		}
	})

	t.Run("unknown_operation", func(t *testing.T) {
		w := postJSON(t, handler, "/api/v1/steps", StepsRequest{
			Expression: "x + 1",
			Operation:  "transmogrify",
		})
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}

func TestSolveBatchEndpoint(t *testing.T) {
	handler := newTestHandler(t, newTestServices(nil))

	t.Run("mixed_results_keep_order", func(t *testing.T) {
		w := postJSON(t, handler, "/api/v1/solve/batch", BatchRequest{
			Requests: []solver.Request{
				{Operation: "solve", Expression: "x + 1 = 3"},
				{Operation: "solve", Expression: "@@@@"},
				{Operation: "derivative", Expression: "x**2"},
			},
		})
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
		}
		resp := decodeBody[BatchResponse](t, w)
		if len(resp.Items) != 3 {
			t.Fatalf("items = %d, want 3", len(resp.Items))
		}
		if resp.Items[0].Solution == nil || resp.Items[0].Solution.Result != "2" {
			t.Errorf("item 0 = %+v, want solution 2", resp.Items[0])
		}
		if resp.Items[1].Error == "" || !resp.Items[1].FallbackSuggested {
			t.Errorf("item 1 = %+v, want fallback error", resp.Items[1])
		}
		if resp.Items[2].Solution == nil || resp.Items[2].Solution.Result != "2*x" {
			t.Errorf("item 2 = %+v, want solution 2*x", resp.Items[2])
		}
	})

	t.Run("empty_batch", func(t *testing.T) {
		w := postJSON(t, handler, "/api/v1/solve/batch", BatchRequest{})
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}

func TestHistoryEndpoint(t *testing.T) {
	t.Run("returns_recent_events", func(t *testing.T) {
		mem := history.NewMemory(10)
		for _, op := range []string{"solve", "derivative", "integral"} {
			if err := mem.Record(context.Background(), history.SolveEvent{Operation: op, OK: true}); err != nil {
				t.Fatalf("Record() error = %v", err)
			}
		}
		handler := newTestHandler(t, newTestServices(mem))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/history?limit=2", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
		}
		resp := decodeBody[HistoryResponse](t, w)
		if len(resp.Events) != 2 {
			t.Fatalf("events = %d, want 2", len(resp.Events))
		}
		// Newest first
		if resp.Events[0].Operation != "integral" {
			t.Errorf("first event = %q, want integral", resp.Events[0].Operation)
		}
	})

	t.Run("disabled_history", func(t *testing.T) {
		handler := newTestHandler(t, newTestServices(history.Nop{}))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/history", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", w.Code)
		}
	})

	t.Run("bad_limit", func(t *testing.T) {
		handler := newTestHandler(t, newTestServices(history.NewMemory(10)))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/history?limit=zero", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}
