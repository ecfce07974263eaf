// Package solver orchestrates the solve pipeline. A request either
// names an operation with a math expression, or carries free text that
// is classified first; either way the expression is canonicalized, the
// symbolic engine computes the result, deterministic steps are
// synthesized, the optional AI explanation gate may replace them with
// verified narration, and the invocation is recorded.
package solver

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/stepmath/mathsteps/internal/cas"
	"github.com/stepmath/mathsteps/internal/classify"
	"github.com/stepmath/mathsteps/internal/explain"
	"github.com/stepmath/mathsteps/internal/history"
	"github.com/stepmath/mathsteps/internal/steps"
)

// MaxInputLen bounds expression and original-input length.
const MaxInputLen = 1000

// Operations accepted by Solve.
const (
	OpSolve      = "solve"
	OpDerivative = "derivative"
	OpIntegral   = "integral"
	OpLimit      = "limit"
	OpSimplify   = "simplify"
	OpFactor     = "factor"
	OpExpand     = "expand"
	OpMatrix     = "matrix"
	OpText       = "text"

	// opSystem is reached only through classification of free text;
	// it is not part of the request surface.
	opSystem = "system"
)

var validOperations = map[string]bool{
	OpSolve:      true,
	OpDerivative: true,
	OpIntegral:   true,
	OpLimit:      true,
	OpSimplify:   true,
	OpFactor:     true,
	OpExpand:     true,
	OpMatrix:     true,
	OpText:       true,
}

// explainable lists the operations eligible for AI explanation.
var explainable = map[string]bool{
	OpSolve:      true,
	OpDerivative: true,
	OpIntegral:   true,
	OpLimit:      true,
	OpSimplify:   true,
	OpFactor:     true,
	OpExpand:     true,
}

// Request describes one problem to solve. Expression holds the math
// input (or the matrix literal); OriginalInput preserves what the user
// typed and defaults to Expression. The text operation classifies
// OriginalInput and rewrites Operation and Expression before
// dispatching.
type Request struct {
	Operation     string `json:"operation"`
	Expression    string `json:"expression"`
	OriginalInput string `json:"original_input,omitempty"`
	Variable      string `json:"variable,omitempty"`
	Order         int    `json:"order,omitempty"`
	Definite      bool   `json:"definite,omitempty"`
	Lower         string `json:"lower,omitempty"`
	Upper         string `json:"upper,omitempty"`
	Point         string `json:"point,omitempty"`
	Side          string `json:"side,omitempty"`
	MatrixOp      string `json:"matrix_operation,omitempty"`
	SkipHistory   bool   `json:"skip_history,omitempty"`
	RequestID     string `json:"-"`
}

// Solution is the pipeline's answer. Expression echoes the canonical
// form the engine actually parsed.
type Solution struct {
	Result      string                 `json:"result"`
	LaTeX       string                 `json:"latex"`
	Steps       []steps.SerializedStep `json:"steps"`
	Expression  string                 `json:"original_expression"`
	Operation   string                 `json:"operation"`
	ProblemType classify.Type          `json:"problem_type,omitempty"`
	Confidence  float64                `json:"confidence,omitempty"`
	Explanation explain.Status         `json:"explanation"`
}

// Config wires the solver's collaborators. Zero fields get working
// defaults: a fresh classifier, the in-process engine, a nop recorder,
// no explanation gate.
type Config struct {
	Classifier *classify.Classifier
	Engine     cas.Engine
	Gate       *explain.Gate
	Recorder   history.Recorder
	Logger     *slog.Logger
}

// Solver runs the pipeline. Safe for concurrent use.
type Solver struct {
	classifier *classify.Classifier
	engine     cas.Engine
	gate       *explain.Gate
	recorder   history.Recorder
	logger     *slog.Logger
}

// New creates a Solver from the given configuration.
func New(cfg Config) *Solver {
	if cfg.Classifier == nil {
		cfg.Classifier = classify.New()
	}
	if cfg.Engine == nil {
		cfg.Engine = cas.NewEngine()
	}
	if cfg.Recorder == nil {
		cfg.Recorder = history.Nop{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Solver{
		classifier: cfg.Classifier,
		engine:     cfg.Engine,
		gate:       cfg.Gate,
		recorder:   cfg.Recorder,
		logger:     cfg.Logger,
	}
}

// Solve runs one request through the pipeline and records the outcome.
// Failures come back as *FallbackError: the input could not be
// interpreted or computed, and the caller should suggest free-text
// solving rather than surface a raw error.
func (s *Solver) Solve(ctx context.Context, req Request) (*Solution, error) {
	start := time.Now()
	sol, err := s.dispatch(ctx, &req)
	s.record(ctx, req, sol, err, time.Since(start))
	return sol, err
}

func (s *Solver) dispatch(ctx context.Context, req *Request) (*Solution, error) {
	req.Expression = strings.TrimSpace(req.Expression)
	if req.OriginalInput == "" {
		req.OriginalInput = req.Expression
	}
	if err := validate(req); err != nil {
		return nil, fallback(req.OriginalInput, err)
	}

	var problem *classify.ParsedProblem
	if req.Operation == OpText {
		p, err := s.interpret(req)
		if err != nil {
			return nil, fallback(req.OriginalInput, err)
		}
		problem = p
	}

	out, err := s.run(req, problem)
	if err != nil {
		s.logger.Warn("solve failed",
			"operation", req.Operation,
			"error", err)
		return nil, fallback(req.OriginalInput, err)
	}

	sol := &Solution{
		Result:      out.result,
		LaTeX:       out.latex,
		Steps:       out.steps,
		Expression:  req.Expression,
		Operation:   req.Operation,
		Explanation: explain.StatusOff,
	}
	if problem != nil {
		sol.ProblemType = problem.Type
		sol.Confidence = problem.Confidence
	}

	if explainable[req.Operation] {
		verified, status := s.gate.Explain(ctx, explain.Request{
			ProblemText:    req.OriginalInput,
			Operation:      req.Operation,
			CanonicalLaTeX: sol.LaTeX,
			EngineSteps:    sol.Steps,
		})
		sol.Explanation = status
		if status == explain.StatusAccepted {
			sol.Steps = verified
		}
	}

	return sol, nil
}

func validate(req *Request) error {
	if len(req.Expression) > MaxInputLen {
		return invalidf("expression too long (max %d characters)", MaxInputLen)
	}
	if len(req.OriginalInput) > MaxInputLen {
		return invalidf("input too long (max %d characters)", MaxInputLen)
	}
	if req.Operation == "" {
		return invalidf("operation is required")
	}
	if !validOperations[req.Operation] {
		return invalidf("invalid operation: %s", req.Operation)
	}
	if req.Expression == "" && req.Operation != OpText && req.Operation != OpMatrix {
		return invalidf("expression is required")
	}
	return nil
}

func (s *Solver) record(ctx context.Context, req Request, sol *Solution, solveErr error, elapsed time.Duration) {
	if req.SkipHistory {
		return
	}

	ev := history.SolveEvent{
		RequestID:     req.RequestID,
		OriginalInput: req.OriginalInput,
		Expression:    req.Expression,
		Operation:     req.Operation,
		DurationMS:    elapsed.Milliseconds(),
	}
	if sol != nil {
		ev.OK = true
		ev.Result = sol.Result
		ev.LaTeX = sol.LaTeX
		ev.StepCount = len(sol.Steps)
		ev.Explanation = string(sol.Explanation)
		ev.ProblemType = string(sol.ProblemType)
		ev.Confidence = sol.Confidence
	} else {
		var fe *FallbackError
		if errors.As(solveErr, &fe) {
			ev.ErrorKind = fe.Kind()
		} else {
			ev.ErrorKind = "SolverError"
		}
	}

	if err := s.recorder.Record(ctx, ev); err != nil {
		s.logger.Error("failed to record solve event", "error", err)
	}
}
