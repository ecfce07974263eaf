package solver

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/stepmath/mathsteps/internal/cas"
	"github.com/stepmath/mathsteps/internal/classify"
	"github.com/stepmath/mathsteps/internal/notation"
	"github.com/stepmath/mathsteps/internal/steps"
)

// computed is one operation's raw outcome before it is wrapped in a
// Solution.
type computed struct {
	result string
	latex  string
	steps  []steps.SerializedStep
}

func (s *Solver) run(req *Request, problem *classify.ParsedProblem) (*computed, error) {
	switch req.Operation {
	case OpSolve:
		return s.solveEquation(req)
	case OpDerivative:
		return s.derivative(req)
	case OpIntegral:
		return s.integral(req)
	case OpLimit:
		return s.limit(req)
	case OpSimplify, OpFactor, OpExpand:
		return s.rewrite(req)
	case OpMatrix:
		return s.matrix(req)
	case opSystem:
		return s.system(req, problem)
	default:
		return nil, invalidf("invalid operation: %s", req.Operation)
	}
}

// canonical rewrites the request expression into engine syntax and
// stores it back so responses and history echo the parsed form.
func canonical(req *Request) (string, error) {
	canon, err := notation.Canonicalize(req.Expression)
	if err != nil {
		return "", err
	}
	req.Expression = canon
	return canon, nil
}

func defaultVar(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "x"
	}
	return v
}

func (s *Solver) solveEquation(req *Request) (*computed, error) {
	variable := defaultVar(req.Variable)
	canon, err := canonical(req)
	if err != nil {
		return nil, err
	}

	var expr cas.Expr
	equation := canon
	if lhsRaw, rhsRaw, found := strings.Cut(canon, "="); found {
		lhs, err := s.engine.Parse(strings.TrimSpace(lhsRaw))
		if err != nil {
			return nil, err
		}
		rhs, err := s.engine.Parse(strings.TrimSpace(rhsRaw))
		if err != nil {
			return nil, err
		}
		expr = cas.Subtract(lhs, rhs)
	} else {
		// A bare expression is read as expression = 0.
		expr, err = s.engine.Parse(canon)
		if err != nil {
			return nil, err
		}
		equation = canon + " = 0"
	}

	sols, err := s.engine.Solve(expr, variable)
	if err != nil {
		return nil, err
	}

	out := &computed{
		steps: steps.SerializeSteps(steps.BuildEquation(equation, variable)),
	}
	if len(sols) == 0 {
		out.result = "No solution"
		out.latex = `\text{No solution}`
		return out, nil
	}

	plain := make([]string, len(sols))
	latex := make([]string, len(sols))
	for i, sol := range sols {
		plain[i] = sol.String()
		latex[i] = sol.LaTeX()
	}
	out.result = strings.Join(plain, ", ")
	out.latex = strings.Join(latex, ", ")
	return out, nil
}

func (s *Solver) derivative(req *Request) (*computed, error) {
	variable := defaultVar(req.Variable)
	order := req.Order
	if order == 0 {
		order = 1
	}
	if order < 1 || order > 10 {
		return nil, invalidf("order must be between 1 and 10")
	}
	req.Order = order

	canon, err := canonical(req)
	if err != nil {
		return nil, err
	}
	expr, err := s.engine.Parse(canon)
	if err != nil {
		return nil, err
	}

	deriv := s.engine.Diff(expr, variable, order)
	return &computed{
		result: deriv.String(),
		latex:  deriv.LaTeX(),
		steps:  steps.SerializeSteps(steps.BuildDerivative(canon, variable, order)),
	}, nil
}

func (s *Solver) integral(req *Request) (*computed, error) {
	variable := defaultVar(req.Variable)
	canon, err := canonical(req)
	if err != nil {
		return nil, err
	}
	expr, err := s.engine.Parse(canon)
	if err != nil {
		return nil, err
	}

	anti, ok := s.engine.Integrate(expr, variable)
	if !ok {
		return nil, &cas.ComputationError{
			Op:  "integrate",
			Err: fmt.Errorf("no antiderivative rule applies to %s", canon),
		}
	}

	if !req.Definite {
		req.Lower, req.Upper = "", ""
		latex := anti.LaTeX()
		if !hasStandaloneC(latex) {
			latex += " + C"
		}
		return &computed{
			result: anti.String(),
			latex:  latex,
			steps:  steps.SerializeSteps(steps.BuildIntegral(canon, variable, "", "")),
		}, nil
	}

	if req.Lower == "" {
		req.Lower = "0"
	}
	if req.Upper == "" {
		req.Upper = "1"
	}
	lower, err := parseBound(s.engine, req.Lower)
	if err != nil {
		return nil, err
	}
	upper, err := parseBound(s.engine, req.Upper)
	if err != nil {
		return nil, err
	}
	lo, _ := lower.Rat()
	hi, _ := upper.Rat()
	if lo.Cmp(hi) >= 0 {
		return nil, invalidf("lower bound must be less than upper bound")
	}

	value := cas.Subtract(anti.Subst(variable, upper), anti.Subst(variable, lower)).Simplify()
	return &computed{
		result: value.String(),
		latex:  value.LaTeX(),
		steps:  steps.SerializeSteps(steps.BuildIntegral(canon, variable, req.Lower, req.Upper)),
	}, nil
}

// parseBound reads an integration bound as an exact rational, so "1/2"
// and "0.25" stay exact.
func parseBound(engine cas.Engine, raw string) (*cas.Num, error) {
	canon, err := notation.Canonicalize(raw)
	if err != nil {
		return nil, invalidf("bounds must be valid numbers: %q", raw)
	}
	e, err := engine.Parse(canon)
	if err != nil {
		return nil, invalidf("bounds must be valid numbers: %q", raw)
	}
	n, ok := e.Simplify().(*cas.Num)
	if !ok {
		return nil, invalidf("bounds must be valid numbers: %q", raw)
	}
	return n, nil
}

func (s *Solver) limit(req *Request) (*computed, error) {
	variable := defaultVar(req.Variable)
	point := strings.TrimSpace(req.Point)
	if point == "" {
		point = "0"
	}
	req.Point = point
	if req.Side != "+" && req.Side != "-" && req.Side != "both" {
		req.Side = "+"
	}

	canon, err := canonical(req)
	if err != nil {
		return nil, err
	}
	expr, err := s.engine.Parse(canon)
	if err != nil {
		return nil, err
	}
	pointCanon, err := notation.Canonicalize(point)
	if err != nil {
		return nil, err
	}
	at, err := s.engine.Parse(pointCanon)
	if err != nil {
		return nil, err
	}

	lim := s.engine.Limit(expr, variable, at)
	if !lim.OK {
		return nil, &cas.ComputationError{Op: "limit", Err: errors.New(lim.Reason)}
	}

	return &computed{
		result: lim.Value.String(),
		latex:  lim.Value.LaTeX(),
		steps: steps.Serialize([]any{
			fmt.Sprintf(`\lim_{%s \to %s} %s`, variable, at.LaTeX(), expr.LaTeX()),
			"Result: " + lim.Value.LaTeX(),
		}),
	}, nil
}

func (s *Solver) rewrite(req *Request) (*computed, error) {
	canon, err := canonical(req)
	if err != nil {
		return nil, err
	}
	expr, err := s.engine.Parse(canon)
	if err != nil {
		return nil, err
	}

	var (
		out   cas.Expr
		label string
	)
	switch req.Operation {
	case OpSimplify:
		out = s.engine.Simplify(expr)
		label = "Simplified"
	case OpFactor:
		factored, ok := s.engine.Factor(expr, defaultVar(req.Variable))
		if !ok {
			factored = expr
		}
		out = factored
		label = "Factored"
	case OpExpand:
		out = s.engine.Expand(expr)
		label = "Expanded"
	}

	return &computed{
		result: out.String(),
		latex:  out.LaTeX(),
		steps: steps.Serialize([]any{
			"Original: " + expr.LaTeX(),
			label + ": " + out.LaTeX(),
		}),
	}, nil
}

var validMatrixOps = map[string]bool{
	"determinant": true,
	"inverse":     true,
	"transpose":   true,
	"rref":        true,
	"multiply":    true,
}

func (s *Solver) matrix(req *Request) (*computed, error) {
	op := req.MatrixOp
	if op == "" {
		op = "determinant"
	}
	req.MatrixOp = op
	if !validMatrixOps[op] {
		return nil, invalidf("invalid matrix operation: %s", op)
	}

	if op == "multiply" {
		return s.matrixMultiply(req)
	}

	m, err := steps.ParseMatrix(req.Expression)
	if err != nil {
		return nil, invalidf("invalid matrix format (expected [[1,2],[3,4]]): %v", err)
	}

	out := &computed{
		steps: steps.SerializeSteps(steps.BuildMatrix(req.Expression, op)),
	}
	switch op {
	case "determinant":
		det, err := m.Det()
		if err != nil {
			return nil, err
		}
		out.result = det.String()
		out.latex = det.LaTeX()
	case "inverse":
		inv, err := m.Inverse()
		if err != nil {
			return nil, err
		}
		out.result = inv.String()
		out.latex = inv.LaTeX()
	case "transpose":
		tr := m.Transpose()
		out.result = tr.String()
		out.latex = tr.LaTeX()
	case "rref":
		r := m.RREF()
		out.result = r.String()
		out.latex = r.LaTeX()
	}
	return out, nil
}

func (s *Solver) matrixMultiply(req *Request) (*computed, error) {
	first, second, found := strings.Cut(req.Expression, "*")
	if !found {
		return nil, invalidf("matrix multiply expects two literals joined by '*'")
	}
	a, err := steps.ParseMatrix(first)
	if err != nil {
		return nil, invalidf("invalid matrix format (expected [[1,2],[3,4]]): %v", err)
	}
	b, err := steps.ParseMatrix(second)
	if err != nil {
		return nil, invalidf("invalid matrix format (expected [[1,2],[3,4]]): %v", err)
	}

	product, err := a.MatMul(b)
	if err != nil {
		return nil, err
	}
	return &computed{
		result: product.String(),
		latex:  product.LaTeX(),
		steps:  steps.SerializeSteps(steps.BuildMatrix(req.Expression, "multiply")),
	}, nil
}

var standaloneC = regexp.MustCompile(`\b[Cc]\b`)

// hasStandaloneC reports whether the rendered antiderivative already
// carries a constant named C, in which case no "+ C" is appended.
// LaTeX commands like \cos do not count.
func hasStandaloneC(s string) bool {
	for _, loc := range standaloneC.FindAllStringIndex(s, -1) {
		if loc[0] == 0 || s[loc[0]-1] != '\\' {
			return true
		}
	}
	return false
}
