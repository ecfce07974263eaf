package solver

import (
	"fmt"
	"strings"

	"github.com/stepmath/mathsteps/internal/cas"
	"github.com/stepmath/mathsteps/internal/classify"
	"github.com/stepmath/mathsteps/internal/notation"
	"github.com/stepmath/mathsteps/internal/steps"
)

// interpret classifies free text and rewrites the request into a
// concrete operation. The classification result is returned so the
// solution can report problem type and confidence.
func (s *Solver) interpret(req *Request) (*classify.ParsedProblem, error) {
	text := strings.TrimSpace(req.OriginalInput)
	if text == "" {
		return nil, invalidf("text input is required for natural language solving")
	}
	problem, err := s.classifier.Classify(text)
	if err != nil {
		return nil, err
	}

	switch problem.Type {
	case classify.TypeLinearEquation, classify.TypeQuadratic:
		req.Operation = OpSolve
		if len(problem.Equations) > 0 {
			req.Expression = problem.Equations[0]
		} else {
			req.Expression = problem.Expression
		}
		if len(problem.Target.SolveFor) > 0 {
			req.Variable = problem.Target.SolveFor[0]
		}
	case classify.TypeSystem:
		// Only 2x2 systems are solvable; anything larger reads as
		// uninterpretable text.
		if len(problem.Equations) != 2 || len(problem.Variables) < 2 {
			return nil, invalidf("only systems of two equations in two variables are supported")
		}
		req.Operation = opSystem
		req.Expression = problem.Equations[0] + "; " + problem.Equations[1]
	case classify.TypeDerivative:
		req.Operation = OpDerivative
		req.Expression = problem.Expression
		req.Variable = problem.Target.Variable
		req.Order = problem.Target.Order
	case classify.TypeIntegral:
		req.Operation = OpIntegral
		req.Expression = problem.Expression
		req.Variable = problem.Target.Variable
		req.Definite = problem.Target.Definite
		req.Lower = problem.Target.Lower
		req.Upper = problem.Target.Upper
	case classify.TypeLimit:
		req.Operation = OpLimit
		req.Expression = problem.Expression
		req.Variable = problem.Target.Variable
		req.Point = problem.Target.Point
		req.Side = problem.Target.Side
	case classify.TypeSimplify:
		req.Operation = OpSimplify
		req.Expression = problem.Expression
	case classify.TypeFactor:
		req.Operation = OpFactor
		req.Expression = problem.Expression
	case classify.TypeExpand:
		req.Operation = OpExpand
		req.Expression = problem.Expression
	case classify.TypeMatrix:
		req.Operation = OpMatrix
		req.Expression = problem.Expression
		req.MatrixOp = problem.Target.MatrixOp
	default:
		return nil, invalidf("could not interpret the problem text")
	}

	req.Expression = strings.TrimSpace(req.Expression)
	if req.Expression == "" {
		return nil, invalidf("could not extract an expression from %q", text)
	}
	return problem, nil
}

// system solves a 2x2 linear system held as two ";"-joined equations.
func (s *Solver) system(req *Request, problem *classify.ParsedProblem) (*computed, error) {
	if problem == nil || len(problem.Variables) < 2 {
		return nil, invalidf("could not identify the two system variables")
	}
	xName, yName := problem.Variables[0], problem.Variables[1]

	parts := strings.SplitN(req.Expression, ";", 2)
	if len(parts) != 2 {
		return nil, invalidf("expected two equations separated by ';'")
	}

	var (
		coeffs   [2][3]cas.Expr
		canonEqs [2]string
	)
	for i, part := range parts {
		canon, err := notation.Canonicalize(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		canonEqs[i] = canon

		lhsRaw, rhsRaw, found := strings.Cut(canon, "=")
		if !found {
			return nil, invalidf("equation %d is missing '='", i+1)
		}
		lhs, err := s.engine.Parse(strings.TrimSpace(lhsRaw))
		if err != nil {
			return nil, err
		}
		rhs, err := s.engine.Parse(strings.TrimSpace(rhsRaw))
		if err != nil {
			return nil, err
		}

		diff := cas.Subtract(lhs, rhs)
		a := s.engine.Diff(diff, xName, 1)
		b := s.engine.Diff(diff, yName, 1)
		if cas.Contains(a, xName) || cas.Contains(a, yName) ||
			cas.Contains(b, xName) || cas.Contains(b, yName) {
			return nil, invalidf("system is not linear in %s and %s", xName, yName)
		}
		zero := cas.Int(0)
		c := cas.Neg(diff.Subst(xName, zero).Subst(yName, zero))
		coeffs[i] = [3]cas.Expr{a, b, c}
	}
	req.Expression = canonEqs[0] + "; " + canonEqs[1]

	xv, yv, err := cas.SolveLinearSystem2x2(
		coeffs[0][0], coeffs[0][1], coeffs[0][2],
		coeffs[1][0], coeffs[1][1], coeffs[1][2],
	)
	if err != nil {
		return nil, err
	}

	return &computed{
		result: fmt.Sprintf("%s = %s, %s = %s", xName, xv.String(), yName, yv.String()),
		latex:  fmt.Sprintf(`%s = %s, \quad %s = %s`, xName, xv.LaTeX(), yName, yv.LaTeX()),
		steps:  steps.SerializeSteps(steps.BuildSystem(canonEqs[0], canonEqs[1], xName, yName)),
	}, nil
}
