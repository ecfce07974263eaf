package steps

import (
	"errors"
	"fmt"
	"strings"

	"github.com/stepmath/mathsteps/internal/cas"
)

// BuildEquation narrates solving a single-variable polynomial equation
// given as "lhs = rhs". The route depends on the degree after moving
// every term to the left side: isolate-and-divide for linear, factoring
// or the quadratic formula for degree two, root enumeration above that.
func BuildEquation(equation, variable string) []Step {
	if variable == "" {
		variable = "x"
	}
	lhsRaw, rhsRaw, found := strings.Cut(equation, "=")
	if !found {
		return failStep("Error analyzing equation", equation,
			fmt.Errorf("expected an equation containing '=', got %q", equation))
	}
	lhs, err := cas.Parse(strings.TrimSpace(lhsRaw))
	if err != nil {
		return failStep("Error analyzing equation", equation, err)
	}
	rhs, err := cas.Parse(strings.TrimSpace(rhsRaw))
	if err != nil {
		return failStep("Error analyzing equation", equation, err)
	}

	list := []Step{{
		Title:       "State the equation",
		LaTeX:       lhs.LaTeX() + " = " + rhs.LaTeX(),
		Explanation: fmt.Sprintf("We need to solve for %s. This is a linear/polynomial equation.", variable),
	}}

	diff := cas.Subtract(lhs, rhs).Simplify()
	if !isZeroNum(rhs) {
		list = append(list, Step{
			Title:       "Move all terms to left side",
			LaTeX:       diff.LaTeX() + " = 0",
			Explanation: fmt.Sprintf("Subtract %s from both sides to get everything on one side.", rhs.LaTeX()),
			Formula:     "Subtraction property of equality",
		})
	}

	switch cas.Degree(diff, variable) {
	case 1:
		list = append(list, linearSteps(diff, variable)...)
	case 2:
		list = append(list, quadraticSteps(diff, variable)...)
	default:
		list = append(list, polynomialSteps(diff, variable)...)
	}
	return finish(list)
}

func linearSteps(diff cas.Expr, variable string) []Step {
	roots, err := cas.Solve(diff, variable)
	if err != nil || len(roots) == 0 {
		return terminalSteps(err, variable)
	}
	sol := roots[0]

	var list []Step
	if a, b, ok := cas.LinearParts(diff, variable); ok && !b.IsZero() {
		negConst := cas.Neg(b)
		list = append(list, Step{
			Title:       "Isolate variable term",
			LaTeX:       fmt.Sprintf(`%s \cdot %s = %s`, variable, a.LaTeX(), negConst.LaTeX()),
			Explanation: fmt.Sprintf("Move the constant %s to the other side by subtracting from both sides.", b.LaTeX()),
			Formula:     "Addition/Subtraction property of equality",
		})
		if !a.IsOne() {
			list = append(list, Step{
				Title:       "Divide both sides",
				LaTeX:       fmt.Sprintf(`%s = \frac{%s}{%s}`, variable, negConst.LaTeX(), a.LaTeX()),
				Explanation: fmt.Sprintf("Divide both sides by %s to isolate %s.", a.LaTeX(), variable),
				Formula:     "Division property of equality",
			})
		}
	}
	return append(list, Step{
		Title:       "Solution",
		LaTeX:       fmt.Sprintf("%s = %s", variable, sol.LaTeX()),
		Explanation: fmt.Sprintf("Therefore, %s = %s", variable, sol.LaTeX()),
		Operation:   "solution",
	})
}

func quadraticSteps(diff cas.Expr, variable string) []Step {
	var list []Step
	factored, changed := cas.Factor(diff, variable)
	if changed {
		list = append(list, Step{
			Title:       "Factor the quadratic",
			LaTeX:       factored.LaTeX() + " = 0",
			Explanation: "Look for factors of the quadratic expression.",
			Formula:     "Quadratic factoring",
		})
		for _, f := range cas.FactorList(factored) {
			// Numeric leads and repeated-root powers carry no new root.
			if cas.Degree(f, variable) != 1 {
				continue
			}
			roots, err := cas.Solve(f, variable)
			if err != nil || len(roots) == 0 {
				continue
			}
			list = append(list, Step{
				Title:       fmt.Sprintf("Set factor %s = 0", f.LaTeX()),
				LaTeX:       fmt.Sprintf("%s = %s", variable, roots[0].LaTeX()),
				Explanation: fmt.Sprintf("Using the zero product property, %s = 0", f.LaTeX()),
				Formula:     "Zero product property",
			})
		}
	} else if a, b, c, ok := cas.QuadraticParts(diff, variable); ok {
		disc := cas.Subtract(cas.Prod(b, b), cas.Prod(cas.Int(4), a, c)).Simplify()
		list = append(list, Step{
			Title: "Apply quadratic formula",
			LaTeX: fmt.Sprintf(`%s = \frac{%s \pm \sqrt{%s}}{2 \cdot %s}`,
				variable, cas.Neg(b).LaTeX(), disc.LaTeX(), a.LaTeX()),
			Explanation: "For ax² + bx + c = 0, use: x = (-b ± √(b² - 4ac)) / 2a",
			Formula:     "Quadratic formula: x = (-b ± √(b² - 4ac)) / 2a",
		})
	}

	roots, err := cas.Solve(diff, variable)
	if err != nil || len(roots) == 0 {
		if errors.Is(err, cas.ErrNoSolution) {
			return append(list, Step{
				Title:       "No real solutions",
				LaTeX:       `\text{No real solutions}`,
				Explanation: "The discriminant is negative, so the equation has no real solutions.",
			})
		}
		return append(list, terminalSteps(err, variable)...)
	}
	return append(list, enumerateSolutions(roots, variable, "")...)
}

func polynomialSteps(diff cas.Expr, variable string) []Step {
	var list []Step
	if factored, changed := cas.Factor(diff, variable); changed {
		list = append(list, Step{
			Title:       "Factor the polynomial",
			LaTeX:       factored.LaTeX() + " = 0",
			Explanation: "Attempt to factor the polynomial expression.",
			Formula:     "Polynomial factoring",
		})
	}
	roots, err := cas.Solve(diff, variable)
	if err != nil || len(roots) == 0 {
		return append(list, terminalSteps(err, variable)...)
	}
	return append(list, enumerateSolutions(roots, variable, "One solution is ")...)
}

// terminalSteps maps an unsuccessful solve to its closing narration.
func terminalSteps(err error, variable string) []Step {
	switch {
	case errors.Is(err, cas.ErrInfiniteSolutions):
		return []Step{{
			Title:       "Identity",
			LaTeX:       `\text{True for all ` + variable + `}`,
			Explanation: fmt.Sprintf("Both sides are equal for every value of %s.", variable),
			Operation:   "solution",
		}}
	case errors.Is(err, cas.ErrNoSolution):
		return []Step{{
			Title:       "No solution",
			LaTeX:       `\text{No solution}`,
			Explanation: "This equation has no solution.",
		}}
	default:
		return []Step{{
			Title:       "Cannot solve",
			LaTeX:       `\text{No solutions found}`,
			Explanation: "This polynomial equation is difficult to solve analytically.",
		}}
	}
}

func enumerateSolutions(roots []cas.Expr, variable, prefix string) []Step {
	var list []Step
	for i, sol := range roots {
		title := "Solution"
		if len(roots) > 1 {
			title = fmt.Sprintf("Solution %d", i+1)
		}
		list = append(list, Step{
			Title:       title,
			LaTeX:       fmt.Sprintf("%s = %s", variable, sol.LaTeX()),
			Explanation: prefix + fmt.Sprintf("%s = %s", variable, sol.LaTeX()),
			Operation:   "solution",
		})
	}
	return list
}
