package steps

import (
	"fmt"
	"strings"

	"github.com/stepmath/mathsteps/internal/cas"
)

// BuildSystem narrates solving a 2x2 linear system by Cramer's rule.
// Each equation is given as "lhs = rhs" in the two named variables.
func BuildSystem(eq1, eq2, xName, yName string) []Step {
	a1, b1, c1, r1, err := systemCoeffs(eq1, xName, yName)
	if err != nil {
		return failStep("Error with system", eq1, err)
	}
	a2, b2, c2, r2, err := systemCoeffs(eq2, xName, yName)
	if err != nil {
		return failStep("Error with system", eq2, err)
	}

	list := []Step{{
		Title: "State the system",
		LaTeX: fmt.Sprintf(`\begin{cases} %s \\ %s \end{cases}`, r1, r2),
		Explanation: fmt.Sprintf("We need values of %s and %s that satisfy both equations at once.",
			xName, yName),
	}}

	det := cas.Subtract(cas.Prod(a1, b2), cas.Prod(a2, b1)).Simplify()
	list = append(list, Step{
		Title: "Compute the coefficient determinant",
		LaTeX: fmt.Sprintf(`D = \begin{vmatrix}%s & %s \\ %s & %s\end{vmatrix} = (%s)(%s) - (%s)(%s) = %s`,
			a1.LaTeX(), b1.LaTeX(), a2.LaTeX(), b2.LaTeX(),
			a1.LaTeX(), b2.LaTeX(), a2.LaTeX(), b1.LaTeX(), det.LaTeX()),
		Explanation: "Cramer's rule divides column-swapped determinants by the coefficient determinant.",
		Formula:     "Cramer's rule: x = Dx/D, y = Dy/D",
	})

	if isZeroNum(det) {
		list = append(list, Step{
			Title:       "No unique solution",
			LaTeX:       "D = 0",
			Explanation: "The coefficient determinant is zero, so the system has no unique solution.",
		})
		return finish(list)
	}

	dx := cas.Subtract(cas.Prod(c1, b2), cas.Prod(c2, b1)).Simplify()
	dy := cas.Subtract(cas.Prod(a1, c2), cas.Prod(a2, c1)).Simplify()
	xv := cas.Div(dx, det).Simplify()
	yv := cas.Div(dy, det).Simplify()

	list = append(list, Step{
		Title: "Solve for " + xName,
		LaTeX: fmt.Sprintf(`%s = \frac{D_{%s}}{D} = \frac{%s}{%s} = %s`,
			xName, xName, dx.LaTeX(), det.LaTeX(), xv.LaTeX()),
		Explanation: fmt.Sprintf("Replace the %s column with the constants and divide by D.", xName),
	})
	list = append(list, Step{
		Title: "Solve for " + yName,
		LaTeX: fmt.Sprintf(`%s = \frac{D_{%s}}{D} = \frac{%s}{%s} = %s`,
			yName, yName, dy.LaTeX(), det.LaTeX(), yv.LaTeX()),
		Explanation: fmt.Sprintf("Replace the %s column with the constants and divide by D.", yName),
	})
	list = append(list, Step{
		Title:       "Final answer",
		LaTeX:       fmt.Sprintf(`%s = %s, \quad %s = %s`, xName, xv.LaTeX(), yName, yv.LaTeX()),
		Explanation: "These values satisfy both equations.",
	})
	return finish(list)
}

// systemCoeffs extracts a, b, c from one equation read as
// a*x + b*y = c, plus the rendered equation for display.
func systemCoeffs(equation, xName, yName string) (a, b, c cas.Expr, rendered string, err error) {
	lhsRaw, rhsRaw, found := strings.Cut(equation, "=")
	if !found {
		return nil, nil, nil, "", fmt.Errorf("expected an equation containing '=', got %q", equation)
	}
	lhs, err := cas.Parse(strings.TrimSpace(lhsRaw))
	if err != nil {
		return nil, nil, nil, "", err
	}
	rhs, err := cas.Parse(strings.TrimSpace(rhsRaw))
	if err != nil {
		return nil, nil, nil, "", err
	}

	diff := cas.Subtract(lhs, rhs)
	a = cas.Diff(diff, xName, 1)
	b = cas.Diff(diff, yName, 1)
	if cas.Contains(a, xName) || cas.Contains(a, yName) ||
		cas.Contains(b, xName) || cas.Contains(b, yName) {
		return nil, nil, nil, "", fmt.Errorf("system is not linear in %s and %s", xName, yName)
	}

	zero := cas.Int(0)
	c = cas.Neg(diff.Subst(xName, zero).Subst(yName, zero))
	rendered = lhs.LaTeX() + " = " + rhs.LaTeX()
	return a, b, c, rendered, nil
}
