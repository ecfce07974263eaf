package steps

import (
	"errors"
	"fmt"
	"strings"

	"github.com/stepmath/mathsteps/internal/cas"
)

type integralRule struct {
	name    string
	formula string
	applies func(e cas.Expr) bool
}

var integralRules = []integralRule{
	{"Power Rule", `\int x^n \, dx = \frac{x^{n+1}}{n+1} + C`, hasPowNode},
	{"Sine Integration", `\int \sin(x) \, dx = -\cos(x) + C`,
		func(e cas.Expr) bool { return cas.ContainsFn(e, "sin") }},
	{"Cosine Integration", `\int \cos(x) \, dx = \sin(x) + C`,
		func(e cas.Expr) bool { return cas.ContainsFn(e, "cos") }},
	{"Exponential Integration", `\int e^x \, dx = e^x + C`,
		func(e cas.Expr) bool { return cas.ContainsFn(e, "exp") }},
	{"Logarithmic Integration", `\int \frac{1}{x} \, dx = \ln|x| + C`,
		func(e cas.Expr) bool { return cas.ContainsFn(e, "ln") }},
	{"Sum Rule", `\int (f(x) + g(x)) \, dx = \int f(x) \, dx + \int g(x) \, dx`,
		func(e cas.Expr) bool { _, ok := e.(*cas.Add); return ok }},
	{"Constant Multiple Rule", `\int c \cdot f(x) \, dx = c \int f(x) \, dx`,
		func(e cas.Expr) bool { _, ok := e.(*cas.Mul); return ok }},
}

// BuildIntegral narrates integrating expression with respect to
// variable. Lower and upper select the definite form when both are set;
// bounds are kept as exact rationals so no float representation leaks
// into the narration.
func BuildIntegral(expression, variable, lower, upper string) []Step {
	if variable == "" {
		variable = "x"
	}
	expr, err := cas.Parse(expression)
	if err != nil {
		return failStep("Error computing integral", expression, err)
	}

	definite := lower != "" && upper != ""
	var lo, hi cas.Expr
	if definite {
		if lo, err = parseBound(lower); err != nil {
			return failStep("Error computing integral", expression, err)
		}
		if hi, err = parseBound(upper); err != nil {
			return failStep("Error computing integral", expression, err)
		}
	}

	var list []Step
	if definite {
		list = append(list, Step{
			Title:       "Find the definite integral",
			LaTeX:       fmt.Sprintf(`\int_{%s}^{%s} %s \, d%s`, lo.LaTeX(), hi.LaTeX(), expr.LaTeX(), variable),
			Explanation: fmt.Sprintf("Compute the area under the curve from %s to %s.", lo.LaTeX(), hi.LaTeX()),
			Formula:     "Definite integral: ∫[a,b] f(x)dx",
		})
	} else {
		list = append(list, Step{
			Title:       "Find the indefinite integral",
			LaTeX:       fmt.Sprintf(`\int %s \, d%s`, expr.LaTeX(), variable),
			Explanation: fmt.Sprintf("Find the antiderivative with respect to %s.", variable),
			Formula:     "Indefinite integral: ∫ f(x)dx = F(x) + C",
		})
	}

	for _, r := range integralRules {
		if !r.applies(expr) {
			continue
		}
		list = append(list, Step{
			Title:       "Apply " + r.name,
			LaTeX:       r.formula,
			Explanation: fmt.Sprintf("We can use the %s for this component.", r.name),
			Formula:     r.formula,
			Operation:   "apply_" + strings.ReplaceAll(strings.ToLower(r.name), " ", "_"),
		})
	}

	anti, ok := cas.Integrate(expr, variable)
	if !ok {
		return failStep("Error computing integral", expression,
			errors.New("no closed-form antiderivative found for this integrand"))
	}

	list = append(list, Step{
		Title:       "Find antiderivative",
		LaTeX:       anti.LaTeX(),
		Explanation: "Find a function whose derivative is the integrand.",
		Operation:   "antiderivative",
	})

	if !definite {
		return finish(append(list, Step{
			Title:       "Final answer (indefinite integral)",
			LaTeX:       anti.LaTeX() + " + C",
			Explanation: "Add the constant of integration C for indefinite integrals.",
			Formula:     "Constant of integration: ∫ f(x)dx = F(x) + C",
			Operation:   "solution",
		}))
	}

	atUpper := anti.Subst(variable, hi).Simplify()
	atLower := anti.Subst(variable, lo).Simplify()
	result := cas.Subtract(atUpper, atLower).Simplify()

	subtrahend := atLower.LaTeX()
	if strings.HasPrefix(subtrahend, "-") {
		subtrahend = `\left(` + subtrahend + `\right)`
	}

	list = append(list,
		Step{
			Title:       "Apply bounds",
			LaTeX:       fmt.Sprintf(`\left[%s\right]_{%s}^{%s}`, anti.LaTeX(), lo.LaTeX(), hi.LaTeX()),
			Explanation: fmt.Sprintf("Evaluate the antiderivative at %s = %s and %s = %s.", variable, hi.LaTeX(), variable, lo.LaTeX()),
			Formula:     "Fundamental Theorem: [a,b] f(x)dx = F(b) - F(a)",
			Operation:   "apply_bounds",
		},
		Step{
			Title:       "Evaluate",
			LaTeX:       fmt.Sprintf("%s - %s = %s", atUpper.LaTeX(), subtrahend, result.LaTeX()),
			Explanation: fmt.Sprintf("Calculate F(%s) - F(%s).", hi.LaTeX(), lo.LaTeX()),
			Operation:   "evaluate",
		},
		Step{
			Title:       "Final answer (definite integral)",
			LaTeX:       result.LaTeX(),
			Explanation: fmt.Sprintf("The area under the curve from %s to %s is %s.", lo.LaTeX(), hi.LaTeX(), result.LaTeX()),
			Operation:   "solution",
		},
	)
	return finish(list)
}

// parseBound reads an integration bound, preferring the exact rational
// form so decimal input like "0.5" stays 1/2 throughout.
func parseBound(s string) (cas.Expr, error) {
	if n, ok := cas.ParseNum(strings.TrimSpace(s)); ok {
		return n, nil
	}
	return cas.Parse(s)
}
