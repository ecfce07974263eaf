package steps

import (
	"fmt"
	"strings"

	"github.com/stepmath/mathsteps/internal/cas"
)

// chainFns are the function heads that signal a composition worth
// calling out. Matches the differentiation table in cas.
var chainFns = []string{"sin", "cos", "tan", "exp", "ln"}

type derivRule struct {
	name    string
	formula string
	applies func(e cas.Expr, variable string) bool
}

// derivRules is scanned in a fixed order so the narration always names
// rules the same way for the same shape of input.
var derivRules = []derivRule{
	{"Power Rule", `\frac{d}{dx}[x^n] = nx^{n-1}`,
		func(e cas.Expr, _ string) bool { return hasPowNode(e) }},
	{"Product Rule", `\frac{d}{dx}[u \cdot v] = u' \cdot v + u \cdot v'`,
		isVariableProduct},
	{"Quotient Rule", `\frac{d}{dx}\left[\frac{u}{v}\right] = \frac{u'v - uv'}{v^2}`,
		hasQuotientFactor},
	{"Chain Rule", `\frac{d}{dx}[f(g(x))] = f'(g(x)) \cdot g'(x)`,
		hasComposedFn},
	{"Trigonometric Rules", `\frac{d}{dx}[\sin(x)] = \cos(x), \quad \frac{d}{dx}[\cos(x)] = -\sin(x)`,
		func(e cas.Expr, _ string) bool { return cas.ContainsFn(e, "sin", "cos", "tan") }},
	{"Exponential Rule", `\frac{d}{dx}[e^x] = e^x`,
		func(e cas.Expr, _ string) bool { return cas.ContainsFn(e, "exp") }},
	{"Logarithmic Rule", `\frac{d}{dx}[\ln(x)] = \frac{1}{x}`,
		func(e cas.Expr, _ string) bool { return cas.ContainsFn(e, "ln") }},
}

func isVariableProduct(e cas.Expr, variable string) bool {
	m, ok := e.(*cas.Mul)
	if !ok {
		return false
	}
	dependent := 0
	for _, f := range m.Factors() {
		if cas.Contains(f, variable) {
			dependent++
		}
	}
	return dependent > 1
}

func hasQuotientFactor(e cas.Expr, _ string) bool {
	m, ok := e.(*cas.Mul)
	if !ok {
		return false
	}
	for _, f := range m.Factors() {
		if p, isPow := f.(*cas.Pow); isPow {
			if n, isNum := p.Exponent().(*cas.Num); isNum && n.IsNegOne() {
				return true
			}
		}
	}
	return false
}

func hasComposedFn(e cas.Expr, variable string) bool {
	return anyNode(e, func(n cas.Expr) bool {
		fn, ok := n.(*cas.Fn)
		if !ok || !cas.Contains(fn, variable) {
			return false
		}
		for _, name := range chainFns {
			if fn.FnName() == name {
				return true
			}
		}
		return false
	})
}

// BuildDerivative narrates differentiating expression with respect to
// variable, order times.
func BuildDerivative(expression, variable string, order int) []Step {
	if variable == "" {
		variable = "x"
	}
	if order < 1 {
		order = 1
	}
	expr, err := cas.Parse(expression)
	if err != nil {
		return failStep("Error computing derivative", expression, err)
	}

	var list []Step
	if order == 1 {
		list = append(list, Step{
			Title:       "Find the derivative",
			LaTeX:       fmt.Sprintf(`\frac{d}{d%s} \left(%s\right)`, variable, expr.LaTeX()),
			Explanation: fmt.Sprintf("We need to find the derivative with respect to %s.", variable),
			Formula:     "Derivative notation: d/dx or f'(x)",
		})
	} else {
		list = append(list, Step{
			Title:       fmt.Sprintf("Find the %d-order derivative", order),
			LaTeX:       fmt.Sprintf(`\frac{d^%d}{d%s^%d} \left(%s\right)`, order, variable, order, expr.LaTeX()),
			Explanation: fmt.Sprintf("We need to find the %d-order derivative with respect to %s.", order, variable),
			Formula:     "Higher-order derivative: d^n/dx^n",
		})
	}

	for _, r := range derivRules {
		if !r.applies(expr, variable) {
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

	derivative := cas.Diff(expr, variable, order)
	simplified := derivative.Simplify()

	list = append(list, Step{
		Title:       "Compute derivative",
		LaTeX:       derivative.LaTeX(),
		Explanation: "Apply the differentiation rules to get the derivative.",
		Operation:   "compute",
	})
	if !simplified.Equal(derivative) {
		list = append(list, Step{
			Title:       "Simplify",
			LaTeX:       simplified.LaTeX(),
			Explanation: "Simplify the result.",
			Operation:   "simplify",
		})
	}
	return finish(append(list, Step{
		Title:       "Final answer",
		LaTeX:       fmt.Sprintf(`\frac{d^%df}{d%s^%d} = %s`, order, variable, order, simplified.LaTeX()),
		Explanation: fmt.Sprintf("The %d-order derivative is: %s", order, simplified.LaTeX()),
		Operation:   "solution",
	}))
}
