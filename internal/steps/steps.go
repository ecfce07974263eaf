// Package steps turns computed results into ordered pedagogical
// narrations. Each family (equation, derivative, integral, matrix)
// writes the solution the way a tutor would on a whiteboard: state the
// problem, name the rules in play, show the work, end with the answer.
//
// Builders never return errors. Any internal failure is downgraded to a
// single explanatory step so callers always have something to render.
package steps

import (
	"strings"

	"github.com/stepmath/mathsteps/internal/cas"
)

// Step is one line of a worked solution. LaTeX is stored bare; math-mode
// delimiters are stripped at construction so the renderer decides how to
// wrap content.
type Step struct {
	Title       string `json:"title"`
	LaTeX       string `json:"latex"`
	Explanation string `json:"explanation"`
	Formula     string `json:"formula,omitempty"`
	Operation   string `json:"operation,omitempty"`
}

var delimReplacer = strings.NewReplacer(
	`\[`, "", `\]`, "",
	`\(`, "", `\)`, "",
	"$$", "", "$", "",
)

// CleanLaTeX removes math-mode delimiters and surrounding whitespace.
// The content between delimiters is kept.
func CleanLaTeX(s string) string {
	return strings.TrimSpace(delimReplacer.Replace(s))
}

// finish normalizes a step list before it leaves the package.
func finish(list []Step) []Step {
	for i := range list {
		list[i].Title = strings.TrimSpace(list[i].Title)
		list[i].LaTeX = CleanLaTeX(list[i].LaTeX)
		list[i].Explanation = strings.TrimSpace(list[i].Explanation)
	}
	return list
}

// failStep downgrades an internal failure to one renderable step.
func failStep(title, latex string, cause error) []Step {
	return finish([]Step{{
		Title:       title,
		LaTeX:       latex,
		Explanation: "Could not generate detailed steps: " + cause.Error(),
	}})
}

// anyNode reports whether pred holds for any node of the tree.
func anyNode(e cas.Expr, pred func(cas.Expr) bool) bool {
	if pred(e) {
		return true
	}
	switch v := e.(type) {
	case *cas.Add:
		for _, t := range v.Terms() {
			if anyNode(t, pred) {
				return true
			}
		}
	case *cas.Mul:
		for _, f := range v.Factors() {
			if anyNode(f, pred) {
				return true
			}
		}
	case *cas.Pow:
		return anyNode(v.Base(), pred) || anyNode(v.Exponent(), pred)
	case *cas.Fn:
		return anyNode(v.Arg(), pred)
	}
	return false
}

func hasPowNode(e cas.Expr) bool {
	return anyNode(e, func(n cas.Expr) bool {
		_, ok := n.(*cas.Pow)
		return ok
	})
}

func isZeroNum(e cas.Expr) bool {
	n, ok := e.(*cas.Num)
	return ok && n.IsZero()
}
