// Package render turns a solution into Markdown and HTML documents
// for browsers and exports. The LaTeX content is left inside $...$
// delimiters so a MathJax-enabled page can typeset it.
package render

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/stepmath/mathsteps/internal/solver"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// Markdown builds a Markdown document for one solution.
func Markdown(sol *solver.Solution) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", titleFor(sol.Operation))
	fmt.Fprintf(&b, "**Input:** `%s`\n\n", sol.Expression)
	if sol.ProblemType != "" {
		fmt.Fprintf(&b, "**Problem type:** %s (confidence %.2f)\n\n", sol.ProblemType, sol.Confidence)
	}
	fmt.Fprintf(&b, "**Result:** $%s$\n\n", sol.LaTeX)

	if len(sol.Steps) > 0 {
		b.WriteString("## Steps\n\n")
		for i, step := range sol.Steps {
			title := step.Title
			if title == "" {
				title = "Step"
			}
			fmt.Fprintf(&b, "%d. **%s**", i+1, title)
			if step.LaTeX != "" {
				fmt.Fprintf(&b, ": $%s$", step.LaTeX)
			}
			b.WriteString("\n")
			if step.Explanation != "" {
				fmt.Fprintf(&b, "   %s\n", step.Explanation)
			}
		}
		b.WriteString("\n")
	}

	switch sol.Explanation {
	case "accepted":
		b.WriteString("_Steps verified against the engine result._\n")
	case "rejected", "error":
		b.WriteString("_AI explanation unavailable; showing engine steps._\n")
	}

	return b.String()
}

// HTML renders the solution's Markdown through goldmark.
func HTML(sol *solver.Solution) (string, error) {
	var out strings.Builder
	if err := md.Convert([]byte(Markdown(sol)), &out); err != nil {
		return "", fmt.Errorf("failed to render HTML: %w", err)
	}
	return out.String(), nil
}

func titleFor(operation string) string {
	switch operation {
	case "solve":
		return "Equation Solution"
	case "derivative":
		return "Derivative"
	case "integral":
		return "Integral"
	case "limit":
		return "Limit"
	case "simplify":
		return "Simplification"
	case "factor":
		return "Factoring"
	case "expand":
		return "Expansion"
	case "matrix":
		return "Matrix Operation"
	default:
		return "Solution"
	}
}
