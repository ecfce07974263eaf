package render

import (
	"strings"
	"testing"

	"github.com/stepmath/mathsteps/internal/solver"
	"github.com/stepmath/mathsteps/internal/steps"
)

func sampleSolution() *solver.Solution {
	return &solver.Solution{
		Result:     "5",
		LaTeX:      "x = 5",
		Expression: "2*x + 5 = 15",
		Operation:  "solve",
		Steps: []steps.SerializedStep{
			{Title: "State the equation", LaTeX: "2x + 5 = 15", Explanation: "We start with the given equation."},
			{Title: "Solution", LaTeX: "x = 5", Explanation: "The value satisfies the equation."},
		},
		Explanation: "off",
	}
}

func TestMarkdown(t *testing.T) {
	doc := Markdown(sampleSolution())

	for _, want := range []string{
		"# Equation Solution",
		"**Result:** $x = 5$",
		"## Steps",
		"1. **State the equation**",
		"2. **Solution**",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("Markdown() missing %q in:\n%s", want, doc)
		}
	}
}

func TestMarkdown_NoSteps(t *testing.T) {
	sol := sampleSolution()
	sol.Steps = nil

	doc := Markdown(sol)
	if strings.Contains(doc, "## Steps") {
		t.Error("Markdown() should omit the steps section when there are none")
	}
}

func TestHTML(t *testing.T) {
	out, err := HTML(sampleSolution())
	if err != nil {
		t.Fatalf("HTML() error = %v", err)
	}

	if !strings.Contains(out, "<h1") {
		t.Errorf("HTML() missing heading in:\n%s", out)
	}
	if !strings.Contains(out, "<ol>") {
		t.Errorf("HTML() missing ordered step list in:\n%s", out)
	}
	if !strings.Contains(out, "x = 5") {
		t.Errorf("HTML() missing result in:\n%s", out)
	}
}
