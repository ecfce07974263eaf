package steps

import (
	"strings"
	"testing"
)

func appliedRules(list []Step) []string {
	var rules []string
	for _, s := range list {
		if strings.HasPrefix(s.Title, "Apply ") && strings.HasPrefix(s.Operation, "apply_") {
			rules = append(rules, strings.TrimPrefix(s.Title, "Apply "))
		}
	}
	return rules
}

func TestBuildDerivativeRuleDetection(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"power only", "x^2 + 3x", []string{"Power Rule"}},
		{"quotient of trig", "sin(x)/x", []string{
			"Power Rule", "Product Rule", "Quotient Rule", "Chain Rule", "Trigonometric Rules",
		}},
		{"exp and log", "exp(x) + ln(x)", []string{
			"Chain Rule", "Exponential Rule", "Logarithmic Rule",
		}},
		{"plain line", "3x", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := appliedRules(BuildDerivative(tt.input, "x", 1))
			if len(got) != len(tt.want) {
				t.Fatalf("expected rules %v, got %v", tt.want, got)
			}
			for i, w := range tt.want {
				if got[i] != w {
					t.Errorf("rule %d: expected %q, got %q", i, w, got[i])
				}
			}
		})
	}
}

func TestBuildDerivativeFirstOrder(t *testing.T) {
	got := BuildDerivative("x^2 + 3x", "x", 1)
	assertTitles(t, got, []string{
		"Find the derivative",
		"Apply Power Rule",
		"Compute derivative",
		"Final answer",
	})

	if got[0].LaTeX != `\frac{d}{dx} \left(x^{2} + 3 x\right)` {
		t.Errorf("unexpected statement latex %q", got[0].LaTeX)
	}
	if got[0].Formula != "Derivative notation: d/dx or f'(x)" {
		t.Errorf("unexpected statement formula %q", got[0].Formula)
	}
	if got[1].Operation != "apply_power_rule" {
		t.Errorf("expected apply_power_rule operation, got %q", got[1].Operation)
	}
	if got[2].LaTeX != "2 x + 3" {
		t.Errorf("expected computed derivative %q, got %q", "2 x + 3", got[2].LaTeX)
	}

	last := got[len(got)-1]
	if last.LaTeX != `\frac{d^1f}{dx^1} = 2 x + 3` {
		t.Errorf("unexpected final latex %q", last.LaTeX)
	}
	if last.Explanation != "The 1-order derivative is: 2 x + 3" {
		t.Errorf("unexpected final explanation %q", last.Explanation)
	}
	if last.Operation != "solution" {
		t.Errorf("expected solution operation, got %q", last.Operation)
	}
}

func TestBuildDerivativeHigherOrder(t *testing.T) {
	got := BuildDerivative("x^3", "x", 2)

	if got[0].Title != "Find the 2-order derivative" {
		t.Fatalf("expected higher-order statement, got %q", got[0].Title)
	}
	if got[0].LaTeX != `\frac{d^2}{dx^2} \left(x^{3}\right)` {
		t.Errorf("unexpected statement latex %q", got[0].LaTeX)
	}
	if got[0].Formula != "Higher-order derivative: d^n/dx^n" {
		t.Errorf("unexpected statement formula %q", got[0].Formula)
	}

	last := got[len(got)-1]
	if last.LaTeX != `\frac{d^2f}{dx^2} = 6 x` {
		t.Errorf("unexpected final latex %q", last.LaTeX)
	}
	if last.Explanation != "The 2-order derivative is: 6 x" {
		t.Errorf("unexpected final explanation %q", last.Explanation)
	}
}

func TestBuildDerivativeOtherVariable(t *testing.T) {
	got := BuildDerivative("t^2", "t", 1)
	if got[0].LaTeX != `\frac{d}{dt} \left(t^{2}\right)` {
		t.Errorf("unexpected statement latex %q", got[0].LaTeX)
	}
	last := got[len(got)-1]
	if last.LaTeX != `\frac{d^1f}{dt^1} = 2 t` {
		t.Errorf("unexpected final latex %q", last.LaTeX)
	}
}

func TestBuildDerivativeDowngrade(t *testing.T) {
	got := BuildDerivative("2x +", "x", 1)
	if len(got) != 1 {
		t.Fatalf("expected a single downgrade step, got %d: %v", len(got), stepTitles(got))
	}
	if got[0].Title != "Error computing derivative" {
		t.Errorf("expected downgrade title, got %q", got[0].Title)
	}
	if !strings.HasPrefix(got[0].Explanation, "Could not generate detailed steps: ") {
		t.Errorf("expected downgrade explanation, got %q", got[0].Explanation)
	}
}
