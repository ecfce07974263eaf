package classify

import (
	"strings"
	"testing"
)

func mustClassify(t *testing.T, text string) *ParsedProblem {
	t.Helper()
	p, err := New().Classify(text)
	if err != nil {
		t.Fatalf("Classify(%q) returned error: %v", text, err)
	}
	return p
}

func TestClassifyCascade(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantType   Type
		wantExpr   string
		wantDomain string
		minConf    float64
	}{
		{
			name:       "linear equation english",
			input:      "Solve 2x + 5 = 15",
			wantType:   TypeLinearEquation,
			wantExpr:   "2*x+5",
			wantDomain: DomainAlgebra,
			minConf:    0.90,
		},
		{
			name:       "linear equation russian",
			input:      "Реши уравнение: 3x - 7 = 2",
			wantType:   TypeLinearEquation,
			wantExpr:   "3*x-7",
			wantDomain: DomainAlgebra,
			minConf:    0.90,
		},
		{
			name:       "bare equals falls back to linear",
			input:      "2x + 5 = 15",
			wantType:   TypeLinearEquation,
			wantExpr:   "2*x+5",
			wantDomain: DomainAlgebra,
			minConf:    0.70,
		},
		{
			name:       "quadratic with equals",
			input:      "Solve x^2 + 5x + 6 = 0",
			wantType:   TypeQuadratic,
			wantExpr:   "x**2+5*x+6",
			wantDomain: DomainAlgebra,
			minConf:    0.95,
		},
		{
			name:       "derivative english",
			input:      "Find derivative of x^2 + 3x",
			wantType:   TypeDerivative,
			wantExpr:   "x**2+3*x",
			wantDomain: DomainCalculus,
			minConf:    0.95,
		},
		{
			name:       "derivative russian",
			input:      "Найди производную x**2 + 4x",
			wantType:   TypeDerivative,
			wantExpr:   "x**2+4*x",
			wantDomain: DomainCalculus,
			minConf:    0.95,
		},
		{
			name:       "derivative leibniz notation",
			input:      "Find d/dx x^3 + 2x",
			wantType:   TypeDerivative,
			wantExpr:   "x**3+2*x",
			wantDomain: DomainCalculus,
			minConf:    0.95,
		},
		{
			name:       "indefinite integral",
			input:      "Integral of x^2 dx",
			wantType:   TypeIntegral,
			wantExpr:   "x**2",
			wantDomain: DomainCalculus,
			minConf:    0.90,
		},
		{
			name:       "definite integral russian",
			input:      "Интеграл x^2 от 0 до 1",
			wantType:   TypeIntegral,
			wantExpr:   "x**2",
			wantDomain: DomainCalculus,
			minConf:    0.95,
		},
		{
			name:       "limit english",
			input:      "Limit sin(x)/x as x approaches 0",
			wantType:   TypeLimit,
			wantExpr:   "sin(x)/x",
			wantDomain: DomainCalculus,
			minConf:    0.95,
		},
		{
			name:       "limit russian with infinity",
			input:      "Вычисли предел 1/x при x→∞",
			wantType:   TypeLimit,
			wantExpr:   "1/x",
			wantDomain: DomainCalculus,
			minConf:    0.95,
		},
		{
			name:       "simplify",
			input:      "Simplify x^2 - 4",
			wantType:   TypeSimplify,
			wantExpr:   "x**2-4",
			wantDomain: DomainAlgebra,
			minConf:    0.90,
		},
		{
			name:       "factor russian",
			input:      "Разложи x^2 - 4",
			wantType:   TypeFactor,
			wantExpr:   "x**2-4",
			wantDomain: DomainAlgebra,
			minConf:    0.90,
		},
		{
			name:       "expand",
			input:      "Expand (x + 2)^2",
			wantType:   TypeExpand,
			wantExpr:   "(x+2)^2",
			wantDomain: DomainAlgebra,
			minConf:    0.90,
		},
		{
			name:       "system of equations",
			input:      "Solve the system: x + y = 3, x - y = 1",
			wantType:   TypeSystem,
			wantExpr:   "x+y",
			wantDomain: DomainAlgebra,
			minConf:    0.90,
		},
		{
			name:       "matrix determinant",
			input:      "Find the determinant of [[1,2],[3,4]]",
			wantType:   TypeMatrix,
			wantExpr:   "[[1,2],[3,4]]",
			wantDomain: DomainAlgebra,
			minConf:    0.90,
		},
		{
			name:       "ambiguous text",
			input:      "What is the meaning of life?",
			wantType:   TypeOther,
			wantDomain: DomainAlgebra,
			minConf:    0.50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustClassify(t, tt.input)
			if p.Type != tt.wantType {
				t.Errorf("type: want %s, got %s", tt.wantType, p.Type)
			}
			if tt.wantExpr != "" && p.Expression != tt.wantExpr {
				t.Errorf("expression: want %q, got %q", tt.wantExpr, p.Expression)
			}
			if p.Domain != tt.wantDomain {
				t.Errorf("domain: want %s, got %s", tt.wantDomain, p.Domain)
			}
			if p.Confidence < tt.minConf {
				t.Errorf("confidence: want >= %.2f, got %.2f", tt.minConf, p.Confidence)
			}
			if p.Confidence < 0 || p.Confidence > 1 {
				t.Errorf("confidence out of range: %.2f", p.Confidence)
			}
		})
	}
}

func TestClassifyTargets(t *testing.T) {
	t.Run("derivative target", func(t *testing.T) {
		p := mustClassify(t, "Найди производную x**2 + 4x")
		if p.Target.Find != "derivative" {
			t.Errorf("find: want derivative, got %s", p.Target.Find)
		}
		if p.Target.Variable != "x" {
			t.Errorf("variable: want x, got %s", p.Target.Variable)
		}
		if p.Target.Order != 1 {
			t.Errorf("order: want 1, got %d", p.Target.Order)
		}
	})

	t.Run("definite integral bounds are exact rationals", func(t *testing.T) {
		p := mustClassify(t, "Integral of x^2 from 0.5 to 2")
		if !p.Target.Definite {
			t.Fatal("expected definite integral")
		}
		if p.Target.Lower != "1/2" {
			t.Errorf("lower: want 1/2, got %s", p.Target.Lower)
		}
		if p.Target.Upper != "2" {
			t.Errorf("upper: want 2, got %s", p.Target.Upper)
		}
	})

	t.Run("indefinite integral has no bounds", func(t *testing.T) {
		p := mustClassify(t, "Integral of x^2 dx")
		if p.Target.Definite {
			t.Error("expected indefinite integral")
		}
		if p.Target.Lower != "" || p.Target.Upper != "" {
			t.Errorf("unexpected bounds: %s..%s", p.Target.Lower, p.Target.Upper)
		}
	})

	t.Run("limit defaults and point extraction", func(t *testing.T) {
		p := mustClassify(t, "Предел sin(x)/x при x→0")
		if p.Target.Find != "limit" {
			t.Errorf("find: want limit, got %s", p.Target.Find)
		}
		if p.Target.Point != "0" {
			t.Errorf("point: want 0, got %s", p.Target.Point)
		}
		if p.Target.Side != "+" {
			t.Errorf("side: want +, got %s", p.Target.Side)
		}
	})

	t.Run("limit to infinity maps point to oo", func(t *testing.T) {
		p := mustClassify(t, "Вычисли предел 1/x при x→∞")
		if p.Target.Point != "oo" {
			t.Errorf("point: want oo, got %s", p.Target.Point)
		}
	})

	t.Run("equation defaults solve variable to x", func(t *testing.T) {
		p := mustClassify(t, "Solve 2x + 5 = 15")
		if len(p.Target.SolveFor) != 1 || p.Target.SolveFor[0] != "x" {
			t.Errorf("solve_for: want [x], got %v", p.Target.SolveFor)
		}
	})

	t.Run("system target lists both variables", func(t *testing.T) {
		p := mustClassify(t, "Solve the system: x + y = 3, x - y = 1")
		if len(p.Target.SolveFor) != 2 || p.Target.SolveFor[0] != "x" || p.Target.SolveFor[1] != "y" {
			t.Errorf("solve_for: want [x y], got %v", p.Target.SolveFor)
		}
		if len(p.Equations) != 2 {
			t.Fatalf("equations: want 2, got %d (%v)", len(p.Equations), p.Equations)
		}
	})

	t.Run("matrix operation keyword", func(t *testing.T) {
		p := mustClassify(t, "Find the inverse of [[1,2],[3,4]]")
		if p.Target.MatrixOp != "inverse" {
			t.Errorf("matrix op: want inverse, got %s", p.Target.MatrixOp)
		}
	})
}

func TestClassifyEquationExtraction(t *testing.T) {
	t.Run("equation string keeps both sides", func(t *testing.T) {
		p := mustClassify(t, "Solve 2x + 5 = 15")
		if len(p.Equations) != 1 {
			t.Fatalf("want 1 equation, got %d", len(p.Equations))
		}
		if p.Equations[0] != "2x+5 = 15" {
			t.Errorf("equation: want %q, got %q", "2x+5 = 15", p.Equations[0])
		}
	})

	t.Run("inputs with equals always yield an equation", func(t *testing.T) {
		inputs := []string{
			"Solve 2x + 5 = 15",
			"Реши уравнение: 3x - 7 = 2",
			"x^2 + 5x + 6 = 0",
		}
		for _, in := range inputs {
			p := mustClassify(t, in)
			if len(p.Equations) == 0 {
				t.Errorf("%q: no equations extracted", in)
				continue
			}
			if !strings.Contains(p.Equations[0], "=") {
				t.Errorf("%q: equation %q missing =", in, p.Equations[0])
			}
		}
	})
}

func TestClassifyConfidence(t *testing.T) {
	t.Run("equation presence never lowers confidence", func(t *testing.T) {
		without := mustClassify(t, "Упрости 2a + 3a")
		with := mustClassify(t, "Упрости 2a + 3a = 0")
		if with.Confidence < without.Confidence {
			t.Errorf("confidence dropped with equation: %.2f < %.2f",
				with.Confidence, without.Confidence)
		}
	})

	t.Run("ambiguous stays at or below half", func(t *testing.T) {
		p := mustClassify(t, "What is the meaning of life?")
		if p.Confidence > 0.5 {
			t.Errorf("ambiguous confidence: want <= 0.5, got %.2f", p.Confidence)
		}
	})

	t.Run("quadratic with positive discriminant reaches 0.95", func(t *testing.T) {
		p := mustClassify(t, "Solve x^2 + 5x + 6 = 0")
		if p.Type != TypeQuadratic {
			t.Fatalf("want quadratic, got %s", p.Type)
		}
		if p.Confidence < 0.95 {
			t.Errorf("confidence: want >= 0.95, got %.2f", p.Confidence)
		}
	})
}

func TestClassifyVariables(t *testing.T) {
	t.Run("word boundary scan", func(t *testing.T) {
		p := mustClassify(t, "Find derivative of x^2 + 3x")
		if len(p.Variables) != 1 || p.Variables[0] != "x" {
			t.Errorf("variables: want [x], got %v", p.Variables)
		}
	})

	t.Run("preference order puts x before coefficients", func(t *testing.T) {
		p := mustClassify(t, "Simplify a + b + x + a")
		if len(p.Variables) == 0 || p.Variables[0] != "x" {
			t.Errorf("variables: want x first, got %v", p.Variables)
		}
	})
}

func TestClassifyCache(t *testing.T) {
	t.Run("repeated input returns cached entry", func(t *testing.T) {
		c := New()
		p1, err := c.Classify("Solve 2x + 5 = 15")
		if err != nil {
			t.Fatal(err)
		}
		p2, err := c.Classify("  Solve 2x + 5 = 15  ")
		if err != nil {
			t.Fatal(err)
		}
		if p1 != p2 {
			t.Error("expected cache hit to return the same entry")
		}
	})

	t.Run("empty input is an error", func(t *testing.T) {
		if _, err := New().Classify("   "); err == nil {
			t.Error("expected error for blank input")
		}
	})
}
