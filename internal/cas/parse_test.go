package cas

import (
	"errors"
	"testing"
)

func TestParse_Display(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"linear", "2*x + 5", "2*x + 5"},
		{"implicit_coefficient", "2x + 5", "2*x + 5"},
		{"implicit_paren", "3(x + 1)", "3*(x + 1)"},
		{"polynomial", "x**2 - 5x + 6", "x**2 - 5*x + 6"},
		{"caret_power", "x^3", "x**3"},
		{"nested_fraction", "(1)/((2)/(3))", "3/2"},
		{"decimal_is_exact", "0.5*x", "1/2*x"},
		{"quotient", "sin(x)/x", "sin(x)/x"},
		{"unary_minus_power", "-x**2", "-x**2"},
		{"sqrt_perfect_square", "sqrt(16)", "4"},
		{"sqrt_square_free", "sqrt(8)", "2*sqrt(2)"},
		{"constant_fold", "2**10", "1024"},
		{"log_alias", "log(x)", "ln(x)"},
		{"euler_power", "e**x", "exp(x)"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e, err := Parse(tc.input)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tc.input, err)
			}
			if got := e.String(); got != tc.want {
				t.Errorf("Parse(%q).String() = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"only_spaces", "   "},
		{"dangling_operator", "2 +"},
		{"unbalanced_paren", "(x + 1"},
		{"double_operator", "2 * * x"},
		{"stray_close", ")x"},
		{"bad_character", "2 @ 3"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.input)
			if err == nil {
				t.Fatalf("Parse(%q) expected error, got none", tc.input)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Errorf("Parse(%q) error type = %T, want *ParseError", tc.input, err)
			}
		})
	}
}

func TestParse_ExactArithmetic(t *testing.T) {
	// Decimal inputs must become rationals, not floats.
	e, err := Parse("0.1 + 0.2")
	if err != nil {
		t.Fatalf("Parse error = %v", err)
	}
	if got := e.String(); got != "3/10" {
		t.Errorf("0.1 + 0.2 = %q, want %q", got, "3/10")
	}
}

func TestLaTeX_Rendering(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"power", "x**2", "x^{2}"},
		{"fraction", "x/2", "\\frac{x}{2}"},
		{"sqrt", "sqrt(x)", "\\sqrt{x}"},
		{"sin", "sin(x)", "\\sin\\left(x\\right)"},
		{"pi", "pi", "\\pi"},
		{"sum_with_minus", "x**2 - 4", "x^{2} - 4"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := MustParse(tc.input)
			if got := e.LaTeX(); got != tc.want {
				t.Errorf("LaTeX(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestSimplify_CombinesLikeTerms(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"x + x", "2*x"},
		{"2*x**2 + 3*x**2", "5*x**2"},
		{"x - x", "0"},
		{"x*x", "x**2"},
		{"x**2 * x**-1", "x"},
		{"2*x + 3 - 2*x", "3"},
	}
	for _, tc := range cases {
		e := MustParse(tc.input)
		if got := e.String(); got != tc.want {
			t.Errorf("simplify(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestEquivalent_Verdicts(t *testing.T) {
	cases := []struct {
		name string
		a, b string
		want bool
	}{
		{"binomial_square", "(x+1)**2", "x**2 + 2*x + 1", true},
		{"factored_quadratic", "(x-2)*(x-3)", "x**2 - 5*x + 6", true},
		{"different_constant", "x + 1", "x + 2", false},
		{"same_function", "sin(x)*cos(x)", "cos(x)*sin(x)", true},
		{"plain_mismatch", "x**2", "x**3", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Equivalent(MustParse(tc.a), MustParse(tc.b))
			if got != tc.want {
				t.Errorf("Equivalent(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}
