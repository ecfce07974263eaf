package notation

import (
	"errors"
	"strings"
	"testing"
)

func mustCanonicalize(t *testing.T, raw string) string {
	t.Helper()
	got, err := Canonicalize(raw)
	if err != nil {
		t.Fatalf("Canonicalize(%q) error = %v", raw, err)
	}
	return got
}

func TestCanonicalize_NestedFractions(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{`\frac{1}{\frac{2}{3}}`, "(1)/((2)/(3))"},
		{`\frac{\frac{1}{2}}{3}`, "((1)/(2))/(3)"},
		{`\frac{x+1}{2}`, "(x+1)/(2)"},
	}
	for _, tc := range cases {
		got := mustCanonicalize(t, tc.in)
		if got != tc.want {
			t.Errorf("Canonicalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
		if strings.Contains(got, `\frac`) {
			t.Errorf("Canonicalize(%q) left a \\frac token: %q", tc.in, got)
		}
	}
}

func TestCanonicalize_LaTeXCommands(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{`\sqrt{16}`, "sqrt(16)"},
		{`\sqrt[3]{8}`, "(8)**(1/3)"},
		{`\left(x+1\right)^{2}`, "(x+1)**(2)"},
		{`3\cdot x`, "3*x"},
		{`\pi r^2`, "pi*r**2"},
		{`\sin(x)+\cos(x)`, "sin(x)+cos(x)"},
		{`\arcsin(x)`, "asin(x)"},
		{`\left|x\right|`, "abs(x)"},
		{`\int x^2 dx`, "x**2"},
	}
	for _, tc := range cases {
		if got := mustCanonicalize(t, tc.in); got != tc.want {
			t.Errorf("Canonicalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCanonicalize_UnicodeSymbols(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"5×3÷2", "5*3/2"},
		{"x²+x³", "x**2+x**3"},
		{"√2", "sqrt(2)"},
		{"√(x+1)", "sqrt(x+1)"},
		{"∛8", "(8)**(1/3)"},
		{"2π", "2*pi"},
		{"−5+x", "-5+x"},
	}
	for _, tc := range cases {
		if got := mustCanonicalize(t, tc.in); got != tc.want {
			t.Errorf("Canonicalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCanonicalize_ImplicitMultiplication(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"2x", "2*x"},
		{"2(x+1)", "2*(x+1)"},
		{"x(x+1)", "x*(x+1)"},
		{"(x+1)(x-2)", "(x+1)*(x-2)"},
		{"2x(x+3)", "2*x*(x+3)"},
		{"2sin(x)", "2*sin(x)"},
		{"sin(x)", "sin(x)"},
		{"sqrt(2)", "sqrt(2)"},
	}
	for _, tc := range cases {
		if got := mustCanonicalize(t, tc.in); got != tc.want {
			t.Errorf("Canonicalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCanonicalize_Exponents(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"x^2", "x**2"},
		{"x^{-2}", "x**(-2)"},
		{"x^{n+1}", "x**(n+1)"},
		{"e^{2x}", "e**(2*x)"},
		{"x^n", "x**n"},
		{"x**2", "x**2"},
	}
	for _, tc := range cases {
		if got := mustCanonicalize(t, tc.in); got != tc.want {
			t.Errorf("Canonicalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCanonicalize_MathDelimiters(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"$x^2$", "x**2"},
		{"$$\\frac{1}{2}$$", "(1)/(2)"},
		{`\[x+1\]`, "x+1"},
		{`\(2x\)`, "2*x"},
	}
	for _, tc := range cases {
		if got := mustCanonicalize(t, tc.in); got != tc.want {
			t.Errorf("Canonicalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCanonicalize_LooseText(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"sin x", "sin(x)"},
		{"ln x + 1", "ln(x)+1"},
		{"2x + 5 = 15", "2*x+5=15"},
		{"x^2 dx", "x**2"},
	}
	for _, tc := range cases {
		if got := mustCanonicalize(t, tc.in); got != tc.want {
			t.Errorf("Canonicalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCanonicalize_Idempotent(t *testing.T) {
	inputs := []string{
		`\frac{1}{2} + x`,
		`\sqrt{x^2}`,
		"2x + 5 = 15",
		"(x+1)(x-2)",
		"x**2 - 4",
		`\frac{1}{\frac{2}{3}}`,
	}
	for _, in := range inputs {
		once := mustCanonicalize(t, in)
		twice := mustCanonicalize(t, once)
		if once != twice {
			t.Errorf("Canonicalize(%q) is not a fixed point: %q then %q", in, once, twice)
		}
	}
}

func TestCanonicalize_Errors(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"only_delimiters", "$$"},
		{"unbalanced_frac", `\frac{1}{2`},
		{"unbalanced_exponent_brace", "x^{2"},
		{"stray_braces", "{}"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Canonicalize(tc.in)
			if err == nil {
				t.Fatalf("Canonicalize(%q) expected error, got none", tc.in)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("error = %v, want *ParseError", err)
			}
			if pe.Reason == "" {
				t.Errorf("ParseError has empty reason")
			}
		})
	}
}
