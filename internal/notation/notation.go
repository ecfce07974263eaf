// Package notation converts LaTeX fragments, Unicode math symbols and
// loosely typed algebra into one canonical expression string.
//
// Canonical form uses only explicit operators ("*", "/", "+", "-",
// "**" for powers) and named function tokens such as sin, cos and
// sqrt. Implicit multiplication in the input ("2x", "x(x+1)") becomes
// explicit, and canonical input is a fixed point: running Canonicalize
// on its own output returns it unchanged.
package notation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// ParseError reports a fragment that could not be reduced to canonical
// form.
type ParseError struct {
	Fragment string
	Reason   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot canonicalize %q: %s", e.Fragment, e.Reason)
}

const maxBracePasses = 64

var (
	integralSignRe = regexp.MustCompile(`\\int[^a-zA-Z]*`)
	differentialRe = regexp.MustCompile(`([^a-zA-Z]|^)\s*d[a-z]\s*$`)

	// Brace groups are rewritten innermost-first: the character classes
	// exclude braces, so nested groups only match once their bodies have
	// been reduced.
	fracRe      = regexp.MustCompile(`\\frac\s*\{([^{}]*)\}\s*\{([^{}]*)\}`)
	rootIndexRe = regexp.MustCompile(`\\sqrt\s*\[(\d+)\]\s*\{([^{}]*)\}`)
	sqrtRe      = regexp.MustCompile(`\\sqrt\s*\{([^{}]*)\}`)
	braceExpRe  = regexp.MustCompile(`\^\s*\{([^{}]*)\}`)

	commandRe  = regexp.MustCompile(`\\([a-zA-Z]+)`)
	digitExpRe = regexp.MustCompile(`\^(\d+(?:\.\d+)?)`)

	radicalArgRe = regexp.MustCompile(`√\s*(\d+(?:\.\d+)?|pi|oo|[a-zA-Z])`)
	cubeArgRe    = regexp.MustCompile(`∛\s*(\d+(?:\.\d+)?|pi|oo|[a-zA-Z])`)

	funcApplyRe = regexp.MustCompile(`\b(arcsin|arccos|arctan|asin|acos|atan|sinh|cosh|tanh|sin|cos|tan|cot|sec|csc|exp|ln|log|sqrt|cbrt|abs)\s+(\d+(?:\.\d+)?|[a-zA-Z])`)
)

type rewrite struct{ from, to string }

var latexDelims = []rewrite{
	{`\left(`, "("}, {`\right)`, ")"},
	{`\left[`, "("}, {`\right]`, ")"},
	{`\left|`, "abs("}, {`\right|`, ")"},
	{`\left.`, ""}, {`\right.`, ""},
}

var latexOperators = []rewrite{
	{`\cdot`, "*"}, {`\times`, "*"}, {`\div`, "/"},
	{`\pm`, "+"}, {`\mp`, "-"},
}

// Constant spellings are substituted before function names; the order
// is part of the canonicalization contract.
var latexConstants = []rewrite{
	{`\pi`, "pi"}, {`\infty`, "oo"},
	{`\alpha`, "alpha"}, {`\beta`, "beta"},
	{`\gamma`, "gamma"}, {`\theta`, "theta"},
}

// Longer spellings come first so they are never shadowed by a prefix.
var latexFunctions = []rewrite{
	{`\arcsin`, "asin"}, {`\arccos`, "acos"}, {`\arctan`, "atan"},
	{`\sinh`, "sinh"}, {`\cosh`, "cosh"}, {`\tanh`, "tanh"},
	{`\sin`, "sin"}, {`\cos`, "cos"}, {`\tan`, "tan"},
	{`\cot`, "cot"}, {`\sec`, "sec"}, {`\csc`, "csc"},
	{`\ln`, "ln"}, {`\log`, "log"}, {`\exp`, "exp"},
}

var unicodeSymbols = []rewrite{
	{"×", "*"}, {"÷", "/"}, {"·", "*"}, {"−", "-"},
	{"²", "**2"}, {"³", "**3"}, {"ⁿ", "**n"},
	{"π", "pi"}, {"∞", "oo"},
}

// funcTokens are the names that form calls rather than products when
// directly followed by "(".
var funcTokens = map[string]bool{
	"sin": true, "cos": true, "tan": true,
	"cot": true, "sec": true, "csc": true,
	"asin": true, "acos": true, "atan": true,
	"arcsin": true, "arccos": true, "arctan": true,
	"sinh": true, "cosh": true, "tanh": true,
	"exp": true, "ln": true, "log": true,
	"sqrt": true, "cbrt": true, "abs": true,
}

// Canonicalize rewrites raw mathematical input into canonical form.
// Inputs containing "=" keep it, so whole equations pass through with
// both sides canonicalized. Fragments that cannot be resolved produce
// a *ParseError.
func Canonicalize(raw string) (string, error) {
	s := stripMathDelimiters(raw)
	if s == "" {
		return "", &ParseError{Fragment: raw, Reason: "empty expression"}
	}

	s = integralSignRe.ReplaceAllString(s, "")
	s = differentialRe.ReplaceAllString(s, "$1")

	s, err := reduceBraceGroups(s)
	if err != nil {
		return "", err
	}

	for _, r := range latexDelims {
		s = strings.ReplaceAll(s, r.from, r.to)
	}
	for _, r := range latexOperators {
		s = strings.ReplaceAll(s, r.from, r.to)
	}
	for _, r := range latexConstants {
		s = strings.ReplaceAll(s, r.from, r.to)
	}
	for _, r := range latexFunctions {
		s = strings.ReplaceAll(s, r.from, r.to)
	}
	// Whatever LaTeX command survives the named tables keeps its name
	// and loses the backslash.
	s = commandRe.ReplaceAllString(s, "$1")

	for _, r := range unicodeSymbols {
		s = strings.ReplaceAll(s, r.from, r.to)
	}
	s = radicalArgRe.ReplaceAllString(s, "sqrt($1)")
	s = strings.ReplaceAll(s, "√", "sqrt")
	s = cubeArgRe.ReplaceAllString(s, "($1)**(1/3)")
	s = strings.ReplaceAll(s, "∛", "cbrt")

	s = digitExpRe.ReplaceAllString(s, "**$1")
	s = strings.ReplaceAll(s, "^", "**")

	s = funcApplyRe.ReplaceAllString(s, "$1($2)")
	s = collapseSpaces(s)
	if err := checkResidue(s); err != nil {
		return "", err
	}
	s = insertMultiplication(s)
	if s == "" {
		return "", &ParseError{Fragment: raw, Reason: "no mathematical content"}
	}
	return s, nil
}

// stripMathDelimiters removes enclosing math-mode markers ($, $$,
// \[...\], \(...\)) and any stray dollar signs.
func stripMathDelimiters(raw string) string {
	s := strings.TrimSpace(raw)
	for {
		trimmed := s
		switch {
		case len(s) >= 4 && strings.HasPrefix(s, "$$") && strings.HasSuffix(s, "$$"):
			trimmed = s[2 : len(s)-2]
		case len(s) >= 2 && strings.HasPrefix(s, "$") && strings.HasSuffix(s, "$"):
			trimmed = s[1 : len(s)-1]
		case len(s) >= 4 && strings.HasPrefix(s, `\[`) && strings.HasSuffix(s, `\]`):
			trimmed = s[2 : len(s)-2]
		case len(s) >= 4 && strings.HasPrefix(s, `\(`) && strings.HasSuffix(s, `\)`):
			trimmed = s[2 : len(s)-2]
		}
		trimmed = strings.TrimSpace(trimmed)
		if trimmed == s {
			break
		}
		s = trimmed
	}
	return strings.ReplaceAll(s, "$", "")
}

// reduceBraceGroups applies the brace rewrites to a fixed point.
// Bodies may themselves contain fractions, so a single pass is not
// enough.
func reduceBraceGroups(s string) (string, error) {
	for i := 0; i < maxBracePasses; i++ {
		next := fracRe.ReplaceAllString(s, "($1)/($2)")
		next = rootIndexRe.ReplaceAllString(next, "($2)**(1/$1)")
		next = sqrtRe.ReplaceAllString(next, "sqrt($1)")
		next = braceExpRe.ReplaceAllString(next, "**($1)")
		if next == s {
			break
		}
		s = next
	}
	if i := strings.Index(s, `\frac`); i >= 0 {
		return "", &ParseError{Fragment: fragmentAround(s, i), Reason: `unresolved \frac group`}
	}
	return s, nil
}

// collapseSpaces removes whitespace. A space directly between two
// alphanumeric characters separated the tokens, so it becomes an
// explicit product instead of silently merging them.
func collapseSpaces(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i := 0; i < len(runes); i++ {
		if !unicode.IsSpace(runes[i]) {
			b.WriteRune(runes[i])
			continue
		}
		j := i
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		if i > 0 && j < len(runes) && isAlnum(runes[i-1]) && isAlnum(runes[j]) {
			b.WriteRune('*')
		}
		i = j - 1
	}
	return b.String()
}

// insertMultiplication makes implicit products explicit. Rules in
// precedence order: digit before a letter or "(", then letter, digit
// or ")" before "(". A function name directly before "(" is a call,
// not a product.
func insertMultiplication(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if i > 0 {
			prev := runes[i-1]
			switch {
			case isDigit(prev) && (isLetter(r) || r == '('):
				b.WriteRune('*')
			case r == '(' && (isLetter(prev) || prev == ')'):
				if !endsWithFunc(runes[:i]) {
					b.WriteRune('*')
				}
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

// endsWithFunc reports whether the prefix ends in a known function
// token.
func endsWithFunc(prefix []rune) bool {
	end := len(prefix)
	start := end
	for start > 0 && isLetter(prefix[start-1]) {
		start--
	}
	if start == end {
		return false
	}
	return funcTokens[strings.ToLower(string(prefix[start:end]))]
}

func checkResidue(s string) error {
	if i := strings.IndexAny(s, `\{}`); i >= 0 {
		return &ParseError{
			Fragment: fragmentAround(s, i),
			Reason:   fmt.Sprintf("unresolved %q", s[i:i+1]),
		}
	}
	return nil
}

func fragmentAround(s string, i int) string {
	start := i - 8
	if start < 0 {
		start = 0
	}
	end := i + 16
	if end > len(s) {
		end = len(s)
	}
	return s[start:end]
}

func isDigit(r rune) bool  { return r >= '0' && r <= '9' }
func isLetter(r rune) bool { return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' }
func isAlnum(r rune) bool  { return isDigit(r) || isLetter(r) }
