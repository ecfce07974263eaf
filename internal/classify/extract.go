package classify

import (
	"regexp"
	"strings"
)

var (
	eqPattern        = regexp.MustCompile(`([^=\n]+)\s*=\s*([^=\n]+)`)
	fragmentSplit    = regexp.MustCompile(`[,;\n]`)
	quadraticPattern = regexp.MustCompile(`x\^2|x\*\*2|\bx2\b`)
	boundsPattern    = regexp.MustCompile(`(?i)(?:от|from)\s*([-\d.]+)\s*(?:до|to)\s*([-\d.]+)`)
	pointPattern     = regexp.MustCompile(`(?:→|->|to|approaches?)\s*([^\s,]+)`)
	// approachPhrase matches the whole "as x approaches 0" / "при x→∞"
	// span so it can be dropped from the text once the point is captured.
	// No \b before the при alternative: Go's \b is ASCII-only and never
	// matches adjacent to Cyrillic letters.
	approachPhrase = regexp.MustCompile(`(?i)(?:(?:as|при|when)\s+)?\b[a-z]\s*(?:→|->|to\s|approaches?)\s*[^\s,]+`)
	leibnizPattern = regexp.MustCompile(`(?i)\bd/d[a-z]\b`)
	matrixLiteral  = regexp.MustCompile(`\[\[.*\]\]`)

	numExpPattern = regexp.MustCompile(`(\d+)\s*\^(\d+)`)
	symExpPattern = regexp.MustCompile(`(\w)\s*\^(\d+)`)
	opSpacing     = regexp.MustCompile(`\s*([*/+\-])\s*`)
	openSpacing   = regexp.MustCompile(`\s*\(\s*`)
	closeSpacing  = regexp.MustCompile(`\s*\)\s*`)
	leadingJunk   = regexp.MustCompile(`^[^\p{L}\p{N}_*+/()-]+`)
	trailingJunk  = regexp.MustCompile(`[^\p{L}\p{N}_*+/()-]+$`)

	implicitNumMul = regexp.MustCompile(`(\d)([a-zA-Z(])`)
	trailingDiff   = regexp.MustCompile(`\s*d[a-z]\s*$`)
)

// variableLetters is the recognized single-letter variable set, in
// preference order: the first letter found becomes the default target
// variable.
const variableLetters = "xyzabctuvw"

var varPatterns = func() []*regexp.Regexp {
	ps := make([]*regexp.Regexp, len(variableLetters))
	for i := 0; i < len(variableLetters); i++ {
		ps[i] = regexp.MustCompile(`\b` + string(variableLetters[i]) + `\b`)
	}
	return ps
}()

var findVarPatterns = func() map[string]*regexp.Regexp {
	ps := make(map[string]*regexp.Regexp, 3)
	for _, v := range []string{"x", "y", "z"} {
		ps[v] = regexp.MustCompile(`(?:find|solve|для|for)\s+(?:the\s+)?` + v + `\b`)
	}
	return ps
}()

// extractVariables scans lowercased text for word-boundary occurrences of
// the recognized variable letters, plus explicit "find x" / "для x"
// phrasing. Order of the result follows variableLetters, not appearance.
func extractVariables(lower string) []string {
	seen := make(map[string]bool)
	var vars []string
	for i := 0; i < len(variableLetters); i++ {
		v := string(variableLetters[i])
		if varPatterns[i].MatchString(lower) {
			seen[v] = true
			vars = append(vars, v)
		}
	}
	for _, v := range []string{"x", "y", "z"} {
		if !seen[v] && findVarPatterns[v].MatchString(lower) {
			seen[v] = true
			vars = append(vars, v)
		}
	}
	return vars
}

// extractEquations finds all "lhs = rhs" spans and cleans each side. The
// primary expression is the first equation's left side, or the cleaned
// whole text when no equation is present. System problems rescan
// comma/semicolon/newline fragments so every member equation survives on
// its own.
func extractEquations(text string, typ Type) ([]string, string) {
	var equations []string

	scan := func(s string) {
		for _, m := range eqPattern.FindAllStringSubmatch(s, -1) {
			lhs := extractMathContent(strings.TrimSpace(m[1]))
			rhs := extractMathContent(strings.TrimSpace(m[2]))
			if lhs != "" && rhs != "" {
				equations = append(equations, lhs+" = "+rhs)
			}
		}
	}

	if typ == TypeSystem {
		for _, frag := range fragmentSplit.Split(text, -1) {
			scan(frag)
		}
	} else {
		scan(text)
	}

	if len(equations) == 0 {
		return nil, extractMathContent(text)
	}
	lhs, _, _ := strings.Cut(equations[0], "=")
	return equations, strings.TrimSpace(lhs)
}

// extractMathContent strips prose stop words in both languages, translates
// Unicode math symbols, normalizes ^ to **, and trims non-mathematical
// edge characters.
func extractMathContent(text string) string {
	var kept []string
	for _, word := range strings.Fields(text) {
		clean := strings.ToLower(strings.TrimRight(word, ".,;:!?"))
		if _, stop := stopWordSet[clean]; !stop {
			kept = append(kept, word)
		}
	}
	result := strings.Join(kept, " ")

	result = mathReplacer.Replace(result)
	result = numExpPattern.ReplaceAllString(result, "$1**$2")
	result = symExpPattern.ReplaceAllString(result, "$1**$2")
	result = opSpacing.ReplaceAllString(result, "$1")
	result = openSpacing.ReplaceAllString(result, "(")
	result = closeSpacing.ReplaceAllString(result, ")")
	result = leadingJunk.ReplaceAllString(result, "")
	result = trailingJunk.ReplaceAllString(result, "")
	return result
}

// CleanExpression prepares an extracted expression for the symbolic
// parser: explicit multiplication for 2x and x(x+1) forms, and removal of
// a trailing differential (dx, dt) left over from integral phrasing. The
// solver applies it to equation sides before handing them to the backend.
func CleanExpression(expr string) string {
	if expr == "" {
		return ""
	}
	expr = implicitNumMul.ReplaceAllString(expr, "$1*$2")
	expr = insertParenMul(expr)
	expr = trailingDiff.ReplaceAllString(expr, "")
	return strings.TrimSpace(expr)
}

// funcTokens are function names that must not have * inserted between the
// name and its argument list.
var funcTokens = map[string]bool{
	"sin": true, "cos": true, "tan": true, "cot": true, "sec": true, "csc": true,
	"asin": true, "acos": true, "atan": true,
	"log": true, "ln": true, "exp": true,
	"sqrt": true, "cbrt": true, "abs": true,
}

// insertParenMul makes products like x(x+1) and (x+1)(x-1) explicit while
// leaving function applications such as sin(x) alone.
func insertParenMul(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if i > 0 && r == '(' {
			prev := runes[i-1]
			if prev == ')' || isIdentRune(prev) {
				if !endsWithFunc(runes[:i]) {
					b.WriteRune('*')
				}
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isIdentRune(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
}

func endsWithFunc(prefix []rune) bool {
	end := len(prefix)
	start := end
	for start > 0 && isLetterRune(prefix[start-1]) {
		start--
	}
	if start == end {
		return false
	}
	return funcTokens[strings.ToLower(string(prefix[start:end]))]
}

func isLetterRune(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'
}
