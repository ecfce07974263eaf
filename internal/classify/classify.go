// Package classify turns raw, possibly bilingual (English/Russian) problem
// text into a structured ParsedProblem: the detected problem type, the
// variables and equations present, the primary expression, and the
// computation target.
//
// Type detection is a fixed priority cascade over keyword signals. The
// cascade order is load-bearing: keyword sets overlap across types, so
// earlier rules win ties and reordering changes classifications.
package classify

import (
	"fmt"
	"strings"
	"sync"

	"github.com/stepmath/mathsteps/internal/cas"
)

// Type identifies the kind of math problem detected in the input text.
type Type string

const (
	TypeLinearEquation Type = "linear_equation"
	TypeQuadratic      Type = "quadratic"
	TypeSystem         Type = "system"
	TypeDerivative     Type = "derivative"
	TypeIntegral       Type = "integral"
	TypeLimit          Type = "limit"
	TypeSimplify       Type = "simplify"
	TypeFactor         Type = "factor"
	TypeExpand         Type = "expand"
	TypeMatrix         Type = "matrix"
	TypeOther          Type = "other"
)

// Domain values for ParsedProblem.Domain.
const (
	DomainAlgebra  = "algebra"
	DomainCalculus = "calculus"
)

// Target describes what must be computed for a problem. Fields are
// populated per type: equation types fill SolveFor, calculus types fill
// Variable (plus Order for derivatives, exact rational bounds for definite
// integrals, Point/Side for limits), matrix problems fill MatrixOp.
type Target struct {
	Find     string   `json:"find,omitempty"`
	SolveFor []string `json:"solve_for,omitempty"`
	Variable string   `json:"variable,omitempty"`
	Order    int      `json:"order,omitempty"`
	Definite bool     `json:"definite,omitempty"`
	Lower    string   `json:"lower,omitempty"`
	Upper    string   `json:"upper,omitempty"`
	Point    string   `json:"point,omitempty"`
	Side     string   `json:"side,omitempty"`
	MatrixOp string   `json:"matrix_operation,omitempty"`
}

// ParsedProblem is the classifier's structured view of one problem text.
type ParsedProblem struct {
	Type       Type     `json:"problem_type"`
	Variables  []string `json:"variables"`
	Equations  []string `json:"equations"`
	Expression string   `json:"expression"`
	Target     Target   `json:"target"`
	Domain     string   `json:"domain"`
	Confidence float64  `json:"confidence"`
}

// Classifier detects problem types and extracts structure from free text.
// Results are memoized on the trimmed input. Cached entries are shared
// between callers and must be treated as read-only. Safe for concurrent
// use.
type Classifier struct {
	mu    sync.RWMutex
	cache map[string]*ParsedProblem
}

// New returns a Classifier with an empty memo cache.
func New() *Classifier {
	return &Classifier{cache: make(map[string]*ParsedProblem)}
}

// Classify parses raw problem text. It returns an error only for blank
// input. Ambiguous text is not an error: it comes back as TypeOther with
// confidence 0.5.
func (c *Classifier) Classify(text string) (*ParsedProblem, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("classify: empty problem text")
	}

	c.mu.RLock()
	cached, ok := c.cache[text]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}

	parsed := parse(text)

	c.mu.Lock()
	c.cache[text] = parsed
	c.mu.Unlock()

	return parsed, nil
}

func parse(text string) *ParsedProblem {
	lower := strings.ToLower(text)

	typ, typeConf := detectType(lower)
	vars := extractVariables(lower)
	target := buildTarget(typ, lower, vars)

	// Once bounds or an approach point have been captured into the
	// target, drop the phrase from the working text so its numbers do
	// not leak into the extracted expression.
	working := text
	switch typ {
	case TypeIntegral:
		if target.Definite {
			working = boundsPattern.ReplaceAllString(working, " ")
		}
	case TypeLimit:
		working = approachPhrase.ReplaceAllString(working, " ")
	case TypeDerivative:
		working = leibnizPattern.ReplaceAllString(working, " ")
	}

	equations, expression := extractEquations(working, typ)
	expression = CleanExpression(expression)

	if typ == TypeMatrix {
		if lit := matrixLiteral.FindString(text); lit != "" {
			expression = lit
		}
	}

	return &ParsedProblem{
		Type:       typ,
		Variables:  vars,
		Equations:  equations,
		Expression: expression,
		Target:     target,
		Domain:     domainFor(typ),
		Confidence: confidence(typ, typeConf, equations, expression),
	}
}

// detectType runs the priority cascade. First match wins.
func detectType(text string) (Type, float64) {
	if matchesSignal(text, sigIntegral) {
		if matchesSignal(text, sigDefinite) {
			return TypeIntegral, 0.95
		}
		return TypeIntegral, 0.90
	}
	if matchesSignal(text, sigDerivative) {
		return TypeDerivative, 0.95
	}
	if matchesSignal(text, sigLimit) {
		return TypeLimit, 0.95
	}
	if matchesSignal(text, sigSystem) && strings.Count(text, "=") >= 2 {
		return TypeSystem, 0.90
	}
	if matchesSignal(text, sigMatrix) || strings.Contains(text, "[[") {
		return TypeMatrix, 0.90
	}
	if quadraticPattern.MatchString(text) || matchesSignal(text, sigQuadratic) {
		if strings.Contains(text, "=") {
			return TypeQuadratic, 0.95
		}
	}
	if matchesSignal(text, sigSolve) && strings.Contains(text, "=") {
		return TypeLinearEquation, 0.90
	}
	if matchesSignal(text, sigSimplify) {
		return TypeSimplify, 0.90
	}
	if matchesSignal(text, sigFactor) {
		return TypeFactor, 0.90
	}
	if matchesSignal(text, sigExpand) {
		return TypeExpand, 0.90
	}
	if strings.Contains(text, "=") {
		return TypeLinearEquation, 0.70
	}
	return TypeOther, 0.50
}

func buildTarget(typ Type, lower string, vars []string) Target {
	switch typ {
	case TypeLinearEquation, TypeQuadratic, TypeSystem:
		solveFor := vars
		if len(solveFor) == 0 {
			solveFor = []string{"x"}
		}
		return Target{SolveFor: solveFor}

	case TypeDerivative:
		return Target{Find: "derivative", Variable: firstVar(vars), Order: 1}

	case TypeIntegral:
		t := Target{Find: "integral", Variable: firstVar(vars)}
		if m := boundsPattern.FindStringSubmatch(lower); m != nil {
			lo, okLo := cas.ParseNum(m[1])
			hi, okHi := cas.ParseNum(m[2])
			if okLo && okHi {
				t.Definite = true
				t.Lower = lo.String()
				t.Upper = hi.String()
			}
		}
		return t

	case TypeLimit:
		point := "0"
		if m := pointPattern.FindStringSubmatch(lower); m != nil {
			point = mathReplacer.Replace(m[1])
		}
		return Target{Find: "limit", Variable: firstVar(vars), Point: point, Side: "+"}

	case TypeSimplify:
		return Target{Find: "simplification"}
	case TypeFactor:
		return Target{Find: "factorization"}
	case TypeExpand:
		return Target{Find: "expansion"}
	case TypeMatrix:
		return Target{Find: "matrix", MatrixOp: detectMatrixOp(lower)}
	}
	return Target{}
}

func firstVar(vars []string) string {
	if len(vars) > 0 {
		return vars[0]
	}
	return "x"
}

func domainFor(typ Type) string {
	switch typ {
	case TypeDerivative, TypeIntegral, TypeLimit:
		return DomainCalculus
	}
	return DomainAlgebra
}

// confidence adds corroborating-signal bonuses to the cascade confidence:
// +0.10 when an equation was found, +0.05 when the expression is longer
// than two characters, capped at 1.0. TypeOther never earns bonuses; an
// ambiguous classification must stay at or below 0.5.
func confidence(typ Type, typeConf float64, equations []string, expression string) float64 {
	if typ == TypeOther {
		return typeConf
	}
	conf := typeConf
	if len(equations) > 0 {
		conf += 0.10
	}
	if len(expression) > 2 {
		conf += 0.05
	}
	if conf > 1.0 {
		conf = 1.0
	}
	return conf
}
