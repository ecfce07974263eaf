package classify

import "strings"

// lang identifies an input language in the keyword tables.
type lang string

const (
	langEN lang = "en"
	langRU lang = "ru"
)

// Detection signals. Each one names a row in signalKeywords.
const (
	sigIntegral   = "integral"
	sigDefinite   = "definite"
	sigDerivative = "derivative"
	sigLimit      = "limit"
	sigSystem     = "system"
	sigMatrix     = "matrix"
	sigQuadratic  = "quadratic"
	sigSolve      = "solve"
	sigSimplify   = "simplify"
	sigFactor     = "factor"
	sigExpand     = "expand"
)

// signalKeywords maps each detection signal to per-language keyword sets.
// Matching is plain substring containment over lowercased input, so the
// Russian entries are stems (производн matches производная, производную,
// and производной).
var signalKeywords = map[string]map[lang][]string{
	sigIntegral: {
		langEN: {"integral", "int "},
		langRU: {"интеграл"},
	},
	sigDefinite: {
		langEN: {"definite", "from "},
		langRU: {"определён", "от "},
	},
	sigDerivative: {
		langEN: {"derivative", "d/dx", "d/dy", "d/d"},
		langRU: {"производн"},
	},
	sigLimit: {
		langEN: {"limit", "lim "},
		langRU: {"предел"},
	},
	sigSystem: {
		langEN: {"system"},
		langRU: {"систем"},
	},
	sigMatrix: {
		langEN: {"matrix", "determinant", "det(", "inverse of [[", "transpose", "rref"},
		langRU: {"матриц", "определитель"},
	},
	sigQuadratic: {
		langEN: {"quadratic"},
		langRU: {"квадратн"},
	},
	sigSolve: {
		langEN: {"solve"},
		langRU: {"реши", "найди x", "найди y"},
	},
	sigSimplify: {
		langEN: {"simplify"},
		langRU: {"упрости"},
	},
	sigFactor: {
		langEN: {"factor"},
		langRU: {"разложи"},
	},
	sigExpand: {
		langEN: {"expand"},
		langRU: {"раскрой"},
	},
}

// matchesSignal reports whether text contains any keyword registered for
// the signal, in any language. Text must already be lowercased.
func matchesSignal(text, signal string) bool {
	for _, kws := range signalKeywords[signal] {
		for _, kw := range kws {
			if strings.Contains(text, kw) {
				return true
			}
		}
	}
	return false
}

// matrixOpKeywords maps a matrix operation name to its keyword sets.
// Checked in matrixOpOrder; the first hit wins, defaulting to determinant.
var matrixOpKeywords = map[string]map[lang][]string{
	"determinant": {
		langEN: {"determinant", "det("},
		langRU: {"определитель"},
	},
	"inverse": {
		langEN: {"inverse", "invert"},
		langRU: {"обратн"},
	},
	"transpose": {
		langEN: {"transpose"},
		langRU: {"транспонир"},
	},
	"rref": {
		langEN: {"rref", "row reduce", "row echelon"},
		langRU: {"ступенчат"},
	},
	"multiply": {
		langEN: {"multiply", "product of"},
		langRU: {"умнож", "произведение"},
	},
}

var matrixOpOrder = []string{"determinant", "inverse", "transpose", "rref", "multiply"}

// detectMatrixOp picks the requested matrix operation from lowercased
// text, defaulting to determinant when no keyword appears.
func detectMatrixOp(text string) string {
	for _, op := range matrixOpOrder {
		for _, kws := range matrixOpKeywords[op] {
			for _, kw := range kws {
				if strings.Contains(text, kw) {
					return op
				}
			}
		}
	}
	return "determinant"
}

// stopWords lists prose words stripped from equation sides and standalone
// expressions before symbolic parsing.
var stopWords = map[lang][]string{
	langEN: {
		"solve", "find", "calculate", "compute", "evaluate", "simplify",
		"factor", "expand", "the", "of", "for", "given", "where", "when", "if",
		"derivative", "integral", "limit", "with", "respect", "to",
		"equation", "equations", "system",
	},
	langRU: {
		"реши", "решите", "найди", "найдите", "вычисли", "вычислите",
		"определи", "упрости", "разложи", "раскрой",
		"уравнение", "уравнения", "выражение", "функции", "функцию",
		"для", "при", "от", "до",
		"производная", "производную", "производной", "интеграл", "интеграла",
		"предел", "предела", "относительно", "переменной",
		"система", "систему", "системы", "систем",
	},
}

var stopWordSet = func() map[string]struct{} {
	set := make(map[string]struct{})
	for _, words := range stopWords {
		for _, w := range words {
			set[w] = struct{}{}
		}
	}
	return set
}()

// mathReplacer translates Unicode math symbols to their ASCII spellings.
var mathReplacer = strings.NewReplacer(
	"×", "*", "÷", "/", "·", "*", "−", "-",
	"²", "**2", "³", "**3", "ⁿ", "**n",
	"√", "sqrt", "∛", "cbrt",
	"π", "pi", "∞", "oo",
)
