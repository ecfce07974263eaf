package cas

import (
	"fmt"
	"strings"
	"unicode"
)

// ParseError reports why an input string could not be read as an
// expression.
type ParseError struct {
	Input string
	Pos   int
	Msg   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %q: %s (position %d)", e.Input, e.Msg, e.Pos)
}

// Parse reads a canonical expression string ("2*x + 5", "x**2 - 9",
// "sin(x)/x") into an expression tree. Implicit multiplication between
// adjacent operands is accepted, so "2x" and "3(x+1)" parse as
// products. The result is simplified.
func Parse(input string) (Expr, error) {
	p := &parser{input: input, toks: lex(input)}
	if len(p.toks) == 1 {
		return nil, p.errorf(0, "empty expression")
	}
	e, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.typ != tokEOF {
		return nil, p.errorf(t.pos, "unexpected %q", t.text)
	}
	return e.Simplify(), nil
}

// MustParse is a test and fixture helper; it panics on bad input.
func MustParse(input string) Expr {
	e, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return e
}

type tokType int

const (
	tokEOF tokType = iota
	tokNum
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokBad
)

type token struct {
	typ  tokType
	text string
	pos  int
}

func lex(input string) []token {
	var toks []token
	runes := []rune(input)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r >= '0' && r <= '9' || r == '.':
			start := i
			for i < len(runes) && (runes[i] >= '0' && runes[i] <= '9' || runes[i] == '.') {
				i++
			}
			toks = append(toks, token{tokNum, string(runes[start:i]), start})
		case unicode.IsLetter(r):
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_') {
				i++
			}
			toks = append(toks, token{tokIdent, string(runes[start:i]), start})
		case r == '*':
			if i+1 < len(runes) && runes[i+1] == '*' {
				toks = append(toks, token{tokOp, "**", i})
				i += 2
			} else {
				toks = append(toks, token{tokOp, "*", i})
				i++
			}
		case r == '^':
			toks = append(toks, token{tokOp, "**", i})
			i++
		case r == '+' || r == '-' || r == '/':
			toks = append(toks, token{tokOp, string(r), i})
			i++
		case r == '(':
			toks = append(toks, token{tokLParen, "(", i})
			i++
		case r == ')':
			toks = append(toks, token{tokRParen, ")", i})
			i++
		default:
			toks = append(toks, token{tokBad, string(r), i})
			i++
		}
	}
	toks = append(toks, token{tokEOF, "", len(runes)})
	return toks
}

type parser struct {
	input string
	toks  []token
	pos   int
}

func (p *parser) peek() token { return p.toks[p.pos] }
func (p *parser) next() token { t := p.toks[p.pos]; p.pos++; return t }

func (p *parser) errorf(pos int, format string, args ...any) error {
	return &ParseError{Input: p.input, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) parseSum() (Expr, error) {
	left, err := p.parseProduct()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.typ != tokOp || (t.text != "+" && t.text != "-") {
			return left, nil
		}
		p.next()
		right, err := p.parseProduct()
		if err != nil {
			return nil, err
		}
		if t.text == "-" {
			right = Neg(right)
		}
		left = Sum(left, right)
	}
}

func (p *parser) parseProduct() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		switch {
		case t.typ == tokOp && (t.text == "*" || t.text == "/"):
			p.next()
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			if t.text == "/" {
				left = Div(left, right)
			} else {
				left = Prod(left, right)
			}
		case t.typ == tokNum || t.typ == tokIdent || t.typ == tokLParen:
			// Adjacent operands multiply: "2x", "3(x+1)", "x sin(x)".
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = Prod(left, right)
		default:
			return left, nil
		}
	}
}

func (p *parser) parseUnary() (Expr, error) {
	t := p.peek()
	if t.typ == tokOp && t.text == "-" {
		p.next()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Neg(inner), nil
	}
	if t.typ == tokOp && t.text == "+" {
		p.next()
		return p.parseUnary()
	}
	return p.parsePower()
}

func (p *parser) parsePower() (Expr, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	t := p.peek()
	if t.typ != tokOp || t.text != "**" {
		return base, nil
	}
	p.next()
	// Right associative; the exponent may carry its own unary sign.
	exp, err := p.parseExponent()
	if err != nil {
		return nil, err
	}
	if s, ok := base.(*Sym); ok && s.name == "e" {
		return Exp(exp), nil
	}
	return Power(base, exp), nil
}

func (p *parser) parseExponent() (Expr, error) {
	t := p.peek()
	if t.typ == tokOp && t.text == "-" {
		p.next()
		inner, err := p.parseExponent()
		if err != nil {
			return nil, err
		}
		return Neg(inner), nil
	}
	return p.parsePower()
}

// funcNames maps accepted function spellings to their canonical names.
var funcNames = map[string]string{
	"sin": "sin", "cos": "cos", "tan": "tan",
	"cot": "cot", "sec": "sec", "csc": "csc",
	"asin": "asin", "acos": "acos", "atan": "atan",
	"arcsin": "asin", "arccos": "acos", "arctan": "atan",
	"sinh": "sinh", "cosh": "cosh", "tanh": "tanh",
	"exp": "exp", "ln": "ln", "log": "ln",
	"abs": "abs", "sqrt": "sqrt", "cbrt": "cbrt",
}

func (p *parser) parsePrimary() (Expr, error) {
	t := p.next()
	switch t.typ {
	case tokNum:
		n, ok := ParseNum(t.text)
		if !ok {
			return nil, p.errorf(t.pos, "bad number %q", t.text)
		}
		return n, nil
	case tokIdent:
		name, isFunc := funcNames[strings.ToLower(t.text)]
		if isFunc && p.peek().typ == tokLParen {
			p.next()
			arg, err := p.parseSum()
			if err != nil {
				return nil, err
			}
			if closing := p.next(); closing.typ != tokRParen {
				return nil, p.errorf(closing.pos, "missing closing parenthesis for %s", name)
			}
			if name == "sqrt" {
				return Sqrt(arg), nil
			}
			if name == "cbrt" {
				return Power(arg, Frac(1, 3)), nil
			}
			return Apply(name, arg), nil
		}
		return Var(t.text), nil
	case tokLParen:
		inner, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.typ != tokRParen {
			return nil, p.errorf(closing.pos, "unbalanced parentheses")
		}
		return inner, nil
	case tokOp:
		return nil, p.errorf(t.pos, "unexpected operator %q", t.text)
	case tokRParen:
		return nil, p.errorf(t.pos, "unexpected closing parenthesis")
	case tokEOF:
		return nil, p.errorf(t.pos, "unexpected end of expression")
	}
	return nil, p.errorf(t.pos, "unexpected character %q", t.text)
}
