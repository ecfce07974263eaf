// Package cas implements the symbolic computation backend: exact
// rational arithmetic over expression trees, differentiation,
// rule-based integration, polynomial solving, and matrices.
//
// Numbers are big.Rat throughout. Nothing in this package folds a
// symbolic value to a float; callers that need numeric estimates use
// the probe helpers, which never feed back into displayed results.
package cas

import (
	"math/big"
	"sort"
	"strings"
)

// Expr is a node in an immutable expression tree. Simplify returns a
// normalized equivalent tree and never mutates the receiver.
type Expr interface {
	Simplify() Expr
	Subst(name string, value Expr) Expr
	Deriv(name string) Expr
	Rat() (*big.Rat, bool)
	Equal(other Expr) bool
	String() string
	LaTeX() string
	kind() string
}

// ============================================================
// Num — exact rational constant
// ============================================================

type Num struct{ val *big.Rat }

func Int(n int64) *Num     { return &Num{val: new(big.Rat).SetInt64(n)} }
func Frac(p, q int64) *Num { return &Num{val: big.NewRat(p, q)} }

// FromRat copies r into a Num.
func FromRat(r *big.Rat) *Num { return &Num{val: new(big.Rat).Set(r)} }

// ParseNum converts an integer or decimal literal to an exact rational.
func ParseNum(s string) (*Num, bool) {
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, false
	}
	return &Num{val: r}, true
}

func (n *Num) Simplify() Expr           { return n }
func (n *Num) Subst(string, Expr) Expr  { return n }
func (n *Num) Deriv(string) Expr        { return Int(0) }
func (n *Num) Rat() (*big.Rat, bool)    { return new(big.Rat).Set(n.val), true }
func (n *Num) Equal(other Expr) bool    { o, ok := other.(*Num); return ok && n.val.Cmp(o.val) == 0 }
func (n *Num) kind() string             { return "num" }
func (n *Num) IsZero() bool             { return n.val.Sign() == 0 }
func (n *Num) IsOne() bool              { return n.val.Cmp(ratOne) == 0 }
func (n *Num) IsNegOne() bool           { return n.val.Cmp(ratNegOne) == 0 }
func (n *Num) IsInteger() bool          { return n.val.IsInt() }
func (n *Num) IsNegative() bool         { return n.val.Sign() < 0 }
func (n *Num) IsPositive() bool         { return n.val.Sign() > 0 }
func (n *Num) String() string           { return n.val.RatString() }

func (n *Num) LaTeX() string {
	if n.val.IsInt() {
		return n.val.RatString()
	}
	num := n.val.Num()
	den := n.val.Denom()
	if num.Sign() < 0 {
		return "-\\frac{" + new(big.Int).Neg(num).String() + "}{" + den.String() + "}"
	}
	return "\\frac{" + num.String() + "}{" + den.String() + "}"
}

var (
	ratOne    = new(big.Rat).SetInt64(1)
	ratNegOne = new(big.Rat).SetInt64(-1)
)

func numAdd(a, b *Num) *Num { return &Num{val: new(big.Rat).Add(a.val, b.val)} }
func numSub(a, b *Num) *Num { return &Num{val: new(big.Rat).Sub(a.val, b.val)} }
func numMul(a, b *Num) *Num { return &Num{val: new(big.Rat).Mul(a.val, b.val)} }
func numNeg(a *Num) *Num    { return &Num{val: new(big.Rat).Neg(a.val)} }

func numRecip(a *Num) *Num {
	if a.IsZero() {
		panic("cas: reciprocal of zero")
	}
	return &Num{val: new(big.Rat).Inv(a.val)}
}

func numDiv(a, b *Num) *Num { return numMul(a, numRecip(b)) }

// intPow raises r to an integer power exactly.
func intPow(r *big.Rat, e int64) *big.Rat {
	neg := e < 0
	if neg {
		e = -e
	}
	exp := big.NewInt(e)
	num := new(big.Int).Exp(r.Num(), exp, nil)
	den := new(big.Int).Exp(r.Denom(), exp, nil)
	out := new(big.Rat).SetFrac(num, den)
	if neg {
		out.Inv(out)
	}
	return out
}

// sqrtSquareFree factors the largest perfect square out of a positive
// integer radicand, so sqrt(8) becomes 2*sqrt(2). ok is false when no
// square factor above 1 exists or the value is out of range.
func sqrtSquareFree(r *big.Rat) (outside, inside *big.Rat, ok bool) {
	if !r.IsInt() || r.Sign() <= 0 || !r.Num().IsInt64() {
		return nil, nil, false
	}
	n := r.Num().Int64()
	if n > 1<<40 {
		return nil, nil, false
	}
	best := int64(1)
	for k := int64(2); k*k <= n; k++ {
		if n%(k*k) == 0 {
			best = k
		}
	}
	if best == 1 {
		return nil, nil, false
	}
	return new(big.Rat).SetInt64(best), new(big.Rat).SetInt64(n / (best * best)), true
}

// ratSqrt returns the exact square root of r when both numerator and
// denominator are perfect squares.
func ratSqrt(r *big.Rat) (*big.Rat, bool) {
	if r.Sign() < 0 {
		return nil, false
	}
	sn := new(big.Int).Sqrt(r.Num())
	sd := new(big.Int).Sqrt(r.Denom())
	if new(big.Int).Mul(sn, sn).Cmp(r.Num()) != 0 {
		return nil, false
	}
	if new(big.Int).Mul(sd, sd).Cmp(r.Denom()) != 0 {
		return nil, false
	}
	return new(big.Rat).SetFrac(sn, sd), true
}

// ============================================================
// Sym — named symbol
// ============================================================

type Sym struct{ name string }

func Var(name string) *Sym { return &Sym{name: name} }

func (s *Sym) Simplify() Expr        { return s }
func (s *Sym) Rat() (*big.Rat, bool) { return nil, false }
func (s *Sym) Equal(other Expr) bool { o, ok := other.(*Sym); return ok && s.name == o.name }
func (s *Sym) kind() string          { return "sym" }
func (s *Sym) Name() string          { return s.name }
func (s *Sym) String() string        { return s.name }

func (s *Sym) LaTeX() string {
	switch s.name {
	case "pi":
		return "\\pi"
	case "oo":
		return "\\infty"
	case "theta":
		return "\\theta"
	case "alpha":
		return "\\alpha"
	case "beta":
		return "\\beta"
	}
	return s.name
}

func (s *Sym) Subst(name string, value Expr) Expr {
	if s.name == name {
		return value
	}
	return s
}

func (s *Sym) Deriv(name string) Expr {
	if s.name == name {
		return Int(1)
	}
	return Int(0)
}

// ============================================================
// Add — sum of terms; Simplify flattens, combines like terms,
// and folds constants.
// ============================================================

type Add struct{ terms []Expr }

func Sum(terms ...Expr) Expr { return (&Add{terms: terms}).Simplify() }

func (a *Add) Simplify() Expr {
	flat := make([]Expr, 0, len(a.terms))
	for _, t := range a.terms {
		s := t.Simplify()
		if inner, ok := s.(*Add); ok {
			flat = append(flat, inner.terms...)
		} else {
			flat = append(flat, s)
		}
	}

	constant := Int(0)
	type group struct {
		coeff *Num
		rest  Expr
	}
	order := []string{}
	groups := map[string]*group{}
	for _, t := range flat {
		if n, ok := t.(*Num); ok {
			constant = numAdd(constant, n)
			continue
		}
		coeff, rest := splitCoeff(t)
		key := rest.String()
		g, seen := groups[key]
		if !seen {
			g = &group{coeff: Int(0), rest: rest}
			groups[key] = g
			order = append(order, key)
		}
		g.coeff = numAdd(g.coeff, coeff)
	}

	result := make([]Expr, 0, len(order)+1)
	for _, key := range order {
		g := groups[key]
		switch {
		case g.coeff.IsZero():
		case g.coeff.IsOne():
			result = append(result, g.rest)
		default:
			result = append(result, Prod(g.coeff, g.rest))
		}
	}
	if !constant.IsZero() {
		result = append(result, constant)
	}

	switch len(result) {
	case 0:
		return Int(0)
	case 1:
		return result[0]
	}
	return &Add{terms: result}
}

func (a *Add) Subst(name string, value Expr) Expr {
	out := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		out[i] = t.Subst(name, value)
	}
	return Sum(out...)
}

func (a *Add) Deriv(name string) Expr {
	out := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		out[i] = t.Deriv(name)
	}
	return Sum(out...)
}

func (a *Add) Rat() (*big.Rat, bool) {
	acc := new(big.Rat)
	for _, t := range a.terms {
		v, ok := t.Rat()
		if !ok {
			return nil, false
		}
		acc.Add(acc, v)
	}
	return acc, true
}

func (a *Add) Equal(other Expr) bool {
	o, ok := other.(*Add)
	if !ok || len(a.terms) != len(o.terms) {
		return false
	}
	for i := range a.terms {
		if !a.terms[i].Equal(o.terms[i]) {
			return false
		}
	}
	return true
}

func (a *Add) kind() string  { return "add" }
func (a *Add) Terms() []Expr { return a.terms }

func (a *Add) String() string { return joinSigned(a.terms, exprString) }
func (a *Add) LaTeX() string  { return joinSigned(a.terms, exprLaTeX) }

// joinSigned renders a term list as "a + b - c", absorbing leading
// negative coefficients into the separator.
func joinSigned(terms []Expr, render func(Expr) string) string {
	if len(terms) == 0 {
		return "0"
	}
	var b strings.Builder
	for i, t := range terms {
		neg, abs := splitSign(t)
		if i == 0 {
			if neg {
				b.WriteString("-")
			}
		} else if neg {
			b.WriteString(" - ")
		} else {
			b.WriteString(" + ")
		}
		b.WriteString(render(abs))
	}
	return b.String()
}

// splitSign pulls a leading minus out of a term for display.
func splitSign(e Expr) (neg bool, abs Expr) {
	switch v := e.(type) {
	case *Num:
		if v.IsNegative() {
			return true, numNeg(v)
		}
	case *Mul:
		if len(v.factors) > 0 {
			if c, ok := v.factors[0].(*Num); ok && c.IsNegative() {
				rest := append([]Expr{numNeg(c)}, v.factors[1:]...)
				return true, (&Mul{factors: rest}).Simplify()
			}
		}
	}
	return false, e
}

func exprString(e Expr) string { return e.String() }
func exprLaTeX(e Expr) string  { return e.LaTeX() }

// ============================================================
// Mul — product of factors; Simplify flattens, folds constants,
// merges same-base powers, and sorts factors canonically.
// ============================================================

type Mul struct{ factors []Expr }

func Prod(factors ...Expr) Expr { return (&Mul{factors: factors}).Simplify() }

func (m *Mul) Simplify() Expr {
	flat := make([]Expr, 0, len(m.factors))
	for _, f := range m.factors {
		s := f.Simplify()
		if inner, ok := s.(*Mul); ok {
			flat = append(flat, inner.factors...)
		} else {
			flat = append(flat, s)
		}
	}

	coeff := Int(1)
	type group struct {
		base Expr
		exps []Expr
	}
	order := []string{}
	groups := map[string]*group{}
	for _, f := range flat {
		if n, ok := f.(*Num); ok {
			coeff = numMul(coeff, n)
			continue
		}
		base, exp := f, Expr(Int(1))
		if p, ok := f.(*Pow); ok {
			base, exp = p.base, p.exp
		}
		key := base.String()
		g, seen := groups[key]
		if !seen {
			g = &group{base: base}
			groups[key] = g
			order = append(order, key)
		}
		g.exps = append(g.exps, exp)
	}
	if coeff.IsZero() {
		return Int(0)
	}

	others := make([]Expr, 0, len(order))
	for _, key := range order {
		g := groups[key]
		var merged Expr
		if len(g.exps) == 1 {
			merged = g.exps[0]
		} else {
			merged = Sum(g.exps...)
		}
		f := Power(g.base, merged)
		if n, ok := f.(*Num); ok {
			coeff = numMul(coeff, n)
			continue
		}
		others = append(others, f)
	}
	if coeff.IsZero() {
		return Int(0)
	}
	if len(others) == 0 {
		return coeff
	}

	sort.SliceStable(others, func(i, j int) bool {
		return factorSortKey(others[i]) < factorSortKey(others[j])
	})

	if coeff.IsOne() {
		if len(others) == 1 {
			return others[0]
		}
		return &Mul{factors: others}
	}
	return &Mul{factors: append([]Expr{coeff}, others...)}
}

// factorSortKey orders symbols before function applications so that
// products print as 2*x*sin(x) rather than 2*sin(x)*x.
func factorSortKey(e Expr) string {
	base := e
	if p, ok := e.(*Pow); ok {
		base = p.base
	}
	prefix := "1"
	if _, ok := base.(*Fn); ok {
		prefix = "2"
	}
	if _, ok := base.(*Add); ok {
		prefix = "3"
	}
	return prefix + e.String()
}

func (m *Mul) Subst(name string, value Expr) Expr {
	out := make([]Expr, len(m.factors))
	for i, f := range m.factors {
		out[i] = f.Subst(name, value)
	}
	return Prod(out...)
}

// Deriv applies the product rule across all factors.
func (m *Mul) Deriv(name string) Expr {
	terms := make([]Expr, len(m.factors))
	for i, fi := range m.factors {
		dfi := fi.Deriv(name)
		rest := make([]Expr, 0, len(m.factors))
		rest = append(rest, dfi)
		for j, fj := range m.factors {
			if j != i {
				rest = append(rest, fj)
			}
		}
		terms[i] = Prod(rest...)
	}
	return Sum(terms...)
}

func (m *Mul) Rat() (*big.Rat, bool) {
	acc := new(big.Rat).SetInt64(1)
	for _, f := range m.factors {
		v, ok := f.Rat()
		if !ok {
			return nil, false
		}
		acc.Mul(acc, v)
	}
	return acc, true
}

func (m *Mul) Equal(other Expr) bool {
	o, ok := other.(*Mul)
	if !ok || len(m.factors) != len(o.factors) {
		return false
	}
	for i := range m.factors {
		if !m.factors[i].Equal(o.factors[i]) {
			return false
		}
	}
	return true
}

func (m *Mul) kind() string    { return "mul" }
func (m *Mul) Factors() []Expr { return m.factors }

func (m *Mul) String() string {
	num, den := quotientParts(m.factors)
	prefix, num := stripNegOne(num)
	out := prefix + renderProduct(num, exprString, "*", parenthesizeString)
	if den != nil {
		d := exprString(den)
		if needsParens(den) {
			d = "(" + d + ")"
		}
		out += "/" + d
	}
	return out
}

func (m *Mul) LaTeX() string {
	num, den := quotientParts(m.factors)
	prefix := ""
	// A fractional coefficient moves its denominator under the bar, so
	// (1/2)*x renders as x over 2.
	if len(num) > 0 {
		if c, ok := num[0].(*Num); ok {
			r := new(big.Rat).Set(c.val)
			if r.Sign() < 0 {
				prefix = "-"
				r.Neg(r)
			}
			rest := num[1:]
			num = nil
			if r.Num().Cmp(bigOne) != 0 || len(rest) == 0 {
				num = append(num, FromRat(new(big.Rat).SetInt(r.Num())))
			}
			num = append(num, rest...)
			if r.Denom().Cmp(bigOne) != 0 {
				q := Expr(FromRat(new(big.Rat).SetInt(r.Denom())))
				if den == nil {
					den = q
				} else {
					den = &Mul{factors: []Expr{q, den}}
				}
			}
		}
	}
	body := renderProduct(num, exprLaTeX, " ", parenthesizeLaTeX)
	if den != nil {
		return prefix + "\\frac{" + body + "}{" + den.LaTeX() + "}"
	}
	return prefix + body
}

var bigOne = big.NewInt(1)

// stripNegOne turns a leading -1 factor into a bare minus sign so a
// product prints as -x rather than -1*x.
func stripNegOne(factors []Expr) (string, []Expr) {
	if len(factors) > 1 {
		if c, ok := factors[0].(*Num); ok && c.IsNegOne() {
			return "-", factors[1:]
		}
	}
	return "", factors
}

// quotientParts splits factors into numerator factors and a combined
// denominator built from negative-exponent powers. A nil denominator
// means the product has no division.
func quotientParts(factors []Expr) (num []Expr, den Expr) {
	var denFactors []Expr
	for _, f := range factors {
		if p, ok := f.(*Pow); ok {
			if e, ok2 := p.exp.(*Num); ok2 && e.IsNegative() {
				if e.IsNegOne() {
					denFactors = append(denFactors, p.base)
				} else {
					denFactors = append(denFactors, &Pow{base: p.base, exp: numNeg(e)})
				}
				continue
			}
		}
		num = append(num, f)
	}
	if len(denFactors) == 0 {
		return factors, nil
	}
	if len(denFactors) == 1 {
		return num, denFactors[0]
	}
	return num, &Mul{factors: denFactors}
}

func renderProduct(factors []Expr, render func(Expr) string, sep string, wrap func(Expr, string) string) string {
	if len(factors) == 0 {
		return "1"
	}
	parts := make([]string, len(factors))
	for i, f := range factors {
		parts[i] = wrap(f, render(f))
	}
	return strings.Join(parts, sep)
}

func needsParens(e Expr) bool {
	switch e.(type) {
	case *Add, *Mul:
		return true
	}
	return false
}

func parenthesizeString(e Expr, s string) string {
	if _, ok := e.(*Add); ok {
		return "(" + s + ")"
	}
	return s
}

func parenthesizeLaTeX(e Expr, s string) string {
	if _, ok := e.(*Add); ok {
		return "\\left(" + s + "\\right)"
	}
	return s
}

// ============================================================
// Pow — base raised to an exponent
// ============================================================

type Pow struct{ base, exp Expr }

func Power(base, exp Expr) Expr { return (&Pow{base: base, exp: exp}).Simplify() }

// Sqrt is the canonical half power.
func Sqrt(arg Expr) Expr { return Power(arg, Frac(1, 2)) }

func (p *Pow) Simplify() Expr {
	base := p.base.Simplify()
	exp := p.exp.Simplify()

	if en, ok := exp.(*Num); ok {
		if en.IsZero() {
			return Int(1)
		}
		if en.IsOne() {
			return base
		}
	}
	if bn, ok := base.(*Num); ok {
		if bn.IsZero() {
			if en, ok2 := exp.(*Num); ok2 && (en.IsZero() || en.IsNegative()) {
				return &Pow{base: base, exp: exp}
			}
			return Int(0)
		}
		if bn.IsOne() {
			return Int(1)
		}
		if en, ok2 := exp.(*Num); ok2 {
			if en.IsInteger() {
				if e := en.val.Num(); e.IsInt64() {
					return FromRat(intPow(bn.val, e.Int64()))
				}
			}
			// Exact half powers of perfect squares: sqrt(9/4) -> 3/2.
			if en.val.Cmp(big.NewRat(1, 2)) == 0 {
				if root, ok3 := ratSqrt(bn.val); ok3 {
					return FromRat(root)
				}
				if outside, inside, ok3 := sqrtSquareFree(bn.val); ok3 {
					return Prod(FromRat(outside), &Pow{base: FromRat(inside), exp: Frac(1, 2)})
				}
			}
			if en.val.Cmp(big.NewRat(-1, 2)) == 0 {
				if root, ok3 := ratSqrt(bn.val); ok3 && root.Sign() != 0 {
					return FromRat(new(big.Rat).Inv(root))
				}
			}
		}
	}
	if inner, ok := base.(*Pow); ok {
		return Power(inner.base, Prod(inner.exp, exp))
	}
	return &Pow{base: base, exp: exp}
}

func (p *Pow) Subst(name string, value Expr) Expr {
	return Power(p.base.Subst(name, value), p.exp.Subst(name, value))
}

func (p *Pow) Deriv(name string) Expr {
	du := p.base.Deriv(name)
	dv := p.exp.Deriv(name)
	if _, ok := p.exp.(*Num); ok {
		return Prod(p.exp, Power(p.base, Sum(p.exp, Int(-1))), du)
	}
	if _, ok := p.base.(*Num); ok {
		return Prod(Power(p.base, p.exp), Ln(p.base), dv)
	}
	// General case: u^v * (v' ln u + v u'/u).
	logTerm := Prod(dv, Ln(p.base))
	ratioTerm := Prod(p.exp, du, Power(p.base, Int(-1)))
	return Prod(Power(p.base, p.exp), Sum(logTerm, ratioTerm))
}

func (p *Pow) Rat() (*big.Rat, bool) {
	b, ok := p.base.Rat()
	if !ok {
		return nil, false
	}
	e, ok := p.exp.Rat()
	if !ok {
		return nil, false
	}
	if e.IsInt() && e.Num().IsInt64() {
		if b.Sign() == 0 && e.Sign() <= 0 {
			return nil, false
		}
		return intPow(b, e.Num().Int64()), true
	}
	if e.Cmp(big.NewRat(1, 2)) == 0 {
		if root, ok2 := ratSqrt(b); ok2 {
			return root, true
		}
	}
	return nil, false
}

func (p *Pow) Equal(other Expr) bool {
	o, ok := other.(*Pow)
	return ok && p.base.Equal(o.base) && p.exp.Equal(o.exp)
}

func (p *Pow) kind() string   { return "pow" }
func (p *Pow) Base() Expr     { return p.base }
func (p *Pow) Exponent() Expr { return p.exp }

func (p *Pow) String() string {
	if e, ok := p.exp.(*Num); ok {
		if e.val.Cmp(big.NewRat(1, 2)) == 0 {
			return "sqrt(" + p.base.String() + ")"
		}
		if e.IsNegative() {
			inv := (&Pow{base: p.base, exp: numNeg(e)}).Simplify()
			d := inv.String()
			if needsParens(inv) {
				d = "(" + d + ")"
			}
			return "1/" + d
		}
	}
	baseStr := p.base.String()
	if needsParens(p.base) || isNegNum(p.base) {
		baseStr = "(" + baseStr + ")"
	}
	expStr := p.exp.String()
	if _, simple := p.exp.(*Sym); !simple {
		if n, isNum := p.exp.(*Num); !isNum || !n.IsInteger() || n.IsNegative() {
			expStr = "(" + expStr + ")"
		}
	}
	return baseStr + "**" + expStr
}

func (p *Pow) LaTeX() string {
	if e, ok := p.exp.(*Num); ok {
		if e.val.Cmp(big.NewRat(1, 2)) == 0 {
			return "\\sqrt{" + p.base.LaTeX() + "}"
		}
		if e.IsNegative() {
			inv := (&Pow{base: p.base, exp: numNeg(e)}).Simplify()
			return "\\frac{1}{" + inv.LaTeX() + "}"
		}
	}
	baseStr := p.base.LaTeX()
	if needsParens(p.base) || isNegNum(p.base) {
		baseStr = "\\left(" + baseStr + "\\right)"
	}
	return baseStr + "^{" + p.exp.LaTeX() + "}"
}

func isNegNum(e Expr) bool {
	n, ok := e.(*Num)
	return ok && n.IsNegative()
}

// ============================================================
// Fn — named function application
// ============================================================

type Fn struct {
	name string
	arg  Expr
}

func apply(name string, arg Expr) *Fn { return &Fn{name: name, arg: arg} }

func Sin(arg Expr) Expr  { return apply("sin", arg).Simplify() }
func Cos(arg Expr) Expr  { return apply("cos", arg).Simplify() }
func Tan(arg Expr) Expr  { return apply("tan", arg).Simplify() }
func Cot(arg Expr) Expr  { return apply("cot", arg).Simplify() }
func Sec(arg Expr) Expr  { return apply("sec", arg).Simplify() }
func Csc(arg Expr) Expr  { return apply("csc", arg).Simplify() }
func Exp(arg Expr) Expr  { return apply("exp", arg).Simplify() }
func Ln(arg Expr) Expr   { return apply("ln", arg).Simplify() }
func Abs(arg Expr) Expr  { return apply("abs", arg).Simplify() }
func Asin(arg Expr) Expr { return apply("asin", arg).Simplify() }
func Acos(arg Expr) Expr { return apply("acos", arg).Simplify() }
func Atan(arg Expr) Expr { return apply("atan", arg).Simplify() }

// Apply builds a named function application, for parser use.
func Apply(name string, arg Expr) Expr { return apply(name, arg).Simplify() }

func (f *Fn) Simplify() Expr {
	arg := f.arg.Simplify()
	if n, ok := arg.(*Num); ok {
		switch f.name {
		case "sin", "tan", "asin", "atan":
			if n.IsZero() {
				return Int(0)
			}
		case "cos":
			if n.IsZero() {
				return Int(1)
			}
		case "exp":
			if n.IsZero() {
				return Int(1)
			}
		case "ln":
			if n.IsOne() {
				return Int(0)
			}
		case "abs":
			if n.IsNegative() {
				return numNeg(n)
			}
			return n
		}
	}
	switch f.name {
	case "ln":
		if inner, ok := arg.(*Fn); ok && inner.name == "exp" {
			return inner.arg
		}
	case "exp":
		if inner, ok := arg.(*Fn); ok && inner.name == "ln" {
			return inner.arg
		}
	case "abs":
		if m, ok := arg.(*Mul); ok && len(m.factors) >= 1 {
			if c, ok2 := m.factors[0].(*Num); ok2 && c.IsNegative() {
				rest := append([]Expr{numNeg(c)}, m.factors[1:]...)
				return Abs(Prod(rest...))
			}
		}
	}
	return &Fn{name: f.name, arg: arg}
}

func (f *Fn) Subst(name string, value Expr) Expr {
	return apply(f.name, f.arg.Subst(name, value)).Simplify()
}

// Deriv applies the chain rule through the outer derivative table.
func (f *Fn) Deriv(name string) Expr {
	du := f.arg.Deriv(name)
	var outer Expr
	switch f.name {
	case "sin":
		outer = Cos(f.arg)
	case "cos":
		outer = Prod(Int(-1), Sin(f.arg))
	case "tan":
		outer = Sum(Int(1), Power(Tan(f.arg), Int(2)))
	case "cot":
		outer = Prod(Int(-1), Sum(Int(1), Power(Cot(f.arg), Int(2))))
	case "sec":
		outer = Prod(Sec(f.arg), Tan(f.arg))
	case "csc":
		outer = Prod(Int(-1), Csc(f.arg), Cot(f.arg))
	case "sinh":
		outer = apply("cosh", f.arg)
	case "cosh":
		outer = apply("sinh", f.arg)
	case "tanh":
		outer = Sum(Int(1), Prod(Int(-1), Power(apply("tanh", f.arg), Int(2))))
	case "exp":
		outer = Exp(f.arg)
	case "ln":
		outer = Power(f.arg, Int(-1))
	case "asin":
		outer = Power(Sum(Int(1), Prod(Int(-1), Power(f.arg, Int(2)))), Frac(-1, 2))
	case "acos":
		outer = Prod(Int(-1), Power(Sum(Int(1), Prod(Int(-1), Power(f.arg, Int(2)))), Frac(-1, 2)))
	case "atan":
		outer = Power(Sum(Int(1), Power(f.arg, Int(2))), Int(-1))
	case "abs":
		outer = apply("sign", f.arg)
	default:
		return Prod(apply("D["+f.name+"]", f.arg), du)
	}
	return Prod(outer, du).Simplify()
}

func (f *Fn) Rat() (*big.Rat, bool) { return nil, false }

func (f *Fn) Equal(other Expr) bool {
	o, ok := other.(*Fn)
	return ok && f.name == o.name && f.arg.Equal(o.arg)
}

func (f *Fn) kind() string   { return "fn" }
func (f *Fn) FnName() string { return f.name }
func (f *Fn) Arg() Expr      { return f.arg }

func (f *Fn) String() string { return f.name + "(" + f.arg.String() + ")" }

func (f *Fn) LaTeX() string {
	switch f.name {
	case "sin", "cos", "tan", "cot", "sec", "csc", "sinh", "cosh", "tanh", "ln":
		return "\\" + f.name + "\\left(" + f.arg.LaTeX() + "\\right)"
	case "exp":
		return "e^{" + f.arg.LaTeX() + "}"
	case "asin":
		return "\\arcsin\\left(" + f.arg.LaTeX() + "\\right)"
	case "acos":
		return "\\arccos\\left(" + f.arg.LaTeX() + "\\right)"
	case "atan":
		return "\\arctan\\left(" + f.arg.LaTeX() + "\\right)"
	case "abs":
		return "\\left|" + f.arg.LaTeX() + "\\right|"
	}
	return "\\operatorname{" + f.name + "}\\left(" + f.arg.LaTeX() + "\\right)"
}

// ============================================================
// shared helpers
// ============================================================

// Neg returns -e.
func Neg(e Expr) Expr { return Prod(Int(-1), e) }

// Subtract returns a - b.
func Subtract(a, b Expr) Expr { return Sum(a, Neg(b)) }

// Div returns a / b as a product with a negative exponent.
func Div(a, b Expr) Expr { return Prod(a, Power(b, Int(-1))) }

// splitCoeff separates a leading numeric coefficient from the rest of
// a term; terms without one get coefficient 1.
func splitCoeff(e Expr) (*Num, Expr) {
	if m, ok := e.(*Mul); ok && len(m.factors) >= 2 {
		if c, ok2 := m.factors[0].(*Num); ok2 {
			rest := m.factors[1:]
			if len(rest) == 1 {
				return c, rest[0]
			}
			return c, &Mul{factors: rest}
		}
	}
	return Int(1), e
}

// IsZero reports whether e simplifies to the constant 0.
func IsZero(e Expr) bool {
	n, ok := e.Simplify().(*Num)
	return ok && n.IsZero()
}
