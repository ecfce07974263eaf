package cas

import (
	"math"
	"sort"
)

// Simplify normalizes e without changing its written shape beyond
// constant folding and like-term combination.
func Simplify(e Expr) Expr { return e.Simplify() }

// Expand distributes products over sums and expands small integer
// powers of sums, then simplifies.
func Expand(e Expr) Expr { return expandNode(e).Simplify() }

func expandNode(e Expr) Expr {
	switch v := e.(type) {
	case *Add:
		out := make([]Expr, len(v.terms))
		for i, t := range v.terms {
			out[i] = expandNode(t)
		}
		return Sum(out...)
	case *Mul:
		factors := make([]Expr, len(v.factors))
		for i, f := range v.factors {
			factors[i] = expandNode(f)
		}
		result := factors[0]
		for _, f := range factors[1:] {
			result = distribute(result, f)
		}
		return result
	case *Pow:
		base := expandNode(v.base)
		if n, ok := v.exp.(*Num); ok && n.IsInteger() && n.IsPositive() {
			if _, isAdd := base.(*Add); isAdd {
				e64 := n.val.Num().Int64()
				if e64 <= 16 {
					result := Expr(Int(1))
					for i := int64(0); i < e64; i++ {
						result = distribute(result, base)
					}
					return result
				}
			}
		}
		return Power(base, v.exp)
	case *Fn:
		return apply(v.name, expandNode(v.arg)).Simplify()
	}
	return e
}

func distribute(a, b Expr) Expr {
	aTerms := []Expr{a}
	if add, ok := a.(*Add); ok {
		aTerms = add.terms
	}
	bTerms := []Expr{b}
	if add, ok := b.(*Add); ok {
		bTerms = add.terms
	}
	out := make([]Expr, 0, len(aTerms)*len(bTerms))
	for _, x := range aTerms {
		for _, y := range bTerms {
			out = append(out, Prod(x, y))
		}
	}
	return Sum(out...)
}

// FreeSymbols returns the set of symbol names appearing in e.
func FreeSymbols(e Expr) map[string]struct{} {
	out := map[string]struct{}{}
	collectSymbols(e, out)
	return out
}

func collectSymbols(e Expr, out map[string]struct{}) {
	switch v := e.(type) {
	case *Sym:
		out[v.name] = struct{}{}
	case *Add:
		for _, t := range v.terms {
			collectSymbols(t, out)
		}
	case *Mul:
		for _, f := range v.factors {
			collectSymbols(f, out)
		}
	case *Pow:
		collectSymbols(v.base, out)
		collectSymbols(v.exp, out)
	case *Fn:
		collectSymbols(v.arg, out)
	}
}

// Contains reports whether the symbol name appears anywhere in e.
func Contains(e Expr, name string) bool {
	_, ok := FreeSymbols(e)[name]
	return ok
}

// ContainsFn reports whether a function application with any of the
// given names appears anywhere in e.
func ContainsFn(e Expr, names ...string) bool {
	switch v := e.(type) {
	case *Fn:
		for _, n := range names {
			if v.name == n {
				return true
			}
		}
		return ContainsFn(v.arg, names...)
	case *Add:
		for _, t := range v.terms {
			if ContainsFn(t, names...) {
				return true
			}
		}
	case *Mul:
		for _, f := range v.factors {
			if ContainsFn(f, names...) {
				return true
			}
		}
	case *Pow:
		return ContainsFn(v.base, names...) || ContainsFn(v.exp, names...)
	}
	return false
}

// TermList returns the top-level additive terms of e; a non-sum is a
// single term.
func TermList(e Expr) []Expr {
	if a, ok := e.(*Add); ok {
		return a.terms
	}
	return []Expr{e}
}

// FactorList returns the top-level multiplicative factors of e; a
// non-product is a single factor.
func FactorList(e Expr) []Expr {
	if m, ok := e.(*Mul); ok {
		return m.factors
	}
	return []Expr{e}
}

// AsQuotient splits e into numerator and denominator when any factor
// carries a negative exponent. ok is false when e has no division.
func AsQuotient(e Expr) (num, den Expr, ok bool) {
	m, isMul := e.(*Mul)
	if !isMul {
		if d, inverted := invertNegPow(e); inverted {
			return Int(1), d, true
		}
		return nil, nil, false
	}
	var numF, denF []Expr
	for _, f := range m.factors {
		if d, inverted := invertNegPow(f); inverted {
			denF = append(denF, d)
			continue
		}
		numF = append(numF, f)
	}
	if len(denF) == 0 {
		return nil, nil, false
	}
	build := func(fs []Expr) Expr {
		switch len(fs) {
		case 0:
			return Int(1)
		case 1:
			return fs[0]
		}
		return &Mul{factors: fs}
	}
	return build(numF), build(denF), true
}

// invertNegPow rewrites x**(-n) as the denominator factor x**n.
func invertNegPow(e Expr) (Expr, bool) {
	p, isPow := e.(*Pow)
	if !isPow {
		return nil, false
	}
	n, isNum := p.exp.(*Num)
	if !isNum || !n.IsNegative() {
		return nil, false
	}
	if n.IsNegOne() {
		return p.base, true
	}
	return Power(p.base, numNeg(n)), true
}

// Degree returns the polynomial degree of e in the named symbol, with
// non-polynomial structure contributing degree 0.
func Degree(e Expr, name string) int {
	switch v := e.Simplify().(type) {
	case *Sym:
		if v.name == name {
			return 1
		}
	case *Pow:
		if s, ok := v.base.(*Sym); ok && s.name == name {
			if n, ok2 := v.exp.(*Num); ok2 && n.IsInteger() && n.IsPositive() {
				return int(n.val.Num().Int64())
			}
		}
	case *Add:
		max := 0
		for _, t := range v.terms {
			if d := Degree(t, name); d > max {
				max = d
			}
		}
		return max
	case *Mul:
		total := 0
		for _, f := range v.factors {
			total += Degree(f, name)
		}
		return total
	}
	return 0
}

// IsPolynomial reports whether e is a polynomial in the named symbol:
// only non-negative integer powers, and the symbol never appears
// inside a function argument or an exponent.
func IsPolynomial(e Expr, name string) bool {
	switch v := e.(type) {
	case *Num, *Sym:
		return true
	case *Add:
		for _, t := range v.terms {
			if !IsPolynomial(t, name) {
				return false
			}
		}
		return true
	case *Mul:
		for _, f := range v.factors {
			if !IsPolynomial(f, name) {
				return false
			}
		}
		return true
	case *Pow:
		if Contains(v.exp, name) {
			return false
		}
		n, ok := v.exp.(*Num)
		if !ok || !n.IsInteger() || n.IsNegative() {
			return !Contains(v.base, name)
		}
		return IsPolynomial(v.base, name)
	case *Fn:
		return !Contains(v.arg, name)
	}
	return false
}

// PolyCoeffs maps degree to coefficient for a polynomial in name.
func PolyCoeffs(e Expr, name string) map[int]Expr {
	out := map[int]Expr{}
	collectCoeffs(Expand(e), name, out)
	return out
}

func collectCoeffs(e Expr, name string, out map[int]Expr) {
	switch v := e.(type) {
	case *Num:
		addCoeff(out, 0, v)
	case *Sym:
		if v.name == name {
			addCoeff(out, 1, Int(1))
		} else {
			addCoeff(out, 0, v)
		}
	case *Pow:
		if s, ok := v.base.(*Sym); ok && s.name == name {
			if n, ok2 := v.exp.(*Num); ok2 && n.IsInteger() && n.IsPositive() {
				addCoeff(out, int(n.val.Num().Int64()), Int(1))
				return
			}
		}
		addCoeff(out, 0, e)
	case *Mul:
		deg := 0
		coeffFactors := []Expr{}
		for _, f := range v.factors {
			if d := Degree(f, name); d > 0 {
				deg += d
			} else {
				coeffFactors = append(coeffFactors, f)
			}
		}
		addCoeff(out, deg, Prod(append([]Expr{Int(1)}, coeffFactors...)...))
	case *Add:
		for _, t := range v.terms {
			collectCoeffs(t, name, out)
		}
	}
}

func addCoeff(out map[int]Expr, deg int, val Expr) {
	if existing, ok := out[deg]; ok {
		out[deg] = Sum(existing, val)
	} else {
		out[deg] = val.Simplify()
	}
}

// Collect rewrites e grouped by descending powers of name.
func Collect(e Expr, name string) Expr {
	coeffs := PolyCoeffs(e, name)
	if len(coeffs) == 0 {
		return Int(0)
	}
	degrees := make([]int, 0, len(coeffs))
	for d := range coeffs {
		degrees = append(degrees, d)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(degrees)))
	terms := make([]Expr, 0, len(degrees))
	for _, d := range degrees {
		c := coeffs[d]
		if n, ok := c.(*Num); ok && n.IsZero() {
			continue
		}
		switch d {
		case 0:
			terms = append(terms, c)
		case 1:
			terms = append(terms, Prod(c, Var(name)))
		default:
			terms = append(terms, Prod(c, Power(Var(name), Int(int64(d)))))
		}
	}
	return Sum(terms...)
}

// Equivalent reports whether a and b denote the same function. It
// first checks that the expanded difference simplifies to zero, then
// falls back to numeric probing over the free symbols. A float result
// here is a verdict only and never surfaces in output.
func Equivalent(a, b Expr) bool {
	diff := Expand(Subtract(a, b)).Simplify()
	if n, ok := diff.(*Num); ok {
		return n.IsZero()
	}
	syms := FreeSymbols(diff)
	names := make([]string, 0, len(syms))
	for s := range syms {
		names = append(names, s)
	}
	sort.Strings(names)
	probes := []float64{0.7, 1.3, 2.9}
	for _, p := range probes {
		env := map[string]float64{}
		for i, n := range names {
			env[n] = p + 0.37*float64(i)
		}
		v, ok := evalFloat(diff, env)
		if !ok {
			return false
		}
		if math.Abs(v) > 1e-7 {
			return false
		}
	}
	return true
}

// evalFloat numerically evaluates e under an assignment of symbol
// values. ok is false on domain errors or unknown functions.
func evalFloat(e Expr, env map[string]float64) (float64, bool) {
	switch v := e.(type) {
	case *Num:
		f, _ := v.val.Float64()
		return f, true
	case *Sym:
		if v.name == "pi" {
			return math.Pi, true
		}
		if x, ok := env[v.name]; ok {
			return x, true
		}
		return 0, false
	case *Add:
		acc := 0.0
		for _, t := range v.terms {
			x, ok := evalFloat(t, env)
			if !ok {
				return 0, false
			}
			acc += x
		}
		return acc, true
	case *Mul:
		acc := 1.0
		for _, f := range v.factors {
			x, ok := evalFloat(f, env)
			if !ok {
				return 0, false
			}
			acc *= x
		}
		return acc, true
	case *Pow:
		b, ok := evalFloat(v.base, env)
		if !ok {
			return 0, false
		}
		x, ok := evalFloat(v.exp, env)
		if !ok {
			return 0, false
		}
		r := math.Pow(b, x)
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return 0, false
		}
		return r, true
	case *Fn:
		x, ok := evalFloat(v.arg, env)
		if !ok {
			return 0, false
		}
		var r float64
		switch v.name {
		case "sin":
			r = math.Sin(x)
		case "cos":
			r = math.Cos(x)
		case "tan":
			r = math.Tan(x)
		case "cot":
			r = 1 / math.Tan(x)
		case "sec":
			r = 1 / math.Cos(x)
		case "csc":
			r = 1 / math.Sin(x)
		case "exp":
			r = math.Exp(x)
		case "ln":
			r = math.Log(x)
		case "abs":
			r = math.Abs(x)
		case "asin":
			r = math.Asin(x)
		case "acos":
			r = math.Acos(x)
		case "atan":
			r = math.Atan(x)
		case "sinh":
			r = math.Sinh(x)
		case "cosh":
			r = math.Cosh(x)
		case "tanh":
			r = math.Tanh(x)
		default:
			return 0, false
		}
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return 0, false
		}
		return r, true
	}
	return 0, false
}
