package cas

// Diff returns the order-th derivative of e with respect to name.
// Order values below 1 are treated as 1.
func Diff(e Expr, name string, order int) Expr {
	if order < 1 {
		order = 1
	}
	out := e
	for i := 0; i < order; i++ {
		out = out.Deriv(name).Simplify()
	}
	return out
}

// Integrate returns an antiderivative of e with respect to name. The
// second result is false when no rule applies; partial results are
// never returned.
func Integrate(e Expr, name string) (Expr, bool) {
	e = e.Simplify()
	switch v := e.(type) {
	case *Num:
		return Prod(v, Var(name)), true
	case *Sym:
		if v.name == name {
			return Prod(Frac(1, 2), Power(Var(name), Int(2))), true
		}
		return Prod(v, Var(name)), true
	case *Pow:
		return integratePow(v, name)
	case *Mul:
		coeff := Int(1)
		constParts := []Expr{}
		varParts := []Expr{}
		for _, f := range v.factors {
			switch {
			case isNum(f):
				coeff = numMul(coeff, f.(*Num))
			case Contains(f, name):
				varParts = append(varParts, f)
			default:
				constParts = append(constParts, f)
			}
		}
		var inner Expr
		switch len(varParts) {
		case 0:
			inner = Int(1)
		case 1:
			inner = varParts[0]
		default:
			return nil, false
		}
		anti, ok := Integrate(inner, name)
		if !ok {
			return nil, false
		}
		pre := append([]Expr{coeff}, constParts...)
		return Prod(append(pre, anti)...), true
	case *Add:
		terms := make([]Expr, len(v.terms))
		for i, t := range v.terms {
			anti, ok := Integrate(t, name)
			if !ok {
				return nil, false
			}
			terms[i] = anti
		}
		return Sum(terms...), true
	case *Fn:
		return integrateFn(v, name)
	}
	return nil, false
}

func integratePow(p *Pow, name string) (Expr, bool) {
	if s, ok := p.base.(*Sym); ok && s.name == name {
		if n, ok2 := p.exp.(*Num); ok2 {
			if n.IsNegOne() {
				return Ln(Abs(Var(name))), true
			}
			next := numAdd(n, Int(1))
			return Prod(numRecip(next), Power(Var(name), next)), true
		}
	}
	// Exponentials with constant base: a^x -> a^x / ln(a).
	if !Contains(p.base, name) && Contains(p.exp, name) {
		if s, ok := p.exp.(*Sym); ok && s.name == name {
			return Prod(Power(p.base, Var(name)), Power(Ln(p.base), Int(-1))), true
		}
	}
	// Linear inner argument: (a*x + b)^n.
	if a, _, ok := linearParts(p.base, name); ok && !a.IsZero() {
		if n, ok2 := p.exp.(*Num); ok2 && !n.IsNegOne() {
			next := numAdd(n, Int(1))
			return Prod(numRecip(numMul(a, next)), Power(p.base, next)), true
		}
	}
	return nil, false
}

func isNum(e Expr) bool {
	_, ok := e.(*Num)
	return ok
}

func integrateFn(f *Fn, name string) (Expr, bool) {
	arg := f.arg
	a, _, linear := linearParts(arg, name)
	if linear && a.IsZero() {
		// Constant argument: the whole function is a constant factor.
		return Prod(f, Var(name)), true
	}
	switch f.name {
	case "sin":
		if isBareVar(arg, name) {
			return Prod(Int(-1), Cos(Var(name))), true
		}
		if linear {
			return Prod(Int(-1), numRecip(a), Cos(arg)), true
		}
	case "cos":
		if isBareVar(arg, name) {
			return Sin(Var(name)), true
		}
		if linear {
			return Prod(numRecip(a), Sin(arg)), true
		}
	case "exp":
		if isBareVar(arg, name) {
			return Exp(Var(name)), true
		}
		if linear {
			return Prod(numRecip(a), Exp(arg)), true
		}
	case "ln":
		if isBareVar(arg, name) {
			x := Var(name)
			return Sum(Prod(x, Ln(x)), Prod(Int(-1), x)), true
		}
	case "asin":
		if isBareVar(arg, name) {
			x := Var(name)
			return Sum(Prod(x, Asin(x)), Sqrt(Sum(Int(1), Prod(Int(-1), Power(x, Int(2)))))), true
		}
	case "atan":
		if isBareVar(arg, name) {
			x := Var(name)
			return Sum(Prod(x, Atan(x)), Prod(Frac(-1, 2), Ln(Sum(Int(1), Power(x, Int(2)))))), true
		}
	case "sinh":
		if isBareVar(arg, name) {
			return apply("cosh", Var(name)).Simplify(), true
		}
	case "cosh":
		if isBareVar(arg, name) {
			return apply("sinh", Var(name)).Simplify(), true
		}
	}
	return nil, false
}

func isBareVar(e Expr, name string) bool {
	s, ok := e.(*Sym)
	return ok && s.name == name
}

// linearParts decomposes e as a*name + b with rational a, b. ok is
// false for anything that is not affine in name.
func linearParts(e Expr, name string) (a, b *Num, ok bool) {
	if !IsPolynomial(e, name) || Degree(e, name) > 1 {
		return nil, nil, false
	}
	coeffs := PolyCoeffs(e, name)
	a = Int(0)
	b = Int(0)
	if c, has := coeffs[1]; has {
		n, isNum := c.(*Num)
		if !isNum {
			return nil, nil, false
		}
		a = n
	}
	if c, has := coeffs[0]; has {
		n, isNum := c.(*Num)
		if !isNum {
			return nil, nil, false
		}
		b = n
	}
	return a, b, true
}

// LimitResult reports a limit value or why it could not be found.
type LimitResult struct {
	Value  Expr
	OK     bool
	Reason string
}

// Limit evaluates lim_{name -> point} e. Direct substitution is tried
// first, then L'Hopital for 0/0 quotients with a bounded number of
// passes, then leading-term analysis when the point is infinite.
func Limit(e Expr, name string, point Expr) LimitResult {
	return limitBounded(e.Simplify(), name, point, 5)
}

func limitBounded(e Expr, name string, point Expr, depth int) LimitResult {
	if s, ok := point.(*Sym); ok && s.name == "oo" {
		return limitAtInfinity(e, name, false)
	}
	if isNegInfinity(point) {
		return limitAtInfinity(e, name, true)
	}

	if num, den, isQ := AsQuotient(e); isQ {
		denAt := den.Subst(name, point).Simplify()
		numAt := num.Subst(name, point).Simplify()
		dn, dok := denAt.(*Num)
		nn, nok := numAt.(*Num)
		if dok && dn.IsZero() {
			if nok && nn.IsZero() {
				if depth > 0 {
					next := Div(Diff(num, name, 1), Diff(den, name, 1)).Simplify()
					return limitBounded(next, name, point, depth-1)
				}
				return LimitResult{Reason: "indeterminate form 0/0 persists"}
			}
			return LimitResult{Reason: "denominator vanishes at the approach point"}
		}
	}

	subbed := e.Subst(name, point).Simplify()
	if !Contains(subbed, name) && !hasZeroDenominator(subbed) {
		return LimitResult{Value: subbed, OK: true}
	}
	return LimitResult{Reason: "substitution did not resolve to a finite value"}
}

func isNegInfinity(e Expr) bool {
	m, ok := e.(*Mul)
	if !ok || len(m.factors) != 2 {
		return false
	}
	c, ok := m.factors[0].(*Num)
	if !ok || !c.IsNegOne() {
		return false
	}
	s, ok := m.factors[1].(*Sym)
	return ok && s.name == "oo"
}

func hasZeroDenominator(e Expr) bool {
	switch v := e.(type) {
	case *Pow:
		if b, ok := v.base.(*Num); ok && b.IsZero() {
			if x, ok2 := v.exp.(*Num); ok2 && (x.IsNegative() || x.IsZero()) {
				return true
			}
		}
		return hasZeroDenominator(v.base) || hasZeroDenominator(v.exp)
	case *Add:
		for _, t := range v.terms {
			if hasZeroDenominator(t) {
				return true
			}
		}
	case *Mul:
		for _, f := range v.factors {
			if hasZeroDenominator(f) {
				return true
			}
		}
	case *Fn:
		return hasZeroDenominator(v.arg)
	}
	return false
}

// limitAtInfinity handles polynomial and rational shapes by comparing
// leading terms.
func limitAtInfinity(e Expr, name string, negative bool) LimitResult {
	infinity := func(positive bool) Expr {
		if positive {
			return Var("oo")
		}
		return Prod(Int(-1), Var("oo"))
	}

	if num, den, isQ := AsQuotient(e); isQ && IsPolynomial(num, name) && IsPolynomial(den, name) {
		dn := Degree(num, name)
		dd := Degree(den, name)
		ln, lok := PolyCoeffs(num, name)[dn].(*Num)
		ld, dok := PolyCoeffs(den, name)[dd].(*Num)
		if lok && dok && !ld.IsZero() {
			switch {
			case dn < dd:
				return LimitResult{Value: Int(0), OK: true}
			case dn == dd:
				return LimitResult{Value: numDiv(ln, ld), OK: true}
			default:
				ratio := numDiv(ln, ld)
				positive := ratio.IsPositive()
				if negative && (dn-dd)%2 == 1 {
					positive = !positive
				}
				return LimitResult{Value: infinity(positive), OK: true}
			}
		}
	}
	if IsPolynomial(e, name) {
		d := Degree(e, name)
		if d == 0 {
			return LimitResult{Value: e.Simplify(), OK: true}
		}
		lead, ok := PolyCoeffs(e, name)[d].(*Num)
		if ok {
			positive := lead.IsPositive()
			if negative && d%2 == 1 {
				positive = !positive
			}
			return LimitResult{Value: infinity(positive), OK: true}
		}
	}
	return LimitResult{Reason: "no finite leading-term analysis for this shape"}
}
