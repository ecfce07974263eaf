package cas

import (
	"errors"
	"math/big"
	"sort"
)

var (
	// ErrNoSolution marks an inconsistent equation such as 0 = 5.
	ErrNoSolution = errors.New("equation has no solution")

	// ErrInfiniteSolutions marks an identity such as 0 = 0.
	ErrInfiniteSolutions = errors.New("equation holds for every value")

	// ErrUnsolvable means no analytic method in this package applies.
	ErrUnsolvable = errors.New("no analytic solution found")
)

// Solve returns the roots of e = 0 in the named symbol, exactly.
// Linear and quadratic equations always resolve; higher degrees are
// reduced by peeling rational roots. Roots are sorted ascending when
// fully numeric.
func Solve(e Expr, name string) ([]Expr, error) {
	e = Expand(e).Simplify()
	if !IsPolynomial(e, name) {
		return nil, &ComputationError{Op: "solve", Err: ErrUnsolvable}
	}
	deg := Degree(e, name)
	coeffs, ok := numericCoeffs(e, name, deg)
	if !ok {
		return nil, &ComputationError{Op: "solve", Err: ErrUnsolvable}
	}
	roots, err := solveDense(coeffs)
	if err != nil {
		return nil, &ComputationError{Op: "solve", Err: err}
	}
	sortRoots(roots)
	return roots, nil
}

// numericCoeffs returns dense rational coefficients indexed by degree,
// constant term first. ok is false when any coefficient is symbolic.
func numericCoeffs(e Expr, name string, deg int) ([]*big.Rat, bool) {
	byDeg := PolyCoeffs(e, name)
	out := make([]*big.Rat, deg+1)
	for d := 0; d <= deg; d++ {
		c, has := byDeg[d]
		if !has {
			out[d] = new(big.Rat)
			continue
		}
		n, isNum := c.(*Num)
		if !isNum {
			return nil, false
		}
		out[d] = new(big.Rat).Set(n.val)
	}
	return out, true
}

func solveDense(coeffs []*big.Rat) ([]Expr, error) {
	// Trim a zero leading coefficient.
	for len(coeffs) > 1 && coeffs[len(coeffs)-1].Sign() == 0 {
		coeffs = coeffs[:len(coeffs)-1]
	}
	switch len(coeffs) {
	case 1:
		if coeffs[0].Sign() == 0 {
			return nil, ErrInfiniteSolutions
		}
		return nil, ErrNoSolution
	case 2:
		// a*x + b = 0.
		root := new(big.Rat).Neg(new(big.Rat).Quo(coeffs[0], coeffs[1]))
		return []Expr{FromRat(root)}, nil
	case 3:
		return solveQuadraticRats(coeffs[2], coeffs[1], coeffs[0])
	}
	return solveByRationalRoots(coeffs)
}

func solveQuadraticRats(a, b, c *big.Rat) ([]Expr, error) {
	// disc = b^2 - 4ac.
	disc := new(big.Rat).Mul(b, b)
	disc.Sub(disc, new(big.Rat).Mul(new(big.Rat).Mul(big.NewRat(4, 1), a), c))
	twoA := new(big.Rat).Mul(big.NewRat(2, 1), a)
	negB := new(big.Rat).Neg(b)

	if disc.Sign() < 0 {
		return nil, ErrNoSolution
	}
	if root, exact := ratSqrt(disc); exact {
		if root.Sign() == 0 {
			return []Expr{FromRat(new(big.Rat).Quo(negB, twoA))}, nil
		}
		r1 := new(big.Rat).Quo(new(big.Rat).Add(negB, root), twoA)
		r2 := new(big.Rat).Quo(new(big.Rat).Sub(negB, root), twoA)
		return []Expr{FromRat(r1), FromRat(r2)}, nil
	}
	// Irrational roots stay in radical form: (-b ± sqrt(disc)) / 2a.
	sq := Sqrt(FromRat(disc))
	r1 := Div(Sum(FromRat(negB), sq), FromRat(twoA)).Simplify()
	r2 := Div(Subtract(FromRat(negB), sq), FromRat(twoA)).Simplify()
	return []Expr{r1, r2}, nil
}

// solveByRationalRoots peels rational roots from a degree >= 3
// polynomial by candidate testing and synthetic division.
func solveByRationalRoots(coeffs []*big.Rat) ([]Expr, error) {
	work := make([]*big.Rat, len(coeffs))
	for i, c := range coeffs {
		work[i] = new(big.Rat).Set(c)
	}
	var roots []Expr
	for len(work) > 3 {
		root, found := findRationalRoot(work)
		if !found {
			return nil, ErrUnsolvable
		}
		roots = append(roots, FromRat(root))
		work = syntheticDivide(work, root)
	}
	rest, err := solveDense(work)
	if err != nil {
		if errors.Is(err, ErrNoSolution) && len(roots) > 0 {
			return roots, nil
		}
		return nil, err
	}
	return append(roots, rest...), nil
}

func findRationalRoot(coeffs []*big.Rat) (*big.Rat, bool) {
	ints, ok := integerScaled(coeffs)
	if !ok {
		return nil, false
	}
	a0 := new(big.Int).Abs(ints[0])
	an := new(big.Int).Abs(ints[len(ints)-1])
	if a0.Sign() == 0 {
		return new(big.Rat), true
	}
	ps := divisorsOf(a0)
	qs := divisorsOf(an)
	for _, p := range ps {
		for _, q := range qs {
			for _, sign := range []int64{1, -1} {
				cand := new(big.Rat).SetFrac(new(big.Int).Mul(p, big.NewInt(sign)), q)
				if evalPolyRat(coeffs, cand).Sign() == 0 {
					return cand, true
				}
			}
		}
	}
	return nil, false
}

// integerScaled clears denominators, returning integer coefficients.
func integerScaled(coeffs []*big.Rat) ([]*big.Int, bool) {
	lcm := big.NewInt(1)
	for _, c := range coeffs {
		d := c.Denom()
		g := new(big.Int).GCD(nil, nil, lcm, d)
		lcm.Mul(lcm, new(big.Int).Quo(d, g))
		if lcm.BitLen() > 64 {
			return nil, false
		}
	}
	out := make([]*big.Int, len(coeffs))
	for i, c := range coeffs {
		scaled := new(big.Rat).Mul(c, new(big.Rat).SetInt(lcm))
		if !scaled.IsInt() {
			return nil, false
		}
		out[i] = new(big.Int).Set(scaled.Num())
	}
	return out, true
}

func divisorsOf(n *big.Int) []*big.Int {
	if !n.IsInt64() {
		return []*big.Int{big.NewInt(1)}
	}
	v := n.Int64()
	if v < 0 {
		v = -v
	}
	if v == 0 {
		return []*big.Int{big.NewInt(1)}
	}
	var out []*big.Int
	for d := int64(1); d*d <= v; d++ {
		if v%d == 0 {
			out = append(out, big.NewInt(d))
			if d != v/d {
				out = append(out, big.NewInt(v/d))
			}
		}
	}
	return out
}

func evalPolyRat(coeffs []*big.Rat, x *big.Rat) *big.Rat {
	acc := new(big.Rat)
	for i := len(coeffs) - 1; i >= 0; i-- {
		acc.Mul(acc, x)
		acc.Add(acc, coeffs[i])
	}
	return acc
}

// syntheticDivide divides the polynomial by (x - root), dropping the
// zero remainder.
func syntheticDivide(coeffs []*big.Rat, root *big.Rat) []*big.Rat {
	n := len(coeffs)
	out := make([]*big.Rat, n-1)
	carry := new(big.Rat).Set(coeffs[n-1])
	for i := n - 2; i >= 0; i-- {
		out[i] = new(big.Rat).Set(carry)
		carry = new(big.Rat).Add(coeffs[i], new(big.Rat).Mul(carry, root))
	}
	return out
}

func sortRoots(roots []Expr) {
	sort.SliceStable(roots, func(i, j int) bool {
		a, aok := roots[i].(*Num)
		b, bok := roots[j].(*Num)
		if aok && bok {
			return a.val.Cmp(b.val) < 0
		}
		if aok != bok {
			return aok
		}
		return roots[i].String() < roots[j].String()
	})
}

// QuadraticParts extracts rational a, b, c from a quadratic in name.
func QuadraticParts(e Expr, name string) (a, b, c *Num, ok bool) {
	e = Expand(e).Simplify()
	if Degree(e, name) != 2 {
		return nil, nil, nil, false
	}
	coeffs, valid := numericCoeffs(e, name, 2)
	if !valid {
		return nil, nil, nil, false
	}
	return FromRat(coeffs[2]), FromRat(coeffs[1]), FromRat(coeffs[0]), true
}

// LinearParts extracts rational a, b from a*name + b.
func LinearParts(e Expr, name string) (a, b *Num, ok bool) {
	return linearParts(Expand(e).Simplify(), name)
}

// SolveLinearSystem2x2 solves a1*x + b1*y = c1, a2*x + b2*y = c2 by
// Cramer's rule. A vanishing determinant is reported as unsolvable.
func SolveLinearSystem2x2(a1, b1, c1, a2, b2, c2 Expr) (x, y Expr, err error) {
	det := Subtract(Prod(a1, b2), Prod(a2, b1)).Simplify()
	if n, ok := det.(*Num); !ok || n.IsZero() {
		return nil, nil, &ComputationError{Op: "solve_system", Err: ErrUnsolvable}
	}
	dx := Subtract(Prod(c1, b2), Prod(c2, b1)).Simplify()
	dy := Subtract(Prod(a1, c2), Prod(a2, c1)).Simplify()
	return Div(dx, det).Simplify(), Div(dy, det).Simplify(), nil
}

// Factor rewrites a polynomial as a product of linear factors over the
// rationals, keeping any common numeric factor in front. changed is
// false when no factorization was found.
func Factor(e Expr, name string) (Expr, bool) {
	expanded := Expand(e).Simplify()
	deg := Degree(expanded, name)
	if deg < 2 || !IsPolynomial(expanded, name) {
		return e, false
	}
	coeffs, ok := numericCoeffs(expanded, name, deg)
	if !ok {
		return e, false
	}

	lead := new(big.Rat).Set(coeffs[deg])
	work := make([]*big.Rat, len(coeffs))
	for i, c := range coeffs {
		work[i] = new(big.Rat).Quo(c, lead)
	}

	var factors []Expr
	for len(work) > 1 {
		if len(work) == 2 {
			// x + c0 remains.
			factors = append(factors, Sum(Var(name), FromRat(work[0])))
			work = work[:1]
			break
		}
		root, found := findRationalRoot(work)
		if !found {
			break
		}
		factors = append(factors, Subtract(Var(name), FromRat(root)))
		work = syntheticDivide(work, root)
	}
	if len(factors) == 0 {
		return e, false
	}
	if len(work) > 1 {
		// Irreducible remainder keeps its expanded form.
		rem := Expr(Int(0))
		for d := len(work) - 1; d >= 0; d-- {
			rem = Sum(rem, Prod(FromRat(work[d]), Power(Var(name), Int(int64(d)))))
		}
		factors = append(factors, rem)
	}
	parts := factors
	if lead.Cmp(ratOne) != 0 {
		parts = append([]Expr{FromRat(lead)}, parts...)
	}
	out := Prod(parts...)
	if out.Equal(e) || out.String() == e.String() {
		return e, false
	}
	return out, true
}
