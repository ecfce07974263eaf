package cas

import "fmt"

// ComputationError wraps a failure inside a symbolic operation with
// the operation name, so callers can tell an unsolvable equation from
// a singular matrix.
type ComputationError struct {
	Op  string
	Err error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("computation failed in %s: %v", e.Op, e.Err)
}

func (e *ComputationError) Unwrap() error { return e.Err }

// Engine is the capability surface the rest of the system consumes.
// Implementations must keep numbers exact: a caller that feeds in
// rationals gets rationals or symbolic forms back, never floats.
type Engine interface {
	// Parse converts a canonical expression string to a tree.
	Parse(s string) (Expr, error)

	// Solve returns the roots of e = 0 in the named variable.
	Solve(e Expr, variable string) ([]Expr, error)

	// Diff differentiates e the given number of times.
	Diff(e Expr, variable string, order int) Expr

	// Integrate returns an antiderivative; ok is false when no rule
	// applies.
	Integrate(e Expr, variable string) (Expr, bool)

	// Limit evaluates e as variable approaches point.
	Limit(e Expr, variable string, point Expr) LimitResult

	// Simplify, Factor and Expand rewrite without changing value.
	Simplify(e Expr) Expr
	Factor(e Expr, variable string) (Expr, bool)
	Expand(e Expr) Expr

	// Equivalent reports whether two expressions denote the same
	// function.
	Equivalent(a, b Expr) bool
}

type localEngine struct{}

// NewEngine returns the in-process symbolic engine.
func NewEngine() Engine { return localEngine{} }

func (localEngine) Parse(s string) (Expr, error)               { return Parse(s) }
func (localEngine) Solve(e Expr, v string) ([]Expr, error)     { return Solve(e, v) }
func (localEngine) Diff(e Expr, v string, order int) Expr      { return Diff(e, v, order) }
func (localEngine) Integrate(e Expr, v string) (Expr, bool)    { return Integrate(e, v) }
func (localEngine) Limit(e Expr, v string, p Expr) LimitResult { return Limit(e, v, p) }
func (localEngine) Simplify(e Expr) Expr                       { return Simplify(e) }
func (localEngine) Factor(e Expr, v string) (Expr, bool)       { return Factor(e, v) }
func (localEngine) Expand(e Expr) Expr                         { return Expand(e) }
func (localEngine) Equivalent(a, b Expr) bool                  { return Equivalent(a, b) }

var _ Engine = localEngine{}
