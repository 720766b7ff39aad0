package ir

import (
	"fmt"

	"go.uber.org/multierr"
)

// Validate walks stmt and reports every malformed node it finds, instead of
// stopping at the first one — useful when a builder assembles a tree from
// several independently-generated fragments (e.g. a test fixture) and a
// single combined diagnostic is more useful than a single error. It does not
// enforce the pass-specific invariants (those are each pass's own job); it
// only catches structurally broken trees: a For whose Min isn't the zero
// literal, an Allocate with no extents, a Ramp with non-positive lanes.
func Validate(stmt Stmt) error {
	var errs error
	var walk func(Stmt)
	var walkExpr func(Expr)

	walkExpr = func(e Expr) {
		switch n := e.(type) {
		case nil, *Variable, *IntImm, *StringImm, *accessPtrDType:
			return
		case *Load:
			walkExpr(n.Index)
			walkExpr(n.Predicate)
		case *Call:
			for _, a := range n.Args {
				walkExpr(a)
			}
		case *Ramp:
			if n.Lanes <= 0 {
				errs = multierr.Append(errs, fmt.Errorf("ramp: non-positive lanes %d", n.Lanes))
			}
			walkExpr(n.Base)
			walkExpr(n.Stride)
		case *Add:
			walkExpr(n.A)
			walkExpr(n.B)
		case *Mul:
			walkExpr(n.A)
			walkExpr(n.B)
		case *Div:
			walkExpr(n.A)
			walkExpr(n.B)
		case *GE:
			walkExpr(n.A)
			walkExpr(n.B)
		case *LT:
			walkExpr(n.A)
			walkExpr(n.B)
		case *And:
			walkExpr(n.A)
			walkExpr(n.B)
		case *Cast:
			walkExpr(n.Value)
		}
	}

	walk = func(s Stmt) {
		switch n := s.(type) {
		case nil:
			return
		case *LetStmt:
			walkExpr(n.Value)
			walk(n.Body)
		case *Store:
			walkExpr(n.Value)
			walkExpr(n.Index)
			walkExpr(n.Predicate)
		case *For:
			if !IsZero(n.Min) {
				errs = multierr.Append(errs, fmt.Errorf("for %q: min must be zero", n.Loop.Name))
			}
			walkExpr(n.Extent)
			walk(n.Body)
		case *Evaluate:
			walkExpr(n.Value)
		case *Allocate:
			if len(n.Extents) == 0 {
				errs = multierr.Append(errs, fmt.Errorf("allocate %q: no extents", n.Buffer.Name))
			}
			for _, e := range n.Extents {
				walkExpr(e)
			}
			walkExpr(n.Condition)
			walkExpr(n.NewExpr)
			walk(n.Body)
		case *AttrStmt:
			walkExpr(n.Value)
			walk(n.Body)
		case *IfThenElse:
			walkExpr(n.Cond)
			walk(n.Then)
			walk(n.Else)
		case *Block:
			walk(n.First)
			walk(n.Rest)
		case *AssertStmt:
			walkExpr(n.Cond)
			walkExpr(n.Msg)
			walk(n.Body)
		case *Provide:
			walkExpr(n.Value)
			walkExpr(n.Index)
		}
	}

	walk(stmt)
	return errs
}
