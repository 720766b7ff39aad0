package boundcheck

import (
	"github.com/RichieZhu26/incubator-tvm/internal/ir"
	"github.com/RichieZhu26/incubator-tvm/internal/passerr"
	"github.com/RichieZhu26/incubator-tvm/internal/passlog"
)

// outOfBoundsMessage is the assertion text emitted on a failed range check.
const outOfBoundsMessage = "OUT OF THE BOUNDS"

// boundPair is one (index, upper bound) obligation collected while walking
// a single Store's subtree.
type boundPair struct {
	index      ir.Expr
	upperBound ir.Expr
}

// boundChecker rewrites every Store whose buffer has a known shape into an
// IfThenElse guarded by a range check: the guarded branch performs the
// original write, the other raises an assertion. bounds is updated in
// place as Allocate nodes carrying a fresher shape for an already-known
// buffer are encountered.
type boundChecker struct {
	bounds map[*ir.Variable]ir.Expr

	processStore    bool
	unsafeRewritten bool
	collected       []boundPair
}

// InstrumentBoundCheckers collects every buffer_bound annotation in stmt,
// then rewrites each Store against a buffer with a known shape into a
// range-checked conditional write.
func InstrumentBoundCheckers(stmt ir.Stmt) (result ir.Stmt, err error) {
	defer passerr.Recover(&err)
	bounds := CollectBounds(stmt)
	passlog.Debugf("boundcheck: collected %d buffer bound(s)", len(bounds))
	b := &boundChecker{bounds: bounds}
	return b.stmt(stmt), nil
}

func (b *boundChecker) stmt(s ir.Stmt) ir.Stmt {
	switch n := s.(type) {
	case nil:
		return nil
	case *ir.LetStmt:
		b.visitExpr(n.Value)
		body := b.stmt(n.Body)
		if body == n.Body {
			return n
		}
		return &ir.LetStmt{Var: n.Var, Value: n.Value, Body: body}
	case *ir.Store:
		return b.visitStore(n)
	case *ir.For:
		b.visitExpr(n.Min)
		b.visitExpr(n.Extent)
		body := b.stmt(n.Body)
		if body == n.Body {
			return n
		}
		return &ir.For{Loop: n.Loop, Min: n.Min, Extent: n.Extent, Kind: n.Kind, Device: n.Device, Body: body}
	case *ir.Evaluate:
		b.visitExpr(n.Value)
		return n
	case *ir.Allocate:
		if _, known := b.bounds[n.Buffer]; known {
			b.updateBound(n.Buffer, n.Extents, n.Dtype)
		}
		for _, e := range n.Extents {
			b.visitExpr(e)
		}
		b.visitExpr(n.Condition)
		if n.NewExpr != nil {
			b.visitExpr(n.NewExpr)
		}
		body := b.stmt(n.Body)
		if body == n.Body {
			return n
		}
		return &ir.Allocate{
			Buffer: n.Buffer, Dtype: n.Dtype, Extents: n.Extents,
			Condition: n.Condition, Body: body, NewExpr: n.NewExpr, FreeFn: n.FreeFn,
		}
	case *ir.AttrStmt:
		b.visitExpr(n.Value)
		body := b.stmt(n.Body)
		if body == n.Body {
			return n
		}
		return &ir.AttrStmt{Node: n.Node, Key: n.Key, Value: n.Value, Body: body}
	case *ir.IfThenElse:
		b.visitExpr(n.Cond)
		then := b.stmt(n.Then)
		els := b.stmt(n.Else)
		if then == n.Then && els == n.Else {
			return n
		}
		return &ir.IfThenElse{Cond: n.Cond, Then: then, Else: els}
	case *ir.Block:
		first := b.stmt(n.First)
		rest := b.stmt(n.Rest)
		if first == n.First && rest == n.Rest {
			return n
		}
		return &ir.Block{First: first, Rest: rest}
	case *ir.AssertStmt:
		b.visitExpr(n.Cond)
		b.visitExpr(n.Msg)
		body := b.stmt(n.Body)
		if body == n.Body {
			return n
		}
		return &ir.AssertStmt{Cond: n.Cond, Msg: n.Msg, Body: body}
	case *ir.Provide:
		b.visitExpr(n.Value)
		b.visitExpr(n.Index)
		return n
	default:
		return s
	}
}

// visitStore recurses into a Store's value/index/predicate purely for the
// Load-collecting and unsafe-call-detecting side effects of visitExpr (this
// pass never rewrites an expression tree), then decides whether the
// store's own index is instrumentable and, if any bound obligations were
// collected, wraps the store in a guarded conditional.
func (b *boundChecker) visitStore(n *ir.Store) ir.Stmt {
	b.collected = b.collected[:0]
	b.processStore = true
	b.unsafeRewritten = false
	b.visitExpr(n.Value)
	b.visitExpr(n.Index)
	b.visitExpr(n.Predicate)
	b.processStore = false

	if b.canInstrument(n.Index, n.Buffer) {
		b.collect(n.Index, n.Buffer)
	}
	if len(b.collected) == 0 {
		return n
	}
	cond := b.makeCondition()
	if _, isLiteral := cond.(*ir.StringImm); isLiteral {
		return n
	}
	nop := &ir.Evaluate{Value: ir.MakeConst(ir.Int32(), 1)}
	elseCase := &ir.AssertStmt{Cond: cond, Msg: &ir.StringImm{Value: outOfBoundsMessage}, Body: nop}
	return &ir.IfThenElse{Cond: cond, Then: n, Else: elseCase}
}

// visitExpr walks an expression purely for side effects: collecting Load
// bound obligations and flagging an unsafe tvm_if_then_else inside a
// store's value. It never constructs a replacement node.
func (b *boundChecker) visitExpr(e ir.Expr) {
	switch n := e.(type) {
	case nil:
		return
	case *ir.Variable, *ir.IntImm, *ir.StringImm:
		return
	case *ir.Load:
		if b.canInstrument(n.Index, n.Buffer) {
			b.collect(n.Index, n.Buffer)
		}
		b.visitExpr(n.Index)
		b.visitExpr(n.Predicate)
	case *ir.Call:
		if b.processStore && n.IsIntrinsic(ir.IntrinsicIfThenElse) {
			b.unsafeRewritten = true
		}
		for _, a := range n.Args {
			b.visitExpr(a)
		}
	case *ir.Ramp:
		b.visitExpr(n.Base)
		b.visitExpr(n.Stride)
	case *ir.Add:
		b.visitExpr(n.A)
		b.visitExpr(n.B)
	case *ir.Mul:
		b.visitExpr(n.A)
		b.visitExpr(n.B)
	case *ir.Div:
		b.visitExpr(n.A)
		b.visitExpr(n.B)
	case *ir.GE:
		b.visitExpr(n.A)
		b.visitExpr(n.B)
	case *ir.LT:
		b.visitExpr(n.A)
		b.visitExpr(n.B)
	case *ir.And:
		b.visitExpr(n.A)
		b.visitExpr(n.B)
	case *ir.Cast:
		b.visitExpr(n.Value)
	}
}

func (b *boundChecker) canInstrument(index ir.Expr, buffer *ir.Variable) bool {
	if buffer == nil {
		return false
	}
	if _, known := b.bounds[buffer]; !known {
		return false
	}
	return indexIsValid(index) && !b.unsafeRewritten
}

func indexIsValid(index ir.Expr) bool {
	if index == nil {
		return false
	}
	if ramp, ok := index.(*ir.Ramp); ok {
		return ramp.Base != nil && ramp.Base.Type().IsScalar() &&
			ramp.Stride != nil && ramp.Stride.Type().IsScalar() &&
			ramp.Lanes > 0
	}
	return true
}

func (b *boundChecker) collect(index ir.Expr, buffer *ir.Variable) {
	b.collected = append(b.collected, boundPair{index: index, upperBound: b.bounds[buffer]})
}

// makeCondition builds the conjunction of range checks for every bound
// obligation collected for one store: a Ramp index is reduced to its
// highest accessed element (base + stride*(lanes-1)) before the comparison,
// both sides are simplified and cast to a common signed width, and the
// per-index conditions are chained with And.
func (b *boundChecker) makeCondition() ir.Expr {
	var condition ir.Expr
	for i, pair := range b.collected {
		index := pair.index
		upperBound := pair.upperBound

		if ramp, ok := index.(*ir.Ramp); ok {
			index = &ir.Add{
				A: ramp.Base,
				B: &ir.Mul{A: ramp.Stride, B: ir.MakeConst(ramp.Stride.Type(), int64(ramp.Lanes-1))},
			}
		}

		index = ir.Simplify(index)
		upperBound = ir.Simplify(upperBound)

		index = &ir.Cast{Dtype: ir.Int64(), Value: index}
		upperBound = &ir.Cast{Dtype: ir.Int64(), Value: upperBound}
		lowerBound := ir.MakeZero(ir.Int64())

		current := &ir.And{A: &ir.GE{A: index, B: lowerBound}, B: &ir.LT{A: index, B: upperBound}}
		if i == 0 {
			condition = current
		} else {
			condition = &ir.And{A: condition, B: current}
		}
	}
	return condition
}

// updateBound recomputes a buffer's tracked shape from a fresh Allocate as
// the uint64 product of every extent, each multiplied by dtype.Lanes,
// bailing out (keeping the prior shape) if there are no extents or any
// extent is missing, non-scalar, or a negative constant.
func (b *boundChecker) updateBound(buffer *ir.Variable, newShape []ir.Expr, dtype ir.DataType) {
	if len(newShape) == 0 {
		return
	}
	for _, e := range newShape {
		if e == nil || !e.Type().IsScalar() || ir.IsNegativeConst(e) {
			return
		}
	}

	lanes := ir.MakeConst(ir.UInt64(), int64(dtype.Lanes))
	shape := ir.Expr(&ir.Mul{A: lanes, B: &ir.Cast{Dtype: ir.UInt64(), Value: newShape[0]}})
	for i := 1; i < len(newShape); i++ {
		shape = &ir.Mul{A: shape, B: &ir.Mul{A: lanes, B: &ir.Cast{Dtype: ir.UInt64(), Value: newShape[i]}}}
	}
	b.bounds[buffer] = shape
}
