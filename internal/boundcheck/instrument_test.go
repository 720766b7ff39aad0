package boundcheck

import (
	"testing"

	"github.com/RichieZhu26/incubator-tvm/internal/ir"
)

func boundScope(buf *ir.Variable, bound int64, body ir.Stmt) *ir.AttrStmt {
	return &ir.AttrStmt{Node: buf, Key: ir.AttrBufferBound, Value: ir.MakeConst(ir.Int32(), bound), Body: body}
}

// TestInstrumentBoundCheckers_WrapsScalarStore checks that a scalar store
// against a bounded buffer is wrapped in a guarded IfThenElse/AssertStmt.
func TestInstrumentBoundCheckers_WrapsScalarStore(t *testing.T) {
	a := ir.NewVariable("A", ir.Scalar(ir.Int, 32))
	i := ir.NewVariable("i", ir.Int32())
	v := ir.NewVariable("v", ir.Int32())
	store := &ir.Store{Buffer: a, Value: v, Index: i}
	scope := boundScope(a, 128, store)

	out, err := InstrumentBoundCheckers(scope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	attr := out.(*ir.AttrStmt)
	ite, ok := attr.Body.(*ir.IfThenElse)
	if !ok {
		t.Fatalf("expected *ir.IfThenElse wrapping the store, got %T", attr.Body)
	}
	if ite.Then != ir.Stmt(store) {
		t.Fatalf("true branch must be the original store by identity")
	}
	assertStmt, ok := ite.Else.(*ir.AssertStmt)
	if !ok {
		t.Fatalf("expected *ir.AssertStmt in the false branch, got %T", ite.Else)
	}
	msg, ok := assertStmt.Msg.(*ir.StringImm)
	if !ok || msg.Value != "OUT OF THE BOUNDS" {
		t.Fatalf("expected the literal OUT OF THE BOUNDS message, got %#v", assertStmt.Msg)
	}
	and, ok := ite.Cond.(*ir.And)
	if !ok {
		t.Fatalf("expected a conjunction condition, got %#v", ite.Cond)
	}
	if _, ok := and.A.(*ir.GE); !ok {
		t.Fatalf("expected lower-bound GE check, got %#v", and.A)
	}
	if _, ok := and.B.(*ir.LT); !ok {
		t.Fatalf("expected upper-bound LT check, got %#v", and.B)
	}
}

// TestInstrumentBoundCheckers_RampChecksMaxLane checks that a vectorized
// Ramp index is bound-checked against its maximum lane, not its base.
func TestInstrumentBoundCheckers_RampChecksMaxLane(t *testing.T) {
	a := ir.NewVariable("A", ir.Scalar(ir.Int, 32))
	i := ir.NewVariable("i", ir.Int32())
	v := ir.NewVariable("v", ir.Scalar(ir.Int, 32).WithLanes(4))
	ramp := &ir.Ramp{Base: i, Stride: ir.MakeConst(ir.Int32(), 1), Lanes: 4}
	store := &ir.Store{Buffer: a, Value: v, Index: ramp}
	scope := boundScope(a, 128, store)

	out, err := InstrumentBoundCheckers(scope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	attr := out.(*ir.AttrStmt)
	ite, ok := attr.Body.(*ir.IfThenElse)
	if !ok {
		t.Fatalf("expected *ir.IfThenElse wrapping the store, got %T", attr.Body)
	}
	if ite.Then != ir.Stmt(store) {
		t.Fatalf("true branch must be the original (unmodified) store")
	}
	and := ite.Cond.(*ir.And)
	lt := and.B.(*ir.LT)
	// The checked index should be a cast of (base + stride*(lanes-1)), not a
	// cast of the bare Ramp.
	cast, ok := lt.A.(*ir.Cast)
	if !ok {
		t.Fatalf("expected cast of the max-lane index, got %#v", lt.A)
	}
	if _, ok := cast.Value.(*ir.Ramp); ok {
		t.Fatalf("checked index must not still be a Ramp: %#v", cast.Value)
	}
}

// TestInstrumentBoundCheckers_SkipsUnsafeSelectStore checks that a store
// already guarded by an unsafe Select/IfThenElse is left unwrapped.
func TestInstrumentBoundCheckers_SkipsUnsafeSelectStore(t *testing.T) {
	a := ir.NewVariable("A", ir.Scalar(ir.Int, 32))
	i := ir.NewVariable("i", ir.Int32())
	cond := &ir.LT{A: i, B: ir.MakeConst(ir.Int32(), 64)}
	sel := ir.NewIfThenElse(ir.Int32(), cond, ir.MakeConst(ir.Int32(), 1), ir.MakeConst(ir.Int32(), 0))
	store := &ir.Store{Buffer: a, Value: sel, Index: i}
	scope := boundScope(a, 128, store)

	out, err := InstrumentBoundCheckers(scope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	attr := out.(*ir.AttrStmt)
	if attr.Body != ir.Stmt(store) {
		t.Fatalf("expected the unsafe store emitted unwrapped by identity, got %#v", attr.Body)
	}
}

func TestInstrumentBoundCheckers_SkipsUnknownBuffer(t *testing.T) {
	a := ir.NewVariable("A", ir.Scalar(ir.Int, 32))
	i := ir.NewVariable("i", ir.Int32())
	store := &ir.Store{Buffer: a, Value: ir.MakeConst(ir.Int32(), 0), Index: i}

	out, err := InstrumentBoundCheckers(store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != ir.Stmt(store) {
		t.Fatalf("a store against a buffer with no announced bound must pass through unchanged")
	}
}

func TestInstrumentBoundCheckers_AllocateRedeclaresShape(t *testing.T) {
	a := ir.NewVariable("A", ir.Scalar(ir.Int, 32))
	i := ir.NewVariable("i", ir.Int32())
	store := &ir.Store{Buffer: a, Value: ir.MakeConst(ir.Int32(), 0), Index: i}
	alloc := &ir.Allocate{
		Buffer: a, Dtype: ir.Scalar(ir.Int, 32),
		Extents: []ir.Expr{ir.MakeConst(ir.Int32(), 16), ir.MakeConst(ir.Int32(), 8)},
		Body:    store,
	}
	scope := boundScope(a, 128, alloc)

	out, err := InstrumentBoundCheckers(scope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	attr := out.(*ir.AttrStmt)
	newAlloc := attr.Body.(*ir.Allocate)
	_, ok := newAlloc.Body.(*ir.IfThenElse)
	if !ok {
		t.Fatalf("expected the store to be instrumented against the redeclared shape, got %T", newAlloc.Body)
	}
}

func TestCollectBounds_ReadsBufferBoundAttrs(t *testing.T) {
	a := ir.NewVariable("A", ir.Scalar(ir.Int, 32))
	body := boundScope(a, 128, &ir.Evaluate{Value: ir.MakeZero(ir.Int32())})

	bounds := CollectBounds(body)
	if len(bounds) != 1 {
		t.Fatalf("expected 1 collected bound, got %d", len(bounds))
	}
	n, ok := ir.GetConstInt(bounds[a])
	if !ok || n != 128 {
		t.Fatalf("expected bound 128 for A, got %#v", bounds[a])
	}
}
