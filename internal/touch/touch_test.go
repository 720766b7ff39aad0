package touch

import (
	"testing"

	"github.com/RichieZhu26/incubator-tvm/internal/ir"
)

func TestTouchedVar_DirectStoreIndex(t *testing.T) {
	vt := ir.NewVariable("vt", ir.Int32())
	a := ir.NewVariable("A", ir.Scalar(ir.Int, 32))
	store := &ir.Store{Buffer: a, Value: ir.MakeConst(ir.Int32(), 42), Index: vt}

	touched := TouchedVar(store, vt)
	if !touched.Has(a) {
		t.Fatal("buffer written with a vt-derived index should be touched")
	}
}

func TestTouchedVar_UntouchedStoreStaysUntouched(t *testing.T) {
	vt := ir.NewVariable("vt", ir.Int32())
	a := ir.NewVariable("A", ir.Scalar(ir.Int, 32))
	store := &ir.Store{Buffer: a, Value: ir.MakeConst(ir.Int32(), 42), Index: ir.MakeZero(ir.Int32())}

	touched := TouchedVar(store, vt)
	if touched.Has(a) {
		t.Fatal("buffer written with a constant index must not be touched")
	}
}

func TestTouchedVar_PropagatesThroughLet(t *testing.T) {
	vt := ir.NewVariable("vt", ir.Int32())
	x := ir.NewVariable("x", ir.Int32())
	a := ir.NewVariable("A", ir.Scalar(ir.Int, 32))
	body := &ir.LetStmt{
		Var:   x,
		Value: &ir.Add{A: vt, B: ir.MakeConst(ir.Int32(), 1)},
		Body:  &ir.Store{Buffer: a, Value: ir.MakeConst(ir.Int32(), 0), Index: x},
	}

	touched := TouchedVar(body, vt)
	if !touched.Has(x) {
		t.Fatal("x reads vt directly, so x must be touched")
	}
	if !touched.Has(a) {
		t.Fatal("A is indexed by touched x, so A must be touched transitively")
	}
}

func TestTouchedVar_TransitiveClosureThroughAffectGraph(t *testing.T) {
	// A is written from a load of B before B is known to be touched:
	// A[0] = B[0]; B[vt] = 0. The walk only records A in affect[B]; the
	// worklist closure is what carries the touch from B to A.
	vt := ir.NewVariable("vt", ir.Int32())
	a := ir.NewVariable("A", ir.Scalar(ir.Int, 32))
	b := ir.NewVariable("B", ir.Scalar(ir.Int, 32))

	body := &ir.Block{
		First: &ir.Store{
			Buffer: a,
			Value:  &ir.Load{Dtype: ir.Int32(), Buffer: b, Index: ir.MakeZero(ir.Int32())},
			Index:  ir.MakeZero(ir.Int32()),
		},
		Rest: &ir.Store{Buffer: b, Value: ir.MakeConst(ir.Int32(), 0), Index: vt},
	}

	touched := TouchedVar(body, vt)
	for _, v := range []*ir.Variable{b, a} {
		if !touched.Has(v) {
			t.Fatalf("%s should be transitively touched", v.Name)
		}
	}
}

func TestTouchedVar_AccessPtrWriteBitPropagatesTouch(t *testing.T) {
	vt := ir.NewVariable("vt", ir.Int32())
	a := ir.NewVariable("A", ir.Scalar(ir.Int, 32))
	ptr := ir.NewAccessPtr(ir.Scalar(ir.Int, 32), a, vt, ir.MakeConst(ir.Int32(), 1), ir.AccessPtrWrite)
	body := &ir.Evaluate{Value: ptr}

	touched := TouchedVar(body, vt)
	if !touched.Has(a) {
		t.Fatal("tvm_access_ptr with the write bit set should mark its buffer touched")
	}
}

func TestTouchedVar_AccessPtrReadOnlyDoesNotWrite(t *testing.T) {
	vt := ir.NewVariable("vt", ir.Int32())
	a := ir.NewVariable("A", ir.Scalar(ir.Int, 32))
	b := ir.NewVariable("B", ir.Scalar(ir.Int, 32))
	ptr := ir.NewAccessPtr(ir.Scalar(ir.Int, 32), a, ir.MakeZero(ir.Int32()), ir.MakeConst(ir.Int32(), 1), ir.AccessPtrRead)
	// b is defined from reading a read-only access_ptr into A: B is not
	// touched unless A itself is already touched, independent of vt.
	body := &ir.LetStmt{Var: b, Value: ptr, Body: &ir.Evaluate{Value: vt}}

	touched := TouchedVar(body, vt)
	if touched.Has(b) {
		t.Fatal("a read-only access_ptr into an untouched buffer must not touch its definition")
	}
}

func TestTouchedVar_Idempotent(t *testing.T) {
	vt := ir.NewVariable("vt", ir.Int32())
	x := ir.NewVariable("x", ir.Int32())
	a := ir.NewVariable("A", ir.Scalar(ir.Int, 32))
	body := &ir.LetStmt{
		Var:   x,
		Value: vt,
		Body:  &ir.Store{Buffer: a, Value: ir.MakeConst(ir.Int32(), 0), Index: x},
	}

	first := TouchedVar(body, vt)
	second := TouchedVar(body, vt)
	if len(first) != len(second) {
		t.Fatalf("repeating analysis on the same input should reach the same fixed point: %d vs %d", len(first), len(second))
	}
	for v := range first {
		if !second.Has(v) {
			t.Fatalf("%s present in first run but not second", v.Name)
		}
	}
}
