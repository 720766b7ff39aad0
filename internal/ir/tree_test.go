package ir

import "testing"

func TestDataType_WithLanesAndScalar(t *testing.T) {
	base := Int32()
	if !base.IsScalar() {
		t.Fatal("Int32() should be scalar")
	}
	vec := base.WithLanes(4)
	if vec.IsScalar() {
		t.Fatal("4-lane type should not be scalar")
	}
	if vec.String() != "int32x4" {
		t.Fatalf("unexpected String(): %q", vec.String())
	}
	if base.String() != "int32" {
		t.Fatalf("unexpected String(): %q", base.String())
	}
}

func TestRamp_TypeCarriesLanes(t *testing.T) {
	base := NewVariable("i", Int32())
	ramp := &Ramp{Base: base, Stride: MakeConst(Int32(), 1), Lanes: 4}
	if ramp.Type().Lanes != 4 {
		t.Fatalf("expected 4 lanes, got %d", ramp.Type().Lanes)
	}
}

func TestVariable_IdentityIsPointer(t *testing.T) {
	a := NewVariable("x", Int32())
	b := NewVariable("x", Int32())
	if a == b {
		t.Fatal("two NewVariable calls with the same name must be distinct identities")
	}
}

func TestCall_IsIntrinsic(t *testing.T) {
	c := NewContextID()
	if !c.IsIntrinsic(IntrinsicContextID) {
		t.Fatal("expected tvm_context_id call to report as that intrinsic")
	}
	if c.IsIntrinsic(IntrinsicAccessPtr) {
		t.Fatal("tvm_context_id must not report as tvm_access_ptr")
	}
	extern := &Call{Name: IntrinsicContextID, CallType: CallExtern}
	if extern.IsIntrinsic(IntrinsicContextID) {
		t.Fatal("an extern call sharing the intrinsic's name must not count as that intrinsic")
	}
}

func TestPrint_RendersStoreAndLoop(t *testing.T) {
	a := NewVariable("A", Scalar(Int, 32))
	i := NewVariable("i", Int32())
	loop := &For{
		Loop: i, Min: MakeZero(Int32()), Extent: MakeConst(Int32(), 8), Kind: ForSerial,
		Body: &Store{Buffer: a, Value: MakeConst(Int32(), 1), Index: i},
	}
	out := Print(loop)
	if out == "" {
		t.Fatal("expected non-empty output")
	}
}
