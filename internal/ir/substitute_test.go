package ir

import "testing"

func TestSubstitute_ReplacesFreeVariable(t *testing.T) {
	v := NewVariable("v", Int32())
	a := NewVariable("A", Scalar(Int, 32))
	store := &Store{Buffer: a, Value: v, Index: v}

	out := Substitute(store, map[*Variable]Expr{v: MakeConst(Int32(), 7)})

	s, ok := out.(*Store)
	if !ok {
		t.Fatalf("expected *Store, got %T", out)
	}
	if n, ok := GetConstInt(s.Value); !ok || n != 7 {
		t.Fatalf("value not substituted: %#v", s.Value)
	}
	if n, ok := GetConstInt(s.Index); !ok || n != 7 {
		t.Fatalf("index not substituted: %#v", s.Index)
	}
}

func TestSubstitute_NoChangeReturnsIdenticalNode(t *testing.T) {
	v := NewVariable("v", Int32())
	other := NewVariable("other", Int32())
	a := NewVariable("A", Scalar(Int, 32))
	store := &Store{Buffer: a, Value: other, Index: other}

	out := Substitute(store, map[*Variable]Expr{v: MakeConst(Int32(), 7)})

	if out != Stmt(store) {
		t.Fatalf("expected physical identity preserved when nothing changed")
	}
}

func TestSubstitute_StopsAtRebinding(t *testing.T) {
	v := NewVariable("v", Int32())
	// A free use of v, followed by a LetStmt that rebinds the same identity.
	body := &LetStmt{Var: v, Value: MakeConst(Int32(), 1), Body: &Evaluate{Value: v}}
	outer := &Block{First: &Evaluate{Value: v}, Rest: body}

	// Substituting v rewrites the free use but not the rebound inner uses.
	out := Substitute(outer, map[*Variable]Expr{v: MakeConst(Int32(), 99)})
	blk, ok := out.(*Block)
	if !ok {
		t.Fatalf("expected *Block, got %T", out)
	}
	if n, ok := GetConstInt(blk.First.(*Evaluate).Value); !ok || n != 99 {
		t.Fatalf("expected the free use substituted, got %#v", blk.First)
	}
	innerLet := blk.Rest.(*LetStmt)
	eval := innerLet.Body.(*Evaluate)
	if eval.Value != Expr(v) {
		t.Fatalf("expected inner use of shadowed var left alone, got %#v", eval.Value)
	}
}

func TestSubstituteExpr_RewritesNestedUse(t *testing.T) {
	v := NewVariable("v", Int32())
	expr := &Add{A: v, B: MakeConst(Int32(), 1)}

	out := SubstituteExpr(expr, map[*Variable]Expr{v: MakeConst(Int32(), 4)})

	add, ok := out.(*Add)
	if !ok {
		t.Fatalf("expected *Add, got %T", out)
	}
	if n, ok := GetConstInt(add.A); !ok || n != 4 {
		t.Fatalf("A not substituted: %#v", add.A)
	}
}
