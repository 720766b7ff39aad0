package ssa

import (
	"testing"

	"github.com/RichieZhu26/incubator-tvm/internal/ir"
)

func TestConvertSSA_RenamesDuplicatedLetBinder(t *testing.T) {
	v := ir.NewVariable("v", ir.Int32())
	a := ir.NewVariable("A", ir.Scalar(ir.Int, 32))
	// Two sibling LetStmts share the same *Variable identity, as an unrolled
	// vthread block would produce if it didn't substitute a fresh binder per
	// copy.
	first := &ir.LetStmt{Var: v, Value: ir.MakeZero(ir.Int32()), Body: &ir.Store{Buffer: a, Value: v, Index: v}}
	second := &ir.LetStmt{Var: v, Value: ir.MakeConst(ir.Int32(), 1), Body: &ir.Store{Buffer: a, Value: v, Index: v}}
	block := &ir.Block{First: first, Rest: second}

	out := ConvertSSA(block).(*ir.Block)

	firstLet := out.First.(*ir.LetStmt)
	secondLet := out.Rest.(*ir.LetStmt)

	if firstLet.Var != v {
		t.Fatalf("first occurrence should keep its original identity")
	}
	if secondLet.Var == v {
		t.Fatal("second occurrence must be renamed to a fresh identity")
	}
	if secondLet.Var.Name != v.Name {
		t.Fatalf("renamed variable should keep the same display name, got %q", secondLet.Var.Name)
	}

	secondStore := secondLet.Body.(*ir.Store)
	if secondStore.Value != ir.Expr(secondLet.Var) {
		t.Fatal("uses inside the second binder's body must be rewritten to the fresh identity")
	}
}

func TestConvertSSA_NoChangeReturnsIdenticalTree(t *testing.T) {
	v := ir.NewVariable("v", ir.Int32())
	a := ir.NewVariable("A", ir.Scalar(ir.Int, 32))
	let := &ir.LetStmt{Var: v, Value: ir.MakeZero(ir.Int32()), Body: &ir.Store{Buffer: a, Value: v, Index: v}}

	out := ConvertSSA(let)
	if out != ir.Stmt(let) {
		t.Fatalf("a tree with no duplicated binder should be returned unchanged")
	}
}
