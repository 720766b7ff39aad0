package main

import (
	"github.com/RichieZhu26/incubator-tvm/internal/boundcheck"
	"github.com/RichieZhu26/incubator-tvm/internal/ir"
	"github.com/RichieZhu26/incubator-tvm/internal/vthread"
)

// example is one built-in program the inspector (and the plain CLI) can run
// a pass over. pass names which driver applies: "vthread" or "boundcheck".
type example struct {
	name string
	pass string
	desc string
	// build returns a fresh IR tree each call. The passes never mutate their
	// input, but their output shares unchanged subtrees with it, so a fresh
	// tree keeps one run's nodes out of another run's input.
	build func() ir.Stmt
}

// catalog holds six small, representative IR programs covering the vthread
// unroll/serialize/privatize paths and the scalar/vector/unsafe bound-check
// paths, built directly against the ir package constructors rather than any
// parser (there is no front-end in scope for this module).
var catalog = []example{
	{
		name: "unroll-small-vthread",
		pass: "vthread",
		desc: "2-thread shared vthread scope over a vt-indexed store unrolls into a Block chain",
		build: func() ir.Stmt {
			vt := ir.NewVariable("vt", ir.Int32())
			a := ir.NewVariable("A", ir.Scalar(ir.Handle, 32))
			store := &ir.Store{Buffer: a, Value: ir.MakeConst(ir.Int32(), 42), Index: vt}
			return &ir.AttrStmt{
				Node:  &ir.IterVar{Var: vt, ThreadTag: ir.ThreadTagShared},
				Key:   ir.AttrVirtualThread,
				Value: ir.MakeConst(ir.Int32(), 2),
				Body:  store,
			}
		},
	},
	{
		name: "force-loop-large-count",
		pass: "vthread",
		desc: "32-thread vthread scope lowers to a serial For instead of unrolling",
		build: func() ir.Stmt {
			vt := ir.NewVariable("vt", ir.Int32())
			a := ir.NewVariable("A", ir.Scalar(ir.Handle, 32))
			store := &ir.Store{Buffer: a, Value: ir.MakeConst(ir.Int32(), 42), Index: vt}
			return &ir.AttrStmt{
				Node:  &ir.IterVar{Var: vt, ThreadTag: ir.ThreadTagShared},
				Key:   ir.AttrVirtualThread,
				Value: ir.MakeConst(ir.Int32(), 32),
				Body:  store,
			}
		},
	},
	{
		name: "private-buffer",
		pass: "vthread",
		desc: "non-shareable thread tag privatizes an inner Allocate by hoisting an outer num_threads dimension",
		build: func() ir.Stmt {
			vt := ir.NewVariable("vt", ir.Int32())
			b := ir.NewVariable("B", ir.Scalar(ir.Int, 32))
			x := ir.NewVariable("x", ir.Int32())
			inner := &ir.Store{Buffer: b, Value: x, Index: ir.MakeZero(ir.Int32())}
			alloc := &ir.Allocate{
				Buffer:  b,
				Dtype:   ir.Scalar(ir.Int, 32),
				Extents: []ir.Expr{ir.MakeConst(ir.Int32(), 4)},
				Body:    inner,
			}
			return &ir.AttrStmt{
				Node:  &ir.IterVar{Var: vt, ThreadTag: "cthread"},
				Key:   ir.AttrVirtualThread,
				Value: ir.MakeConst(ir.Int32(), 4),
				Body:  alloc,
			}
		},
	},
	{
		name: "bound-check-wrap",
		pass: "boundcheck",
		desc: "a scalar Store against an announced buffer_bound gets wrapped in a range-check guard",
		build: func() ir.Stmt {
			a := ir.NewVariable("A", ir.Scalar(ir.Int, 32))
			i := ir.NewVariable("i", ir.Int32())
			v := ir.NewVariable("v", ir.Int32())
			store := &ir.Store{Buffer: a, Value: v, Index: i}
			return &ir.AttrStmt{
				Node:  a,
				Key:   ir.AttrBufferBound,
				Value: ir.MakeConst(ir.Int32(), 128),
				Body:  store,
			}
		},
	},
	{
		name: "ramp-bound-check",
		pass: "boundcheck",
		desc: "a 4-lane Ramp index checks its maximum lane (base + stride*3) against the upper bound",
		build: func() ir.Stmt {
			a := ir.NewVariable("A", ir.Scalar(ir.Int, 32))
			i := ir.NewVariable("i", ir.Int32())
			v := ir.NewVariable("v", ir.Scalar(ir.Int, 32).WithLanes(4))
			ramp := &ir.Ramp{Base: i, Stride: ir.MakeConst(ir.Int32(), 1), Lanes: 4}
			store := &ir.Store{Buffer: a, Value: v, Index: ramp}
			return &ir.AttrStmt{
				Node:  a,
				Key:   ir.AttrBufferBound,
				Value: ir.MakeConst(ir.Int32(), 128),
				Body:  store,
			}
		},
	},
	{
		name: "unsafe-select-skip",
		pass: "boundcheck",
		desc: "tvm_if_then_else in the stored value marks the store unsafe; it is emitted unwrapped",
		build: func() ir.Stmt {
			a := ir.NewVariable("A", ir.Scalar(ir.Int, 32))
			i := ir.NewVariable("i", ir.Int32())
			cond := &ir.LT{A: i, B: ir.MakeConst(ir.Int32(), 64)}
			sel := ir.NewIfThenElse(ir.Int32(), cond, ir.MakeConst(ir.Int32(), 1), ir.MakeConst(ir.Int32(), 0))
			store := &ir.Store{Buffer: a, Value: sel, Index: i}
			return &ir.AttrStmt{
				Node:  a,
				Key:   ir.AttrBufferBound,
				Value: ir.MakeConst(ir.Int32(), 128),
				Body:  store,
			}
		},
	},
}

func findExample(name string) (example, bool) {
	for _, ex := range catalog {
		if ex.name == name {
			return ex, true
		}
	}
	return example{}, false
}

// runPass applies the pass named by ex.pass to stmt.
func runPass(ex example, stmt ir.Stmt) (ir.Stmt, error) {
	switch ex.pass {
	case "vthread":
		return vthread.InjectVirtualThread(stmt)
	case "boundcheck":
		return boundcheck.InstrumentBoundCheckers(stmt)
	default:
		return stmt, nil
	}
}
