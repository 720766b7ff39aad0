package vthread

import (
	"github.com/RichieZhu26/incubator-tvm/internal/ir"
	"github.com/RichieZhu26/incubator-tvm/internal/passerr"
	"github.com/RichieZhu26/incubator-tvm/internal/passlog"
	"github.com/RichieZhu26/incubator-tvm/internal/ssa"
	"github.com/RichieZhu26/incubator-tvm/internal/touch"
)

// maxUnrollThreads is the cutoff below which a vthread scope is unrolled
// into a Block chain instead of lowered to a serial For loop.
const maxUnrollThreads = 16

// InjectVirtualThread finds every virtual_thread-annotated scope in stmt and
// lowers it to either an unrolled block sequence or a serial loop, then
// hands the result to ConvertSSA to rename the binders the unrolling step
// duplicated.
func InjectVirtualThread(stmt ir.Stmt) (result ir.Stmt, err error) {
	defer passerr.Recover(&err)
	rewritten := (&virtualThreadInjector{}).stmt(stmt)
	return ssa.ConvertSSA(rewritten), nil
}

// virtualThreadInjector walks the whole tree looking for virtual_thread
// AttrStmt scopes. It recurses into every statement's children (but never
// into expressions, mirroring a plain statement mutator) so nested vthread
// scopes are lowered innermost-first: by the time a given AttrStmt is
// checked, its body has already had any nested scopes rewritten.
type virtualThreadInjector struct{}

func (m *virtualThreadInjector) stmt(s ir.Stmt) ir.Stmt {
	switch n := s.(type) {
	case nil:
		return nil
	case *ir.LetStmt:
		body := m.stmt(n.Body)
		if body == n.Body {
			return n
		}
		return &ir.LetStmt{Var: n.Var, Value: n.Value, Body: body}
	case *ir.Store:
		return n
	case *ir.For:
		body := m.stmt(n.Body)
		if body == n.Body {
			return n
		}
		return &ir.For{Loop: n.Loop, Min: n.Min, Extent: n.Extent, Kind: n.Kind, Device: n.Device, Body: body}
	case *ir.Evaluate:
		return n
	case *ir.Allocate:
		body := m.stmt(n.Body)
		if body == n.Body {
			return n
		}
		return &ir.Allocate{
			Buffer: n.Buffer, Dtype: n.Dtype, Extents: n.Extents,
			Condition: n.Condition, Body: body, NewExpr: n.NewExpr, FreeFn: n.FreeFn,
		}
	case *ir.AttrStmt:
		body := m.stmt(n.Body)
		if n.Key == ir.AttrVirtualThread {
			iv, ok := n.Node.(*ir.IterVar)
			if !ok {
				passerr.Panic(passerr.PhaseInject, passerr.KindUnbalancedVisit, n.Key, "virtual_thread attribute node is not an IterVar")
			}
			nthread, ok := ir.GetConstInt(n.Value)
			if !ok {
				passerr.Panic(passerr.PhaseInject, passerr.KindUnbalancedVisit, n.Key, "virtual_thread attribute value is not a constant thread count")
			}
			allowShare := iv.ThreadTag == ir.ThreadTagShared
			touched := touch.TouchedVar(body, iv.Var)
			passlog.Debugf("vthread: injecting %s threads=%d share=%v", iv.Var.Name, nthread, allowShare)
			injector := newVTInjector(iv.Var, int(nthread), touched, allowShare)
			return injector.VisitStmt(body)
		}
		if body == n.Body {
			return n
		}
		return &ir.AttrStmt{Node: n.Node, Key: n.Key, Value: n.Value, Body: body}
	case *ir.IfThenElse:
		then := m.stmt(n.Then)
		els := m.stmt(n.Else)
		if then == n.Then && els == n.Else {
			return n
		}
		return &ir.IfThenElse{Cond: n.Cond, Then: then, Else: els}
	case *ir.Block:
		first := m.stmt(n.First)
		rest := m.stmt(n.Rest)
		if first == n.First && rest == n.Rest {
			return n
		}
		return &ir.Block{First: first, Rest: rest}
	case *ir.AssertStmt:
		body := m.stmt(n.Body)
		if body == n.Body {
			return n
		}
		return &ir.AssertStmt{Cond: n.Cond, Msg: n.Msg, Body: body}
	case *ir.Provide:
		passerr.Panic(passerr.PhaseInject, passerr.KindStorageNotFlattened, n.Buffer.Name, "need to run storage flattening before virtual-thread injection")
		return nil
	default:
		return s
	}
}

// vtInjector lowers a single virtual_thread scope: var ranges over
// [0, numThreads), touched is the set of variables TouchedVar found
// reachable from var, and allowShare decides whether buffers may be shared
// across thread instances or must be privatized by hoisting an outer
// dimension sized numThreads.
//
// vtLoopInjected, visitTouchedVar, and triggerBaseInject are the three
// pieces of mutable state the recursive descent coordinates through: once
// any statement's mutated subtree reads a touched variable, or contains an
// unshareable side effect, the injector stops descending further and wraps
// everything visited so far in the vthread loop.
type vtInjector struct {
	v          *ir.Variable
	numThreads int
	touched    touch.VarSet
	allowShare bool

	vtLoopInjected    bool
	visitTouchedVar   bool
	triggerBaseInject bool
	maxLoopDepth      int

	allocRemap map[*ir.Variable]ir.Expr
}

func newVTInjector(v *ir.Variable, numThreads int, touched touch.VarSet, allowShare bool) *vtInjector {
	return &vtInjector{
		v: v, numThreads: numThreads, touched: touched, allowShare: allowShare,
		allocRemap: map[*ir.Variable]ir.Expr{},
	}
}

// VisitStmt is the single recursive entry point every statement in this
// pass goes through, including from within the node-specific handlers
// below. After the node-specific dispatch returns, a touch or unshareable
// side effect that the dispatch itself did not already resolve is caught
// here and converted into a loop injection around the whole node.
func (t *vtInjector) VisitStmt(s ir.Stmt) ir.Stmt {
	if t.visitTouchedVar {
		passerr.Panic(passerr.PhaseInject, passerr.KindUnbalancedVisit, "", "visit_touched_var set on statement entry")
	}
	stmt := t.dispatch(s)
	if t.visitTouchedVar || t.triggerBaseInject {
		if !t.vtLoopInjected {
			return t.InjectVTLoop(stmt, false)
		}
		t.visitTouchedVar = false
		t.triggerBaseInject = false
	}
	return stmt
}

func (t *vtInjector) dispatch(s ir.Stmt) ir.Stmt {
	switch n := s.(type) {
	case nil:
		return nil
	case *ir.LetStmt:
		value := t.VisitExpr(n.Value)
		if t.visitTouchedVar && !t.vtLoopInjected {
			return t.InjectVTLoop(n, true)
		}
		t.visitTouchedVar = false
		body := t.VisitStmt(n.Body)
		if value == n.Value && body == n.Body {
			return n
		}
		return &ir.LetStmt{Var: n.Var, Value: value, Body: body}
	case *ir.Store:
		value := t.VisitExpr(n.Value)
		index := t.VisitExpr(n.Index)
		var pred ir.Expr
		if n.Predicate != nil {
			pred = t.VisitExpr(n.Predicate)
		}
		if t.touched.Has(n.Buffer) {
			t.visitTouchedVar = true
		}
		t.triggerBaseInject = !t.allowShare
		if stride, ok := t.allocRemap[n.Buffer]; ok {
			return &ir.Store{Buffer: n.Buffer, Value: value, Index: t.rewriteIndex(index, stride), Predicate: pred}
		}
		if value == n.Value && index == n.Index && pred == n.Predicate {
			return n
		}
		return &ir.Store{Buffer: n.Buffer, Value: value, Index: index, Predicate: pred}
	case *ir.For:
		if !ir.IsZero(n.Min) {
			passerr.Panic(passerr.PhaseInject, passerr.KindNonZeroLoopMin, n.Loop.Name, "for loop min must be zero")
		}
		extent := t.VisitExpr(n.Extent)
		if t.visitTouchedVar && !t.vtLoopInjected {
			stmt := t.InjectVTLoop(n, true)
			t.maxLoopDepth++
			return stmt
		}
		t.visitTouchedVar = false
		body := t.VisitStmt(n.Body)
		t.maxLoopDepth++
		if extent == n.Extent && body == n.Body {
			return n
		}
		return &ir.For{Loop: n.Loop, Min: n.Min, Extent: extent, Kind: n.Kind, Device: n.Device, Body: body}
	case *ir.Evaluate:
		t.triggerBaseInject = !t.allowShare
		value := t.VisitExpr(n.Value)
		if value == n.Value {
			return n
		}
		return &ir.Evaluate{Value: value}
	case *ir.AttrStmt:
		value := t.VisitExpr(n.Value)
		if t.visitTouchedVar && !t.vtLoopInjected {
			return t.InjectVTLoop(n, true)
		}
		if !t.allowShare && !t.vtLoopInjected && (n.Key == ir.AttrCoprocUopScope || n.Key == ir.AttrCoprocScope) {
			return t.InjectVTLoop(n, true)
		}
		body := t.VisitStmt(n.Body)
		if value == n.Value && body == n.Body {
			return n
		}
		return &ir.AttrStmt{Node: n.Node, Key: n.Key, Value: value, Body: body}
	case *ir.IfThenElse:
		cond := t.VisitExpr(n.Cond)
		if t.visitTouchedVar && !t.vtLoopInjected {
			return t.InjectVTLoop(n, true)
		}
		t.visitTouchedVar = false
		if t.maxLoopDepth != 0 {
			passerr.Panic(passerr.PhaseInject, passerr.KindNestedControlDepth, "", "conditional statement found below an already-injected vthread loop")
		}
		then := t.VisitStmt(n.Then)
		var els ir.Stmt
		if n.Else != nil {
			saved := t.maxLoopDepth
			t.maxLoopDepth = 0
			els = t.VisitStmt(n.Else)
			if saved > t.maxLoopDepth {
				t.maxLoopDepth = saved
			}
		}
		if cond == n.Cond && then == n.Then && els == n.Else {
			return n
		}
		return &ir.IfThenElse{Cond: cond, Then: then, Else: els}
	case *ir.Block:
		if t.maxLoopDepth != 0 {
			passerr.Panic(passerr.PhaseInject, passerr.KindNestedControlDepth, "", "block statement found below an already-injected vthread loop")
		}
		first := t.VisitStmt(n.First)
		saved := t.maxLoopDepth
		t.maxLoopDepth = 0
		rest := t.VisitStmt(n.Rest)
		if saved > t.maxLoopDepth {
			t.maxLoopDepth = saved
		}
		if first == n.First && rest == n.Rest {
			return n
		}
		return &ir.Block{First: first, Rest: rest}
	case *ir.AssertStmt:
		cond := t.VisitExpr(n.Cond)
		msg := t.VisitExpr(n.Msg)
		body := t.VisitStmt(n.Body)
		if cond == n.Cond && msg == n.Msg && body == n.Body {
			return n
		}
		return &ir.AssertStmt{Cond: cond, Msg: msg, Body: body}
	case *ir.Allocate:
		if n.NewExpr != nil && !t.vtLoopInjected {
			return t.InjectVTLoop(n, true)
		}
		condition := t.VisitExpr(n.Condition)
		if t.visitTouchedVar && !t.vtLoopInjected {
			return t.InjectVTLoop(n, true)
		}

		changed := false
		extents := make([]ir.Expr, len(n.Extents))
		for i, e := range n.Extents {
			ne := t.VisitExpr(e)
			if t.visitTouchedVar && !t.vtLoopInjected {
				return t.InjectVTLoop(n, true)
			}
			if ne != e {
				changed = true
			}
			extents[i] = ne
		}
		t.visitTouchedVar = false

		var body ir.Stmt
		if t.touched.Has(n.Buffer) || !t.allowShare {
			stride := &ir.Mul{A: productOf(n.Extents), B: ir.MakeConst(n.Extents[0].Type(), int64(n.Dtype.Lanes))}
			privatized := make([]ir.Expr, 0, len(extents)+1)
			privatized = append(privatized, ir.MakeConst(n.Extents[0].Type(), int64(t.numThreads)))
			privatized = append(privatized, extents...)
			extents = privatized
			changed = true
			t.allocRemap[n.Buffer] = stride
			body = t.VisitStmt(n.Body)
		} else {
			body = t.VisitStmt(n.Body)
		}
		if !changed && body == n.Body && condition == n.Condition {
			return n
		}
		return &ir.Allocate{
			Buffer: n.Buffer, Dtype: n.Dtype, Extents: extents,
			Condition: condition, Body: body, NewExpr: n.NewExpr, FreeFn: n.FreeFn,
		}
	case *ir.Provide:
		passerr.Panic(passerr.PhaseInject, passerr.KindStorageNotFlattened, n.Buffer.Name, "need to run storage flattening before virtual-thread injection")
		return nil
	default:
		return s
	}
}

// VisitExpr mutates an expression, rewriting a Load/Store-style index when
// its buffer was privatized, setting visitTouchedVar when a touched
// variable is read, and substituting a context-id intrinsic with the
// thread variable itself when sharing is disallowed.
func (t *vtInjector) VisitExpr(e ir.Expr) ir.Expr {
	switch n := e.(type) {
	case nil:
		return nil
	case *ir.Variable:
		if _, remapped := t.allocRemap[n]; remapped {
			passerr.Panic(passerr.PhaseInject, passerr.KindRemappedReference, n.Name, "buffer address may get rewritten in virtual thread")
		}
		if t.touched.Has(n) {
			t.visitTouchedVar = true
		}
		return n
	case *ir.IntImm, *ir.StringImm:
		return n
	case *ir.Load:
		index := t.VisitExpr(n.Index)
		var pred ir.Expr
		if n.Predicate != nil {
			pred = t.VisitExpr(n.Predicate)
		}
		if t.touched.Has(n.Buffer) {
			t.visitTouchedVar = true
		}
		if stride, ok := t.allocRemap[n.Buffer]; ok {
			return &ir.Load{Dtype: n.Dtype, Buffer: n.Buffer, Index: t.rewriteIndex(index, stride), Predicate: pred}
		}
		if index == n.Index && pred == n.Predicate {
			return n
		}
		return &ir.Load{Dtype: n.Dtype, Buffer: n.Buffer, Index: index, Predicate: pred}
	case *ir.Call:
		if n.IsIntrinsic(ir.IntrinsicAccessPtr) {
			return t.visitAccessPtr(n)
		}
		if n.IsIntrinsic(ir.IntrinsicContextID) {
			if t.allowShare {
				return n
			}
			return t.v
		}
		return t.defaultRecurseCall(n)
	case *ir.Ramp:
		base := t.VisitExpr(n.Base)
		stride := t.VisitExpr(n.Stride)
		if base == n.Base && stride == n.Stride {
			return n
		}
		return &ir.Ramp{Base: base, Stride: stride, Lanes: n.Lanes}
	case *ir.Add:
		a, b := t.VisitExpr(n.A), t.VisitExpr(n.B)
		if a == n.A && b == n.B {
			return n
		}
		return &ir.Add{A: a, B: b}
	case *ir.Mul:
		a, b := t.VisitExpr(n.A), t.VisitExpr(n.B)
		if a == n.A && b == n.B {
			return n
		}
		return &ir.Mul{A: a, B: b}
	case *ir.Div:
		a, b := t.VisitExpr(n.A), t.VisitExpr(n.B)
		if a == n.A && b == n.B {
			return n
		}
		return &ir.Div{A: a, B: b}
	case *ir.GE:
		a, b := t.VisitExpr(n.A), t.VisitExpr(n.B)
		if a == n.A && b == n.B {
			return n
		}
		return &ir.GE{A: a, B: b}
	case *ir.LT:
		a, b := t.VisitExpr(n.A), t.VisitExpr(n.B)
		if a == n.A && b == n.B {
			return n
		}
		return &ir.LT{A: a, B: b}
	case *ir.And:
		a, b := t.VisitExpr(n.A), t.VisitExpr(n.B)
		if a == n.A && b == n.B {
			return n
		}
		return &ir.And{A: a, B: b}
	case *ir.Cast:
		v := t.VisitExpr(n.Value)
		if v == n.Value {
			return n
		}
		return &ir.Cast{Dtype: n.Dtype, Value: v}
	default:
		return e
	}
}

// visitAccessPtr handles the tvm_access_ptr(dtype, buffer, offset, extent,
// rw_mask) intrinsic: when buffer was privatized, the offset gets the
// thread's private slice folded in (stride/lanes * var + offset), and the
// call counts as a touch since its buffer argument now depends on var.
func (t *vtInjector) visitAccessPtr(n *ir.Call) ir.Expr {
	dtype, _ := ir.AccessPtrDType(n.Args[0])
	buffer, _ := n.Args[1].(*ir.Variable)
	stride, ok := t.allocRemap[buffer]
	if !ok {
		return t.defaultRecurseCall(n)
	}
	t.visitTouchedVar = true
	offset := t.VisitExpr(n.Args[2])
	extent := t.VisitExpr(n.Args[3])
	elemStride := &ir.Div{A: stride, B: ir.MakeConst(offset.Type(), int64(dtype.Lanes))}
	newOffset := &ir.Add{A: &ir.Mul{A: elemStride, B: t.v}, B: offset}
	return &ir.Call{
		Dtype: n.Dtype, Name: n.Name, CallType: n.CallType,
		Args: []ir.Expr{n.Args[0], buffer, newOffset, extent, n.Args[4]},
	}
}

func (t *vtInjector) defaultRecurseCall(n *ir.Call) ir.Expr {
	args := make([]ir.Expr, len(n.Args))
	changed := false
	for i, a := range n.Args {
		na := t.VisitExpr(a)
		if na != a {
			changed = true
		}
		args[i] = na
	}
	if !changed {
		return n
	}
	return &ir.Call{Dtype: n.Dtype, Name: n.Name, Args: args, CallType: n.CallType}
}

func (t *vtInjector) rewriteIndex(index, allocExtent ir.Expr) ir.Expr {
	return &ir.Add{A: index, B: &ir.Mul{A: t.v, B: allocExtent}}
}

// InjectVTLoop wraps stmt in the vthread loop: an unrolled Block chain when
// maxLoopDepth is zero (no For loop was visited beneath this point) and the
// thread count is below maxUnrollThreads, otherwise a serial For over a
// fresh index variable. When
// beforeMutation is true, stmt is the pre-mutation node and gets a full
// VisitStmt pass (with vtLoopInjected held true, so nothing triggers a
// second injection) before the loop is wrapped around it.
func (t *vtInjector) InjectVTLoop(stmt ir.Stmt, beforeMutation bool) ir.Stmt {
	if t.vtLoopInjected {
		passerr.Panic(passerr.PhaseInject, passerr.KindDoubleInjection, "", "vthread loop already injected on this path")
	}
	t.visitTouchedVar = false
	t.triggerBaseInject = false
	t.vtLoopInjected = true
	if beforeMutation {
		stmt = t.VisitStmt(stmt)
	}
	t.vtLoopInjected = false
	t.visitTouchedVar = false

	if t.maxLoopDepth == 0 && t.numThreads < maxUnrollThreads {
		blk := ir.Substitute(stmt, map[*ir.Variable]ir.Expr{t.v: ir.MakeZero(t.v.Dtype)})
		for i := 1; i < t.numThreads; i++ {
			blk = &ir.Block{
				First: blk,
				Rest:  ir.Substitute(stmt, map[*ir.Variable]ir.Expr{t.v: ir.MakeConst(t.v.Dtype, int64(i))}),
			}
		}
		return blk
	}

	idx := ir.NewVariable(t.v.Name+".s", t.v.Dtype)
	stmt = ir.Substitute(stmt, map[*ir.Variable]ir.Expr{t.v: idx})
	return &ir.For{
		Loop: idx, Min: ir.MakeZero(idx.Dtype), Extent: ir.MakeConst(idx.Dtype, int64(t.numThreads)),
		Kind: ir.ForSerial, Device: ir.DeviceNone, Body: stmt,
	}
}

func productOf(exprs []ir.Expr) ir.Expr {
	result := exprs[0]
	for _, e := range exprs[1:] {
		result = &ir.Mul{A: result, B: e}
	}
	return result
}
