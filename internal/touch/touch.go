package touch

import "github.com/RichieZhu26/incubator-tvm/internal/ir"

// VarSet is a touched-variable set, keyed by pointer identity.
type VarSet map[*ir.Variable]bool

// Has reports whether v is a member.
func (s VarSet) Has(v *ir.Variable) bool { return s[v] }

// TouchedVar returns the set of all variables whose value could be
// influenced by v, for the given body.
func TouchedVar(body ir.Stmt, v *ir.Variable) VarSet {
	a := &analysis{
		touched: VarSet{v: true},
		affect:  map[*ir.Variable][]*ir.Variable{},
	}
	a.visitStmt(body)

	// Worklist transitive closure: propagate touch through affect.
	pending := make([]*ir.Variable, 0, len(a.touched))
	for u := range a.touched {
		pending = append(pending, u)
	}
	for len(pending) > 0 {
		u := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		for _, w := range a.affect[u] {
			if !a.touched[w] {
				a.touched[w] = true
				pending = append(pending, w)
			}
		}
	}
	return a.touched
}

// exprTouched is the result of walking a single expression: whether it read
// an already-touched variable, which not-yet-touched variables it read (in
// case they become touched later), and which variables it wrote via
// tvm_access_ptr's write bit.
type exprTouched struct {
	touched    VarSet
	checkWrite bool

	touchedResult bool
	usedVars      []*ir.Variable
	writeVars     []*ir.Variable
}

func newExprTouched(touched VarSet, checkWrite bool) *exprTouched {
	return &exprTouched{touched: touched, checkWrite: checkWrite}
}

func (t *exprTouched) handleUse(v *ir.Variable) {
	if t.touched[v] {
		t.touchedResult = true
	}
	if !t.touchedResult {
		t.usedVars = append(t.usedVars, v)
	}
}

func (t *exprTouched) handleWrite(v *ir.Variable) {
	t.writeVars = append(t.writeVars, v)
}

func (t *exprTouched) visit(e ir.Expr) {
	// Early stopping once touched, unless we still need the write set.
	if t.touchedResult && !t.checkWrite {
		return
	}
	switch n := e.(type) {
	case nil:
		return
	case *ir.Variable:
		t.handleUse(n)
	case *ir.Load:
		t.handleUse(n.Buffer)
		t.visit(n.Index)
		t.visit(n.Predicate)
	case *ir.Call:
		if n.IsIntrinsic(ir.IntrinsicAccessPtr) && len(n.Args) == 5 {
			rwMask, _ := ir.GetConstInt(n.Args[4])
			buffer, _ := n.Args[1].(*ir.Variable)
			if buffer != nil {
				if rwMask&ir.AccessPtrRead != 0 {
					t.handleUse(buffer)
				}
				if rwMask&ir.AccessPtrWrite != 0 {
					t.handleWrite(buffer)
				}
			}
			t.visit(n.Args[2])
			return
		}
		for _, a := range n.Args {
			t.visit(a)
		}
	case *ir.Ramp:
		t.visit(n.Base)
		t.visit(n.Stride)
	case *ir.Add:
		t.visit(n.A)
		t.visit(n.B)
	case *ir.Mul:
		t.visit(n.A)
		t.visit(n.B)
	case *ir.Div:
		t.visit(n.A)
		t.visit(n.B)
	case *ir.GE:
		t.visit(n.A)
		t.visit(n.B)
	case *ir.LT:
		t.visit(n.A)
		t.visit(n.B)
	case *ir.And:
		t.visit(n.A)
		t.visit(n.B)
	case *ir.Cast:
		t.visit(n.Value)
	}
}

type analysis struct {
	touched VarSet
	affect  map[*ir.Variable][]*ir.Variable
}

// record applies the touch rule: if tc read a touched variable, def becomes
// touched; otherwise def is made dependent on every variable tc read, via
// the affect graph.
func (a *analysis) record(def *ir.Variable, tc *exprTouched) {
	if a.touched[def] {
		return
	}
	if tc.touchedResult {
		a.touched[def] = true
		return
	}
	for _, used := range tc.usedVars {
		if used != def {
			a.affect[used] = append(a.affect[used], def)
		}
	}
}

func (a *analysis) visitStmt(s ir.Stmt) {
	switch n := s.(type) {
	case nil:
		return
	case *ir.LetStmt:
		tc := newExprTouched(a.touched, false)
		tc.visit(n.Value)
		a.record(n.Var, tc)
		a.visitStmt(n.Body)
	case *ir.Store:
		tc := newExprTouched(a.touched, false)
		tc.visit(n.Value)
		tc.visit(n.Index)
		a.record(n.Buffer, tc)
	case *ir.For:
		tc := newExprTouched(a.touched, false)
		tc.visit(n.Min)
		tc.visit(n.Extent)
		a.record(n.Loop, tc)
		a.visitStmt(n.Body)
	case *ir.Evaluate:
		tc := newExprTouched(a.touched, true)
		tc.visit(n.Value)
		for _, v := range tc.writeVars {
			a.record(v, tc)
		}
	case *ir.Allocate:
		tc := newExprTouched(a.touched, false)
		for _, e := range n.Extents {
			tc.visit(e)
		}
		tc.visit(n.Condition)
		if n.NewExpr != nil {
			tc.visit(n.NewExpr)
		}
		a.record(n.Buffer, tc)
		a.visitStmt(n.Body)
	case *ir.AttrStmt:
		a.visitStmt(n.Body)
	case *ir.IfThenElse:
		a.visitStmt(n.Then)
		a.visitStmt(n.Else)
	case *ir.Block:
		a.visitStmt(n.First)
		a.visitStmt(n.Rest)
	case *ir.AssertStmt:
		a.visitStmt(n.Body)
	}
}
