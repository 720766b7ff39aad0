package ir

// Substitute performs capture-free substitution of variables in stmt: every
// free occurrence of a key in repl is replaced by its mapped expression.
// Unchanged subtrees are returned by pointer, not copied, so callers can
// compare before/after by identity to detect whether anything changed.
//
// A key stops being substituted below any re-binding of the same variable
// identity (LetStmt.Var, For.Loop, Allocate.Buffer): uses inside that
// binder's body refer to the inner binding and are left alone.
func Substitute(stmt Stmt, repl map[*Variable]Expr) Stmt {
	if len(repl) == 0 || stmt == nil {
		return stmt
	}
	s := &substituter{repl: repl}
	return s.stmt(stmt)
}

// SubstituteExpr substitutes within a bare expression.
func SubstituteExpr(expr Expr, repl map[*Variable]Expr) Expr {
	if len(repl) == 0 || expr == nil {
		return expr
	}
	s := &substituter{repl: repl}
	return s.expr(expr)
}

type substituter struct {
	repl map[*Variable]Expr
}

func (s *substituter) without(v *Variable) *substituter {
	if _, shadowed := s.repl[v]; !shadowed {
		return s
	}
	repl := make(map[*Variable]Expr, len(s.repl)-1)
	for k, e := range s.repl {
		if k != v {
			repl[k] = e
		}
	}
	return &substituter{repl: repl}
}

func (s *substituter) expr(e Expr) Expr {
	switch n := e.(type) {
	case *Variable:
		if repl, ok := s.repl[n]; ok {
			return repl
		}
		return n
	case *IntImm, *StringImm:
		return n
	case *accessPtrDType:
		return n
	case *Load:
		idx := s.expr(n.Index)
		var pred Expr
		if n.Predicate != nil {
			pred = s.expr(n.Predicate)
		}
		if idx == n.Index && pred == n.Predicate {
			return n
		}
		return &Load{Dtype: n.Dtype, Buffer: n.Buffer, Index: idx, Predicate: pred}
	case *Call:
		args, changed := s.exprSlice(n.Args)
		if !changed {
			return n
		}
		return &Call{Dtype: n.Dtype, Name: n.Name, Args: args, CallType: n.CallType}
	case *Ramp:
		base := s.expr(n.Base)
		stride := s.expr(n.Stride)
		if base == n.Base && stride == n.Stride {
			return n
		}
		return &Ramp{Base: base, Stride: stride, Lanes: n.Lanes}
	case *Add:
		a, b := s.expr(n.A), s.expr(n.B)
		if a == n.A && b == n.B {
			return n
		}
		return &Add{A: a, B: b}
	case *Mul:
		a, b := s.expr(n.A), s.expr(n.B)
		if a == n.A && b == n.B {
			return n
		}
		return &Mul{A: a, B: b}
	case *Div:
		a, b := s.expr(n.A), s.expr(n.B)
		if a == n.A && b == n.B {
			return n
		}
		return &Div{A: a, B: b}
	case *GE:
		a, b := s.expr(n.A), s.expr(n.B)
		if a == n.A && b == n.B {
			return n
		}
		return &GE{A: a, B: b}
	case *LT:
		a, b := s.expr(n.A), s.expr(n.B)
		if a == n.A && b == n.B {
			return n
		}
		return &LT{A: a, B: b}
	case *And:
		a, b := s.expr(n.A), s.expr(n.B)
		if a == n.A && b == n.B {
			return n
		}
		return &And{A: a, B: b}
	case *Cast:
		v := s.expr(n.Value)
		if v == n.Value {
			return n
		}
		return &Cast{Dtype: n.Dtype, Value: v}
	default:
		return e
	}
}

func (s *substituter) exprSlice(in []Expr) ([]Expr, bool) {
	var out []Expr
	changed := false
	for i, e := range in {
		ne := s.expr(e)
		if ne != e && !changed {
			out = make([]Expr, len(in))
			copy(out, in[:i])
			changed = true
		}
		if changed {
			out[i] = ne
		}
	}
	if !changed {
		return in, false
	}
	return out, true
}

func (s *substituter) maybeExpr(e Expr) Expr {
	if e == nil {
		return nil
	}
	return s.expr(e)
}

func (s *substituter) stmt(st Stmt) Stmt {
	switch n := st.(type) {
	case nil:
		return nil
	case *LetStmt:
		value := s.expr(n.Value)
		body := s.without(n.Var).stmt(n.Body)
		if value == n.Value && body == n.Body {
			return n
		}
		return &LetStmt{Var: n.Var, Value: value, Body: body}
	case *Store:
		value := s.expr(n.Value)
		index := s.expr(n.Index)
		pred := s.maybeExpr(n.Predicate)
		if value == n.Value && index == n.Index && pred == n.Predicate {
			return n
		}
		return &Store{Buffer: n.Buffer, Value: value, Index: index, Predicate: pred}
	case *For:
		min := s.expr(n.Min)
		extent := s.expr(n.Extent)
		body := s.without(n.Loop).stmt(n.Body)
		if min == n.Min && extent == n.Extent && body == n.Body {
			return n
		}
		return &For{Loop: n.Loop, Min: min, Extent: extent, Kind: n.Kind, Device: n.Device, Body: body}
	case *Evaluate:
		value := s.expr(n.Value)
		if value == n.Value {
			return n
		}
		return &Evaluate{Value: value}
	case *Allocate:
		extents, changed := s.exprSlice(n.Extents)
		condition := s.expr(n.Condition)
		newExpr := s.maybeExpr(n.NewExpr)
		body := s.without(n.Buffer).stmt(n.Body)
		if !changed && condition == n.Condition && newExpr == n.NewExpr && body == n.Body {
			return n
		}
		return &Allocate{
			Buffer: n.Buffer, Dtype: n.Dtype, Extents: extents,
			Condition: condition, Body: body, NewExpr: newExpr, FreeFn: n.FreeFn,
		}
	case *AttrStmt:
		value := s.expr(n.Value)
		body := s.stmt(n.Body)
		if value == n.Value && body == n.Body {
			return n
		}
		return &AttrStmt{Node: n.Node, Key: n.Key, Value: value, Body: body}
	case *IfThenElse:
		cond := s.expr(n.Cond)
		then := s.stmt(n.Then)
		els := s.stmt(n.Else)
		if cond == n.Cond && then == n.Then && els == n.Else {
			return n
		}
		return &IfThenElse{Cond: cond, Then: then, Else: els}
	case *Block:
		first := s.stmt(n.First)
		rest := s.stmt(n.Rest)
		if first == n.First && rest == n.Rest {
			return n
		}
		return &Block{First: first, Rest: rest}
	case *AssertStmt:
		cond := s.expr(n.Cond)
		msg := s.expr(n.Msg)
		body := s.stmt(n.Body)
		if cond == n.Cond && msg == n.Msg && body == n.Body {
			return n
		}
		return &AssertStmt{Cond: cond, Msg: msg, Body: body}
	case *Provide:
		value := s.expr(n.Value)
		index := s.expr(n.Index)
		if value == n.Value && index == n.Index {
			return n
		}
		return &Provide{Buffer: n.Buffer, Value: value, Index: index}
	default:
		return st
	}
}
