package ir

// Simplify is the best-effort algebraic simplifier the bound instrumenter
// calls before comparing an index against a buffer's upper bound. It covers
// constant folding and the zero/one identities for Add, Mul, and Div,
// nothing more — a full arithmetic simplifier is out of scope; this exists
// only so the module is self-contained.
func Simplify(expr Expr) Expr {
	switch n := expr.(type) {
	case *Add:
		a, b := Simplify(n.A), Simplify(n.B)
		if av, ok := GetConstInt(a); ok {
			if bv, ok := GetConstInt(b); ok {
				return MakeConst(n.Type(), av+bv)
			}
			if av == 0 {
				return b
			}
		}
		if IsZero(b) {
			return a
		}
		if a == n.A && b == n.B {
			return n
		}
		return &Add{A: a, B: b}
	case *Mul:
		a, b := Simplify(n.A), Simplify(n.B)
		if av, ok := GetConstInt(a); ok {
			if bv, ok := GetConstInt(b); ok {
				return MakeConst(n.Type(), av*bv)
			}
			if av == 1 {
				return b
			}
			if av == 0 {
				return MakeZero(n.Type())
			}
		}
		if bv, ok := GetConstInt(b); ok {
			if bv == 1 {
				return a
			}
			if bv == 0 {
				return MakeZero(n.Type())
			}
		}
		if a == n.A && b == n.B {
			return n
		}
		return &Mul{A: a, B: b}
	case *Div:
		a, b := Simplify(n.A), Simplify(n.B)
		if av, ok := GetConstInt(a); ok {
			if bv, ok := GetConstInt(b); ok && bv != 0 {
				return MakeConst(n.Type(), av/bv)
			}
		}
		if bv, ok := GetConstInt(b); ok && bv == 1 {
			return a
		}
		if a == n.A && b == n.B {
			return n
		}
		return &Div{A: a, B: b}
	case *GE:
		a, b := Simplify(n.A), Simplify(n.B)
		if av, ok := GetConstInt(a); ok {
			if bv, ok := GetConstInt(b); ok {
				return boolConst(av >= bv)
			}
		}
		if a == n.A && b == n.B {
			return n
		}
		return &GE{A: a, B: b}
	case *LT:
		a, b := Simplify(n.A), Simplify(n.B)
		if av, ok := GetConstInt(a); ok {
			if bv, ok := GetConstInt(b); ok {
				return boolConst(av < bv)
			}
		}
		if a == n.A && b == n.B {
			return n
		}
		return &LT{A: a, B: b}
	case *And:
		a, b := Simplify(n.A), Simplify(n.B)
		if av, ok := GetConstInt(a); ok {
			if av == 0 {
				return a
			}
			if bv, ok := GetConstInt(b); ok {
				if bv == 0 {
					return b
				}
				return boolConst(true)
			}
			return b
		}
		if bv, ok := GetConstInt(b); ok && bv == 0 {
			return b
		}
		if a == n.A && b == n.B {
			return n
		}
		return &And{A: a, B: b}
	case *Cast:
		v := Simplify(n.Value)
		if cv, ok := GetConstInt(v); ok {
			return MakeConst(n.Dtype, cv)
		}
		if v == n.Value {
			return n
		}
		return &Cast{Dtype: n.Dtype, Value: v}
	default:
		return expr
	}
}

func boolConst(v bool) *IntImm {
	if v {
		return MakeConst(Bool(), 1)
	}
	return MakeConst(Bool(), 0)
}
