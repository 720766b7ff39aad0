package ssa

import "github.com/RichieZhu26/incubator-tvm/internal/ir"

// ConvertSSA renames the second and later binding of any variable identity
// used more than once as a LetStmt/For/Allocate binder in stmt, so no two
// sibling subtrees (typically unrolled virtual-thread copies) share a
// binder. The first occurrence of a given variable keeps its original
// identity; later ones are replaced by a fresh *ir.Variable with the same
// name and dtype, substituted through that binder's body.
func ConvertSSA(stmt ir.Stmt) ir.Stmt {
	c := &converter{seen: map[*ir.Variable]bool{}}
	return c.stmt(stmt)
}

type converter struct {
	seen map[*ir.Variable]bool
}

// rebind returns v unchanged the first time it's seen, or a fresh copy on
// every subsequent call.
func (c *converter) rebind(v *ir.Variable) *ir.Variable {
	if !c.seen[v] {
		c.seen[v] = true
		return v
	}
	fresh := ir.NewVariable(v.Name, v.Dtype)
	c.seen[fresh] = true
	return fresh
}

func (c *converter) stmt(s ir.Stmt) ir.Stmt {
	switch n := s.(type) {
	case nil:
		return nil
	case *ir.LetStmt:
		fresh := c.rebind(n.Var)
		body := n.Body
		if fresh != n.Var {
			body = ir.Substitute(body, map[*ir.Variable]ir.Expr{n.Var: fresh})
		}
		body = c.stmt(body)
		if fresh == n.Var && body == n.Body {
			return n
		}
		return &ir.LetStmt{Var: fresh, Value: n.Value, Body: body}
	case *ir.For:
		fresh := c.rebind(n.Loop)
		body := n.Body
		if fresh != n.Loop {
			body = ir.Substitute(body, map[*ir.Variable]ir.Expr{n.Loop: fresh})
		}
		body = c.stmt(body)
		if fresh == n.Loop && body == n.Body {
			return n
		}
		return &ir.For{Loop: fresh, Min: n.Min, Extent: n.Extent, Kind: n.Kind, Device: n.Device, Body: body}
	case *ir.Allocate:
		fresh := c.rebind(n.Buffer)
		body := n.Body
		if fresh != n.Buffer {
			body = ir.Substitute(body, map[*ir.Variable]ir.Expr{n.Buffer: fresh})
		}
		body = c.stmt(body)
		if fresh == n.Buffer && body == n.Body {
			return n
		}
		return &ir.Allocate{
			Buffer: fresh, Dtype: n.Dtype, Extents: n.Extents,
			Condition: n.Condition, Body: body, NewExpr: n.NewExpr, FreeFn: n.FreeFn,
		}
	case *ir.AttrStmt:
		body := c.stmt(n.Body)
		if body == n.Body {
			return n
		}
		return &ir.AttrStmt{Node: n.Node, Key: n.Key, Value: n.Value, Body: body}
	case *ir.IfThenElse:
		then := c.stmt(n.Then)
		els := c.stmt(n.Else)
		if then == n.Then && els == n.Else {
			return n
		}
		return &ir.IfThenElse{Cond: n.Cond, Then: then, Else: els}
	case *ir.Block:
		first := c.stmt(n.First)
		rest := c.stmt(n.Rest)
		if first == n.First && rest == n.Rest {
			return n
		}
		return &ir.Block{First: first, Rest: rest}
	case *ir.AssertStmt:
		body := c.stmt(n.Body)
		if body == n.Body {
			return n
		}
		return &ir.AssertStmt{Cond: n.Cond, Msg: n.Msg, Body: body}
	default:
		return s
	}
}
