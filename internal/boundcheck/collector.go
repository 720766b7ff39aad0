package boundcheck

import "github.com/RichieZhu26/incubator-tvm/internal/ir"

// CollectBounds walks stmt and returns every buffer_bound annotation found,
// keyed by the buffer variable it names. A later annotation for the same
// variable overwrites an earlier one, matching a plain map insert.
func CollectBounds(stmt ir.Stmt) map[*ir.Variable]ir.Expr {
	bounds := map[*ir.Variable]ir.Expr{}
	var walk func(ir.Stmt)
	walk = func(s ir.Stmt) {
		switch n := s.(type) {
		case nil:
			return
		case *ir.AttrStmt:
			if n.Key == ir.AttrBufferBound {
				if v, ok := n.Node.(*ir.Variable); ok {
					bounds[v] = n.Value
				}
			}
			walk(n.Body)
		case *ir.LetStmt:
			walk(n.Body)
		case *ir.Store:
			return
		case *ir.For:
			walk(n.Body)
		case *ir.Evaluate:
			return
		case *ir.Allocate:
			walk(n.Body)
		case *ir.IfThenElse:
			walk(n.Then)
			walk(n.Else)
		case *ir.Block:
			walk(n.First)
			walk(n.Rest)
		case *ir.AssertStmt:
			walk(n.Body)
		case *ir.Provide:
			return
		}
	}
	walk(stmt)
	return bounds
}
