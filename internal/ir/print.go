package ir

import (
	"fmt"
	"strings"
)

// Print renders stmt as an indented, human-readable tree. It exists for the
// CLI/inspector (cmd/irpass); it is not a parseable format and carries no
// round-trip guarantee.
func Print(stmt Stmt) string {
	var b strings.Builder
	printStmt(&b, stmt, 0)
	return b.String()
}

func indent(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
}

func printStmt(b *strings.Builder, s Stmt, depth int) {
	indent(b, depth)
	switch n := s.(type) {
	case nil:
		b.WriteString("<nil>\n")
	case *LetStmt:
		fmt.Fprintf(b, "let %s = %s\n", n.Var.Name, printExpr(n.Value))
		printStmt(b, n.Body, depth)
	case *Store:
		fmt.Fprintf(b, "%s[%s] = %s", n.Buffer.Name, printExpr(n.Index), printExpr(n.Value))
		if n.Predicate != nil {
			fmt.Fprintf(b, " if %s", printExpr(n.Predicate))
		}
		b.WriteByte('\n')
	case *For:
		fmt.Fprintf(b, "for %s in [%s, %s) kind=%d {\n", n.Loop.Name, printExpr(n.Min), printExpr(n.Extent), n.Kind)
		printStmt(b, n.Body, depth+1)
		indent(b, depth)
		b.WriteString("}\n")
	case *Evaluate:
		fmt.Fprintf(b, "evaluate %s\n", printExpr(n.Value))
	case *Allocate:
		exts := make([]string, len(n.Extents))
		for i, e := range n.Extents {
			exts[i] = printExpr(e)
		}
		fmt.Fprintf(b, "allocate %s[%s] : %s {\n", n.Buffer.Name, strings.Join(exts, ", "), n.Dtype)
		printStmt(b, n.Body, depth+1)
		indent(b, depth)
		b.WriteString("}\n")
	case *AttrStmt:
		fmt.Fprintf(b, "attr[%s] %s = %s {\n", attrNodeString(n.Node), n.Key, printExpr(n.Value))
		printStmt(b, n.Body, depth+1)
		indent(b, depth)
		b.WriteString("}\n")
	case *IfThenElse:
		fmt.Fprintf(b, "if %s {\n", printExpr(n.Cond))
		printStmt(b, n.Then, depth+1)
		if n.Else != nil {
			indent(b, depth)
			b.WriteString("} else {\n")
			printStmt(b, n.Else, depth+1)
		}
		indent(b, depth)
		b.WriteString("}\n")
	case *Block:
		b.WriteString("{\n")
		printStmt(b, n.First, depth+1)
		printStmt(b, n.Rest, depth+1)
		indent(b, depth)
		b.WriteString("}\n")
	case *AssertStmt:
		fmt.Fprintf(b, "assert %s, %s {\n", printExpr(n.Cond), printExpr(n.Msg))
		printStmt(b, n.Body, depth+1)
		indent(b, depth)
		b.WriteString("}\n")
	case *Provide:
		fmt.Fprintf(b, "provide %s[%s] = %s\n", n.Buffer.Name, printExpr(n.Index), printExpr(n.Value))
	default:
		fmt.Fprintf(b, "<unknown stmt %T>\n", n)
	}
}

func attrNodeString(node any) string {
	switch n := node.(type) {
	case *IterVar:
		return fmt.Sprintf("iter %s tag=%q", n.Var.Name, n.ThreadTag)
	case *Variable:
		return n.Name
	default:
		return fmt.Sprintf("%v", n)
	}
}

func printExpr(e Expr) string {
	switch n := e.(type) {
	case nil:
		return "<nil>"
	case *Variable:
		return n.Name
	case *IntImm:
		return fmt.Sprintf("%d", n.Value)
	case *StringImm:
		return fmt.Sprintf("%q", n.Value)
	case *Load:
		return fmt.Sprintf("%s[%s]", n.Buffer.Name, printExpr(n.Index))
	case *Call:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = printExpr(a)
		}
		return fmt.Sprintf("%s(%s)", n.Name, strings.Join(args, ", "))
	case *accessPtrDType:
		return n.dtype.String()
	case *Ramp:
		return fmt.Sprintf("ramp(%s, %s, %d)", printExpr(n.Base), printExpr(n.Stride), n.Lanes)
	case *Add:
		return fmt.Sprintf("(%s + %s)", printExpr(n.A), printExpr(n.B))
	case *Mul:
		return fmt.Sprintf("(%s * %s)", printExpr(n.A), printExpr(n.B))
	case *Div:
		return fmt.Sprintf("(%s / %s)", printExpr(n.A), printExpr(n.B))
	case *GE:
		return fmt.Sprintf("(%s >= %s)", printExpr(n.A), printExpr(n.B))
	case *LT:
		return fmt.Sprintf("(%s < %s)", printExpr(n.A), printExpr(n.B))
	case *And:
		return fmt.Sprintf("(%s && %s)", printExpr(n.A), printExpr(n.B))
	case *Cast:
		return fmt.Sprintf("cast<%s>(%s)", n.Dtype, printExpr(n.Value))
	default:
		return fmt.Sprintf("<unknown expr %T>", n)
	}
}
