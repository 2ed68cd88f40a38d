package codegen

import (
	"fmt"
	"strconv"
	"strings"
)

// Render produces the routed target text of the program. The text is what
// the evaluator executes in spirit: every whitelisted operation appears as a
// __mlrt routing call, so a reviewer can confirm nothing bypasses the
// indirection layer.
func (p *Program) Render() string {
	var b strings.Builder
	renderStmts(&b, p.Stmts, 0)
	return b.String()
}

func renderStmts(b *strings.Builder, stmts []Stmt, depth int) {
	if len(stmts) == 0 {
		writeLine(b, depth, "pass")
		return
	}
	for _, s := range stmts {
		renderStmt(b, s, depth)
	}
}

func renderStmt(b *strings.Builder, s Stmt, depth int) {
	switch n := s.(type) {
	case *Decl:
		writeLine(b, depth, n.Name+" = "+renderExpr(n.Value))
	case *DeclSentinel:
		writeLine(b, depth, n.Name+" = __mlrt.uninitialized()")
	case *AssignVar:
		writeLine(b, depth, n.Name+" = "+renderExpr(n.Value))
	case *AssignIndex:
		writeLine(b, depth, renderExpr(n.Target)+"["+renderExpr(n.Key)+"] = "+renderExpr(n.Value))
	case *ExprStmt:
		writeLine(b, depth, renderExpr(n.X))
	case *If:
		writeLine(b, depth, "if "+renderExpr(n.Cond)+":")
		renderStmts(b, n.Then, depth+1)
		if len(n.Else) > 0 {
			writeLine(b, depth, "else:")
			renderStmts(b, n.Else, depth+1)
		}
	case *While:
		writeLine(b, depth, "while "+renderExpr(n.Cond)+":")
		renderStmts(b, n.Body, depth+1)
	case *DeclFunc:
		writeLine(b, depth, "def "+n.Name+"("+strings.Join(n.Params, ", ")+"):")
		renderStmts(b, n.Body, depth+1)
	case *Return:
		if n.X == nil {
			writeLine(b, depth, "return")
		} else {
			writeLine(b, depth, "return "+renderExpr(n.X))
		}
	case *Try:
		writeLine(b, depth, "try:")
		renderStmts(b, n.Body, depth+1)
		for _, c := range n.Clauses {
			if c.ErrName == "" {
				writeLine(b, depth, "except:")
			} else {
				writeLine(b, depth, "except "+c.ErrName+":")
			}
			renderStmts(b, c.Body, depth+1)
		}
	case *Import:
		writeLine(b, depth, "import "+n.Module)
	}
}

func renderExpr(e Expr) string {
	switch n := e.(type) {
	case *Lit:
		return renderLit(n.Val)
	case *LocalRef:
		return n.Name
	case *SafeCall:
		args := make([]string, 0, len(n.Args)+1)
		args = append(args, strconv.Quote(n.Module+"."+n.Name))
		for _, a := range n.Args {
			args = append(args, renderExpr(a))
		}
		return "__mlrt.safe_call(" + strings.Join(args, ", ") + ")"
	case *SafeAttrAccess:
		return "__mlrt.safe_attr_access(" + renderExpr(n.Recv) + ", " + strconv.Quote(n.Name) + ")"
	case *SafeMethodCall:
		args := make([]string, 0, len(n.Args)+2)
		args = append(args, renderExpr(n.Recv), strconv.Quote(n.Name))
		for _, a := range n.Args {
			args = append(args, renderExpr(a))
		}
		return "__mlrt.safe_method_call(" + strings.Join(args, ", ") + ")"
	case *DirectCall:
		args := make([]string, 0, len(n.Args))
		for _, a := range n.Args {
			args = append(args, renderExpr(a))
		}
		return n.Callee.Name + "(" + strings.Join(args, ", ") + ")"
	case *Binary:
		return "(" + renderExpr(n.L) + " " + n.Op + " " + renderExpr(n.R) + ")"
	case *Unary:
		return "(" + n.Op + renderExpr(n.X) + ")"
	case *IndexExpr:
		return renderExpr(n.Target) + "[" + renderExpr(n.Key) + "]"
	case *ListExpr:
		elems := make([]string, 0, len(n.Elems))
		for _, el := range n.Elems {
			elems = append(elems, renderExpr(el))
		}
		return "[" + strings.Join(elems, ", ") + "]"
	case *MapExpr:
		pairs := make([]string, 0, len(n.Keys))
		for i, k := range n.Keys {
			pairs = append(pairs, strconv.Quote(k)+": "+renderExpr(n.Vals[i]))
		}
		return "{" + strings.Join(pairs, ", ") + "}"
	}
	return "<?>"
}

func renderLit(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case bool:
		if val {
			return "true"
		}
		return "false"
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case string:
		return strconv.Quote(val)
	}
	return fmt.Sprintf("%v", v)
}

func writeLine(b *strings.Builder, depth int, line string) {
	for i := 0; i < depth; i++ {
		b.WriteString("    ")
	}
	b.WriteString(line)
	b.WriteByte('\n')
}
