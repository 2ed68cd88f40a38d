package codegen

import (
	"sort"
	"strings"

	"github.com/mlang-dev/mlc/internal/lang/ast"
	"github.com/mlang-dev/mlc/internal/registry"
)

// Generator lowers a program against a frozen registry. For every dynamic
// operation it picks exactly one strategy: deny-listed names abort
// compilation, registry-known symbols are routed through the execution
// host, and user-defined symbols (and only those) compile to direct
// references. A name fitting none of the three is a compile-time error.
type Generator struct {
	reg *registry.Registry
}

// New creates a generator resolving against the given registry.
func New(reg *registry.Registry) *Generator {
	return &Generator{reg: reg}
}

// Generate lowers the program or returns the first *CodeGenError or
// *UnknownSymbolError encountered.
func (g *Generator) Generate(prog *ast.Program) (*Program, error) {
	sc := newScope(nil)
	sc.hoist(prog.Stmts)
	stmts, err := g.genStmts(prog.Stmts, sc, newFlow())
	if err != nil {
		return nil, err
	}
	return &Program{Stmts: prependSentinels(sc, stmts)}, nil
}

// prependSentinels default-initializes every binding the flow analysis could
// not prove assigned before use, so a premature read raises a catchable
// fault instead of resolving to an arbitrary value.
func prependSentinels(sc *scope, stmts []Stmt) []Stmt {
	if len(sc.sentinel) == 0 {
		return stmts
	}
	names := make([]string, 0, len(sc.sentinel))
	for name := range sc.sentinel {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]Stmt, 0, len(names)+len(stmts))
	for _, name := range names {
		out = append(out, &DeclSentinel{Name: name})
	}
	return append(out, stmts...)
}

func (g *Generator) genStmts(stmts []ast.Stmt, sc *scope, fl *flow) ([]Stmt, error) {
	out := make([]Stmt, 0, len(stmts))
	for _, s := range stmts {
		lowered, err := g.genStmt(s, sc, fl)
		if err != nil {
			return nil, err
		}
		out = append(out, lowered)
	}
	return out, nil
}

func (g *Generator) genStmt(s ast.Stmt, sc *scope, fl *flow) (Stmt, error) {
	switch n := s.(type) {
	case *ast.Let:
		if err := checkBindable(n.Name, n.Pos()); err != nil {
			return nil, err
		}
		value, err := g.genExpr(n.Value, sc, fl)
		if err != nil {
			return nil, err
		}
		fl.assign(n.Name)
		return &Decl{position: position{n.Pos()}, Name: n.Name, Value: value}, nil

	case *ast.Assign:
		return g.genAssign(n, sc, fl)

	case *ast.ExprStmt:
		x, err := g.genExpr(n.X, sc, fl)
		if err != nil {
			return nil, err
		}
		return &ExprStmt{position: position{n.Pos()}, X: x}, nil

	case *ast.If:
		cond, err := g.genExpr(n.Cond, sc, fl)
		if err != nil {
			return nil, err
		}
		thenFl := fl.clone()
		then, err := g.genStmts(n.Then, sc, thenFl)
		if err != nil {
			return nil, err
		}
		elseFl := fl.clone()
		els, err := g.genStmts(n.Else, sc, elseFl)
		if err != nil {
			return nil, err
		}
		fl.merge(thenFl, elseFl)
		return &If{position: position{n.Pos()}, Cond: cond, Then: then, Else: els}, nil

	case *ast.While:
		cond, err := g.genExpr(n.Cond, sc, fl)
		if err != nil {
			return nil, err
		}
		// The body may run zero times, so its assignments never reach the
		// post-loop state.
		body, err := g.genStmts(n.Body, sc, fl.clone())
		if err != nil {
			return nil, err
		}
		return &While{position: position{n.Pos()}, Cond: cond, Body: body}, nil

	case *ast.FuncDef:
		return g.genFuncDef(n, sc, fl)

	case *ast.Return:
		var x Expr
		if n.X != nil {
			var err error
			x, err = g.genExpr(n.X, sc, fl)
			if err != nil {
				return nil, err
			}
		}
		fl.terminated = true
		return &Return{position: position{n.Pos()}, X: x}, nil

	case *ast.Try:
		return g.genTry(n, sc, fl)

	case *ast.Import:
		if !g.reg.HasModule(n.Module) {
			return nil, &CodeGenError{Pos: n.Pos(), Symbol: n.Module, Reason: "import of a module the registry does not know"}
		}
		fl.assign(n.Module)
		return &Import{position: position{n.Pos()}, Module: n.Module}, nil
	}
	return nil, &CodeGenError{Pos: s.Pos(), Symbol: "statement", Reason: "unsupported statement form"}
}

func (g *Generator) genAssign(n *ast.Assign, sc *scope, fl *flow) (Stmt, error) {
	value, err := g.genExpr(n.Value, sc, fl)
	if err != nil {
		return nil, err
	}
	switch target := n.Target.(type) {
	case *ast.Ident:
		if err := checkBindable(target.Name, target.Pos()); err != nil {
			return nil, err
		}
		class, _, ok := sc.lookup(target.Name)
		if !ok {
			return nil, &CodeGenError{Pos: target.Pos(), Symbol: target.Name,
				Reason: "assignment to an undeclared variable", Suggestion: "a let declaration"}
		}
		if class == symModule {
			return nil, &CodeGenError{Pos: target.Pos(), Symbol: target.Name, Reason: "modules cannot be reassigned"}
		}
		fl.assign(target.Name)
		return &AssignVar{position: position{n.Pos()}, Name: target.Name, Value: value}, nil
	case *ast.Index:
		recv, err := g.genExpr(target.Target, sc, fl)
		if err != nil {
			return nil, err
		}
		key, err := g.genExpr(target.Key, sc, fl)
		if err != nil {
			return nil, err
		}
		return &AssignIndex{position: position{n.Pos()}, Target: recv, Key: key, Value: value}, nil
	case *ast.Member:
		return nil, &CodeGenError{Pos: target.Pos(), Symbol: target.Name,
			Reason: "attribute assignment is not permitted; registered attributes are read-only"}
	}
	return nil, &CodeGenError{Pos: n.Pos(), Symbol: "assignment", Reason: "unsupported assignment target"}
}

func (g *Generator) genFuncDef(n *ast.FuncDef, sc *scope, fl *flow) (Stmt, error) {
	if err := checkBindable(n.Name, n.Pos()); err != nil {
		return nil, err
	}
	child := newScope(sc)
	childFl := newFlow()
	for _, p := range n.Params {
		if err := checkBindable(p, n.Pos()); err != nil {
			return nil, err
		}
		child.declare(p, symParam)
		childFl.assign(p)
	}
	child.hoist(n.Body)
	body, err := g.genStmts(n.Body, child, childFl)
	if err != nil {
		return nil, err
	}
	fl.assign(n.Name)
	return &DeclFunc{
		position: position{n.Pos()},
		Name:     n.Name,
		Params:   append([]string(nil), n.Params...),
		Body:     prependSentinels(child, body),
	}, nil
}

// genTry lowers a try statement and reorders its clauses so that every
// specific clause precedes the catch-all, since target syntax requires the
// catch-all to be last. Relative order among specific clauses is preserved,
// which keeps the firing clause identical to source semantics: a condition
// matching a specific clause never reached the catch-all in the source
// either.
func (g *Generator) genTry(n *ast.Try, sc *scope, fl *flow) (Stmt, error) {
	bodyFl := fl.clone()
	body, err := g.genStmts(n.Body, sc, bodyFl)
	if err != nil {
		return nil, err
	}

	var specific, catchAll []Clause
	outcomes := []*flow{bodyFl}
	for _, c := range n.Clauses {
		clauseFl := fl.clone()
		lowered, err := g.genStmts(c.Body, sc, clauseFl)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, clauseFl)
		clause := Clause{ErrName: c.ErrName, Body: lowered}
		if c.ErrName == "" {
			if len(catchAll) > 0 {
				return nil, &CodeGenError{Pos: c.Pos(), Symbol: "except",
					Reason: "duplicate catch-all clause; only one can ever fire"}
			}
			catchAll = append(catchAll, clause)
		} else {
			specific = append(specific, clause)
		}
	}

	// A name is assigned after the try only when every possible path
	// (body completed, or any clause handled) assigned it.
	joined := outcomes[0]
	for _, o := range outcomes[1:] {
		next := newFlow()
		next.merge(joined, o)
		joined = next
	}
	fl.adopt(joined)

	return &Try{position: position{n.Pos()}, Body: body, Clauses: append(specific, catchAll...)}, nil
}

func (g *Generator) genExpr(e ast.Expr, sc *scope, fl *flow) (Expr, error) {
	switch n := e.(type) {
	case *ast.IntLit:
		return &Lit{position: position{n.Pos()}, Val: n.Value}, nil
	case *ast.FloatLit:
		return &Lit{position: position{n.Pos()}, Val: n.Value}, nil
	case *ast.StringLit:
		return &Lit{position: position{n.Pos()}, Val: n.Value}, nil
	case *ast.BoolLit:
		return &Lit{position: position{n.Pos()}, Val: n.Value}, nil
	case *ast.NullLit:
		return &Lit{position: position{n.Pos()}, Val: nil}, nil

	case *ast.Ident:
		return g.genIdent(n, sc, fl)

	case *ast.Call:
		return g.genCall(n, sc, fl)

	case *ast.Member:
		return g.genMember(n, sc, fl)

	case *ast.Index:
		target, err := g.genExpr(n.Target, sc, fl)
		if err != nil {
			return nil, err
		}
		key, err := g.genExpr(n.Key, sc, fl)
		if err != nil {
			return nil, err
		}
		return &IndexExpr{position: position{n.Pos()}, Target: target, Key: key}, nil

	case *ast.Binary:
		l, err := g.genExpr(n.L, sc, fl)
		if err != nil {
			return nil, err
		}
		r, err := g.genExpr(n.R, sc, fl)
		if err != nil {
			return nil, err
		}
		return &Binary{position: position{n.Pos()}, Op: n.Op, L: l, R: r}, nil

	case *ast.Unary:
		x, err := g.genExpr(n.X, sc, fl)
		if err != nil {
			return nil, err
		}
		return &Unary{position: position{n.Pos()}, Op: n.Op, X: x}, nil

	case *ast.ListLit:
		elems := make([]Expr, 0, len(n.Elems))
		for _, el := range n.Elems {
			lowered, err := g.genExpr(el, sc, fl)
			if err != nil {
				return nil, err
			}
			elems = append(elems, lowered)
		}
		return &ListExpr{position: position{n.Pos()}, Elems: elems}, nil

	case *ast.MapLit:
		keys := make([]string, 0, len(n.Entries))
		vals := make([]Expr, 0, len(n.Entries))
		for _, entry := range n.Entries {
			lowered, err := g.genExpr(entry.Value, sc, fl)
			if err != nil {
				return nil, err
			}
			keys = append(keys, entry.Key)
			vals = append(vals, lowered)
		}
		return &MapExpr{position: position{n.Pos()}, Keys: keys, Vals: vals}, nil
	}
	return nil, &CodeGenError{Pos: e.Pos(), Symbol: "expression", Reason: "unsupported expression form"}
}

// genIdent lowers a bare name in value position. The deny-list is consulted
// before any scope or registry lookup and always wins.
func (g *Generator) genIdent(n *ast.Ident, sc *scope, fl *flow) (Expr, error) {
	if denied, ok := registry.Denied(n.Name); ok {
		return nil, deniedError(n.Name, denied, n.Pos())
	}
	if class, declScope, ok := sc.lookup(n.Name); ok {
		if class == symModule {
			return nil, &CodeGenError{Pos: n.Pos(), Symbol: n.Name, Reason: "module name used as a value"}
		}
		markSentinel(n.Name, class, declScope, sc, fl)
		return &LocalRef{position: position{n.Pos()}, Name: n.Name}, nil
	}
	if _, ok := g.reg.AllowedCall(n.Name); ok {
		return nil, &CodeGenError{Pos: n.Pos(), Symbol: n.Name,
			Reason: "registered functions cannot be used as values", Suggestion: "a direct call"}
	}
	return nil, &UnknownSymbolError{Pos: n.Pos(), Name: n.Name}
}

func (g *Generator) genCall(n *ast.Call, sc *scope, fl *flow) (Expr, error) {
	args := make([]Expr, 0, len(n.Args))
	for _, a := range n.Args {
		lowered, err := g.genExpr(a, sc, fl)
		if err != nil {
			return nil, err
		}
		args = append(args, lowered)
	}

	switch callee := n.Callee.(type) {
	case *ast.Ident:
		if denied, ok := registry.Denied(callee.Name); ok {
			return nil, deniedError(callee.Name, denied, callee.Pos())
		}
		if class, declScope, ok := sc.lookup(callee.Name); ok {
			if class == symModule {
				return nil, &CodeGenError{Pos: callee.Pos(), Symbol: callee.Name, Reason: "modules are not callable"}
			}
			markSentinel(callee.Name, class, declScope, sc, fl)
			ref := &LocalRef{position: position{callee.Pos()}, Name: callee.Name}
			return &DirectCall{position: position{n.Pos()}, Callee: ref, Args: args}, nil
		}
		if entry, ok := g.reg.AllowedCall(callee.Name); ok {
			return &SafeCall{position: position{n.Pos()}, Module: entry.Module, Name: callee.Name, Args: args}, nil
		}
		return nil, &UnknownSymbolError{Pos: callee.Pos(), Name: callee.Name}

	case *ast.Member:
		// Module-qualified function call.
		if target, ok := callee.Target.(*ast.Ident); ok {
			if class, _, found := sc.lookup(target.Name); found && class == symModule {
				for _, entry := range g.reg.ModuleEntries(target.Name) {
					if entry.Kind == registry.KindFunction && entry.Name == callee.Name {
						return &SafeCall{position: position{n.Pos()}, Module: target.Name, Name: callee.Name, Args: args}, nil
					}
				}
				return nil, &UnknownSymbolError{Pos: callee.Pos(), Name: target.Name + "." + callee.Name}
			}
		}
		// Method call on a value.
		if isDunder(callee.Name) {
			return nil, &CodeGenError{Pos: callee.Pos(), Symbol: callee.Name, Reason: "runtime internal attributes are not reachable"}
		}
		recv, err := g.genExpr(callee.Target, sc, fl)
		if err != nil {
			return nil, err
		}
		if !g.reg.KnownAttrOrMethod(callee.Name) {
			return nil, &UnknownSymbolError{Pos: callee.Pos(), Name: callee.Name}
		}
		return &SafeMethodCall{position: position{n.Pos()}, Name: callee.Name, Recv: recv, Args: args}, nil
	}
	return nil, &CodeGenError{Pos: n.Pos(), Symbol: "call",
		Reason: "call target must be a named function; computed call targets cannot be proven safe"}
}

func (g *Generator) genMember(n *ast.Member, sc *scope, fl *flow) (Expr, error) {
	if isDunder(n.Name) {
		return nil, &CodeGenError{Pos: n.Pos(), Symbol: n.Name, Reason: "runtime internal attributes are not reachable"}
	}
	if target, ok := n.Target.(*ast.Ident); ok {
		if class, _, found := sc.lookup(target.Name); found && class == symModule {
			return nil, &CodeGenError{Pos: n.Pos(), Symbol: target.Name + "." + n.Name,
				Reason: "registered functions cannot be used as values", Suggestion: "a direct call"}
		}
	}
	recv, err := g.genExpr(n.Target, sc, fl)
	if err != nil {
		return nil, err
	}
	if !g.reg.KnownAttrOrMethod(n.Name) {
		return nil, &UnknownSymbolError{Pos: n.Pos(), Name: n.Name}
	}
	return &SafeAttrAccess{position: position{n.Pos()}, Name: n.Name, Recv: recv}, nil
}

// markSentinel records a read that assignment analysis could not prove safe,
// so the declaring scope default-initializes the name in its prologue.
// Parameters are never marked: they are bound by the call itself, before any
// body statement runs, so a read is safe even from a nested function where
// local flow cannot see the binding.
func markSentinel(name string, class symbolClass, declScope, sc *scope, fl *flow) {
	if class == symParam {
		return
	}
	if !fl.assigned[name] || declScope != sc {
		declScope.sentinel[name] = true
	}
}

// checkBindable rejects declaring or assigning a deny-listed primitive name,
// so a program cannot shadow its way into unblocking one.
func checkBindable(name string, pos ast.Pos) error {
	if denied, ok := registry.Denied(name); ok {
		return &CodeGenError{Pos: pos, Symbol: name,
			Reason: "deny-listed primitive names cannot be bound (" + denied.Reason + ")"}
	}
	return nil
}

func deniedError(name string, denied registry.DeniedPrimitive, pos ast.Pos) *CodeGenError {
	return &CodeGenError{Pos: pos, Symbol: name,
		Reason: "deny-listed host primitive (" + denied.Reason + ")", Suggestion: denied.Suggestion}
}

func isDunder(name string) bool {
	return len(name) > 4 && strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__")
}
