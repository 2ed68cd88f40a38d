// Package codegen lowers analyzed syntax trees into a routed program: an
// intermediate form in which every dynamic call, attribute read, and method
// invocation the whitelist knows goes through a routing primitive, every
// user-defined symbol is a proven local reference, and everything else was
// rejected at compile time. The execution host evaluates the routed form;
// Render produces the equivalent target text for inspection and reporting.
package codegen

import "github.com/mlang-dev/mlc/internal/lang/ast"

// Expr is a lowered expression. The evaluator switches over the concrete
// types; there are no other implementations.
type Expr interface {
	exprNode()
	Pos() ast.Pos
}

// Stmt is a lowered statement.
type Stmt interface {
	stmtNode()
	Pos() ast.Pos
}

type position struct{ p ast.Pos }

func (n position) Pos() ast.Pos { return n.p }

// Lit is a literal value: int64, float64, string, bool, or nil.
type Lit struct {
	position
	Val any
}

// LocalRef reads a user-declared binding. The generator emits one only after
// proving the name's declaration site lies in the compiled program.
type LocalRef struct {
	position
	Name string
}

// SafeCall routes a whitelisted free-function invocation through the
// execution host, which re-validates the name against the registry and
// requires the entry's capabilities before invoking the implementation.
type SafeCall struct {
	position
	// Module is the registering module, carried for rendering and errors.
	Module string
	// Name is the bare registry symbol the host resolves at run time.
	Name string
	Args []Expr
}

// SafeAttrAccess routes an attribute read. The owner type hint is resolved
// from the live receiver at run time, then checked against the registry.
type SafeAttrAccess struct {
	position
	Name string
	Recv Expr
}

// SafeMethodCall routes a method invocation, receiver-typed like
// SafeAttrAccess.
type SafeMethodCall struct {
	position
	Name string
	Recv Expr
	Args []Expr
}

// DirectCall invokes a user-defined function. Callee is always a LocalRef;
// the run-time value it yields must be a function declared by the program.
type DirectCall struct {
	position
	Callee *LocalRef
	Args   []Expr
}

// Binary is an arithmetic, comparison, or logical operation. && and ||
// short-circuit.
type Binary struct {
	position
	Op string
	L  Expr
	R  Expr
}

// Unary is prefix "-" or "!".
type Unary struct {
	position
	Op string
	X  Expr
}

// IndexExpr subscripts a list, map, or string.
type IndexExpr struct {
	position
	Target Expr
	Key    Expr
}

// ListExpr builds a list value.
type ListExpr struct {
	position
	Elems []Expr
}

// MapExpr builds a map value with string keys, in source order.
type MapExpr struct {
	position
	Keys []string
	Vals []Expr
}

func (*Lit) exprNode()            {}
func (*LocalRef) exprNode()       {}
func (*SafeCall) exprNode()       {}
func (*SafeAttrAccess) exprNode() {}
func (*SafeMethodCall) exprNode() {}
func (*DirectCall) exprNode()     {}
func (*Binary) exprNode()         {}
func (*Unary) exprNode()          {}
func (*IndexExpr) exprNode()      {}
func (*ListExpr) exprNode()       {}
func (*MapExpr) exprNode()        {}

// Decl declares and assigns a binding in the current scope.
type Decl struct {
	position
	Name  string
	Value Expr
}

// DeclSentinel default-initializes a binding whose assignment the generator
// could not prove on every path. Reading the sentinel raises a catchable
// fault instead of yielding a value.
type DeclSentinel struct {
	position
	Name string
}

// AssignVar overwrites an existing binding.
type AssignVar struct {
	position
	Name  string
	Value Expr
}

// AssignIndex writes through a subscript.
type AssignIndex struct {
	position
	Target Expr
	Key    Expr
	Value  Expr
}

// ExprStmt evaluates an expression for effect.
type ExprStmt struct {
	position
	X Expr
}

// If is a two-way branch; Else may be empty.
type If struct {
	position
	Cond Expr
	Then []Stmt
	Else []Stmt
}

// While is a pre-test loop.
type While struct {
	position
	Cond Expr
	Body []Stmt
}

// DeclFunc declares a user function. The evaluator closes over the declaring
// scope.
type DeclFunc struct {
	position
	Name   string
	Params []string
	Body   []Stmt
}

// Return exits the enclosing function; X may be nil.
type Return struct {
	position
	X Expr
}

// Clause is one handler of a Try. ErrName empty means catch-all.
type Clause struct {
	ErrName string
	Body    []Stmt
}

// Try is a lowered error-handling construct. Clauses are already ordered
// specific-first, catch-all last, independent of source order.
type Try struct {
	position
	Body    []Stmt
	Clauses []Clause
}

// Import marks a module binding. Resolution happened at compile time; the
// evaluator only records the module name so stray references fail cleanly.
type Import struct {
	position
	Module string
}

func (*Decl) stmtNode()         {}
func (*DeclSentinel) stmtNode() {}
func (*AssignVar) stmtNode()    {}
func (*AssignIndex) stmtNode()  {}
func (*ExprStmt) stmtNode()     {}
func (*If) stmtNode()           {}
func (*While) stmtNode()        {}
func (*DeclFunc) stmtNode()     {}
func (*Return) stmtNode()       {}
func (*Try) stmtNode()          {}
func (*Import) stmtNode()       {}

// Program is the routed form of one compilation unit.
type Program struct {
	Stmts []Stmt
}
