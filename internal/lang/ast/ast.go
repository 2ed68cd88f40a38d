// Package ast defines the syntax tree the security pipeline consumes. The
// analyzer and code generator depend only on these node types, not on the
// grammar that produced them.
package ast

import "fmt"

// Pos is a 1-based source position.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string { return fmt.Sprintf("%d:%d", p.Line, p.Col) }

// Node is implemented by every syntax tree node.
type Node interface {
	Pos() Pos
}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

type Position struct{ P Pos }

func (p Position) Pos() Pos { return p.P }

// At constructs a position mixin. Used by the parser and by tests.
func At(line, col int) Position { return Position{P: Pos{Line: line, Col: col}} }

// ---- Expressions ----

// IntLit is an integer literal.
type IntLit struct {
	Position
	Value int64
}

// FloatLit is a floating-point literal.
type FloatLit struct {
	Position
	Value float64
}

// StringLit is a string literal (already unescaped).
type StringLit struct {
	Position
	Value string
}

// BoolLit is `true` or `false`. Boolean keywords are lexed as dedicated
// tokens, never as identifiers, so they can never shadow or alias symbols.
type BoolLit struct {
	Position
	Value bool
}

// NullLit is `null`.
type NullLit struct {
	Position
}

// Ident is an identifier reference.
type Ident struct {
	Position
	Name string
}

// Call is a function invocation: Callee(Args...).
type Call struct {
	Position
	Callee Expr
	Args   []Expr
}

// Member is an attribute access: Target.Name. A chained method call parses as
// Call{Callee: Member{...}}.
type Member struct {
	Position
	Target Expr
	Name   string
}

// Index is a subscript access: Target[Key].
type Index struct {
	Position
	Target Expr
	Key    Expr
}

// Binary is a binary operation. Op is the source operator token text.
type Binary struct {
	Position
	Op string
	L  Expr
	R  Expr
}

// Unary is a prefix operation ("-" or "!").
type Unary struct {
	Position
	Op string
	X  Expr
}

// ListLit is a list literal.
type ListLit struct {
	Position
	Elems []Expr
}

// MapEntry is one key/value pair of a map literal.
type MapEntry struct {
	Key   string
	Value Expr
}

// MapLit is a map literal with string keys.
type MapLit struct {
	Position
	Entries []MapEntry
}

func (*IntLit) exprNode() {}
func (*FloatLit) exprNode() {}
func (*StringLit) exprNode() {}
func (*BoolLit) exprNode() {}
func (*NullLit) exprNode() {}
func (*Ident) exprNode() {}
func (*Call) exprNode() {}
func (*Member) exprNode() {}
func (*Index) exprNode() {}
func (*Binary) exprNode() {}
func (*Unary) exprNode() {}
func (*ListLit) exprNode() {}
func (*MapLit) exprNode() {}

// ---- Statements ----

// Let declares and initializes a new binding in the current scope.
type Let struct {
	Position
	Name  string
	Value Expr
}

// Assign writes to an existing binding, member, or index target.
type Assign struct {
	Position
	Target Expr // *Ident, *Member or *Index
	Value  Expr
}

// ExprStmt is an expression evaluated for its effect.
type ExprStmt struct {
	Position
	X Expr
}

// If is a conditional. An `elif` chain parses as a nested If in Else.
type If struct {
	Position
	Cond Expr
	Then []Stmt
	Else []Stmt // nil when absent
}

// While is a pre-test loop.
type While struct {
	Position
	Cond Expr
	Body []Stmt
}

// FuncDef declares a named function at the top level or nested.
type FuncDef struct {
	Position
	Name   string
	Params []string
	Body   []Stmt
}

// Return exits the enclosing function. X may be nil.
type Return struct {
	Position
	X Expr
}

// ExceptClause is one handler of a Try statement. ErrName is the condition
// class the clause catches; empty means catch-all.
type ExceptClause struct {
	Position
	ErrName string
	Body    []Stmt
}

// Try is a multi-clause error handling construct.
type Try struct {
	Position
	Body    []Stmt
	Clauses []ExceptClause
}

// Import brings a registered module's symbols into scope.
type Import struct {
	Position
	Module string
}

func (*Let) stmtNode() {}
func (*Assign) stmtNode() {}
func (*ExprStmt) stmtNode() {}
func (*If) stmtNode() {}
func (*While) stmtNode() {}
func (*FuncDef) stmtNode() {}
func (*Return) stmtNode() {}
func (*Try) stmtNode() {}
func (*Import) stmtNode() {}

// Program is a parsed compilation unit.
type Program struct {
	Stmts []Stmt
}
