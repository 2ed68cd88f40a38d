package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlang-dev/mlc/internal/lang/ast"
)

func TestParseLetAndCall(t *testing.T) {
	prog, err := Parse(`let x = add(1, 2); print(x);`)
	require.NoError(t, err)
	require.Len(t, prog.Stmts, 2)

	let, ok := prog.Stmts[0].(*ast.Let)
	require.True(t, ok)
	assert.Equal(t, "x", let.Name)

	call, ok := let.Value.(*ast.Call)
	require.True(t, ok)
	callee, ok := call.Callee.(*ast.Ident)
	require.True(t, ok)
	assert.Equal(t, "add", callee.Name)
	assert.Len(t, call.Args, 2)
}

func TestParseBooleanLiteral(t *testing.T) {
	prog, err := Parse(`let ok = true;`)
	require.NoError(t, err)

	let := prog.Stmts[0].(*ast.Let)
	lit, ok := let.Value.(*ast.BoolLit)
	require.True(t, ok, "boolean keyword must parse as a literal, not an identifier")
	assert.True(t, lit.Value)
}

func TestParsePrecedence(t *testing.T) {
	prog, err := Parse(`let v = 1 + 2 * 3 == 7 && !done;`)
	require.NoError(t, err)

	let := prog.Stmts[0].(*ast.Let)
	and, ok := let.Value.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, "&&", and.Op)

	eq := and.L.(*ast.Binary)
	assert.Equal(t, "==", eq.Op)
	plus := eq.L.(*ast.Binary)
	assert.Equal(t, "+", plus.Op)
	mul := plus.R.(*ast.Binary)
	assert.Equal(t, "*", mul.Op)
}

func TestParseMemberMethodIndexChain(t *testing.T) {
	prog, err := Parse(`obj.field.method(1)[0];`)
	require.NoError(t, err)

	expr := prog.Stmts[0].(*ast.ExprStmt).X
	idx, ok := expr.(*ast.Index)
	require.True(t, ok)
	call, ok := idx.Target.(*ast.Call)
	require.True(t, ok)
	method, ok := call.Callee.(*ast.Member)
	require.True(t, ok)
	assert.Equal(t, "method", method.Name)
	field, ok := method.Target.(*ast.Member)
	require.True(t, ok)
	assert.Equal(t, "field", field.Name)
}

func TestParseIfElifElse(t *testing.T) {
	prog, err := Parse(`
if a { x = 1; }
elif b { x = 2; }
else { x = 3; }
`)
	require.NoError(t, err)

	top := prog.Stmts[0].(*ast.If)
	require.Len(t, top.Else, 1)
	nested, ok := top.Else[0].(*ast.If)
	require.True(t, ok, "elif chains nest in the else branch")
	require.Len(t, nested.Else, 1)
}

func TestParseTryExcept(t *testing.T) {
	prog, err := Parse(`
try { risky(); }
except (ValueError) { handleV(); }
except { handleAll(); }
`)
	require.NoError(t, err)

	try := prog.Stmts[0].(*ast.Try)
	require.Len(t, try.Clauses, 2)
	assert.Equal(t, "ValueError", try.Clauses[0].ErrName)
	assert.Equal(t, "", try.Clauses[1].ErrName) // catch-all

	_, err = Parse(`try { x(); }`)
	assert.Error(t, err, "try without except is a parse error")
}

func TestParseFuncDefAndReturn(t *testing.T) {
	prog, err := Parse(`fn len(x) { return 42; }`)
	require.NoError(t, err)

	def := prog.Stmts[0].(*ast.FuncDef)
	assert.Equal(t, "len", def.Name)
	assert.Equal(t, []string{"x"}, def.Params)
	ret := def.Body[0].(*ast.Return)
	assert.IsType(t, &ast.IntLit{}, ret.X)
}

func TestParseImportWhileCollections(t *testing.T) {
	prog, err := Parse(`
import fileio;
let xs = [1, 2, 3];
let m = {name: "a", "key two": 2};
while i < 3 { i = i + 1; }
`)
	require.NoError(t, err)
	require.Len(t, prog.Stmts, 4)

	imp := prog.Stmts[0].(*ast.Import)
	assert.Equal(t, "fileio", imp.Module)

	m := prog.Stmts[2].(*ast.Let).Value.(*ast.MapLit)
	assert.Equal(t, "key two", m.Entries[1].Key)
}

func TestParseErrorsCarryPosition(t *testing.T) {
	_, err := Parse("let = 3;")
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 1, perr.Pos.Line)

	_, err = Parse("1 + 2 = x;")
	require.Error(t, err)

	_, err = Parse("if x { y();")
	require.Error(t, err)
}
