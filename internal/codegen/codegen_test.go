package codegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlang-dev/mlc/internal/lang/parser"
	"github.com/mlang-dev/mlc/internal/registry"
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	r := registry.New()
	require.NoError(t, r.Register(registry.ModuleDescriptor{
		Name: "builtins",
		Functions: []registry.FunctionDescriptor{
			{Name: "len", Kind: registry.KindFunction, Safety: registry.SafetySafe,
				Impl: func(args []any) (any, error) { return int64(0), nil }},
			{Name: "print", Kind: registry.KindFunction, Safety: registry.SafetySafe,
				Impl: func(args []any) (any, error) { return nil, nil }},
		},
	}))
	require.NoError(t, r.Register(registry.ModuleDescriptor{
		Name: "fileio",
		Functions: []registry.FunctionDescriptor{
			{Name: "read_text", Kind: registry.KindFunction, Safety: registry.SafetyCapabilityGated,
				Capabilities: []registry.Requirement{{Capability: "fs.read", ResourceArg: 0}},
				Impl:         func(args []any) (any, error) { return "", nil }},
		},
	}))
	require.NoError(t, r.Register(registry.ModuleDescriptor{
		Name: "strmod",
		Functions: []registry.FunctionDescriptor{
			{Name: "upper", Kind: registry.KindMethod, Owner: "string", Safety: registry.SafetySafe,
				MethodImpl: func(recv any, args []any) (any, error) { return recv, nil }},
			{Name: "length", Kind: registry.KindAttribute, Owner: "string", Safety: registry.SafetySafe,
				AttrImpl: func(recv any) (any, error) { return int64(0), nil }},
		},
	}))
	r.Freeze()
	return r
}

func generate(t *testing.T, src string) (*Program, error) {
	t.Helper()
	prog, err := parser.Parse(src)
	require.NoError(t, err)
	return New(testRegistry(t)).Generate(prog)
}

func mustGenerate(t *testing.T, src string) *Program {
	t.Helper()
	p, err := generate(t, src)
	require.NoError(t, err)
	return p
}

func TestRegistryFunctionRoutesThroughSafeCall(t *testing.T) {
	p := mustGenerate(t, `len([1, 2]);`)
	require.Len(t, p.Stmts, 1)
	call := p.Stmts[0].(*ExprStmt).X.(*SafeCall)
	assert.Equal(t, "len", call.Name)
	assert.Equal(t, "builtins", call.Module)
}

// A user definition shadows the registry entry of the same name; the call
// compiles to a direct invocation, never a routed one.
func TestUserDefinitionWinsOverRegistry(t *testing.T) {
	p := mustGenerate(t, `
fn len(x) {
	return 42;
}
len([1]);
`)
	last := p.Stmts[len(p.Stmts)-1].(*ExprStmt)
	direct, ok := last.X.(*DirectCall)
	require.True(t, ok, "shadowed call must be direct, got %T", last.X)
	assert.Equal(t, "len", direct.Callee.Name)
}

func TestDeniedPrimitiveIsCompileError(t *testing.T) {
	_, err := generate(t, `open("path");`)
	var cgErr *CodeGenError
	require.ErrorAs(t, err, &cgErr)
	assert.Equal(t, "open", cgErr.Symbol)
	assert.Contains(t, cgErr.Suggestion, "fileio")
}

func TestDeniedNameCannotBeBound(t *testing.T) {
	for _, src := range []string{`let eval = 1;`, `fn exec() { return 0; }`} {
		_, err := generate(t, src)
		var cgErr *CodeGenError
		require.ErrorAs(t, err, &cgErr, "source %q", src)
	}
}

func TestUnknownSymbolIsCompileError(t *testing.T) {
	_, err := generate(t, `mystery(1);`)
	var unknown *UnknownSymbolError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "mystery", unknown.Name)
	assert.Equal(t, 1, unknown.Pos.Line)
}

func TestRegistryFunctionCannotEscapeAsValue(t *testing.T) {
	_, err := generate(t, `let f = len;`)
	var cgErr *CodeGenError
	require.ErrorAs(t, err, &cgErr)
	assert.Equal(t, "len", cgErr.Symbol)
}

func TestMethodAndAttributeRouting(t *testing.T) {
	p := mustGenerate(t, `
let s = "abc";
s.upper();
s.length;
`)
	method := p.Stmts[1].(*ExprStmt).X.(*SafeMethodCall)
	assert.Equal(t, "upper", method.Name)
	attr := p.Stmts[2].(*ExprStmt).X.(*SafeAttrAccess)
	assert.Equal(t, "length", attr.Name)
}

func TestDunderAccessIsCompileError(t *testing.T) {
	_, err := generate(t, `let s = "x"; s.__class__;`)
	var cgErr *CodeGenError
	require.ErrorAs(t, err, &cgErr)
	assert.Equal(t, "__class__", cgErr.Symbol)
}

func TestModuleQualifiedCall(t *testing.T) {
	p := mustGenerate(t, `
import fileio;
fileio.read_text("notes.txt");
`)
	call := p.Stmts[1].(*ExprStmt).X.(*SafeCall)
	assert.Equal(t, "fileio", call.Module)
	assert.Equal(t, "read_text", call.Name)
}

func TestUnknownModuleImportFails(t *testing.T) {
	_, err := generate(t, `import subprocess;`)
	var cgErr *CodeGenError
	require.ErrorAs(t, err, &cgErr)
}

func TestAssignmentToUndeclaredVariableFails(t *testing.T) {
	_, err := generate(t, `x = 1;`)
	var cgErr *CodeGenError
	require.ErrorAs(t, err, &cgErr)
	assert.Contains(t, cgErr.Suggestion, "let")
}

// Source order: catch-all first, specific second. Emitted order must put the
// specific clause first so the catch-all is syntactically last.
func TestExceptClausesReorderedCatchAllLast(t *testing.T) {
	p := mustGenerate(t, `
fn risky() {
	return 1;
}
try {
	risky();
} except {
	print("any");
} except (ValueError) {
	print("value");
}
`)
	try := p.Stmts[1].(*Try)
	require.Len(t, try.Clauses, 2)
	assert.Equal(t, "ValueError", try.Clauses[0].ErrName)
	assert.Equal(t, "", try.Clauses[1].ErrName)

	text := p.Render()
	valueAt := strings.Index(text, "except ValueError:")
	anyAt := strings.Index(text, "except:")
	require.GreaterOrEqual(t, valueAt, 0)
	require.GreaterOrEqual(t, anyAt, 0)
	assert.Less(t, valueAt, anyAt)
}

func TestDuplicateCatchAllFails(t *testing.T) {
	_, err := generate(t, `
try {
	print("x");
} except {
	print("a");
} except {
	print("b");
}
`)
	var cgErr *CodeGenError
	require.ErrorAs(t, err, &cgErr)
}

// A branch-local declaration read after the branch gets a sentinel prologue
// instead of silently defaulting.
func TestBranchLocalAssignmentGetsSentinel(t *testing.T) {
	p := mustGenerate(t, `
let cond = true;
if (cond) {
	let x = 1;
}
print(x);
`)
	sentinel, ok := p.Stmts[0].(*DeclSentinel)
	require.True(t, ok, "first statement should be the sentinel prologue, got %T", p.Stmts[0])
	assert.Equal(t, "x", sentinel.Name)
	assert.Contains(t, p.Render(), "x = __mlrt.uninitialized()")
}

func TestFullyAssignedBranchesNeedNoSentinel(t *testing.T) {
	p := mustGenerate(t, `
let cond = true;
let x = 0;
if (cond) {
	x = 1;
} else {
	x = 2;
}
print(x);
`)
	for _, s := range p.Stmts {
		_, isSentinel := s.(*DeclSentinel)
		assert.False(t, isSentinel)
	}
}

func TestCapturedParameterNeedsNoSentinel(t *testing.T) {
	p := mustGenerate(t, `
fn outer(a) {
	fn inner() {
		return a;
	}
	return inner();
}
print(outer(5));
`)
	outer, ok := p.Stmts[0].(*DeclFunc)
	require.True(t, ok, "expected function declaration, got %T", p.Stmts[0])
	for _, s := range outer.Body {
		_, isSentinel := s.(*DeclSentinel)
		assert.False(t, isSentinel, "parameter is bound by the call; prologue must not shadow it")
	}
	assert.NotContains(t, p.Render(), "a = __mlrt.uninitialized()")
}

func TestRenderRoutesEveryDynamicOperation(t *testing.T) {
	p := mustGenerate(t, `
import fileio;
let s = fileio.read_text("a.txt");
let n = len(s);
s.upper();
`)
	text := p.Render()
	assert.Contains(t, text, `__mlrt.safe_call("fileio.read_text", "a.txt")`)
	assert.Contains(t, text, `__mlrt.safe_call("builtins.len", s)`)
	assert.Contains(t, text, `__mlrt.safe_method_call(s, "upper")`)
	assert.NotContains(t, text, "read_text(\"a.txt\")\n")
}
