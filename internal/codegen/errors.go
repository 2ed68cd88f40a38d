package codegen

import (
	"fmt"

	"github.com/mlang-dev/mlc/internal/lang/ast"
)

// CodeGenError reports an operation the generator refuses to emit: a
// reference to a deny-listed primitive, a host function escaping into a
// value position, or an unsupported target form. Compilation always aborts.
type CodeGenError struct {
	Pos    ast.Pos
	Symbol string
	Reason string
	// Suggestion names a safe alternative when one exists.
	Suggestion string
}

func (e *CodeGenError) Error() string {
	msg := fmt.Sprintf("%s: cannot generate code for %q: %s", e.Pos, e.Symbol, e.Reason)
	if e.Suggestion != "" {
		msg += "; use " + e.Suggestion + " instead"
	}
	return msg
}

// UnknownSymbolError reports an identifier that is neither declared by the
// program nor present in the whitelist registry. Unclassified names are
// never passed through to the host runtime.
type UnknownSymbolError struct {
	Pos  ast.Pos
	Name string
}

func (e *UnknownSymbolError) Error() string {
	return fmt.Sprintf("%s: unknown symbol %q: not defined in this program and not a registered function", e.Pos, e.Name)
}
