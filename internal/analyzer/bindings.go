package analyzer

import "github.com/mlang-dev/mlc/internal/lang/ast"

// bindingTable tracks identifier-to-declaration bindings per lexical scope so
// that aliasing a deny-listed primitive (`let f = eval; f()`) is still caught.
// A deliberately simple model: a name either aliases another name, is
// user-defined, or is unknown. Re-binding to a non-identifier value makes a
// name user-defined.
type bindingTable struct {
	scopes []map[string]binding
}

type binding struct {
	// aliasOf is the name the binding forwards to; empty for user values.
	aliasOf string
	user    bool
}

func newBindingTable() *bindingTable {
	return &bindingTable{scopes: []map[string]binding{{}}}
}

func (t *bindingTable) push() {
	t.scopes = append(t.scopes, map[string]binding{})
}

func (t *bindingTable) pop() {
	t.scopes = t.scopes[:len(t.scopes)-1]
}

func (t *bindingTable) top() map[string]binding {
	return t.scopes[len(t.scopes)-1]
}

// bind records a let/assignment. Binding to a bare identifier forwards to
// that identifier; anything else makes the name an ordinary user value.
func (t *bindingTable) bind(name string, value ast.Expr) {
	if ident, ok := value.(*ast.Ident); ok {
		t.top()[name] = binding{aliasOf: ident.Name}
		return
	}
	t.top()[name] = binding{user: true}
}

// bindUser marks a declaration (function definitions, parameters).
func (t *bindingTable) bindUser(name string) {
	t.top()[name] = binding{user: true}
}

func (t *bindingTable) lookup(name string) (binding, bool) {
	for i := len(t.scopes) - 1; i >= 0; i-- {
		if b, ok := t.scopes[i][name]; ok {
			return b, true
		}
	}
	return binding{}, false
}

// resolve follows alias chains to the original name. The second return
// reports whether at least one alias hop was taken. Cycles terminate at the
// first repeated name.
func (t *bindingTable) resolve(name string) (string, bool) {
	seen := map[string]bool{name: true}
	current := name
	hopped := false
	for {
		b, ok := t.lookup(current)
		if !ok || b.user || b.aliasOf == "" {
			return current, hopped
		}
		if seen[b.aliasOf] {
			return b.aliasOf, true
		}
		seen[b.aliasOf] = true
		current = b.aliasOf
		hopped = true
	}
}
