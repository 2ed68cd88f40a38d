package codegen

import "github.com/mlang-dev/mlc/internal/lang/ast"

// symbolClass classifies what a declared name refers to inside one scope.
type symbolClass int

const (
	symVar symbolClass = iota
	symFunc
	symParam
	symModule
)

// scope is one function body (or the top level). Declarations are hoisted:
// a `let` anywhere in the body declares the name for the whole body, so
// the generator can distinguish "declared but possibly unassigned" from
// "unknown". Branch and loop bodies share their enclosing function's scope;
// only function definitions open a child scope.
type scope struct {
	parent *scope
	names  map[string]symbolClass
	// sentinel collects names read at a point where assignment could not be
	// proven on every path. The scope's prologue default-initializes them
	// with the uninitialized marker.
	sentinel map[string]bool
}

func newScope(parent *scope) *scope {
	return &scope{
		parent:   parent,
		names:    make(map[string]symbolClass),
		sentinel: make(map[string]bool),
	}
}

func (s *scope) declare(name string, class symbolClass) {
	s.names[name] = class
}

// lookup resolves a name through the scope chain, innermost first.
func (s *scope) lookup(name string) (symbolClass, *scope, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if class, ok := cur.names[name]; ok {
			return class, cur, true
		}
	}
	return 0, nil, false
}

// hoist pre-declares every binding the statement list introduces into this
// scope. Nested function bodies are skipped; their bindings belong to the
// child scope opened when the definition is lowered.
func (s *scope) hoist(stmts []ast.Stmt) {
	for _, st := range stmts {
		switch n := st.(type) {
		case *ast.Let:
			s.declare(n.Name, symVar)
		case *ast.FuncDef:
			s.declare(n.Name, symFunc)
		case *ast.Import:
			s.declare(n.Module, symModule)
		case *ast.If:
			s.hoist(n.Then)
			s.hoist(n.Else)
		case *ast.While:
			s.hoist(n.Body)
		case *ast.Try:
			s.hoist(n.Body)
			for _, c := range n.Clauses {
				s.hoist(c.Body)
			}
		}
	}
}

// flow is the definite-assignment state at one program point.
type flow struct {
	assigned map[string]bool
	// terminated is set after a return; unreachable code constrains nothing.
	terminated bool
}

func newFlow() *flow {
	return &flow{assigned: make(map[string]bool)}
}

func (f *flow) clone() *flow {
	out := &flow{assigned: make(map[string]bool, len(f.assigned)), terminated: f.terminated}
	for k := range f.assigned {
		out.assigned[k] = true
	}
	return out
}

func (f *flow) assign(name string) {
	f.assigned[name] = true
}

// merge joins two branch outcomes: a name is assigned afterwards only if
// every branch that can fall through assigned it.
func (f *flow) merge(a, b *flow) {
	if a.terminated && b.terminated {
		f.terminated = true
		return
	}
	if a.terminated {
		f.adopt(b)
		return
	}
	if b.terminated {
		f.adopt(a)
		return
	}
	for k := range a.assigned {
		if b.assigned[k] {
			f.assigned[k] = true
		}
	}
}

func (f *flow) adopt(other *flow) {
	for k := range other.assigned {
		f.assigned[k] = true
	}
	f.terminated = other.terminated
}
