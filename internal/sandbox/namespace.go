package sandbox

import "strings"

// hostStub is what every withheld host primitive is bound to. Invoking one
// raises a SecurityError naming the primitive.
type hostStub struct {
	name string
}

func (s *hostStub) invoke() (any, error) {
	return nil, &SecurityError{Name: s.name}
}

// Namespace is the global binding set of one run. A restricted namespace
// contains nothing but failing stubs for every deny-listed primitive name;
// the program's own declarations layer on top of it, and routed operations
// reach host functionality only through the execution host. Even code that
// somehow bypassed generation and carries a direct reference to a denied
// name resolves to a stub and fails safely. Namespaces are never reused
// across runs.
type Namespace struct {
	restricted bool
	bindings   map[string]any
	output     strings.Builder
}

// BuildRestrictedNamespace constructs the namespace every sandboxed run
// starts from.
func BuildRestrictedNamespace(deniedNames []string) *Namespace {
	ns := &Namespace{
		restricted: true,
		bindings:   make(map[string]any, len(deniedNames)),
	}
	for _, name := range deniedNames {
		ns.bindings[name] = &hostStub{name: name}
	}
	return ns
}

// Restricted reports whether the namespace was built by
// BuildRestrictedNamespace. The execution host refuses to serve a namespace
// that was not.
func (ns *Namespace) Restricted() bool { return ns != nil && ns.restricted }

func (ns *Namespace) write(s string) {
	ns.output.WriteString(s)
}

// Output returns everything the run printed.
func (ns *Namespace) Output() string { return ns.output.String() }
