package registry

import (
	"fmt"
	"sync"

	"github.com/mlang-dev/mlc/internal/version"
)

// Entry is one whitelisted symbol reachable from generated code, together
// with the capabilities required to invoke it. Entries are immutable after
// Freeze; the code generator and the runtime routing primitives both resolve
// against them, and nothing else decides whether a routed operation is safe.
type Entry struct {
	Module       string
	Name         string
	Kind         SymbolKind
	Owner        string
	Safety       Safety
	Capabilities []Requirement

	impl       HostFunc
	attrImpl   AttrFunc
	methodImpl MethodFunc
}

// QualifiedName returns "module.name" for functions, "owner.name" for
// attributes and methods.
func (e *Entry) QualifiedName() string {
	if e.Owner != "" {
		return e.Owner + "." + e.Name
	}
	return e.Module + "." + e.Name
}

// Invoke calls a function entry's implementation.
func (e *Entry) Invoke(args []any) (any, error) {
	if e.impl == nil {
		return nil, fmt.Errorf("%s is not callable", e.QualifiedName())
	}
	return e.impl(args)
}

// ReadAttr reads an attribute entry off the receiver.
func (e *Entry) ReadAttr(recv any) (any, error) {
	if e.attrImpl == nil {
		return nil, fmt.Errorf("%s is not an attribute", e.QualifiedName())
	}
	return e.attrImpl(recv)
}

// InvokeMethod calls a method entry on the receiver.
func (e *Entry) InvokeMethod(recv any, args []any) (any, error) {
	if e.methodImpl == nil {
		return nil, fmt.Errorf("%s is not a method", e.QualifiedName())
	}
	return e.methodImpl(recv, args)
}

// Registry is the process-wide whitelist. It is mutable only during the
// initialization phase: modules register, the embedder calls Freeze, and
// every compilation and sandbox run thereafter reads it without locking.
type Registry struct {
	mu      sync.Mutex
	frozen  bool
	modules map[string]bool
	// functions maps bare symbol name -> entry (free functions only).
	functions map[string]*Entry
	// attributes and methods map owner -> name -> entry.
	attributes map[string]map[string]*Entry
	methods    map[string]map[string]*Entry
	// byModule preserves registration order per module for import binding.
	byModule map[string][]*Entry
}

// New creates an empty, unfrozen registry.
func New() *Registry {
	return &Registry{
		modules:    make(map[string]bool),
		functions:  make(map[string]*Entry),
		attributes: make(map[string]map[string]*Entry),
		methods:    make(map[string]map[string]*Entry),
		byModule:   make(map[string][]*Entry),
	}
}

// Register derives whitelist entries from a module descriptor. It validates
// the descriptor against the embedded schema, checks the module's runtime
// version constraint, and rejects duplicate modules and symbols. Calling
// Register after Freeze is a programming error and panics.
func (r *Registry) Register(desc ModuleDescriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		panic("registry: Register called after Freeze")
	}

	if err := validateDescriptor(&desc); err != nil {
		return err
	}
	if err := desc.checkRuntime(version.Version); err != nil {
		return err
	}
	if r.modules[desc.Name] {
		return fmt.Errorf("module %s already registered", desc.Name)
	}

	// Stage entries so a failed registration leaves the registry untouched.
	staged := make([]*Entry, 0, len(desc.Functions))
	for i := range desc.Functions {
		fd := &desc.Functions[i]
		if _, denied := Denied(fd.Name); denied && fd.Safety != SafetyDenied {
			return fmt.Errorf("module %s: %s collides with a deny-listed primitive", desc.Name, fd.Name)
		}
		entry := &Entry{
			Module:       desc.Name,
			Name:         fd.Name,
			Kind:         fd.Kind,
			Owner:        fd.Owner,
			Safety:       fd.Safety,
			Capabilities: append([]Requirement(nil), fd.Capabilities...),
			impl:         fd.Impl,
			attrImpl:     fd.AttrImpl,
			methodImpl:   fd.MethodImpl,
		}
		switch fd.Kind {
		case KindFunction:
			if existing, ok := r.functions[fd.Name]; ok {
				return fmt.Errorf("module %s: function %s already registered by module %s", desc.Name, fd.Name, existing.Module)
			}
		case KindAttribute:
			if _, ok := r.attributes[fd.Owner][fd.Name]; ok {
				return fmt.Errorf("module %s: attribute %s.%s already registered", desc.Name, fd.Owner, fd.Name)
			}
		case KindMethod:
			if _, ok := r.methods[fd.Owner][fd.Name]; ok {
				return fmt.Errorf("module %s: method %s.%s already registered", desc.Name, fd.Owner, fd.Name)
			}
		}
		staged = append(staged, entry)
	}

	for _, entry := range staged {
		switch entry.Kind {
		case KindFunction:
			r.functions[entry.Name] = entry
		case KindAttribute:
			if r.attributes[entry.Owner] == nil {
				r.attributes[entry.Owner] = make(map[string]*Entry)
			}
			r.attributes[entry.Owner][entry.Name] = entry
		case KindMethod:
			if r.methods[entry.Owner] == nil {
				r.methods[entry.Owner] = make(map[string]*Entry)
			}
			r.methods[entry.Owner][entry.Name] = entry
		}
		r.byModule[desc.Name] = append(r.byModule[desc.Name], entry)
	}
	r.modules[desc.Name] = true
	return nil
}

// Freeze ends the registration phase. Reads after Freeze are lock-free.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Frozen reports whether the registration phase has ended.
func (r *Registry) Frozen() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frozen
}

// AllowedCall returns the whitelist entry for a free function name.
func (r *Registry) AllowedCall(name string) (*Entry, bool) {
	e, ok := r.functions[name]
	return e, ok
}

// AllowedAttribute returns the entry for owner.attr attribute reads.
func (r *Registry) AllowedAttribute(owner, attr string) (*Entry, bool) {
	e, ok := r.attributes[owner][attr]
	return e, ok
}

// AllowedMethod returns the entry for owner.method invocations.
func (r *Registry) AllowedMethod(owner, method string) (*Entry, bool) {
	e, ok := r.methods[owner][method]
	return e, ok
}

// KnownAttrOrMethod reports whether any owner registers an attribute or
// method with the given name. The analyzer uses this for attribute chains
// whose receiver type cannot be resolved statically.
func (r *Registry) KnownAttrOrMethod(name string) bool {
	for _, byName := range r.attributes {
		if _, ok := byName[name]; ok {
			return true
		}
	}
	for _, byName := range r.methods {
		if _, ok := byName[name]; ok {
			return true
		}
	}
	return false
}

// HasModule reports whether a module descriptor with the given name was
// registered. Import statements resolve against this.
func (r *Registry) HasModule(name string) bool {
	return r.modules[name]
}

// ModuleEntries returns a module's entries in registration order.
func (r *Registry) ModuleEntries(name string) []*Entry {
	return r.byModule[name]
}
