// Package registry is the whitelist of every function, attribute, and method
// that generated code may reference. Entries are derived exclusively from
// declarative module descriptors at registration time; there is no
// hand-maintained parallel list, and anything absent from the registry is
// either a user-defined symbol or a compile-time error.
package registry

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Safety classifies a descriptor's function.
type Safety string

const (
	// SafetySafe requires no capability; the operation has no sensitive effect.
	SafetySafe Safety = "safe"
	// SafetyCapabilityGated requires every listed capability at call time.
	SafetyCapabilityGated Safety = "capability-gated"
	// SafetyDenied is registered only so the symbol is recognized and can be
	// rejected with a precise message; it is never callable.
	SafetyDenied Safety = "denied"
)

// SymbolKind distinguishes the three whitelist entry shapes.
type SymbolKind string

const (
	KindFunction  SymbolKind = "function"
	KindAttribute SymbolKind = "attribute"
	KindMethod    SymbolKind = "method"
)

// Requirement names a capability a routed operation must hold. ResourceArg
// selects which argument's string value scopes the check (-1: the check is
// unscoped). For methods the receiver is argument -2 by convention, so
// ResourceArg never refers to it.
type Requirement struct {
	Capability  string `json:"capability" yaml:"capability"`
	ResourceArg int    `json:"resource_arg" yaml:"resource_arg"`
}

// HostFunc is the implementation of a registered free function.
type HostFunc func(args []any) (any, error)

// AttrFunc reads a registered attribute off a receiver value.
type AttrFunc func(recv any) (any, error)

// MethodFunc invokes a registered method on a receiver value.
type MethodFunc func(recv any, args []any) (any, error)

// FunctionDescriptor declares one registered symbol. Fields with json tags
// form the declarative part validated against the descriptor schema; the
// implementation funcs are runtime wiring and never serialized.
type FunctionDescriptor struct {
	Name string     `json:"name" yaml:"name"`
	Kind SymbolKind `json:"kind" yaml:"kind"`
	// Owner is the type hint for attributes and methods ("string", "list",
	// "map"); empty for free functions.
	Owner        string        `json:"owner,omitempty" yaml:"owner,omitempty"`
	Safety       Safety        `json:"safety" yaml:"safety"`
	Capabilities []Requirement `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`

	Impl       HostFunc   `json:"-" yaml:"-"`
	AttrImpl   AttrFunc   `json:"-" yaml:"-"`
	MethodImpl MethodFunc `json:"-" yaml:"-"`
}

// ModuleDescriptor is the single source of truth a module publishes about
// itself. Runtime is a semver constraint on the mlc runtime the module
// requires (empty: any).
type ModuleDescriptor struct {
	Name      string               `json:"name" yaml:"name"`
	Runtime   string               `json:"runtime,omitempty" yaml:"runtime,omitempty"`
	Functions []FunctionDescriptor `json:"functions" yaml:"functions"`
}

// checkRuntime verifies the descriptor's runtime constraint against the
// build version.
func (d *ModuleDescriptor) checkRuntime(buildVersion string) error {
	if d.Runtime == "" {
		return nil
	}
	constraint, err := semver.NewConstraint(d.Runtime)
	if err != nil {
		return fmt.Errorf("module %s: invalid runtime constraint %q: %w", d.Name, d.Runtime, err)
	}
	v, err := semver.NewVersion(buildVersion)
	if err != nil {
		// Dev builds carry no parseable version; accept any constraint.
		return nil
	}
	if !constraint.Check(v) {
		return fmt.Errorf("module %s requires runtime %s, this build is %s", d.Name, d.Runtime, buildVersion)
	}
	return nil
}
