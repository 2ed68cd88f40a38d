package sandbox

import (
	"fmt"

	"github.com/mlang-dev/mlc/internal/domain/capabilities"
	"github.com/mlang-dev/mlc/internal/registry"
)

// Host is the routing layer routed operations pass through at run time. It
// re-validates every operation against the registry — compile-time routing
// is not trusted on its own — and requires the entry's capabilities from the
// active context before touching the implementation. Checks are synchronous
// and always precede the guarded operation.
type Host struct {
	reg    *registry.Registry
	capCtx *capabilities.Context
	ns     *Namespace
}

func newHost(reg *registry.Registry, capCtx *capabilities.Context, ns *Namespace) *Host {
	return &Host{reg: reg, capCtx: capCtx, ns: ns}
}

// AssertRestricted refuses to serve execution outside a sandbox-managed
// namespace with an attached capability context.
func (h *Host) AssertRestricted() error {
	if h.capCtx == nil || !h.ns.Restricted() {
		return &SecurityError{Name: "unsandboxed execution"}
	}
	return nil
}

// SafeCall routes a whitelisted free-function invocation.
func (h *Host) SafeCall(module, name string, args []any) (any, error) {
	entry, ok := h.reg.AllowedCall(name)
	if !ok || entry.Safety == registry.SafetyDenied {
		return nil, &SecurityError{Name: module + "." + name}
	}
	if err := h.require(entry, args); err != nil {
		return nil, err
	}
	// print renders into the run's output buffer, never process stdout.
	if entry.Module == "builtins" && name == "print" {
		h.ns.write(renderArgs(args) + "\n")
		return nil, nil
	}
	return wrapHostErr(entry.Invoke(args))
}

// SafeAttrAccess routes an attribute read, resolving the owner type hint
// from the live receiver.
func (h *Host) SafeAttrAccess(recv any, name string) (any, error) {
	owner := typeHintOf(recv)
	entry, ok := h.reg.AllowedAttribute(owner, name)
	if !ok {
		return nil, faultf(FaultType, "%s has no attribute %q", owner, name)
	}
	if err := h.require(entry, nil); err != nil {
		return nil, err
	}
	return wrapHostErr(entry.ReadAttr(recv))
}

// SafeMethodCall routes a method invocation.
func (h *Host) SafeMethodCall(recv any, name string, args []any) (any, error) {
	owner := typeHintOf(recv)
	entry, ok := h.reg.AllowedMethod(owner, name)
	if !ok {
		return nil, faultf(FaultType, "%s has no method %q", owner, name)
	}
	if err := h.require(entry, args); err != nil {
		return nil, err
	}
	return wrapHostErr(entry.InvokeMethod(recv, args))
}

// require checks every capability the entry demands, scoping each check to
// the argument its requirement names.
func (h *Host) require(entry *registry.Entry, args []any) error {
	for _, req := range entry.Capabilities {
		resource := ""
		if req.ResourceArg >= 0 {
			if req.ResourceArg >= len(args) {
				return faultf(FaultType, "%s: missing argument %d", entry.QualifiedName(), req.ResourceArg)
			}
			s, ok := args[req.ResourceArg].(string)
			if !ok {
				return faultf(FaultType, "%s: argument %d must be a string", entry.QualifiedName(), req.ResourceArg)
			}
			resource = s
		}
		if err := h.capCtx.Require(req.Capability, resource); err != nil {
			return err
		}
	}
	return nil
}

// wrapHostErr keeps *Fault as-is and folds any other implementation error
// into a catchable RuntimeError fault.
func wrapHostErr(v any, err error) (any, error) {
	if err == nil {
		return v, nil
	}
	if f, ok := err.(*Fault); ok {
		return nil, f
	}
	return nil, &Fault{Class: FaultRuntime, Msg: err.Error()}
}

// typeHintOf names a runtime value's type the way registry owners do.
func typeHintOf(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case []any:
		return "list"
	case map[string]any:
		return "map"
	case int64:
		return "int"
	case float64:
		return "float"
	case bool:
		return "bool"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", v)
	}
}
