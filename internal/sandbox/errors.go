package sandbox

import "fmt"

// SecurityError is raised when execution reaches a host primitive the
// restricted namespace withholds, or when the execution host is invoked
// outside a sandbox-managed run. It is never catchable by user code.
type SecurityError struct {
	Name string
}

func (e *SecurityError) Error() string {
	return fmt.Sprintf("%s is not available", e.Name)
}

// ResourceExceededError aborts a run that crossed one of its limits.
// Kind is one of "cpu", "memory", "time".
type ResourceExceededError struct {
	Kind  string
	Limit string
}

func (e *ResourceExceededError) Error() string {
	return fmt.Sprintf("%s limit exceeded (%s)", e.Kind, e.Limit)
}

// Fault is an ordinary user-level error: raised by failing operations inside
// the program and catchable by its own except clauses. Class is the
// condition name except clauses match against.
type Fault struct {
	Class string
	Msg   string
}

func (e *Fault) Error() string {
	return e.Class + ": " + e.Msg
}

// Fault classes raised by the evaluator and by host implementations.
const (
	FaultType          = "TypeError"
	FaultValue         = "ValueError"
	FaultName          = "NameError"
	FaultKey           = "KeyError"
	FaultIndex         = "IndexError"
	FaultZeroDivision  = "ZeroDivisionError"
	FaultIO            = "IOError"
	FaultRuntime       = "RuntimeError"
	FaultUninitialized = "UninitializedError"
)

func faultf(class, format string, args ...any) *Fault {
	return &Fault{Class: class, Msg: fmt.Sprintf(format, args...)}
}
