package sandbox

import (
	"time"

	"github.com/google/uuid"
)

// Status is the terminal state of one sandbox run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFaulted   Status = "faulted"
	StatusTimedOut  Status = "timed-out"
)

// ExecutionResult reports one run. Err is nil only for StatusCompleted; for
// the other states it carries the typed cause (*Fault, *SecurityError,
// *ResourceExceededError, or *capabilities.CapabilityError), so tooling can
// distinguish what the outer status deliberately does not.
type ExecutionResult struct {
	RunID    string
	Status   Status
	Output   string
	Err      error
	Duration time.Duration
}

func newRunID() string { return uuid.NewString() }
