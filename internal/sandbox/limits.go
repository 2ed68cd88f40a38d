package sandbox

import "time"

// ResourceLimits bounds one run. CPU is bounded by an evaluation step
// budget, memory by an allocation budget over values the program builds, and
// wall-clock time by a watchdog that cancels the run from outside.
type ResourceLimits struct {
	// MaxSteps is the evaluation step budget. Zero means the default.
	MaxSteps int64
	// MaxAllocBytes bounds cumulative string, list, and map allocation.
	MaxAllocBytes int64
	// WallClock bounds total run time.
	WallClock time.Duration
}

// DefaultLimits are deliberately tight; embedders running trusted workloads
// raise them explicitly.
func DefaultLimits() ResourceLimits {
	return ResourceLimits{
		MaxSteps:      1_000_000,
		MaxAllocBytes: 16 << 20,
		WallClock:     5 * time.Second,
	}
}

func (l ResourceLimits) withDefaults() ResourceLimits {
	d := DefaultLimits()
	if l.MaxSteps <= 0 {
		l.MaxSteps = d.MaxSteps
	}
	if l.MaxAllocBytes <= 0 {
		l.MaxAllocBytes = d.MaxAllocBytes
	}
	if l.WallClock <= 0 {
		l.WallClock = d.WallClock
	}
	return l
}
