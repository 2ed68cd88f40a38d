// Package sandbox executes routed programs inside a restricted namespace
// with an activated capability context and enforced resource limits. Each
// run is isolated: fresh namespace, fresh context stack, no state shared
// with concurrent runs. The registry must be frozen before the first run.
package sandbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/mlang-dev/mlc/internal/codegen"
	"github.com/mlang-dev/mlc/internal/domain/capabilities"
	"github.com/mlang-dev/mlc/internal/registry"
)

// Sandbox is the execution host factory. It is safe for concurrent use;
// every Run builds its own namespace, host, and capability context.
type Sandbox struct {
	reg    *registry.Registry
	logger *slog.Logger
}

// New creates a sandbox over a frozen registry.
func New(reg *registry.Registry, logger *slog.Logger) *Sandbox {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sandbox{reg: reg, logger: logger}
}

// Run executes the program with the given capability tokens active for the
// duration of the run. The context guard is released on every exit path,
// including faults, timeouts, and evaluator panics. The result is always
// returned; errors inside user code never crash the host process. Running
// against an unfrozen registry is a programming error and panics, as
// lock-free lookups are only sound after the write barrier.
func (s *Sandbox) Run(ctx context.Context, prog *codegen.Program, tokens []capabilities.Token, limits ResourceLimits) ExecutionResult {
	if !s.reg.Frozen() {
		panic("sandbox: Run called before registry Freeze")
	}
	limits = limits.withDefaults()
	result := ExecutionResult{RunID: newRunID()}
	start := time.Now()

	ns := BuildRestrictedNamespace(registry.DeniedNames())
	capCtx := capabilities.NewContext()
	host := newHost(s.reg, capCtx, ns)

	runCtx, cancel := context.WithTimeout(ctx, limits.WallClock)
	defer cancel()

	guard := capCtx.Activate(tokens...)
	defer guard.Release()

	s.logger.Debug("sandbox run starting",
		"run_id", result.RunID,
		"tokens", len(tokens),
		"max_steps", limits.MaxSteps,
		"wall_clock", limits.WallClock)

	err := newEvaluator(host, limits, runCtx.Done()).run(prog)

	result.Duration = time.Since(start)
	result.Output = ns.Output()
	result.Err = err
	result.Status = statusFor(err)

	s.logger.Info("sandbox run finished",
		"run_id", result.RunID,
		"status", result.Status,
		"duration", result.Duration)
	if err != nil {
		s.logger.Debug("sandbox run error", "run_id", result.RunID, "error", err)
	}
	return result
}

func statusFor(err error) Status {
	if err == nil {
		return StatusCompleted
	}
	if re, ok := err.(*ResourceExceededError); ok && re.Kind == "time" {
		return StatusTimedOut
	}
	return StatusFaulted
}
