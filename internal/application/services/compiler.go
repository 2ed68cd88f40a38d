// Package services wires the compilation pipeline and the grant workflow:
// source text in, analyzed and routed programs out, with the security policy
// applied between analysis and code generation.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/expr-lang/expr"
	"golang.org/x/sync/errgroup"

	"github.com/mlang-dev/mlc/internal/analyzer"
	"github.com/mlang-dev/mlc/internal/codegen"
	"github.com/mlang-dev/mlc/internal/domain/capabilities"
	"github.com/mlang-dev/mlc/internal/domain/findings"
	"github.com/mlang-dev/mlc/internal/lang/parser"
	"github.com/mlang-dev/mlc/internal/registry"
)

// CompileOptions configures one compilation pass.
type CompileOptions struct {
	// Grants are the tokens the embedder plans to activate at run time;
	// imports gated on a granted capability are not flagged.
	Grants []capabilities.Token
	// SecretScanning enables the embedded-secret pass over string literals.
	SecretScanning bool
	// AllowHigh downgrades high findings to warnings. Critical findings
	// block regardless.
	AllowHigh bool
	// Gate is an optional boolean expression over finding counts
	// (critical, high, medium, low, total) that must evaluate true for
	// compilation to proceed, e.g. "critical == 0 && high <= 2". When set
	// it replaces the default severity policy.
	Gate string
}

// CompileResult is the outcome of one compilation pass. Blocked results
// carry findings but no program.
type CompileResult struct {
	Name     string
	Program  *codegen.Program
	Findings []findings.Finding
	Blocked  bool
	// BlockReason explains a Blocked result.
	BlockReason string
}

// Compiler runs parse, analysis, policy gate, and code generation against a
// frozen registry. It is safe for concurrent use.
type Compiler struct {
	reg    *registry.Registry
	logger *slog.Logger
}

// NewCompiler creates a compiler over a frozen registry.
func NewCompiler(reg *registry.Registry, logger *slog.Logger) *Compiler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Compiler{reg: reg, logger: logger}
}

// Compile runs the full pipeline on one source unit. Parse failures and
// generation failures return an error; a policy block is not an error but a
// Blocked result, so callers can still report the findings.
func (c *Compiler) Compile(name, source string, opts CompileOptions) (*CompileResult, error) {
	tree, err := parser.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	aOpts := []analyzer.Option{analyzer.WithGrants(opts.Grants)}
	if opts.SecretScanning {
		aOpts = append(aOpts, analyzer.WithSecretScanning())
	}
	found := analyzer.New(c.reg, aOpts...).Analyze(tree)

	result := &CompileResult{Name: name, Findings: found}
	blocked, reason, err := c.gate(found, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if blocked {
		result.Blocked = true
		result.BlockReason = reason
		c.logger.Warn("compilation blocked by security policy",
			"unit", name, "reason", reason, "findings", len(found))
		return result, nil
	}

	prog, err := codegen.New(c.reg).Generate(tree)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	result.Program = prog
	c.logger.Debug("compiled", "unit", name, "findings", len(found))
	return result, nil
}

// gate decides whether the findings block compilation: either via the
// configured gate expression or via the default severity policy.
func (c *Compiler) gate(found []findings.Finding, opts CompileOptions) (blocked bool, reason string, err error) {
	if opts.Gate == "" {
		report := findings.NewReport(found)
		if opts.AllowHigh {
			report.AllowHigh()
		}
		if report.Blocks() {
			blocking := report.Blocking()
			return true, fmt.Sprintf("%d blocking finding(s), first: %s", len(blocking), blocking[0]), nil
		}
		return false, "", nil
	}

	env := severityCounts(found)
	program, err := expr.Compile(opts.Gate, expr.Env(env), expr.AsBool())
	if err != nil {
		return false, "", fmt.Errorf("invalid gate expression %q: %w", opts.Gate, err)
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return false, "", fmt.Errorf("gate expression %q: %w", opts.Gate, err)
	}
	pass, ok := out.(bool)
	if !ok {
		return false, "", fmt.Errorf("gate expression %q did not return a boolean", opts.Gate)
	}
	if !pass {
		return true, fmt.Sprintf("gate %q evaluated false for %v", opts.Gate, env), nil
	}
	return false, "", nil
}

func severityCounts(found []findings.Finding) map[string]any {
	counts := map[string]any{
		"critical": 0, "high": 0, "medium": 0, "low": 0, "total": len(found),
	}
	for _, f := range found {
		switch {
		case f.Severity.Equals(findings.SevCritical):
			counts["critical"] = counts["critical"].(int) + 1
		case f.Severity.Equals(findings.SevHigh):
			counts["high"] = counts["high"].(int) + 1
		case f.Severity.Equals(findings.SevMedium):
			counts["medium"] = counts["medium"].(int) + 1
		case f.Severity.Equals(findings.SevLow):
			counts["low"] = counts["low"].(int) + 1
		}
	}
	return counts
}

// SourceUnit pairs a unit name with its source text for batch compilation.
type SourceUnit struct {
	Name   string
	Source string
}

// CompileAll compiles independent units in parallel. Results keep input
// order. The first hard error cancels the remaining work.
func (c *Compiler) CompileAll(ctx context.Context, units []SourceUnit, opts CompileOptions) ([]*CompileResult, error) {
	results := make([]*CompileResult, len(units))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, unit := range units {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := c.Compile(unit.Name, unit.Source, opts)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
