package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mlang-dev/mlc/internal/application/services"
	"github.com/mlang-dev/mlc/internal/domain/capabilities"
	"github.com/mlang-dev/mlc/internal/infrastructure/config"
	"github.com/mlang-dev/mlc/internal/sandbox"
)

var (
	runTrust         bool
	runGrants        []string
	runSecurityLevel string
	runTimeout       time.Duration
	runMaxSteps      int64
	runMaxAllocs     int64
)

// runCmd represents the run command.
var runCmd = &cobra.Command{
	Use:   "run <manifest.yaml | script.ml>",
	Short: "Compile a script and execute it in the sandbox",
	Long: `Compile an ML script and execute it inside the capability sandbox.

A manifest declares the script, the capability grants it requests, the
security level, and resource limits. Passing a bare .ml script runs it with
no grants and default limits. Requested grants not already on file go
through the gatekeeper: saved grants apply silently, everything else is
prompted for (subject to the security level).

Exit codes: 0 success, 3 blocked by policy, 4 capability denied at runtime,
5 resource limit exceeded, 6 script fault.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRunAction(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&runTrust, "trust", false, "Auto-grant all requested capabilities (use with caution)")
	runCmd.Flags().StringSliceVar(&runGrants, "grant", nil, "Request a capability as kind:pattern (repeatable)")
	runCmd.Flags().StringVar(&runSecurityLevel, "security-level", "", "Override the security level: strict, standard, permissive")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "Wall-clock limit for the run (overrides manifest)")
	runCmd.Flags().Int64Var(&runMaxSteps, "max-steps", 0, "Evaluation step limit (overrides manifest)")
	runCmd.Flags().Int64Var(&runMaxAllocs, "max-allocs", 0, "Allocation limit in bytes (overrides manifest)")
}

func runRunAction(cmd *cobra.Command, path string) error {
	manifest, scriptPath, err := loadRunTarget(path)
	if err != nil {
		return err
	}

	src, err := os.ReadFile(scriptPath) //nolint:gosec // user-supplied script path is the point
	if err != nil {
		return fmt.Errorf("failed to read script: %w", err)
	}

	reg, err := buildRegistry()
	if err != nil {
		return err
	}

	requested, err := requestedTokens(manifest)
	if err != nil {
		return err
	}
	level := manifest.SecurityLevel
	if runSecurityLevel != "" {
		level = runSecurityLevel
	}
	switch level {
	case services.SecurityStrict, services.SecurityStandard, services.SecurityPermissive:
	default:
		return fmt.Errorf("invalid security level %q", level)
	}

	// Grants are resolved before compilation so the analyzer knows which
	// gated imports are authorized.
	gp, err := grantsPath()
	if err != nil {
		return err
	}
	gatekeeper := services.NewCapabilityGatekeeper(gp, level, slog.Default())
	granted, err := gatekeeper.GrantTokens(requested, runTrust)
	if err != nil {
		return &exitError{code: exitCapability, err: err}
	}

	compiler := services.NewCompiler(reg, slog.Default())
	res, err := compiler.Compile(scriptPath, string(src), services.CompileOptions{
		Grants:         granted,
		SecretScanning: manifest.SecretScanning,
		AllowHigh:      manifest.AllowHigh,
		Gate:           manifest.Gate,
	})
	if err != nil {
		return err
	}
	if res.Blocked {
		for _, finding := range res.Findings {
			fmt.Fprintf(os.Stderr, "  %s\n", finding)
		}
		return &exitError{
			code: exitBlocked,
			err:  fmt.Errorf("%s: blocked: %s", scriptPath, res.BlockReason),
		}
	}

	limits := manifest.ResourceLimits()
	if runTimeout > 0 {
		limits.WallClock = runTimeout
	}
	if runMaxSteps > 0 {
		limits.MaxSteps = runMaxSteps
	}
	if runMaxAllocs > 0 {
		limits.MaxAllocBytes = runMaxAllocs
	}

	box := sandbox.New(reg, slog.Default())
	result := box.Run(cmd.Context(), res.Program, granted, limits)

	fmt.Print(result.Output)
	slog.Debug("run finished",
		"run_id", result.RunID, "status", result.Status, "duration", result.Duration)

	if result.Status == sandbox.StatusCompleted {
		return nil
	}
	return &exitError{code: exitCodeFor(result.Err), err: result.Err}
}

// requestedTokens merges the manifest grants with --grant flags.
func requestedTokens(manifest *config.Manifest) ([]capabilities.Token, error) {
	tokens := manifest.Tokens()
	for _, spec := range runGrants {
		kind, pattern, ok := strings.Cut(spec, ":")
		if !ok {
			return nil, fmt.Errorf("invalid grant %q: expected kind:pattern", spec)
		}
		tok, err := capabilities.Issue(kind, pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid grant %q: %w", spec, err)
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}

// loadRunTarget accepts either a manifest or a bare script. A bare script
// gets an empty manifest: no grants, standard level, default limits.
func loadRunTarget(path string) (*config.Manifest, string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		manifest, err := config.LoadManifest(path)
		if err != nil {
			return nil, "", err
		}
		if manifest.Script == "" {
			return nil, "", fmt.Errorf("manifest %s declares no script", path)
		}
		return manifest, filepath.Join(filepath.Dir(path), manifest.Script), nil
	}

	manifest := &config.Manifest{Script: filepath.Base(path)}
	if err := manifest.Validate(); err != nil {
		return nil, "", err
	}
	return manifest, path, nil
}

// exitCodeFor maps the typed run failure to the documented exit codes.
func exitCodeFor(err error) int {
	var capErr *capabilities.CapabilityError
	if errors.As(err, &capErr) {
		return exitCapability
	}
	var resErr *sandbox.ResourceExceededError
	if errors.As(err, &resErr) {
		return exitResource
	}
	return exitFault
}
