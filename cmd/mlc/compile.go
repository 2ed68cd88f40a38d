package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mlang-dev/mlc/internal/application/services"
)

var (
	compileOutDir     string
	compileAllowHigh  bool
	compileSecretScan bool
	compileGate       string
)

// compileCmd represents the compile command.
var compileCmd = &cobra.Command{
	Use:   "compile <script.ml> [script.ml ...]",
	Short: "Compile ML scripts to routed target code",
	Long: `Parse and analyze ML scripts, then emit target code with every dynamic
operation routed through validated runtime indirection. Scripts blocked by
the security policy produce no output and exit with code 3.

The gate flag replaces the default severity policy with a boolean expression
over finding counts, e.g. --gate "critical == 0 && high <= 2".`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCompileAction(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(compileCmd)

	compileCmd.Flags().StringVarP(&compileOutDir, "out-dir", "d", "", "Write generated code to this directory (default: stdout)")
	compileCmd.Flags().BoolVar(&compileAllowHigh, "allow-high", false, "Downgrade high findings to warnings")
	compileCmd.Flags().BoolVar(&compileSecretScan, "secret-scan", false, "Scan string literals for embedded secrets")
	compileCmd.Flags().StringVar(&compileGate, "gate", "", "Boolean gate expression over finding counts")
}

func runCompileAction(cmd *cobra.Command, paths []string) error {
	reg, err := buildRegistry()
	if err != nil {
		return err
	}

	units := make([]services.SourceUnit, 0, len(paths))
	for _, path := range paths {
		src, err := os.ReadFile(path) //nolint:gosec // user-supplied script path is the point
		if err != nil {
			return fmt.Errorf("failed to read script: %w", err)
		}
		units = append(units, services.SourceUnit{Name: path, Source: string(src)})
	}

	opts := services.CompileOptions{
		AllowHigh:      compileAllowHigh,
		SecretScanning: compileSecretScan,
		Gate:           compileGate,
	}

	compiler := services.NewCompiler(reg, slog.Default())
	results, err := compiler.CompileAll(cmd.Context(), units, opts)
	if err != nil {
		return err
	}

	blocked := 0
	for _, res := range results {
		if res.Blocked {
			blocked++
			fmt.Fprintf(os.Stderr, "%s: blocked: %s\n", res.Name, res.BlockReason)
			continue
		}
		if err := emitProgram(res, len(results) > 1); err != nil {
			return err
		}
	}

	if blocked > 0 {
		return &exitError{
			code: exitBlocked,
			err:  fmt.Errorf("%d of %d script(s) blocked by security policy", blocked, len(results)),
		}
	}
	return nil
}

func emitProgram(res *services.CompileResult, multi bool) error {
	code := res.Program.Render()

	if compileOutDir == "" {
		if multi {
			fmt.Printf("# %s\n", res.Name)
		}
		fmt.Print(code)
		return nil
	}

	if err := os.MkdirAll(compileOutDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	base := strings.TrimSuffix(filepath.Base(res.Name), filepath.Ext(res.Name))
	outPath := filepath.Join(compileOutDir, base+".py")
	if err := os.WriteFile(outPath, []byte(code), 0o644); err != nil { //nolint:gosec // generated code is not sensitive
		return fmt.Errorf("failed to write output: %w", err)
	}
	slog.Info("compiled", "script", res.Name, "output", outPath, "findings", len(res.Findings))
	return nil
}
