package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mlang-dev/mlc/internal/application/services"
	"github.com/mlang-dev/mlc/internal/infrastructure/output"
	"github.com/mlang-dev/mlc/internal/version"
)

var (
	analyzeFormat     string
	analyzeOutFile    string
	analyzeSecretScan bool
	analyzeAllowHigh  bool
	analyzeGate       string
)

// analyzeCmd represents the analyze command.
var analyzeCmd = &cobra.Command{
	Use:   "analyze <script.ml>",
	Short: "Run the security analyzer over an ML script",
	Long: `Parse a script and report every dangerous pattern the analyzer finds,
without generating code. The exit code is 3 when the findings would block
compilation under the active policy, so the command slots into CI pipelines.`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return runAnalyzeAction(args[0])
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "table", "Output format: table, json, sarif")
	analyzeCmd.Flags().StringVarP(&analyzeOutFile, "output", "o", "", "Output file path (default: stdout)")
	analyzeCmd.Flags().BoolVar(&analyzeSecretScan, "secret-scan", false, "Scan string literals for embedded secrets")
	analyzeCmd.Flags().BoolVar(&analyzeAllowHigh, "allow-high", false, "Downgrade high findings to warnings")
	analyzeCmd.Flags().StringVar(&analyzeGate, "gate", "", "Boolean gate expression over finding counts")
}

func runAnalyzeAction(path string) error {
	reg, err := buildRegistry()
	if err != nil {
		return err
	}

	src, err := os.ReadFile(path) //nolint:gosec // user-supplied script path is the point
	if err != nil {
		return fmt.Errorf("failed to read script: %w", err)
	}

	compiler := services.NewCompiler(reg, slog.Default())
	res, err := compiler.Compile(path, string(src), services.CompileOptions{
		SecretScanning: analyzeSecretScan,
		AllowHigh:      analyzeAllowHigh,
		Gate:           analyzeGate,
	})
	if err != nil {
		return err
	}

	writer := os.Stdout
	if analyzeOutFile != "" {
		//nolint:gosec // user-controlled output file path is intentional
		file, err := os.Create(analyzeOutFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() {
			_ = file.Close()
		}()
		writer = file
	}

	formatter, err := output.NewFormatter(analyzeFormat, writer)
	if err != nil {
		return err
	}
	report := &output.AnalysisReport{
		Unit:        path,
		Version:     version.Get().String(),
		Findings:    res.Findings,
		Blocked:     res.Blocked,
		BlockReason: res.BlockReason,
	}
	if err := formatter.Format(report); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	if res.Blocked {
		return &exitError{
			code: exitBlocked,
			err:  fmt.Errorf("%s: blocked: %s", path, res.BlockReason),
		}
	}
	return nil
}
