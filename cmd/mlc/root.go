package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mlang-dev/mlc/internal/registry"
	"github.com/mlang-dev/mlc/internal/stdmods"
)

// Exit codes beyond the generic failure, so CI can tell a policy block from
// a runtime fault.
const (
	exitBlocked    = 3
	exitCapability = 4
	exitResource   = 5
	exitFault      = 6
)

var (
	cfgFile string
	verbose bool
)

// exitError carries a specific process exit code up through cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// rootCmd is the application entry point.
var rootCmd = &cobra.Command{
	Use:   "mlc",
	Short: "Compiler and sandboxed runtime for ML scripts",
	Long: `mlc compiles ML scripts through a security analyzer and a routing code
generator, and executes them in a capability-gated sandbox. Every dynamic
operation a script performs is validated against a whitelist registry, and
privileged operations require capability tokens granted by the user.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		setupLogging()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and maps typed failures to exit codes.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)

		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.mlc.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// initConfig loads configuration from the config file and environment.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			slog.Error("failed to find home directory", "error", err)
			os.Exit(1)
		}

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".mlc")
	}

	viper.SetEnvPrefix("MLC")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		slog.Debug("using config file", "file", viper.ConfigFileUsed())
	}
}

func setupLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}

// buildRegistry constructs the frozen standard-module registry every command
// compiles and runs against.
func buildRegistry() (*registry.Registry, error) {
	reg := registry.New()
	if err := stdmods.RegisterAll(reg); err != nil {
		return nil, fmt.Errorf("failed to register standard modules: %w", err)
	}
	reg.Freeze()
	return reg, nil
}

// grantsPath resolves where persisted capability grants live.
func grantsPath() (string, error) {
	if p := viper.GetString("grants_file"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to find home directory: %w", err)
	}
	return filepath.Join(home, ".mlc", "grants.yaml"), nil
}
