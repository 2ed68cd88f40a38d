package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mlang-dev/mlc/internal/version"
)

// versionCmd implements the version command.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of mlc",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("mlc version %s\n", version.Get().Full())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
