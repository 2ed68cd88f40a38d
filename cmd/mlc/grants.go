package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	infraCapabilities "github.com/mlang-dev/mlc/internal/infrastructure/capabilities"
)

// grantsCmd groups management of persisted capability grants.
var grantsCmd = &cobra.Command{
	Use:   "grants",
	Short: "Manage persisted capability grants",
}

var grantsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List capability grants saved with \"grant always\"",
	RunE: func(_ *cobra.Command, _ []string) error {
		gp, err := grantsPath()
		if err != nil {
			return err
		}
		store := infraCapabilities.NewFileStore(gp)
		tokens, err := store.Load()
		if err != nil {
			return err
		}
		if len(tokens) == 0 {
			fmt.Printf("No saved grants (%s).\n", store.Path())
			return nil
		}
		fmt.Printf("Saved grants (%s):\n", store.Path())
		for _, tok := range tokens {
			fmt.Printf("  %s\n", tok)
		}
		return nil
	},
}

var grantsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all saved capability grants",
	RunE: func(_ *cobra.Command, _ []string) error {
		gp, err := grantsPath()
		if err != nil {
			return err
		}
		if err := os.Remove(gp); err != nil {
			if os.IsNotExist(err) {
				fmt.Println("No saved grants.")
				return nil
			}
			return fmt.Errorf("failed to clear grants: %w", err)
		}
		fmt.Printf("Cleared saved grants (%s).\n", gp)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(grantsCmd)
	grantsCmd.AddCommand(grantsListCmd)
	grantsCmd.AddCommand(grantsClearCmd)
}
