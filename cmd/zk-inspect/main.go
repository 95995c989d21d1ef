//go:build native

// Command zk-inspect is the offline companion to zk-init: it never
// boots a live kernel against real syscall traffic, only folds a
// previously recorded commit log back into a fresh kernel.State and
// reports what replay reconstructs -- process and capability tables,
// or the consistency-invariant sweep run against them.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "zk-inspect",
	Short: "Inspect a zero-os commit log offline",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(newReplayCmd())
	rootCmd.AddCommand(newCapsCmd())
	rootCmd.AddCommand(newAuditCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
