//go:build native

package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newAuditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit <log-file>",
		Short: "Replay a commit log and run the full consistency-invariant sweep",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := openAndReplay(args[0])
			if err != nil {
				return err
			}

			violations := s.Audit()
			if len(violations) == 0 {
				color.New(color.FgGreen).Fprintln(cmd.OutOrStdout(), "[✓] no invariant violations")
				return nil
			}

			printer := color.New(color.FgRed)
			for _, v := range violations {
				printer.Fprintf(cmd.OutOrStdout(), "[✗] %s\n", v.String())
			}
			return nil
		},
	}
}
