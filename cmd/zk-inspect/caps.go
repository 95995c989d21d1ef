//go:build native

package main

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newCapsCmd() *cobra.Command {
	var pid int64

	cmd := &cobra.Command{
		Use:   "caps <log-file>",
		Short: "Table of one process's capability space, reconstructed by replay",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if pid < 0 {
				return fmt.Errorf("caps: --pid is required")
			}

			s, _, err := openAndReplay(args[0])
			if err != nil {
				return err
			}

			proc, ok := s.Procs.Get(uint64(pid))
			if !ok {
				color.New(color.FgRed).Fprintf(cmd.OutOrStdout(), "pid %d not found\n", pid)
				return nil
			}

			slots := proc.CapSpace.Slots()
			nums := make([]uint32, 0, len(slots))
			for slot := range slots {
				nums = append(nums, slot)
			}
			sort.Slice(nums, func(i, j int) bool { return nums[i] < nums[j] })

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Slot", "Type", "Object ID", "R", "W", "G", "Generation"})

			for _, slot := range nums {
				c := slots[slot]
				table.Append([]string{
					fmt.Sprintf("%d", slot),
					c.ObjectType.String(),
					fmt.Sprintf("%d", c.ObjectID),
					boolMark(c.Permissions.Read),
					boolMark(c.Permissions.Write),
					boolMark(c.Permissions.Grant),
					fmt.Sprintf("%d", c.Generation),
				})
			}
			table.Render()

			return nil
		},
	}

	cmd.Flags().Int64Var(&pid, "pid", -1, "process id whose capability space to print")
	return cmd
}

func boolMark(b bool) string {
	if b {
		return "x"
	}
	return ""
}
