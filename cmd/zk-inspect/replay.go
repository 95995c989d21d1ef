//go:build native

package main

import (
	"github.com/gofrs/uuid"
	"github.com/spf13/cobra"

	"github.com/cypher-asi/zero-os-sub001/internal/commit"
	"github.com/cypher-asi/zero-os-sub001/internal/host"
	"github.com/cypher-asi/zero-os-sub001/internal/kernel"
	"github.com/cypher-asi/zero-os-sub001/internal/sched"
)

// openAndReplay opens the bbolt-backed commit log at path and folds
// every record into a freshly booted kernel.State, the same
// fold-from-empty-state reconstruction internal/commit.Replay performs
// for a live kernel resuming after a restart. The returned State has
// never dispatched a syscall of its own -- it exists purely to hold the
// tables Replay populated, for this process's own inspection.
func openAndReplay(path string) (*kernel.State, int, error) {
	sink, err := commit.OpenBoltSink(path)
	if err != nil {
		return nil, 0, err
	}
	defer sink.Close()

	records, err := sink.Records()
	if err != nil {
		return nil, 0, err
	}

	bootID, err := uuid.NewV4()
	if err != nil {
		return nil, 0, err
	}

	cfg := kernel.DefaultConfig()
	s := kernel.New(cfg, host.New(), sched.NewCooperative(), commit.New(commit.NewMemSink(), bootID))
	if err := s.Init(); err != nil {
		return nil, 0, err
	}

	if err := commit.Replay(sink, s); err != nil {
		return nil, 0, err
	}

	return s, len(records), nil
}

func newReplayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay <log-file>",
		Short: "Fold a commit log into a fresh kernel and report what it reconstructs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, count, err := openAndReplay(args[0])
			if err != nil {
				return err
			}

			procs := s.Procs.Snapshot()
			cmd.Printf("replayed %d records\n", count)
			cmd.Printf("processes: %d\n", len(procs))
			for _, p := range procs {
				cmd.Printf("  pid %d  %-16s state=%-8s threads=%d\n", p.PID, p.Name, p.State, len(p.ThreadSet))
			}
			return nil
		},
	}
}
