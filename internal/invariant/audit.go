package invariant

import (
	"github.com/cypher-asi/zero-os-sub001/internal/capspace"
	"github.com/cypher-asi/zero-os-sub001/internal/commit"
	"github.com/cypher-asi/zero-os-sub001/internal/ipc"
	"github.com/cypher-asi/zero-os-sub001/internal/process"
	"github.com/cypher-asi/zero-os-sub001/internal/thread"
)

// Snapshot bundles the table state kernel.State.Audit pulls together
// for a full sweep, so call sites don't have to know which check needs
// which table.
type Snapshot struct {
	Spaces    map[uint64]*capspace.Space
	Endpoints []*ipc.Endpoint
	Processes []*process.Process
	Threads   *thread.Table
	Records   []commit.Record
}

// Audit runs every invariant check that doesn't require a full I6
// replay (which is comparatively expensive and left to RunWithReplay),
// and returns every violation found across all of them.
func Audit(s Snapshot) []Violation {
	var out []Violation
	out = append(out, SlotUniqueness(s.Spaces)...)
	out = append(out, DerivedPermissionsAttenuated(s.Records)...)
	out = append(out, QueueMetricsConsistent(s.Endpoints)...)
	out = append(out, ThreadOwnershipClosure(s.Processes, s.Threads.Snapshot())...)
	out = append(out, ZombieCorrectness(s.Processes, s.Threads)...)
	return out
}

// RunWithReplay runs Audit plus the I6 replay check against a
// freshly-constructed applier, for use in integration tests where
// reconstructing a parallel kernel.State to fold into is cheap.
func RunWithReplay(s Snapshot, applier commit.Applier) []Violation {
	out := Audit(s)
	out = append(out, ReplayReproducesState(s.Records, applier)...)
	return out
}
