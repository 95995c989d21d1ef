package invariant_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypher-asi/zero-os-sub001/internal/capspace"
	"github.com/cypher-asi/zero-os-sub001/internal/commit"
	"github.com/cypher-asi/zero-os-sub001/internal/idalloc"
	"github.com/cypher-asi/zero-os-sub001/internal/invariant"
	"github.com/cypher-asi/zero-os-sub001/internal/ipc"
	"github.com/cypher-asi/zero-os-sub001/internal/objreg"
	"github.com/cypher-asi/zero-os-sub001/internal/process"
	"github.com/cypher-asi/zero-os-sub001/internal/thread"
)

type fakeResolver struct{ reg *objreg.Registry }

func (r fakeResolver) Exists(_ capspace.ObjectType, id uint64) bool       { return r.reg.Exists(id) }
func (r fakeResolver) Generation(_ capspace.ObjectType, id uint64) uint32 { return r.reg.Generation(id) }
func (r fakeResolver) BumpGeneration(_ capspace.ObjectType, id uint64) uint32 {
	return r.reg.Bump(id)
}

func TestSlotUniquenessPassesOnWellFormedSpace(t *testing.T) {
	reg := objreg.New()
	reg.Add(1)
	ids := idalloc.New()
	sp := capspace.New(ids, fakeResolver{reg}, func() int64 { return 0 })
	sp.Insert(capspace.Capability{ObjectType: capspace.Endpoint, ObjectID: 1})

	violations := invariant.SlotUniqueness(map[uint64]*capspace.Space{1: sp})
	assert.Empty(t, violations)
}

func TestDerivedPermissionsAttenuatedCatchesEscalation(t *testing.T) {
	payload := commit.CapInsertedPayload{
		PID:    1,
		Slot:   0,
		Cap:    capspace.Capability{Permissions: capspace.Permissions{Read: true, Write: true}},
		Derived: true,
		SourcePermissions: capspace.Permissions{Read: true},
	}
	raw, err := commit.EncodePayload(payload)
	require.NoError(t, err)

	records := []commit.Record{{Seq: 0, Kind: commit.CapInserted, Payload: raw}}
	violations := invariant.DerivedPermissionsAttenuated(records)
	require.Len(t, violations, 1)
	assert.Equal(t, "I2", violations[0].Invariant)
}

func TestQueueMetricsConsistentPassesAtCapacity(t *testing.T) {
	ep := ipc.NewEndpoint(1, 1, 1)
	require.NoError(t, ep.Enqueue(&ipc.Message{Tag: 1}))

	violations := invariant.QueueMetricsConsistent([]*ipc.Endpoint{ep})
	assert.Empty(t, violations)
}

func TestThreadOwnershipClosureCatchesOrphan(t *testing.T) {
	procTable := process.NewTable()
	threadTable := thread.NewTable()

	reg := objreg.New()
	reg.Add(1)
	ids := idalloc.New()
	sp := capspace.New(ids, fakeResolver{reg}, func() int64 { return 0 })

	p := procTable.Create(1, "init", 0, sp, 0)
	require.NoError(t, procTable.AddThread(p.PID, 10))
	threadTable.Create(10, p.PID, 0, 0)

	// tid 11 is tracked by no process: an orphan.
	threadTable.Create(11, p.PID, 0, 0)

	violations := invariant.ThreadOwnershipClosure(procTable.Snapshot(), threadTable.Snapshot())
	require.Len(t, violations, 1)
	assert.Equal(t, "I5", violations[0].Invariant)
}

func TestZombieCorrectnessCatchesLiveThreadUnderZombieProcess(t *testing.T) {
	procTable := process.NewTable()
	threadTable := thread.NewTable()

	reg := objreg.New()
	reg.Add(1)
	ids := idalloc.New()
	sp := capspace.New(ids, fakeResolver{reg}, func() int64 { return 0 })

	p := procTable.Create(1, "init", 0, sp, 0)
	require.NoError(t, procTable.AddThread(p.PID, 10))
	threadTable.Create(10, p.PID, 0, 0)
	require.NoError(t, procTable.SetState(p.PID, process.Running))
	require.NoError(t, procTable.SetState(p.PID, process.Zombie))

	violations := invariant.ZombieCorrectness(procTable.Snapshot(), threadTable)
	require.Len(t, violations, 1)
	assert.Equal(t, "I7", violations[0].Invariant)
}
