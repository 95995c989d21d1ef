package commit

import "github.com/cypher-asi/zero-os-sub001/internal/capspace"

// Payload types, one per Kind, gob-encoded into Record.Payload. These are
// plain data -- internal/kernel is the only package that both produces
// and (on replay) consumes them.

type SysEventEntryPayload struct {
	PID  uint64
	Call uint32
	T0   int64
}

type SysEventExitPayload struct {
	Result int
	T1     int64
}

type CapInsertedPayload struct {
	PID  uint64
	Slot uint32
	Cap  capspace.Capability

	// Derived is true when Cap came from capspace.Derive rather than a
	// fresh object grant; SourcePermissions is then the permissions of
	// the capability it was derived from, letting internal/invariant
	// re-check I2 (derived permissions pointwise <= source) purely from
	// the log, without needing the source space still live.
	Derived           bool
	SourcePermissions capspace.Permissions

	// EndpointMaxDepth is the queue depth endpoint_create was called
	// with, carried along so replay can reconstruct the ipc.Table entry
	// itself (not just the capability naming it) the first time an
	// Endpoint-typed CapInserted record is folded for a given object id.
	// Zero for every other object type.
	EndpointMaxDepth int
}

type CapRemovedPayload struct {
	PID  uint64
	Slot uint32
}

type ProcessCreatedPayload struct {
	PID    uint64
	Name   string
	Parent uint64
}

type ThreadStateChangedPayload struct {
	TID  uint64
	PID  uint64
	From string
	To   string

	// Priority and TimeSliceNanos are only meaningful when From == "none"
	// (thread creation): internal/kernel's Apply needs them to recreate
	// the TCB identically on replay.
	Priority       int
	TimeSliceNanos int64

	// The remaining fields mirror thread.State's payload for whichever
	// Kind To names, so replay can rebuild the exact tagged state rather
	// than just its Kind.
	CPU          int
	WaitUntil    int64
	WaitHasUntil bool
	BlockReason  string
	ExitCode     int32
}

type MessageEnqueuedPayload struct {
	EndpointID      uint64
	Tag             uint32
	From            uint64
	Data            []byte
	TransferredCaps []capspace.Capability
}

type MessageDequeuedPayload struct {
	EndpointID uint64
	Tag        uint32
}

type CapTransferredPayload struct {
	CapID uint64
	From  uint64
	To    uint64
}
