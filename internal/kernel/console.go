package kernel

import (
	"github.com/cypher-asi/zero-os-sub001/internal/capspace"
	"github.com/cypher-asi/zero-os-sub001/internal/commit"
	"github.com/cypher-asi/zero-os-sub001/internal/idalloc"
)

// consoleObjectID is the fixed identifier of the single console object a
// booted kernel instance ever has. An endpoint or a process is one of
// many and gets its id from the monotonic allocator; a kernel only ever
// has one terminal, so it gets a constant id instead of its own counter
// class.
const consoleObjectID = 1

// BootConsole registers the kernel's console object and grants pid a
// write-capable Console capability for it. Like endpoint_create, it
// registers the object first and then commits the CapInserted fact that
// lets replay reproduce the exact slot; it is a kernel-internal
// operation invoked once at boot, before any process has issued a
// syscall, rather than something a caller reaches through the dispatch
// table -- there is no console_create syscall number, and no process
// other than the one boot hands the capability to ever gets one.
func (s *State) BootConsole(pid uint64) (uint32, error) {
	sp, err := s.space(pid)
	if err != nil {
		return 0, err
	}

	if !s.consoleReg.Exists(consoleObjectID) {
		s.consoleReg.Add(consoleObjectID)
	}

	cap := capspace.Capability{
		ID:          s.IDs.Next(idalloc.CapID),
		ObjectType:  capspace.Console,
		ObjectID:    consoleObjectID,
		Permissions: capspace.Permissions{Write: true},
	}
	slot := sp.Insert(cap)

	if _, err := s.Log.Append(commit.CapInserted, 0, mustEncode(commit.CapInsertedPayload{
		PID: pid, Slot: slot, Cap: cap,
	})); err != nil {
		return 0, err
	}

	return slot, nil
}
