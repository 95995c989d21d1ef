package kernel

import (
	"github.com/cypher-asi/zero-os-sub001/internal/capspace"
	"github.com/cypher-asi/zero-os-sub001/internal/commit"
	"github.com/cypher-asi/zero-os-sub001/internal/kernelerr"
	"github.com/cypher-asi/zero-os-sub001/internal/syscall"
)

func permsFromBits(bits uint64) capspace.Permissions {
	return capspace.Permissions{
		Read:  bits&0x1 != 0,
		Write: bits&0x2 != 0,
		Grant: bits&0x4 != 0,
	}
}

// registerCapabilityHandlers wires the 0x30-0x3F range: cap_check,
// cap_derive, cap_grant (derive-and-insert into another process's
// space), cap_revoke, cap_delete. cap_insert (raw object grant) is a
// kernel-internal operation (used by endpoint_create and spawn) rather
// than something arbitrary callers invoke, so it has no syscall number
// of its own -- CapInsertNum is reserved but unregistered, reporting
// ENOSYS like any other unassigned slot.
func registerCapabilityHandlers(s *State) {
	s.Dispatch.MustRegister(syscall.CapCheck, func(callerTID uint64, args syscall.Args) (syscall.Result, error) {
		sp, err := s.callerSpace(callerTID)
		if err != nil {
			return syscall.Result{}, err
		}
		required := permsFromBits(args.A1)
		if _, err := sp.Check(uint32(args.A0), required, nil); err != nil {
			return syscall.Result{}, err
		}
		return syscall.Result{}, nil
	})

	s.Dispatch.MustRegister(syscall.CapDerive, func(callerTID uint64, args syscall.Args) (syscall.Result, error) {
		sp, err := s.callerSpace(callerTID)
		if err != nil {
			return syscall.Result{}, err
		}
		src, checkErr := sp.Check(uint32(args.A0), capspace.Permissions{Grant: true}, nil)
		if checkErr != nil {
			return syscall.Result{}, checkErr
		}
		derived, err := sp.Derive(uint32(args.A0), permsFromBits(args.A1))
		if err != nil {
			return syscall.Result{}, err
		}
		slot := sp.Insert(derived)

		pid, _ := s.callerPID(callerTID)
		if _, err := s.Log.Append(commit.CapInserted, args.EventID, mustEncode(commit.CapInsertedPayload{
			PID: pid, Slot: slot, Cap: derived, Derived: true, SourcePermissions: src.Permissions,
		})); err != nil {
			return syscall.Result{}, err
		}

		return syscall.Result{Value: uint64(slot)}, nil
	})

	s.Dispatch.MustRegister(syscall.CapGrant, func(callerTID uint64, args syscall.Args) (syscall.Result, error) {
		fromSpace, err := s.callerSpace(callerTID)
		if err != nil {
			return syscall.Result{}, err
		}
		toPID := args.A2
		toSpace, err := s.space(toPID)
		if err != nil {
			return syscall.Result{}, err
		}

		src, checkErr := fromSpace.Check(uint32(args.A0), capspace.Permissions{Grant: true}, nil)
		if checkErr != nil {
			return syscall.Result{}, checkErr
		}

		slot, derived, err := capspace.GrantTo(fromSpace, uint32(args.A0), toSpace, permsFromBits(args.A1))
		if err != nil {
			return syscall.Result{}, err
		}

		if _, err := s.Log.Append(commit.CapInserted, args.EventID, mustEncode(commit.CapInsertedPayload{
			PID: toPID, Slot: slot, Cap: derived, Derived: true, SourcePermissions: src.Permissions,
		})); err != nil {
			return syscall.Result{}, err
		}

		return syscall.Result{Value: uint64(slot)}, nil
	})

	s.Dispatch.MustRegister(syscall.CapRevoke, func(callerTID uint64, args syscall.Args) (syscall.Result, error) {
		sp, err := s.callerSpace(callerTID)
		if err != nil {
			return syscall.Result{}, err
		}
		pid, _ := s.callerPID(callerTID)
		if _, err := sp.Revoke(uint32(args.A0)); err != nil {
			return syscall.Result{}, err
		}
		_, err = s.Log.Append(commit.CapRemoved, args.EventID, mustEncode(commit.CapRemovedPayload{
			PID: pid, Slot: uint32(args.A0),
		}))
		return syscall.Result{}, err
	})

	s.Dispatch.MustRegister(syscall.CapDelete, func(callerTID uint64, args syscall.Args) (syscall.Result, error) {
		sp, err := s.callerSpace(callerTID)
		if err != nil {
			return syscall.Result{}, err
		}
		pid, _ := s.callerPID(callerTID)
		if _, err := sp.Delete(uint32(args.A0)); err != nil {
			return syscall.Result{}, err
		}
		_, err = s.Log.Append(commit.CapRemoved, args.EventID, mustEncode(commit.CapRemovedPayload{
			PID: pid, Slot: uint32(args.A0),
		}))
		return syscall.Result{}, err
	})
}

func (s *State) callerPID(callerTID uint64) (uint64, error) {
	tcb, ok := s.Threads.Get(callerTID)
	if !ok {
		return 0, kernelerr.New(kernelerr.ObjectNotFound, "kernel: tid %d not found", callerTID)
	}
	return tcb.PID, nil
}

func (s *State) callerSpace(callerTID uint64) (*capspace.Space, error) {
	pid, err := s.callerPID(callerTID)
	if err != nil {
		return nil, err
	}
	return s.space(pid)
}
