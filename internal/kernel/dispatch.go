package kernel

import (
	"github.com/cypher-asi/zero-os-sub001/internal/commit"
	"github.com/cypher-asi/zero-os-sub001/internal/kernelerr"
	"github.com/cypher-asi/zero-os-sub001/internal/klog"
	"github.com/cypher-asi/zero-os-sub001/internal/syscall"
)

// DispatchSyscall is the one entry point every host trampoline calls: it
// brackets the handler with SysEventEntry/SysEventExit commits
// around every call, stamps the entry record's sequence
// number into args.EventID so the handler's own commits can reference
// it, and -- if Config.AuditEveryCall is set -- runs a full invariant
// sweep immediately after, logging (not panicking on) any violation so
// a single bad syscall doesn't take the whole process down mid-test.
func (s *State) DispatchSyscall(callerTID uint64, raw uint32, args syscall.Args) (syscall.Result, int) {
	t0 := s.Host.NowNanos()
	pid, _ := s.callerPID(callerTID) // 0 for an unknown tid; the handler reports that error

	entry, err := s.Log.Append(commit.SysEventEntry, 0, mustEncode(commit.SysEventEntryPayload{
		PID: pid, Call: raw, T0: t0,
	}))
	if err != nil {
		klog.Error("kernel: failed to append sys_event_entry: %v", err)
		return syscall.Result{}, kernelerr.Code(err)
	}
	args.EventID = entry.Seq

	res, code := s.Dispatch.Dispatch(callerTID, raw, args)

	if _, err := s.Log.Append(commit.SysEventExit, entry.Seq, mustEncode(commit.SysEventExitPayload{
		Result: code, T1: s.Host.NowNanos(),
	})); err != nil {
		klog.Error("kernel: failed to append sys_event_exit: %v", err)
	}

	if s.Config.AuditEveryCall {
		if violations := s.Audit(); len(violations) > 0 {
			for _, v := range violations {
				klog.Error("kernel: invariant violation after call %#x: %s", raw, v.String())
			}
		}
	}

	return res, code
}
