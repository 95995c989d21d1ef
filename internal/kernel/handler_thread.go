package kernel

import (
	"github.com/cypher-asi/zero-os-sub001/internal/commit"
	"github.com/cypher-asi/zero-os-sub001/internal/idalloc"
	"github.com/cypher-asi/zero-os-sub001/internal/kernelerr"
	"github.com/cypher-asi/zero-os-sub001/internal/syscall"
	"github.com/cypher-asi/zero-os-sub001/internal/thread"
)

// logThreadTransition appends a ThreadStateChanged commit carrying every
// field Apply needs to rebuild the exact tagged state on replay, not
// just the Kind name.
func (s *State) logThreadTransition(tid, pid uint64, from string, next thread.State, eventID uint64) error {
	_, err := s.Log.Append(commit.ThreadStateChanged, eventID, mustEncode(commit.ThreadStateChangedPayload{
		TID: tid, PID: pid, From: from, To: next.Kind.String(),
		CPU:          next.CPU,
		WaitUntil:    next.WaitUntil,
		WaitHasUntil: next.WaitHasUntil,
		BlockReason:  next.BlockReason,
		ExitCode:     next.ExitCode,
	}))
	return err
}

// registerThreadHandlers wires the 0x10-0x1F range: thread_create,
// thread_exit, thread_wait, thread_block, thread_unblock.
func registerThreadHandlers(s *State) {
	s.Dispatch.MustRegister(syscall.ThreadCreate, func(callerTID uint64, args syscall.Args) (syscall.Result, error) {
		if !s.Host.Preemptive() {
			return syscall.Result{}, kernelerr.New(kernelerr.NotSupported, "thread_create: host has no preemptive scheduler")
		}
		caller, ok := s.Threads.Get(callerTID)
		if !ok {
			return syscall.Result{}, kernelerr.New(kernelerr.ObjectNotFound, "thread_create: caller tid %d not found", callerTID)
		}

		priority := int(args.A0)
		timeSlice := int64(args.A1)

		tid := s.IDs.Next(idalloc.TID)
		s.Threads.Create(tid, caller.PID, priority, timeSlice)
		if err := s.Procs.AddThread(caller.PID, tid); err != nil {
			return syscall.Result{}, err
		}
		s.Sched.Add(tid, priority)

		if _, err := s.Log.Append(commit.ThreadStateChanged, args.EventID, mustEncode(commit.ThreadStateChangedPayload{
			TID: tid, PID: caller.PID, From: "none", To: thread.Ready.String(),
			Priority: priority, TimeSliceNanos: timeSlice,
		})); err != nil {
			return syscall.Result{}, err
		}

		return syscall.Result{Value: tid}, nil
	})

	s.Dispatch.MustRegister(syscall.ThreadExit, func(callerTID uint64, args syscall.Args) (syscall.Result, error) {
		return syscall.Result{}, s.ThreadExit(callerTID, int32(args.A0), args.EventID)
	})

	s.Dispatch.MustRegister(syscall.ThreadWait, func(callerTID uint64, args syscall.Args) (syscall.Result, error) {
		tcb, ok := s.Threads.Get(callerTID)
		if !ok {
			return syscall.Result{}, kernelerr.New(kernelerr.ObjectNotFound, "thread_wait: tid %d not found", callerTID)
		}
		until := int64(args.A0)
		next := thread.State{Kind: thread.Waiting, WaitUntil: until, WaitHasUntil: until != 0}
		from := tcb.State.Kind.String()
		if err := s.Threads.Transition(callerTID, next); err != nil {
			return syscall.Result{}, err
		}
		s.Sched.Remove(callerTID)
		return syscall.Result{}, s.logThreadTransition(callerTID, tcb.PID, from, next, args.EventID)
	})

	s.Dispatch.MustRegister(syscall.ThreadBlock, func(callerTID uint64, args syscall.Args) (syscall.Result, error) {
		tcb, ok := s.Threads.Get(callerTID)
		if !ok {
			return syscall.Result{}, kernelerr.New(kernelerr.ObjectNotFound, "thread_block: tid %d not found", callerTID)
		}
		next := thread.State{Kind: thread.Blocked, BlockReason: string(args.Data)}
		from := tcb.State.Kind.String()
		if err := s.Threads.Transition(callerTID, next); err != nil {
			return syscall.Result{}, err
		}
		s.Sched.Remove(callerTID)
		return syscall.Result{}, s.logThreadTransition(callerTID, tcb.PID, from, next, args.EventID)
	})

	s.Dispatch.MustRegister(syscall.ThreadUnblock, func(callerTID uint64, args syscall.Args) (syscall.Result, error) {
		target := args.A0
		tcb, ok := s.Threads.Get(target)
		if !ok {
			return syscall.Result{}, kernelerr.New(kernelerr.ObjectNotFound, "thread_unblock: tid %d not found", target)
		}
		from := tcb.State.Kind.String()
		next := readyState()
		if err := s.Threads.Transition(target, next); err != nil {
			return syscall.Result{}, err
		}
		s.Sched.Add(target, tcb.Priority)
		return syscall.Result{}, s.logThreadTransition(target, tcb.PID, from, next, args.EventID)
	})
}
