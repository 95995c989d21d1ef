package kernel

import "github.com/cypher-asi/zero-os-sub001/internal/syscall"

// registerMiscHandlers wires the 0x00-0x0F range: yield and the
// monotonic clock read, the only two calls with no capability or table
// precondition at all.
func registerMiscHandlers(s *State) {
	s.Dispatch.MustRegister(syscall.Yield, func(callerTID uint64, args syscall.Args) (syscall.Result, error) {
		s.Host.Yield()
		tcb, ok := s.Threads.Get(callerTID)
		if ok {
			s.Sched.Add(callerTID, tcb.Priority)
		}
		return syscall.Result{}, nil
	})

	s.Dispatch.MustRegister(syscall.Now, func(callerTID uint64, args syscall.Args) (syscall.Result, error) {
		return syscall.Result{Value: uint64(s.Host.NowNanos())}, nil
	})
}
