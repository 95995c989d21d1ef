package kernel

import (
	"github.com/cypher-asi/zero-os-sub001/internal/kernelerr"
	"github.com/cypher-asi/zero-os-sub001/internal/process"
	"github.com/cypher-asi/zero-os-sub001/internal/syscall"
)

// registerMemoryHandlers wires the 0x20-0x2F range: mmap, munmap,
// mprotect, memory_size. On the cooperative host process.AddressSpace's
// stub methods report NotSupported uniformly, so these handlers don't
// need their own host-preemptive check the way thread_create does.
func registerMemoryHandlers(s *State) {
	s.Dispatch.MustRegister(syscall.Mmap, func(callerTID uint64, args syscall.Args) (syscall.Result, error) {
		proc, err := s.callerProcess(callerTID)
		if err != nil {
			return syscall.Result{}, err
		}
		region := process.Region{
			Base: args.A0,
			Size: args.A1,
			Protection: process.Protection{
				Read:    args.A2&0x1 != 0,
				Write:   args.A2&0x2 != 0,
				Execute: args.A2&0x4 != 0,
			},
			Backing: process.Backing(args.A3),
		}
		if err := proc.Mem.Mmap(region); err != nil {
			return syscall.Result{}, err
		}
		return syscall.Result{Value: region.Base}, nil
	})

	s.Dispatch.MustRegister(syscall.Munmap, func(callerTID uint64, args syscall.Args) (syscall.Result, error) {
		proc, err := s.callerProcess(callerTID)
		if err != nil {
			return syscall.Result{}, err
		}
		return syscall.Result{}, proc.Mem.Munmap(args.A0)
	})

	s.Dispatch.MustRegister(syscall.Mprotect, func(callerTID uint64, args syscall.Args) (syscall.Result, error) {
		proc, err := s.callerProcess(callerTID)
		if err != nil {
			return syscall.Result{}, err
		}
		prot := process.Protection{
			Read:    args.A1&0x1 != 0,
			Write:   args.A1&0x2 != 0,
			Execute: args.A1&0x4 != 0,
		}
		return syscall.Result{}, proc.Mem.Mprotect(args.A0, prot)
	})

	s.Dispatch.MustRegister(syscall.MemorySize, func(callerTID uint64, args syscall.Args) (syscall.Result, error) {
		sz, err := s.Host.MemorySize()
		if err != nil {
			return syscall.Result{}, kernelerr.Wrap(err, kernelerr.NotSupported, "memory_size: host query failed")
		}
		return syscall.Result{Value: sz}, nil
	})
}

// callerProcess resolves a calling thread's tid to its owning Process.
func (s *State) callerProcess(callerTID uint64) (*process.Process, error) {
	tcb, ok := s.Threads.Get(callerTID)
	if !ok {
		return nil, kernelerr.New(kernelerr.ObjectNotFound, "kernel: tid %d not found", callerTID)
	}
	proc, ok := s.Procs.Get(tcb.PID)
	if !ok {
		return nil, kernelerr.New(kernelerr.ObjectNotFound, "kernel: pid %d not found", tcb.PID)
	}
	return proc, nil
}
