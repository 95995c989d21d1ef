package kernel

import (
	"github.com/cypher-asi/zero-os-sub001/internal/capspace"
	"github.com/cypher-asi/zero-os-sub001/internal/kernelerr"
	"github.com/cypher-asi/zero-os-sub001/internal/syscall"
)

// registerIOHandlers wires the 0x60-0x6F range: port-mapped I/O. Same
// story as IRQ -- verified against the capability, then NotSupported,
// since this kernel has no direct hardware port access on either host.
func registerIOHandlers(s *State) {
	ioType := capspace.IoPort

	s.Dispatch.MustRegister(syscall.IoPortRead, func(callerTID uint64, args syscall.Args) (syscall.Result, error) {
		sp, err := s.callerSpace(callerTID)
		if err != nil {
			return syscall.Result{}, err
		}
		if _, err := sp.Check(uint32(args.A0), capspace.Permissions{Read: true}, &ioType); err != nil {
			return syscall.Result{}, err
		}
		return syscall.Result{}, kernelerr.New(kernelerr.NotSupported, "ioport_read: no port I/O on this host")
	})

	s.Dispatch.MustRegister(syscall.IoPortWrite, func(callerTID uint64, args syscall.Args) (syscall.Result, error) {
		sp, err := s.callerSpace(callerTID)
		if err != nil {
			return syscall.Result{}, err
		}
		if _, err := sp.Check(uint32(args.A0), capspace.Permissions{Write: true}, &ioType); err != nil {
			return syscall.Result{}, err
		}
		return syscall.Result{}, kernelerr.New(kernelerr.NotSupported, "ioport_write: no port I/O on this host")
	})
}
