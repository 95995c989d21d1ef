package kernel

import (
	"github.com/cypher-asi/zero-os-sub001/internal/capspace"
	"github.com/cypher-asi/zero-os-sub001/internal/kernelerr"
	"github.com/cypher-asi/zero-os-sub001/internal/syscall"
)

// registerIRQHandlers wires the 0x50-0x5F range. Neither the browser
// host nor this kernel's in-process native host owns real interrupt
// hardware, so both calls verify the capability and then report
// NotSupported -- the range is reserved for a future native build that
// runs closer to actual interrupt delivery, not simply absent.
func registerIRQHandlers(s *State) {
	irqType := capspace.Irq

	s.Dispatch.MustRegister(syscall.IrqWait, func(callerTID uint64, args syscall.Args) (syscall.Result, error) {
		sp, err := s.callerSpace(callerTID)
		if err != nil {
			return syscall.Result{}, err
		}
		if _, err := sp.Check(uint32(args.A0), capspace.Permissions{Read: true}, &irqType); err != nil {
			return syscall.Result{}, err
		}
		return syscall.Result{}, kernelerr.New(kernelerr.NotSupported, "irq_wait: no interrupt delivery on this host")
	})

	s.Dispatch.MustRegister(syscall.IrqAck, func(callerTID uint64, args syscall.Args) (syscall.Result, error) {
		sp, err := s.callerSpace(callerTID)
		if err != nil {
			return syscall.Result{}, err
		}
		if _, err := sp.Check(uint32(args.A0), capspace.Permissions{Write: true}, &irqType); err != nil {
			return syscall.Result{}, err
		}
		return syscall.Result{}, kernelerr.New(kernelerr.NotSupported, "irq_ack: no interrupt delivery on this host")
	})
}
