package syscall_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypher-asi/zero-os-sub001/internal/kernelerr"
	"github.com/cypher-asi/zero-os-sub001/internal/syscall"
)

func TestDispatchLegacyAliasReachesCanonicalHandler(t *testing.T) {
	d := syscall.NewDispatcher()

	var gotPID uint64
	d.MustRegister(syscall.Send, func(pid uint64, args syscall.Args) (syscall.Result, error) {
		gotPID = pid
		return syscall.Result{Value: args.A0}, nil
	})

	// Raw number 3 is the legacy alias for Send (0x40).
	res, code := d.Dispatch(7, 3, syscall.Args{A0: 42})

	assert.Equal(t, kernelerr.OK, code)
	assert.Equal(t, uint64(42), res.Value)
	assert.Equal(t, uint64(7), gotPID)
}

func TestDispatchUnknownNumberReturnsENOSYS(t *testing.T) {
	d := syscall.NewDispatcher()
	_, code := d.Dispatch(1, uint32(syscall.IrqWait), syscall.Args{})
	assert.Equal(t, kernelerr.ENOSYS, code)
}

func TestDispatchHandlerErrorMapsToABICode(t *testing.T) {
	d := syscall.NewDispatcher()
	d.MustRegister(syscall.CapCheck, func(pid uint64, args syscall.Args) (syscall.Result, error) {
		return syscall.Result{}, kernelerr.New(kernelerr.InvalidSlot, "bad slot %d", args.A0)
	})

	_, code := d.Dispatch(1, uint32(syscall.CapCheck), syscall.Args{A0: 99})
	assert.Equal(t, kernelerr.EBADF, code)
}

func TestMustRegisterPanicsOnDuplicate(t *testing.T) {
	d := syscall.NewDispatcher()
	noop := func(pid uint64, args syscall.Args) (syscall.Result, error) { return syscall.Result{}, nil }
	d.MustRegister(syscall.Yield, noop)

	require.Panics(t, func() {
		d.MustRegister(syscall.Yield, noop)
	})
}
