package console_test

import (
	"bytes"
	"testing"

	gomock "github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypher-asi/zero-os-sub001/internal/console"
	"github.com/cypher-asi/zero-os-sub001/internal/syscall"
)

// fakeDispatcher records every DispatchSyscall call instead of running a
// live kernel behind it.
type fakeDispatcher struct {
	calls []syscall.Args
	code  int
}

func (f *fakeDispatcher) DispatchSyscall(pid uint64, raw uint32, args syscall.Args) (syscall.Result, int) {
	f.calls = append(f.calls, args)
	return syscall.Result{}, f.code
}

func TestServerSendDeliversLineAsEndpointSend(t *testing.T) {
	d := &fakeDispatcher{}
	var out bytes.Buffer
	srv := console.NewServer("test-console", 1, 1, 7, d, &out)
	defer srv.Close()

	require.NoError(t, srv.Send("hello kernel"))

	require.Len(t, d.calls, 1)
	assert.Equal(t, uint64(7), d.calls[0].A0)
	assert.Equal(t, "hello kernel", string(d.calls[0].Data))
}

func TestServerSendErrorSurfacesNonZeroCode(t *testing.T) {
	d := &fakeDispatcher{code: 5}
	var out bytes.Buffer
	srv := console.NewServer("test-console-err", 1, 1, 7, d, &out)
	defer srv.Close()

	assert.Error(t, srv.Send("boom"))
}

func TestServerSendUsesGeneratedMock(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	d := NewMockDispatcher(ctrl)
	d.EXPECT().
		DispatchSyscall(uint64(1), uint32(syscall.Send), gomock.Any()).
		Return(syscall.Result{}, 0).
		Times(1)

	var out bytes.Buffer
	srv := console.NewServer("test-console-mock", 1, 1, 7, d, &out)
	defer srv.Close()

	require.NoError(t, srv.Send("ping"))
}
