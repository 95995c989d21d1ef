package kernel_test

import (
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypher-asi/zero-os-sub001/internal/capspace"
	"github.com/cypher-asi/zero-os-sub001/internal/commit"
	"github.com/cypher-asi/zero-os-sub001/internal/host"
	"github.com/cypher-asi/zero-os-sub001/internal/idalloc"
	"github.com/cypher-asi/zero-os-sub001/internal/kernel"
	"github.com/cypher-asi/zero-os-sub001/internal/sched"
	"github.com/cypher-asi/zero-os-sub001/internal/syscall"
)

func newState(t *testing.T) (*kernel.State, *commit.MemSink) {
	t.Helper()

	boot, err := uuid.NewV4()
	require.NoError(t, err)

	sink := commit.NewMemSink()
	log := commit.New(sink, boot)

	cfg := kernel.DefaultConfig()
	cfg.AuditEveryCall = true

	s := kernel.New(cfg, host.New(), sched.NewCooperative(), log)
	require.NoError(t, s.Init())

	return s, sink
}

func TestSpawnAndEndpointSendSurviveReplay(t *testing.T) {
	s, sink := newState(t)

	proc, tcb, err := s.Spawn("init", 0, 0, 0, 0)
	require.NoError(t, err)

	res, code := s.DispatchSyscall(tcb.TID, uint32(syscall.EndpointCreate), syscall.Args{A0: 4})
	require.Equal(t, 0, code)
	endpointSlot := uint32(res.Value)

	_, code = s.DispatchSyscall(tcb.TID, uint32(syscall.Send), syscall.Args{
		A0: uint64(endpointSlot), A3: 0xFF, Data: []byte("hello"),
	})
	require.Equal(t, 0, code)

	violations := s.Audit()
	assert.Empty(t, violations)

	// Fold the same log into a fresh, never-dispatched State and confirm
	// it reconstructs the process and the pending message.
	boot2, err := uuid.NewV4()
	require.NoError(t, err)
	replayed := kernel.New(kernel.DefaultConfig(), host.New(), sched.NewCooperative(), commit.New(commit.NewMemSink(), boot2))
	require.NoError(t, replayed.Init())

	require.NoError(t, commit.Replay(sink, replayed))

	gotProc, ok := replayed.Procs.Get(proc.PID)
	require.True(t, ok)
	assert.Equal(t, "init", gotProc.Name)

	recvRes, code := replayed.DispatchSyscall(tcb.TID, uint32(syscall.Receive), syscall.Args{A0: uint64(endpointSlot)})
	require.Equal(t, 0, code)
	assert.Equal(t, "hello", string(recvRes.Data))

	assert.Empty(t, replayed.Audit())
}

func TestCallCompletesSendReceiveRoundTrip(t *testing.T) {
	s, _ := newState(t)

	server, serverTCB, err := s.Spawn("server", 0, 0, 0, 0)
	require.NoError(t, err)
	client, clientTCB, err := s.Spawn("client", 0, 0, 0, 0)
	require.NoError(t, err)

	res, code := s.DispatchSyscall(serverTCB.TID, uint32(syscall.EndpointCreate), syscall.Args{A0: 4})
	require.Equal(t, 0, code)
	serverSlot := uint32(res.Value)
	serverCap, err := server.CapSpace.Check(serverSlot, capspace.Permissions{Read: true}, nil)
	require.NoError(t, err)

	// Hand the client a write-capable capability to the server's request
	// endpoint directly, standing in for whatever bootstrap mechanism
	// (spawn-time inheritance, an earlier message) would normally deliver
	// it -- Call itself doesn't care how the caller came to hold it.
	clientSlot := client.CapSpace.Insert(capspace.Capability{
		ID:          s.IDs.Peek(idalloc.CapID) + 1000,
		ObjectType:  capspace.Endpoint,
		ObjectID:    serverCap.ObjectID,
		Permissions: capspace.Permissions{Write: true},
	})

	// Nobody has received yet, so the call blocks on its own reply
	// endpoint.
	callRes, code := s.DispatchSyscall(clientTCB.TID, uint32(syscall.Call), syscall.Args{
		A0: uint64(clientSlot), A1: 1, A3: 0xFF, Data: []byte("ping"),
	})
	require.Equal(t, 0, code)
	assert.Equal(t, uint64(0), callRes.Value)

	recvRes, code := s.DispatchSyscall(serverTCB.TID, uint32(syscall.Receive), syscall.Args{A0: uint64(serverSlot)})
	require.Equal(t, 0, code)
	require.Equal(t, "ping", string(recvRes.Data))

	var replySlot uint32
	found := false
	for slot, cap := range server.CapSpace.Slots() {
		if slot != serverSlot && cap.ObjectType == capspace.Endpoint {
			replySlot = slot
			found = true
			break
		}
	}
	require.True(t, found, "server should have received the reply capability")

	_, code = s.DispatchSyscall(serverTCB.TID, uint32(syscall.Send), syscall.Args{
		A0: uint64(replySlot), A3: 0xFF, Data: []byte("pong"),
	})
	require.Equal(t, 0, code)

	// The client's thread was woken by the reply; a later Call from the
	// same TID resumes the pending receive instead of sending again.
	callRes, code = s.DispatchSyscall(clientTCB.TID, uint32(syscall.Call), syscall.Args{
		A0: uint64(clientSlot), A1: 1,
	})
	require.Equal(t, 0, code)
	assert.Equal(t, uint64(1), callRes.Value)
	assert.Equal(t, "pong", string(callRes.Data))

	assert.Empty(t, s.Audit())
}

func TestThreadExitSetsProcessExitStatus(t *testing.T) {
	s, sink := newState(t)

	proc, tcb, err := s.Spawn("solo", 0, 0, 0, 0)
	require.NoError(t, err)

	require.NoError(t, s.ThreadExit(tcb.TID, 7, 0))

	got, ok := s.Procs.Get(proc.PID)
	require.True(t, ok)
	require.NotNil(t, got.ExitStatus)
	assert.Equal(t, int32(7), *got.ExitStatus)

	boot2, err := uuid.NewV4()
	require.NoError(t, err)
	replayed := kernel.New(kernel.DefaultConfig(), host.New(), sched.NewCooperative(), commit.New(commit.NewMemSink(), boot2))
	require.NoError(t, replayed.Init())
	require.NoError(t, commit.Replay(sink, replayed))

	gotReplayed, ok := replayed.Procs.Get(proc.PID)
	require.True(t, ok)
	require.NotNil(t, gotReplayed.ExitStatus)
	assert.Equal(t, int32(7), *gotReplayed.ExitStatus)
}

func TestBootConsoleGrantsWriteCapableCapability(t *testing.T) {
	s, _ := newState(t)

	proc, _, err := s.Spawn("init", 0, 0, 0, 0)
	require.NoError(t, err)

	slot, err := s.BootConsole(proc.PID)
	require.NoError(t, err)

	cap, err := proc.CapSpace.Check(slot, capspace.Permissions{Write: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), cap.ObjectID)
}
