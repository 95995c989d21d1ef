package ipc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypher-asi/zero-os-sub001/internal/capspace"
	"github.com/cypher-asi/zero-os-sub001/internal/idalloc"
	"github.com/cypher-asi/zero-os-sub001/internal/ipc"
	"github.com/cypher-asi/zero-os-sub001/internal/kernelerr"
)

type fakeResolver struct{ gens map[uint64]uint32 }

func newFakeResolver() *fakeResolver { return &fakeResolver{gens: make(map[uint64]uint32)} }
func (r *fakeResolver) register(id uint64) {
	if _, ok := r.gens[id]; !ok {
		r.gens[id] = 0
	}
}
func (r *fakeResolver) Exists(_ capspace.ObjectType, id uint64) bool {
	_, ok := r.gens[id]
	return ok
}
func (r *fakeResolver) Generation(_ capspace.ObjectType, id uint64) uint32 { return r.gens[id] }
func (r *fakeResolver) BumpGeneration(_ capspace.ObjectType, id uint64) uint32 {
	r.gens[id]++
	return r.gens[id]
}

func newSpace(r capspace.Resolver) (*capspace.Space, *idalloc.Allocator) {
	ids := idalloc.New()
	return capspace.New(ids, r, func() int64 { return 42 }), ids
}

// Three sends in order are received in order.
func TestFIFOOrdering(t *testing.T) {
	resolver := newFakeResolver()
	resolver.register(1)

	table := ipc.NewTable()
	ep := table.Create(1, 100, 0)

	sender, _ := newSpace(resolver)
	receiver, _ := newSpace(resolver)

	for i, tag := range []uint32{1, 2, 3} {
		_, err := ipc.Send(ep, sender, 100, tag, []byte{'M', '0' + byte(i+1), ' '}, nil)
		require.NoError(t, err)
	}

	for _, wantTag := range []uint32{1, 2, 3} {
		rcv, ok := ipc.Receive(ep, receiver)
		require.True(t, ok)
		assert.Equal(t, wantTag, rcv.Message.Tag)
	}

	_, ok := ipc.Receive(ep, receiver)
	assert.False(t, ok)
}

// Queue full on the third send with max_depth=2.
func TestQueueFull(t *testing.T) {
	resolver := newFakeResolver()
	resolver.register(1)

	table := ipc.NewTable()
	ep := table.Create(1, 100, 2)
	sender, _ := newSpace(resolver)

	for i := 0; i < 2; i++ {
		_, err := ipc.Send(ep, sender, 100, uint32(i), []byte("x"), nil)
		require.NoError(t, err)
	}

	_, err := ipc.Send(ep, sender, 100, 99, []byte("x"), nil)
	require.Error(t, err)
	ke, ok := err.(*kernelerr.Error)
	require.True(t, ok)
	assert.Equal(t, kernelerr.QueueFull, ke.Reason)

	m := ep.Metrics()
	assert.Equal(t, 2, m.QueueDepth)
	assert.Equal(t, 2, m.QueueHighWater)
	assert.Equal(t, 2, m.TotalMessages)
}

// A transferred capability leaves the sender's space and reaches the
// receiver with its id intact.
func TestCapabilityTransferOnSend(t *testing.T) {
	resolver := newFakeResolver()
	resolver.register(1) // the endpoint being transferred about, arbitrary object id
	resolver.register(2) // the IPC endpoint itself

	table := ipc.NewTable()
	ep := table.Create(2, 100, 0)

	a, ids := newSpace(resolver)
	b, _ := newSpace(resolver)

	transferable := capspace.Capability{
		ID:          ids.Next(idalloc.CapID),
		ObjectType:  capspace.Endpoint,
		ObjectID:    1,
		Permissions: capspace.Permissions{Read: true, Grant: true},
	}
	slot := a.Insert(transferable)

	_, err := ipc.Send(ep, a, 100, 7, nil, []uint32{slot})
	require.NoError(t, err)

	// sender no longer holds it
	_, err = a.Check(slot, capspace.Permissions{Read: true}, nil)
	require.Error(t, err)

	rcv, ok := ipc.Receive(ep, b)
	require.True(t, ok)
	require.Len(t, rcv.Slots, 1)

	got, err := b.Check(rcv.Slots[0], capspace.Permissions{Read: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, transferable.ID, got.ID)
}

func TestSendRequiresGrantOnTransferredSlot(t *testing.T) {
	resolver := newFakeResolver()
	resolver.register(1)
	resolver.register(2)

	table := ipc.NewTable()
	ep := table.Create(2, 100, 0)
	a, ids := newSpace(resolver)

	readOnly := capspace.Capability{
		ID:          ids.Next(idalloc.CapID),
		ObjectType:  capspace.Endpoint,
		ObjectID:    1,
		Permissions: capspace.Permissions{Read: true},
	}
	slot := a.Insert(readOnly)

	_, err := ipc.Send(ep, a, 100, 1, nil, []uint32{slot})
	require.Error(t, err)

	// failed send must not have mutated the sender's space
	_, err = a.Check(slot, capspace.Permissions{Read: true}, nil)
	assert.NoError(t, err)
}

func TestWireRoundTrip(t *testing.T) {
	msg := &ipc.Message{
		From: 7,
		Tag:  42,
		Data: []byte("hello"),
		TransferredCaps: []capspace.Capability{
			{ID: 1, ObjectType: capspace.Console, ObjectID: 9, Permissions: capspace.Permissions{Read: true, Grant: true}, Generation: 3, ExpiresAt: 12345},
		},
	}

	raw, err := msg.Marshal()
	require.NoError(t, err)

	got, err := ipc.Unmarshal(raw)
	require.NoError(t, err)

	assert.Equal(t, msg.From, got.From)
	assert.Equal(t, msg.Tag, got.Tag)
	assert.Equal(t, msg.Data, got.Data)
	require.Len(t, got.TransferredCaps, 1)
	assert.Equal(t, msg.TransferredCaps[0], got.TransferredCaps[0])
}
