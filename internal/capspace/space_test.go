package capspace_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypher-asi/zero-os-sub001/internal/capspace"
	"github.com/cypher-asi/zero-os-sub001/internal/idalloc"
)

// fakeResolver is a minimal capspace.Resolver for tests: every object id
// it has ever seen exists with generation 0 until bumped.
type fakeResolver struct {
	gens map[uint64]uint32
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{gens: make(map[uint64]uint32)}
}

func (r *fakeResolver) register(objectID uint64) {
	if _, ok := r.gens[objectID]; !ok {
		r.gens[objectID] = 0
	}
}

func (r *fakeResolver) Exists(_ capspace.ObjectType, objectID uint64) bool {
	_, ok := r.gens[objectID]
	return ok
}

func (r *fakeResolver) Generation(_ capspace.ObjectType, objectID uint64) uint32 {
	return r.gens[objectID]
}

func (r *fakeResolver) BumpGeneration(_ capspace.ObjectType, objectID uint64) uint32 {
	r.gens[objectID]++
	return r.gens[objectID]
}

func newSpace(r capspace.Resolver) (*capspace.Space, *idalloc.Allocator) {
	ids := idalloc.New()
	clock := func() int64 { return 1000 }
	return capspace.New(ids, r, clock), ids
}

func TestCheckInvalidSlot(t *testing.T) {
	resolver := newFakeResolver()
	space, _ := newSpace(resolver)

	_, err := space.Check(0, capspace.Permissions{Read: true}, nil)
	require.Error(t, err)
}

func TestInsertAndCheck(t *testing.T) {
	resolver := newFakeResolver()
	resolver.register(1)
	space, ids := newSpace(resolver)

	cap := capspace.Capability{
		ID:          ids.Next(idalloc.CapID),
		ObjectType:  capspace.Endpoint,
		ObjectID:    1,
		Permissions: capspace.Full,
	}
	slot := space.Insert(cap)

	got, err := space.Check(slot, capspace.Permissions{Read: true, Write: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, cap.ID, got.ID)
}

func TestDeriveAttenuatesPermissions(t *testing.T) {
	resolver := newFakeResolver()
	resolver.register(1)
	space, ids := newSpace(resolver)

	src := capspace.Capability{
		ID:          ids.Next(idalloc.CapID),
		ObjectType:  capspace.Endpoint,
		ObjectID:    1,
		Permissions: capspace.Full,
	}
	slot := space.Insert(src)

	derived, err := space.Derive(slot, capspace.Permissions{Read: true})
	require.NoError(t, err)

	assert.True(t, derived.Permissions.Read)
	assert.False(t, derived.Permissions.Write)
	assert.False(t, derived.Permissions.Grant)
	assert.NotEqual(t, src.ID, derived.ID, "derive must allocate a fresh id")
}

func TestDeriveRequiresGrant(t *testing.T) {
	resolver := newFakeResolver()
	resolver.register(1)
	space, ids := newSpace(resolver)

	src := capspace.Capability{
		ID:          ids.Next(idalloc.CapID),
		ObjectType:  capspace.Endpoint,
		ObjectID:    1,
		Permissions: capspace.Permissions{Read: true, Write: true},
	}
	slot := space.Insert(src)

	_, err := space.Derive(slot, capspace.Permissions{Read: true})
	require.Error(t, err)
}

func TestRevokeBumpsGenerationAcrossSpaces(t *testing.T) {
	resolver := newFakeResolver()
	resolver.register(1)
	a, ids := newSpace(resolver)
	b, _ := newSpace(resolver)

	src := capspace.Capability{
		ID:          ids.Next(idalloc.CapID),
		ObjectType:  capspace.Endpoint,
		ObjectID:    1,
		Permissions: capspace.Full,
	}
	aSlot := a.Insert(src)

	bSlot, granted, err := capspace.GrantTo(a, aSlot, b, capspace.Full)
	require.NoError(t, err)
	assert.NotEqual(t, src.ID, granted.ID)

	// B's copy is valid before A revokes its source.
	_, err = b.Check(bSlot, capspace.Permissions{Read: true}, nil)
	require.NoError(t, err)

	_, err = a.Revoke(aSlot)
	require.NoError(t, err)

	// B's copy now fails with Revoked: same object, stale generation.
	_, err = b.Check(bSlot, capspace.Permissions{Read: true}, nil)
	require.Error(t, err)
}

func TestDeleteDoesNotRevokeOthers(t *testing.T) {
	resolver := newFakeResolver()
	resolver.register(1)
	a, ids := newSpace(resolver)
	b, _ := newSpace(resolver)

	src := capspace.Capability{
		ID:          ids.Next(idalloc.CapID),
		ObjectType:  capspace.Endpoint,
		ObjectID:    1,
		Permissions: capspace.Full,
	}
	aSlot := a.Insert(src)
	bSlot, _, err := capspace.GrantTo(a, aSlot, b, capspace.Full)
	require.NoError(t, err)

	_, err = a.Delete(aSlot)
	require.NoError(t, err)

	_, err = b.Check(bSlot, capspace.Permissions{Read: true}, nil)
	assert.NoError(t, err, "delete must only detach the caller's own slot")
}

func TestSlotsNeverReused(t *testing.T) {
	resolver := newFakeResolver()
	resolver.register(1)
	space, ids := newSpace(resolver)

	cap := capspace.Capability{ID: ids.Next(idalloc.CapID), ObjectType: capspace.Endpoint, ObjectID: 1, Permissions: capspace.Full}
	s1 := space.Insert(cap)
	_, _ = space.Remove(s1)
	s2 := space.Insert(cap)

	assert.NotEqual(t, s1, s2)
}
