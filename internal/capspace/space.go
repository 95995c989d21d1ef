package capspace

import (
	"sync"

	"github.com/cypher-asi/zero-os-sub001/internal/idalloc"
	"github.com/cypher-asi/zero-os-sub001/internal/kernelerr"
)

// entry is a slot's stored capability plus bookkeeping; slots are never
// reused within a space even after removal, so we only need to track
// the live set plus the next slot counter.
type entry struct {
	cap Capability
}

// Space is a single process's capability space: an ordered mapping from
// slot to capability, with slots assigned from a monotonic per-space
// counter.
type Space struct {
	mu       sync.RWMutex
	slots    map[uint32]entry
	nextSlot uint32

	ids      *idalloc.Allocator
	resolver Resolver
	now      func() int64
}

// New creates an empty capability space bound to the kernel-wide
// identifier allocator, object resolver, and monotonic clock.
func New(ids *idalloc.Allocator, resolver Resolver, now func() int64) *Space {
	return &Space{
		slots:    make(map[uint32]entry),
		ids:      ids,
		resolver: resolver,
		now:      now,
	}
}

// Check validates a slot against required permissions and, if expectType
// is non-nil, an expected object type. It never mutates: slot
// lookup -> type match -> permission match -> expiration -> generation.
func (s *Space) Check(slot uint32, required Permissions, expectType *ObjectType) (Capability, error) {
	s.mu.RLock()
	e, ok := s.slots[slot]
	s.mu.RUnlock()

	if !ok {
		return Capability{}, kernelerr.New(kernelerr.InvalidSlot, "capspace: no capability in slot %d", slot)
	}

	c := e.cap

	if expectType != nil && c.ObjectType != *expectType {
		return Capability{}, kernelerr.New(kernelerr.WrongType, "capspace: slot %d is %s, want %s", slot, c.ObjectType, *expectType)
	}

	if !c.Permissions.Permits(required) {
		return Capability{}, kernelerr.New(kernelerr.InsufficientPermissions, "capspace: slot %d lacks required permissions", slot)
	}

	if c.ExpiresAt != 0 && s.now() >= c.ExpiresAt {
		return Capability{}, kernelerr.New(kernelerr.Expired, "capspace: slot %d expired", slot)
	}

	if !s.resolver.Exists(c.ObjectType, c.ObjectID) {
		return Capability{}, kernelerr.New(kernelerr.ObjectNotFound, "capspace: slot %d denotes a %s that no longer exists", slot, c.ObjectType)
	}

	if s.resolver.Generation(c.ObjectType, c.ObjectID) != c.Generation {
		return Capability{}, kernelerr.New(kernelerr.Revoked, "capspace: slot %d carries a stale generation", slot)
	}

	return c, nil
}

// Insert assigns the next free slot to cap and returns it.
func (s *Space) Insert(cap Capability) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot := s.nextSlot
	s.nextSlot++
	s.slots[slot] = entry{cap: cap}
	return slot
}

// InsertAt installs cap at an exact slot number, advancing nextSlot past
// it if necessary. Used only by commit-log replay, which must
// reproduce the original slot assignment exactly rather than accept
// whatever the next free counter would hand out.
func (s *Space) InsertAt(slot uint32, cap Capability) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.slots[slot] = entry{cap: cap}
	if slot >= s.nextSlot {
		s.nextSlot = slot + 1
	}
}

// Remove detaches and returns the capability in slot, if any.
func (s *Space) Remove(slot uint32) (Capability, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.slots[slot]
	if !ok {
		return Capability{}, false
	}
	delete(s.slots, slot)
	return e.cap, true
}

// Derive returns a new capability attenuated by mask: same object
// identity and generation, permissions = source.Permissions & mask, and
// a freshly allocated id. Requires Grant on the source slot.
func (s *Space) Derive(slot uint32, mask Permissions) (Capability, error) {
	src, err := s.Check(slot, Permissions{Grant: true}, nil)
	if err != nil {
		return Capability{}, err
	}

	derived := Capability{
		ID:          s.ids.Next(idalloc.CapID),
		ObjectType:  src.ObjectType,
		ObjectID:    src.ObjectID,
		Permissions: src.Permissions.And(mask),
		Generation:  src.Generation,
		ExpiresAt:   src.ExpiresAt,
	}

	// Re-checked in debug builds by internal/invariant; enforced here
	// at construction since And() can only narrow bits.
	if !derived.Permissions.Subset(src.Permissions) {
		return Capability{}, kernelerr.New(kernelerr.BadArgument, "capspace: derived capability exceeds source permissions")
	}

	return derived, nil
}

// GrantTo derives a capability from (from, fromSlot) attenuated by mask
// and inserts it into to, atomically from the caller's point of view.
// The returned slot is the new slot in to's space.
func GrantTo(from *Space, fromSlot uint32, to *Space, mask Permissions) (uint32, Capability, error) {
	derived, err := from.Derive(fromSlot, mask)
	if err != nil {
		return 0, Capability{}, err
	}
	slot := to.Insert(derived)
	return slot, derived, nil
}

// Revoke removes slot from s and bumps the generation of the object it
// denoted, invalidating every other outstanding capability for that
// object. Requires Grant on the slot: a caller may revoke a slot only
// if the slot's capability carries grant.
func (s *Space) Revoke(slot uint32) (Capability, error) {
	c, err := s.Check(slot, Permissions{Grant: true}, nil)
	if err != nil {
		return Capability{}, err
	}

	removed, ok := s.Remove(slot)
	if !ok {
		// Raced with a concurrent remove of the same slot; report as if
		// the slot never existed rather than partially revoking.
		return Capability{}, kernelerr.New(kernelerr.InvalidSlot, "capspace: slot %d removed concurrently", slot)
	}

	s.resolver.BumpGeneration(c.ObjectType, c.ObjectID)
	return removed, nil
}

// Delete removes slot from the caller's own space without requiring
// Grant and without bumping the object's generation -- it only detaches
// the caller's copy.
func (s *Space) Delete(slot uint32) (Capability, error) {
	c, ok := s.Remove(slot)
	if !ok {
		return Capability{}, kernelerr.New(kernelerr.InvalidSlot, "capspace: no capability in slot %d", slot)
	}
	return c, nil
}

// Len reports the number of live slots, used by resource-limit checks
// and internal/invariant.
func (s *Space) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.slots)
}

// NextSlot returns the space's monotonic slot counter, used by
// internal/invariant's slot-uniqueness audit.
func (s *Space) NextSlot() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextSlot
}

// Slots returns a snapshot of slot -> capability, used by internal/
// invariant's audits and the zk-inspect CLI's table dump. The returned
// map is a copy; mutating it has no effect on the space.
func (s *Space) Slots() map[uint32]Capability {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[uint32]Capability, len(s.slots))
	for slot, e := range s.slots {
		out[slot] = e.cap
	}
	return out
}
