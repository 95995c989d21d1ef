package ipc

import (
	"sync"

	"github.com/cypher-asi/zero-os-sub001/internal/kernelerr"
	"github.com/cypher-asi/zero-os-sub001/internal/objreg"
)

// Table owns every endpoint plus the existence/generation registry
// capspace.Resolver consults for ObjectType Endpoint.
type Table struct {
	mu        sync.RWMutex
	endpoints map[uint64]*Endpoint
	reg       *objreg.Registry
}

func NewTable() *Table {
	return &Table{
		endpoints: make(map[uint64]*Endpoint),
		reg:       objreg.New(),
	}
}

func (t *Table) Create(id, ownerPID uint64, maxDepth int) *Endpoint {
	t.mu.Lock()
	defer t.mu.Unlock()

	ep := NewEndpoint(id, ownerPID, maxDepth)
	t.endpoints[id] = ep
	t.reg.Add(id)
	return ep
}

func (t *Table) Get(id uint64) (*Endpoint, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ep, ok := t.endpoints[id]
	return ep, ok
}

// Destroy removes an endpoint outright (used by endpoint_destroy and by
// endpoint_call's transient reply endpoint teardown).
func (t *Table) Destroy(id uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.endpoints[id]; !ok {
		return kernelerr.New(kernelerr.ObjectNotFound, "ipc: endpoint %d not found", id)
	}
	delete(t.endpoints, id)
	t.reg.Remove(id)
	return nil
}

func (t *Table) Snapshot() []*Endpoint {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]*Endpoint, 0, len(t.endpoints))
	for _, ep := range t.endpoints {
		out = append(out, ep)
	}
	return out
}

func (t *Table) Exists(id uint64) bool          { return t.reg.Exists(id) }
func (t *Table) Generation(id uint64) uint32    { return t.reg.Generation(id) }
func (t *Table) BumpGeneration(id uint64) uint32 { return t.reg.Bump(id) }
