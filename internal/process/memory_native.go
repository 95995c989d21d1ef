//go:build native

package process

import (
	"sort"
	"sync"

	"github.com/cypher-asi/zero-os-sub001/internal/kernelerr"
)

// Protection mirrors the read/write/execute bits of a native memory
// mapping. mprotect may only narrow these, mirroring the same monotonic
// attenuation rule capability derivation enforces.
type Protection struct {
	Read    bool
	Write   bool
	Execute bool
}

// Subset reports whether p is no more permissive than other, in every
// bit -- the same shape as capspace.Permissions.Subset, duplicated here
// rather than shared because Protection and capspace.Permissions denote
// different authorities (a memory mapping's rights vs. a capability's)
// even though the lattice is identical.
func (p Protection) Subset(other Protection) bool {
	if p.Read && !other.Read {
		return false
	}
	if p.Write && !other.Write {
		return false
	}
	if p.Execute && !other.Execute {
		return false
	}
	return true
}

// Backing names where a region's pages come from.
type Backing int

const (
	Anonymous Backing = iota
	FileBacked
)

// Region is one mapped range in a native process's address space,
// tracked as a flat list rather than a page table.
type Region struct {
	Base       uint64
	Size       uint64
	Protection Protection
	Backing    Backing
}

func (r Region) end() uint64 { return r.Base + r.Size }

func overlaps(a, b Region) bool {
	return a.Base < b.end() && b.Base < a.end()
}

// AddressSpace is the native-only per-process memory record. The
// cooperative (browser) host never constructs one -- its Process.Usage
// tracks only a size field updated from internal/host.
type AddressSpace struct {
	mu      sync.Mutex
	regions []Region
}

func NewAddressSpace() *AddressSpace {
	return &AddressSpace{}
}

// Mmap inserts a new region, rejecting any overlap with an existing one.
func (a *AddressSpace) Mmap(r Region) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, existing := range a.regions {
		if overlaps(existing, r) {
			return kernelerr.New(kernelerr.BadArgument, "mmap: region [%#x,%#x) overlaps existing [%#x,%#x)", r.Base, r.end(), existing.Base, existing.end())
		}
	}
	a.regions = append(a.regions, r)
	return nil
}

// Munmap removes the region with the given base, if any.
func (a *AddressSpace) Munmap(base uint64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i, r := range a.regions {
		if r.Base == base {
			a.regions = append(a.regions[:i], a.regions[i+1:]...)
			return nil
		}
	}
	return kernelerr.New(kernelerr.ObjectNotFound, "munmap: no region based at %#x", base)
}

// Mprotect narrows the protection of the region based at base. Widening
// protection is refused: mprotect permits only monotonic attenuation.
func (a *AddressSpace) Mprotect(base uint64, newProt Protection) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i, r := range a.regions {
		if r.Base != base {
			continue
		}
		if !newProt.Subset(r.Protection) {
			return kernelerr.New(kernelerr.InsufficientPermissions, "mprotect: %#x may only narrow protection", base)
		}
		a.regions[i].Protection = newProt
		return nil
	}
	return kernelerr.New(kernelerr.ObjectNotFound, "mprotect: no region based at %#x", base)
}

// Regions returns a snapshot of the address space's regions, sorted by
// base, for internal/invariant's audits and zk-inspect.
func (a *AddressSpace) Regions() []Region {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]Region, len(a.regions))
	copy(out, a.regions)
	sort.Slice(out, func(i, j int) bool { return out[i].Base < out[j].Base })
	return out
}
