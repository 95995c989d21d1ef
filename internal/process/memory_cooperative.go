//go:build !native

package process

import "github.com/cypher-asi/zero-os-sub001/internal/kernelerr"

// Protection, Region, and AddressSpace are stubbed on the cooperative
// host, which has no virtual memory primitives of its own: every
// operation reports NotSupported rather than the package simply not
// existing, so kernel/handler_memory.go doesn't need a second build
// tag of its own.
type Protection struct {
	Read, Write, Execute bool
}

type Backing int

const (
	Anonymous Backing = iota
	FileBacked
)

type Region struct {
	Base       uint64
	Size       uint64
	Protection Protection
	Backing    Backing
}

type AddressSpace struct{}

func NewAddressSpace() *AddressSpace { return &AddressSpace{} }

func (a *AddressSpace) Mmap(Region) error {
	return kernelerr.New(kernelerr.NotSupported, "mmap: not supported on this host")
}

func (a *AddressSpace) Munmap(uint64) error {
	return kernelerr.New(kernelerr.NotSupported, "munmap: not supported on this host")
}

func (a *AddressSpace) Mprotect(uint64, Protection) error {
	return kernelerr.New(kernelerr.NotSupported, "mprotect: not supported on this host")
}

func (a *AddressSpace) Regions() []Region { return nil }
