// Package idalloc hands out the monotonic, never-reused 64-bit
// identifiers used for processes, threads, endpoints, and capabilities.
// Each class has its own counter; on replay a counter is reinitialised
// to max(seen)+1 rather than reset to zero.
package idalloc

import (
	"sync"

	"github.com/gofrs/uuid"

	"github.com/cypher-asi/zero-os-sub001/internal/klog"
)

// Class names one of the four independent identifier counters.
type Class int

const (
	PID Class = iota
	TID
	EID
	CapID
	numClasses
)

// Allocator owns the four monotonic counters plus the kernel's boot
// instance id. It is not safe to share a *Allocator across independently
// booted kernel.State values; each boot gets its own.
type Allocator struct {
	mu     sync.Mutex
	next   [numClasses]uint64
	bootID uuid.UUID
}

// New creates an allocator whose counters start at 1 (0 is never a valid
// identifier, so it can double as a "no value" sentinel in wire formats).
func New() *Allocator {
	id, err := uuid.NewV4()
	if err != nil {
		// uuid generation failure means the host's entropy source is
		// broken; this is not a recoverable kernel condition.
		klog.Fatal("idalloc: failed to generate boot id: %v", err)
	}

	a := &Allocator{bootID: id}
	for c := Class(0); c < numClasses; c++ {
		a.next[c] = 1
	}
	return a
}

// BootID uniquely tags this kernel instance's commits and sys-events so
// an external collaborator folding several commit-log segments together
// can tell which boot each record belongs to. It is never used as an
// object identifier.
func (a *Allocator) BootID() uuid.UUID {
	return a.bootID
}

// Next returns the current value for class and increments it. Overflow
// (practically unreachable at 64 bits) is treated as a fatal kernel
// condition.
func (a *Allocator) Next(class Class) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	v := a.next[class]
	if v == ^uint64(0) {
		klog.Fatal("idalloc: class %d exhausted its 64-bit identifier space", class)
	}
	a.next[class] = v + 1
	return v
}

// Reinit reinitialises a counter during replay so that it resumes strictly
// above every identifier observed in the folded commit log.
func (a *Allocator) Reinit(class Class, seen uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if seen+1 > a.next[class] {
		a.next[class] = seen + 1
	}
}

// Peek returns the next value that Next(class) would return, without
// consuming it. Used by invariant checks and tests.
func (a *Allocator) Peek(class Class) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.next[class]
}
