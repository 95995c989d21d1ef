// Package process implements the process descriptor and table:
// {pid, name, parent, cap_space_id, thread_set, state, limits,
// usage, created_at, exit_status}. Lifecycle: Creating -> Running (spawn
// success), -> Zombie (last non-zombie thread exits), -> Dead (parent
// reaps it).
package process

import (
	"sync"

	"github.com/cypher-asi/zero-os-sub001/internal/capspace"
	"github.com/cypher-asi/zero-os-sub001/internal/kernelerr"
	"github.com/cypher-asi/zero-os-sub001/internal/objreg"
)

// State is one of the five process lifecycle states.
type State int

const (
	Creating State = iota
	Running
	Suspended
	Zombie
	Dead
)

func (s State) String() string {
	switch s {
	case Creating:
		return "creating"
	case Running:
		return "running"
	case Suspended:
		return "suspended"
	case Zombie:
		return "zombie"
	case Dead:
		return "dead"
	default:
		return "unknown"
	}
}

// Limits are the per-resource ceilings recorded on each process. Only
// MaxThreads is enforced (AddThread checks it before mutating); no
// operation consults the other ceilings.
type Limits struct {
	MaxCPUTimeNanos int64
	MaxMemoryBytes  uint64
	MaxThreads      int
	MaxCapabilities int
	MaxFDs          int
	MaxIOBandwidth  uint64
}

// DefaultLimits are generous enough for the kernel's own tests and the
// inspector CLI. kernel.Config has no per-process override for them.
var DefaultLimits = Limits{
	MaxCPUTimeNanos: 0, // 0 = unbounded
	MaxMemoryBytes:  0,
	MaxThreads:      256,
	MaxCapabilities: 4096,
	MaxFDs:          256,
	MaxIOBandwidth:  0,
}

// Usage tracks a process's current resource consumption against Limits.
type Usage struct {
	CPUTimeNanos int64
	MemoryBytes  uint64
	ThreadCount  int
}

// Process is the process descriptor.
type Process struct {
	PID         uint64
	Name        string
	Parent      uint64 // 0 for the init/root process
	CapSpaceID  uint64 // equals PID: one capability space per process
	ThreadSet   map[uint64]struct{}
	State       State
	Limits      Limits
	Usage       Usage
	CreatedAt   int64
	ExitStatus  *int32
	CapSpace    *capspace.Space
	Mem         *AddressSpace
}

// Table owns every process descriptor plus the shared existence/
// generation registry capspace.Resolver consults for ObjectType Process.
type Table struct {
	mu    sync.RWMutex
	procs map[uint64]*Process
	reg   *objreg.Registry
}

func NewTable() *Table {
	return &Table{
		procs: make(map[uint64]*Process),
		reg:   objreg.New(),
	}
}

// Create inserts a new process in Creating state with an empty capability
// space and no threads. The caller (kernel.spawn) is responsible for
// creating the initial Ready thread and transitioning to Running.
func (t *Table) Create(pid uint64, name string, parent uint64, space *capspace.Space, createdAt int64) *Process {
	t.mu.Lock()
	defer t.mu.Unlock()

	p := &Process{
		PID:        pid,
		Name:       name,
		Parent:     parent,
		CapSpaceID: pid,
		ThreadSet:  make(map[uint64]struct{}),
		State:      Creating,
		Limits:     DefaultLimits,
		CreatedAt:  createdAt,
		CapSpace:   space,
		Mem:        NewAddressSpace(),
	}
	t.procs[pid] = p
	t.reg.Add(pid)
	return p
}

func (t *Table) Get(pid uint64) (*Process, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.procs[pid]
	return p, ok
}

// SetState transitions a process to state, refusing any transition that
// doesn't match the process lifecycle.
func (t *Table) SetState(pid uint64, state State) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.procs[pid]
	if !ok {
		return kernelerr.New(kernelerr.ObjectNotFound, "process: pid %d not found", pid)
	}
	if !validTransition(p.State, state) {
		return kernelerr.New(kernelerr.BadArgument, "process: invalid transition %s -> %s", p.State, state)
	}
	p.State = state
	return nil
}

func validTransition(from, to State) bool {
	switch from {
	case Creating:
		return to == Running || to == Zombie
	case Running:
		return to == Suspended || to == Zombie || to == Running
	case Suspended:
		return to == Running || to == Zombie
	case Zombie:
		return to == Dead
	case Dead:
		return false
	}
	return false
}

// AddThread records tid as belonging to pid, maintaining the invariant
// that every live thread belongs to exactly one process.
func (t *Table) AddThread(pid, tid uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.procs[pid]
	if !ok {
		return kernelerr.New(kernelerr.ObjectNotFound, "process: pid %d not found", pid)
	}
	if p.Limits.MaxThreads != 0 && len(p.ThreadSet) >= p.Limits.MaxThreads {
		return kernelerr.New(kernelerr.AllocationRefused, "process: pid %d thread limit reached", pid)
	}
	p.ThreadSet[tid] = struct{}{}
	p.Usage.ThreadCount = len(p.ThreadSet)
	return nil
}

// RemoveThread drops tid from pid's thread set. If it was the last
// non-zombie thread, the caller (kernel.threadExit) must also call
// SetState(pid, Zombie) and set ExitStatus -- Table itself doesn't decide
// "non-zombie" since that's a thread-table concept this package doesn't
// own.
func (t *Table) RemoveThread(pid, tid uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.procs[pid]
	if !ok {
		return kernelerr.New(kernelerr.ObjectNotFound, "process: pid %d not found", pid)
	}
	delete(p.ThreadSet, tid)
	p.Usage.ThreadCount = len(p.ThreadSet)
	return nil
}

// SetExitStatus records the status a Zombie process exits with.
func (t *Table) SetExitStatus(pid uint64, status int32) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.procs[pid]
	if !ok {
		return kernelerr.New(kernelerr.ObjectNotFound, "process: pid %d not found", pid)
	}
	p.ExitStatus = &status
	return nil
}

// Reap transitions a Zombie process to Dead, dropping it from the
// existence registry so subsequent capability checks against it report
// ObjectNotFound. Caller (kernel.reap) is responsible for draining the
// dead process's capability space first and emitting the corresponding
// CapRemoved commits.
func (t *Table) Reap(pid uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.procs[pid]
	if !ok {
		return kernelerr.New(kernelerr.ObjectNotFound, "process: pid %d not found", pid)
	}
	if p.State != Zombie {
		return kernelerr.New(kernelerr.BadArgument, "process: pid %d is %s, not zombie", pid, p.State)
	}
	p.State = Dead
	t.reg.Remove(pid)
	return nil
}

// Snapshot returns every live process, for internal/invariant's audits
// and the zk-inspect CLI.
func (t *Table) Snapshot() []*Process {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]*Process, 0, len(t.procs))
	for _, p := range t.procs {
		out = append(out, p)
	}
	return out
}

// Exists, Generation, and BumpGeneration implement the Process-typed
// portion of capspace.Resolver.
func (t *Table) Exists(pid uint64) bool          { return t.reg.Exists(pid) }
func (t *Table) Generation(pid uint64) uint32    { return t.reg.Generation(pid) }
func (t *Table) BumpGeneration(pid uint64) uint32 { return t.reg.Bump(pid) }
