// Package thread implements the thread control block (TCB) table:
// {tid, pid, state, context, kernel_stack_ref, user_stack,
// priority, base_priority, time_slice, affinity, stats} and its state
// machine:
//
//	Ready --schedule--> Running --yield/preempt--> Ready
//	Running --wait--> Waiting{until?} --event/timeout--> Ready
//	Running --block--> Blocked --unblock--> Ready
//	Running --exit--> Zombie{code}
package thread

import (
	"sync"

	"github.com/cypher-asi/zero-os-sub001/internal/kernelerr"
)

// Kind names which of the five states a thread is in; the associated
// payload (cpu, until, reason, exit code) lives alongside it on TCB so
// Go's lack of sum types doesn't force five separate maps.
type Kind int

const (
	Ready Kind = iota
	RunningK
	Waiting
	Blocked
	ZombieK
)

func (k Kind) String() string {
	switch k {
	case Ready:
		return "ready"
	case RunningK:
		return "running"
	case Waiting:
		return "waiting"
	case Blocked:
		return "blocked"
	case ZombieK:
		return "zombie"
	default:
		return "unknown"
	}
}

// State is the full tagged thread state.
type State struct {
	Kind Kind

	CPU int // valid when Kind == RunningK (native only; 0 on cooperative host)

	WaitUntil    int64 // nanoseconds; valid when Kind == Waiting; 0 means no timeout
	WaitHasUntil bool

	BlockReason string // valid when Kind == Blocked

	ExitCode int32 // valid when Kind == ZombieK
}

// PendingResult is the only thing "context" reduces to on the
// cooperative host: the outcome of the syscall the thread was
// suspended in, delivered when it's rescheduled.
type PendingResult struct {
	Valid    bool
	Code     int
	MsgTag   uint32
	MsgSlots []uint32
}

// Stats are the per-thread accounting fields updated only at scheduler
// decision points, never per-instruction.
type Stats struct {
	CPUTimeNanos    int64
	ContextSwitches uint64
	Yields          uint64
	Syscalls        uint64
}

// TCB is one thread control block.
type TCB struct {
	TID             uint64
	PID             uint64
	State           State
	Context         PendingResult
	KernelStackRef  uint64
	UserStack       uint64
	Priority        int
	BasePriority    int
	TimeSliceNanos  int64
	Affinity        int // native only; -1 means any CPU
	Stats           Stats
}

// Table owns every TCB.
type Table struct {
	mu      sync.RWMutex
	threads map[uint64]*TCB
}

func NewTable() *Table {
	return &Table{threads: make(map[uint64]*TCB)}
}

// Create installs a new thread in Ready state. thread_create itself is
// refused on the cooperative host -- that refusal is
// enforced by internal/kernel's thread-range handler, not here, since
// Table has no notion of which host it's running under.
func (t *Table) Create(tid, pid uint64, priority int, timeSlice int64) *TCB {
	t.mu.Lock()
	defer t.mu.Unlock()

	tcb := &TCB{
		TID:            tid,
		PID:            pid,
		State:          State{Kind: Ready},
		Priority:       priority,
		BasePriority:   priority,
		TimeSliceNanos: timeSlice,
		Affinity:       -1,
	}
	t.threads[tid] = tcb
	return tcb
}

func (t *Table) Get(tid uint64) (*TCB, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	tcb, ok := t.threads[tid]
	return tcb, ok
}

var validFrom = map[Kind][]Kind{
	Ready:    {RunningK},
	RunningK: {Ready, Waiting, Blocked, ZombieK},
	Waiting:  {Ready},
	Blocked:  {Ready},
	ZombieK:  {},
}

func isValidTransition(from, to Kind) bool {
	for _, k := range validFrom[to] {
		if k == from {
			return true
		}
	}
	return false
}

// Transition moves tid's state machine to next, rejecting any edge not in
// the diagram above. Callers (internal/kernel's handlers) build the
// full State value (with CPU/WaitUntil/BlockReason/ExitCode populated) and
// pass it here.
func (t *Table) Transition(tid uint64, next State) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	tcb, ok := t.threads[tid]
	if !ok {
		return kernelerr.New(kernelerr.ObjectNotFound, "thread: tid %d not found", tid)
	}
	if !isValidTransition(tcb.State.Kind, next.Kind) {
		return kernelerr.New(kernelerr.BadArgument, "thread: invalid transition %s -> %s", tcb.State.Kind, next.Kind)
	}
	tcb.State = next
	return nil
}

// RecordSchedulerDecision updates per-thread accounting at a scheduler
// decision point: cpuDelta nanoseconds of CPU consumed since
// the last decision, plus whether this decision was a yield, a context
// switch, or neither (e.g. a syscall entry without a switch).
func (t *Table) RecordSchedulerDecision(tid uint64, cpuDelta int64, yielded, switched bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	tcb, ok := t.threads[tid]
	if !ok {
		return kernelerr.New(kernelerr.ObjectNotFound, "thread: tid %d not found", tid)
	}
	tcb.Stats.CPUTimeNanos += cpuDelta
	if yielded {
		tcb.Stats.Yields++
	}
	if switched {
		tcb.Stats.ContextSwitches++
	}
	tcb.Stats.Syscalls++
	return nil
}

// NonZombieSiblings is a convenience for kernel.ThreadExit: it does not
// touch scheduler membership (internal/sched owns that) but returns the
// tids of pid's non-zombie threads other than excludeTID; an empty result
// tells the caller to transition the process to Zombie.
func (t *Table) NonZombieSiblings(pid, excludeTID uint64) []uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []uint64
	for tid, tcb := range t.threads {
		if tid == excludeTID || tcb.PID != pid {
			continue
		}
		if tcb.State.Kind != ZombieK {
			out = append(out, tid)
		}
	}
	return out
}

// Snapshot returns every TCB, for internal/invariant's audits and the
// zk-inspect CLI.
func (t *Table) Snapshot() []*TCB {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]*TCB, 0, len(t.threads))
	for _, tcb := range t.threads {
		out = append(out, tcb)
	}
	return out
}
