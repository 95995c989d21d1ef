//go:build native

package sched

import (
	"container/list"
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// NumLevels is the number of priority levels the preemptive discipline
// maintains: 0 is highest priority.
const NumLevels = 32

// Preemptive is the multilevel, multi-CPU discipline for the native
// target: 32 priority levels, each a FIFO; NextReady scans high-to-low
// and round-robins within a level; Tick decrements the running thread's
// remaining quantum.
type Preemptive struct {
	mu       sync.Mutex
	levels   [NumLevels]*list.List
	index    map[uint64]*list.Element
	priority map[uint64]int
	quantum  map[uint64]int64
	baseQ    int64

	// perCPU tracks how many threads each CPU's run queue currently
	// holds, consulted by Rebalance to decide which CPU is overloaded.
	perCPU map[int]int

	// stealSem bounds the number of concurrent rebalance goroutines
	// scanning per-CPU queues; work-stealing across many CPUs would
	// otherwise contend heavily on mu under high core counts, a problem
	// the single-FIFO cooperative discipline never has to solve.
	stealSem *semaphore.Weighted
}

// NewPreemptive creates a preemptive scheduler whose running threads get
// baseQuantumNanos of CPU time before being re-queued.
func NewPreemptive(baseQuantumNanos int64) *Preemptive {
	p := &Preemptive{
		index:    make(map[uint64]*list.Element),
		priority: make(map[uint64]int),
		quantum:  make(map[uint64]int64),
		perCPU:   make(map[int]int),
		baseQ:    baseQuantumNanos,
		stealSem: semaphore.NewWeighted(4),
	}
	for i := range p.levels {
		p.levels[i] = list.New()
	}
	return p
}

func clampLevel(priority int) int {
	if priority < 0 {
		return 0
	}
	if priority >= NumLevels {
		return NumLevels - 1
	}
	return priority
}

func (p *Preemptive) Add(tid uint64, priority int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.index[tid]; ok {
		return
	}
	lvl := clampLevel(priority)
	p.index[tid] = p.levels[lvl].PushBack(tid)
	p.priority[tid] = lvl
	p.quantum[tid] = p.baseQ
}

func (p *Preemptive) Remove(tid uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removeLocked(tid)
}

func (p *Preemptive) removeLocked(tid uint64) {
	if e, ok := p.index[tid]; ok {
		lvl := p.priority[tid]
		p.levels[lvl].Remove(e)
		delete(p.index, tid)
		delete(p.priority, tid)
		delete(p.quantum, tid)
	}
}

// NextReady scans levels high-to-low (0 first); within a level, FIFO
// gives round-robin across the level's threads.
func (p *Preemptive) NextReady() (uint64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for lvl := 0; lvl < NumLevels; lvl++ {
		if e := p.levels[lvl].Front(); e != nil {
			tid := e.Value.(uint64)
			p.levels[lvl].Remove(e)
			delete(p.index, tid)
			return tid, true
		}
	}
	return 0, false
}

// TickRunning decrements the given running thread's quantum (the caller tracks
// which tid is currently running; Preemptive itself does not, since that
// is kernel-level scheduling state, not ready-queue state). On
// exhaustion the thread is re-queued at the tail of its level.
func (p *Preemptive) TickRunning(tid uint64, elapsedNanos int64) (expired bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	q, ok := p.quantum[tid]
	if !ok {
		q = p.baseQ
	}
	q -= elapsedNanos
	if q <= 0 {
		p.quantum[tid] = p.baseQ
		p.index[tid] = p.levels[p.currentLevelOrDefault(tid)].PushBack(tid)
		return true
	}
	p.quantum[tid] = q
	return false
}

func (p *Preemptive) currentLevelOrDefault(tid uint64) int {
	if lvl, ok := p.priority[tid]; ok {
		return lvl
	}
	return NumLevels - 1
}

// Tick satisfies the Scheduler interface but Preemptive's real quantum
// decrement happens per-running-thread via TickRunning, called by
// kernel at each timer tick for the thread currently executing on each
// CPU. Tick here is a coarse sweep with no specific running thread in
// mind and always reports no expirations.
func (p *Preemptive) Tick(_ int64) []uint64 { return nil }

func (p *Preemptive) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for _, l := range p.levels {
		n += l.Len()
	}
	return n
}

// Rebalance reports the most heavily loaded per-CPU queue when the
// spread between per-CPU thread counts exceeds threshold. It does not
// choose a victim thread: victimTID is always -1 and cpu names the most
// loaded CPU. perCPU accounting is supplied by the caller via
// RecordCPU/UnrecordCPU; Rebalance does not itself move or pin threads.
func (p *Preemptive) Rebalance(ctx context.Context, threshold int) (victimTID int, cpu int, ok bool) {
	if err := p.stealSem.Acquire(ctx, 1); err != nil {
		return 0, 0, false
	}
	defer p.stealSem.Release(1)

	p.mu.Lock()
	defer p.mu.Unlock()

	maxCPU, minCPU := -1, -1
	for cpu, n := range p.perCPU {
		if maxCPU == -1 || n > p.perCPU[maxCPU] {
			maxCPU = cpu
		}
		if minCPU == -1 || n < p.perCPU[minCPU] {
			minCPU = cpu
		}
	}
	if maxCPU == -1 || minCPU == -1 {
		return 0, 0, false
	}
	if p.perCPU[maxCPU]-p.perCPU[minCPU] <= threshold {
		return 0, 0, false
	}

	// No victim is chosen: perCPU doesn't track *which* tids are on which
	// CPU here -- that association is kernel-level (which CPU last ran a
	// tid); Rebalance reports the CPU pair and leaves victim selection's
	// tid lookup to the caller, which does own that association.
	return -1, maxCPU, true
}

// RecordCPU/UnrecordCPU maintain the perCPU load counts Rebalance reads.
func (p *Preemptive) RecordCPU(cpu int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.perCPU[cpu]++
}

func (p *Preemptive) UnrecordCPU(cpu int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.perCPU[cpu] > 0 {
		p.perCPU[cpu]--
	}
}
