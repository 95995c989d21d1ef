package ipc

import (
	"sync"

	"github.com/cypher-asi/zero-os-sub001/internal/kernelerr"
)

// Metrics are the endpoint accounting fields every endpoint tracks:
// current depth must always equal the live queue length, plus a
// high-water mark and lifetime total.
type Metrics struct {
	QueueDepth    int
	QueueHighWater int
	TotalMessages int
}

// Endpoint is the owned message queue: a bounded FIFO with a
// max depth, readable only by its owner.
type Endpoint struct {
	ID       uint64
	OwnerPID uint64
	MaxDepth int

	mu      sync.Mutex
	queue   []*Message
	metrics Metrics

	// waiters holds tids parked in a blocking receive on this endpoint,
	// FIFO by arrival: the head waiter wakes first, ties broken by tid.
	waiters []uint64
}

func NewEndpoint(id, ownerPID uint64, maxDepth int) *Endpoint {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Endpoint{ID: id, OwnerPID: ownerPID, MaxDepth: maxDepth}
}

// Enqueue appends msg to the tail of the queue, failing QueueFull if at
// capacity. No partial state change happens on failure.
func (e *Endpoint) Enqueue(msg *Message) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.queue) >= e.MaxDepth {
		return kernelerr.New(kernelerr.QueueFull, "ipc: endpoint %d queue full (max %d)", e.ID, e.MaxDepth)
	}

	e.queue = append(e.queue, msg)
	e.metrics.QueueDepth = len(e.queue)
	e.metrics.TotalMessages++
	if e.metrics.QueueDepth > e.metrics.QueueHighWater {
		e.metrics.QueueHighWater = e.metrics.QueueDepth
	}
	return nil
}

// Dequeue pops the head message, or reports empty.
func (e *Endpoint) Dequeue() (*Message, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.queue) == 0 {
		return nil, false
	}
	msg := e.queue[0]
	e.queue = e.queue[1:]
	e.metrics.QueueDepth = len(e.queue)
	return msg, true
}

func (e *Endpoint) Metrics() Metrics {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.metrics
}

func (e *Endpoint) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

// AddWaiter parks tid at the tail of the waiter list.
func (e *Endpoint) AddWaiter(tid uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.waiters = append(e.waiters, tid)
}

// RemoveWaiter drops tid from the waiter list, e.g. because the thread
// was killed while blocked.
func (e *Endpoint) RemoveWaiter(tid uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, w := range e.waiters {
		if w == tid {
			e.waiters = append(e.waiters[:i], e.waiters[i+1:]...)
			return
		}
	}
}

// WakeHeadWaiter pops and returns the longest-waiting parked thread, if
// any, for the caller to move back into the ready queue.
func (e *Endpoint) WakeHeadWaiter() (uint64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.waiters) == 0 {
		return 0, false
	}
	tid := e.waiters[0]
	e.waiters = e.waiters[1:]
	return tid, true
}
