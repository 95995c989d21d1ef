package sched

import "container/list"

// Cooperative is the single FIFO ready queue for the browser target:
// NextReady pops the head, Tick is a no-op, and a
// running thread keeps the CPU until it suspends via blocking receive,
// explicit yield, or exit.
type Cooperative struct {
	ready *list.List
	index map[uint64]*list.Element
}

func NewCooperative() *Cooperative {
	return &Cooperative{
		ready: list.New(),
		index: make(map[uint64]*list.Element),
	}
}

func (c *Cooperative) Add(tid uint64, _ int) {
	if _, ok := c.index[tid]; ok {
		return
	}
	c.index[tid] = c.ready.PushBack(tid)
}

func (c *Cooperative) Remove(tid uint64) {
	if e, ok := c.index[tid]; ok {
		c.ready.Remove(e)
		delete(c.index, tid)
	}
}

func (c *Cooperative) NextReady() (uint64, bool) {
	e := c.ready.Front()
	if e == nil {
		return 0, false
	}
	tid := e.Value.(uint64)
	c.ready.Remove(e)
	delete(c.index, tid)
	return tid, true
}

// Tick is a no-op: the cooperative host has no preemption.
func (c *Cooperative) Tick(_ int64) []uint64 { return nil }

func (c *Cooperative) Len() int { return c.ready.Len() }
