package sched

import "sort"

// Timers tracks threads parked in Waiting{until=T} so the kernel can pop
// every thread whose deadline has passed at the first scheduler decision
// after now >= T. It is shared by both
// disciplines because the wake rule itself doesn't depend on which
// ready-queue structure receives the woken thread afterward.
type Timers struct {
	deadlines map[uint64]int64
}

func NewTimers() *Timers {
	return &Timers{deadlines: make(map[uint64]int64)}
}

// Arm records that tid is waiting until deadlineNanos.
func (t *Timers) Arm(tid uint64, deadlineNanos int64) {
	t.deadlines[tid] = deadlineNanos
}

// Disarm removes tid's deadline, e.g. because it woke via a message
// rather than a timeout, or was killed.
func (t *Timers) Disarm(tid uint64) {
	delete(t.deadlines, tid)
}

// Due returns every tid whose deadline is <= now, removing them from the
// timer set and sorted by deadline (then tid) so callers that re-add them
// to a ready queue preserve FIFO-by-wait-time ordering.
func (t *Timers) Due(now int64) []uint64 {
	type entry struct {
		tid      uint64
		deadline int64
	}
	var due []entry
	for tid, dl := range t.deadlines {
		if now >= dl {
			due = append(due, entry{tid, dl})
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].deadline != due[j].deadline {
			return due[i].deadline < due[j].deadline
		}
		return due[i].tid < due[j].tid
	})

	out := make([]uint64, len(due))
	for i, e := range due {
		out[i] = e.tid
		delete(t.deadlines, e.tid)
	}
	return out
}

func (t *Timers) Len() int { return len(t.deadlines) }
