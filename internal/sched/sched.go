// Package sched implements the two interchangeable scheduling disciplines
// behind one contract: Add, Remove, NextReady, Tick. Cooperative is
// a single FIFO ready queue for the browser host; Preemptive (native
// build tag) is a 32-level multilevel round-robin queue. Both honor the
// same ordering guarantee: a thread that becomes ready at logical time T
// is scheduled no later than any thread becoming ready at T' > T at the
// same priority.
package sched

// Scheduler is the contract both disciplines implement.
type Scheduler interface {
	// Add makes tid ready to run at the given priority. Lower numbers are
	// higher priority (0 is highest); the cooperative discipline ignores
	// priority entirely.
	Add(tid uint64, priority int)

	// Remove drops tid from the ready set, e.g. because it blocked,
	// waited, or exited.
	Remove(tid uint64)

	// NextReady pops and returns the next thread to run, or false if the
	// ready set is empty.
	NextReady() (uint64, bool)

	// Tick advances quantum accounting by elapsedNanos. The cooperative
	// discipline ignores it (a running thread keeps the CPU until it
	// suspends). Preemptive's Tick also reports nothing: its per-thread
	// quantum decrement and re-queue happen in Preemptive.TickRunning,
	// which takes the running tid.
	Tick(elapsedNanos int64) []uint64

	// Len reports the number of ready threads.
	Len() int
}
