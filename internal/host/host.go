// Package host is the single point of platform variance. It
// exposes monotonic time, a cooperative yield point, and a process memory
// size query. No wall-clock time is exposed to kernel callers -- Host is
// the only permitted source of non-deterministic input; everything else
// flows in as explicit syscall arguments or commit records.
package host

import "github.com/cypher-asi/zero-os-sub001/internal/kernelerr"

// Host abstracts the platform the kernel runs on: the browser's
// single-threaded cooperative event loop, or a native preemptive OS.
type Host interface {
	// NowNanos returns a monotonic nanosecond timestamp. Never wall-clock.
	NowNanos() int64

	// Yield returns control to the host scheduler. On the cooperative
	// host this is a no-op (the caller already yields by returning from
	// the syscall handler); on native it calls runtime.Gosched.
	Yield()

	// MemorySize reports the current process memory footprint in bytes.
	MemorySize() (uint64, error)

	// Preemptive reports whether this host can run more than one thread
	// at once. thread_create is refused on a non-preemptive (cooperative)
	// host, which has exactly one thread of control by construction.
	Preemptive() bool

	// Shutdown tears down the host abstraction. After Shutdown,
	// MemorySize returns ErrHostUnavailable and Yield does nothing;
	// NowNanos keeps reporting time.
	Shutdown()
}

// ErrHostUnavailable is returned by Host methods only during or after
// teardown.
var ErrHostUnavailable = kernelerr.New(kernelerr.NotSupported, "host: unavailable (teardown)")
