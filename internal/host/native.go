//go:build native

package host

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/automaxprocs/maxprocs"

	"github.com/cypher-asi/zero-os-sub001/internal/klog"
)

// Native implements Host for a preemptive multi-CPU OS target. New calls
// automaxprocs once so GOMAXPROCS reflects the detected CPU quota (a
// container cgroup limit, for instance) before internal/sched partitions
// its 32 priority levels across CPUs -- without this, the preemptive
// scheduler's per-CPU run queues would assume more CPUs than the process
// is actually scheduled onto.
type Native struct {
	once  sync.Once
	down  int32
	start time.Time
}

func New() *Native {
	n := &Native{start: time.Now()}
	n.once.Do(func() {
		undo, err := maxprocs.Set(maxprocs.Logger(klog.Debug))
		if err != nil {
			klog.Warn("host: automaxprocs setup failed: %v", err)
			return
		}
		_ = undo // intentionally never called: lives for the process lifetime
	})
	return n
}

// NowNanos reports nanoseconds since New, read from Go's monotonic clock.
func (n *Native) NowNanos() int64 {
	return int64(time.Since(n.start))
}

func (n *Native) Yield() {
	if atomic.LoadInt32(&n.down) != 0 {
		return
	}
	runtime.Gosched()
}

func (n *Native) MemorySize() (uint64, error) {
	if atomic.LoadInt32(&n.down) != 0 {
		return 0, ErrHostUnavailable
	}
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.Sys, nil
}

func (n *Native) Shutdown() {
	atomic.StoreInt32(&n.down, 1)
}

func (n *Native) Preemptive() bool { return true }
