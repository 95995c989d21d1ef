package syscall

import (
	"fmt"
	"sync"

	"github.com/cypher-asi/zero-os-sub001/internal/kernelerr"
)

// HandlerFunc executes one canonical syscall on behalf of callerTID, the
// tid of the thread that issued it. Handlers that need the owning
// process look it up through the thread table rather than trusting a
// second, independently-passed pid.
type HandlerFunc func(callerTID uint64, args Args) (Result, error)

// Dispatcher is a registry of canonical-number handlers, modeled on the
// pattern this repo's CLI inspector already uses for its own command
// table: register once at boot, then look up by key on every call. A
// kernel.State registers one handler per Number during Init and never
// touches the registry again.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[Number]HandlerFunc
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[Number]HandlerFunc)}
}

// MustRegister calls Register and panics on a duplicate registration. Only
// ever called from kernel boot wiring, where a duplicate is a programming
// error, not a runtime condition.
func (d *Dispatcher) MustRegister(num Number, h HandlerFunc) {
	if err := d.Register(num, h); err != nil {
		panic(err)
	}
}

func (d *Dispatcher) Register(num Number, h HandlerFunc) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.handlers[num]; exists {
		return fmt.Errorf("syscall: number %#x already registered", uint32(num))
	}
	d.handlers[num] = h
	return nil
}

// Dispatch normalizes raw (resolving any legacy alias), looks up its
// handler, and runs it. A number with no registered handler maps to
// ENOSYS -- the range may be architecturally reserved (IRQ/I-O on a host
// with no such primitives) or simply unassigned.
func (d *Dispatcher) Dispatch(callerTID uint64, raw uint32, args Args) (Result, int) {
	num := Normalize(raw)

	d.mu.RLock()
	h, ok := d.handlers[num]
	d.mu.RUnlock()

	if !ok {
		return Result{}, kernelerr.ENOSYS
	}

	res, err := h(callerTID, args)
	return res, kernelerr.Code(err)
}

// Registered reports whether num has a handler.
func (d *Dispatcher) Registered(num Number) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.handlers[num]
	return ok
}
