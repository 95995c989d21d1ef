package syscall

// Args is the fixed four-word argument convention every handler receives,
// standing in for the register file a real entry trampoline would marshal.
// A0..A3 carry small integers, slot numbers, and pointers; Data carries the
// bytes a call transfers through the host's send/recv-bytes primitives
// (Send's payload, Receive's fill buffer) -- collapsing the host memory
// model into a plain byte slice rather than simulating address-space
// copies neither host actually needs for dispatch correctness.
type Args struct {
	A0, A1, A2, A3 uint64
	Data           []byte

	// EventID is the commit-log sequence number of this call's
	// SysEventEntry record, stamped in by the caller that brackets
	// Dispatch with the entry/exit commits (kernel.State.DispatchSyscall).
	// Handlers that emit their own Commit records use it as the
	// caused_by foreign key.
	EventID uint64
}

// Result is what a handler hands back on success: a single return word
// plus any bytes a receive-style call produced.
type Result struct {
	Value uint64
	Data  []byte
}
