// Package console implements the console collaborator: an interactive
// line-oriented front end that bridges a real terminal to the kernel's
// syscall ABI. It is a consumer of that ABI exactly like any other
// process, holding no special kernel privilege beyond the capability
// slots it was handed at boot -- a write-capable Console capability
// (see kernel.BootConsole) and a Write-capable Endpoint slot it sends
// each entered line to.
package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/peterh/liner"

	"github.com/cypher-asi/zero-os-sub001/internal/klog"
	"github.com/cypher-asi/zero-os-sub001/internal/syscall"
)

// noTransferredCaps packs to an immediate 0xFF terminator, decodeSlotList's
// signal for "no capability slots ride along with this send."
const noTransferredCaps = uint64(0xFF)

// Dispatcher is the one kernel entry point the console server calls.
// kernel.State satisfies it; tests substitute a stub that records calls
// without a live kernel behind them.
type Dispatcher interface {
	DispatchSyscall(pid uint64, raw uint32, args syscall.Args) (syscall.Result, int)
}

// Server is a REPL bound to one process's syscall-facing identity: a
// pid (whose thread issues every Send) and the slot number of the
// endpoint those sends target. Name prefixes the ring logger it
// registers with klog, so more than one Server in a process (unusual,
// but not forbidden) doesn't collide.
type Server struct {
	Name         string
	PID          uint64
	TID          uint64
	EndpointSlot uint32
	Prompt       string

	dispatch Dispatcher
	ring     *klog.Ring

	out io.Writer
}

// NewServer builds a console Server that sends lines to endpointSlot on
// behalf of (pid, tid) via d, and retains recent kernel log output in a
// ring buffer the "log" command dumps. Callers always pass a concrete
// out; nil is not accepted.
func NewServer(name string, pid, tid uint64, endpointSlot uint32, d Dispatcher, out io.Writer) *Server {
	ring := klog.NewRing(256)
	klog.AddRingLogger(name, ring, klog.INFO)

	return &Server{
		Name:         name,
		PID:          pid,
		TID:          tid,
		EndpointSlot: endpointSlot,
		Prompt:       "zero-os$ ",
		dispatch:     d,
		ring:         ring,
		out:          out,
	}
}

// Close unregisters the Server's ring logger. Callers that build more
// than one Server in a test process should call this when done so
// klog's logger set doesn't accumulate stale entries.
func (s *Server) Close() {
	klog.DelLogger(s.Name)
}

// Run drives the interactive loop: read a line, send it into the
// kernel, repeat. liner handles history and line editing; Ctrl-C aborts
// the current line rather than the process; blank lines are skipped;
// "quit"/"exit" leave the loop; and a local "log" command dumps the
// ring buffer without round-tripping through the kernel at all.
func (s *Server) Run() error {
	input := liner.NewLiner()
	defer input.Close()

	input.SetCtrlCAborts(true)

	for {
		line, err := input.Prompt(s.Prompt)
		if err == liner.ErrPromptAborted {
			continue
		} else if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		input.AppendHistory(line)

		if line == "quit" || line == "exit" {
			return nil
		}
		if line == "log" {
			for _, l := range s.ring.Dump() {
				fmt.Fprintln(s.out, l)
			}
			continue
		}

		if err := s.Send(line); err != nil {
			fmt.Fprintf(s.out, "send failed: %v\n", err)
		}
	}
}

// Send delivers line into the kernel as an endpoint_send payload
// against the Server's well-known endpoint, exactly as any other
// syscall caller would -- through DispatchSyscall, not by touching
// kernel tables directly. Run calls this for every non-empty line
// read from the terminal; callers driving the console
// programmatically (tests, scripted boot sequences) can call it
// directly instead.
func (s *Server) Send(line string) error {
	args := syscall.Args{
		A0:   uint64(s.EndpointSlot),
		Data: []byte(line),
		A3:   noTransferredCaps,
	}
	_, code := s.dispatch.DispatchSyscall(s.TID, uint32(syscall.Send), args)
	if code != 0 {
		return fmt.Errorf("endpoint_send returned code %d", code)
	}
	return nil
}
