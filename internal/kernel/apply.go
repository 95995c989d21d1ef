package kernel

import (
	"github.com/cypher-asi/zero-os-sub001/internal/capspace"
	"github.com/cypher-asi/zero-os-sub001/internal/commit"
	"github.com/cypher-asi/zero-os-sub001/internal/idalloc"
	"github.com/cypher-asi/zero-os-sub001/internal/ipc"
	"github.com/cypher-asi/zero-os-sub001/internal/kernelerr"
	"github.com/cypher-asi/zero-os-sub001/internal/objreg"
	"github.com/cypher-asi/zero-os-sub001/internal/process"
	"github.com/cypher-asi/zero-os-sub001/internal/thread"
)

// Apply implements commit.Applier: folding every record of a log into a
// fresh State reproduces the live state that produced it (I6). Apply
// performs the table mutation the original handler performed. The one
// decision it re-derives is a process's move to Zombie when a thread
// exits: no record carries that transition, so Apply computes it from
// the replayed thread table the same way ThreadExit does.
func (s *State) Apply(r commit.Record) error {
	switch r.Kind {
	case commit.SysEventEntry, commit.SysEventExit:
		return nil

	case commit.ProcessCreated:
		var p commit.ProcessCreatedPayload
		if err := commit.DecodePayload(r.Payload, &p); err != nil {
			return err
		}
		sp := capspace.New(s.IDs, s, s.Host.NowNanos)
		s.spacesMu.Lock()
		s.spaces[p.PID] = sp
		s.spacesMu.Unlock()
		s.Procs.Create(p.PID, p.Name, p.Parent, sp, s.Host.NowNanos())
		s.IDs.Reinit(idalloc.PID, p.PID)
		return nil

	case commit.ThreadStateChanged:
		return s.applyThreadStateChanged(r.Payload)

	case commit.CapInserted:
		var p commit.CapInsertedPayload
		if err := commit.DecodePayload(r.Payload, &p); err != nil {
			return err
		}
		sp, err := s.space(p.PID)
		if err != nil {
			return err
		}
		sp.InsertAt(p.Slot, p.Cap)
		s.IDs.Reinit(idalloc.CapID, p.Cap.ID)
		if p.Cap.ObjectType == capspace.Endpoint && !s.Endpoints.Exists(p.Cap.ObjectID) {
			s.Endpoints.Create(p.Cap.ObjectID, p.PID, p.EndpointMaxDepth)
			s.IDs.Reinit(idalloc.EID, p.Cap.ObjectID)
		} else {
			s.reinitNativeObject(p.Cap.ObjectType, p.Cap.ObjectID)
		}
		// Replay also reproduces the process->Running transition
		// spawn() performs immediately after creating the first thread;
		// Running->Running is a legal no-op for every later grant.
		return runningNoOp(s, p.PID)

	case commit.CapRemoved:
		var p commit.CapRemovedPayload
		if err := commit.DecodePayload(r.Payload, &p); err != nil {
			return err
		}
		sp, err := s.space(p.PID)
		if err != nil {
			return err
		}
		sp.Remove(p.Slot)
		return nil

	case commit.MessageEnqueued:
		var p commit.MessageEnqueuedPayload
		if err := commit.DecodePayload(r.Payload, &p); err != nil {
			return err
		}
		ep, ok := s.Endpoints.Get(p.EndpointID)
		if !ok {
			return kernelerr.New(kernelerr.ObjectNotFound, "replay: endpoint %d not found", p.EndpointID)
		}
		return ep.Enqueue(&ipc.Message{From: p.From, Tag: p.Tag, Data: p.Data, TransferredCaps: p.TransferredCaps})

	case commit.MessageDequeued:
		var p commit.MessageDequeuedPayload
		if err := commit.DecodePayload(r.Payload, &p); err != nil {
			return err
		}
		ep, ok := s.Endpoints.Get(p.EndpointID)
		if !ok {
			return kernelerr.New(kernelerr.ObjectNotFound, "replay: endpoint %d not found", p.EndpointID)
		}
		ep.Dequeue()
		return nil

	case commit.CapTransferred:
		// Informational only: the slot-level CapRemoved/CapInserted pair
		// bracketing a transfer already performs the mutation.
		return nil

	default:
		return kernelerr.New(kernelerr.BadArgument, "replay: unknown commit kind %d", r.Kind)
	}
}

// reinitNativeObject re-registers a Memory, Irq, IoPort, or Console
// object's existence during replay. These four registries carry
// nothing beyond an id and a generation counter, so re-adding the id
// is all replay needs -- unlike Endpoint and Process, which have their
// own dedicated commit kinds and table-level Create calls, a native
// object's only record of having been created is the CapInserted entry
// for the capability that named it.
func (s *State) reinitNativeObject(t capspace.ObjectType, id uint64) {
	var reg *objreg.Registry
	switch t {
	case capspace.Memory:
		reg = s.memReg
	case capspace.Irq:
		reg = s.irqReg
	case capspace.IoPort:
		reg = s.ioPortReg
	case capspace.Console:
		reg = s.consoleReg
	default:
		return
	}
	if !reg.Exists(id) {
		reg.Add(id)
	}
}

func runningNoOp(s *State, pid uint64) error {
	if p, ok := s.Procs.Get(pid); ok && p.State == process.Creating {
		return s.Procs.SetState(pid, process.Running)
	}
	return nil
}

func (s *State) applyThreadStateChanged(raw []byte) error {
	var p commit.ThreadStateChangedPayload
	if err := commit.DecodePayload(raw, &p); err != nil {
		return err
	}

	if p.From == "none" {
		s.Threads.Create(p.TID, p.PID, p.Priority, p.TimeSliceNanos)
		if err := s.Procs.AddThread(p.PID, p.TID); err != nil {
			return err
		}
		s.Sched.Add(p.TID, p.Priority)
		s.IDs.Reinit(idalloc.TID, p.TID)
		return runningNoOp(s, p.PID)
	}

	next := thread.State{
		Kind:         kindFromString(p.To),
		CPU:          p.CPU,
		WaitUntil:    p.WaitUntil,
		WaitHasUntil: p.WaitHasUntil,
		BlockReason:  p.BlockReason,
		ExitCode:     p.ExitCode,
	}
	if err := s.Threads.Transition(p.TID, next); err != nil {
		return err
	}

	switch next.Kind {
	case thread.Waiting, thread.Blocked, thread.ZombieK:
		s.Sched.Remove(p.TID)
	case thread.Ready:
		if tcb, ok := s.Threads.Get(p.TID); ok {
			s.Sched.Add(p.TID, tcb.Priority)
		}
	}

	if next.Kind == thread.ZombieK {
		if err := s.Procs.RemoveThread(p.PID, p.TID); err != nil {
			return err
		}
		if len(s.Threads.NonZombieSiblings(p.PID, p.TID)) == 0 {
			if err := s.Procs.SetState(p.PID, process.Zombie); err != nil {
				return err
			}
			if err := s.Procs.SetExitStatus(p.PID, p.ExitCode); err != nil {
				return err
			}
		}
	}

	return nil
}

func kindFromString(s string) thread.Kind {
	switch s {
	case "ready":
		return thread.Ready
	case "running":
		return thread.RunningK
	case "waiting":
		return thread.Waiting
	case "blocked":
		return thread.Blocked
	case "zombie":
		return thread.ZombieK
	default:
		return thread.Ready
	}
}
