package kernel

import (
	"github.com/cypher-asi/zero-os-sub001/internal/capspace"
	"github.com/cypher-asi/zero-os-sub001/internal/commit"
	"github.com/cypher-asi/zero-os-sub001/internal/idalloc"
	"github.com/cypher-asi/zero-os-sub001/internal/kernelerr"
	"github.com/cypher-asi/zero-os-sub001/internal/process"
	"github.com/cypher-asi/zero-os-sub001/internal/thread"
)

// Spawn creates a new process with an empty capability space and a
// single Ready thread, transitions the process to Running, and commits
// both the ProcessCreated and the thread's Ready-state fact so replay
// reconstructs the same pair of objects (I6). eventID ties both commits
// to the syscall that caused them (0 for kernel-internal spawns, e.g.
// the boot-time init process, which has no enclosing syscall).
func (s *State) Spawn(name string, parent uint64, priority int, timeSliceNanos int64, eventID uint64) (*process.Process, *thread.TCB, error) {
	if s.Config.MaxProcesses > 0 && len(s.Procs.Snapshot()) >= s.Config.MaxProcesses {
		return nil, nil, kernelerr.New(kernelerr.AllocationRefused, "kernel: process limit reached")
	}

	pid := s.IDs.Next(idalloc.PID)
	sp := capspace.New(s.IDs, s, s.Host.NowNanos)

	s.spacesMu.Lock()
	s.spaces[pid] = sp
	s.spacesMu.Unlock()

	proc := s.Procs.Create(pid, name, parent, sp, s.Host.NowNanos())

	if _, err := s.Log.Append(commit.ProcessCreated, eventID, mustEncode(commit.ProcessCreatedPayload{
		PID: pid, Name: name, Parent: parent,
	})); err != nil {
		return nil, nil, err
	}

	tid := s.IDs.Next(idalloc.TID)
	tcb := s.Threads.Create(tid, pid, priority, timeSliceNanos)
	if err := s.Procs.AddThread(pid, tid); err != nil {
		return nil, nil, err
	}
	s.Sched.Add(tid, priority)

	if _, err := s.Log.Append(commit.ThreadStateChanged, eventID, mustEncode(commit.ThreadStateChangedPayload{
		TID: tid, PID: pid, From: "none", To: thread.Ready.String(),
		Priority: priority, TimeSliceNanos: timeSliceNanos,
	})); err != nil {
		return nil, nil, err
	}

	if err := s.Procs.SetState(pid, process.Running); err != nil {
		return nil, nil, err
	}

	return proc, tcb, nil
}

// mustEncode panics on a gob-encode failure, which can only happen for a
// payload struct containing something gob can't represent -- a
// programming error caught the first time the code path runs, not a
// runtime condition callers need to handle.
func mustEncode(v interface{}) []byte {
	raw, err := commit.EncodePayload(v)
	if err != nil {
		panic(err)
	}
	return raw
}

// ThreadExit transitions tid to Zombie, drops it from the scheduler's
// ready set, and -- if it was the last non-zombie thread in its process
// -- transitions the process to Zombie too.
func (s *State) ThreadExit(tid uint64, exitCode int32, eventID uint64) error {
	tcb, ok := s.Threads.Get(tid)
	if !ok {
		return kernelerr.New(kernelerr.ObjectNotFound, "kernel: tid %d not found", tid)
	}

	from := tcb.State.Kind.String()
	if err := s.Threads.Transition(tid, threadStateZombie(exitCode)); err != nil {
		return err
	}
	s.Sched.Remove(tid)

	if _, err := s.Log.Append(commit.ThreadStateChanged, eventID, mustEncode(commit.ThreadStateChangedPayload{
		TID: tid, PID: tcb.PID, From: from, To: thread.ZombieK.String(),
		ExitCode: exitCode,
	})); err != nil {
		return err
	}

	if err := s.Procs.RemoveThread(tcb.PID, tid); err != nil {
		return err
	}

	if len(s.Threads.NonZombieSiblings(tcb.PID, tid)) == 0 {
		if err := s.Procs.SetState(tcb.PID, process.Zombie); err != nil {
			return err
		}
		// exit_status belongs to the process, set by whichever thread is
		// last to leave it -- an earlier sibling's own exit code never
		// reaches here, since NonZombieSiblings only just reported empty.
		if err := s.Procs.SetExitStatus(tcb.PID, exitCode); err != nil {
			return err
		}
	}

	return nil
}

func threadStateZombie(code int32) thread.State {
	return thread.State{Kind: thread.ZombieK, ExitCode: code}
}

// Reap implements the parent-reaps-zombie half of process teardown: it
// drains the zombie's capability space (emitting CapRemoved for each
// live slot) before dropping the process from the existence registry,
// so no dangling capability ever outlives the object it names.
func (s *State) Reap(pid uint64, eventID uint64) error {
	sp, err := s.space(pid)
	if err != nil {
		return err
	}

	for slot := range sp.Slots() {
		if _, ok := sp.Remove(slot); ok {
			if _, err := s.Log.Append(commit.CapRemoved, eventID, mustEncode(commit.CapRemovedPayload{
				PID: pid, Slot: slot,
			})); err != nil {
				return err
			}
		}
	}

	if err := s.Procs.Reap(pid); err != nil {
		return err
	}

	s.spacesMu.Lock()
	delete(s.spaces, pid)
	s.spacesMu.Unlock()

	return nil
}
