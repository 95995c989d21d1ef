package kernel

import (
	"github.com/cypher-asi/zero-os-sub001/internal/capspace"
	"github.com/cypher-asi/zero-os-sub001/internal/commit"
	"github.com/cypher-asi/zero-os-sub001/internal/idalloc"
	"github.com/cypher-asi/zero-os-sub001/internal/ipc"
	"github.com/cypher-asi/zero-os-sub001/internal/kernelerr"
	"github.com/cypher-asi/zero-os-sub001/internal/syscall"
)

// registerIPCHandlers wires the 0x40-0x4F range: endpoint_create, send,
// receive (non-blocking by default; with a nonzero A1 the handler itself
// parks the caller as an endpoint waiter when the queue is empty), call,
// endpoint_destroy.
func registerIPCHandlers(s *State) {
	s.Dispatch.MustRegister(syscall.EndpointCreate, func(callerTID uint64, args syscall.Args) (syscall.Result, error) {
		pid, err := s.callerPID(callerTID)
		if err != nil {
			return syscall.Result{}, err
		}
		sp, err := s.space(pid)
		if err != nil {
			return syscall.Result{}, err
		}

		maxDepth := int(args.A0)
		if maxDepth <= 0 {
			maxDepth = s.Config.DefaultQueueDepth
		}

		eid := s.IDs.Next(idalloc.EID)
		s.Endpoints.Create(eid, pid, maxDepth)

		cap := capspace.Capability{
			ID:          s.IDs.Next(idalloc.CapID),
			ObjectType:  capspace.Endpoint,
			ObjectID:    eid,
			Permissions: capspace.Permissions{Read: true, Write: true, Grant: true},
		}
		slot := sp.Insert(cap)

		if _, err := s.Log.Append(commit.CapInserted, args.EventID, mustEncode(commit.CapInsertedPayload{
			PID: pid, Slot: slot, Cap: cap, EndpointMaxDepth: maxDepth,
		})); err != nil {
			return syscall.Result{}, err
		}

		return syscall.Result{Value: uint64(slot)}, nil
	})

	s.Dispatch.MustRegister(syscall.Send, func(callerTID uint64, args syscall.Args) (syscall.Result, error) {
		sp, err := s.callerSpace(callerTID)
		if err != nil {
			return syscall.Result{}, err
		}
		pid, _ := s.callerPID(callerTID)

		cap, err := sp.Check(uint32(args.A0), capspace.Permissions{Write: true}, endpointType())
		if err != nil {
			return syscall.Result{}, err
		}
		ep, ok := s.Endpoints.Get(cap.ObjectID)
		if !ok {
			return syscall.Result{}, kernelerr.New(kernelerr.ObjectNotFound, "send: endpoint %d not found", cap.ObjectID)
		}

		capSlots := decodeSlotList(args.A3)
		msg, err := ipc.Send(ep, sp, pid, uint32(args.A1), args.Data, capSlots)
		if err != nil {
			return syscall.Result{}, err
		}

		if _, err := s.Log.Append(commit.MessageEnqueued, args.EventID, mustEncode(commit.MessageEnqueuedPayload{
			EndpointID: ep.ID, Tag: msg.Tag, From: pid, Data: msg.Data, TransferredCaps: msg.TransferredCaps,
		})); err != nil {
			return syscall.Result{}, err
		}
		// ipc.Send already detached each transferred slot from sp; log
		// that removal so replay's CapRemoved handling mirrors it.
		for _, slot := range capSlots {
			if _, err := s.Log.Append(commit.CapRemoved, args.EventID, mustEncode(commit.CapRemovedPayload{
				PID: pid, Slot: slot,
			})); err != nil {
				return syscall.Result{}, err
			}
		}
		for _, transferred := range msg.TransferredCaps {
			if _, err := s.Log.Append(commit.CapTransferred, args.EventID, mustEncode(commit.CapTransferredPayload{
				CapID: transferred.ID, From: pid, To: ep.OwnerPID,
			})); err != nil {
				return syscall.Result{}, err
			}
		}

		if woken, ok := ep.WakeHeadWaiter(); ok {
			if tcb, ok := s.Threads.Get(woken); ok {
				from := tcb.State.Kind.String()
				if err := s.Threads.Transition(woken, readyState()); err == nil {
					s.Sched.Add(woken, tcb.Priority)
					if err := s.logThreadTransition(woken, tcb.PID, from, readyState(), args.EventID); err != nil {
						return syscall.Result{}, err
					}
				}
			}
		}

		return syscall.Result{}, nil
	})

	s.Dispatch.MustRegister(syscall.Receive, func(callerTID uint64, args syscall.Args) (syscall.Result, error) {
		sp, err := s.callerSpace(callerTID)
		if err != nil {
			return syscall.Result{}, err
		}

		cap, err := sp.Check(uint32(args.A0), capspace.Permissions{Read: true}, endpointType())
		if err != nil {
			return syscall.Result{}, err
		}
		ep, ok := s.Endpoints.Get(cap.ObjectID)
		if !ok {
			return syscall.Result{}, kernelerr.New(kernelerr.ObjectNotFound, "receive: endpoint %d not found", cap.ObjectID)
		}

		received, ok := ipc.Receive(ep, sp)
		if !ok {
			if args.A1 != 0 { // blocking variant requested
				tcb, ok := s.Threads.Get(callerTID)
				if !ok {
					return syscall.Result{}, kernelerr.New(kernelerr.ObjectNotFound, "receive: tid %d not found", callerTID)
				}
				from := tcb.State.Kind.String()
				next := blockedState("endpoint_receive")
				ep.AddWaiter(callerTID)
				if err := s.Threads.Transition(callerTID, next); err != nil {
					return syscall.Result{}, err
				}
				s.Sched.Remove(callerTID)
				if err := s.logThreadTransition(callerTID, tcb.PID, from, next, args.EventID); err != nil {
					return syscall.Result{}, err
				}
			}
			return syscall.Result{Value: 0}, nil
		}

		if _, err := s.Log.Append(commit.MessageDequeued, args.EventID, mustEncode(commit.MessageDequeuedPayload{
			EndpointID: ep.ID, Tag: received.Message.Tag,
		})); err != nil {
			return syscall.Result{}, err
		}

		// ipc.Receive already inserted each transferred capability into sp;
		// log it here so replay's CapInserted handling (which calls
		// InsertAt) reproduces the exact same slots.
		receiverPID, _ := s.callerPID(callerTID)
		for i, slot := range received.Slots {
			if _, err := s.Log.Append(commit.CapInserted, args.EventID, mustEncode(commit.CapInsertedPayload{
				PID: receiverPID, Slot: slot, Cap: received.Message.TransferredCaps[i],
			})); err != nil {
				return syscall.Result{}, err
			}
		}

		return syscall.Result{Value: 1, Data: received.Message.Data}, nil
	})

	s.Dispatch.MustRegister(syscall.EndpointDestroy, func(callerTID uint64, args syscall.Args) (syscall.Result, error) {
		sp, err := s.callerSpace(callerTID)
		if err != nil {
			return syscall.Result{}, err
		}
		cap, err := sp.Check(uint32(args.A0), capspace.Permissions{Grant: true}, endpointType())
		if err != nil {
			return syscall.Result{}, err
		}
		return syscall.Result{}, s.Endpoints.Destroy(cap.ObjectID)
	})

	// Call composes endpoint_create + send + receive + endpoint_destroy:
	// a transient reply endpoint is created, a write+grant capability to
	// it rides along in the message so the callee can reply, and the
	// caller blocks for exactly one reply before the reply endpoint is
	// torn down. The cooperative host re-enters a blocked handler through
	// a fresh syscall boundary rather than resuming mid-call, so the
	// composition is split across startCall (first entry) and resumeCall
	// (every later Call from the same TID while s.pendingCalls holds an
	// entry for it).
	s.Dispatch.MustRegister(syscall.Call, func(callerTID uint64, args syscall.Args) (syscall.Result, error) {
		s.callsMu.Lock()
		pending, inFlight := s.pendingCalls[callerTID]
		s.callsMu.Unlock()

		if inFlight {
			return s.resumeCall(callerTID, pending, args.EventID)
		}
		return s.startCall(callerTID, args)
	})
}

// startCall performs the send half of endpoint_call: it creates a
// transient reply endpoint, derives a write+grant capability to it, and
// sends that capability (plus whatever else the caller packed into A3)
// to the target endpoint named by A0. No commit is emitted until Send
// itself has succeeded, so a failure here leaves no trace in the log.
func (s *State) startCall(callerTID uint64, args syscall.Args) (syscall.Result, error) {
	sp, err := s.callerSpace(callerTID)
	if err != nil {
		return syscall.Result{}, err
	}
	pid, err := s.callerPID(callerTID)
	if err != nil {
		return syscall.Result{}, err
	}

	targetCap, err := sp.Check(uint32(args.A0), capspace.Permissions{Write: true}, endpointType())
	if err != nil {
		return syscall.Result{}, err
	}
	targetEp, ok := s.Endpoints.Get(targetCap.ObjectID)
	if !ok {
		return syscall.Result{}, kernelerr.New(kernelerr.ObjectNotFound, "call: endpoint %d not found", targetCap.ObjectID)
	}

	replyEID := s.IDs.Next(idalloc.EID)
	replyDepth := s.Config.DefaultQueueDepth
	s.Endpoints.Create(replyEID, pid, replyDepth)

	replyCap := capspace.Capability{
		ID:          s.IDs.Next(idalloc.CapID),
		ObjectType:  capspace.Endpoint,
		ObjectID:    replyEID,
		Permissions: capspace.Permissions{Read: true, Write: true, Grant: true},
	}
	replySlot := sp.Insert(replyCap)

	derivedCap, err := sp.Derive(replySlot, capspace.Permissions{Write: true, Grant: true})
	if err != nil {
		sp.Remove(replySlot)
		s.Endpoints.Destroy(replyEID)
		return syscall.Result{}, err
	}
	derivedSlot := sp.Insert(derivedCap)

	capSlots := append(decodeSlotList(args.A3), derivedSlot)
	msg, err := ipc.Send(targetEp, sp, pid, uint32(args.A1), args.Data, capSlots)
	if err != nil {
		sp.Remove(derivedSlot)
		sp.Remove(replySlot)
		s.Endpoints.Destroy(replyEID)
		return syscall.Result{}, err
	}

	if _, err := s.Log.Append(commit.CapInserted, args.EventID, mustEncode(commit.CapInsertedPayload{
		PID: pid, Slot: replySlot, Cap: replyCap, EndpointMaxDepth: replyDepth,
	})); err != nil {
		return syscall.Result{}, err
	}
	if _, err := s.Log.Append(commit.CapInserted, args.EventID, mustEncode(commit.CapInsertedPayload{
		PID: pid, Slot: derivedSlot, Cap: derivedCap,
	})); err != nil {
		return syscall.Result{}, err
	}
	if _, err := s.Log.Append(commit.MessageEnqueued, args.EventID, mustEncode(commit.MessageEnqueuedPayload{
		EndpointID: targetEp.ID, Tag: msg.Tag, From: pid, Data: msg.Data, TransferredCaps: msg.TransferredCaps,
	})); err != nil {
		return syscall.Result{}, err
	}
	for _, slot := range capSlots {
		if _, err := s.Log.Append(commit.CapRemoved, args.EventID, mustEncode(commit.CapRemovedPayload{
			PID: pid, Slot: slot,
		})); err != nil {
			return syscall.Result{}, err
		}
	}
	for _, transferred := range msg.TransferredCaps {
		if _, err := s.Log.Append(commit.CapTransferred, args.EventID, mustEncode(commit.CapTransferredPayload{
			CapID: transferred.ID, From: pid, To: targetEp.OwnerPID,
		})); err != nil {
			return syscall.Result{}, err
		}
	}

	if woken, ok := targetEp.WakeHeadWaiter(); ok {
		if tcb, ok := s.Threads.Get(woken); ok {
			from := tcb.State.Kind.String()
			if err := s.Threads.Transition(woken, readyState()); err == nil {
				s.Sched.Add(woken, tcb.Priority)
				if err := s.logThreadTransition(woken, tcb.PID, from, readyState(), args.EventID); err != nil {
					return syscall.Result{}, err
				}
			}
		}
	}

	pending := pendingCall{replyEID: replyEID, replySlot: replySlot}
	return s.awaitReply(callerTID, pid, sp, pending, args.EventID)
}

// resumeCall re-enters a Call already waiting on its reply: the reply
// endpoint and slot were set up by startCall, so this is only ever a
// receive attempt, never a re-send.
func (s *State) resumeCall(callerTID uint64, pending pendingCall, eventID uint64) (syscall.Result, error) {
	pid, err := s.callerPID(callerTID)
	if err != nil {
		return syscall.Result{}, err
	}
	sp, err := s.space(pid)
	if err != nil {
		return syscall.Result{}, err
	}
	return s.awaitReply(callerTID, pid, sp, pending, eventID)
}

// awaitReply attempts the receive half of a call: on a reply, it logs
// the dequeue and any transferred caps, tears down the reply endpoint
// and its capability, and returns the reply payload. On an empty queue
// it parks the caller on the reply endpoint's waiter list and records
// the in-flight call in s.pendingCalls for the next syscall boundary to
// pick back up.
func (s *State) awaitReply(callerTID, pid uint64, sp *capspace.Space, pending pendingCall, eventID uint64) (syscall.Result, error) {
	replyEp, ok := s.Endpoints.Get(pending.replyEID)
	if !ok {
		return syscall.Result{}, kernelerr.New(kernelerr.ObjectNotFound, "call: reply endpoint %d not found", pending.replyEID)
	}

	received, ok := ipc.Receive(replyEp, sp)
	if !ok {
		tcb, ok := s.Threads.Get(callerTID)
		if !ok {
			return syscall.Result{}, kernelerr.New(kernelerr.ObjectNotFound, "call: tid %d not found", callerTID)
		}
		from := tcb.State.Kind.String()
		next := blockedState("endpoint_call")
		replyEp.AddWaiter(callerTID)
		if err := s.Threads.Transition(callerTID, next); err != nil {
			return syscall.Result{}, err
		}
		s.Sched.Remove(callerTID)
		if err := s.logThreadTransition(callerTID, tcb.PID, from, next, eventID); err != nil {
			return syscall.Result{}, err
		}

		s.callsMu.Lock()
		s.pendingCalls[callerTID] = pending
		s.callsMu.Unlock()

		return syscall.Result{Value: 0}, nil
	}

	if _, err := s.Log.Append(commit.MessageDequeued, eventID, mustEncode(commit.MessageDequeuedPayload{
		EndpointID: replyEp.ID, Tag: received.Message.Tag,
	})); err != nil {
		return syscall.Result{}, err
	}
	for i, slot := range received.Slots {
		if _, err := s.Log.Append(commit.CapInserted, eventID, mustEncode(commit.CapInsertedPayload{
			PID: pid, Slot: slot, Cap: received.Message.TransferredCaps[i],
		})); err != nil {
			return syscall.Result{}, err
		}
	}

	if _, ok := sp.Remove(pending.replySlot); ok {
		if _, err := s.Log.Append(commit.CapRemoved, eventID, mustEncode(commit.CapRemovedPayload{
			PID: pid, Slot: pending.replySlot,
		})); err != nil {
			return syscall.Result{}, err
		}
	}
	if err := s.Endpoints.Destroy(pending.replyEID); err != nil {
		return syscall.Result{}, err
	}

	s.callsMu.Lock()
	delete(s.pendingCalls, callerTID)
	s.callsMu.Unlock()

	return syscall.Result{Value: 1, Data: received.Message.Data}, nil
}

func endpointType() *capspace.ObjectType {
	t := capspace.Endpoint
	return &t
}

// decodeSlotList unpacks up to ipc.MaxTransferredCaps slot numbers
// packed 8 bits apiece into a single word -- the fixed four-argument
// call convention has no room for a variable-length argument, so a
// send's capability slots ride along in A3 rather than args.Data, which
// is reserved for the message payload bytes.
func decodeSlotList(packed uint64) []uint32 {
	var out []uint32
	for i := 0; i < 8; i++ {
		b := byte(packed >> (8 * i))
		if b == 0xFF {
			break
		}
		out = append(out, uint32(b))
	}
	return out
}
