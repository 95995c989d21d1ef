package ipc

import (
	"github.com/cypher-asi/zero-os-sub001/internal/capspace"
	"github.com/cypher-asi/zero-os-sub001/internal/kernelerr"
)

// Send implements endpoint_send. It is called after the
// syscall layer has already verified the caller holds a write-capable,
// Endpoint-typed capability for ep itself; Send's own job is the
// payload/cap-count bounds, the per-transferred-cap grant check, and the
// atomic detach-then-enqueue.
//
// Every precondition is checked before any mutation happens. The one
// failure that can follow the detach, Enqueue refusing the message, is
// rolled back by reinserting each detached capability into the sender's
// space (under new slot numbers, since slots are never reused).
func Send(ep *Endpoint, senderSpace *capspace.Space, senderPID uint64, tag uint32, data []byte, capSlots []uint32) (*Message, error) {
	if len(data) > MaxPayloadBytes {
		return nil, kernelerr.New(kernelerr.BadArgument, "ipc: payload %d bytes exceeds %d", len(data), MaxPayloadBytes)
	}
	if len(capSlots) > MaxTransferredCaps {
		return nil, kernelerr.New(kernelerr.BadArgument, "ipc: %d transferred caps exceeds %d", len(capSlots), MaxTransferredCaps)
	}

	// Capability transfer implies delegation: every transferred slot must
	// carry Grant.
	toTransfer := make([]capspace.Capability, len(capSlots))
	for i, slot := range capSlots {
		c, err := senderSpace.Check(slot, capspace.Permissions{Grant: true}, nil)
		if err != nil {
			return nil, err
		}
		toTransfer[i] = c
	}

	// Queue capacity is checked before any slot is detached; Enqueue
	// re-checks atomically under its own lock, so a concurrent sender on
	// another endpoint can't observe a half-sent message here, but we
	// still probe first to avoid detaching capabilities only to replace
	// them on failure.
	if ep.Len() >= ep.MaxDepth {
		return nil, kernelerr.New(kernelerr.QueueFull, "ipc: endpoint %d queue full (max %d)", ep.ID, ep.MaxDepth)
	}

	for _, slot := range capSlots {
		if _, ok := senderSpace.Remove(slot); !ok {
			// Can only happen if something else removed the slot between
			// Check and here, which single-syscall-lock discipline rules
			// out; kept defensive rather than assumed.
			return nil, kernelerr.New(kernelerr.InvalidSlot, "ipc: slot %d vanished mid-send", slot)
		}
	}

	msg := &Message{
		From:            senderPID,
		Tag:             tag,
		Data:            append([]byte(nil), data...), // payloads are byte-copied on enqueue
		TransferredCaps: toTransfer,
	}

	if err := ep.Enqueue(msg); err != nil {
		// Queue filled between the probe above and here (another sender
		// raced us): restore the sender's capabilities before reporting
		// failure, preserving "no partial mutation" end to end.
		for _, c := range toTransfer {
			senderSpace.Insert(c)
		}
		return nil, err
	}

	return msg, nil
}

// Received is the result of a successful endpoint_receive: the message
// plus the slots its transferred capabilities were inserted into in the
// receiver's space.
type Received struct {
	Message *Message
	Slots   []uint32
}

// Receive implements endpoint_receive: dequeue the head
// message and insert each transferred capability into receiverSpace,
// returning the assigned slots alongside the message. Non-blocking: an
// empty queue is reported to the caller (which maps it to "no message"),
// not an error -- blocking is implemented one layer up by parking the
// calling thread via internal/sched when the caller requested it.
func Receive(ep *Endpoint, receiverSpace *capspace.Space) (*Received, bool) {
	msg, ok := ep.Dequeue()
	if !ok {
		return nil, false
	}

	slots := make([]uint32, len(msg.TransferredCaps))
	for i, c := range msg.TransferredCaps {
		slots[i] = receiverSpace.Insert(c)
	}

	return &Received{Message: msg, Slots: slots}, true
}
