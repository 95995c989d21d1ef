// Package ipc implements the bounded, FIFO, capability-carrying endpoint
// message queues: endpoint_create, endpoint_send,
// endpoint_receive (blocking and non-blocking), and endpoint_call.
package ipc

import "github.com/cypher-asi/zero-os-sub001/internal/capspace"

// MaxPayloadBytes and MaxTransferredCaps are the hard bounds every
// message must respect (payload up to 4 KiB, up to 8 transferred caps).
// DefaultMaxDepth is the bounded FIFO's default capacity.
const (
	MaxPayloadBytes    = 4096
	MaxTransferredCaps = 8
	DefaultMaxDepth    = 256
)

// Message is the in-kernel representation of one queued message.
// TransferredCaps carries full capspace.Capability values, not slots --
// ownership moves wholesale on transfer: a transferred capability is
// removed from the sender's space and inserted into the receiver's
// space, it is not re-derived with a new id.
type Message struct {
	From            uint64
	Tag             uint32
	Data            []byte
	TransferredCaps []capspace.Capability
}
