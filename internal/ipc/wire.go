package ipc

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/cypher-asi/zero-os-sub001/internal/capspace"
	"github.com/cypher-asi/zero-os-sub001/internal/kernelerr"
)

// Marshal and Unmarshal implement the exact byte layout of the message
// wire format: {from:u64, tag:u32, data_len:u32, data,
// cap_count:u8, caps:[TransferredCap;cap_count]}, each TransferredCap
// {id:u64, object_type:u8, object_id:u64, perms:u8, generation:u32,
// expires_at:u64}. This is the one place in the repo that doesn't reach
// for encoding/gob the way internal/commit does: the wire format is
// specified byte-for-byte with fixed field widths, and gob's
// self-describing encoding would silently diverge from it.
func permsToByte(p capspace.Permissions) byte {
	var b byte
	if p.Read {
		b |= 1 << 0
	}
	if p.Write {
		b |= 1 << 1
	}
	if p.Grant {
		b |= 1 << 2
	}
	return b
}

func permsFromByte(b byte) capspace.Permissions {
	return capspace.Permissions{
		Read:  b&(1<<0) != 0,
		Write: b&(1<<1) != 0,
		Grant: b&(1<<2) != 0,
	}
}

// Marshal encodes m onto the wire. It returns an error only if data or
// TransferredCaps exceed the hard bounds enforced on every message --
// Send/Receive check these invariants earlier, so Marshal failing
// indicates a caller bypassed the syscall layer.
func (m *Message) Marshal() ([]byte, error) {
	if len(m.Data) > MaxPayloadBytes {
		return nil, kernelerr.New(kernelerr.BadArgument, "ipc: payload %d bytes exceeds %d", len(m.Data), MaxPayloadBytes)
	}
	if len(m.TransferredCaps) > MaxTransferredCaps {
		return nil, kernelerr.New(kernelerr.BadArgument, "ipc: %d transferred caps exceeds %d", len(m.TransferredCaps), MaxTransferredCaps)
	}

	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.BigEndian, m.From)
	_ = binary.Write(&buf, binary.BigEndian, m.Tag)
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(m.Data)))
	buf.Write(m.Data)
	buf.WriteByte(byte(len(m.TransferredCaps)))

	for _, c := range m.TransferredCaps {
		_ = binary.Write(&buf, binary.BigEndian, c.ID)
		buf.WriteByte(byte(c.ObjectType))
		_ = binary.Write(&buf, binary.BigEndian, c.ObjectID)
		buf.WriteByte(permsToByte(c.Permissions))
		_ = binary.Write(&buf, binary.BigEndian, c.Generation)
		_ = binary.Write(&buf, binary.BigEndian, uint64(c.ExpiresAt))
	}

	return buf.Bytes(), nil
}

// Unmarshal decodes a Message off the wire, rejecting anything that
// would violate the hard bounds enforced on every message.
func Unmarshal(raw []byte) (*Message, error) {
	r := bytes.NewReader(raw)

	m := &Message{}
	if err := binary.Read(r, binary.BigEndian, &m.From); err != nil {
		return nil, kernelerr.Wrap(err, kernelerr.BadArgument, "ipc: truncated message header")
	}
	if err := binary.Read(r, binary.BigEndian, &m.Tag); err != nil {
		return nil, kernelerr.Wrap(err, kernelerr.BadArgument, "ipc: truncated message header")
	}
	var dataLen uint32
	if err := binary.Read(r, binary.BigEndian, &dataLen); err != nil {
		return nil, kernelerr.Wrap(err, kernelerr.BadArgument, "ipc: truncated message header")
	}
	if dataLen > MaxPayloadBytes {
		return nil, kernelerr.New(kernelerr.BadArgument, "ipc: declared payload %d exceeds %d", dataLen, MaxPayloadBytes)
	}
	m.Data = make([]byte, dataLen)
	if _, err := io.ReadFull(r, m.Data); err != nil {
		return nil, kernelerr.Wrap(err, kernelerr.BadArgument, "ipc: truncated payload")
	}

	capCount, err := r.ReadByte()
	if err != nil {
		return nil, kernelerr.Wrap(err, kernelerr.BadArgument, "ipc: truncated message header")
	}
	if int(capCount) > MaxTransferredCaps {
		return nil, kernelerr.New(kernelerr.BadArgument, "ipc: declared cap_count %d exceeds %d", capCount, MaxTransferredCaps)
	}

	m.TransferredCaps = make([]capspace.Capability, 0, capCount)
	for i := byte(0); i < capCount; i++ {
		var c capspace.Capability
		if err := binary.Read(r, binary.BigEndian, &c.ID); err != nil {
			return nil, kernelerr.Wrap(err, kernelerr.BadArgument, "ipc: truncated transferred cap")
		}
		objType, err := r.ReadByte()
		if err != nil {
			return nil, kernelerr.Wrap(err, kernelerr.BadArgument, "ipc: truncated transferred cap")
		}
		c.ObjectType = capspace.ObjectType(objType)
		if err := binary.Read(r, binary.BigEndian, &c.ObjectID); err != nil {
			return nil, kernelerr.Wrap(err, kernelerr.BadArgument, "ipc: truncated transferred cap")
		}
		permByte, err := r.ReadByte()
		if err != nil {
			return nil, kernelerr.Wrap(err, kernelerr.BadArgument, "ipc: truncated transferred cap")
		}
		c.Permissions = permsFromByte(permByte)
		if err := binary.Read(r, binary.BigEndian, &c.Generation); err != nil {
			return nil, kernelerr.Wrap(err, kernelerr.BadArgument, "ipc: truncated transferred cap")
		}
		var expires uint64
		if err := binary.Read(r, binary.BigEndian, &expires); err != nil {
			return nil, kernelerr.Wrap(err, kernelerr.BadArgument, "ipc: truncated transferred cap")
		}
		c.ExpiresAt = int64(expires)
		m.TransferredCaps = append(m.TransferredCaps, c)
	}

	return m, nil
}
