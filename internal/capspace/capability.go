// Package capspace implements per-process capability spaces: ordered slot
// tables mapping a local 32-bit slot to a Capability, with the check,
// insert, remove, derive, grant, revoke, and delete operations. Attenuation
// (a derived capability's bits are a pointwise subset of its source) is
// enforced at construction in Derive and re-checked by internal/invariant's
// debug audit.
package capspace

import "fmt"

// ObjectType is the kind of kernel object a capability denotes.
type ObjectType int

const (
	Endpoint ObjectType = iota
	Process
	Memory
	Irq
	IoPort
	Console
)

func (t ObjectType) String() string {
	switch t {
	case Endpoint:
		return "endpoint"
	case Process:
		return "process"
	case Memory:
		return "memory"
	case Irq:
		return "irq"
	case IoPort:
		return "ioport"
	case Console:
		return "console"
	default:
		return fmt.Sprintf("objtype(%d)", int(t))
	}
}

// Permissions are the three independent rights a capability may carry.
type Permissions struct {
	Read  bool
	Write bool
	Grant bool
}

// Permits reports whether every bit set in required is also set here:
// required bits imply present bits.
func (p Permissions) Permits(required Permissions) bool {
	if required.Read && !p.Read {
		return false
	}
	if required.Write && !p.Write {
		return false
	}
	if required.Grant && !p.Grant {
		return false
	}
	return true
}

// And returns the bitwise AND of p and mask, used by Derive to attenuate.
func (p Permissions) And(mask Permissions) Permissions {
	return Permissions{
		Read:  p.Read && mask.Read,
		Write: p.Write && mask.Write,
		Grant: p.Grant && mask.Grant,
	}
}

// Subset reports whether p's bits are a pointwise subset of other's,
// i.e. p could have been derived (possibly trivially) from other. Used
// by internal/invariant to check derived-permission attenuation across
// the commit log.
func (p Permissions) Subset(other Permissions) bool {
	if p.Read && !other.Read {
		return false
	}
	if p.Write && !other.Write {
		return false
	}
	if p.Grant && !other.Grant {
		return false
	}
	return true
}

// Full is read+write+grant, the permission set endpoint_create installs
// in the owner's space.
var Full = Permissions{Read: true, Write: true, Grant: true}

// Capability is one capability record: {id, object_type, object_id,
// permissions, generation, expires_at}. Once assigned an id, a
// capability's fields never change -- Derive always allocates a fresh
// id rather than mutating in place.
type Capability struct {
	ID          uint64
	ObjectType  ObjectType
	ObjectID    uint64
	Permissions Permissions
	Generation  uint32
	ExpiresAt   int64 // absolute monotonic nanoseconds; 0 = never expires
}
