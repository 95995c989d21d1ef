package capspace

// Resolver answers existence and generation questions about the kernel
// objects a capability denotes. kernel.State is the only production
// implementation -- it delegates to the process table, the endpoint
// table, and the native memory/irq/ioport/console registries, and owns
// the shared per-object generation counters that Revoke bumps.
//
// Generation-based revocation: revoking a slot bumps the generation of
// the object it names. Any other capability anywhere in the system --
// including ones already transferred to other processes -- that
// carries a stale Generation fails Check with Revoked. The kernel
// never walks holder sets to find and strip copies.
type Resolver interface {
	// Exists reports whether the named object is currently live.
	Exists(objType ObjectType, objectID uint64) bool

	// Generation returns the object's current generation. Callers must
	// only invoke this after confirming Exists.
	Generation(objType ObjectType, objectID uint64) uint32

	// BumpGeneration increments and returns the object's generation,
	// invalidating every outstanding capability that named the prior
	// value. Called only from Revoke.
	BumpGeneration(objType ObjectType, objectID uint64) uint32
}
