package syscall

// legacyAliases maps a small set of pre-canonicalization numbers, carried
// over from an earlier ABI revision, to the canonical Number a dispatcher
// should actually run. Boot code that still issues the old numbers (e.g.
// an init binary built against the prior ABI) keeps working unmodified.
var legacyAliases = map[uint32]Number{
	1: ThreadCreate,
	2: ThreadExit,
	3: Send,
	4: Receive,
	5: CapDerive,
	6: CapRevoke,
}

// Normalize resolves a raw, possibly legacy syscall number to its
// canonical Number. Numbers with no legacy entry pass through unchanged.
func Normalize(raw uint32) Number {
	if canon, ok := legacyAliases[raw]; ok {
		return canon
	}
	return Number(raw)
}
