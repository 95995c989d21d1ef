package kernel

import "github.com/cypher-asi/zero-os-sub001/internal/thread"

func readyState() thread.State {
	return thread.State{Kind: thread.Ready}
}

func blockedState(reason string) thread.State {
	return thread.State{Kind: thread.Blocked, BlockReason: reason}
}
