//go:build !native

// zk-inspect reads a bbolt-backed commit log, which only exists on the
// native build (see internal/commit/boltsink.go) -- the cooperative/WASM
// target has no filesystem to persist one to in the first place. This
// stub keeps the command buildable without the tag; it does nothing
// useful on its own.
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Fprintln(os.Stderr, "zk-inspect: built without the native tag; rebuild with -tags native")
	os.Exit(1)
}
