// Package invariant audits live kernel state against the consistency
// properties I2-I7 (there is no I1 check). Audits are read-only and return findings
// rather than panicking, so test code asserts on them with
// github.com/stretchr/testify/assert instead of treating a violation as
// a fatal error -- the whole point of an audit is to surface a bug
// without crashing the process running it.
package invariant

import "fmt"

// Violation is one audit finding.
type Violation struct {
	Invariant string // "I2".."I7"
	Detail    string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Invariant, v.Detail)
}

func violation(inv, format string, args ...interface{}) Violation {
	return Violation{Invariant: inv, Detail: fmt.Sprintf(format, args...)}
}
