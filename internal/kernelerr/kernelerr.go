// Package kernelerr defines the structured error classes a syscall handler
// may return and maps them to the small-integer ABI codes every caller
// sees. Handlers build errors with github.com/pkg/errors so a Fatal
// kernel-invariant violation retains a stack trace for postmortem,
// following the same convention used for errors that cross an API
// boundary.
package kernelerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Class groups a kernelerr.Error by its broad failure taxonomy.
type Class int

const (
	_ Class = iota
	Authority
	Argument
	Resource
	Existence
	Unavailable
)

// Reason is one specific kernel error condition. Each maps to exactly one
// ABI code via Code().
type Reason int

const (
	_ Reason = iota
	InvalidSlot
	WrongType
	InsufficientPermissions
	Expired
	Revoked
	ObjectNotFound
	BadArgument
	Overflow
	QueueFull
	AllocationRefused
	ResourceLocked
	AlreadyExists
	NotSupported
)

var classOf = map[Reason]Class{
	InvalidSlot:             Authority,
	WrongType:               Authority,
	InsufficientPermissions: Authority,
	Expired:                 Authority,
	Revoked:                 Authority,
	ObjectNotFound:          Existence,
	BadArgument:             Argument,
	Overflow:                Argument,
	QueueFull:               Resource,
	AllocationRefused:       Resource,
	ResourceLocked:          Resource,
	AlreadyExists:           Existence,
	NotSupported:            Unavailable,
}

// ABI error codes returned across the syscall boundary.
const (
	OK = iota
	EPERM
	ENOENT
	EINVAL
	ENOSYS
	EAGAIN
	ENOMEM
	EBADF
	EBUSY
	EEXIST
	EOVERFLOW
)

var abiCode = map[Reason]int{
	InvalidSlot:             EBADF,
	WrongType:               EPERM,
	InsufficientPermissions: EPERM,
	Expired:                 EPERM,
	Revoked:                 EPERM,
	ObjectNotFound:          ENOENT,
	BadArgument:             EINVAL,
	Overflow:                EOVERFLOW,
	// QueueFull is a resource failure classified alongside ENOMEM as
	// retry-after-drain, the textbook EAGAIN case, rather than EBUSY.
	QueueFull:         EAGAIN,
	AllocationRefused: ENOMEM,
	ResourceLocked:    EBUSY,
	AlreadyExists:     EEXIST,
	NotSupported:      ENOSYS,
}

// Error is the structured error every syscall handler returns on failure.
// Handlers never mutate state before returning one: failure leaves every
// table exactly as it was.
type Error struct {
	Reason  Reason
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("kernelerr: reason %d", e.Reason)
}

func (e *Error) Cause() error { return e.cause }

// Class returns the taxonomy class for this error's reason.
func (e *Error) Class() Class { return classOf[e.Reason] }

// Code maps an error to its small-integer ABI code. A nil error maps to
// OK.
func Code(err error) int {
	if err == nil {
		return OK
	}
	var ke *Error
	if e, ok := errors.Cause(err).(*Error); ok {
		ke = e
	} else if e, ok := err.(*Error); ok {
		ke = e
	} else {
		return EINVAL
	}
	if code, ok := abiCode[ke.Reason]; ok {
		return code
	}
	return EINVAL
}

// New builds a kernelerr.Error with a stack trace attached via pkg/errors.
func New(reason Reason, format string, args ...interface{}) *Error {
	msg := fmt.Sprintf(format, args...)
	return &Error{Reason: reason, Message: msg, cause: errors.New(msg)}
}

// Wrap attaches a kernelerr.Reason to a lower-level cause, preserving its
// stack trace via pkg/errors.Wrap.
func Wrap(cause error, reason Reason, format string, args ...interface{}) *Error {
	msg := fmt.Sprintf(format, args...)
	return &Error{Reason: reason, Message: msg, cause: errors.Wrap(cause, msg)}
}
