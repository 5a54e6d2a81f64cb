// Package warp structured error types for better error handling
package warp

import (
	"fmt"
)

// Kind represents categories of errors
type Kind int

const (
	// Bad device index or device unavailable
	KindDevice Kind = iota
	// Device memory allocation failure
	KindOutOfMemory
	// Host/device byte-length mismatch on transfer
	KindSizeMismatch
	// Malformed rank, size or stride descriptor
	KindInvalidArgument
	// Elapsed-time query with events not in stream order
	KindInvalidEventOrder
	// Underlying compute status surfaced from an enqueued launch
	KindLaunch
)

// Status is the closed set of compute-level result codes. Launches report
// success or failure through a Status; anything other than StatusSuccess is
// carried on the resulting Error as diagnostic payload.
type Status int32

const (
	StatusSuccess       Status = 0
	StatusInvalidValue  Status = 1
	StatusOutOfMemory   Status = 2
	StatusNoDevice      Status = 100
	StatusInvalidHandle Status = 400
	StatusLaunchFailed  Status = 719
)

// String returns the status as a string
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusInvalidValue:
		return "INVALID_VALUE"
	case StatusOutOfMemory:
		return "OUT_OF_MEMORY"
	case StatusNoDevice:
		return "NO_DEVICE"
	case StatusInvalidHandle:
		return "INVALID_HANDLE"
	case StatusLaunchFailed:
		return "LAUNCH_FAILED"
	default:
		return fmt.Sprintf("STATUS(%d)", int32(s))
	}
}

// Error represents a structured error with context
type Error struct {
	Kind    Kind
	Op      string // Operation that failed
	Message string // Human-readable message
	Code    Status // Compute status code, zero when not launch-related
	Err     error  // Underlying error if any
}

// Error implements the error interface
func (e *Error) Error() string {
	switch {
	case e.Kind == KindLaunch && e.Err != nil:
		return fmt.Sprintf("warp %s error in %s: %s [%s] (caused by: %v)",
			e.Kind.String(), e.Op, e.Message, e.Code, e.Err)
	case e.Kind == KindLaunch:
		return fmt.Sprintf("warp %s error in %s: %s [%s]",
			e.Kind.String(), e.Op, e.Message, e.Code)
	case e.Err != nil:
		return fmt.Sprintf("warp %s error in %s: %s (caused by: %v)",
			e.Kind.String(), e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("warp %s error in %s: %s", e.Kind.String(), e.Op, e.Message)
}

// Unwrap allows error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// String returns the error kind as a string
func (k Kind) String() string {
	switch k {
	case KindDevice:
		return "Device"
	case KindOutOfMemory:
		return "OutOfMemory"
	case KindSizeMismatch:
		return "SizeMismatch"
	case KindInvalidArgument:
		return "Invalid"
	case KindInvalidEventOrder:
		return "InvalidEventOrder"
	case KindLaunch:
		return "Launch"
	default:
		return "Unknown"
	}
}

// Common error constructors

func newDeviceError(op, message string) error {
	return &Error{Kind: KindDevice, Op: op, Message: message}
}

func newOutOfMemoryError(op, message string, err error) error {
	return &Error{Kind: KindOutOfMemory, Op: op, Message: message, Err: err}
}

func newSizeMismatchError(op string, want, got int) error {
	return &Error{
		Kind:    KindSizeMismatch,
		Op:      op,
		Message: fmt.Sprintf("buffer is %d bytes, host slice is %d bytes", want, got),
	}
}

func newInvalidArgError(op, message string) error {
	return &Error{Kind: KindInvalidArgument, Op: op, Message: message}
}

func newEventOrderError(op, message string) error {
	return &Error{Kind: KindInvalidEventOrder, Op: op, Message: message}
}

func newLaunchError(op string, code Status, message string, err error) error {
	return &Error{Kind: KindLaunch, Op: op, Message: message, Code: code, Err: err}
}

// Common pre-defined errors

var (
	// ErrDoubleFree indicates a buffer was freed twice
	ErrDoubleFree = &Error{Kind: KindInvalidArgument, Op: "Free", Message: "double free detected"}

	// ErrBufferFreed indicates use of a buffer after free
	ErrBufferFreed = &Error{Kind: KindInvalidArgument, Op: "Buffer", Message: "buffer already freed"}

	// ErrStreamClosed indicates work issued on a closed stream
	ErrStreamClosed = &Error{Kind: KindInvalidArgument, Op: "Stream", Message: "stream is closed"}
)

// KindOf reports the kind of a warp error, or -1 for foreign errors.
func KindOf(err error) Kind {
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return Kind(-1)
}

// IsDeviceError checks if an error is a device error
func IsDeviceError(err error) bool {
	return KindOf(err) == KindDevice
}

// IsOutOfMemory checks if an error is an allocation failure
func IsOutOfMemory(err error) bool {
	return KindOf(err) == KindOutOfMemory
}

// IsSizeMismatch checks if an error is a transfer length mismatch
func IsSizeMismatch(err error) bool {
	return KindOf(err) == KindSizeMismatch
}

// IsInvalidArgError checks if an error is an invalid argument error
func IsInvalidArgError(err error) bool {
	return KindOf(err) == KindInvalidArgument
}

// IsEventOrderError checks if an error is an event ordering error
func IsEventOrderError(err error) bool {
	return KindOf(err) == KindInvalidEventOrder
}

// IsLaunchError checks if an error carries a compute status code
func IsLaunchError(err error) bool {
	return KindOf(err) == KindLaunch
}
