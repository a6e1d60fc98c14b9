package backend

import (
	"fmt"
)

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess              RetCode = iota // 0: Operation executed successfully.
	RetCStorageAccess                       // 1: The underlying file, table or server could not be accessed.
	RetCMalformedRecord                     // 2: A persisted entry could not be decoded.
	RetCUnsupportedOperation                // 3: Operation is not supported by the backend.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCStorageAccess:
		return "StorageAccess"
	case RetCMalformedRecord:
		return "MalformedRecord"
	case RetCUnsupportedOperation:
		return "UnsupportedOperation"
	default:
		return "Unknown"
	}
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is returned by backends for every failed operation.
// Use errors.Is with ErrStorageAccess, ErrMalformedRecord or ErrUnsupported to
// test for a kind of failure.
type Error struct {
	Code    RetCode        // The return code
	Backend Implementation // The backend that failed
	Op      string         // The operation, e.g. "read" or "write"
	Err     error          // The underlying cause, may be nil
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("settings backend error (code %s)", e.Code)
	if e.Backend != "" {
		msg += fmt.Sprintf(" [%s %s]", e.Backend, e.Op)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrStorageAccess   = &Error{Code: RetCStorageAccess}
	ErrMalformedRecord = &Error{Code: RetCMalformedRecord}
	ErrUnsupported     = &Error{Code: RetCUnsupportedOperation}
)

// NewError creates a new backend error.
func NewError(code RetCode, impl Implementation, op string, err error) *Error {
	return &Error{
		Code:    code,
		Backend: impl,
		Op:      op,
		Err:     err,
	}
}

// StorageError wraps err as a storage access failure of op.
func StorageError(impl Implementation, op string, err error) *Error {
	return NewError(RetCStorageAccess, impl, op, err)
}

// MalformedError reports an entry that could not be decoded.
func MalformedError(impl Implementation, op string, format string, args ...any) *Error {
	return NewError(RetCMalformedRecord, impl, op, fmt.Errorf(format, args...))
}
