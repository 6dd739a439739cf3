package store

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message. An optional cause is kept for unwrapping.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.

	cause error
}

// Error implements the error interface. It returns the message unchanged since the
// message is sent to clients as is.
func (e *Error) Error() string {
	return e.Msg
}

// Unwrap returns the underlying cause of the error (may be nil).
func (e *Error) Unwrap() error {
	return e.cause
}

// NewError creates a new Error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// ErrNotFound is returned when a single key lookup misses.
func ErrNotFound(table, key string) *Error {
	return NewError(RetCNotFound, fmt.Sprintf("Not found for table: %s, key: %s", table, key))
}

// ErrInvalidCommand is returned for requests that can not be interpreted.
func ErrInvalidCommand(reason string) *Error {
	return NewError(RetCInvalidCommand, fmt.Sprintf("Cannot parse command: `%s`", reason))
}

// ErrConversion is returned when a stored value can not be converted back into a Value.
func ErrConversion(cause error, format string, args ...any) *Error {
	return &Error{
		Code:  RetCConversion,
		Msg:   fmt.Sprintf("Cannot convert value: %s", fmt.Sprintf(format, args...)),
		cause: cause,
	}
}

// ErrBackend wraps a failure of the underlying storage engine.
func ErrBackend(cause error, op, table, key string) *Error {
	msg := fmt.Sprintf("Storage error during %s on table: %s", op, table)
	if key != "" {
		msg += ", key: " + key
	}
	if cause != nil {
		msg += ": " + cause.Error()
	}
	return &Error{
		Code:  RetCBackend,
		Msg:   msg,
		cause: cause,
	}
}

// ErrInternal is returned for everything else.
func ErrInternal(msg string) *Error {
	return NewError(RetCInternal, msg)
}

// CodeOf returns the return code carried by err.
// nil maps to RetCSuccess, errors that do not wrap an *Error map to RetCInternal.
func CodeOf(err error) RetCode {
	if err == nil {
		return RetCSuccess
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return RetCInternal
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess        RetCode = iota // 0: Command executed successfully.
	RetCNotFound                      // 1: Requested key does not exist.
	RetCInvalidCommand                // 2: Request could not be interpreted.
	RetCConversion                    // 3: Stored data could not be converted into a value.
	RetCBackend                       // 4: The storage engine failed.
	RetCInternal                      // 5: Any other failure.
)

// String returns the name of the return code.
func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCNotFound:
		return "NotFound"
	case RetCInvalidCommand:
		return "InvalidCommand"
	case RetCConversion:
		return "Conversion"
	case RetCBackend:
		return "Backend"
	case RetCInternal:
		return "Internal"
	default:
		return "Unknown"
	}
}
