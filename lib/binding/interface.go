package binding

import (
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// IConnection is the part of the connection manager the record store depends on.
// It is implemented by *conn.Manager.
type IConnection interface {
	// EnsureConnected connects if there is no live handle, it is a no-op otherwise
	EnsureConnected() (err error)
	// Invalidate tears down the current handle, the next EnsureConnected dials again
	Invalidate()
	// Shutdown releases the handle for good
	Shutdown()
	// Get reads the value of a key from the live handle
	Get(key string) (value []byte, loaded bool, err error)
	// Set writes the value of a key to the live handle
	Set(key string, value []byte) (err error)
}

// --------------------------------------------------------------------------
// Outcomes
// --------------------------------------------------------------------------

// Status is the outcome of a record operation as reported to the benchmark harness
type Status uint8

const (
	StatusOK             Status = iota // 0: Operation succeeded.
	StatusNotFound                     // 1: Read found no value for the key.
	StatusNotImplemented               // 2: Operation is not supported by the binding (not an error).
	StatusError                        // 3: Operation failed.
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusNotFound:
		return "NOT_FOUND"
	case StatusNotImplemented:
		return "NOT_IMPLEMENTED"
	case StatusError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// StatusOf maps the error returned by a RecordStore operation to its Status
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, ErrNotImplemented):
		return StatusNotImplemented
	case errors.Is(err, ErrNotFound):
		return StatusNotFound
	default:
		return StatusError
	}
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

var (
	// ErrNotFound is wrapped by a read error if the backend has no value for the key
	ErrNotFound = errors.New("no value for key")
	// ErrNotImplemented is returned by delete and scan. It is a declared capability gap, not a failure.
	ErrNotImplemented = errors.New("operation not implemented")
	// ErrEmptyRecord is wrapped by a write error if the record has no fields and nothing was stashed
	ErrEmptyRecord = errors.New("record has no fields and no payload is stashed")
)

// RetCode classifies an Error
type RetCode uint64

const (
	RetCReadError  RetCode = iota + 1 // 1: A read failed or found nothing (single attempt).
	RetCWriteError                    // 2: All write attempts failed.
)

// Error is the error returned by failed record operations. It wraps the last
// observed cause and can be inspected with errors.Is / errors.As.
type Error struct {
	Code     RetCode // The return code
	Key      string  // The record key
	Attempts int     // Number of backend attempts made
	Err      error   // The (last) cause
}

// Error implements the error interface.
func (e *Error) Error() string {
	errorCode := ""
	switch e.Code {
	case RetCReadError:
		errorCode = "ReadError"
	case RetCWriteError:
		errorCode = "WriteError"
	default:
		errorCode = "Unknown"
	}

	return fmt.Sprintf("RecordStoreError (code %s): key %q after %d attempt(s): %v", errorCode, e.Key, e.Attempts, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsReadError reports whether err is a read error
func IsReadError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == RetCReadError
}

// IsWriteError reports whether err is a write error
func IsWriteError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == RetCWriteError
}

func newError(code RetCode, key string, attempts int, err error) *Error {
	return &Error{
		Code:     code,
		Key:      key,
		Attempts: attempts,
		Err:      err,
	}
}
