package store

import (
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// IFileStore is the interface for a flat collection of named files.
// Files are addressed by name only. Implementations do not sanitize names,
// a name containing path separators is joined onto the store root as is.
type IFileStore interface {
	// List returns the names of all files currently in the store, sorted alphabetically.
	List() (names []string, err error)
	// Read returns the full content of the named file.
	Read(name string) (data []byte, err error)
	// Write creates or replaces the named file. Readers never observe a partially written file.
	Write(name string, data []byte) (err error)
	// Root returns a description of where the files live (e.g. the directory path)
	Root() string
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode),
// a message and the underlying cause.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message
	Err  error   // The underlying error (may be nil)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new store error with the given code, message and cause.
func NewError(code RetCode, msg string, err error) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
		Err:  err,
	}
}

// CodeOf returns the RetCode of err, RetCInternalError if err is not a store error
func CodeOf(err error) RetCode {
	if err == nil {
		return RetCSuccess
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return RetCInternalError
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess       RetCode = iota // 0: Operation executed successfully.
	RetCInternalError                // 1: Operation failed due to an I/O or internal error.
	RetCNotFound                     // 2: The file does not exist.
	RetCInvalidName                  // 3: The file name cannot be used.
)
