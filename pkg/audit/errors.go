package audit

import (
	"errors"
	"fmt"
)

// ErrClosed is returned when recording after Close.
var ErrClosed = errors.New("audit recorder closed")

// ErrBufferFull is returned when a record is dropped because the recorder
// buffer is full.
var ErrBufferFull = errors.New("audit buffer full")

// ErrInvalidQuery is returned for queries a backend cannot run.
var ErrInvalidQuery = errors.New("invalid audit query")

// StorageError is an error from a storage backend.
type StorageError struct {
	Backend   string // "memory", "sqlite", "sqlite3", "postgres"
	Operation string // "open", "store", "query", ...
	Cause     error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("audit storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError returns a StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{Backend: backend, Operation: operation, Cause: cause}
}

// ExportError is an error writing records in an export format.
type ExportError struct {
	Format string
	Count  int
	Cause  error
}

// Error implements the error interface.
func (e *ExportError) Error() string {
	return fmt.Sprintf("audit export error [format=%s, records=%d]: %v", e.Format, e.Count, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *ExportError) Unwrap() error {
	return e.Cause
}
