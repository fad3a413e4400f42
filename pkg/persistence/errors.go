package persistence

import (
	"errors"
	"fmt"
)

// ErrKeyNotFound indicates no record exists under the requested key.
var ErrKeyNotFound = errors.New("key not found")

// StoreError wraps storage failures with the operation and key involved.
type StoreError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s failed for key %q: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewStoreError creates a storage error with context.
func NewStoreError(op, key string, err error) *StoreError {
	return &StoreError{Op: op, Key: key, Err: err}
}

// IsKeyNotFound checks whether an error indicates a missing record.
func IsKeyNotFound(err error) bool {
	return errors.Is(err, ErrKeyNotFound)
}
