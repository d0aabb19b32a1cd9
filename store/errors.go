package store

import (
	"fmt"
)

// ErrStorage matches every error caused by the underlying database.
var ErrStorage = &StorageError{}

// StorageError reports a failed database operation.
type StorageError struct {
	Op  string
	Err error
}

func newStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: failed to %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is makes every StorageError match ErrStorage.
func (e *StorageError) Is(target error) bool {
	_, ok := target.(*StorageError)
	return ok
}
