package errors

import (
	"errors"
	"fmt"
)

// StorageError wraps a failure of the durable store. It is never swallowed:
// losing a write silently would break the "broadcast implies stored" contract.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

// IsStorageError reports whether err is (or wraps) a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

var ErrRecordNotFound = errors.New("record not found")
