package pm

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an update or delete touched no stored row.
	ErrNotFound = errors.New("record not found")

	// ErrNoSession is returned when an intent needs an open form session.
	ErrNoSession = errors.New("no form session open")

	// ErrInvalidTransition is returned when an intent is not valid in the
	// current session state.
	ErrInvalidTransition = errors.New("invalid session transition")

	// ErrBusy is returned when a submit is attempted while another is in flight.
	ErrBusy = errors.New("a submit is already in progress")

	// ErrStaleSnapshot is returned when a write was committed but the reload
	// after it failed. The write must not be retried.
	ErrStaleSnapshot = errors.New("write committed but snapshot not reloaded")

	// ErrBackupExists is returned when a backup with the same name is already
	// on the target.
	ErrBackupExists = errors.New("backup already exists")
)

// StorageError reports a failure of the persistent store. The in-memory
// snapshot is left unchanged whenever one is returned.
type StorageError struct {
	Op  string // "ensure schema", "load", "create", "update", "delete", "replace"
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsStorageError reports whether err wraps a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
