package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a record or slot does not exist.
	ErrNotFound = errors.New("not found")

	// ErrIDCollision is returned by Insert when the id is already stored.
	ErrIDCollision = errors.New("id already exists")
)

// Error is a storage-layer failure. Callers must not assume any part of
// the failed operation took effect.
type Error struct {
	// Op names the failed operation, such as "upsert" or "get all".
	Op string

	// Key is the record id or slot name involved, if any.
	Key string

	Err error
}

func (e *Error) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("store %s %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a missing record or slot.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func wrap(op, key string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Key: key, Err: err}
}
