package scoring

import (
	"errors"
	"fmt"
)

var ErrCriterionNotFound = errors.New("criterion not found")

// ValidationError reports malformed criterion input. It is returned to the
// caller as-is and never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// PersistenceError wraps a failure from the backing store. The engine does
// not retry or roll back; each cell write is independent.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// WrapPersistence wraps err as a PersistenceError for op, or returns nil.
func WrapPersistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}
