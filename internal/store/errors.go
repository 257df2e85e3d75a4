package store

import (
	"errors"

	"github.com/lib/pq"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

const uniqueViolation = "23505"

// ConflictError reports a uniqueness violation. Detail carries the database's
// description of the conflicting key.
type ConflictError struct {
	Constraint string
	Detail     string
	Err        error
}

func (e *ConflictError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return "unique constraint violation"
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

// classify converts driver-level uniqueness violations into *ConflictError and
// leaves every other error untouched.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return &ConflictError{Constraint: pqErr.Constraint, Detail: pqErr.Detail, Err: err}
	}
	return err
}
