package repository

import "errors"

var (
	// ErrConflict is returned by ParamsStore.Put when the optimistic
	// concurrency check fails. Callers retry the learning update once,
	// then surface the error.
	ErrConflict = errors.New("concurrent parameter update conflict")

	// ErrNotFound is returned when a keyed record does not exist.
	ErrNotFound = errors.New("record not found")
)
