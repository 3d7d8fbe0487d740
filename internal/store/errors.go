package store

import "github.com/cockroachdb/errors"

// ErrNotFound is returned when a row addressed by id does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a row changed or is claimed for execution after the caller read it.
var ErrConflict = errors.New("conflict")
