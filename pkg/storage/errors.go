package storage

import (
	"errors"
)

var (
	// ErrNotFound is returned when a requested record source does not exist.
	ErrNotFound = errors.New("not found")

	// ErrReadOnly is returned by writers backed by a source that cannot be
	// written, such as a remote URL.
	ErrReadOnly = errors.New("datastore is read only")
)
