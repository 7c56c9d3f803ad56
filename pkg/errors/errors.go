// Package errors defines the failure taxonomy of a family search.
package errors

import (
	"errors"
	"fmt"

	"github.com/umafamily/affinity/pkg/types"
)

var (
	// ErrConfiguration is returned when the run cannot start, for example because
	// the focal character is not among the loaded characters.
	ErrConfiguration = errors.New("configuration error")

	// ErrDataIntegrity is returned when a loaded record is malformed or references
	// a relation type that no rule declares.
	ErrDataIntegrity = errors.New("data integrity error")

	// ErrWorkerFailure is returned when a unit of work fails. The whole search is
	// aborted and no partial results are returned.
	ErrWorkerFailure = errors.New("worker failure")
)

// WorkerError reports which retained parent pair failed and why.
type WorkerError struct {
	Pair  types.Pair
	Cause error
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("%s: parent pair %s: %v", ErrWorkerFailure, e.Pair, e.Cause)
}

func (e *WorkerError) Unwrap() []error {
	return []error{ErrWorkerFailure, e.Cause}
}

// Configurationf wraps ErrConfiguration with a formatted detail message.
func Configurationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// DataIntegrityf wraps ErrDataIntegrity with a formatted detail message.
func DataIntegrityf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDataIntegrity, fmt.Sprintf(format, args...))
}
