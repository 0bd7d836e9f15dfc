// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrStorage indicates a fault in the underlying persistence layer
	// (I/O error, corruption, locked database). Absence of data is never
	// reported through this sentinel; empty results are a valid state.
	ErrStorage = errors.New("storage failure")

	// ErrRemote indicates the remote fetch collaborator failed or the
	// circuit breaker refused the call.
	ErrRemote = errors.New("remote fetch failure")
)

// Storage wraps a persistence fault so callers can detect it with
// errors.Is(err, ErrStorage) while keeping the driver error in the chain.
func Storage(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(ErrStorage, err))
}

// Remote wraps a collaborator fault analogously to Storage.
func Remote(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(ErrRemote, err))
}
