// Package errors defines the sentinel errors and the wrapping AppError type
// shared across the forward-index build pipeline, mapping the error kinds of
// spec.md section 7 onto a small, consistent taxonomy.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig covers missing/malformed configuration keys, mismatched
	// libsvm pairing, and a missing corpus descriptor (spec.md 7.1).
	ErrConfig = errors.New("configuration error")
	// ErrIO covers open/read/write/rename failures during construction
	// (spec.md 7.2).
	ErrIO = errors.New("i/o error")
	// ErrInvalidDocID is returned by search_primary for a doc_id that is
	// out of range (spec.md 7.3).
	ErrInvalidDocID = errors.New("invalid doc id")
	// ErrIndexNotValid is returned by Load when the commit marker or a
	// required file is missing (spec.md 3, "Lifecycles").
	ErrIndexNotValid = errors.New("forward index is not valid")
	// ErrInvariant marks a violated internal invariant (spec.md 7.5). No
	// code path returns or panics with it, and the orchestrator installs no
	// recover; it is not part of the normal error-return contract.
	ErrInvariant = errors.New("invariant violation")
)

// ErrLibsvmMismatch is a specialization of ErrConfig for the libsvm
// analyzer/corpus pairing rule (spec.md 4.7).
var ErrLibsvmMismatch = fmt.Errorf("%w: libsvm analyzer requires a libsvm corpus, and vice versa", ErrConfig)

// AppError wraps a sentinel error with a human-readable message while
// remaining unwrappable via errors.Is/errors.As.
type AppError struct {
	Err     error
	Message string
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New wraps sentinel with a static message.
func New(sentinel error, message string) *AppError {
	return &AppError{Err: sentinel, Message: message}
}

// Newf wraps sentinel with a formatted message.
func Newf(sentinel error, format string, args ...any) *AppError {
	return &AppError{Err: sentinel, Message: fmt.Sprintf(format, args...)}
}
