// Package apperr holds the error taxonomy shared by the core packages.
// Callers match with errors.Is / errors.As; the HTTP layer maps each
// sentinel to exactly one status code.
package apperr

import (
    "errors"
    "fmt"
)

var (
    // ErrValidation marks malformed, user-correctable input.  Use Invalid to
    // attach the offending field.
    ErrValidation = errors.New("validation failed")

    // ErrUnauthorized is returned when the actor lacks rights for the
    // operation.  It never says whether the target exists.
    ErrUnauthorized  = errors.New("unauthorized")
    ErrForbiddenRole = errors.New("role not allowed")

    ErrDuplicateIdentity   = errors.New("email or phone already registered")
    ErrDuplicateIdentifier = errors.New("warranty uid already exists")

    ErrResubmissionLimitExceeded = errors.New("resubmission limit reached")

    // ErrInvalidOrExpiredChallenge is deliberately identical for expired,
    // used, wrong and exhausted passcodes.
    ErrInvalidOrExpiredChallenge = errors.New("invalid or expired code")
    ErrInvalidRegistrationRole   = errors.New("invalid registration role")
    ErrChallengeRateLimited      = errors.New("please wait before requesting another code")

    ErrNotFound = errors.New("not found")

    // ErrTransactionFailure wraps the driver error of an aborted multi-table
    // write.  The write is always rolled back in full.
    ErrTransactionFailure = errors.New("transaction failed")

    ErrTerminalState     = errors.New("record is in a terminal state")
    ErrInvalidTransition = errors.New("transition not allowed from current status")
    ErrConcurrentUpdate  = errors.New("record was modified concurrently")
)

// ValidationError names the field that failed validation.
type ValidationError struct {
    Field  string
    Reason string
}

func (e *ValidationError) Error() string {
    if e.Field == "" {
        return e.Reason
    }
    return e.Field + ": " + e.Reason
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid builds a ValidationError for field.
func Invalid(field, reason string) error {
    return &ValidationError{Field: field, Reason: reason}
}

// TxFailed wraps err so that it matches both ErrTransactionFailure and the
// original cause.
func TxFailed(op string, err error) error {
    return fmt.Errorf("%s: %w: %w", op, ErrTransactionFailure, err)
}
