package service

import (
	"errors"
)

// Business-rule errors. These are terminal for the attempted operation and
// surfaced to the acting user verbatim; they are never retried server-side.
// Transport-level failures propagate as plain errors and stay retryable at
// the caller's discretion.
var (
	// ErrInvalidReference means a configuration references an indicator
	// type or emission post id that does not resolve against the catalog.
	ErrInvalidReference = errors.New("configuration references an unknown id")

	// ErrDuplicatePeriod means a saisie already exists for the
	// (site, month, year) natural key.
	ErrDuplicatePeriod = errors.New("a saisie already exists for this period")

	// ErrEmptyValues means a submission carried zero indicator values.
	ErrEmptyValues = errors.New("saisie must contain at least one value")

	// ErrNotFound means the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput means the request failed field-level validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidCredentials means login failed. Deliberately indistinct
	// about whether the account or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")
)
