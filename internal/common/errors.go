// Package common defines shared constants and sentinel errors used across
// the taskkeeper server layers. Callers should use errors.Is to match these
// values.
package common

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Auth gate failures. All of them wrap ErrorUnauthorized so the transport
	// layer can reject them uniformly.
	ErrInvalidToken = fmt.Errorf("%w: invalid token", ErrorUnauthorized)
	ErrUnknownUser  = fmt.Errorf("%w: unknown user", ErrorUnauthorized)
	ErrRevokedToken = fmt.Errorf("%w: revoked token", ErrorUnauthorized)

	// Login failure. Deliberately says nothing about which part was wrong.
	ErrAuthFailure = errors.New("unable to login")

	// Input errors.
	ErrValidation          = errors.New("validation error")
	ErrInvalidUpdateFields = errors.New("invalid updates")
	ErrEmailTaken          = fmt.Errorf("%w: email is already in use", ErrValidation)

	// Avatar upload errors.
	ErrUnsupportedImageType = errors.New("please upload a JPEG, JPG or PNG image")
	ErrImageTooLarge        = errors.New("file too large")
)

// NewValidationError wraps ErrValidation with the list of violated constraints.
func NewValidationError(violations ...string) error {
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(violations, "; "))
}
