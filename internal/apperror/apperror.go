// Package apperror defines the error taxonomy shared by the store, the
// services and the HTTP layer.
//
// Every domain failure is an *AppError wrapping one of the sentinels below.
// Callers discriminate with errors.Is, never by comparing messages:
//
//	if errors.Is(err, apperror.ErrDuplicateEmail) { ... }
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation error")
	ErrConflict           = errors.New("conflict")
	ErrForbidden          = errors.New("forbidden")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrDuplicateEmail is a conflict, so errors.Is(err, ErrConflict) also holds.
	ErrDuplicateEmail = fmt.Errorf("duplicate email: %w", ErrConflict)
)

type AppError struct {
	Err     error  // sentinel, see above
	Message string // safe to show to the caller
	Field   string // optional: input field that caused the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// DuplicateEmail reports a registration for an email that already has an
// account. The email itself is not echoed back.
func DuplicateEmail() *AppError {
	return &AppError{
		Err:     ErrDuplicateEmail,
		Message: "an account with this email already exists",
		Field:   "email",
	}
}

// InvalidCredentials is returned for every failed login, whatever the cause.
// It deliberately carries no field and no detail.
func InvalidCredentials() *AppError {
	return &AppError{
		Err:     ErrInvalidCredentials,
		Message: "invalid email or password",
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized means no authenticated identity was supplied at all.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}
