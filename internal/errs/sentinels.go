// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service/transport layers.
var (
	// ErrValidation indicates missing or malformed input.
	ErrValidation = errors.New("validation")

	// ErrInvalidCredentials indicates a wrong password or unknown login identifier.
	// Login and password change report it as a client error, not as 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthorized indicates a missing, invalid, expired or revoked token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the caller is authenticated but does not own the resource.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., username taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrInternal marks store or signing failures that must surface as 500
	// even when the wrapped cause is one of the sentinels above.
	ErrInternal = errors.New("internal")
)

// Validation wraps ErrValidation with a client-facing message.
func Validation(msg string) error {
	return &detailed{kind: ErrValidation, msg: msg}
}

// NotFound wraps ErrNotFound with a client-facing message.
func NotFound(msg string) error {
	return &detailed{kind: ErrNotFound, msg: msg}
}

// Forbidden wraps ErrForbidden with a client-facing message.
func Forbidden(msg string) error {
	return &detailed{kind: ErrForbidden, msg: msg}
}

// Conflict wraps ErrAlreadyExists with a client-facing message.
func Conflict(msg string) error {
	return &detailed{kind: ErrAlreadyExists, msg: msg}
}

// Unauthorized wraps ErrUnauthorized with a client-facing message.
func Unauthorized(msg string) error {
	return &detailed{kind: ErrUnauthorized, msg: msg}
}

// InvalidCredentials wraps ErrInvalidCredentials with a client-facing message.
func InvalidCredentials(msg string) error {
	return &detailed{kind: ErrInvalidCredentials, msg: msg}
}

// detailed carries a message safe to show to API clients.
type detailed struct {
	kind error
	msg  string
}

func (e *detailed) Error() string { return e.kind.Error() + ": " + e.msg }
func (e *detailed) Unwrap() error { return e.kind }

// Message returns the client-facing message if err carries one.
func Message(err error) (string, bool) {
	var d *detailed
	if errors.As(err, &d) {
		return d.msg, true
	}
	return "", false
}
