package domain

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrDuplicateEmail     = errors.New("email already exists")
	ErrDuplicatePhone     = errors.New("phone number already exists")
	ErrInvalidToken       = errors.New("invalid token")
	ErrCodeMismatch       = errors.New("invalid activation code")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not found")
)

// UnauthorizedError is returned by the request guard. Reason is safe to show
// to clients; Err keeps the underlying cause for logging and errors.Is.
type UnauthorizedError struct {
	Reason string
	Err    error
}

func NewUnauthorized(reason string, cause error) *UnauthorizedError {
	return &UnauthorizedError{Reason: reason, Err: cause}
}

func (e *UnauthorizedError) Error() string { return e.Reason }

func (e *UnauthorizedError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUnauthorized}
	}
	return []error{ErrUnauthorized, e.Err}
}
