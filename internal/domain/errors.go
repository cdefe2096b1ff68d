package domain

import "errors"

var (
	// ErrValidation is returned for missing or malformed input.
	ErrValidation = errors.New("invalid input")
	// ErrQuizNotFound indicates the referenced quiz record is absent.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrForbidden is returned when the requester does not own the quiz.
	ErrForbidden = errors.New("forbidden")
	// ErrUserNotFound indicates no account matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned on signup when the email is registered.
	ErrEmailTaken = errors.New("email taken")
	// ErrInvalidCredentials covers bad email/password and bad tokens.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnavailable marks a transient store failure; the whole operation
	// may be retried safely. Permanent store errors propagate as-is.
	ErrUnavailable = errors.New("store unavailable")
)
