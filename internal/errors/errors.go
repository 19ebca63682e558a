package errors

import (
	"errors"
	"fmt"
)

// Common error types shared by the client pipeline and the development API
var (
	// Session errors
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNoRefreshToken   = errors.New("no refresh token")
	ErrSessionExpired   = errors.New("session expired")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")

	// Token errors
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// Request errors
	ErrInvalidRequest = errors.New("invalid request")
	ErrInvalidURL     = errors.New("invalid url")

	// Storage errors
	ErrUnknownBackend = errors.New("unknown storage backend")

	// General errors
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New returns an error with the given text
func New(text string) error {
	return errors.New(text)
}

// Join returns an error wrapping every non-nil error, or nil when there are none
func Join(errs ...error) error {
	return errors.Join(errs...)
}
