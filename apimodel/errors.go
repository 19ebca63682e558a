package apimodel

import "errors"

var (
	ErrInvalidEmail    = errors.New("email must be a valid address of 3 to 255 characters")
	ErrInvalidPassword = errors.New("password must be 8 to 64 characters")
)

// ErrorResponse is the error body shape returned by every endpoint.
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// String prefers the human readable message and falls back to the error code.
func (e *ErrorResponse) String() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}
