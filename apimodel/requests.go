package apimodel

import (
	"net/mail"
	"strings"
)

// SignIn is the body of POST /sign-in.
type SignIn struct {
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
}

// Validate applies the same limits the backend enforces so obviously bad input
// never leaves the client.
func (s SignIn) Validate() error {
	email := strings.TrimSpace(s.Email)
	if len(email) < 3 || len(email) > 255 {
		return ErrInvalidEmail
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmail
	}
	if len(s.Password) < 8 || len(s.Password) > 64 {
		return ErrInvalidPassword
	}
	return nil
}

// RefreshTokenRequest is the body of POST /refresh.
type RefreshTokenRequest struct {
	Token string `json:"token,omitempty"`
}
