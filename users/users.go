package users

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-admin-client/apimodel"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	ID           string    `json:"id,omitempty"`          // Unique identifier for the user
	Email        string    `json:"email,omitempty"`       // User's email address, used to sign in
	Name         string    `json:"name,omitempty"`        // Display name
	PasswordHash string    `json:"-"`                     // Hashed version of the user's password - never serialize
	DateJoined   time.Time `json:"date_joined,omitempty"` // Date and time when the user was created
	UpdatedAt    time.Time `json:"updated_at,omitempty"`  // Last change to the profile
}

// NewUser creates a user with a fresh id and a bcrypt hash of password.
func NewUser(email, name, password string) (*User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("[users NewUser] hash password: %w", err)
	}
	now := NowTimeFunc().UTC()
	return &User{
		ID:           uuid.New().String(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Name:         name,
		PasswordHash: hash,
		DateJoined:   now,
		UpdatedAt:    now,
	}, nil
}

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Response is the profile as returned by GET /me.
func (u *User) Response() apimodel.UserResponse {
	return apimodel.UserResponse{
		UUID:      u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.DateJoined.Format(time.RFC3339),
		UpdatedAt: u.UpdatedAt.Format(time.RFC3339),
	}
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CheckPassword compares password with the user's stored hash
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.PasswordHash)
}
