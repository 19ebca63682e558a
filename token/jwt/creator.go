package jwt

import (
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-admin-client/internal/config"
	"github.com/jrsteele09/go-admin-client/users"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Issuer is the iss claim of every access token the development API creates.
const Issuer = "go-admin-client"

// Claims are the claims carried by an access token.
type Claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwtlib.RegisteredClaims
}

// Creator handles access token creation
type Creator struct {
	secret []byte
	expiry time.Duration
}

// NewCreator creates a new JWT creator signing with HS256
func NewCreator(cfg config.TokenConfig) *Creator {
	return &Creator{
		secret: []byte(cfg.GetTokenSecret()),
		expiry: cfg.GetAccessTokenExpiry(),
	}
}

// CreateAccessToken creates a bearer access token for user
func (c *Creator) CreateAccessToken(user *users.User) (*string, error) {
	now := NowTimeFunc()
	claims := Claims{
		Email: user.Email,
		Name:  user.Name,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    Issuer,                                   // The issuer of the token
			Subject:   user.ID,                                  // The user the token was issued to
			IssuedAt:  jwtlib.NewNumericDate(now),               // Issued At: the time at which the token was issued
			ExpiresAt: jwtlib.NewNumericDate(now.Add(c.expiry)), // Expiry: when the token will expire
			ID:        uuid.New().String(),                      // Unique token ID
		},
	}

	signedToken, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign JWT token: %w", err)
	}
	return &signedToken, nil
}
