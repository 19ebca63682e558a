package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-admin-client/internal/config"
	apperrors "github.com/jrsteele09/go-admin-client/internal/errors"
)

// ErrNotJWT is returned by Inspect for tokens that are not JWTs, such as opaque
// bearer strings.
var ErrNotJWT = errors.New("token is not a JWT")

// Inspector validates access tokens signed by a Creator with the same secret
type Inspector struct {
	secret []byte
}

// NewInspector creates a new JWT inspector
func NewInspector(cfg config.TokenConfig) *Inspector {
	return &Inspector{secret: []byte(cfg.GetTokenSecret())}
}

// Validate verifies the signature, issuer and expiry of rawToken and returns its
// claims. An expired token yields ErrTokenExpired, anything else ErrInvalidToken.
func (i *Inspector) Validate(rawToken string) (*Claims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, apperrors.ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwtlib.ParseWithClaims(rawToken, claims, i.verificationKey,
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithIssuer(Issuer),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(NowTimeFunc),
	)
	switch {
	case errors.Is(err, jwtlib.ErrTokenExpired):
		return nil, apperrors.ErrTokenExpired
	case err != nil || !token.Valid:
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidToken, err)
	}
	return claims, nil
}

func (i *Inspector) verificationKey(*jwtlib.Token) (any, error) {
	return i.secret, nil
}

// Inspect parses rawToken WITHOUT verifying it. It is only fit for showing what a
// token claims, never for trusting it.
func Inspect(rawToken string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwtlib.NewParser().ParseUnverified(rawToken, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotJWT, err)
	}
	return claims, nil
}

// Expiry returns the exp claim, zero when absent.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// Expired reports whether the token is past its exp claim at now.
func (c *Claims) Expired(now time.Time) bool {
	exp := c.Expiry()
	return !exp.IsZero() && !now.Before(exp)
}
