package refresh

import (
	"context"
	"time"
)

// StoredRefreshToken represents the server-side storage of refresh token metadata.
// The client only receives the Token field (a UUID). All other fields are
// server-side metadata used for validation and token rotation.
type StoredRefreshToken struct {
	Token     string    `json:"token"`      // The UUID sent to the client
	UserID    string    `json:"user_id"`    // Server-side metadata
	Iat       time.Time `json:"iat"`        // Issued at time
	ExpiresAt time.Time `json:"expires_at"` // The token is rejected after this time
}

// Repo manages server-side storage of refresh tokens keyed by the token string.
// Take reads and deletes in one step so a token can only ever be used once.
type Repo interface {
	Upsert(ctx context.Context, refreshToken *StoredRefreshToken) error
	Take(ctx context.Context, token string) (*StoredRefreshToken, error)
	Delete(ctx context.Context, token string) error
}
