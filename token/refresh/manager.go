package refresh

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-admin-client/internal/config"
	"github.com/jrsteele09/go-admin-client/internal/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Manager handles refresh token creation, validation, and rotation
type Manager struct {
	repo   Repo
	expiry time.Duration
}

// NewManager creates a new refresh token manager
func NewManager(repo Repo, cfg config.TokenConfig) *Manager {
	return &Manager{
		repo:   repo,
		expiry: cfg.GetRefreshTokenExpiry(),
	}
}

// Create generates a new refresh token for userID and stores it
func (m *Manager) Create(ctx context.Context, userID string) (string, error) {
	now := NowTimeFunc()
	tokenStr := uuid.New().String()
	if err := m.repo.Upsert(ctx, &StoredRefreshToken{
		Token:     tokenStr,
		UserID:    userID,
		Iat:       now,
		ExpiresAt: now.Add(m.expiry),
	}); err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}
	return tokenStr, nil
}

// Consume validates token and removes it from storage, returning the user it was
// issued to. Unknown, reused and expired tokens yield ErrInvalidRefreshToken.
func (m *Manager) Consume(ctx context.Context, token string) (string, error) {
	if _, err := uuid.Parse(token); err != nil {
		return "", errors.ErrInvalidRefreshToken
	}

	rt, err := m.repo.Take(ctx, token)
	if errors.Is(err, errors.ErrNotFound) {
		return "", errors.ErrInvalidRefreshToken
	}
	if err != nil {
		return "", fmt.Errorf("failed to read refresh token: %w", err)
	}
	if m.IsExpired(rt) {
		return "", errors.ErrInvalidRefreshToken
	}
	return rt.UserID, nil
}

// Delete removes a refresh token from storage
func (m *Manager) Delete(ctx context.Context, token string) error {
	return m.repo.Delete(ctx, token)
}

// IsExpired checks if a refresh token is past its expiry
func (m *Manager) IsExpired(rt *StoredRefreshToken) bool {
	return !NowTimeFunc().Before(rt.ExpiresAt)
}
