package token

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-admin-client/apimodel"
	"github.com/jrsteele09/go-admin-client/internal/config"
	"github.com/jrsteele09/go-admin-client/internal/errors"
	"github.com/jrsteele09/go-admin-client/token/jwt"
	"github.com/jrsteele09/go-admin-client/token/refresh"
	"github.com/jrsteele09/go-admin-client/users"
)

// Manager issues token pairs for the development API: an HS256 access token and
// a single-use refresh token that is rotated on every refresh.
type Manager struct {
	creator   *jwt.Creator
	inspector *jwt.Inspector
	refresh   *refresh.Manager
	userRepo  users.UserRepo
}

func New(cfg config.TokenConfig, refreshRepo refresh.Repo, userRepo users.UserRepo) *Manager {
	return &Manager{
		creator:   jwt.NewCreator(cfg),
		inspector: jwt.NewInspector(cfg),
		refresh:   refresh.NewManager(refreshRepo, cfg),
		userRepo:  userRepo,
	}
}

// SignIn checks the credentials and issues a new pair. Unknown users and wrong
// passwords both yield ErrInvalidCredentials.
func (m *Manager) SignIn(ctx context.Context, email, password string) (apimodel.TokenResponse, error) {
	user, err := m.userRepo.GetByEmail(email)
	if err != nil || !user.CheckPassword(password) {
		return apimodel.TokenResponse{}, errors.ErrInvalidCredentials
	}
	return m.issue(ctx, user)
}

// Refresh consumes refreshToken and issues a new pair for its user.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (apimodel.TokenResponse, error) {
	userID, err := m.refresh.Consume(ctx, refreshToken)
	if err != nil {
		return apimodel.TokenResponse{}, err
	}
	user, err := m.userRepo.GetByID(userID)
	if err != nil {
		return apimodel.TokenResponse{}, errors.ErrInvalidRefreshToken
	}
	return m.issue(ctx, user)
}

// Authenticate validates a bearer access token and loads its user.
func (m *Manager) Authenticate(accessToken string) (*users.User, error) {
	claims, err := m.inspector.Validate(accessToken)
	if err != nil {
		return nil, err
	}
	user, err := m.userRepo.GetByID(claims.Subject)
	if err != nil {
		return nil, errors.ErrInvalidToken
	}
	return user, nil
}

func (m *Manager) issue(ctx context.Context, user *users.User) (apimodel.TokenResponse, error) {
	accessToken, err := m.creator.CreateAccessToken(user)
	if err != nil {
		return apimodel.TokenResponse{}, fmt.Errorf("Manager.issue CreateAccessToken: %w", err)
	}
	refreshToken, err := m.refresh.Create(ctx, user.ID)
	if err != nil {
		return apimodel.TokenResponse{}, fmt.Errorf("Manager.issue CreateRefreshToken: %w", err)
	}
	return apimodel.TokenResponse{
		AccessToken:  *accessToken,
		RefreshToken: refreshToken,
	}, nil
}
