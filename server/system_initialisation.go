package server

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-admin-client/internal/errors"
	"github.com/jrsteele09/go-admin-client/users"
)

// InitialiseSystem creates the admin user from config if it doesn't exist yet.
// Without a configured password nothing is seeded and sign-in is impossible.
func (s *Server) InitialiseSystem(ctx context.Context) error {
	email := s.config.GetAdminEmail()
	password := s.config.GetAdminPassword()
	if password == "" {
		s.log.Warn().Str("email", email).Msg("ADMIN_PASSWORD not set, no admin user seeded")
		return nil
	}

	existing, err := s.repos.Users.GetByEmail(email)
	if err == nil && existing != nil {
		s.log.Info().Str("email", existing.Email).Msg("Admin user already exists")
		return nil
	}
	if err != nil && !errors.Is(err, errors.ErrUserNotFound) {
		return fmt.Errorf("[Server InitialiseSystem] failed to look up admin: %w", err)
	}

	if err := users.ValidatePasswordStrength(password); err != nil {
		return fmt.Errorf("[Server InitialiseSystem] admin password: %w", err)
	}

	admin, err := users.NewUser(email, s.config.GetAdminName(), password)
	if err != nil {
		return fmt.Errorf("[Server InitialiseSystem] failed to create admin: %w", err)
	}
	if err := s.repos.Users.Upsert(admin); err != nil {
		return fmt.Errorf("[Server InitialiseSystem] failed to store admin: %w", err)
	}

	s.log.Info().Str("email", admin.Email).Str("uuid", admin.ID).Msg("Created admin user")
	return nil
}
