package session

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-admin-client/credentials"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// User is the profile of the signed-in backend user.
type User struct {
	UUID      string `json:"uuid,omitempty"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

func (u User) IsEmpty() bool {
	return u == User{}
}

// Tokens is the bearer credential pair. Both halves are replaced together.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// IsEmpty is true unless both the access and the refresh token are present.
func (t Tokens) IsEmpty() bool {
	return t.AccessToken == "" || t.RefreshToken == ""
}

// OAuth2 exposes the pair as a bearer oauth2.Token.
func (t Tokens) OAuth2() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    "Bearer",
	}
}

// State is a point-in-time copy of the session.
type State struct {
	IsAuthenticated bool   `json:"isAuthenticated"`
	CurrentUser     User   `json:"currentUser"`
	Tokens          Tokens `json:"tokens"`
	Loading         bool   `json:"loading"`
}

// Session is the single owner of the authentication state. Every transition is
// written through to the credential store so a later process starts where this one
// stopped. Store failures are logged, the in-memory transition still happens.
type Session struct {
	mu      sync.RWMutex
	user    User
	tokens  Tokens
	loading bool

	store credentials.Store
	log   zerolog.Logger
}

type Option func(*Session)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) {
		s.log = logger
	}
}

// New returns an unauthenticated session. A nil store disables persistence.
func New(store credentials.Store, opts ...Option) *Session {
	s := &Session{
		store: store,
		log:   log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With().Str("component", "session").Logger()
	return s
}

// Load restores the session from the store. A half-present session (user without
// tokens or the reverse) is discarded so IsAuthenticated can never be true with
// either part missing.
func Load(ctx context.Context, store credentials.Store, opts ...Option) (*Session, error) {
	s := New(store, opts...)
	if store == nil {
		return s, nil
	}

	var user User
	if _, err := store.Get(ctx, credentials.KeyUser, &user); err != nil {
		return nil, err
	}
	var tokens Tokens
	if _, err := store.Get(ctx, credentials.KeyTokens, &tokens); err != nil {
		return nil, err
	}

	if !user.IsEmpty() && !tokens.IsEmpty() {
		s.user = user
		s.tokens = tokens
	}
	return s, nil
}

// Tokens returns the tokens current at the time of the call.
func (s *Session) Tokens() Tokens {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens
}

func (s *Session) CurrentUser() User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isAuthenticated()
}

func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		IsAuthenticated: s.isAuthenticated(),
		CurrentUser:     s.user,
		Tokens:          s.tokens,
		Loading:         s.loading,
	}
}

// SetTokens commits a new token pair, replacing both halves.
func (s *Session) SetTokens(ctx context.Context, tokens Tokens) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens = tokens
	s.persist(ctx, credentials.KeyTokens, tokens)
}

func (s *Session) SetCurrentUser(ctx context.Context, user User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = user
	s.persist(ctx, credentials.KeyUser, user)
}

func (s *Session) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = loading
}

// Clear wipes the user and both tokens. It cannot fail.
func (s *Session) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = User{}
	s.tokens = Tokens{}
	s.remove(ctx, credentials.KeyUser)
	s.remove(ctx, credentials.KeyTokens)
}

func (s *Session) isAuthenticated() bool {
	return !s.user.IsEmpty() && !s.tokens.IsEmpty()
}

func (s *Session) persist(ctx context.Context, key string, value any) {
	if s.store == nil {
		return
	}
	if err := s.store.Set(ctx, key, value); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Failed to persist session")
	}
}

func (s *Session) remove(ctx context.Context, key string) {
	if s.store == nil {
		return
	}
	if err := s.store.Remove(ctx, key); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Failed to remove persisted session")
	}
}
