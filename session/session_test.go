package session_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/jrsteele09/go-admin-client/credentials"
	"github.com/jrsteele09/go-admin-client/session"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var (
	testUser   = session.User{UUID: "u1", Name: "A", Email: "a@b.com", CreatedAt: "t1", UpdatedAt: "t1"}
	testTokens = session.Tokens{AccessToken: "access-1", RefreshToken: "refresh-1"}
)

func TestNewSessionIsUnauthenticated(t *testing.T) {
	s := session.New(nil)

	state := s.State()
	require.False(t, state.IsAuthenticated)
	require.True(t, state.CurrentUser.IsEmpty())
	require.True(t, state.Tokens.IsEmpty())
	require.False(t, state.Loading)
}

func TestIsAuthenticatedNeedsUserAndTokens(t *testing.T) {
	ctx := context.Background()
	s := session.New(credentials.NewInMemoryStore())

	s.SetTokens(ctx, testTokens)
	require.False(t, s.IsAuthenticated(), "tokens alone must not authenticate")

	s.SetCurrentUser(ctx, testUser)
	require.True(t, s.IsAuthenticated())

	s.SetTokens(ctx, session.Tokens{AccessToken: "only-access"})
	require.False(t, s.IsAuthenticated(), "half a token pair must not authenticate")
}

func TestTransitionsWriteThrough(t *testing.T) {
	ctx := context.Background()
	store := credentials.NewInMemoryStore()
	s := session.New(store)

	s.SetTokens(ctx, testTokens)
	s.SetCurrentUser(ctx, testUser)

	var tokens session.Tokens
	found, err := store.Get(ctx, credentials.KeyTokens, &tokens)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, testTokens, tokens)

	var user session.User
	found, err = store.Get(ctx, credentials.KeyUser, &user)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, testUser, user)

	s.Clear(ctx)
	require.False(t, s.IsAuthenticated())

	found, err = store.Get(ctx, credentials.KeyTokens, &tokens)
	require.NoError(t, err)
	require.False(t, found)
	found, err = store.Get(ctx, credentials.KeyUser, &user)
	require.NoError(t, err)
	require.False(t, found)
}

func TestLoadRestoresCompleteSession(t *testing.T) {
	ctx := context.Background()
	store := credentials.NewInMemoryStore()
	require.NoError(t, store.Set(ctx, credentials.KeyUser, testUser))
	require.NoError(t, store.Set(ctx, credentials.KeyTokens, testTokens))

	s, err := session.Load(ctx, store)
	require.NoError(t, err)
	require.True(t, s.IsAuthenticated())
	require.Equal(t, testUser, s.CurrentUser())
	require.Equal(t, testTokens, s.Tokens())
}

func TestLoadDiscardsHalfSession(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		user   *session.User
		tokens *session.Tokens
	}{
		{name: "tokens without user", tokens: &testTokens},
		{name: "user without tokens", user: &testUser},
		{name: "user with half a pair", user: &testUser, tokens: &session.Tokens{AccessToken: "a"}},
		{name: "nothing stored"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := credentials.NewInMemoryStore()
			if tt.user != nil {
				require.NoError(t, store.Set(ctx, credentials.KeyUser, *tt.user))
			}
			if tt.tokens != nil {
				require.NoError(t, store.Set(ctx, credentials.KeyTokens, *tt.tokens))
			}

			s, err := session.Load(ctx, store)
			require.NoError(t, err)
			require.False(t, s.IsAuthenticated())
			require.True(t, s.CurrentUser().IsEmpty())
			require.True(t, s.Tokens().IsEmpty())
		})
	}
}

type failingStore struct{}

func (failingStore) Get(context.Context, string, any) (bool, error) {
	return false, errors.New("store down")
}
func (failingStore) Set(context.Context, string, any) error { return errors.New("store down") }
func (failingStore) Remove(context.Context, string) error   { return errors.New("store down") }

func TestStoreFailuresDoNotBlockTransitions(t *testing.T) {
	ctx := context.Background()
	s := session.New(failingStore{}, session.WithLogger(zerolog.Nop()))

	s.SetTokens(ctx, testTokens)
	s.SetCurrentUser(ctx, testUser)
	require.True(t, s.IsAuthenticated())

	s.Clear(ctx)
	require.False(t, s.IsAuthenticated())

	_, err := session.Load(ctx, failingStore{})
	require.Error(t, err)
}

func TestTokensOAuth2SetsBearerHeader(t *testing.T) {
	req := httptest.NewRequest("GET", "/me", nil)
	testTokens.OAuth2().SetAuthHeader(req)
	require.Equal(t, "Bearer access-1", req.Header.Get("Authorization"))
}

func TestConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	s := session.New(credentials.NewInMemoryStore())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.SetTokens(ctx, testTokens)
		}()
		go func() {
			defer wg.Done()
			_ = s.State()
		}()
	}
	wg.Wait()
	require.Equal(t, testTokens, s.Tokens())
}

func TestLoadingFlag(t *testing.T) {
	s := session.New(nil)
	s.SetLoading(true)
	require.True(t, s.Loading())
	require.True(t, s.State().Loading)
	s.SetLoading(false)
	require.False(t, s.Loading())
}
