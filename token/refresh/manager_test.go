package refresh_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/go-admin-client/internal/errors"
	"github.com/jrsteele09/go-admin-client/token/refresh"
	refreshrepofake "github.com/jrsteele09/go-admin-client/token/refresh/repofake"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type tokenConfig struct{}

func (tokenConfig) GetTokenSecret() string { return "1234" }
func (tokenConfig) GetAccessTokenExpiry() time.Duration { return time.Minute }
func (tokenConfig) GetRefreshTokenExpiry() time.Duration { return time.Hour }

type repoFactory struct {
	name string
	new  func(t *testing.T) refresh.Repo
}

func repos() []repoFactory {
	return []repoFactory{
		{name: "fake", new: func(*testing.T) refresh.Repo { return refreshrepofake.NewFakeRefreshTokenRepo() }},
		{name: "redis", new: func(t *testing.T) refresh.Repo {
			mr := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { _ = client.Close() })
			return refresh.NewRedisRepo(client, "test:")
		}},
	}
}

func freezeTime(t *testing.T, now time.Time) {
	t.Helper()
	refresh.NowTimeFunc = func() time.Time { return now }
	t.Cleanup(func() { refresh.NowTimeFunc = time.Now })
}

func TestCreateAndConsume(t *testing.T) {
	for _, rf := range repos() {
		t.Run(rf.name, func(t *testing.T) {
			ctx := context.Background()
			m := refresh.NewManager(rf.new(t), tokenConfig{})

			token, err := m.Create(ctx, "u1")
			require.NoError(t, err)
			require.Len(t, token, 36)

			userID, err := m.Consume(ctx, token)
			require.NoError(t, err)
			require.Equal(t, "u1", userID)

			// Single use.
			_, err = m.Consume(ctx, token)
			require.ErrorIs(t, err, errors.ErrInvalidRefreshToken)
		})
	}
}

func TestConsumeRejectsUnknownAndMalformed(t *testing.T) {
	for _, rf := range repos() {
		t.Run(rf.name, func(t *testing.T) {
			m := refresh.NewManager(rf.new(t), tokenConfig{})

			_, err := m.Consume(context.Background(), "not-a-uuid")
			require.ErrorIs(t, err, errors.ErrInvalidRefreshToken)

			_, err = m.Consume(context.Background(), "0f3b8c0e-8f1c-4f63-9a55-2b1a3f1d7c10")
			require.ErrorIs(t, err, errors.ErrInvalidRefreshToken)
		})
	}
}

func TestConsumeRejectsExpired(t *testing.T) {
	ctx := context.Background()
	issued := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m := refresh.NewManager(refreshrepofake.NewFakeRefreshTokenRepo(), tokenConfig{})

	freezeTime(t, issued)
	token, err := m.Create(ctx, "u1")
	require.NoError(t, err)

	freezeTime(t, issued.Add(time.Hour))
	_, err = m.Consume(ctx, token)
	require.ErrorIs(t, err, errors.ErrInvalidRefreshToken)
}

func TestRedisRepoExpiresWithToken(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	freezeTime(t, time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	m := refresh.NewManager(refresh.NewRedisRepo(client, "test:"), tokenConfig{})
	token, err := m.Create(ctx, "u1")
	require.NoError(t, err)

	require.True(t, mr.Exists("test:refresh:"+token))
	require.Equal(t, time.Hour, mr.TTL("test:refresh:"+token))

	mr.FastForward(time.Hour + time.Second)
	_, err = m.Consume(ctx, token)
	require.ErrorIs(t, err, errors.ErrInvalidRefreshToken)
}

func TestDelete(t *testing.T) {
	for _, rf := range repos() {
		t.Run(rf.name, func(t *testing.T) {
			ctx := context.Background()
			m := refresh.NewManager(rf.new(t), tokenConfig{})

			token, err := m.Create(ctx, "u1")
			require.NoError(t, err)
			require.NoError(t, m.Delete(ctx, token))
			require.ErrorIs(t, m.Delete(ctx, token), errors.ErrNotFound)

			_, err = m.Consume(ctx, token)
			require.ErrorIs(t, err, errors.ErrInvalidRefreshToken)
		})
	}
}
