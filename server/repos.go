package server

import (
	"fmt"

	"github.com/jrsteele09/go-admin-client/internal/config"
	"github.com/jrsteele09/go-admin-client/internal/errors"
	"github.com/jrsteele09/go-admin-client/token/refresh"
	refreshrepofake "github.com/jrsteele09/go-admin-client/token/refresh/repofake"
	fakeuserrepo "github.com/jrsteele09/go-admin-client/users/repofake"
	"github.com/redis/go-redis/v9"
)

// NewRepos builds the repositories selected by config. Users are always kept in
// memory; refresh tokens go to memory or Redis. The returned func releases them.
func NewRepos(cfg interface {
	config.ServerConfig
	config.StoreConfig
}) (Repos, func() error, error) {
	repos := Repos{Users: fakeuserrepo.NewFakeUserRepo()}

	switch backend := cfg.GetRefreshRepoBackend(); backend {
	case config.StoreBackendMemory:
		repos.RefreshTokens = refreshrepofake.NewFakeRefreshTokenRepo()
		return repos, func() error { return nil }, nil
	case config.StoreBackendRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.GetRedisAddr()})
		repos.RefreshTokens = refresh.NewRedisRepo(client, cfg.GetRedisPrefix())
		return repos, client.Close, nil
	default:
		return Repos{}, nil, fmt.Errorf("[server NewRepos] refresh repo %q: %w", backend, errors.ErrUnknownBackend)
	}
}
