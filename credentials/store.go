package credentials

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/jrsteele09/go-admin-client/internal/config"
	"github.com/jrsteele09/go-admin-client/internal/errors"
	"github.com/redis/go-redis/v9"
)

// Keys under which the session is persisted.
const (
	KeyUser   = "auth.user"
	KeyTokens = "tokens"
)

// Store is durable key-value storage for the token pair and the current user record.
// Values are JSON encoded so every backend stores the same representation.
type Store interface {
	// Get decodes the value stored under key into value. It returns false, nil when
	// the key does not exist, leaving value untouched so it keeps its default.
	Get(ctx context.Context, key string, value any) (bool, error)

	// Set encodes value and stores it under key.
	Set(ctx context.Context, key string, value any) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}

// New builds the Store selected by cfg.
func New(cfg interface {
	config.StoreConfig
	config.EnvConfig
}) (Store, error) {
	switch cfg.GetStoreBackend() {
	case config.StoreBackendMemory:
		return NewInMemoryStore(), nil
	case config.StoreBackendFile:
		return NewFileStore(filepath.Join(cfg.GetDataFolder(), DefaultFileName)), nil
	case config.StoreBackendRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.GetRedisAddr()})
		return NewRedisStore(client, WithPrefix(cfg.GetRedisPrefix())), nil
	default:
		return nil, fmt.Errorf("[credentials New] %q: %w", cfg.GetStoreBackend(), errors.ErrUnknownBackend)
	}
}
