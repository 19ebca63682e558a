package refresh

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jrsteele09/go-admin-client/internal/errors"
	"github.com/redis/go-redis/v9"
)

var _ Repo = (*RedisRepo)(nil)

// RedisRepo stores refresh tokens as JSON values that expire with the token.
type RedisRepo struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisRepo(client redis.UniversalClient, prefix string) *RedisRepo {
	return &RedisRepo{client: client, prefix: prefix}
}

func (r *RedisRepo) key(token string) string {
	return r.prefix + "refresh:" + token
}

func (r *RedisRepo) Upsert(ctx context.Context, refreshToken *StoredRefreshToken) error {
	value, err := json.Marshal(refreshToken)
	if err != nil {
		return fmt.Errorf("[RedisRepo Upsert] marshal: %w", err)
	}

	ttl := refreshToken.ExpiresAt.Sub(NowTimeFunc())
	if ttl <= 0 {
		return fmt.Errorf("[RedisRepo Upsert] token already expired: %w", errors.ErrInvalidRefreshToken)
	}
	if err := r.client.Set(ctx, r.key(refreshToken.Token), value, ttl).Err(); err != nil {
		return fmt.Errorf("[RedisRepo Upsert] set: %w", err)
	}
	return nil
}

// Take uses GETDEL so two concurrent refreshes with the same token cannot both win.
func (r *RedisRepo) Take(ctx context.Context, token string) (*StoredRefreshToken, error) {
	value, err := r.client.GetDel(ctx, r.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("[RedisRepo Take] getdel: %w", err)
	}

	var stored StoredRefreshToken
	if err := json.Unmarshal(value, &stored); err != nil {
		return nil, fmt.Errorf("[RedisRepo Take] unmarshal: %w", err)
	}
	return &stored, nil
}

func (r *RedisRepo) Delete(ctx context.Context, token string) error {
	n, err := r.client.Del(ctx, r.key(token)).Result()
	if err != nil {
		return fmt.Errorf("[RedisRepo Delete] del: %w", err)
	}
	if n == 0 {
		return errors.ErrNotFound
	}
	return nil
}
