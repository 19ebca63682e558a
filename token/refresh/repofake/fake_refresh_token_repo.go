package refreshrepofake

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-admin-client/internal/errors"
	"github.com/jrsteele09/go-admin-client/token/refresh"
)

var _ refresh.Repo = (*FakeRefreshTokenRepo)(nil)

type FakeRefreshTokenRepo struct {
	tokens map[string]*refresh.StoredRefreshToken
	lock   sync.Mutex
}

func NewFakeRefreshTokenRepo() refresh.Repo {
	return &FakeRefreshTokenRepo{
		tokens: make(map[string]*refresh.StoredRefreshToken),
	}
}

func (tr *FakeRefreshTokenRepo) Upsert(_ context.Context, refreshToken *refresh.StoredRefreshToken) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	stored := *refreshToken
	tr.tokens[refreshToken.Token] = &stored
	return nil
}

func (tr *FakeRefreshTokenRepo) Take(_ context.Context, token string) (*refresh.StoredRefreshToken, error) {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	rt, ok := tr.tokens[token]
	if !ok {
		return nil, errors.ErrNotFound
	}
	delete(tr.tokens, token)
	return rt, nil
}

func (tr *FakeRefreshTokenRepo) Delete(_ context.Context, token string) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	if _, ok := tr.tokens[token]; !ok {
		return errors.ErrNotFound
	}
	delete(tr.tokens, token)
	return nil
}
