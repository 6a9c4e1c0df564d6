package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	cfg "recipeserv/src/configuration"
	"recipeserv/src/logging"
)

type (
	// TokenStore remembers issued access tokens by their jti so logout can revoke them.
	TokenStore interface {
		Issue(ctx context.Context, jti string, userID uint, expiresAt time.Time) error
		Revoke(ctx context.Context, jti string) error
		Active(ctx context.Context, jti string) (bool, error)
	}
	InMemoryTokenStore struct {
		mu    sync.Mutex
		table map[string]issuedToken
		now   func() time.Time
	}
	issuedToken struct {
		userID    uint
		expiresAt time.Time
	}
)

// NewTokenStore builds the store named by AUTH_TOKEN_STORE.
func NewTokenStore(ctx context.Context, config *cfg.Properties) (TokenStore, error) {
	if config == nil {
		return nil, fmt.Errorf("config is not valid")
	}
	switch config.Auth.TokenStore {
	case "memory":
		return NewInMemoryTokenStore(), nil
	case "redis":
		store, err := NewRedisTokenStore(ctx, config.Redis)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown token store %q", config.Auth.TokenStore)
	}
}

func NewInMemoryTokenStore() *InMemoryTokenStore {
	return &InMemoryTokenStore{
		table: make(map[string]issuedToken),
		now:   time.Now,
	}
}

func (i *InMemoryTokenStore) Issue(_ context.Context, jti string, userID uint, expiresAt time.Time) error {
	if jti == "" {
		return fmt.Errorf("can not store token without id")
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.sweep()
	i.table[jti] = issuedToken{userID: userID, expiresAt: expiresAt}
	logging.Debug().Uint("user_id", userID).Str("jti", jti).Msg("issued token")
	return nil
}

func (i *InMemoryTokenStore) Revoke(_ context.Context, jti string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.table, jti)
	return nil
}

func (i *InMemoryTokenStore) Active(_ context.Context, jti string) (bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	token, ok := i.table[jti]
	if !ok {
		return false, nil
	}
	if !i.now().Before(token.expiresAt) {
		delete(i.table, jti)
		return false, nil
	}
	return true, nil
}

// sweep drops expired entries; callers hold mu.
func (i *InMemoryTokenStore) sweep() {
	now := i.now()
	for jti, token := range i.table {
		if !now.Before(token.expiresAt) {
			delete(i.table, jti)
		}
	}
}

var (
	_ TokenStore = (*InMemoryTokenStore)(nil)
	_ TokenStore = (*RedisTokenStore)(nil)
)
