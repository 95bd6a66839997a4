package auth

import (
	"context"
	"sync"
	"time"

	"github.com/mind-engage/examdesk/internal/cache"
)

// Revoker remembers signed-out token ids until they expire.
type Revoker interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type MemoryRevoker struct {
	mu  sync.Mutex
	ids map[string]time.Time
	now func() time.Time
}

func NewMemoryRevoker() *MemoryRevoker {
	return &MemoryRevoker{ids: map[string]time.Time{}, now: time.Now}
}

func (m *MemoryRevoker) Revoke(_ context.Context, jti string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for id, exp := range m.ids {
		if now.After(exp) {
			delete(m.ids, id)
		}
	}
	m.ids[jti] = until
	return nil
}

func (m *MemoryRevoker) IsRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.ids[jti]
	return ok && !m.now().After(exp), nil
}

const revokedKeyPrefix = "examdesk:revoked:"

// RedisRevoker shares sign-outs between instances. Keys expire with the token.
type RedisRevoker struct {
	rc  *cache.RedisClient
	now func() time.Time
}

func NewRedisRevoker(rc *cache.RedisClient) *RedisRevoker {
	return &RedisRevoker{rc: rc, now: time.Now}
}

func (r *RedisRevoker) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := until.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	return r.rc.Set(ctx, revokedKeyPrefix+jti, 1, ttl)
}

func (r *RedisRevoker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.rc.Exists(ctx, revokedKeyPrefix+jti)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
