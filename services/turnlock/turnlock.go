// Package turnlock keeps a session to one streaming chat turn at a time.
package turnlock

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/sahilchouksey/video-agent-api/utils/cache"
)

// DefaultTTL outlives a long video generation; a crashed holder frees the lock after it
const DefaultTTL = 10 * time.Minute

type Lock interface {
	// Acquire reports false when another turn holds the session
	Acquire(ctx context.Context, sessionID string) (bool, error)
	Release(ctx context.Context, sessionID string)
}

// MemoryLock serves a single API instance
type MemoryLock struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func NewMemoryLock() *MemoryLock {
	return &MemoryLock{active: make(map[string]struct{})}
}

func (m *MemoryLock) Acquire(_ context.Context, sessionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.active[sessionID]; busy {
		return false, nil
	}
	m.active[sessionID] = struct{}{}
	return true, nil
}

func (m *MemoryLock) Release(_ context.Context, sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.active, sessionID)
}

// RedisLock shares turn ownership across API instances
type RedisLock struct {
	cache *cache.RedisCache
	ttl   time.Duration
}

func NewRedisLock(c *cache.RedisCache, ttl time.Duration) *RedisLock {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisLock{cache: c, ttl: ttl}
}

func key(sessionID string) string {
	return "turn:" + sessionID
}

func (r *RedisLock) Acquire(ctx context.Context, sessionID string) (bool, error) {
	return r.cache.SetNX(ctx, key(sessionID), time.Now().Unix(), r.ttl)
}

func (r *RedisLock) Release(ctx context.Context, sessionID string) {
	if err := r.cache.Delete(ctx, key(sessionID)); err != nil {
		log.Printf("[Chat] failed to release turn lock for %s: %v", sessionID, err)
	}
}
