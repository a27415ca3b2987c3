package store

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/sahilchouksey/video-agent-api/model"
	"github.com/sahilchouksey/video-agent-api/utils/cache"
)

// Cache is the fast path in front of the repository. Implementations must
// never hand out a session that a caller can mutate in place.
type Cache interface {
	Get(ctx context.Context, sessionID string) (*model.Session, bool)
	Put(ctx context.Context, s *model.Session)
	Evict(ctx context.Context, sessionIDs ...string)
}

// MemoryCache is a process-local cache, only valid for single-process deployments
type MemoryCache struct {
	mu       sync.RWMutex
	sessions map[string]*model.Session
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{sessions: make(map[string]*model.Session)}
}

func (c *MemoryCache) Get(_ context.Context, sessionID string) (*model.Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.sessions[sessionID]
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

func (c *MemoryCache) Put(_ context.Context, s *model.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[s.SessionID] = s.Clone()
}

func (c *MemoryCache) Evict(_ context.Context, sessionIDs ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range sessionIDs {
		delete(c.sessions, id)
	}
}

func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions)
}

// RedisCache shares cached sessions across processes. Cache failures are
// logged and treated as misses; the repository stays authoritative.
type RedisCache struct {
	redis *cache.RedisCache
	ttl   time.Duration
}

func NewRedisCache(redis *cache.RedisCache, ttl time.Duration) *RedisCache {
	return &RedisCache{redis: redis, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, sessionID string) (*model.Session, bool) {
	var s model.Session
	if err := c.redis.GetJSON(ctx, sessionID, &s); err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			log.Printf("[Store] redis get %s failed: %v", sessionID, err)
		}
		return nil, false
	}
	return &s, true
}

func (c *RedisCache) Put(ctx context.Context, s *model.Session) {
	if err := c.redis.SetJSON(ctx, s.SessionID, s, c.ttl); err != nil {
		log.Printf("[Store] redis put %s failed: %v", s.SessionID, err)
	}
}

func (c *RedisCache) Evict(ctx context.Context, sessionIDs ...string) {
	if err := c.redis.Delete(ctx, sessionIDs...); err != nil {
		log.Printf("[Store] redis evict failed: %v", err)
	}
}
