package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sahilchouksey/video-agent-api/model"
	"github.com/samber/lo"
)

// MemoryRepository keeps everything in process. Used for local development
// (STORE_BACKEND=memory) and tests.
type MemoryRepository struct {
	mu        sync.RWMutex
	sessions  map[string]model.SessionRecord
	content   []model.GeneratedContent
	profiles  []model.BrandProfileRecord
	nextID    uint
	failWrite error
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{sessions: make(map[string]model.SessionRecord)}
}

// FailWrites makes every write return err until called with nil
func (m *MemoryRepository) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWrite = err
}

func (m *MemoryRepository) InsertSession(_ context.Context, rec *model.SessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite != nil {
		return m.failWrite
	}
	if _, ok := m.sessions[rec.SessionID]; ok {
		return ErrDuplicateSession
	}
	m.sessions[rec.SessionID] = *rec
	return nil
}

func (m *MemoryRepository) SaveSession(_ context.Context, rec *model.SessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite != nil {
		return m.failWrite
	}
	if existing, ok := m.sessions[rec.SessionID]; ok {
		rec.CreatedAt = existing.CreatedAt
	}
	m.sessions[rec.SessionID] = *rec
	return nil
}

func (m *MemoryRepository) SaveSessionIfVersion(_ context.Context, rec *model.SessionRecord, expected int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite != nil {
		return m.failWrite
	}
	existing, ok := m.sessions[rec.SessionID]
	if !ok {
		return ErrSessionNotFound
	}
	if existing.Version != expected {
		return ErrVersionConflict
	}
	rec.CreatedAt = existing.CreatedAt
	m.sessions[rec.SessionID] = *rec
	return nil
}

func (m *MemoryRepository) FindSession(_ context.Context, sessionID string) (*model.SessionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &rec, nil
}

func (m *MemoryRepository) DeleteSession(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite != nil {
		return m.failWrite
	}
	delete(m.sessions, sessionID)
	return nil
}

func (m *MemoryRepository) ListSessions(_ context.Context, userID string) ([]model.SessionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	recs := lo.Filter(lo.Values(m.sessions), func(r model.SessionRecord, _ int) bool {
		return r.UserID == userID
	})
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].UpdatedAt.After(recs[j].UpdatedAt)
	})
	return recs, nil
}

func (m *MemoryRepository) DeleteSessionsBefore(_ context.Context, cutoff time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite != nil {
		return nil, m.failWrite
	}
	var ids []string
	for id, rec := range m.sessions {
		if rec.UpdatedAt.Before(cutoff) {
			ids = append(ids, id)
			delete(m.sessions, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MemoryRepository) InsertContent(_ context.Context, content *model.GeneratedContent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite != nil {
		return m.failWrite
	}
	m.nextID++
	content.ID = m.nextID
	m.content = append(m.content, *content)
	return nil
}

func newestFirst(items []model.GeneratedContent) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID > items[j].ID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}

func (m *MemoryRepository) ListContent(_ context.Context, sessionID, contentType string) ([]model.GeneratedContent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := lo.Filter(m.content, func(c model.GeneratedContent, _ int) bool {
		return c.SessionID == sessionID && (contentType == "" || c.ContentType == contentType)
	})
	newestFirst(items)
	return items, nil
}

func (m *MemoryRepository) RecentContent(_ context.Context, contentType string, limit, offset int) ([]model.GeneratedContent, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := lo.Filter(m.content, func(c model.GeneratedContent, _ int) bool {
		return contentType == "" || c.ContentType == contentType
	})
	newestFirst(items)
	total := int64(len(items))
	return lo.Subset(items, offset, uint(limit)), total, nil
}

func (m *MemoryRepository) UpsertProfile(_ context.Context, rec *model.BrandProfileRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite != nil {
		return m.failWrite
	}
	for i, p := range m.profiles {
		if p.Name == rec.Name {
			rec.ID = p.ID
			rec.CreatedAt = p.CreatedAt
			m.profiles[i] = *rec
			return nil
		}
	}
	m.nextID++
	rec.ID = m.nextID
	m.profiles = append(m.profiles, *rec)
	return nil
}

func (m *MemoryRepository) FindProfile(_ context.Context, name string) (*model.BrandProfileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := lo.Find(m.profiles, func(p model.BrandProfileRecord) bool { return p.Name == name })
	if !ok {
		return nil, ErrProfileNotFound
	}
	return &rec, nil
}

func (m *MemoryRepository) ListProfiles(_ context.Context) ([]model.BrandProfileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.BrandProfileRecord, len(m.profiles))
	copy(out, m.profiles)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (m *MemoryRepository) HealthCheck(context.Context) error {
	return nil
}
