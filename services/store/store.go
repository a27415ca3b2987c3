package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sahilchouksey/video-agent-api/model"
	"github.com/samber/lo"
)

const (
	DefaultRecentLimit = 10
	MaxRecentLimit     = 100
)

// Store owns session, content record and brand profile persistence.
// It accepts any valid stage; workflow rules live in services/workflow.
type Store struct {
	repo  Repository
	cache Cache
	now   func() time.Time
}

type Option func(*Store)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(repo Repository, cache Cache, opts ...Option) *Store {
	if cache == nil {
		cache = NewMemoryCache()
	}
	s := &Store{repo: repo, cache: cache, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) clock() time.Time {
	return s.now().UTC()
}

// Create persists a fresh session and fails if the id is taken
func (s *Store) Create(ctx context.Context, sessionID, userID string) (*model.Session, error) {
	sess := model.NewSession(sessionID, userID, s.clock())
	rec, err := model.NewSessionRecord(sess)
	if err != nil {
		return nil, err
	}
	if err := s.repo.InsertSession(ctx, rec); err != nil {
		if errors.Is(err, ErrDuplicateSession) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSession, sessionID)
		}
		return nil, err
	}
	s.cache.Put(ctx, sess)
	return sess, nil
}

// Get returns a session from cache or durable storage
func (s *Store) Get(ctx context.Context, sessionID string) (*model.Session, error) {
	if sess, ok := s.cache.Get(ctx, sessionID); ok {
		return sess, nil
	}
	rec, err := s.repo.FindSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sess, err := rec.ToSession()
	if err != nil {
		return nil, err
	}
	s.cache.Put(ctx, sess)
	return sess, nil
}

// GetOrCreate returns the existing session or creates it
func (s *Store) GetOrCreate(ctx context.Context, sessionID, userID string) (*model.Session, error) {
	sess, err := s.Get(ctx, sessionID)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, ErrSessionNotFound) {
		return nil, err
	}

	sess, err = s.Create(ctx, sessionID, userID)
	if errors.Is(err, ErrDuplicateSession) {
		// lost a race with another request creating the same id
		return s.Get(ctx, sessionID)
	}
	return sess, err
}

func (s *Store) stamp(sess *model.Session) error {
	if !sess.Stage.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStage, sess.Stage)
	}
	now := s.clock()
	if now.Before(sess.UpdatedAt) {
		now = sess.UpdatedAt
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now
	}
	sess.UpdatedAt = now
	return nil
}

// Update stamps updated_at and writes through. Last writer wins; a missing
// session is created.
func (s *Store) Update(ctx context.Context, sess *model.Session) error {
	prevUpdated := sess.UpdatedAt
	if err := s.stamp(sess); err != nil {
		return err
	}
	sess.Version++
	rec, err := model.NewSessionRecord(sess)
	if err != nil {
		sess.Version--
		return err
	}
	if err := s.repo.SaveSession(ctx, rec); err != nil {
		s.cache.Evict(ctx, sess.SessionID)
		sess.Version, sess.UpdatedAt = sess.Version-1, prevUpdated
		return fmt.Errorf("failed to persist session %s: %w", sess.SessionID, err)
	}
	sess.CreatedAt = rec.CreatedAt
	s.cache.Put(ctx, sess)
	return nil
}

// UpdateVersioned writes only if nobody else updated the session since it was read
func (s *Store) UpdateVersioned(ctx context.Context, sess *model.Session) error {
	prevUpdated, expected := sess.UpdatedAt, sess.Version
	if err := s.stamp(sess); err != nil {
		return err
	}
	sess.Version = expected + 1
	rec, err := model.NewSessionRecord(sess)
	if err != nil {
		return err
	}
	if err := s.repo.SaveSessionIfVersion(ctx, rec, expected); err != nil {
		s.cache.Evict(ctx, sess.SessionID)
		sess.Version, sess.UpdatedAt = expected, prevUpdated
		return err
	}
	s.cache.Put(ctx, sess)
	return nil
}

// Delete removes the session; deleting a missing session is not an error
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := s.repo.DeleteSession(ctx, sessionID); err != nil {
		return err
	}
	s.cache.Evict(ctx, sessionID)
	return nil
}

// ListSessions returns the user's sessions, most recently updated first
func (s *Store) ListSessions(ctx context.Context, userID string) ([]*model.Session, error) {
	recs, err := s.repo.ListSessions(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Session, 0, len(recs))
	for i := range recs {
		sess, err := recs[i].ToSession()
		if err != nil {
			log.Printf("[Store] skipping unreadable session %s: %v", recs[i].SessionID, err)
			continue
		}
		out = append(out, sess)
	}
	return out, nil
}

// CleanupExpired deletes sessions not updated within maxAge and returns their ids
func (s *Store) CleanupExpired(ctx context.Context, maxAge time.Duration) ([]string, error) {
	cutoff := s.clock().Add(-maxAge)
	ids, err := s.repo.DeleteSessionsBefore(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		s.cache.Evict(ctx, ids...)
		log.Printf("[Store] cleaned up %d sessions older than %s", len(ids), maxAge)
	}
	return ids, nil
}

// AppendContent records a produced artifact and returns its id
func (s *Store) AppendContent(ctx context.Context, sessionID, contentType, ref string, metadata map[string]any) (uint, error) {
	item := &model.GeneratedContent{
		SessionID:   sessionID,
		ContentType: contentType,
		ContentPath: ref,
		Metadata:    model.JSONMap(metadata),
		CreatedAt:   s.clock(),
	}
	if err := s.repo.InsertContent(ctx, item); err != nil {
		return 0, err
	}
	return item.ID, nil
}

// ListContent returns a session's artifacts, newest first; empty contentType matches all
func (s *Store) ListContent(ctx context.Context, sessionID, contentType string) ([]model.GeneratedContent, error) {
	return s.repo.ListContent(ctx, sessionID, contentType)
}

// RecentContent returns the newest artifacts across all sessions
func (s *Store) RecentContent(ctx context.Context, limit int) ([]model.GeneratedContent, error) {
	items, _, err := s.repo.RecentContent(ctx, "", clampLimit(limit), 0)
	return items, err
}

// PageContent is RecentContent with a type filter and paging
func (s *Store) PageContent(ctx context.Context, contentType string, limit, offset int) ([]model.GeneratedContent, int64, error) {
	if offset < 0 {
		offset = 0
	}
	return s.repo.RecentContent(ctx, contentType, clampLimit(limit), offset)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultRecentLimit
	}
	return lo.Min([]int{limit, MaxRecentLimit})
}

// SaveProfile stores a brand for reuse. Saving under an existing name replaces it.
func (s *Store) SaveProfile(ctx context.Context, brand model.BrandProfile) (uint, error) {
	if brand.Name == "" {
		return 0, errors.New("brand profile requires a name")
	}
	rec, err := model.NewBrandProfileRecord(brand)
	if err != nil {
		return 0, err
	}
	now := s.clock()
	rec.CreatedAt, rec.UpdatedAt = now, now
	if err := s.repo.UpsertProfile(ctx, rec); err != nil {
		return 0, err
	}
	return rec.ID, nil
}

func (s *Store) GetProfile(ctx context.Context, name string) (*model.BrandProfile, error) {
	rec, err := s.repo.FindProfile(ctx, name)
	if err != nil {
		return nil, err
	}
	return rec.ToBrandProfile()
}

func (s *Store) ListProfiles(ctx context.Context) ([]model.BrandProfile, error) {
	recs, err := s.repo.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.BrandProfile, 0, len(recs))
	for i := range recs {
		b, err := recs[i].ToBrandProfile()
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	return s.repo.HealthCheck(ctx)
}
