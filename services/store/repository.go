package store

import (
	"context"
	"errors"
	"time"

	"github.com/sahilchouksey/video-agent-api/model"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrDuplicateSession = errors.New("session already exists")
	ErrVersionConflict  = errors.New("session was modified concurrently")
	ErrProfileNotFound  = errors.New("brand profile not found")
	ErrInvalidStage     = errors.New("invalid workflow stage")
)

// Repository is the durable layer behind Store. Each call is atomic on its
// own; nothing spans session and content writes.
type Repository interface {
	InsertSession(ctx context.Context, rec *model.SessionRecord) error
	SaveSession(ctx context.Context, rec *model.SessionRecord) error
	SaveSessionIfVersion(ctx context.Context, rec *model.SessionRecord, expected int64) error
	FindSession(ctx context.Context, sessionID string) (*model.SessionRecord, error)
	DeleteSession(ctx context.Context, sessionID string) error
	ListSessions(ctx context.Context, userID string) ([]model.SessionRecord, error)
	DeleteSessionsBefore(ctx context.Context, cutoff time.Time) ([]string, error)

	InsertContent(ctx context.Context, content *model.GeneratedContent) error
	ListContent(ctx context.Context, sessionID, contentType string) ([]model.GeneratedContent, error)
	RecentContent(ctx context.Context, contentType string, limit, offset int) ([]model.GeneratedContent, int64, error)

	UpsertProfile(ctx context.Context, rec *model.BrandProfileRecord) error
	FindProfile(ctx context.Context, name string) (*model.BrandProfileRecord, error)
	ListProfiles(ctx context.Context) ([]model.BrandProfileRecord, error)

	HealthCheck(ctx context.Context) error
}
