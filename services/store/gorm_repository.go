package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sahilchouksey/video-agent-api/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRepository persists sessions, content records and brand profiles in PostgreSQL
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) InsertSession(ctx context.Context, rec *model.SessionRecord) error {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(rec)
	if result.Error != nil {
		return fmt.Errorf("failed to insert session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrDuplicateSession
	}
	return nil
}

func (r *GormRepository) SaveSession(ctx context.Context, rec *model.SessionRecord) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"user_id", "stage", "state", "version", "updated_at"}),
		}).
		Create(rec).Error
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *GormRepository) SaveSessionIfVersion(ctx context.Context, rec *model.SessionRecord, expected int64) error {
	result := r.db.WithContext(ctx).
		Model(&model.SessionRecord{}).
		Where("session_id = ? AND version = ?", rec.SessionID, expected).
		Updates(map[string]interface{}{
			"user_id":    rec.UserID,
			"stage":      rec.Stage,
			"state":      rec.State,
			"version":    rec.Version,
			"updated_at": rec.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to save session: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&model.SessionRecord{}).
		Where("session_id = ?", rec.SessionID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check session: %w", err)
	}
	if count == 0 {
		return ErrSessionNotFound
	}
	return ErrVersionConflict
}

func (r *GormRepository) FindSession(ctx context.Context, sessionID string) (*model.SessionRecord, error) {
	var rec model.SessionRecord
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &rec, nil
}

func (r *GormRepository) DeleteSession(ctx context.Context, sessionID string) error {
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&model.SessionRecord{}).Error; err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (r *GormRepository) ListSessions(ctx context.Context, userID string) ([]model.SessionRecord, error) {
	var recs []model.SessionRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return recs, nil
}

func (r *GormRepository) DeleteSessionsBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.SessionRecord{}).
			Where("updated_at < ?", cutoff).
			Pluck("session_id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		return tx.Where("session_id IN ?", ids).Delete(&model.SessionRecord{}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return ids, nil
}

func (r *GormRepository) InsertContent(ctx context.Context, content *model.GeneratedContent) error {
	if err := r.db.WithContext(ctx).Create(content).Error; err != nil {
		return fmt.Errorf("failed to record content: %w", err)
	}
	return nil
}

func (r *GormRepository) ListContent(ctx context.Context, sessionID, contentType string) ([]model.GeneratedContent, error) {
	q := r.db.WithContext(ctx).Where("session_id = ?", sessionID)
	if contentType != "" {
		q = q.Where("content_type = ?", contentType)
	}

	var items []model.GeneratedContent
	if err := q.Order("created_at DESC, id DESC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list content: %w", err)
	}
	return items, nil
}

func (r *GormRepository) RecentContent(ctx context.Context, contentType string, limit, offset int) ([]model.GeneratedContent, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.GeneratedContent{})
	if contentType != "" {
		q = q.Where("content_type = ?", contentType)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count content: %w", err)
	}

	var items []model.GeneratedContent
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list recent content: %w", err)
	}
	return items, total, nil
}

func (r *GormRepository) UpsertProfile(ctx context.Context, rec *model.BrandProfileRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.BrandProfileRecord
		err := tx.Where("name = ?", rec.Name).Order("updated_at DESC").First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := tx.Create(rec).Error; err != nil {
				return fmt.Errorf("failed to create brand profile: %w", err)
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load brand profile: %w", err)
		}

		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
		if err := tx.Model(&existing).Updates(map[string]interface{}{
			"industry":   rec.Industry,
			"overview":   rec.Overview,
			"colors":     rec.Colors,
			"brand":      rec.Brand,
			"updated_at": rec.UpdatedAt,
		}).Error; err != nil {
			return fmt.Errorf("failed to update brand profile: %w", err)
		}
		return nil
	})
}

func (r *GormRepository) FindProfile(ctx context.Context, name string) (*model.BrandProfileRecord, error) {
	var rec model.BrandProfileRecord
	err := r.db.WithContext(ctx).Where("name = ?", name).Order("updated_at DESC").First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load brand profile: %w", err)
	}
	return &rec, nil
}

func (r *GormRepository) ListProfiles(ctx context.Context) ([]model.BrandProfileRecord, error) {
	var recs []model.BrandProfileRecord
	if err := r.db.WithContext(ctx).Order("updated_at DESC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list brand profiles: %w", err)
	}
	return recs, nil
}

func (r *GormRepository) HealthCheck(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
