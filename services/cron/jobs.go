package cron

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/sahilchouksey/video-agent-api/model"
)

const jobTimeout = 5 * time.Minute

// CleanupExpiredSessions removes sessions idle for longer than the configured timeout
func (m *CronManager) CleanupExpiredSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	entry := m.logs.Start(ctx, JobSessionCleanup)
	removed, err := m.sweeper.CleanupExpired(ctx, m.cfg.SessionTimeout)
	if err != nil {
		m.logs.Finish(ctx, entry, 0, "", fmt.Errorf("failed to clean up sessions: %w", err))
		return
	}
	m.logs.Finish(ctx, entry, len(removed), fmt.Sprintf("Removed %d sessions idle for more than %s", len(removed), m.cfg.SessionTimeout), nil)
}

// JobLogger records cron job runs
type JobLogger interface {
	Start(ctx context.Context, jobName string) *model.CronJobLog
	Finish(ctx context.Context, entry *model.CronJobLog, affected int, message string, err error)
}

func begin(jobName string) *model.CronJobLog {
	log.Printf("[CRON] Starting job: %s at %s", jobName, time.Now().Format(time.RFC3339))
	return &model.CronJobLog{
		JobName:   jobName,
		Status:    model.JobStatusStarted,
		StartedAt: time.Now(),
	}
}

func complete(entry *model.CronJobLog, affected int, message string, err error) {
	now := time.Now()
	entry.CompletedAt = &now
	entry.Duration = int(now.Sub(entry.StartedAt).Milliseconds())
	entry.Affected = affected
	if err != nil {
		entry.Status = model.JobStatusFailed
		entry.ErrorMsg = err.Error()
		log.Printf("[CRON] Error in job: %s - %v", entry.JobName, err)
		return
	}
	entry.Status = model.JobStatusCompleted
	entry.Message = message
	log.Printf("[CRON] Completed job: %s - %s", entry.JobName, message)
}

// GormJobLogger writes runs to cron_job_logs
type GormJobLogger struct {
	db *gorm.DB
}

func NewGormJobLogger(db *gorm.DB) *GormJobLogger {
	return &GormJobLogger{db: db}
}

func (g *GormJobLogger) Start(ctx context.Context, jobName string) *model.CronJobLog {
	entry := begin(jobName)
	if err := g.db.WithContext(ctx).Create(entry).Error; err != nil {
		log.Printf("[CRON] Failed to record start of %s: %v", jobName, err)
	}
	return entry
}

func (g *GormJobLogger) Finish(ctx context.Context, entry *model.CronJobLog, affected int, message string, err error) {
	complete(entry, affected, message, err)
	if entry.ID == 0 {
		return
	}
	if dbErr := g.db.WithContext(ctx).Model(&model.CronJobLog{}).
		Where("id = ?", entry.ID).
		Updates(map[string]interface{}{
			"status":       entry.Status,
			"completed_at": entry.CompletedAt,
			"duration":     entry.Duration,
			"affected":     entry.Affected,
			"message":      entry.Message,
			"error_msg":    entry.ErrorMsg,
		}).Error; dbErr != nil {
		log.Printf("[CRON] Failed to record completion of %s: %v", entry.JobName, dbErr)
	}
}

// MemoryJobLogger keeps runs in process; used with the in-memory store
type MemoryJobLogger struct {
	mu      sync.Mutex
	entries []model.CronJobLog
}

func NewMemoryJobLogger() *MemoryJobLogger {
	return &MemoryJobLogger{}
}

func (m *MemoryJobLogger) Start(_ context.Context, jobName string) *model.CronJobLog {
	return begin(jobName)
}

func (m *MemoryJobLogger) Finish(_ context.Context, entry *model.CronJobLog, affected int, message string, err error) {
	complete(entry, affected, message, err)
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = uint(len(m.entries) + 1)
	m.entries = append(m.entries, *entry)
}

// Entries returns finished runs, oldest first
func (m *MemoryJobLogger) Entries() []model.CronJobLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.CronJobLog, len(m.entries))
	copy(out, m.entries)
	return out
}
