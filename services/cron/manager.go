package cron

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	JobSessionCleanup = "session_cleanup"

	DefaultCleanupSchedule = "0 0 * * * *"
	DefaultSessionTimeout  = 24 * time.Hour
)

// Sweeper deletes sessions idle for longer than maxAge and returns their ids
type Sweeper interface {
	CleanupExpired(ctx context.Context, maxAge time.Duration) ([]string, error)
}

type Config struct {
	// CleanupSchedule is a cron spec with a leading seconds field
	CleanupSchedule string
	SessionTimeout  time.Duration
}

// CronManager manages all scheduled cron jobs
type CronManager struct {
	cron    *cron.Cron
	sweeper Sweeper
	logs    JobLogger
	cfg     Config
}

// NewCronManager creates a new cron manager
func NewCronManager(sweeper Sweeper, logs JobLogger, cfg Config) *CronManager {
	if cfg.CleanupSchedule == "" {
		cfg.CleanupSchedule = DefaultCleanupSchedule
	}
	if cfg.SessionTimeout <= 0 {
		cfg.SessionTimeout = DefaultSessionTimeout
	}
	if logs == nil {
		logs = NewMemoryJobLogger()
	}

	return &CronManager{
		cron:    cron.New(cron.WithSeconds()),
		sweeper: sweeper,
		logs:    logs,
		cfg:     cfg,
	}
}

// Start registers the jobs, starts the scheduler and runs one sweep right away
func (m *CronManager) Start() error {
	log.Println("[CRON] Starting cron jobs...")

	if err := m.registerJobs(); err != nil {
		return err
	}
	m.cron.Start()
	go m.CleanupExpiredSessions()

	log.Println("[CRON] Cron jobs started successfully")
	return nil
}

// Stop waits for running jobs to finish
func (m *CronManager) Stop() {
	log.Println("[CRON] Stopping cron jobs...")
	ctx := m.cron.Stop()
	<-ctx.Done()
	log.Println("[CRON] Cron jobs stopped")
}

func (m *CronManager) registerJobs() error {
	if _, err := m.cron.AddFunc(m.cfg.CleanupSchedule, m.CleanupExpiredSessions); err != nil {
		return err
	}
	log.Printf("[CRON] Registered %s on %q", JobSessionCleanup, m.cfg.CleanupSchedule)
	return nil
}
