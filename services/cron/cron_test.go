package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahilchouksey/video-agent-api/model"
	"github.com/sahilchouksey/video-agent-api/services/store"
)

type stubSweeper struct {
	removed []string
	err     error
	maxAge  time.Duration
}

func (s *stubSweeper) CleanupExpired(_ context.Context, maxAge time.Duration) ([]string, error) {
	s.maxAge = maxAge
	return s.removed, s.err
}

func TestCleanupExpiredSessionsLogsRun(t *testing.T) {
	sweeper := &stubSweeper{removed: []string{"a", "b", "c"}}
	logs := NewMemoryJobLogger()
	m := NewCronManager(sweeper, logs, Config{SessionTimeout: 2 * time.Hour})

	m.CleanupExpiredSessions()

	assert.Equal(t, 2*time.Hour, sweeper.maxAge)
	entries := logs.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, JobSessionCleanup, entries[0].JobName)
	assert.Equal(t, model.JobStatusCompleted, entries[0].Status)
	assert.Equal(t, 3, entries[0].Affected)
	assert.NotNil(t, entries[0].CompletedAt)
	assert.Contains(t, entries[0].Message, "Removed 3 sessions")
}

func TestCleanupExpiredSessionsRecordsFailure(t *testing.T) {
	logs := NewMemoryJobLogger()
	m := NewCronManager(&stubSweeper{err: errors.New("db down")}, logs, Config{})

	m.CleanupExpiredSessions()

	entries := logs.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, model.JobStatusFailed, entries[0].Status)
	assert.Contains(t, entries[0].ErrorMsg, "db down")
}

func TestCleanupAgainstStore(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := now
	st := store.NewStore(store.NewMemoryRepository(), nil, store.WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	_, err := st.Create(ctx, "old", "u")
	require.NoError(t, err)
	clock = now.Add(30 * time.Hour)
	_, err = st.Create(ctx, "fresh", "u")
	require.NoError(t, err)

	m := NewCronManager(st, nil, Config{SessionTimeout: 24 * time.Hour})
	m.CleanupExpiredSessions()

	_, err = st.Get(ctx, "old")
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
	_, err = st.Get(ctx, "fresh")
	assert.NoError(t, err)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	m := NewCronManager(&stubSweeper{}, nil, Config{CleanupSchedule: "not a schedule"})
	assert.Error(t, m.Start())
}

func TestStartAndStop(t *testing.T) {
	logs := NewMemoryJobLogger()
	m := NewCronManager(&stubSweeper{}, logs, Config{})
	require.NoError(t, m.Start())
	assert.Eventually(t, func() bool { return len(logs.Entries()) == 1 }, time.Second, 10*time.Millisecond)
	m.Stop()
}
