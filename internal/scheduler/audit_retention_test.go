package scheduler

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applog "github.com/mrlokans/prepwise/internal/logger"
	"github.com/mrlokans/prepwise/internal/tasks"
)

type fakeCleaner struct {
	mu        sync.Mutex
	calls     int
	retention time.Duration
}

func (f *fakeCleaner) DeleteOldEvents(_ context.Context, retention time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.retention = retention
	return 1, nil
}

func TestValidateCronSchedule(t *testing.T) {
	assert.NoError(t, ValidateCronSchedule("30 3 * * *"))
	assert.Error(t, ValidateCronSchedule("not a schedule"))
	assert.Error(t, ValidateCronSchedule("0 30 3 * * *"))
}

func TestAuditRetentionScheduler_StartStop(t *testing.T) {
	s := NewAuditRetentionScheduler(AuditRetentionConfig{
		Schedule:      "30 3 * * *",
		RetentionDays: 30,
		Cleaner:       &fakeCleaner{},
		Logger:        applog.Discard(),
	})

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())

	next := s.GetNextRunTime()
	require.NotNil(t, next)
	assert.Equal(t, 3, next.Hour())
	assert.Equal(t, 30, next.Minute())

	s.Stop()
	assert.False(t, s.IsRunning())
	assert.Nil(t, s.GetNextRunTime())
}

func TestAuditRetentionScheduler_StopsOnContextCancel(t *testing.T) {
	s := NewAuditRetentionScheduler(AuditRetentionConfig{
		Schedule:      "30 3 * * *",
		RetentionDays: 30,
		Logger:        applog.Discard(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	cancel()

	assert.Eventually(t, func() bool { return !s.IsRunning() }, 2*time.Second, 10*time.Millisecond)
}

func TestAuditRetentionScheduler_Disabled(t *testing.T) {
	s := NewAuditRetentionScheduler(AuditRetentionConfig{
		Schedule: "",
		Logger:   applog.Discard(),
	})

	require.NoError(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
}

func TestAuditRetentionScheduler_InvalidSchedule(t *testing.T) {
	s := NewAuditRetentionScheduler(AuditRetentionConfig{
		Schedule:      "every day",
		RetentionDays: 30,
		Logger:        applog.Discard(),
	})

	assert.Error(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
}

func TestAuditRetentionScheduler_RunNowInline(t *testing.T) {
	cleaner := &fakeCleaner{}
	s := NewAuditRetentionScheduler(AuditRetentionConfig{
		Schedule:      "30 3 * * *",
		RetentionDays: 7,
		Cleaner:       cleaner,
		Logger:        applog.Discard(),
	})

	s.RunNow(context.Background())

	assert.Equal(t, 1, cleaner.calls)
	assert.Equal(t, 7*24*time.Hour, cleaner.retention)
}

func TestAuditRetentionScheduler_RunNowEnqueues(t *testing.T) {
	client, err := tasks.NewClient(filepath.Join(t.TempDir(), "app.db"), tasks.DefaultConfig(), applog.Discard())
	require.NoError(t, err)
	defer client.Close()

	cleaner := &fakeCleaner{}
	client.Register(tasks.NewCleanupAuditEventsQueue(cleaner, applog.Discard()))

	s := NewAuditRetentionScheduler(AuditRetentionConfig{
		Schedule:      "30 3 * * *",
		RetentionDays: 7,
		Enqueuer:      client,
		Cleaner:       cleaner,
		Logger:        applog.Discard(),
	})

	s.RunNow(context.Background())
	assert.Equal(t, 0, cleaner.calls, "cleanup must go through the queue")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	assert.Eventually(t, func() bool {
		cleaner.mu.Lock()
		defer cleaner.mu.Unlock()
		return cleaner.calls == 1
	}, 5*time.Second, 20*time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	client.Stop(stopCtx)
}
