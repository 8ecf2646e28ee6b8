package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"

	"github.com/mrlokans/prepwise/internal/tasks"
)

// TaskEnqueuer adds tasks to the background queue.
type TaskEnqueuer interface {
	Add(tasks ...backlite.Task) *backlite.TaskAddOp
}

// AuditCleaner deletes audit events in-process when no task queue is running.
type AuditCleaner interface {
	DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error)
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronSchedule checks a five-field cron expression.
func ValidateCronSchedule(schedule string) error {
	_, err := cronParser.Parse(schedule)
	return err
}

// AuditRetentionScheduler periodically purges audit events older than the
// retention period. When a task queue is configured the purge is enqueued
// there, otherwise it runs inline.
type AuditRetentionScheduler struct {
	schedule      string
	retentionDays int
	enqueuer      TaskEnqueuer
	cleaner       AuditCleaner
	logger        *slog.Logger

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// AuditRetentionConfig holds the scheduler dependencies. Enqueuer is optional.
type AuditRetentionConfig struct {
	Schedule      string
	RetentionDays int
	Enqueuer      TaskEnqueuer
	Cleaner       AuditCleaner
	Logger        *slog.Logger
}

func NewAuditRetentionScheduler(cfg AuditRetentionConfig) *AuditRetentionScheduler {
	return &AuditRetentionScheduler{
		schedule:      cfg.Schedule,
		retentionDays: cfg.RetentionDays,
		enqueuer:      cfg.Enqueuer,
		cleaner:       cfg.Cleaner,
		logger:        cfg.Logger,
		cron:          cron.New(cron.WithParser(cronParser)),
	}
}

// Start registers the purge job and starts the cron loop. An empty schedule
// or a non-positive retention disables the scheduler.
func (s *AuditRetentionScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if s.schedule == "" || s.retentionDays <= 0 {
		s.logger.Info("audit retention scheduler disabled")
		return nil
	}

	if err := ValidateCronSchedule(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		s.RunNow(context.Background())
	})
	if err != nil {
		return fmt.Errorf("failed to schedule audit cleanup: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	s.logger.Info("audit retention scheduler started",
		"schedule", s.schedule,
		"retention_days", s.retentionDays,
		"next_run", s.cron.Entry(entryID).Next)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop stops the cron loop and waits for a running job to finish.
func (s *AuditRetentionScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	s.isRunning = false
	s.cancelFunc = nil

	s.logger.Info("audit retention scheduler stopped")
}

// RunNow triggers a purge immediately.
func (s *AuditRetentionScheduler) RunNow(ctx context.Context) {
	if s.enqueuer != nil {
		ids, err := s.enqueuer.Add(tasks.CleanupAuditEventsTask{RetentionDays: s.retentionDays}).Save()
		if err != nil {
			s.logger.Error("failed to enqueue audit cleanup", "error", err)
			return
		}
		s.logger.Debug("enqueued audit cleanup", "task_ids", ids)
		return
	}

	if s.cleaner == nil {
		return
	}

	retention := time.Duration(s.retentionDays) * 24 * time.Hour
	deleted, err := s.cleaner.DeleteOldEvents(ctx, retention)
	if err != nil {
		s.logger.Error("audit cleanup failed", "error", err)
		return
	}
	s.logger.Info("cleaned up audit events", "deleted", deleted, "retention_days", s.retentionDays)
}

// IsRunning returns whether the scheduler is active.
func (s *AuditRetentionScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRunTime returns when the next purge will occur.
func (s *AuditRetentionScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	t := s.cron.Entry(s.entryID).Next
	return &t
}
