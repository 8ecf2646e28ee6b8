// Package audit records authentication events and prunes them after the
// configured retention period.
package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mrlokans/prepwise/internal/entities"
)

// EventStore persists audit events.
type EventStore interface {
	LogEvent(ctx context.Context, event *entities.AuditEvent) error
	GetEvents(ctx context.Context, userID string, limit, offset int) ([]entities.AuditEvent, int64, error)
	GetActionEventsSince(ctx context.Context, action string, since time.Time) ([]entities.AuditEvent, error)
	DeleteOldEvents(ctx context.Context, olderThan time.Time) (int64, error)
}

// AuthEvent describes a single authentication attempt.
type AuthEvent struct {
	UserID    string
	Email     string
	Action    string
	IPAddress string
	UserAgent string
	Err       error
}

// Service provides high-level audit logging functionality.
type Service struct {
	repo   EventStore
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo EventStore, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Log records a generic audit event.
func (s *Service) Log(ctx context.Context, event *entities.AuditEvent) error {
	return s.repo.LogEvent(ctx, event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.repo.LogEvent(context.Background(), event); err != nil {
			s.logger.Error("failed to log audit event", "action", event.Action, "error", err)
		}
	}()
}

// LogAuth records an authentication event.
func (s *Service) LogAuth(e AuthEvent) {
	event := &entities.AuditEvent{
		UserID:    e.UserID,
		Email:     e.Email,
		EventType: entities.AuditEventAuth,
		Action:    e.Action,
		IPAddress: e.IPAddress,
		UserAgent: truncate(e.UserAgent, 500),
		Status:    entities.AuditStatusSuccess,
	}

	if e.Err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(e.Err.Error(), 500)
	}

	s.LogAsync(event)
}

// Wait blocks until every pending asynchronous write has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// GetEvents retrieves paginated audit events.
func (s *Service) GetEvents(ctx context.Context, userID string, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(ctx, userID, limit, offset)
}

// AttemptsSince returns the recorded attempts of an auth action after since,
// oldest first.
func (s *Service) AttemptsSince(ctx context.Context, action string, since time.Time) ([]entities.AuditEvent, error) {
	return s.repo.GetActionEventsSince(ctx, action, since)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(ctx, cutoff)
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
