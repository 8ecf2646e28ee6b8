package audit

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	auditRepo "github.com/mrlokans/prepwise/internal/database/audit"
	"github.com/mrlokans/prepwise/internal/entities"
	applog "github.com/mrlokans/prepwise/internal/logger"
)

func setupTestService(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "audit.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.AuditEvent{})
	require.NoError(t, err)

	svc := NewService(auditRepo.NewRepository(db), applog.Discard())
	return svc, db
}

func TestService_Log(t *testing.T) {
	svc, db := setupTestService(t)

	event := &entities.AuditEvent{
		UserID:    "uid-1",
		EventType: entities.AuditEventAuth,
		Action:    entities.AuditActionSignOut,
		Status:    entities.AuditStatusSuccess,
	}

	err := svc.Log(context.Background(), event)
	require.NoError(t, err)

	var saved entities.AuditEvent
	err = db.First(&saved, event.ID).Error
	require.NoError(t, err)
	assert.Equal(t, entities.AuditActionSignOut, saved.Action)
}

func TestService_LogAuth(t *testing.T) {
	svc, db := setupTestService(t)

	t.Run("successful sign in", func(t *testing.T) {
		svc.LogAuth(AuthEvent{
			UserID:    "uid-1",
			Email:     "ada@example.com",
			Action:    entities.AuditActionSignIn,
			IPAddress: "10.0.0.1",
			UserAgent: "test-agent",
		})
		svc.Wait()

		var event entities.AuditEvent
		err := db.Where("user_id = ? AND action = ?", "uid-1", entities.AuditActionSignIn).First(&event).Error
		require.NoError(t, err)
		assert.Equal(t, entities.AuditStatusSuccess, event.Status)
		assert.Equal(t, entities.AuditEventAuth, event.EventType)
		assert.Equal(t, "10.0.0.1", event.IPAddress)
		assert.Empty(t, event.ErrorMsg)
	})

	t.Run("failed sign up", func(t *testing.T) {
		svc.LogAuth(AuthEvent{
			Email:     "bob@example.com",
			Action:    entities.AuditActionSignUp,
			UserAgent: strings.Repeat("a", 600),
			Err:       errors.New("email already in use"),
		})
		svc.Wait()

		var event entities.AuditEvent
		err := db.Where("email = ? AND action = ?", "bob@example.com", entities.AuditActionSignUp).First(&event).Error
		require.NoError(t, err)
		assert.Equal(t, entities.AuditStatusFailed, event.Status)
		assert.Contains(t, event.ErrorMsg, "email already in use")
		assert.Len(t, event.UserAgent, 500)
	})
}

func TestService_DeleteOldEvents(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Log(ctx, &entities.AuditEvent{
		EventType: entities.AuditEventAuth,
		Action:    entities.AuditActionSignIn,
		Status:    entities.AuditStatusSuccess,
		CreatedAt: time.Now().Add(-40 * 24 * time.Hour),
	}))
	require.NoError(t, svc.Log(ctx, &entities.AuditEvent{
		EventType: entities.AuditEventAuth,
		Action:    entities.AuditActionSignIn,
		Status:    entities.AuditStatusSuccess,
	}))

	deleted, err := svc.DeleteOldEvents(ctx, 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var count int64
	db.Model(&entities.AuditEvent{}).Count(&count)
	assert.Equal(t, int64(1), count)

	events, total, err := svc.GetEvents(ctx, "", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, events, 1)
}

func TestService_AttemptsSince(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()
	since := time.Now().Add(-time.Minute)

	svc.LogAuth(AuthEvent{Email: "ada@example.com", Action: entities.AuditActionSignIn, IPAddress: "10.0.0.1", Err: errors.New("invalid_credentials")})
	svc.LogAuth(AuthEvent{Email: "ada@example.com", Action: entities.AuditActionSignOut})
	svc.Wait()

	events, err := svc.AttemptsSince(ctx, entities.AuditActionSignIn, since)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, entities.AuditStatusFailed, events[0].Status)
	assert.Equal(t, "10.0.0.1", events[0].IPAddress)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
