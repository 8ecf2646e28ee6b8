package entrypoint

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/prepwise/internal/config"
	"github.com/mrlokans/prepwise/internal/database"
	applog "github.com/mrlokans/prepwise/internal/logger"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func setupTestDB(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "app.db"), database.Options{LogLevel: logger.Silent})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNewBackend_Local(t *testing.T) {
	db := setupTestDB(t)
	cfg := &config.Config{Auth: config.Auth{Provider: config.ProviderLocal, PasswordMinLength: 3}}

	backend, err := NewBackend(context.Background(), cfg, db, testSecret, applog.Discard())
	require.NoError(t, err)
	defer backend.Close()

	assert.Equal(t, "local", backend.Name)
	assert.NotNil(t, backend.Client)
	assert.NotNil(t, backend.Admin)
	assert.NotNil(t, backend.Users)

	uid, err := backend.Client.CreateAccount(context.Background(), "ann@x.io", "secret")
	require.NoError(t, err)

	record, err := backend.Admin.GetUserByEmail(context.Background(), "ann@x.io")
	require.NoError(t, err)
	assert.Equal(t, uid, record.UID)
}

func TestNewBackend_LocalShortSecret(t *testing.T) {
	db := setupTestDB(t)
	cfg := &config.Config{Auth: config.Auth{Provider: config.ProviderLocal}}

	_, err := NewBackend(context.Background(), cfg, db, []byte("short"), applog.Discard())
	assert.Error(t, err)
}

func TestNewBackend_FirebaseRequiresCredentials(t *testing.T) {
	cfg := &config.Config{Auth: config.Auth{Provider: config.ProviderFirebase}}

	_, err := NewBackend(context.Background(), cfg, nil, testSecret, applog.Discard())
	assert.ErrorContains(t, err, "FIREBASE_PROJECT_ID")
}

func TestNewBackend_Unknown(t *testing.T) {
	cfg := &config.Config{Auth: config.Auth{Provider: "ldap"}}

	_, err := NewBackend(context.Background(), cfg, nil, testSecret, applog.Discard())
	assert.ErrorContains(t, err, "unknown AUTH_PROVIDER")
}
