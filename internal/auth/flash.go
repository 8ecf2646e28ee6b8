package auth

import (
	"context"
	"database/sql"
	"encoding/gob"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"

	"github.com/mrlokans/prepwise/internal/config"
)

// FlashCookieName is the cookie holding the flash session token.
const FlashCookieName = "flash"

const sessionKeyFlashes = "flashes"

type FlashLevel string

const (
	FlashSuccess FlashLevel = "success"
	FlashError   FlashLevel = "error"
)

// Flash is a one-shot notification shown on the next page render.
type Flash struct {
	Level   FlashLevel
	Message string
}

func init() {
	gob.Register([]Flash{})
}

// FlashManager keeps flash messages in a short-lived server-side session.
type FlashManager struct {
	*scs.SessionManager
	store *sqlite3store.SQLite3Store
}

// NewFlashManager creates a flash session manager on the application database.
// The sqlDB parameter should be the underlying *sql.DB from GORM.
func NewFlashManager(sqlDB *sql.DB, cfg config.Auth) (*FlashManager, error) {
	_, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		expiry REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
	if err != nil {
		return nil, err
	}

	lifetime := cfg.FlashLifetime
	if lifetime <= 0 {
		lifetime = 10 * time.Minute
	}

	store := sqlite3store.New(sqlDB)

	sm := scs.New()
	sm.Store = store
	sm.Lifetime = lifetime
	sm.Cookie.Name = FlashCookieName
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies()
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"
	sm.Cookie.Persist = false

	return &FlashManager{SessionManager: sm, store: store}, nil
}

// Add queues a flash message for the next render.
func (fm *FlashManager) Add(ctx context.Context, level FlashLevel, message string) {
	flashes, _ := fm.Get(ctx, sessionKeyFlashes).([]Flash)
	fm.Put(ctx, sessionKeyFlashes, append(flashes, Flash{Level: level, Message: message}))
}

// Pop returns and clears the queued flash messages.
func (fm *FlashManager) Pop(ctx context.Context) []Flash {
	flashes, _ := fm.SessionManager.Pop(ctx, sessionKeyFlashes).([]Flash)
	return flashes
}

// Close stops the expired-session cleanup goroutine.
func (fm *FlashManager) Close() {
	fm.store.StopCleanup()
}
