package http

import (
	"log/slog"

	"github.com/mrlokans/prepwise/internal/auth"
	"github.com/mrlokans/prepwise/internal/database"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database *database.Database
	Actions  *auth.Actions
	Form     *auth.Form
	Logger   *slog.Logger

	// Optional auth add-ons
	Flash       *auth.FlashManager
	RateLimiter *auth.RateLimiter
	Audit       auth.AuditLogger
	History     AuditHistory

	// CSRF protection is enabled when the secret is set
	CSRFSecret    []byte
	SecureCookies bool

	// Static assets are served from disk when set, embedded otherwise
	StaticPath string

	// Application info
	Version      string
	ProviderName string
}
