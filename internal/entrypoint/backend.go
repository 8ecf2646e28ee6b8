package entrypoint

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mrlokans/prepwise/internal/auth"
	"github.com/mrlokans/prepwise/internal/config"
	"github.com/mrlokans/prepwise/internal/database"
	"github.com/mrlokans/prepwise/internal/database/users"
	"github.com/mrlokans/prepwise/internal/identity/firebase"
	"github.com/mrlokans/prepwise/internal/identity/local"
)

// Backend is the identity provider wired for the configured mode.
type Backend struct {
	Name   string
	Client auth.CredentialClient
	Admin  auth.AdminService
	Users  auth.UserStore

	closeFn func() error
}

// Close releases provider connections.
func (b *Backend) Close() error {
	if b.closeFn == nil {
		return nil
	}
	return b.closeFn()
}

// NewBackend builds the identity provider selected by AUTH_PROVIDER. The
// token key signs local identity tokens and session cookies.
func NewBackend(ctx context.Context, cfg *config.Config, db *database.Database, tokenKey []byte, logger *slog.Logger) (*Backend, error) {
	switch cfg.Auth.Provider {
	case config.ProviderLocal, "":
		provider, err := local.NewProvider(db.DB, local.Config{
			Secret:            tokenKey,
			IDTokenLifetime:   cfg.Auth.IDTokenLifetime,
			PasswordMinLength: cfg.Auth.PasswordMinLength,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize local identity provider: %w", err)
		}
		logger.Info("identity provider initialized", "provider", config.ProviderLocal)
		return &Backend{
			Name:   string(config.ProviderLocal),
			Client: provider,
			Admin:  provider,
			Users:  users.NewRepository(db.DB),
		}, nil

	case config.ProviderFirebase:
		app, err := firebase.NewApp(ctx, cfg.Firebase)
		if err != nil {
			return nil, err
		}
		if cfg.Firebase.APIKey == "" {
			logger.Warn("FIREBASE_API_KEY is not set, password sign-up and sign-in will fail")
		}
		logger.Info("identity provider initialized", "provider", config.ProviderFirebase, "project", cfg.Firebase.ProjectID)
		return &Backend{
			Name:    string(config.ProviderFirebase),
			Client:  firebase.NewClient(cfg.Firebase.IdentityToolkitURL, cfg.Firebase.APIKey),
			Admin:   firebase.NewAdmin(app.Auth),
			Users:   firebase.NewStore(app.Firestore),
			closeFn: app.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown AUTH_PROVIDER %q (expected %q or %q)", cfg.Auth.Provider, config.ProviderLocal, config.ProviderFirebase)
	}
}
