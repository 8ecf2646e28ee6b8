package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/mrlokans/prepwise/internal/audit"
	"github.com/mrlokans/prepwise/internal/auth"
	"github.com/mrlokans/prepwise/internal/config"
	"github.com/mrlokans/prepwise/internal/database"
	auditRepo "github.com/mrlokans/prepwise/internal/database/audit"
	"github.com/mrlokans/prepwise/internal/entrypoint"
	"github.com/mrlokans/prepwise/internal/logger"
)

// withBackend opens the database and the configured identity provider, runs
// fn and waits for its audit events to be written.
func withBackend(dbPath string, timeout time.Duration, fn func(ctx context.Context, backend *entrypoint.Backend, auditLogger auth.AuditLogger) error) error {
	cfg := config.NewConfig()
	cfg.Database.Path = dbPath
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	log := logger.New(cfg.Global.LogLevel)

	db, err := database.NewDatabase(cfg.Database.Path, database.Options{})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	// Admin commands only touch account state, so an ephemeral secret is enough
	secret, _, err := auth.ResolveSecret(cfg.Auth.SessionSecret)
	if err != nil {
		return err
	}
	tokenKey, err := auth.DeriveKey(secret, auth.KeyPurposeTokens)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	backend, err := entrypoint.NewBackend(ctx, cfg, db, tokenKey, log)
	if err != nil {
		return err
	}
	defer backend.Close()

	auditService := audit.NewService(auditRepo.NewRepository(db.DB), log)
	defer auditService.Wait()

	return fn(ctx, backend, auditService)
}
