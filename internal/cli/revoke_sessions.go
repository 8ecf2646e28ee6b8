package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mrlokans/prepwise/internal/audit"
	"github.com/mrlokans/prepwise/internal/auth"
	"github.com/mrlokans/prepwise/internal/config"
	"github.com/mrlokans/prepwise/internal/entities"
	"github.com/mrlokans/prepwise/internal/entrypoint"
	"github.com/mrlokans/prepwise/internal/logger"
)

// RevokeSessionsCommand invalidates every session cookie issued to an account.
type RevokeSessionsCommand struct {
	Email        string
	DatabasePath string
	Timeout      time.Duration

	out io.Writer
}

// NewRevokeSessionsCommand creates a new RevokeSessionsCommand
func NewRevokeSessionsCommand() *RevokeSessionsCommand {
	return &RevokeSessionsCommand{out: os.Stdout}
}

// ParseFlags parses command line flags
func (cmd *RevokeSessionsCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("revoke-sessions", flag.ContinueOnError)

	envDBPath := os.Getenv("DATABASE_PATH")
	if envDBPath == "" {
		envDBPath = config.DefaultDatabasePath
	}

	fs.StringVar(&cmd.Email, "email", "", "Email address of the account (required)")
	fs.StringVar(&cmd.DatabasePath, "db", envDBPath, "Path to the application database")
	fs.DurationVar(&cmd.Timeout, "timeout", 30*time.Second, "Timeout for the provider calls")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s revoke-sessions -email <address> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Sign an account out everywhere by revoking all of its session cookies.\n")
		fmt.Fprintf(os.Stderr, "The identity provider is selected with AUTH_PROVIDER as for 'serve'.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Email == "" {
		return errors.New("email required: use -email flag")
	}

	return nil
}

// Run revokes the sessions using the provider configured in the environment.
func (cmd *RevokeSessionsCommand) Run() error {
	return withBackend(cmd.DatabasePath, cmd.Timeout, func(ctx context.Context, backend *entrypoint.Backend, auditLogger auth.AuditLogger) error {
		return cmd.revoke(ctx, backend.Admin, backend.Users, auditLogger)
	})
}

func (cmd *RevokeSessionsCommand) revoke(ctx context.Context, admin auth.AdminService, users auth.UserStore, auditLogger auth.AuditLogger) error {
	actions := auth.NewActions(admin, users, auth.CookieOptions{Name: auth.SessionCookieName}, logger.Discard())

	uid, err := actions.RevokeSessions(ctx, cmd.Email)
	auditLogger.LogAuth(audit.AuthEvent{
		UserID: uid,
		Email:  cmd.Email,
		Action: entities.AuditActionRevoke,
		Err:    err,
	})
	if err != nil {
		return fmt.Errorf("failed to revoke sessions for %s: %w", cmd.Email, err)
	}

	fmt.Fprintf(cmd.out, "Revoked all sessions for %s (uid %s)\n", cmd.Email, uid)
	return nil
}
