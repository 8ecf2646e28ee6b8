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

// DisableAccountCommand blocks an account from signing in, or lifts the block.
type DisableAccountCommand struct {
	Email        string
	Enable       bool
	DatabasePath string
	Timeout      time.Duration

	out io.Writer
}

// NewDisableAccountCommand creates a new DisableAccountCommand
func NewDisableAccountCommand() *DisableAccountCommand {
	return &DisableAccountCommand{out: os.Stdout}
}

// ParseFlags parses command line flags
func (cmd *DisableAccountCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("disable-account", flag.ContinueOnError)

	envDBPath := os.Getenv("DATABASE_PATH")
	if envDBPath == "" {
		envDBPath = config.DefaultDatabasePath
	}

	fs.StringVar(&cmd.Email, "email", "", "Email address of the account (required)")
	fs.BoolVar(&cmd.Enable, "enable", false, "Re-enable a disabled account instead")
	fs.StringVar(&cmd.DatabasePath, "db", envDBPath, "Path to the application database")
	fs.DurationVar(&cmd.Timeout, "timeout", 30*time.Second, "Timeout for the provider calls")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s disable-account -email <address> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Disable an account and revoke its sessions, or re-enable it with -enable.\n")
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

// Run updates the account using the provider configured in the environment.
func (cmd *DisableAccountCommand) Run() error {
	return withBackend(cmd.DatabasePath, cmd.Timeout, func(ctx context.Context, backend *entrypoint.Backend, auditLogger auth.AuditLogger) error {
		return cmd.apply(ctx, backend.Admin, backend.Users, auditLogger)
	})
}

func (cmd *DisableAccountCommand) apply(ctx context.Context, admin auth.AdminService, users auth.UserStore, auditLogger auth.AuditLogger) error {
	actions := auth.NewActions(admin, users, auth.CookieOptions{Name: auth.SessionCookieName}, logger.Discard())

	action, verb := entities.AuditActionDisable, "Disabled"
	if cmd.Enable {
		action, verb = entities.AuditActionEnable, "Enabled"
	}

	uid, err := actions.SetAccountDisabled(ctx, cmd.Email, !cmd.Enable)
	auditLogger.LogAuth(audit.AuthEvent{
		UserID: uid,
		Email:  cmd.Email,
		Action: action,
		Err:    err,
	})
	if err != nil {
		return fmt.Errorf("failed to update account %s: %w", cmd.Email, err)
	}

	fmt.Fprintf(cmd.out, "%s account %s (uid %s)\n", verb, cmd.Email, uid)
	return nil
}
