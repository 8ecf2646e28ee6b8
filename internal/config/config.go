package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type ProviderKind string

const (
	ProviderLocal    ProviderKind = "local"    // Self-hosted accounts in the application database (default)
	ProviderFirebase ProviderKind = "firebase" // Firebase Auth + Firestore
)

const EnvironmentProduction = "production"

type (
	Config struct {
		HTTP
		Global
		Database
		UI
		Auth
		Firebase
		Audit
		Tasks
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		Environment              string // "production" enables secure cookies
		ShutdownTimeoutInSeconds int
		LogLevel                 string
	}
	Database struct {
		Path string
	}
	UI struct {
		StaticPath string
	}
	Auth struct {
		Provider          ProviderKind
		SessionSecret     string
		SessionLifetime   time.Duration // Session cookie lifetime (default: 7 days)
		IDTokenLifetime   time.Duration // Local provider identity token lifetime (default: 1h)
		PasswordMinLength int
		FlashLifetime     time.Duration

		// Rate limiting configuration
		MaxLoginAttempts int           // Max failed attempts before lockout (default: 5)
		RateLimitWindow  time.Duration // Time window for counting attempts (default: 15m)
		LockoutDuration  time.Duration // How long to lock out (default: 30m)

		Environment string
	}
	Firebase struct {
		ProjectID          string
		ClientEmail        string
		PrivateKey         string
		APIKey             string // Web API key used by the Identity Toolkit REST endpoints
		IdentityToolkitURL string
	}
	Audit struct {
		RetentionDays   int
		CleanupSchedule string // Cron format: "30 3 * * *" = daily at 03:30
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
)

// SecureCookies reports whether cookies must carry the Secure attribute.
func (a Auth) SecureCookies() bool {
	return a.Environment == EnvironmentProduction
}

// Validate rejects settings the identity providers would refuse at request
// time, so a misconfiguration stops startup instead of failing every sign-in.
func (c *Config) Validate() error {
	var errs []error

	switch c.Auth.Provider {
	case ProviderLocal, ProviderFirebase, "":
	default:
		errs = append(errs, fmt.Errorf("AUTH_PROVIDER %q is not one of %q, %q", c.Auth.Provider, ProviderLocal, ProviderFirebase))
	}

	if lifetime := c.Auth.SessionLifetime; lifetime < MinSessionLifetime || lifetime > MaxSessionLifetime {
		errs = append(errs, fmt.Errorf("AUTH_SESSION_LIFETIME %s must be between %s and %s", lifetime, MinSessionLifetime, MaxSessionLifetime))
	}

	if c.Auth.PasswordMinLength < 0 {
		errs = append(errs, fmt.Errorf("AUTH_PASSWORD_MIN_LENGTH must not be negative, got %d", c.Auth.PasswordMinLength))
	}

	return errors.Join(errs...)
}

// normalizePrivateKey expands escaped newlines so PEM keys can be passed
// through single-line environment variables.
func normalizePrivateKey(key string) string {
	return strings.ReplaceAll(key, `\n`, "\n")
}

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 3000)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("app_env", "development")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("log_level", "info")
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("static_path", "") // Embedded assets unless set

	// Auth defaults
	v.SetDefault("auth_provider", string(ProviderLocal))
	v.SetDefault("auth_session_secret", "") // Auto-generated if empty
	v.SetDefault("auth_session_lifetime", DefaultSessionLifetime.String())
	v.SetDefault("auth_id_token_lifetime", "1h")
	v.SetDefault("auth_password_min_length", DefaultPasswordMinLength)
	v.SetDefault("auth_flash_lifetime", "10m")
	v.SetDefault("auth_max_login_attempts", 5)
	v.SetDefault("auth_rate_limit_window", "15m")
	v.SetDefault("auth_lockout_duration", "30m")

	// Firebase defaults
	v.SetDefault("firebase_identity_toolkit_url", DefaultIdentityToolkitURL)

	// Audit defaults
	v.SetDefault("audit_retention_days", 30)
	v.SetDefault("audit_cleanup_schedule", "30 3 * * *")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	environment := v.GetString("APP_ENV")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			Environment:              environment,
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
			LogLevel:                 v.GetString("LOG_LEVEL"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		UI: UI{
			StaticPath: v.GetString("STATIC_PATH"),
		},
		Auth: Auth{
			Provider:          ProviderKind(strings.ToLower(v.GetString("AUTH_PROVIDER"))),
			SessionSecret:     v.GetString("AUTH_SESSION_SECRET"),
			SessionLifetime:   v.GetDuration("AUTH_SESSION_LIFETIME"),
			IDTokenLifetime:   v.GetDuration("AUTH_ID_TOKEN_LIFETIME"),
			PasswordMinLength: v.GetInt("AUTH_PASSWORD_MIN_LENGTH"),
			FlashLifetime:     v.GetDuration("AUTH_FLASH_LIFETIME"),
			MaxLoginAttempts:  v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			RateLimitWindow:   v.GetDuration("AUTH_RATE_LIMIT_WINDOW"),
			LockoutDuration:   v.GetDuration("AUTH_LOCKOUT_DURATION"),
			Environment:       environment,
		},
		Firebase: Firebase{
			ProjectID:          v.GetString("FIREBASE_PROJECT_ID"),
			ClientEmail:        v.GetString("FIREBASE_CLIENT_EMAIL"),
			PrivateKey:         normalizePrivateKey(v.GetString("FIREBASE_PRIVATE_KEY")),
			APIKey:             v.GetString("FIREBASE_API_KEY"),
			IdentityToolkitURL: v.GetString("FIREBASE_IDENTITY_TOOLKIT_URL"),
		},
		Audit: Audit{
			RetentionDays:   v.GetInt("AUDIT_RETENTION_DAYS"),
			CleanupSchedule: v.GetString("AUDIT_CLEANUP_SCHEDULE"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
	}
}
