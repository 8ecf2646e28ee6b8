package entrypoint

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/prepwise/internal/audit"
	"github.com/mrlokans/prepwise/internal/auth"
	"github.com/mrlokans/prepwise/internal/config"
	"github.com/mrlokans/prepwise/internal/database"
	auditRepo "github.com/mrlokans/prepwise/internal/database/audit"
	http_controllers "github.com/mrlokans/prepwise/internal/http"
	"github.com/mrlokans/prepwise/internal/logger"
	"github.com/mrlokans/prepwise/internal/scheduler"
	"github.com/mrlokans/prepwise/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, log *slog.Logger, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("listen failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server.
	// kill -9 is SIGKILL and can't be caught, so it is not handled here.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server", "timeout", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", "error", err)
	}

	// Stop background work once no new requests can arrive
	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Info("server exiting")
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "error", err)
	os.Exit(1)
}

func Run(cfg *config.Config, version string) {
	log := logger.New(cfg.Global.LogLevel)
	log.Info("starting PrepWise", "version", version, "environment", cfg.Global.Environment)

	if err := cfg.Validate(); err != nil {
		fatal(log, "invalid configuration", err)
	}

	if cfg.Global.Environment == config.EnvironmentProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewDatabase(cfg.Database.Path, database.Options{Logger: log})
	if err != nil {
		fatal(log, "failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("error closing database", "error", err)
		}
	}()

	secret, generated, err := auth.ResolveSecret(cfg.Auth.SessionSecret)
	if err != nil {
		fatal(log, "failed to resolve session secret", err)
	}
	if generated {
		log.Warn("generated a session secret, set AUTH_SESSION_SECRET to keep sessions across restarts")
	}
	tokenKey, err := auth.DeriveKey(secret, auth.KeyPurposeTokens)
	if err != nil {
		fatal(log, "failed to derive token signing key", err)
	}
	csrfKey, err := auth.DeriveKey(secret, auth.KeyPurposeCSRF)
	if err != nil {
		fatal(log, "failed to derive CSRF key", err)
	}

	backend, err := NewBackend(context.Background(), cfg, db, tokenKey, log)
	if err != nil {
		fatal(log, "failed to initialize identity provider", err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			log.Error("error closing identity provider", "error", err)
		}
	}()

	sqlDB, err := db.DB.DB()
	if err != nil {
		fatal(log, "failed to get SQL DB for flash sessions", err)
	}
	flash, err := auth.NewFlashManager(sqlDB, cfg.Auth)
	if err != nil {
		fatal(log, "failed to initialize flash sessions", err)
	}
	defer flash.Close()

	rateLimiter := auth.NewRateLimiter(auth.RateLimitConfigFrom(cfg.Auth))
	defer rateLimiter.Stop()

	auditService := audit.NewService(auditRepo.NewRepository(db.DB), log)

	if replayed, err := rateLimiter.Restore(context.Background(), auditService); err != nil {
		log.Warn("failed to restore sign-in rate limits", "error", err)
	} else if replayed > 0 {
		log.Info("restored sign-in rate limits", "failed_attempts", replayed)
	}

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var enqueuer scheduler.TaskEnqueuer
	taskCtx, taskCtxCancel := context.WithCancel(context.Background())
	defer taskCtxCancel()
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.ConfigFrom(cfg.Tasks), log)
		if err != nil {
			fatal(log, "failed to initialize task queue", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Error("error closing task client", "error", err)
			}
		}()

		taskClient.Register(tasks.NewCleanupAuditEventsQueue(auditService, log))
		go taskClient.Start(taskCtx)
		enqueuer = taskClient
	}

	retention := scheduler.NewAuditRetentionScheduler(scheduler.AuditRetentionConfig{
		Schedule:      cfg.Audit.CleanupSchedule,
		RetentionDays: cfg.Audit.RetentionDays,
		Enqueuer:      enqueuer,
		Cleaner:       auditService,
		Logger:        log,
	})
	if err := retention.Start(taskCtx); err != nil {
		fatal(log, "failed to start audit retention scheduler", err)
	}

	cookie := auth.NewCookieOptions(cfg.Auth)
	actions := auth.NewActions(backend.Admin, backend.Users, cookie, log)

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Database:      db,
		Actions:       actions,
		Form:          auth.NewForm(backend.Client, actions, cfg.Auth.PasswordMinLength, log),
		Logger:        log,
		Flash:         flash,
		RateLimiter:   rateLimiter,
		Audit:         auditService,
		History:       auditService,
		CSRFSecret:    csrfKey,
		SecureCookies: cookie.Secure,
		StaticPath:    cfg.UI.StaticPath,
		Version:       version,
		ProviderName:  backend.Name,
	})

	onShutdown := func(ctx context.Context) {
		retention.Stop()
		if taskClient != nil {
			taskClient.Stop(ctx)
		}
		taskCtxCancel()
		auditService.Wait()
	}

	Serve(router, cfg, log, onShutdown)
}
