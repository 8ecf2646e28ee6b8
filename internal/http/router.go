package http

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/prepwise/internal/auth"
	"github.com/mrlokans/prepwise/internal/web"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.SecureCookies {
		router.Use(auth.StrictTransportSecurityMiddleware())
	}

	// CSRF must run before the flash session so that the session context
	// survives CSRF's request replacement
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}

	if cfg.Flash != nil {
		router.Use(cfg.Flash.LoadAndSave())
	}

	tmpl := template.Must(web.ParseTemplates(template.FuncMap{}))
	router.SetHTMLTemplate(tmpl)

	if cfg.StaticPath != "" {
		router.Static("/static", cfg.StaticPath)
	} else {
		router.StaticFS("/static", http.FS(web.Static()))
	}

	guard := auth.NewGuard(cfg.Actions)

	// Health endpoints
	health := NewHealthController(cfg.Database, cfg.Version, cfg.ProviderName)
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Auth form pages and sign-out
	formController := auth.NewFormController(auth.FormControllerConfig{
		Form:        cfg.Form,
		Actions:     cfg.Actions,
		Flash:       cfg.Flash,
		RateLimiter: cfg.RateLimiter,
		Audit:       cfg.Audit,
		Logger:      cfg.Logger,
	})
	formController.RegisterRoutes(router, guard)

	// JSON auth actions
	authAPI := NewAuthAPIController(cfg.Actions, cfg.Audit, cfg.Logger)
	router.POST("/api/auth/sign-up", authAPI.SignUp)
	router.POST("/api/auth/sign-in", authAPI.SignIn)
	router.GET("/api/auth/me", authAPI.Me)
	if cfg.History != nil {
		auditController := NewAuditController(cfg.Actions, cfg.History, cfg.Logger)
		router.GET("/api/auth/audit", auditController.GetAuditEvents)
	}

	// Protected pages
	pages := NewPagesController(cfg.Flash)
	router.GET(auth.HomePath, guard.Protected(), pages.Home)

	return router
}
