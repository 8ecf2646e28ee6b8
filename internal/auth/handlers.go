package auth

import (
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/prepwise/internal/audit"
	"github.com/mrlokans/prepwise/internal/entities"
)

// AuthFormTemplate is the template rendering both form variants.
const AuthFormTemplate = "auth_form.html"

// AuditLogger records authentication events.
type AuditLogger interface {
	LogAuth(event audit.AuthEvent)
}

// FormController serves the sign-in and sign-up pages.
type FormController struct {
	form        *Form
	actions     *Actions
	flash       *FlashManager
	rateLimiter *RateLimiter
	auditLogger AuditLogger
	logger      *slog.Logger
}

// FormControllerConfig holds the controller dependencies. Flash, RateLimiter
// and Audit are optional.
type FormControllerConfig struct {
	Form        *Form
	Actions     *Actions
	Flash       *FlashManager
	RateLimiter *RateLimiter
	Audit       AuditLogger
	Logger      *slog.Logger
}

func NewFormController(cfg FormControllerConfig) *FormController {
	return &FormController{
		form:        cfg.Form,
		actions:     cfg.Actions,
		flash:       cfg.Flash,
		rateLimiter: cfg.RateLimiter,
		auditLogger: cfg.Audit,
		logger:      cfg.Logger,
	}
}

// RegisterRoutes registers the form pages behind the public guard and the
// sign-out endpoint.
func (fc *FormController) RegisterRoutes(router gin.IRouter, guard *Guard) {
	public := router.Group("/", guard.Public())
	public.GET(SignInPath, fc.SignInPage)
	public.POST(SignInPath, fc.SignIn)
	public.GET(SignUpPath, fc.SignUpPage)
	public.POST(SignUpPath, fc.SignUp)

	router.POST("/sign-out", fc.SignOut)
}

func (fc *FormController) SignInPage(c *gin.Context) {
	fc.render(c, http.StatusOK, FormSignIn, FormValues{}, Outcome{})
}

func (fc *FormController) SignUpPage(c *gin.Context) {
	fc.render(c, http.StatusOK, FormSignUp, FormValues{}, Outcome{})
}

// SignUp handles the sign-up form submission.
func (fc *FormController) SignUp(c *gin.Context) {
	values := bindForm(c)

	outcome := fc.form.Submit(c.Request.Context(), RequestCookies(c), FormSignUp, values)
	if outcome.Kind != KindValidation {
		fc.audit(c, values.Email, "", entities.AuditActionSignUp, outcome)
	}

	if !outcome.Success {
		fc.render(c, http.StatusOK, FormSignUp, values, outcome)
		return
	}

	fc.addFlash(c, FlashSuccess, outcome.Message)
	c.Redirect(http.StatusFound, outcome.Redirect)
}

// SignIn handles the sign-in form submission.
func (fc *FormController) SignIn(c *gin.Context) {
	values := bindForm(c)
	clientIP := c.ClientIP()

	if fc.rateLimiter != nil {
		allowed, retryAfter := fc.rateLimiter.Allow(clientIP, values.Email)
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
			fc.render(c, http.StatusTooManyRequests, FormSignIn, values, Outcome{
				Kind:    KindRateLimited,
				Message: MsgFormTooManyAttempts,
			})
			return
		}
	}

	jar := RequestCookies(c)
	outcome := fc.form.Submit(c.Request.Context(), jar, FormSignIn, values)

	if !outcome.Success {
		if fc.rateLimiter != nil && outcome.Kind != KindValidation {
			fc.rateLimiter.RecordFailure(clientIP, values.Email)
		}
		if outcome.Kind != KindValidation {
			fc.audit(c, values.Email, "", entities.AuditActionSignIn, outcome)
		}
		fc.render(c, http.StatusOK, FormSignIn, values, outcome)
		return
	}

	if fc.rateLimiter != nil {
		fc.rateLimiter.RecordSuccess(clientIP, values.Email)
	}

	uid := ""
	if user := fc.actions.GetCurrentUser(c.Request.Context(), jar); user != nil {
		uid = user.ID
	}
	fc.audit(c, values.Email, uid, entities.AuditActionSignIn, outcome)

	fc.addFlash(c, FlashSuccess, outcome.Message)
	c.Redirect(http.StatusFound, outcome.Redirect)
}

// SignOut clears the session cookie and returns to the sign-in page.
func (fc *FormController) SignOut(c *gin.Context) {
	jar := RequestCookies(c)
	if user := fc.actions.GetCurrentUser(c.Request.Context(), jar); user != nil {
		fc.audit(c, user.Email, user.ID, entities.AuditActionSignOut, Outcome{Success: true})
	}

	fc.actions.SignOut(jar)
	c.Redirect(http.StatusFound, SignInPath)
}

func bindForm(c *gin.Context) FormValues {
	return FormValues{
		Name:     c.PostForm("name"),
		Email:    c.PostForm("email"),
		Password: c.PostForm("password"),
	}
}

func (fc *FormController) addFlash(c *gin.Context, level FlashLevel, message string) {
	if fc.flash != nil {
		fc.flash.Add(c.Request.Context(), level, message)
	}
}

func (fc *FormController) popFlashes(c *gin.Context) []Flash {
	if fc.flash == nil {
		return nil
	}
	return fc.flash.Pop(c.Request.Context())
}

func (fc *FormController) audit(c *gin.Context, email, uid, action string, outcome Outcome) {
	if fc.auditLogger == nil {
		return
	}

	event := audit.AuthEvent{
		UserID:    uid,
		Email:     email,
		Action:    action,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
	if !outcome.Success {
		event.Err = &outcomeError{kind: outcome.Kind, message: outcome.Message}
	}
	fc.auditLogger.LogAuth(event)
}

type outcomeError struct {
	kind    Kind
	message string
}

func (e *outcomeError) Error() string {
	return string(e.kind) + ": " + e.message
}

// FormPage is the data passed to the auth form template.
type FormPage struct {
	Title       string
	Type        FormType
	IsSignIn    bool
	Values      FormValues
	Error       string
	FieldErrors map[string]string
	Flashes     []Flash
	CSRFField   template.HTML
}

func (fc *FormController) render(c *gin.Context, status int, formType FormType, values FormValues, outcome Outcome) {
	values.Password = ""

	page := FormPage{
		Title:       "Sign Up",
		Type:        formType,
		IsSignIn:    formType == FormSignIn,
		Values:      values,
		Error:       outcome.Message,
		FieldErrors: outcome.FieldErrors,
		Flashes:     fc.popFlashes(c),
		CSRFField:   CSRFTokenField(c),
	}
	if page.IsSignIn {
		page.Title = "Sign In"
	}

	c.HTML(status, AuthFormTemplate, page)
}
