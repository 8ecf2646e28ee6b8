package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/mrlokans/prepwise/internal/audit"
	"github.com/mrlokans/prepwise/internal/auth"
	"github.com/mrlokans/prepwise/internal/entities"
)

// AuthAPIController exposes the auth actions as JSON endpoints for browser
// clients that talk to the identity provider directly.
type AuthAPIController struct {
	actions     *auth.Actions
	auditLogger auth.AuditLogger
	logger      *slog.Logger
}

func NewAuthAPIController(actions *auth.Actions, auditLogger auth.AuditLogger, logger *slog.Logger) *AuthAPIController {
	return &AuthAPIController{
		actions:     actions,
		auditLogger: auditLogger,
		logger:      logger,
	}
}

// UserResponse is the public view of a profile.
type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func validateSignUp(p auth.SignUpParams) error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.UID, validation.Required),
		validation.Field(&p.Name, validation.Required, validation.Length(3, 0)),
		validation.Field(&p.Email, validation.Required, is.Email),
	)
}

func validateSignIn(p auth.SignInParams) error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Email, validation.Required, is.Email),
		validation.Field(&p.IDToken, validation.Required),
	)
}

// SignUp handles POST /api/auth/sign-up
func (ac *AuthAPIController) SignUp(c *gin.Context) {
	var params auth.SignUpParams
	if err := c.ShouldBindJSON(&params); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if err := validateSignUp(params); err != nil {
		respondValidationError(c, auth.FieldErrors(err))
		return
	}

	result := ac.actions.SignUp(c.Request.Context(), params)
	ac.audit(c, params.Email, params.UID, entities.AuditActionSignUp, result)
	c.JSON(result.Kind.HTTPStatus(), result)
}

// SignIn handles POST /api/auth/sign-in
func (ac *AuthAPIController) SignIn(c *gin.Context) {
	var params auth.SignInParams
	if err := c.ShouldBindJSON(&params); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if err := validateSignIn(params); err != nil {
		respondValidationError(c, auth.FieldErrors(err))
		return
	}

	jar := auth.RequestCookies(c)
	result := ac.actions.SignIn(c.Request.Context(), jar, params)

	uid := ""
	if result.Success {
		if user := ac.actions.GetCurrentUser(c.Request.Context(), jar); user != nil {
			uid = user.ID
		}
	}
	ac.audit(c, params.Email, uid, entities.AuditActionSignIn, result)
	c.JSON(result.Kind.HTTPStatus(), result)
}

// Me handles GET /api/auth/me
func (ac *AuthAPIController) Me(c *gin.Context) {
	user := ac.actions.GetCurrentUser(c.Request.Context(), auth.RequestCookies(c))
	if user == nil {
		respondUnauthorized(c, "not authenticated")
		return
	}
	c.JSON(http.StatusOK, UserResponse{ID: user.ID, Name: user.Name, Email: user.Email})
}

func (ac *AuthAPIController) audit(c *gin.Context, email, uid, action string, result auth.Result) {
	if ac.auditLogger == nil {
		return
	}

	event := audit.AuthEvent{
		UserID:    uid,
		Email:     email,
		Action:    action,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
	if !result.Success {
		event.Err = &resultError{result: result}
	}
	ac.auditLogger.LogAuth(event)
}

type resultError struct {
	result auth.Result
}

func (e *resultError) Error() string {
	return string(e.result.Kind) + ": " + e.result.Message
}
