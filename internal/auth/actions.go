package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/mrlokans/prepwise/internal/entities"
	"github.com/mrlokans/prepwise/internal/identity"
)

// Messages returned by the auth actions.
const (
	MsgUserAlreadyExists = "user already exists. Please sign in instead."
	MsgEmailInUse        = "This email is already in use"
	MsgCreateFailed      = "Failed to create an account"
	MsgAccountCreated    = "Account created successfully. Please sign in"
	MsgUserNotFound      = "User does not exist. Create an account instead."
	MsgAccountMismatch   = "The account does not match the supplied email."
	MsgSignInFailed      = "Failed to log into an account"
	MsgSignedIn          = "Successfully logged in."
)

// SignUpParams carries the identifier returned by the credential client
// together with the profile fields.
type SignUpParams struct {
	UID   string `json:"uid"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SignInParams carries the identity token obtained from the credential client.
type SignInParams struct {
	Email   string `json:"email"`
	IDToken string `json:"idToken"`
}

// Actions implements sign-up, sign-in and session resolution on top of the
// identity provider admin service and the user store.
type Actions struct {
	admin  AdminService
	users  UserStore
	cookie CookieOptions
	logger *slog.Logger
}

func NewActions(admin AdminService, users UserStore, cookie CookieOptions, logger *slog.Logger) *Actions {
	return &Actions{
		admin:  admin,
		users:  users,
		cookie: cookie,
		logger: logger,
	}
}

// SignUp stores the profile for a freshly created account. The uid must name
// a provider account registered under the same email. An existing profile is
// never overwritten.
func (a *Actions) SignUp(ctx context.Context, params SignUpParams) Result {
	record, err := a.admin.GetUser(ctx, params.UID)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return failure(KindAccountMismatch, MsgAccountMismatch)
		}
		a.logger.Error("failed to look up account", "uid", params.UID, "error", err)
		return failure(KindCreateFailed, MsgCreateFailed)
	}
	if !strings.EqualFold(strings.TrimSpace(record.Email), strings.TrimSpace(params.Email)) {
		a.logger.Warn("sign-up email does not match the account", "uid", params.UID)
		return failure(KindAccountMismatch, MsgAccountMismatch)
	}

	err = a.users.Create(ctx, &entities.User{
		ID:    params.UID,
		Name:  params.Name,
		Email: params.Email,
	})
	switch {
	case err == nil:
		return success(MsgAccountCreated)
	case errors.Is(err, entities.ErrRecordExists):
		return failure(KindAlreadyExists, MsgUserAlreadyExists)
	case identity.IsDuplicateEmail(err), errors.Is(err, entities.ErrEmailTaken):
		return failure(KindEmailInUse, MsgEmailInUse)
	default:
		a.logger.Error("error creating a user", "uid", params.UID, "error", err)
		return failure(KindCreateFailed, MsgCreateFailed)
	}
}

// SignIn checks that the account exists and issues the session cookie.
func (a *Actions) SignIn(ctx context.Context, jar CookieJar, params SignInParams) Result {
	if _, err := a.admin.GetUserByEmail(ctx, params.Email); err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return failure(KindUserNotFound, MsgUserNotFound)
		}
		a.logger.Error("failed to look up account", "email", params.Email, "error", err)
		return failure(KindSignInFailed, MsgSignInFailed)
	}

	if err := a.SetSessionCookies(ctx, jar, params.IDToken); err != nil {
		a.logger.Error("failed to set session cookie", "email", params.Email, "error", err)
		return failure(KindSignInFailed, MsgSignInFailed)
	}

	return success(MsgSignedIn)
}

// SetSessionCookies exchanges the identity token for a session cookie and
// attaches it to the response.
func (a *Actions) SetSessionCookies(ctx context.Context, jar CookieJar, idToken string) error {
	value, err := a.admin.CreateSessionCookie(ctx, idToken, a.cookie.MaxAge)
	if err != nil {
		return err
	}
	jar.SetCookie(a.cookie.cookie(value, int(a.cookie.MaxAge.Seconds())))
	return nil
}

// GetCurrentUser resolves the profile behind the session cookie. Any
// failure, including a missing or revoked cookie, yields nil.
func (a *Actions) GetCurrentUser(ctx context.Context, jar CookieJar) *entities.User {
	value, ok := jar.Cookie(a.cookie.Name)
	if !ok {
		return nil
	}

	token, err := a.admin.VerifySessionCookie(ctx, value, true)
	if err != nil {
		a.logger.Debug("session cookie rejected", "error", err)
		return nil
	}

	user, err := a.users.Get(ctx, token.UID)
	if err != nil {
		if !errors.Is(err, entities.ErrRecordNotFound) {
			a.logger.Warn("failed to load user profile", "uid", token.UID, "error", err)
		}
		return nil
	}
	user.ID = token.UID
	return user
}

// IsAuthenticated reports whether the request carries a session for a known profile.
func (a *Actions) IsAuthenticated(ctx context.Context, jar CookieJar) bool {
	return a.GetCurrentUser(ctx, jar) != nil
}

// SignOut expires the session cookie.
func (a *Actions) SignOut(jar CookieJar) {
	jar.SetCookie(a.cookie.cookie("", -1))
}

// RevokeSessions invalidates every session of the account registered under email.
func (a *Actions) RevokeSessions(ctx context.Context, email string) (string, error) {
	record, err := a.admin.GetUserByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if err := a.admin.RevokeSessions(ctx, record.UID); err != nil {
		return "", err
	}
	return record.UID, nil
}

// SetAccountDisabled disables or re-enables the account registered under
// email. Disabling also revokes its sessions.
func (a *Actions) SetAccountDisabled(ctx context.Context, email string, disabled bool) (string, error) {
	record, err := a.admin.GetUserByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if err := a.admin.SetDisabled(ctx, record.UID, disabled); err != nil {
		return "", err
	}
	if disabled {
		if err := a.admin.RevokeSessions(ctx, record.UID); err != nil {
			return record.UID, err
		}
	}
	return record.UID, nil
}
