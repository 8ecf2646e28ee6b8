package firebase

import (
	"context"
	"time"

	"firebase.google.com/go/v4/auth"

	"github.com/mrlokans/prepwise/internal/identity"
)

// authClient is the subset of *auth.Client used by Admin.
type authClient interface {
	GetUser(ctx context.Context, uid string) (*auth.UserRecord, error)
	GetUserByEmail(ctx context.Context, email string) (*auth.UserRecord, error)
	UpdateUser(ctx context.Context, uid string, user *auth.UserToUpdate) (*auth.UserRecord, error)
	SessionCookie(ctx context.Context, idToken string, expiresIn time.Duration) (string, error)
	VerifySessionCookie(ctx context.Context, sessionCookie string) (*auth.Token, error)
	VerifySessionCookieAndCheckRevoked(ctx context.Context, sessionCookie string) (*auth.Token, error)
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

// Admin exposes the Firebase admin capabilities as identity types.
type Admin struct {
	client authClient
}

func NewAdmin(client authClient) *Admin {
	return &Admin{client: client}
}

func (a *Admin) GetUser(ctx context.Context, uid string) (*identity.UserRecord, error) {
	u, err := a.client.GetUser(ctx, uid)
	if err != nil {
		return nil, lookupError(err)
	}
	return toUserRecord(u), nil
}

func (a *Admin) GetUserByEmail(ctx context.Context, email string) (*identity.UserRecord, error) {
	u, err := a.client.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, lookupError(err)
	}
	return toUserRecord(u), nil
}

// SetDisabled enables or disables an account. Disabled accounts fail
// session verification with revocation checks.
func (a *Admin) SetDisabled(ctx context.Context, uid string, disabled bool) error {
	if _, err := a.client.UpdateUser(ctx, uid, (&auth.UserToUpdate{}).Disabled(disabled)); err != nil {
		if auth.IsUserNotFound(err) {
			return identity.NewError(identity.CodeUserNotFound, identity.ErrUserNotFound.Message, err)
		}
		return identity.NewError(identity.CodeInternal, "failed to update user", err)
	}
	return nil
}

func lookupError(err error) error {
	if auth.IsUserNotFound(err) {
		return identity.NewError(identity.CodeUserNotFound, identity.ErrUserNotFound.Message, err)
	}
	return identity.NewError(identity.CodeInternal, "failed to look up user", err)
}

func toUserRecord(u *auth.UserRecord) *identity.UserRecord {
	record := &identity.UserRecord{Disabled: u.Disabled}
	if u.UserInfo != nil {
		record.UID = u.UID
		record.Email = u.Email
	}
	return record
}

func (a *Admin) CreateSessionCookie(ctx context.Context, idToken string, expiresIn time.Duration) (string, error) {
	if expiresIn < identity.MinSessionDuration || expiresIn > identity.MaxSessionDuration {
		return "", identity.ErrSessionDuration
	}

	cookie, err := a.client.SessionCookie(ctx, idToken, expiresIn)
	if err != nil {
		if auth.IsIDTokenInvalid(err) || auth.IsIDTokenExpired(err) {
			return "", identity.NewError(identity.CodeInvalidIDToken, identity.ErrInvalidIDToken.Message, err)
		}
		return "", identity.NewError(identity.CodeInternal, "failed to create session cookie", err)
	}
	return cookie, nil
}

func (a *Admin) VerifySessionCookie(ctx context.Context, cookie string, checkRevoked bool) (*identity.SessionToken, error) {
	var (
		token *auth.Token
		err   error
	)
	if checkRevoked {
		token, err = a.client.VerifySessionCookieAndCheckRevoked(ctx, cookie)
	} else {
		token, err = a.client.VerifySessionCookie(ctx, cookie)
	}
	if err != nil {
		switch {
		case auth.IsSessionCookieRevoked(err):
			return nil, identity.NewError(identity.CodeSessionCookieRevoked, identity.ErrSessionRevoked.Message, err)
		case auth.IsUserDisabled(err):
			return nil, identity.NewError(identity.CodeUserDisabled, identity.ErrUserDisabled.Message, err)
		default:
			return nil, identity.NewError(identity.CodeInvalidSessionCookie, identity.ErrSessionInvalid.Message, err)
		}
	}

	session := &identity.SessionToken{
		UID:       token.UID,
		IssuedAt:  time.Unix(token.IssuedAt, 0),
		ExpiresAt: time.Unix(token.Expires, 0),
	}
	if email, ok := token.Claims["email"].(string); ok {
		session.Email = email
	}
	return session, nil
}

func (a *Admin) RevokeSessions(ctx context.Context, uid string) error {
	if err := a.client.RevokeRefreshTokens(ctx, uid); err != nil {
		if auth.IsUserNotFound(err) {
			return identity.NewError(identity.CodeUserNotFound, identity.ErrUserNotFound.Message, err)
		}
		return identity.NewError(identity.CodeInternal, "failed to revoke sessions", err)
	}
	return nil
}
