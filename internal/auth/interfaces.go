package auth

import (
	"context"
	"time"

	"github.com/mrlokans/prepwise/internal/entities"
	"github.com/mrlokans/prepwise/internal/identity"
)

// CredentialClient creates and authenticates email/password accounts on
// behalf of the end user.
type CredentialClient interface {
	CreateAccount(ctx context.Context, email, password string) (string, error)
	SignInWithPassword(ctx context.Context, email, password string) (*identity.Credential, error)
}

// AdminService is the privileged side of the identity provider.
type AdminService interface {
	GetUser(ctx context.Context, uid string) (*identity.UserRecord, error)
	GetUserByEmail(ctx context.Context, email string) (*identity.UserRecord, error)
	CreateSessionCookie(ctx context.Context, idToken string, expiresIn time.Duration) (string, error)
	VerifySessionCookie(ctx context.Context, cookie string, checkRevoked bool) (*identity.SessionToken, error)
	RevokeSessions(ctx context.Context, uid string) error
	SetDisabled(ctx context.Context, uid string, disabled bool) error
}

// UserStore persists user profiles keyed by account identifier.
// Create must fail with entities.ErrRecordExists when a profile already exists.
type UserStore interface {
	Get(ctx context.Context, id string) (*entities.User, error)
	Create(ctx context.Context, user *entities.User) error
}
