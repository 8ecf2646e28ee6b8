// Package local is a self-hosted identity provider backed by the application
// database. Accounts are stored in the accounts table with bcrypt password
// hashes; identity tokens and session cookies are HS256-signed JWTs.
package local

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/mrlokans/prepwise/internal/entities"
	"github.com/mrlokans/prepwise/internal/identity"
)

const (
	issuer = "prepwise"

	purposeIDToken = "id"
	purposeSession = "session"

	// bcrypt ignores input past 72 bytes.
	maxPasswordBytes = 72
)

// Config controls token lifetimes and password policy.
type Config struct {
	Secret            []byte
	IDTokenLifetime   time.Duration
	PasswordMinLength int
	BcryptCost        int
}

// Provider manages accounts in the database and implements both the
// credential client and the admin service.
type Provider struct {
	db     *gorm.DB
	cfg    Config
	now    func() time.Time
	newUID func() string
}

// Option customizes a Provider.
type Option func(*Provider)

// WithClock overrides the time source used to issue and verify tokens.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		p.now = now
	}
}

// NewProvider creates a provider. The accounts table must already be migrated.
func NewProvider(db *gorm.DB, cfg Config, opts ...Option) (*Provider, error) {
	if len(cfg.Secret) < 32 {
		return nil, errors.New("local identity provider requires a secret of at least 32 bytes")
	}
	if cfg.IDTokenLifetime <= 0 {
		cfg.IDTokenLifetime = time.Hour
	}
	if cfg.PasswordMinLength <= 0 {
		cfg.PasswordMinLength = 1
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}

	p := &Provider{
		db:     db,
		cfg:    cfg,
		now:    time.Now,
		newUID: func() string { return strings.ReplaceAll(uuid.NewString(), "-", "") },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

type tokenClaims struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// CreateAccount registers a new account and returns its identifier.
func (p *Provider) CreateAccount(ctx context.Context, email, password string) (string, error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return "", identity.ErrInvalidEmail
	}
	if len(password) < p.cfg.PasswordMinLength {
		return "", identity.NewError(identity.CodeWeakPassword,
			fmt.Sprintf("Password should be at least %d characters", p.cfg.PasswordMinLength), nil)
	}
	if len(password) > maxPasswordBytes {
		return "", identity.NewError(identity.CodeWeakPassword,
			fmt.Sprintf("Password must not exceed %d bytes", maxPasswordBytes), nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cfg.BcryptCost)
	if err != nil {
		return "", identity.NewError(identity.CodeInternal, "failed to hash password", err)
	}

	account := &entities.Account{
		UID:              p.newUID(),
		Email:            email,
		PasswordHash:     string(hash),
		TokensValidAfter: p.now().Truncate(time.Second),
	}
	if err := p.db.WithContext(ctx).Create(account).Error; err != nil {
		if isUniqueViolation(err) {
			return "", identity.ErrEmailAlreadyInUse
		}
		return "", identity.NewError(identity.CodeInternal, "failed to create account", err)
	}

	return account.UID, nil
}

// SignInWithPassword checks the password and issues a short-lived identity token.
func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) (*identity.Credential, error) {
	account, err := p.findByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return nil, identity.ErrInvalidCredential
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, identity.ErrInvalidCredential
	}
	if account.Disabled {
		return nil, identity.ErrUserDisabled
	}

	now := p.now()
	token, err := p.sign(account, purposeIDToken, now, now.Add(p.cfg.IDTokenLifetime))
	if err != nil {
		return nil, err
	}

	return &identity.Credential{UID: account.UID, Email: account.Email, IDToken: token}, nil
}

// GetUserByEmail looks an account up by email.
func (p *Provider) GetUserByEmail(ctx context.Context, email string) (*identity.UserRecord, error) {
	account, err := p.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return toUserRecord(account), nil
}

// GetUser looks an account up by identifier.
func (p *Provider) GetUser(ctx context.Context, uid string) (*identity.UserRecord, error) {
	account, err := p.findByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	return toUserRecord(account), nil
}

// CreateSessionCookie exchanges a valid identity token for a session cookie
// that expires after expiresIn.
func (p *Provider) CreateSessionCookie(ctx context.Context, idToken string, expiresIn time.Duration) (string, error) {
	if expiresIn < identity.MinSessionDuration || expiresIn > identity.MaxSessionDuration {
		return "", identity.ErrSessionDuration
	}

	claims, err := p.parse(idToken, purposeIDToken)
	if err != nil {
		return "", identity.NewError(identity.CodeInvalidIDToken, identity.ErrInvalidIDToken.Message, err)
	}

	account, err := p.findByUID(ctx, claims.Subject)
	if err != nil {
		return "", err
	}
	if account.Disabled {
		return "", identity.ErrUserDisabled
	}
	if claims.IssuedAt.Time.Before(account.TokensValidAfter) {
		return "", identity.NewError(identity.CodeInvalidIDToken, "The identity token has been revoked.", nil)
	}

	now := p.now()
	return p.sign(account, purposeSession, now, now.Add(expiresIn))
}

// VerifySessionCookie validates a session cookie. With checkRevoked set, the
// account is loaded and cookies issued before its last revocation are rejected.
func (p *Provider) VerifySessionCookie(ctx context.Context, cookie string, checkRevoked bool) (*identity.SessionToken, error) {
	claims, err := p.parse(cookie, purposeSession)
	if err != nil {
		return nil, identity.NewError(identity.CodeInvalidSessionCookie, identity.ErrSessionInvalid.Message, err)
	}

	token := &identity.SessionToken{
		UID:       claims.Subject,
		Email:     claims.Email,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if !checkRevoked {
		return token, nil
	}

	account, err := p.findByUID(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if account.Disabled {
		return nil, identity.ErrUserDisabled
	}
	if token.IssuedAt.Before(account.TokensValidAfter) {
		return nil, identity.ErrSessionRevoked
	}

	return token, nil
}

// RevokeSessions invalidates every identity token and session cookie issued
// to the account so far.
func (p *Provider) RevokeSessions(ctx context.Context, uid string) error {
	// Tokens carry second precision; round up so tokens minted earlier in
	// the current second are revoked as well.
	validAfter := p.now().Truncate(time.Second).Add(time.Second)

	result := p.db.WithContext(ctx).Model(&entities.Account{}).
		Where("uid = ?", uid).
		Update("tokens_valid_after", validAfter)
	if result.Error != nil {
		return identity.NewError(identity.CodeInternal, "failed to revoke sessions", result.Error)
	}
	if result.RowsAffected == 0 {
		return identity.ErrUserNotFound
	}
	return nil
}

// SetDisabled enables or disables an account.
func (p *Provider) SetDisabled(ctx context.Context, uid string, disabled bool) error {
	result := p.db.WithContext(ctx).Model(&entities.Account{}).
		Where("uid = ?", uid).
		Update("disabled", disabled)
	if result.Error != nil {
		return identity.NewError(identity.CodeInternal, "failed to update account", result.Error)
	}
	if result.RowsAffected == 0 {
		return identity.ErrUserNotFound
	}
	return nil
}

func (p *Provider) sign(account *entities.Account, purpose string, issuedAt, expiresAt time.Time) (string, error) {
	claims := tokenClaims{
		Email:   account.Email,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   account.UID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.cfg.Secret)
	if err != nil {
		return "", identity.NewError(identity.CodeInternal, "failed to sign token", err)
	}
	return signed, nil
}

func (p *Provider) parse(raw, purpose string) (*tokenClaims, error) {
	if raw == "" {
		return nil, errors.New("empty token")
	}

	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return p.cfg.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != purpose {
		return nil, fmt.Errorf("token purpose %q, want %q", claims.Purpose, purpose)
	}
	if claims.Subject == "" || claims.IssuedAt == nil {
		return nil, errors.New("token has no subject or issue time")
	}
	return claims, nil
}

func (p *Provider) findByEmail(ctx context.Context, email string) (*entities.Account, error) {
	var account entities.Account
	err := p.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, identity.ErrUserNotFound
		}
		return nil, identity.NewError(identity.CodeInternal, "failed to load account", err)
	}
	return &account, nil
}

func (p *Provider) findByUID(ctx context.Context, uid string) (*entities.Account, error) {
	var account entities.Account
	err := p.db.WithContext(ctx).Where("uid = ?", uid).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, identity.ErrUserNotFound
		}
		return nil, identity.NewError(identity.CodeInternal, "failed to load account", err)
	}
	return &account, nil
}

func toUserRecord(account *entities.Account) *identity.UserRecord {
	return &identity.UserRecord{
		UID:      account.UID,
		Email:    account.Email,
		Disabled: account.Disabled,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
