// Package identity defines the types shared by the identity provider backends.
//
// Two backends are available:
//   - local: accounts, identity tokens and session cookies managed in the
//     application database
//   - firebase: Firebase Auth (admin SDK + Identity Toolkit REST API)
//
// Both return *Error values carrying a provider code, so callers can branch
// with errors.Is against the sentinels below or errors.As to read the code.
package identity

import "time"

// Credential is the outcome of a successful password sign-in.
type Credential struct {
	UID     string
	Email   string
	IDToken string
}

// UserRecord is the provider-side view of an account.
type UserRecord struct {
	UID      string
	Email    string
	Disabled bool
}

// SessionToken is a verified session cookie.
type SessionToken struct {
	UID       string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

const (
	// MinSessionDuration and MaxSessionDuration bound the lifetime of a session cookie.
	MinSessionDuration = 5 * time.Minute
	MaxSessionDuration = 14 * 24 * time.Hour
)
