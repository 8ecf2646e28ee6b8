package config

import "time"

const (
	// DefaultDatabasePath is the default path for the application database
	DefaultDatabasePath = "./prepwise.db"

	// DefaultSessionLifetime is how long an issued session cookie stays valid.
	DefaultSessionLifetime = 7 * 24 * time.Hour

	// Identity providers only mint session cookies within these bounds.
	MinSessionLifetime = 5 * time.Minute
	MaxSessionLifetime = 14 * 24 * time.Hour

	// DefaultPasswordMinLength matches the sign-up form contract.
	// Raise it through AUTH_PASSWORD_MIN_LENGTH for real deployments.
	DefaultPasswordMinLength = 3

	// DefaultIdentityToolkitURL is the base URL of the Firebase Identity Toolkit REST API.
	DefaultIdentityToolkitURL = "https://identitytoolkit.googleapis.com/v1"
)
