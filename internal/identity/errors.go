package identity

import (
	"errors"
	"fmt"
)

// Provider error codes.
const (
	CodeEmailAlreadyInUse      = "auth/email-already-in-use"
	CodeEmailAlreadyExists     = "auth/email-already-exists"
	CodeInvalidCredential      = "auth/invalid-credential"
	CodeUserNotFound           = "auth/user-not-found"
	CodeWrongPassword          = "auth/wrong-password"
	CodeWeakPassword           = "auth/weak-password"
	CodeInvalidEmail           = "auth/invalid-email"
	CodeTooManyRequests        = "auth/too-many-requests"
	CodeUserDisabled           = "auth/user-disabled"
	CodeInvalidIDToken         = "auth/invalid-id-token"
	CodeInvalidSessionCookie   = "auth/invalid-session-cookie"
	CodeSessionCookieRevoked   = "auth/session-cookie-revoked"
	CodeInvalidSessionDuration = "auth/invalid-session-cookie-duration"
	CodeInternal               = "auth/internal-error"
)

// Error is a provider failure identified by Code.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewError builds a provider error wrapping an optional cause.
func NewError(code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

var (
	ErrEmailAlreadyInUse = &Error{Code: CodeEmailAlreadyInUse, Message: "The email address is already in use by another account."}
	ErrInvalidCredential = &Error{Code: CodeInvalidCredential, Message: "The supplied auth credential is incorrect, malformed or has expired."}
	ErrUserNotFound      = &Error{Code: CodeUserNotFound, Message: "There is no user record corresponding to the provided identifier."}
	ErrWeakPassword      = &Error{Code: CodeWeakPassword, Message: "The password is too weak."}
	ErrInvalidEmail      = &Error{Code: CodeInvalidEmail, Message: "The email address is badly formatted."}
	ErrTooManyRequests   = &Error{Code: CodeTooManyRequests, Message: "Access to this account has been temporarily disabled due to many failed login attempts."}
	ErrUserDisabled      = &Error{Code: CodeUserDisabled, Message: "The user account has been disabled by an administrator."}
	ErrInvalidIDToken    = &Error{Code: CodeInvalidIDToken, Message: "The identity token is invalid or expired."}
	ErrSessionInvalid    = &Error{Code: CodeInvalidSessionCookie, Message: "The session cookie is invalid or expired."}
	ErrSessionRevoked    = &Error{Code: CodeSessionCookieRevoked, Message: "The session cookie has been revoked."}
	ErrSessionDuration   = &Error{Code: CodeInvalidSessionDuration, Message: "The session cookie duration must be between 5 minutes and 14 days."}
)

// IsDuplicateEmail reports whether err is one of the duplicate-email codes.
func IsDuplicateEmail(err error) bool {
	return errors.Is(err, ErrEmailAlreadyInUse) ||
		errors.Is(err, &Error{Code: CodeEmailAlreadyExists})
}

// Code returns the provider code carried by err, or "" when err is not a provider error.
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
