package auth

import "net/http"

// Kind classifies the outcome of an auth action.
type Kind string

const (
	KindNone               Kind = ""
	KindAlreadyExists      Kind = "already_exists"
	KindEmailInUse         Kind = "email_in_use"
	KindUserNotFound       Kind = "user_not_found"
	KindAccountMismatch    Kind = "account_mismatch"
	KindCreateFailed       Kind = "create_failed"
	KindSignInFailed       Kind = "sign_in_failed"
	KindTokenMissing       Kind = "token_missing"
	KindSessionInvalid     Kind = "session_invalid"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindProviderError      Kind = "provider_error"
	KindValidation         Kind = "validation"
	KindRateLimited        Kind = "rate_limited"
	KindUnknown            Kind = "unknown"
)

// HTTPStatus maps a kind to the status code used by the JSON endpoints.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindNone:
		return http.StatusOK
	case KindAlreadyExists, KindEmailInUse:
		return http.StatusConflict
	case KindUserNotFound:
		return http.StatusNotFound
	case KindValidation, KindTokenMissing:
		return http.StatusBadRequest
	case KindSessionInvalid, KindInvalidCredentials:
		return http.StatusUnauthorized
	case KindAccountMismatch:
		return http.StatusForbidden
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindProviderError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Result is returned by every auth action. Failures are reported here and
// never as errors.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Kind    Kind   `json:"kind,omitempty"`
}

func success(message string) Result {
	return Result{Success: true, Message: message}
}

func failure(kind Kind, message string) Result {
	return Result{Message: message, Kind: kind}
}
