package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mrlokans/prepwise/internal/identity"
)

const defaultTimeout = 15 * time.Second

// Client talks to the Identity Toolkit REST API on behalf of end users.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates a credential client. baseURL is normally
// https://identitytoolkit.googleapis.com/v1 and can point at the auth emulator.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

type passwordRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type accountResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateAccount registers an email/password account and returns its identifier.
func (c *Client) CreateAccount(ctx context.Context, email, password string) (string, error) {
	resp, err := c.post(ctx, "accounts:signUp", passwordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	})
	if err != nil {
		return "", err
	}
	return resp.LocalID, nil
}

// SignInWithPassword authenticates an email/password account.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*identity.Credential, error) {
	resp, err := c.post(ctx, "accounts:signInWithPassword", passwordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	})
	if err != nil {
		return nil, err
	}
	return &identity.Credential{
		UID:     resp.LocalID,
		Email:   resp.Email,
		IDToken: resp.IDToken,
	}, nil
}

func (c *Client) post(ctx context.Context, method string, payload any) (*accountResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := c.baseURL + "/" + method + "?key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, identity.NewError(identity.CodeInternal, "request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, identity.NewError(identity.CodeInternal, "failed to read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr errorResponse
		if err := json.Unmarshal(data, &apiErr); err != nil || apiErr.Error.Message == "" {
			return nil, identity.NewError(identity.CodeInternal,
				fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(data)), nil)
		}
		return nil, translateError(apiErr.Error.Message)
	}

	var account accountResponse
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, identity.NewError(identity.CodeInternal, "failed to decode response", err)
	}
	return &account, nil
}

// translateError maps Identity Toolkit messages such as
// "WEAK_PASSWORD : Password should be at least 6 characters" to provider errors.
func translateError(message string) *identity.Error {
	reason, detail, _ := strings.Cut(message, " : ")
	reason = strings.TrimSpace(reason)

	withDetail := func(base *identity.Error) *identity.Error {
		if detail == "" {
			return base
		}
		return identity.NewError(base.Code, detail, nil)
	}

	switch reason {
	case "EMAIL_EXISTS":
		return identity.ErrEmailAlreadyInUse
	case "EMAIL_NOT_FOUND":
		return identity.ErrUserNotFound
	case "INVALID_PASSWORD":
		return identity.NewError(identity.CodeWrongPassword, "The password is invalid.", nil)
	case "INVALID_LOGIN_CREDENTIALS":
		return identity.ErrInvalidCredential
	case "WEAK_PASSWORD":
		return withDetail(identity.ErrWeakPassword)
	case "INVALID_EMAIL", "MISSING_EMAIL":
		return identity.ErrInvalidEmail
	case "USER_DISABLED":
		return identity.ErrUserDisabled
	case "TOO_MANY_ATTEMPTS_TRY_LATER":
		return identity.ErrTooManyRequests
	default:
		return identity.NewError(identity.CodeInternal, message, nil)
	}
}
