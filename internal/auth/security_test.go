package auth

import (
	"context"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/prepwise/internal/entities"
)

func newTestRateLimiter(maxAttempts int) *RateLimiter {
	return NewRateLimiter(RateLimitConfig{
		MaxAttempts:     maxAttempts,
		WindowDuration:  time.Minute,
		LockoutDuration: time.Minute,
		CleanupInterval: time.Hour, // Long interval to prevent cleanup during test
	})
}

func TestRateLimiter_AllowsInitialAttempts(t *testing.T) {
	rl := newTestRateLimiter(3)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		allowed, _ := rl.Allow("192.168.1.1", "ann@example.com")
		if !allowed {
			t.Errorf("Attempt %d should be allowed", i+1)
		}
		rl.RecordFailure("192.168.1.1", "ann@example.com")
	}

	allowed, retryAfter := rl.Allow("192.168.1.1", "ann@example.com")
	if allowed {
		t.Error("4th attempt should be blocked")
	}
	if retryAfter == 0 {
		t.Error("retryAfter should be non-zero when blocked")
	}
}

func TestRateLimiter_EmailIsCaseInsensitive(t *testing.T) {
	rl := newTestRateLimiter(2)
	defer rl.Stop()

	rl.RecordFailure("192.168.1.1", "Ann@Example.com")
	rl.RecordFailure("192.168.1.1", " ann@example.com")

	allowed, _ := rl.Allow("192.168.1.1", "ann@example.com")
	if allowed {
		t.Error("Attempts with differently cased emails should share a counter")
	}
}

func TestRateLimiter_SuccessResetsCounter(t *testing.T) {
	rl := newTestRateLimiter(3)
	defer rl.Stop()

	rl.RecordFailure("192.168.1.1", "ann@example.com")
	rl.RecordFailure("192.168.1.1", "ann@example.com")
	rl.RecordSuccess("192.168.1.1", "ann@example.com")

	allowed, _ := rl.Allow("192.168.1.1", "ann@example.com")
	if !allowed {
		t.Error("Should be allowed after successful sign-in")
	}
}

func TestRateLimiter_DifferentUsersAreIndependent(t *testing.T) {
	rl := newTestRateLimiter(2)
	defer rl.Stop()

	rl.RecordFailure("192.168.1.1", "ann@example.com")
	rl.RecordFailure("192.168.1.1", "ann@example.com")

	if allowed, _ := rl.Allow("192.168.1.1", "ann@example.com"); allowed {
		t.Error("ann should be blocked")
	}
	if allowed, _ := rl.Allow("192.168.1.1", "bob@example.com"); !allowed {
		t.Error("bob should be allowed")
	}
}

func TestRateLimiter_LockoutExpires(t *testing.T) {
	rl := newTestRateLimiter(1)
	defer rl.Stop()

	now := time.Now()
	rl.now = func() time.Time { return now }

	locked, _ := rl.RecordFailure("192.168.1.1", "ann@example.com")
	require.True(t, locked)

	now = now.Add(3 * time.Minute)
	allowed, _ := rl.Allow("192.168.1.1", "ann@example.com")
	assert.True(t, allowed)

	rl.cleanup()
	rl.mu.Lock()
	assert.Empty(t, rl.attempts)
	rl.mu.Unlock()
}

type fakeAttemptHistory struct {
	events []entities.AuditEvent
	since  time.Time
	action string
	err    error
}

func (h *fakeAttemptHistory) AttemptsSince(_ context.Context, action string, since time.Time) ([]entities.AuditEvent, error) {
	h.action = action
	h.since = since
	return h.events, h.err
}

func TestRateLimiter_Restore(t *testing.T) {
	rl := newTestRateLimiter(2)
	defer rl.Stop()
	now := time.Now()
	rl.now = func() time.Time { return now }

	failed := func(ip, email string, ago time.Duration) entities.AuditEvent {
		return entities.AuditEvent{IPAddress: ip, Email: email, Status: entities.AuditStatusFailed, CreatedAt: now.Add(-ago)}
	}
	history := &fakeAttemptHistory{events: []entities.AuditEvent{
		failed("10.0.0.1", "Ann@x.io", 50*time.Second),
		failed("10.0.0.1", "ann@x.io", 40*time.Second),
		failed("10.0.0.2", "bob@x.io", 30*time.Second),
		failed("10.0.0.2", "bob@x.io", 20*time.Second),
		{IPAddress: "10.0.0.2", Email: "bob@x.io", Status: entities.AuditStatusSuccess, CreatedAt: now.Add(-10 * time.Second)},
	}}

	replayed, err := rl.Restore(context.Background(), history)
	require.NoError(t, err)
	assert.Equal(t, 4, replayed)
	assert.Equal(t, entities.AuditActionSignIn, history.action)
	assert.Equal(t, now.Add(-2*time.Minute), history.since)

	allowed, retryAfter := rl.Allow("10.0.0.1", "ann@x.io")
	assert.False(t, allowed, "lockout survives the restart")
	assert.Equal(t, 20*time.Second, retryAfter)

	allowed, _ = rl.Allow("10.0.0.2", "bob@x.io")
	assert.True(t, allowed, "a later success clears earlier failures")

	history.err = errors.New("db closed")
	_, err = rl.Restore(context.Background(), history)
	assert.Error(t, err)
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := newTestRateLimiter(1)
	rl.Stop()
	assert.NotPanics(t, rl.Stop)
}

func TestSecurityHeaders(t *testing.T) {
	router := gin.New()
	router.Use(SecurityHeadersMiddleware())
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Host = "prepwise.example.com"
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	expected := map[string]string{
		"X-Frame-Options":        "DENY",
		"X-Content-Type-Options": "nosniff",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}
	for header, value := range expected {
		if got := rr.Header().Get(header); got != value {
			t.Errorf("%s = %q, want %q", header, got, value)
		}
	}

	csp := rr.Header().Get("Content-Security-Policy")
	if !strings.Contains(csp, "form-action 'self' https://prepwise.example.com") {
		t.Errorf("CSP missing form-action host: %s", csp)
	}
	if !strings.Contains(csp, "frame-ancestors 'none'") {
		t.Errorf("CSP missing frame-ancestors: %s", csp)
	}
}

func TestHSTSHeader(t *testing.T) {
	router := gin.New()
	router.Use(StrictTransportSecurityMiddleware())
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if hsts := rr.Header().Get("Strict-Transport-Security"); hsts != "" {
		t.Error("HSTS should not be set for HTTP requests")
	}

	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if hsts := rr.Header().Get("Strict-Transport-Security"); hsts == "" {
		t.Error("HSTS should be set for HTTPS requests")
	}
}

func TestResolveSecret(t *testing.T) {
	t.Run("hex value is decoded", func(t *testing.T) {
		raw := strings.Repeat("ab", 32)
		secret, generated, err := ResolveSecret(raw)
		require.NoError(t, err)
		assert.False(t, generated)
		assert.Equal(t, raw, hex.EncodeToString(secret))
	})

	t.Run("plain value is used as is", func(t *testing.T) {
		secret, generated, err := ResolveSecret("not hex at all")
		require.NoError(t, err)
		assert.False(t, generated)
		assert.Equal(t, []byte("not hex at all"), secret)
	})

	t.Run("empty value generates a secret", func(t *testing.T) {
		secret, generated, err := ResolveSecret("")
		require.NoError(t, err)
		assert.True(t, generated)
		assert.Len(t, secret, 32)
	})
}

func TestDeriveKey(t *testing.T) {
	secret := []byte(strings.Repeat("s", MinSecretLength))

	tokens, err := DeriveKey(secret, KeyPurposeTokens)
	require.NoError(t, err)
	csrfKey, err := DeriveKey(secret, KeyPurposeCSRF)
	require.NoError(t, err)

	assert.Len(t, tokens, 32)
	assert.Len(t, csrfKey, 32)
	assert.NotEqual(t, tokens, csrfKey)
	assert.NotEqual(t, secret, tokens)

	again, err := DeriveKey(secret, KeyPurposeTokens)
	require.NoError(t, err)
	assert.Equal(t, tokens, again, "derivation is deterministic")

	_, err = DeriveKey([]byte("short"), KeyPurposeTokens)
	assert.Error(t, err)
}
