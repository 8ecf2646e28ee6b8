package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/prepwise/internal/config"
)

// SessionCookieName is the cookie carrying the provider-issued session token.
const SessionCookieName = "session"

const contextKeyCookieJar = "auth_cookie_jar"

// CookieJar reads request cookies and writes response cookies.
type CookieJar interface {
	Cookie(name string) (string, bool)
	SetCookie(cookie *http.Cookie)
}

// CookieOptions describes the session cookie attributes.
type CookieOptions struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

// NewCookieOptions derives session cookie attributes from the auth config.
func NewCookieOptions(cfg config.Auth) CookieOptions {
	maxAge := cfg.SessionLifetime
	if maxAge <= 0 {
		maxAge = config.DefaultSessionLifetime
	}
	return CookieOptions{
		Name:   SessionCookieName,
		MaxAge: maxAge,
		Secure: cfg.SecureCookies(),
	}
}

func (o CookieOptions) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     o.Name,
		Value:    value,
		MaxAge:   maxAge,
		Path:     "/",
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ginCookieJar serves cookies set earlier in the same request back to
// readers, so a session issued by a handler is visible to later lookups.
type ginCookieJar struct {
	c       *gin.Context
	pending map[string]*http.Cookie
}

// RequestCookies returns the cookie jar bound to the current request.
func RequestCookies(c *gin.Context) CookieJar {
	if v, ok := c.Get(contextKeyCookieJar); ok {
		if jar, ok := v.(*ginCookieJar); ok {
			return jar
		}
	}
	jar := &ginCookieJar{c: c, pending: make(map[string]*http.Cookie)}
	c.Set(contextKeyCookieJar, jar)
	return jar
}

func (j *ginCookieJar) Cookie(name string) (string, bool) {
	if cookie, ok := j.pending[name]; ok {
		if cookie.MaxAge < 0 || cookie.Value == "" {
			return "", false
		}
		return cookie.Value, true
	}
	cookie, err := j.c.Request.Cookie(name)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

func (j *ginCookieJar) SetCookie(cookie *http.Cookie) {
	j.pending[cookie.Name] = cookie
	http.SetCookie(j.c.Writer, cookie)
}
