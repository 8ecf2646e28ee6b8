package auth

import (
	"html/template"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/prepwise/internal/audit"
	"github.com/mrlokans/prepwise/internal/entities"
	applog "github.com/mrlokans/prepwise/internal/logger"
	"github.com/mrlokans/prepwise/internal/web"
)

type recordingAudit struct {
	mu     sync.Mutex
	events []audit.AuthEvent
}

func (r *recordingAudit) LogAuth(event audit.AuthEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingAudit) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		out = append(out, e.Action)
	}
	return out
}

type handlerEnv struct {
	router   *gin.Engine
	provider *fakeProvider
	store    *fakeStore
	audit    *recordingAudit
}

func setupHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()

	actions, provider, store := newTestActions()
	form := NewForm(provider, actions, 3, applog.Discard())
	fm := newTestFlashManager(t)
	limiter := NewRateLimiter(RateLimitConfig{MaxAttempts: 2, WindowDuration: time.Minute, LockoutDuration: time.Minute})
	t.Cleanup(limiter.Stop)
	recorder := &recordingAudit{}

	tmpl, err := web.ParseTemplates(template.FuncMap{})
	require.NoError(t, err)

	router := gin.New()
	router.SetHTMLTemplate(tmpl)
	router.Use(fm.LoadAndSave())

	guard := NewGuard(actions)
	controller := NewFormController(FormControllerConfig{
		Form:        form,
		Actions:     actions,
		Flash:       fm,
		RateLimiter: limiter,
		Audit:       recorder,
		Logger:      applog.Discard(),
	})
	controller.RegisterRoutes(router, guard)
	router.GET("/", guard.Protected(), func(c *gin.Context) {
		c.String(http.StatusOK, "home of "+CurrentUser(c).Name)
	})

	return &handlerEnv{router: router, provider: provider, store: store, audit: recorder}
}

func (env *handlerEnv) post(path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func (env *handlerEnv) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func TestFormController_Pages(t *testing.T) {
	env := setupHandlerEnv(t)

	w := env.get(SignInPath)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Sign-In")
	assert.NotContains(t, w.Body.String(), `name="name"`)

	w = env.get(SignUpPath)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Create an Account")
	assert.Contains(t, w.Body.String(), `name="name"`)
}

func TestFormController_SignUpThenSignIn(t *testing.T) {
	env := setupHandlerEnv(t)

	w := env.post(SignUpPath, url.Values{"name": {"Ann"}, "email": {"ann@x.io"}, "password": {"secret"}})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, SignInPath, w.Header().Get("Location"))
	assert.Nil(t, findCookie(w, SessionCookieName), "sign-up must not sign the user in")

	flash := findCookie(w, FlashCookieName)
	require.NotNil(t, flash)
	w = env.get(SignInPath, flash)
	assert.Contains(t, w.Body.String(), MsgFormAccountCreated)

	w = env.post(SignInPath, url.Values{"email": {"ann@x.io"}, "password": {"secret"}})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, HomePath, w.Header().Get("Location"))

	session := findCookie(w, SessionCookieName)
	require.NotNil(t, session)
	assert.Equal(t, 604800, session.MaxAge)
	assert.True(t, session.HttpOnly)

	w = env.get(HomePath, session)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "home of Ann", w.Body.String())

	w = env.get(SignInPath, session)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, HomePath, w.Header().Get("Location"))

	assert.Equal(t, []string{entities.AuditActionSignUp, entities.AuditActionSignIn}, env.audit.actions())
}

func TestFormController_SignUpValidation(t *testing.T) {
	env := setupHandlerEnv(t)

	w := env.post(SignUpPath, url.Values{"name": {"A"}, "email": {"bad"}, "password": {"secret"}})

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `class="field-error"`)
	assert.Contains(t, body, `value="A"`)
	assert.NotContains(t, body, "secret")
	assert.Empty(t, env.provider.uids)
	assert.Empty(t, env.audit.actions())
}

func TestFormController_SignUpDuplicateEmail(t *testing.T) {
	env := setupHandlerEnv(t)

	env.post(SignUpPath, url.Values{"name": {"Ann"}, "email": {"ann@x.io"}, "password": {"secret"}})
	w := env.post(SignUpPath, url.Values{"name": {"Ann"}, "email": {"ann@x.io"}, "password": {"secret"}})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "This email is already in use. Please sign in.")
}

func TestFormController_SignInRateLimited(t *testing.T) {
	env := setupHandlerEnv(t)
	env.post(SignUpPath, url.Values{"name": {"Ann"}, "email": {"ann@x.io"}, "password": {"secret"}})

	bad := url.Values{"email": {"ann@x.io"}, "password": {"wrong!"}}
	for i := 0; i < 2; i++ {
		w := env.post(SignInPath, bad)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid email or password.")
	}

	w := env.post(SignInPath, url.Values{"email": {"ann@x.io"}, "password": {"secret"}})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), MsgFormTooManyAttempts)
	assert.Nil(t, findCookie(w, SessionCookieName))
}

func TestFormController_SignOut(t *testing.T) {
	env := setupHandlerEnv(t)
	env.post(SignUpPath, url.Values{"name": {"Ann"}, "email": {"ann@x.io"}, "password": {"secret"}})
	w := env.post(SignInPath, url.Values{"email": {"ann@x.io"}, "password": {"secret"}})
	session := findCookie(w, SessionCookieName)
	require.NotNil(t, session)

	w = env.post("/sign-out", url.Values{}, session)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, SignInPath, w.Header().Get("Location"))
	cleared := findCookie(w, SessionCookieName)
	require.NotNil(t, cleared)
	assert.True(t, cleared.MaxAge < 0)
	assert.Contains(t, env.audit.actions(), entities.AuditActionSignOut)
}
