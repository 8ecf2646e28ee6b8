package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mrlokans/prepwise/internal/entities"
	"github.com/mrlokans/prepwise/internal/identity"
	applog "github.com/mrlokans/prepwise/internal/logger"
)

// fakeProvider plays both sides of the identity provider in memory.
// Identity tokens look like "id:<uid>" and session cookies like "session:<uid>".
type fakeProvider struct {
	mu        sync.Mutex
	uids      map[string]string // email -> uid
	passwords map[string]string // email -> password
	revoked   map[string]bool
	disabled  map[string]bool
	nextID    int

	lookupErr  error
	sessionErr error
	noIDToken  bool
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		uids:      make(map[string]string),
		passwords: make(map[string]string),
		revoked:   make(map[string]bool),
		disabled:  make(map[string]bool),
	}
}

func (p *fakeProvider) CreateAccount(_ context.Context, email, password string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	email = strings.ToLower(email)
	if _, ok := p.uids[email]; ok {
		return "", identity.ErrEmailAlreadyInUse
	}
	p.nextID++
	uid := fmt.Sprintf("uid-%d", p.nextID)
	p.uids[email] = uid
	p.passwords[email] = password
	return uid, nil
}

func (p *fakeProvider) SignInWithPassword(_ context.Context, email, password string) (*identity.Credential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	email = strings.ToLower(email)
	uid, ok := p.uids[email]
	if !ok || p.passwords[email] != password {
		return nil, identity.ErrInvalidCredential
	}
	credential := &identity.Credential{UID: uid, Email: email, IDToken: "id:" + uid}
	if p.noIDToken {
		credential.IDToken = ""
	}
	return credential, nil
}

func (p *fakeProvider) GetUserByEmail(_ context.Context, email string) (*identity.UserRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.lookupErr != nil {
		return nil, p.lookupErr
	}
	email = strings.ToLower(email)
	uid, ok := p.uids[email]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	return &identity.UserRecord{UID: uid, Email: email}, nil
}

func (p *fakeProvider) GetUser(_ context.Context, uid string) (*identity.UserRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.lookupErr != nil {
		return nil, p.lookupErr
	}
	for email, id := range p.uids {
		if id == uid {
			return &identity.UserRecord{UID: uid, Email: email, Disabled: p.disabled[uid]}, nil
		}
	}
	return nil, identity.ErrUserNotFound
}

func (p *fakeProvider) SetDisabled(_ context.Context, uid string, disabled bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disabled[uid] = disabled
	return nil
}

func (p *fakeProvider) CreateSessionCookie(_ context.Context, idToken string, _ time.Duration) (string, error) {
	if p.sessionErr != nil {
		return "", p.sessionErr
	}
	uid, ok := strings.CutPrefix(idToken, "id:")
	if !ok {
		return "", identity.ErrInvalidIDToken
	}
	return "session:" + uid, nil
}

func (p *fakeProvider) VerifySessionCookie(_ context.Context, cookie string, checkRevoked bool) (*identity.SessionToken, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	uid, ok := strings.CutPrefix(cookie, "session:")
	if !ok || uid == "" {
		return nil, identity.ErrSessionInvalid
	}
	if checkRevoked && p.revoked[uid] {
		return nil, identity.ErrSessionRevoked
	}
	if checkRevoked && p.disabled[uid] {
		return nil, identity.ErrUserDisabled
	}
	return &identity.SessionToken{UID: uid}, nil
}

func (p *fakeProvider) RevokeSessions(_ context.Context, uid string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.revoked[uid] = true
	return nil
}

// fakeStore is an in-memory UserStore with create-if-absent semantics.
type fakeStore struct {
	mu        sync.Mutex
	users     map[string]entities.User
	createErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[string]entities.User)}
}

func (s *fakeStore) Get(_ context.Context, id string) (*entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, entities.ErrRecordNotFound
	}
	user.ID = ""
	return &user, nil
}

func (s *fakeStore) Create(_ context.Context, user *entities.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.createErr != nil {
		return s.createErr
	}
	if _, ok := s.users[user.ID]; ok {
		return entities.ErrRecordExists
	}
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return entities.ErrEmailTaken
		}
	}
	s.users[user.ID] = *user
	return nil
}

// memoryJar is a CookieJar for tests outside of a gin request.
type memoryJar struct {
	cookies map[string]*http.Cookie
}

func newMemoryJar() *memoryJar {
	return &memoryJar{cookies: make(map[string]*http.Cookie)}
}

func (j *memoryJar) Cookie(name string) (string, bool) {
	cookie, ok := j.cookies[name]
	if !ok || cookie.MaxAge < 0 || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

func (j *memoryJar) SetCookie(cookie *http.Cookie) {
	j.cookies[cookie.Name] = cookie
}

var testCookieOptions = CookieOptions{Name: SessionCookieName, MaxAge: 7 * 24 * time.Hour}

// mustCreateAccount registers a provider account and returns its uid.
func mustCreateAccount(t *testing.T, provider *fakeProvider, email string) string {
	t.Helper()
	uid, err := provider.CreateAccount(context.Background(), email, "secret")
	if err != nil {
		t.Fatalf("create account %s: %v", email, err)
	}
	return uid
}

func newTestActions() (*Actions, *fakeProvider, *fakeStore) {
	provider := newFakeProvider()
	store := newFakeStore()
	return NewActions(provider, store, testCookieOptions, applog.Discard()), provider, store
}
