package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/prepwise/internal/entities"
)

// ContextKeyUser holds the *entities.User resolved by a guard.
const ContextKeyUser = "auth_user"

// Redirect targets used by the guards.
const (
	SignInPath = "/sign-in"
	SignUpPath = "/sign-up"
	HomePath   = "/"
)

// PageKind tells a guard which audience a page is for.
type PageKind int

const (
	// PageProtected pages require a session.
	PageProtected PageKind = iota
	// PagePublic pages are for anonymous visitors only (sign-in, sign-up).
	PagePublic
)

// Decision is what a guard does with a request.
type Decision struct {
	Render     bool
	RedirectTo string
}

// Decide returns the guard decision for a page kind and authentication state.
func Decide(kind PageKind, authenticated bool) Decision {
	switch {
	case kind == PageProtected && !authenticated:
		return Decision{RedirectTo: SignInPath}
	case kind == PagePublic && authenticated:
		return Decision{RedirectTo: HomePath}
	default:
		return Decision{Render: true}
	}
}

// Guard wraps pages with the redirect rules.
type Guard struct {
	actions *Actions
}

func NewGuard(actions *Actions) *Guard {
	return &Guard{actions: actions}
}

// Protected redirects anonymous visitors to the sign-in page.
func (g *Guard) Protected() gin.HandlerFunc {
	return g.handler(PageProtected)
}

// Public redirects signed-in visitors to the home page.
func (g *Guard) Public() gin.HandlerFunc {
	return g.handler(PagePublic)
}

func (g *Guard) handler(kind PageKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := g.actions.GetCurrentUser(c.Request.Context(), RequestCookies(c))
		if user != nil {
			c.Set(ContextKeyUser, user)
		}

		decision := Decide(kind, user != nil)
		if !decision.Render {
			c.Redirect(http.StatusFound, decision.RedirectTo)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user resolved by a guard earlier in the chain.
func CurrentUser(c *gin.Context) *entities.User {
	if v, ok := c.Get(ContextKeyUser); ok {
		if user, ok := v.(*entities.User); ok {
			return user
		}
	}
	return nil
}
