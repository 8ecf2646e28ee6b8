package http

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/prepwise/internal/auth"
	"github.com/mrlokans/prepwise/internal/entities"
)

// HomePage is the data passed to the home template.
type HomePage struct {
	User      *entities.User
	Flashes   []auth.Flash
	CSRFField template.HTML
}

// PagesController serves the pages behind the protected guard.
type PagesController struct {
	flash *auth.FlashManager
}

func NewPagesController(flash *auth.FlashManager) *PagesController {
	return &PagesController{flash: flash}
}

// Home renders the landing page for a signed-in user.
func (pc *PagesController) Home(c *gin.Context) {
	page := HomePage{
		User:      auth.CurrentUser(c),
		CSRFField: auth.CSRFTokenField(c),
	}
	if pc.flash != nil {
		page.Flashes = pc.flash.Pop(c.Request.Context())
	}

	c.HTML(http.StatusOK, "home.html", page)
}
