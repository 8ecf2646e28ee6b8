package auth

import (
	"bufio"
	"net"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/gin-gonic/gin"
)

// flashWriter commits the flash session right before the response headers
// go out, since gin handlers write the body directly.
type flashWriter struct {
	gin.ResponseWriter
	fm        *FlashManager
	request   *http.Request
	committed bool
}

func (w *flashWriter) commit() {
	if w.committed {
		return
	}
	w.committed = true

	ctx := w.request.Context()
	switch w.fm.Status(ctx) {
	case scs.Modified:
		token, expiry, err := w.fm.Commit(ctx)
		if err != nil {
			return
		}
		w.fm.WriteSessionCookie(ctx, w.ResponseWriter, token, expiry)
	case scs.Destroyed:
		w.fm.WriteSessionCookie(ctx, w.ResponseWriter, "", time.Time{})
	}
}

func (w *flashWriter) WriteHeader(code int) {
	w.commit()
	w.ResponseWriter.WriteHeader(code)
}

func (w *flashWriter) WriteHeaderNow() {
	w.commit()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *flashWriter) Write(b []byte) (int, error) {
	w.commit()
	return w.ResponseWriter.Write(b)
}

func (w *flashWriter) WriteString(s string) (int, error) {
	w.commit()
	return w.ResponseWriter.WriteString(s)
}

func (w *flashWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return w.ResponseWriter.Hijack()
}

// LoadAndSave loads the flash session for the request and saves it with the response.
func (fm *FlashManager) LoadAndSave() gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string
		if cookie, err := c.Request.Cookie(fm.Cookie.Name); err == nil {
			token = cookie.Value
		}

		ctx, err := fm.Load(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Request = c.Request.WithContext(ctx)

		fw := &flashWriter{ResponseWriter: c.Writer, fm: fm, request: c.Request}
		c.Writer = fw

		c.Next()

		fw.commit()
	}
}
