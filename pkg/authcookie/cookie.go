// Package authcookie reads and writes the session cookie
package authcookie

import (
	"net/http"

	"notedai/api/pkg/security"

	"github.com/gin-gonic/gin"
)

const Name = "auth-token"

// Jar holds the attributes every auth cookie is written with. SameSite is
// Lax on every route so the cookie survives top-level navigations back
// from OAuth providers.
type Jar struct {
	Secure bool
}

func (j Jar) Set(c *gin.Context, token string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(security.TokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   j.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (j Jar) Clear(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   j.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Read returns the raw token, or "" when the request carries none.
func Read(c *gin.Context) string {
	v, err := c.Cookie(Name)
	if err != nil {
		return ""
	}

	return v
}
