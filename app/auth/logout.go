package auth

import (
	"net/http"

	"notedai/api/internal"

	"github.com/gin-gonic/gin"
)

// AuthLogout only clears the cookie. Issued tokens stay valid until they
// expire.
func AuthLogout(c *gin.Context, d *internal.Deps) {
	d.Cookies.Clear(c)
	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}
