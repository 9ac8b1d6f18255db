// Package root holds endpoints that aren't tied to a user
package root

import (
	"context"
	"net/http"
	"time"

	"notedai/api/internal"

	"github.com/gin-gonic/gin"
)

// Heartbeat answers HEAD with a bare 200. GET also reports whether the
// database can be reached, the status code stays 200 either way.
func Heartbeat(c *gin.Context, d *internal.Deps) {
	if c.Request.Method == http.MethodHead {
		c.Status(http.StatusOK)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	database := "up"
	if _, err := d.Store.Connect(ctx); err != nil {
		database = "down"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"database": database,
	})
}
