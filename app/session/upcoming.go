package session

import (
	"net/http"
	"time"

	"notedai/api/app/respond"
	"notedai/api/internal"
	"notedai/api/internal/model"

	"github.com/gin-gonic/gin"
)

// SessionUpcoming lists the caller's sessions that haven't started yet,
// soonest first.
func SessionUpcoming(c *gin.Context, d *internal.Deps) {
	userID := c.MustGet("userID").(string)

	tx, err := d.Store.Connect(c.Request.Context())
	if err != nil {
		respond.Internal(c, "Failed to connect to database", err)
		return
	}

	sessions := []model.LiveSession{}

	err = tx.
		Where("user_id = ? AND starts_at > ?", userID, time.Now().UTC()).
		Order("starts_at asc").
		Limit(upcomingLimit).
		Find(&sessions).
		Error
	if err != nil {
		respond.Internal(c, "Failed to fetch upcoming sessions", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
	})
}
