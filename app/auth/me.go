package auth

import (
	"errors"
	"net/http"
	"time"

	"notedai/api/app/respond"
	"notedai/api/internal"
	"notedai/api/internal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func AuthMe(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	tx, err := d.Store.Connect(c.Request.Context())
	if err != nil {
		respond.Internal(c, "Failed to connect to database", err)
		return
	}

	var user model.User

	err = tx.Scopes(model.WithoutPassword).
		Where("id = ?", userID).
		First(&user).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Token outlived its account
			d.Cookies.Clear(c)
			c.JSON(http.StatusNotFound, gin.H{
				"error":     "User not found",
				"requestID": requestID,
			})
			return
		}

		respond.Internal(c, "Failed to fetch user", err)
		return
	}

	err = tx.Model(&user).UpdateColumn("last_active", time.Now().UTC()).Error
	if err != nil {
		zap.L().Warn("Failed to update last active", zap.Error(err), zap.String("requestID", requestID))
	}

	c.JSON(http.StatusOK, gin.H{
		"user": user.Summary(),
	})
}
