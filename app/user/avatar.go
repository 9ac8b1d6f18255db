package user

import (
	"context"
	"errors"
	"net/http"
	"time"

	"notedai/api/app/respond"
	"notedai/api/internal"
	"notedai/api/internal/model"
	"notedai/api/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func UserAvatarUpdate(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	if d.Avatars == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":     "Avatar storage is not configured",
			"requestID": requestID,
		})
		return
	}

	fh, err := c.FormFile("avatar")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error":     "Request body size exceeds limit",
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "No file provided",
			"requestID": requestID,
		})
		return
	}

	code, f, mime, err := validators.AvatarValidator(fh)
	if err != nil {
		if code == http.StatusInternalServerError {
			respond.Internal(c, "Failed to validate avatar", err)
			return
		}

		c.JSON(code, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}
	defer f.Close()

	tx, err := d.Store.Connect(c.Request.Context())
	if err != nil {
		respond.Internal(c, "Failed to connect to database", err)
		return
	}

	var user model.User
	if !loadUser(c, tx.Scopes(model.WithoutPassword), userID, &user) {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Minute)
	defer cancel()

	key, err := d.Avatars.Put(ctx, user.ID, f, fh.Size, mime)
	if err != nil {
		respond.Internal(c, "Failed to upload avatar", err)
		return
	}

	previous := user.Avatar

	if err := tx.Model(&user).Update("avatar", key).Error; err != nil {
		// Don't leave an orphan behind
		if err := d.Avatars.Delete(ctx, key); err != nil {
			zap.L().Warn("Failed to delete orphaned avatar", zap.Error(err), zap.String("requestID", requestID))
		}

		respond.Internal(c, "Failed to save avatar", err)
		return
	}

	user.Avatar = key

	if previous != "" {
		if err := d.Avatars.Delete(ctx, previous); err != nil {
			zap.L().Warn("Failed to delete previous avatar", zap.Error(err), zap.String("requestID", requestID))
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"user": user.Profile(),
	})
}
