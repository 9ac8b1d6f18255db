// Package user holds the account endpoints of a signed in user
package user

import (
	"context"
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

var errUserGone = errors.New("user not found")

// UserDelete removes the account together with its scheduled sessions.
// The avatar object is removed afterwards on a best effort basis.
func UserDelete(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	tx, err := d.Store.Connect(c.Request.Context())
	if err != nil {
		respond.Internal(c, "Failed to connect to database", err)
		return
	}

	var avatar string

	err = tx.Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.Select("id", "avatar").Where("id = ?", userID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errUserGone
			}
			return err
		}
		avatar = user.Avatar

		if err := tx.Where("user_id = ?", userID).Delete(&model.LiveSession{}).Error; err != nil {
			return err
		}

		res := tx.Where("id = ?", userID).Delete(&model.User{})
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			return errUserGone
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, errUserGone) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":     "User not found",
				"requestID": requestID,
			})
			return
		}

		respond.Internal(c, "Failed to delete user", err)
		return
	}

	if avatar != "" && d.Avatars != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := d.Avatars.Delete(ctx, avatar); err != nil {
			zap.L().Warn("Failed to delete avatar of deleted user", zap.Error(err), zap.String("requestID", requestID))
		}
	}

	d.Cookies.Clear(c)
	c.JSON(http.StatusOK, gin.H{
		"message": "Account deleted successfully",
	})
}
