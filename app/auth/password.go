package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"notedai/api/app/respond"
	"notedai/api/internal"
	"notedai/api/internal/model"
	"notedai/api/pkg/security"
	"notedai/api/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const forgotMessage = "If an account with that email exists, a reset link has been sent"

type forgotBody struct {
	Email string `json:"email" binding:"required,email"`
}

func (b *forgotBody) Normalize() {
	b.Email = validators.NormalizeEmail(b.Email)
}

type resetBody struct {
	Token    string `json:"token" binding:"required,hexadecimal"`
	Password string `json:"password" binding:"required,min=6,max=255"`
}

func (b *resetBody) Normalize() {
	b.Token = strings.TrimSpace(b.Token)
}

// AuthForgotPassword answers the same way whether or not the email is known.
func AuthForgotPassword(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data forgotBody
	if err := validators.Bind(c.Request.Body, &data); err != nil {
		respond.Invalid(c, err)
		return
	}

	tx, err := d.Store.Connect(c.Request.Context())
	if err != nil {
		respond.Internal(c, "Failed to connect to database", err)
		return
	}

	var user model.User

	err = tx.Scopes(model.WithoutPassword).
		Where("email = ?", data.Email).
		First(&user).
		Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		respond.Internal(c, "Failed to look up user", err)
		return
	}

	if err == nil {
		resetToken, err := security.MakeOneTimeToken(security.ResetTokenTTL)
		if err != nil {
			respond.Internal(c, "Failed to generate reset token", err)
			return
		}

		err = tx.Model(&user).
			Updates(map[string]any{
				"reset_password_token":   resetToken.Value,
				"reset_password_expires": resetToken.ExpiresAt,
			}).
			Error
		if err != nil {
			respond.Internal(c, "Failed to store reset token", err)
			return
		}

		if err := d.Mailer.SendPasswordReset(user.Email, resetToken.Value); err != nil {
			zap.L().Error("Failed to send password reset email", zap.Error(err), zap.String("requestID", requestID))
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message": forgotMessage,
	})
}

func AuthResetPassword(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data resetBody
	if err := validators.Bind(c.Request.Body, &data); err != nil {
		respond.Invalid(c, err)
		return
	}

	tx, err := d.Store.Connect(c.Request.Context())
	if err != nil {
		respond.Internal(c, "Failed to connect to database", err)
		return
	}

	var user model.User

	err = tx.Where("reset_password_token = ? AND reset_password_expires > ?", data.Token, time.Now().UTC()).
		First(&user).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":     "Token expired or invalid",
				"requestID": requestID,
			})
			return
		}

		respond.Internal(c, "Failed to get reset token record", err)
		return
	}

	user.SetPassword(data.Password)
	user.ResetPasswordToken = nil
	user.ResetPasswordExpires = nil

	// Matching the token again makes a token spent by a concurrent reset,
	// or a deleted account, update nothing
	res := tx.Model(&user).
		Where("reset_password_token = ?", data.Token).
		Select("password", "reset_password_token", "reset_password_expires").
		Updates(&user)
	if res.Error != nil {
		respond.Internal(c, "Failed to reset password", res.Error)
		return
	}

	if res.RowsAffected == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Token expired or invalid",
			"requestID": requestID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Password updated successfully",
		"requestID": requestID,
	})
}
