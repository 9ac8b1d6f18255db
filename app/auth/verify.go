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
	"gorm.io/gorm"
)

type tokenBody struct {
	Token string `json:"token" binding:"required,hexadecimal"`
}

func (b *tokenBody) Normalize() {
	b.Token = strings.TrimSpace(b.Token)
}

func AuthVerify(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data tokenBody
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
		Where("verification_token = ? AND verification_token_expires > ?", data.Token, time.Now().UTC()).
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

		respond.Internal(c, "Failed to get verification token record", err)
		return
	}

	err = tx.Model(&user).
		Updates(map[string]any{
			"verified":                   true,
			"verification_token":         nil,
			"verification_token_expires": nil,
		}).
		Error
	if err != nil {
		respond.Internal(c, "Failed to verify user", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "User verified successfully",
		"requestID": requestID,
	})
}

// AuthResendVerification mails a fresh verification link to the signed in
// user. The previous link stops working.
func AuthResendVerification(c *gin.Context, d *internal.Deps) {
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
			c.JSON(http.StatusNotFound, gin.H{
				"error":     "User not found",
				"requestID": requestID,
			})
			return
		}

		respond.Internal(c, "Failed to fetch user", err)
		return
	}

	if user.Verified {
		c.JSON(http.StatusConflict, gin.H{
			"error":     "Email is already verified",
			"requestID": requestID,
		})
		return
	}

	verifToken, err := security.MakeOneTimeToken(security.VerificationTokenTTL)
	if err != nil {
		respond.Internal(c, "Failed to generate verification token", err)
		return
	}

	err = tx.Model(&user).
		Updates(map[string]any{
			"verification_token":         verifToken.Value,
			"verification_token_expires": verifToken.ExpiresAt,
		}).
		Error
	if err != nil {
		respond.Internal(c, "Failed to store verification token", err)
		return
	}

	if err := d.Mailer.SendVerification(user.Email, verifToken.Value); err != nil {
		respond.Internal(c, "Failed to send verification email", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Verification email sent",
		"requestID": requestID,
	})
}
