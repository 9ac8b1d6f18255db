// Package auth holds the session endpoints: signup, login, logout, me and
// the mailed token flows
package auth

import (
	"errors"
	"net/http"
	"strings"

	"notedai/api/app/respond"
	"notedai/api/internal"
	"notedai/api/internal/model"
	"notedai/api/pkg/security"
	"notedai/api/validators"

	"github.com/gin-gonic/gin"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

type signupBody struct {
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=255"`
}

func (b *signupBody) Normalize() {
	b.Name = strings.TrimSpace(b.Name)
	b.Email = validators.NormalizeEmail(b.Email)
}

func AuthSignup(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data signupBody
	if err := validators.Bind(c.Request.Body, &data); err != nil {
		respond.Invalid(c, err)
		return
	}

	tx, err := d.Store.Connect(c.Request.Context())
	if err != nil {
		respond.Internal(c, "Failed to connect to database", err)
		return
	}

	var taken int64

	err = tx.Model(&model.User{}).
		Where("email = ?", data.Email).
		Count(&taken).
		Error
	if err != nil {
		respond.Internal(c, "Failed to check if user is registered", err)
		return
	}

	if taken > 0 {
		c.JSON(http.StatusConflict, gin.H{
			"error":     "User with this email already exists",
			"requestID": requestID,
		})
		return
	}

	userID, err := gonanoid.Generate(charset, 16)
	if err != nil {
		respond.Internal(c, "Failed to generate user ID", err)
		return
	}

	verifToken, err := security.MakeOneTimeToken(security.VerificationTokenTTL)
	if err != nil {
		respond.Internal(c, "Failed to generate verification token", err)
		return
	}

	user := model.NewUser(userID, data.Name, data.Email)
	user.SetPassword(data.Password)
	user.VerificationToken = &verifToken.Value
	user.VerificationTokenExpires = &verifToken.ExpiresAt

	if err := tx.Create(user).Error; err != nil {
		// Lost a race against a concurrent signup with the same email
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{
				"error":     "User with this email already exists",
				"requestID": requestID,
			})
			return
		}

		respond.Internal(c, "Failed to create user", err)
		return
	}

	if err := d.Mailer.SendVerification(user.Email, verifToken.Value); err != nil {
		zap.L().Warn("Failed to send verification email", zap.Error(err), zap.String("requestID", requestID))
	}

	authToken, err := d.Tokens.Issue(user.ID, user.Name, user.Email)
	if err != nil {
		respond.Internal(c, "Failed to generate auth token", err)
		return
	}

	d.Cookies.Set(c, authToken)
	c.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully",
		"user":    user.Summary(),
	})
}
