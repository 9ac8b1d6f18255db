package auth

import (
	"errors"
	"net/http"
	"time"

	"notedai/api/app/respond"
	"notedai/api/internal"
	"notedai/api/internal/model"
	"notedai/api/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type loginBody struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (b *loginBody) Normalize() {
	b.Email = validators.NormalizeEmail(b.Email)
}

func AuthLogin(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data loginBody
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

	// The only lookup that reads the password column
	err = tx.Where("email = ?", data.Email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			d.Argon.VerifyNone(data.Password)
			invalidCredentials(c, requestID)
			return
		}

		respond.Internal(c, "Failed to look up user", err)
		return
	}

	ok, err := d.Argon.VerifyPasswd(data.Password, user.Password)
	if err != nil {
		respond.Internal(c, "Failed to verify password", err)
		return
	}

	if !ok {
		invalidCredentials(c, requestID)
		return
	}

	err = tx.Model(&user).UpdateColumn("last_active", time.Now().UTC()).Error
	if err != nil {
		zap.L().Warn("Failed to update last active", zap.Error(err), zap.String("requestID", requestID))
	}

	authToken, err := d.Tokens.Issue(user.ID, user.Name, user.Email)
	if err != nil {
		respond.Internal(c, "Failed to generate auth token", err)
		return
	}

	d.Cookies.Set(c, authToken)
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    user.Summary(),
	})
}

// Unknown email and wrong password must be indistinguishable
func invalidCredentials(c *gin.Context, requestID string) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"error":     "Invalid credentials",
		"requestID": requestID,
	})
}
