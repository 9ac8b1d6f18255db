package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TurnstileVerifier checks a Cloudflare Turnstile response token.
type TurnstileVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) (bool, error)
}

// NewTurnstileMiddleware guards public endpoints against bots. A nil
// verifier disables the check.
func NewTurnstileMiddleware(v TurnstileVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if v == nil {
			c.Next()
			return
		}

		requestID := c.GetString("requestID")

		token := c.GetHeader("TurnstileToken")
		if token == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":     "Missing or invalid turnstile token",
				"requestID": requestID,
			})
			return
		}

		ok, err := v.Verify(c.Request.Context(), token, c.ClientIP())
		if err != nil {
			zap.L().Error("Turnstile verification failed", zap.Error(err), zap.String("requestID", requestID))
		}

		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "Unauthorized",
				"requestID": requestID,
			})
			return
		}

		c.Next()
	}
}
