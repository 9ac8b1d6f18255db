package middleware

import (
	"net/http"

	"notedai/api/pkg/authcookie"
	"notedai/api/pkg/security"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewJWTMiddleware only lets requests with a valid auth cookie through.
// The verified claims are stored as "claims" and the user ID as "userID".
// An invalid cookie is cleared so the client stops sending it.
func NewJWTMiddleware(tokens *security.TokenCodec, jar authcookie.Jar) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetString("requestID")

		tokenStr := authcookie.Read(c)
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "Not authenticated",
				"requestID": requestID,
			})
			return
		}

		claims, err := tokens.Verify(tokenStr)
		if err != nil {
			jar.Clear(c)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "Not authenticated",
				"requestID": requestID,
			})

			zap.L().Debug("Rejected auth token", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		c.Set("claims", claims)
		c.Set("userID", claims.UserID)
		c.Next()
	}
}
