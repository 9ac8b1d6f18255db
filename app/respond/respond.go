// Package respond writes the JSON error bodies shared by every handler
package respond

import (
	"errors"
	"net/http"

	"notedai/api/db"
	"notedai/api/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Internal logs err under msg and answers 503 when the store is down,
// 500 otherwise. The client never sees err.
func Internal(c *gin.Context, msg string, err error) {
	requestID := c.GetString("requestID")

	zap.L().Error(msg, zap.Error(err), zap.String("requestID", requestID))

	if errors.Is(err, db.ErrUnavailable) {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":     "Service unavailable",
			"requestID": requestID,
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"error":     "Internal server error",
		"requestID": requestID,
	})
}

// Invalid answers 400 with the offending fields when err came from the
// validator, or a generic body error otherwise.
func Invalid(c *gin.Context, err error) {
	requestID := c.GetString("requestID")

	if fields := validators.FieldErrors(err); fields != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Validation failed",
			"fields":    fields,
			"requestID": requestID,
		})
		return
	}

	zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))

	c.JSON(http.StatusBadRequest, gin.H{
		"error":     "Invalid request body",
		"requestID": requestID,
	})
}
