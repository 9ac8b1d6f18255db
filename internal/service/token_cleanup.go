package service

import (
	"context"
	"time"

	"notedai/api/db"
	"notedai/api/internal/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ClearExpiredTokens drops verification and reset token pairs that expired
// before now. It returns how many pairs were cleared.
func ClearExpiredTokens(tx *gorm.DB, now time.Time) (int64, error) {
	res := tx.
		Model(&model.User{}).
		Where("verification_token_expires < ?", now).
		Updates(map[string]any{
			"verification_token":         nil,
			"verification_token_expires": nil,
		})
	if res.Error != nil {
		return 0, res.Error
	}

	cleared := res.RowsAffected

	res = tx.
		Model(&model.User{}).
		Where("reset_password_expires < ?", now).
		Updates(map[string]any{
			"reset_password_token":   nil,
			"reset_password_expires": nil,
		})
	if res.Error != nil {
		return cleared, res.Error
	}

	return cleared + res.RowsAffected, nil
}

// TokenCleanup periodically clears expired tokens until ctx is done.
// Failed runs are logged and retried on the next tick.
func TokenCleanup(ctx context.Context, every time.Duration, store *db.Store) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	zap.L().Debug("Token cleanup attached", zap.Duration("tick_every", every))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		tx, err := store.Connect(ctx)
		if err != nil {
			zap.L().Error("Failed to connect for token cleanup", zap.Error(err))
			continue
		}

		n, err := ClearExpiredTokens(tx, time.Now().UTC())
		if err != nil {
			zap.L().Error("Failed to cleanup expired tokens", zap.Error(err))
			continue
		}

		if n > 0 {
			zap.L().Debug("Cleaned up expired tokens", zap.Int64("count", n))
		}
	}
}
