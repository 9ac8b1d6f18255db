package middleware

import (
	"time"

	"notedai/api/pkg/security"

	"github.com/golang-jwt/jwt/v5"
)

func signExpired(secret string, exp time.Time) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, security.Claims{
		UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}).SignedString([]byte(secret))
}
