package security

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"
)

const (
	tokenSize = 32

	VerificationTokenTTL = time.Minute * 30
	ResetTokenTTL        = time.Hour
)

// OneTimeToken is a random secret mailed to a user together with the
// moment it stops being accepted.
type OneTimeToken struct {
	Value     string
	ExpiresAt time.Time
}

// MakeOneTimeToken creates a hex encoded random token that expires
// after ttl.
func MakeOneTimeToken(ttl time.Duration) (*OneTimeToken, error) {
	if ttl <= 0 {
		return nil, errors.New("no expiry provided")
	}

	token, err := GenerateToken(tokenSize)
	if err != nil {
		return nil, err
	}

	return &OneTimeToken{
		Value:     token,
		ExpiresAt: time.Now().UTC().Add(ttl),
	}, nil
}

func GenerateToken(n int) (string, error) {
	b := make([]byte, n)

	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}
