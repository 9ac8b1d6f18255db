package security

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCodec_IssueAndVerify(t *testing.T) {
	t.Parallel()

	codec := NewTokenCodec("super-secret")

	tok, err := codec.Issue("user-123", "Al Smith", "al@x.com")
	require.NoError(t, err)

	claims, err := codec.Verify(tok)
	require.NoError(t, err)

	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "Al Smith", claims.Name)
	assert.Equal(t, "al@x.com", claims.Email)
	assert.WithinDuration(t, time.Now().Add(TokenTTL), claims.ExpiresAt.Time, time.Minute)
}

func TestTokenCodec_Deterministic(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	c1 := NewTokenCodec("k")
	c1.now = func() time.Time { return fixed }
	c2 := NewTokenCodec("k")
	c2.now = func() time.Time { return fixed }

	t1, err := c1.Issue("u1", "n", "e@x.com")
	require.NoError(t, err)
	t2, err := c2.Issue("u1", "n", "e@x.com")
	require.NoError(t, err)

	assert.Equal(t, t1, t2)
}

func TestTokenCodec_Expired(t *testing.T) {
	t.Parallel()

	codec := NewTokenCodec("k")
	codec.now = func() time.Time { return time.Now().Add(-TokenTTL - time.Minute) }

	tok, err := codec.Issue("u1", "n", "e@x.com")
	require.NoError(t, err)

	codec.now = time.Now

	_, err = codec.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodec_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewTokenCodec("right").Issue("u1", "n", "e@x.com")
	require.NoError(t, err)

	_, err = NewTokenCodec("wrong").Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodec_Tampered(t *testing.T) {
	t.Parallel()

	codec := NewTokenCodec("k")

	tok, err := codec.Issue("u1", "n", "e@x.com")
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)

	forged, err := NewTokenCodec("k").Issue("u2", "n", "e@x.com")
	require.NoError(t, err)

	// Payload of one token with the signature of another
	mixed := parts[0] + "." + strings.Split(forged, ".")[1] + "." + parts[2]

	_, err = codec.Verify(mixed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodec_Malformed(t *testing.T) {
	t.Parallel()

	codec := NewTokenCodec("k")

	for _, in := range []string{"", "not.a.jwt", "abc"} {
		_, err := codec.Verify(in)
		assert.ErrorIs(t, err, ErrInvalidToken, "input %q", in)
	}
}

func TestTokenCodec_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	claims := Claims{
		UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("k"))
	require.NoError(t, err)

	_, err = NewTokenCodec("k").Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodec_RequiresExpiry(t *testing.T) {
	t.Parallel()

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: "u1"}).SignedString([]byte("k"))
	require.NoError(t, err)

	_, err = NewTokenCodec("k").Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMakeOneTimeToken(t *testing.T) {
	t.Parallel()

	tok, err := MakeOneTimeToken(VerificationTokenTTL)
	require.NoError(t, err)

	assert.Len(t, tok.Value, tokenSize*2)
	assert.WithinDuration(t, time.Now().Add(VerificationTokenTTL), tok.ExpiresAt, time.Second)

	_, err = MakeOneTimeToken(0)
	assert.Error(t, err)
}
