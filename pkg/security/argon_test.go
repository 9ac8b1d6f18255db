package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastArgon() *ArgonHash {
	return &ArgonHash{
		Memory:      1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func TestArgon_RoundTrip(t *testing.T) {
	t.Parallel()

	a := fastArgon()

	hash, err := a.GenerateFromPassword("secret1")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$"))
	assert.NotContains(t, hash, "secret1")

	ok, err := a.VerifyPasswd("secret1", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.VerifyPasswd("secret2", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArgon_SaltedHashesDiffer(t *testing.T) {
	t.Parallel()

	a := fastArgon()

	h1, err := a.GenerateFromPassword("same-password")
	require.NoError(t, err)
	h2, err := a.GenerateFromPassword("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
}

func TestArgon_VerifyUsesEncodedParams(t *testing.T) {
	t.Parallel()

	hash, err := fastArgon().GenerateFromPassword("secret1")
	require.NoError(t, err)

	// A hasher with different defaults still verifies old hashes
	ok, err := New().VerifyPasswd("secret1", hash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestArgon_InvalidHash(t *testing.T) {
	t.Parallel()

	a := fastArgon()

	for _, in := range []string{
		"",
		"plaintext",
		"$argon2i$v=19$m=1024,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=1024,t=1,p=1$!!!$aGFzaA",
	} {
		_, err := a.VerifyPasswd("secret1", in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestArgon_VerifyNone(t *testing.T) {
	t.Parallel()

	a := fastArgon()
	a.VerifyNone("secret1")
	require.NotEmpty(t, a.dummy)

	first := a.dummy
	a.VerifyNone("secret2")
	assert.Equal(t, first, a.dummy)

	ok, err := a.VerifyPasswd("secret1", a.dummy)
	require.NoError(t, err)
	assert.False(t, ok)
}
