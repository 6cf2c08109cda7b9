package crypto

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(seed byte) string {
	key := make([]byte, 32)
	for i := range key {
		key[i] = seed + byte(i)
	}
	return base64.StdEncoding.EncodeToString(key)
}

func TestNewContentCipher(t *testing.T) {
	c, err := NewContentCipher("")
	require.NoError(t, err)
	assert.IsType(t, Plaintext{}, c)

	c, err = NewContentCipher(testKey(1))
	require.NoError(t, err)
	assert.IsType(t, &AESGCM{}, c)

	for _, bad := range []string{"not-base64!!!", base64.StdEncoding.EncodeToString([]byte("short"))} {
		_, err := NewContentCipher(bad)
		assert.ErrorIs(t, err, ErrInvalidKey, bad)
	}
}

func TestAESGCM_RoundTrip(t *testing.T) {
	c, err := NewAESGCM(testKey(1))
	require.NoError(t, err)

	tests := []string{"", "I felt calm after the walk", strings.Repeat("long entry ", 500), "emoji 🌧️ and ümlauts"}
	for _, plaintext := range tests {
		sealed, err := c.Seal(plaintext)
		require.NoError(t, err)
		assert.True(t, IsSealed(sealed))
		if plaintext != "" {
			assert.NotContains(t, sealed, plaintext)
		}

		opened, err := c.Open(sealed)
		require.NoError(t, err)
		assert.Equal(t, plaintext, opened)
	}
}

func TestAESGCM_NonceIsRandom(t *testing.T) {
	c, err := NewAESGCM(testKey(1))
	require.NoError(t, err)

	a, err := c.Seal("same text")
	require.NoError(t, err)
	b, err := c.Seal("same text")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestAESGCM_Open(t *testing.T) {
	c, err := NewAESGCM(testKey(1))
	require.NoError(t, err)
	other, err := NewAESGCM(testKey(2))
	require.NoError(t, err)

	sealed, err := c.Seal("secret")
	require.NoError(t, err)

	t.Run("plaintext passes through", func(t *testing.T) {
		opened, err := c.Open("written before encryption")
		require.NoError(t, err)
		assert.Equal(t, "written before encryption", opened)
	})

	t.Run("wrong key fails", func(t *testing.T) {
		_, err := other.Open(sealed)
		assert.Error(t, err)
	})

	t.Run("truncated fails", func(t *testing.T) {
		_, err := c.Open(sealedPrefix + base64.StdEncoding.EncodeToString([]byte("abc")))
		assert.ErrorIs(t, err, ErrMalformedCiphertext)
	})

	t.Run("bad base64 fails", func(t *testing.T) {
		_, err := c.Open(sealedPrefix + "%%%")
		assert.ErrorIs(t, err, ErrMalformedCiphertext)
	})
}

func TestPlaintext(t *testing.T) {
	var c ContentCipher = Plaintext{}

	sealed, err := c.Seal("hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", sealed)

	_, err = c.Open(sealedPrefix + "abc")
	assert.ErrorIs(t, err, ErrEncryptionKeyRequired)
}
