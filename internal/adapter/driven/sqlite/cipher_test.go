package sqlite

import (
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/cfstatus/internal/domain/port/driven"
)

func TestParseKey(t *testing.T) {
	key := testKey()

	got, err := ParseKey(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, got)

	got, err = ParseKey(hex.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, got)

	got, err = ParseKey("  ")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = ParseKey("too-short")
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyInvalid)
}

func TestCipher_RoundTrip(t *testing.T) {
	c, err := NewCipher(testKey())
	require.NoError(t, err)

	sealed, err := c.Encrypt("hello")
	require.NoError(t, err)
	assert.NotEqual(t, "hello", sealed)

	again, err := c.Encrypt("hello")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonce must differ per call")

	plain, err := c.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "hello", plain)

	_, err = c.Decrypt("AAAA")
	assert.Error(t, err)
}

func TestNewCipher_BadKey(t *testing.T) {
	_, err := NewCipher([]byte("short"))
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyInvalid)
}
