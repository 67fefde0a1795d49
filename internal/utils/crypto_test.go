package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptSecret(t *testing.T) {
	encrypted, err := EncryptSecret("EAABsbCS...provider-token", "passphrase")
	require.NoError(t, err)
	assert.NotEqual(t, "EAABsbCS...provider-token", encrypted)

	decrypted, err := DecryptSecret(encrypted, "passphrase")
	require.NoError(t, err)
	assert.Equal(t, "EAABsbCS...provider-token", decrypted)

	// A random nonce makes each encryption distinct.
	again, err := EncryptSecret("EAABsbCS...provider-token", "passphrase")
	require.NoError(t, err)
	assert.NotEqual(t, encrypted, again)
}

func TestDecryptSecretFailures(t *testing.T) {
	encrypted, err := EncryptSecret("secret", "right-key")
	require.NoError(t, err)

	_, err = DecryptSecret(encrypted, "wrong-key")
	assert.Error(t, err)

	_, err = DecryptSecret("not-base64!!!", "right-key")
	assert.Error(t, err)

	_, err = DecryptSecret("c2hvcnQ=", "right-key")
	assert.ErrorContains(t, err, "too short")
}

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken(32)
	require.NoError(t, err)
	assert.Len(t, token, 64)

	other, err := GenerateToken(32)
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}
