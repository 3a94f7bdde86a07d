package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvre/cv-optimizer/internal/models"
)

func TestVaultEncryptDecryptRoundTrip(t *testing.T) {
	v := NewVault(newMemSettings(), 100000)

	secret, err := v.EnsureSecret()
	require.NoError(t, err)

	payload, err := v.EncryptJSON("sk-very-secret-key", secret)
	require.NoError(t, err)
	assert.NotEmpty(t, payload.IV)
	assert.NotEmpty(t, payload.Salt)
	assert.NotEmpty(t, payload.Cipher)

	var decrypted string
	require.NoError(t, v.DecryptJSON(payload, secret, &decrypted))
	assert.Equal(t, "sk-very-secret-key", decrypted)
}

func TestVaultEncryptionIsNotRepeatable(t *testing.T) {
	v := NewVault(newMemSettings(), 100000)
	secret, err := v.EnsureSecret()
	require.NoError(t, err)

	first, err := v.EncryptJSON("same-value", secret)
	require.NoError(t, err)
	second, err := v.EncryptJSON("same-value", secret)
	require.NoError(t, err)

	assert.NotEqual(t, first.IV, second.IV)
	assert.NotEqual(t, first.Salt, second.Salt)
	assert.NotEqual(t, first.Cipher, second.Cipher)
}

func TestVaultDecryptTamperedPayload(t *testing.T) {
	v := NewVault(newMemSettings(), 100000)
	secret, err := v.EnsureSecret()
	require.NoError(t, err)

	payload, err := v.EncryptJSON("value", secret)
	require.NoError(t, err)

	// Flip one hex digit of the ciphertext.
	tampered := *payload
	last := tampered.Cipher[len(tampered.Cipher)-1]
	flip := byte('0')
	if last == '0' {
		flip = '1'
	}
	tampered.Cipher = tampered.Cipher[:len(tampered.Cipher)-1] + string(flip)

	var out string
	err = v.DecryptJSON(&tampered, secret, &out)
	assert.ErrorIs(t, err, ErrCrypto)
}

func TestVaultDecryptWithWrongSecret(t *testing.T) {
	v := NewVault(newMemSettings(), 100000)

	payload, err := v.EncryptJSON("value", "secret-one")
	require.NoError(t, err)

	var out string
	err = v.DecryptJSON(payload, "secret-two", &out)
	assert.ErrorIs(t, err, ErrCrypto)
}

func TestVaultDecryptMalformedPayload(t *testing.T) {
	v := NewVault(newMemSettings(), 100000)

	var out string
	err := v.DecryptJSON(&models.EncryptedPayload{IV: "zz", Salt: "00", Cipher: "00"}, "s", &out)
	assert.ErrorIs(t, err, ErrCrypto)
}

func TestVaultEnsureSecretIsStable(t *testing.T) {
	settings := newMemSettings()
	v := NewVault(settings, 100000)

	first, err := v.EnsureSecret()
	require.NoError(t, err)
	second, err := v.EnsureSecret()
	require.NoError(t, err)
	assert.Equal(t, first, second)

	require.NoError(t, v.ClearSecret())
	third, err := v.EnsureSecret()
	require.NoError(t, err)
	assert.NotEqual(t, first, third)
}
