package services

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	"cvre/cv-optimizer/internal/models"
	"cvre/cv-optimizer/internal/repositories"
)

const (
	vaultSaltLen = 16
	vaultIVLen   = 12
	vaultKeyLen  = 32
)

// Vault protects the provider credential at rest. A device-local random
// secret feeds PBKDF2-SHA256 key derivation and AES-256-GCM encryption;
// clearing the secret makes every previously encrypted payload
// permanently undecryptable, which is the intended "reset all data" path.
type Vault interface {
	EnsureSecret() (string, error)
	ClearSecret() error
	EncryptJSON(data any, secret string) (*models.EncryptedPayload, error)
	DecryptJSON(payload *models.EncryptedPayload, secret string, target any) error
}

type vault struct {
	settings   repositories.SettingRepository
	iterations int
}

// NewVault builds the vault. iterations below 100000 are raised to it;
// the derivation cost is the whole point.
func NewVault(settings repositories.SettingRepository, iterations int) Vault {
	if iterations < 100000 {
		iterations = 100000
	}
	return &vault{settings: settings, iterations: iterations}
}

// EnsureSecret returns the persisted device secret, generating a 32-byte
// random one on first use. Idempotent: repeated calls return the same
// value until ClearSecret.
func (v *vault) EnsureSecret() (string, error) {
	existing, err := v.settings.GetString(models.SettingEncryptionSecret)
	if err == nil && existing != "" {
		return existing, nil
	}
	if err != nil && !errors.Is(err, repositories.ErrSettingNotFound) {
		return "", fmt.Errorf("failed to read encryption secret: %w", err)
	}

	raw := make([]byte, vaultKeyLen)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate encryption secret: %w", err)
	}

	secret := base64.StdEncoding.EncodeToString(raw)
	if err := v.settings.PutString(models.SettingEncryptionSecret, secret); err != nil {
		return "", fmt.Errorf("failed to persist encryption secret: %w", err)
	}
	return secret, nil
}

// ClearSecret removes the device secret.
func (v *vault) ClearSecret() error {
	return v.settings.Delete(models.SettingEncryptionSecret)
}

// EncryptJSON serializes data and encrypts it under a key derived from
// the secret and a fresh salt. A fresh IV per call means encrypting the
// same value twice never yields the same payload.
func (v *vault) EncryptJSON(data any, secret string) (*models.EncryptedPayload, error) {
	plaintext, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize payload: %w", err)
	}

	salt := make([]byte, vaultSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	iv := make([]byte, vaultIVLen)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("failed to generate iv: %w", err)
	}

	aead, err := v.deriveAEAD(secret, salt)
	if err != nil {
		return nil, err
	}

	ciphertext := aead.Seal(nil, iv, plaintext, nil)

	return &models.EncryptedPayload{
		IV:     hex.EncodeToString(iv),
		Salt:   hex.EncodeToString(salt),
		Cipher: hex.EncodeToString(ciphertext),
	}, nil
}

// DecryptJSON re-derives the key from the payload's salt and decrypts.
// Any tampering, and any secret other than the one used to encrypt,
// fails authentication and surfaces ErrCrypto.
func (v *vault) DecryptJSON(payload *models.EncryptedPayload, secret string, target any) error {
	iv, err := hex.DecodeString(payload.IV)
	if err != nil {
		return fmt.Errorf("%w: malformed iv", ErrCrypto)
	}
	salt, err := hex.DecodeString(payload.Salt)
	if err != nil {
		return fmt.Errorf("%w: malformed salt", ErrCrypto)
	}
	ciphertext, err := hex.DecodeString(payload.Cipher)
	if err != nil {
		return fmt.Errorf("%w: malformed ciphertext", ErrCrypto)
	}
	if len(iv) != vaultIVLen {
		return fmt.Errorf("%w: unexpected iv length", ErrCrypto)
	}

	aead, err := v.deriveAEAD(secret, salt)
	if err != nil {
		return err
	}

	plaintext, err := aead.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return fmt.Errorf("%w: authentication failed", ErrCrypto)
	}

	if err := json.Unmarshal(plaintext, target); err != nil {
		return fmt.Errorf("%w: decrypted payload is not valid JSON", ErrCrypto)
	}
	return nil
}

func (v *vault) deriveAEAD(secret string, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(secret), salt, v.iterations, vaultKeyLen, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GCM: %w", err)
	}
	return aead, nil
}
