package models

import (
	"encoding/json"
	"fmt"
)

// EncryptedPayload is the wire format of one vault encryption call:
// hex-encoded IV (12 bytes), salt (16 bytes) and ciphertext+tag. A fresh
// salt and IV are generated per call, so payloads are never comparable.
type EncryptedPayload struct {
	IV     string `json:"iv"`
	Salt   string `json:"salt"`
	Cipher string `json:"cipher"`
}

// StoredAIConfig is the persisted provider configuration. The APIKey
// field is a union left over from a migration: new writes always store an
// EncryptedPayload, but early installs persisted the key as a plaintext
// string and those must still load.
type StoredAIConfig struct {
	BaseURL string          `json:"baseURL"`
	Model   string          `json:"model"`
	APIKey  json.RawMessage `json:"apiKey"`
}

// Credential is the resolved form of the stored APIKey union.
type Credential struct {
	Plaintext string
	Encrypted *EncryptedPayload
}

// ResolveAPIKey decodes the stored union into its variant. Resolution
// happens once at load time; callers never re-inspect the raw JSON.
func (c *StoredAIConfig) ResolveAPIKey() (Credential, error) {
	if len(c.APIKey) == 0 {
		return Credential{}, nil
	}

	var plain string
	if err := json.Unmarshal(c.APIKey, &plain); err == nil {
		return Credential{Plaintext: plain}, nil
	}

	var enc EncryptedPayload
	if err := json.Unmarshal(c.APIKey, &enc); err != nil {
		return Credential{}, fmt.Errorf("unrecognized api key format: %w", err)
	}
	return Credential{Encrypted: &enc}, nil
}

// AIConfig is the in-memory provider connection with the credential
// already resolved to a usable secret.
type AIConfig struct {
	BaseURL string `json:"baseURL"`
	Model   string `json:"model"`
	APIKey  string `json:"apiKey"`
}

// ModelInfo is one entry of a provider's model listing, normalized across
// provider response shapes.
type ModelInfo struct {
	ID      string `json:"id"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}
