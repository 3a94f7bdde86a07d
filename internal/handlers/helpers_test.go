package handlers

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"cvre/cv-optimizer/internal/models"
	"cvre/cv-optimizer/internal/repositories"
	"cvre/cv-optimizer/internal/services"
)

// memSettings is an in-memory SettingRepository for tests.
type memSettings struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemSettings() *memSettings {
	return &memSettings{data: map[string]string{}}
}

func (m *memSettings) Get(key string, target any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[key]
	if !ok {
		return repositories.ErrSettingNotFound
	}
	return json.Unmarshal([]byte(raw), target)
}

func (m *memSettings) Put(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = string(raw)
	return nil
}

func (m *memSettings) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memSettings) GetString(key string) (string, error) {
	var value string
	if err := m.Get(key, &value); err != nil {
		return "", err
	}
	return value, nil
}

func (m *memSettings) PutString(key, value string) error {
	return m.Put(key, value)
}

func (m *memSettings) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

// savedAIConfig stores a provider connection and returns the service
// plus the vault guarding it, so tests can rotate the device secret.
func savedAIConfig(t *testing.T, settings *memSettings) (services.AIConfigService, services.Vault) {
	t.Helper()
	vault := services.NewVault(settings, 100000)
	svc := services.NewAIConfigService(settings, vault)
	require.NoError(t, svc.Save(models.AIConfigRequest{
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o",
		APIKey:  "sk-key",
	}))
	return svc, vault
}

// rotateSecret replaces the device secret so previously encrypted
// payloads stop authenticating.
func rotateSecret(t *testing.T, vault services.Vault) {
	t.Helper()
	require.NoError(t, vault.ClearSecret())
	_, err := vault.EnsureSecret()
	require.NoError(t, err)
}
