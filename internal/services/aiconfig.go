package services

import (
	"encoding/json"
	"errors"
	"fmt"

	"cvre/cv-optimizer/internal/models"
	"cvre/cv-optimizer/internal/repositories"
)

// ErrNoAIConfig means the user has not configured a provider yet.
var ErrNoAIConfig = errors.New("no AI provider configured")

// AIConfigService owns the stored provider connection. Writes always
// encrypt the key through the vault; reads resolve the
// plaintext-or-encrypted union once and hand back a usable config.
type AIConfigService interface {
	Save(req models.AIConfigRequest) error
	Load() (*models.AIConfig, error)
	View() (*models.AIConfigView, error)
	Reset() error
}

type aiConfigService struct {
	settings repositories.SettingRepository
	vault    Vault
}

func NewAIConfigService(settings repositories.SettingRepository, vault Vault) AIConfigService {
	return &aiConfigService{settings: settings, vault: vault}
}

// Save implements AIConfigService.
func (s *aiConfigService) Save(req models.AIConfigRequest) error {
	secret, err := s.vault.EnsureSecret()
	if err != nil {
		return fmt.Errorf("failed to prepare encryption secret: %w", err)
	}

	payload, err := s.vault.EncryptJSON(req.APIKey, secret)
	if err != nil {
		return fmt.Errorf("failed to encrypt api key: %w", err)
	}

	rawKey, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode api key payload: %w", err)
	}

	stored := models.StoredAIConfig{
		BaseURL: req.BaseURL,
		Model:   req.Model,
		APIKey:  rawKey,
	}
	return s.settings.Put(models.SettingAIConfig, &stored)
}

// Load implements AIConfigService. A decryption failure is surfaced as
// ErrCrypto so the caller can prompt for credential re-entry instead of
// treating it as an internal error.
func (s *aiConfigService) Load() (*models.AIConfig, error) {
	var stored models.StoredAIConfig
	if err := s.settings.Get(models.SettingAIConfig, &stored); err != nil {
		if errors.Is(err, repositories.ErrSettingNotFound) {
			return nil, ErrNoAIConfig
		}
		return nil, err
	}

	credential, err := stored.ResolveAPIKey()
	if err != nil {
		return nil, err
	}

	cfg := &models.AIConfig{BaseURL: stored.BaseURL, Model: stored.Model}

	switch {
	case credential.Encrypted != nil:
		secret, err := s.vault.EnsureSecret()
		if err != nil {
			return nil, fmt.Errorf("failed to load encryption secret: %w", err)
		}
		if err := s.vault.DecryptJSON(credential.Encrypted, secret, &cfg.APIKey); err != nil {
			return nil, err
		}
	default:
		// Legacy installs stored the key in the clear; accept it on read,
		// the next Save re-encrypts.
		cfg.APIKey = credential.Plaintext
	}

	if cfg.APIKey == "" {
		return nil, ErrNoAIConfig
	}
	return cfg, nil
}

// View implements AIConfigService.
func (s *aiConfigService) View() (*models.AIConfigView, error) {
	var stored models.StoredAIConfig
	if err := s.settings.Get(models.SettingAIConfig, &stored); err != nil {
		if errors.Is(err, repositories.ErrSettingNotFound) {
			return nil, ErrNoAIConfig
		}
		return nil, err
	}

	return &models.AIConfigView{
		BaseURL:   stored.BaseURL,
		Model:     stored.Model,
		HasAPIKey: len(stored.APIKey) > 0,
	}, nil
}

// Reset implements AIConfigService: drops the stored connection and the
// device secret. Any other payload encrypted under the old secret is
// gone for good, which is what "reset all data" means.
func (s *aiConfigService) Reset() error {
	if err := s.settings.Delete(models.SettingAIConfig); err != nil {
		return err
	}
	return s.vault.ClearSecret()
}
