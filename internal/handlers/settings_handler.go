package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"cvre/cv-optimizer/internal/models"
	"cvre/cv-optimizer/internal/repositories"
	"cvre/cv-optimizer/internal/services"
	"cvre/cv-optimizer/pkg/logging"
)

// SettingsHandler owns the provider connection, the model catalog, the
// prompt overrides and the reset switch.
type SettingsHandler struct {
	aiConfig      services.AIConfigService
	settings      repositories.SettingRepository
	buildProvider services.ProviderBuilder
	logger        *logging.Logger
}

func NewSettingsHandler(
	aiConfig services.AIConfigService,
	settings repositories.SettingRepository,
	buildProvider services.ProviderBuilder,
	logger *logging.Logger,
) *SettingsHandler {
	if buildProvider == nil {
		buildProvider = services.NewProvider
	}
	return &SettingsHandler{
		aiConfig:      aiConfig,
		settings:      settings,
		buildProvider: buildProvider,
		logger:        logger,
	}
}

// HandleGetAIConfig returns the stored connection without the key.
func (h *SettingsHandler) HandleGetAIConfig(c *fiber.Ctx) error {
	view, err := h.aiConfig.View()
	if err != nil {
		if errors.Is(err, services.ErrNoAIConfig) {
			return c.JSON(models.AIConfigView{})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to read AI configuration: %v", err),
		})
	}
	return c.JSON(view)
}

// HandleSaveAIConfig stores the provider connection with the key
// encrypted at rest.
func (h *SettingsHandler) HandleSaveAIConfig(c *fiber.Ctx) error {
	var req models.AIConfigRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}
	if strings.TrimSpace(req.BaseURL) == "" || strings.TrimSpace(req.Model) == "" ||
		strings.TrimSpace(req.APIKey) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "baseURL, model and apiKey are required",
		})
	}

	if err := h.aiConfig.Save(req); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to save AI configuration: %v", err),
		})
	}

	view, err := h.aiConfig.View()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to read saved configuration: %v", err),
		})
	}
	return c.JSON(view)
}

// HandleTestConnection makes a minimal provider call with either the
// posted credentials or the stored ones.
func (h *SettingsHandler) HandleTestConnection(c *fiber.Ctx) error {
	cfg, err := h.resolveConfig(c)
	if cfg == nil {
		// resolveConfig already wrote the error response.
		return err
	}

	provider, err := h.buildProvider(c.Context(), *cfg)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"error":   fmt.Sprintf("failed to initialize AI provider: %v", err),
		})
	}

	if err := provider.TestConnection(c.Context()); err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"success": true})
}

// HandleListModels queries the provider's model catalog, again with
// either posted or stored credentials, so the UI can offer a picker
// before anything is saved.
func (h *SettingsHandler) HandleListModels(c *fiber.Ctx) error {
	cfg, err := h.resolveConfig(c)
	if cfg == nil {
		return err
	}

	provider, err := h.buildProvider(c.Context(), *cfg)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to initialize AI provider: %v", err),
		})
	}

	list, err := provider.ListModels(c.Context())
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to list models: %v", err),
		})
	}
	return c.JSON(fiber.Map{"models": list})
}

// resolveConfig reads credentials from the request body, falling back to
// the stored configuration for any missing piece. Writes the error
// response itself and returns a nil config when resolution fails.
func (h *SettingsHandler) resolveConfig(c *fiber.Ctx) (*models.AIConfig, error) {
	var req models.AIConfigRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request payload",
			})
		}
	}

	cfg := &models.AIConfig{
		BaseURL: strings.TrimSpace(req.BaseURL),
		Model:   strings.TrimSpace(req.Model),
		APIKey:  strings.TrimSpace(req.APIKey),
	}
	if cfg.BaseURL != "" && cfg.APIKey != "" {
		return cfg, nil
	}

	stored, err := h.aiConfig.Load()
	if err != nil {
		if errors.Is(err, services.ErrNoAIConfig) {
			return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "no AI provider configured and no credentials supplied",
			})
		}
		if errors.Is(err, services.ErrCrypto) {
			return nil, c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "stored API key could not be decrypted. Re-enter it in settings",
			})
		}
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to load AI configuration: %v", err),
		})
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = stored.BaseURL
	}
	if cfg.APIKey == "" {
		cfg.APIKey = stored.APIKey
	}
	if cfg.Model == "" {
		cfg.Model = stored.Model
	}
	return cfg, nil
}

// HandleGetPrompts returns the effective prompt settings, defaults
// filled in.
func (h *SettingsHandler) HandleGetPrompts(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"system":                 h.settingOrDefault(models.SettingPromptSystem, services.DefaultSystemPrompt),
		"instruction_light":      h.settingOrDefault(models.SettingPromptInstruction(models.ModeLight), services.DefaultInstructionLight),
		"instruction_normal":     h.settingOrDefault(models.SettingPromptInstruction(models.ModeNormal), services.DefaultInstructionNormal),
		"instruction_aggressive": h.settingOrDefault(models.SettingPromptInstruction(models.ModeAggressive), services.DefaultInstructionAggressive),
	})
}

// HandleSavePrompts stores prompt overrides. Omitted fields are left
// untouched so the client can update one piece at a time; an explicit
// empty string clears that override back to its built-in default.
func (h *SettingsHandler) HandleSavePrompts(c *fiber.Ctx) error {
	var req models.PromptSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}

	updates := map[string]*string{
		models.SettingPromptSystem:                             req.System,
		models.SettingPromptInstruction(models.ModeLight):      req.InstructionLight,
		models.SettingPromptInstruction(models.ModeNormal):     req.InstructionNormal,
		models.SettingPromptInstruction(models.ModeAggressive): req.InstructionAggressive,
	}
	for key, value := range updates {
		if value == nil {
			continue
		}
		if *value == "" {
			if err := h.settings.Delete(key); err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": fmt.Sprintf("failed to clear prompt setting %s: %v", key, err),
				})
			}
			continue
		}
		if err := h.settings.PutString(key, *value); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": fmt.Sprintf("failed to save prompt setting %s: %v", key, err),
			})
		}
	}

	if req.RetryCount != nil {
		if *req.RetryCount < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "retry_count must be zero or positive",
			})
		}
		if err := h.settings.Put(models.SettingRetryCount, *req.RetryCount); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": fmt.Sprintf("failed to save retry count: %v", err),
			})
		}
	}

	return c.JSON(fiber.Map{"message": "Prompt settings saved"})
}

// HandleReset drops the provider connection, the encryption secret, the
// stored résumé and all prompt overrides. Optimization history keeps its
// records; they hold no encrypted material.
func (h *SettingsHandler) HandleReset(c *fiber.Ctx) error {
	if err := h.aiConfig.Reset(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to reset AI configuration: %v", err),
		})
	}

	keys := []string{
		models.SettingParsedCV,
		models.SettingAnalysisStatus,
		models.SettingRetryCount,
		models.SettingPromptSystem,
		models.SettingPromptInstruction(models.ModeLight),
		models.SettingPromptInstruction(models.ModeNormal),
		models.SettingPromptInstruction(models.ModeAggressive),
	}
	for _, key := range keys {
		if err := h.settings.Delete(key); err != nil {
			h.logger.Warn("failed to delete setting during reset", "key", key, "error", err)
		}
	}

	return c.JSON(fiber.Map{"message": "All settings have been reset"})
}

func (h *SettingsHandler) settingOrDefault(key, fallback string) string {
	value, err := h.settings.GetString(key)
	if err != nil || value == "" {
		return fallback
	}
	return value
}
