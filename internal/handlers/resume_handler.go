package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"cvre/cv-optimizer/internal/models"
	"cvre/cv-optimizer/internal/repositories"
	"cvre/cv-optimizer/internal/services"
	"cvre/cv-optimizer/pkg/logging"
)

// ResumeHandler owns the ingestion surface: upload+analyze, status
// polling, and reads/writes of the stored structured résumé.
type ResumeHandler struct {
	storageService services.StorageService
	analyzer       services.Analyzer
	aiConfig       services.AIConfigService
	settings       repositories.SettingRepository
	buildProvider  services.ProviderBuilder
	maxFileSize    int64
	logger         *logging.Logger
}

func NewResumeHandler(
	storageService services.StorageService,
	analyzer services.Analyzer,
	aiConfig services.AIConfigService,
	settings repositories.SettingRepository,
	buildProvider services.ProviderBuilder,
	maxFileSize int64,
	logger *logging.Logger,
) *ResumeHandler {
	if buildProvider == nil {
		buildProvider = services.NewProvider
	}
	return &ResumeHandler{
		storageService: storageService,
		analyzer:       analyzer,
		aiConfig:       aiConfig,
		settings:       settings,
		buildProvider:  buildProvider,
		maxFileSize:    maxFileSize,
		logger:         logger,
	}
}

// HandleAnalyze accepts a PDF upload plus optional identity fields and
// starts the pipeline in the background. Progress is read from the
// status endpoint; the response only acknowledges the start.
func (h *ResumeHandler) HandleAnalyze(c *fiber.Ctx) error {
	file, err := c.FormFile("cv")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing 'cv' file field",
		})
	}

	if file.Size > h.maxFileSize {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("CV file too large. Max size: %d bytes", h.maxFileSize),
		})
	}

	// Fail fast before accepting work the pipeline cannot finish.
	cfg, err := h.aiConfig.Load()
	if err != nil {
		if errors.Is(err, services.ErrNoAIConfig) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "no AI provider configured. Set one up in settings first",
			})
		}
		if errors.Is(err, services.ErrCrypto) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "stored API key could not be decrypted. Re-enter it in settings",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to load AI configuration: %v", err),
		})
	}

	hints := models.IdentityHints{
		FirstName: c.FormValue("firstName"),
		LastName:  c.FormValue("lastName"),
		Email:     c.FormValue("email"),
		Phone:     c.FormValue("phone"),
	}

	filename, filePath, err := h.storageService.SaveFile(file)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to save CV file: %v", err),
		})
	}

	go h.runPipeline(*cfg, filename, filePath, hints)

	return c.Status(fiber.StatusAccepted).JSON(models.AnalyzeResponse{
		Status:   models.StateExtracting,
		Filename: file.Filename,
	})
}

// runPipeline executes the analysis outside the request lifecycle. The
// uploaded file is working state only and is removed when the run ends.
func (h *ResumeHandler) runPipeline(cfg models.AIConfig, filename, filePath string, hints models.IdentityHints) {
	ctx := context.Background()
	defer func() {
		if err := h.storageService.DeleteFile(filename); err != nil {
			h.logger.Warn("failed to delete uploaded file", "filename", filename, "error", err)
		}
	}()

	provider, err := h.buildProvider(ctx, cfg)
	if err != nil {
		h.logger.Error("failed to initialize AI provider", "error", err)
		services.NewStatusTracker(h.settings, nil, h.logger).Fail(err.Error())
		return
	}

	if _, err := h.analyzer.AnalyzeFile(ctx, provider, filePath, hints, nil); err != nil {
		h.logger.Error("CV analysis failed", "error", err)
	}
}

// HandleStatus returns the persisted pipeline snapshot.
func (h *ResumeHandler) HandleStatus(c *fiber.Ctx) error {
	status, err := services.CurrentStatus(h.settings)
	if err != nil {
		if errors.Is(err, repositories.ErrSettingNotFound) {
			return c.JSON(models.AnalysisStatus{Status: models.StateIdle})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to read analysis status: %v", err),
		})
	}
	return c.JSON(status)
}

// HandleGetResume returns the stored structured résumé.
func (h *ResumeHandler) HandleGetResume(c *fiber.Ctx) error {
	var resume models.StructuredResume
	if err := h.settings.Get(models.SettingParsedCV, &resume); err != nil {
		if errors.Is(err, repositories.ErrSettingNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "no CV has been analyzed yet",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to read CV: %v", err),
		})
	}

	resume.Normalize()
	return c.JSON(resume)
}

// HandleUpdateResume overwrites the stored résumé with a user-edited
// version. The payload is normalized so downstream consumers never see
// nil sections.
func (h *ResumeHandler) HandleUpdateResume(c *fiber.Ctx) error {
	var resume models.StructuredResume
	if err := c.BodyParser(&resume); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}

	resume.Normalize()
	if resume.IsEmpty() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "CV payload is empty",
		})
	}

	if err := h.settings.Put(models.SettingParsedCV, &resume); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to save CV: %v", err),
		})
	}

	return c.JSON(resume)
}
