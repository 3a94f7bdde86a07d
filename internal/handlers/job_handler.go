package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"cvre/cv-optimizer/internal/models"
	"cvre/cv-optimizer/internal/services"
	"cvre/cv-optimizer/pkg/logging"
)

// JobHandler classifies pasted job posting text and extracts structured
// details when the classification passes.
type JobHandler struct {
	classifier    services.Classifier
	jobDetails    services.JobDetailsExtractor
	aiConfig      services.AIConfigService
	buildProvider services.ProviderBuilder
	threshold     float64
	logger        *logging.Logger
}

func NewJobHandler(
	classifier services.Classifier,
	jobDetails services.JobDetailsExtractor,
	aiConfig services.AIConfigService,
	buildProvider services.ProviderBuilder,
	threshold float64,
	logger *logging.Logger,
) *JobHandler {
	if buildProvider == nil {
		buildProvider = services.NewProvider
	}
	return &JobHandler{
		classifier:    classifier,
		jobDetails:    jobDetails,
		aiConfig:      aiConfig,
		buildProvider: buildProvider,
		threshold:     threshold,
		logger:        logger,
	}
}

// HandleAnalyzeJob runs the posting gate. Details are only extracted for
// text that passes, so a grocery list never produces a details payload.
func (h *JobHandler) HandleAnalyzeJob(c *fiber.Ctx) error {
	var req models.JobAnalyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}
	if strings.TrimSpace(req.Text) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "text is required",
		})
	}

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

	provider, err := h.buildProvider(c.Context(), *cfg)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to initialize AI provider: %v", err),
		})
	}

	analysis, err := h.classifier.AnalyzeJobPosting(c.Context(), provider, req.Text)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": fmt.Sprintf("job analysis failed: %v", err),
		})
	}

	resp := models.JobAnalyzeResponse{Analysis: *analysis}
	if analysis.IsJobPosting && analysis.Confidence >= h.threshold {
		details, err := h.jobDetails.ExtractDetails(c.Context(), provider, req.Text)
		if err != nil {
			h.logger.Warn("job details extraction failed", "error", err)
		} else {
			resp.Details = details
		}
	}

	return c.JSON(resp)
}
