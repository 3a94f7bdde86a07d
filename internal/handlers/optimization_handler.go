package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"cvre/cv-optimizer/internal/models"
	"cvre/cv-optimizer/internal/repositories"
	"cvre/cv-optimizer/internal/services"
	"cvre/cv-optimizer/pkg/logging"
)

// OptimizationHandler owns the optimization records: queueing new runs
// and the history CRUD.
type OptimizationHandler struct {
	repo     repositories.OptimizationRepository
	settings repositories.SettingRepository
	worker   services.Worker
	logger   *logging.Logger
}

func NewOptimizationHandler(
	repo repositories.OptimizationRepository,
	settings repositories.SettingRepository,
	worker services.Worker,
	logger *logging.Logger,
) *OptimizationHandler {
	return &OptimizationHandler{
		repo:     repo,
		settings: settings,
		worker:   worker,
		logger:   logger,
	}
}

// HandleOptimize queues one optimization of the stored résumé against
// the posted job description. The work happens on the worker; the
// response carries the record ID for polling.
func (h *OptimizationHandler) HandleOptimize(c *fiber.Ctx) error {
	var req models.OptimizeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}
	if strings.TrimSpace(req.JobDescription) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "job_description is required",
		})
	}
	if req.Mode == "" {
		req.Mode = models.ModeNormal
	}
	if !req.Mode.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("invalid mode: %s (expected light, normal or aggressive)", req.Mode),
		})
	}
	if req.Language == "" {
		req.Language = models.LangFrench
	}
	if !req.Language.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("invalid language: %s (expected fr or en)", req.Language),
		})
	}

	var resume models.StructuredResume
	if err := h.settings.Get(models.SettingParsedCV, &resume); err != nil {
		if errors.Is(err, repositories.ErrSettingNotFound) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "no CV has been analyzed yet. Upload and analyze a CV first",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to read CV: %v", err),
		})
	}
	resume.Normalize()

	originalJSON, err := json.Marshal(resume)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to serialize CV: %v", err),
		})
	}

	record := models.OptimizedCV{
		ID:             uuid.New(),
		JobDescription: req.JobDescription,
		OriginalCV:     string(originalJSON),
		MatchMode:      req.Mode,
		Language:       req.Language,
		Status:         models.OptimizationQueued,
		Application:    models.ApplicationOptimized,
	}
	if err := h.repo.Create(&record); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to create optimization: %v", err),
		})
	}

	h.worker.EnqueueJob(record.ID)

	return c.Status(fiber.StatusAccepted).JSON(models.OptimizeResponse{
		ID:     record.ID.String(),
		Status: record.Status,
	})
}

// HandleList returns all optimizations, newest first.
func (h *OptimizationHandler) HandleList(c *fiber.Ctx) error {
	records, err := h.repo.FindAll()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to list optimizations: %v", err),
		})
	}

	views := make([]models.OptimizationView, 0, len(records))
	for i := range records {
		views = append(views, h.toView(&records[i], false))
	}
	return c.JSON(fiber.Map{"optimizations": views})
}

// HandleGet returns one optimization with its full payloads.
func (h *OptimizationHandler) HandleGet(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid optimization ID",
		})
	}

	record, err := h.repo.FindByID(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	view := h.toView(record, true)
	return c.JSON(view)
}

// HandleUpdateApplication moves an optimization through the application
// tracking states.
func (h *OptimizationHandler) HandleUpdateApplication(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid optimization ID",
		})
	}

	var req models.UpdateApplicationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}
	if !req.Status.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("invalid application status: %s", req.Status),
		})
	}

	if err := h.repo.UpdateApplication(id, req.Status); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"id": id.String(), "application_status": req.Status})
}

// HandleDelete removes one optimization record.
func (h *OptimizationHandler) HandleDelete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid optimization ID",
		})
	}

	if err := h.repo.Delete(id); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// toView decodes the JSON payload columns. The list view skips the heavy
// CV payloads; the detail view carries everything. Decode failures are
// logged and leave the field nil rather than failing the read.
func (h *OptimizationHandler) toView(record *models.OptimizedCV, full bool) models.OptimizationView {
	view := models.OptimizationView{
		ID:           record.ID.String(),
		JobTitle:     record.JobTitle,
		Company:      record.Company,
		MatchMode:    record.MatchMode,
		Language:     record.Language,
		MatchScore:   record.MatchScore,
		Status:       record.Status,
		Application:  record.Application,
		Changes:      []string{},
		Suggestions:  []string{},
		ErrorMessage: record.ErrorMessage,
		CreatedAt:    record.CreatedAt.UnixMilli(),
		UpdatedAt:    record.UpdatedAt.UnixMilli(),
	}
	if record.SentAt != nil {
		view.SentAt = record.SentAt.UnixMilli()
	}

	h.decodeColumn(record.ID, "changes", record.Changes, &view.Changes)
	h.decodeColumn(record.ID, "suggestions", record.Suggestions, &view.Suggestions)
	if record.JobDetails != "" {
		view.JobDetails = &models.JobDetails{}
		h.decodeColumn(record.ID, "job_details", record.JobDetails, view.JobDetails)
	}

	if full {
		if record.OriginalCV != "" {
			view.OriginalCV = &models.StructuredResume{}
			h.decodeColumn(record.ID, "original_cv", record.OriginalCV, view.OriginalCV)
		}
		if record.OptimizedCV != "" {
			view.OptimizedCV = &models.StructuredResume{}
			h.decodeColumn(record.ID, "optimized_cv", record.OptimizedCV, view.OptimizedCV)
		}
	}

	return view
}

func (h *OptimizationHandler) decodeColumn(id uuid.UUID, column, raw string, target any) {
	if raw == "" {
		return
	}
	if err := json.Unmarshal([]byte(raw), target); err != nil {
		h.logger.Warn("failed to decode stored column", "id", id, "column", column, "error", err)
	}
}
