package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"cvre/cv-optimizer/internal/models"
	"cvre/cv-optimizer/internal/repositories"
	"cvre/cv-optimizer/pkg/logging"
)

// OptimizationService drives one queued optimization record to a terminal
// state: job-details extraction, the rewrite itself, and persistence. It
// is invoked by the worker, never by handlers directly.
type OptimizationService interface {
	RunOptimization(ctx context.Context, id uuid.UUID) error
}

// ProviderBuilder lets tests substitute a fake provider without standing
// up a real endpoint.
type ProviderBuilder func(ctx context.Context, cfg models.AIConfig) (Provider, error)

type optimizationService struct {
	repo       repositories.OptimizationRepository
	aiConfig   AIConfigService
	jobDetails JobDetailsExtractor
	optimizer  Optimizer
	buildProv  ProviderBuilder
	logger     *logging.Logger
}

func NewOptimizationService(
	repo repositories.OptimizationRepository,
	aiConfig AIConfigService,
	jobDetails JobDetailsExtractor,
	optimizer Optimizer,
	buildProv ProviderBuilder,
	logger *logging.Logger,
) OptimizationService {
	if buildProv == nil {
		buildProv = NewProvider
	}
	return &optimizationService{
		repo:       repo,
		aiConfig:   aiConfig,
		jobDetails: jobDetails,
		optimizer:  optimizer,
		buildProv:  buildProv,
		logger:     logger,
	}
}

// RunOptimization implements OptimizationService. Any failure past the
// processing transition is written onto the record so the list view can
// show why a run failed.
func (s *optimizationService) RunOptimization(ctx context.Context, id uuid.UUID) error {
	record, err := s.repo.FindByID(id)
	if err != nil {
		return err
	}
	if record.Status != models.OptimizationQueued {
		s.logger.Debug("skipping optimization not in queued state", "id", id, "status", record.Status)
		return nil
	}

	if err := s.repo.UpdateStatus(id, models.OptimizationProcessing); err != nil {
		return err
	}

	if err := s.process(ctx, record); err != nil {
		s.logger.Error("optimization failed", "id", id, "error", err)
		if uerr := s.repo.UpdateError(id, err.Error()); uerr != nil {
			s.logger.Error("failed to record optimization error", "id", id, "error", uerr)
		}
		return err
	}

	s.logger.Info("optimization completed", "id", id)
	return nil
}

func (s *optimizationService) process(ctx context.Context, record *models.OptimizedCV) error {
	cfg, err := s.aiConfig.Load()
	if err != nil {
		if errors.Is(err, ErrCrypto) {
			// The record's error field is what the user sees in the list
			// view, so spell out the remediation.
			return fmt.Errorf("%w. Re-enter your API key in settings", err)
		}
		return err
	}

	provider, err := s.buildProv(ctx, *cfg)
	if err != nil {
		return err
	}

	var originalCV models.StructuredResume
	if err := json.Unmarshal([]byte(record.OriginalCV), &originalCV); err != nil {
		return fmt.Errorf("failed to decode stored CV: %w", err)
	}

	details, err := s.jobDetails.ExtractDetails(ctx, provider, record.JobDescription)
	if err != nil {
		return err
	}

	result, err := s.optimizer.Optimize(ctx, provider, &originalCV,
		record.JobDescription, record.MatchMode, record.Language)
	if err != nil {
		return err
	}

	update, err := buildUpdateData(details, result)
	if err != nil {
		return err
	}
	return s.repo.UpdateResult(record.ID, update)
}

// buildUpdateData serializes the engine output into the JSON text columns.
// The engine's jobTitle/company win over the details extractor's when both
// are present; the details extractor fills the gaps.
func buildUpdateData(details *models.JobDetails, result *models.OptimizationResult) (*repositories.OptimizationUpdateData, error) {
	jobTitle := result.JobTitle
	if jobTitle == "" {
		jobTitle = details.JobTitle
	}
	company := result.Company
	if company == "" {
		company = details.Company
	}

	optimizedJSON, err := json.Marshal(result.OptimizedCV)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize optimized CV: %w", err)
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize job details: %w", err)
	}
	changesJSON, err := json.Marshal(result.Changes)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize changes: %w", err)
	}
	suggestionsJSON, err := json.Marshal(result.Suggestions)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize suggestions: %w", err)
	}

	return &repositories.OptimizationUpdateData{
		JobTitle:    models.TruncateField(jobTitle),
		Company:     models.TruncateField(company),
		MatchScore:  result.MatchScore,
		OptimizedCV: string(optimizedJSON),
		JobDetails:  string(detailsJSON),
		Changes:     string(changesJSON),
		Suggestions: string(suggestionsJSON),
	}, nil
}
