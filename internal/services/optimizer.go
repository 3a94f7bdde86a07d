package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cvre/cv-optimizer/internal/models"
	"cvre/cv-optimizer/internal/repositories"
	"cvre/cv-optimizer/pkg/logging"
)

// Optimizer rewrites a structured résumé against a job description. One
// run makes up to retryBound+1 sequential model calls; an attempt only
// counts as successful when the response parses and carries a non-empty
// optimizedCV and jobTitle. After the bound is exhausted the last error
// propagates; a partial result is never returned.
type Optimizer interface {
	Optimize(ctx context.Context, provider Provider, originalCV *models.StructuredResume,
		jobDescription string, mode models.MatchMode, language models.Language) (*models.OptimizationResult, error)
}

type optimizer struct {
	settings     repositories.SettingRepository
	defaultRetry int
	logger       *logging.Logger
}

func NewOptimizer(settings repositories.SettingRepository, defaultRetry int, logger *logging.Logger) Optimizer {
	return &optimizer{
		settings:     settings,
		defaultRetry: defaultRetry,
		logger:       logger,
	}
}

// Optimize implements Optimizer.
func (o *optimizer) Optimize(ctx context.Context, provider Provider, originalCV *models.StructuredResume,
	jobDescription string, mode models.MatchMode, language models.Language) (*models.OptimizationResult, error) {

	prompt, err := o.buildPrompt(originalCV, jobDescription, mode, language)
	if err != nil {
		return nil, err
	}
	retryBound := o.retryBound()

	var lastErr error
	for attempt := 0; attempt <= retryBound; attempt++ {
		if attempt > 0 {
			o.logger.Warn("retrying optimization", "attempt", attempt, "bound", retryBound)
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("optimization cancelled: %w", err)
		}

		result, err := o.attempt(ctx, provider, prompt)
		if err == nil {
			return result, nil
		}

		o.logger.Error("optimization attempt failed", "attempt", attempt+1, "error", err)
		lastErr = err
	}

	return nil, fmt.Errorf("failed to optimize CV after %d attempts: %w", retryBound+1, lastErr)
}

func (o *optimizer) attempt(ctx context.Context, provider Provider, prompt string) (*models.OptimizationResult, error) {
	response, err := provider.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	raw, ok := ExtractJSONObject(response)
	if !ok {
		return nil, fmt.Errorf("%w: optimization response contained no JSON", ErrUnparsableResponse)
	}

	// Decode against a shadow type first so a missing optimizedCV is
	// distinguishable from an empty one.
	var probe struct {
		OptimizedCV json.RawMessage `json:"optimizedCV"`
		JobTitle    string          `json:"jobTitle"`
	}
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsableResponse, err)
	}
	if len(probe.OptimizedCV) == 0 || string(probe.OptimizedCV) == "null" {
		return nil, fmt.Errorf("%w: result is missing optimizedCV", ErrUnparsableResponse)
	}
	if !strings.HasPrefix(strings.TrimSpace(string(probe.OptimizedCV)), "{") {
		return nil, fmt.Errorf("%w: optimizedCV is not a structured object", ErrUnparsableResponse)
	}
	if strings.TrimSpace(probe.JobTitle) == "" {
		return nil, fmt.Errorf("%w: result is missing jobTitle", ErrUnparsableResponse)
	}

	var result models.OptimizationResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsableResponse, err)
	}
	result.OptimizedCV.Normalize()
	if result.Changes == nil {
		result.Changes = []string{}
	}
	if result.Suggestions == nil {
		result.Suggestions = []string{}
	}

	return &result, nil
}

// buildPrompt resolves the system template and the per-mode instruction
// from settings (with built-in defaults) and substitutes the
// placeholders textually.
func (o *optimizer) buildPrompt(originalCV *models.StructuredResume, jobDescription string,
	mode models.MatchMode, language models.Language) (string, error) {

	cvText, err := json.MarshalIndent(originalCV, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize CV: %w", err)
	}

	systemPrompt := o.settingOrDefault(models.SettingPromptSystem, DefaultSystemPrompt)
	instruction := o.settingOrDefault(models.SettingPromptInstruction(mode), defaultInstruction(mode))

	langText := "ENGLISH"
	if language == models.LangFrench {
		langText = "FRENCH"
	}

	prompt := systemPrompt
	prompt = strings.Replace(prompt, "{jobDescription}", jobDescription, 1)
	prompt = strings.Replace(prompt, "{cvText}", string(cvText), 1)
	prompt = strings.Replace(prompt, "{instructions}", instruction, 1)
	prompt = strings.Replace(prompt, "{structure}", DefaultStructurePrompt, 1)
	prompt = strings.ReplaceAll(prompt, "{lang}", langText)

	return prompt, nil
}

func (o *optimizer) settingOrDefault(key, fallback string) string {
	value, err := o.settings.GetString(key)
	if err != nil || value == "" {
		if err != nil && !errors.Is(err, repositories.ErrSettingNotFound) {
			o.logger.Warn("failed to read prompt setting, using default", "key", key, "error", err)
		}
		return fallback
	}
	return value
}

func (o *optimizer) retryBound() int {
	var count int
	if err := o.settings.Get(models.SettingRetryCount, &count); err == nil && count >= 0 {
		return count
	}
	return o.defaultRetry
}

func defaultInstruction(mode models.MatchMode) string {
	switch mode {
	case models.ModeLight:
		return DefaultInstructionLight
	case models.ModeAggressive:
		return DefaultInstructionAggressive
	default:
		return DefaultInstructionNormal
	}
}
