package services

import (
	"context"
	"encoding/json"
	"fmt"

	"cvre/cv-optimizer/internal/models"
	"cvre/cv-optimizer/pkg/logging"
)

// JobDetailsExtractor pulls a structured record out of a job posting.
// Parse failure falls back to an empty defaulted record rather than an
// error: the details only enrich the tracking view, the raw posting text
// is what the optimizer consumes.
type JobDetailsExtractor interface {
	ExtractDetails(ctx context.Context, provider Provider, text string) (*models.JobDetails, error)
}

type jobDetailsExtractor struct {
	logger *logging.Logger
}

func NewJobDetailsExtractor(logger *logging.Logger) JobDetailsExtractor {
	return &jobDetailsExtractor{logger: logger}
}

// ExtractDetails implements JobDetailsExtractor.
func (j *jobDetailsExtractor) ExtractDetails(ctx context.Context, provider Provider, text string) (*models.JobDetails, error) {
	prompt := fmt.Sprintf(`Analyze this job posting in detail and extract all structured information.

JOB POSTING:
%s

Respond ONLY with a JSON object in the following format (no text before or after):
{
  "jobTitle": "exact job title (MAX 35 characters, shorten if needed)",
  "company": "company name (MAX 35 characters, shorten if needed, or 'Not specified' if absent)",
  "location": "city/region (or null if absent)",
  "keywords": ["list", "of", "important", "keywords"],
  "tools": ["tool 1", "tool 2", "technology 1"] (every tool, technology, language, framework mentioned),
  "requiredSkills": ["required skill 1", "required skill 2"] (mandatory skills),
  "preferredSkills": ["preferred skill 1", "preferred skill 2"] (nice-to-have skills, or empty array if absent),
  "profile": "description of the profile they are looking for, a few lines",
  "missions": ["mission 1", "mission 2", "mission 3"] (responsibilities of the role),
  "contractType": "permanent/fixed-term/internship/freelance/etc" (or null if absent),
  "salary": "salary range if mentioned" (or null if absent),
  "benefits": ["benefit 1", "benefit 2"] (benefits mentioned, or empty array if absent)
}

IMPORTANT:
- Extract as much information as possible
- When a piece of information is absent, use null for strings and [] for arrays
- For keywords, pick the most important ones (sector, domain, main technologies)
- For tools, list EVERY tool/technology/language mentioned
- HARD LIMIT: jobTitle and company must NEVER exceed 35 characters. Abbreviate intelligently when needed`, text)

	response, err := provider.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to extract job details: %w", err)
	}

	details := &models.JobDetails{}
	if raw, ok := ExtractJSONObject(response); ok {
		if err := json.Unmarshal([]byte(raw), details); err != nil {
			j.logger.Warn("job details response unparsable, returning defaults", "error", err)
			details = defaultJobDetails()
		}
	} else {
		j.logger.Warn("no JSON object located in job details response")
		details = defaultJobDetails()
	}

	// The model occasionally ignores the length contract; enforce it.
	details.Normalize()
	return details, nil
}

func defaultJobDetails() *models.JobDetails {
	return &models.JobDetails{
		JobTitle: "Not specified",
		Company:  "Not specified",
		Profile:  "Profile not specified",
	}
}
