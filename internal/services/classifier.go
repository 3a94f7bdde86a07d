package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"cvre/cv-optimizer/internal/models"
	"cvre/cv-optimizer/pkg/logging"
)

// classifierSampleLen bounds how much document text is sent for the
// admission checks; the opening of a document is enough to classify it.
const classifierSampleLen = 2000

// Classifier answers "is this a résumé" and "is this a job posting" via
// one model call each. Classification only gates a user-facing warning,
// so it never errors on a malformed model response; it degrades to a
// keyword heuristic instead. Threshold enforcement is the caller's job.
type Classifier interface {
	ValidateResume(ctx context.Context, provider Provider, text string) (*models.ResumeValidationResult, error)
	AnalyzeJobPosting(ctx context.Context, provider Provider, text string) (*models.JobAnalysisResult, error)
}

type classifier struct {
	logger *logging.Logger
}

func NewClassifier(logger *logging.Logger) Classifier {
	return &classifier{logger: logger}
}

// ValidateResume implements Classifier.
func (c *classifier) ValidateResume(ctx context.Context, provider Provider, text string) (*models.ResumeValidationResult, error) {
	sample := textSample(text)
	prompt := fmt.Sprintf(`Analyze the following text and determine whether it is a CV (curriculum vitae / résumé).

Text to analyze:
%s

Respond ONLY with a JSON object in the following format (no text before or after):
{
  "isCV": true or false,
  "confidence": number between 0 and 1 (your confidence level),
  "reason": "short explanation of why this is or is not a CV"
}

A CV typically contains:
- Personal information (name, email, phone)
- Professional experience
- Skills
- Education
- Possibly languages, certifications, projects

If the document is a contract, a cover letter, a report, an invoice, or any other kind of document, answer isCV: false.`, sample)

	response, err := provider.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to validate document: %w", err)
	}

	var result models.ResumeValidationResult
	if raw, ok := ExtractJSONObject(response); ok {
		if err := json.Unmarshal([]byte(raw), &result); err == nil {
			result.Confidence = clampConfidence(result.Confidence)
			return &result, nil
		}
	}

	c.logger.Warn("resume validation response unparsable, using keyword heuristic")
	return resumeHeuristic(sample), nil
}

// AnalyzeJobPosting implements Classifier.
func (c *classifier) AnalyzeJobPosting(ctx context.Context, provider Provider, text string) (*models.JobAnalysisResult, error) {
	prompt := fmt.Sprintf(`Analyze the following text and determine whether it is a job posting.

Text to analyze:
%s

Respond ONLY with a JSON object in the following format (no text before or after):
{
  "isJobPosting": true or false,
  "confidence": number between 0 and 1 (your confidence level),
  "summary": "COMPLETE and WELL-FORMATTED summary of the posting. IMPORTANT: if this is a job posting, structure the summary with clear sections and bullet lists covering the job title, company, missions, required skills, tools, experience, contract type, location and benefits. Use line breaks (\n) between sections. If it is NOT a job posting, explain briefly (max 2 sentences) why the content does not look like one (e.g. login page, blog article, home page)."
}`, text)

	response, err := provider.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze job posting: %w", err)
	}

	var result models.JobAnalysisResult
	if raw, ok := ExtractJSONObject(response); ok {
		if err := json.Unmarshal([]byte(raw), &result); err == nil {
			result.Confidence = clampConfidence(result.Confidence)
			return &result, nil
		}
	}

	c.logger.Warn("job posting analysis response unparsable, using keyword heuristic")
	return jobPostingHeuristic(text, response), nil
}

// resumeHeuristic is the parse-failure fallback: keyword presence puts
// the result exactly at the passing threshold, absence well below it.
func resumeHeuristic(sample string) *models.ResumeValidationResult {
	keywords := []string{
		"experience", "expérience", "compétences", "skills",
		"formation", "education", "cv", "curriculum", "resume",
	}
	lower := strings.ToLower(sample)
	hasKeywords := false
	for _, keyword := range keywords {
		if strings.Contains(lower, keyword) {
			hasKeywords = true
			break
		}
	}

	if hasKeywords {
		return &models.ResumeValidationResult{
			IsCV:       true,
			Confidence: 0.6,
			Reason:     "The document contains keywords typical of a CV",
		}
	}
	return &models.ResumeValidationResult{
		IsCV:       false,
		Confidence: 0.4,
		Reason:     "The document does not appear to contain elements typical of a CV",
	}
}

func jobPostingHeuristic(text, response string) *models.JobAnalysisResult {
	keywords := []string{
		"poste", "candidat", "compétences", "mission", "responsabilités",
		"job", "position", "skills", "requirements", "experience",
	}
	lower := strings.ToLower(text)
	hasKeywords := false
	for _, keyword := range keywords {
		if strings.Contains(lower, keyword) {
			hasKeywords = true
			break
		}
	}

	confidence := 0.3
	if hasKeywords {
		confidence = 0.7
	}
	return &models.JobAnalysisResult{
		IsJobPosting: hasKeywords,
		Confidence:   confidence,
		Summary:      response,
	}
}

// textSample bounds the text at classifierSampleLen bytes, backing off
// to the previous rune boundary so an accented character is never cut
// in half.
func textSample(text string) string {
	if len(text) <= classifierSampleLen {
		return text
	}
	cut := classifierSampleLen
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
