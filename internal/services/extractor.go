package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"cvre/cv-optimizer/internal/models"
	"cvre/cv-optimizer/pkg/logging"
)

// Extractor turns raw résumé text into a StructuredResume. Unlike the
// classifier there is no heuristic fallback: a partially guessed record
// would be worse than an explicit failure, so an unparsable response is
// fatal.
type Extractor interface {
	ParseResume(ctx context.Context, provider Provider, text string, hints models.IdentityHints) (*models.StructuredResume, error)
}

type extractor struct {
	logger *logging.Logger
}

func NewExtractor(logger *logging.Logger) Extractor {
	return &extractor{logger: logger}
}

// ParseResume implements Extractor.
func (e *extractor) ParseResume(ctx context.Context, provider Provider, text string, hints models.IdentityHints) (*models.StructuredResume, error) {
	prompt := buildParsePrompt(text, hints)

	response, err := provider.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse CV: %w", err)
	}

	raw, ok := ExtractJSONObject(response)
	if !ok {
		e.logger.Error("no JSON object located in extraction response", "response_len", len(response))
		return nil, fmt.Errorf("%w: extraction response contained no JSON", ErrUnparsableResponse)
	}

	// Merge onto an all-empty record so every field is present no matter
	// what the model omitted.
	parsed := models.DefaultResume()
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		e.logger.Error("extraction response is not valid JSON", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnparsableResponse, err)
	}
	parsed.Normalize()

	return &parsed, nil
}

func buildParsePrompt(cvText string, hints models.IdentityHints) string {
	var hintSection string
	if !hints.IsZero() {
		var parts []string
		switch {
		case hints.FirstName != "" && hints.LastName != "":
			parts = append(parts, fmt.Sprintf("Name: %s %s", hints.FirstName, hints.LastName))
		case hints.FirstName != "":
			parts = append(parts, fmt.Sprintf("First name: %s", hints.FirstName))
		case hints.LastName != "":
			parts = append(parts, fmt.Sprintf("Last name: %s", hints.LastName))
		}
		if hints.Email != "" {
			parts = append(parts, fmt.Sprintf("Email: %s", hints.Email))
		}
		if hints.Phone != "" {
			parts = append(parts, fmt.Sprintf("Phone: %s", hints.Phone))
		}

		hintSection = fmt.Sprintf(`

USER-PROVIDED INFORMATION:
%s

INSTRUCTIONS FOR USING THE USER INFORMATION:
- Compare the personal information in the CV with the information provided by the user
- If the CV's personal information matches the user's (same name, similar email), PREFER the user's values to correct OCR or extraction errors
- If the CV's personal information is DIFFERENT from the user's (different name, completely different email), the user is probably analyzing someone else's CV. In that case KEEP THE CV'S VALUES and ignore the user information
- Use your judgment to decide whether it is the same person
- Cases where the user info should win: email misread by OCR, different phone formatting, accented names extracted badly
- Cases where the CV should win: completely different name, email domain unrelated to the CV`, strings.Join(parts, "\n"))
	}

	return fmt.Sprintf(`Analyze this CV and extract the following information as strict JSON.

CV:
%s%s

Respond ONLY with a JSON object in the following format (no text before or after, just the JSON):
{
  "name": "Full name",
  "email": "email@example.com",
  "phone": "+33612345678",
  "about": "Professional summary or profile description",
  "skills": ["Skill 1", "Skill 2", "Skill 3"],
  "experience": [
    {
      "title": "Job title",
      "company": "Company name",
      "period": "Jan 2020 - Dec 2022",
      "description": "Description of responsibilities"
    }
  ],
  "education": [
    {
      "degree": "Degree obtained",
      "institution": "Institution name",
      "period": "2015 - 2018"
    }
  ],
  "languages": [
    {
      "name": "French",
      "level": "Native"
    },
    {
      "name": "English",
      "level": "Fluent"
    }
  ],
  "hobbies": ["Hobby 1", "Hobby 2"],
  "certifications": ["Certification 1", "Certification 2"]
}

IMPORTANT:
- If a piece of information is not found, use an empty string "" or an empty array []
- The JSON must be valid and parseable
- Do NOT add any text before or after the JSON
- All fields must be present even when empty`, cvText, hintSection)
}
