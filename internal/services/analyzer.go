package services

import (
	"context"
	"errors"
	"fmt"

	"cvre/cv-optimizer/internal/models"
	"cvre/cv-optimizer/internal/repositories"
	"cvre/cv-optimizer/pkg/logging"
)

// Analyzer is the ingestion pipeline orchestrator: native text extraction,
// OCR escalation, the résumé admission gate, structured extraction, and
// persistence, with the status record updated at every stage. Stages run
// strictly sequentially; one upload is one run.
type Analyzer interface {
	AnalyzeFile(ctx context.Context, provider Provider, filePath string,
		hints models.IdentityHints, observer StatusObserver) (*models.StructuredResume, error)
}

type analyzer struct {
	extractor     TextExtractor
	ocr           OCREngine
	classifier    Classifier
	cvParser      Extractor
	settings      repositories.SettingRepository
	minTextLength int
	threshold     float64
	logger        *logging.Logger
}

func NewAnalyzer(
	extractor TextExtractor,
	ocr OCREngine,
	classifier Classifier,
	cvParser Extractor,
	settings repositories.SettingRepository,
	minTextLength int,
	threshold float64,
	logger *logging.Logger,
) Analyzer {
	return &analyzer{
		extractor:     extractor,
		ocr:           ocr,
		classifier:    classifier,
		cvParser:      cvParser,
		settings:      settings,
		minTextLength: minTextLength,
		threshold:     threshold,
		logger:        logger,
	}
}

// AnalyzeFile implements Analyzer. Every failure is both returned and
// written into the status record, so a caller that only polls status
// still observes it.
func (a *analyzer) AnalyzeFile(ctx context.Context, provider Provider, filePath string,
	hints models.IdentityHints, observer StatusObserver) (*models.StructuredResume, error) {

	tracker := NewStatusTracker(a.settings, observer, a.logger)

	parsed, err := a.run(ctx, tracker, provider, filePath, hints)
	if err != nil {
		tracker.Fail(err.Error())
		return nil, err
	}

	tracker.Complete(parsed)
	return parsed, nil
}

func (a *analyzer) run(ctx context.Context, tracker *StatusTracker, provider Provider,
	filePath string, hints models.IdentityHints) (*models.StructuredResume, error) {

	// Stage 1: native text extraction.
	tracker.Update(models.StateExtracting, 10, "")

	extracted, err := a.extractText(ctx, tracker, filePath)
	if err != nil {
		return nil, err
	}

	// Stage 2: admission gate.
	note := ""
	if extracted.UsedOCR {
		note = "Text recovered via OCR (scanned PDF detected)"
	}
	tracker.Update(models.StateAnalyzing, 30, note)

	validation, err := a.classifier.ValidateResume(ctx, provider, extracted.Text)
	if err != nil {
		return nil, err
	}
	if !validation.IsCV || validation.Confidence < a.threshold {
		return nil, fmt.Errorf(
			"%w: this document does not look like a CV (confidence: %d%%). Reason: %s. Please upload a valid CV",
			ErrNotAResume, int(validation.Confidence*100), validation.Reason)
	}

	// Stage 3: structured extraction.
	tracker.Update(models.StateAnalyzing, 60, "")

	parsed, err := a.cvParser.ParseResume(ctx, provider, extracted.Text, hints)
	if err != nil {
		return nil, err
	}

	tracker.Update(models.StateAnalyzing, 80, "")

	if err := a.settings.Put(models.SettingParsedCV, parsed); err != nil {
		return nil, fmt.Errorf("failed to persist parsed CV: %w", err)
	}

	return parsed, nil
}

// extractText runs native extraction and escalates to OCR when the
// output falls under the minimum-content threshold. OCR failing too is
// fatal: the document likely holds no recoverable text.
func (a *analyzer) extractText(ctx context.Context, tracker *StatusTracker, filePath string) (*ExtractedText, error) {
	extracted, err := a.extractor.ExtractText(filePath)
	if err != nil {
		return nil, fmt.Errorf("unable to extract text from the PDF (the file may be corrupt or unreadable): %w", err)
	}

	if len(extracted.Text) >= a.minTextLength {
		return extracted, nil
	}

	a.logger.Warn("native extraction returned minimal text, attempting OCR fallback",
		"chars", len(extracted.Text))
	tracker.Update(models.StateExtracting, 15, "OCR extraction in progress...")

	ocrResult, err := a.ocr.ExtractText(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("OCR extraction failed: %w", err)
	}
	if len(ocrResult.Text) < a.minTextLength {
		return nil, fmt.Errorf(
			"%w: the PDF does not contain enough text even after OCR; the document may be a low-quality scan",
			ErrOCRFailed)
	}

	a.logger.Info("OCR extraction successful", "chars", len(ocrResult.Text))
	return ocrResult, nil
}

// IsDocumentRejection reports whether err is a bad-input failure rather
// than a provider or credential problem, so handlers can phrase the
// remediation correctly.
func IsDocumentRejection(err error) bool {
	return errors.Is(err, ErrNotAResume) || errors.Is(err, ErrOCRFailed) ||
		errors.Is(err, ErrInsufficientText)
}
