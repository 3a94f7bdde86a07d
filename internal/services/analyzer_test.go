package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvre/cv-optimizer/internal/models"
	"cvre/cv-optimizer/pkg/logging"
)

type stubTextExtractor struct {
	result *ExtractedText
	err    error
}

func (s *stubTextExtractor) ExtractText(filePath string) (*ExtractedText, error) {
	return s.result, s.err
}

type stubOCREngine struct {
	result *ExtractedText
	err    error
	calls  int
}

func (s *stubOCREngine) ExtractText(ctx context.Context, filePath string) (*ExtractedText, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

const acceptResumeResponse = `{"isCV": true, "confidence": 0.95, "reason": "clearly a CV"}`
const parseResumeResponse = `{"name": "Jane Doe", "email": "jane@example.com", "skills": ["Go"]}`

func newTestAnalyzer(extractor TextExtractor, ocr OCREngine, settings *memSettings) Analyzer {
	return NewAnalyzer(
		extractor,
		ocr,
		NewClassifier(logging.NewNop()),
		NewExtractor(logging.NewNop()),
		settings,
		50,
		0.6,
		logging.NewNop(),
	)
}

func collectStatuses(statuses *[]models.AnalysisStatus) StatusObserver {
	return func(status models.AnalysisStatus) {
		*statuses = append(*statuses, status)
	}
}

func TestAnalyzeFileHappyPath(t *testing.T) {
	settings := newMemSettings()
	nativeText := strings.Repeat("experience and skills ", 10)
	ocr := &stubOCREngine{}
	a := newTestAnalyzer(&stubTextExtractor{result: &ExtractedText{Text: nativeText}}, ocr, settings)

	provider := &fakeProvider{responses: []string{acceptResumeResponse, parseResumeResponse}}
	var statuses []models.AnalysisStatus

	parsed, err := a.AnalyzeFile(context.Background(), provider, "/tmp/cv.pdf",
		models.IdentityHints{}, collectStatuses(&statuses))
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", parsed.Name)
	assert.Equal(t, 0, ocr.calls)

	// Progress is monotonic and ends at the completed terminal snapshot.
	var progresses []int
	for _, s := range statuses {
		progresses = append(progresses, s.Progress)
	}
	assert.Equal(t, []int{10, 30, 60, 80, 100}, progresses)
	last := statuses[len(statuses)-1]
	assert.Equal(t, models.StateCompleted, last.Status)
	require.NotNil(t, last.ParsedData)
	assert.Equal(t, "Jane Doe", last.ParsedData.Name)

	// The parsed record is persisted for later reads.
	var stored models.StructuredResume
	require.NoError(t, settings.Get(models.SettingParsedCV, &stored))
	assert.Equal(t, "jane@example.com", stored.Email)
}

func TestAnalyzeFileEscalatesToOCR(t *testing.T) {
	settings := newMemSettings()
	ocrText := strings.Repeat("experience and skills ", 10)
	ocr := &stubOCREngine{result: &ExtractedText{Text: ocrText, UsedOCR: true}}
	a := newTestAnalyzer(&stubTextExtractor{result: &ExtractedText{Text: "short"}}, ocr, settings)

	provider := &fakeProvider{responses: []string{acceptResumeResponse, parseResumeResponse}}
	var statuses []models.AnalysisStatus

	_, err := a.AnalyzeFile(context.Background(), provider, "/tmp/cv.pdf",
		models.IdentityHints{}, collectStatuses(&statuses))
	require.NoError(t, err)
	assert.Equal(t, 1, ocr.calls)

	var sawOCRHint, sawOCRNote bool
	for _, s := range statuses {
		if s.Progress == 15 && s.Error == "OCR extraction in progress..." {
			sawOCRHint = true
		}
		if s.Progress == 30 && strings.Contains(s.Error, "scanned PDF detected") {
			sawOCRNote = true
		}
	}
	assert.True(t, sawOCRHint)
	assert.True(t, sawOCRNote)
}

func TestAnalyzeFileFailsWhenOCRYieldsTooLittle(t *testing.T) {
	settings := newMemSettings()
	ocr := &stubOCREngine{result: &ExtractedText{Text: "still short", UsedOCR: true}}
	a := newTestAnalyzer(&stubTextExtractor{result: &ExtractedText{Text: "x"}}, ocr, settings)

	provider := &fakeProvider{responses: []string{acceptResumeResponse}}
	var statuses []models.AnalysisStatus

	_, err := a.AnalyzeFile(context.Background(), provider, "/tmp/cv.pdf",
		models.IdentityHints{}, collectStatuses(&statuses))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOCRFailed)
	// Extraction never produced enough text; the model is never consulted.
	assert.Equal(t, 0, provider.calls)

	last := statuses[len(statuses)-1]
	assert.Equal(t, models.StateError, last.Status)
	assert.Equal(t, 0, last.Progress)
	assert.NotEmpty(t, last.Error)
}

func TestAnalyzeFileRejectsNonResume(t *testing.T) {
	settings := newMemSettings()
	text := strings.Repeat("experience and skills ", 10)
	a := newTestAnalyzer(&stubTextExtractor{result: &ExtractedText{Text: text}}, &stubOCREngine{}, settings)

	provider := &fakeProvider{responses: []string{
		`{"isCV": false, "confidence": 0.9, "reason": "this is an invoice"}`,
	}}
	var statuses []models.AnalysisStatus

	_, err := a.AnalyzeFile(context.Background(), provider, "/tmp/doc.pdf",
		models.IdentityHints{}, collectStatuses(&statuses))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotAResume)
	assert.Contains(t, err.Error(), "this is an invoice")

	// Nothing was persisted.
	var stored models.StructuredResume
	err = settings.Get(models.SettingParsedCV, &stored)
	assert.Error(t, err)
}

func TestAnalyzeFileThresholdBoundary(t *testing.T) {
	text := strings.Repeat("experience and skills ", 10)

	t.Run("below threshold rejects", func(t *testing.T) {
		a := newTestAnalyzer(&stubTextExtractor{result: &ExtractedText{Text: text}}, &stubOCREngine{}, newMemSettings())
		provider := &fakeProvider{responses: []string{
			`{"isCV": true, "confidence": 0.59, "reason": "maybe"}`,
		}}
		_, err := a.AnalyzeFile(context.Background(), provider, "/tmp/cv.pdf", models.IdentityHints{}, nil)
		assert.ErrorIs(t, err, ErrNotAResume)
	})

	t.Run("exactly at threshold passes", func(t *testing.T) {
		a := newTestAnalyzer(&stubTextExtractor{result: &ExtractedText{Text: text}}, &stubOCREngine{}, newMemSettings())
		provider := &fakeProvider{responses: []string{
			`{"isCV": true, "confidence": 0.6, "reason": "borderline"}`,
			parseResumeResponse,
		}}
		_, err := a.AnalyzeFile(context.Background(), provider, "/tmp/cv.pdf", models.IdentityHints{}, nil)
		assert.NoError(t, err)
	})
}

func TestIsDocumentRejection(t *testing.T) {
	assert.True(t, IsDocumentRejection(ErrNotAResume))
	assert.True(t, IsDocumentRejection(ErrOCRFailed))
	assert.True(t, IsDocumentRejection(ErrInsufficientText))
	assert.False(t, IsDocumentRejection(ErrProvider))
	assert.False(t, IsDocumentRejection(errors.New("boom")))
}
