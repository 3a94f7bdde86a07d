package services

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvre/cv-optimizer/pkg/logging"
)

func TestValidateResumeParsesJSONResponse(t *testing.T) {
	c := NewClassifier(logging.NewNop())
	provider := &fakeProvider{responses: []string{
		"```json\n{\"isCV\": true, \"confidence\": 0.92, \"reason\": \"contains work history\"}\n```",
	}}

	result, err := c.ValidateResume(context.Background(), provider, "John Doe\nSoftware Engineer...")
	require.NoError(t, err)
	assert.True(t, result.IsCV)
	assert.InDelta(t, 0.92, result.Confidence, 0.001)
	assert.Equal(t, "contains work history", result.Reason)
}

func TestValidateResumeClampsConfidence(t *testing.T) {
	c := NewClassifier(logging.NewNop())
	provider := &fakeProvider{responses: []string{
		`{"isCV": true, "confidence": 1.7, "reason": "sure"}`,
	}}

	result, err := c.ValidateResume(context.Background(), provider, "text")
	require.NoError(t, err)
	assert.Equal(t, 1.0, result.Confidence)
}

func TestValidateResumeHeuristicFallback(t *testing.T) {
	c := NewClassifier(logging.NewNop())

	t.Run("keywords present passes at threshold", func(t *testing.T) {
		provider := &fakeProvider{responses: []string{"I cannot produce JSON, sorry"}}
		result, err := c.ValidateResume(context.Background(), provider,
			"Jane Doe. Professional experience: 5 years of backend work. Skills: Go, SQL.")
		require.NoError(t, err)
		assert.True(t, result.IsCV)
		assert.Equal(t, 0.6, result.Confidence)
	})

	t.Run("no keywords rejects", func(t *testing.T) {
		provider := &fakeProvider{responses: []string{"not json either"}}
		result, err := c.ValidateResume(context.Background(), provider,
			"Milk, eggs, flour, two bottles of wine")
		require.NoError(t, err)
		assert.False(t, result.IsCV)
		assert.Equal(t, 0.4, result.Confidence)
	})
}

func TestValidateResumeTruncatesSample(t *testing.T) {
	c := NewClassifier(logging.NewNop())
	provider := &fakeProvider{responses: []string{`{"isCV": true, "confidence": 0.9, "reason": "ok"}`}}

	long := make([]byte, 10000)
	for i := range long {
		long[i] = 'a'
	}
	_, err := c.ValidateResume(context.Background(), provider, string(long))
	require.NoError(t, err)
	require.Len(t, provider.prompts, 1)
	assert.Less(t, len(provider.prompts[0]), 4000)
}

func TestTextSampleKeepsRuneBoundary(t *testing.T) {
	// "é" is two bytes; placing it across the byte limit must not leave
	// half a rune in the sample.
	text := strings.Repeat("a", classifierSampleLen-1) + "école d'ingénieurs"

	sample := textSample(text)
	assert.True(t, utf8.ValidString(sample))
	assert.Equal(t, strings.Repeat("a", classifierSampleLen-1), sample)

	short := "compétences"
	assert.Equal(t, short, textSample(short))
}

func TestAnalyzeJobPostingParsesJSONResponse(t *testing.T) {
	c := NewClassifier(logging.NewNop())
	provider := &fakeProvider{responses: []string{
		`{"isJobPosting": true, "confidence": 0.88, "summary": "Backend role at Acme"}`,
	}}

	result, err := c.AnalyzeJobPosting(context.Background(), provider, "We are hiring a backend engineer...")
	require.NoError(t, err)
	assert.True(t, result.IsJobPosting)
	assert.InDelta(t, 0.88, result.Confidence, 0.001)
	assert.Equal(t, "Backend role at Acme", result.Summary)
}

func TestAnalyzeJobPostingHeuristicFallback(t *testing.T) {
	c := NewClassifier(logging.NewNop())

	t.Run("keywords present", func(t *testing.T) {
		provider := &fakeProvider{responses: []string{"plain text answer"}}
		result, err := c.AnalyzeJobPosting(context.Background(), provider,
			"Position: backend engineer. Requirements: Go, Postgres.")
		require.NoError(t, err)
		assert.True(t, result.IsJobPosting)
		assert.Equal(t, 0.7, result.Confidence)
		// The raw response stands in for the summary.
		assert.Equal(t, "plain text answer", result.Summary)
	})

	t.Run("no keywords", func(t *testing.T) {
		provider := &fakeProvider{responses: []string{"plain text answer"}}
		result, err := c.AnalyzeJobPosting(context.Background(), provider,
			"Once upon a time there was a little house")
		require.NoError(t, err)
		assert.False(t, result.IsJobPosting)
		assert.Equal(t, 0.3, result.Confidence)
	})
}
