package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvre/cv-optimizer/pkg/logging"
)

func TestExtractDetailsParsesResponse(t *testing.T) {
	j := NewJobDetailsExtractor(logging.NewNop())
	provider := &fakeProvider{responses: []string{`{
		"jobTitle": "Backend Engineer",
		"company": "Acme",
		"keywords": ["go", "backend"],
		"tools": ["Go", "Postgres"],
		"requiredSkills": ["Go"],
		"profile": "Experienced backend developer",
		"missions": ["build services"]
	}`}}

	details, err := j.ExtractDetails(context.Background(), provider, "We are hiring...")
	require.NoError(t, err)
	assert.Equal(t, "Backend Engineer", details.JobTitle)
	assert.Equal(t, "Acme", details.Company)
	assert.Equal(t, []string{"Go", "Postgres"}, details.Tools)
	// Omitted arrays come back empty, not nil.
	assert.NotNil(t, details.PreferredSkills)
	assert.NotNil(t, details.Benefits)
}

func TestExtractDetailsTruncatesLongFields(t *testing.T) {
	j := NewJobDetailsExtractor(logging.NewNop())
	longTitle := "Senior Staff Platform Reliability Engineering Manager"
	provider := &fakeProvider{responses: []string{
		`{"jobTitle": "` + longTitle + `", "company": "Acme"}`,
	}}

	details, err := j.ExtractDetails(context.Background(), provider, "posting")
	require.NoError(t, err)
	assert.Equal(t, longTitle[:32]+"...", details.JobTitle)
	assert.LessOrEqual(t, len([]rune(details.JobTitle)), 35)
	assert.Equal(t, "Acme", details.Company)
}

func TestExtractDetailsBoundaryLengthIsKept(t *testing.T) {
	j := NewJobDetailsExtractor(logging.NewNop())
	exact := strings.Repeat("a", 35)
	provider := &fakeProvider{responses: []string{
		`{"jobTitle": "` + exact + `", "company": "Acme"}`,
	}}

	details, err := j.ExtractDetails(context.Background(), provider, "posting")
	require.NoError(t, err)
	assert.Equal(t, exact, details.JobTitle)
}

func TestExtractDetailsFallsBackToDefaults(t *testing.T) {
	j := NewJobDetailsExtractor(logging.NewNop())
	provider := &fakeProvider{responses: []string{"no structured data here"}}

	details, err := j.ExtractDetails(context.Background(), provider, "posting")
	require.NoError(t, err)
	assert.Equal(t, "Not specified", details.JobTitle)
	assert.Equal(t, "Not specified", details.Company)
	assert.NotNil(t, details.Keywords)
}
