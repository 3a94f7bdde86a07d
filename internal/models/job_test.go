package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateField(t *testing.T) {
	assert.Equal(t, "Backend Engineer", TruncateField("Backend Engineer"))

	exact := strings.Repeat("a", 35)
	assert.Equal(t, exact, TruncateField(exact))

	long := strings.Repeat("a", 36)
	got := TruncateField(long)
	assert.Equal(t, strings.Repeat("a", 32)+"...", got)
	assert.Len(t, []rune(got), 35)

	// Rune-safe: multi-byte characters are not split.
	accented := strings.Repeat("é", 40)
	truncated := TruncateField(accented)
	assert.Equal(t, strings.Repeat("é", 32)+"...", truncated)
}

func TestJobDetailsNormalize(t *testing.T) {
	d := JobDetails{
		JobTitle: strings.Repeat("x", 50),
		Company:  "Acme",
	}
	d.Normalize()

	assert.Len(t, []rune(d.JobTitle), 35)
	assert.Equal(t, "Acme", d.Company)
	assert.NotNil(t, d.Keywords)
	assert.NotNil(t, d.Tools)
	assert.NotNil(t, d.RequiredSkills)
	assert.NotNil(t, d.PreferredSkills)
	assert.NotNil(t, d.Missions)
	assert.NotNil(t, d.Benefits)
}
