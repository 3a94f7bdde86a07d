package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanTextCollapsesBlankLinesAndTrims(t *testing.T) {
	raw := "  Jane Doe  \n\n\n  Software Engineer\n   \n5 years of Go\n"
	assert.Equal(t, "Jane Doe\nSoftware Engineer\n5 years of Go", CleanText(raw))
}

func TestCleanTextEmptyInput(t *testing.T) {
	assert.Equal(t, "", CleanText(""))
	assert.Equal(t, "", CleanText(" \n \n "))
}
