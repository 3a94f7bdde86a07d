package handlers

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvre/cv-optimizer/pkg/logging"
)

func cvUploadRequest(t *testing.T, path string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("cv", "resume.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4 test"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestHandleAnalyzeRejectsUndecryptableCredential(t *testing.T) {
	settings := newMemSettings()
	aiConfig, vault := savedAIConfig(t, settings)
	rotateSecret(t, vault)

	h := NewResumeHandler(nil, nil, aiConfig, settings, nil, 10<<20, logging.NewNop())

	app := fiber.New()
	app.Post("/api/v1/cv/analyze", h.HandleAnalyze)

	resp, err := app.Test(cvUploadRequest(t, "/api/v1/cv/analyze"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Re-enter it in settings")
}
