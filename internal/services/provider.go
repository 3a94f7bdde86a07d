package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"google.golang.org/genai"

	"cvre/cv-optimizer/internal/models"
)

const defaultMaxTokens = 4096

// Provider is one LLM connection: a single prompt-in text-out capability
// plus model discovery. The dialect (request shape, auth header, response
// shape) is fixed when the provider is built; callers never re-inspect
// the base URL.
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
	ListModels(ctx context.Context) ([]models.ModelInfo, error)
	TestConnection(ctx context.Context) error
}

// NewProvider selects the dialect from the configured base URL:
// anthropic.com hosts speak the /messages dialect, googleapis.com hosts
// go through the Gemini SDK, everything else is treated as
// OpenAI-compatible (/chat/completions). Selection happens exactly once.
func NewProvider(ctx context.Context, cfg models.AIConfig) (Provider, error) {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")

	switch {
	case strings.Contains(baseURL, "anthropic.com"):
		return &anthropicProvider{baseURL: baseURL, model: cfg.Model, apiKey: cfg.APIKey, client: http.DefaultClient}, nil
	case strings.Contains(baseURL, "googleapis.com"):
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: failed to create gemini client: %v", ErrProvider, err)
		}
		return &geminiProvider{client: client, model: cfg.Model}, nil
	default:
		return &openAIProvider{baseURL: baseURL, model: cfg.Model, apiKey: cfg.APIKey, client: http.DefaultClient}, nil
	}
}

// --- OpenAI-compatible dialect ---

type openAIProvider struct {
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
}

func (p *openAIProvider) Complete(ctx context.Context, prompt string) (string, error) {
	return p.complete(ctx, prompt, defaultMaxTokens)
}

func (p *openAIProvider) TestConnection(ctx context.Context) error {
	_, err := p.complete(ctx, "Hi", 5)
	return err
}

func (p *openAIProvider) complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	reqBody := map[string]interface{}{
		"model": p.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"max_tokens": maxTokens,
	}

	body, err := p.post(ctx, p.baseURL+"/chat/completions", reqBody)
	if err != nil {
		return "", err
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("%w: unexpected response format: %v", ErrProvider, err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("%w: response contained no choices", ErrProvider)
	}

	return strings.TrimSpace(result.Choices[0].Message.Content), nil
}

func (p *openAIProvider) post(ctx context.Context, url string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrProvider, resp.StatusCode, truncateBody(body))
	}
	return body, nil
}

func (p *openAIProvider) ListModels(ctx context.Context) ([]models.ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrProvider, resp.StatusCode, truncateBody(body))
	}

	list, err := normalizeModelList(body)
	if err != nil {
		return nil, err
	}

	sort.Slice(list, func(i, j int) bool { return list[i].Created > list[j].Created })
	return list, nil
}

// normalizeModelList accepts the shapes different OpenAI-compatible
// gateways return: {data:[...]}, {models:[...]}, or a bare array, with
// per-item field name fallbacks.
func normalizeModelList(body []byte) ([]models.ModelInfo, error) {
	type rawModel struct {
		ID           string `json:"id"`
		Name         string `json:"name"`
		Created      int64  `json:"created"`
		CreatedAt    int64  `json:"created_at"`
		OwnedBy      string `json:"owned_by"`
		Organization string `json:"organization"`
		Provider     string `json:"provider"`
	}

	var items []rawModel
	if err := json.Unmarshal(body, &items); err != nil {
		var wrapped struct {
			Data   []rawModel `json:"data"`
			Models []rawModel `json:"models"`
		}
		if err := json.Unmarshal(body, &wrapped); err != nil {
			return nil, fmt.Errorf("%w: unrecognized models response", ErrProvider)
		}
		items = wrapped.Data
		if len(items) == 0 {
			items = wrapped.Models
		}
	}

	var list []models.ModelInfo
	for _, item := range items {
		id := item.ID
		if id == "" {
			id = item.Name
		}
		if id == "" {
			continue
		}

		created := item.Created
		if created == 0 {
			created = item.CreatedAt
		}
		owner := item.OwnedBy
		if owner == "" {
			owner = item.Organization
		}
		if owner == "" {
			owner = item.Provider
		}
		if owner == "" {
			owner = "unknown"
		}

		list = append(list, models.ModelInfo{ID: id, Created: created, OwnedBy: owner})
	}

	if len(list) == 0 {
		return nil, fmt.Errorf("%w: no models found in response", ErrProvider)
	}
	return list, nil
}

// --- Anthropic dialect ---

const anthropicVersion = "2023-06-01"

// anthropicModels is the static catalog; the API has no /models endpoint.
var anthropicModels = []models.ModelInfo{
	{ID: "claude-3-5-sonnet-20241022", Created: 1729728000, OwnedBy: "anthropic"},
	{ID: "claude-3-5-sonnet-20240620", Created: 1718841600, OwnedBy: "anthropic"},
	{ID: "claude-3-opus-20240229", Created: 1709251200, OwnedBy: "anthropic"},
	{ID: "claude-3-sonnet-20240229", Created: 1709251200, OwnedBy: "anthropic"},
	{ID: "claude-3-haiku-20240307", Created: 1709856000, OwnedBy: "anthropic"},
}

type anthropicProvider struct {
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
}

func (p *anthropicProvider) Complete(ctx context.Context, prompt string) (string, error) {
	return p.complete(ctx, prompt, defaultMaxTokens)
}

func (p *anthropicProvider) TestConnection(ctx context.Context) error {
	_, err := p.complete(ctx, "test", 1)
	return err
}

func (p *anthropicProvider) complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	reqBody := map[string]interface{}{
		"model":      p.model,
		"max_tokens": maxTokens,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/messages", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProvider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProvider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProvider, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d: %s", ErrProvider, resp.StatusCode, truncateBody(body))
	}

	var result struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("%w: unexpected response format: %v", ErrProvider, err)
	}

	var parts []string
	for _, block := range result.Content {
		if block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("%w: response contained no text", ErrProvider)
	}
	return strings.TrimSpace(strings.Join(parts, "\n")), nil
}

func (p *anthropicProvider) ListModels(ctx context.Context) ([]models.ModelInfo, error) {
	return anthropicModels, nil
}

// --- Gemini dialect (official SDK) ---

// geminiModels is a static catalog like the Anthropic one; listing via
// the SDK requires a separate permission many keys lack.
var geminiModels = []models.ModelInfo{
	{ID: "gemini-2.5-flash", Created: 1750204800, OwnedBy: "google"},
	{ID: "gemini-2.5-pro", Created: 1750204800, OwnedBy: "google"},
	{ID: "gemini-2.0-flash", Created: 1738281600, OwnedBy: "google"},
	{ID: "gemini-1.5-pro", Created: 1716336000, OwnedBy: "google"},
	{ID: "gemini-1.5-flash", Created: 1716336000, OwnedBy: "google"},
}

type geminiProvider struct {
	client *genai.Client
	model  string
}

func (p *geminiProvider) Complete(ctx context.Context, prompt string) (string, error) {
	temperature := float32(0.3)
	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: defaultMaxTokens,
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProvider, err)
	}
	if resp == nil {
		return "", fmt.Errorf("%w: no response generated", ErrProvider)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: response contained no text", ErrProvider)
	}
	return strings.TrimSpace(text), nil
}

func (p *geminiProvider) TestConnection(ctx context.Context) error {
	config := &genai.GenerateContentConfig{MaxOutputTokens: 1}
	_, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text("test"), config)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProvider, err)
	}
	return nil
}

func (p *geminiProvider) ListModels(ctx context.Context) ([]models.ModelInfo, error) {
	return geminiModels, nil
}

func truncateBody(body []byte) string {
	s := string(body)
	if len(s) > 200 {
		return s[:200]
	}
	return s
}
