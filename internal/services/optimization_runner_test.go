package services

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvre/cv-optimizer/internal/models"
	"cvre/cv-optimizer/internal/repositories"
	"cvre/cv-optimizer/pkg/logging"
)

type memOptimizationRepo struct {
	records map[uuid.UUID]*models.OptimizedCV
	updates []repositories.OptimizationUpdateData
}

func newMemOptimizationRepo() *memOptimizationRepo {
	return &memOptimizationRepo{records: map[uuid.UUID]*models.OptimizedCV{}}
}

func (m *memOptimizationRepo) Create(record *models.OptimizedCV) error {
	m.records[record.ID] = record
	return nil
}

func (m *memOptimizationRepo) FindByID(id uuid.UUID) (*models.OptimizedCV, error) {
	record, ok := m.records[id]
	if !ok {
		return nil, fmt.Errorf("optimization not found")
	}
	copied := *record
	return &copied, nil
}

func (m *memOptimizationRepo) FindAll() ([]models.OptimizedCV, error) {
	var out []models.OptimizedCV
	for _, r := range m.records {
		out = append(out, *r)
	}
	return out, nil
}

func (m *memOptimizationRepo) FindPendingJobs(limit int) ([]models.OptimizedCV, error) {
	var out []models.OptimizedCV
	for _, r := range m.records {
		if r.Status == models.OptimizationQueued {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memOptimizationRepo) UpdateStatus(id uuid.UUID, status models.OptimizationStatus) error {
	record, ok := m.records[id]
	if !ok {
		return fmt.Errorf("optimization not found")
	}
	record.Status = status
	return nil
}

func (m *memOptimizationRepo) UpdateResult(id uuid.UUID, data *repositories.OptimizationUpdateData) error {
	record, ok := m.records[id]
	if !ok {
		return fmt.Errorf("optimization not found")
	}
	m.updates = append(m.updates, *data)
	record.Status = models.OptimizationCompleted
	record.JobTitle = data.JobTitle
	record.Company = data.Company
	record.MatchScore = data.MatchScore
	record.OptimizedCV = data.OptimizedCV
	record.JobDetails = data.JobDetails
	record.Changes = data.Changes
	record.Suggestions = data.Suggestions
	return nil
}

func (m *memOptimizationRepo) UpdateError(id uuid.UUID, errorMsg string) error {
	record, ok := m.records[id]
	if !ok {
		return fmt.Errorf("optimization not found")
	}
	record.Status = models.OptimizationFailed
	record.ErrorMessage = errorMsg
	return nil
}

func (m *memOptimizationRepo) UpdateApplication(id uuid.UUID, status models.ApplicationStatus) error {
	record, ok := m.records[id]
	if !ok {
		return fmt.Errorf("optimization not found")
	}
	record.Application = status
	return nil
}

func (m *memOptimizationRepo) Delete(id uuid.UUID) error {
	delete(m.records, id)
	return nil
}

func queuedRecord(t *testing.T, repo *memOptimizationRepo) uuid.UUID {
	t.Helper()
	original, err := json.Marshal(testResume())
	require.NoError(t, err)

	id := uuid.New()
	require.NoError(t, repo.Create(&models.OptimizedCV{
		ID:             id,
		JobDescription: "We need a backend engineer",
		OriginalCV:     string(original),
		MatchMode:      models.ModeNormal,
		Language:       models.LangEnglish,
		Status:         models.OptimizationQueued,
	}))
	return id
}

func newRunner(repo *memOptimizationRepo, settings *memSettings, provider Provider) OptimizationService {
	vault := NewVault(settings, 100000)
	aiConfig := NewAIConfigService(settings, vault)
	builder := func(ctx context.Context, cfg models.AIConfig) (Provider, error) {
		return provider, nil
	}
	return NewOptimizationService(
		repo,
		aiConfig,
		NewJobDetailsExtractor(logging.NewNop()),
		NewOptimizer(settings, 0, logging.NewNop()),
		builder,
		logging.NewNop(),
	)
}

func TestRunOptimizationCompletesQueuedRecord(t *testing.T) {
	repo := newMemOptimizationRepo()
	settings := newMemSettings()
	id := queuedRecord(t, repo)

	vault := NewVault(settings, 100000)
	require.NoError(t, NewAIConfigService(settings, vault).Save(models.AIConfigRequest{
		BaseURL: "https://api.openai.com/v1", Model: "gpt-4o", APIKey: "sk-key",
	}))

	provider := &fakeProvider{responses: []string{
		`{"jobTitle": "Backend Engineer", "company": "Acme", "profile": "Backend profile"}`,
		validOptimizationResponse,
	}}

	runner := newRunner(repo, settings, provider)
	require.NoError(t, runner.RunOptimization(context.Background(), id))

	record := repo.records[id]
	assert.Equal(t, models.OptimizationCompleted, record.Status)
	assert.Equal(t, "Backend Engineer", record.JobTitle)
	assert.Equal(t, "Acme", record.Company)
	assert.Equal(t, 82, record.MatchScore)

	var optimized models.StructuredResume
	require.NoError(t, json.Unmarshal([]byte(record.OptimizedCV), &optimized))
	assert.Equal(t, "Jane Doe", optimized.Name)

	var details models.JobDetails
	require.NoError(t, json.Unmarshal([]byte(record.JobDetails), &details))
	assert.Equal(t, "Backend profile", details.Profile)
}

func TestRunOptimizationRecordsFailure(t *testing.T) {
	repo := newMemOptimizationRepo()
	settings := newMemSettings()
	id := queuedRecord(t, repo)

	vault := NewVault(settings, 100000)
	require.NoError(t, NewAIConfigService(settings, vault).Save(models.AIConfigRequest{
		BaseURL: "https://api.openai.com/v1", Model: "gpt-4o", APIKey: "sk-key",
	}))

	provider := &fakeProvider{err: fmt.Errorf("%w: upstream down", ErrProvider)}

	runner := newRunner(repo, settings, provider)
	err := runner.RunOptimization(context.Background(), id)
	require.Error(t, err)

	record := repo.records[id]
	assert.Equal(t, models.OptimizationFailed, record.Status)
	assert.NotEmpty(t, record.ErrorMessage)
}

func TestRunOptimizationFailsWithoutProviderConfig(t *testing.T) {
	repo := newMemOptimizationRepo()
	settings := newMemSettings()
	id := queuedRecord(t, repo)

	runner := newRunner(repo, settings, &fakeProvider{})
	err := runner.RunOptimization(context.Background(), id)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoAIConfig)
	assert.Equal(t, models.OptimizationFailed, repo.records[id].Status)
}

func TestRunOptimizationRecordsCredentialFailure(t *testing.T) {
	repo := newMemOptimizationRepo()
	settings := newMemSettings()
	id := queuedRecord(t, repo)

	vault := NewVault(settings, 100000)
	require.NoError(t, NewAIConfigService(settings, vault).Save(models.AIConfigRequest{
		BaseURL: "https://api.openai.com/v1", Model: "gpt-4o", APIKey: "sk-key",
	}))

	// Rotate the device secret so the stored key no longer decrypts.
	require.NoError(t, vault.ClearSecret())
	_, err := vault.EnsureSecret()
	require.NoError(t, err)

	runner := newRunner(repo, settings, &fakeProvider{})
	err = runner.RunOptimization(context.Background(), id)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCrypto)

	record := repo.records[id]
	assert.Equal(t, models.OptimizationFailed, record.Status)
	assert.Contains(t, record.ErrorMessage, "Re-enter your API key")
}

func TestRunOptimizationSkipsNonQueuedRecords(t *testing.T) {
	repo := newMemOptimizationRepo()
	settings := newMemSettings()
	id := queuedRecord(t, repo)
	repo.records[id].Status = models.OptimizationCompleted

	provider := &fakeProvider{}
	runner := newRunner(repo, settings, provider)
	require.NoError(t, runner.RunOptimization(context.Background(), id))
	assert.Equal(t, 0, provider.calls)
	assert.Equal(t, models.OptimizationCompleted, repo.records[id].Status)
}
