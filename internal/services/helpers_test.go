package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"cvre/cv-optimizer/internal/models"
	"cvre/cv-optimizer/internal/repositories"
)

// memSettings is an in-memory SettingRepository for tests.
type memSettings struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemSettings() *memSettings {
	return &memSettings{data: map[string]string{}}
}

func (m *memSettings) Get(key string, target any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[key]
	if !ok {
		return repositories.ErrSettingNotFound
	}
	return json.Unmarshal([]byte(raw), target)
}

func (m *memSettings) Put(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = string(raw)
	return nil
}

func (m *memSettings) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memSettings) GetString(key string) (string, error) {
	var value string
	if err := m.Get(key, &value); err != nil {
		return "", err
	}
	return value, nil
}

func (m *memSettings) PutString(key, value string) error {
	return m.Put(key, value)
}

// fakeProvider replays canned responses. When calls outrun the list the
// last response repeats.
type fakeProvider struct {
	responses []string
	err       error
	calls     int
	prompts   []string
}

func (f *fakeProvider) Complete(ctx context.Context, prompt string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", fmt.Errorf("fakeProvider: no responses configured")
	}
	idx := f.calls - 1
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	return f.responses[idx], nil
}

func (f *fakeProvider) ListModels(ctx context.Context) ([]models.ModelInfo, error) {
	return nil, nil
}

func (f *fakeProvider) TestConnection(ctx context.Context) error {
	return f.err
}
