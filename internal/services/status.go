package services

import (
	"time"

	"cvre/cv-optimizer/internal/models"
	"cvre/cv-optimizer/internal/repositories"
	"cvre/cv-optimizer/pkg/logging"
)

// StatusObserver is invoked with every status snapshot so a UI can render
// progress live. The tracker holds no UI logic itself.
type StatusObserver func(status models.AnalysisStatus)

// StatusTracker is the persisted progress state machine of the ingestion
// pipeline. Every transition writes the full snapshot to the settings
// store, which is what makes the pipeline observable across page reloads
// and process restarts. The tracker is single-owner: only the pipeline
// orchestrator writes, everyone else reads.
type StatusTracker struct {
	settings repositories.SettingRepository
	observer StatusObserver
	logger   *logging.Logger
}

func NewStatusTracker(settings repositories.SettingRepository, observer StatusObserver, logger *logging.Logger) *StatusTracker {
	return &StatusTracker{settings: settings, observer: observer, logger: logger}
}

// Update writes a snapshot for a non-terminal or completed stage. The
// note rides in the error field for transient hints (e.g. "OCR fallback
// in progress") without flipping the state to error, matching how the
// status record has always been shaped.
func (t *StatusTracker) Update(state models.AnalysisState, progress int, note string) {
	t.write(models.AnalysisStatus{
		Status:      state,
		Progress:    progress,
		Error:       note,
		LastUpdated: time.Now().UnixMilli(),
	})
}

// Complete records the terminal success snapshot carrying the parsed
// résumé so status and payload read from a single record.
func (t *StatusTracker) Complete(parsed *models.StructuredResume) {
	t.write(models.AnalysisStatus{
		Status:      models.StateCompleted,
		Progress:    100,
		LastUpdated: time.Now().UnixMilli(),
		ParsedData:  parsed,
	})
}

// Fail records the terminal error snapshot. Progress resets to zero so a
// polling observer cannot mistake a failed run for a stalled one.
func (t *StatusTracker) Fail(message string) {
	t.write(models.AnalysisStatus{
		Status:      models.StateError,
		Progress:    0,
		Error:       message,
		LastUpdated: time.Now().UnixMilli(),
	})
}

func (t *StatusTracker) write(status models.AnalysisStatus) {
	if err := t.settings.Put(models.SettingAnalysisStatus, status); err != nil {
		// A failed status write must not kill the pipeline itself.
		t.logger.Error("failed to persist analysis status", "error", err)
	}
	if t.observer != nil {
		t.observer(status)
	}
}

// CurrentStatus reads the persisted snapshot, surviving reloads.
func CurrentStatus(settings repositories.SettingRepository) (*models.AnalysisStatus, error) {
	var status models.AnalysisStatus
	if err := settings.Get(models.SettingAnalysisStatus, &status); err != nil {
		return nil, err
	}
	return &status, nil
}
