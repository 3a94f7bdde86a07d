package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"cvre/cv-optimizer/internal/models"
)

type OptimizationRepository interface {
	Create(record *models.OptimizedCV) error
	FindByID(id uuid.UUID) (*models.OptimizedCV, error)
	FindAll() ([]models.OptimizedCV, error)
	FindPendingJobs(limit int) ([]models.OptimizedCV, error)
	UpdateStatus(id uuid.UUID, status models.OptimizationStatus) error
	UpdateResult(id uuid.UUID, data *OptimizationUpdateData) error
	UpdateError(id uuid.UUID, errorMsg string) error
	UpdateApplication(id uuid.UUID, status models.ApplicationStatus) error
	Delete(id uuid.UUID) error
}

// OptimizationUpdateData carries the engine output persisted on success.
// The JSON columns hold the serialized optimized CV, job details, change
// list and suggestions.
type OptimizationUpdateData struct {
	JobTitle    string
	Company     string
	MatchScore  int
	OptimizedCV string
	JobDetails  string
	Changes     string
	Suggestions string
}

type optimizationRepository struct {
	db *gorm.DB
}

func NewOptimizationRepository(db *gorm.DB) OptimizationRepository {
	return &optimizationRepository{db: db}
}

func (r *optimizationRepository) Create(record *models.OptimizedCV) error {
	if err := r.db.Create(record).Error; err != nil {
		return fmt.Errorf("failed to create optimization: %w", err)
	}
	return nil
}

func (r *optimizationRepository) FindByID(id uuid.UUID) (*models.OptimizedCV, error) {
	var record models.OptimizedCV
	if err := r.db.Where("id = ?", id).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("optimization not found")
		}
		return nil, fmt.Errorf("failed to find optimization: %w", err)
	}
	return &record, nil
}

func (r *optimizationRepository) FindAll() ([]models.OptimizedCV, error) {
	var records []models.OptimizedCV
	if err := r.db.Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list optimizations: %w", err)
	}
	return records, nil
}

func (r *optimizationRepository) FindPendingJobs(limit int) ([]models.OptimizedCV, error) {
	var records []models.OptimizedCV
	err := r.db.
		Where("status = ?", models.OptimizationQueued).
		Order("created_at ASC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find pending jobs: %w", err)
	}
	return records, nil
}

func (r *optimizationRepository) UpdateStatus(id uuid.UUID, status models.OptimizationStatus) error {
	result := r.db.Model(&models.OptimizedCV{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("optimization not found")
	}
	return nil
}

func (r *optimizationRepository) UpdateResult(id uuid.UUID, data *OptimizationUpdateData) error {
	result := r.db.Model(&models.OptimizedCV{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       models.OptimizationCompleted,
			"job_title":    data.JobTitle,
			"company":      data.Company,
			"match_score":  data.MatchScore,
			"optimized_cv": data.OptimizedCV,
			"job_details":  data.JobDetails,
			"changes":      data.Changes,
			"suggestions":  data.Suggestions,
			"updated_at":   time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update result: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("optimization not found")
	}
	return nil
}

func (r *optimizationRepository) UpdateError(id uuid.UUID, errorMsg string) error {
	result := r.db.Model(&models.OptimizedCV{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        models.OptimizationFailed,
			"error_message": errorMsg,
			"updated_at":    time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update error: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("optimization not found")
	}
	return nil
}

func (r *optimizationRepository) UpdateApplication(id uuid.UUID, status models.ApplicationStatus) error {
	updates := map[string]interface{}{
		"application": status,
		"updated_at":  time.Now(),
	}
	if status == models.ApplicationSent {
		now := time.Now()
		updates["sent_at"] = &now
	}

	result := r.db.Model(&models.OptimizedCV{}).
		Where("id = ?", id).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failed to update application status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("optimization not found")
	}
	return nil
}

func (r *optimizationRepository) Delete(id uuid.UUID) error {
	result := r.db.Where("id = ?", id).Delete(&models.OptimizedCV{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete optimization: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("optimization not found")
	}
	return nil
}
