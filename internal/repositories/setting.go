package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cvre/cv-optimizer/internal/models"
)

// ErrSettingNotFound is returned when a key has never been written.
var ErrSettingNotFound = errors.New("setting not found")

// SettingRepository is the generic key-value store the pipeline and its
// callers share. Values are JSON documents.
type SettingRepository interface {
	Get(key string, target any) error
	Put(key string, value any) error
	Delete(key string) error
	GetString(key string) (string, error)
	PutString(key, value string) error
}

type settingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &settingRepository{db: db}
}

// Get implements SettingRepository.
func (r *settingRepository) Get(key string, target any) error {
	var setting models.Setting
	if err := r.db.Where("key = ?", key).First(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSettingNotFound
		}
		return fmt.Errorf("failed to read setting %q: %w", key, err)
	}

	if err := json.Unmarshal([]byte(setting.Value), target); err != nil {
		return fmt.Errorf("failed to decode setting %q: %w", key, err)
	}
	return nil
}

// Put implements SettingRepository.
func (r *settingRepository) Put(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode setting %q: %w", key, err)
	}

	setting := models.Setting{Key: key, Value: string(raw), UpdatedAt: time.Now()}
	err = r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error
	if err != nil {
		return fmt.Errorf("failed to write setting %q: %w", key, err)
	}
	return nil
}

// Delete implements SettingRepository.
func (r *settingRepository) Delete(key string) error {
	if err := r.db.Where("key = ?", key).Delete(&models.Setting{}).Error; err != nil {
		return fmt.Errorf("failed to delete setting %q: %w", key, err)
	}
	return nil
}

// GetString reads a plain string value.
func (r *settingRepository) GetString(key string) (string, error) {
	var value string
	if err := r.Get(key, &value); err != nil {
		return "", err
	}
	return value, nil
}

// PutString writes a plain string value.
func (r *settingRepository) PutString(key, value string) error {
	return r.Put(key, value)
}
