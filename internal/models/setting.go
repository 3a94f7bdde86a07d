package models

import "time"

// Setting is one key-value pair in the generic local settings store. The
// value is JSON text so callers can persist arbitrary payloads.
type Setting struct {
	Key       string    `gorm:"primaryKey;type:text" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}

// Well-known settings keys shared between the pipeline and its callers.
const (
	SettingAIConfig         = "ai_config"
	SettingRetryCount       = "retry_count"
	SettingPromptSystem     = "prompt_system"
	SettingParsedCV         = "cv_parsed_data"
	SettingAnalysisStatus   = "cv_analysis_status"
	SettingEncryptionSecret = "cvre_encryption_secret"
)

// SettingPromptInstruction returns the override key for one match mode.
func SettingPromptInstruction(mode MatchMode) string {
	return "prompt_instruction_" + string(mode)
}
