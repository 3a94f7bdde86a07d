package models

import (
	"time"

	"github.com/google/uuid"
)

// MatchMode is the rewrite intensity applied by the optimization engine.
type MatchMode string

const (
	ModeLight      MatchMode = "light"
	ModeNormal     MatchMode = "normal"
	ModeAggressive MatchMode = "aggressive"
)

func (m MatchMode) Valid() bool {
	return m == ModeLight || m == ModeNormal || m == ModeAggressive
}

// Language is the target output language of the rewritten résumé.
type Language string

const (
	LangFrench  Language = "fr"
	LangEnglish Language = "en"
)

func (l Language) Valid() bool {
	return l == LangFrench || l == LangEnglish
}

// OptimizationStatus is the processing lifecycle of a queued optimization.
type OptimizationStatus string

const (
	OptimizationQueued     OptimizationStatus = "queued"
	OptimizationProcessing OptimizationStatus = "processing"
	OptimizationCompleted  OptimizationStatus = "completed"
	OptimizationFailed     OptimizationStatus = "failed"
)

// ApplicationStatus tracks what happened to the application after the
// optimized CV was produced.
type ApplicationStatus string

const (
	ApplicationOptimized ApplicationStatus = "optimized"
	ApplicationSent      ApplicationStatus = "sent"
	ApplicationInterview ApplicationStatus = "interview"
	ApplicationRejected  ApplicationStatus = "rejected"
	ApplicationOffer     ApplicationStatus = "offer"
)

func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationOptimized, ApplicationSent, ApplicationInterview,
		ApplicationRejected, ApplicationOffer:
		return true
	}
	return false
}

// OptimizationResult is what the engine returns for one successful run.
// The match score is asserted by the model, not computed locally.
type OptimizationResult struct {
	OptimizedCV StructuredResume `json:"optimizedCV"`
	JobTitle    string           `json:"jobTitle"`
	Company     string           `json:"company"`
	MatchScore  int              `json:"matchScore"`
	Changes     []string         `json:"changes"`
	Suggestions []string         `json:"suggestions"`
}

// OptimizedCV is the persisted record of one optimization run. CV and
// job-details payloads are stored as JSON text.
type OptimizedCV struct {
	ID             uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	JobTitle       string             `gorm:"type:text" json:"job_title"`
	Company        string             `gorm:"type:text" json:"company"`
	JobDescription string             `gorm:"type:text" json:"job_description"`
	JobDetails     string             `gorm:"type:text" json:"-"`
	OriginalCV     string             `gorm:"type:text" json:"-"`
	OptimizedCV    string             `gorm:"type:text" json:"-"`
	MatchMode      MatchMode          `gorm:"type:text" json:"match_mode"`
	Language       Language           `gorm:"type:text" json:"language"`
	MatchScore     int                `json:"match_score"`
	Changes        string             `gorm:"type:text" json:"-"`
	Suggestions    string             `gorm:"type:text" json:"-"`
	Status         OptimizationStatus `gorm:"not null;default:'queued'" json:"status"`
	Application    ApplicationStatus  `gorm:"not null;default:'optimized'" json:"application_status"`
	SentAt         *time.Time         `json:"sent_at,omitempty"`
	ErrorMessage   string             `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt      time.Time          `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time          `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (OptimizedCV) TableName() string {
	return "optimized_cvs"
}
