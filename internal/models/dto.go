package models

// AnalyzeResponse acknowledges a résumé upload; the pipeline runs in the
// background and progress is read from the status endpoint.
type AnalyzeResponse struct {
	Status   AnalysisState `json:"status"`
	Filename string        `json:"filename"`
}

// JobAnalyzeRequest carries pasted job posting text.
type JobAnalyzeRequest struct {
	Text string `json:"text"`
}

// JobAnalyzeResponse bundles the posting classification with the
// structured details when the classification passes.
type JobAnalyzeResponse struct {
	Analysis JobAnalysisResult `json:"analysis"`
	Details  *JobDetails       `json:"details,omitempty"`
}

// OptimizeRequest queues one optimization of the stored résumé against a
// job description.
type OptimizeRequest struct {
	JobDescription string    `json:"job_description"`
	Mode           MatchMode `json:"mode"`
	Language       Language  `json:"language"`
}

// OptimizeResponse returns the queued record ID for polling.
type OptimizeResponse struct {
	ID     string             `json:"id"`
	Status OptimizationStatus `json:"status"`
}

// OptimizationView is the read shape of a persisted optimization with the
// JSON payload columns decoded.
type OptimizationView struct {
	ID           string             `json:"id"`
	JobTitle     string             `json:"job_title"`
	Company      string             `json:"company"`
	MatchMode    MatchMode          `json:"match_mode"`
	Language     Language           `json:"language"`
	MatchScore   int                `json:"match_score"`
	Status       OptimizationStatus `json:"status"`
	Application  ApplicationStatus  `json:"application_status"`
	JobDetails   *JobDetails        `json:"job_details,omitempty"`
	OriginalCV   *StructuredResume  `json:"original_cv,omitempty"`
	OptimizedCV  *StructuredResume  `json:"optimized_cv,omitempty"`
	Changes      []string           `json:"changes"`
	Suggestions  []string           `json:"suggestions"`
	ErrorMessage string             `json:"error_message,omitempty"`
	SentAt       int64              `json:"sent_at,omitempty"`
	CreatedAt    int64              `json:"created_at"`
	UpdatedAt    int64              `json:"updated_at"`
}

// UpdateApplicationRequest changes the tracking status of an optimization.
type UpdateApplicationRequest struct {
	Status ApplicationStatus `json:"status"`
}

// AIConfigRequest stores the provider connection; the key is encrypted
// before it touches the database.
type AIConfigRequest struct {
	BaseURL string `json:"baseURL"`
	Model   string `json:"model"`
	APIKey  string `json:"apiKey"`
}

// AIConfigView is the read shape of the stored connection. The key itself
// is never returned, only whether one is present.
type AIConfigView struct {
	BaseURL   string `json:"baseURL"`
	Model     string `json:"model"`
	HasAPIKey bool   `json:"hasApiKey"`
}

// PromptSettingsRequest overrides the optimization prompt pieces.
// Omitted fields are left untouched; an explicit empty string clears an
// override back to its built-in default.
type PromptSettingsRequest struct {
	System                *string `json:"system,omitempty"`
	InstructionLight      *string `json:"instruction_light,omitempty"`
	InstructionNormal     *string `json:"instruction_normal,omitempty"`
	InstructionAggressive *string `json:"instruction_aggressive,omitempty"`
	RetryCount            *int    `json:"retry_count,omitempty"`
}
