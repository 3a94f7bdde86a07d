package models

// MaxJobFieldLength bounds jobTitle and company so they fit the tracking
// grid; longer model output is truncated to 32 runes plus an ellipsis.
const MaxJobFieldLength = 35

// JobAnalysisResult is the classification of a pasted text as a job
// posting. Advisory only: it gates a warning, not data integrity.
type JobAnalysisResult struct {
	IsJobPosting bool    `json:"isJobPosting"`
	Confidence   float64 `json:"confidence"`
	Summary      string  `json:"summary"`
}

// ResumeValidationResult is the classification of extracted document text
// as a résumé, used as the admission gate before structured extraction.
type ResumeValidationResult struct {
	IsCV       bool    `json:"isCV"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// JobDetails is the structured form of a job posting.
type JobDetails struct {
	JobTitle        string   `json:"jobTitle"`
	Company         string   `json:"company"`
	Location        string   `json:"location,omitempty"`
	Keywords        []string `json:"keywords"`
	Tools           []string `json:"tools"`
	RequiredSkills  []string `json:"requiredSkills"`
	PreferredSkills []string `json:"preferredSkills"`
	Profile         string   `json:"profile"`
	Missions        []string `json:"missions"`
	ContractType    string   `json:"contractType,omitempty"`
	Salary          string   `json:"salary,omitempty"`
	Benefits        []string `json:"benefits"`
}

// Normalize fills nil slices and enforces the length contract on the
// title and company fields.
func (d *JobDetails) Normalize() {
	if d.Keywords == nil {
		d.Keywords = []string{}
	}
	if d.Tools == nil {
		d.Tools = []string{}
	}
	if d.RequiredSkills == nil {
		d.RequiredSkills = []string{}
	}
	if d.PreferredSkills == nil {
		d.PreferredSkills = []string{}
	}
	if d.Missions == nil {
		d.Missions = []string{}
	}
	if d.Benefits == nil {
		d.Benefits = []string{}
	}
	d.JobTitle = TruncateField(d.JobTitle)
	d.Company = TruncateField(d.Company)
}

// TruncateField shortens a value that exceeds MaxJobFieldLength to 32
// runes followed by "...".
func TruncateField(s string) string {
	runes := []rune(s)
	if len(runes) <= MaxJobFieldLength {
		return s
	}
	return string(runes[:32]) + "..."
}
