package models

// AnalysisState is the pipeline stage recorded in the persisted status
// record. Terminal states are completed and error; a new upload resets the
// record back to extracting.
type AnalysisState string

const (
	StateIdle       AnalysisState = "idle"
	StateExtracting AnalysisState = "extracting"
	StateAnalyzing  AnalysisState = "analyzing"
	StateCompleted  AnalysisState = "completed"
	StateError      AnalysisState = "error"
)

// AnalysisStatus is the full status snapshot written to the store on
// every transition so observers that only poll can follow the pipeline,
// including across restarts.
type AnalysisStatus struct {
	Status      AnalysisState     `json:"status"`
	Progress    int               `json:"progress"`
	Error       string            `json:"error,omitempty"`
	LastUpdated int64             `json:"lastUpdated"`
	ParsedData  *StructuredResume `json:"parsedData,omitempty"`
}
