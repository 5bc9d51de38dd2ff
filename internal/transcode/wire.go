// Package transcode maps the extraction service's wire schema
// (snake_case fields, upper-case enums, nested confidence objects) to the
// application's internal records and back. It is pure: no I/O, no clock.
package transcode

// Job is the service's wire representation of a processing job.
type Job struct {
	ID                 string     `json:"id"`
	ProjectID          string     `json:"project_id"`
	JobType            string     `json:"job_type"`
	Status             string     `json:"status"`
	Progress           int        `json:"progress"`
	DocumentIDs        []string   `json:"document_ids"`
	ProcessedDocuments *int       `json:"processed_documents,omitempty"`
	CreatedAt          string     `json:"created_at"`
	CompletedAt        *string    `json:"completed_at,omitempty"`
	Logs               []LogEntry `json:"logs,omitempty"`
}

// LogEntry is the wire form of one job log line.
type LogEntry struct {
	Timestamp  string  `json:"timestamp"`
	Level      string  `json:"level"`
	Message    string  `json:"message"`
	DocumentID *string `json:"document_id,omitempty"`
}

// Extraction is the wire form of one extracted (document, variable) value.
// The service nests the score and its supporting snippet under
// "confidence"; internally both are flattened onto the extraction.
type Extraction struct {
	ID           string     `json:"id"`
	JobID        string     `json:"job_id"`
	DocumentID   string     `json:"document_id"`
	DocumentName string     `json:"document_name"`
	VariableID   string     `json:"variable_id"`
	VariableName string     `json:"variable_name"`
	Value        any        `json:"value"`
	Confidence   Confidence `json:"confidence"`
	Flagged      bool       `json:"flagged"`
}

// Confidence is the nested wire confidence object.
type Confidence struct {
	Score      int     `json:"score"`
	SourceText *string `json:"source_text,omitempty"`
}

// ResultsEnvelope is the wire response of GET /jobs/{id}/results.
type ResultsEnvelope struct {
	JobID            string       `json:"job_id"`
	ProjectID        string       `json:"project_id"`
	TotalExtractions int          `json:"total_extractions"`
	Extractions      []Extraction `json:"extractions"`
}

// CreateJobRequest is the wire body of POST /jobs.
type CreateJobRequest struct {
	ProjectID   string   `json:"project_id"`
	JobType     string   `json:"job_type"`
	DocumentIDs []string `json:"document_ids"`
}

// FeedbackRequest is the wire body of POST /extractions/{id}/feedback.
type FeedbackRequest struct {
	FeedbackType   string  `json:"feedback_type"`
	CorrectedValue *string `json:"corrected_value,omitempty"`
}

// ExampleRequest is the wire body of POST /variables/{id}/examples.
type ExampleRequest struct {
	SourceText   string `json:"source_text"`
	Value        string `json:"value"`
	DocumentName string `json:"document_name"`
	UseInPrompt  bool   `json:"use_in_prompt"`
}
