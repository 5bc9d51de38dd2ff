package entity

import (
	"github.com/docsift/docsift/constants"
)

// ProcessingJob represents one asynchronous extraction run over a set of
// documents, as last observed from the service.
type ProcessingJob struct {
	ID                 string              `json:"id"`
	ProjectID          string              `json:"project_id"`
	Type               constants.JobType   `json:"type"`
	Status             constants.JobStatus `json:"status"`
	Progress           int                 `json:"progress"` // 0..100
	DocumentIDs        []string            `json:"document_ids"`
	ProcessedDocuments int                 `json:"processed_documents"`
	CreatedAt          string              `json:"created_at"` // opaque ISO-8601
	CompletedAt        *string             `json:"completed_at,omitempty"`
	Logs               []JobLogEntry       `json:"logs,omitempty"`
}

// JobLogEntry is one append-only log line attached to a job.
type JobLogEntry struct {
	Timestamp  string             `json:"timestamp"` // opaque ISO-8601
	Level      constants.LogLevel `json:"level"`
	Message    string             `json:"message"`
	DocumentID *string            `json:"document_id,omitempty"`
}
