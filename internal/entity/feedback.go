package entity

import "github.com/docsift/docsift/constants"

// FeedbackRecord is the last human judgment recorded for an extraction.
// Resubmitting the same judgment is a no-op; the opposite judgment
// overwrites it.
type FeedbackRecord struct {
	ExtractionID   string                 `json:"extraction_id"`
	FeedbackType   constants.FeedbackType `json:"feedback_type"`
	CorrectedValue *string                `json:"corrected_value,omitempty"`
}

// GoldenExample is an extraction pinned for reuse as a few-shot example.
// Create-only from this subsystem's perspective.
type GoldenExample struct {
	ID           int64  `json:"id"`
	VariableID   string `json:"variable_id"`
	VariableName string `json:"variable_name"`
	SourceText   string `json:"source_text"`
	Value        string `json:"value"`
	DocumentName string `json:"document_name"`
	UseInPrompt  bool   `json:"use_in_prompt"`
}
