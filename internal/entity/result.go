package entity

// FieldValue is one variable's extracted value within a document view.
type FieldValue struct {
	Value      *string `json:"value"`
	Confidence int     `json:"confidence"`
	SourceText *string `json:"source_text,omitempty"`
}

// DocumentResult is the derived per-document view over a job's
// extractions. It is recomputed from the extraction set, never stored.
type DocumentResult struct {
	DocumentID        string                `json:"document_id"`
	DocumentName      string                `json:"document_name"`
	Data              map[string]FieldValue `json:"data"` // keyed by variable name
	AverageConfidence float64               `json:"average_confidence"`
	Flagged           bool                  `json:"flagged"`
}
