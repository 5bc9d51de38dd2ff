package entity

// Extraction is one (document, variable) value produced by a completed
// job. Value is nil when the service extracted nothing for the pair;
// scalar values arrive rendered to their canonical text form.
type Extraction struct {
	ID           string  `json:"id"`
	JobID        string  `json:"job_id"`
	DocumentID   string  `json:"document_id"`
	DocumentName string  `json:"document_name"`
	VariableID   string  `json:"variable_id"`
	VariableName string  `json:"variable_name"`
	Value        *string `json:"value"`
	Confidence   int     `json:"confidence"` // 0..100
	SourceText   *string `json:"source_text,omitempty"`
	Flagged      bool    `json:"flagged"`
}

// ResultSet is the full extraction output of one job.
type ResultSet struct {
	JobID            string       `json:"job_id"`
	ProjectID        string       `json:"project_id"`
	TotalExtractions int          `json:"total_extractions"`
	Extractions      []Extraction `json:"extractions"`
}
