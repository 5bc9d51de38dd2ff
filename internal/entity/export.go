package entity

import "github.com/docsift/docsift/constants"

// ExportOptions is a pure value object describing one export run.
type ExportOptions struct {
	Structure         constants.ExportStructure `json:"structure"`
	IncludeConfidence bool                      `json:"include_confidence"`
	IncludeSourceText bool                      `json:"include_source_text"`
	MinConfidence     *int                      `json:"min_confidence_threshold,omitempty"`
}
