package transcode

// BuildJobSchema returns a JSON-Schema (draft 2020-12 subset) for the
// wire job as a generic map. Status is deliberately unconstrained: an
// unknown value is a decode-time default, not a validation failure.
func BuildJobSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id":                  map[string]any{"type": "string", "minLength": 1},
			"project_id":          map[string]any{"type": "string"},
			"job_type":            map[string]any{"type": "string"},
			"status":              map[string]any{"type": "string"},
			"progress":            map[string]any{"type": "integer", "minimum": 0, "maximum": 100},
			"document_ids":        map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"processed_documents": map[string]any{"type": "integer", "minimum": 0},
			"created_at":          map[string]any{"type": "string"},
			"completed_at":        map[string]any{"type": []string{"string", "null"}},
			"logs":                map[string]any{"type": "array", "items": logEntrySchema()},
		},
		"required": []string{"id", "status", "progress", "document_ids"},
	}
}

// BuildResultsSchema returns the schema for GET /jobs/{id}/results.
func BuildResultsSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"job_id":            map[string]any{"type": "string", "minLength": 1},
			"project_id":        map[string]any{"type": "string"},
			"total_extractions": map[string]any{"type": "integer", "minimum": 0},
			"extractions":       map[string]any{"type": "array", "items": extractionSchema()},
		},
		"required": []string{"job_id", "extractions"},
	}
}

func logEntrySchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"timestamp":   map[string]any{"type": "string"},
			"level":       map[string]any{"type": "string"},
			"message":     map[string]any{"type": "string"},
			"document_id": map[string]any{"type": []string{"string", "null"}},
		},
		"required": []string{"timestamp", "message"},
	}
}

func extractionSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id":            map[string]any{"type": "string", "minLength": 1},
			"job_id":        map[string]any{"type": "string"},
			"document_id":   map[string]any{"type": "string", "minLength": 1},
			"document_name": map[string]any{"type": "string"},
			"variable_id":   map[string]any{"type": "string", "minLength": 1},
			"variable_name": map[string]any{"type": "string"},
			"value":         map[string]any{"type": []string{"string", "number", "boolean", "null"}},
			"confidence": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"score":       map[string]any{"type": "integer", "minimum": 0, "maximum": 100},
					"source_text": map[string]any{"type": []string{"string", "null"}},
				},
				"required": []string{"score"},
			},
			"flagged": map[string]any{"type": "boolean"},
		},
		"required": []string{"id", "document_id", "variable_id", "confidence"},
	}
}
