package transcode

import (
	"encoding/json"
	"testing"

	"github.com/docsift/docsift/constants"
)

func intPtr(i int) *int       { return &i }
func strPtr(s string) *string { return &s }

func TestDecodeJobUnknownEnumsFallBack(t *testing.T) {
	job := DecodeJob(Job{
		ID:          "j1",
		JobType:     "INCREMENTAL", // not a known type
		Status:      "ARCHIVED",    // forward-compatible addition
		Progress:    10,
		DocumentIDs: []string{"d1"},
	})
	if job.Status != constants.JobStatusPending {
		t.Errorf("unknown status should decode to PENDING, got %s", job.Status)
	}
	if job.Type != constants.JobTypeFull {
		t.Errorf("unknown type should decode to FULL, got %s", job.Type)
	}
}

func TestDecodeJobProcessedDocuments(t *testing.T) {
	docs := []string{"a", "b", "c", "d"}

	derived := DecodeJob(Job{ID: "j1", Status: "PROCESSING", Progress: 50, DocumentIDs: docs})
	if derived.ProcessedDocuments != 2 {
		t.Errorf("expected derived count 2, got %d", derived.ProcessedDocuments)
	}

	rounded := DecodeJob(Job{ID: "j1", Status: "PROCESSING", Progress: 40, DocumentIDs: docs[:3]})
	if rounded.ProcessedDocuments != 1 {
		t.Errorf("expected round(0.4*3)=1, got %d", rounded.ProcessedDocuments)
	}

	explicit := DecodeJob(Job{ID: "j1", Status: "PROCESSING", Progress: 50, DocumentIDs: docs, ProcessedDocuments: intPtr(3)})
	if explicit.ProcessedDocuments != 3 {
		t.Errorf("explicit count must win, got %d", explicit.ProcessedDocuments)
	}
}

func TestDecodeJobClampsProgress(t *testing.T) {
	job := DecodeJob(Job{ID: "j1", Status: "PROCESSING", Progress: 130, DocumentIDs: []string{"a"}})
	if job.Progress != 100 {
		t.Errorf("expected clamped progress 100, got %d", job.Progress)
	}
}

func TestDecodeLogEntryDefaultsLevel(t *testing.T) {
	entry := DecodeLogEntry(LogEntry{Timestamp: "2024-01-01T00:00:00Z", Level: "TRACE", Message: "m"})
	if entry.Level != constants.LogLevelInfo {
		t.Errorf("unknown level should decode to INFO, got %s", entry.Level)
	}
}

func TestDecodeExtractionFlattensConfidence(t *testing.T) {
	ex := DecodeExtraction(Extraction{
		ID:           "e1",
		DocumentID:   "d1",
		VariableID:   "v1",
		VariableName: "Date",
		Value:        "2024-01-01",
		Confidence:   Confidence{Score: 90, SourceText: strPtr("dated Jan 1, 2024")},
	})
	if ex.Confidence != 90 {
		t.Errorf("expected confidence 90, got %d", ex.Confidence)
	}
	if ex.SourceText == nil || *ex.SourceText != "dated Jan 1, 2024" {
		t.Error("source text should be lifted out of the confidence object")
	}
	if ex.Value == nil || *ex.Value != "2024-01-01" {
		t.Error("string value should pass through")
	}
}

func TestRenderValue(t *testing.T) {
	if RenderValue(nil) != nil {
		t.Error("nil must stay nil")
	}
	cases := []struct {
		in   any
		want string
	}{
		{"text", "text"},
		{true, "true"},
		{float64(42), "42"},
		{float64(12.5), "12.5"},
		{json.Number("1200.50"), "1200.50"},
	}
	for _, c := range cases {
		got := RenderValue(c.in)
		if got == nil || *got != c.want {
			t.Errorf("RenderValue(%v): expected %q, got %v", c.in, c.want, got)
		}
	}
}

func TestSchemaValidatorJob(t *testing.T) {
	sv, err := NewSchemaValidator(BuildJobSchema())
	if err != nil {
		t.Fatalf("compiling job schema: %v", err)
	}

	valid := []byte(`{"id":"j1","status":"PENDING","progress":0,"document_ids":["d1"]}`)
	if err := sv.Validate(valid); err != nil {
		t.Errorf("valid job rejected: %v", err)
	}

	missing := []byte(`{"id":"j1","status":"PENDING"}`)
	if err := sv.Validate(missing); err == nil {
		t.Error("job without progress/document_ids should fail validation")
	}
}

func TestSchemaValidatorAcceptsExplicitNulls(t *testing.T) {
	// Some servers serialize absent optional fields as explicit null
	// instead of omitting them; both forms must validate.
	jobSV, err := NewSchemaValidator(BuildJobSchema())
	if err != nil {
		t.Fatalf("compiling job schema: %v", err)
	}
	job := []byte(`{
		"id": "j1", "status": "PROCESSING", "progress": 50,
		"document_ids": ["d1"],
		"completed_at": null,
		"logs": [{"timestamp":"2024-01-01T00:00:00Z","message":"started","document_id":null}]
	}`)
	if err := jobSV.Validate(job); err != nil {
		t.Errorf("job with explicit nulls rejected: %v", err)
	}

	resultSV, err := NewSchemaValidator(BuildResultsSchema())
	if err != nil {
		t.Fatalf("compiling results schema: %v", err)
	}
	results := []byte(`{
		"job_id": "j1",
		"extractions": [
			{"id":"e1","document_id":"d1","variable_id":"v1","value":null,"confidence":{"score":70,"source_text":null}}
		]
	}`)
	if err := resultSV.Validate(results); err != nil {
		t.Errorf("results with explicit nulls rejected: %v", err)
	}
}

func TestSchemaValidatorResults(t *testing.T) {
	sv, err := NewSchemaValidator(BuildResultsSchema())
	if err != nil {
		t.Fatalf("compiling results schema: %v", err)
	}

	valid := []byte(`{
		"job_id": "j1",
		"extractions": [
			{"id":"e1","document_id":"d1","variable_id":"v1","value":null,"confidence":{"score":70}}
		]
	}`)
	if err := sv.Validate(valid); err != nil {
		t.Errorf("valid results rejected: %v", err)
	}

	badScore := []byte(`{
		"job_id": "j1",
		"extractions": [
			{"id":"e1","document_id":"d1","variable_id":"v1","confidence":{"score":140}}
		]
	}`)
	if err := sv.Validate(badScore); err == nil {
		t.Error("confidence score above 100 should fail validation")
	}
}
