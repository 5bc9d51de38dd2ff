package transcode

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/docsift/docsift/constants"
	"github.com/docsift/docsift/internal/entity"
)

// DecodeJob maps a wire job to the internal record. Unknown enum values
// fall back to documented defaults; timestamps pass through unparsed.
func DecodeJob(w Job) entity.ProcessingJob {
	job := entity.ProcessingJob{
		ID:          w.ID,
		ProjectID:   w.ProjectID,
		Type:        constants.ParseJobType(w.JobType),
		Status:      constants.ParseJobStatus(w.Status),
		Progress:    clampProgress(w.Progress),
		DocumentIDs: w.DocumentIDs,
		CreatedAt:   w.CreatedAt,
		CompletedAt: w.CompletedAt,
	}
	if w.ProcessedDocuments != nil {
		job.ProcessedDocuments = *w.ProcessedDocuments
	} else {
		job.ProcessedDocuments = processedFromProgress(job.Progress, len(w.DocumentIDs))
	}
	if len(w.Logs) > 0 {
		job.Logs = make([]entity.JobLogEntry, 0, len(w.Logs))
		for _, l := range w.Logs {
			job.Logs = append(job.Logs, DecodeLogEntry(l))
		}
	}
	return job
}

// DecodeLogEntry maps a wire log line, defaulting unknown levels to INFO.
func DecodeLogEntry(w LogEntry) entity.JobLogEntry {
	return entity.JobLogEntry{
		Timestamp:  w.Timestamp,
		Level:      constants.ParseLogLevel(w.Level),
		Message:    w.Message,
		DocumentID: w.DocumentID,
	}
}

// DecodeExtraction flattens the nested confidence object and renders the
// scalar value to its canonical text form, keeping null-ness.
func DecodeExtraction(w Extraction) entity.Extraction {
	return entity.Extraction{
		ID:           w.ID,
		JobID:        w.JobID,
		DocumentID:   w.DocumentID,
		DocumentName: w.DocumentName,
		VariableID:   w.VariableID,
		VariableName: w.VariableName,
		Value:        RenderValue(w.Value),
		Confidence:   clampProgress(w.Confidence.Score),
		SourceText:   w.Confidence.SourceText,
		Flagged:      w.Flagged,
	}
}

// DecodeResults maps a full results envelope.
func DecodeResults(w ResultsEnvelope) entity.ResultSet {
	rs := entity.ResultSet{
		JobID:            w.JobID,
		ProjectID:        w.ProjectID,
		TotalExtractions: w.TotalExtractions,
		Extractions:      make([]entity.Extraction, 0, len(w.Extractions)),
	}
	for _, e := range w.Extractions {
		rs.Extractions = append(rs.Extractions, DecodeExtraction(e))
	}
	return rs
}

// EncodeCreateJob builds the POST /jobs body.
func EncodeCreateJob(projectID string, jobType constants.JobType, documentIDs []string) CreateJobRequest {
	return CreateJobRequest{
		ProjectID:   projectID,
		JobType:     string(jobType),
		DocumentIDs: documentIDs,
	}
}

// EncodeFeedback builds the POST /extractions/{id}/feedback body.
func EncodeFeedback(ft constants.FeedbackType, correctedValue *string) FeedbackRequest {
	return FeedbackRequest{
		FeedbackType:   string(ft),
		CorrectedValue: correctedValue,
	}
}

// EncodeExample builds the POST /variables/{id}/examples body.
func EncodeExample(sourceText, value, documentName string, useInPrompt bool) ExampleRequest {
	return ExampleRequest{
		SourceText:   sourceText,
		Value:        value,
		DocumentName: documentName,
		UseInPrompt:  useInPrompt,
	}
}

// RenderValue converts a decoded JSON scalar to its canonical text form.
// nil stays nil so callers can distinguish "extracted nothing" from "".
func RenderValue(v any) *string {
	if v == nil {
		return nil
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case bool:
		s = strconv.FormatBool(t)
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		s = t.String()
	default:
		s = fmt.Sprintf("%v", t)
	}
	return &s
}

func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// processedFromProgress derives the processed-document count when the
// service omits an explicit one.
func processedFromProgress(progress, totalDocs int) int {
	return int(math.Round(float64(progress) / 100 * float64(totalDocs)))
}
