// Package results derives per-document views from a job's raw
// extractions. All functions are pure over their inputs and never mutate
// the extraction set.
package results

import (
	"math"
	"sort"

	"github.com/docsift/docsift/constants"
	"github.com/docsift/docsift/internal/entity"
)

// Aggregate groups extractions by document, builds the variable-name
// keyed data map, and computes the arithmetic-mean confidence per
// document. The output is sorted by document id, so permuting the input
// yields an identical result.
func Aggregate(extractions []entity.Extraction) []entity.DocumentResult {
	byDoc := make(map[string]*entity.DocumentResult)
	for _, ex := range extractions {
		doc, ok := byDoc[ex.DocumentID]
		if !ok {
			doc = &entity.DocumentResult{
				DocumentID:   ex.DocumentID,
				DocumentName: ex.DocumentName,
				Data:         make(map[string]entity.FieldValue),
			}
			byDoc[ex.DocumentID] = doc
		}
		if doc.DocumentName == "" {
			doc.DocumentName = ex.DocumentName
		}
		doc.Data[ex.VariableName] = entity.FieldValue{
			Value:      ex.Value,
			Confidence: ex.Confidence,
			SourceText: ex.SourceText,
		}
		if ex.Flagged {
			doc.Flagged = true
		}
	}

	out := make([]entity.DocumentResult, 0, len(byDoc))
	for _, doc := range byDoc {
		doc.AverageConfidence = meanConfidence(doc.Data)
		out = append(out, *doc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocumentID < out[j].DocumentID })
	return out
}

// FilterByConfidence keeps a document only when every entry in its data
// map clears the threshold. A single low-confidence field disqualifies
// the document even when its average looks acceptable.
func FilterByConfidence(results []entity.DocumentResult, threshold int) []entity.DocumentResult {
	out := make([]entity.DocumentResult, 0, len(results))
	for _, r := range results {
		if minConfidence(r.Data) >= threshold {
			out = append(out, r)
		}
	}
	return out
}

// FilterByAverageConfidence keeps a document when its average clears the
// threshold. A distinct, looser policy than FilterByConfidence; callers
// pick one, never both.
func FilterByAverageConfidence(results []entity.DocumentResult, threshold int) []entity.DocumentResult {
	out := make([]entity.DocumentResult, 0, len(results))
	for _, r := range results {
		if r.AverageConfidence >= float64(threshold) {
			out = append(out, r)
		}
	}
	return out
}

// CalculateAccuracy returns the rounded percentage of CORRECT judgments
// over all recorded feedback; 0 when no feedback exists.
func CalculateAccuracy(feedback map[string]constants.FeedbackType) int {
	if len(feedback) == 0 {
		return 0
	}
	correct := 0
	for _, ft := range feedback {
		if ft == constants.FeedbackCorrect {
			correct++
		}
	}
	return int(math.Round(float64(correct) / float64(len(feedback)) * 100))
}

func meanConfidence(data map[string]entity.FieldValue) float64 {
	if len(data) == 0 {
		return 0
	}
	sum := 0
	for _, fv := range data {
		sum += fv.Confidence
	}
	return float64(sum) / float64(len(data))
}

func minConfidence(data map[string]entity.FieldValue) int {
	min := 100
	for _, fv := range data {
		if fv.Confidence < min {
			min = fv.Confidence
		}
	}
	return min
}
