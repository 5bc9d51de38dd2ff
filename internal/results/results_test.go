package results

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/docsift/docsift/constants"
	"github.com/docsift/docsift/internal/entity"
)

func strPtr(s string) *string { return &s }

func sampleExtractions() []entity.Extraction {
	return []entity.Extraction{
		{ID: "e1", DocumentID: "doc1", DocumentName: "doc1", VariableID: "v1", VariableName: "Date", Value: strPtr("2024-01-01"), Confidence: 90},
		{ID: "e2", DocumentID: "doc1", DocumentName: "doc1", VariableID: "v2", VariableName: "City", Value: strPtr("Paris"), Confidence: 80},
		{ID: "e3", DocumentID: "doc2", DocumentName: "doc2", VariableID: "v1", VariableName: "Date", Value: strPtr("2024-02-01"), Confidence: 70},
	}
}

func TestAggregateGroupsAndAverages(t *testing.T) {
	results := Aggregate(sampleExtractions())
	if len(results) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(results))
	}

	doc1 := results[0]
	if doc1.DocumentID != "doc1" {
		t.Fatalf("expected doc1 first, got %s", doc1.DocumentID)
	}
	if doc1.AverageConfidence != 85 {
		t.Errorf("expected average 85, got %v", doc1.AverageConfidence)
	}
	if len(doc1.Data) != 2 {
		t.Errorf("expected 2 fields for doc1, got %d", len(doc1.Data))
	}
	if fv := doc1.Data["City"]; fv.Value == nil || *fv.Value != "Paris" {
		t.Errorf("expected City=Paris, got %v", fv.Value)
	}

	doc2 := results[1]
	if doc2.AverageConfidence != 70 {
		t.Errorf("expected average 70, got %v", doc2.AverageConfidence)
	}
	if _, ok := doc2.Data["City"]; ok {
		t.Error("doc2 has no City extraction; data map must be sparse")
	}
}

func TestAggregateIsOrderIndependent(t *testing.T) {
	base := Aggregate(sampleExtractions())

	r := rand.New(rand.NewSource(7))
	for i := 0; i < 10; i++ {
		shuffled := sampleExtractions()
		r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		if got := Aggregate(shuffled); !reflect.DeepEqual(base, got) {
			t.Fatalf("permutation %d changed the aggregation", i)
		}
	}
}

func TestAggregateEmptyInput(t *testing.T) {
	if got := Aggregate(nil); len(got) != 0 {
		t.Errorf("expected no results, got %d", len(got))
	}
}

func TestAggregatePropagatesFlagged(t *testing.T) {
	exs := sampleExtractions()
	exs[1].Flagged = true
	results := Aggregate(exs)
	if !results[0].Flagged {
		t.Error("doc1 should be flagged when any of its extractions is")
	}
	if results[1].Flagged {
		t.Error("doc2 should not be flagged")
	}
}

func TestFilterByConfidenceAllFieldsRule(t *testing.T) {
	results := Aggregate(sampleExtractions())

	// doc1 has fields at 90 and 80: the 80 disqualifies it at t=85 even
	// though its average is exactly 85.
	kept := FilterByConfidence(results, 85)
	if len(kept) != 0 {
		t.Errorf("expected no documents at threshold 85, got %d", len(kept))
	}

	kept = FilterByConfidence(results, 75)
	if len(kept) != 1 || kept[0].DocumentID != "doc1" {
		t.Errorf("expected only doc1 at threshold 75, got %v", kept)
	}

	kept = FilterByConfidence(results, 0)
	if len(kept) != len(results) {
		t.Errorf("threshold 0 must keep everything, got %d", len(kept))
	}
}

func TestFilterByAverageConfidenceIsLooser(t *testing.T) {
	results := Aggregate(sampleExtractions())
	kept := FilterByAverageConfidence(results, 85)
	if len(kept) != 1 || kept[0].DocumentID != "doc1" {
		t.Errorf("average rule should keep doc1 at 85, got %v", kept)
	}
}

func TestCalculateAccuracy(t *testing.T) {
	if got := CalculateAccuracy(nil); got != 0 {
		t.Errorf("no feedback should yield 0, got %d", got)
	}
	if got := CalculateAccuracy(map[string]constants.FeedbackType{"e1": constants.FeedbackCorrect}); got != 100 {
		t.Errorf("single CORRECT should yield 100, got %d", got)
	}
	got := CalculateAccuracy(map[string]constants.FeedbackType{
		"e1": constants.FeedbackCorrect,
		"e2": constants.FeedbackIncorrect,
	})
	if got != 50 {
		t.Errorf("expected 50, got %d", got)
	}
	got = CalculateAccuracy(map[string]constants.FeedbackType{
		"e1": constants.FeedbackCorrect,
		"e2": constants.FeedbackCorrect,
		"e3": constants.FeedbackIncorrect,
	})
	if got != 67 {
		t.Errorf("expected round(66.6)=67, got %d", got)
	}
}

func TestCacheComputesOncePerVersion(t *testing.T) {
	var cache Cache
	calls := 0
	compute := func() []entity.DocumentResult {
		calls++
		return Aggregate(sampleExtractions())
	}

	cache.Get("v1", compute)
	cache.Get("v1", compute)
	if calls != 1 {
		t.Errorf("expected 1 computation for stable version, got %d", calls)
	}

	cache.Get("v2", compute)
	if calls != 2 {
		t.Errorf("version change must recompute, got %d", calls)
	}

	cache.Invalidate()
	cache.Get("v2", compute)
	if calls != 3 {
		t.Errorf("explicit invalidation must recompute, got %d", calls)
	}
}
