package feedback

import (
	"context"
	"errors"
	"testing"

	"github.com/docsift/docsift/constants"
	"github.com/docsift/docsift/internal/common"
	"github.com/docsift/docsift/internal/entity"
	"github.com/docsift/docsift/internal/transcode"
)

func strPtr(s string) *string { return &s }

type fakeSubmitter struct {
	feedbackCalls int
	exampleCalls  int
	lastExample   transcode.ExampleRequest
	err           error
}

func (f *fakeSubmitter) SubmitFeedback(ctx context.Context, extractionID string, ft constants.FeedbackType, correctedValue *string) error {
	f.feedbackCalls++
	return f.err
}

func (f *fakeSubmitter) CreateExample(ctx context.Context, variableID string, req transcode.ExampleRequest) error {
	f.exampleCalls++
	f.lastExample = req
	return f.err
}

type memStore struct {
	feedback map[string]entity.FeedbackRecord
	examples []entity.GoldenExample
}

func newMemStore() *memStore {
	return &memStore{feedback: make(map[string]entity.FeedbackRecord)}
}

func (m *memStore) GetFeedback(ctx context.Context, extractionID string) (*entity.FeedbackRecord, error) {
	if rec, ok := m.feedback[extractionID]; ok {
		return &rec, nil
	}
	return nil, nil
}

func (m *memStore) UpsertFeedback(ctx context.Context, rec entity.FeedbackRecord) error {
	m.feedback[rec.ExtractionID] = rec
	return nil
}

func (m *memStore) FeedbackMap(ctx context.Context) (map[string]constants.FeedbackType, error) {
	out := make(map[string]constants.FeedbackType, len(m.feedback))
	for id, rec := range m.feedback {
		out[id] = rec.FeedbackType
	}
	return out, nil
}

func (m *memStore) InsertGoldenExample(ctx context.Context, ex entity.GoldenExample) (int64, error) {
	m.examples = append(m.examples, ex)
	return int64(len(m.examples)), nil
}

func TestRecordIsIdempotent(t *testing.T) {
	api := &fakeSubmitter{}
	store := newMemStore()
	r := NewRecorder(api, store, nil)
	ctx := context.Background()

	if err := r.Record(ctx, "e1", true, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Record(ctx, "e1", true, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if api.feedbackCalls != 1 {
		t.Errorf("duplicate judgment must not resubmit, got %d calls", api.feedbackCalls)
	}
}

func TestRecordOppositeJudgmentOverwrites(t *testing.T) {
	api := &fakeSubmitter{}
	store := newMemStore()
	r := NewRecorder(api, store, nil)
	ctx := context.Background()

	if err := r.Record(ctx, "e1", true, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Record(ctx, "e1", false, strPtr("corrected")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if api.feedbackCalls != 2 {
		t.Errorf("expected 2 submissions, got %d", api.feedbackCalls)
	}

	rec := store.feedback["e1"]
	if rec.FeedbackType != constants.FeedbackIncorrect {
		t.Errorf("last write must win, got %s", rec.FeedbackType)
	}
	if rec.CorrectedValue == nil || *rec.CorrectedValue != "corrected" {
		t.Errorf("corrected value lost: %+v", rec)
	}
}

func TestRecordRemoteFailureKeepsLocalClean(t *testing.T) {
	api := &fakeSubmitter{err: common.NewAppError("NETWORK", "down", common.ErrNetwork)}
	store := newMemStore()
	r := NewRecorder(api, store, nil)

	err := r.Record(context.Background(), "e1", true, nil)
	if !errors.Is(err, common.ErrNetwork) {
		t.Fatalf("expected network error surfaced, got %v", err)
	}
	if len(store.feedback) != 0 {
		t.Error("failed submission must not be recorded locally")
	}
}

func TestPinNullValueFails(t *testing.T) {
	api := &fakeSubmitter{}
	r := NewRecorder(api, newMemStore(), nil)

	_, err := r.Pin(context.Background(), entity.Extraction{
		ID: "e1", VariableID: "v1", Value: nil,
	}, true)
	if !errors.Is(err, common.ErrInvalidPin) {
		t.Errorf("expected ErrInvalidPin, got %v", err)
	}
	if api.exampleCalls != 0 {
		t.Error("invalid pin must not hit the service")
	}
}

func TestPinCreatesGoldenExample(t *testing.T) {
	api := &fakeSubmitter{}
	store := newMemStore()
	r := NewRecorder(api, store, nil)

	example, err := r.Pin(context.Background(), entity.Extraction{
		ID: "e1", VariableID: "v1", VariableName: "Date",
		DocumentName: "invoice.pdf",
		Value:        strPtr("2024-01-01"),
		SourceText:   strPtr("dated Jan 1, 2024"),
	}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !example.UseInPrompt {
		t.Error("use_in_prompt flag must carry through")
	}
	if api.lastExample.Value != "2024-01-01" || api.lastExample.SourceText != "dated Jan 1, 2024" {
		t.Errorf("unexpected wire example: %+v", api.lastExample)
	}
	if len(store.examples) != 1 {
		t.Errorf("expected 1 local example, got %d", len(store.examples))
	}
}

func TestAccuracy(t *testing.T) {
	store := newMemStore()
	r := NewRecorder(&fakeSubmitter{}, store, nil)
	ctx := context.Background()

	acc, err := r.Accuracy(ctx)
	if err != nil || acc != 0 {
		t.Errorf("expected 0 with no feedback, got %d (%v)", acc, err)
	}

	r.Record(ctx, "e1", true, nil)
	r.Record(ctx, "e2", false, nil)
	acc, err = r.Accuracy(ctx)
	if err != nil || acc != 50 {
		t.Errorf("expected 50, got %d (%v)", acc, err)
	}
}
