// Package feedback records human judgments on extractions and promotes
// selected extractions to reusable golden examples. It is the only
// writer of feedback records and examples.
package feedback

import (
	"context"
	"log/slog"

	"github.com/docsift/docsift/constants"
	"github.com/docsift/docsift/internal/common"
	"github.com/docsift/docsift/internal/entity"
	"github.com/docsift/docsift/internal/results"
	"github.com/docsift/docsift/internal/transcode"
)

// Submitter is the slice of the remote service the recorder needs.
type Submitter interface {
	SubmitFeedback(ctx context.Context, extractionID string, ft constants.FeedbackType, correctedValue *string) error
	CreateExample(ctx context.Context, variableID string, req transcode.ExampleRequest) error
}

// Store persists the local copy of judgments and examples.
type Store interface {
	GetFeedback(ctx context.Context, extractionID string) (*entity.FeedbackRecord, error)
	UpsertFeedback(ctx context.Context, rec entity.FeedbackRecord) error
	FeedbackMap(ctx context.Context) (map[string]constants.FeedbackType, error)
	InsertGoldenExample(ctx context.Context, ex entity.GoldenExample) (int64, error)
}

// Recorder coordinates remote submission and the local feedback cache.
type Recorder struct {
	api   Submitter
	store Store
	log   *slog.Logger
}

func NewRecorder(api Submitter, store Store, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{api: api, store: store, log: logger}
}

// Record stores a correctness judgment for an extraction. Submitting the
// same judgment twice is a no-op; the opposite judgment overwrites the
// prior one (last-write-wins, no history).
func (r *Recorder) Record(ctx context.Context, extractionID string, correct bool, correctedValue *string) error {
	if extractionID == "" {
		return common.InvalidRequestf("extraction id is empty")
	}
	ft := constants.FeedbackIncorrect
	if correct {
		ft = constants.FeedbackCorrect
	}

	existing, err := r.store.GetFeedback(ctx, extractionID)
	if err != nil {
		return err
	}
	if existing != nil && existing.FeedbackType == ft && equalPtr(existing.CorrectedValue, correctedValue) {
		r.log.Debug("feedback.duplicate_ignored", "extraction_id", extractionID, "type", string(ft))
		return nil
	}

	if err := r.api.SubmitFeedback(ctx, extractionID, ft, correctedValue); err != nil {
		return err
	}
	if err := r.store.UpsertFeedback(ctx, entity.FeedbackRecord{
		ExtractionID:   extractionID,
		FeedbackType:   ft,
		CorrectedValue: correctedValue,
	}); err != nil {
		return err
	}
	r.log.Info("feedback.recorded", "extraction_id", extractionID, "type", string(ft))
	return nil
}

// Pin promotes an extraction to a golden example. The extraction must
// carry a non-null value. Pinning is terminal: examples are create-only
// from this subsystem's perspective.
func (r *Recorder) Pin(ctx context.Context, ex entity.Extraction, useInPrompt bool) (*entity.GoldenExample, error) {
	if ex.Value == nil {
		return nil, common.NewAppError("INVALID_PIN", "extraction has no value", common.ErrInvalidPin)
	}

	sourceText := ""
	if ex.SourceText != nil {
		sourceText = *ex.SourceText
	}
	req := transcode.EncodeExample(sourceText, *ex.Value, ex.DocumentName, useInPrompt)
	if err := r.api.CreateExample(ctx, ex.VariableID, req); err != nil {
		return nil, err
	}

	example := entity.GoldenExample{
		VariableID:   ex.VariableID,
		VariableName: ex.VariableName,
		SourceText:   sourceText,
		Value:        *ex.Value,
		DocumentName: ex.DocumentName,
		UseInPrompt:  useInPrompt,
	}
	id, err := r.store.InsertGoldenExample(ctx, example)
	if err != nil {
		return nil, err
	}
	example.ID = id
	r.log.Info("feedback.pinned",
		"extraction_id", ex.ID, "variable_id", ex.VariableID, "use_in_prompt", useInPrompt)
	return &example, nil
}

// Accuracy returns the correct-percentage over all recorded feedback,
// 0 when none exists.
func (r *Recorder) Accuracy(ctx context.Context) (int, error) {
	m, err := r.store.FeedbackMap(ctx)
	if err != nil {
		return 0, err
	}
	return results.CalculateAccuracy(m), nil
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
