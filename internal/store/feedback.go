package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/docsift/docsift/constants"
	"github.com/docsift/docsift/internal/entity"
)

// GetFeedback returns the recorded judgment for an extraction, or nil.
func (s *Store) GetFeedback(ctx context.Context, extractionID string) (*entity.FeedbackRecord, error) {
	row := s.conn.QueryRowContext(ctx, `
SELECT extraction_id, feedback_type, corrected_value FROM feedback WHERE extraction_id = ?`, extractionID)

	var rec entity.FeedbackRecord
	var ft string
	if err := row.Scan(&rec.ExtractionID, &ft, &rec.CorrectedValue); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("reading feedback: %w", err)
	}
	rec.FeedbackType = constants.FeedbackType(ft)
	return &rec, nil
}

// UpsertFeedback records a judgment, last-write-wins. No history is kept
// for superseded feedback.
func (s *Store) UpsertFeedback(ctx context.Context, rec entity.FeedbackRecord) error {
	_, err := s.conn.ExecContext(ctx, `
INSERT OR REPLACE INTO feedback (extraction_id, feedback_type, corrected_value, updated_at)
VALUES (?, ?, ?, datetime('now'))`,
		rec.ExtractionID, string(rec.FeedbackType), rec.CorrectedValue)
	return err
}

// FeedbackMap returns extraction_id → judgment over all recorded
// feedback, the input shape for results.CalculateAccuracy.
func (s *Store) FeedbackMap(ctx context.Context) (map[string]constants.FeedbackType, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT extraction_id, feedback_type FROM feedback`)
	if err != nil {
		return nil, fmt.Errorf("reading feedback: %w", err)
	}
	defer rows.Close()

	m := make(map[string]constants.FeedbackType)
	for rows.Next() {
		var id, ft string
		if err := rows.Scan(&id, &ft); err != nil {
			return nil, err
		}
		m[id] = constants.FeedbackType(ft)
	}
	return m, rows.Err()
}

// InsertGoldenExample records a pinned example locally.
func (s *Store) InsertGoldenExample(ctx context.Context, ex entity.GoldenExample) (int64, error) {
	res, err := s.conn.ExecContext(ctx, `
INSERT INTO golden_examples (variable_id, variable_name, source_text, value, document_name, use_in_prompt)
VALUES (?, ?, ?, ?, ?, ?)`,
		ex.VariableID, ex.VariableName, ex.SourceText, ex.Value, ex.DocumentName, boolToInt(ex.UseInPrompt))
	if err != nil {
		return 0, fmt.Errorf("inserting golden example: %w", err)
	}
	return res.LastInsertId()
}

// ListGoldenExamples returns recorded examples, newest first, optionally
// restricted to one variable.
func (s *Store) ListGoldenExamples(ctx context.Context, variableID string) ([]entity.GoldenExample, error) {
	query := `SELECT id, variable_id, variable_name, source_text, value, document_name, use_in_prompt
FROM golden_examples`
	args := []any{}
	if variableID != "" {
		query += ` WHERE variable_id = ?`
		args = append(args, variableID)
	}
	query += ` ORDER BY id DESC`

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("reading golden examples: %w", err)
	}
	defer rows.Close()

	var out []entity.GoldenExample
	for rows.Next() {
		var ex entity.GoldenExample
		var useInPrompt int
		if err := rows.Scan(&ex.ID, &ex.VariableID, &ex.VariableName, &ex.SourceText,
			&ex.Value, &ex.DocumentName, &useInPrompt); err != nil {
			return nil, err
		}
		ex.UseInPrompt = useInPrompt != 0
		out = append(out, ex)
	}
	return out, rows.Err()
}
