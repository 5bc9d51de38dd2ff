package store

import (
	"context"
	"fmt"

	"github.com/docsift/docsift/internal/entity"
)

// ReplaceExtractions swaps the cached extraction set for a job.
func (s *Store) ReplaceExtractions(ctx context.Context, jobID string, extractions []entity.Extraction) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM extractions WHERE job_id = ?`, jobID); err != nil {
		tx.Rollback()
		return fmt.Errorf("clearing extractions: %w", err)
	}
	for _, ex := range extractions {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO extractions (id, job_id, document_id, document_name, variable_id, variable_name, value, confidence, source_text, flagged)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			ex.ID, jobID, ex.DocumentID, ex.DocumentName, ex.VariableID, ex.VariableName,
			ex.Value, ex.Confidence, ex.SourceText, boolToInt(ex.Flagged)); err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting extraction %s: %w", ex.ID, err)
		}
	}
	return tx.Commit()
}

// ListExtractions returns the cached extractions for a job, ordered by
// document then variable for stable output.
func (s *Store) ListExtractions(ctx context.Context, jobID string) ([]entity.Extraction, error) {
	rows, err := s.conn.QueryContext(ctx, `
SELECT id, job_id, document_id, document_name, variable_id, variable_name, value, confidence, source_text, flagged
FROM extractions WHERE job_id = ? ORDER BY document_id, variable_id`, jobID)
	if err != nil {
		return nil, fmt.Errorf("reading extractions: %w", err)
	}
	defer rows.Close()

	var out []entity.Extraction
	for rows.Next() {
		var ex entity.Extraction
		var flagged int
		if err := rows.Scan(&ex.ID, &ex.JobID, &ex.DocumentID, &ex.DocumentName,
			&ex.VariableID, &ex.VariableName, &ex.Value, &ex.Confidence, &ex.SourceText, &flagged); err != nil {
			return nil, err
		}
		ex.Flagged = flagged != 0
		out = append(out, ex)
	}
	return out, rows.Err()
}

// GetExtraction returns one cached extraction by id, or nil when absent.
func (s *Store) GetExtraction(ctx context.Context, extractionID string) (*entity.Extraction, error) {
	rows, err := s.conn.QueryContext(ctx, `
SELECT id, job_id, document_id, document_name, variable_id, variable_name, value, confidence, source_text, flagged
FROM extractions WHERE id = ?`, extractionID)
	if err != nil {
		return nil, fmt.Errorf("reading extraction: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	var ex entity.Extraction
	var flagged int
	if err := rows.Scan(&ex.ID, &ex.JobID, &ex.DocumentID, &ex.DocumentName,
		&ex.VariableID, &ex.VariableName, &ex.Value, &ex.Confidence, &ex.SourceText, &flagged); err != nil {
		return nil, err
	}
	ex.Flagged = flagged != 0
	return &ex, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
