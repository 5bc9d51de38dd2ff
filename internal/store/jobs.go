package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/docsift/docsift/constants"
	"github.com/docsift/docsift/internal/common"
	"github.com/docsift/docsift/internal/entity"
)

// UpsertJob writes a job snapshot. Terminal statuses are monotonic: once
// the cached row is COMPLETE, FAILED, or CANCELLED, a non-terminal
// snapshot is discarded instead of regressing the row.
func (s *Store) UpsertJob(ctx context.Context, job *entity.ProcessingJob) error {
	var existing string
	err := s.conn.QueryRowContext(ctx, `SELECT status FROM jobs WHERE id = ?`, job.ID).Scan(&existing)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("reading cached status: %w", err)
	}
	if err == nil && constants.JobStatus(existing).Terminal() && !job.Status.Terminal() {
		return nil
	}

	docIDs, err := json.Marshal(job.DocumentIDs)
	if err != nil {
		return fmt.Errorf("encoding document ids: %w", err)
	}
	_, err = s.conn.ExecContext(ctx, `
INSERT INTO jobs (id, project_id, job_type, status, progress, processed_documents, document_ids, created_at, completed_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
ON CONFLICT(id) DO UPDATE SET
    status = excluded.status,
    progress = excluded.progress,
    processed_documents = excluded.processed_documents,
    completed_at = excluded.completed_at,
    updated_at = excluded.updated_at`,
		job.ID, job.ProjectID, string(job.Type), string(job.Status),
		job.Progress, job.ProcessedDocuments, string(docIDs),
		job.CreatedAt, job.CompletedAt)
	if err != nil {
		return fmt.Errorf("upserting job: %w", err)
	}

	if len(job.Logs) > 0 {
		if err := s.replaceJobLogs(ctx, job.ID, job.Logs); err != nil {
			return err
		}
	}
	return nil
}

// GetJob returns the cached snapshot for jobID, logs included.
func (s *Store) GetJob(ctx context.Context, jobID string) (*entity.ProcessingJob, error) {
	row := s.conn.QueryRowContext(ctx, `
SELECT id, project_id, job_type, status, progress, processed_documents, document_ids, created_at, completed_at
FROM jobs WHERE id = ?`, jobID)

	var job entity.ProcessingJob
	var jobType, status, docIDs string
	if err := row.Scan(&job.ID, &job.ProjectID, &jobType, &status, &job.Progress,
		&job.ProcessedDocuments, &docIDs, &job.CreatedAt, &job.CompletedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, common.NotFoundf("job %s not cached", jobID)
		}
		return nil, fmt.Errorf("reading job: %w", err)
	}
	job.Type = constants.ParseJobType(jobType)
	job.Status = constants.ParseJobStatus(status)
	if err := json.Unmarshal([]byte(docIDs), &job.DocumentIDs); err != nil {
		return nil, fmt.Errorf("decoding document ids: %w", err)
	}

	logs, err := s.JobLogs(ctx, jobID)
	if err != nil {
		return nil, err
	}
	job.Logs = logs
	return &job, nil
}

// JobLogs returns the cached log lines for jobID in insertion order.
func (s *Store) JobLogs(ctx context.Context, jobID string) ([]entity.JobLogEntry, error) {
	rows, err := s.conn.QueryContext(ctx, `
SELECT timestamp, level, message, document_id FROM job_logs WHERE job_id = ? ORDER BY id`, jobID)
	if err != nil {
		return nil, fmt.Errorf("reading job logs: %w", err)
	}
	defer rows.Close()

	var logs []entity.JobLogEntry
	for rows.Next() {
		var l entity.JobLogEntry
		var level string
		if err := rows.Scan(&l.Timestamp, &level, &l.Message, &l.DocumentID); err != nil {
			return nil, err
		}
		l.Level = constants.ParseLogLevel(level)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// InvalidateJob drops the cached job and, via cascade, its logs and
// extractions.
func (s *Store) InvalidateJob(ctx context.Context, jobID string) error {
	_, err := s.conn.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, jobID)
	return err
}

// replaceJobLogs swaps the cached log set for the job's latest snapshot.
// Logs are append-only server-side, so the snapshot is always a superset.
func (s *Store) replaceJobLogs(ctx context.Context, jobID string, logs []entity.JobLogEntry) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM job_logs WHERE job_id = ?`, jobID); err != nil {
		tx.Rollback()
		return fmt.Errorf("clearing job logs: %w", err)
	}
	for _, l := range logs {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO job_logs (job_id, timestamp, level, message, document_id) VALUES (?, ?, ?, ?, ?)`,
			jobID, l.Timestamp, string(l.Level), l.Message, l.DocumentID); err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting job log: %w", err)
		}
	}
	return tx.Commit()
}
