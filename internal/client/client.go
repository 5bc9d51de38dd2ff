// Package client is the HTTP boundary to the remote extraction service.
// Every request carries a bounded timeout; failures surface as typed
// errors from internal/common.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/docsift/docsift/constants"
	"github.com/docsift/docsift/internal/common"
	"github.com/docsift/docsift/internal/entity"
	"github.com/docsift/docsift/internal/transcode"
)

// Client talks to the extraction service.
type Client struct {
	baseURL      string
	http         *http.Client
	log          *slog.Logger
	jobSchema    *transcode.SchemaValidator
	resultSchema *transcode.SchemaValidator
}

// New builds a Client for the service at baseURL. The timeout bounds
// every individual request (default 30s when zero).
func New(baseURL string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	jobSchema, err := transcode.NewSchemaValidator(transcode.BuildJobSchema())
	if err != nil {
		return nil, fmt.Errorf("job schema: %w", err)
	}
	resultSchema, err := transcode.NewSchemaValidator(transcode.BuildResultsSchema())
	if err != nil {
		return nil, fmt.Errorf("results schema: %w", err)
	}
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		http:         &http.Client{Timeout: timeout},
		log:          logger,
		jobSchema:    jobSchema,
		resultSchema: resultSchema,
	}, nil
}

// CreateJob submits a new extraction job. The document set must be
// non-empty; this is checked before any network call.
func (c *Client) CreateJob(ctx context.Context, projectID string, jobType constants.JobType, documentIDs []string) (*entity.ProcessingJob, error) {
	if len(documentIDs) == 0 {
		return nil, common.InvalidRequestf("document set is empty")
	}
	body := transcode.EncodeCreateJob(projectID, jobType, documentIDs)
	raw, err := c.doJSON(ctx, http.MethodPost, "/jobs", body)
	if err != nil {
		return nil, err
	}
	return c.decodeJob(raw)
}

// GetJob re-fetches the current job state.
func (c *Client) GetJob(ctx context.Context, jobID string) (*entity.ProcessingJob, error) {
	if jobID == "" {
		return nil, common.InvalidRequestf("job id is empty")
	}
	raw, err := c.doJSON(ctx, http.MethodGet, "/jobs/"+url.PathEscape(jobID), nil)
	if err != nil {
		return nil, err
	}
	return c.decodeJob(raw)
}

// GetResults fetches the raw extraction set of a completed job.
func (c *Client) GetResults(ctx context.Context, jobID string) (*entity.ResultSet, error) {
	if jobID == "" {
		return nil, common.InvalidRequestf("job id is empty")
	}
	raw, err := c.doJSON(ctx, http.MethodGet, "/jobs/"+url.PathEscape(jobID)+"/results", nil)
	if err != nil {
		return nil, err
	}
	if err := c.resultSchema.Validate(raw); err != nil {
		return nil, common.NewAppError("BAD_PAYLOAD", "results payload failed validation", err)
	}
	var envelope transcode.ResultsEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	rs := transcode.DecodeResults(envelope)
	return &rs, nil
}

// CancelJob asks the service to stop a job. Cancellation is cooperative:
// the terminal CANCELLED status is observed on a later poll, not here.
func (c *Client) CancelJob(ctx context.Context, jobID string) error {
	if jobID == "" {
		return common.InvalidRequestf("job id is empty")
	}
	_, err := c.doJSON(ctx, http.MethodDelete, "/jobs/"+url.PathEscape(jobID), nil)
	return err
}

// SubmitFeedback records a correctness judgment for one extraction.
func (c *Client) SubmitFeedback(ctx context.Context, extractionID string, ft constants.FeedbackType, correctedValue *string) error {
	if extractionID == "" {
		return common.InvalidRequestf("extraction id is empty")
	}
	body := transcode.EncodeFeedback(ft, correctedValue)
	_, err := c.doJSON(ctx, http.MethodPost, "/extractions/"+url.PathEscape(extractionID)+"/feedback", body)
	return err
}

// CreateExample promotes an extraction to a reusable few-shot example.
func (c *Client) CreateExample(ctx context.Context, variableID string, req transcode.ExampleRequest) error {
	if variableID == "" {
		return common.InvalidRequestf("variable id is empty")
	}
	_, err := c.doJSON(ctx, http.MethodPost, "/variables/"+url.PathEscape(variableID)+"/examples", req)
	return err
}

func (c *Client) decodeJob(raw []byte) (*entity.ProcessingJob, error) {
	if err := c.jobSchema.Validate(raw); err != nil {
		return nil, common.NewAppError("BAD_PAYLOAD", "job payload failed validation", err)
	}
	var w transcode.Job
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	job := transcode.DecodeJob(w)
	return &job, nil
}
