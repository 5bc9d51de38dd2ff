package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/docsift/docsift/constants"
	"github.com/docsift/docsift/internal/common"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, 5*time.Second, nil)
	if err != nil {
		t.Fatalf("building client: %v", err)
	}
	return c
}

func TestCreateJobEmptyDocumentSet(t *testing.T) {
	called := false
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	_, err := c.CreateJob(context.Background(), "p1", constants.JobTypeSample, nil)
	if !errors.Is(err, common.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
	if called {
		t.Error("empty document set must be rejected before any network call")
	}
}

func TestCreateJobDecodesWireJob(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/jobs" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding request body: %v", err)
		}
		if body["job_type"] != "SAMPLE" {
			t.Errorf("expected job_type SAMPLE, got %v", body["job_type"])
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "j1", "project_id": "p1", "job_type": "SAMPLE",
			"status": "PENDING", "progress": 0,
			"document_ids": ["d1", "d2"],
			"created_at": "2024-03-01T10:00:00Z"
		}`))
	}))

	job, err := c.CreateJob(context.Background(), "p1", constants.JobTypeSample, []string{"d1", "d2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.Status != constants.JobStatusPending {
		t.Errorf("expected PENDING, got %s", job.Status)
	}
	if len(job.DocumentIDs) != 2 {
		t.Errorf("expected 2 document ids, got %d", len(job.DocumentIDs))
	}
}

func TestGetJobNotFound(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such job", http.StatusNotFound)
	}))

	_, err := c.GetJob(context.Background(), "missing")
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetJobRejectsMalformedPayload(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": "j1"}`)) // missing status/progress/document_ids
	}))

	_, err := c.GetJob(context.Background(), "j1")
	if err == nil {
		t.Fatal("expected schema validation error")
	}
}

func TestGetResultsFlattensConfidence(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/jobs/j1/results" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{
			"job_id": "j1", "project_id": "p1", "total_extractions": 1,
			"extractions": [{
				"id": "e1", "job_id": "j1",
				"document_id": "d1", "document_name": "invoice.pdf",
				"variable_id": "v1", "variable_name": "Total",
				"value": 1250.5,
				"confidence": {"score": 88, "source_text": "Total due: 1250.50"},
				"flagged": false
			}]
		}`))
	}))

	rs, err := c.GetResults(context.Background(), "j1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rs.Extractions) != 1 {
		t.Fatalf("expected 1 extraction, got %d", len(rs.Extractions))
	}
	ex := rs.Extractions[0]
	if ex.Confidence != 88 {
		t.Errorf("expected confidence 88, got %d", ex.Confidence)
	}
	if ex.Value == nil || *ex.Value != "1250.5" {
		t.Errorf("expected rendered numeric value, got %v", ex.Value)
	}
}

func TestCancelJob(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/jobs/j1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	if err := c.CancelJob(context.Background(), "j1"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestTimeoutSurfacesAsTypedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, 20*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("building client: %v", err)
	}

	_, err = c.GetJob(context.Background(), "j1")
	if !errors.Is(err, common.ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
	if !common.Transient(err) {
		t.Error("timeouts must be classified transient for the poll loop")
	}
}
