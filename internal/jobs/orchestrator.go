package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/docsift/docsift/constants"
	"github.com/docsift/docsift/internal/common"
	"github.com/docsift/docsift/internal/entity"
)

// ServiceAPI is the slice of the remote service the orchestrator needs.
type ServiceAPI interface {
	CreateJob(ctx context.Context, projectID string, jobType constants.JobType, documentIDs []string) (*entity.ProcessingJob, error)
	GetJob(ctx context.Context, jobID string) (*entity.ProcessingJob, error)
	CancelJob(ctx context.Context, jobID string) error
}

// JobStore caches observed job snapshots. Implementations must keep
// terminal statuses monotonic: a terminal snapshot is never overwritten
// by a non-terminal one.
type JobStore interface {
	UpsertJob(ctx context.Context, job *entity.ProcessingJob) error
	GetJob(ctx context.Context, jobID string) (*entity.ProcessingJob, error)
}

// Orchestrator exclusively owns job lifecycle transitions on the client
// side: it creates jobs, runs their pollers, and cancels them. It allows
// at most one in-flight create, and one in-flight cancel per job, so a
// double-triggered action cannot duplicate work.
type Orchestrator struct {
	api      ServiceAPI
	store    JobStore
	interval time.Duration
	log      *slog.Logger

	mu       sync.Mutex
	creating bool
	inflight map[string]bool    // cancel requests in flight, by job id
	pollers  map[string]*Poller // active pollers, by job id
	last     map[string]constants.JobStatus
}

// NewOrchestrator builds an orchestrator. store may be nil when no local
// cache is wanted.
func NewOrchestrator(api ServiceAPI, store JobStore, interval time.Duration, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		api:      api,
		store:    store,
		interval: interval,
		log:      logger,
		inflight: make(map[string]bool),
		pollers:  make(map[string]*Poller),
		last:     make(map[string]constants.JobStatus),
	}
}

// Create submits a new job. The document set must be non-empty. A second
// Create while one is outstanding is rejected rather than duplicated.
func (o *Orchestrator) Create(ctx context.Context, projectID string, jobType constants.JobType, documentIDs []string) (*entity.ProcessingJob, error) {
	if len(documentIDs) == 0 {
		return nil, common.InvalidRequestf("document set is empty")
	}

	o.mu.Lock()
	if o.creating {
		o.mu.Unlock()
		return nil, common.InvalidRequestf("a job creation is already in flight")
	}
	o.creating = true
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.creating = false
		o.mu.Unlock()
	}()

	job, err := o.api.CreateJob(ctx, projectID, jobType, documentIDs)
	if err != nil {
		return nil, err
	}
	o.observe(ctx, job)
	o.log.Info("jobs.created",
		"job_id", job.ID, "project_id", projectID,
		"type", string(jobType), "documents", len(documentIDs))
	return job, nil
}

// Watch polls jobID until a terminal status or definitive error. Every
// observed snapshot is cached before onUpdate fires. Watching a job
// already known to be terminal delivers the cached snapshot once and
// starts no poller.
func (o *Orchestrator) Watch(ctx context.Context, jobID string, onUpdate func(*entity.ProcessingJob), onError func(error)) error {
	o.mu.Lock()
	if o.pollers[jobID] != nil {
		o.mu.Unlock()
		return common.InvalidRequestf("job %s is already being watched", jobID)
	}
	if st, ok := o.last[jobID]; ok && st.Terminal() {
		o.mu.Unlock()
		if onUpdate != nil && o.store != nil {
			if job, err := o.store.GetJob(ctx, jobID); err == nil {
				onUpdate(job)
			}
		}
		return nil
	}
	poller := NewPoller(o.api, o.interval, o.log)
	o.pollers[jobID] = poller
	o.mu.Unlock()

	wrapped := func(job *entity.ProcessingJob) {
		o.observe(ctx, job)
		if onUpdate != nil {
			onUpdate(job)
		}
		if job.Status.Terminal() {
			o.release(jobID)
		}
	}
	wrappedErr := func(err error) {
		o.release(jobID)
		if onError != nil {
			onError(err)
		}
	}
	if err := poller.Start(ctx, jobID, wrapped, wrappedErr); err != nil {
		o.release(jobID)
		return err
	}
	return nil
}

// StopWatching tears down the poller for jobID, if any. Must be called
// when the caller abandons interest before a terminal status, or the
// ticker leaks.
func (o *Orchestrator) StopWatching(jobID string) {
	o.mu.Lock()
	poller := o.pollers[jobID]
	o.mu.Unlock()
	if poller != nil {
		poller.Stop()
		o.release(jobID)
	}
}

// Cancel asks the service to stop a job. Cancelling a job already in a
// terminal state is a no-op; the CANCELLED status is observed by the
// poller, not returned here.
func (o *Orchestrator) Cancel(ctx context.Context, jobID string) error {
	if jobID == "" {
		return common.InvalidRequestf("job id is empty")
	}

	o.mu.Lock()
	if st, ok := o.last[jobID]; ok && st.Terminal() {
		o.mu.Unlock()
		o.log.Debug("jobs.cancel_noop", "job_id", jobID, "status", string(st))
		return nil
	}
	if o.inflight[jobID] {
		o.mu.Unlock()
		return nil
	}
	o.inflight[jobID] = true
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		delete(o.inflight, jobID)
		o.mu.Unlock()
	}()

	if err := o.api.CancelJob(ctx, jobID); err != nil {
		return err
	}
	o.log.Info("jobs.cancel_requested", "job_id", jobID)
	return nil
}

// LastStatus returns the most recently observed status for jobID.
func (o *Orchestrator) LastStatus(jobID string) (constants.JobStatus, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	st, ok := o.last[jobID]
	return st, ok
}

// observe records a snapshot, enforcing status monotonicity in memory.
// The store applies the same rule to the persisted copy.
func (o *Orchestrator) observe(ctx context.Context, job *entity.ProcessingJob) {
	o.mu.Lock()
	if prev, ok := o.last[job.ID]; ok && prev.Terminal() && !job.Status.Terminal() {
		o.mu.Unlock()
		o.log.Warn("jobs.stale_snapshot_dropped",
			"job_id", job.ID, "terminal", string(prev), "snapshot", string(job.Status))
		return
	}
	o.last[job.ID] = job.Status
	o.mu.Unlock()

	if o.store != nil {
		if err := o.store.UpsertJob(ctx, job); err != nil {
			o.log.Warn("jobs.cache_write_failed", "job_id", job.ID, "error", err)
		}
	}
}

func (o *Orchestrator) release(jobID string) {
	o.mu.Lock()
	delete(o.pollers, jobID)
	o.mu.Unlock()
}
