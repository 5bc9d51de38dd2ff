// Package jobs owns the processing-job lifecycle: creation, status
// polling to a terminal state, and cooperative cancellation.
package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/docsift/docsift/internal/common"
	"github.com/docsift/docsift/internal/entity"
)

// JobFetcher re-fetches a job's current state from the service.
type JobFetcher interface {
	GetJob(ctx context.Context, jobID string) (*entity.ProcessingJob, error)
}

// Poller drives the fixed-interval status polling for a single job.
// It stops itself on the first terminal status or definitive error;
// Stop is safe to call at any time and guards against orphaned tickers
// when the caller abandons interest early.
type Poller struct {
	fetch    JobFetcher
	interval time.Duration
	log      *slog.Logger

	mu       sync.Mutex
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce *sync.Once
	running  bool
}

// NewPoller builds a poller. Interval defaults to 2s when zero.
func NewPoller(fetch JobFetcher, interval time.Duration, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Poller{fetch: fetch, interval: interval, log: logger}
}

// Start begins polling jobID. onUpdate fires for every successful fetch,
// including the final terminal one; onError fires at most once, for a
// definitive failure that ends polling. Transient transport errors are
// absorbed until the next tick. Starting an already-running poller is an
// invalid request.
func (p *Poller) Start(ctx context.Context, jobID string, onUpdate func(*entity.ProcessingJob), onError func(error)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return common.InvalidRequestf("poller already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.stopOnce = &sync.Once{}
	go p.loop(ctx, jobID, onUpdate, onError, p.stopCh, p.doneCh)
	return nil
}

// Stop ends polling and waits for the loop to exit. Idempotent.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	stopCh, doneCh, once := p.stopCh, p.doneCh, p.stopOnce
	p.mu.Unlock()

	once.Do(func() { close(stopCh) })
	<-doneCh
}

// Running reports whether the poll loop is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Poller) loop(ctx context.Context, jobID string, onUpdate func(*entity.ProcessingJob), onError func(error), stopCh chan struct{}, doneCh chan struct{}) {
	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
		close(doneCh)
	}()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// First poll immediately; subsequent polls on the tick.
	for {
		job, err := p.fetch.GetJob(ctx, jobID)
		switch {
		case err == nil:
			if onUpdate != nil {
				onUpdate(job)
			}
			if job.Status.Terminal() {
				p.log.Info("poll.terminal", "job_id", jobID, "status", string(job.Status))
				return
			}
		case common.Transient(err):
			// Absorbed: the next scheduled tick is the retry.
			p.log.Warn("poll.transient_error", "job_id", jobID, "error", err)
		default:
			p.log.Error("poll.failed", "job_id", jobID, "error", err)
			if onError != nil {
				onError(err)
			}
			return
		}

		select {
		case <-ticker.C:
		case <-stopCh:
			p.log.Debug("poll.stopped", "job_id", jobID)
			return
		case <-ctx.Done():
			p.log.Debug("poll.context_done", "job_id", jobID)
			return
		}
	}
}
