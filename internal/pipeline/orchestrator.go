package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/sectionrank/internal/config"
	"github.com/dgallion1/sectionrank/internal/embed"
	"github.com/dgallion1/sectionrank/internal/parser"
	"github.com/dgallion1/sectionrank/internal/rank"
	"github.com/dgallion1/sectionrank/internal/report"
)

// Orchestrator manages the document ranking worker pool.
type Orchestrator struct {
	jobs     *JobStore
	queue    chan *Job
	embedder embed.Embedder
	sink     Sink
	observer Observer
	log      *slog.Logger
	cfg      config.Config

	mu      sync.RWMutex
	stopped bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. embedder is wrapped with retry and
// the configured per-call timeout. A nil sink keeps reports in memory only.
func NewOrchestrator(cfg config.Config, embedder embed.Embedder, sink Sink, observer Observer, log *slog.Logger) *Orchestrator {
	if observer == nil {
		observer = NopObserver{}
	}
	return &Orchestrator{
		jobs:     NewJobStore(cfg.JobTTL),
		queue:    make(chan *Job, cfg.MaxQueueSize),
		embedder: NewRetryingEmbedder(embedder, cfg.EmbedTimeout, log),
		sink:     sink,
		observer: observer,
		log:      log,
		cfg:      cfg,
	}
}

// Embedder returns the retrying embedder workers use, for query embedding.
func (o *Orchestrator) Embedder() embed.Embedder {
	return o.embedder
}

func (o *Orchestrator) newWorker() *Worker {
	r := rank.New(o.embedder)
	r.TopK = o.cfg.TopK
	r.ScoreLines = o.cfg.ScoreLines
	r.RefineLines = o.cfg.RefineLines
	r.Concurrency = o.cfg.RankConcurrency
	return NewWorker(r,
		report.Assembler{RefineLines: o.cfg.RefineLines},
		parser.Options{PDFFallbackPdftotext: o.cfg.PDFFallbackPdftotext},
		o.sink, o.observer, o.log)
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := o.newWorker()
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline. Jobs still queued are marked failed.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
	for job := range o.queue {
		job.AddError("pipeline stopped")
		job.SetStatus(StatusFailed, "stopped")
	}
}

// Submit queues a new job without blocking. A full queue fails the job.
func (o *Orchestrator) Submit(job *Job) error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.stopped {
		job.SetStatus(StatusFailed, "stopped")
		return fmt.Errorf("pipeline stopped")
	}
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// Enqueue queues a job, waiting for queue space until ctx is done.
func (o *Orchestrator) Enqueue(ctx context.Context, job *Job) error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.stopped {
		job.SetStatus(StatusFailed, "stopped")
		return fmt.Errorf("pipeline stopped")
	}
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	case <-ctx.Done():
		job.SetStatus(StatusFailed, "cancelled")
		return ctx.Err()
	}
}

// Wait blocks until every job is terminal or ctx is done.
func (o *Orchestrator) Wait(ctx context.Context, jobs ...*Job) error {
	for _, j := range jobs {
		if err := j.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}
