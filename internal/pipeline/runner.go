package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"

	"github.com/dgallion1/sectionrank/internal/collection"
	"github.com/dgallion1/sectionrank/internal/rank"
)

// CollectionObserver is optionally implemented by an Observer to hear about
// collections that could not be processed at all.
type CollectionObserver interface {
	CollectionSkipped(name string, err error)
}

// Summary tallies one batch run.
type Summary struct {
	Collections        int
	CollectionsSkipped int
	Documents          int
	Failed             int
	Outputs            []string
}

func (s *Summary) add(o Summary) {
	s.Collections += o.Collections
	s.CollectionsSkipped += o.CollectionsSkipped
	s.Documents += o.Documents
	s.Failed += o.Failed
	s.Outputs = append(s.Outputs, o.Outputs...)
}

// Runner drives batch runs over collection directories.
type Runner struct {
	orch     *Orchestrator
	layout   collection.Layout
	observer Observer
	log      *slog.Logger
}

func NewRunner(orch *Orchestrator, layout collection.Layout, observer Observer, log *slog.Logger) *Runner {
	if observer == nil {
		observer = NopObserver{}
	}
	return &Runner{orch: orch, layout: layout, observer: observer, log: log}
}

// RunRoot processes every collection under root. Collection and document
// failures are counted in the summary; only a failed scan or a cancelled
// context is returned as an error.
func (r *Runner) RunRoot(ctx context.Context, root string) (Summary, error) {
	dirs, err := collection.Scan(root, r.layout)
	if err != nil {
		return Summary{}, err
	}
	if len(dirs) == 0 {
		r.log.Warn("no collections found", "root", root, "pattern", r.layout.Pattern)
	}

	var sum Summary
	var jobs []*Job
	for _, dir := range dirs {
		js, ok := r.submitCollection(ctx, dir)
		if !ok {
			sum.CollectionsSkipped++
			continue
		}
		sum.Collections++
		jobs = append(jobs, js...)
	}
	if err := ctx.Err(); err != nil {
		return sum, err
	}

	sum.add(r.collect(ctx, jobs))
	return sum, ctx.Err()
}

// RunCollection processes a single collection directory.
func (r *Runner) RunCollection(ctx context.Context, dir string) (Summary, error) {
	var sum Summary
	jobs, ok := r.submitCollection(ctx, dir)
	if !ok {
		sum.CollectionsSkipped = 1
		return sum, ctx.Err()
	}
	sum.Collections = 1
	sum.add(r.collect(ctx, jobs))
	return sum, ctx.Err()
}

// submitCollection loads the collection, embeds its query once and queues
// one job per document.
func (r *Runner) submitCollection(ctx context.Context, dir string) ([]*Job, bool) {
	name := filepath.Base(dir)
	log := r.log.With("collection", name)

	c, err := collection.Load(dir, r.layout)
	if err != nil {
		r.skip(log, name, err)
		return nil, false
	}

	q := c.Query()
	queryVec, err := rank.EmbedQuery(ctx, r.orch.Embedder(), q)
	if err != nil {
		r.skip(log, name, err)
		return nil, false
	}
	log.Info("collection loaded", "documents", len(c.Documents), "persona", q.Persona)

	jobs := make([]*Job, 0, len(c.Documents))
	for _, path := range c.Documents {
		job := NewJob(c.Name, filepath.Base(path), q, queryVec)
		job.SetPath(path)
		if err := r.orch.Enqueue(ctx, job); err != nil {
			log.Error("enqueue failed", "document", job.Document, "error", err)
			job.AddError(err.Error())
			r.observer.DocumentFailed(job, err)
		}
		jobs = append(jobs, job)
	}
	return jobs, true
}

func (r *Runner) skip(log *slog.Logger, name string, err error) {
	var missing *collection.MissingInputError
	var invalid *collection.InvalidInputError
	switch {
	case errors.As(err, &missing):
		log.Warn("collection skipped: missing input", "path", missing.Path)
	case errors.As(err, &invalid):
		log.Warn("collection skipped: invalid input", "path", invalid.Path, "reasons", invalid.Reasons)
	default:
		log.Error("collection skipped", "error", err)
	}
	if co, ok := r.observer.(CollectionObserver); ok {
		co.CollectionSkipped(name, err)
	}
}

func (r *Runner) collect(ctx context.Context, jobs []*Job) Summary {
	var sum Summary
	for _, job := range jobs {
		if err := job.Wait(ctx); err != nil {
			break
		}
		snap := job.Snapshot()
		sum.Documents++
		if snap.Status != StatusCompleted {
			sum.Failed++
			continue
		}
		if snap.OutputPath != "" {
			sum.Outputs = append(sum.Outputs, snap.OutputPath)
		}
	}
	return sum
}
