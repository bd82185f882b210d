package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgallion1/sectionrank/internal/parser"
	"github.com/dgallion1/sectionrank/internal/rank"
	"github.com/dgallion1/sectionrank/internal/report"
	"github.com/dgallion1/sectionrank/internal/sections"
)

// Sink persists a finished report and returns where it went.
type Sink interface {
	Write(rep *report.Report) (string, error)
}

// Observer receives per-document progress. Implementations must be safe for
// concurrent use; workers call them from their own goroutines.
type Observer interface {
	DocumentStarted(job *Job)
	DocumentWritten(job *Job, path string)
	DocumentFailed(job *Job, err error)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) DocumentStarted(*Job)         {}
func (NopObserver) DocumentWritten(*Job, string) {}
func (NopObserver) DocumentFailed(*Job, error)   {}

// Worker processes a single document job.
type Worker struct {
	ranker    *rank.Ranker
	assembler report.Assembler
	parseOpts parser.Options
	sink      Sink
	observer  Observer
	log       *slog.Logger
}

func NewWorker(ranker *rank.Ranker, assembler report.Assembler, parseOpts parser.Options, sink Sink, observer Observer, log *slog.Logger) *Worker {
	if observer == nil {
		observer = NopObserver{}
	}
	return &Worker{
		ranker:    ranker,
		assembler: assembler,
		parseOpts: parseOpts,
		sink:      sink,
		observer:  observer,
		log:       log,
	}
}

// Process runs parse, classify, build, rank, assemble and sink for a job.
// Failures are recorded on the job; they never escape the worker.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "collection", job.Collection, "document", job.Document)
	w.observer.DocumentStarted(job)

	// Phase 1: Extract text runs
	job.SetStatus(StatusExtracting, "extracting")
	data := job.FileData()
	if data == nil && job.Path() != "" {
		var err error
		data, err = os.ReadFile(job.Path())
		if err != nil {
			w.fail(log, job, "extracting", &parser.ExtractionError{File: job.Document, Err: err})
			return
		}
	}
	job.mu.Lock()
	job.ContentHash = ContentHashHex(data)
	job.mu.Unlock()

	runs, err := parser.Parse(bytes.NewReader(data), job.Document, w.parseOpts)
	if err != nil {
		w.fail(log, job, "extracting", err)
		return
	}

	// Phase 2: Classify headings and build sections
	job.SetStatus(StatusSectioning, "sectioning")
	secs := sections.FromRuns(runs)
	job.SetCounts(len(runs), len(secs), 0)
	log.Info("sectioned document", "runs", len(runs), "sections", len(secs))
	if len(secs) == 0 {
		log.Warn("no sections found")
	}

	// Phase 3: Rank against the collection query
	job.SetStatus(StatusRanking, "ranking")
	ranked, err := w.ranker.Rank(ctx, secs, job.queryVec)
	if err != nil {
		w.fail(log, job, "ranking", err)
		return
	}
	job.SetCounts(len(runs), len(secs), len(ranked))

	q := job.Query()
	rep := w.assembler.Build(report.Metadata{
		Document:    job.Document,
		Collection:  job.Collection,
		Persona:     q.Persona,
		JobToBeDone: q.Task,
	}, ranked)

	// Phase 4: Write
	job.SetStatus(StatusWriting, "writing")
	var outPath string
	if w.sink != nil {
		outPath, err = w.sink.Write(rep)
		if err != nil {
			w.fail(log, job, "writing", fmt.Errorf("write report: %w", err))
			return
		}
	}
	job.setResult(rep, outPath)
	job.SetStatus(StatusCompleted, "done")
	log.Info("document complete", "ranked", len(ranked), "output", outPath)
	w.observer.DocumentWritten(job, outPath)
}

func (w *Worker) fail(log *slog.Logger, job *Job, phase string, err error) {
	log.Error("document failed", "phase", phase, "error", err)
	job.AddError(fmt.Sprintf("%s: %s", phase, err))
	job.SetStatus(StatusFailed, phase)
	w.observer.DocumentFailed(job, err)
}
