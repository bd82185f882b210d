package pipeline

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/sectionrank/internal/rank"
	"github.com/dgallion1/sectionrank/internal/report"
)

// JobStatus represents the state of a document ranking job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusExtracting JobStatus = "extracting"
	StatusSectioning JobStatus = "sectioning"
	StatusRanking    JobStatus = "ranking"
	StatusWriting    JobStatus = "writing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Terminal reports whether no further transitions follow.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job tracks one (collection, document) ranking task.
type Job struct {
	mu sync.Mutex

	ID         string `json:"job_id"`
	Collection string `json:"collection"`
	Document   string `json:"document"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	path       string
	query      rank.Query
	queryVec   []float32
	fileData   []byte
	report     *report.Report
	outputPath string
	errors     []string
	done       chan struct{}
	closeOnce  sync.Once
}

// Progress tracks processing progress.
type Progress struct {
	Runs     int      `json:"runs"`
	Sections int      `json:"sections"`
	Ranked   int      `json:"ranked"`
	Errors   []string `json:"errors"`
}

// NewJob creates a queued job. queryVec is shared with every other job of
// the same collection and must not be modified.
func NewJob(collection, document string, q rank.Query, queryVec []float32) *Job {
	now := time.Now()
	return &Job{
		ID:         generateULID(),
		Collection: collection,
		Document:   document,
		Status:     StatusQueued,
		Phase:      "queued",
		CreatedAt:  now,
		UpdatedAt:  now,
		query:      q,
		queryVec:   queryVec,
		done:       make(chan struct{}),
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes finished jobs that have not changed within the TTL.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		expired := job.Status.Terminal() && now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if expired {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically. Terminal states release waiters.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
	j.mu.Unlock()

	if status.Terminal() && j.done != nil {
		j.closeOnce.Do(func() { close(j.done) })
	}
}

// Wait blocks until the job reaches a terminal state or ctx is done.
func (j *Job) Wait(ctx context.Context) error {
	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetCounts records how many runs, sections and ranked sections were produced.
func (j *Job) SetCounts(runs, sections, ranked int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Runs = runs
	j.Progress.Sections = sections
	j.Progress.Ranked = ranked
	j.UpdatedAt = time.Now()
}

// SetFileData sets uploaded document bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the uploaded document bytes, if any.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// SetPath points the job at a document on disk.
func (j *Job) SetPath(path string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.path = path
}

// Path returns the on-disk document path, if any.
func (j *Job) Path() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.path
}

// Query returns the persona/task the job is ranked against.
func (j *Job) Query() rank.Query {
	return j.query
}

func (j *Job) setResult(rep *report.Report, outputPath string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.report = rep
	j.outputPath = outputPath
	j.UpdatedAt = time.Now()
}

// Report returns the assembled report once ranking has finished.
func (j *Job) Report() *report.Report {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.report
}

// OutputPath returns where the report was written, if it was.
func (j *Job) OutputPath() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.outputPath
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string    `json:"job_id"`
	Collection  string    `json:"collection"`
	Document    string    `json:"document"`
	Status      JobStatus `json:"status"`
	Phase       string    `json:"phase"`
	ContentHash string    `json:"content_hash,omitempty"`
	OutputPath  string    `json:"output_path,omitempty"`
	Progress    Progress  `json:"progress"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	return JobSnapshot{
		ID:          j.ID,
		Collection:  j.Collection,
		Document:    j.Document,
		Status:      j.Status,
		Phase:       j.Phase,
		ContentHash: j.ContentHash,
		OutputPath:  j.outputPath,
		Progress: Progress{
			Runs:     j.Progress.Runs,
			Sections: j.Progress.Sections,
			Ranked:   j.Progress.Ranked,
			Errors:   append([]string{}, errs...),
		},
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
