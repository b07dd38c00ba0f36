package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/brandgest/internal/questionnaire"
	"github.com/dgallion1/brandgest/internal/strategy"
)

// JobStatus represents the state of a strategy job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusParsing    JobStatus = "parsing"
	StatusExtracting JobStatus = "extracting"
	StatusAnswering  JobStatus = "answering"
	StatusGenerating JobStatus = "generating"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// JobSource says where a job's questionnaire came from.
type JobSource string

const (
	SourceDocument JobSource = "document"
	SourceForm     JobSource = "form"
)

// Job tracks the state of a single strategy run.
type Job struct {
	mu sync.Mutex

	ID     string    `json:"job_id"`
	Source JobSource `json:"source"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename,omitempty"`

	Progress Progress `json:"progress"`

	ArchiveKey string    `json:"archive_key,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Internal: not serialized.
	brief    strategy.Brief
	fileData []byte
	records  []questionnaire.Record
	result   *strategy.Result
	errors   []string
}

// Progress tracks processing progress.
type Progress struct {
	TotalQuestions    int      `json:"total_questions"`
	QuestionsAnswered int      `json:"questions_answered"`
	Errors            []string `json:"errors"`
}

func newJob(source JobSource, brief strategy.Brief) *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.NewString(),
		Source:    source,
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
		brief:     brief.Normalize(),
	}
}

// NewDocumentJob creates a job that parses an uploaded questionnaire file.
func NewDocumentJob(brief strategy.Brief, filename string, data []byte) *Job {
	job := newJob(SourceDocument, brief)
	job.Filename = filename
	job.fileData = data
	return job
}

// NewFormJob creates a job from records that were already collected.
func NewFormJob(brief strategy.Brief, records []questionnaire.Record) *Job {
	job := newJob(SourceForm, brief)
	job.records = records
	return job
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

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// Fail records err and marks the job failed in phase.
func (j *Job) Fail(phase string, err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.Status = StatusFailed
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records a non-fatal error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetRecords stores the extracted records and sizes the progress counter.
func (j *Job) SetRecords(records []questionnaire.Record) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records = records
	j.Progress.TotalQuestions = len(records)
	j.UpdatedAt = time.Now()
}

// Records returns the job's questionnaire records.
func (j *Job) Records() []questionnaire.Record {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.records
}

// IncrAnswered counts one answered question. Once every question is answered
// the job moves on to strategy generation.
func (j *Job) IncrAnswered() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.QuestionsAnswered++
	if j.Status == StatusAnswering && j.Progress.QuestionsAnswered >= j.Progress.TotalQuestions {
		j.Status = StatusGenerating
		j.Phase = "generating"
	}
	j.UpdatedAt = time.Now()
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// Brief returns the normalized brand brief.
func (j *Job) Brief() strategy.Brief {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.brief
}

// Complete stores the result, drops the upload and marks the job completed.
func (j *Job) Complete(result *strategy.Result, archiveKey string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = result
	j.ArchiveKey = archiveKey
	j.fileData = nil
	j.Status = StatusCompleted
	j.Phase = "done"
	j.UpdatedAt = time.Now()
}

// Result returns the strategy result, nil until the job completes.
func (j *Job) Result() *strategy.Result {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID         string           `json:"job_id"`
	Source     JobSource        `json:"source"`
	BrandName  string           `json:"brand_name"`
	Industry   string           `json:"industry"`
	Status     JobStatus        `json:"status"`
	Phase      string           `json:"phase"`
	Filename   string           `json:"filename,omitempty"`
	Progress   Progress         `json:"progress"`
	ArchiveKey string           `json:"archive_key,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
	Result     *strategy.Result `json:"result,omitempty"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := make([]string, len(j.errors))
	copy(errs, j.errors)
	return JobSnapshot{
		ID:        j.ID,
		Source:    j.Source,
		BrandName: j.brief.BrandName,
		Industry:  j.brief.Industry,
		Status:    j.Status,
		Phase:     j.Phase,
		Filename:  j.Filename,
		Progress: Progress{
			TotalQuestions:    j.Progress.TotalQuestions,
			QuestionsAnswered: j.Progress.QuestionsAnswered,
			Errors:            errs,
		},
		ArchiveKey: j.ArchiveKey,
		CreatedAt:  j.CreatedAt,
		UpdatedAt:  j.UpdatedAt,
		Result:     j.result,
	}
}
