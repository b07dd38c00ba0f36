package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/dgallion1/brandgest/internal/document"
	"github.com/dgallion1/brandgest/internal/questionnaire"
)

// ErrQueueFull is returned by Submit when no queue slot is free.
var ErrQueueFull = eris.New("job queue is full")

// ErrShuttingDown is recorded on jobs that never started before Stop.
var ErrShuttingDown = eris.New("service shut down before the job started")

// Options sizes the worker pool.
type Options struct {
	WorkerCount     int
	MaxQueueSize    int
	JobTTL          time.Duration
	CleanupInterval time.Duration
	Parser          document.Options
}

// Orchestrator manages the strategy job pipeline.
type Orchestrator struct {
	jobs    *JobStore
	queue   chan *Job
	catalog *questionnaire.Catalog
	gen     Generator
	archive Archiver
	log     *zap.Logger
	opts    Options

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. archive may be nil.
func NewOrchestrator(opts Options, catalog *questionnaire.Catalog, gen Generator, archive Archiver, log *zap.Logger) *Orchestrator {
	if opts.WorkerCount <= 0 {
		opts.WorkerCount = 1
	}
	if opts.MaxQueueSize <= 0 {
		opts.MaxQueueSize = 1
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = 5 * time.Minute
	}
	return &Orchestrator{
		jobs:    NewJobStore(opts.JobTTL),
		queue:   make(chan *Job, opts.MaxQueueSize),
		catalog: catalog,
		gen:     gen,
		archive: archive,
		log:     log,
		opts:    opts,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.opts.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.catalog, o.gen, o.archive, o.opts.Parser, o.log)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					if workerCtx.Err() != nil {
						job.Fail("shutdown", ErrShuttingDown.Error())
						continue
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
		ticker := time.NewTicker(o.opts.CleanupInterval)
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

// Stop gracefully shuts down the pipeline. Jobs still waiting in the queue
// are marked failed. Submit must not be called after Stop.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()

	for job := range o.queue {
		job.Fail("shutdown", ErrShuttingDown.Error())
		o.log.Warn("job dropped at shutdown", zap.String("job_id", job.ID))
	}
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.Fail("queue_full", ErrQueueFull.Error())
		return eris.Wrapf(ErrQueueFull, "capacity %d", o.opts.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Catalog returns the questionnaire catalog the workers extract with.
func (o *Orchestrator) Catalog() *questionnaire.Catalog {
	return o.catalog
}

// ArchiveEnabled reports whether completed strategies are archived.
func (o *Orchestrator) ArchiveEnabled() bool {
	return o.archive != nil
}
