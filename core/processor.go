package core

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Skryldev/image-transform/config"
	apperrors "github.com/Skryldev/image-transform/errors"
)

// Processor is the job dispatcher.  It owns a fixed worker pool fed by a
// bounded queue and is safe for concurrent use.
type Processor struct {
	cfg     config.Config
	runner  Runner
	logger  Logger
	metrics MetricsCollector

	// Worker pool.
	mu       sync.RWMutex // guards closed and sends on jobQueue
	closed   bool
	jobQueue chan *job
	wg       sync.WaitGroup
	start    sync.Once
	stop     sync.Once

	// Atomic counters for lightweight internal metrics.
	processedCount int64
	errorCount     int64
}

type job struct {
	state     *JobState
	handle    *Handle
	submitted time.Time
}

// New creates a Processor that runs every job through runner.  Call Start()
// before or after submitting; call Stop() when done.
func New(cfg config.Config, runner Runner) *Processor {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Processor{
		cfg:      cfg,
		runner:   runner,
		logger:   nopLogger{},
		jobQueue: make(chan *job, queueSize),
	}
}

// SetLogger attaches a structured logger.
func (p *Processor) SetLogger(l Logger) {
	if l == nil {
		l = nopLogger{}
	}
	p.logger = l
}

// SetMetrics attaches a metrics collector.
func (p *Processor) SetMetrics(m MetricsCollector) { p.metrics = m }

// Start launches the worker pool.  It is idempotent.
func (p *Processor) Start() {
	p.start.Do(func() {
		workerCount := p.cfg.WorkerCount
		if workerCount <= 0 {
			workerCount = runtime.NumCPU()
		}
		for i := 0; i < workerCount; i++ {
			p.wg.Add(1)
			go p.worker()
		}
		p.logger.Debug("processor.start", "workers", workerCount, "queue", cap(p.jobQueue))
	})
}

// Stop rejects new submissions, runs every queued job to completion and
// waits for the workers to exit.  It is idempotent.
func (p *Processor) Stop() {
	p.stop.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.jobQueue)
		p.mu.Unlock()

		// Queued jobs still need workers to drain them.
		p.Start()
		p.wg.Wait()
		p.logger.Debug("processor.stop",
			"processed", p.ProcessedCount(), "errors", p.ErrorCount())
	})
}

// Submit enqueues req and returns immediately.  A request that cannot be
// queued (queue full, processor stopped) completes at once as a failure, so
// every request yields exactly one result.
func (p *Processor) Submit(req TransformRequest) *Handle {
	return p.submit(req, nil)
}

// SubmitFunc is Submit with a completion callback, invoked exactly once from
// the goroutine that finishes the job.
func (p *Processor) SubmitFunc(req TransformRequest, fn func(TransformResult)) *Handle {
	return p.submit(req, fn)
}

func (p *Processor) submit(req TransformRequest, fn func(TransformResult)) *Handle {
	id := uuid.NewString()
	h := newHandle(id, fn)
	j := &job{
		state:     &JobState{ID: id, Request: req, Stage: StageSubmitted},
		handle:    h,
		submitted: time.Now(),
	}

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		p.reject(j, apperrors.New(apperrors.KindPipeline, "submit", apperrors.ErrProcessorStopped))
		return h
	}
	select {
	case p.jobQueue <- j:
		p.mu.RUnlock()
	default:
		p.mu.RUnlock()
		p.reject(j, apperrors.New(apperrors.KindOverloaded, "submit", apperrors.ErrQueueFull))
	}
	return h
}

// Transform submits req and waits for its result.  ctx bounds the wait only.
func (p *Processor) Transform(ctx context.Context, req TransformRequest) (TransformResult, error) {
	res, err := p.Submit(req).Wait(ctx)
	if err != nil {
		return res, err
	}
	return res, res.Err
}

// Batch submits every request and returns results in request order.
// Requests still running when ctx ends report ctx's error.
func (p *Processor) Batch(ctx context.Context, reqs []TransformRequest) []TransformResult {
	handles := make([]*Handle, len(reqs))
	for i, r := range reqs {
		handles[i] = p.Submit(r)
	}
	results := make([]TransformResult, len(reqs))
	for i, h := range handles {
		res, err := h.Wait(ctx)
		if err != nil {
			res.Err = apperrors.Wrap(apperrors.KindPipeline, "batch.wait", err)
		}
		results[i] = res
	}
	return results
}

// ── worker pool internals ──────────────────────────────────────────────────────

func (p *Processor) worker() {
	defer p.wg.Done()
	for j := range p.jobQueue {
		p.processJob(j)
	}
}

func (p *Processor) processJob(j *job) {
	p.logger.Debug("job.start", "job", j.state.ID, "input", j.state.Request.Input)

	final, err := p.run(j.state)
	res := TransformResult{Duration: time.Since(j.submitted)}
	if err != nil {
		res.Err = err
		atomic.AddInt64(&p.errorCount, 1)
		p.logger.Warn("job.failed",
			"job", j.state.ID,
			"input", j.state.Request.Input,
			"kind", string(apperrors.KindOf(err)),
			"error", err.Error(),
		)
	} else {
		res.OK = true
		res.Width = final.Buffer.Width()
		res.Height = final.Buffer.Height()
		res.Format = final.Output.Format
		atomic.AddInt64(&p.processedCount, 1)
		p.logger.Debug("job.done",
			"job", j.state.ID,
			"output", j.state.Request.Output,
			"width", res.Width,
			"height", res.Height,
			"duration_ms", res.Duration.Milliseconds(),
		)
	}
	p.finish(j, res)
}

// run executes the stage sequence; a panicking stage fails the job instead of
// the worker.  There is no per-job cancellation, hence the background context.
func (p *Processor) run(st *JobState) (final *JobState, err error) {
	defer func() {
		if r := recover(); r != nil {
			final = nil
			err = apperrors.New(apperrors.KindPipeline, "run", fmt.Errorf("panic: %v", r))
		}
	}()
	return p.runner.Run(context.Background(), st)
}

func (p *Processor) reject(j *job, err error) {
	atomic.AddInt64(&p.errorCount, 1)
	p.logger.Warn("job.rejected", "job", j.state.ID, "error", err.Error())
	p.finish(j, TransformResult{Err: err, Duration: time.Since(j.submitted)})
}

// finish records res and publishes it.  Metrics come first so observers of
// the handle see them already counted.
func (p *Processor) finish(j *job, res TransformResult) {
	res.JobID = j.state.ID
	if p.metrics != nil {
		p.metrics.RecordJob(res)
	}
	if !j.handle.complete(res) {
		p.logger.Error("job.duplicate_completion", "job", j.state.ID)
	}
}

// Stats is a point-in-time view of the dispatcher's counters.
type Stats struct {
	Processed int64 // completed successfully
	Failed    int64 // failed or rejected
	Queued    int   // waiting for a worker
}

// Stats returns the current counters.
func (p *Processor) Stats() Stats {
	return Stats{
		Processed: p.ProcessedCount(),
		Failed:    p.ErrorCount(),
		Queued:    len(p.jobQueue),
	}
}

// ProcessedCount returns the total number of successfully completed jobs.
func (p *Processor) ProcessedCount() int64 { return atomic.LoadInt64(&p.processedCount) }

// ErrorCount returns the total number of failed or rejected jobs.
func (p *Processor) ErrorCount() int64 { return atomic.LoadInt64(&p.errorCount) }
