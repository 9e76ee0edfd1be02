package operations

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"sharkclean/internal/errors"
	"sharkclean/internal/infrastructure"
	"sharkclean/pkg/contracts/domain"
	"sharkclean/pkg/contracts/events"
)

var (
	// ErrQueueFull is returned by Enqueue when every buffer slot is taken
	ErrQueueFull = errors.New(http.StatusServiceUnavailable, errors.CodeQueueFull, "Cleaning job queue is full")
	// ErrQueueStopped is returned by Enqueue after Stop
	ErrQueueStopped = errors.New(http.StatusServiceUnavailable, errors.CodeQueueStopped, "Cleaning job queue is shutting down")
)

// StepUpdate reports a state change of one named step of a running job
type StepUpdate struct {
	Step     string
	Status   string
	Message  string
	Metadata map[string]interface{}
}

// Reporter receives step updates from a Runner
type Reporter func(StepUpdate)

// JobResult is what a finished run produced
type JobResult struct {
	Outputs []string
	Report  *domain.CleaningReport
}

// Runner executes the work behind a job
type Runner interface {
	// JobSteps lists the step names a run reports, in order
	JobSteps(job *Job) []string
	Run(ctx context.Context, job *Job, report Reporter) (*JobResult, error)
}

// QueueOption configures a JobQueue
type QueueOption func(*JobQueue)

// WithBroadcaster publishes job snapshots through sb
func WithBroadcaster(sb *StatusBroadcaster) QueueOption {
	return func(q *JobQueue) { q.broadcaster = sb }
}

// WithMetrics records job counters and durations
func WithMetrics(m *infrastructure.BusinessMetrics) QueueOption {
	return func(q *JobQueue) { q.metrics = m }
}

// WithTracer wraps each run in a span
func WithTracer(t *JobTracer) QueueOption {
	return func(q *JobQueue) { q.tracer = t }
}

// JobQueue runs cleaning jobs on a fixed pool of workers
type JobQueue struct {
	mu          sync.Mutex
	jobs        chan string
	workers     int
	wg          sync.WaitGroup
	store       JobStore
	runner      Runner
	broadcaster *StatusBroadcaster
	metrics     *infrastructure.BusinessMetrics
	tracer      *JobTracer
	logger      *slog.Logger
	shutdown    chan struct{}
	stopped     bool
	cancels     map[string]context.CancelFunc
}

// NewJobQueue creates a queue with the given number of workers and buffer
// size.
func NewJobQueue(workers, size int, store JobStore, runner Runner, logger *slog.Logger, opts ...QueueOption) *JobQueue {
	if workers <= 0 {
		workers = 2
	}
	if size <= 0 {
		size = workers * 2
	}
	if logger == nil {
		logger = slog.Default()
	}

	q := &JobQueue{
		jobs:     make(chan string, size),
		workers:  workers,
		store:    store,
		runner:   runner,
		logger:   logger.With(slog.String("component", "jobqueue")),
		shutdown: make(chan struct{}),
		cancels:  make(map[string]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Start launches the workers. They run until ctx is done or Stop is called.
func (q *JobQueue) Start(ctx context.Context) {
	q.logger.Info("starting job queue",
		slog.Int("workers", q.workers),
		slog.Int("capacity", cap(q.jobs)))

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, i)
	}
}

// Stop stops accepting jobs and waits for running ones. Jobs still running
// when the timeout expires are cancelled.
func (q *JobQueue) Stop(timeout time.Duration) error {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return nil
	}
	q.stopped = true
	close(q.shutdown)
	q.mu.Unlock()

	q.logger.Info("stopping job queue")

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.logger.Info("job queue stopped gracefully")
		return nil
	case <-time.After(timeout):
		q.mu.Lock()
		for _, cancel := range q.cancels {
			cancel()
		}
		q.mu.Unlock()
		<-done
		q.logger.Warn("job queue stop timeout exceeded, running jobs cancelled")
		return fmt.Errorf("timeout waiting for workers to finish")
	}
}

// Enqueue stores a new job and hands it to the workers. ID, status and
// creation time are assigned here.
func (q *JobQueue) Enqueue(ctx context.Context, job *Job) (*Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.stopped {
		return nil, ErrQueueStopped
	}

	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.Source == "" {
		job.Source = SourceAPI
	}
	job.Status = JobStatusPending
	job.CreatedAt = time.Now()
	job.Message = "Job queued"
	if job.TraceID == "" {
		job.TraceID = infrastructure.GetTraceID(infrastructure.EnsureTraceID(ctx))
	}

	if err := q.store.CreateJob(job); err != nil {
		return nil, err
	}

	// The snapshot must exist before a worker can start the job.
	if q.broadcaster != nil {
		q.broadcaster.CreateJob(job.ID, job.Input, q.runner.JobSteps(job))
	}

	select {
	case q.jobs <- job.ID:
	default:
		now := time.Now()
		job.Status = JobStatusFailed
		job.Error = "job queue is full"
		job.CompletedAt = &now
		if err := q.store.UpdateJob(job); err != nil {
			q.logger.Error("failed to record rejected job", slog.String("error", err.Error()))
		}
		if q.broadcaster != nil {
			q.broadcaster.FailJob(job.ID, ErrQueueFull)
		}
		q.logger.Warn("job rejected, queue full", slog.String("job_id", job.ID))
		return nil, ErrQueueFull
	}

	infrastructure.RecordJobSubmitted(ctx, q.metrics, string(job.Source))

	q.logger.InfoContext(ctx, "job enqueued",
		slog.String("job_id", job.ID),
		slog.String("input", job.Input),
		slog.String("source", string(job.Source)))

	return job.Clone(), nil
}

// GetJob retrieves a job by ID
func (q *JobQueue) GetJob(id string) (*Job, error) {
	return q.store.GetJob(id)
}

// ListJobs returns jobs matching the filter
func (q *JobQueue) ListJobs(filter JobFilter) ([]*Job, error) {
	return q.store.ListJobs(filter)
}

// CancelJob cancels a pending or running job. Pending jobs are marked
// cancelled immediately; running jobs stop at the next step boundary.
func (q *JobQueue) CancelJob(id string) (*Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, err := q.store.GetJob(id)
	if err != nil {
		return nil, err
	}
	if job.Status.IsTerminal() {
		return nil, errors.NewConflictError(fmt.Sprintf("job cannot be cancelled (status: %s)", job.Status)).
			WithContext("job_id", id)
	}

	if cancel, running := q.cancels[id]; running {
		cancel()
		job.Message = "Cancellation requested"
	} else {
		now := time.Now()
		job.Status = JobStatusCancelled
		job.Message = "Job cancelled"
		job.CompletedAt = &now
		if q.broadcaster != nil {
			q.broadcaster.CancelJob(id)
		}
	}

	if err := q.store.UpdateJob(job); err != nil {
		return nil, err
	}
	q.logger.Info("job cancellation", slog.String("job_id", id), slog.String("status", string(job.Status)))
	return job, nil
}

// DeleteJob removes a finished job
func (q *JobQueue) DeleteJob(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, err := q.store.GetJob(id)
	if err != nil {
		return err
	}
	if !job.Status.IsTerminal() {
		return errors.NewConflictError("only finished jobs can be deleted").WithContext("job_id", id)
	}
	if err := q.store.DeleteJob(id); err != nil {
		return err
	}
	if q.broadcaster != nil {
		q.broadcaster.Forget(id)
	}
	return nil
}

// Prune drops finished jobs older than maxAge from the store and the
// broadcaster.
func (q *JobQueue) Prune(maxAge time.Duration) int {
	removed := q.store.PruneJobs(time.Now().Add(-maxAge))
	if q.broadcaster != nil {
		q.broadcaster.Cleanup(maxAge)
	}
	if removed > 0 {
		q.logger.Info("pruned finished jobs", slog.Int("removed", removed))
	}
	return removed
}

// worker processes jobs from the queue
func (q *JobQueue) worker(ctx context.Context, workerID int) {
	defer q.wg.Done()

	logger := q.logger.With(slog.Int("worker_id", workerID))
	logger.Debug("worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Debug("worker stopped by context")
			return
		case <-q.shutdown:
			logger.Debug("worker stopped by shutdown")
			return
		case id := <-q.jobs:
			q.processJob(ctx, id, logger)
		}
	}
}

// begin moves a pending job to running and registers its cancel func. It
// returns nil when the job was cancelled while queued.
func (q *JobQueue) begin(ctx context.Context, id string) (*Job, context.Context, context.CancelFunc, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, err := q.store.GetJob(id)
	if err != nil {
		return nil, nil, nil, err
	}
	if job.Status != JobStatusPending {
		return nil, nil, nil, nil
	}

	now := time.Now()
	job.Status = JobStatusRunning
	job.StartedAt = &now
	job.Progress = 0
	job.Message = "Job started"
	if err := q.store.UpdateJob(job); err != nil {
		return nil, nil, nil, err
	}

	jobCtx, cancel := context.WithCancel(ctx)
	q.cancels[id] = cancel
	return job, jobCtx, cancel, nil
}

// processJob executes a single job
func (q *JobQueue) processJob(ctx context.Context, id string, logger *slog.Logger) {
	job, jobCtx, cancel, err := q.begin(ctx, id)
	if err != nil {
		logger.Error("failed to start job", slog.String("job_id", id), slog.String("error", err.Error()))
		return
	}
	if job == nil {
		logger.Debug("skipping job no longer pending", slog.String("job_id", id))
		return
	}
	defer cancel()

	jobCtx = infrastructure.WithJobID(jobCtx, job.ID)
	if job.TraceID != "" {
		jobCtx = context.WithValue(jobCtx, middleware.RequestIDKey, job.TraceID)
		jobCtx = infrastructure.WithTraceID(jobCtx, job.TraceID)
	}
	var end func(error)
	if q.tracer != nil {
		jobCtx, end = q.tracer.StartJob(jobCtx, job)
	}

	logger = logger.With(slog.String("job_id", job.ID), slog.String("input", job.Input))
	logger.InfoContext(jobCtx, "processing job started")

	if q.broadcaster != nil {
		q.broadcaster.StartJob(job.ID)
	}
	infrastructure.RecordJobStarted(jobCtx, q.metrics)
	start := time.Now()

	var (
		result *JobResult
		runErr error
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("job processing panicked", slog.Any("panic", r))
				runErr = fmt.Errorf("job processing panicked: %v", r)
			}
		}()
		tracker := NewProgressTracker(len(q.runner.JobSteps(job)))
		result, runErr = q.runner.Run(jobCtx, job, q.reporter(jobCtx, job.ID, tracker))
	}()

	if end != nil {
		end(runErr)
	}
	q.finish(jobCtx, job.ID, result, runErr, start, logger)
}

// reporter turns step updates into job progress and broadcaster updates
func (q *JobQueue) reporter(ctx context.Context, id string, tracker *ProgressTracker) Reporter {
	return func(u StepUpdate) {
		if q.tracer != nil {
			q.tracer.StepEvent(ctx, u)
		}
		if q.broadcaster != nil {
			q.broadcaster.UpdateStep(id, u.Step, u.Status, u.Message, u.Metadata)
		}

		switch u.Status {
		case events.StatusCompleted, events.StatusSkipped, events.StatusFailed:
			tracker.Advance()
		default:
			return
		}

		eta := tracker.ETA()
		if q.broadcaster != nil {
			q.broadcaster.SetETA(id, eta)
		}

		q.mu.Lock()
		defer q.mu.Unlock()
		job, err := q.store.GetJob(id)
		if err != nil {
			return
		}
		job.Progress = tracker.Percent()
		job.Message = fmt.Sprintf("Finished %s", u.Step)
		if err := q.store.UpdateJob(job); err != nil {
			q.logger.Warn("failed to record job progress", slog.String("job_id", id), slog.String("error", err.Error()))
		}
	}
}

// finish records the terminal state of a run
func (q *JobQueue) finish(ctx context.Context, id string, result *JobResult, runErr error, start time.Time, logger *slog.Logger) {
	q.mu.Lock()
	delete(q.cancels, id)
	job, err := q.store.GetJob(id)
	if err != nil {
		q.mu.Unlock()
		logger.Error("job vanished before completion", slog.String("error", err.Error()))
		return
	}

	now := time.Now()
	job.CompletedAt = &now
	if result != nil {
		job.Outputs = result.Outputs
		job.Report = result.Report
	}

	switch {
	case runErr == nil:
		job.Status = JobStatusCompleted
		job.Progress = 100
		job.Message = "Job completed successfully"
	case stderrors.Is(runErr, context.Canceled):
		job.Status = JobStatusCancelled
		job.Message = "Job cancelled"
	default:
		job.Status = JobStatusFailed
		job.Error = runErr.Error()
		job.Message = "Job failed"
	}

	if err := q.store.UpdateJob(job); err != nil {
		logger.Error("failed to update job completion", slog.String("error", err.Error()))
	}
	q.mu.Unlock()

	infrastructure.RecordJobFinished(ctx, q.metrics, string(job.Status), time.Since(start))

	if q.broadcaster != nil {
		switch job.Status {
		case JobStatusCompleted:
			q.broadcaster.CompleteJob(id, job.Message)
		case JobStatusCancelled:
			q.broadcaster.CancelJob(id)
		default:
			q.broadcaster.FailJob(id, runErr)
		}
	}

	if job.Status == JobStatusFailed {
		logger.Error("job failed", slog.String("error", job.Error))
		return
	}
	logger.Info("processing job finished",
		slog.String("status", string(job.Status)),
		slog.Duration("duration", time.Since(start)))
}

// GetQueueStats returns queue statistics
func (q *JobQueue) GetQueueStats() map[string]int {
	q.mu.Lock()
	active := len(q.cancels)
	q.mu.Unlock()

	return map[string]int{
		"workers":     q.workers,
		"queued":      len(q.jobs),
		"capacity":    cap(q.jobs),
		"active_jobs": active,
	}
}
