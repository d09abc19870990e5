// Package worker implements the polling job consumer.
//
// Workers claim due jobs from the Postgres-backed queue, dispatch them to the
// pipeline registered for the job's type, and record the outcome. Claiming
// happens in its own short transaction so a crashed worker never holds locks
// for the duration of a pipeline run; the stale-claim reaper recovers jobs
// whose worker died mid-run.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"storyforge/internal/core/domain/model/job"
	"storyforge/internal/core/ports"
	"storyforge/internal/pkg/errs"
)

// Pipeline executes the work for one job type. Implementations receive the
// claimed job and return nil on success; any error fails the job through the
// queue's retry rules.
type Pipeline interface {
	Run(ctx context.Context, j *job.Job) error
}

// Config controls worker pool behavior.
type Config struct {
	// WorkerID identifies this process in job claims, e.g. "worker-1@host".
	WorkerID string

	// PollInterval is how long an idle worker sleeps between queue checks.
	PollInterval time.Duration

	// Concurrency is the number of claiming goroutines. Pipelines call an
	// external generation service with its own rate limits, so one is the
	// sensible default.
	Concurrency int

	// JobTimeout bounds a single pipeline run.
	JobTimeout time.Duration

	// ShutdownTimeout bounds how long Stop waits for in-flight jobs.
	ShutdownTimeout time.Duration
}

// Worker is a polling consumer pool over the job queue.
type Worker struct {
	cfg        Config
	uowFactory ports.UnitOfWorkFactory
	notifier   ports.Notifier
	logger     *slog.Logger

	pipelines map[job.Type]Pipeline

	wake   chan struct{}
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	started bool
}

// NewWorker creates a worker pool. Pipelines must be registered before Start.
func NewWorker(
	cfg Config,
	uowFactory ports.UnitOfWorkFactory,
	notifier ports.Notifier,
	logger *slog.Logger,
) *Worker {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}

	return &Worker{
		cfg:        cfg,
		uowFactory: uowFactory,
		notifier:   notifier,
		logger:     logger.With("component", "worker"),
		pipelines:  make(map[job.Type]Pipeline),
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
}

// Register binds a pipeline to a job type. Not safe to call after Start.
func (w *Worker) Register(jobType job.Type, pipeline Pipeline) error {
	if err := jobType.Validate(); err != nil {
		return err
	}
	if pipeline == nil {
		return errs.NewValueIsRequiredError("pipeline")
	}
	if _, exists := w.pipelines[jobType]; exists {
		return errs.NewValueIsInvalidErrorWithCause(
			"jobType is invalid",
			fmt.Errorf("pipeline for %q already registered", jobType),
		)
	}

	w.pipelines[jobType] = pipeline
	return nil
}

// Wake nudges an idle worker to poll immediately instead of waiting out the
// interval. Non-blocking; concurrent wakes coalesce into one.
func (w *Worker) Wake() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Start launches the worker goroutines.
func (w *Worker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return errors.New("worker already started")
	}
	if len(w.pipelines) == 0 {
		return errors.New("no pipelines registered")
	}
	w.started = true

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	var wg sync.WaitGroup
	for i := range w.cfg.Concurrency {
		wg.Add(1)
		// Stagger startup so workers don't poll in lockstep.
		delay := time.Duration(i) * w.cfg.PollInterval / time.Duration(w.cfg.Concurrency)
		go func() {
			defer wg.Done()
			if !sleepCtx(ctx, delay) {
				return
			}
			w.run(ctx)
		}()
	}

	go func() {
		wg.Wait()
		close(w.done)
	}()

	w.logger.Info("worker started",
		"worker_id", w.cfg.WorkerID,
		"concurrency", w.cfg.Concurrency,
		"poll_interval", w.cfg.PollInterval)
	return nil
}

// Stop signals shutdown and waits for in-flight jobs to finish, bounded by
// the shutdown timeout. Jobs still running after the timeout keep their
// claim and are recovered later by the stale-claim reaper.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.started || w.cancel == nil {
		w.mu.Unlock()
		return
	}
	cancel := w.cancel
	w.mu.Unlock()

	cancel()

	select {
	case <-w.done:
		w.logger.Info("worker stopped")
	case <-time.After(w.cfg.ShutdownTimeout):
		w.logger.Warn("worker shutdown timed out with jobs in flight",
			"timeout", w.cfg.ShutdownTimeout)
	}
}

// run is one worker goroutine's claim/execute loop.
func (w *Worker) run(ctx context.Context) {
	for {
		processed, err := w.processOne(ctx)
		if err != nil {
			w.logger.ErrorContext(ctx, "job processing failed", "error", err)
		}

		if processed && ctx.Err() == nil {
			// The queue had work; check again before sleeping.
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-w.wake:
		case <-time.After(w.cfg.PollInterval):
		}
	}
}

// processOne claims and executes a single job.
// Returns true when a job was claimed, whether or not it succeeded.
func (w *Worker) processOne(ctx context.Context) (bool, error) {
	claimed, err := w.claim(ctx)
	if err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			return false, nil
		}
		return false, err
	}

	logger := w.logger.With(
		"job_id", claimed.ID().String(),
		"job_type", claimed.Type().String(),
		"book_id", claimed.BookID().String(),
		"attempt", claimed.Attempts())

	pipeline, ok := w.pipelines[claimed.Type()]
	if !ok {
		logger.Error("no pipeline registered for job type")
		return true, w.failPermanently(claimed, fmt.Sprintf("no pipeline registered for job type %q", claimed.Type()))
	}

	logger.Info("job started")

	// The job context is detached from the shutdown context so an in-flight
	// pipeline can finish during graceful shutdown. JobTimeout still bounds it.
	jobCtx, cancel := context.WithTimeout(context.Background(), w.cfg.JobTimeout)
	runErr := pipeline.Run(jobCtx, claimed)
	cancel()

	if runErr != nil {
		logger.Error("job failed", "error", runErr)
		return true, w.fail(claimed, runErr.Error())
	}

	if err = w.complete(claimed); err != nil {
		return true, err
	}

	logger.Info("job completed")
	return true, nil
}

// claim picks up the next due job in its own transaction.
func (w *Worker) claim(ctx context.Context) (*job.Job, error) {
	uow := w.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	claimed, err := uow.JobRepository().ClaimNext(ctx, w.cfg.WorkerID, time.Now())
	if err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	return claimed, nil
}

// complete records a successful run in a fresh transaction.
func (w *Worker) complete(claimed *job.Job) error {
	ctx := context.Background()

	uow := w.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := claimed.Complete(time.Now()); err != nil {
		return err
	}
	if err := uow.JobRepository().Update(ctx, claimed); err != nil {
		return err
	}

	return uow.Commit(ctx)
}

// fail records a failed run. The domain decides between a backed-off retry
// and the terminal Failed state.
func (w *Worker) fail(claimed *job.Job, cause string) error {
	ctx := context.Background()

	uow := w.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := claimed.Fail(cause, time.Now()); err != nil {
		return err
	}
	if err := uow.JobRepository().Update(ctx, claimed); err != nil {
		return err
	}
	if err := uow.Commit(ctx); err != nil {
		return err
	}

	w.notifyFailure(ctx, claimed, cause)
	return nil
}

// failPermanently sinks a job that can never succeed, e.g. an unknown type.
func (w *Worker) failPermanently(claimed *job.Job, cause string) error {
	ctx := context.Background()

	uow := w.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := claimed.FailPermanently(cause, time.Now()); err != nil {
		return err
	}
	if err := uow.JobRepository().Update(ctx, claimed); err != nil {
		return err
	}
	if err := uow.Commit(ctx); err != nil {
		return err
	}

	w.notifyFailure(ctx, claimed, cause)
	return nil
}

// notifyFailure alerts operators. Notification errors are logged and dropped;
// they must never abort the worker loop.
func (w *Worker) notifyFailure(ctx context.Context, failed *job.Job, cause string) {
	err := w.notifier.JobFailed(ctx, ports.FailedJobInfo{
		JobID:       failed.ID(),
		BookID:      failed.BookID(),
		JobType:     failed.Type(),
		Attempts:    failed.Attempts(),
		MaxAttempts: failed.MaxAttempts(),
		Terminal:    failed.Status() == job.Failed,
		Error:       cause,
	})
	if err != nil {
		w.logger.ErrorContext(ctx, "failure notification failed", "error", err)
	}
}

// sleepCtx waits for the duration unless the context ends first.
// Reports whether the full duration elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
