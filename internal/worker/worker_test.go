package worker_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"storyforge/internal/core/domain/model/book"
	"storyforge/internal/core/domain/model/job"
	"storyforge/internal/core/domain/model/kernel"
	"storyforge/internal/core/ports"
	"storyforge/internal/pkg/errs"
	"storyforge/internal/worker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryJobRepo is an in-memory JobRepository for exercising the worker loop
// without a database.
type memoryJobRepo struct {
	mu   sync.Mutex
	jobs map[kernel.UUID]*job.Job
}

func newMemoryJobRepo() *memoryJobRepo {
	return &memoryJobRepo{jobs: make(map[kernel.UUID]*job.Job)}
}

func (r *memoryJobRepo) Add(_ context.Context, j *job.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[j.ID()] = j
	return nil
}

func (r *memoryJobRepo) Update(_ context.Context, j *job.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[j.ID()] = j
	return nil
}

func (r *memoryJobRepo) Get(_ context.Context, id kernel.UUID) (*job.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil, errs.NewObjectNotFoundError("job", id.String())
	}
	return j, nil
}

func (r *memoryJobRepo) ClaimNext(_ context.Context, workerID string, now time.Time) (*job.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, j := range r.jobs {
		if j.Status() == job.Queued && !j.ScheduledAt().After(now) {
			if err := j.Claim(workerID, now); err != nil {
				return nil, err
			}
			return j, nil
		}
	}
	return nil, errs.NewObjectNotFoundError("job", "next due queued")
}

func (r *memoryJobRepo) GetActiveByBookAndType(_ context.Context, _ kernel.UUID, _ job.Type) (*job.Job, error) {
	return nil, errs.NewObjectNotFoundError("job", "active")
}

func (r *memoryJobRepo) GetStaleRunning(_ context.Context, _ time.Time) ([]*job.Job, error) {
	return nil, nil
}

func (r *memoryJobRepo) DeleteCompletedBefore(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func (r *memoryJobRepo) status(id kernel.UUID) job.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.jobs[id].Status()
}

// memoryUoW satisfies ports.UnitOfWork over the in-memory repo. Transactions
// are no-ops; the worker only needs the repository behind them.
type memoryUoW struct {
	jobs *memoryJobRepo
}

func (u *memoryUoW) Begin(context.Context) error          { return nil }
func (u *memoryUoW) Commit(context.Context) error         { return nil }
func (u *memoryUoW) Rollback(context.Context) error       { return nil }
func (u *memoryUoW) JobRepository() ports.JobRepository   { return u.jobs }
func (u *memoryUoW) BookRepository() ports.BookRepository { return failingBookRepo{} }

type failingBookRepo struct{}

func (failingBookRepo) Add(context.Context, *book.Book) error    { return errors.New("not implemented") }
func (failingBookRepo) Update(context.Context, *book.Book) error { return errors.New("not implemented") }
func (failingBookRepo) Get(context.Context, kernel.UUID) (*book.Book, error) {
	return nil, errors.New("not implemented")
}
func (failingBookRepo) GetByOrderReference(context.Context, string) (*book.Book, error) {
	return nil, errors.New("not implemented")
}

type memoryUoWFactory struct {
	jobs *memoryJobRepo
}

func (f *memoryUoWFactory) Create() ports.UnitOfWork {
	return &memoryUoW{jobs: f.jobs}
}

// recordingNotifier collects failure notifications.
type recordingNotifier struct {
	mu       sync.Mutex
	failures []ports.FailedJobInfo
	err      error
}

func (n *recordingNotifier) JobFailed(_ context.Context, info ports.FailedJobInfo) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failures = append(n.failures, info)
	return n.err
}

func (n *recordingNotifier) recorded() []ports.FailedJobInfo {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]ports.FailedJobInfo(nil), n.failures...)
}

// funcPipeline adapts a function to the Pipeline interface.
type funcPipeline func(ctx context.Context, j *job.Job) error

func (f funcPipeline) Run(ctx context.Context, j *job.Job) error { return f(ctx, j) }

func testConfig() worker.Config {
	return worker.Config{
		WorkerID:        "worker-test",
		PollInterval:    10 * time.Millisecond,
		Concurrency:     1,
		JobTimeout:      time.Second,
		ShutdownTimeout: time.Second,
	}
}

func queueJob(t *testing.T, repo *memoryJobRepo, jobType job.Type) *job.Job {
	t.Helper()
	j, err := job.NewJob(kernel.NewUUID(), kernel.NewUUID(), jobType, nil, 3, time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Add(context.Background(), j))
	return j
}

func waitFor(t *testing.T, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestWorker_ProcessesQueuedJob(t *testing.T) {
	repo := newMemoryJobRepo()
	factory := &memoryUoWFactory{jobs: repo}
	notifier := &recordingNotifier{}

	var mu sync.Mutex
	var seen []kernel.UUID

	w := worker.NewWorker(testConfig(), factory, notifier, slog.Default())
	require.NoError(t, w.Register(job.TypeCharacterReference, funcPipeline(func(_ context.Context, j *job.Job) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, j.ID())
		return nil
	})))

	queued := queueJob(t, repo, job.TypeCharacterReference)

	require.NoError(t, w.Start())
	defer w.Stop()

	waitFor(t, func() bool { return repo.status(queued.ID()) == job.Completed })

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 1)
	assert.Equal(t, queued.ID(), seen[0])
	assert.Empty(t, notifier.recorded())
}

func TestWorker_FailedJobIsRequeuedAndNotified(t *testing.T) {
	repo := newMemoryJobRepo()
	factory := &memoryUoWFactory{jobs: repo}
	notifier := &recordingNotifier{}

	w := worker.NewWorker(testConfig(), factory, notifier, slog.Default())
	require.NoError(t, w.Register(job.TypeScenePrompts, funcPipeline(func(context.Context, *job.Job) error {
		return errors.New("generation service returned 502")
	})))

	queued := queueJob(t, repo, job.TypeScenePrompts)

	require.NoError(t, w.Start())
	defer w.Stop()

	waitFor(t, func() bool { return len(notifier.recorded()) >= 1 })

	// First failure leaves attempts, so the job goes back to Queued with a
	// backed-off schedule instead of failing outright.
	assert.Equal(t, job.Queued, repo.status(queued.ID()))

	info := notifier.recorded()[0]
	assert.Equal(t, queued.ID(), info.JobID)
	assert.Equal(t, job.TypeScenePrompts, info.JobType)
	assert.Equal(t, 1, info.Attempts)
	assert.False(t, info.Terminal)
	assert.Contains(t, info.Error, "502")
}

func TestWorker_UnknownJobTypeFailsPermanently(t *testing.T) {
	repo := newMemoryJobRepo()
	factory := &memoryUoWFactory{jobs: repo}
	notifier := &recordingNotifier{}

	w := worker.NewWorker(testConfig(), factory, notifier, slog.Default())
	// Only one pipeline registered; print_files jobs have no handler.
	require.NoError(t, w.Register(job.TypeCharacterReference, funcPipeline(func(context.Context, *job.Job) error {
		return nil
	})))

	queued := queueJob(t, repo, job.TypePrintFiles)

	require.NoError(t, w.Start())
	defer w.Stop()

	waitFor(t, func() bool { return repo.status(queued.ID()) == job.Failed })

	infos := notifier.recorded()
	require.NotEmpty(t, infos)
	assert.True(t, infos[0].Terminal)
	assert.Contains(t, infos[0].Error, "no pipeline registered")
}

func TestWorker_NotifierErrorDoesNotStopProcessing(t *testing.T) {
	repo := newMemoryJobRepo()
	factory := &memoryUoWFactory{jobs: repo}
	notifier := &recordingNotifier{err: errors.New("telegram unreachable")}

	w := worker.NewWorker(testConfig(), factory, notifier, slog.Default())
	require.NoError(t, w.Register(job.TypeSceneImages, funcPipeline(func(context.Context, *job.Job) error {
		return errors.New("boom")
	})))
	require.NoError(t, w.Register(job.TypeCharacterReference, funcPipeline(func(context.Context, *job.Job) error {
		return nil
	})))

	failing := queueJob(t, repo, job.TypeSceneImages)
	healthy := queueJob(t, repo, job.TypeCharacterReference)

	require.NoError(t, w.Start())
	defer w.Stop()

	waitFor(t, func() bool { return repo.status(healthy.ID()) == job.Completed })
	waitFor(t, func() bool { return len(notifier.recorded()) >= 1 })
	assert.NotEqual(t, job.Running, repo.status(failing.ID()))
}

func TestWorker_WakeTriggersImmediatePoll(t *testing.T) {
	repo := newMemoryJobRepo()
	factory := &memoryUoWFactory{jobs: repo}
	notifier := &recordingNotifier{}

	cfg := testConfig()
	cfg.PollInterval = time.Hour // never poll on its own

	w := worker.NewWorker(cfg, factory, notifier, slog.Default())
	require.NoError(t, w.Register(job.TypeCharacterReference, funcPipeline(func(context.Context, *job.Job) error {
		return nil
	})))

	require.NoError(t, w.Start())
	defer w.Stop()

	// The startup poll finds an empty queue; the worker then sleeps.
	time.Sleep(50 * time.Millisecond)
	queued := queueJob(t, repo, job.TypeCharacterReference)
	w.Wake()

	waitFor(t, func() bool { return repo.status(queued.ID()) == job.Completed })
}

func TestWorker_StopWaitsForInFlightJob(t *testing.T) {
	repo := newMemoryJobRepo()
	factory := &memoryUoWFactory{jobs: repo}
	notifier := &recordingNotifier{}

	release := make(chan struct{})
	started := make(chan struct{})

	w := worker.NewWorker(testConfig(), factory, notifier, slog.Default())
	require.NoError(t, w.Register(job.TypeCharacterReference, funcPipeline(func(context.Context, *job.Job) error {
		close(started)
		<-release
		return nil
	})))

	queued := queueJob(t, repo, job.TypeCharacterReference)

	require.NoError(t, w.Start())
	<-started

	go func() {
		time.Sleep(50 * time.Millisecond)
		close(release)
	}()

	w.Stop()
	assert.Equal(t, job.Completed, repo.status(queued.ID()))
}

func TestWorker_StartValidation(t *testing.T) {
	repo := newMemoryJobRepo()
	factory := &memoryUoWFactory{jobs: repo}

	w := worker.NewWorker(testConfig(), factory, &recordingNotifier{}, slog.Default())
	require.Error(t, w.Start(), "no pipelines registered")

	require.NoError(t, w.Register(job.TypeCharacterReference, funcPipeline(func(context.Context, *job.Job) error {
		return nil
	})))
	require.NoError(t, w.Start())
	defer w.Stop()

	require.Error(t, w.Start(), "double start")
}

func TestWorker_RegisterValidation(t *testing.T) {
	repo := newMemoryJobRepo()
	w := worker.NewWorker(testConfig(), &memoryUoWFactory{jobs: repo}, &recordingNotifier{}, slog.Default())

	require.Error(t, w.Register(job.Type("bogus"), funcPipeline(func(context.Context, *job.Job) error { return nil })))
	require.Error(t, w.Register(job.TypeCharacterReference, nil))

	require.NoError(t, w.Register(job.TypeCharacterReference, funcPipeline(func(context.Context, *job.Job) error { return nil })))
	require.Error(t, w.Register(job.TypeCharacterReference, funcPipeline(func(context.Context, *job.Job) error { return nil })))
}
