package cmd

import (
	"fmt"
	"log/slog"

	adapterhttp "storyforge/internal/adapters/in/http"
	"storyforge/internal/adapters/out/filestore"
	"storyforge/internal/adapters/out/generation"
	"storyforge/internal/adapters/out/postgres"
	"storyforge/internal/adapters/out/telegram"
	"storyforge/internal/core/application/usecases/commands"
	"storyforge/internal/core/application/usecases/queries"
	"storyforge/internal/core/domain/model/job"
	"storyforge/internal/jobs"
	"storyforge/internal/worker"
	"storyforge/internal/worker/pipelines"

	"gorm.io/gorm"
)

type CompositionRoot struct {
	config     Config
	gormDB     *gorm.DB
	uowFactory postgres.GormUnitOfWorkFactory
	logger     *slog.Logger
}

func NewCompositionRoot(config Config, gormDB *gorm.DB, logger *slog.Logger) CompositionRoot {
	return CompositionRoot{
		config:     config,
		gormDB:     gormDB,
		uowFactory: *postgres.NewGormUnitOfWorkFactory(gormDB),
		logger:     logger,
	}
}

func (c *CompositionRoot) CreateCreateBookCommandHandler() commands.CreateBookCommandHandler {
	var f commands.BookUoWFactory = FuncBookUoWFactory(func() commands.BookUoW {
		return c.uowFactory.Create()
	})
	return commands.NewCreateBookCommandHandler(f)
}

func (c *CompositionRoot) CreateMarkBookPrintedCommandHandler() commands.MarkBookPrintedCommandHandler {
	var f commands.BookUoWFactory = FuncBookUoWFactory(func() commands.BookUoW {
		return c.uowFactory.Create()
	})
	return commands.NewMarkBookPrintedCommandHandler(f)
}

func (c *CompositionRoot) CreateEnqueueJobCommandHandler() commands.EnqueueJobCommandHandler {
	var f commands.UoWFactory = FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
	return commands.NewEnqueueJobCommandHandler(f)
}

func (c *CompositionRoot) CreateCancelJobCommandHandler() commands.CancelJobCommandHandler {
	var f commands.JobUoWFactory = FuncJobUoWFactory(func() commands.JobUoW {
		return c.uowFactory.Create()
	})
	return commands.NewCancelJobCommandHandler(f)
}

func (c *CompositionRoot) CreateRequeueStaleJobsCommandHandler() commands.RequeueStaleJobsCommandHandler {
	var f commands.JobUoWFactory = FuncJobUoWFactory(func() commands.JobUoW {
		return c.uowFactory.Create()
	})
	return commands.NewRequeueStaleJobsCommandHandler(f, c.config.StaleJobAfter)
}

func (c *CompositionRoot) CreateCleanupJobsCommandHandler() commands.CleanupJobsCommandHandler {
	var f commands.JobUoWFactory = FuncJobUoWFactory(func() commands.JobUoW {
		return c.uowFactory.Create()
	})
	return commands.NewCleanupJobsCommandHandler(f, c.config.JobRetention)
}

func (c *CompositionRoot) CreateGetJobQueryHandler() queries.GetJobQueryHandler {
	return queries.NewGetJobQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateListJobsQueryHandler() queries.ListJobsQueryHandler {
	return queries.NewListJobsQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateQueueStatsQueryHandler() queries.QueueStatsQueryHandler {
	return queries.NewQueueStatsQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetBookQueryHandler() queries.GetBookQueryHandler {
	return queries.NewGetBookQueryHandler(c.gormDB)
}

// CreateJobManager wires the queue maintenance cron jobs.
func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	return jobs.NewJobManager(
		c.CreateRequeueStaleJobsCommandHandler(),
		c.CreateCleanupJobsCommandHandler(),
		c.logger,
	)
}

// CreateWorker wires the queue worker with all four generation pipelines.
func (c *CompositionRoot) CreateWorker() (*worker.Worker, error) {
	files, err := filestore.NewLocal(c.config.FileStoreDir)
	if err != nil {
		return nil, fmt.Errorf("create file store: %w", err)
	}

	generator := generation.NewClient(
		c.config.GenerationBaseURL,
		c.config.GenerationAPIKey,
		c.config.GenerationTimeout,
	)

	notifier := telegram.NewNotifier(
		c.config.TelegramToken,
		c.config.TelegramChatID,
		c.logger,
	)

	w := worker.NewWorker(
		worker.Config{
			WorkerID:        c.config.WorkerID,
			PollInterval:    c.config.PollInterval,
			Concurrency:     c.config.WorkerConcurrency,
			JobTimeout:      c.config.JobTimeout,
			ShutdownTimeout: c.config.ShutdownTimeout,
		},
		&c.uowFactory,
		notifier,
		c.logger,
	)

	registrations := map[job.Type]worker.Pipeline{
		job.TypeCharacterReference: pipelines.NewCharacterReference(&c.uowFactory, generator, files),
		job.TypeScenePrompts:       pipelines.NewScenePrompts(&c.uowFactory, generator, files),
		job.TypeSceneImages:        pipelines.NewSceneImages(&c.uowFactory, generator, files),
		job.TypePrintFiles:         pipelines.NewPrintFiles(&c.uowFactory, files),
	}
	for jobType, pipeline := range registrations {
		if err = w.Register(jobType, pipeline); err != nil {
			return nil, fmt.Errorf("register %s pipeline: %w", jobType, err)
		}
	}

	return w, nil
}

// CreateHTTPServer wires the admin API around the command and query handlers.
func (c *CompositionRoot) CreateHTTPServer(waker adapterhttp.Waker) *adapterhttp.Server {
	return adapterhttp.NewServer(
		c.CreateCreateBookCommandHandler(),
		c.CreateMarkBookPrintedCommandHandler(),
		c.CreateEnqueueJobCommandHandler(),
		c.CreateCancelJobCommandHandler(),
		c.CreateGetJobQueryHandler(),
		c.CreateListJobsQueryHandler(),
		c.CreateQueueStatsQueryHandler(),
		c.CreateGetBookQueryHandler(),
		waker,
	)
}

type FuncJobUoWFactory func() commands.JobUoW

func (f FuncJobUoWFactory) Create() commands.JobUoW {
	return f()
}

type FuncBookUoWFactory func() commands.BookUoW

func (f FuncBookUoWFactory) Create() commands.BookUoW {
	return f()
}

type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}
