package queries_test

import (
	"context"
	"testing"
	"time"

	"storyforge/internal/adapters/out/postgres/jobrepo"
	"storyforge/internal/core/application/usecases/queries"
	"storyforge/internal/core/domain/model/job"
	"storyforge/internal/core/domain/model/kernel"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gorm_postgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type QueueStatsQueryHandlerTestSuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	db        *gorm.DB
	handler   queries.QueueStatsQueryHandler
}

func (suite *QueueStatsQueryHandlerTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	suite.Require().NoError(err)
	suite.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := gorm.Open(gorm_postgres.Open(dsn), &gorm.Config{})
	suite.Require().NoError(err)
	suite.db = db

	err = db.AutoMigrate(&jobrepo.JobDTO{})
	suite.Require().NoError(err)

	suite.handler = queries.NewQueueStatsQueryHandler(db)
}

func (suite *QueueStatsQueryHandlerTestSuite) TearDownSuite() {
	if suite.container != nil {
		err := suite.container.Terminate(context.Background())
		suite.Require().NoError(err)
	}
}

func (suite *QueueStatsQueryHandlerTestSuite) SetupTest() {
	err := suite.db.Exec("TRUNCATE TABLE jobs CASCADE").Error
	suite.Require().NoError(err)
}

func (suite *QueueStatsQueryHandlerTestSuite) TestHandle_EmptyDatabase_ReturnsZeroes() {
	query := queries.NewQueueStatsQuery()

	result, err := suite.handler.Handle(context.Background(), query)

	suite.Require().NoError(err)
	suite.Zero(result.Queued)
	suite.Zero(result.Running)
	suite.Zero(result.Completed)
	suite.Zero(result.Failed)
	suite.Zero(result.Cancelled)
	suite.Zero(result.OldestQueuedAge)
}

func (suite *QueueStatsQueryHandlerTestSuite) TestHandle_CountsJobsPerStatus() {
	now := time.Now()

	suite.seedQueued(now)
	suite.seedQueued(now)
	suite.seedRunning(now)
	suite.seedCompleted(now)
	suite.seedFailed(now)
	suite.seedCancelled(now)

	query := queries.NewQueueStatsQuery()

	result, err := suite.handler.Handle(context.Background(), query)

	suite.Require().NoError(err)
	suite.Equal(int64(2), result.Queued)
	suite.Equal(int64(1), result.Running)
	suite.Equal(int64(1), result.Completed)
	suite.Equal(int64(1), result.Failed)
	suite.Equal(int64(1), result.Cancelled)
}

func (suite *QueueStatsQueryHandlerTestSuite) TestHandle_OldestQueuedAgeCountsOnlyDueJobs() {
	suite.seedQueued(time.Now().Add(-2 * time.Hour))
	suite.seedQueued(time.Now().Add(time.Hour))

	query := queries.NewQueueStatsQuery()

	result, err := suite.handler.Handle(context.Background(), query)

	suite.Require().NoError(err)
	suite.Equal(int64(2), result.Queued)
	suite.GreaterOrEqual(result.OldestQueuedAge, 2*time.Hour-time.Minute)
	suite.Less(result.OldestQueuedAge, 3*time.Hour)
}

func (suite *QueueStatsQueryHandlerTestSuite) TestHandle_OnlyFutureJobs_AgeStaysZero() {
	suite.seedQueued(time.Now().Add(30 * time.Minute))

	query := queries.NewQueueStatsQuery()

	result, err := suite.handler.Handle(context.Background(), query)

	suite.Require().NoError(err)
	suite.Equal(int64(1), result.Queued)
	suite.Zero(result.OldestQueuedAge)
}

func (suite *QueueStatsQueryHandlerTestSuite) TestHandle_InvalidQuery_ReturnsError() {
	invalidQuery := queries.QueueStatsQuery{}

	_, err := suite.handler.Handle(context.Background(), invalidQuery)

	suite.Require().Error(err)
	suite.Contains(err.Error(), "must be created via NewQueueStatsQuery constructor")
}

func (suite *QueueStatsQueryHandlerTestSuite) seedQueued(scheduledAt time.Time) {
	aggregate := suite.newJob(scheduledAt)
	suite.saveJob(aggregate)
}

func (suite *QueueStatsQueryHandlerTestSuite) seedRunning(now time.Time) {
	aggregate := suite.newJob(now.Add(-time.Minute))
	suite.Require().NoError(aggregate.Claim("worker-1", now))
	suite.saveJob(aggregate)
}

func (suite *QueueStatsQueryHandlerTestSuite) seedCompleted(now time.Time) {
	aggregate := suite.newJob(now.Add(-time.Minute))
	suite.Require().NoError(aggregate.Claim("worker-1", now))
	suite.Require().NoError(aggregate.Complete(now))
	suite.saveJob(aggregate)
}

func (suite *QueueStatsQueryHandlerTestSuite) seedFailed(now time.Time) {
	aggregate := suite.newJob(now.Add(-time.Minute))
	suite.Require().NoError(aggregate.Claim("worker-1", now))
	suite.Require().NoError(aggregate.FailPermanently("generation service returned 503", now))
	suite.saveJob(aggregate)
}

func (suite *QueueStatsQueryHandlerTestSuite) seedCancelled(now time.Time) {
	aggregate := suite.newJob(now.Add(-time.Minute))
	suite.Require().NoError(aggregate.Cancel(now))
	suite.saveJob(aggregate)
}

func (suite *QueueStatsQueryHandlerTestSuite) newJob(scheduledAt time.Time) *job.Job {
	aggregate, err := job.NewJob(
		kernel.NewUUID(),
		kernel.NewUUID(),
		job.TypeCharacterReference,
		nil,
		3,
		scheduledAt,
	)
	suite.Require().NoError(err)
	return aggregate
}

func (suite *QueueStatsQueryHandlerTestSuite) saveJob(aggregate *job.Job) {
	repo := jobrepo.NewGormJobRepository(suite.db, &mockAggregateTracker{})
	err := repo.Add(context.Background(), aggregate)
	suite.Require().NoError(err)
}

func TestQueueStatsQueryHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(QueueStatsQueryHandlerTestSuite))
}
