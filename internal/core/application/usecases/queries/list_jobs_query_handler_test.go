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

type ListJobsQueryHandlerTestSuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	db        *gorm.DB
	handler   queries.ListJobsQueryHandler
}

func (suite *ListJobsQueryHandlerTestSuite) SetupSuite() {
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

	suite.handler = queries.NewListJobsQueryHandler(db)
}

func (suite *ListJobsQueryHandlerTestSuite) TearDownSuite() {
	if suite.container != nil {
		err := suite.container.Terminate(context.Background())
		suite.Require().NoError(err)
	}
}

func (suite *ListJobsQueryHandlerTestSuite) SetupTest() {
	err := suite.db.Exec("TRUNCATE TABLE jobs CASCADE").Error
	suite.Require().NoError(err)
}

func (suite *ListJobsQueryHandlerTestSuite) TestHandle_EmptyDatabase_ReturnsEmptySlice() {
	query, err := queries.NewListJobsQuery(nil, nil, 0)
	suite.Require().NoError(err)

	result, err := suite.handler.Handle(context.Background(), query)

	suite.Require().NoError(err)
	suite.NotNil(result)
	suite.Empty(result)
}

func (suite *ListJobsQueryHandlerTestSuite) TestHandle_OrdersNewestScheduledFirst() {
	base := time.Now().Add(-time.Hour)
	oldest := suite.seedJob(job.TypeCharacterReference, base)
	middle := suite.seedJob(job.TypeScenePrompts, base.Add(10*time.Minute))
	newest := suite.seedJob(job.TypeSceneImages, base.Add(20*time.Minute))

	query, err := queries.NewListJobsQuery(nil, nil, 0)
	suite.Require().NoError(err)

	result, err := suite.handler.Handle(context.Background(), query)

	suite.Require().NoError(err)
	suite.Require().Len(result, 3)
	suite.Equal(newest.ID(), result[0].ID)
	suite.Equal(middle.ID(), result[1].ID)
	suite.Equal(oldest.ID(), result[2].ID)
}

func (suite *ListJobsQueryHandlerTestSuite) TestHandle_FiltersByStatus() {
	now := time.Now()
	suite.seedJob(job.TypeCharacterReference, now)
	cancelled := suite.seedCancelledJob(now)

	status := job.Cancelled
	query, err := queries.NewListJobsQuery(&status, nil, 0)
	suite.Require().NoError(err)

	result, err := suite.handler.Handle(context.Background(), query)

	suite.Require().NoError(err)
	suite.Require().Len(result, 1)
	suite.Equal(cancelled.ID(), result[0].ID)
	suite.Equal(job.Cancelled, result[0].Status)
}

func (suite *ListJobsQueryHandlerTestSuite) TestHandle_FiltersByType() {
	now := time.Now()
	suite.seedJob(job.TypeCharacterReference, now)
	printJob := suite.seedJob(job.TypePrintFiles, now)

	jobType := job.TypePrintFiles
	query, err := queries.NewListJobsQuery(nil, &jobType, 0)
	suite.Require().NoError(err)

	result, err := suite.handler.Handle(context.Background(), query)

	suite.Require().NoError(err)
	suite.Require().Len(result, 1)
	suite.Equal(printJob.ID(), result[0].ID)
	suite.Equal(job.TypePrintFiles, result[0].JobType)
}

func (suite *ListJobsQueryHandlerTestSuite) TestHandle_CombinedFiltersApplyTogether() {
	now := time.Now()
	suite.seedJob(job.TypeCharacterReference, now)
	suite.seedCancelledJob(now)
	match := suite.seedJob(job.TypeSceneImages, now)

	status := job.Queued
	jobType := job.TypeSceneImages
	query, err := queries.NewListJobsQuery(&status, &jobType, 0)
	suite.Require().NoError(err)

	result, err := suite.handler.Handle(context.Background(), query)

	suite.Require().NoError(err)
	suite.Require().Len(result, 1)
	suite.Equal(match.ID(), result[0].ID)
}

func (suite *ListJobsQueryHandlerTestSuite) TestHandle_LimitTruncatesToNewest() {
	base := time.Now().Add(-time.Hour)
	for i := range 5 {
		suite.seedJob(job.TypeCharacterReference, base.Add(time.Duration(i)*time.Minute))
	}
	newest := suite.seedJob(job.TypeCharacterReference, base.Add(time.Hour))

	query, err := queries.NewListJobsQuery(nil, nil, 2)
	suite.Require().NoError(err)

	result, err := suite.handler.Handle(context.Background(), query)

	suite.Require().NoError(err)
	suite.Require().Len(result, 2)
	suite.Equal(newest.ID(), result[0].ID)
}

func (suite *ListJobsQueryHandlerTestSuite) TestHandle_InvalidQuery_ReturnsError() {
	invalidQuery := queries.ListJobsQuery{}

	result, err := suite.handler.Handle(context.Background(), invalidQuery)

	suite.Require().Error(err)
	suite.Nil(result)
	suite.Contains(err.Error(), "must be created via NewListJobsQuery constructor")
}

func (suite *ListJobsQueryHandlerTestSuite) seedJob(jobType job.Type, scheduledAt time.Time) *job.Job {
	aggregate, err := job.NewJob(
		kernel.NewUUID(),
		kernel.NewUUID(),
		jobType,
		nil,
		3,
		scheduledAt,
	)
	suite.Require().NoError(err)

	repo := jobrepo.NewGormJobRepository(suite.db, &mockAggregateTracker{})
	err = repo.Add(context.Background(), aggregate)
	suite.Require().NoError(err)

	return aggregate
}

func (suite *ListJobsQueryHandlerTestSuite) seedCancelledJob(scheduledAt time.Time) *job.Job {
	aggregate, err := job.NewJob(
		kernel.NewUUID(),
		kernel.NewUUID(),
		job.TypeScenePrompts,
		nil,
		3,
		scheduledAt,
	)
	suite.Require().NoError(err)
	suite.Require().NoError(aggregate.Cancel(time.Now()))

	repo := jobrepo.NewGormJobRepository(suite.db, &mockAggregateTracker{})
	err = repo.Add(context.Background(), aggregate)
	suite.Require().NoError(err)

	return aggregate
}

func TestListJobsQueryHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(ListJobsQueryHandlerTestSuite))
}
