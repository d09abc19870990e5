// Package http exposes the admin REST API. Handlers translate between JSON
// payloads and the application's commands and queries; no business rules live
// here.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"storyforge/internal/core/application/usecases/commands"
	"storyforge/internal/core/application/usecases/queries"
	"storyforge/internal/core/domain/model/book"
	"storyforge/internal/core/domain/model/job"
	"storyforge/internal/core/domain/model/kernel"
	"storyforge/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// Waker nudges the queue worker so a freshly enqueued job is picked up
// without waiting for the next poll tick.
type Waker interface {
	Wake()
}

// Server coordinates between HTTP handlers and application use cases.
type Server struct {
	// Command handlers
	createBookHandler      commands.CreateBookCommandHandler
	markBookPrintedHandler commands.MarkBookPrintedCommandHandler
	enqueueJobHandler      commands.EnqueueJobCommandHandler
	cancelJobHandler       commands.CancelJobCommandHandler

	// Query handlers
	getJobHandler     queries.GetJobQueryHandler
	listJobsHandler   queries.ListJobsQueryHandler
	queueStatsHandler queries.QueueStatsQueryHandler
	getBookHandler    queries.GetBookQueryHandler

	waker Waker
}

// NewServer creates a new HTTP server with the required command and query handlers.
func NewServer(
	createBookHandler commands.CreateBookCommandHandler,
	markBookPrintedHandler commands.MarkBookPrintedCommandHandler,
	enqueueJobHandler commands.EnqueueJobCommandHandler,
	cancelJobHandler commands.CancelJobCommandHandler,
	getJobHandler queries.GetJobQueryHandler,
	listJobsHandler queries.ListJobsQueryHandler,
	queueStatsHandler queries.QueueStatsQueryHandler,
	getBookHandler queries.GetBookQueryHandler,
	waker Waker,
) *Server {
	return &Server{
		createBookHandler:      createBookHandler,
		markBookPrintedHandler: markBookPrintedHandler,
		enqueueJobHandler:      enqueueJobHandler,
		cancelJobHandler:       cancelJobHandler,
		getJobHandler:          getJobHandler,
		listJobsHandler:        listJobsHandler,
		queueStatsHandler:      queueStatsHandler,
		getBookHandler:         getBookHandler,
		waker:                  waker,
	}
}

// RegisterRoutes mounts all API routes on the echo instance.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", s.Health)

	api := e.Group("/api/v1")
	api.POST("/books", s.CreateBook)
	api.GET("/books/:id", s.GetBook)
	api.POST("/books/:id/printed", s.MarkBookPrinted)
	api.POST("/jobs", s.EnqueueJob)
	api.GET("/jobs", s.ListJobs)
	api.GET("/jobs/:id", s.GetJob)
	api.DELETE("/jobs/:id", s.CancelJob)
	api.GET("/queue/stats", s.QueueStats)
	api.POST("/worker/wake", s.WakeWorker)
}

// Error is the JSON error envelope every failed request returns.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Health handles GET /health.
func (s *Server) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// PrintSpecRequest overrides the default print format for a book.
type PrintSpecRequest struct {
	TrimWidthCM  float64 `json:"trim_width_cm"`
	TrimHeightCM float64 `json:"trim_height_cm"`
	BleedCM      float64 `json:"bleed_cm"`
	DPI          int     `json:"dpi"`
}

// CreateBookRequest is the body of POST /api/v1/books.
type CreateBookRequest struct {
	OrderReference string            `json:"order_reference"`
	ChildName      string            `json:"child_name"`
	Title          string            `json:"title"`
	PageCount      int               `json:"page_count"`
	PrintSpec      *PrintSpecRequest `json:"print_spec,omitempty"`
}

// CreateBook handles POST /api/v1/books - registers a book configuration.
func (s *Server) CreateBook(ctx echo.Context) error {
	var req CreateBookRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	printSpec := book.DefaultPrintSpec()
	if req.PrintSpec != nil {
		var err error
		printSpec, err = book.NewPrintSpec(
			req.PrintSpec.TrimWidthCM,
			req.PrintSpec.TrimHeightCM,
			req.PrintSpec.BleedCM,
			req.PrintSpec.DPI,
		)
		if err != nil {
			return badRequest(ctx, "Invalid print spec: "+err.Error())
		}
	}

	bookID := kernel.NewUUID()

	cmd, err := commands.NewCreateBookCommand(
		bookID,
		req.OrderReference,
		req.ChildName,
		req.Title,
		req.PageCount,
		printSpec,
	)
	if err != nil {
		return badRequest(ctx, "Invalid book data: "+err.Error())
	}

	if err = s.createBookHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return writeDomainError(ctx, err, "Failed to create book")
	}

	return ctx.JSON(http.StatusCreated, map[string]string{"id": bookID.String()})
}

// GetBook handles GET /api/v1/books/:id.
func (s *Server) GetBook(ctx echo.Context) error {
	bookID, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return badRequest(ctx, "Invalid book ID")
	}

	query, err := queries.NewGetBookQuery(bookID)
	if err != nil {
		return badRequest(ctx, "Invalid book ID")
	}

	resp, err := s.getBookHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return writeDomainError(ctx, err, "Failed to retrieve book")
	}

	return ctx.JSON(http.StatusOK, toBookResponse(resp))
}

// BookStepResponse is one generation stage in a book response.
type BookStepResponse struct {
	Name        string    `json:"name"`
	Status      string    `json:"status"`
	ArtifactKey string    `json:"artifact_key,omitempty"`
	Error       string    `json:"error,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BookResponse is the body of GET /api/v1/books/:id.
type BookResponse struct {
	ID             string             `json:"id"`
	OrderReference string             `json:"order_reference"`
	ChildName      string             `json:"child_name"`
	Title          string             `json:"title"`
	Status         string             `json:"status"`
	PageCount      int                `json:"page_count"`
	PrintSpec      PrintSpecRequest   `json:"print_spec"`
	Steps          []BookStepResponse `json:"steps"`
}

func toBookResponse(resp queries.GetBookQueryResponse) BookResponse {
	steps := make([]BookStepResponse, len(resp.Steps))
	for i, step := range resp.Steps {
		steps[i] = BookStepResponse{
			Name:        step.Name.String(),
			Status:      step.Status.String(),
			ArtifactKey: step.ArtifactKey,
			Error:       step.Error,
			UpdatedAt:   step.UpdatedAt,
		}
	}

	return BookResponse{
		ID:             resp.ID.String(),
		OrderReference: resp.OrderReference,
		ChildName:      resp.ChildName,
		Title:          resp.Title,
		Status:         resp.Status.String(),
		PageCount:      resp.PageCount,
		PrintSpec: PrintSpecRequest{
			TrimWidthCM:  resp.TrimWidthCM,
			TrimHeightCM: resp.TrimHeightCM,
			BleedCM:      resp.BleedCM,
			DPI:          resp.DPI,
		},
		Steps: steps,
	}
}

// EnqueueJobRequest is the body of POST /api/v1/jobs.
type EnqueueJobRequest struct {
	BookID      string          `json:"book_id"`
	JobType     string          `json:"job_type"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	MaxAttempts int             `json:"max_attempts,omitempty"`
}

// EnqueueJob handles POST /api/v1/jobs - queues one pipeline stage for a book.
func (s *Server) EnqueueJob(ctx echo.Context) error {
	var req EnqueueJobRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	bookID, err := kernel.UUIDFromString(req.BookID)
	if err != nil {
		return badRequest(ctx, "Invalid book ID")
	}

	jobID := kernel.NewUUID()

	cmd, err := commands.NewEnqueueJobCommand(
		jobID,
		bookID,
		job.Type(req.JobType),
		req.Payload,
		req.MaxAttempts,
	)
	if err != nil {
		return badRequest(ctx, "Invalid job data: "+err.Error())
	}

	if err = s.enqueueJobHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return writeDomainError(ctx, err, "Failed to enqueue job")
	}

	// The claim is only visible after commit, so waking here never races
	// the worker into an empty poll for this job.
	s.waker.Wake()

	return ctx.JSON(http.StatusCreated, map[string]string{"id": jobID.String()})
}

// JobResponse is the body of GET /api/v1/jobs/:id.
type JobResponse struct {
	ID          string     `json:"id"`
	BookID      string     `json:"book_id"`
	JobType     string     `json:"job_type"`
	Status      string     `json:"status"`
	Attempts    int        `json:"attempts"`
	MaxAttempts int        `json:"max_attempts"`
	ScheduledAt time.Time  `json:"scheduled_at"`
	ClaimedBy   string     `json:"claimed_by,omitempty"`
	ClaimedAt   *time.Time `json:"claimed_at,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// GetJob handles GET /api/v1/jobs/:id.
func (s *Server) GetJob(ctx echo.Context) error {
	jobID, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return badRequest(ctx, "Invalid job ID")
	}

	query, err := queries.NewGetJobQuery(jobID)
	if err != nil {
		return badRequest(ctx, "Invalid job ID")
	}

	resp, err := s.getJobHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return writeDomainError(ctx, err, "Failed to retrieve job")
	}

	return ctx.JSON(http.StatusOK, JobResponse{
		ID:          resp.ID.String(),
		BookID:      resp.BookID.String(),
		JobType:     resp.JobType.String(),
		Status:      resp.Status.String(),
		Attempts:    resp.Attempts,
		MaxAttempts: resp.MaxAttempts,
		ScheduledAt: resp.ScheduledAt,
		ClaimedBy:   resp.ClaimedBy,
		ClaimedAt:   resp.ClaimedAt,
		LastError:   resp.LastError,
		CompletedAt: resp.CompletedAt,
	})
}

// JobSummaryResponse is one row of GET /api/v1/jobs.
type JobSummaryResponse struct {
	ID          string    `json:"id"`
	BookID      string    `json:"book_id"`
	JobType     string    `json:"job_type"`
	Status      string    `json:"status"`
	Attempts    int       `json:"attempts"`
	MaxAttempts int       `json:"max_attempts"`
	ScheduledAt time.Time `json:"scheduled_at"`
	LastError   string    `json:"last_error,omitempty"`
}

// ListJobs handles GET /api/v1/jobs with optional status, type, and limit
// query parameters.
func (s *Server) ListJobs(ctx echo.Context) error {
	var statusFilter *job.Status
	if raw := ctx.QueryParam("status"); raw != "" {
		status, err := job.StatusFromString(raw)
		if err != nil {
			return badRequest(ctx, "Invalid status filter: "+raw)
		}
		statusFilter = &status
	}

	var typeFilter *job.Type
	if raw := ctx.QueryParam("type"); raw != "" {
		jobType := job.Type(raw)
		if err := jobType.Validate(); err != nil {
			return badRequest(ctx, "Invalid type filter: "+raw)
		}
		typeFilter = &jobType
	}

	limit := 0
	if raw := ctx.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return badRequest(ctx, "Invalid limit: "+raw)
		}
		limit = parsed
	}

	query, err := queries.NewListJobsQuery(statusFilter, typeFilter, limit)
	if err != nil {
		return badRequest(ctx, "Invalid job filter: "+err.Error())
	}

	rows, err := s.listJobsHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return writeDomainError(ctx, err, "Failed to list jobs")
	}

	response := make([]JobSummaryResponse, len(rows))
	for i, row := range rows {
		response[i] = JobSummaryResponse{
			ID:          row.ID.String(),
			BookID:      row.BookID.String(),
			JobType:     row.JobType.String(),
			Status:      row.Status.String(),
			Attempts:    row.Attempts,
			MaxAttempts: row.MaxAttempts,
			ScheduledAt: row.ScheduledAt,
			LastError:   row.LastError,
		}
	}

	return ctx.JSON(http.StatusOK, response)
}

// CancelJob handles DELETE /api/v1/jobs/:id - cancels a queued job.
func (s *Server) CancelJob(ctx echo.Context) error {
	jobID, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return badRequest(ctx, "Invalid job ID")
	}

	cmd, err := commands.NewCancelJobCommand(jobID)
	if err != nil {
		return badRequest(ctx, "Invalid job ID")
	}

	if err = s.cancelJobHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return writeDomainError(ctx, err, "Failed to cancel job")
	}

	return ctx.NoContent(http.StatusNoContent)
}

// MarkBookPrinted handles POST /api/v1/books/:id/printed - records the print
// hand-off of a Ready book.
func (s *Server) MarkBookPrinted(ctx echo.Context) error {
	bookID, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return badRequest(ctx, "Invalid book ID")
	}

	cmd, err := commands.NewMarkBookPrintedCommand(bookID)
	if err != nil {
		return badRequest(ctx, "Invalid book ID")
	}

	if err = s.markBookPrintedHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return writeDomainError(ctx, err, "Failed to mark book printed")
	}

	return ctx.NoContent(http.StatusNoContent)
}

// QueueStatsResponse is the body of GET /api/v1/queue/stats.
type QueueStatsResponse struct {
	Queued                 int64   `json:"queued"`
	Running                int64   `json:"running"`
	Completed              int64   `json:"completed"`
	Failed                 int64   `json:"failed"`
	Cancelled              int64   `json:"cancelled"`
	OldestQueuedAgeSeconds float64 `json:"oldest_queued_age_seconds"`
}

// QueueStats handles GET /api/v1/queue/stats.
func (s *Server) QueueStats(ctx echo.Context) error {
	query := queries.NewQueueStatsQuery()

	stats, err := s.queueStatsHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return writeDomainError(ctx, err, "Failed to collect queue stats")
	}

	return ctx.JSON(http.StatusOK, QueueStatsResponse{
		Queued:                 stats.Queued,
		Running:                stats.Running,
		Completed:              stats.Completed,
		Failed:                 stats.Failed,
		Cancelled:              stats.Cancelled,
		OldestQueuedAgeSeconds: stats.OldestQueuedAge.Seconds(),
	})
}

// WakeWorker handles POST /api/v1/worker/wake - forces an immediate poll.
func (s *Server) WakeWorker(ctx echo.Context) error {
	s.waker.Wake()
	return ctx.NoContent(http.StatusAccepted)
}

func badRequest(ctx echo.Context, message string) error {
	return ctx.JSON(http.StatusBadRequest, Error{
		Code:    http.StatusBadRequest,
		Message: message,
	})
}

// writeDomainError maps application errors to HTTP status codes. Invalid
// status transitions and duplicate active jobs are conflicts; everything the
// caller could not have known better is a 500.
func writeDomainError(ctx echo.Context, err error, fallback string) error {
	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		return ctx.JSON(http.StatusNotFound, Error{
			Code:    http.StatusNotFound,
			Message: err.Error(),
		})
	case errors.Is(err, commands.ErrDuplicateActiveJob),
		errors.Is(err, errs.ErrValueIsInvalid):
		return ctx.JSON(http.StatusConflict, Error{
			Code:    http.StatusConflict,
			Message: err.Error(),
		})
	case errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, errs.ErrValueIsOutOfRange):
		return ctx.JSON(http.StatusBadRequest, Error{
			Code:    http.StatusBadRequest,
			Message: err.Error(),
		})
	default:
		return ctx.JSON(http.StatusInternalServerError, Error{
			Code:    http.StatusInternalServerError,
			Message: fallback,
		})
	}
}
