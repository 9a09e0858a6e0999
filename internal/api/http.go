// Package api exposes the HTTP trigger and inspection surface over the
// scheduler and the run history.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/livinlefevreloca/crmsync/internal/db"
	"github.com/livinlefevreloca/crmsync/internal/metrics"
	"github.com/livinlefevreloca/crmsync/internal/scheduler"
)

// Server holds the HTTP route dependencies
type Server struct {
	scheduler *scheduler.Service
	db        *db.DB
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewServer creates the HTTP API server
func NewServer(sched *scheduler.Service, database *db.DB, m *metrics.Metrics, logger *slog.Logger) *Server {
	return &Server{
		scheduler: sched,
		db:        database,
		metrics:   m,
		logger:    logger,
	}
}

// errorResponse is the JSON error payload
type errorResponse struct {
	Error string `json:"error"`
}

// Register mounts all routes on the echo instance
func (s *Server) Register(e *echo.Echo) {
	e.GET("/healthz", s.health)
	if s.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}

	v1 := e.Group("/api/v1")
	v1.GET("/jobs", s.listJobs)
	v1.POST("/jobs/start-all", s.startAll)
	v1.POST("/jobs/stop-all", s.stopAll)
	v1.GET("/jobs/:name", s.getJob)
	v1.POST("/jobs/:name/start", s.startJob)
	v1.POST("/jobs/:name/stop", s.stopJob)
	v1.POST("/jobs/:name/run", s.runJob)
	v1.GET("/jobs/:name/runs", s.jobRuns)
	v1.GET("/runs", s.recentRuns)
	v1.GET("/funnels", s.listFunnels)
}

func (s *Server) health(ctx echo.Context) error {
	if err := s.db.Ping(); err != nil {
		return ctx.JSON(http.StatusServiceUnavailable, errorResponse{Error: "database unreachable"})
	}
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listJobs(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, s.scheduler.StatusAll())
}

func (s *Server) getJob(ctx echo.Context) error {
	status, err := s.scheduler.Status(ctx.Param("name"))
	if err != nil {
		return jobError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, status)
}

func (s *Server) startJob(ctx echo.Context) error {
	if err := s.scheduler.Start(ctx.Param("name")); err != nil {
		return jobError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, map[string]string{"status": "started"})
}

func (s *Server) stopJob(ctx echo.Context) error {
	if err := s.scheduler.Stop(ctx.Param("name")); err != nil {
		return jobError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, map[string]string{"status": "stopped"})
}

func (s *Server) runJob(ctx echo.Context) error {
	name := ctx.Param("name")
	if err := s.scheduler.RunNow(name); err != nil {
		return jobError(ctx, err)
	}
	// The run proceeds in the background; only acceptance is reported
	return ctx.JSON(http.StatusAccepted, map[string]string{"status": "triggered"})
}

func (s *Server) startAll(ctx echo.Context) error {
	s.scheduler.StartAll()
	return ctx.JSON(http.StatusOK, map[string]string{"status": "started"})
}

func (s *Server) stopAll(ctx echo.Context) error {
	s.scheduler.StopAll()
	return ctx.JSON(http.StatusOK, map[string]string{"status": "stopped"})
}

func (s *Server) jobRuns(ctx echo.Context) error {
	name := ctx.Param("name")
	if _, err := s.scheduler.Status(name); err != nil {
		return jobError(ctx, err)
	}

	runs, err := s.db.GetSyncRuns(name, queryLimit(ctx))
	if err != nil {
		s.logger.Error("failed to list job runs", "job", name, "error", err)
		return ctx.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to list runs"})
	}
	return ctx.JSON(http.StatusOK, runsToJSON(runs))
}

func (s *Server) recentRuns(ctx echo.Context) error {
	runs, err := s.db.GetRecentSyncRuns(queryLimit(ctx))
	if err != nil {
		s.logger.Error("failed to list recent runs", "error", err)
		return ctx.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to list runs"})
	}
	return ctx.JSON(http.StatusOK, runsToJSON(runs))
}

// funnelJSON is a funnel with its columns for the read API
type funnelJSON struct {
	ID      int64        `json:"id"`
	Name    string       `json:"name"`
	Columns []columnJSON `json:"columns"`
}

type columnJSON struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (s *Server) listFunnels(ctx echo.Context) error {
	funnels, err := s.db.GetFunnels()
	if err != nil {
		s.logger.Error("failed to list funnels", "error", err)
		return ctx.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to list funnels"})
	}

	result := make([]funnelJSON, 0, len(funnels))
	for _, funnel := range funnels {
		columns, err := s.db.GetColumnsByFunnel(funnel.ID)
		if err != nil {
			s.logger.Error("failed to list columns", "funnel_id", funnel.ID, "error", err)
			return ctx.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to list funnels"})
		}

		fj := funnelJSON{ID: funnel.ID, Name: funnel.Name, Columns: make([]columnJSON, 0, len(columns))}
		for _, column := range columns {
			fj.Columns = append(fj.Columns, columnJSON{ID: column.ID, Name: column.Name})
		}
		result = append(result, fj)
	}

	return ctx.JSON(http.StatusOK, result)
}

// runJSON is the wire form of a sync run
type runJSON struct {
	RunID           string   `json:"run_id"`
	JobName         string   `json:"job_name"`
	Trigger         string   `json:"trigger"`
	Status          string   `json:"status"`
	StartedAt       string   `json:"started_at"`
	CompletedAt     *string  `json:"completed_at,omitempty"`
	RecordsInserted int      `json:"records_inserted"`
	RecordsUpdated  int      `json:"records_updated"`
	RecordsErrors   int      `json:"records_errors"`
	DurationSeconds *float64 `json:"duration_seconds,omitempty"`
	ErrorMessage    *string  `json:"error_message,omitempty"`
}

func runsToJSON(runs []db.SyncRun) []runJSON {
	result := make([]runJSON, 0, len(runs))
	for _, run := range runs {
		rj := runJSON{
			RunID:           run.RunID,
			JobName:         run.JobName,
			Trigger:         run.Trigger,
			Status:          run.Status,
			StartedAt:       run.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
			RecordsInserted: run.RecordsInserted,
			RecordsUpdated:  run.RecordsUpdated,
			RecordsErrors:   run.RecordsErrors,
			DurationSeconds: run.DurationSeconds,
			ErrorMessage:    run.ErrorMessage,
		}
		if run.CompletedAt != nil {
			completed := run.CompletedAt.Format("2006-01-02T15:04:05Z07:00")
			rj.CompletedAt = &completed
		}
		result = append(result, rj)
	}
	return result
}

// queryLimit parses the ?limit= parameter with a sane default
func queryLimit(ctx echo.Context) int {
	limit, err := strconv.Atoi(ctx.QueryParam("limit"))
	if err != nil || limit <= 0 || limit > 500 {
		return 50
	}
	return limit
}

// jobError maps scheduler errors onto HTTP statuses: unknown jobs are 404,
// concurrency rejections are 409
func jobError(ctx echo.Context, err error) error {
	switch {
	case errors.Is(err, scheduler.ErrUnknownJob):
		return ctx.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, scheduler.ErrAlreadyRunning):
		return ctx.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		return ctx.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}
