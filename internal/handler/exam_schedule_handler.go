package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/exam-scheduler/internal/dto"
	"github.com/noah-isme/exam-scheduler/internal/middleware"
	"github.com/noah-isme/exam-scheduler/internal/service"
	appErrors "github.com/noah-isme/exam-scheduler/pkg/errors"
	"github.com/noah-isme/exam-scheduler/pkg/response"
)

type examScheduler interface {
	Run(ctx context.Context, req dto.RunExamScheduleRequest) (*dto.ExamScheduleRunResponse, error)
	Submit(ctx context.Context, req dto.RunExamScheduleRequest) (*dto.ExamScheduleRunResponse, error)
	Get(ctx context.Context, runID string) (*dto.ExamScheduleRunResponse, error)
	Export(ctx context.Context, runID string) (*service.ExportResult, error)
	Seats(ctx context.Context, examID string) (*dto.ExamSeatsResponse, error)
}

// ExamScheduleHandler exposes exam scheduling endpoints.
type ExamScheduleHandler struct {
	service examScheduler
}

// NewExamScheduleHandler constructs the handler.
func NewExamScheduleHandler(svc *service.ExamScheduleService) *ExamScheduleHandler {
	return &ExamScheduleHandler{service: svc}
}

// Register mounts the routes on group.
func (h *ExamScheduleHandler) Register(group *gin.RouterGroup) {
	runs := group.Group("/exam-schedules")
	runs.POST("/runs", h.Run)
	runs.POST("/runs/async", h.Submit)
	runs.GET("/runs/:id", h.Get)
	runs.GET("/runs/:id/export", h.Export)
	runs.GET("/exams/:id/seats", h.Seats)
}

// Run godoc
// @Summary Run the exam scheduler
// @Description Places every selected course into a room and time slot, stores the exams and their seat maps, and returns the run report. Courses that cannot be placed are listed under failures.
// @Tags ExamSchedules
// @Accept json
// @Produce json
// @Param payload body dto.RunExamScheduleRequest true "Run configuration"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /exam-schedules/runs [post]
func (h *ExamScheduleHandler) Run(c *gin.Context) {
	req, ok := bindRunRequest(c)
	if !ok {
		return
	}
	result, err := h.service.Run(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "dry_run", result.DryRun)
	response.JSON(c, http.StatusCreated, result, middleware.ExtractMeta(c))
}

// Submit godoc
// @Summary Queue an exam scheduling run
// @Tags ExamSchedules
// @Accept json
// @Produce json
// @Param payload body dto.RunExamScheduleRequest true "Run configuration"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /exam-schedules/runs/async [post]
func (h *ExamScheduleHandler) Submit(c *gin.Context) {
	req, ok := bindRunRequest(c)
	if !ok {
		return
	}
	result, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, gin.H{"runId": result.RunID, "status": result.Status})
}

// Get godoc
// @Summary Get a scheduling run
// @Tags ExamSchedules
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /exam-schedules/runs/{id} [get]
func (h *ExamScheduleHandler) Get(c *gin.Context) {
	result, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "status", result.Status)
	response.JSON(c, http.StatusOK, result, middleware.ExtractMeta(c))
}

// Export godoc
// @Summary Download the schedule of a run as CSV
// @Tags ExamSchedules
// @Produce text/csv
// @Param id path string true "Run ID"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /exam-schedules/runs/{id}/export [get]
func (h *ExamScheduleHandler) Export(c *gin.Context) {
	result, err := h.service.Export(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, result.Filename, result.ContentType, result.Data)
}

// Seats godoc
// @Summary Get the seat map of an exam
// @Tags ExamSchedules
// @Produce json
// @Param id path string true "Exam ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /exam-schedules/exams/{id}/seats [get]
func (h *ExamScheduleHandler) Seats(c *gin.Context) {
	result, err := h.service.Seats(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

func bindRunRequest(c *gin.Context) (dto.RunExamScheduleRequest, bool) {
	var req dto.RunExamScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid run payload"))
		return req, false
	}
	return req, true
}
