package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/memberportal/backend/internal/infrastructure/scheduler"
	"github.com/memberportal/backend/internal/interfaces/http/dto"
)

// JobRunner lists and triggers background jobs
type JobRunner interface {
	Jobs() []scheduler.JobStatus
	RunNow(ctx context.Context, name string) error
}

// JobHandler lets admins inspect and trigger background jobs
type JobHandler struct {
	BaseHandler
	runner JobRunner
}

// NewJobHandler creates a new JobHandler. A nil runner means the
// scheduler is disabled and every endpoint answers 503.
func NewJobHandler(runner JobRunner) *JobHandler {
	return &JobHandler{runner: runner}
}

// List godoc
// @Summary      Background job status
// @Tags         admin
// @Produce      json
// @Success      200 {object} dto.Response{data=[]scheduler.JobStatus}
// @Failure      503 {object} dto.Response "Scheduler disabled"
// @Security     BearerAuth
// @Router       /admin/jobs [get]
func (h *JobHandler) List(c *gin.Context) {
	if !h.enabled(c) {
		return
	}
	h.Success(c, h.runner.Jobs())
}

// Run godoc
// @Summary      Run a background job now
// @Tags         admin
// @Produce      json
// @Param        name path string true "Job name"
// @Success      200 {object} dto.Response{data=scheduler.JobStatus}
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response "Job already running"
// @Security     BearerAuth
// @Router       /admin/jobs/{name}/run [post]
func (h *JobHandler) Run(c *gin.Context) {
	if !h.enabled(c) {
		return
	}
	name := c.Param("name")
	err := h.runner.RunNow(c.Request.Context(), name)
	switch {
	case errors.Is(err, scheduler.ErrJobNotFound):
		h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, "Job not found")
		return
	case errors.Is(err, scheduler.ErrJobRunning):
		h.ErrorWithCode(c, dto.ErrCodeJobRunning, "Job is already running")
		return
	}
	// a failed run is recorded in the job status rather than returned as an error
	for _, st := range h.runner.Jobs() {
		if st.Name == name {
			h.Success(c, st)
			return
		}
	}
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, "Job not found")
}

func (h *JobHandler) enabled(c *gin.Context) bool {
	if h.runner == nil {
		h.ErrorWithCode(c, dto.ErrCodeSchedulerDisabled, "Background jobs are disabled")
		return false
	}
	return true
}
