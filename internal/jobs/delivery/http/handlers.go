package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/skobyn/media-core/internal/jobs"
	"github.com/skobyn/media-core/internal/models"
	"github.com/skobyn/media-core/pkg/logger"
	"github.com/skobyn/media-core/pkg/utils"
)

type jobHandler struct {
	orchestrator jobs.Orchestrator
	logger       logger.Logger
}

func NewJobHandler(orchestrator jobs.Orchestrator, logger logger.Logger) jobs.Handler {
	return &jobHandler{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

func (h *jobHandler) SubmitJob() echo.HandlerFunc {
	return func(c echo.Context) error {
		input := &models.JobSubmitInput{}
		if err := c.Bind(input); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
		}
		job, err := h.orchestrator.Submit(c.Request().Context(), input)
		if err != nil {
			if errors.Is(err, jobs.ErrQueueFull) {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
			}
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusAccepted, job)
	}
}

func (h *jobHandler) GetJob() echo.HandlerFunc {
	return func(c echo.Context) error {
		job, err := h.orchestrator.GetStatus(c.Request().Context(), c.Param("job_id"))
		if err != nil {
			if errors.Is(err, jobs.ErrJobNotFound) {
				return c.JSON(http.StatusNotFound, map[string]string{"error": "Job not found"})
			}
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, job)
	}
}

func (h *jobHandler) ListJobs() echo.HandlerFunc {
	return func(c echo.Context) error {
		pagination, err := utils.GetPaginationFromCtx(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		list, err := h.orchestrator.List(c.Request().Context(), pagination)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, list)
	}
}

func (h *jobHandler) CancelJob() echo.HandlerFunc {
	return func(c echo.Context) error {
		cancelled, err := h.orchestrator.Cancel(c.Request().Context(), c.Param("job_id"))
		if err != nil {
			if errors.Is(err, jobs.ErrJobNotFound) {
				return c.JSON(http.StatusNotFound, map[string]string{"error": "Job not found"})
			}
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		if !cancelled {
			return c.JSON(http.StatusConflict, map[string]interface{}{"cancelled": false, "error": "Job already terminal"})
		}
		return c.JSON(http.StatusOK, map[string]interface{}{"cancelled": true})
	}
}
