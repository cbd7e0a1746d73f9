package http

import (
	"github.com/labstack/echo/v4"

	"github.com/skobyn/media-core/internal/jobs"
)

func MapJobRoutes(jobGroup *echo.Group, h jobs.Handler) {
	jobGroup.POST("", h.SubmitJob())
	jobGroup.GET("", h.ListJobs())
	jobGroup.GET("/:job_id", h.GetJob())
	jobGroup.DELETE("/:job_id", h.CancelJob())
}
