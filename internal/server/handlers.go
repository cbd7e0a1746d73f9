package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	jobsHttp "github.com/skobyn/media-core/internal/jobs/delivery/http"
	"github.com/skobyn/media-core/internal/middleware"
	streamingHttp "github.com/skobyn/media-core/internal/streaming/delivery/http"
	"github.com/skobyn/media-core/pkg/utils"
)

func (s *Server) MapHandlers(e *echo.Echo) error {
	jobHandlers := jobsHttp.NewJobHandler(s.orchestrator, s.logger)
	streamingHandlers := streamingHttp.NewStreamingHandler(s.cfg, s.sessions, s.logger)

	mw := middleware.NewMiddlewareManager(s.cfg, []string{"*"}, s.logger)
	e.Use(echoMiddleware.RequestID())
	e.Use(mw.RequestLoggerMiddleware)

	v1 := e.Group("/api/v1")
	health := v1.Group("/health")
	jobGroup := v1.Group("/jobs")
	sessionGroup := v1.Group("/sessions")
	downloadGroup := v1.Group("/downloads")
	videoGroup := v1.Group("/video")

	jobsHttp.MapJobRoutes(jobGroup, jobHandlers)
	streamingHttp.MapStreamingRoutes(sessionGroup, downloadGroup, videoGroup, streamingHandlers)
	health.GET("", func(c echo.Context) error {
		s.logger.Infof("Health check RequestID: %s", utils.GetRequestID(c))
		return c.JSON(http.StatusOK, map[string]string{"status": "OK"})
	})
	return nil
}
