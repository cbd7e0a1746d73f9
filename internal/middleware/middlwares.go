package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/skobyn/media-core/internal/config"
	"github.com/skobyn/media-core/pkg/logger"
	"github.com/skobyn/media-core/pkg/utils"
)

type MiddlewareManager struct {
	cfg     *config.Config
	origins []string
	logger  logger.Logger
}

// Middleware manager constructor
func NewMiddlewareManager(cfg *config.Config, origins []string, logger logger.Logger) *MiddlewareManager {
	return &MiddlewareManager{cfg: cfg, origins: origins, logger: logger}
}

// RequestLoggerMiddleware logs method, uri, status and latency per request.
func (mw *MiddlewareManager) RequestLoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		req := c.Request()
		res := c.Response()
		mw.logger.Infof("RequestID: %s, Method: %s, URI: %s, Status: %v, Size: %v, Time: %s, IP: %s",
			utils.GetRequestID(c), req.Method, req.URL, res.Status, res.Size, time.Since(start), utils.GetIPAddress(c),
		)
		return err
	}
}
