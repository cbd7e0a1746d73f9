package http

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/skobyn/media-core/internal/config"
	"github.com/skobyn/media-core/internal/encoder"
	"github.com/skobyn/media-core/internal/models"
	"github.com/skobyn/media-core/internal/streaming"
	"github.com/skobyn/media-core/pkg/logger"
)

type streamingHandler struct {
	cfg     *config.Config
	useCase streaming.UseCase
	logger  logger.Logger
}

func NewStreamingHandler(cfg *config.Config, useCase streaming.UseCase, logger logger.Logger) streaming.Handler {
	return &streamingHandler{
		cfg:     cfg,
		useCase: useCase,
		logger:  logger,
	}
}

func (h *streamingHandler) StartSession() echo.HandlerFunc {
	return func(c echo.Context) error {
		input := &models.SessionStartInput{}
		if err := c.Bind(input); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
		}
		session, err := h.useCase.StartSession(c.Request().Context(), input)
		if err != nil {
			if errors.Is(err, streaming.ErrQualityUnavailable) {
				return c.JSON(http.StatusNotFound, map[string]string{"error": "Video not found"})
			}
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusCreated, session)
	}
}

func (h *streamingHandler) GetSession() echo.HandlerFunc {
	return func(c echo.Context) error {
		session, err := h.useCase.GetSession(c.Request().Context(), c.Param("session_id"))
		if err != nil {
			return h.sessionError(c, err)
		}
		return c.JSON(http.StatusOK, session)
	}
}

// RecordBandwidth also returns the current recommendation so players get
// telemetry and guidance in one round trip.
func (h *streamingHandler) RecordBandwidth() echo.HandlerFunc {
	return func(c echo.Context) error {
		input := &models.BandwidthInput{}
		if err := c.Bind(input); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
		}
		sessionID := c.Param("session_id")
		session, err := h.useCase.RecordBandwidth(c.Request().Context(), sessionID, input)
		if err != nil {
			return h.sessionError(c, err)
		}
		hint, err := h.useCase.RecommendQuality(c.Request().Context(), sessionID)
		if err != nil {
			return h.sessionError(c, err)
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"session":        session,
			"recommendation": hint,
		})
	}
}

func (h *streamingHandler) SwitchQuality() echo.HandlerFunc {
	return func(c echo.Context) error {
		input := &models.QualitySwitchInput{}
		if err := c.Bind(input); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
		}
		session, err := h.useCase.SwitchQuality(c.Request().Context(), c.Param("session_id"), input)
		if err != nil {
			if errors.Is(err, streaming.ErrQualityUnavailable) {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "Requested quality unavailable"})
			}
			return h.sessionError(c, err)
		}
		return c.JSON(http.StatusOK, session)
	}
}

func (h *streamingHandler) ReportBuffering() echo.HandlerFunc {
	return func(c echo.Context) error {
		input := &models.BufferingInput{}
		if err := c.Bind(input); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
		}
		hint, err := h.useCase.ReportBuffering(c.Request().Context(), c.Param("session_id"), input)
		if err != nil {
			return h.sessionError(c, err)
		}
		return c.JSON(http.StatusOK, map[string]interface{}{"recommendation": hint})
	}
}

func (h *streamingHandler) ReportError() echo.HandlerFunc {
	return func(c echo.Context) error {
		input := &models.ErrorReportInput{}
		if err := c.Bind(input); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
		}
		if err := h.useCase.ReportError(c.Request().Context(), c.Param("session_id"), input); err != nil {
			return h.sessionError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func (h *streamingHandler) StartDownload() echo.HandlerFunc {
	return func(c echo.Context) error {
		input := &models.DownloadInput{}
		if err := c.Bind(input); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
		}
		download, err := h.useCase.StartDownload(c.Request().Context(), input)
		if err != nil {
			if errors.Is(err, streaming.ErrQualityUnavailable) {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "Requested quality unavailable"})
			}
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusAccepted, download)
	}
}

func (h *streamingHandler) GetDownload() echo.HandlerFunc {
	return func(c echo.Context) error {
		download, err := h.useCase.GetDownload(c.Request().Context(), c.Param("download_id"))
		if err != nil {
			if errors.Is(err, streaming.ErrDownloadNotFound) {
				return c.JSON(http.StatusNotFound, map[string]string{"error": "Download not found"})
			}
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, download)
	}
}

func (h *streamingHandler) CancelDownload() echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := h.useCase.CancelDownload(c.Request().Context(), c.Param("download_id")); err != nil {
			if errors.Is(err, streaming.ErrDownloadNotFound) {
				return c.JSON(http.StatusNotFound, map[string]string{"error": "Download not found"})
			}
			if errors.Is(err, streaming.ErrDownloadFinished) {
				return c.JSON(http.StatusConflict, map[string]string{"error": "Download already finished"})
			}
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, map[string]interface{}{"cancelled": true})
	}
}

func (h *streamingHandler) GetMasterManifest() echo.HandlerFunc {
	return func(c echo.Context) error {
		return h.serveMedia(c, c.Param("video_id"), encoder.MasterManifestName)
	}
}

func (h *streamingHandler) GetSegment() echo.HandlerFunc {
	return func(c echo.Context) error {
		return h.serveMedia(c, c.Param("video_id"), c.Param("quality"), c.Param("segment"))
	}
}

func (h *streamingHandler) GetThumbnailTimeline() echo.HandlerFunc {
	return func(c echo.Context) error {
		return h.serveMedia(c, c.Param("video_id"), encoder.TimelineName)
	}
}

func (h *streamingHandler) GetSprite() echo.HandlerFunc {
	return func(c echo.Context) error {
		return h.serveMedia(c, c.Param("video_id"), encoder.SpriteName)
	}
}

// serveMedia resolves a file under the media root. Every element is a
// single path component; anything else is a traversal attempt.
func (h *streamingHandler) serveMedia(c echo.Context, elements ...string) error {
	for _, element := range elements {
		if element == "" || element == "." || element == ".." ||
			strings.ContainsAny(element, `/\`) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid media path"})
		}
	}
	path := filepath.Join(append([]string{h.cfg.Media.Root}, elements...)...)
	return c.File(path)
}

func (h *streamingHandler) sessionError(c echo.Context, err error) error {
	if errors.Is(err, streaming.ErrSessionNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Session not found"})
	}
	return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
}
