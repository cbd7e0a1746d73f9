package http

import (
	"github.com/labstack/echo/v4"

	"github.com/skobyn/media-core/internal/streaming"
)

func MapStreamingRoutes(sessionGroup, downloadGroup, videoGroup *echo.Group, h streaming.Handler) {
	sessionGroup.POST("", h.StartSession())
	sessionGroup.GET("/:session_id", h.GetSession())
	sessionGroup.POST("/:session_id/bandwidth", h.RecordBandwidth())
	sessionGroup.POST("/:session_id/quality", h.SwitchQuality())
	sessionGroup.POST("/:session_id/buffering", h.ReportBuffering())
	sessionGroup.POST("/:session_id/error", h.ReportError())

	downloadGroup.POST("", h.StartDownload())
	downloadGroup.GET("/:download_id", h.GetDownload())
	downloadGroup.DELETE("/:download_id", h.CancelDownload())

	videoGroup.GET("/:video_id/master.m3u8", h.GetMasterManifest())
	videoGroup.GET("/:video_id/thumbnails.vtt", h.GetThumbnailTimeline())
	videoGroup.GET("/:video_id/sprite.jpg", h.GetSprite())
	videoGroup.GET("/:video_id/:quality/:segment", h.GetSegment())
}
