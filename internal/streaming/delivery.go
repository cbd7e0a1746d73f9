package streaming

import "github.com/labstack/echo/v4"

type Handler interface {
	StartSession() echo.HandlerFunc
	GetSession() echo.HandlerFunc
	RecordBandwidth() echo.HandlerFunc
	SwitchQuality() echo.HandlerFunc
	ReportBuffering() echo.HandlerFunc
	ReportError() echo.HandlerFunc

	StartDownload() echo.HandlerFunc
	GetDownload() echo.HandlerFunc
	CancelDownload() echo.HandlerFunc

	GetMasterManifest() echo.HandlerFunc
	GetSegment() echo.HandlerFunc
	GetThumbnailTimeline() echo.HandlerFunc
	GetSprite() echo.HandlerFunc
}
