package streaming

import (
	"context"

	"github.com/pkg/errors"

	"github.com/skobyn/media-core/internal/models"
)

var (
	// ErrSessionNotFound covers operations on expired or unknown
	// sessions; handlers log and no-op rather than fail playback.
	ErrSessionNotFound = errors.New("streaming session not found")
	// ErrQualityUnavailable is the download validation failure for a
	// rendition that was never produced.
	ErrQualityUnavailable = errors.New("requested quality unavailable")
	// ErrLicenseExpired marks a download past its license window.
	ErrLicenseExpired = errors.New("download license expired")
	// ErrDownloadNotFound covers unknown download ids.
	ErrDownloadNotFound = errors.New("download not found")
	// ErrDownloadFinished rejects cancellation of a download that
	// already reached a terminal status.
	ErrDownloadFinished = errors.New("download already finished")
)

// UseCase is the adaptive streaming session manager: per-viewer bandwidth
// tracking, quality recommendations, playback telemetry and the offline
// download lifecycle.
type UseCase interface {
	Start()
	Stop()

	StartSession(ctx context.Context, input *models.SessionStartInput) (*models.StreamingSession, error)
	GetSession(ctx context.Context, sessionID string) (*models.StreamingSession, error)
	RecordBandwidth(ctx context.Context, sessionID string, input *models.BandwidthInput) (*models.StreamingSession, error)
	RecommendQuality(ctx context.Context, sessionID string) (*models.QualityHint, error)
	SwitchQuality(ctx context.Context, sessionID string, input *models.QualitySwitchInput) (*models.StreamingSession, error)
	ReportBuffering(ctx context.Context, sessionID string, input *models.BufferingInput) (*models.QualityHint, error)
	ReportError(ctx context.Context, sessionID string, input *models.ErrorReportInput) error

	StartDownload(ctx context.Context, input *models.DownloadInput) (*models.OfflineDownload, error)
	GetDownload(ctx context.Context, downloadID string) (*models.OfflineDownload, error)
	CancelDownload(ctx context.Context, downloadID string) error
}

// ContentResolver maps a video id onto the transcoding engine's output
// layout: its quality ladder and rendition segment sizes.
type ContentResolver interface {
	Ladder(ctx context.Context, videoID string) ([]models.QualityLevel, error)
	RenditionSize(ctx context.Context, videoID, quality string) (int64, error)
}
