package models

import "time"

type DownloadStatus string

const (
	DownloadStatusPending     DownloadStatus = "pending"
	DownloadStatusDownloading DownloadStatus = "downloading"
	DownloadStatusCompleted   DownloadStatus = "completed"
	DownloadStatusFailed      DownloadStatus = "failed"
	DownloadStatusExpired     DownloadStatus = "expired"
)

// OfflineDownload tracks a DRM-gated offline copy of one rendition.
// DownloadedBytes never exceeds Size and status only moves forward:
// pending -> downloading -> {completed|failed}. A download past ExpiresAt
// is unusable regardless of stored status.
type OfflineDownload struct {
	ID              string         `json:"download_id" redis:"download_id"`
	ViewerID        string         `json:"viewer_id" redis:"viewer_id" validate:"required"`
	VideoID         string         `json:"video_id" redis:"video_id" validate:"required"`
	Quality         string         `json:"quality" redis:"quality" validate:"required"`
	Size            int64          `json:"size" redis:"size"`
	DownloadedBytes int64          `json:"downloaded_bytes" redis:"downloaded_bytes"`
	Status          DownloadStatus `json:"status" redis:"status"`
	ExpiresAt       time.Time      `json:"expires_at" redis:"expires_at"`
	License         string         `json:"license,omitempty" redis:"license"`
	CreatedAt       time.Time      `json:"created_at" redis:"created_at"`
}

// License is the payload sealed into the opaque token handed to download
// clients. Stub for the external DRM system's issuance interface.
type License struct {
	ViewerID string    `json:"viewer_id"`
	VideoID  string    `json:"video_id"`
	IssuedAt time.Time `json:"issued_at"`
	Expires  time.Time `json:"expires"`
}
