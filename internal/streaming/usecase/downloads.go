package usecase

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/skobyn/media-core/internal/models"
	"github.com/skobyn/media-core/internal/streaming"
	"github.com/skobyn/media-core/pkg/utils"
)

// failedDownloadRetention keeps failed and expired download records around
// long enough for clients to observe the outcome.
const failedDownloadRetention = 24 * time.Hour

// StartDownload validates the rendition, sizes it from the encoder output
// and kicks off a background transfer. The license token travels with the
// record so offline clients can verify entitlement without a round trip.
func (m *sessionManager) StartDownload(ctx context.Context, input *models.DownloadInput) (*models.OfflineDownload, error) {
	if err := utils.ValidateStruct(ctx, input); err != nil {
		return nil, errors.Wrap(err, "sessionManager.StartDownload.ValidateStruct")
	}
	ladder, err := m.resolver.Ladder(ctx, input.VideoID)
	if err != nil {
		return nil, err
	}
	if ladderRank(ladder, input.Quality) < 0 {
		return nil, streaming.ErrQualityUnavailable
	}
	size, err := m.resolver.RenditionSize(ctx, input.VideoID, input.Quality)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	download := &models.OfflineDownload{
		ID:        uuid.New().String(),
		ViewerID:  input.ViewerID,
		VideoID:   input.VideoID,
		Quality:   input.Quality,
		Size:      size,
		Status:    models.DownloadStatusPending,
		ExpiresAt: now.Add(m.cfg.Streaming.LicenseTTL),
		License:   issueLicense(input.ViewerID, input.VideoID, now, m.cfg.Streaming.LicenseTTL),
		CreatedAt: now,
	}
	if err := m.repo.SaveDownload(ctx, download, m.cfg.Streaming.LicenseTTL); err != nil {
		return nil, err
	}

	m.wg.Add(1)
	go m.transfer(download.ID)
	m.logger.Infof("download %s started: video=%s quality=%s size=%d", download.ID, download.VideoID, download.Quality, download.Size)
	return download, nil
}

// GetDownload maps a record past its license window to the expired status
// before returning it.
func (m *sessionManager) GetDownload(ctx context.Context, downloadID string) (*models.OfflineDownload, error) {
	m.downloadMu.Lock()
	defer m.downloadMu.Unlock()

	download, err := m.repo.GetDownload(ctx, downloadID)
	if err != nil {
		return nil, err
	}
	if download.Status != models.DownloadStatusExpired && time.Now().After(download.ExpiresAt) {
		download.Status = models.DownloadStatusExpired
		if err := m.repo.SaveDownload(ctx, download, failedDownloadRetention); err != nil {
			m.logger.Warnf("could not persist expiry of download %s: %v", download.ID, err)
		}
	}
	return download, nil
}

// CancelDownload marks an in-flight download failed; the transfer loop
// observes the status on its next tick and stops.
func (m *sessionManager) CancelDownload(ctx context.Context, downloadID string) error {
	m.downloadMu.Lock()
	defer m.downloadMu.Unlock()

	download, err := m.repo.GetDownload(ctx, downloadID)
	if err != nil {
		return err
	}
	switch download.Status {
	case models.DownloadStatusCompleted, models.DownloadStatusFailed, models.DownloadStatusExpired:
		return streaming.ErrDownloadFinished
	}
	download.Status = models.DownloadStatusFailed
	if err := m.repo.SaveDownload(ctx, download, failedDownloadRetention); err != nil {
		return err
	}
	m.logger.Infof("download %s cancelled", download.ID)
	return nil
}

// transfer advances the download by one chunk per tick. The store is the
// source of truth: cancellation and expiry surface as status changes read
// at the top of each tick.
func (m *sessionManager) transfer(downloadID string) {
	defer m.wg.Done()
	ticker := time.NewTicker(m.cfg.Streaming.DownloadTick)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
		}
		if m.advanceTransfer(downloadID) {
			return
		}
	}
}

// advanceTransfer applies one chunk under the download lock so a
// concurrent cancel or expiry write cannot be overwritten mid-tick.
// Reports whether the transfer loop should stop.
func (m *sessionManager) advanceTransfer(downloadID string) bool {
	m.downloadMu.Lock()
	defer m.downloadMu.Unlock()

	download, err := m.repo.GetDownload(m.ctx, downloadID)
	if err != nil {
		if !errors.Is(err, streaming.ErrDownloadNotFound) {
			m.logger.Errorf("download %s transfer aborted: %v", downloadID, err)
		}
		return true
	}
	switch download.Status {
	case models.DownloadStatusCompleted, models.DownloadStatusFailed, models.DownloadStatusExpired:
		return true
	}
	if time.Now().After(download.ExpiresAt) {
		download.Status = models.DownloadStatusExpired
		if err := m.repo.SaveDownload(m.ctx, download, failedDownloadRetention); err != nil {
			m.logger.Warnf("could not persist expiry of download %s: %v", download.ID, err)
		}
		return true
	}

	download.Status = models.DownloadStatusDownloading
	download.DownloadedBytes += m.cfg.Streaming.DownloadChunk
	if download.DownloadedBytes >= download.Size {
		download.DownloadedBytes = download.Size
		download.Status = models.DownloadStatusCompleted
	}
	if err := m.repo.SaveDownload(m.ctx, download, time.Until(download.ExpiresAt)); err != nil {
		m.logger.Errorf("could not persist progress of download %s: %v", download.ID, err)
		return true
	}
	if download.Status == models.DownloadStatusCompleted {
		m.logger.Infof("download %s completed: %d bytes", download.ID, download.Size)
		return true
	}
	return false
}

// issueLicense seals the entitlement into an opaque token. Stands in for
// an external DRM issuer.
func issueLicense(viewerID, videoID string, issuedAt time.Time, ttl time.Duration) string {
	payload, err := json.Marshal(models.License{
		ViewerID: viewerID,
		VideoID:  videoID,
		IssuedAt: issuedAt,
		Expires:  issuedAt.Add(ttl),
	})
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(payload)
}
