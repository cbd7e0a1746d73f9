package streaming

import (
	"context"
	"time"

	"github.com/skobyn/media-core/internal/models"
)

// Repository persists sessions and downloads as TTL-bounded JSON
// documents (streaming:session:{id}, download:{id}).
type Repository interface {
	SaveSession(ctx context.Context, session *models.StreamingSession, ttl time.Duration) error
	GetSession(ctx context.Context, sessionID string) (*models.StreamingSession, error)
	DeleteSession(ctx context.Context, sessionID string) error
	SweepIdleSessions(ctx context.Context, idleBefore time.Time) (int, error)

	SaveDownload(ctx context.Context, download *models.OfflineDownload, ttl time.Duration) error
	GetDownload(ctx context.Context, downloadID string) (*models.OfflineDownload, error)
}
