package jobs

import (
	"context"
	"time"

	"github.com/skobyn/media-core/internal/models"
	"github.com/skobyn/media-core/pkg/utils"
)

// Repository persists job records as TTL-bounded job:{id} documents. The
// store is the single source of truth for job state.
type Repository interface {
	SaveJob(ctx context.Context, job *models.ProcessingJob, ttl time.Duration) error
	GetJob(ctx context.Context, jobID string) (*models.ProcessingJob, error)
	ListJobs(ctx context.Context, pagination *utils.Pagination) (*models.JobList, error)
	DeleteJob(ctx context.Context, jobID string) error
	// MarkFailedIfActive atomically fails a record only while it is still
	// non-terminal, so a cancel can never move a finished job backwards.
	// Returns false when the record is already terminal.
	MarkFailedIfActive(ctx context.Context, jobID, reason string, ttl time.Duration) (bool, error)
	SweepExpired(ctx context.Context, completedBefore, failedBefore time.Time) (int, error)
}
