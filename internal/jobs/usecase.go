package jobs

import (
	"context"

	"github.com/pkg/errors"

	"github.com/skobyn/media-core/internal/models"
	"github.com/skobyn/media-core/pkg/utils"
)

var (
	// ErrQueueFull is returned at submission time when a queue is at
	// capacity; the caller must retry later.
	ErrQueueFull = errors.New("job queue at capacity")
	// ErrJobNotFound covers status queries for unknown or swept jobs.
	ErrJobNotFound = errors.New("job not found")
)

// Orchestrator owns the full lifecycle of processing jobs across the four
// typed queues: submission, scheduling, retries, cancellation and
// retention.
type Orchestrator interface {
	Start()
	Stop()
	Submit(ctx context.Context, input *models.JobSubmitInput) (*models.ProcessingJob, error)
	GetStatus(ctx context.Context, jobID string) (*models.ProcessingJob, error)
	List(ctx context.Context, pagination *utils.Pagination) (*models.JobList, error)
	Cancel(ctx context.Context, jobID string) (bool, error)
}
