package usecase

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/skobyn/media-core/internal/config"
	"github.com/skobyn/media-core/internal/encoder"
	"github.com/skobyn/media-core/internal/jobs"
	"github.com/skobyn/media-core/internal/models"
	"github.com/skobyn/media-core/pkg/logger"
	"github.com/skobyn/media-core/pkg/utils"
)

const (
	cancelledReason  = "cancelled by caller"
	cpuCheckInterval = 10 * time.Second
)

type orchestrator struct {
	cfg    *config.Config
	repo   jobs.Repository
	engine encoder.Engine
	logger logger.Logger

	queues map[models.JobType]chan string

	mu      sync.Mutex
	cancels map[string]context.CancelFunc

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewOrchestrator(cfg *config.Config, repo jobs.Repository, engine encoder.Engine, log logger.Logger) jobs.Orchestrator {
	o := &orchestrator{
		cfg:     cfg,
		repo:    repo,
		engine:  engine,
		logger:  log,
		cancels: make(map[string]context.CancelFunc),
	}
	o.queues = map[models.JobType]chan string{
		models.JobTypeTranscode: make(chan string, cfg.Orchestrator.Transcode.Capacity),
		models.JobTypeThumbnail: make(chan string, cfg.Orchestrator.Thumbnail.Capacity),
		models.JobTypeSubtitle:  make(chan string, cfg.Orchestrator.Subtitle.Capacity),
		models.JobTypePreview:   make(chan string, cfg.Orchestrator.Preview.Capacity),
	}
	return o
}

func (o *orchestrator) concurrency(t models.JobType) int {
	switch t {
	case models.JobTypeTranscode:
		return o.cfg.Orchestrator.Transcode.Concurrency
	case models.JobTypeThumbnail:
		return o.cfg.Orchestrator.Thumbnail.Concurrency
	case models.JobTypeSubtitle:
		return o.cfg.Orchestrator.Subtitle.Concurrency
	default:
		return o.cfg.Orchestrator.Preview.Concurrency
	}
}

// Start launches the per-queue worker pools and the retention sweeper.
func (o *orchestrator) Start() {
	o.ctx, o.cancel = context.WithCancel(context.Background())

	for jobType, queue := range o.queues {
		for i := 0; i < o.concurrency(jobType); i++ {
			o.wg.Add(1)
			go o.worker(jobType, queue)
		}
	}

	o.wg.Add(1)
	go o.sweeper()

	o.logger.Infof("orchestrator started: transcode=%d thumbnail=%d subtitle=%d preview=%d workers",
		o.cfg.Orchestrator.Transcode.Concurrency,
		o.cfg.Orchestrator.Thumbnail.Concurrency,
		o.cfg.Orchestrator.Subtitle.Concurrency,
		o.cfg.Orchestrator.Preview.Concurrency)
}

func (o *orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
	o.logger.Info("orchestrator stopped")
}

// Submit validates the request, persists the pending record and enqueues
// it. Returns immediately; a full queue is reported as ErrQueueFull and
// the record is rolled back.
func (o *orchestrator) Submit(ctx context.Context, input *models.JobSubmitInput) (*models.ProcessingJob, error) {
	if input.Type == "" {
		input.Type = models.JobTypeTranscode
	}
	if err := utils.ValidateStruct(ctx, input); err != nil {
		return nil, err
	}
	if input.Type == models.JobTypeTranscode && len(input.Options.ProfileNames) > 0 {
		if _, err := models.ProfilesByName(input.Options.ProfileNames); err != nil {
			return nil, err
		}
	}

	job := &models.ProcessingJob{
		ID:        uuid.New().String(),
		Type:      input.Type,
		Input:     input.Input,
		OutputDir: input.OutputDir,
		Options:   input.Options,
		Status:    models.JobStatusPending,
		CreatedAt: time.Now(),
	}
	if job.OutputDir == "" {
		job.OutputDir = filepath.Join(o.cfg.Media.Root, job.ID)
	}

	if err := o.repo.SaveJob(ctx, job, 0); err != nil {
		return nil, err
	}

	select {
	case o.queues[job.Type] <- job.ID:
	default:
		if err := o.repo.DeleteJob(ctx, job.ID); err != nil {
			o.logger.Errorf("failed to roll back job %s after full queue: %v", job.ID, err)
		}
		return nil, jobs.ErrQueueFull
	}

	o.logger.Infof("submitted %s job %s for %s", job.Type, job.ID, job.Input)
	return job, nil
}

func (o *orchestrator) GetStatus(ctx context.Context, jobID string) (*models.ProcessingJob, error) {
	return o.repo.GetJob(ctx, jobID)
}

func (o *orchestrator) List(ctx context.Context, pagination *utils.Pagination) (*models.JobList, error) {
	if pagination == nil {
		pagination = &utils.Pagination{Page: 1, Size: 10}
	}
	return o.repo.ListJobs(ctx, pagination)
}

// Cancel removes a pending job from consideration or signals the running
// encoder to terminate. Terminal jobs report false. The failed status is
// written conditionally in the store so a job completing at the same
// instant keeps its completed state.
func (o *orchestrator) Cancel(ctx context.Context, jobID string) (bool, error) {
	o.mu.Lock()
	if cancelRun, ok := o.cancels[jobID]; ok {
		cancelRun()
	}
	o.mu.Unlock()

	cancelled, err := o.repo.MarkFailedIfActive(ctx, jobID, cancelledReason, o.cfg.Orchestrator.FailedRetention)
	if err != nil {
		return false, err
	}
	if cancelled {
		o.logger.Infof("cancelled job %s", jobID)
	}
	return cancelled, nil
}

func (o *orchestrator) worker(jobType models.JobType, queue <-chan string) {
	defer o.wg.Done()
	for {
		select {
		case <-o.ctx.Done():
			return
		case jobID := <-queue:
			if jobType == models.JobTypeTranscode {
				if !o.waitForCPUHeadroom() {
					return
				}
			}
			o.execute(jobID)
		}
	}
}

// waitForCPUHeadroom blocks a transcode worker while the host is too
// loaded to take another encode. Returns false on shutdown.
func (o *orchestrator) waitForCPUHeadroom() bool {
	for {
		if canAccept, usage := utils.CheckCPUUsage(o.cfg.Orchestrator.MaxCPUUsage); canAccept {
			return true
		} else {
			o.logger.Infof("CPU usage is high: %.2f%%, waiting", usage)
		}
		select {
		case <-o.ctx.Done():
			return false
		case <-time.After(cpuCheckInterval):
		}
	}
}

func (o *orchestrator) sweeper() {
	defer o.wg.Done()
	ticker := time.NewTicker(o.cfg.Orchestrator.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-o.ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			removed, err := o.repo.SweepExpired(o.ctx,
				now.Add(-o.cfg.Orchestrator.CompletedRetention),
				now.Add(-o.cfg.Orchestrator.FailedRetention))
			if err != nil {
				o.logger.Errorf("job sweep failed: %v", err)
				continue
			}
			if removed > 0 {
				o.logger.Infof("job sweep removed %d expired records", removed)
			}
		}
	}
}
