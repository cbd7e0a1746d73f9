package usecase

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"

	"github.com/skobyn/media-core/internal/encoder"
	"github.com/skobyn/media-core/internal/jobs"
	"github.com/skobyn/media-core/internal/models"
)

// retryPolicy builds the per-type backoff: transcode gets exponential
// backoff from its configured initial delay (30s by default), the cheaper
// job types a short constant delay.
func (o *orchestrator) retryPolicy(ctx context.Context, jobType models.JobType) backoff.BackOff {
	var policy backoff.BackOff
	if jobType == models.JobTypeTranscode {
		expo := backoff.NewExponentialBackOff()
		expo.InitialInterval = o.cfg.Orchestrator.TranscodeRetryDelay
		policy = backoff.WithMaxRetries(expo, uint64(o.cfg.Orchestrator.TranscodeRetries))
	} else {
		policy = backoff.WithMaxRetries(
			backoff.NewConstantBackOff(o.cfg.Orchestrator.AuxiliaryRetryDelay),
			uint64(o.cfg.Orchestrator.AuxiliaryRetries))
	}
	return backoff.WithContext(policy, ctx)
}

// execute runs one dequeued job through its retry cycle to a terminal
// status. Jobs cancelled while pending are skipped here because the store
// already shows them terminal.
func (o *orchestrator) execute(jobID string) {
	job, err := o.repo.GetJob(o.ctx, jobID)
	if err != nil {
		if !errors.Is(err, jobs.ErrJobNotFound) {
			o.logger.Errorf("failed to load job %s: %v", jobID, err)
		}
		return
	}
	if job.Status.Terminal() {
		return
	}

	jobCtx, cancelRun := context.WithCancel(o.ctx)
	defer cancelRun()

	o.mu.Lock()
	o.cancels[jobID] = cancelRun
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		delete(o.cancels, jobID)
		o.mu.Unlock()
	}()

	job.Status = models.JobStatusProcessing
	job.StartedAt = time.Now()
	if err := o.repo.SaveJob(o.ctx, job, 0); err != nil {
		o.logger.Errorf("failed to mark job %s processing: %v", jobID, err)
		return
	}

	operation := func() error {
		job.Attempts++
		if job.Attempts > 1 {
			o.logger.Warnf("retrying %s job %s, attempt %d", job.Type, job.ID, job.Attempts)
			if err := o.repo.SaveJob(o.ctx, job, 0); err != nil {
				o.logger.Errorf("failed to persist attempt count for %s: %v", job.ID, err)
			}
		}
		runErr := o.runJob(jobCtx, job)
		if runErr != nil && jobCtx.Err() != nil {
			// Cancelled mid-run; never retry, and keep the cancellation
			// reason instead of the killed subprocess's error.
			return backoff.Permanent(errors.New(cancelledReason))
		}
		return runErr
	}

	if err := backoff.Retry(operation, o.retryPolicy(jobCtx, job.Type)); err != nil {
		o.finish(job, err)
		return
	}
	o.finish(job, nil)
}

// finish records the terminal state and, for a successful transcode,
// fires the completion cascade.
func (o *orchestrator) finish(job *models.ProcessingJob, runErr error) {
	job.CompletedAt = time.Now()
	if runErr != nil {
		job.Status = models.JobStatusFailed
		job.Error = runErr.Error()
		if err := o.repo.SaveJob(o.ctx, job, o.cfg.Orchestrator.FailedRetention); err != nil {
			o.logger.Errorf("failed to persist failed job %s: %v", job.ID, err)
		}
		o.logger.Errorf("%s job %s failed after %d attempts: %v", job.Type, job.ID, job.Attempts, runErr)
		return
	}

	job.Status = models.JobStatusCompleted
	job.Progress = 100
	job.Error = ""
	if err := o.repo.SaveJob(o.ctx, job, o.cfg.Orchestrator.CompletedRetention); err != nil {
		o.logger.Errorf("failed to persist completed job %s: %v", job.ID, err)
	}
	o.logger.Infof("%s job %s completed", job.Type, job.ID)

	if job.Type == models.JobTypeTranscode {
		o.cascade(job)
	}
}

// cascade enqueues the opted-in dependent jobs. They are independent
// queue entries: a failing child never reopens the parent.
func (o *orchestrator) cascade(parent *models.ProcessingJob) {
	children := make([]models.JobType, 0, 3)
	if parent.Options.GenerateThumbnails {
		children = append(children, models.JobTypeThumbnail)
	}
	if parent.Options.ExtractSubtitles {
		children = append(children, models.JobTypeSubtitle)
	}
	if parent.Options.GeneratePreview {
		children = append(children, models.JobTypePreview)
	}

	for _, childType := range children {
		child, err := o.Submit(o.ctx, &models.JobSubmitInput{
			Type:      childType,
			Input:     parent.Input,
			OutputDir: parent.OutputDir,
		})
		if err != nil {
			o.logger.Warnf("failed to enqueue %s child of %s: %v", childType, parent.ID, err)
			continue
		}
		child.ParentID = parent.ID
		if err := o.repo.SaveJob(o.ctx, child, 0); err != nil {
			o.logger.Errorf("failed to link child job %s: %v", child.ID, err)
		}
	}
}

// runJob dispatches one attempt to the engine.
func (o *orchestrator) runJob(ctx context.Context, job *models.ProcessingJob) error {
	switch job.Type {
	case models.JobTypeTranscode:
		return o.runTranscode(ctx, job)
	case models.JobTypeThumbnail:
		return o.engine.GenerateThumbnails(ctx, job.Input, job.OutputDir)
	case models.JobTypeSubtitle:
		return o.engine.ExtractSubtitles(ctx, job.Input, job.OutputDir)
	case models.JobTypePreview:
		return o.engine.GeneratePreview(ctx, job.Input, job.OutputDir)
	default:
		return errors.Errorf("unknown job type: %s", job.Type)
	}
}

// runTranscode drives the engine and mirrors its progress stream into the
// persisted record.
func (o *orchestrator) runTranscode(ctx context.Context, job *models.ProcessingJob) error {
	names := job.Options.ProfileNames
	var profiles []models.TranscodingProfile
	if len(names) == 0 {
		profiles = models.DefaultProfiles()
	} else {
		var err error
		profiles, err = models.ProfilesByName(names)
		if err != nil {
			return backoff.Permanent(err)
		}
	}

	_, events := o.engine.Transcode(ctx, job.Input, job.OutputDir, profiles)

	var failure string
	for event := range events {
		switch event.Type {
		case encoder.EventJobProgress:
			if event.Percent > job.Progress {
				job.Progress = event.Percent
				if err := o.repo.SaveJob(o.ctx, job, 0); err != nil {
					o.logger.Errorf("failed to persist progress for %s: %v", job.ID, err)
				}
			}
		case encoder.EventProfileProgress:
			o.logger.Debugf("job %s profile %s at %d%%", job.ID, event.Profile, event.Percent)
		case encoder.EventProfileComplete:
			o.logger.Infof("job %s profile %s done", job.ID, event.Profile)
		case encoder.EventFailed:
			failure = event.Error
		}
	}

	if failure != "" {
		return errors.New(failure)
	}
	return nil
}
