package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/skobyn/media-core/internal/jobs"
	"github.com/skobyn/media-core/internal/models"
	"github.com/skobyn/media-core/pkg/utils"
)

const jobKeyPrefix = "job:"

type jobRedisRepo struct {
	redisClient *redis.Client
}

func NewJobRedisRepo(redisClient *redis.Client) jobs.Repository {
	return &jobRedisRepo{
		redisClient: redisClient,
	}
}

func jobKey(jobID string) string {
	return jobKeyPrefix + jobID
}

func (r *jobRedisRepo) SaveJob(ctx context.Context, job *models.ProcessingJob, ttl time.Duration) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	if err := r.redisClient.Set(ctx, jobKey(job.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}
	return nil
}

func (r *jobRedisRepo) GetJob(ctx context.Context, jobID string) (*models.ProcessingJob, error) {
	data, err := r.redisClient.Get(ctx, jobKey(jobID)).Result()
	if err == redis.Nil {
		return nil, jobs.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	job := &models.ProcessingJob{}
	if err := json.Unmarshal([]byte(data), job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return job, nil
}

func (r *jobRedisRepo) ListJobs(ctx context.Context, pagination *utils.Pagination) (*models.JobList, error) {
	all, err := r.scanJobs(ctx)
	if err != nil {
		return nil, err
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := len(all)
	offset := pagination.GetOffset()
	if offset > total {
		offset = total
	}
	end := offset + pagination.GetLimit()
	if end > total {
		end = total
	}

	return &models.JobList{
		Jobs:       all[offset:end],
		TotalCount: total,
		Page:       pagination.Page,
		PageSize:   pagination.Size,
		HasMore:    utils.GetHasMore(pagination.Page, total, pagination.Size),
	}, nil
}

func (r *jobRedisRepo) DeleteJob(ctx context.Context, jobID string) error {
	if err := r.redisClient.Del(ctx, jobKey(jobID)).Err(); err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	return nil
}

// MarkFailedIfActive fails a non-terminal record under optimistic locking:
// the key is watched, and a concurrent write (a worker finishing the job)
// aborts the transaction and triggers a re-read that then sees the
// terminal status.
func (r *jobRedisRepo) MarkFailedIfActive(ctx context.Context, jobID, reason string, ttl time.Duration) (bool, error) {
	key := jobKey(jobID)
	marked := false
	txn := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Result()
		if err == redis.Nil {
			return jobs.ErrJobNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get job: %w", err)
		}
		job := &models.ProcessingJob{}
		if err := json.Unmarshal([]byte(data), job); err != nil {
			return fmt.Errorf("failed to unmarshal job: %w", err)
		}
		if job.Status.Terminal() {
			return nil
		}
		job.Status = models.JobStatusFailed
		job.Error = reason
		job.CompletedAt = time.Now()
		updated, err := json.Marshal(job)
		if err != nil {
			return fmt.Errorf("failed to marshal job: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, ttl)
			return nil
		})
		if err != nil {
			return err
		}
		marked = true
		return nil
	}

	for {
		marked = false
		err := r.redisClient.Watch(ctx, txn, key)
		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			return false, err
		}
		return marked, nil
	}
}

// SweepExpired removes terminal records past their retention windows.
// TTLs set at terminal transitions normally handle this; the sweep catches
// records written before a TTL could be applied.
func (r *jobRedisRepo) SweepExpired(ctx context.Context, completedBefore, failedBefore time.Time) (int, error) {
	all, err := r.scanJobs(ctx)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, job := range all {
		if job.CompletedAt.IsZero() {
			continue
		}
		expired := (job.Status == models.JobStatusCompleted && job.CompletedAt.Before(completedBefore)) ||
			(job.Status == models.JobStatusFailed && job.CompletedAt.Before(failedBefore))
		if !expired {
			continue
		}
		if err := r.DeleteJob(ctx, job.ID); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func (r *jobRedisRepo) scanJobs(ctx context.Context) ([]*models.ProcessingJob, error) {
	var (
		cursor uint64
		out    []*models.ProcessingJob
	)
	for {
		keys, next, err := r.redisClient.Scan(ctx, cursor, jobKeyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan jobs: %w", err)
		}
		for _, key := range keys {
			data, err := r.redisClient.Get(ctx, key).Result()
			if err == redis.Nil {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("failed to get job %s: %w", key, err)
			}
			job := &models.ProcessingJob{}
			if err := json.Unmarshal([]byte(data), job); err != nil {
				// Skip corrupt records instead of failing the listing.
				continue
			}
			out = append(out, job)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return out, nil
}
