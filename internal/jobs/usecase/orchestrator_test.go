package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skobyn/media-core/internal/config"
	"github.com/skobyn/media-core/internal/encoder"
	"github.com/skobyn/media-core/internal/jobs"
	"github.com/skobyn/media-core/internal/models"
	"github.com/skobyn/media-core/pkg/logger"
	"github.com/skobyn/media-core/pkg/utils"
)

// memJobRepo is an in-memory stand-in for the redis store.
type memJobRepo struct {
	mu   sync.Mutex
	jobs map[string]models.ProcessingJob
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{jobs: make(map[string]models.ProcessingJob)}
}

func (r *memJobRepo) SaveJob(_ context.Context, job *models.ProcessingJob, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = *job
	return nil
}

func (r *memJobRepo) GetJob(_ context.Context, jobID string) (*models.ProcessingJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return nil, jobs.ErrJobNotFound
	}
	out := job
	return &out, nil
}

func (r *memJobRepo) ListJobs(_ context.Context, pagination *utils.Pagination) (*models.JobList, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := &models.JobList{Page: pagination.Page, PageSize: pagination.Size}
	for _, job := range r.jobs {
		out := job
		list.Jobs = append(list.Jobs, &out)
	}
	list.TotalCount = len(list.Jobs)
	return list, nil
}

func (r *memJobRepo) DeleteJob(_ context.Context, jobID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.jobs, jobID)
	return nil
}

func (r *memJobRepo) MarkFailedIfActive(_ context.Context, jobID, reason string, _ time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return false, jobs.ErrJobNotFound
	}
	if job.Status.Terminal() {
		return false, nil
	}
	job.Status = models.JobStatusFailed
	job.Error = reason
	job.CompletedAt = time.Now()
	r.jobs[jobID] = job
	return true, nil
}

func (r *memJobRepo) SweepExpired(_ context.Context, completedBefore, failedBefore time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, job := range r.jobs {
		if job.Status == models.JobStatusCompleted && !job.CompletedAt.IsZero() && job.CompletedAt.Before(completedBefore) ||
			job.Status == models.JobStatusFailed && !job.CompletedAt.IsZero() && job.CompletedAt.Before(failedBefore) {
			delete(r.jobs, id)
			removed++
		}
	}
	return removed, nil
}

func (r *memJobRepo) byType(t models.JobType) []models.ProcessingJob {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ProcessingJob
	for _, job := range r.jobs {
		if job.Type == t {
			out = append(out, job)
		}
	}
	return out
}

// fakeEngine scripts engine behaviour per job type.
type fakeEngine struct {
	mu        sync.Mutex
	failFirst map[models.JobType]int // fail this many initial attempts
	calls     map[models.JobType]int
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		failFirst: make(map[models.JobType]int),
		calls:     make(map[models.JobType]int),
	}
}

func (f *fakeEngine) attempt(t models.JobType) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[t]++
	return f.calls[t] > f.failFirst[t]
}

func (f *fakeEngine) callCount(t models.JobType) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[t]
}

func (f *fakeEngine) Transcode(_ context.Context, input, outputDir string, profiles []models.TranscodingProfile) (*models.TranscodingJob, <-chan encoder.ProgressEvent) {
	job := &models.TranscodingJob{ID: "engine-job", Input: input, OutputDir: outputDir, Profiles: profiles}
	events := make(chan encoder.ProgressEvent, 8)
	ok := f.attempt(models.JobTypeTranscode)
	go func() {
		defer close(events)
		if !ok {
			events <- encoder.ProgressEvent{Type: encoder.EventFailed, JobID: job.ID, Error: "encoder exploded"}
			return
		}
		total := len(profiles)
		for i := 1; i < total; i++ {
			events <- encoder.ProgressEvent{Type: encoder.EventJobProgress, JobID: job.ID, Percent: 100 * i / total}
		}
		events <- encoder.ProgressEvent{Type: encoder.EventJobProgress, JobID: job.ID, Percent: 100}
		events <- encoder.ProgressEvent{Type: encoder.EventCompleted, JobID: job.ID, Percent: 100}
	}()
	return job, events
}

func (f *fakeEngine) GenerateThumbnails(context.Context, string, string) error {
	if !f.attempt(models.JobTypeThumbnail) {
		return assert.AnError
	}
	return nil
}

func (f *fakeEngine) ExtractSubtitles(context.Context, string, string) error {
	if !f.attempt(models.JobTypeSubtitle) {
		return assert.AnError
	}
	return nil
}

func (f *fakeEngine) GeneratePreview(context.Context, string, string) error {
	if !f.attempt(models.JobTypePreview) {
		return assert.AnError
	}
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Media: config.MediaConfig{Root: "/tmp/media"},
		Orchestrator: config.OrchestratorConfig{
			Transcode:           config.QueueConfig{Concurrency: 2, Capacity: 8},
			Thumbnail:           config.QueueConfig{Concurrency: 2, Capacity: 8},
			Subtitle:            config.QueueConfig{Concurrency: 2, Capacity: 8},
			Preview:             config.QueueConfig{Concurrency: 2, Capacity: 8},
			MaxCPUUsage:         100,
			SweepInterval:       time.Hour,
			CompletedRetention:  24 * time.Hour,
			FailedRetention:     7 * 24 * time.Hour,
			TranscodeRetries:    3,
			TranscodeRetryDelay: time.Millisecond,
			AuxiliaryRetries:    2,
			AuxiliaryRetryDelay: time.Millisecond,
		},
	}
}

func newTestOrchestrator(t *testing.T, engine encoder.Engine) (jobs.Orchestrator, *memJobRepo) {
	t.Helper()
	repo := newMemJobRepo()
	o := NewOrchestrator(testConfig(), repo, engine, logger.NewNopLogger())
	o.Start()
	t.Cleanup(o.Stop)
	return o, repo
}

func waitForStatus(t *testing.T, repo *memJobRepo, jobID string, want models.JobStatus) *models.ProcessingJob {
	t.Helper()
	var got *models.ProcessingJob
	require.Eventually(t, func() bool {
		job, err := repo.GetJob(context.Background(), jobID)
		if err != nil {
			return false
		}
		got = job
		return job.Status == want
	}, 5*time.Second, 10*time.Millisecond)
	return got
}

func TestSubmitAndComplete(t *testing.T) {
	o, repo := newTestOrchestrator(t, newFakeEngine())

	job, err := o.Submit(context.Background(), &models.JobSubmitInput{
		Input:   "/in/lecture.mp4",
		Options: models.JobOptions{ProfileNames: []string{"240p", "720p"}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.JobTypeTranscode, job.Type)
	assert.NotEmpty(t, job.OutputDir)

	done := waitForStatus(t, repo, job.ID, models.JobStatusCompleted)
	assert.Equal(t, 100, done.Progress)
	assert.Empty(t, done.Error)
	assert.Equal(t, 1, done.Attempts)
}

func TestSubmitUnknownProfile(t *testing.T) {
	o, _ := newTestOrchestrator(t, newFakeEngine())

	_, err := o.Submit(context.Background(), &models.JobSubmitInput{
		Input:   "/in/a.mp4",
		Options: models.JobOptions{ProfileNames: []string{"9000p"}},
	})
	assert.Error(t, err)
}

func TestQueueCapacityExceeded(t *testing.T) {
	cfg := testConfig()
	cfg.Orchestrator.Preview.Capacity = 1
	repo := newMemJobRepo()
	// Not started: nothing drains the queue.
	o := NewOrchestrator(cfg, repo, newFakeEngine(), logger.NewNopLogger())

	_, err := o.Submit(context.Background(), &models.JobSubmitInput{Type: models.JobTypePreview, Input: "/in/a.mp4"})
	require.NoError(t, err)

	_, err = o.Submit(context.Background(), &models.JobSubmitInput{Type: models.JobTypePreview, Input: "/in/b.mp4"})
	assert.ErrorIs(t, err, jobs.ErrQueueFull)

	// The rejected record must not linger in the store.
	list, err := repo.ListJobs(context.Background(), &utils.Pagination{Page: 1, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, list.TotalCount)
}

func TestTranscodeRetriesThenSucceeds(t *testing.T) {
	engine := newFakeEngine()
	engine.failFirst[models.JobTypeTranscode] = 2
	o, repo := newTestOrchestrator(t, engine)

	job, err := o.Submit(context.Background(), &models.JobSubmitInput{Input: "/in/retry.mp4"})
	require.NoError(t, err)

	done := waitForStatus(t, repo, job.ID, models.JobStatusCompleted)
	assert.Equal(t, 3, done.Attempts)
}

func TestRetryExhaustionIsTerminal(t *testing.T) {
	engine := newFakeEngine()
	engine.failFirst[models.JobTypeThumbnail] = 100
	o, repo := newTestOrchestrator(t, engine)

	job, err := o.Submit(context.Background(), &models.JobSubmitInput{Type: models.JobTypeThumbnail, Input: "/in/bad.mp4"})
	require.NoError(t, err)

	done := waitForStatus(t, repo, job.ID, models.JobStatusFailed)
	// Initial attempt plus two retries.
	assert.Equal(t, 3, done.Attempts)
	assert.NotEmpty(t, done.Error)
	assert.Equal(t, 3, engine.callCount(models.JobTypeThumbnail))
}

func TestCompletionCascade(t *testing.T) {
	engine := newFakeEngine()
	o, repo := newTestOrchestrator(t, engine)

	job, err := o.Submit(context.Background(), &models.JobSubmitInput{
		Input: "/in/full.mp4",
		Options: models.JobOptions{
			GenerateThumbnails: true,
			ExtractSubtitles:   true,
			GeneratePreview:    true,
		},
	})
	require.NoError(t, err)
	waitForStatus(t, repo, job.ID, models.JobStatusCompleted)

	for _, childType := range []models.JobType{models.JobTypeThumbnail, models.JobTypeSubtitle, models.JobTypePreview} {
		require.Eventually(t, func() bool {
			children := repo.byType(childType)
			return len(children) == 1 && children[0].Status == models.JobStatusCompleted
		}, 5*time.Second, 10*time.Millisecond, "cascade child %s", childType)
	}

	children := repo.byType(models.JobTypeThumbnail)
	require.Len(t, children, 1)
	assert.Equal(t, job.ID, children[0].ParentID)
	assert.Equal(t, job.OutputDir, children[0].OutputDir)
}

func TestNoCascadeWithoutOptIn(t *testing.T) {
	o, repo := newTestOrchestrator(t, newFakeEngine())

	job, err := o.Submit(context.Background(), &models.JobSubmitInput{Input: "/in/plain.mp4"})
	require.NoError(t, err)
	waitForStatus(t, repo, job.ID, models.JobStatusCompleted)

	assert.Empty(t, repo.byType(models.JobTypeThumbnail))
	assert.Empty(t, repo.byType(models.JobTypeSubtitle))
	assert.Empty(t, repo.byType(models.JobTypePreview))
}

func TestCancelPendingJob(t *testing.T) {
	cfg := testConfig()
	repo := newMemJobRepo()
	// Not started: jobs stay pending in the queue.
	o := NewOrchestrator(cfg, repo, newFakeEngine(), logger.NewNopLogger())

	job, err := o.Submit(context.Background(), &models.JobSubmitInput{Input: "/in/a.mp4"})
	require.NoError(t, err)

	cancelled, err := o.Cancel(context.Background(), job.ID)
	require.NoError(t, err)
	assert.True(t, cancelled)

	got, err := repo.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, got.Status)
	assert.Contains(t, got.Error, "cancelled")
}

func TestCancelTerminalJobFails(t *testing.T) {
	o, repo := newTestOrchestrator(t, newFakeEngine())

	job, err := o.Submit(context.Background(), &models.JobSubmitInput{Input: "/in/a.mp4"})
	require.NoError(t, err)
	waitForStatus(t, repo, job.ID, models.JobStatusCompleted)

	cancelled, err := o.Cancel(context.Background(), job.ID)
	require.NoError(t, err)
	assert.False(t, cancelled)
}

func TestConcurrentCancelsNeverOverrideCompletion(t *testing.T) {
	o, repo := newTestOrchestrator(t, newFakeEngine())

	job, err := o.Submit(context.Background(), &models.JobSubmitInput{Input: "/in/a.mp4"})
	require.NoError(t, err)
	waitForStatus(t, repo, job.ID, models.JobStatusCompleted)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cancelled, err := o.Cancel(context.Background(), job.ID)
			assert.NoError(t, err)
			assert.False(t, cancelled)
		}()
	}
	wg.Wait()

	got, err := repo.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, got.Status)
	assert.Equal(t, 100, got.Progress)
	assert.Empty(t, got.Error)
}

func TestCancelUnknownJob(t *testing.T) {
	o, _ := newTestOrchestrator(t, newFakeEngine())
	_, err := o.Cancel(context.Background(), "nope")
	assert.ErrorIs(t, err, jobs.ErrJobNotFound)
}

func TestSweepRemovesExpiredRecords(t *testing.T) {
	repo := newMemJobRepo()
	old := &models.ProcessingJob{
		ID:          "old-completed",
		Type:        models.JobTypeTranscode,
		Status:      models.JobStatusCompleted,
		CompletedAt: time.Now().Add(-48 * time.Hour),
	}
	require.NoError(t, repo.SaveJob(context.Background(), old, 0))
	fresh := &models.ProcessingJob{
		ID:          "fresh-failed",
		Type:        models.JobTypeTranscode,
		Status:      models.JobStatusFailed,
		CompletedAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, repo.SaveJob(context.Background(), fresh, 0))

	now := time.Now()
	removed, err := repo.SweepExpired(context.Background(), now.Add(-24*time.Hour), now.Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = repo.GetJob(context.Background(), "old-completed")
	assert.ErrorIs(t, err, jobs.ErrJobNotFound)
	_, err = repo.GetJob(context.Background(), "fresh-failed")
	assert.NoError(t, err)
}
