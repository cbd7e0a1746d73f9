package encoder

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/skobyn/media-core/internal/config"
	"github.com/skobyn/media-core/internal/models"
	"github.com/skobyn/media-core/internal/probe"
	"github.com/skobyn/media-core/pkg/logger"
)

// ErrEncoderFailed marks an encoder subprocess failure. Fatal for the
// whole transcoding job; retried only at the orchestrator level.
var ErrEncoderFailed = errors.New("encoder failed")

const (
	MasterManifestName = "master.m3u8"
	RenditionPlaylist  = "playlist.m3u8"
	SpriteName         = "sprite.jpg"
	TimelineName       = "thumbnails.vtt"
	PreviewName        = "preview.mp4"
	SubtitlesDir       = "subtitles"
	thumbsDir          = "thumbs"
)

// Engine drives the external encoder to produce segmented renditions, the
// master manifest, thumbnails with a sprite timeline, and subtitle tracks.
type Engine interface {
	Transcode(ctx context.Context, input, outputDir string, profiles []models.TranscodingProfile) (*models.TranscodingJob, <-chan ProgressEvent)
	GenerateThumbnails(ctx context.Context, input, outputDir string) error
	ExtractSubtitles(ctx context.Context, input, outputDir string) error
	GeneratePreview(ctx context.Context, input, outputDir string) error
}

type ffmpegEngine struct {
	cfg    *config.Config
	prober probe.Prober
	logger logger.Logger
}

func NewFFmpegEngine(cfg *config.Config, prober probe.Prober, logger logger.Logger) Engine {
	return &ffmpegEngine{
		cfg:    cfg,
		prober: prober,
		logger: logger,
	}
}

// Transcode probes the source and encodes every profile sequentially,
// then writes the master manifest and the thumbnail set. The returned job
// is owned by the engine until the event channel closes; callers observe
// progress through the channel, never by polling the struct.
func (e *ffmpegEngine) Transcode(ctx context.Context, input, outputDir string, profiles []models.TranscodingProfile) (*models.TranscodingJob, <-chan ProgressEvent) {
	job := &models.TranscodingJob{
		ID:        uuid.New().String(),
		Input:     input,
		OutputDir: outputDir,
		Profiles:  profiles,
		Status:    models.JobStatusPending,
		StartedAt: time.Now(),
	}
	events := make(chan ProgressEvent, 16)

	go e.run(ctx, job, events)
	return job, events
}

func (e *ffmpegEngine) run(ctx context.Context, job *models.TranscodingJob, events chan<- ProgressEvent) {
	defer close(events)

	fail := func(err error) {
		job.Status = models.JobStatusFailed
		job.Error = err.Error()
		e.logger.Errorf("transcode job %s failed: %v", job.ID, err)
		events <- ProgressEvent{Type: EventFailed, JobID: job.ID, Percent: job.Progress, Error: job.Error}
	}

	if len(job.Profiles) == 0 {
		fail(errors.New("no profiles requested"))
		return
	}

	job.Status = models.JobStatusProcessing

	meta, err := e.prober.Probe(ctx, job.Input)
	if err != nil {
		fail(err)
		return
	}
	job.Metadata = meta
	e.logger.Infof("job %s probed %s: %.1fs %dx%d %s/%s", job.ID, job.Input,
		meta.Duration, meta.Width, meta.Height, meta.VideoCodec, meta.AudioCodec)

	total := len(job.Profiles)
	for i, profile := range job.Profiles {
		if err := e.encodeProfile(ctx, job, profile, events); err != nil {
			fail(errors.Wrapf(err, "profile %s", profile.Name))
			return
		}
		events <- ProgressEvent{Type: EventProfileComplete, JobID: job.ID, Profile: profile.Name, Percent: 100}

		done := i + 1
		if done < total {
			// Job progress holds below 100 until the manifest and
			// thumbnail set land.
			job.Progress = jobProgress(done, total)
			events <- ProgressEvent{Type: EventJobProgress, JobID: job.ID, Percent: job.Progress}
		}
	}

	if err := e.writeMasterManifest(job); err != nil {
		fail(err)
		return
	}

	if err := e.generateThumbnailSet(ctx, job.Input, job.OutputDir, meta.Duration); err != nil {
		fail(err)
		return
	}

	if err := e.extractSubtitleTracks(ctx, job.Input, job.OutputDir); err != nil {
		// Subtitle extraction is best-effort; a source without usable
		// subtitle streams must not fail the asset.
		e.logger.Warnf("job %s: subtitle extraction skipped: %v", job.ID, err)
	}

	job.Progress = 100
	job.Status = models.JobStatusCompleted
	events <- ProgressEvent{Type: EventJobProgress, JobID: job.ID, Percent: 100}
	events <- ProgressEvent{Type: EventCompleted, JobID: job.ID, Percent: 100}
	e.logger.Infof("job %s completed: %d renditions under %s", job.ID, total, job.OutputDir)
}

func (e *ffmpegEngine) encodeProfile(ctx context.Context, job *models.TranscodingJob, profile models.TranscodingProfile, events chan<- ProgressEvent) error {
	renditionDir := filepath.Join(job.OutputDir, profile.Name)
	if err := os.MkdirAll(renditionDir, 0o755); err != nil {
		return fmt.Errorf("failed to create rendition dir: %w", err)
	}

	args := buildProfileArgs(job.Input, renditionDir, profile, e.cfg.Media.SegmentDuration)

	duration := job.Metadata.Duration
	lastPercent := -1
	onSample := func(sample ProgressSample) {
		if duration <= 0 {
			return
		}
		percent := int(math.Min(sample.Seconds/duration*100, 100))
		if percent == lastPercent {
			return
		}
		lastPercent = percent
		select {
		case events <- ProgressEvent{Type: EventProfileProgress, JobID: job.ID, Profile: profile.Name, Percent: percent}:
		default:
			// A slow consumer drops intermediate samples, never blocks
			// the encode.
		}
	}

	if err := e.runFFmpeg(ctx, args, onSample); err != nil {
		return errors.Wrapf(ErrEncoderFailed, "%v", err)
	}
	return nil
}

// GenerateThumbnails produces the thumbnail set for an already-probed or
// standalone input; used by the independent thumbnail job type.
func (e *ffmpegEngine) GenerateThumbnails(ctx context.Context, input, outputDir string) error {
	meta, err := e.prober.Probe(ctx, input)
	if err != nil {
		return err
	}
	return e.generateThumbnailSet(ctx, input, outputDir, meta.Duration)
}

// ExtractSubtitles converts up to the configured number of subtitle
// streams to WebVTT; used by the independent subtitle job type.
func (e *ffmpegEngine) ExtractSubtitles(ctx context.Context, input, outputDir string) error {
	return e.extractSubtitleTracks(ctx, input, outputDir)
}

// jobProgress is the overall percentage after completing done of total
// profiles.
func jobProgress(done, total int) int {
	return int(math.Round(float64(done) / float64(total) * 100))
}
