package probe

import (
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	ffprobe "gopkg.in/vansante/go-ffprobe.v2"

	"github.com/skobyn/media-core/internal/models"
)

// ErrProbeFailed marks a fatal probe failure. Never retried; the enclosing
// job fails with it.
var ErrProbeFailed = errors.New("media probe failed")

// Prober extracts container and stream metadata from a source file by
// driving the external inspection process.
type Prober interface {
	Probe(ctx context.Context, sourcePath string) (*models.VideoMetadata, error)
}

type ffprobeProber struct{}

func NewProber(ffprobeBin string) Prober {
	if ffprobeBin != "" {
		ffprobe.SetFFProbeBinPath(ffprobeBin)
	}
	return &ffprobeProber{}
}

func (p *ffprobeProber) Probe(ctx context.Context, sourcePath string) (*models.VideoMetadata, error) {
	data, err := ffprobe.ProbeURL(ctx, sourcePath)
	if err != nil {
		return nil, errors.Wrapf(ErrProbeFailed, "%s: %v", sourcePath, err)
	}
	meta, err := metadataFromProbe(data)
	if err != nil {
		return nil, errors.Wrapf(ErrProbeFailed, "%s: %v", sourcePath, err)
	}
	return meta, nil
}

// metadataFromProbe maps raw probe output onto VideoMetadata. Pure, so it
// is testable without spawning the inspection process.
func metadataFromProbe(data *ffprobe.ProbeData) (*models.VideoMetadata, error) {
	if data == nil || data.Format == nil {
		return nil, errors.New("no format section in probe output")
	}
	video := data.FirstVideoStream()
	if video == nil {
		return nil, errors.New("no video stream found")
	}

	meta := &models.VideoMetadata{
		Duration:   data.Format.DurationSeconds,
		Width:      video.Width,
		Height:     video.Height,
		Framerate:  parseFramerate(video.AvgFrameRate),
		VideoCodec: video.CodecName,
	}
	if meta.Duration <= 0 {
		return nil, errors.New("source has no duration")
	}
	if br, err := strconv.ParseInt(data.Format.BitRate, 10, 64); err == nil {
		meta.Bitrate = br
	}
	if audio := data.FirstAudioStream(); audio != nil {
		meta.AudioCodec = audio.CodecName
	}
	return meta, nil
}

// parseFramerate handles the rational "num/den" form ffprobe reports,
// falling back to a plain float. Returns 0 when unparsable.
func parseFramerate(raw string) float64 {
	if raw == "" {
		return 0
	}
	if num, den, ok := strings.Cut(raw, "/"); ok {
		n, err1 := strconv.ParseFloat(num, 64)
		d, err2 := strconv.ParseFloat(den, 64)
		if err1 != nil || err2 != nil || d == 0 {
			return 0
		}
		return n / d
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return f
}
