package encoder

import (
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skobyn/media-core/internal/models"
)

func TestBuildProfileArgs(t *testing.T) {
	profile := models.TranscodingProfile{
		Name:         "720p",
		Width:        1280,
		Height:       720,
		VideoBitrate: 2800,
		Framerate:    30,
		VideoCodec:   "libx264",
		Preset:       "medium",
		AudioCodec:   "aac",
		AudioBitrate: 128,
	}

	args := buildProfileArgs("/in/source.mp4", "/out/video/720p", profile, 6)
	joined := strings.Join(args, " ")

	assert.Contains(t, joined, "-i /in/source.mp4")
	assert.Contains(t, joined, "-vf scale=1280:720")
	assert.Contains(t, joined, "-b:v 2800k")
	assert.Contains(t, joined, "-maxrate 2800k")
	assert.Contains(t, joined, "-bufsize 5600k")
	assert.Contains(t, joined, "-r 30")
	assert.Contains(t, joined, "-c:v libx264")
	assert.Contains(t, joined, "-preset medium")
	assert.Contains(t, joined, "-c:a aac")
	assert.Contains(t, joined, "-b:a 128k")
	assert.Contains(t, joined, "-hls_time 6")
	assert.Contains(t, joined, "-hls_flags independent_segments")
	assert.Contains(t, joined, "segment_%03d.ts")
	assert.Equal(t, "/out/video/720p/playlist.m3u8", args[len(args)-1])
}

func TestBuildProfileArgsNoFramerate(t *testing.T) {
	profile := models.TranscodingProfile{
		Name: "240p", Width: 426, Height: 240,
		VideoBitrate: 400, VideoCodec: "libx264", Preset: "fast",
		AudioCodec: "aac", AudioBitrate: 64,
	}

	args := buildProfileArgs("in.mp4", "out/240p", profile, 6)
	require.NotContains(t, args, "-r")
}

func TestScanProgressFeedsSamples(t *testing.T) {
	stream := strings.NewReader("frame=10\nout_time_ms=2000000\nnoise\nout_time_ms=4000000\nprogress=end\n")

	var got []float64
	err := scanProgress(stream, func(sample ProgressSample) {
		got = append(got, sample.Seconds)
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 4}, got)
}

func TestScanProgressReportsReadError(t *testing.T) {
	err := scanProgress(iotest.ErrReader(assert.AnError), nil)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestScanProgressReportsOversizedLine(t *testing.T) {
	stream := strings.NewReader(strings.Repeat("x", 2*1024*1024))
	err := scanProgress(stream, nil)
	assert.Error(t, err)
}
