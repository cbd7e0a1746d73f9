package encoder

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/skobyn/media-core/internal/models"
)

// buildProfileArgs derives the encoder invocation for one rendition:
// scale to the profile resolution, cap the bitrate with a 2x buffer, and
// segment into fixed-length HLS chunks with independent segments.
func buildProfileArgs(input, renditionDir string, profile models.TranscodingProfile, segmentSeconds int) []string {
	args := []string{
		"-i", input,
		"-vf", fmt.Sprintf("scale=%d:%d", profile.Width, profile.Height),
		"-c:v", profile.VideoCodec,
		"-preset", profile.Preset,
		"-b:v", fmt.Sprintf("%dk", profile.VideoBitrate),
		"-maxrate", fmt.Sprintf("%dk", profile.VideoBitrate),
		"-bufsize", fmt.Sprintf("%dk", profile.VideoBitrate*2),
	}
	if profile.Framerate > 0 {
		args = append(args, "-r", strconv.FormatFloat(profile.Framerate, 'f', -1, 64))
	}
	args = append(args,
		"-c:a", profile.AudioCodec,
		"-b:a", fmt.Sprintf("%dk", profile.AudioBitrate),
		"-f", "hls",
		"-hls_time", strconv.Itoa(segmentSeconds),
		"-hls_playlist_type", "vod",
		"-hls_flags", "independent_segments",
		"-hls_segment_filename", filepath.Join(renditionDir, "segment_%03d.ts"),
		"-progress", "pipe:1",
		"-nostats",
		"-y", filepath.Join(renditionDir, RenditionPlaylist),
	)
	return args
}

// runFFmpeg starts the encoder, streams progress reports off stdout into
// onSample, and buffers stderr for the failure message. Cancelling ctx
// terminates the subprocess.
func (e *ffmpegEngine) runFFmpeg(ctx context.Context, args []string, onSample func(ProgressSample)) error {
	cmd := exec.CommandContext(ctx, e.cfg.Media.FFmpegBin, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	scanErr := scanProgress(stdout, onSample)

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg failed: %v, stderr: %s", err, truncate(stderr.String(), 2048))
	}
	if scanErr != nil {
		// The encode itself succeeded; only progress reporting was cut
		// short.
		e.logger.Warnf("ffmpeg progress stream read failed: %v", scanErr)
	}
	return nil
}

// scanProgress feeds progress reports from r into onSample until EOF and
// returns any read error.
func scanProgress(r io.Reader, onSample func(ProgressSample)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if sample, ok := ParseProgressLine(scanner.Text()); ok && onSample != nil {
			onSample(sample)
		}
	}
	return scanner.Err()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
