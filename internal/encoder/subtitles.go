package encoder

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	ffprobe "gopkg.in/vansante/go-ffprobe.v2"
)

// extractSubtitleTracks pulls up to the configured number of subtitle
// streams out of the source and converts each to WebVTT, the caption
// format referenced by the manifest layer.
func (e *ffmpegEngine) extractSubtitleTracks(ctx context.Context, input, outputDir string) error {
	data, err := ffprobe.ProbeURL(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to probe subtitle streams: %w", err)
	}

	streams := data.StreamType(ffprobe.StreamSubtitle)
	if len(streams) == 0 {
		return nil
	}
	if max := e.cfg.Media.MaxSubtitles; len(streams) > max {
		streams = streams[:max]
	}

	dir := filepath.Join(outputDir, SubtitlesDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create subtitles dir: %w", err)
	}

	for i, stream := range streams {
		lang := stream.Tags.Language
		if lang == "" {
			lang = fmt.Sprintf("track%d", i)
		}
		outPath := filepath.Join(dir, fmt.Sprintf("%s_%d.vtt", lang, i))

		cmd := exec.CommandContext(ctx, e.cfg.Media.FFmpegBin,
			"-i", input,
			"-map", fmt.Sprintf("0:s:%d", i),
			"-c:s", "webvtt",
			"-y", outPath,
		)
		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		if err := cmd.Run(); err != nil {
			// Image-based tracks (PGS, dvdsub) cannot convert to text
			// captions; skip them rather than failing the set.
			e.logger.Warnf("subtitle stream %d (%s) skipped: %v", i, lang, err)
			continue
		}
		e.logger.Debugf("extracted subtitle track %s", outPath)
	}
	return nil
}
