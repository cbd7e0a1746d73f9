package encoder

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// ThumbnailInterval returns the spacing between thumbnails in seconds:
// one every duration/20 (about 20 per asset), never more often than every
// 10 seconds.
func ThumbnailInterval(duration float64) int {
	interval := math.Max(10, duration/20)
	return int(math.Round(interval))
}

// generateThumbnailSet extracts thumbnails at the computed interval,
// tiles them into a fixed-column sprite grid, and writes the WEBVTT
// timeline index mapping playback intervals to sprite cells.
func (e *ffmpegEngine) generateThumbnailSet(ctx context.Context, input, outputDir string, duration float64) error {
	dir := filepath.Join(outputDir, thumbsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create thumbnail dir: %w", err)
	}

	interval := ThumbnailInterval(duration)
	width := e.cfg.Media.ThumbnailWidth
	height := e.cfg.Media.ThumbnailHeight
	cols := e.cfg.Media.SpriteColumns

	var stderr bytes.Buffer
	err := ffmpeg.Input(input).
		Output(filepath.Join(dir, "thumb_%03d.jpg"), ffmpeg.KwArgs{
			"vf":    fmt.Sprintf("fps=1/%d,scale=%d:%d", interval, width, height),
			"vsync": "vfr",
		}).
		OverWriteOutput().
		WithErrorOutput(&stderr).
		Run()
	if err != nil {
		return fmt.Errorf("thumbnail extraction failed: %v, stderr: %s", err, truncate(stderr.String(), 1024))
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	thumbs, err := filepath.Glob(filepath.Join(dir, "thumb_*.jpg"))
	if err != nil {
		return err
	}
	count := len(thumbs)
	if count == 0 {
		return fmt.Errorf("no thumbnails produced for %s", input)
	}

	rows := (count + cols - 1) / cols
	stderr.Reset()
	err = ffmpeg.Input(filepath.Join(dir, "thumb_%03d.jpg"), ffmpeg.KwArgs{"start_number": 1}).
		Output(filepath.Join(outputDir, SpriteName), ffmpeg.KwArgs{
			"vf":       fmt.Sprintf("tile=%dx%d", cols, rows),
			"frames:v": 1,
			"qscale:v": 3,
		}).
		OverWriteOutput().
		WithErrorOutput(&stderr).
		Run()
	if err != nil {
		return fmt.Errorf("sprite assembly failed: %v, stderr: %s", err, truncate(stderr.String(), 1024))
	}

	vtt := RenderSpriteVTT(count, interval, cols, width, height, duration)
	if err := os.WriteFile(filepath.Join(outputDir, TimelineName), []byte(vtt), 0o644); err != nil {
		return fmt.Errorf("failed to write timeline index: %w", err)
	}
	e.logger.Infof("thumbnail set for %s: %d thumbs every %ds, %dx%d grid", input, count, interval, cols, rows)
	return nil
}

// RenderSpriteVTT emits the WEBVTT timeline index: one cue per thumbnail
// interval, each pointing at its cell in the sprite grid via a media
// fragment.
func RenderSpriteVTT(count, interval, cols, cellWidth, cellHeight int, duration float64) string {
	const layout = "15:04:05.000"

	builder := &strings.Builder{}
	builder.WriteString("WEBVTT\n\n")

	var base time.Time
	for i := 0; i < count; i++ {
		startSecs := float64(i * interval)
		endSecs := float64((i + 1) * interval)
		if duration > 0 && endSecs > duration {
			endSecs = duration
		}
		if duration > 0 && startSecs >= duration {
			break
		}
		start := base.Add(time.Duration(startSecs * float64(time.Second))).Format(layout)
		end := base.Add(time.Duration(endSecs * float64(time.Second))).Format(layout)

		x := (i % cols) * cellWidth
		y := (i / cols) * cellHeight
		fmt.Fprintf(builder, "%s --> %s\n%s#xywh=%d,%d,%d,%d\n\n", start, end, SpriteName, x, y, cellWidth, cellHeight)
	}
	return builder.String()
}
