package encoder

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

const (
	previewSeconds = 6
	previewHeight  = 480
)

// GeneratePreview cuts a short muted clip from a tenth of the way into
// the asset, used as the hover preview next to the thumbnail timeline.
func (e *ffmpegEngine) GeneratePreview(ctx context.Context, input, outputDir string) error {
	meta, err := e.prober.Probe(ctx, input)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create preview dir: %w", err)
	}

	start := meta.Duration * 0.1
	length := float64(previewSeconds)
	if remaining := meta.Duration - start; remaining < length {
		length = remaining
	}

	var stderr bytes.Buffer
	err = ffmpeg.Input(input, ffmpeg.KwArgs{"ss": fmt.Sprintf("%.2f", start)}).
		Output(filepath.Join(outputDir, PreviewName), ffmpeg.KwArgs{
			"t":        fmt.Sprintf("%.2f", length),
			"vf":       fmt.Sprintf("scale=-2:%d", previewHeight),
			"an":       "",
			"movflags": "+faststart",
		}).
		OverWriteOutput().
		WithErrorOutput(&stderr).
		Run()
	if err != nil {
		return fmt.Errorf("preview generation failed: %v, stderr: %s", err, truncate(stderr.String(), 1024))
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}
