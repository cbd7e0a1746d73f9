package encoder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThumbnailInterval(t *testing.T) {
	// Short sources never thumbnail more often than every 10s.
	assert.Equal(t, 10, ThumbnailInterval(30))
	assert.Equal(t, 10, ThumbnailInterval(120))
	assert.Equal(t, 10, ThumbnailInterval(200))
	// Long sources spread about 20 thumbnails over the duration.
	assert.Equal(t, 30, ThumbnailInterval(600))
	assert.Equal(t, 180, ThumbnailInterval(3600))
}

func TestRenderSpriteVTT(t *testing.T) {
	// 120s source, 10s interval: 12 cues across a 5-column grid.
	vtt := RenderSpriteVTT(12, 10, 5, 320, 180, 120)

	require.True(t, strings.HasPrefix(vtt, "WEBVTT\n"))

	cues := strings.Count(vtt, "-->")
	assert.Equal(t, 12, cues)

	assert.Contains(t, vtt, "00:00:00.000 --> 00:00:10.000")
	assert.Contains(t, vtt, "sprite.jpg#xywh=0,0,320,180")

	// Sixth thumbnail wraps to the second sprite row.
	assert.Contains(t, vtt, "00:00:50.000 --> 00:01:00.000")
	assert.Contains(t, vtt, "sprite.jpg#xywh=0,180,320,180")

	// Final cue is clamped to the asset duration.
	assert.Contains(t, vtt, "00:01:50.000 --> 00:02:00.000")
}

func TestRenderSpriteVTTClampsPastDuration(t *testing.T) {
	// 95s source: the last cue ends at 95, not 100.
	vtt := RenderSpriteVTT(10, 10, 5, 320, 180, 95)
	assert.Contains(t, vtt, "00:01:30.000 --> 00:01:35.000")
	assert.NotContains(t, vtt, "00:01:40.000")
}
