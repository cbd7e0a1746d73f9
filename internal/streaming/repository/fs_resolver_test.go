package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skobyn/media-core/internal/streaming"
)

const testMasterManifest = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-STREAM-INF:PROGRAM-ID=0,BANDWIDTH=2928000,RESOLUTION=1280x720
720p/playlist.m3u8
#EXT-X-STREAM-INF:PROGRAM-ID=0,BANDWIDTH=464000,RESOLUTION=426x240
240p/playlist.m3u8
`

func writeTestRendition(t *testing.T, root, videoID, quality string, segmentSizes ...int) {
	t.Helper()
	dir := filepath.Join(root, videoID, quality)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "playlist.m3u8"), []byte("#EXTM3U\n"), 0o644))
	for i, size := range segmentSizes {
		name := filepath.Join(dir, "segment_"+string(rune('0'+i))+".ts")
		require.NoError(t, os.WriteFile(name, make([]byte, size), 0o644))
	}
}

func TestLadderReadsMasterManifest(t *testing.T) {
	root := t.TempDir()
	videoDir := filepath.Join(root, "vid-1")
	require.NoError(t, os.MkdirAll(videoDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(videoDir, "master.m3u8"), []byte(testMasterManifest), 0o644))

	resolver := NewContentFSResolver(root)
	ladder, err := resolver.Ladder(context.Background(), "vid-1")
	require.NoError(t, err)
	require.Len(t, ladder, 2)

	// sorted ascending by bandwidth regardless of manifest order
	require.Equal(t, "240p", ladder[0].Name)
	require.Equal(t, int64(464000), ladder[0].Bandwidth)
	require.Equal(t, "720p", ladder[1].Name)
	require.Equal(t, int64(2928000), ladder[1].Bandwidth)
}

func TestLadderUnknownVideo(t *testing.T) {
	resolver := NewContentFSResolver(t.TempDir())
	_, err := resolver.Ladder(context.Background(), "missing")
	require.ErrorIs(t, err, streaming.ErrQualityUnavailable)
}

func TestRenditionSizeSumsSegments(t *testing.T) {
	root := t.TempDir()
	writeTestRendition(t, root, "vid-1", "720p", 100, 250, 50)

	resolver := NewContentFSResolver(root)
	size, err := resolver.RenditionSize(context.Background(), "vid-1", "720p")
	require.NoError(t, err)
	require.Equal(t, int64(400), size)
}

func TestRenditionSizeUnknownQuality(t *testing.T) {
	root := t.TempDir()
	writeTestRendition(t, root, "vid-1", "720p", 100)

	resolver := NewContentFSResolver(root)
	_, err := resolver.RenditionSize(context.Background(), "vid-1", "1080p")
	require.ErrorIs(t, err, streaming.ErrQualityUnavailable)
}
