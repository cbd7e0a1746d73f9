package encoder

import (
	"bytes"
	"testing"

	"github.com/grafov/m3u8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skobyn/media-core/internal/models"
)

func TestRenderMasterManifest(t *testing.T) {
	profiles, err := models.ProfilesByName([]string{"240p", "720p"})
	require.NoError(t, err)

	out := RenderMasterManifest(profiles)

	playlist, listType, err := m3u8.DecodeFrom(bytes.NewBufferString(out), true)
	require.NoError(t, err)
	require.Equal(t, m3u8.MASTER, listType)

	master, ok := playlist.(*m3u8.MasterPlaylist)
	require.True(t, ok)
	require.Len(t, master.Variants, 2)

	// Declaration order preserved.
	assert.Equal(t, "240p/playlist.m3u8", master.Variants[0].URI)
	assert.Equal(t, "426x240", master.Variants[0].Resolution)
	assert.Equal(t, uint32((400+64)*1000), master.Variants[0].Bandwidth)

	assert.Equal(t, "720p/playlist.m3u8", master.Variants[1].URI)
	assert.Equal(t, "1280x720", master.Variants[1].Resolution)
	assert.Equal(t, uint32((2800+128)*1000), master.Variants[1].Bandwidth)
}

func TestProfilesByNameUnknown(t *testing.T) {
	_, err := models.ProfilesByName([]string{"720p", "8k"})
	assert.Error(t, err)
}
