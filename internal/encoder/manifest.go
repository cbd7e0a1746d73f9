package encoder

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/grafov/m3u8"

	"github.com/skobyn/media-core/internal/models"
)

// RenderMasterManifest builds the master playlist listing every rendition
// in profile-declaration order with its approximate bandwidth and
// resolution.
func RenderMasterManifest(profiles []models.TranscodingProfile) string {
	master := m3u8.NewMasterPlaylist()
	for _, p := range profiles {
		uri := fmt.Sprintf("%s/%s", p.Name, RenditionPlaylist)
		master.Append(uri, nil, m3u8.VariantParams{
			Bandwidth:  p.BandwidthBits(),
			Resolution: p.Resolution(),
		})
	}
	return master.String()
}

func (e *ffmpegEngine) writeMasterManifest(job *models.TranscodingJob) error {
	path := filepath.Join(job.OutputDir, MasterManifestName)
	if err := os.WriteFile(path, []byte(RenderMasterManifest(job.Profiles)), 0o644); err != nil {
		return fmt.Errorf("failed to write master manifest: %w", err)
	}
	e.logger.Debugf("job %s: wrote %s", job.ID, path)
	return nil
}
