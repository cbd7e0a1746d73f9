package repository

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/grafov/m3u8"
	"github.com/pkg/errors"

	"github.com/skobyn/media-core/internal/encoder"
	"github.com/skobyn/media-core/internal/models"
	"github.com/skobyn/media-core/internal/streaming"
)

// contentFSResolver reads quality ladders and rendition sizes straight
// from the encoder's output tree under the media root.
type contentFSResolver struct {
	mediaRoot string
}

func NewContentFSResolver(mediaRoot string) streaming.ContentResolver {
	return &contentFSResolver{mediaRoot: mediaRoot}
}

func (r *contentFSResolver) Ladder(ctx context.Context, videoID string) ([]models.QualityLevel, error) {
	path := filepath.Join(r.mediaRoot, videoID, encoder.MasterManifestName)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, streaming.ErrQualityUnavailable
		}
		return nil, errors.Wrap(err, "contentFSResolver.Ladder.Open")
	}
	defer f.Close()

	playlist, listType, err := m3u8.DecodeFrom(bufio.NewReader(f), true)
	if err != nil {
		return nil, errors.Wrap(err, "contentFSResolver.Ladder.DecodeFrom")
	}
	if listType != m3u8.MASTER {
		return nil, errors.Errorf("contentFSResolver.Ladder: %s is not a master playlist", path)
	}

	master := playlist.(*m3u8.MasterPlaylist)
	ladder := make([]models.QualityLevel, 0, len(master.Variants))
	for _, variant := range master.Variants {
		if variant == nil {
			continue
		}
		name := strings.SplitN(variant.URI, "/", 2)[0]
		ladder = append(ladder, models.QualityLevel{
			Name:      name,
			Bandwidth: int64(variant.Bandwidth),
		})
	}
	sort.Slice(ladder, func(i, j int) bool { return ladder[i].Bandwidth < ladder[j].Bandwidth })
	return ladder, nil
}

func (r *contentFSResolver) RenditionSize(ctx context.Context, videoID, quality string) (int64, error) {
	dir := filepath.Join(r.mediaRoot, videoID, quality)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, streaming.ErrQualityUnavailable
		}
		return 0, errors.Wrap(err, "contentFSResolver.RenditionSize.ReadDir")
	}

	var total int64
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".ts" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return 0, errors.Wrap(err, "contentFSResolver.RenditionSize.Info")
		}
		total += info.Size()
	}
	if total == 0 {
		return 0, streaming.ErrQualityUnavailable
	}
	return total, nil
}
