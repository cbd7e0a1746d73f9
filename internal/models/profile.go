package models

import "fmt"

// TranscodingProfile is a named rendition target from the profile catalog.
// Bitrates are in kbps.
type TranscodingProfile struct {
	Name         string  `json:"name" validate:"required"`
	Width        int     `json:"width" validate:"required"`
	Height       int     `json:"height" validate:"required"`
	VideoBitrate int     `json:"video_bitrate" validate:"required"`
	Framerate    float64 `json:"framerate"`
	VideoCodec   string  `json:"video_codec"`
	Preset       string  `json:"preset"`
	AudioCodec   string  `json:"audio_codec"`
	AudioBitrate int     `json:"audio_bitrate"`
}

// Resolution returns the profile target as "WxH".
func (p TranscodingProfile) Resolution() string {
	return fmt.Sprintf("%dx%d", p.Width, p.Height)
}

// BandwidthBits is the approximate stream bandwidth in bits per second,
// video plus audio. Used for master manifest variants and the quality
// ladder served to players.
func (p TranscodingProfile) BandwidthBits() uint32 {
	return uint32((p.VideoBitrate + p.AudioBitrate) * 1000)
}

// DefaultProfiles is the built-in profile catalog, ladder order low to high.
func DefaultProfiles() []TranscodingProfile {
	return []TranscodingProfile{
		{Name: "240p", Width: 426, Height: 240, VideoBitrate: 400, Framerate: 24, VideoCodec: "libx264", Preset: "fast", AudioCodec: "aac", AudioBitrate: 64},
		{Name: "360p", Width: 640, Height: 360, VideoBitrate: 800, Framerate: 24, VideoCodec: "libx264", Preset: "fast", AudioCodec: "aac", AudioBitrate: 96},
		{Name: "480p", Width: 854, Height: 480, VideoBitrate: 1400, Framerate: 30, VideoCodec: "libx264", Preset: "fast", AudioCodec: "aac", AudioBitrate: 128},
		{Name: "720p", Width: 1280, Height: 720, VideoBitrate: 2800, Framerate: 30, VideoCodec: "libx264", Preset: "medium", AudioCodec: "aac", AudioBitrate: 128},
		{Name: "1080p", Width: 1920, Height: 1080, VideoBitrate: 5000, Framerate: 30, VideoCodec: "libx264", Preset: "medium", AudioCodec: "aac", AudioBitrate: 192},
	}
}

// ProfilesByName resolves catalog profiles by name, preserving request order.
func ProfilesByName(names []string) ([]TranscodingProfile, error) {
	catalog := make(map[string]TranscodingProfile)
	for _, p := range DefaultProfiles() {
		catalog[p.Name] = p
	}
	profiles := make([]TranscodingProfile, 0, len(names))
	for _, name := range names {
		p, ok := catalog[name]
		if !ok {
			return nil, fmt.Errorf("unknown profile: %s", name)
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}
