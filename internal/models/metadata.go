package models

// VideoMetadata holds the probed properties of a source file. Immutable
// once set on a job.
type VideoMetadata struct {
	Duration   float64 `json:"duration" redis:"duration"`
	Width      int     `json:"width" redis:"width"`
	Height     int     `json:"height" redis:"height"`
	Framerate  float64 `json:"framerate" redis:"framerate"`
	Bitrate    int64   `json:"bitrate" redis:"bitrate"`
	VideoCodec string  `json:"video_codec" redis:"video_codec"`
	AudioCodec string  `json:"audio_codec" redis:"audio_codec"`
}
