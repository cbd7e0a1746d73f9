package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig
	Redis        RedisConfig
	Logger       Logger
	Media        MediaConfig
	Orchestrator OrchestratorConfig
	Streaming    StreamingConfig
}

type ServerConfig struct {
	AppVersion string
	Port       string
	Mode       string
}

type RedisConfig struct {
	RedisAddr     string
	RedisPassword string
	DB            int
	MinIdleConns  int
	PoolSize      int
	PoolTimeout   int
}

type Logger struct {
	Development       bool
	DisableCaller     bool
	DisableStacktrace bool
	Encoding          string
	Level             string
}

// MediaConfig describes where the encoder reads, writes and serves from.
type MediaConfig struct {
	Root            string
	FFmpegBin       string
	FFprobeBin      string
	SegmentDuration int
	ThumbnailWidth  int
	ThumbnailHeight int
	SpriteColumns   int
	MaxSubtitles    int
}

type QueueConfig struct {
	Concurrency int
	Capacity    int
}

type OrchestratorConfig struct {
	Transcode           QueueConfig
	Thumbnail           QueueConfig
	Subtitle            QueueConfig
	Preview             QueueConfig
	MaxCPUUsage         float64
	SweepInterval       time.Duration
	CompletedRetention  time.Duration
	FailedRetention     time.Duration
	TranscodeRetries    int
	TranscodeRetryDelay time.Duration
	AuxiliaryRetries    int
	AuxiliaryRetryDelay time.Duration
}

type StreamingConfig struct {
	SessionTTL       time.Duration
	SweepInterval    time.Duration
	BandwidthWindow  int
	DownswitchFactor float64
	UpswitchFactor   float64
	LicenseTTL       time.Duration
	DownloadChunk    int64
	DownloadTick     time.Duration
}

func LoadConfig(filename string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(filename)
	v.AddConfigPath(".")
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFound) {
			return nil, errors.New("config file not found")
		}
		return nil, err
	}
	return v, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	applyDefaults(&c)
	return &c, nil
}

func applyDefaults(c *Config) {
	if c.Media.SegmentDuration == 0 {
		c.Media.SegmentDuration = 6
	}
	if c.Media.FFmpegBin == "" {
		c.Media.FFmpegBin = "ffmpeg"
	}
	if c.Media.FFprobeBin == "" {
		c.Media.FFprobeBin = "ffprobe"
	}
	if c.Media.ThumbnailWidth == 0 {
		c.Media.ThumbnailWidth = 320
	}
	if c.Media.ThumbnailHeight == 0 {
		c.Media.ThumbnailHeight = 180
	}
	if c.Media.SpriteColumns == 0 {
		c.Media.SpriteColumns = 5
	}
	if c.Media.MaxSubtitles == 0 {
		c.Media.MaxSubtitles = 10
	}
	if c.Orchestrator.Transcode.Concurrency == 0 {
		c.Orchestrator.Transcode.Concurrency = 2
	}
	if c.Orchestrator.Thumbnail.Concurrency == 0 {
		c.Orchestrator.Thumbnail.Concurrency = 4
	}
	if c.Orchestrator.Subtitle.Concurrency == 0 {
		c.Orchestrator.Subtitle.Concurrency = 3
	}
	if c.Orchestrator.Preview.Concurrency == 0 {
		c.Orchestrator.Preview.Concurrency = 2
	}
	if c.Orchestrator.Transcode.Capacity == 0 {
		c.Orchestrator.Transcode.Capacity = 64
	}
	if c.Orchestrator.Thumbnail.Capacity == 0 {
		c.Orchestrator.Thumbnail.Capacity = 128
	}
	if c.Orchestrator.Subtitle.Capacity == 0 {
		c.Orchestrator.Subtitle.Capacity = 128
	}
	if c.Orchestrator.Preview.Capacity == 0 {
		c.Orchestrator.Preview.Capacity = 64
	}
	if c.Orchestrator.SweepInterval == 0 {
		c.Orchestrator.SweepInterval = time.Hour
	}
	if c.Orchestrator.CompletedRetention == 0 {
		c.Orchestrator.CompletedRetention = 24 * time.Hour
	}
	if c.Orchestrator.FailedRetention == 0 {
		c.Orchestrator.FailedRetention = 7 * 24 * time.Hour
	}
	if c.Orchestrator.MaxCPUUsage == 0 {
		c.Orchestrator.MaxCPUUsage = 85.0
	}
	if c.Orchestrator.TranscodeRetries == 0 {
		c.Orchestrator.TranscodeRetries = 3
	}
	if c.Orchestrator.TranscodeRetryDelay == 0 {
		c.Orchestrator.TranscodeRetryDelay = 30 * time.Second
	}
	if c.Orchestrator.AuxiliaryRetries == 0 {
		c.Orchestrator.AuxiliaryRetries = 2
	}
	if c.Orchestrator.AuxiliaryRetryDelay == 0 {
		c.Orchestrator.AuxiliaryRetryDelay = 5 * time.Second
	}
	if c.Streaming.SessionTTL == 0 {
		c.Streaming.SessionTTL = 30 * time.Minute
	}
	if c.Streaming.SweepInterval == 0 {
		c.Streaming.SweepInterval = 5 * time.Minute
	}
	if c.Streaming.BandwidthWindow == 0 {
		c.Streaming.BandwidthWindow = 10
	}
	if c.Streaming.DownswitchFactor == 0 {
		c.Streaming.DownswitchFactor = 0.8
	}
	if c.Streaming.UpswitchFactor == 0 {
		c.Streaming.UpswitchFactor = 1.5
	}
	if c.Streaming.LicenseTTL == 0 {
		c.Streaming.LicenseTTL = 30 * 24 * time.Hour
	}
	if c.Streaming.DownloadChunk == 0 {
		c.Streaming.DownloadChunk = 4 << 20
	}
	if c.Streaming.DownloadTick == 0 {
		c.Streaming.DownloadTick = 500 * time.Millisecond
	}
}
