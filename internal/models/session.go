package models

import "time"

// QualityAuto lets the session manager drive quality via recommendations.
const QualityAuto = "auto"

type SwitchReason string

const (
	SwitchReasonUser   SwitchReason = "user"
	SwitchReasonAuto   SwitchReason = "auto"
	SwitchReasonBuffer SwitchReason = "buffer"
)

type ErrorCategory string

const (
	ErrorCategoryNetwork  ErrorCategory = "network"
	ErrorCategoryDecode   ErrorCategory = "decode"
	ErrorCategoryManifest ErrorCategory = "manifest"
	ErrorCategoryDRM      ErrorCategory = "drm"
)

// StreamingError is an append-only telemetry record stamped with the
// session state at the time it happened.
type StreamingError struct {
	Category  ErrorCategory `json:"category" redis:"category"`
	Message   string        `json:"message" redis:"message"`
	Timestamp time.Time     `json:"timestamp" redis:"timestamp"`
	Quality   string        `json:"quality" redis:"quality"`
	Bandwidth int64         `json:"bandwidth" redis:"bandwidth"`
}

type StreamingAnalytics struct {
	StartedAt       time.Time        `json:"started_at" redis:"started_at"`
	TotalWatchTime  float64          `json:"total_watch_time" redis:"total_watch_time"`
	QualitySwitches int              `json:"quality_switches" redis:"quality_switches"`
	RebufferCount   int              `json:"rebuffer_count" redis:"rebuffer_count"`
	RebufferTime    float64          `json:"rebuffer_time" redis:"rebuffer_time"`
	AvgBandwidth    int64            `json:"avg_bandwidth" redis:"avg_bandwidth"`
	PeakBandwidth   int64            `json:"peak_bandwidth" redis:"peak_bandwidth"`
	Errors          []StreamingError `json:"errors,omitempty" redis:"errors"`
}

// StreamingSession is one viewer's playback state. One session has exactly
// one active updater by contract, so fields are mutated without
// cross-session locking. Expires after the inactivity window.
type StreamingSession struct {
	ID               string             `json:"session_id" redis:"session_id"`
	ViewerID         string             `json:"viewer_id" redis:"viewer_id" validate:"required"`
	VideoID          string             `json:"video_id" redis:"video_id" validate:"required"`
	CurrentQuality   string             `json:"current_quality" redis:"current_quality"`
	Bandwidth        int64              `json:"bandwidth" redis:"bandwidth"`
	BandwidthHistory []int64            `json:"bandwidth_history,omitempty" redis:"bandwidth_history"`
	BufferHealth     float64            `json:"buffer_health" redis:"buffer_health"`
	WatchTime        float64            `json:"watch_time" redis:"watch_time"`
	LastActive       time.Time          `json:"last_active" redis:"last_active"`
	Analytics        StreamingAnalytics `json:"analytics" redis:"analytics"`
}

// QualityHint is the advisory recommendation emitted by the session
// manager; the player decides whether to act on it via SwitchQuality.
type QualityHint struct {
	Quality string `json:"quality"`
	Reason  string `json:"reason"`
}
