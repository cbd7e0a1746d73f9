package models

// QualityLevel is one rung of a video's quality ladder as resolved from
// its master manifest.
type QualityLevel struct {
	Name      string `json:"name"`
	Bandwidth int64  `json:"bandwidth"`
}

type SessionStartInput struct {
	ViewerID string `json:"viewer_id" validate:"required"`
	VideoID  string `json:"video_id" validate:"required"`
}

type BandwidthInput struct {
	Bytes        int64   `json:"bytes" validate:"required,gt=0"`
	TransferTime float64 `json:"transfer_time" validate:"required,gt=0"`
}

type QualitySwitchInput struct {
	Quality string       `json:"quality" validate:"required"`
	Reason  SwitchReason `json:"reason" validate:"omitempty,oneof=user auto buffer"`
}

type BufferingInput struct {
	Health       float64 `json:"health" validate:"min=0,max=1"`
	RebufferTime float64 `json:"rebuffer_time" validate:"omitempty,min=0"`
}

type ErrorReportInput struct {
	Category ErrorCategory `json:"category" validate:"required,oneof=network decode manifest drm"`
	Message  string        `json:"message" validate:"required"`
}

type DownloadInput struct {
	ViewerID string `json:"viewer_id" validate:"required"`
	VideoID  string `json:"video_id" validate:"required"`
	Quality  string `json:"quality" validate:"required"`
}
