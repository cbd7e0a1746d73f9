package models

import "time"

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether no further transitions are possible.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// TranscodingJob tracks one engine run: N renditions plus master manifest,
// thumbnails, sprite sheet and timeline index under OutputDir. Mutated only
// by the engine; Progress is monotonically non-decreasing and reaches 100
// only when every profile and the thumbnail set are done.
type TranscodingJob struct {
	ID        string               `json:"job_id" redis:"job_id"`
	Input     string               `json:"input" redis:"input"`
	OutputDir string               `json:"output_dir" redis:"output_dir"`
	Profiles  []TranscodingProfile `json:"profiles" redis:"profiles"`
	Status    JobStatus            `json:"status" redis:"status"`
	Progress  int                  `json:"progress" redis:"progress"`
	Error     string               `json:"error,omitempty" redis:"error"`
	Metadata  *VideoMetadata       `json:"metadata,omitempty" redis:"metadata"`
	StartedAt time.Time            `json:"started_at" redis:"started_at"`
}
