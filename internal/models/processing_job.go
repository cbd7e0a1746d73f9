package models

import "time"

type JobType string

const (
	JobTypeTranscode JobType = "transcode"
	JobTypeThumbnail JobType = "thumbnail"
	JobTypeSubtitle  JobType = "subtitle"
	JobTypePreview   JobType = "preview"
)

// JobOptions carries the type-specific knobs of a ProcessingJob. For
// transcode jobs the Generate/Extract flags opt in to the completion
// cascade; Quality scopes thumbnail/preview work to one rendition.
type JobOptions struct {
	ProfileNames       []string `json:"profiles,omitempty" redis:"profiles"`
	GenerateThumbnails bool     `json:"generate_thumbnails,omitempty" redis:"generate_thumbnails"`
	ExtractSubtitles   bool     `json:"extract_subtitles,omitempty" redis:"extract_subtitles"`
	GeneratePreview    bool     `json:"generate_preview,omitempty" redis:"generate_preview"`
	Quality            string   `json:"quality,omitempty" redis:"quality"`
}

// ProcessingJob is the orchestrator's lifecycle record, one per queue
// entry across all four job types. Persisted as job:{id} with a bounded
// retention TTL.
type ProcessingJob struct {
	ID          string     `json:"job_id" redis:"job_id" validate:"omitempty"`
	Type        JobType    `json:"type" redis:"type" validate:"required,oneof=transcode thumbnail subtitle preview"`
	Input       string     `json:"input" redis:"input" validate:"required"`
	OutputDir   string     `json:"output_dir" redis:"output_dir" validate:"required"`
	Options     JobOptions `json:"options" redis:"options"`
	Status      JobStatus  `json:"status" redis:"status"`
	Progress    int        `json:"progress" redis:"progress"`
	Attempts    int        `json:"attempts" redis:"attempts"`
	Error       string     `json:"error,omitempty" redis:"error"`
	ParentID    string     `json:"parent_id,omitempty" redis:"parent_id"`
	CreatedAt   time.Time  `json:"created_at" redis:"created_at"`
	StartedAt   time.Time  `json:"started_at,omitempty" redis:"started_at"`
	CompletedAt time.Time  `json:"completed_at,omitempty" redis:"completed_at"`
}

// JobSubmitInput is the request shape accepted from the API layer.
type JobSubmitInput struct {
	Type      JobType    `json:"type" validate:"omitempty,oneof=transcode thumbnail subtitle preview"`
	Input     string     `json:"source_path" validate:"required"`
	OutputDir string     `json:"output_dir"`
	Options   JobOptions `json:"options"`
}

type JobList struct {
	Jobs       []*ProcessingJob `json:"jobs"`
	TotalCount int              `json:"total_count"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	HasMore    bool             `json:"has_more"`
}
