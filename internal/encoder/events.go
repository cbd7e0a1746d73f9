package encoder

type EventType string

const (
	EventProfileProgress EventType = "profile_progress"
	EventProfileComplete EventType = "profile_complete"
	EventJobProgress     EventType = "job_progress"
	EventCompleted       EventType = "completed"
	EventFailed          EventType = "failed"
)

// ProgressEvent is pushed on the per-job stream the orchestrator consumes.
// The channel is closed after the terminal completed/failed event, which
// makes backpressure per-job instead of a global listener registry.
type ProgressEvent struct {
	Type    EventType `json:"type"`
	JobID   string    `json:"job_id"`
	Profile string    `json:"profile,omitempty"`
	Percent int       `json:"percent"`
	Error   string    `json:"error,omitempty"`
}
