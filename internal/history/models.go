package history

import "time"

// Verdict is the final state of a run.
type Verdict string

const (
	VerdictSuccess Verdict = "success"
	VerdictFailed  Verdict = "failed"
)

// Run summarizes one export invocation.
type Run struct {
	ID          string    `json:"id"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Destination string    `json:"destination"`
	Verdict     Verdict   `json:"verdict"`
	Items       int       `json:"items"`
	Attachments int       `json:"attachments"`
	Downloaded  int       `json:"downloaded"`
	Skipped     int       `json:"skipped"`
	Failed      int       `json:"failed"`
	Bytes       int64     `json:"bytes"`
	Error       string    `json:"error,omitempty"`
}

// Duration is the wall time of the run.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Outcome is one attachment's result within a run.
type Outcome struct {
	Position     int           `json:"position"`
	Batch        int           `json:"batch"`
	ItemID       string        `json:"item_id"`
	AttachmentID string        `json:"attachment_id"`
	FileName     string        `json:"file_name"`
	Path         string        `json:"path,omitempty"`
	Status       string        `json:"status"`
	Size         int64         `json:"size"`
	Duration     time.Duration `json:"duration"`
	Error        string        `json:"error,omitempty"`
}
