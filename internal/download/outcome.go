package download

import (
	"time"

	"bwexport/internal/attachments"
)

// Status is the terminal state of one job.
type Status int

const (
	StatusSkipped Status = iota + 1
	StatusDownloaded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSkipped:
		return "skipped"
	case StatusDownloaded:
		return "downloaded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome records what happened to one job.
type Outcome struct {
	Job      attachments.Job
	Status   Status
	Path     string
	Batch    int
	Err      error
	Started  time.Time
	Finished time.Time
}

// Duration is the wall time spent on the job.
func (o Outcome) Duration() time.Duration {
	return o.Finished.Sub(o.Started)
}

// Report aggregates the outcomes of a scheduler run. On failure it holds every
// job that settled, including the whole failing batch.
type Report struct {
	Outcomes []Outcome
	Batches  int
}

// Count returns how many outcomes have the given status.
func (r Report) Count(status Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// DownloadedBytes sums the declared sizes of downloaded attachments.
func (r Report) DownloadedBytes() int64 {
	var total int64
	for _, o := range r.Outcomes {
		if o.Status == StatusDownloaded {
			total += o.Job.Size
		}
	}
	return total
}
