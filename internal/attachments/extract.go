package attachments

import (
	"errors"
	"fmt"

	"bwexport/internal/output"
	"bwexport/internal/vault"
)

// ErrDuplicateAttachmentName matches every *DuplicateNameError.
var ErrDuplicateAttachmentName = errors.New("duplicate attachment name")

// DuplicateNameError identifies an item whose attachments would overwrite each other.
type DuplicateNameError struct {
	ItemID   string
	ItemName string
	FileName string
	// Other is the colliding name when it differs from FileName only after
	// sanitization (for example "a/b" and "a_b").
	Other string
}

func (e *DuplicateNameError) Error() string {
	if e.Other != "" && e.Other != e.FileName {
		return fmt.Sprintf("item %s (%s) has attachments %q and %q that map to the same file", e.ItemID, e.ItemName, e.Other, e.FileName)
	}
	return fmt.Sprintf("item %s (%s) has more than one attachment named %q", e.ItemID, e.ItemName, e.FileName)
}

func (e *DuplicateNameError) Is(target error) bool {
	return target == ErrDuplicateAttachmentName
}

// Job is one attachment to materialize on disk.
type Job struct {
	ID       string
	FileName string
	Size     int64
	ItemID   string
	ItemName string
}

// DiskName is the sanitized file name the job is written under.
func (j Job) DiskName() string {
	return output.SafeFileName(j.FileName)
}

// ItemDir is the sanitized per-item directory name.
func (j Job) ItemDir() string {
	return output.SafeFileName(j.ItemID)
}

// Extract returns one job per attachment, ordered by item and then by
// attachment. Any item with colliding file names fails the whole extraction.
func Extract(items []vault.Item) ([]Job, error) {
	jobs := make([]Job, 0, vault.AttachmentCount(items))
	for _, item := range items {
		if !item.HasAttachments() {
			continue
		}
		if err := checkUnique(item); err != nil {
			return nil, err
		}
		for _, att := range item.Attachments {
			jobs = append(jobs, Job{
				ID:       att.ID,
				FileName: att.FileName,
				Size:     att.SizeBytes(),
				ItemID:   item.ID,
				ItemName: item.Name,
			})
		}
	}
	return jobs, nil
}

func checkUnique(item vault.Item) error {
	seen := make(map[string]string, len(item.Attachments))
	for _, att := range item.Attachments {
		key := output.SafeFileName(att.FileName)
		if prev, ok := seen[key]; ok {
			return &DuplicateNameError{
				ItemID:   item.ID,
				ItemName: item.Name,
				FileName: att.FileName,
				Other:    prev,
			}
		}
		seen[key] = att.FileName
	}
	return nil
}

// TotalSize sums the declared sizes of jobs.
func TotalSize(jobs []Job) int64 {
	var total int64
	for _, job := range jobs {
		total += job.Size
	}
	return total
}
