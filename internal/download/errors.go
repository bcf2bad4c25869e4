package download

import (
	"errors"
	"fmt"
)

// ErrAttachmentDownload matches every *AttachmentDownloadError.
var ErrAttachmentDownload = errors.New("attachment download failed")

// AttachmentDownloadError reports a job whose fetch through the vault CLI failed.
type AttachmentDownloadError struct {
	AttachmentID string
	FileName     string
	ItemID       string
	Err          error
}

func (e *AttachmentDownloadError) Error() string {
	return fmt.Sprintf("download attachment %s (%q) of item %s: %v", e.AttachmentID, e.FileName, e.ItemID, e.Err)
}

func (e *AttachmentDownloadError) Unwrap() error {
	return e.Err
}

func (e *AttachmentDownloadError) Is(target error) bool {
	return target == ErrAttachmentDownload
}
