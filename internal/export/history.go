package export

import (
	"context"
	"log/slog"

	"bwexport/internal/download"
	"bwexport/internal/history"
	"bwexport/internal/logging"
)

// Recorder persists finished runs.
type Recorder interface {
	RecordRun(ctx context.Context, run history.Run, outcomes []history.Outcome) error
}

// HistoryRun converts a result into its ledger form.
func HistoryRun(result *Result, runErr error) (history.Run, []history.Outcome) {
	run := history.Run{
		ID:          result.RunID,
		StartedAt:   result.StartedAt,
		FinishedAt:  result.FinishedAt,
		Destination: result.Destination,
		Verdict:     history.VerdictSuccess,
		Items:       result.Items,
		Attachments: result.Attachments,
		Downloaded:  result.Report.Count(download.StatusDownloaded),
		Skipped:     result.Report.Count(download.StatusSkipped),
		Failed:      result.Report.Count(download.StatusFailed),
		Bytes:       result.Report.DownloadedBytes(),
	}
	if runErr != nil {
		run.Verdict = history.VerdictFailed
		run.Error = runErr.Error()
	}

	outcomes := make([]history.Outcome, 0, len(result.Report.Outcomes))
	for i, o := range result.Report.Outcomes {
		entry := history.Outcome{
			Position:     i,
			Batch:        o.Batch,
			ItemID:       o.Job.ItemID,
			AttachmentID: o.Job.ID,
			FileName:     o.Job.FileName,
			Path:         o.Path,
			Status:       o.Status.String(),
			Size:         o.Job.Size,
			Duration:     o.Duration(),
		}
		if o.Err != nil {
			entry.Error = o.Err.Error()
		}
		outcomes = append(outcomes, entry)
	}
	return run, outcomes
}

// record stores the run; a ledger failure is logged and never fails the export.
func (e *Exporter) record(ctx context.Context, logger *slog.Logger, result *Result, runErr error) {
	if e.recorder == nil {
		return
	}
	run, outcomes := HistoryRun(result, runErr)
	if err := e.recorder.RecordRun(context.WithoutCancel(ctx), run, outcomes); err != nil {
		logger.Warn("failed to record export history", logging.Error(err))
	}
}
