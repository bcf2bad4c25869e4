package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"bwexport/internal/download"
	"bwexport/internal/export"
)

type exportOutcome struct {
	ItemID       string `json:"item_id"`
	AttachmentID string `json:"attachment_id"`
	FileName     string `json:"file_name"`
	Path         string `json:"path,omitempty"`
	Status       string `json:"status"`
	Size         int64  `json:"size"`
	Batch        int    `json:"batch"`
	Error        string `json:"error,omitempty"`
}

type exportSummary struct {
	RunID       string          `json:"run_id"`
	Success     bool            `json:"success"`
	Error       string          `json:"error,omitempty"`
	Destination string          `json:"destination"`
	Catalog     string          `json:"catalog,omitempty"`
	Session     string          `json:"session_source,omitempty"`
	Items       int             `json:"items"`
	Attachments int             `json:"attachments"`
	Batches     int             `json:"batches"`
	Downloaded  int             `json:"downloaded"`
	Skipped     int             `json:"skipped"`
	Failed      int             `json:"failed"`
	Bytes       int64           `json:"bytes"`
	DurationMS  int64           `json:"duration_ms"`
	Outcomes    []exportOutcome `json:"outcomes"`
}

func newExportSummary(result *export.Result, runErr error) exportSummary {
	summary := exportSummary{
		RunID:       result.RunID,
		Success:     runErr == nil,
		Destination: result.Destination,
		Catalog:     result.CatalogPath,
		Session:     string(result.SessionSource),
		Items:       result.Items,
		Attachments: result.Attachments,
		Batches:     result.Report.Batches,
		Downloaded:  result.Report.Count(download.StatusDownloaded),
		Skipped:     result.Report.Count(download.StatusSkipped),
		Failed:      result.Report.Count(download.StatusFailed),
		Bytes:       result.Report.DownloadedBytes(),
		DurationMS:  result.Duration().Milliseconds(),
		Outcomes:    make([]exportOutcome, 0, len(result.Report.Outcomes)),
	}
	if runErr != nil {
		summary.Error = runErr.Error()
	}
	for _, o := range result.Report.Outcomes {
		entry := exportOutcome{
			ItemID:       o.Job.ItemID,
			AttachmentID: o.Job.ID,
			FileName:     o.Job.FileName,
			Path:         o.Path,
			Status:       o.Status.String(),
			Size:         o.Job.Size,
			Batch:        o.Batch,
		}
		if o.Err != nil {
			entry.Error = o.Err.Error()
		}
		summary.Outcomes = append(summary.Outcomes, entry)
	}
	return summary
}

func renderExportResult(result *export.Result, runErr error, detailed bool) string {
	var b strings.Builder

	verdict, paint := "complete", color.New(color.FgGreen, color.Bold)
	if runErr != nil {
		verdict, paint = "FAILED", color.New(color.FgRed, color.Bold)
	}
	b.WriteString(paint.Sprintf("Export %s (run %s, %s)", verdict, shortID(result.RunID), result.Duration().Round(time.Millisecond)))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Destination: %s\n", result.Destination)
	if result.CatalogPath != "" {
		fmt.Fprintf(&b, "Catalog:     %s (%d items)\n", result.CatalogPath, result.Items)
	}

	report := result.Report
	if len(report.Outcomes) > 0 {
		rows := [][]string{
			{"Downloaded", fmt.Sprintf("%d", report.Count(download.StatusDownloaded)), humanize.Bytes(uint64(report.DownloadedBytes()))},
			{"Skipped", fmt.Sprintf("%d", report.Count(download.StatusSkipped)), ""},
			{"Failed", fmt.Sprintf("%d", report.Count(download.StatusFailed)), ""},
		}
		b.WriteString(renderTable([]column{left("Attachments"), right("Count"), right("Size")}, rows))
		b.WriteString("\n")
	}

	if detailed && len(report.Outcomes) > 0 {
		rows := make([][]string, 0, len(report.Outcomes))
		for _, o := range report.Outcomes {
			rows = append(rows, []string{
				o.Job.ItemID,
				o.Job.FileName,
				humanize.Bytes(uint64(o.Job.Size)),
				o.Status.String(),
				o.Duration().Round(time.Millisecond).String(),
			})
		}
		b.WriteString(renderTable([]column{left("Item"), left("File"), right("Size"), left("Status"), right("Time")}, rows))
		b.WriteString("\n")
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
