package logging

import (
	"context"
	"log/slog"
	"strings"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID identifies one export invocation.
	FieldRunID = "run_id"
	// FieldItemID is the vault item an attachment belongs to.
	FieldItemID = "item_id"
	// FieldAttachmentID is the Bitwarden attachment identifier.
	FieldAttachmentID = "attachment_id"
	// FieldFileName is the attachment's file name.
	FieldFileName = "file_name"
	// FieldBatch is the 1-based batch number within a download run.
	FieldBatch = "batch"
)

type runIDKey struct{}

// WithRunID stores the export run identifier on the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunIDFromContext returns the run identifier stored by WithRunID.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(runIDKey{}).(string)
	return id, ok && id != ""
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if id, ok := RunIDFromContext(ctx); ok {
		return logger.With(String(FieldRunID, id))
	}
	return logger
}
