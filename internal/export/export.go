package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"bwexport/internal/attachments"
	"bwexport/internal/catalog"
	"bwexport/internal/download"
	"bwexport/internal/logging"
	"bwexport/internal/output"
	"bwexport/internal/session"
)

// LockFileName is created inside the destination while an export holds it.
const LockFileName = ".bwexport.lock"

// DefaultCatalogFile is the catalog dump name used when none is configured.
const DefaultCatalogFile = "items.json"

// ErrDestinationLocked is returned when another export holds the destination.
var ErrDestinationLocked = errors.New("destination is locked by another export")

// Vault is the full capability set of the external vault CLI.
type Vault interface {
	session.Authenticator
	catalog.Lister
	download.Fetcher
}

// Options configures one export run.
type Options struct {
	Destination string
	MaxParallel int
	Overwrite   bool
	Verbose     bool
}

// Result describes a finished (or failed) run.
type Result struct {
	RunID         string
	Destination   string
	CatalogPath   string
	Items         int
	Attachments   int
	SessionSource session.Source
	Report        download.Report
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Duration is the wall time of the run.
func (r *Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Observer follows download progress. AttachmentSettled may be called from
// several goroutines at once.
type Observer interface {
	AttachmentsQueued(total int, declaredBytes int64)
	AttachmentSettled(outcome download.Outcome)
}

// Exporter runs exports against a vault.
type Exporter struct {
	vault         Vault
	logger        *slog.Logger
	sessionEnv    string
	catalogFile   string
	recorder      Recorder
	observer      Observer
	terminalCheck func() bool
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Exporter) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithSessionEnv names the environment variable holding a reusable session.
func WithSessionEnv(name string) Option {
	return func(e *Exporter) {
		e.sessionEnv = name
	}
}

// WithCatalogFile overrides the catalog dump file name.
func WithCatalogFile(name string) Option {
	return func(e *Exporter) {
		if strings.TrimSpace(name) != "" {
			e.catalogFile = name
		}
	}
}

// WithRecorder records every run in a history ledger.
func WithRecorder(recorder Recorder) Option {
	return func(e *Exporter) {
		e.recorder = recorder
	}
}

// WithObserver reports download progress to o.
func WithObserver(o Observer) Option {
	return func(e *Exporter) {
		e.observer = o
	}
}

// WithTerminalCheck overrides stdin terminal detection (primarily for tests).
func WithTerminalCheck(fn func() bool) Option {
	return func(e *Exporter) {
		e.terminalCheck = fn
	}
}

// New constructs an Exporter around the vault CLI.
func New(vault Vault, opts ...Option) (*Exporter, error) {
	if vault == nil {
		return nil, errors.New("exporter requires a vault")
	}
	e := &Exporter{
		vault:       vault,
		logger:      logging.NewNop(),
		catalogFile: DefaultCatalogFile,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Run performs one export. The returned Result is never nil and reflects
// whatever progress was made before an error.
func (e *Exporter) Run(ctx context.Context, opts Options) (*Result, error) {
	result := &Result{
		RunID:       uuid.NewString(),
		Destination: opts.Destination,
		StartedAt:   time.Now(),
	}
	ctx = logging.WithRunID(ctx, result.RunID)
	logger := logging.WithContext(ctx, logging.NewComponentLogger(e.logger, "export"))

	err := e.run(ctx, logger, opts, result)
	result.FinishedAt = time.Now()
	e.record(ctx, logger, result, err)

	if err != nil {
		logger.Error("export failed", logging.Error(err), logging.Duration("elapsed", result.Duration()))
		return result, err
	}
	logger.Info("export complete",
		logging.String("destination", result.Destination),
		logging.Int("downloaded", result.Report.Count(download.StatusDownloaded)),
		logging.Int("skipped", result.Report.Count(download.StatusSkipped)),
		logging.String("size", humanize.Bytes(uint64(result.Report.DownloadedBytes()))),
		logging.Duration("elapsed", result.Duration()),
	)
	return result, nil
}

func (e *Exporter) run(ctx context.Context, logger *slog.Logger, opts Options, result *Result) error {
	if strings.TrimSpace(opts.Destination) == "" {
		return errors.New("destination is required")
	}
	if opts.MaxParallel < 1 {
		return fmt.Errorf("max parallel must be at least 1 (got %d)", opts.MaxParallel)
	}
	logger.Info("export started",
		logging.String("destination", opts.Destination),
		logging.Int("max_parallel", opts.MaxParallel),
		logging.Bool("overwrite", opts.Overwrite),
	)

	providerOpts := []session.Option{
		session.WithSessionEnv(e.sessionEnv),
		session.WithLogger(logging.WithContext(ctx, e.logger)),
	}
	if e.terminalCheck != nil {
		providerOpts = append(providerOpts, session.WithTerminalCheck(e.terminalCheck))
	}
	provider := session.NewProvider(e.vault, providerOpts...)
	token, err := provider.Acquire(ctx)
	if err != nil {
		return err
	}
	result.SessionSource = provider.Source()
	logger.Debug("session acquired", logging.String("source", string(result.SessionSource)), logging.Any("session", token))

	cat, err := catalog.Fetch(ctx, e.vault, token.Reveal())
	if err != nil {
		return err
	}
	result.Items = len(cat.Items)
	result.Attachments = cat.AttachmentCount()
	logger.Info("catalog fetched",
		logging.Int("items", result.Items),
		logging.Int("attachments", result.Attachments),
	)

	if err := output.CreateDir(opts.Destination); err != nil {
		return err
	}
	lock := flock.New(filepath.Join(opts.Destination, LockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire destination lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("%w: %s", ErrDestinationLocked, opts.Destination)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	result.CatalogPath = filepath.Join(opts.Destination, e.catalogFile)
	if err := output.WriteCatalog(result.CatalogPath, cat); err != nil {
		return err
	}
	logger.Info("catalog written", logging.String("path", result.CatalogPath))

	jobs, err := attachments.Extract(cat.Items)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		logger.Info("no attachments to download")
		return nil
	}
	logger.Info("attachments queued",
		logging.Int("attachments", len(jobs)),
		logging.String("declared_size", humanize.Bytes(uint64(attachments.TotalSize(jobs)))),
	)

	schedOpts := download.Options{
		Root:        opts.Destination,
		MaxParallel: opts.MaxParallel,
		Overwrite:   opts.Overwrite,
		Verbose:     opts.Verbose,
	}
	if e.observer != nil {
		e.observer.AttachmentsQueued(len(jobs), attachments.TotalSize(jobs))
		schedOpts.Progress = e.observer.AttachmentSettled
	}
	scheduler, err := download.NewScheduler(e.vault, schedOpts, e.logger)
	if err != nil {
		return err
	}
	report, err := scheduler.Run(ctx, jobs, token)
	result.Report = report
	return err
}
