package download

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"bwexport/internal/attachments"
	"bwexport/internal/logging"
	"bwexport/internal/output"
	"bwexport/internal/session"
)

// Fetcher is the slice of the vault CLI the scheduler needs.
type Fetcher interface {
	GetAttachment(ctx context.Context, session, itemID, attachmentID, outputPath string) error
}

// Options configures a scheduler run.
type Options struct {
	Root        string
	MaxParallel int
	Overwrite   bool
	Verbose     bool
	// Progress, when set, is called once per settled job. Calls arrive from
	// the job goroutines and may overlap.
	Progress func(Outcome)
}

// Scheduler downloads attachment jobs in sequential, internally concurrent batches.
type Scheduler struct {
	fetcher Fetcher
	opts    Options
	logger  *slog.Logger
}

// NewScheduler validates opts and returns a scheduler.
func NewScheduler(fetcher Fetcher, opts Options, logger *slog.Logger) (*Scheduler, error) {
	if fetcher == nil {
		return nil, errors.New("download scheduler requires a fetcher")
	}
	if strings.TrimSpace(opts.Root) == "" {
		return nil, errors.New("download scheduler requires a destination root")
	}
	if opts.MaxParallel < 1 {
		return nil, fmt.Errorf("max parallel must be at least 1 (got %d)", opts.MaxParallel)
	}
	return &Scheduler{
		fetcher: fetcher,
		opts:    opts,
		logger:  logging.NewComponentLogger(logger, "download"),
	}, nil
}

// Batches splits jobs into contiguous groups of at most size entries.
func Batches(jobs []attachments.Job, size int) [][]attachments.Job {
	if size < 1 {
		size = 1
	}
	batches := make([][]attachments.Job, 0, (len(jobs)+size-1)/size)
	for start := 0; start < len(jobs); start += size {
		end := min(start+size, len(jobs))
		batches = append(batches, jobs[start:end])
	}
	return batches
}

// Target returns the final on-disk path for a job under root.
func Target(root string, job attachments.Job) string {
	return filepath.Join(root, job.ItemDir(), job.DiskName())
}

// Run processes every job and returns the collected outcomes. The first failed
// job (by position) of the first failing batch is returned as the error.
func (s *Scheduler) Run(ctx context.Context, jobs []attachments.Job, token session.Token) (Report, error) {
	logger := logging.WithContext(ctx, s.logger)
	batches := Batches(jobs, s.opts.MaxParallel)
	report := Report{Outcomes: make([]Outcome, 0, len(jobs))}

	logger.Info("downloading attachments",
		logging.Int("attachments", len(jobs)),
		logging.Int("batches", len(batches)),
		logging.Int("max_parallel", s.opts.MaxParallel),
		logging.Bool("overwrite", s.opts.Overwrite),
	)

	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("download interrupted before batch %d: %w", i+1, err)
		}
		report.Batches++
		outcomes := s.runBatch(ctx, logger, i+1, batch, token)
		report.Outcomes = append(report.Outcomes, outcomes...)
		if err := firstFailure(outcomes); err != nil {
			logger.Error("batch failed; stopping",
				logging.Int(logging.FieldBatch, i+1),
				logging.Int("remaining_batches", len(batches)-i-1),
				logging.Error(err),
			)
			return report, err
		}
	}
	return report, nil
}

func (s *Scheduler) runBatch(ctx context.Context, logger *slog.Logger, number int, batch []attachments.Job, token session.Token) []Outcome {
	s.log(ctx, logger, "starting batch", logging.Int(logging.FieldBatch, number), logging.Int("size", len(batch)))

	outcomes := make([]Outcome, len(batch))
	var wg sync.WaitGroup
	for i, job := range batch {
		wg.Add(1)
		go func(i int, job attachments.Job) {
			defer wg.Done()
			outcomes[i] = s.runJob(ctx, logger, job, token)
			outcomes[i].Batch = number
			if s.opts.Progress != nil {
				s.opts.Progress(outcomes[i])
			}
		}(i, job)
	}
	wg.Wait()
	return outcomes
}

func (s *Scheduler) runJob(ctx context.Context, logger *slog.Logger, job attachments.Job, token session.Token) Outcome {
	outcome := Outcome{Job: job, Started: time.Now()}
	fail := func(err error) Outcome {
		outcome.Status = StatusFailed
		outcome.Err = err
		outcome.Finished = time.Now()
		logger.Warn("attachment failed", jobAttrs(job, logging.Error(err))...)
		return outcome
	}

	dir := filepath.Join(s.opts.Root, job.ItemDir())
	if err := output.CreateDir(dir); err != nil {
		return fail(err)
	}
	outcome.Path = filepath.Join(dir, job.DiskName())

	exists, err := output.Exists(outcome.Path)
	if err != nil {
		return fail(err)
	}
	if exists && !s.opts.Overwrite {
		outcome.Status = StatusSkipped
		outcome.Finished = time.Now()
		s.log(ctx, logger, "attachment exists; skipping", jobAttrs(job)...)
		return outcome
	}

	tmp := output.TempPath(outcome.Path)
	if err := s.fetcher.GetAttachment(ctx, token.Reveal(), job.ItemID, job.ID, tmp); err != nil {
		output.Discard(tmp)
		return fail(&AttachmentDownloadError{AttachmentID: job.ID, FileName: job.FileName, ItemID: job.ItemID, Err: err})
	}
	written, err := output.Exists(tmp)
	if err != nil {
		output.Discard(tmp)
		return fail(err)
	}
	if !written {
		return fail(&AttachmentDownloadError{AttachmentID: job.ID, FileName: job.FileName, ItemID: job.ItemID, Err: errors.New("bw reported success but wrote no file")})
	}
	if err := output.Place(tmp, outcome.Path); err != nil {
		return fail(err)
	}

	outcome.Status = StatusDownloaded
	outcome.Finished = time.Now()
	s.log(ctx, logger, "attachment saved", jobAttrs(job, logging.Duration("elapsed", outcome.Duration()))...)
	return outcome
}

// log emits progress at info when verbose and debug otherwise.
func (s *Scheduler) log(ctx context.Context, logger *slog.Logger, msg string, args ...any) {
	level := slog.LevelDebug
	if s.opts.Verbose {
		level = slog.LevelInfo
	}
	logger.Log(ctx, level, msg, args...)
}

func jobAttrs(job attachments.Job, extra ...logging.Attr) []any {
	attrs := []logging.Attr{
		logging.String(logging.FieldItemID, job.ItemID),
		logging.String(logging.FieldAttachmentID, job.ID),
		logging.String(logging.FieldFileName, job.FileName),
	}
	return logging.Args(append(attrs, extra...)...)
}

func firstFailure(outcomes []Outcome) error {
	for _, o := range outcomes {
		if o.Status == StatusFailed {
			return o.Err
		}
	}
	return nil
}
