package main

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"bwexport/internal/download"
)

// progressObserver draws an attachment progress bar on an interactive stderr.
type progressObserver struct {
	out io.Writer
	bar *progressbar.ProgressBar
}

func newProgressObserver(out io.Writer) *progressObserver {
	return &progressObserver{out: out}
}

func (p *progressObserver) AttachmentsQueued(total int, _ int64) {
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.out),
		progressbar.OptionSetDescription("attachments"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionClearOnFinish(),
	)
}

func (p *progressObserver) AttachmentSettled(download.Outcome) {
	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}

// finish clears the bar so the summary starts on a clean line.
func (p *progressObserver) finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

// interactive reports whether w is a terminal worth drawing on.
func interactive(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
