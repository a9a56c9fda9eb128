package main

import (
	"os"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// embedProgress renders a progress bar over embedding batches when
// stderr is a terminal, and stays silent otherwise.
type embedProgress struct {
	enabled bool
	bar     *progressbar.ProgressBar
	done    int
}

func newEmbedProgress() *embedProgress {
	return &embedProgress{enabled: term.IsTerminal(int(os.Stderr.Fd()))}
}

func (p *embedProgress) report(done, total int) {
	if !p.enabled || total <= 0 {
		return
	}
	if p.bar == nil {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("embedding"),
			progressbar.OptionSetWidth(32),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
	}
	if done > p.done {
		_ = p.bar.Add(done - p.done)
		p.done = done
	}
}

func (p *embedProgress) finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}
