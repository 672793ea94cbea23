package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

// ProgressReporter shows extraction progress with a progress bar and prints
// a summary line when done. A quiet reporter prints nothing.
type ProgressReporter struct {
	quiet bool
	out   io.Writer
	bar   *progressbar.ProgressBar
}

// NewProgressReporter creates a reporter writing to out.
func NewProgressReporter(out io.Writer, quiet bool) *ProgressReporter {
	return &ProgressReporter{
		quiet: quiet,
		out:   out,
	}
}

func (p *ProgressReporter) OnStart(total int) {
	if p.quiet {
		return
	}
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.out),
		progressbar.OptionSetDescription("Extracting symbols"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

func (p *ProgressReporter) OnSymbol(fqn string) {
	if p.quiet || p.bar == nil {
		return
	}
	p.bar.Add(1)
}

// Abort drops the bar without a summary.
func (p *ProgressReporter) Abort() {
	if p.quiet || p.bar == nil {
		return
	}
	p.bar.Exit()
	p.bar = nil
	fmt.Fprintln(p.out)
}

func (p *ProgressReporter) OnComplete(count int, outPath string, elapsed time.Duration) {
	if p.quiet {
		return
	}
	if p.bar != nil {
		p.bar.Finish()
		p.bar = nil
	}
	fmt.Fprintf(p.out, "✓ Wrote %d symbols to %s (%.2fs)\n", count, outPath, elapsed.Seconds())
}
