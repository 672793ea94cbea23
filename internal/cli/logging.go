package cli

import (
	"io"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// newLogger returns a logfmt logger on w that drops debug lines unless verbose.
func newLogger(w io.Writer, verbose bool) log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)

	allowed := level.AllowInfo()
	if verbose {
		allowed = level.AllowDebug()
	}
	return level.NewFilter(logger, allowed)
}
