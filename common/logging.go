package common

import (
	"io"
	"os"
	"time"

	"github.com/phuslu/log"
)

// NewLogger creates a logger writing to w at the given level.
// format "json" writes one JSON object per line, anything else a human
// readable console line.
func NewLogger(level, format string, w io.Writer) *log.Logger {
	var writer log.Writer
	switch format {
	case "json":
		writer = log.IOWriter{Writer: w}
	default:
		writer = &log.ConsoleWriter{
			Writer:         w,
			ColorOutput:    isTerminal(w),
			QuoteString:    true,
			EndWithMessage: true,
		}
	}
	return &log.Logger{
		Level:      parseLevel(level),
		TimeFormat: time.RFC3339,
		Writer:     writer,
	}
}

// NewDefaultLogger creates a console logger on stderr from the logging config.
func NewDefaultLogger(c LoggingConfig) *log.Logger {
	return NewLogger(c.Level, c.Format, os.Stderr)
}

// NewSilentLogger creates a logger that discards all output
func NewSilentLogger() *log.Logger {
	return &log.Logger{Level: log.PanicLevel, Writer: log.IOWriter{Writer: io.Discard}}
}

func parseLevel(level string) log.Level {
	switch level {
	case "trace":
		return log.TraceLevel
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && log.IsTerminal(f.Fd())
}
