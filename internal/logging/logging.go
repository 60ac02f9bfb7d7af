// Package logging builds the process logger.
//
// Console output is the default; LOG_FORMAT=json switches to line-delimited
// JSON for log shippers. The level is global so a config reload can change it
// without rebuilding loggers that components already hold.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const consoleTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// New creates the root logger writing to stdout.
func New(level, format string) zerolog.Logger {
	return NewWithWriter(os.Stdout, level, format)
}

func NewWithWriter(out io.Writer, level, format string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.ErrorFieldName = "err"
	SetLevel(level)

	if strings.EqualFold(strings.TrimSpace(format), "json") {
		return zerolog.New(out).With().Timestamp().Logger()
	}
	cw := zerolog.ConsoleWriter{Out: out, TimeFormat: consoleTimeFormat}
	return zerolog.New(cw).With().Timestamp().Logger()
}

// SetLevel applies the level to every logger in the process.
func SetLevel(level string) {
	zerolog.SetGlobalLevel(ParseLevel(level, zerolog.InfoLevel))
}

func ParseLevel(s string, def zerolog.Level) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return def
	}
}

// PrintfWriter adapts a zerolog logger to the Printf-style loggers gorm and
// cron expect. Lines are written at warn level under Component.
type PrintfWriter struct {
	Log       zerolog.Logger
	Component string
}

func (w PrintfWriter) Printf(format string, args ...any) {
	w.Log.Warn().Str("component", w.Component).Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}
