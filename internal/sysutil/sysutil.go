// Package sysutil holds small process-level helpers: zerolog construction
// and level parsing, and the shutdown-signal context used by the server.
package sysutil

import (
	"context"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

// ParseLevel maps a config string to a zerolog level. Unknown or empty
// values fall back to info.
func ParseLevel(lvl string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger builds the process logger writing to w: human-readable console
// output when pretty is set, JSON otherwise. It also sets the global level
// so package-level zerolog calls honor the same threshold.
func NewLogger(w io.Writer, level string, pretty bool) zerolog.Logger {
	lvl := ParseLevel(level)
	zerolog.SetGlobalLevel(lvl)

	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// ShutdownContext returns a context canceled on SIGINT or SIGTERM, plus the
// stop function releasing the signal registration.
func ShutdownContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// FirstNonEmpty returns the first value that is not blank after trimming,
// or "" when all are.
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
