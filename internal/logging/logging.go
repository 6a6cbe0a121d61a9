// Package logging builds the zerolog loggers used across the CLI and server.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options selects level, output format and destination.
type Options struct {
	Level  string
	Format string // console | json
	Out    io.Writer
	Debug  bool
}

// New returns a logger writing to Out (stderr by default). Debug forces the
// debug level regardless of Level.
func New(opt Options) (zerolog.Logger, error) {
	out := opt.Out
	if out == nil {
		out = os.Stderr
	}
	lvl := zerolog.InfoLevel
	if opt.Level != "" {
		l, err := zerolog.ParseLevel(strings.ToLower(opt.Level))
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("log level %q: %w", opt.Level, err)
		}
		lvl = l
	}
	if opt.Debug {
		lvl = zerolog.DebugLevel
	}

	var w io.Writer
	switch opt.Format {
	case "", "console":
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen, NoColor: !isTerminal(out)}
	case "json":
		w = out
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log format %q", opt.Format)
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// Component tags a logger with the emitting component.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
