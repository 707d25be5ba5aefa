// Package logging configures the process-wide slog handler.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where log records go.
type Options struct {
	// File is the rotated log file. Empty disables file output.
	File string
	// Level is one of debug, info, warn or error. Anything else means info.
	Level string
	// Quiet suppresses stderr output. Set while the terminal view owns the screen.
	Quiet bool
	// Stderr overrides os.Stderr, mainly for tests.
	Stderr io.Writer
}

// Logger wraps the configured slog.Logger together with the file it writes to.
type Logger struct {
	*slog.Logger
	file io.Closer
}

// Close flushes and closes the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// ParseLevel maps a level name to its slog.Level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a Logger from opts. At least one sink is always configured:
// Quiet without a File still logs to stderr.
func New(opts Options) (*Logger, error) {
	lvl := ParseLevel(opts.Level)

	var (
		handlers []slog.Handler
		file     *lumberjack.Logger
	)

	if opts.File != "" {
		if dir := filepath.Dir(opts.File); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create log dir: %w", err)
			}
		}
		file = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    20, // MB
			MaxBackups: 3,
			MaxAge:     28, // days
		}
		handlers = append(handlers, tint.NewHandler(file, &tint.Options{
			Level:      lvl,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		}))
	}

	if !opts.Quiet || len(handlers) == 0 {
		handlers = append(handlers, stderrHandler(opts.Stderr, lvl))
	}

	l := &Logger{Logger: slog.New(joinHandlers(handlers))}
	if file != nil {
		l.file = file
	}
	return l, nil
}

func stderrHandler(w io.Writer, lvl slog.Level) slog.Handler {
	noColor := os.Getenv("NO_COLOR") != ""
	if w == nil {
		w = os.Stderr
		noColor = noColor || !isatty.IsTerminal(os.Stderr.Fd())
	} else {
		noColor = true
	}
	return tint.NewHandler(w, &tint.Options{
		Level:      lvl,
		TimeFormat: time.TimeOnly,
		NoColor:    noColor,
	})
}

func joinHandlers(handlers []slog.Handler) slog.Handler {
	if len(handlers) == 1 {
		return handlers[0]
	}
	return &MultiHandler{handlers: handlers}
}

// MultiHandler fans a record out to several handlers.
type MultiHandler struct {
	handlers []slog.Handler
}

func (m *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle passes the record to every enabled handler and joins their errors.
func (m *MultiHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, h := range m.handlers {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &MultiHandler{handlers: next}
}

func (m *MultiHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithGroup(name)
	}
	return &MultiHandler{handlers: next}
}
