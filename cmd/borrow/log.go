package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// levelRouter splits records by severity: errors go to one handler, everything
// at or above the minimum level but below error goes to the other.
type levelRouter struct {
	minimum slog.Leveler
	out     slog.Handler
	errs    slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= lr.minimum.Level()
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.errs.Handle(ctx, r)
	}
	return lr.out.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		minimum: lr.minimum,
		out:     lr.out.WithAttrs(attrs),
		errs:    lr.errs.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		minimum: lr.minimum,
		out:     lr.out.WithGroup(name),
		errs:    lr.errs.WithGroup(name),
	}
}

// newLevelRouter builds a router writing text or JSON records.
func newLevelRouter(out, errs io.Writer, minimum slog.Level, format string) *levelRouter {
	opts := &slog.HandlerOptions{Level: minimum}
	newHandler := func(w io.Writer) slog.Handler {
		if format == "json" {
			return slog.NewJSONHandler(w, opts)
		}
		return slog.NewTextHandler(w, opts)
	}
	return &levelRouter{
		minimum: minimum,
		out:     newHandler(out),
		errs:    newHandler(errs),
	}
}

// setupLogger installs the default logger. Errors go to stderr and the rest
// to stdout; with a logPath every record is also appended to that file.
// The returned func closes the file and is nil when there is none.
func setupLogger(logPath string, minimum slog.Level, format string) (func(), error) {
	var closeFile func()

	out := io.Writer(os.Stdout)
	errs := io.Writer(os.Stderr)

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		closeFile = func() { f.Close() }
		out = io.MultiWriter(os.Stdout, f)
		errs = io.MultiWriter(os.Stderr, f)
	}

	slog.SetDefault(slog.New(newLevelRouter(out, errs, minimum, format)))
	return closeFile, nil
}
