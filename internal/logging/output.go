package logging

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/coreos/go-systemd/v22/journal"
)

// output is the handler behind every logger this package hands out. The
// module's level is checked once in Enabled; every record that passes is
// written to all sinks.
type output struct {
	level slog.Leveler
	sinks []slog.Handler
}

// newOutput builds the handler for one module: stdout in the requested
// format when stdout is usable, plus the journal when it is reachable.
func newOutput(format string, level slog.Leveler) *output {
	opts := &slog.HandlerOptions{Level: level}
	var stdout slog.Handler
	if format == "json" {
		stdout = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		stdout = slog.NewTextHandler(os.Stdout, opts)
	}

	o := &output{level: level}
	if stdoutUsable() {
		o.sinks = append(o.sinks, stdout)
	}
	if journal.Enabled() {
		o.sinks = append(o.sinks, newJournalSink())
	}
	if len(o.sinks) == 0 {
		o.sinks = []slog.Handler{stdout}
	}
	return o
}

func (o *output) Enabled(_ context.Context, level slog.Level) bool {
	return level >= o.level.Level()
}

// Handle writes r to every sink and reports the sinks that failed.
func (o *output) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, sink := range o.sinks {
		if err := sink.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (o *output) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return o
	}
	return o.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (o *output) WithGroup(name string) slog.Handler {
	if name == "" {
		return o
	}
	return o.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

// derive keeps the level shared so a reload reaches derived loggers too.
func (o *output) derive(fn func(slog.Handler) slog.Handler) *output {
	sinks := make([]slog.Handler, len(o.sinks))
	for i, sink := range o.sinks {
		sinks[i] = fn(sink)
	}
	return &output{level: o.level, sinks: sinks}
}

// stdoutUsable reports whether stdout is a terminal, pipe, socket or
// regular file. /dev/null is a device and does not count.
func stdoutUsable() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	mode := fi.Mode()
	return mode&os.ModeCharDevice != 0 || mode&os.ModeNamedPipe != 0 || mode&os.ModeSocket != 0 || mode.IsRegular()
}
