package logging

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/journal"
)

// journalSink sends records to the systemd journal as structured
// fields. Level filtering is left to output.
type journalSink struct {
	// base holds SYSLOG_IDENTIFIER and the attributes added with WithAttrs,
	// already flattened.
	base   map[string]string
	prefix string
}

func newJournalSink() *journalSink {
	return &journalSink{base: map[string]string{"SYSLOG_IDENTIFIER": Identifier}}
}

func (j *journalSink) Enabled(context.Context, slog.Level) bool { return true }

func (j *journalSink) Handle(_ context.Context, r slog.Record) error {
	if err := journal.Send(r.Message, journalPriority(r.Level), j.fields(r)); err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	return nil
}

func (j *journalSink) fields(r slog.Record) map[string]string {
	fields := maps.Clone(j.base)
	r.Attrs(func(a slog.Attr) bool {
		flatten(fields, j.prefix, a)
		return true
	})
	return fields
}

func (j *journalSink) WithAttrs(attrs []slog.Attr) slog.Handler {
	base := maps.Clone(j.base)
	for _, a := range attrs {
		flatten(base, j.prefix, a)
	}
	return &journalSink{base: base, prefix: j.prefix}
}

func (j *journalSink) WithGroup(name string) slog.Handler {
	if name == "" {
		return j
	}
	return &journalSink{base: j.base, prefix: j.prefix + journalKey(name) + "_"}
}

// flatten stores a as prefix+KEY. Groups extend the prefix; inline groups
// with an empty key do not.
func flatten(fields map[string]string, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += journalKey(a.Key) + "_"
		}
		for _, member := range a.Value.Group() {
			flatten(fields, prefix, member)
		}
		return
	}
	fields[prefix+journalKey(a.Key)] = journalValue(a.Value)
}

// journalKey upper-cases key and replaces everything the journal does not
// accept in a field name with '_', so "max-level" becomes MAX_LEVEL.
// Field names may not start with '_' or a digit.
func journalKey(key string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(key) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	out := strings.TrimLeft(b.String(), "_")
	if out == "" || (out[0] >= '0' && out[0] <= '9') {
		out = "F_" + out
	}
	return out
}

func journalValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindTime:
		return v.Time().Format(time.RFC3339Nano)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'g', -1, 64)
	default:
		return v.String()
	}
}

func journalPriority(level slog.Level) journal.Priority {
	switch {
	case level >= slog.LevelError:
		return journal.PriErr
	case level >= slog.LevelWarn:
		return journal.PriWarning
	case level >= slog.LevelInfo:
		return journal.PriInfo
	default:
		return journal.PriDebug
	}
}
