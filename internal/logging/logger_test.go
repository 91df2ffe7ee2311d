package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/coreos/go-systemd/v22/journal"
)

func resetState() {
	mutex.Lock()
	moduleLoggers = make(map[string]*slog.Logger)
	moduleLevelVars = make(map[string]*slog.LevelVar)
	isInitialized = false
	globalConfig = Config{}
	builtFormat = "text"
	mutex.Unlock()
}

func TestModuleLevelOverride(t *testing.T) {
	resetState()

	// Initialize with global info level, but led module at debug
	Initialize(Config{
		Level:  "info",
		Format: "text",
		Modules: map[string]string{
			"led":  "debug",
			"host": "warn",
		},
	})

	tests := []struct {
		module    string
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{"led", true, true, true},
		{"host", false, false, true},
		{"other", false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			handler := GetLogger(tt.module).Handler()

			gotDebug := handler.Enabled(context.Background(), slog.LevelDebug)
			gotInfo := handler.Enabled(context.Background(), slog.LevelInfo)
			gotWarn := handler.Enabled(context.Background(), slog.LevelWarn)

			if gotDebug != tt.wantDebug {
				t.Errorf("module %q: Debug enabled = %v, want %v", tt.module, gotDebug, tt.wantDebug)
			}
			if gotInfo != tt.wantInfo {
				t.Errorf("module %q: Info enabled = %v, want %v", tt.module, gotInfo, tt.wantInfo)
			}
			if gotWarn != tt.wantWarn {
				t.Errorf("module %q: Warn enabled = %v, want %v", tt.module, gotWarn, tt.wantWarn)
			}
		})
	}
}

func TestReinitializeUpdatesLevelsInPlace(t *testing.T) {
	resetState()

	Initialize(Config{Level: "info"})
	logger := GetLogger("systemd")
	if logger.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("debug should be disabled at info level")
	}

	Initialize(Config{Level: "info", Modules: map[string]string{"systemd": "debug"}})
	if GetLogger("systemd") != logger {
		t.Error("logger should be reused across Initialize calls")
	}
	if !logger.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug should be enabled after reconfiguration")
	}
	if got := CurrentConfig().Modules["systemd"]; got != "debug" {
		t.Errorf("CurrentConfig module level = %q, want debug", got)
	}
}

func TestReinitializeFormatChangeRebuildsHandlers(t *testing.T) {
	resetState()

	Initialize(Config{Level: "warn", Format: "text"})
	before := GetLogger("metrics")

	Initialize(Config{Level: "warn", Format: "JSON"})
	after := GetLogger("metrics")
	if before == after {
		t.Error("format change should rebuild module loggers")
	}
	if after.Handler().Enabled(context.Background(), slog.LevelInfo) {
		t.Error("rebuilt logger should keep the warn level")
	}
}

func TestModuleLevelOnOutput(t *testing.T) {
	resetState()

	Initialize(Config{
		Level:  "info",
		Format: "text",
		Modules: map[string]string{
			"hardware": "debug",
		},
	})

	handler := GetLogger("hardware").Handler()

	// Regardless of handler type, debug should be enabled
	if !handler.Enabled(context.Background(), slog.LevelDebug) {
		t.Errorf("Debug should be enabled for hardware module, handler type: %T", handler)
	}
}

func TestOutputGatesOnceAndFansOut(t *testing.T) {
	var first, second bytes.Buffer
	level := &slog.LevelVar{}
	level.Set(slog.LevelInfo)

	// Sinks accept everything; the module level decides
	all := &slog.HandlerOptions{Level: slog.LevelDebug}
	o := &output{level: level, sinks: []slog.Handler{
		slog.NewTextHandler(&first, all),
		slog.NewTextHandler(&second, all),
	}}
	logger := slog.New(o).With("module", "test")

	logger.Debug("hidden")
	if first.Len() != 0 || second.Len() != 0 {
		t.Fatalf("debug record passed an info gate: %q %q", first.String(), second.String())
	}

	grouped := logger.WithGroup("led")
	level.Set(slog.LevelDebug)
	grouped.Debug("grouped", "channel", "fan")
	for i, buf := range []*bytes.Buffer{&first, &second} {
		if got := strings.Count(buf.String(), "led.channel=fan"); got != 1 {
			t.Errorf("sink %d: want one grouped record after level change, output: %s", i, buf.String())
		}
	}
}

type failingSink struct{ slog.Handler }

func (failingSink) Handle(context.Context, slog.Record) error { return errors.New("sink down") }

func TestOutputReportsSinkErrors(t *testing.T) {
	var buf bytes.Buffer
	o := &output{level: slog.LevelInfo, sinks: []slog.Handler{
		failingSink{slog.NewTextHandler(&buf, nil)},
		slog.NewTextHandler(&buf, nil),
	}}

	err := o.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "still written", 0))
	if err == nil || !strings.Contains(err.Error(), "sink down") {
		t.Errorf("Handle error = %v, want sink down", err)
	}
	if !strings.Contains(buf.String(), "still written") {
		t.Error("healthy sink should still receive the record")
	}
}

func TestGetLoggerBeforeInitialize(t *testing.T) {
	resetState()

	// Get logger BEFORE Initialize - should default to info level
	loggerBefore := GetLogger("led")
	handlerBefore := loggerBefore.Handler()

	if handlerBefore.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Logger created before Initialize should NOT have debug enabled")
	}

	Initialize(Config{
		Level:  "info",
		Format: "text",
		Modules: map[string]string{
			"led": "debug",
		},
	})

	loggerAfter := GetLogger("led")
	if loggerBefore != loggerAfter {
		t.Error("Logger should be cached - same pointer before and after Initialize")
	}

	// The cached logger should now have debug enabled (LevelVar was updated)
	if !handlerBefore.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Cached logger should have debug enabled after Initialize updates LevelVar")
	}
}

type channelValue string

func (c channelValue) LogValue() slog.Value { return slog.StringValue("indicator " + string(c)) }

func TestJournalSinkFields(t *testing.T) {
	r := slog.NewRecord(time.Now(), slog.LevelInfo, "Indicator registered", 0)
	r.AddAttrs(
		slog.String("name", "sysled::fan"),
		slog.Int("max-level", 2),
		slog.Float64("ratio", 0.5),
		slog.Any("channel", channelValue("fan")),
		slog.Group("hw", slog.String("backend", "fpga")),
		slog.Group("", slog.Bool("inline", true)),
	)

	sink := newJournalSink().WithAttrs([]slog.Attr{slog.String("module", "host")}).(*journalSink)
	fields := sink.fields(r)

	want := map[string]string{
		"SYSLOG_IDENTIFIER": Identifier,
		"MODULE":            "host",
		"NAME":              "sysled::fan",
		"MAX_LEVEL":         "2",
		"RATIO":             "0.5",
		"CHANNEL":           "indicator fan",
		"HW_BACKEND":        "fpga",
		"INLINE":            "true",
	}
	for k, v := range want {
		if fields[k] != v {
			t.Errorf("field %s = %q, want %q", k, fields[k], v)
		}
	}

	grouped := sink.WithGroup("led").(*journalSink).fields(r)
	if grouped["LED_NAME"] != "sysled::fan" {
		t.Errorf("grouped field LED_NAME = %q", grouped["LED_NAME"])
	}
	if grouped["MODULE"] != "host" {
		t.Errorf("attrs added before the group keep their key, MODULE = %q", grouped["MODULE"])
	}
	if _, leaked := sink.base["LED_NAME"]; leaked {
		t.Error("record attributes leaked into the sink's base fields")
	}
}

func TestJournalKey(t *testing.T) {
	tests := map[string]string{
		"module":    "MODULE",
		"max-level": "MAX_LEVEL",
		"_private":  "PRIVATE",
		"2nd":       "F_2ND",
		"":          "F_",
	}
	for in, want := range tests {
		if got := journalKey(in); got != want {
			t.Errorf("journalKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestJournalPriority(t *testing.T) {
	if journalPriority(slog.LevelError) != journal.PriErr || journalPriority(slog.LevelDebug) != journal.PriDebug {
		t.Error("unexpected priority mapping")
	}
	if journalPriority(slog.LevelWarn+1) != journal.PriWarning {
		t.Error("levels between warn and error map to warning")
	}
}

func TestParseLevelValues(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
		isNil bool
	}{
		{"debug", slog.LevelDebug, false},
		{"DEBUG", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"invalid", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseLevel(tt.input)
			if tt.isNil {
				if got != nil {
					t.Errorf("parseLevel(%q) = %v, want nil", tt.input, *got)
				}
			} else {
				if got == nil {
					t.Errorf("parseLevel(%q) = nil, want %v", tt.input, tt.want)
				} else if *got != tt.want {
					t.Errorf("parseLevel(%q) = %v, want %v", tt.input, *got, tt.want)
				}
			}
		})
	}
}
