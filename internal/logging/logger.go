package logging

import (
	"log/slog"
	"strings"
	"sync"
)

// Identifier is the SYSLOG_IDENTIFIER attached to journal entries.
const Identifier = "sysledd"

// Logger is a duck-typed interface satisfied by *slog.Logger.
// Use this interface instead of *slog.Logger to decouple from the concrete type.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

var (
	moduleLoggers   = make(map[string]*slog.Logger)
	moduleLevelVars = make(map[string]*slog.LevelVar)
	globalConfig    Config
	globalLevelVar  = &slog.LevelVar{} // default level
	builtFormat     = "text"
	isInitialized   bool
	mutex           sync.RWMutex
)

// Config represents logging configuration.
type Config struct {
	Level   string            `toml:"level"`
	Format  string            `toml:"format"`
	Modules map[string]string `toml:"modules"`
}

// Initialize sets up the logging system. It may be called again to apply a
// changed configuration; existing module loggers pick up new levels in
// place.
func Initialize(config Config) {
	mutex.Lock()
	defer mutex.Unlock()

	globalConfig = config
	isInitialized = true

	globalLevelVar.Set(levelOrInfo(config.Level))

	format := normalizeFormat(config.Format)
	rebuild := format != builtFormat
	builtFormat = format

	// Loggers handed out earlier keep their pointer; only their LevelVar
	// changes unless the output format did.
	for module, levelVar := range moduleLevelVars {
		levelVar.Set(moduleLevel(module))
		if rebuild {
			moduleLoggers[module] = slog.New(newOutput(format, levelVar)).With("module", module)
		}
	}

	slog.SetDefault(slog.New(newOutput(format, globalLevelVar)))
}

// CurrentConfig returns the configuration last passed to Initialize.
func CurrentConfig() Config {
	mutex.RLock()
	defer mutex.RUnlock()
	return globalConfig
}

// GetLogger returns a logger for the specified module, creating it if needed.
func GetLogger(module string) *slog.Logger {
	mutex.RLock()
	if logger, exists := moduleLoggers[module]; exists {
		mutex.RUnlock()
		return logger
	}
	mutex.RUnlock()

	mutex.Lock()
	defer mutex.Unlock()

	// Double-check in case another goroutine created it
	if logger, exists := moduleLoggers[module]; exists {
		return logger
	}

	// Create a LevelVar for this module so level can be changed at runtime
	levelVar := &slog.LevelVar{}
	if isInitialized {
		levelVar.Set(moduleLevel(module))
	} else {
		levelVar.Set(slog.LevelInfo)
	}

	logger := slog.New(newOutput(builtFormat, levelVar)).With("module", module)
	moduleLoggers[module] = logger
	moduleLevelVars[module] = levelVar
	return logger
}

// moduleLevel resolves the level for module from globalConfig.
// Caller must hold mutex.
func moduleLevel(module string) slog.Level {
	if levelStr, exists := globalConfig.Modules[module]; exists {
		if parsed := parseLevel(levelStr); parsed != nil {
			return *parsed
		}
	}
	return levelOrInfo(globalConfig.Level)
}

func levelOrInfo(level string) slog.Level {
	if parsed := parseLevel(level); parsed != nil {
		return *parsed
	}
	return slog.LevelInfo
}

func normalizeFormat(format string) string {
	if strings.EqualFold(format, "json") {
		return "json"
	}
	return "text"
}

// parseLevel converts string level to slog.Level.
func parseLevel(level string) *slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		l := slog.LevelDebug
		return &l
	case "info":
		l := slog.LevelInfo
		return &l
	case "warn", "warning":
		l := slog.LevelWarn
		return &l
	case "error":
		l := slog.LevelError
		return &l
	default:
		return nil
	}
}
