// Package logging provides structured logging with per-module log level configuration.
//
// # Overview
//
// The logging system uses Go's slog package with automatic output routing:
//   - Logs to systemd journal when available (Linux systems with journald)
//   - Logs to stdout when a terminal, pipe, or file is connected
//   - Logs to both when both are available
//
// # Usage
//
// Initialize the logging system once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",      // Global log level: debug, info, warn, error
//		Format: "text",      // Output format: text or json
//		Modules: map[string]string{
//			"led":  "debug",  // Per-module overrides
//			"host": "warn",
//		},
//	})
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("led")
//	logger.Info("Status indicators registered", "channels", 5)
//
// Calling Initialize again applies a changed configuration. Loggers handed
// out earlier stay valid and pick up the new levels.
//
// # Viewing Logs
//
// When running as a systemd service or on a system with journald:
//
//	journalctl -t sysledd                # All sysledd logs
//	journalctl -t sysledd -f             # Follow live
//	journalctl -t sysledd -p warning     # Warnings and errors
//
// Filter by structured fields:
//
//	journalctl -t sysledd MODULE=host
//	journalctl -t sysledd CHANNEL=fan
//
// # Configuration
//
// Example TOML configuration:
//
//	[logging]
//	level = "info"
//	format = "text"
//
//	[logging.modules]
//	led = "debug"
//	systemd = "warn"
package logging
