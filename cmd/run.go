package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/smazurov/sysledd/internal/config"
	"github.com/smazurov/sysledd/internal/events"
	"github.com/smazurov/sysledd/internal/host"
	"github.com/smazurov/sysledd/internal/led"
	"github.com/smazurov/sysledd/internal/logging"
	"github.com/smazurov/sysledd/internal/metrics/exporters"
	"github.com/smazurov/sysledd/internal/systemd"
	"github.com/smazurov/sysledd/internal/version"
)

const metricsShutdownTimeout = 5 * time.Second

// DaemonConfig is everything the daemon needs after option parsing.
type DaemonConfig struct {
	Hardware        led.HardwareConfig
	ClassPrefix     string
	MonitorInterval time.Duration
	MonitorEnabled  bool
	MetricsEnabled  bool
	MetricsListen   string
	SleepWatch      bool
	// ConfigPath is watched for logging changes when WatchConfig is set.
	ConfigPath  string
	WatchConfig bool
	// LoggingOverrides are the logging values given on the command line or
	// in the environment. They win over the file on every reload.
	LoggingOverrides logging.Config
}

// HardwareConfig builds the backend selection from flat option values.
// gpioLines is a comma-separated list.
func HardwareConfig(backend, sysfsRoot, sysfsPrefix, i2cBus string, i2cAddr, registerBase int, gpioChip, gpioLines string) led.HardwareConfig {
	var lines []string
	for _, l := range strings.Split(gpioLines, ",") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return led.HardwareConfig{
		Backend:      backend,
		SysfsRoot:    sysfsRoot,
		SysfsPrefix:  sysfsPrefix,
		I2CBus:       i2cBus,
		I2CAddr:      i2cAddr,
		RegisterBase: registerBase,
		GPIOChip:     gpioChip,
		GPIOLines:    lines,
	}
}

// Daemon owns the indicator driver and everything around it for the
// lifetime of the process.
type Daemon struct {
	cfg    DaemonConfig
	logger *slog.Logger

	bus      *events.Bus
	class    *host.Class
	driver   *led.Driver
	monitor  *host.Monitor
	sleep    *systemd.SleepWatcher
	notifier *systemd.Notifier
	metrics  *exporters.Server
	watcher  *config.Watcher[logging.Config]

	ready    chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewDaemon creates a daemon. Nothing is touched until Start.
func NewDaemon(cfg DaemonConfig) *Daemon {
	return &Daemon{
		cfg:    cfg,
		logger: logging.GetLogger("main"),
		ready:  make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start brings the indicators up: it opens the hardware, registers every
// channel with the class host and starts the supporting services. On
// error nothing is left registered.
func (d *Daemon) Start() error {
	d.logger.Info("Starting sysledd", "build", version.Get())

	hw, err := led.NewHardware(d.cfg.Hardware, logging.GetLogger("hardware"))
	if err != nil {
		return err
	}

	d.bus = events.New()
	d.class = host.NewClass(d.cfg.ClassPrefix, d.bus, logging.GetLogger("host"))

	driver, err := led.Probe(hw, d.class, logging.GetLogger("led"))
	if err != nil {
		var regErr *led.RegistrationError
		if errors.As(err, &regErr) {
			// Probe does not own hw on failure
			if c, ok := hw.(io.Closer); ok {
				_ = c.Close()
			}
		}
		return err
	}
	d.driver = driver

	if d.cfg.MonitorEnabled {
		d.monitor = host.NewMonitor(driver.Controller(), d.class, d.bus, d.cfg.MonitorInterval, logging.GetLogger("host"))
		d.monitor.Start()
	}

	if d.cfg.SleepWatch {
		d.sleep = systemd.NewSleepWatcher(driver, logging.GetLogger("systemd"))
		if err := d.sleep.Start(); err != nil {
			d.logger.Warn("Sleep watcher unavailable, indicators will not be frozen on suspend", "error", err)
			d.sleep = nil
		}
	}

	if d.cfg.MetricsEnabled {
		d.metrics = exporters.NewServer(d.cfg.MetricsListen, logging.GetLogger("metrics"))
		if err := d.metrics.Start(); err != nil {
			d.logger.Warn("Metrics endpoint unavailable", "addr", d.cfg.MetricsListen, "error", err)
			d.metrics = nil
		}
	}

	if d.cfg.WatchConfig && d.cfg.ConfigPath != "" {
		d.watcher = config.NewConfigWatcher(d.cfg.ConfigPath, config.ReadLoggingConfig, logging.GetLogger("config"))
		d.watcher.OnReload(d.reloadLogging)
		if err := d.watcher.Start(); err != nil {
			d.logger.Warn("Config watcher unavailable", "path", d.cfg.ConfigPath, "error", err)
			d.watcher = nil
		}
	}

	d.notifier = systemd.NewNotifier(logging.GetLogger("systemd"))
	d.notifier.Ready()
	d.logger.Info("sysledd ready", "indicators", d.class.Names())
	close(d.ready)
	return nil
}

// reloadLogging applies a logging configuration read from the file.
func (d *Daemon) reloadLogging(fromFile logging.Config) {
	cfg := config.MergeLogging(fromFile, d.cfg.LoggingOverrides)
	logging.Initialize(cfg)
	d.logger.Info("Logging configuration reloaded", "level", cfg.Level)
}

// Ready is closed once Start has succeeded.
func (d *Daemon) Ready() <-chan struct{} {
	return d.ready
}

// Wait blocks until Stop has completed.
func (d *Daemon) Wait() {
	<-d.done
}

// Stop tears the daemon down in reverse bring-up order. It is safe to call
// more than once.
func (d *Daemon) Stop() {
	d.stopOnce.Do(func() {
		defer close(d.done)
		d.logger.Info("Shutting down")

		if d.notifier != nil {
			d.notifier.Stopping()
		}
		if d.watcher != nil {
			if err := d.watcher.Stop(); err != nil {
				d.logger.Warn("Error stopping config watcher", "error", err)
			}
		}
		if d.metrics != nil {
			if err := d.metrics.Stop(metricsShutdownTimeout); err != nil {
				d.logger.Warn("Error stopping metrics endpoint", "error", err)
			}
		}
		if d.sleep != nil {
			d.sleep.Stop()
		}
		if d.monitor != nil {
			d.monitor.Stop()
		}
		if d.driver != nil {
			if err := d.driver.Remove(); err != nil {
				d.logger.Error("Error releasing indicator hardware", "error", err)
			}
		}
	})
}

// Class returns the class host once Start has succeeded.
func (d *Daemon) Class() *host.Class { return d.class }

// Bus returns the event bus once Start has succeeded.
func (d *Daemon) Bus() *events.Bus { return d.bus }

// Run starts the daemon and blocks until Stop. A bring-up failure is
// returned with the failed stage named.
func (d *Daemon) Run() error {
	if err := d.Start(); err != nil {
		return fmt.Errorf("bring-up: %w", err)
	}
	d.Wait()
	return nil
}
