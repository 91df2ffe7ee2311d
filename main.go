package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"

	"github.com/smazurov/sysledd/cmd"
	"github.com/smazurov/sysledd/internal/config"
	"github.com/smazurov/sysledd/internal/host"
	"github.com/smazurov/sysledd/internal/logging"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Hardware settings
	HardwareBackend      string `help:"Indicator backend (auto, sysfs, fpga, gpio, sim)" default:"auto" toml:"hardware.backend" env:"HARDWARE_BACKEND"`
	HardwareSysfsRoot    string `help:"LED class directory" default:"/sys/class/leds" toml:"hardware.sysfs_root" env:"HARDWARE_SYSFS_ROOT"`
	HardwareSysfsPrefix  string `help:"LED class name prefix" default:"marvell_dbmvtx9180_led" toml:"hardware.sysfs_prefix" env:"HARDWARE_SYSFS_PREFIX"`
	HardwareI2CBus       string `help:"I2C adapter of the board FPGA" default:"" toml:"hardware.i2c_bus" env:"HARDWARE_I2C_BUS"`
	HardwareI2CAddr      int    `help:"I2C address of the board FPGA" default:"65" toml:"hardware.i2c_addr" env:"HARDWARE_I2C_ADDR"`
	HardwareRegisterBase int    `help:"First system LED register" default:"16" toml:"hardware.register_base" env:"HARDWARE_REGISTER_BASE"`
	HardwareGPIOChip     string `help:"GPIO chip for the gpio backend" default:"gpiochip0" toml:"hardware.gpio_chip" env:"HARDWARE_GPIO_CHIP"`
	HardwareGPIOLines    string `help:"Comma-separated GPIO line names, two per indicator" default:"" toml:"hardware.gpio_lines" env:"HARDWARE_GPIO_LINES"`

	// Host settings
	HostPrefix string `help:"Class name prefix for registered indicators" default:"sysled" toml:"host.prefix" env:"HOST_PREFIX"`

	// Monitor settings
	MonitorEnabled  bool   `help:"Poll the hardware for level changes" default:"true" toml:"monitor.enabled" env:"MONITOR_ENABLED"`
	MonitorInterval string `help:"Poll interval" default:"5s" toml:"monitor.interval" env:"MONITOR_INTERVAL"`

	// Metrics settings
	MetricsEnabled bool   `help:"Serve Prometheus metrics" default:"false" toml:"metrics.enabled" env:"METRICS_ENABLED"`
	MetricsListen  string `help:"Metrics listen address" default:":9110" toml:"metrics.listen" env:"METRICS_LISTEN"`

	// systemd settings
	SystemdSleepWatch bool `help:"Freeze indicators across system suspend" default:"true" toml:"systemd.sleep_watch" env:"SYSTEMD_SLEEP_WATCH"`
	ConfigWatch       bool `help:"Reload logging levels when the config file changes" default:"true" toml:"config.watch" env:"CONFIG_WATCH"`

	// Logging settings
	LoggingLevel    string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat   string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingLED      string `help:"Indicator driver logging level" default:"info" toml:"logging.led" env:"LOGGING_LED"`
	LoggingHost     string `help:"Class host logging level" default:"info" toml:"logging.host" env:"LOGGING_HOST"`
	LoggingHardware string `help:"Hardware backend logging level" default:"info" toml:"logging.hardware" env:"LOGGING_HARDWARE"`
	LoggingSystemd  string `help:"systemd integration logging level" default:"info" toml:"logging.systemd" env:"LOGGING_SYSTEMD"`
}

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		// Initialize logging system
		logging.Initialize(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"led":      opts.LoggingLED,
				"host":     opts.LoggingHost,
				"hardware": opts.LoggingHardware,
				"systemd":  opts.LoggingSystemd,
			},
		})

		logger := logging.GetLogger("main")

		interval, err := time.ParseDuration(opts.MonitorInterval)
		if err != nil {
			logger.Warn("Invalid monitor interval, using default", "value", opts.MonitorInterval, "error", err)
			interval = host.DefaultInterval
		}

		daemon := cmd.NewDaemon(cmd.DaemonConfig{
			Hardware: cmd.HardwareConfig(
				opts.HardwareBackend,
				opts.HardwareSysfsRoot,
				opts.HardwareSysfsPrefix,
				opts.HardwareI2CBus,
				opts.HardwareI2CAddr,
				opts.HardwareRegisterBase,
				opts.HardwareGPIOChip,
				opts.HardwareGPIOLines,
			),
			ClassPrefix:      opts.HostPrefix,
			MonitorEnabled:   opts.MonitorEnabled,
			MonitorInterval:  interval,
			MetricsEnabled:   opts.MetricsEnabled,
			MetricsListen:    opts.MetricsListen,
			SleepWatch:       opts.SystemdSleepWatch,
			ConfigPath:       opts.Config,
			WatchConfig:      opts.ConfigWatch,
			LoggingOverrides: config.LoggingOverrides(opts, cli.Root()),
		})

		hooks.OnStart(func() {
			if runErr := daemon.Run(); runErr != nil {
				logger.Error("Failed to bring up status indicators", "error", runErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			daemon.Stop()
		})
	})

	cli.Root().Use = "sysledd"
	cli.Root().Short = "Board status indicator daemon"
	cli.Root().AddCommand(cmd.CreateVersionCmd())

	// Run the CLI
	cli.Run()
}
