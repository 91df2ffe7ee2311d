package led

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

var (
	deviceTreeModelPath = "/proc/device-tree/model"
	dmiProductPath      = "/sys/class/dmi/id/product_name"
)

// Backend names accepted in HardwareConfig.Backend.
const (
	BackendAuto  = "auto"
	BackendSysfs = "sysfs"
	BackendFPGA  = "fpga"
	BackendGPIO  = "gpio"
	BackendSim   = "sim"
)

// HardwareConfig selects and parameterizes the indicator backend.
type HardwareConfig struct {
	Backend string

	SysfsRoot   string
	SysfsPrefix string

	I2CBus       string
	I2CAddr      int
	RegisterBase int

	GPIOChip  string
	GPIOLines []string
}

// NewHardware opens the configured backend, wrapped for metrics.
// Failures are reported as *AllocationError.
func NewHardware(cfg HardwareConfig, logger *slog.Logger) (Hardware, error) {
	if logger == nil {
		logger = slog.Default()
	}
	hw, err := openBackend(cfg, logger)
	if err != nil {
		return nil, &AllocationError{Err: err}
	}
	return Instrument(hw), nil
}

func openBackend(cfg HardwareConfig, logger *slog.Logger) (Hardware, error) {
	backend := strings.ToLower(cfg.Backend)
	if backend == "" || backend == BackendAuto {
		backend = detectBackend(cfg, logger)
	}

	switch backend {
	case BackendSysfs:
		s := newSysfs(cfg.SysfsRoot, cfg.SysfsPrefix)
		if !s.Present() {
			return nil, fmt.Errorf("sysfs: indicators %s::* not found under %s", s.prefix, s.root)
		}
		logger.Info("Using sysfs indicator backend", "root", s.root, "prefix", s.prefix)
		return s, nil

	case BackendFPGA:
		if cfg.I2CAddr <= 0 || cfg.I2CAddr > 0x7F {
			return nil, fmt.Errorf("fpga: invalid i2c address 0x%X", cfg.I2CAddr)
		}
		if cfg.RegisterBase < 0 || cfg.RegisterBase+NumChannels > 0x100 {
			return nil, fmt.Errorf("fpga: register base 0x%X out of range", cfg.RegisterBase)
		}
		f, err := openFPGA(cfg.I2CBus, uint16(cfg.I2CAddr), byte(cfg.RegisterBase))
		if err != nil {
			return nil, err
		}
		logger.Info("Using FPGA indicator backend",
			"bus", cfg.I2CBus,
			"addr", fmt.Sprintf("0x%02X", cfg.I2CAddr),
			"base", fmt.Sprintf("0x%02X", cfg.RegisterBase))
		return f, nil

	case BackendGPIO:
		g, err := openGPIO(cfg.GPIOChip, cfg.GPIOLines)
		if err != nil {
			return nil, err
		}
		logger.Info("Using GPIO indicator backend", "chip", cfg.GPIOChip, "lines", len(cfg.GPIOLines))
		return g, nil

	case BackendSim:
		logger.Info("Using simulated indicator backend")
		return newSim(logger), nil

	default:
		return nil, fmt.Errorf("unknown hardware backend %q", cfg.Backend)
	}
}

// detectBackend picks a backend from what the running board exposes.
func detectBackend(cfg HardwareConfig, logger *slog.Logger) string {
	if newSysfs(cfg.SysfsRoot, cfg.SysfsPrefix).Present() {
		return BackendSysfs
	}

	model := detectBoard()
	logger.Info("Detecting board for indicator control", "board_model", model)

	normalized := strings.ToLower(strings.ReplaceAll(model, "-", ""))
	if strings.Contains(normalized, "dbmvtx9180") && cfg.I2CBus != "" {
		return BackendFPGA
	}
	logger.Info("No indicator hardware detected, using simulation", "board_model", model)
	return BackendSim
}

// detectBoard reads the device tree model, falling back to the DMI
// product name on x86 boards.
func detectBoard() string {
	for _, path := range []string{deviceTreeModelPath, dmiProductPath} {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		// Device tree model contains null bytes, trim them
		model := strings.TrimSpace(strings.TrimRight(string(data), "\x00"))
		if model != "" {
			return model
		}
	}
	return "unknown"
}
