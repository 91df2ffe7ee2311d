//go:build linux

package led

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

const gpioConsumer = "sysledd"

// openGPIO requests the named lines on chipPath as outputs. Indicators
// start Off because requesting an output line drives it.
func openGPIO(chipPath string, names []string) (*gpio, error) {
	if len(names) != 2*NumChannels {
		return nil, fmt.Errorf("gpio: need %d line names, got %d", 2*NumChannels, len(names))
	}
	chip, err := gpiocdev.NewChip(chipPath)
	if err != nil {
		return nil, fmt.Errorf("gpio: open %s: %w", chipPath, err)
	}

	lines := make([]gpioLine, 0, len(names))
	release := func() {
		for _, l := range lines {
			_ = l.Close()
		}
		_ = chip.Close()
	}
	for _, name := range names {
		offset, err := chip.FindLine(name)
		if err != nil {
			release()
			return nil, fmt.Errorf("gpio: line %q not found on %s: %w", name, chipPath, err)
		}
		line, err := chip.RequestLine(offset, gpiocdev.AsOutput(0), gpiocdev.WithConsumer(gpioConsumer))
		if err != nil {
			release()
			return nil, fmt.Errorf("gpio: request line %q: %w", name, err)
		}
		lines = append(lines, line)
	}
	return newGPIO(lines, chip.Close)
}
