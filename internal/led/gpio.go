package led

import (
	"errors"
	"fmt"
)

// gpioLine is a requested output line. *gpiocdev.Line satisfies it.
type gpioLine interface {
	Value() (int, error)
	SetValue(value int) error
	Close() error
}

// gpio implements Hardware for boards that wire each indicator to two
// output lines: bit0 on the first line and bit1 on the second.
type gpio struct {
	lines [NumChannels][2]gpioLine
	close func() error
}

// newGPIO builds the backend from ten lines ordered channel by channel.
func newGPIO(lines []gpioLine, closeFn func() error) (*gpio, error) {
	if len(lines) != 2*NumChannels {
		return nil, fmt.Errorf("gpio: need %d lines, got %d", 2*NumChannels, len(lines))
	}
	g := &gpio{close: closeFn}
	for i := range g.lines {
		g.lines[i] = [2]gpioLine{lines[2*i], lines[2*i+1]}
	}
	return g, nil
}

// ReadLevel reads both lines of ch and combines them into a level.
func (g *gpio) ReadLevel(ch Channel) (Level, error) {
	if !ch.Known() {
		return 0, &HardwareError{Op: "read", Channel: ch, Err: ErrUnknownChannel}
	}
	var lvl Level
	for bit, line := range g.lines[ch] {
		v, err := line.Value()
		if err != nil {
			return 0, &HardwareError{Op: "read", Channel: ch, Err: err}
		}
		if v != 0 {
			lvl |= 1 << bit
		}
	}
	return lvl, nil
}

// WriteLevel drives the two lines of ch. Levels above BlinkingGreen do not
// fit in two lines and are rejected.
func (g *gpio) WriteLevel(ch Channel, level Level) error {
	if !ch.Known() {
		return &HardwareError{Op: "write", Channel: ch, Err: ErrUnknownChannel}
	}
	if level < Off || level > BlinkingGreen {
		return &HardwareError{Op: "write", Channel: ch, Err: ErrUnsupportedLevel}
	}
	for bit, line := range g.lines[ch] {
		if err := line.SetValue(int(level>>bit) & 1); err != nil {
			return &HardwareError{Op: "write", Channel: ch, Err: err}
		}
	}
	return nil
}

// Close releases every line and the chip.
func (g *gpio) Close() error {
	var errs []error
	for _, pair := range g.lines {
		for _, line := range pair {
			if line == nil {
				continue
			}
			if err := line.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if g.close != nil {
		if err := g.close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
