package led

import (
	"log/slog"
	"sync"
)

// sim implements Hardware as an in-memory register file for boards
// without indicator hardware. Every indicator starts Off.
type sim struct {
	mu     sync.Mutex
	regs   [NumChannels]Level
	logger *slog.Logger
}

// newSim creates a simulated register file.
func newSim(logger *slog.Logger) *sim {
	return &sim{logger: logger}
}

// ReadLevel returns the simulated register value.
func (s *sim) ReadLevel(ch Channel) (Level, error) {
	if !ch.Known() {
		return 0, &HardwareError{Op: "read", Channel: ch, Err: ErrUnknownChannel}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.regs[ch], nil
}

// WriteLevel stores level. Values that do not fit the two-bit register
// are rejected like the real hardware would.
func (s *sim) WriteLevel(ch Channel, level Level) error {
	if !ch.Known() {
		return &HardwareError{Op: "write", Channel: ch, Err: ErrUnknownChannel}
	}
	if level < Off || level > BlinkingGreen {
		return &HardwareError{Op: "write", Channel: ch, Err: ErrUnsupportedLevel}
	}
	s.mu.Lock()
	s.regs[ch] = level
	s.mu.Unlock()
	s.logger.Debug("Simulated indicator write",
		"channel", ch.Name(),
		"level", level.String())
	return nil
}
