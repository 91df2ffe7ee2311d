package led

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	defaultSysfsRoot   = "/sys/class/leds"
	defaultSysfsPrefix = "marvell_dbmvtx9180_led"
)

// sysfs implements Hardware on top of the Linux LED class interface, for
// boards whose kernel already exposes the indicators.
type sysfs struct {
	root   string
	prefix string
}

// newSysfs creates a sysfs backend for LEDs named "<prefix>::<channel>".
func newSysfs(root, prefix string) *sysfs {
	if root == "" {
		root = defaultSysfsRoot
	}
	if prefix == "" {
		prefix = defaultSysfsPrefix
	}
	return &sysfs{root: root, prefix: prefix}
}

// ClassName returns the LED class device name for ch.
func (s *sysfs) ClassName(ch Channel) string {
	return s.prefix + "::" + ch.Name()
}

func (s *sysfs) brightnessPath(ch Channel) string {
	return filepath.Join(s.root, s.ClassName(ch), "brightness")
}

// Present reports whether every indicator exists under the sysfs root.
func (s *sysfs) Present() bool {
	for _, ch := range Channels() {
		if _, err := os.Stat(filepath.Join(s.root, s.ClassName(ch))); err != nil {
			return false
		}
	}
	return true
}

// ReadLevel reads the brightness attribute of ch.
func (s *sysfs) ReadLevel(ch Channel) (Level, error) {
	if !ch.Known() {
		return 0, &HardwareError{Op: "read", Channel: ch, Err: ErrUnknownChannel}
	}
	data, err := os.ReadFile(s.brightnessPath(ch))
	if err != nil {
		return 0, &HardwareError{Op: "read", Channel: ch, Err: err}
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, &HardwareError{Op: "read", Channel: ch, Err: fmt.Errorf("invalid brightness %q", data)}
	}
	return Level(v), nil
}

// WriteLevel writes level to the brightness attribute of ch unchanged.
// The kernel clamps to max_brightness on its side.
func (s *sysfs) WriteLevel(ch Channel, level Level) error {
	if !ch.Known() {
		return &HardwareError{Op: "write", Channel: ch, Err: ErrUnknownChannel}
	}
	path := s.brightnessPath(ch)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &HardwareError{Op: "write", Channel: ch, Err: fmt.Errorf("LED not found at %s", path)}
	}
	if err := os.WriteFile(path, []byte(strconv.Itoa(int(level))), 0644); err != nil {
		return &HardwareError{Op: "write", Channel: ch, Err: err}
	}
	return nil
}
