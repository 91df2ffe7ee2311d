//go:build !linux

package led

import "errors"

func openGPIO(chipPath string, names []string) (*gpio, error) {
	return nil, errors.New("gpio: unsupported on this platform")
}
