package led

import (
	"errors"
	"fmt"
)

// ErrUnsupportedLevel is returned by backends that cannot encode a level.
var ErrUnsupportedLevel = errors.New("level not supported by hardware")

// ErrUnknownChannel is returned by backends for ids outside the fixed set.
var ErrUnknownChannel = errors.New("unknown channel")

var errNilHardware = errors.New("no hardware backend")

// HardwareError is the error backends report for a failed register
// access. The controller passes it through untouched.
type HardwareError struct {
	Op      string // "read" or "write"
	Channel Channel
	Err     error
}

func (e *HardwareError) Error() string {
	return fmt.Sprintf("led %s %s: %v", e.Op, e.Channel, e.Err)
}

func (e *HardwareError) Unwrap() error { return e.Err }

// AllocationError means the resources backing the state cache could not
// be obtained during bring-up. No channel is usable after it.
type AllocationError struct {
	Err error
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("led: controller allocation failed: %v", e.Err)
}

func (e *AllocationError) Unwrap() error { return e.Err }

// RegistrationError reports the channel whose registration failed.
// Channels registered before it have already been rolled back.
type RegistrationError struct {
	Channel Channel
	Err     error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("led: register %s: %v", e.Channel, e.Err)
}

func (e *RegistrationError) Unwrap() error { return e.Err }
