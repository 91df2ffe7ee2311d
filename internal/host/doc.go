// Package host provides the indicator class host: the registry of
// per-channel status endpoints that the led driver registers with, plus a
// periodic monitor that reports level changes observed on the hardware.
package host
