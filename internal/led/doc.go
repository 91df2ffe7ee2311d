// Package led controls the board status indicators (location, diagnostic,
// fan and the two power supply LEDs).
//
// A Controller caches the level of every indicator behind one lock and
// reaches the hardware through the Hardware interface. A Driver exposes
// the controller to a host framework through lifecycle callbacks
// (OnRegister, OnUnregister, OnSuspend, OnResume) and per-channel
// endpoints (OnGet, OnSet).
//
// Backends:
//
//	sysfs - kernel LED class devices under /sys/class/leds
//	fpga  - system LED registers of the board FPGA over I2C
//	gpio  - two output lines per indicator via the GPIO character device
//	sim   - in-memory register file
//
// Get always re-reads every indicator so the value returned belongs to a
// consistent snapshot of the whole set. Set forwards the requested level
// to the hardware as is; it neither validates it against the channel's
// MaxLevel nor updates the cache.
package led
