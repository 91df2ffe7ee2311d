package led

import (
	"io"
	"sync"
)

// Hardware is the register-level access the controller consumes.
// Implementations are expected to be fast and synchronous; any error
// they return is final.
type Hardware interface {
	ReadLevel(ch Channel) (Level, error)
	WriteLevel(ch Channel, level Level) error
}

// Controller owns the state cache of all indicators and serializes every
// hardware access behind a single lock.
//
// A Controller is created once at bring-up and closed once at teardown.
// Calling any method after Close panics.
type Controller struct {
	mu    sync.Mutex
	hw    Hardware
	cache [NumChannels]Level
}

// NewController creates the controller for hw. A nil backend is an
// AllocationError: nothing would back the cache.
func NewController(hw Hardware) (*Controller, error) {
	if hw == nil {
		return nil, &AllocationError{Err: errNilHardware}
	}
	return &Controller{hw: hw}, nil
}

// Refresh re-reads every channel in ascending id order and replaces the
// cache with the result. If a read fails the previous snapshot is kept
// and the error is returned as is.
func (c *Controller) Refresh() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshLocked()
}

func (c *Controller) refreshLocked() error {
	hw := c.hardware()
	var next [NumChannels]Level
	for i := range next {
		lvl, err := hw.ReadLevel(Channel(i))
		if err != nil {
			return err
		}
		next[i] = lvl
	}
	c.cache = next
	return nil
}

// Get refreshes the whole cache and returns the level of ch.
// The full refresh is what makes the returned value part of a consistent
// snapshot; do not narrow it to a single read. Channels outside the fixed
// set fail with ErrUnknownChannel, as backends report them on Set.
func (c *Controller) Get(ch Channel) (Level, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.refreshLocked(); err != nil {
		return 0, err
	}
	if !ch.Known() {
		return 0, &HardwareError{Op: "read", Channel: ch, Err: ErrUnknownChannel}
	}
	return c.cache[ch], nil
}

// Set forwards level to the hardware unchanged. It does not check the
// channel's MaxLevel and does not touch the cache; the next Get re-reads.
func (c *Controller) Set(ch Channel, level Level) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hardware().WriteLevel(ch, level)
}

// Snapshot returns the cache as last refreshed, without touching the
// hardware. It may be stale.
func (c *Controller) Snapshot() [NumChannels]Level {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hardware()
	return c.cache
}

// Close ends the controller's lifetime and closes the backend if it is
// an io.Closer.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	hw := c.hardware()
	c.hw = nil
	if cl, ok := hw.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}

func (c *Controller) hardware() Hardware {
	if c.hw == nil {
		panic("led: controller used outside its lifetime")
	}
	return c.hw
}
