package host

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/smazurov/sysledd/internal/events"
	"github.com/smazurov/sysledd/internal/led"
	"github.com/smazurov/sysledd/internal/metrics"
)

// DefaultPrefix is the class name prefix used when none is configured.
const DefaultPrefix = "sysled"

var (
	// ErrDuplicate is returned when a class name is already registered.
	ErrDuplicate = errors.New("indicator already registered")
	// ErrNotFound is returned for class names that are not registered.
	ErrNotFound = errors.New("indicator not found")
	// ErrSuspended is returned for endpoint traffic while an indicator is frozen.
	ErrSuspended = errors.New("indicator suspended")

	errLevelUnknown = errors.New("no known level to save")
)

// entry is one registered endpoint. level is the last level seen through
// the class; it is what a freeze saves, so suspend never reads hardware.
type entry struct {
	name string
	ep   led.Endpoint

	level      led.Level
	levelKnown bool

	saved      led.Level
	savedValid bool
	frozen     bool
}

func (e *entry) record(level led.Level) {
	e.level, e.levelKnown = level, true
}

// Class owns the registered status endpoints, keyed by class name
// "<prefix>::<channel>".
//
// Endpoint traffic (Brightness, SetBrightness, Sync) holds the read side
// of the gate and lifecycle hooks hold the write side, so the two never
// overlap. levelMu orders endpoint calls with the levels they record.
type Class struct {
	prefix string
	bus    *events.Bus
	logger *slog.Logger

	gate    sync.RWMutex
	levelMu sync.Mutex
	entries map[string]*entry
	byChan  map[led.Channel]string
}

// NewClass creates an empty class host. bus may be nil.
func NewClass(prefix string, bus *events.Bus, logger *slog.Logger) *Class {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Class{
		prefix:  prefix,
		bus:     bus,
		logger:  logger,
		entries: make(map[string]*entry),
		byChan:  make(map[led.Channel]string),
	}
}

// ClassName returns the name an endpoint for ch is registered under.
func (c *Class) ClassName(ch led.Channel) string {
	return c.prefix + "::" + ch.Name()
}

// RegisterChannel stores ep under its class name and reads its initial
// level.
func (c *Class) RegisterChannel(ch led.Channel, ep led.Endpoint) error {
	name := c.prefix + "::" + ep.Name

	c.gate.Lock()
	if _, exists := c.entries[name]; exists {
		c.gate.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicate, name)
	}
	e := &entry{name: name, ep: ep}
	level, err := ep.Get()
	if err == nil {
		e.record(level)
	}
	c.entries[name] = e
	c.byChan[ch] = name
	c.gate.Unlock()

	if err != nil {
		c.logger.Warn("Reading initial indicator level failed", "name", name, "error", err)
	}

	c.logger.Info("Indicator registered", "name", name, "max_level", ep.MaxLevel.String())
	metrics.IncLifecycleEvent("register")
	c.publish(events.IndicatorRegisteredEvent{
		Channel:   ch.Name(),
		ClassName: name,
		MaxLevel:  int(ep.MaxLevel),
		Timestamp: now(),
	})
	return nil
}

// UnregisterChannel removes the endpoint for ch. Unknown channels are
// ignored.
func (c *Class) UnregisterChannel(ch led.Channel) {
	c.gate.Lock()
	name, ok := c.byChan[ch]
	if ok {
		delete(c.entries, name)
		delete(c.byChan, ch)
	}
	c.gate.Unlock()
	if !ok {
		return
	}

	c.logger.Info("Indicator unregistered", "name", name)
	metrics.IncLifecycleEvent("unregister")
	metrics.DeleteIndicator(ch.Name())
	c.publish(events.IndicatorUnregisteredEvent{
		Channel:   ch.Name(),
		ClassName: name,
		Timestamp: now(),
	})
}

// FreezeChannel saves the last known level of ch and turns it Off. The
// hardware is not read. Endpoint traffic is refused until RestoreChannel.
func (c *Class) FreezeChannel(ch led.Channel) {
	c.gate.Lock()
	e := c.lookupLocked(ch)
	if e == nil {
		c.gate.Unlock()
		return
	}
	var errs []error
	c.levelMu.Lock()
	e.saved, e.savedValid = e.level, e.levelKnown
	c.levelMu.Unlock()
	if !e.savedValid {
		errs = append(errs, errLevelUnknown)
	}
	if err := e.ep.Set(led.Off); err != nil {
		errs = append(errs, err)
	}
	e.frozen = true
	name, saved := e.name, e.saved
	c.gate.Unlock()

	ev := events.IndicatorSuspendedEvent{Channel: ch.Name(), SavedLevel: int(saved), Timestamp: now()}
	if err := errors.Join(errs...); err != nil {
		c.logger.Warn("Freezing indicator failed", "name", name, "error", err)
		ev.Error = err.Error()
	} else {
		c.logger.Debug("Indicator frozen", "name", name, "saved", saved.String())
	}
	metrics.IncLifecycleEvent("suspend")
	c.publish(ev)
}

// RestoreChannel writes the level saved by the last FreezeChannel back to
// ch. Nothing is written when that freeze had no level to save.
func (c *Class) RestoreChannel(ch led.Channel) {
	c.gate.Lock()
	e := c.lookupLocked(ch)
	if e == nil {
		c.gate.Unlock()
		return
	}
	name, saved, valid := e.name, e.saved, e.savedValid
	var err error
	if valid {
		err = e.ep.Set(saved)
		if err != nil {
			c.levelMu.Lock()
			e.levelKnown = false
			c.levelMu.Unlock()
		}
	} else {
		err = errLevelUnknown
	}
	e.savedValid = false
	e.frozen = false
	c.gate.Unlock()

	ev := events.IndicatorResumedEvent{Channel: ch.Name(), RestoredLevel: int(saved), Timestamp: now()}
	if !valid {
		c.logger.Warn("Indicator not restored", "name", name, "error", err)
		ev.Error = err.Error()
	} else if err != nil {
		c.logger.Warn("Restoring indicator failed", "name", name, "level", saved.String(), "error", err)
		ev.Error = err.Error()
	} else {
		c.logger.Debug("Indicator restored", "name", name, "level", saved.String())
	}
	metrics.IncLifecycleEvent("resume")
	c.publish(ev)
}

// Brightness reads the current level of the named indicator.
func (c *Class) Brightness(name string) (led.Level, error) {
	c.gate.RLock()
	defer c.gate.RUnlock()
	e, err := c.endpointLocked(name)
	if err != nil {
		return 0, err
	}
	c.levelMu.Lock()
	defer c.levelMu.Unlock()
	level, err := e.ep.Get()
	if err != nil {
		return 0, err
	}
	e.record(level)
	return level, nil
}

// SetBrightness writes level to the named indicator.
func (c *Class) SetBrightness(name string, level led.Level) error {
	c.gate.RLock()
	defer c.gate.RUnlock()
	e, err := c.endpointLocked(name)
	if err != nil {
		return err
	}
	c.levelMu.Lock()
	defer c.levelMu.Unlock()
	if err := e.ep.Set(level); err != nil {
		// The write may have landed partially
		e.levelKnown = false
		return err
	}
	e.record(level)
	return nil
}

// MaxBrightness returns the highest level the named indicator can show.
func (c *Class) MaxBrightness(name string) (led.Level, error) {
	c.gate.RLock()
	defer c.gate.RUnlock()
	e, ok := c.entries[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return e.ep.MaxLevel, nil
}

// Names returns the registered class names in channel order.
func (c *Class) Names() []string {
	c.gate.RLock()
	defer c.gate.RUnlock()
	names := make([]string, 0, len(c.byChan))
	for _, ch := range led.Channels() {
		if name, ok := c.byChan[ch]; ok {
			names = append(names, name)
		}
	}
	return names
}

// Sync refreshes src on the endpoint side of the gate and records the
// resulting levels as the last known level of every registered channel.
// It returns ErrSuspended without touching src while any indicator is
// frozen.
func (c *Class) Sync(src Source) ([led.NumChannels]led.Level, error) {
	var snap [led.NumChannels]led.Level
	c.gate.RLock()
	defer c.gate.RUnlock()
	for _, e := range c.entries {
		if e.frozen {
			return snap, fmt.Errorf("%w: %s", ErrSuspended, e.name)
		}
	}

	c.levelMu.Lock()
	defer c.levelMu.Unlock()
	if err := src.Refresh(); err != nil {
		return snap, err
	}
	snap = src.Snapshot()
	for ch, name := range c.byChan {
		c.entries[name].record(snap[ch])
	}
	return snap, nil
}

func (c *Class) lookupLocked(ch led.Channel) *entry {
	name, ok := c.byChan[ch]
	if !ok {
		return nil
	}
	return c.entries[name]
}

func (c *Class) endpointLocked(name string) (*entry, error) {
	e, ok := c.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if e.frozen {
		return nil, fmt.Errorf("%w: %s", ErrSuspended, name)
	}
	return e, nil
}

func (c *Class) publish(ev events.Event) {
	if c.bus != nil {
		c.bus.Publish(ev)
	}
}

func now() string {
	return time.Now().Format(time.RFC3339)
}
