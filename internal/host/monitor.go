package host

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/smazurov/sysledd/internal/events"
	"github.com/smazurov/sysledd/internal/led"
	"github.com/smazurov/sysledd/internal/metrics"
)

// DefaultInterval is the refresh period used when none is configured.
const DefaultInterval = 5 * time.Second

// Source is the part of the controller the monitor observes.
type Source interface {
	Refresh() error
	Snapshot() [led.NumChannels]led.Level
}

// Monitor periodically refreshes the controller and publishes a
// level-changed event for every channel whose level moved since the last
// successful refresh.
type Monitor struct {
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	src      Source
	class    *Class
	bus      *events.Bus
	interval time.Duration
	logger   *slog.Logger

	last   [led.NumChannels]led.Level
	primed bool
}

// NewMonitor creates a monitor for src. Refreshes run through class's
// endpoint gate so they never overlap a suspend or resume, and keep the
// class's last known levels current.
func NewMonitor(src Source, class *Class, bus *events.Bus, interval time.Duration, logger *slog.Logger) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Monitor{
		ctx:      ctx,
		cancel:   cancel,
		src:      src,
		class:    class,
		bus:      bus,
		interval: interval,
		logger:   logger,
	}
}

// Start takes the initial snapshot and begins polling.
func (m *Monitor) Start() {
	// Baseline first so the first tick doesn't report every channel
	m.Tick()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		m.logger.Info("Indicator monitor started", "interval", m.interval)
		for {
			select {
			case <-m.ctx.Done():
				m.logger.Info("Indicator monitor stopped")
				return
			case <-ticker.C:
				m.Tick()
			}
		}
	}()
}

// Stop ends polling and waits for an in-flight tick.
func (m *Monitor) Stop() {
	m.cancel()
	m.wg.Wait()
}

// Tick performs one refresh and returns the channels whose level changed.
// A failed refresh is logged and counted; the previous snapshot stays the
// comparison baseline. Ticks are skipped while indicators are frozen.
func (m *Monitor) Tick() []led.Channel {
	var (
		snap [led.NumChannels]led.Level
		err  error
	)
	if m.class != nil {
		snap, err = m.class.Sync(m.src)
	} else if err = m.src.Refresh(); err == nil {
		snap = m.src.Snapshot()
	}
	if errors.Is(err, ErrSuspended) {
		m.logger.Debug("Indicator refresh skipped while suspended")
		return nil
	}
	if err != nil {
		metrics.IncMonitorError()
		m.logger.Warn("Indicator refresh failed", "error", err)
		return nil
	}

	if !m.primed {
		m.last = snap
		m.primed = true
		return nil
	}

	var changed []led.Channel
	ts := now()
	for _, ch := range led.Channels() {
		prev, cur := m.last[ch], snap[ch]
		if prev == cur {
			continue
		}
		changed = append(changed, ch)
		m.logger.Info("Indicator level changed",
			"channel", ch.Name(),
			"previous", prev.String(),
			"level", cur.String())
		if m.bus != nil {
			m.bus.Publish(events.IndicatorLevelChangedEvent{
				Channel:   ch.Name(),
				Previous:  int(prev),
				Level:     int(cur),
				Timestamp: ts,
			})
		}
	}
	m.last = snap
	return changed
}
