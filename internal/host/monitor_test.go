package host

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smazurov/sysledd/internal/events"
	"github.com/smazurov/sysledd/internal/led"
	"github.com/smazurov/sysledd/internal/metrics"
)

func TestMonitor_FirstTickIsBaseline(t *testing.T) {
	class, drv, hw := newTestDriver(t, nil)
	hw.poke(led.Diagnostic, led.Amber)

	m := NewMonitor(drv.Controller(), class, nil, time.Hour, discardLogger())
	assert.Empty(t, m.Tick())
	assert.Empty(t, m.Tick())
}

func TestMonitor_ReportsChangedChannels(t *testing.T) {
	bus := events.New()
	changes := make(chan events.IndicatorLevelChangedEvent, led.NumChannels)
	unsub := bus.Subscribe(func(e events.IndicatorLevelChangedEvent) { changes <- e })
	defer unsub()

	class, drv, hw := newTestDriver(t, bus)
	m := NewMonitor(drv.Controller(), class, bus, time.Hour, discardLogger())
	m.Tick()

	hw.poke(led.Fan, led.Amber)
	hw.poke(led.PowerSupply2, led.Green)

	assert.Equal(t, []led.Channel{led.Fan, led.PowerSupply2}, m.Tick())

	got := map[string]events.IndicatorLevelChangedEvent{}
	for range 2 {
		select {
		case ev := <-changes:
			got[ev.Channel] = ev
		case <-time.After(time.Second):
			t.Fatal("missing level-changed event")
		}
	}
	assert.Equal(t, int(led.Off), got["fan"].Previous)
	assert.Equal(t, int(led.Amber), got["fan"].Level)
	assert.Equal(t, int(led.Green), got["psu2"].Level)
}

func TestMonitor_RefreshErrorKeepsBaseline(t *testing.T) {
	class, drv, hw := newTestDriver(t, nil)
	m := NewMonitor(drv.Controller(), class, nil, time.Hour, discardLogger())
	m.Tick()

	before := testutil.ToFloat64(metrics.MonitorErrorsCounter())
	hw.poke(led.Location, led.Green)
	hw.failReads(errors.New("nak"))
	assert.Nil(t, m.Tick())
	assert.InDelta(t, before+1, testutil.ToFloat64(metrics.MonitorErrorsCounter()), 0)

	hw.failReads(nil)
	assert.Equal(t, []led.Channel{led.Location}, m.Tick())
}

func TestMonitor_StartStop(t *testing.T) {
	class, drv, hw := newTestDriver(t, nil)
	bus := events.New()
	changes := make(chan events.IndicatorLevelChangedEvent, 1)
	unsub := bus.Subscribe(func(e events.IndicatorLevelChangedEvent) { changes <- e })
	defer unsub()

	m := NewMonitor(drv.Controller(), class, bus, 10*time.Millisecond, discardLogger())
	m.Start()
	defer m.Stop()

	hw.poke(led.Diagnostic, led.BlinkingGreen)
	select {
	case ev := <-changes:
		assert.Equal(t, "diag", ev.Channel)
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not report change")
	}
}

func TestMonitor_DefaultInterval(t *testing.T) {
	m := NewMonitor(nil, nil, nil, 0, nil)
	require.Equal(t, DefaultInterval, m.interval)
}

func TestMonitor_SkipsTicksWhileSuspended(t *testing.T) {
	bus := events.New()
	changes := make(chan events.IndicatorLevelChangedEvent, led.NumChannels)
	unsub := bus.Subscribe(func(e events.IndicatorLevelChangedEvent) { changes <- e })
	defer unsub()

	class, drv, _ := newTestDriver(t, bus)
	require.NoError(t, class.SetBrightness("test::loc", led.Green))
	m := NewMonitor(drv.Controller(), class, bus, time.Hour, discardLogger())
	m.Tick()

	errsBefore := testutil.ToFloat64(metrics.MonitorErrorsCounter())
	drv.OnSuspend()
	assert.Nil(t, m.Tick())
	drv.OnResume()
	assert.Empty(t, m.Tick())
	assert.InDelta(t, errsBefore, testutil.ToFloat64(metrics.MonitorErrorsCounter()), 0)

	select {
	case ev := <-changes:
		t.Fatalf("unexpected level change %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}
