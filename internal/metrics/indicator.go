// Package metrics provides Prometheus metrics for the status indicators.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sysledd"

var (
	hardwareOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "hardware",
		Name:      "operations_total",
		Help:      "Register accesses issued to the indicator hardware",
	}, []string{"channel", "op"})

	hardwareErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "hardware",
		Name:      "errors_total",
		Help:      "Register accesses that failed",
	}, []string{"channel", "op"})

	indicatorLevel = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "indicator",
		Name:      "level",
		Help:      "Last level observed on or written to the indicator (0=off 1=green 2=amber 3=blinking green)",
	}, []string{"channel"})

	lifecycleEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "lifecycle",
		Name:      "events_total",
		Help:      "Host lifecycle callbacks by kind",
	}, []string{"event"})

	monitorErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "monitor",
		Name:      "refresh_errors_total",
		Help:      "Periodic refreshes that failed",
	})

	// Local copy of the level gauge so callers can read it back.
	levelCache   = make(map[string]int)
	levelCacheMu sync.RWMutex
)

// ObserveHardwareOp counts one hardware access and its failure, if any.
func ObserveHardwareOp(channel, op string, err error) {
	hardwareOps.WithLabelValues(channel, op).Inc()
	if err != nil {
		hardwareErrors.WithLabelValues(channel, op).Inc()
	}
}

// SetIndicatorLevel records the current level of a channel.
func SetIndicatorLevel(channel string, level int) {
	indicatorLevel.WithLabelValues(channel).Set(float64(level))
	levelCacheMu.Lock()
	levelCache[channel] = level
	levelCacheMu.Unlock()
}

// IndicatorLevel returns the last recorded level of a channel.
func IndicatorLevel(channel string) (int, bool) {
	levelCacheMu.RLock()
	defer levelCacheMu.RUnlock()
	l, ok := levelCache[channel]
	return l, ok
}

// DeleteIndicator drops the level series of an unregistered channel.
func DeleteIndicator(channel string) {
	indicatorLevel.DeleteLabelValues(channel)
	levelCacheMu.Lock()
	delete(levelCache, channel)
	levelCacheMu.Unlock()
}

// IncLifecycleEvent counts a register/unregister/suspend/resume callback.
func IncLifecycleEvent(event string) {
	lifecycleEvents.WithLabelValues(event).Inc()
}

// IncMonitorError counts a failed periodic refresh.
func IncMonitorError() {
	monitorErrors.Inc()
}

// MonitorErrorsCounter exposes the refresh failure counter for inspection.
func MonitorErrorsCounter() prometheus.Counter {
	return monitorErrors
}
