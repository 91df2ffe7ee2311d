// Package systemd integrates the daemon with the service manager: readiness
// and watchdog notifications over sd_notify, and logind sleep signals.
package systemd

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
)

// Overridable for tests.
var (
	sdNotifyFn          = daemon.SdNotify
	sdWatchdogEnabledFn = daemon.SdWatchdogEnabled
)

// Notifier reports service state to systemd. Outside a systemd unit every
// call is a no-op.
type Notifier struct {
	logger *slog.Logger
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewNotifier creates a notifier.
func NewNotifier(logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{logger: logger}
}

// Ready tells systemd that bring-up finished and starts the watchdog
// keep-alive when the unit has WatchdogSec set.
func (n *Notifier) Ready() {
	n.notify(daemon.SdNotifyReady)

	interval, err := sdWatchdogEnabledFn(false)
	if err != nil {
		n.logger.Warn("Invalid watchdog configuration", "error", err)
		return
	}
	if interval == 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	n.cancel = cancel
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.keepAlive(ctx, interval/2)
	}()
	n.logger.Info("Watchdog keep-alive started", "interval", interval/2)
}

// Stopping tells systemd that teardown has begun and stops the watchdog.
func (n *Notifier) Stopping() {
	if n.cancel != nil {
		n.cancel()
		n.wg.Wait()
		n.cancel = nil
	}
	n.notify(daemon.SdNotifyStopping)
}

func (n *Notifier) keepAlive(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n.notify(daemon.SdNotifyWatchdog)
		}
	}
}

func (n *Notifier) notify(state string) {
	sent, err := sdNotifyFn(false, state)
	switch {
	case err != nil:
		n.logger.Warn("sd_notify failed", "state", state, "error", err)
	case sent:
		n.logger.Debug("sd_notify sent", "state", state)
	}
}
