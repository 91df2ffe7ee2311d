package systemd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/coreos/go-systemd/v22/login1"
	"github.com/godbus/dbus/v5"
)

const prepareForSleep = "org.freedesktop.login1.Manager.PrepareForSleep"

// SleepHandler receives suspend and resume notifications.
type SleepHandler interface {
	OnSuspend()
	OnResume()
}

// logind is the part of the login1 connection the watcher uses.
type logind interface {
	Subscribe(members ...string) chan *dbus.Signal
	Inhibit(what, who, why, mode string) (*os.File, error)
	Close()
}

var newLogindFn = func() (logind, error) {
	conn, err := login1.New()
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// SleepWatcher relays logind PrepareForSleep signals to a SleepHandler.
// It holds a delay inhibitor so the system does not sleep before the
// indicators have been frozen.
type SleepWatcher struct {
	handler SleepHandler
	logger  *slog.Logger

	conn    logind
	signals chan *dbus.Signal
	inhibit *os.File
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewSleepWatcher creates a watcher for handler.
func NewSleepWatcher(handler SleepHandler, logger *slog.Logger) *SleepWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &SleepWatcher{handler: handler, logger: logger}
}

// Start connects to logind and begins relaying sleep signals.
func (w *SleepWatcher) Start() error {
	if w.handler == nil {
		return errors.New("sleep watcher: nil handler")
	}
	conn, err := newLogindFn()
	if err != nil {
		return fmt.Errorf("sleep watcher: connect to logind: %w", err)
	}
	w.conn = conn
	w.signals = conn.Subscribe("PrepareForSleep")
	w.takeInhibitor()

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.loop(ctx)
	}()
	w.logger.Info("Watching logind for sleep")
	return nil
}

// Stop ends the watcher and releases the logind connection.
func (w *SleepWatcher) Stop() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	w.wg.Wait()
	w.cancel = nil
	w.releaseInhibitor()
	w.conn.Close()
}

func (w *SleepWatcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-w.signals:
			if !ok {
				w.logger.Warn("logind signal channel closed")
				return
			}
			w.handle(sig)
		}
	}
}

func (w *SleepWatcher) handle(sig *dbus.Signal) {
	if sig == nil || sig.Name != prepareForSleep || len(sig.Body) == 0 {
		return
	}
	start, ok := sig.Body[0].(bool)
	if !ok {
		w.logger.Warn("Unexpected PrepareForSleep payload", "body", sig.Body)
		return
	}
	if start {
		w.handler.OnSuspend()
		w.releaseInhibitor()
		return
	}
	w.handler.OnResume()
	w.takeInhibitor()
}

func (w *SleepWatcher) takeInhibitor() {
	if w.inhibit != nil {
		return
	}
	f, err := w.conn.Inhibit("sleep", "sysledd", "Saving status indicator state", "delay")
	if err != nil {
		w.logger.Warn("Could not take sleep inhibitor", "error", err)
		return
	}
	w.inhibit = f
}

func (w *SleepWatcher) releaseInhibitor() {
	if w.inhibit == nil {
		return
	}
	if err := w.inhibit.Close(); err != nil {
		w.logger.Debug("Releasing sleep inhibitor", "error", err)
	}
	w.inhibit = nil
}
