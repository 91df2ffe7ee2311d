package led

import "log/slog"

// Driver is the set of callbacks a host framework invokes. It binds one
// Controller to one Manager.
type Driver struct {
	ctrl    *Controller
	manager *Manager
	logger  *slog.Logger
}

// NewDriver wires ctrl to host. Nothing is registered until OnRegister.
func NewDriver(ctrl *Controller, host Host, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Driver{ctrl: ctrl, logger: logger}
	d.manager = NewManager(host, d.endpoint, logger)
	return d
}

// Probe brings up the indicator controller: it allocates the Controller
// for hw and registers all channels with host. On failure nothing is left
// registered and no driver is returned.
func Probe(hw Hardware, host Host, logger *slog.Logger) (*Driver, error) {
	ctrl, err := NewController(hw)
	if err != nil {
		return nil, err
	}
	d := NewDriver(ctrl, host, logger)
	if ch, err := d.manager.register(); err != nil {
		return nil, &RegistrationError{Channel: ch, Err: err}
	}
	d.logger.Info("Status indicators registered", "channels", NumChannels)
	return d, nil
}

// Controller returns the controller behind the driver.
func (d *Driver) Controller() *Controller { return d.ctrl }

func (d *Driver) endpoint(ch Channel) Endpoint {
	info := ch.Info()
	return Endpoint{
		Channel:  ch,
		Name:     info.Name,
		MaxLevel: info.MaxLevel,
		Get:      func() (Level, error) { return d.OnGet(ch) },
		Set:      func(l Level) error { return d.OnSet(ch, l) },
	}
}

// OnRegister registers all channels with the host, rolling back on
// partial failure. The host's error is returned unchanged.
func (d *Driver) OnRegister() error { return d.manager.Register() }

// OnUnregister unregisters all channels.
func (d *Driver) OnUnregister() { d.manager.Unregister() }

// OnSuspend relays a suspend to the host for every channel.
func (d *Driver) OnSuspend() {
	d.logger.Info("Suspending status indicators")
	d.manager.Suspend()
}

// OnResume relays a resume to the host for every channel.
func (d *Driver) OnResume() {
	d.logger.Info("Resuming status indicators")
	d.manager.Resume()
}

// OnGet returns the fresh level of ch.
func (d *Driver) OnGet(ch Channel) (Level, error) { return d.ctrl.Get(ch) }

// OnSet writes level to ch.
func (d *Driver) OnSet(ch Channel, level Level) error { return d.ctrl.Set(ch, level) }

// Remove tears the driver down: every channel is unregistered and the
// controller is closed. The driver must not be used afterwards.
func (d *Driver) Remove() error {
	d.manager.Unregister()
	if err := d.ctrl.Close(); err != nil {
		d.logger.Warn("Closing hardware backend failed", "error", err)
		return err
	}
	return nil
}
