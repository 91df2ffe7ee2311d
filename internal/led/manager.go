package led

import "log/slog"

// Endpoint is what the host binds to its own per-channel status
// interface. Get and Set dispatch into the driver.
type Endpoint struct {
	Channel  Channel
	Name     string
	MaxLevel Level
	Get      func() (Level, error)
	Set      func(Level) error
}

// Host is the framework that owns the per-channel status endpoints.
// Register may fail; the other hooks cannot.
type Host interface {
	RegisterChannel(ch Channel, ep Endpoint) error
	UnregisterChannel(ch Channel)
	FreezeChannel(ch Channel)
	RestoreChannel(ch Channel)
}

// Manager registers the fixed channel set with a host and relays
// suspend/resume. The host sequences its calls; Manager has no locking of
// its own.
type Manager struct {
	host     Host
	endpoint func(Channel) Endpoint
	logger   *slog.Logger
}

// NewManager creates a lifecycle manager. endpoint builds the endpoint
// handed to the host for each channel.
func NewManager(host Host, endpoint func(Channel) Endpoint, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		host:     host,
		endpoint: endpoint,
		logger:   logger,
	}
}

// Register registers every channel in ascending id order. On the first
// failure the channels that did register are unregistered, and the
// host's error is returned unchanged.
func (m *Manager) Register() error {
	_, err := m.register()
	return err
}

func (m *Manager) register() (Channel, error) {
	registered := make([]Channel, 0, NumChannels)
	for _, ch := range Channels() {
		if err := m.host.RegisterChannel(ch, m.endpoint(ch)); err != nil {
			m.logger.Warn("Channel registration failed, rolling back",
				"channel", ch.Name(),
				"registered", len(registered),
				"error", err)
			m.rollback(registered)
			return ch, err
		}
		registered = append(registered, ch)
		m.logger.Debug("Channel registered", "channel", ch.Name())
	}
	return 0, nil
}

// rollback unregisters exactly the channels in done, newest first.
func (m *Manager) rollback(done []Channel) {
	for i := len(done) - 1; i >= 0; i-- {
		m.host.UnregisterChannel(done[i])
	}
}

// Unregister unregisters every channel. It assumes a fully registered set.
func (m *Manager) Unregister() {
	for _, ch := range Channels() {
		m.host.UnregisterChannel(ch)
	}
	m.logger.Debug("All channels unregistered")
}

// Suspend asks the host to freeze each channel in ascending id order.
func (m *Manager) Suspend() {
	for _, ch := range Channels() {
		m.host.FreezeChannel(ch)
	}
}

// Resume asks the host to restore each channel in ascending id order.
func (m *Manager) Resume() {
	for _, ch := range Channels() {
		m.host.RestoreChannel(ch)
	}
}
