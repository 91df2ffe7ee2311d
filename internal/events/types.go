package events

// Event type constants for kelindar/event.
const (
	TypeIndicatorRegistered uint32 = iota + 1
	TypeIndicatorUnregistered
	TypeIndicatorSuspended
	TypeIndicatorResumed
	TypeIndicatorLevelChanged
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// IndicatorRegisteredEvent is published when the host accepts a channel.
type IndicatorRegisteredEvent struct {
	Channel   string `json:"channel" example:"diag"`
	ClassName string `json:"class_name" example:"marvell_dbmvtx9180_led::diag"`
	MaxLevel  int    `json:"max_level" example:"3"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z"`
}

// Type returns the event type identifier for IndicatorRegisteredEvent.
func (e IndicatorRegisteredEvent) Type() uint32 { return TypeIndicatorRegistered }

// IndicatorUnregisteredEvent is published when a channel leaves the host.
type IndicatorUnregisteredEvent struct {
	Channel   string `json:"channel" example:"diag"`
	ClassName string `json:"class_name" example:"marvell_dbmvtx9180_led::diag"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z"`
}

// Type returns the event type identifier for IndicatorUnregisteredEvent.
func (e IndicatorUnregisteredEvent) Type() uint32 { return TypeIndicatorUnregistered }

// IndicatorSuspendedEvent is published after a channel has been frozen.
// SavedLevel is what will be restored on resume.
type IndicatorSuspendedEvent struct {
	Channel    string `json:"channel" example:"fan"`
	SavedLevel int    `json:"saved_level" example:"1"`
	Error      string `json:"error,omitempty"`
	Timestamp  string `json:"timestamp" example:"2025-01-27T10:30:00Z"`
}

// Type returns the event type identifier for IndicatorSuspendedEvent.
func (e IndicatorSuspendedEvent) Type() uint32 { return TypeIndicatorSuspended }

// IndicatorResumedEvent is published after a channel has been restored.
type IndicatorResumedEvent struct {
	Channel       string `json:"channel" example:"fan"`
	RestoredLevel int    `json:"restored_level" example:"1"`
	Error         string `json:"error,omitempty"`
	Timestamp     string `json:"timestamp" example:"2025-01-27T10:30:00Z"`
}

// Type returns the event type identifier for IndicatorResumedEvent.
func (e IndicatorResumedEvent) Type() uint32 { return TypeIndicatorResumed }

// IndicatorLevelChangedEvent is published when a refresh observes a new
// level on a channel.
type IndicatorLevelChangedEvent struct {
	Channel   string `json:"channel" example:"psu1"`
	Previous  int    `json:"previous" example:"1"`
	Level     int    `json:"level" example:"2"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z"`
}

// Type returns the event type identifier for IndicatorLevelChangedEvent.
func (e IndicatorLevelChangedEvent) Type() uint32 { return TypeIndicatorLevelChanged }
