// Package events is the in-process event bus used to broadcast indicator
// lifecycle and level changes.
package events

import (
	"github.com/kelindar/event"
)

// Bus wraps kelindar/event dispatcher for event broadcasting
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers.
// kelindar/event is generic, so the concrete type is recovered here.
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case IndicatorRegisteredEvent:
		event.Publish(b.dispatcher, e)
	case IndicatorUnregisteredEvent:
		event.Publish(b.dispatcher, e)
	case IndicatorSuspendedEvent:
		event.Publish(b.dispatcher, e)
	case IndicatorResumedEvent:
		event.Publish(b.dispatcher, e)
	case IndicatorLevelChangedEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function. The handler's
// parameter type selects the events it receives. Unknown handler types
// get a no-op unsubscribe.
// Usage: unsub := bus.Subscribe(func(e IndicatorResumedEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(IndicatorRegisteredEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(IndicatorUnregisteredEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(IndicatorSuspendedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(IndicatorResumedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(IndicatorLevelChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}
