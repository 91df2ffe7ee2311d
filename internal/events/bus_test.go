package events

import (
	"sync"
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()
	received := make(chan IndicatorRegisteredEvent, 1)

	unsub := bus.Subscribe(func(e IndicatorRegisteredEvent) {
		received <- e
	})
	defer unsub()

	ev := IndicatorRegisteredEvent{
		Channel:   "diag",
		ClassName: "board_led::diag",
		MaxLevel:  3,
		Timestamp: "2025-01-27T10:30:00Z",
	}
	bus.Publish(ev)

	got := <-received
	if got != ev {
		t.Errorf("received %+v, want %+v", got, ev)
	}
}

func TestBus_MultipleSubscribers(_ *testing.T) {
	bus := New()
	received1 := make(chan IndicatorLevelChangedEvent, 1)
	received2 := make(chan IndicatorLevelChangedEvent, 1)

	unsub1 := bus.Subscribe(func(e IndicatorLevelChangedEvent) {
		received1 <- e
	})
	defer unsub1()

	unsub2 := bus.Subscribe(func(e IndicatorLevelChangedEvent) {
		received2 <- e
	})
	defer unsub2()

	bus.Publish(IndicatorLevelChangedEvent{Channel: "fan", Previous: 0, Level: 2})

	<-received1
	<-received2
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	received := make(chan IndicatorSuspendedEvent, 1)

	unsub := bus.Subscribe(func(e IndicatorSuspendedEvent) {
		received <- e
	})

	bus.Publish(IndicatorSuspendedEvent{Channel: "loc"})
	<-received

	unsub()

	bus.Publish(IndicatorSuspendedEvent{Channel: "diag"})
	select {
	case <-received:
		t.Fatal("Should not have received event after unsubscribe")
	case <-time.After(10 * time.Millisecond):
		// Expected - no event
	}
}

func TestBus_TypeSafety(t *testing.T) {
	bus := New()

	suspended := make(chan bool, 1)
	resumed := make(chan bool, 1)

	unsub1 := bus.Subscribe(func(_ IndicatorSuspendedEvent) {
		suspended <- true
	})
	defer unsub1()

	unsub2 := bus.Subscribe(func(_ IndicatorResumedEvent) {
		resumed <- true
	})
	defer unsub2()

	bus.Publish(IndicatorSuspendedEvent{Channel: "fan"})
	<-suspended

	select {
	case <-resumed:
		t.Fatal("Resume subscriber should NOT have received IndicatorSuspendedEvent")
	case <-time.After(10 * time.Millisecond):
	}

	bus.Publish(IndicatorResumedEvent{Channel: "fan"})
	<-resumed

	select {
	case <-suspended:
		t.Fatal("Suspend subscriber should NOT have received IndicatorResumedEvent")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestBus_ThreadSafety(_ *testing.T) {
	bus := New()
	var wg sync.WaitGroup
	numGoroutines := 10
	eventsPerGoroutine := 100
	expected := numGoroutines * eventsPerGoroutine

	receivedCh := make(chan bool, expected)

	unsub := bus.Subscribe(func(_ IndicatorLevelChangedEvent) {
		receivedCh <- true
	})
	defer unsub()

	for range numGoroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range eventsPerGoroutine {
				bus.Publish(IndicatorLevelChangedEvent{
					Channel:   "psu1",
					Level:     1,
					Timestamp: time.Now().Format(time.RFC3339),
				})
			}
		}()
	}

	wg.Wait()

	for range expected {
		<-receivedCh
	}
}

func TestBus_UnknownHandlerIsNoop(t *testing.T) {
	bus := New()
	unsub := bus.Subscribe(func(string) {})
	if unsub == nil {
		t.Fatal("expected non-nil unsubscribe func")
	}
	unsub()
}
