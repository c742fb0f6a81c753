package eventbus

import "testing"

func TestBus_PublishDeliversToSubscriber(t *testing.T) {
	bus := NewBus()
	ch, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	bus.Publish(Event{Type: RideCreated, Payload: RideCreatedPayload{RideID: "ride-1"}})

	select {
	case ev := <-ch:
		if ev.Type != RideCreated {
			t.Errorf("expected RideCreated, got %s", ev.Type)
		}
	default:
		t.Fatal("expected the event to be delivered synchronously to a subscriber with room")
	}
}

func TestBus_PublishFansOutToAllSubscribers(t *testing.T) {
	bus := NewBus()
	ch1, unsub1 := bus.Subscribe()
	defer unsub1()
	ch2, unsub2 := bus.Subscribe()
	defer unsub2()

	bus.Publish(Event{Type: DriverCreated})

	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case <-ch:
		default:
			t.Errorf("subscriber %d did not receive the published event", i)
		}
	}
}

func TestBus_PublishDropsWhenSubscriberBufferIsFull(t *testing.T) {
	bus := NewBus()
	ch, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	for i := 0; i < subscriberBuffer+10; i++ {
		bus.Publish(Event{Type: DriverLocationUpdated})
	}

	// Publish must never block even when a subscriber stops draining;
	// the buffer caps out rather than growing unbounded.
	if len(ch) != subscriberBuffer {
		t.Errorf("expected the channel to cap at %d buffered events, got %d", subscriberBuffer, len(ch))
	}
}

func TestBus_PublishWithNoSubscribersDoesNotBlock(t *testing.T) {
	bus := NewBus()
	bus.Publish(Event{Type: TripEnded})
}

func TestBus_UnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus()
	ch, unsubscribe := bus.Subscribe()
	unsubscribe()

	if _, ok := <-ch; ok {
		t.Error("expected the channel to be closed after unsubscribe")
	}
}
