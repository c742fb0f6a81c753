// Package eventbus implements the live-event bus and its websocket
// fan-out transport. The bus itself is in-process and best-effort:
// publications never block the publisher, and a slow or disconnected
// subscriber only ever loses its own events.
package eventbus

import (
	"log"
	"sync"
)

// Type enumerates the live event types the dispatch core emits.
type Type string

const (
	RideCreated           Type = "RIDE_CREATED"
	RideUpdated           Type = "RIDE_UPDATED"
	DriverCreated         Type = "DRIVER_CREATED"
	DriverStatusChanged   Type = "DRIVER_STATUS_CHANGED"
	DriverLocationUpdated Type = "DRIVER_LOCATION_UPDATED"
	DriverAssigned        Type = "DRIVER_ASSIGNED"
	TripAccepted          Type = "TRIP_ACCEPTED"
	TripStarted           Type = "TRIP_STARTED"
	TripEnded             Type = "TRIP_ENDED"
	TripReceipt           Type = "TRIP_RECEIPT"
	PaymentCompleted      Type = "PAYMENT_COMPLETED"
	PaymentFailed         Type = "PAYMENT_FAILED"
)

// Event is the bus envelope: a type tag plus an opaque payload. Payload is
// one of the RideCreatedPayload/... structs in payloads.go, chosen by Type.
type Event struct {
	Type    Type `json:"type"`
	Payload any  `json:"payload"`
}

// subscriberBuffer bounds how many undelivered events a subscriber may
// accumulate before new publications are dropped for it.
const subscriberBuffer = 64

// Bus is an in-process publish/subscribe hub. The transport layer
// (serialization, network delivery) lives outside the bus — see Hub for
// the websocket adapter.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[int]chan Event
	nextID      int
}

// NewBus constructs an empty Bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[int]chan Event)}
}

// Subscribe registers a new subscriber and returns its event channel plus
// an unsubscribe function. The channel is never closed by Publish; callers
// must call unsubscribe when done to release it.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	ch := make(chan Event, subscriberBuffer)
	b.subscribers[id] = ch
	b.mu.Unlock()

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if existing, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(existing)
		}
	}
	return ch, unsubscribe
}

// Publish delivers ev to every currently-connected subscriber, best-effort.
// A subscriber whose buffer is full has this event dropped rather than
// blocking the publisher — publications must never stall a request path
// or a worker's transaction.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subscribers {
		select {
		case ch <- ev:
		default:
			log.Printf("eventbus: subscriber %d buffer full, dropping %s", id, ev.Type)
		}
	}
}
