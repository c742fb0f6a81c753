package geo

import (
	"context"
	"log"
	"sync"
)

// LocationUpdate is one driver's reported position, queued for an eventual
// asynchronous store write.
type LocationUpdate struct {
	DriverID string
	Lat      float64
	Lon      float64
}

// StoreWriter persists the latest known location for a driver. Implemented
// by the Postgres driver repository.
type StoreWriter interface {
	UpdateLocation(ctx context.Context, driverID string, lat, lon float64) error
}

// Writer coalesces update_location fast-path writes into the store: the
// geo index write in Index.Upsert is synchronous, but the store write the
// teacher's update_location fast path made synchronous-and-logged is moved
// here, off the request path, with per-driver coalescing so a driver
// reporting at 2 updates/sec never queues more than its latest position.
type Writer struct {
	store StoreWriter

	mu      sync.Mutex
	pending map[string]LocationUpdate
	signal  chan struct{}

	queueDepth int
}

// NewWriter builds a Writer with a bounded coalescing queue. queueDepth
// bounds the number of distinct drivers with a pending write; because
// entries coalesce per driver ID, a hot driver re-reporting never grows
// the queue — it only grows with the number of distinct drivers in flight.
func NewWriter(store StoreWriter, queueDepth int) *Writer {
	if queueDepth <= 0 {
		queueDepth = 1024
	}
	return &Writer{
		store:      store,
		pending:    make(map[string]LocationUpdate),
		signal:     make(chan struct{}, 1),
		queueDepth: queueDepth,
	}
}

// Enqueue submits a location update for eventual persistence. It never
// blocks: if the queue is at capacity and driverID is not already pending,
// the update is dropped and logged — the next fast-path report will retry.
func (w *Writer) Enqueue(u LocationUpdate) {
	w.mu.Lock()
	if _, exists := w.pending[u.DriverID]; !exists && len(w.pending) >= w.queueDepth {
		w.mu.Unlock()
		log.Printf("geo: location writer queue full (%d), dropping update for driver %s", w.queueDepth, u.DriverID)
		return
	}
	w.pending[u.DriverID] = u
	w.mu.Unlock()

	select {
	case w.signal <- struct{}{}:
	default:
	}
}

// Run drains the queue until ctx is cancelled. Intended to run in a single
// background goroutine started from the composition root.
func (w *Writer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.signal:
			w.drain(ctx)
		}
	}
}

func (w *Writer) drain(ctx context.Context) {
	for {
		w.mu.Lock()
		if len(w.pending) == 0 {
			w.mu.Unlock()
			return
		}
		var u LocationUpdate
		var driverID string
		for id, update := range w.pending {
			driverID, u = id, update
			break
		}
		delete(w.pending, driverID)
		w.mu.Unlock()

		if err := w.store.UpdateLocation(ctx, u.DriverID, u.Lat, u.Lon); err != nil {
			log.Printf("geo: async location store write failed for driver %s: %v", u.DriverID, err)
		}

		if ctx.Err() != nil {
			return
		}
	}
}
