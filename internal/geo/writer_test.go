package geo

import (
	"context"
	"sync"
	"testing"
	"time"
)

type recordingStore struct {
	mu    sync.Mutex
	calls []LocationUpdate
	err   error
}

func (s *recordingStore) UpdateLocation(ctx context.Context, driverID string, lat, lon float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.calls = append(s.calls, LocationUpdate{DriverID: driverID, Lat: lat, Lon: lon})
	return nil
}

func (s *recordingStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func TestWriter_CoalescesRepeatedUpdatesForSameDriver(t *testing.T) {
	store := &recordingStore{}
	w := NewWriter(store, 8)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	w.Enqueue(LocationUpdate{DriverID: "d1", Lat: 1, Lon: 1})
	w.Enqueue(LocationUpdate{DriverID: "d1", Lat: 2, Lon: 2})
	w.Enqueue(LocationUpdate{DriverID: "d1", Lat: 3, Lon: 3})

	deadline := time.After(time.Second)
	for store.callCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for the writer to drain")
		case <-time.After(time.Millisecond):
		}
	}

	// Coalescing means some intermediate positions may never reach the
	// store, but the driver's last known position always eventually does.
	time.Sleep(20 * time.Millisecond)
	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.calls) == 0 {
		t.Fatal("expected at least one write")
	}
	last := store.calls[len(store.calls)-1]
	if last.Lat != 3 || last.Lon != 3 {
		t.Errorf("expected the most recent position to win, got %+v", last)
	}
}

func TestWriter_DropsUpdatesPastQueueDepthForNewDrivers(t *testing.T) {
	store := &recordingStore{err: context.Canceled} // writes never succeed; queue fills up
	w := NewWriter(store, 2)

	// Don't start Run, so nothing drains — fill the bounded queue directly.
	w.Enqueue(LocationUpdate{DriverID: "d1", Lat: 1, Lon: 1})
	w.Enqueue(LocationUpdate{DriverID: "d2", Lat: 1, Lon: 1})
	w.Enqueue(LocationUpdate{DriverID: "d3", Lat: 1, Lon: 1}) // over capacity, dropped

	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pending) != 2 {
		t.Errorf("expected queue to stay bounded at 2 distinct drivers, got %d", len(w.pending))
	}
	if _, ok := w.pending["d3"]; ok {
		t.Error("expected the update past capacity to be dropped")
	}
}

func TestNewWriter_NonPositiveQueueDepthDefaults(t *testing.T) {
	w := NewWriter(&recordingStore{}, 0)
	if w.queueDepth != 1024 {
		t.Errorf("expected default queue depth of 1024, got %d", w.queueDepth)
	}
}
