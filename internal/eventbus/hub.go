package eventbus

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Hub is the websocket push adapter for the live-event bus: it subscribes
// once to a Bus and multiplexes every event out to all connected
// websocket clients. Delivery is best-effort per client, mirroring the
// bus's own best-effort semantics — an event that does not fit in a slow
// client's send buffer is dropped for that client (the client stays
// connected) rather than allowed to back-pressure the hub.
type Hub struct {
	bus      *Bus
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*websocket.Conn]chan Event

	stop chan struct{}
}

const (
	clientSendBuffer = 32
	writeWait        = 10 * time.Second
)

// NewHub builds a Hub over bus. Callers must call Run in a goroutine to
// start the fan-out loop.
func NewHub(bus *Bus) *Hub {
	return &Hub{
		bus:      bus,
		upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
		clients:  make(map[*websocket.Conn]chan Event),
		stop:     make(chan struct{}),
	}
}

// ServeHTTP upgrades the connection and registers it as a fan-out target
// until the client disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("eventbus: websocket upgrade failed: %v", err)
		return
	}

	send := make(chan Event, clientSendBuffer)
	h.mu.Lock()
	h.clients[conn] = send
	h.mu.Unlock()

	go h.writeLoop(conn, send)
	go h.readLoop(conn, send)
}

// readLoop drains (and discards) inbound frames purely to detect
// disconnects — this is a push-only channel, clients never send commands.
func (h *Hub) readLoop(conn *websocket.Conn, send chan Event) {
	defer h.remove(conn, send)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(conn *websocket.Conn, send chan Event) {
	for ev := range send {
		data, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.remove(conn, send)
			return
		}
	}
}

func (h *Hub) remove(conn *websocket.Conn, send chan Event) {
	h.mu.Lock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(send)
	}
	h.mu.Unlock()
	conn.Close()
}

// Run subscribes to the bus and fans events out until stopped.
func (h *Hub) Run() {
	events, unsubscribe := h.bus.Subscribe()
	defer unsubscribe()
	for {
		select {
		case <-h.stop:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			h.broadcast(ev)
		}
	}
}

func (h *Hub) broadcast(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn, send := range h.clients {
		select {
		case send <- ev:
		default:
			log.Printf("eventbus: websocket client send buffer full, dropping %s", ev.Type)
			_ = conn
		}
	}
}

// Stop terminates the fan-out loop started by Run.
func (h *Hub) Stop() {
	close(h.stop)
}
