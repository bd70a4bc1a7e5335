// Package progress broadcasts refinement-loop status over WebSocket
// to any attached "watch" clients: an upgrader, a client registry
// guarded by a mutex, and a JSON-event broadcast loop that drops dead
// clients on write failure.
package progress

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event is one status update pushed to attached clients.
type Event struct {
	Kind      string    `json:"kind"` // "started", "constraint", "guess", "win", "abandoned"
	ProblemID string    `json:"problemId"`
	Detail    string    `json:"detail,omitempty"`
	At        time.Time `json:"at"`
}

// Broadcaster fans Event values out to every attached WebSocket
// client, dropping any client whose write fails.
type Broadcaster struct {
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	clients  map[*websocket.Conn]struct{}
}

// New builds an empty broadcaster.
func New() *Broadcaster {
	return &Broadcaster{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// Handler upgrades incoming HTTP requests to WebSocket connections
// and registers them as broadcast recipients until they disconnect.
func (b *Broadcaster) Handler(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	b.mu.Lock()
	b.clients[conn] = struct{}{}
	b.mu.Unlock()

	// Drain and discard anything the client sends; we only care about
	// detecting disconnects, which ReadMessage surfaces as an error.
	go func() {
		defer b.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (b *Broadcaster) remove(conn *websocket.Conn) {
	b.mu.Lock()
	delete(b.clients, conn)
	b.mu.Unlock()
	conn.Close()
}

// Publish sends ev to every attached client. Clients whose write
// fails are dropped from the registry.
func (b *Broadcaster) Publish(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}

	b.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(b.clients))
	for c := range b.clients {
		conns = append(conns, c)
	}
	b.mu.RUnlock()

	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			b.remove(conn)
		}
	}
}

// ClientCount reports how many clients are currently attached.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}
