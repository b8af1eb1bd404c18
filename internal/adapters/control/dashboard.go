package control

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/hardware-forge/fij-go/internal/core/ports"
)

// Dashboard pushes live per-iteration events to connected websocket
// clients, a connect/broadcast/disconnect hub.
type Dashboard struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

func NewDashboard() *Dashboard {
	return &Dashboard{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]bool),
	}
}

// ServeHTTP upgrades the connection and registers it for Publish broadcasts.
func (d *Dashboard) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := d.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("dashboard: upgrade failed: %v", err)
		return
	}

	d.mu.Lock()
	d.clients[conn] = true
	d.mu.Unlock()

	go d.readLoop(conn)
}

// readLoop drains and discards client frames, closing and deregistering on
// any read error.
func (d *Dashboard) readLoop(conn *websocket.Conn) {
	defer func() {
		d.mu.Lock()
		delete(d.clients, conn)
		d.mu.Unlock()
		conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Publish implements ports.EventSink, broadcasting event+payload as a JSON
// frame to every connected dashboard client.
func (d *Dashboard) Publish(event string, payload any) {
	msg := map[string]any{"event": event, "payload": payload}
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for conn := range d.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			delete(d.clients, conn)
		}
	}
}

var _ ports.EventSink = (*Dashboard)(nil)
