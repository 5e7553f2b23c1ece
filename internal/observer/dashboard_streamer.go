// Package observer streams lobby lifecycle telemetry events to an
// admin-facing live dashboard over WebSocket, adapted from the teacher's
// DAG visualization streamer.
package observer

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ocx/backend/internal/telemetry"
)

// DashboardEvent is one envelope pushed to every connected dashboard
// client.
type DashboardEvent struct {
	Type      string                 `json:"type"`
	LobbyCode string                 `json:"lobby_code"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// DashboardStreamer fans telemetry.Bus events out to every connected
// WebSocket client. Construct it, attach a *telemetry.Bus with AttachBus,
// and call Run in its own goroutine.
type DashboardStreamer struct {
	clients    map[*websocket.Conn]bool
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	broadcast  chan DashboardEvent
	mu         sync.RWMutex
	upgrader   websocket.Upgrader
	logger     *slog.Logger
}

func NewDashboardStreamer(logger *slog.Logger) *DashboardStreamer {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardStreamer{
		clients:    make(map[*websocket.Conn]bool),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		broadcast:  make(chan DashboardEvent, 256),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// AttachBus subscribes to every event on bus and forwards it to connected
// dashboard clients. Call once at startup; subscription lives for the
// process lifetime.
func (ds *DashboardStreamer) AttachBus(bus *telemetry.Bus) {
	ch := bus.Subscribe()
	go func() {
		for ev := range ch {
			ds.BroadcastEvent(DashboardEvent{
				Type:      ev.Type,
				LobbyCode: ev.LobbyCode,
				Data:      ev.Data,
			})
		}
	}()
}

// Run drives the connect/disconnect/broadcast hub; call it in its own
// goroutine.
func (ds *DashboardStreamer) Run() {
	for {
		select {
		case client := <-ds.register:
			ds.mu.Lock()
			ds.clients[client] = true
			n := len(ds.clients)
			ds.mu.Unlock()
			ds.logger.Info("observer: dashboard client connected", "total", n)

		case client := <-ds.unregister:
			ds.mu.Lock()
			if _, ok := ds.clients[client]; ok {
				delete(ds.clients, client)
				client.Close()
			}
			n := len(ds.clients)
			ds.mu.Unlock()
			ds.logger.Info("observer: dashboard client disconnected", "total", n)

		case event := <-ds.broadcast:
			ds.mu.RLock()
			for client := range ds.clients {
				if err := client.WriteJSON(event); err != nil {
					client.Close()
					delete(ds.clients, client)
				}
			}
			ds.mu.RUnlock()
		}
	}
}

// HandleWebSocket upgrades an HTTP request to a dashboard WebSocket
// connection. Wire it to the admin mux at e.g. /ws/dashboard.
func (ds *DashboardStreamer) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := ds.upgrader.Upgrade(w, r, nil)
	if err != nil {
		ds.logger.Warn("observer: websocket upgrade failed", "err", err)
		return
	}
	ds.register <- conn

	go func() {
		defer func() { ds.unregister <- conn }()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

// BroadcastEvent pushes event to every connected client, non-blocking if
// the broadcast channel is saturated.
func (ds *DashboardStreamer) BroadcastEvent(event DashboardEvent) {
	event.Timestamp = time.Now()
	select {
	case ds.broadcast <- event:
	default:
		ds.logger.Warn("observer: dropping dashboard event, broadcast queue full", "type", event.Type)
	}
}

// Statistics reports the current connected-client and queue depth counts.
func (ds *DashboardStreamer) Statistics() map[string]interface{} {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return map[string]interface{}{
		"connected_clients": len(ds.clients),
		"broadcast_queue":   len(ds.broadcast),
	}
}
