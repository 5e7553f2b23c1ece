// Package spectate relays lobby snapshots to browser spectators over
// Socket.IO, a separate channel from the admin dashboard's raw websocket
// feed (internal/observer): spectators join a room per lobby code and
// only see that lobby's events. Adapted from the teacher's Synapse
// Bridge (cmd/probe/main.go's setupSocketServer/BroadcastToNamespace),
// which wires github.com/googollee/go-socket.io the same way.
package spectate

import (
	"log/slog"
	"net/http"

	socketio "github.com/googollee/go-socket.io"

	"github.com/ocx/backend/internal/telemetry"
)

// Relay bridges a telemetry.Bus to connected Socket.IO spectator clients.
type Relay struct {
	server *socketio.Server
	logger *slog.Logger
}

// NewRelay builds a Socket.IO server with one room per lobby code: a
// spectator joins by emitting "watch" with the lobby code and leaves by
// emitting "unwatch" with it; it receives only its rooms' events.
func NewRelay(logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	server := socketio.NewServer(nil)
	r := &Relay{server: server, logger: logger}

	server.OnConnect("/spectate", func(s socketio.Conn) error {
		s.SetContext("")
		r.logger.Info("spectate: client connected", "session_id", s.ID())
		return nil
	})

	server.OnEvent("/spectate", "watch", func(s socketio.Conn, lobbyCode string) {
		s.Join(lobbyCode)
		r.logger.Info("spectate: client joined lobby room", "session_id", s.ID(), "lobby_code", lobbyCode)
	})

	server.OnEvent("/spectate", "unwatch", func(s socketio.Conn, lobbyCode string) {
		s.Leave(lobbyCode)
	})

	server.OnDisconnect("/spectate", func(s socketio.Conn, reason string) {
		r.logger.Info("spectate: client disconnected", "session_id", s.ID(), "reason", reason)
	})

	server.OnError("/spectate", func(s socketio.Conn, err error) {
		r.logger.Warn("spectate: socket.io error", "err", err)
	})

	return r
}

// AttachBus subscribes to every telemetry event and forwards it to the
// room named by its lobby code, so a spectator only receives events for
// the lobby they're watching.
func (r *Relay) AttachBus(bus *telemetry.Bus) {
	ch := bus.Subscribe()
	go func() {
		for ev := range ch {
			r.server.BroadcastToRoom("/spectate", ev.LobbyCode, "lobby_event", ev)
		}
	}()
}

// BroadcastSnapshot pushes a raw snapshot payload to every spectator
// watching lobbyCode. Called from the game loop alongside the player
// snapshot broadcast, so spectators see the same state at roughly the
// same cadence.
func (r *Relay) BroadcastSnapshot(lobbyCode string, snapshot []byte) {
	r.server.BroadcastToRoom("/spectate", lobbyCode, "snapshot", string(snapshot))
}

// Handler returns the http.Handler to mount at /socket.io/.
func (r *Relay) Handler() http.Handler {
	return r.server
}

// Serve starts the Socket.IO server's internal event loop. Must be
// called once before any client can connect.
func (r *Relay) Serve() error {
	return r.server.Serve()
}

// Close stops the Socket.IO server.
func (r *Relay) Close() error {
	return r.server.Close()
}
