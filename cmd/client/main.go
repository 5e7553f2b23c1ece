// Command client is a headless reference client: it connects over UDP,
// optionally creates or joins a lobby, drives a scripted input sequence,
// and logs the decoded snapshot stream. No rendering — it exists so
// dispatch.ClientRouter and the wire protocol have an end-to-end exerciser
// outside of unit tests, standing in for load generation and integration
// scripts that would otherwise need the real (non-Go) game client.
package main

import (
	"flag"
	"log/slog"
	"time"

	"github.com/ocx/backend/internal/dispatch"
	"github.com/ocx/backend/internal/protocol"
	"github.com/ocx/backend/internal/transport"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:4242", "game server UDP address")
	lobbyCode := flag.String("lobby", "", "lobby code to join; empty creates a new lobby")
	scriptDuration := flag.Duration("duration", 10*time.Second, "how long to run the scripted input sequence")
	pollInterval := flag.Duration("poll", 16*time.Millisecond, "inbound poll / input send interval")
	flag.Parse()

	logger := slog.Default()

	tr := transport.NewClientTransport(*addr, logger)
	if err := tr.Start(); err != nil {
		logger.Error("client: failed to connect", "addr", *addr, "err", err)
		return
	}
	defer tr.Stop()

	done := make(chan struct{})
	router := dispatch.NewClientRouter(tr, dispatch.UICallbacks{
		OnWelcome: func(clientID uint32, message string) {
			logger.Info("client: welcomed", "client_id", clientID, "message", message)
		},
		OnLobbyJoined: func(code string) {
			logger.Info("client: joined lobby", "code", code)
		},
		OnLobbyState: func(code string, playerCount int) {
			logger.Info("client: lobby state", "code", code, "player_count", playerCount)
		},
		OnGameStarted: func() {
			logger.Info("client: game started")
		},
		OnLobbyEnd: func(scores map[string]int) {
			logger.Info("client: lobby ended", "scores", scores)
			close(done)
		},
		OnPlayerDead: func(payload map[string]interface{}) {
			logger.Info("client: player died", "payload", payload)
		},
		OnError: func(message string) {
			logger.Warn("client: server error", "message", message)
		},
	}, logger)

	action := "create"
	if *lobbyCode != "" {
		action = "join"
	}
	tr.Send(transport.ClientEndpointID, []byte(protocol.MustEncode(protocol.RequestLobbyMsg{
		Type:      protocol.TypeRequestLobby,
		Action:    action,
		LobbyCode: *lobbyCode,
	})))

	ticker := time.NewTicker(*pollInterval)
	defer ticker.Stop()
	deadline := time.After(*scriptDuration)
	tick := 0

	for {
		select {
		case <-done:
			logSnapshot(logger, router)
			return
		case <-deadline:
			logSnapshot(logger, router)
			return
		case <-ticker.C:
			for {
				pkt, ok := tr.Poll()
				if !ok {
					break
				}
				router.Dispatch(pkt.Data)
			}
			router.SendInput(scriptedInput(tick))
			tick++
		}
	}
}

// scriptedInput cycles through a fixed move-and-shoot pattern so a run
// exercises InputSystem/MovementSystem/ShootingSystem without needing a
// real player at the keyboard.
func scriptedInput(tick int) protocol.InputState {
	phase := (tick / 30) % 4
	in := protocol.InputState{Shoot: tick%10 == 0}
	switch phase {
	case 0:
		in.Right = true
	case 1:
		in.Down = true
	case 2:
		in.Left = true
	case 3:
		in.Up = true
	}
	return in
}

func logSnapshot(logger *slog.Logger, router *dispatch.ClientRouter) {
	entities := router.Entities()
	logger.Info("client: final snapshot", "entity_count", len(entities))
	for _, e := range entities {
		logger.Info("client: entity", "id", e.ID, "x", e.X, "y", e.Y, "hp", e.HP)
	}
}
