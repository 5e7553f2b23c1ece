// Package dispatch implements the message routing table of spec.md §4.4:
// decode an inbound packet's envelope, look up the sender's clientId, and
// call into lobby/simulation state. It is the only package that knows the
// JSON shapes in internal/protocol map onto lobby.Manager and ECS writes.
package dispatch

import (
	"log/slog"

	"github.com/ocx/backend/internal/components"
	"github.com/ocx/backend/internal/ecs"
	"github.com/ocx/backend/internal/lobby"
	"github.com/ocx/backend/internal/metrics"
	"github.com/ocx/backend/internal/protocol"
	"github.com/ocx/backend/internal/simsystems"
	"github.com/ocx/backend/internal/transport"
)

// ServerRouter owns the server-side routing table: one inbound message in,
// zero or more outbound sends. It holds no simulation state of its own —
// every write lands on a lobby.Manager-owned world.
type ServerRouter struct {
	manager   *lobby.Manager
	transport transport.Transport
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

func NewServerRouter(m *lobby.Manager, tr transport.Transport, logger *slog.Logger) *ServerRouter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ServerRouter{manager: m, transport: tr, logger: logger}
}

// SetMetrics wires a Prometheus sink for per-message-type packet counts and
// protocol error counts. A nil metrics pointer (the default) disables
// recording.
func (r *ServerRouter) SetMetrics(m *metrics.Metrics) {
	r.metrics = m
}

// Dispatch routes one inbound packet. endpointID is the transport-assigned
// sender id, which doubles as the clientId used throughout lobby/ecs state.
func (r *ServerRouter) Dispatch(endpointID uint32, data []byte) {
	env, err := protocol.ParseEnvelope(string(data))
	if err != nil {
		r.handleParseError(endpointID, err)
		return
	}
	if r.metrics != nil {
		r.metrics.RecordPacket(env.Type)
	}

	switch env.Type {
	case protocol.TypeConnect:
		r.handleConnect(endpointID)
	case protocol.TypeDisconnect:
		r.handleLeaveLobby(endpointID)
	case protocol.TypePing:
		r.transport.Send(endpointID, []byte(protocol.TypePong))
	case protocol.TypeRequestLobby:
		r.handleRequestLobby(endpointID, env)
	case protocol.TypeLeaveLobby:
		r.handleLeaveLobby(endpointID)
	case protocol.TypeStartGame:
		r.handleStartGame(endpointID)
	case protocol.TypeViewport:
		r.handleViewport(endpointID, env)
	case protocol.TypePlayerInput:
		r.handlePlayerInput(endpointID, env)
	case protocol.TypeSetDifficulty:
		r.handleSetDifficulty(endpointID, env)
	case protocol.TypeChat:
		r.handleChat(endpointID, env)
	default:
		r.reply(endpointID, "unrecognized message type for this endpoint")
	}
}

func (r *ServerRouter) handleParseError(endpointID uint32, err error) {
	reason := "malformed"
	switch err.(type) {
	case protocol.ErrMissingType:
		reason = "missing_type"
		r.reply(endpointID, "message missing required \"type\" field")
	case protocol.ErrUnknownType:
		reason = "unknown_type"
		r.reply(endpointID, err.Error())
	default:
		r.reply(endpointID, "malformed message")
	}
	if r.metrics != nil {
		r.metrics.RecordProtocolError(reason)
	}
	r.logger.Warn("dispatch: rejected inbound packet", "endpoint_id", endpointID, "err", err)
}

func (r *ServerRouter) reply(endpointID uint32, message string) {
	r.transport.Send(endpointID, []byte(protocol.MustEncode(protocol.ErrorMsg{
		Type: protocol.TypeError, Message: message,
	})))
}

// handleConnect answers the initial handshake spec.md §6 requires: a
// connect message gets a welcome naming the endpoint's own clientId so it
// can recognize itself in later broadcasts.
func (r *ServerRouter) handleConnect(endpointID uint32) {
	r.transport.Send(endpointID, []byte(protocol.MustEncode(protocol.WelcomeMsg{
		Type:     protocol.TypeWelcome,
		ClientID: endpointID,
		Message:  "welcome",
	})))
}

func (r *ServerRouter) handleRequestLobby(endpointID uint32, env protocol.Envelope) {
	var msg protocol.RequestLobbyMsg
	if err := protocol.Decode(env.Raw, &msg); err != nil {
		r.reply(endpointID, "malformed request_lobby message")
		return
	}

	var (
		l   *lobby.Lobby
		err error
	)
	switch msg.Action {
	case "create":
		l, err = r.manager.CreateAndJoin(endpointID)
	case "join":
		l, err = r.manager.JoinLobby(msg.LobbyCode, endpointID)
	default:
		r.reply(endpointID, "request_lobby: action must be \"create\" or \"join\"")
		return
	}
	if err != nil {
		r.reply(endpointID, err.Error())
		return
	}

	r.transport.Send(endpointID, []byte(protocol.MustEncode(protocol.LobbyJoinedMsg{
		Type: protocol.TypeLobbyJoined, Code: l.Code(),
	})))
	l.BroadcastLobbyState()
}

func (r *ServerRouter) handleLeaveLobby(endpointID uint32) {
	l, ok := r.manager.GetClientLobby(endpointID)
	if !ok {
		return
	}
	r.manager.LeaveLobby(endpointID)
	r.transport.Send(endpointID, []byte(protocol.MustEncode(protocol.LobbyMessageMsg{
		Type: protocol.TypeLobbyLeft,
	})))
	if l.GetState() != lobby.Ended {
		l.BroadcastLobbyState()
	}
}

func (r *ServerRouter) handleStartGame(endpointID uint32) {
	l, ok := r.manager.GetClientLobby(endpointID)
	if !ok {
		r.reply(endpointID, "start_game: not in a lobby")
		return
	}
	if !l.StartGame() {
		r.reply(endpointID, "start_game: lobby already started")
		return
	}
	l.Broadcast(protocol.MustEncode(protocol.LobbyMessageMsg{
		Type: protocol.TypeGameStarted,
	}))
}

// requesterPlayerEntity resolves endpointID to its player entity within its
// current lobby, failing closed (returns ok=false) if either is missing.
// This is the identity check spec.md §4.4 requires before any mutating
// in-game message is allowed to touch simulation state.
func requesterPlayerEntity(m *lobby.Manager, endpointID uint32) (*lobby.Lobby, ecs.Entity, bool) {
	l, ok := m.GetClientLobby(endpointID)
	if !ok {
		return nil, 0, false
	}
	e, ok := l.PlayerEntity(endpointID)
	if !ok {
		return nil, 0, false
	}
	return l, e, true
}

func (r *ServerRouter) handleViewport(endpointID uint32, env protocol.Envelope) {
	var msg protocol.ViewportMsg
	if err := protocol.Decode(env.Raw, &msg); err != nil {
		r.reply(endpointID, "malformed viewport message")
		return
	}
	l, e, ok := requesterPlayerEntity(r.manager, endpointID)
	if !ok {
		return
	}
	ecs.AddComponent(l.World(), e, components.Viewport{Width: msg.Width, Height: msg.Height})
}

func (r *ServerRouter) handlePlayerInput(endpointID uint32, env protocol.Envelope) {
	var msg protocol.PlayerInputMsg
	if err := protocol.Decode(env.Raw, &msg); err != nil {
		r.reply(endpointID, "malformed player_input message")
		return
	}
	l, e, ok := requesterPlayerEntity(r.manager, endpointID)
	if !ok {
		return
	}
	input, ok := ecs.GetComponent[components.Input](l.World(), e)
	if !ok {
		return
	}
	input.Up = msg.Input.Up
	input.Down = msg.Input.Down
	input.Left = msg.Input.Left
	input.Right = msg.Input.Right
	input.Shoot = msg.Input.Shoot
	input.ChargedShoot = msg.Input.ChargedShoot
	input.Detach = msg.Input.Detach
}

func (r *ServerRouter) handleSetDifficulty(endpointID uint32, env protocol.Envelope) {
	var msg protocol.SetDifficultyMsg
	if err := protocol.Decode(env.Raw, &msg); err != nil {
		r.reply(endpointID, "malformed set_difficulty message")
		return
	}
	l, ok := r.manager.GetClientLobby(endpointID)
	if !ok {
		return
	}
	l.SetDifficulty(simsystems.ParseDifficulty(msg.Difficulty))
}

func (r *ServerRouter) handleChat(endpointID uint32, env protocol.Envelope) {
	var msg protocol.ChatMsg
	if err := protocol.Decode(env.Raw, &msg); err != nil {
		r.reply(endpointID, "malformed chat message")
		return
	}
	l, ok := r.manager.GetClientLobby(endpointID)
	if !ok {
		return
	}
	l.Broadcast(protocol.MustEncode(protocol.ChatBroadcastMsg{
		Type: protocol.TypeChat, SenderID: endpointID, Content: msg.Content,
	}))
}
