package dispatch

import (
	"log/slog"
	"sync"

	"github.com/ocx/backend/internal/protocol"
	"github.com/ocx/backend/internal/transport"
)

// RemoteEntity is the client's mirrored view of one server-owned entity,
// updated by snapshot/entity_update messages and read by rendering.
type RemoteEntity struct {
	ID       uint32
	X, Y     float64
	Rotation float64
	Scale    float64
	DX, DY   float64
	HP       int
	MaxHP    int
}

// UICallbacks lets the embedding application (a game client, or a headless
// test harness) react to server-pushed events without internal/dispatch
// importing anything UI-shaped. Every field is optional; a nil callback is
// simply skipped.
type UICallbacks struct {
	OnWelcome       func(clientID uint32, message string)
	OnLobbyJoined   func(code string)
	OnLobbyState    func(code string, playerCount int)
	OnLobbyLeft     func()
	OnLobbyMessage  func(message string, duration float64)
	OnLobbyEnd      func(scores map[string]int)
	OnGameStarted   func()
	OnLevelComplete func(currentLevel, nextLevel int)
	OnPlayerDead    func(payload map[string]interface{})
	OnChat          func(senderID uint32, sender, content string)
	OnError         func(message string)
}

// ClientRouter applies inbound server messages to a local mirror of
// networked entities and fans UI-relevant messages out to UICallbacks, per
// spec.md §4.11.
type ClientRouter struct {
	mu       sync.RWMutex
	entities map[uint32]*RemoteEntity

	transport transport.Transport
	callbacks UICallbacks
	logger    *slog.Logger
}

func NewClientRouter(tr transport.Transport, callbacks UICallbacks, logger *slog.Logger) *ClientRouter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClientRouter{
		entities:  make(map[uint32]*RemoteEntity),
		transport: tr,
		callbacks: callbacks,
		logger:    logger,
	}
}

// Dispatch routes one inbound server message. Unlike ServerRouter.Dispatch
// it takes no endpoint id, since the client has exactly one peer.
func (c *ClientRouter) Dispatch(data []byte) {
	text := string(data)
	env, err := protocol.ParseEnvelope(text)
	if err != nil {
		c.logger.Warn("dispatch: rejected server message", "err", err)
		return
	}

	switch env.Type {
	case protocol.TypePong:
		return
	case protocol.TypeWelcome:
		c.handleWelcome(env)
	case protocol.TypeLobbyJoined:
		c.handleLobbyJoined(env)
	case protocol.TypeLobbyState:
		c.handleLobbyState(env)
	case protocol.TypeLobbyLeft:
		if c.callbacks.OnLobbyLeft != nil {
			c.callbacks.OnLobbyLeft()
		}
	case protocol.TypeLobbyMessage:
		c.handleLobbyMessage(env)
	case protocol.TypeLobbyEnd:
		c.handleLobbyEnd(env)
	case protocol.TypeGameStarted:
		if c.callbacks.OnGameStarted != nil {
			c.callbacks.OnGameStarted()
		}
	case protocol.TypeSnapshot:
		c.handleSnapshot(env)
	case protocol.TypeEntityCreated:
		c.handleEntityCreated(env)
	case protocol.TypeEntityUpdate:
		c.handleEntityUpdate(env)
	case protocol.TypeLevelComplete:
		c.handleLevelComplete(env)
	case protocol.TypePlayerDead:
		c.handlePlayerDead(env)
	case protocol.TypeChat:
		c.handleChat(env)
	case protocol.TypeError:
		c.handleError(env)
	}
}

func (c *ClientRouter) handleWelcome(env protocol.Envelope) {
	var msg protocol.WelcomeMsg
	if protocol.Decode(env.Raw, &msg) != nil {
		return
	}
	if c.callbacks.OnWelcome != nil {
		c.callbacks.OnWelcome(msg.ClientID, msg.Message)
	}
}

func (c *ClientRouter) handleLobbyJoined(env protocol.Envelope) {
	var msg protocol.LobbyJoinedMsg
	if protocol.Decode(env.Raw, &msg) != nil {
		return
	}
	if c.callbacks.OnLobbyJoined != nil {
		c.callbacks.OnLobbyJoined(msg.Code)
	}
}

func (c *ClientRouter) handleLobbyState(env protocol.Envelope) {
	var msg protocol.LobbyStateMsg
	if protocol.Decode(env.Raw, &msg) != nil {
		return
	}
	if c.callbacks.OnLobbyState != nil {
		c.callbacks.OnLobbyState(msg.Code, msg.PlayerCount)
	}
}

func (c *ClientRouter) handleLobbyMessage(env protocol.Envelope) {
	var msg protocol.LobbyMessageMsg
	if protocol.Decode(env.Raw, &msg) != nil {
		return
	}
	if c.callbacks.OnLobbyMessage != nil {
		c.callbacks.OnLobbyMessage(msg.Message, msg.Duration)
	}
}

func (c *ClientRouter) handleLobbyEnd(env protocol.Envelope) {
	var msg protocol.LobbyEndMsg
	if protocol.Decode(env.Raw, &msg) != nil {
		return
	}
	if c.callbacks.OnLobbyEnd != nil {
		c.callbacks.OnLobbyEnd(msg.Scores)
	}
}

func (c *ClientRouter) handleLevelComplete(env protocol.Envelope) {
	var msg protocol.LevelCompleteMsg
	if protocol.Decode(env.Raw, &msg) != nil {
		return
	}
	if c.callbacks.OnLevelComplete != nil {
		c.callbacks.OnLevelComplete(msg.CurrentLevel, msg.NextLevel)
	}
}

func (c *ClientRouter) handlePlayerDead(env protocol.Envelope) {
	var msg protocol.PlayerDeadMsg
	if protocol.Decode(env.Raw, &msg) != nil {
		return
	}
	if c.callbacks.OnPlayerDead != nil {
		c.callbacks.OnPlayerDead(msg.Payload)
	}
}

func (c *ClientRouter) handleChat(env protocol.Envelope) {
	var msg protocol.ChatBroadcastMsg
	if protocol.Decode(env.Raw, &msg) != nil {
		return
	}
	if c.callbacks.OnChat != nil {
		c.callbacks.OnChat(msg.SenderID, msg.Sender, msg.Content)
	}
}

func (c *ClientRouter) handleError(env protocol.Envelope) {
	var msg protocol.ErrorMsg
	if protocol.Decode(env.Raw, &msg) != nil {
		return
	}
	if c.callbacks.OnError != nil {
		c.callbacks.OnError(msg.Message)
	}
}

// handleSnapshot merges every entity in the snapshot into the local mirror
// by id, creating an entry for ids not yet seen. A split (seq/of) snapshot
// is merged incrementally as each segment arrives; no segment reassembly
// buffer is needed since every segment already carries complete
// per-entity state.
func (c *ClientRouter) handleSnapshot(env protocol.Envelope) {
	var msg protocol.SnapshotMsg
	if protocol.Decode(env.Raw, &msg) != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, se := range msg.Entities {
		re, ok := c.entities[se.ID]
		if !ok {
			re = &RemoteEntity{ID: se.ID}
			c.entities[se.ID] = re
		}
		re.X, re.Y, re.Rotation, re.Scale = se.Transform.X, se.Transform.Y, se.Transform.Rotation, se.Transform.Scale
		if se.Velocity != nil {
			re.DX, re.DY = se.Velocity.DX, se.Velocity.DY
		}
		if se.Health != nil {
			re.HP, re.MaxHP = se.Health.HP, se.Health.MaxHP
		}
	}
}

func (c *ClientRouter) handleEntityCreated(env protocol.Envelope) {
	var msg protocol.EntityCreatedMsg
	if protocol.Decode(env.Raw, &msg) != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entities[msg.EntityID] = &RemoteEntity{
		ID: msg.EntityID, X: msg.Position.X, Y: msg.Position.Y, Scale: 1,
	}
}

func (c *ClientRouter) handleEntityUpdate(env protocol.Envelope) {
	var msg protocol.EntityUpdateMsg
	if protocol.Decode(env.Raw, &msg) != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	re, ok := c.entities[msg.EntityID]
	if !ok {
		re = &RemoteEntity{ID: msg.EntityID, Scale: 1}
		c.entities[msg.EntityID] = re
	}
	re.X, re.Y, re.Rotation = msg.Position.X, msg.Position.Y, msg.Rotation
}

// Entity returns the current mirrored state for id, if known.
func (c *ClientRouter) Entity(id uint32) (RemoteEntity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	re, ok := c.entities[id]
	if !ok {
		return RemoteEntity{}, false
	}
	return *re, true
}

// Entities returns a snapshot copy of every mirrored entity.
func (c *ClientRouter) Entities() []RemoteEntity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]RemoteEntity, 0, len(c.entities))
	for _, re := range c.entities {
		out = append(out, *re)
	}
	return out
}

// SendInput reports the current input vector to the server.
func (c *ClientRouter) SendInput(input protocol.InputState) {
	c.transport.Send(transport.ClientEndpointID, []byte(protocol.MustEncode(protocol.PlayerInputMsg{
		Type: protocol.TypePlayerInput, Input: input,
	})))
}

// SendChat sends a free-text chat message to the lobby.
func (c *ClientRouter) SendChat(content string) {
	c.transport.Send(transport.ClientEndpointID, []byte(protocol.MustEncode(protocol.ChatMsg{
		Type: protocol.TypeChat, Content: content,
	})))
}
