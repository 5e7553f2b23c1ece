package protocol

import "encoding/json"

// Recognized message type discriminators (spec.md §4.3).
const (
	TypePing          = "PING"
	TypePong          = "PONG"
	TypeConnect       = "connect"
	TypeDisconnect    = "disconnect"
	TypeRequestLobby  = "request_lobby"
	TypeLeaveLobby    = "leave_lobby"
	TypeStartGame     = "start_game"
	TypeViewport      = "viewport"
	TypePlayerInput   = "player_input"
	TypeSetDifficulty = "set_difficulty"
	TypeEntityCreated = "entity_created"
	TypeEntityUpdate  = "entity_update"
	TypeSnapshot      = "snapshot"
	TypeGameStarted   = "game_started"
	TypeWelcome       = "welcome"
	TypeLobbyJoined   = "lobby_joined"
	TypeLobbyState    = "lobby_state"
	TypeLobbyLeft     = "lobby_left"
	TypeLobbyMessage  = "lobby_message"
	TypeLobbyEnd      = "lobby_end"
	TypeLevelComplete = "level_complete"
	TypePlayerDead    = "player_dead"
	TypeChat          = "chat"
	TypeError         = "error"
)

// Envelope is the type-discriminated JSON wrapper every message is framed
// in. Raw holds the undecoded payload so handlers decode only the fields
// they need, mirroring the teacher's CloudEvent/map[string]interface{}
// envelope pattern.
type Envelope struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

// ErrMissingType and ErrUnknownType classify the two protocol-error cases
// of spec.md §4.3/§7 that the receive systems must reply to or drop.
type ErrMissingType struct{}
type ErrUnknownType struct{ Type string }

func (ErrMissingType) Error() string   { return "protocol: missing type" }
func (e ErrUnknownType) Error() string { return "protocol: unknown type " + e.Type }

var knownTypes = map[string]bool{
	TypePing: true, TypePong: true, TypeConnect: true, TypeDisconnect: true,
	TypeRequestLobby: true, TypeLeaveLobby: true, TypeStartGame: true,
	TypeViewport: true, TypePlayerInput: true, TypeSetDifficulty: true,
	TypeEntityCreated: true, TypeEntityUpdate: true, TypeSnapshot: true,
	TypeGameStarted: true, TypeWelcome: true, TypeLobbyJoined: true,
	TypeLobbyState: true, TypeLobbyLeft: true, TypeLobbyMessage: true,
	TypeLobbyEnd: true, TypeLevelComplete: true, TypePlayerDead: true,
	TypeChat: true, TypeError: true,
}

// IsKnownType reports whether t is one of the recognized discriminators.
func IsKnownType(t string) bool {
	return knownTypes[t]
}

// ParseEnvelope decodes the outer {"type": ...} shell of a message. A bare
// "PING"/"PONG" token (no JSON object) is accepted as a literal liveness
// probe, per spec.md §4.3's "literal token" framing; everything else must
// be a JSON object carrying a type field.
func ParseEnvelope(text string) (Envelope, error) {
	switch text {
	case TypePing:
		return Envelope{Type: TypePing}, nil
	case TypePong:
		return Envelope{Type: TypePong}, nil
	}

	var shell struct {
		Type string `json:"type"`
	}
	raw := []byte(text)
	if err := json.Unmarshal(raw, &shell); err != nil {
		return Envelope{}, ErrMissingType{}
	}
	if shell.Type == "" {
		return Envelope{}, ErrMissingType{}
	}
	if !IsKnownType(shell.Type) {
		return Envelope{}, ErrUnknownType{Type: shell.Type}
	}
	return Envelope{Type: shell.Type, Raw: raw}, nil
}

// ---- client -> server payloads ----

// RequestLobbyMsg is sent to create or join a lobby.
type RequestLobbyMsg struct {
	Type      string `json:"type"`
	Action    string `json:"action"` // "create" | "join"
	LobbyCode string `json:"lobby_code,omitempty"`
}

// ViewportMsg reports the client's screen size for server-side clamping.
type ViewportMsg struct {
	Type   string `json:"type"`
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

// InputState is the boolean input vector reported every poll.
type InputState struct {
	Up           bool `json:"up"`
	Down         bool `json:"down"`
	Left         bool `json:"left"`
	Right        bool `json:"right"`
	Shoot        bool `json:"shoot"`
	ChargedShoot bool `json:"chargedShoot"`
	Detach       bool `json:"detach"`
}

// PlayerInputMsg overwrites the sender's player entity Input component.
type PlayerInputMsg struct {
	Type     string     `json:"type"`
	EntityID uint32     `json:"entity_id,omitempty"`
	Input    InputState `json:"input"`
}

// SetDifficultyMsg updates the lobby's difficulty enum.
type SetDifficultyMsg struct {
	Type       string `json:"type"`
	Difficulty string `json:"difficulty"` // easy | medium | expert
}

// ChatMsg is a free-text lobby chat message.
type ChatMsg struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// ---- server -> client payloads ----

// WelcomeMsg acknowledges a freshly connected endpoint.
type WelcomeMsg struct {
	Type     string `json:"type"`
	ClientID uint32 `json:"client_id"`
	Message  string `json:"message"`
}

// LobbyJoinedMsg confirms lobby membership.
type LobbyJoinedMsg struct {
	Type string `json:"type"`
	Code string `json:"code"`
}

// LobbyStateMsg reports current lobby membership.
type LobbyStateMsg struct {
	Type        string `json:"type"`
	Code        string `json:"code"`
	PlayerCount int    `json:"player_count"`
}

// LobbyMessageMsg is a transient UI toast pushed to lobby members.
type LobbyMessageMsg struct {
	Type     string  `json:"type"`
	Message  string  `json:"message"`
	Duration float64 `json:"duration"`
}

// LobbyEndMsg reports final scores when a lobby ends.
type LobbyEndMsg struct {
	Type   string         `json:"type"`
	Scores map[string]int `json:"scores"`
}

// TransformWire is the wire shape of a Transform component.
type TransformWire struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation float64 `json:"rotation"`
	Scale    float64 `json:"scale"`
}

// VelocityWire is the wire shape of a Velocity component.
type VelocityWire struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// HealthWire is the wire shape of a Health component.
type HealthWire struct {
	HP    int `json:"hp"`
	MaxHP int `json:"maxHp"`
}

// SnapshotEntity is one entity's replicated state within a snapshot.
type SnapshotEntity struct {
	ID        uint32        `json:"id"`
	Transform TransformWire `json:"transform"`
	Velocity  *VelocityWire `json:"velocity,omitempty"`
	Health    *HealthWire   `json:"health,omitempty"`
}

// SnapshotMsg is a (possibly partial, when MTU-split) view of the world's
// Networked entities. Seq/Of identify a split message's position; both
// are zero for an unsplit snapshot.
type SnapshotMsg struct {
	Type     string           `json:"type"`
	Entities []SnapshotEntity `json:"entities"`
	Seq      int              `json:"seq,omitempty"`
	Of       int              `json:"of,omitempty"`
}

// EntityCreatedMsg announces a newly visible entity and its position.
type EntityCreatedMsg struct {
	Type     string `json:"type"`
	EntityID uint32 `json:"entity_id"`
	Position struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	} `json:"position"`
}

// EntityUpdateMsg carries an incremental position/rotation update plus
// the last input sequence the server has processed for that entity.
type EntityUpdateMsg struct {
	Type     string `json:"type"`
	EntityID uint32 `json:"entity_id"`
	Position struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	} `json:"position"`
	Rotation          float64 `json:"rotation"`
	LastProcessedInput uint64 `json:"last_processed_input"`
}

// LevelCompleteMsg announces a level transition.
type LevelCompleteMsg struct {
	Type         string `json:"type"`
	CurrentLevel int    `json:"currentLevel"`
	NextLevel    int    `json:"nextLevel"`
}

// PlayerDeadMsg carries an opaque death payload (cause, position, etc.).
type PlayerDeadMsg struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload"`
}

// ChatBroadcastMsg rebroadcasts a chat message to lobby members.
type ChatBroadcastMsg struct {
	Type     string `json:"type"`
	Sender   string `json:"sender"`
	SenderID uint32 `json:"sender_id"`
	Content  string `json:"content"`
}

// ErrorMsg is the uniform error reply for protocol/semantic failures.
type ErrorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Decode unmarshals an envelope's raw payload into a typed message
// struct. Handlers call this once they've matched on Envelope.Type.
func Decode(raw json.RawMessage, v interface{}) error {
	return json.Unmarshal(raw, v)
}

// MustEncode marshals v to its JSON text form. Message payload structs
// are always trivially marshalable (plain fields, no cycles), so a marshal
// failure here indicates a programming error, not bad input.
func MustEncode(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}
