// Package lobby implements the per-lobby state machine and the manager
// that owns every lobby on a server process (spec.md §4.5/§4.6). A lobby
// exclusively owns its ECS world; the world is created on lobby
// construction and destroyed when the lobby ends.
package lobby

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ocx/backend/internal/components"
	"github.com/ocx/backend/internal/ecs"
	"github.com/ocx/backend/internal/gameconfig"
	"github.com/ocx/backend/internal/persist"
	"github.com/ocx/backend/internal/protocol"
	"github.com/ocx/backend/internal/simsystems"
	"github.com/ocx/backend/internal/spectate"
	"github.com/ocx/backend/internal/telemetry"
	"github.com/ocx/backend/internal/transport"
)

// State is the lobby's lifecycle stage.
type State int

const (
	Waiting State = iota
	Running
	Ended
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Ended:
		return "ended"
	default:
		return "waiting"
	}
}

// SpawnConfig carries the per-lobby constants needed to start a game:
// player spawn point, starting stats, level/enemy archetype data, and the
// playfield bounds CullSystem enforces.
type SpawnConfig struct {
	SpawnX, SpawnY            float64
	PlayerMaxHP               int
	PlayerWidth, PlayerHeight float64
	WorldWidth, WorldHeight   float64
	Level                     gameconfig.LevelConfig
	Enemies                   *gameconfig.EnemyConfigManager
	PlayerSpeed               float64
}

// Lobby is one joinable, then running, then ended game session.
type Lobby struct {
	mu sync.RWMutex

	code      string
	state     State
	members   map[uint32]struct{}
	memberSeq []uint32 // insertion order, for deterministic broadcasts/tests
	difficulty simsystems.Difficulty

	transport transport.Transport
	spawn     SpawnConfig
	logger    *slog.Logger

	world   *ecs.World
	systems []ecs.System

	playerEntities map[uint32]ecs.Entity

	events    telemetry.Emitter
	store     persist.Store
	startedAt time.Time
	waveSys   *simsystems.WaveSpawnSystem
	relay     *spectate.Relay
}

// nullEmitter discards every event; the zero value of Lobby.events before
// SetEmitter is called.
type nullEmitter struct{}

func (nullEmitter) Emit(eventType, lobbyCode string, data map[string]interface{}) {}

// SetEmitter wires a telemetry sink for this lobby's lifecycle events. A nil
// emitter restores the no-op default.
func (l *Lobby) SetEmitter(e telemetry.Emitter) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e == nil {
		e = nullEmitter{}
	}
	l.events = e
}

// SetStore wires a match-history sink, consulted once when the lobby ends.
// A nil store (the default) disables persistence.
func (l *Lobby) SetStore(s persist.Store) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.store = s
}

// SetSpectateRelay wires a Socket.IO spectator relay: every broadcast this
// lobby sends its own members is mirrored to spectators watching this
// lobby's code. A nil relay (the default) disables spectating.
func (l *Lobby) SetSpectateRelay(r *spectate.Relay) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.relay = r
}

// New constructs a Waiting lobby bound to the given code. The world is
// allocated immediately (empty, no systems) so that a pre-start viewport
// message has something inert to be silently ignored against; it is
// populated with systems and player entities in StartGame.
func New(code string, tr transport.Transport, spawn SpawnConfig, logger *slog.Logger) *Lobby {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lobby{
		code:           code,
		state:          Waiting,
		members:        make(map[uint32]struct{}),
		difficulty:     simsystems.DifficultyMedium,
		transport:      tr,
		spawn:          spawn,
		logger:         logger,
		world:          ecs.NewWorld(),
		playerEntities: make(map[uint32]ecs.Entity),
		events:         nullEmitter{},
	}
}

// Code returns the lobby's join code.
func (l *Lobby) Code() string { return l.code }

// IsGameStarted reports whether the lobby has left Waiting.
func (l *Lobby) IsGameStarted() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state == Running
}

// GetState returns the lobby's current lifecycle stage.
func (l *Lobby) GetState() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// World returns the lobby's ECS world.
func (l *Lobby) World() *ecs.World { return l.world }

// SetDifficulty updates the lobby's difficulty enum; wave spawns
// scheduled after this call use the new scale.
func (l *Lobby) SetDifficulty(d simsystems.Difficulty) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.difficulty = d
}

func (l *Lobby) Difficulty() simsystems.Difficulty {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.difficulty
}

// AddClient admits clientID to the lobby's member set.
func (l *Lobby) AddClient(clientID uint32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.members[clientID]; ok {
		return
	}
	l.members[clientID] = struct{}{}
	l.memberSeq = append(l.memberSeq, clientID)
}

// RemoveClient drops clientID from the member set, returning whether the
// lobby is now empty.
func (l *Lobby) RemoveClient(clientID uint32) (empty bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.members, clientID)
	for i, id := range l.memberSeq {
		if id == clientID {
			l.memberSeq = append(l.memberSeq[:i], l.memberSeq[i+1:]...)
			break
		}
	}
	return len(l.members) == 0
}

// PlayerCount returns the current member count.
func (l *Lobby) PlayerCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.members)
}

// Clients returns the member client ids in join order.
func (l *Lobby) Clients() []uint32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]uint32, len(l.memberSeq))
	copy(out, l.memberSeq)
	return out
}

// Broadcast serializes nothing itself (text is already serialized) and
// sends it to every member via the transport. Implements
// simsystems.Broadcaster.
func (l *Lobby) Broadcast(text string) {
	data := []byte(text)
	for _, id := range l.Clients() {
		l.transport.Send(id, data)
	}

	l.mu.RLock()
	relay := l.relay
	l.mu.RUnlock()
	if relay != nil {
		relay.BroadcastSnapshot(l.code, data)
	}
}

// StartGame instantiates every simulation system bound to this world in
// the order spec.md §4.5 specifies (input, movement, attraction,
// shooting, spawn-wave, collision, health, snapshot), spawns a player
// entity for each current member, and begins the wave scheduler at t=0.
// A no-op if the lobby is not Waiting.
func (l *Lobby) StartGame() bool {
	l.mu.Lock()
	if l.state != Waiting {
		l.mu.Unlock()
		return false
	}
	l.state = Running
	members := make([]uint32, len(l.memberSeq))
	copy(members, l.memberSeq)
	spawn := l.spawn
	l.mu.Unlock()

	simsystems.RegisterProjectileSpawnListener(l.world)
	simsystems.RegisterSpawnListener(l.world)

	l.waveSys = simsystems.NewWaveSpawnSystem(spawn.Level, spawn.Enemies, l.Difficulty)
	l.systems = []ecs.System{
		simsystems.NewInputSystem(spawn.PlayerSpeed),
		simsystems.NewMovementSystem(),
		simsystems.NewPatternMovementSystem(),
		simsystems.NewAttractionSystem(),
		simsystems.NewShootingSystem(),
		l.waveSys,
		simsystems.NewCollisionSystem(),
		simsystems.NewHealthSystem(),
		simsystems.NewInvulnerabilityDecaySystem(),
		simsystems.NewCullSystem(spawn.WorldWidth, spawn.WorldHeight),
		simsystems.NewSnapshotSystem(l),
	}
	ecs.InitializeSystems(l.world, l.systems)
	l.startedAt = time.Now()

	ecs.Subscribe(l.world.Events, func(ev simsystems.DeathEvent) {
		if ev.WasPlayer {
			l.events.Emit(telemetry.EventPlayerDied, l.code, map[string]interface{}{
				"client_id": ev.ClientID,
			})
			l.Broadcast(protocol.MustEncode(protocol.PlayerDeadMsg{
				Type:    protocol.TypePlayerDead,
				Payload: map[string]interface{}{"client_id": ev.ClientID},
			}))
		}
	})

	for _, clientID := range members {
		l.spawnPlayer(clientID)
	}

	l.events.Emit(telemetry.EventGameStarted, l.code, map[string]interface{}{
		"player_count": len(members),
		"difficulty":   l.Difficulty().String(),
	})
	return true
}

func (l *Lobby) spawnPlayer(clientID uint32) {
	e := l.world.CreateEntity()
	ecs.AddComponent(l.world, e, components.Transform{X: l.spawn.SpawnX, Y: l.spawn.SpawnY, Scale: 1})
	ecs.AddComponent(l.world, e, components.Velocity{})
	ecs.AddComponent(l.world, e, components.Input{})
	ecs.AddComponent(l.world, e, components.PlayerId{ClientID: clientID})
	ecs.AddComponent(l.world, e, components.Health{HP: l.spawn.PlayerMaxHP, MaxHP: l.spawn.PlayerMaxHP})
	ecs.AddComponent(l.world, e, components.Collider{Width: l.spawn.PlayerWidth, Height: l.spawn.PlayerHeight})
	ecs.AddComponent(l.world, e, components.Networked{Flag: true})

	l.mu.Lock()
	l.playerEntities[clientID] = e
	l.mu.Unlock()
}

// PlayerEntity returns the entity bound to clientID's PlayerId, if any.
func (l *Lobby) PlayerEntity(clientID uint32) (ecs.Entity, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.playerEntities[clientID]
	return e, ok
}

// Tick advances the world by dt if the lobby is Running; a no-op
// otherwise.
func (l *Lobby) Tick(dt float64) {
	if !l.IsGameStarted() {
		return
	}
	ecs.RunSystems(l.world, l.systems, dt)
}

// End transitions the lobby to Ended. reason is logged, carried on the
// lobby-ended telemetry event and used for the match record (Survived is
// true only for "manual_end"); End itself sends nothing to members.
func (l *Lobby) End(reason string) {
	l.mu.Lock()
	wasRunning := l.state == Running
	l.state = Ended
	store := l.store
	rec := l.buildMatchRecord(reason)
	l.mu.Unlock()
	l.logger.Info("lobby ended", "lobby_code", l.code, "reason", reason)
	l.events.Emit(telemetry.EventLobbyEnded, l.code, map[string]interface{}{"reason": reason})

	if wasRunning && store != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := store.SaveMatch(ctx, rec); err != nil {
				l.logger.Warn("lobby: failed to persist match result", "lobby_code", l.code, "err", err)
			}
		}()
	}
}

// buildMatchRecord snapshots the lobby's final tally for persistence.
// Callers must hold l.mu.
func (l *Lobby) buildMatchRecord(reason string) persist.MatchRecord {
	wave := 0
	if l.waveSys != nil {
		wave = l.waveSys.CurrentWave()
	}
	var duration float64
	if !l.startedAt.IsZero() {
		duration = time.Since(l.startedAt).Seconds()
	}
	return persist.MatchRecord{
		LobbyCode:    l.code,
		Difficulty:   l.difficulty.String(),
		PlayerCount:  len(l.members),
		WaveReached:  wave,
		DurationSecs: duration,
		Survived:     reason == "manual_end",
		EndedAt:      time.Now(),
	}
}

// BroadcastLobbyState sends the current player_count to every member.
func (l *Lobby) BroadcastLobbyState() {
	l.Broadcast(protocol.MustEncode(protocol.LobbyStateMsg{
		Type:        protocol.TypeLobbyState,
		Code:        l.code,
		PlayerCount: l.PlayerCount(),
	}))
}
