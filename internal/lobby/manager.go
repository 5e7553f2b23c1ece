package lobby

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/ocx/backend/internal/persist"
	"github.com/ocx/backend/internal/registry"
	"github.com/ocx/backend/internal/spectate"
	"github.com/ocx/backend/internal/telemetry"
	"github.com/ocx/backend/internal/transport"
)

// Manager owns every lobby on this process: code -> *Lobby and
// clientID -> *Lobby, enforcing the "at most one lobby per client"
// invariant of spec.md §4.6.
type Manager struct {
	mu sync.Mutex

	byCode    map[string]*Lobby
	byClient  map[uint32]*Lobby
	nextCode  int
	transport transport.Transport
	spawnCfg  func() SpawnConfig
	logger    *slog.Logger
	emitter   telemetry.Emitter
	store     persist.Store
	relay     *spectate.Relay

	registry     registry.Registry
	instanceAddr string
}

// NewManager builds an empty manager. spawnCfg is called fresh for every
// CreateLobby, since loaded gameconfig archetypes are shared read-only
// state but per-lobby difficulty/level selection may still vary.
func NewManager(tr transport.Transport, spawnCfg func() SpawnConfig, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		byCode:    make(map[string]*Lobby),
		byClient:  make(map[uint32]*Lobby),
		transport: tr,
		spawnCfg:  spawnCfg,
		logger:    logger,
	}
}

// SetEmitter wires a telemetry sink applied to every lobby created from
// this point on (existing lobbies are untouched).
func (m *Manager) SetEmitter(e telemetry.Emitter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emitter = e
}

// SetStore wires a match-history sink applied to every lobby created from
// this point on (existing lobbies are untouched).
func (m *Manager) SetStore(s persist.Store) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store = s
}

// SetSpectateRelay wires a spectator relay applied to every lobby created
// from this point on (existing lobbies are untouched).
func (m *Manager) SetSpectateRelay(r *spectate.Relay) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relay = r
}

// SetRegistry wires a cross-instance lobby registry, so other processes
// behind the same fleet can resolve which instance owns a given lobby
// code. instanceAddr identifies this process (host:port) in the shared
// namespace.
func (m *Manager) SetRegistry(reg registry.Registry, instanceAddr string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registry = reg
	m.instanceAddr = instanceAddr
}

// CreateLobby allocates a new lobby with a monotonically assigned code.
func (m *Manager) CreateLobby() *Lobby {
	m.mu.Lock()
	m.nextCode++
	code := strconv.Itoa(m.nextCode)
	l := New(code, m.transport, m.spawnCfg(), m.logger)
	if m.emitter != nil {
		l.SetEmitter(m.emitter)
	}
	if m.store != nil {
		l.SetStore(m.store)
	}
	if m.relay != nil {
		l.SetSpectateRelay(m.relay)
	}
	m.byCode[code] = l
	emitter := m.emitter
	reg := m.registry
	instanceAddr := m.instanceAddr
	m.mu.Unlock()
	if emitter != nil {
		emitter.Emit(telemetry.EventLobbyCreated, code, nil)
	}
	if reg != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := reg.RegisterLobby(ctx, code, instanceAddr); err != nil {
				m.logger.Warn("lobby: failed to register lobby in registry", "code", code, "err", err)
			}
		}()
	}
	return l
}

// JoinLobby admits clientID to the lobby named by code. It fails if the
// lobby doesn't exist, has already started, or the client is already in
// a (possibly different) lobby.
func (m *Manager) JoinLobby(code string, clientID uint32) (*Lobby, error) {
	m.mu.Lock()
	if _, already := m.byClient[clientID]; already {
		m.mu.Unlock()
		return nil, fmt.Errorf("lobby: client %d already in a lobby", clientID)
	}
	l, ok := m.byCode[code]
	if !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("lobby: no lobby with code %q", code)
	}
	if l.IsGameStarted() {
		m.mu.Unlock()
		return nil, fmt.Errorf("lobby: lobby %q already in progress", code)
	}
	m.byClient[clientID] = l
	m.mu.Unlock()

	l.AddClient(clientID)
	return l, nil
}

// CreateAndJoin is the "action=create" path of request_lobby: allocate a
// fresh lobby and immediately join the requester to it.
func (m *Manager) CreateAndJoin(clientID uint32) (*Lobby, error) {
	m.mu.Lock()
	if _, already := m.byClient[clientID]; already {
		m.mu.Unlock()
		return nil, fmt.Errorf("lobby: client %d already in a lobby", clientID)
	}
	m.mu.Unlock()
	l := m.CreateLobby()
	m.mu.Lock()
	m.byClient[clientID] = l
	m.mu.Unlock()
	l.AddClient(clientID)
	return l, nil
}

// LeaveLobby removes clientID from its current lobby, reaping the lobby
// if it becomes empty. A no-op if the client isn't in any lobby.
func (m *Manager) LeaveLobby(clientID uint32) {
	m.mu.Lock()
	l, ok := m.byClient[clientID]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.byClient, clientID)
	m.mu.Unlock()

	if empty := l.RemoveClient(clientID); empty {
		l.End("last client left")
		m.mu.Lock()
		delete(m.byCode, l.Code())
		reg := m.registry
		m.mu.Unlock()

		if reg != nil {
			code := l.Code()
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				if err := reg.DeregisterLobby(ctx, code); err != nil {
					m.logger.Warn("lobby: failed to deregister lobby from registry", "code", code, "err", err)
				}
			}()
		}
	}
}

// GetLobby returns the lobby for code, if any.
func (m *Manager) GetLobby(code string) (*Lobby, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.byCode[code]
	return l, ok
}

// GetClientLobby returns the lobby clientID currently belongs to, if any.
func (m *Manager) GetClientLobby(clientID uint32) (*Lobby, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.byClient[clientID]
	return l, ok
}

// TickAll advances every lobby's world by dt. Called once per frame from
// the game loop.
func (m *Manager) TickAll(dt float64) {
	m.mu.Lock()
	lobbies := make([]*Lobby, 0, len(m.byCode))
	for _, l := range m.byCode {
		lobbies = append(lobbies, l)
	}
	m.mu.Unlock()

	for _, l := range lobbies {
		l.Tick(dt)
	}
}

// ReapEnded removes every Ended lobby from the code index. Client
// mappings for an ended lobby are cleared as clients explicitly leave;
// this only sweeps the code table so a reused code can't collide with a
// stale lobby.
func (m *Manager) ReapEnded() {
	m.mu.Lock()
	var ended []string
	for code, l := range m.byCode {
		if l.GetState() == Ended {
			delete(m.byCode, code)
			ended = append(ended, code)
		}
	}
	reg := m.registry
	m.mu.Unlock()

	if reg != nil {
		for _, code := range ended {
			go func(code string) {
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				if err := reg.DeregisterLobby(ctx, code); err != nil {
					m.logger.Warn("lobby: failed to deregister lobby from registry", "code", code, "err", err)
				}
			}(code)
		}
	}
}

// Lobbies returns a snapshot of every tracked lobby, for the admin API.
func (m *Manager) Lobbies() []*Lobby {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Lobby, 0, len(m.byCode))
	for _, l := range m.byCode {
		out = append(out, l)
	}
	return out
}
