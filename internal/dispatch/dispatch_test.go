package dispatch

import (
	"testing"

	"github.com/ocx/backend/internal/components"
	"github.com/ocx/backend/internal/ecs"
	"github.com/ocx/backend/internal/gameconfig"
	"github.com/ocx/backend/internal/lobby"
	"github.com/ocx/backend/internal/protocol"
	"github.com/ocx/backend/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getInput(l *lobby.Lobby, e ecs.Entity) (components.Input, bool) {
	in, ok := ecs.GetComponent[components.Input](l.World(), e)
	if !ok {
		return components.Input{}, false
	}
	return *in, true
}

type fakeTransport struct {
	sent map[uint32][]string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{sent: make(map[uint32][]string)}
}

func (f *fakeTransport) Start() error                 { return nil }
func (f *fakeTransport) Stop()                         {}
func (f *fakeTransport) Poll() (transport.Packet, bool) { return transport.Packet{}, false }
func (f *fakeTransport) Clients() []transport.Endpoint  { return nil }
func (f *fakeTransport) Send(endpointID uint32, data []byte) {
	f.sent[endpointID] = append(f.sent[endpointID], string(data))
}

func testSpawnConfig() lobby.SpawnConfig {
	return lobby.SpawnConfig{
		SpawnX: 10, SpawnY: 10,
		PlayerMaxHP:  100,
		PlayerWidth:  32,
		PlayerHeight: 32,
		WorldWidth:   800,
		WorldHeight:  600,
		PlayerSpeed:  200,
		Level:        gameconfig.LevelConfig{},
		Enemies:      gameconfig.NewEnemyConfigManager(),
	}
}

func TestDispatchPingRepliesWithPong(t *testing.T) {
	tr := newFakeTransport()
	m := lobby.NewManager(tr, testSpawnConfig, nil)
	r := NewServerRouter(m, tr, nil)

	r.Dispatch(1, []byte("PING"))
	require.Len(t, tr.sent[1], 1)
	assert.Equal(t, "PONG", tr.sent[1][0])
}

func TestDispatchRequestLobbyCreateThenJoin(t *testing.T) {
	tr := newFakeTransport()
	m := lobby.NewManager(tr, testSpawnConfig, nil)
	r := NewServerRouter(m, tr, nil)

	r.Dispatch(1, []byte(protocol.MustEncode(protocol.RequestLobbyMsg{
		Type: protocol.TypeRequestLobby, Action: "create",
	})))
	require.Len(t, tr.sent[1], 2, "expect lobby_joined then lobby_state")

	l, ok := m.GetClientLobby(1)
	require.True(t, ok)

	r.Dispatch(2, []byte(protocol.MustEncode(protocol.RequestLobbyMsg{
		Type: protocol.TypeRequestLobby, Action: "join", LobbyCode: l.Code(),
	})))
	assert.Equal(t, 2, l.PlayerCount())
}

func TestDispatchConnectRepliesWithWelcome(t *testing.T) {
	tr := newFakeTransport()
	m := lobby.NewManager(tr, testSpawnConfig, nil)
	r := NewServerRouter(m, tr, nil)

	r.Dispatch(7, []byte(protocol.MustEncode(struct {
		Type string `json:"type"`
	}{Type: protocol.TypeConnect})))

	require.Len(t, tr.sent[7], 1)
	env, err := protocol.ParseEnvelope(tr.sent[7][0])
	require.NoError(t, err)
	assert.Equal(t, protocol.TypeWelcome, env.Type)

	var welcome protocol.WelcomeMsg
	require.NoError(t, protocol.Decode(env.Raw, &welcome))
	assert.Equal(t, uint32(7), welcome.ClientID)
}

func TestDispatchDisconnectLeavesLobby(t *testing.T) {
	tr := newFakeTransport()
	m := lobby.NewManager(tr, testSpawnConfig, nil)
	r := NewServerRouter(m, tr, nil)

	l := m.CreateLobby()
	_, err := m.JoinLobby(l.Code(), 1)
	require.NoError(t, err)

	r.Dispatch(1, []byte(protocol.MustEncode(struct {
		Type string `json:"type"`
	}{Type: protocol.TypeDisconnect})))

	_, ok := m.GetClientLobby(1)
	assert.False(t, ok, "disconnect must remove the endpoint from its lobby")
}

func TestDispatchUnknownTypeRepliesWithError(t *testing.T) {
	tr := newFakeTransport()
	m := lobby.NewManager(tr, testSpawnConfig, nil)
	r := NewServerRouter(m, tr, nil)

	r.Dispatch(1, []byte(`{"type":"not_a_real_type"}`))
	require.Len(t, tr.sent[1], 1)
	assert.Contains(t, tr.sent[1][0], "unknown type")
}

func TestDispatchPlayerInputOverwritesRequesterOnly(t *testing.T) {
	tr := newFakeTransport()
	m := lobby.NewManager(tr, testSpawnConfig, nil)
	r := NewServerRouter(m, tr, nil)

	l := m.CreateLobby()
	_, err := m.JoinLobby(l.Code(), 1)
	require.NoError(t, err)
	_, err = m.JoinLobby(l.Code(), 2)
	require.NoError(t, err)
	require.True(t, l.StartGame())

	r.Dispatch(1, []byte(protocol.MustEncode(protocol.PlayerInputMsg{
		Type: protocol.TypePlayerInput,
		Input: protocol.InputState{Shoot: true, Right: true},
	})))

	e1, _ := l.PlayerEntity(1)
	e2, _ := l.PlayerEntity(2)
	in1, _ := getInput(l, e1)
	in2, _ := getInput(l, e2)
	assert.True(t, in1.Shoot)
	assert.True(t, in1.Right)
	assert.False(t, in2.Shoot, "input writes must not leak across players")
}

func TestDispatchStartGameRequiresMembership(t *testing.T) {
	tr := newFakeTransport()
	m := lobby.NewManager(tr, testSpawnConfig, nil)
	r := NewServerRouter(m, tr, nil)

	r.Dispatch(99, []byte(protocol.MustEncode(struct {
		Type string `json:"type"`
	}{Type: protocol.TypeStartGame})))
	require.Len(t, tr.sent[99], 1)
	assert.Contains(t, tr.sent[99][0], "not in a lobby")
}

func TestClientRouterMergesSnapshotByID(t *testing.T) {
	tr := newFakeTransport()
	var lastState string
	r := NewClientRouter(tr, UICallbacks{
		OnLobbyState: func(code string, count int) { lastState = code },
	}, nil)

	r.Dispatch([]byte(protocol.MustEncode(protocol.SnapshotMsg{
		Type: protocol.TypeSnapshot,
		Entities: []protocol.SnapshotEntity{
			{ID: 5, Transform: protocol.TransformWire{X: 1, Y: 2}},
		},
	})))
	re, ok := r.Entity(5)
	require.True(t, ok)
	assert.Equal(t, 1.0, re.X)

	r.Dispatch([]byte(protocol.MustEncode(protocol.SnapshotMsg{
		Type: protocol.TypeSnapshot,
		Entities: []protocol.SnapshotEntity{
			{ID: 5, Transform: protocol.TransformWire{X: 9, Y: 9}},
		},
	})))
	re, _ = r.Entity(5)
	assert.Equal(t, 9.0, re.X, "later snapshot overwrites the mirrored entity by id")

	r.Dispatch([]byte(protocol.MustEncode(protocol.LobbyStateMsg{
		Type: protocol.TypeLobbyState, Code: "42", PlayerCount: 1,
	})))
	assert.Equal(t, "42", lastState)
}
