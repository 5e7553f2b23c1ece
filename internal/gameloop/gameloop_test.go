package gameloop

import (
	"context"
	"testing"
	"time"

	"github.com/ocx/backend/internal/dispatch"
	"github.com/ocx/backend/internal/gameconfig"
	"github.com/ocx/backend/internal/lobby"
	"github.com/ocx/backend/internal/protocol"
	"github.com/ocx/backend/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	inbound chan transport.Packet
	sent    map[uint32][]string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{inbound: make(chan transport.Packet, 16), sent: make(map[uint32][]string)}
}

func (f *fakeTransport) Start() error { return nil }
func (f *fakeTransport) Stop()         {}
func (f *fakeTransport) Poll() (transport.Packet, bool) {
	select {
	case p := <-f.inbound:
		return p, true
	default:
		return transport.Packet{}, false
	}
}
func (f *fakeTransport) Clients() []transport.Endpoint { return nil }
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

func TestDriverRoutesInboundAndTicksLobbies(t *testing.T) {
	tr := newFakeTransport()
	m := lobby.NewManager(tr, testSpawnConfig, nil)
	router := dispatch.NewServerRouter(m, tr, nil)
	driver := NewDriver(tr, m, router, 200, nil)

	tr.inbound <- transport.Packet{EndpointID: 7, Data: []byte("PING")}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, driver.Run(ctx))

	require.NotEmpty(t, tr.sent[7])
	assert.Equal(t, "PONG", tr.sent[7][0])
}

func TestDriverAdvancesRunningLobbies(t *testing.T) {
	tr := newFakeTransport()
	m := lobby.NewManager(tr, testSpawnConfig, nil)
	router := dispatch.NewServerRouter(m, tr, nil)
	driver := NewDriver(tr, m, router, 200, nil)

	l := m.CreateLobby()
	_, err := m.JoinLobby(l.Code(), 1)
	require.NoError(t, err)
	require.True(t, l.StartGame())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, driver.Run(ctx))

	assert.NotEmpty(t, tr.sent[1], "a running lobby must broadcast at least one snapshot before the context expires")
	found := false
	for _, msg := range tr.sent[1] {
		if env, err := protocol.ParseEnvelope(msg); err == nil && env.Type == protocol.TypeSnapshot {
			found = true
			break
		}
	}
	assert.True(t, found)
}
