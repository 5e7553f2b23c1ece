package adminrpc

import (
	"context"
	"testing"

	"github.com/ocx/backend/internal/gameconfig"
	"github.com/ocx/backend/internal/lobby"
	"github.com/ocx/backend/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct{}

func (fakeTransport) Start() error                       { return nil }
func (fakeTransport) Stop()                               {}
func (fakeTransport) Poll() (transport.Packet, bool)       { return transport.Packet{}, false }
func (fakeTransport) Clients() []transport.Endpoint        { return nil }
func (fakeTransport) Send(endpointID uint32, data []byte) {}

func testSpawnConfig() lobby.SpawnConfig {
	return lobby.SpawnConfig{
		SpawnX: 0, SpawnY: 0,
		PlayerMaxHP: 100, PlayerWidth: 32, PlayerHeight: 32,
		WorldWidth: 800, WorldHeight: 600, PlayerSpeed: 200,
		Level:   gameconfig.LevelConfig{},
		Enemies: gameconfig.NewEnemyConfigManager(),
	}
}

func TestHeartbeatRejectsOverCapacity(t *testing.T) {
	m := lobby.NewManager(fakeTransport{}, testSpawnConfig, nil)
	m.CreateLobby()
	m.CreateLobby()

	c, err := NewFleetClient("localhost:0", "10.0.0.1:9000", 1, nil)
	require.NoError(t, err)
	defer c.Close()

	ack, err := c.Heartbeat(context.Background(), m)
	require.NoError(t, err)
	assert.False(t, ack.Accepted)
}

func TestHeartbeatAcceptsWithinCapacity(t *testing.T) {
	m := lobby.NewManager(fakeTransport{}, testSpawnConfig, nil)
	m.CreateLobby()

	c, err := NewFleetClient("localhost:0", "10.0.0.1:9000", 5, nil)
	require.NoError(t, err)
	defer c.Close()

	ack, err := c.Heartbeat(context.Background(), m)
	require.NoError(t, err)
	assert.True(t, ack.Accepted)
}

func TestRequestDrainCountsNonEndedLobbies(t *testing.T) {
	m := lobby.NewManager(fakeTransport{}, testSpawnConfig, nil)
	m.CreateLobby()
	l2 := m.CreateLobby()
	l2.End("test")

	c, err := NewFleetClient("localhost:0", "10.0.0.1:9000", 5, nil)
	require.NoError(t, err)
	defer c.Close()

	status, err := c.RequestDrain(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, 1, status.LobbiesLeft)
	assert.False(t, status.Drained)
}
