package lobby

import (
	"context"
	"testing"
	"time"

	"github.com/ocx/backend/internal/gameconfig"
	"github.com/ocx/backend/internal/persist"
	"github.com/ocx/backend/internal/registry"
	"github.com/ocx/backend/internal/spectate"
	"github.com/ocx/backend/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	saved chan persist.MatchRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{saved: make(chan persist.MatchRecord, 1)}
}

func (s *fakeStore) SaveMatch(ctx context.Context, m persist.MatchRecord) error {
	s.saved <- m
	return nil
}
func (s *fakeStore) TopScores(ctx context.Context, limit int) ([]persist.MatchRecord, error) {
	return nil, nil
}
func (s *fakeStore) Close() error { return nil }

type fakeTransport struct {
	sent map[uint32][][]byte
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{sent: make(map[uint32][][]byte)}
}

func (f *fakeTransport) Start() error                       { return nil }
func (f *fakeTransport) Stop()                               {}
func (f *fakeTransport) Poll() (transport.Packet, bool)       { return transport.Packet{}, false }
func (f *fakeTransport) Clients() []transport.Endpoint        { return nil }
func (f *fakeTransport) Send(endpointID uint32, data []byte) {
	f.sent[endpointID] = append(f.sent[endpointID], data)
}

func testSpawnConfig() SpawnConfig {
	return SpawnConfig{
		SpawnX: 50, SpawnY: 50,
		PlayerMaxHP:   100,
		PlayerWidth:   32,
		PlayerHeight:  32,
		WorldWidth:    800,
		WorldHeight:   600,
		PlayerSpeed:   200,
		Level:         gameconfig.LevelConfig{},
		Enemies:       gameconfig.NewEnemyConfigManager(),
	}
}

func TestLobbyStartGameSpawnsPlayerPerMember(t *testing.T) {
	tr := newFakeTransport()
	l := New("1", tr, testSpawnConfig(), nil)

	l.AddClient(10)
	l.AddClient(20)

	require.True(t, l.StartGame())
	assert.True(t, l.IsGameStarted())

	_, ok := l.PlayerEntity(10)
	assert.True(t, ok)
	_, ok = l.PlayerEntity(20)
	assert.True(t, ok)
}

func TestLobbyStartGameTwiceIsNoOp(t *testing.T) {
	tr := newFakeTransport()
	l := New("1", tr, testSpawnConfig(), nil)
	l.AddClient(1)

	require.True(t, l.StartGame())
	assert.False(t, l.StartGame())
}

func TestManagerEnforcesOneLobbyPerClient(t *testing.T) {
	tr := newFakeTransport()
	m := NewManager(tr, testSpawnConfig, nil)

	l1 := m.CreateLobby()
	require.NoError(t, func() error {
		_, err := m.JoinLobby(l1.Code(), 5)
		return err
	}())

	l2 := m.CreateLobby()
	_, err := m.JoinLobby(l2.Code(), 5)
	assert.Error(t, err)
}

func TestManagerJoinUnknownLobbyFails(t *testing.T) {
	tr := newFakeTransport()
	m := NewManager(tr, testSpawnConfig, nil)

	_, err := m.JoinLobby("nonexistent", 1)
	assert.Error(t, err)
}

func TestLobbyBroadcastMirrorsToSpectateRelayWithoutPanic(t *testing.T) {
	tr := newFakeTransport()
	relay := spectate.NewRelay(nil)
	defer relay.Close()
	l := New("1", tr, testSpawnConfig(), nil)
	l.SetSpectateRelay(relay)
	l.AddClient(1)

	assert.NotPanics(t, func() {
		l.Broadcast("hello spectators")
	})
}

func TestManagerRegistersAndDeregistersLobbyCodes(t *testing.T) {
	tr := newFakeTransport()
	m := NewManager(tr, testSpawnConfig, nil)
	reg := registry.NewMemoryRegistry()
	m.SetRegistry(reg, "10.0.0.5:9000")

	l := m.CreateLobby()

	require.Eventually(t, func() bool {
		addr, err := reg.ResolveLobby(context.Background(), l.Code())
		return err == nil && addr == "10.0.0.5:9000"
	}, time.Second, 5*time.Millisecond)

	_, err := m.JoinLobby(l.Code(), 1)
	require.NoError(t, err)
	m.LeaveLobby(1)
	m.ReapEnded()

	require.Eventually(t, func() bool {
		_, err := reg.ResolveLobby(context.Background(), l.Code())
		return err != nil
	}, time.Second, 5*time.Millisecond)
}

func TestManagerLeaveEmptiesAndReaps(t *testing.T) {
	tr := newFakeTransport()
	m := NewManager(tr, testSpawnConfig, nil)

	l := m.CreateLobby()
	_, err := m.JoinLobby(l.Code(), 1)
	require.NoError(t, err)

	m.LeaveLobby(1)

	assert.Equal(t, Ended, l.GetState())
	_, found := m.GetLobby(l.Code())
	assert.False(t, found)
}

func TestLobbyBroadcastSendsToEveryMember(t *testing.T) {
	tr := newFakeTransport()
	l := New("1", tr, testSpawnConfig(), nil)
	l.AddClient(1)
	l.AddClient(2)

	l.Broadcast("hello")

	assert.Len(t, tr.sent[1], 1)
	assert.Len(t, tr.sent[2], 1)
}

func TestLobbyEndPersistsMatchRecordOnlyWhenGameStarted(t *testing.T) {
	tr := newFakeTransport()
	store := newFakeStore()
	l := New("1", tr, testSpawnConfig(), nil)
	l.SetStore(store)
	l.AddClient(1)
	l.AddClient(2)

	require.True(t, l.StartGame())
	l.End("manual_end")

	select {
	case rec := <-store.saved:
		assert.Equal(t, "1", rec.LobbyCode)
		assert.Equal(t, 2, rec.PlayerCount)
		assert.True(t, rec.Survived)
	case <-time.After(time.Second):
		t.Fatal("expected match record to be saved")
	}
}

func TestLobbyEndSkipsPersistenceWhenGameNeverStarted(t *testing.T) {
	tr := newFakeTransport()
	store := newFakeStore()
	l := New("1", tr, testSpawnConfig(), nil)
	l.SetStore(store)

	l.End("no members ever joined")

	select {
	case <-store.saved:
		t.Fatal("did not expect a match record for a lobby that never started")
	case <-time.After(50 * time.Millisecond):
	}
}
