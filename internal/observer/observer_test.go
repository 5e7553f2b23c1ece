package observer

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocx/backend/internal/telemetry"
)

func TestDashboardStreamerBroadcastsBusEventsToClient(t *testing.T) {
	ds := NewDashboardStreamer(nil)
	bus := telemetry.NewBus()
	ds.AttachBus(bus)
	go ds.Run()

	server := httptest.NewServer(http.HandlerFunc(ds.HandleWebSocket))
	defer server.Close()

	wsURL := "ws" + server.URL[len("http"):]
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	time.Sleep(20 * time.Millisecond) // allow register to land before emit

	bus.Emit(telemetry.EventGameStarted, "lobby-1", map[string]interface{}{"player_count": 2})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got DashboardEvent
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, telemetry.EventGameStarted, got.Type)
	assert.Equal(t, "lobby-1", got.LobbyCode)
}
