package spectate

import (
	"testing"

	"github.com/ocx/backend/internal/telemetry"
	"github.com/stretchr/testify/assert"
)

func TestNewRelayExposesHTTPHandler(t *testing.T) {
	r := NewRelay(nil)
	defer r.Close()
	assert.NotNil(t, r.Handler())
}

func TestBroadcastSnapshotWithNoClientsDoesNotPanic(t *testing.T) {
	r := NewRelay(nil)
	defer r.Close()
	assert.NotPanics(t, func() {
		r.BroadcastSnapshot("ABCD", []byte(`{"entities":[]}`))
	})
}

func TestAttachBusForwardsEventsWithoutPanic(t *testing.T) {
	r := NewRelay(nil)
	defer r.Close()
	bus := telemetry.NewBus()
	r.AttachBus(bus)

	assert.NotPanics(t, func() {
		bus.Emit(telemetry.EventLobbyCreated, "ABCD", nil)
	})
}
