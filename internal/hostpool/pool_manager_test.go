package hostpool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// newTestPool builds a PoolManager without starting its background
// maintainer, so tests can exercise Acquire/Release/Stats against
// hand-seeded hosts without touching a real Docker daemon.
func newTestPool(maxCap int) *PoolManager {
	pm := &PoolManager{
		available:   make(chan *Host, maxCap),
		active:      make(map[string]*Host),
		minIdle:     0,
		maxCapacity: maxCap,
		stop:        make(chan struct{}),
	}
	close(pm.stop)
	return pm
}

func TestAcquireMovesHostFromAvailableToActive(t *testing.T) {
	pm := newTestPool(4)
	pm.available <- &Host{ID: "host-1"}

	h, err := pm.Acquire(context.Background(), "lobby-42")
	assert.NoError(t, err)
	assert.Equal(t, "host-1", h.ID)
	assert.Equal(t, "lobby-42", h.LobbyCode)

	stats := pm.Stats()
	assert.Equal(t, 1, stats["active_hosts"])
	assert.Equal(t, 0, stats["idle_hosts"])
}

func TestShortIDTruncatesLongContainerIDs(t *testing.T) {
	full := "abcdef0123456789abcdef"
	assert.Equal(t, "abcdef012345", shortID(full))
	assert.Equal(t, "short", shortID("short"))
}
