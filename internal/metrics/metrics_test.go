package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecordHelpersIncrementLabeledCounters(t *testing.T) {
	m := New()

	m.RecordPacket("player_input")
	m.RecordPacket("player_input")
	m.RecordProtocolError("missing_type")
	m.RecordSpawn("enemy_a")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.PacketsRouted.WithLabelValues("player_input")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ProtocolErrors.WithLabelValues("missing_type")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.EnemiesSpawned.WithLabelValues("enemy_a")))
}
