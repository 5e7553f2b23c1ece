// Package metrics registers every Prometheus series the server exposes on
// /metrics, adapted from the teacher's escrow Metrics registrar.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every Prometheus collector the server updates during its
// tick and dispatch loops.
type Metrics struct {
	TickDuration     prometheus.Histogram
	LobbiesActive    prometheus.Gauge
	PlayersConnected prometheus.Gauge
	PacketsRouted    *prometheus.CounterVec
	ProtocolErrors   *prometheus.CounterVec
	EnemiesSpawned   *prometheus.CounterVec
	PlayerDeaths     prometheus.Counter
	SnapshotBytes    prometheus.Histogram
}

// New creates and registers every collector.
func New() *Metrics {
	return &Metrics{
		TickDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gameserver_tick_duration_seconds",
			Help:    "Wall-clock duration of one simulation tick across every running lobby",
			Buckets: prometheus.DefBuckets,
		}),
		LobbiesActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "gameserver_lobbies_active",
			Help: "Number of lobbies currently in the Running state",
		}),
		PlayersConnected: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "gameserver_players_connected",
			Help: "Number of distinct client endpoints currently in any lobby",
		}),
		PacketsRouted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gameserver_packets_routed_total",
			Help: "Total inbound packets routed by message type",
		}, []string{"type"}),
		ProtocolErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gameserver_protocol_errors_total",
			Help: "Total inbound packets rejected as malformed or unrecognized",
		}, []string{"reason"}),
		EnemiesSpawned: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gameserver_enemies_spawned_total",
			Help: "Total enemies spawned by wave scheduling, by archetype",
		}, []string{"enemy_type"}),
		PlayerDeaths: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gameserver_player_deaths_total",
			Help: "Total player death events across every lobby",
		}),
		SnapshotBytes: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gameserver_snapshot_bytes",
			Help:    "Encoded size of one broadcast snapshot message",
			Buckets: []float64{64, 128, 256, 512, 1024, 2048},
		}),
	}
}

// RecordPacket increments the routed-packet counter for msgType.
func (m *Metrics) RecordPacket(msgType string) {
	m.PacketsRouted.WithLabelValues(msgType).Inc()
}

// RecordProtocolError increments the protocol-error counter for reason.
func (m *Metrics) RecordProtocolError(reason string) {
	m.ProtocolErrors.WithLabelValues(reason).Inc()
}

// RecordSpawn increments the enemy-spawned counter for enemyType.
func (m *Metrics) RecordSpawn(enemyType string) {
	m.EnemiesSpawned.WithLabelValues(enemyType).Inc()
}
