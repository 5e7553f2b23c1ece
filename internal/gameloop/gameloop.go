// Package gameloop drives the fixed-rate simulation tick described in
// spec.md §4.9. Each tick first drains and dispatches every packet queued
// by the transport's own receive goroutine, then advances the
// simulation, so a lobby's ecs.World is only ever touched from this one
// goroutine: the transport layer hands off inbound packets over a
// channel but never reaches into a World itself. Torn down via context
// cancellation rather than the original's running-flag-plus-thread-join.
package gameloop

import (
	"context"
	"log/slog"
	"time"

	"github.com/ocx/backend/internal/dispatch"
	"github.com/ocx/backend/internal/lobby"
	"github.com/ocx/backend/internal/metrics"
	"github.com/ocx/backend/internal/transport"
)

// Driver owns the game loop and stops it when its context is canceled.
type Driver struct {
	transport transport.Transport
	manager   *lobby.Manager
	router    *dispatch.ServerRouter
	tickRate  time.Duration
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

func NewDriver(tr transport.Transport, m *lobby.Manager, router *dispatch.ServerRouter, tickHz int, logger *slog.Logger) *Driver {
	if tickHz <= 0 {
		tickHz = 60
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{
		transport: tr,
		manager:   m,
		router:    router,
		tickRate:  time.Second / time.Duration(tickHz),
		logger:    logger,
	}
}

// SetMetrics wires a Prometheus sink for tick duration and lobby/player
// gauges. A nil metrics pointer (the default) disables recording.
func (d *Driver) SetMetrics(m *metrics.Metrics) {
	d.metrics = m
}

// Run blocks until ctx is canceled, running the tick loop. Every tick
// first dispatches the packets the transport queued since the previous
// tick, then advances the simulation, keeping all World access on this
// one goroutine.
func (d *Driver) Run(ctx context.Context) error {
	if err := d.transport.Start(); err != nil {
		return err
	}
	defer d.transport.Stop()

	d.tickLoop(ctx)
	return nil
}

// drainInbound dispatches every packet currently queued by the
// transport's receive goroutine. It never blocks: Poll is non-blocking,
// so a burst of inbound packets is fully drained before the tick that
// follows advances the simulation.
func (d *Driver) drainInbound() {
	for {
		pkt, ok := d.transport.Poll()
		if !ok {
			return
		}
		d.router.Dispatch(pkt.EndpointID, pkt.Data)
	}
}

// tickLoop advances every lobby once per tick interval until ctx is
// canceled, dispatching queued inbound packets immediately beforehand so
// a tick observes input received since the last one.
func (d *Driver) tickLoop(ctx context.Context) {
	dt := d.tickRate.Seconds()
	ticker := time.NewTicker(d.tickRate)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := time.Now()
			d.drainInbound()
			d.manager.TickAll(dt)
			d.manager.ReapEnded()
			d.recordTickMetrics(start)
		}
	}
}

func (d *Driver) recordTickMetrics(start time.Time) {
	if d.metrics == nil {
		return
	}
	d.metrics.TickDuration.Observe(time.Since(start).Seconds())

	lobbies := d.manager.Lobbies()
	running := 0
	players := 0
	for _, l := range lobbies {
		if l.GetState() == lobby.Running {
			running++
		}
		players += l.PlayerCount()
	}
	d.metrics.LobbiesActive.Set(float64(running))
	d.metrics.PlayersConnected.Set(float64(players))
}
