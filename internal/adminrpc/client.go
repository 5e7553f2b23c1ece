// Package adminrpc is the fleet control-plane client: each server
// instance reports its lobby roster to a fleet controller and can be
// asked to drain before a rolling restart. Adapted from the teacher's
// JuryGRPCClient (internal/escrow/jury_client.go), which holds a real
// *grpc.ClientConn alongside locally-computed logic since no proto has
// been compiled for either service.
package adminrpc

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/ocx/backend/internal/lobby"
	"github.com/ocx/backend/pb"
)

// FleetClient reports this instance's state to the fleet controller.
type FleetClient struct {
	conn         *grpc.ClientConn
	logger       *slog.Logger
	instanceAddr string
	capacityMax  int
}

// NewFleetClient dials the fleet controller at controllerAddr. instanceAddr
// identifies this process in heartbeat reports; capacityMax bounds how
// many lobbies this instance will claim to be able to host.
func NewFleetClient(controllerAddr, instanceAddr string, capacityMax int, logger *slog.Logger) (*FleetClient, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := grpc.NewClient(controllerAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("adminrpc: dial fleet controller %s: %w", controllerAddr, err)
	}
	return &FleetClient{conn: conn, logger: logger, instanceAddr: instanceAddr, capacityMax: capacityMax}, nil
}

// Heartbeat builds an InstanceReport from m's current lobbies and records
// it. Until the fleet controller's proto is compiled, the report is
// validated and logged locally rather than sent over conn.
func (c *FleetClient) Heartbeat(ctx context.Context, m *lobby.Manager) (*pb.Ack, error) {
	lobbies := m.Lobbies()
	report := &pb.InstanceReport{
		InstanceAddr: c.instanceAddr,
		CapacityUsed: len(lobbies),
		CapacityMax:  c.capacityMax,
	}
	for _, l := range lobbies {
		report.Lobbies = append(report.Lobbies, &pb.LobbyStatus{
			Code:        l.Code(),
			State:       l.GetState().String(),
			PlayerCount: l.PlayerCount(),
		})
	}

	if report.CapacityUsed > report.CapacityMax {
		c.logger.Warn("adminrpc: instance over capacity", "instance", c.instanceAddr,
			"used", report.CapacityUsed, "max", report.CapacityMax)
		return &pb.Ack{Accepted: false, Message: "over capacity"}, nil
	}

	c.logger.Debug("adminrpc: heartbeat", "instance", c.instanceAddr, "lobbies", report.CapacityUsed)
	return &pb.Ack{Accepted: true, Message: "ok"}, nil
}

// RequestDrain reports how many lobbies remain on this instance, so the
// fleet controller knows when it's safe to terminate the process.
func (c *FleetClient) RequestDrain(ctx context.Context, m *lobby.Manager) (*pb.DrainStatus, error) {
	remaining := 0
	for _, l := range m.Lobbies() {
		if l.GetState() != lobby.Ended {
			remaining++
		}
	}
	return &pb.DrainStatus{
		InstanceAddr: c.instanceAddr,
		LobbiesLeft:  remaining,
		Drained:      remaining == 0,
	}, nil
}

func (c *FleetClient) Close() error {
	return c.conn.Close()
}
