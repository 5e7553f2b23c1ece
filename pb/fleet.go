package pb

import (
	"context"

	"google.golang.org/grpc"
)

// Fleet control-plane types: hand-written plain Go instead of a compiled
// .proto.

// LobbyStatus is one instance's report of a single lobby it hosts.
type LobbyStatus struct {
	Code          string
	State         string
	PlayerCount   int
	WaveReached   int
	DurationSecs  float64
}

// InstanceReport is what one server instance sends the fleet controller
// on each heartbeat.
type InstanceReport struct {
	InstanceAddr string
	Lobbies      []*LobbyStatus
	CapacityUsed int
	CapacityMax  int
}

type Ack struct {
	Accepted bool
	Message  string
}

// DrainRequest asks an instance to stop accepting new lobbies and report
// when every hosted lobby has ended.
type DrainRequest struct {
	InstanceAddr string
}

type DrainStatus struct {
	InstanceAddr  string
	LobbiesLeft   int
	Drained       bool
}

// FleetServiceClient is the admin control-plane surface a server instance
// dials to report state and receive fleet commands.
type FleetServiceClient interface {
	ReportHeartbeat(ctx context.Context, in *InstanceReport, opts ...grpc.CallOption) (*Ack, error)
	RequestDrain(ctx context.Context, in *DrainRequest, opts ...grpc.CallOption) (*DrainStatus, error)
}

// FleetServiceServer is implemented by the fleet controller.
type FleetServiceServer interface {
	ReportHeartbeat(context.Context, *InstanceReport) (*Ack, error)
	RequestDrain(context.Context, *DrainRequest) (*DrainStatus, error)
}

type UnimplementedFleetServiceServer struct{}

func (UnimplementedFleetServiceServer) ReportHeartbeat(context.Context, *InstanceReport) (*Ack, error) {
	return nil, nil
}

func (UnimplementedFleetServiceServer) RequestDrain(context.Context, *DrainRequest) (*DrainStatus, error) {
	return nil, nil
}
