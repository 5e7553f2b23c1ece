package transport

import (
	"errors"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
)

// ClientTransport is the client-role UDP transport: a single connected
// socket addressing one server peer, always reachable as ClientEndpointID.
type ClientTransport struct {
	addr    string
	conn    *net.UDPConn
	logger  *slog.Logger
	stopped atomic.Bool
	wg      sync.WaitGroup
	inbound chan Packet
}

// NewClientTransport connects to addr (host:port) once Start is called.
func NewClientTransport(addr string, logger *slog.Logger) *ClientTransport {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClientTransport{
		addr:    addr,
		logger:  logger,
		inbound: make(chan Packet, inboundQueueSize),
	}
}

// Start dials the UDP socket and begins the receive loop.
func (t *ClientTransport) Start() error {
	udpAddr, err := net.ResolveUDPAddr("udp", t.addr)
	if err != nil {
		return err
	}
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return err
	}
	t.conn = conn

	t.wg.Add(1)
	go t.receiveLoop()
	return nil
}

func (t *ClientTransport) receiveLoop() {
	defer t.wg.Done()
	buf := make([]byte, maxDatagramSize)
	for {
		n, err := t.conn.Read(buf)
		if err != nil {
			if t.stopped.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			t.logger.Warn("transport: receive error", "error", err)
			continue
		}
		if n == 0 {
			continue
		}
		if n == len(buf) {
			logDropped(t.logger, n)
			continue
		}

		data := make([]byte, n)
		copy(data, buf[:n])

		select {
		case t.inbound <- Packet{EndpointID: ClientEndpointID, Data: data}:
		default:
			t.logger.Warn("transport: inbound queue full, dropping packet")
		}
	}
}

// Stop is idempotent.
func (t *ClientTransport) Stop() {
	if !t.stopped.CompareAndSwap(false, true) {
		return
	}
	if t.conn != nil {
		_ = t.conn.Close()
	}
	t.wg.Wait()
}

// Send writes to the server peer; endpointID is ignored (any value is
// accepted, matching the original client's single-peer assumption).
func (t *ClientTransport) Send(endpointID uint32, data []byte) {
	if t.stopped.Load() {
		return
	}
	if _, err := t.conn.Write(data); err != nil {
		t.logger.Warn("transport: send error", "error", err)
	}
}

// Poll pops one inbound packet if any are queued; non-blocking.
func (t *ClientTransport) Poll() (Packet, bool) {
	select {
	case p := <-t.inbound:
		return p, true
	default:
		return Packet{}, false
	}
}

// Clients is meaningless for a client transport; it always reports the
// single server peer under ClientEndpointID with no resolvable address.
func (t *ClientTransport) Clients() []Endpoint {
	return []Endpoint{{ID: ClientEndpointID}}
}
