package transport

import (
	"errors"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
)

// ServerTransport is the server-role UDP transport: one socket, many
// remote endpoints each assigned a stable id on first contact.
type ServerTransport struct {
	addr     string
	conn     *net.UDPConn
	logger   *slog.Logger
	stopped  atomic.Bool
	wg       sync.WaitGroup
	inbound  chan Packet
	registry *endpointRegistry
}

// NewServerTransport binds to addr (host:port) once Start is called.
func NewServerTransport(addr string, logger *slog.Logger) *ServerTransport {
	if logger == nil {
		logger = slog.Default()
	}
	return &ServerTransport{
		addr:     addr,
		logger:   logger,
		inbound:  make(chan Packet, inboundQueueSize),
		registry: newEndpointRegistry(),
	}
}

// Start binds the UDP socket and begins the receive loop on its own
// goroutine. It never touches ECS state; only the game-loop goroutine
// calls Poll.
func (t *ServerTransport) Start() error {
	udpAddr, err := net.ResolveUDPAddr("udp", t.addr)
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return err
	}
	t.conn = conn

	t.wg.Add(1)
	go t.receiveLoop()
	return nil
}

func (t *ServerTransport) receiveLoop() {
	defer t.wg.Done()
	buf := make([]byte, maxDatagramSize)
	for {
		n, remote, err := t.conn.ReadFromUDP(buf)
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
		id := t.registry.idFor(remote)

		select {
		case t.inbound <- Packet{EndpointID: id, Data: data}:
		default:
			t.logger.Warn("transport: inbound queue full, dropping packet", "endpoint_id", id)
		}
	}
}

// Stop is idempotent: it ceases receives and closes the socket. In-flight
// sends complete or fail silently; the receive goroutine exits on the
// resulting close error.
func (t *ServerTransport) Stop() {
	if !t.stopped.CompareAndSwap(false, true) {
		return
	}
	if t.conn != nil {
		_ = t.conn.Close()
	}
	t.wg.Wait()
}

// Send enqueues an outbound datagram to endpointID. Unknown ids or a
// stopped transport fail silently, per spec.md §4.1.
func (t *ServerTransport) Send(endpointID uint32, data []byte) {
	if t.stopped.Load() {
		return
	}
	addr, ok := t.registry.addrFor(endpointID)
	if !ok {
		return
	}
	if _, err := t.conn.WriteToUDP(data, addr); err != nil {
		t.logger.Warn("transport: send error", "endpoint_id", endpointID, "error", err)
	}
}

// Poll pops one inbound packet if any are queued; non-blocking.
func (t *ServerTransport) Poll() (Packet, bool) {
	select {
	case p := <-t.inbound:
		return p, true
	default:
		return Packet{}, false
	}
}

// Clients enumerates every (id, address) pair seen so far.
func (t *ServerTransport) Clients() []Endpoint {
	return t.registry.all()
}
