// Package transport implements the UDP carrier described in spec.md §4.1:
// opaque frames in and out, at-most-once unordered delivery, a stable
// 32-bit id per remote endpoint. A buffered Go channel stands in for the
// original's SafeQueue<T> — it already gives the multi-producer/
// single-consumer semantics the game loop needs, with a non-blocking pop
// via select/default.
package transport

import (
	"log/slog"
	"net"
	"sync"
)

// maxDatagramSize bounds a single inbound read; larger payloads are
// dropped with a log line per spec.md §4.1.
const maxDatagramSize = 2048

// inboundQueueSize bounds the buffered channel. The queue is "bounded
// only by memory" per spec.md §5 in the original design; a large but
// finite buffer is the Go-idiomatic compromise — full behavior (the
// incoming packet dropped with a log line) only kicks in under sustained
// game-loop stalls, which the fixed-rate tick loop is not expected to
// produce.
const inboundQueueSize = 4096

// Packet is one inbound datagram: the sender's assigned endpoint id and
// the raw bytes delivered by the codec layer.
type Packet struct {
	EndpointID uint32
	Data       []byte
}

// ClientEndpointID is the fixed id a client transport uses to address its
// single server peer; it is never assigned to anything else.
const ClientEndpointID uint32 = 0

// endpointRegistry assigns a stable 32-bit id to each distinct remote
// address seen, server-side only.
type endpointRegistry struct {
	mu     sync.RWMutex
	nextID uint32
	byAddr map[string]uint32
	byID   map[uint32]*net.UDPAddr
}

func newEndpointRegistry() *endpointRegistry {
	return &endpointRegistry{
		nextID: 1,
		byAddr: make(map[string]uint32),
		byID:   make(map[uint32]*net.UDPAddr),
	}
}

func (r *endpointRegistry) idFor(addr *net.UDPAddr) uint32 {
	key := addr.String()

	r.mu.RLock()
	if id, ok := r.byAddr[key]; ok {
		r.mu.RUnlock()
		return id
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byAddr[key]; ok {
		return id
	}
	id := r.nextID
	r.nextID++
	r.byAddr[key] = id
	r.byID[id] = addr
	return id
}

func (r *endpointRegistry) addrFor(id uint32) (*net.UDPAddr, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[id]
	return a, ok
}

// Endpoint is one (id, address) pair as returned by Clients.
type Endpoint struct {
	ID   uint32
	Addr *net.UDPAddr
}

func (r *endpointRegistry) all() []Endpoint {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Endpoint, 0, len(r.byID))
	for id, addr := range r.byID {
		out = append(out, Endpoint{ID: id, Addr: addr})
	}
	return out
}

// Transport is the common contract both the server and client UDP
// transports satisfy: start the receive loop, stop it, send to a named
// endpoint, and drain inbound packets without blocking.
type Transport interface {
	Start() error
	Stop()
	Send(endpointID uint32, data []byte)
	Poll() (Packet, bool)
	Clients() []Endpoint
}

func logDropped(logger *slog.Logger, n int) {
	logger.Warn("transport: dropping oversized datagram", "bytes", n, "max", maxDatagramSize)
}
