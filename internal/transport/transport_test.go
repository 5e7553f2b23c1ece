package transport

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func udpAddr(t *testing.T, s string) *net.UDPAddr {
	t.Helper()
	a, err := net.ResolveUDPAddr("udp", s)
	require.NoError(t, err)
	return a
}

func TestEndpointRegistryAssignsStableIDs(t *testing.T) {
	r := newEndpointRegistry()
	a := udpAddr(t, "127.0.0.1:1111")
	b := udpAddr(t, "127.0.0.1:2222")

	idA1 := r.idFor(a)
	idB := r.idFor(b)
	idA2 := r.idFor(a)

	assert.Equal(t, idA1, idA2)
	assert.NotEqual(t, idA1, idB)

	resolved, ok := r.addrFor(idA1)
	require.True(t, ok)
	assert.Equal(t, a.String(), resolved.String())
}

func TestEndpointRegistryUnknownIDNotFound(t *testing.T) {
	r := newEndpointRegistry()
	_, ok := r.addrFor(999)
	assert.False(t, ok)
}

func TestClientTransportClientsReportsFixedEndpoint(t *testing.T) {
	ct := NewClientTransport("127.0.0.1:0", nil)
	eps := ct.Clients()
	require.Len(t, eps, 1)
	assert.Equal(t, ClientEndpointID, eps[0].ID)
}
