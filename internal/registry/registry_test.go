package registry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRegistryRegisterResolveDeregister(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRegistry()

	require.NoError(t, r.RegisterLobby(ctx, "ABCD", "10.0.0.1:9000"))

	addr, err := r.ResolveLobby(ctx, "ABCD")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1:9000", addr)

	instances, err := r.ActiveInstances(ctx)
	require.NoError(t, err)
	assert.Contains(t, instances, "10.0.0.1:9000")

	require.NoError(t, r.DeregisterLobby(ctx, "ABCD"))
	_, err = r.ResolveLobby(ctx, "ABCD")
	assert.Error(t, err)
}

func TestMemoryRegistryResolveUnknownLobbyFails(t *testing.T) {
	r := NewMemoryRegistry()
	_, err := r.ResolveLobby(context.Background(), "NOPE")
	assert.Error(t, err)
}

func TestNewRedisRegistryFailsPingOnUnreachableHost(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewRedisRegistry(ctx, "127.0.0.1:1", "", 0)
	assert.Error(t, err)
}
